package interp

import (
	"fmt"

	"github.com/born-ml/interp/internal/ir"
	"github.com/born-ml/interp/internal/parallel"
	"github.com/born-ml/interp/internal/tensor"
)

// fwdConvolution performs a direct 2-D NHWC convolution.
//
// Input shape:  [N, H, W, C]
// Filter shape: [D, K, K, C]
// Bias shape:   [D]
// Output shape: [N, OH, OW, D]
//
// Output cell (n, oh, ow, d) reads input rows oh·stride - pad + fh and
// columns ow·stride - pad + fw. Coordinates outside the input are padding
// and contribute nothing.
//
// The (n, d) loop is split across workers; each worker owns whole output
// planes, so a cell's sum is accumulated in the same order either way.
func (ip *Interpreter) fwdConvolution(ctx *Context, inst *ir.ConvolutionInst) {
	inW := ctx.WeightHandle(inst.Src)
	outW := ctx.WeightHandle(inst.Dest)
	filterW := ctx.WeightHandle(inst.Filter)
	biasW := ctx.WeightHandle(inst.Bias)

	idim := tensor.ShapeNHWC(inW.Dims())
	odim := tensor.ShapeNHWC(outW.Dims())
	checkConvFilter(filterW.Dims(), inst, idim, odim)

	k, stride, pad := inst.Kernel, inst.Stride, inst.Pad
	in, filter, out := inW.Data(), filterW.Data(), outW.Data()

	parallel.ForBatch(idim.N, odim.C, func(n, d int) {
		bias := biasW.At(d)
		for oh := 0; oh < odim.H; oh++ {
			y := oh*stride - pad
			for ow := 0; ow < odim.W; ow++ {
				x := ow*stride - pad

				var sum float32
				for fh := 0; fh < k; fh++ {
					ih := y + fh
					if ih < 0 || ih >= idim.H {
						continue
					}
					for fw := 0; fw < k; fw++ {
						iw := x + fw
						if iw < 0 || iw >= idim.W {
							continue
						}
						inBase := inW.Index(n, ih, iw)
						filterBase := filterW.Index(d, fh, fw)
						for c := 0; c < idim.C; c++ {
							sum += filter[filterBase+c] * in[inBase+c]
						}
					}
				}

				out[outW.Index(n, oh, ow, d)] = sum + bias
			}
		}
	}, ip.par)
}

// bwdConvolution accumulates the filter, bias and input gradients.
//
// For every output cell with upstream gradient g:
//
//	dFilter[d, fh, fw, c] += g · in[n, ih, iw, c]
//	dIn[n, ih, iw, c]     += g · filter[d, fh, fw, c]
//	dBias[d]              += g
//
// Filter and bias gradients are shared by every sample and position, so
// this kernel runs sequentially.
func bwdConvolution(ctx *Context, inst *ir.ConvolutionInst) {
	inW := ctx.WeightHandle(inst.Src)
	inG := ctx.GradHandle(inst.Src)
	outG := ctx.GradHandle(inst.Dest)
	filterW := ctx.WeightHandle(inst.Filter)
	filterG := ctx.GradHandle(inst.Filter)
	biasG := ctx.GradHandle(inst.Bias)

	idim := tensor.ShapeNHWC(inW.Dims())
	odim := tensor.ShapeNHWC(outG.Dims())
	k, stride, pad := inst.Kernel, inst.Stride, inst.Pad
	in, inGrad := inW.Data(), inG.Data()
	filter, filterGrad := filterW.Data(), filterG.Data()

	for n := 0; n < odim.N; n++ {
		for d := 0; d < odim.C; d++ {
			for oh := 0; oh < odim.H; oh++ {
				y := oh*stride - pad
				for ow := 0; ow < odim.W; ow++ {
					x := ow*stride - pad
					chainGrad := outG.At(n, oh, ow, d)

					for fh := 0; fh < k; fh++ {
						ih := y + fh
						if ih < 0 || ih >= idim.H {
							continue
						}
						for fw := 0; fw < k; fw++ {
							iw := x + fw
							if iw < 0 || iw >= idim.W {
								continue
							}
							inBase := inW.Index(n, ih, iw)
							filterBase := filterW.Index(d, fh, fw)
							for c := 0; c < idim.C; c++ {
								filterGrad[filterBase+c] += in[inBase+c] * chainGrad
								inGrad[inBase+c] += filter[filterBase+c] * chainGrad
							}
						}
					}

					biasG.Add(chainGrad, d)
				}
			}
		}
	}
}

func checkConvFilter(filter tensor.Shape, inst *ir.ConvolutionInst, idim, odim tensor.NHWC) {
	want := tensor.Shape{odim.C, inst.Kernel, inst.Kernel, idim.C}
	if !filter.Equal(want) {
		panic(fmt.Sprintf("convolution: filter shape %v, want %v", filter, want))
	}
	if inst.Stride < 1 {
		panic(fmt.Sprintf("convolution: stride %d < 1", inst.Stride))
	}
}
