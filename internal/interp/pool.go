package interp

import (
	"fmt"

	"github.com/born-ml/interp/internal/ir"
	"github.com/born-ml/interp/internal/parallel"
	"github.com/born-ml/interp/internal/tensor"
)

// fwdPoolMax performs 2-D NHWC max pooling and records, for every output
// cell, the absolute input (h, w) of the selected element in SrcXY.
//
// The first in-range candidate seeds the maximum. Later candidates replace
// it when greater or equal, so ties resolve to the last one scanned.
func (ip *Interpreter) fwdPoolMax(ctx *Context, inst *ir.PoolInst) {
	if inst.SrcXY == nil {
		panic(fmt.Sprintf("pool: max pooling of %s needs an argmax value", inst.Src))
	}
	inW := ctx.WeightHandle(inst.Src)
	outW := ctx.WeightHandle(inst.Dest)
	srcXY := ctx.IndexHandle(inst.SrcXY)

	idim := tensor.ShapeNHWC(inW.Dims())
	odim := tensor.ShapeNHWC(outW.Dims())
	k, stride, pad := inst.Kernel, inst.Stride, inst.Pad

	parallel.ForBatch(odim.N, idim.C, func(n, z int) {
		for oh := 0; oh < odim.H; oh++ {
			y := oh*stride - pad
			for ow := 0; ow < odim.W; ow++ {
				x := ow*stride - pad

				first := true
				var maxVal float32
				maxH, maxW := y, x
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
						val := inW.At(n, ih, iw, z)
						if first || val >= maxVal {
							first = false
							maxVal = val
							maxH, maxW = ih, iw
						}
					}
				}
				if first {
					panic(fmt.Sprintf("pool: window at (%d, %d) covers no input", oh, ow))
				}

				srcXY.Set(int64(maxH), n, oh, ow, z, 0)
				srcXY.Set(int64(maxW), n, oh, ow, z, 1)
				outW.Set(maxVal, n, oh, ow, z)
			}
		}
	}, ip.par)
}

// fwdPoolAvg performs 2-D NHWC average pooling. The window sum is divided
// by the nominal area kernel², so cells overlapping the padding are scaled
// down.
func (ip *Interpreter) fwdPoolAvg(ctx *Context, inst *ir.PoolInst) {
	inW := ctx.WeightHandle(inst.Src)
	outW := ctx.WeightHandle(inst.Dest)

	idim := tensor.ShapeNHWC(inW.Dims())
	odim := tensor.ShapeNHWC(outW.Dims())
	k, stride, pad := inst.Kernel, inst.Stride, inst.Pad
	area := float32(k * k)

	parallel.ForBatch(odim.N, idim.C, func(n, z int) {
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
						sum += inW.At(n, ih, iw, z)
					}
				}
				outW.Set(sum/area, n, oh, ow, z)
			}
		}
	}, ip.par)
}

// bwdPoolMax routes each output cell's whole gradient to the input element
// recorded by the forward pass.
func bwdPoolMax(ctx *Context, inst *ir.PoolInst) {
	inG := ctx.GradHandle(inst.Src)
	outG := ctx.GradHandle(inst.Dest)
	srcXY := ctx.IndexHandle(inst.SrcXY)

	odim := tensor.ShapeNHWC(outG.Dims())
	for n := 0; n < odim.N; n++ {
		for z := 0; z < odim.C; z++ {
			for oh := 0; oh < odim.H; oh++ {
				for ow := 0; ow < odim.W; ow++ {
					chainGrad := outG.At(n, oh, ow, z)
					maxH := int(srcXY.At(n, oh, ow, z, 0))
					maxW := int(srcXY.At(n, oh, ow, z, 1))
					inG.Add(chainGrad, n, maxH, maxW, z)
				}
			}
		}
	}
}

// bwdPoolAvg spreads gradient/kernel² over every in-range window position.
func bwdPoolAvg(ctx *Context, inst *ir.PoolInst) {
	inG := ctx.GradHandle(inst.Src)
	outG := ctx.GradHandle(inst.Dest)

	idim := tensor.ShapeNHWC(inG.Dims())
	odim := tensor.ShapeNHWC(outG.Dims())
	k, stride, pad := inst.Kernel, inst.Stride, inst.Pad
	area := float32(k * k)

	for n := 0; n < odim.N; n++ {
		for z := 0; z < odim.C; z++ {
			for oh := 0; oh < odim.H; oh++ {
				y := oh*stride - pad
				for ow := 0; ow < odim.W; ow++ {
					x := ow*stride - pad
					dy := outG.At(n, oh, ow, z) / area

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
							inG.Add(dy, n, ih, iw, z)
						}
					}
				}
			}
		}
	}
}
