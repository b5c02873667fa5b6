package interp

import (
	"math"

	"github.com/born-ml/interp/internal/ir"
	"github.com/born-ml/interp/internal/tensor"
)

// fwdLocalResponseNormalization normalises every element by the squares of
// its channel neighbours:
//
//	scale[c] = k + alpha/(2h+1) · Σ_{j=c-h}^{c+h} x[j]²
//	y[c]     = x[c] · scale[c]^-beta
//
// The window sum slides across channels, dropping the channel that leaves
// and adding the one that enters, so each position costs O(C). Scale is
// cached for the backward pass.
func fwdLocalResponseNormalization(ctx *Context, inst *ir.LocalResponseNormalizationInst) {
	inW := ctx.WeightHandle(inst.Src)
	outW := ctx.WeightHandle(inst.Dest)
	scaleW := ctx.WeightHandle(inst.Scale)

	dim := tensor.ShapeNHWC(inW.Dims())
	half := inst.HalfWindowSize
	normedAlpha := inst.Alpha / float32(2*half+1)
	negBeta := -float64(inst.Beta)
	in, out, scaleCache := inW.Data(), outW.Data(), scaleW.Data()

	for n := 0; n < dim.N; n++ {
		for h := 0; h < dim.H; h++ {
			for w := 0; w < dim.W; w++ {
				base := inW.Index(n, h, w)
				x := in[base : base+dim.C]

				var squareSum float32
				for c := 0; c <= half && c < dim.C; c++ {
					squareSum += x[c] * x[c]
				}

				for c := 0; c < dim.C; c++ {
					scale := inst.K + normedAlpha*squareSum
					scaleCache[base+c] = scale
					out[base+c] = x[c] * float32(math.Pow(float64(scale), negBeta))

					if sub := c - half; sub >= 0 {
						squareSum -= x[sub] * x[sub]
					}
					if add := c + half + 1; add < dim.C {
						squareSum += x[add] * x[add]
					}
				}
			}
		}
	}
}

// bwdLocalResponseNormalization accumulates
//
//	dx[c] += dy[c]·scale[c]^-beta - 2·alpha/(2h+1)·beta·x[c] · Σ_{j=c-h}^{c+h} dy[j]·y[j]/scale[j]
//
// with the window sum slid across channels the same way as the forward pass.
func bwdLocalResponseNormalization(ctx *Context, inst *ir.LocalResponseNormalizationInst) {
	inW := ctx.WeightHandle(inst.Src)
	inG := ctx.GradHandle(inst.Src)
	outW := ctx.WeightHandle(inst.Dest)
	outG := ctx.GradHandle(inst.Dest)
	scaleW := ctx.WeightHandle(inst.Scale)

	dim := tensor.ShapeNHWC(outW.Dims())
	half := inst.HalfWindowSize
	normedAlpha := inst.Alpha / float32(2*half+1)
	beta := inst.Beta
	in, inGrad := inW.Data(), inG.Data()
	out, dy, scaleCache := outW.Data(), outG.Data(), scaleW.Data()

	term := func(i int) float32 {
		return dy[i] * (out[i] / scaleCache[i])
	}

	for n := 0; n < dim.N; n++ {
		for h := 0; h < dim.H; h++ {
			for w := 0; w < dim.W; w++ {
				base := outW.Index(n, h, w)

				var sum float32
				for c := 0; c <= half && c < dim.C; c++ {
					sum += term(base + c)
				}

				for c := 0; c < dim.C; c++ {
					i := base + c
					norm := float32(math.Pow(float64(scaleCache[i]), -float64(beta)))
					inGrad[i] += dy[i]*norm - 2*normedAlpha*beta*in[i]*sum

					if sub := c - half; sub >= 0 {
						sum -= term(base + sub)
					}
					if add := c + half + 1; add < dim.C {
						sum += term(base + add)
					}
				}
			}
		}
	}
}
