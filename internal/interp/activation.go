package interp

import (
	"math"

	"github.com/born-ml/interp/internal/ir"
)

func fwdRelu(ctx *Context, inst *ir.ReluInst) {
	inW := ctx.WeightHandle(inst.Src).Data()
	outW := ctx.WeightHandle(inst.Dest).Data()
	for i, x := range inW {
		outW[i] = max(x, 0)
	}
}

// bwdRelu passes the gradient where the output is positive. An output of
// exactly zero blocks it.
func bwdRelu(ctx *Context, inst *ir.ReluInst) {
	inG := ctx.GradHandle(inst.Src).Data()
	outW := ctx.WeightHandle(inst.Dest).Data()
	outG := ctx.GradHandle(inst.Dest).Data()
	for i, y := range outW {
		if y <= 0 {
			continue
		}
		inG[i] += outG[i]
	}
}

func fwdSigmoid(ctx *Context, inst *ir.SigmoidInst) {
	inW := ctx.WeightHandle(inst.Src).Data()
	outW := ctx.WeightHandle(inst.Dest).Data()
	for i, x := range inW {
		outW[i] = float32(1 / (1 + math.Exp(-float64(x))))
	}
}

// bwdSigmoid uses the cached output: dy/dx = y·(1-y).
func bwdSigmoid(ctx *Context, inst *ir.SigmoidInst) {
	inG := ctx.GradHandle(inst.Src).Data()
	outW := ctx.WeightHandle(inst.Dest).Data()
	outG := ctx.GradHandle(inst.Dest).Data()
	for i, y := range outW {
		inG[i] += y * (1 - y) * outG[i]
	}
}

func fwdTanh(ctx *Context, inst *ir.TanhInst) {
	inW := ctx.WeightHandle(inst.Src).Data()
	outW := ctx.WeightHandle(inst.Dest).Data()
	for i, x := range inW {
		outW[i] = float32(math.Tanh(float64(x)))
	}
}

// bwdTanh uses the cached output: dy/dx = 1-y².
func bwdTanh(ctx *Context, inst *ir.TanhInst) {
	inG := ctx.GradHandle(inst.Src).Data()
	outW := ctx.WeightHandle(inst.Dest).Data()
	outG := ctx.GradHandle(inst.Dest).Data()
	for i, y := range outW {
		inG[i] += (1 - y*y) * outG[i]
	}
}
