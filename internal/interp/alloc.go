package interp

import "github.com/born-ml/interp/internal/ir"

// fwdAllocActivation brings the activation buffer to life and clears its
// gradient so the next backward pass accumulates from zero.
func fwdAllocActivation(ctx *Context, inst *ir.AllocActivationInst) {
	ctx.AllocateBackingTensor(inst.Dest)
	ctx.GradTensor(inst.Dest).Zero()
}
