package interp

import (
	"fmt"

	"github.com/born-ml/interp/internal/ir"
)

// fwdCopy copies src into dest element for element. Copy, Reshape and the
// Regression forward all reduce to it.
func fwdCopy(ctx *Context, dest, src *ir.Value) {
	inW := ctx.WeightHandle(src)
	outW := ctx.WeightHandle(dest)
	if inW.Size() != outW.Size() {
		panic(fmt.Sprintf("copy: %s has %d elements, %s has %d", src, inW.Size(), dest, outW.Size()))
	}
	copy(outW.Data(), inW.Data())
}

// bwdCopy accumulates the upstream gradient into src unchanged.
func bwdCopy(ctx *Context, dest, src *ir.Value) {
	inG := ctx.GradHandle(src).Data()
	outG := ctx.GradHandle(dest).Data()
	for i, g := range outG {
		inG[i] += g
	}
}

func fwdTranspose(ctx *Context, inst *ir.TransposeInst) {
	inW := ctx.WeightHandle(inst.Src)
	outW := ctx.WeightHandle(inst.Dest)
	inW.Transpose(outW.Tensor(), inst.Shuffle)
}

// bwdTranspose routes the upstream gradient back through the inverse
// permutation. It overwrites the source gradient rather than accumulating,
// so a transposed value must have a single consumer.
func bwdTranspose(ctx *Context, inst *ir.TransposeInst) {
	inG := ctx.GradHandle(inst.Src)
	outG := ctx.GradHandle(inst.Dest)

	reverse := make([]int, len(inst.Shuffle))
	for i, s := range inst.Shuffle {
		reverse[s] = i
	}
	outG.Transpose(inG.Tensor(), reverse)
}

// fwdConcat writes each source into a disjoint slice of dest along Dim, in
// operand order.
func fwdConcat(ctx *Context, inst *ir.ConcatInst) {
	outW := ctx.WeightHandle(inst.Dest)
	offset := make([]int, len(outW.Dims()))
	for _, src := range inst.Srcs {
		inW := ctx.WeightHandle(src)
		outW.InsertTensor(inW, offset)
		offset[inst.Dim] += inW.Dims()[inst.Dim]
	}
}

// bwdConcat extracts each source's slice of the upstream gradient. Like
// bwdTranspose it overwrites the source gradients.
func bwdConcat(ctx *Context, inst *ir.ConcatInst) {
	outG := ctx.GradHandle(inst.Dest)
	offset := make([]int, len(outG.Dims()))
	for _, src := range inst.Srcs {
		inG := ctx.GradHandle(src)
		outG.ExtractTensor(inG, offset)
		offset[inst.Dim] += inG.Dims()[inst.Dim]
	}
}
