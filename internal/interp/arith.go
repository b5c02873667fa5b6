package interp

import (
	"fmt"

	"github.com/born-ml/interp/internal/ir"
)

func fwdArithmetic(ctx *Context, inst *ir.ArithmeticInst) {
	out := ctx.WeightHandle(inst.Dest).Data()
	lhs := ctx.WeightHandle(inst.LHS).Data()
	rhs := ctx.WeightHandle(inst.RHS).Data()
	if len(lhs) != len(out) || len(rhs) != len(out) {
		panic(fmt.Sprintf("arithmetic: operand sizes %d, %d and %d differ", len(out), len(lhs), len(rhs)))
	}

	switch inst.Op {
	case ir.ArithAdd:
		for i := range out {
			out[i] = lhs[i] + rhs[i]
		}
	case ir.ArithMul:
		for i := range out {
			out[i] = lhs[i] * rhs[i]
		}
	default:
		panic(fmt.Sprintf("arithmetic: unknown op %s", inst.Op))
	}
}

// bwdArithmetic assigns, rather than accumulates, both operand gradients:
// dy for Add, other·dy for Mul. Operands must have no other consumer.
func bwdArithmetic(ctx *Context, inst *ir.ArithmeticInst) {
	outG := ctx.GradHandle(inst.Dest).Data()
	lhsG := ctx.GradHandle(inst.LHS).Data()
	rhsG := ctx.GradHandle(inst.RHS).Data()

	switch inst.Op {
	case ir.ArithAdd:
		copy(lhsG, outG)
		copy(rhsG, outG)
	case ir.ArithMul:
		lhs := ctx.WeightHandle(inst.LHS).Data()
		rhs := ctx.WeightHandle(inst.RHS).Data()
		for i, g := range outG {
			lhsG[i] = rhs[i] * g
			rhsG[i] = lhs[i] * g
		}
	default:
		panic(fmt.Sprintf("arithmetic: unknown op %s", inst.Op))
	}
}
