package interp

import (
	"testing"

	"github.com/born-ml/interp/internal/ir"
	"github.com/born-ml/interp/internal/tensor"
	"github.com/stretchr/testify/assert"
)

func newArith(op ir.ArithKind) *ir.ArithmeticInst {
	fn := ir.NewFunction("arith")
	return &ir.ArithmeticInst{
		LHS:  fn.NewValue("a", tensor.Shape{3}),
		RHS:  fn.NewValue("b", tensor.Shape{3}),
		Dest: fn.NewValue("c", tensor.Shape{3}),
		Op:   op,
	}
}

func TestArithmetic(t *testing.T) {
	tests := []struct {
		name         string
		op           ir.ArithKind
		want         []float32
		wantL, wantR []float32
	}{
		{"add", ir.ArithAdd, []float32{5, 7, 9}, []float32{1, 2, 3}, []float32{1, 2, 3}},
		{"mul", ir.ArithMul, []float32{4, 10, 18}, []float32{4, 10, 18}, []float32{1, 4, 9}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inst := newArith(tt.op)
			ctx := NewContext()
			bind(t, ctx, inst.LHS, []float32{1, 2, 3})
			bind(t, ctx, inst.RHS, []float32{4, 5, 6})

			ip := newTestInterpreter()
			ip.ForwardInst(ctx, inst, false)
			assert.Equal(t, tt.want, ctx.Weight(inst.Dest).Data())

			// Stale gradients are overwritten, not accumulated.
			seed(ctx, inst.LHS, []float32{100, 100, 100})
			seed(ctx, inst.RHS, []float32{100, 100, 100})
			seed(ctx, inst.Dest, []float32{1, 2, 3})
			ip.BackwardInst(ctx, inst)
			assert.Equal(t, tt.wantL, ctx.Grad(inst.LHS).Data())
			assert.Equal(t, tt.wantR, ctx.Grad(inst.RHS).Data())
		})
	}
}
