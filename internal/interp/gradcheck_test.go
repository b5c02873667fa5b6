package interp

import (
	"math"
	"testing"

	"github.com/born-ml/interp/internal/ir"
	"github.com/born-ml/interp/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/floats"
)

func toFloat64(s []float32) []float64 {
	out := make([]float64, len(s))
	for i, v := range s {
		out[i] = float64(v)
	}
	return out
}

// checkGradient compares the analytic gradient of L = Σ w·y with respect to
// x against central finite differences. x must already be bound in ctx.
func checkGradient(t *testing.T, fn *ir.Function, ctx *Context, x, y *ir.Value, isTrain bool) {
	t.Helper()
	ip := newTestInterpreter()
	w := randomFloats(newRand(42), y.Shape.NumElements())
	w64 := toFloat64(w)

	xw := ctx.Weight(x)
	require.NotNil(t, xw, "%s must be bound", x)
	x0 := toFloat64(xw.Data())

	loss := func(xs []float64) float64 {
		for i, v := range xs {
			xw.Data()[i] = float32(v)
		}
		ip.Forward(ctx, fn, isTrain)
		return floats.Dot(toFloat64(ctx.Weight(y).Data()), w64)
	}
	probe := append([]float64(nil), x0...)
	numeric := fd.Gradient(nil, loss, probe, &fd.Settings{Formula: fd.Central, Step: 1e-2})

	loss(x0)
	ctx.ZeroGradients()
	seed(ctx, y, w)
	ip.Backward(ctx, fn)
	analytic := toFloat64(ctx.Grad(x).Data())

	require.Len(t, analytic, len(numeric))
	for i := range numeric {
		tol := 1e-2 * math.Max(1, math.Abs(numeric[i]))
		assert.InDelta(t, numeric[i], analytic[i], tol, "d%s[%d]", x.Name, i)
	}
}

func TestGradient_Convolution(t *testing.T) {
	f := newConvFixture(tensor.Shape{1, 5, 4, 2}, 3, 2, 1, 3)
	r := newRand(1)
	ctx := NewContext()
	bind(t, ctx, f.input, randomFloats(r, 40))
	bind(t, ctx, f.filter, randomFloats(r, 54))
	bind(t, ctx, f.bias, randomFloats(r, 3))

	t.Run("input", func(t *testing.T) { checkGradient(t, f.fn, ctx, f.input, f.dest, false) })
	t.Run("filter", func(t *testing.T) { checkGradient(t, f.fn, ctx, f.filter, f.dest, false) })
	t.Run("bias", func(t *testing.T) { checkGradient(t, f.fn, ctx, f.bias, f.dest, false) })
}

func TestGradient_FullyConnected(t *testing.T) {
	inst, fn := newFC(tensor.Shape{3, 4}, 2)
	r := newRand(2)
	ctx := NewContext()
	bind(t, ctx, inst.Src, randomFloats(r, 12))
	bind(t, ctx, inst.Filter, randomFloats(r, 8))
	bind(t, ctx, inst.Bias, randomFloats(r, 2))

	t.Run("input", func(t *testing.T) { checkGradient(t, fn, ctx, inst.Src, inst.Dest, false) })
	t.Run("filter", func(t *testing.T) { checkGradient(t, fn, ctx, inst.Filter, inst.Dest, false) })
}

func TestGradient_SigmoidTanh(t *testing.T) {
	fn := ir.NewFunction("act")
	x := fn.NewValue("x", tensor.Shape{2, 3})
	s := fn.NewValue("s", tensor.Shape{2, 3})
	y := fn.NewValue("y", tensor.Shape{2, 3})
	fn.Append(&ir.SigmoidInst{Dest: s, Src: x}, &ir.TanhInst{Dest: y, Src: s})

	ctx := NewContext()
	bind(t, ctx, x, randomFloats(newRand(3), 6))
	checkGradient(t, fn, ctx, x, y, false)
}

// TestGradient_BatchNorm runs in training mode with momentum 1, which makes
// the running statistics equal the batch statistics of each probe.
func TestGradient_BatchNorm(t *testing.T) {
	inst := newBatchNorm(tensor.Shape{3, 1, 2, 2}, 3, 1e-3, 1)
	fn := ir.NewFunction("bn")
	fn.Append(inst)

	r := newRand(4)
	ctx := NewContext()
	bind(t, ctx, inst.Src, randomFloats(r, 12))
	bind(t, ctx, inst.Scale, []float32{1.5, -0.5})
	bind(t, ctx, inst.Bias, []float32{0.1, 0.2})

	t.Run("input", func(t *testing.T) { checkGradient(t, fn, ctx, inst.Src, inst.Dest, true) })
	t.Run("scale", func(t *testing.T) { checkGradient(t, fn, ctx, inst.Scale, inst.Dest, true) })
}

func TestGradient_LRN(t *testing.T) {
	inst := newLRN(tensor.Shape{1, 2, 2, 5}, 2, 0.5, 0.75, 1)
	fn := ir.NewFunction("lrn")
	fn.Append(inst)

	ctx := NewContext()
	bind(t, ctx, inst.Src, randomFloats(newRand(5), 20))
	checkGradient(t, fn, ctx, inst.Src, inst.Dest, false)
}

func TestGradient_AvgPool(t *testing.T) {
	inst, src, dest := newPool(ir.PoolAvg, tensor.Shape{1, 4, 4, 2}, 3, 1, 1)
	fn := ir.NewFunction("pool")
	fn.Append(inst)

	ctx := NewContext()
	bind(t, ctx, src, randomFloats(newRand(6), 32))
	checkGradient(t, fn, ctx, src, dest, false)
}
