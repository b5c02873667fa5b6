package interp

import (
	"math"
	"testing"

	"github.com/born-ml/interp/internal/ir"
	"github.com/born-ml/interp/internal/tensor"
	"github.com/stretchr/testify/assert"
)

func newBatchNorm(in tensor.Shape, channelIdx int, epsilon, momentum float32) *ir.BatchNormalizationInst {
	fn := ir.NewFunction("bn")
	c := tensor.Shape{in[channelIdx]}
	return &ir.BatchNormalizationInst{
		Src:        fn.NewValue("x", in),
		Dest:       fn.NewValue("y", in),
		Scale:      fn.NewValue("gamma", c),
		Bias:       fn.NewValue("beta", c),
		Mean:       fn.NewValue("mean", c),
		Var:        fn.NewValue("var", c),
		ChannelIdx: channelIdx,
		Epsilon:    epsilon,
		Momentum:   momentum,
	}
}

func TestBatchNorm_Inference(t *testing.T) {
	inst := newBatchNorm(tensor.Shape{1, 1, 2, 2}, 3, 1, 0.9)
	ctx := NewContext()
	bind(t, ctx, inst.Src, []float32{1, 4, 3, 8})
	bind(t, ctx, inst.Scale, []float32{2, 1})
	bind(t, ctx, inst.Bias, []float32{0.5, 0})
	bind(t, ctx, inst.Mean, []float32{1, 2})
	bind(t, ctx, inst.Var, []float32{3, 15})

	newTestInterpreter().ForwardInst(ctx, inst, false)
	// Channel 0: (x-1)·2/2 + 0.5; channel 1: (x-2)·1/4.
	assert.Equal(t, []float32{0.5, 0.5, 2.5, 1.5}, ctx.Weight(inst.Dest).Data())
	assert.Equal(t, []float32{1, 2}, ctx.Weight(inst.Mean).Data(), "inference leaves running stats alone")
}

func TestBatchNorm_ChannelAxisOne(t *testing.T) {
	inst := newBatchNorm(tensor.Shape{2, 2}, 1, 0, 0)
	ctx := NewContext()
	bind(t, ctx, inst.Src, []float32{1, 10, 3, 30})
	bind(t, ctx, inst.Scale, []float32{1, 1})
	bind(t, ctx, inst.Bias, []float32{0, 0})
	bind(t, ctx, inst.Mean, []float32{0, 10})
	bind(t, ctx, inst.Var, []float32{1, 4})

	newTestInterpreter().ForwardInst(ctx, inst, false)
	assert.Equal(t, []float32{1, 0, 3, 10}, ctx.Weight(inst.Dest).Data())
}

// TestBatchNorm_TrainingUpdatesRunningStats uses a batch with known
// statistics: channel 0 holds 1..4 (mean 2.5, variance 1.25), channel 1 is
// constant 2.
func TestBatchNorm_TrainingUpdatesRunningStats(t *testing.T) {
	inst := newBatchNorm(tensor.Shape{4, 1, 1, 2}, 3, 0.25, 0.5)
	ctx := NewContext()
	bind(t, ctx, inst.Src, []float32{1, 2, 2, 2, 3, 2, 4, 2})
	bind(t, ctx, inst.Scale, []float32{1, 1})
	bind(t, ctx, inst.Bias, []float32{0, 0})
	bind(t, ctx, inst.Mean, []float32{1, 1})
	bind(t, ctx, inst.Var, []float32{2, 2})

	newTestInterpreter().ForwardInst(ctx, inst, true)

	// running = momentum·batch + (1-momentum)·running
	assert.Equal(t, []float32{0.5*2.5 + 0.5*1, 0.5*2 + 0.5*1}, ctx.Weight(inst.Mean).Data())
	assert.Equal(t, []float32{0.5*1.25 + 0.5*2, 0.5*0 + 0.5*2}, ctx.Weight(inst.Var).Data())

	// The output uses the updated running statistics.
	out := ctx.WeightHandle(inst.Dest)
	invStd := 1 / math.Sqrt(1.625+0.25)
	assert.InDelta(t, (1-1.75)*invStd, out.At(0, 0, 0, 0), 1e-6)
	assert.InDelta(t, (2-1.5)/math.Sqrt(1.25), out.At(0, 0, 0, 1), 1e-6)
}

func TestBatchNorm_BackwardParameterGradients(t *testing.T) {
	inst := newBatchNorm(tensor.Shape{2, 1, 1, 1}, 3, 0, 1)
	ctx := NewContext()
	bind(t, ctx, inst.Src, []float32{1, 3})
	bind(t, ctx, inst.Scale, []float32{2})
	bind(t, ctx, inst.Bias, []float32{0})

	ip := newTestInterpreter()
	// Momentum 1 makes the running statistics the batch statistics:
	// mean 2, variance 1.
	ip.ForwardInst(ctx, inst, true)
	assert.Equal(t, []float32{-2, 2}, ctx.Weight(inst.Dest).Data())

	seed(ctx, inst.Dest, []float32{1, 3})
	seed(ctx, inst.Bias, []float32{10})
	ip.BackwardInst(ctx, inst)

	assert.Equal(t, []float32{14}, ctx.Grad(inst.Bias).Data(), "bias gradient accumulates Σdy")
	assert.Equal(t, []float32{2}, ctx.Grad(inst.Scale).Data(), "Σ (x-μ)/σ · dy")
	// dx = γ/(Nσ)·(N·dy - Σdy - (x-μ)/σ²·Σdy(x-μ)) = [0, 0]
	assert.InDeltaSlice(t, []float32{0, 0}, ctx.Grad(inst.Src).Data(), 1e-6)
}
