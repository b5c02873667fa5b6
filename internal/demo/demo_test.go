package demo

import (
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/born-ml/interp/internal/interp"
	"github.com/born-ml/interp/internal/parallel"
	"github.com/born-ml/interp/internal/tensor"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newInterpreter(par parallel.Config) *interp.Interpreter {
	return interp.New(
		interp.WithParallel(par),
		interp.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
}

func run(t *testing.T, d *Demo, par parallel.Config, isTrain bool) *interp.Context {
	t.Helper()
	ctx := interp.NewContext()
	d.Init(ctx)
	ip := newInterpreter(par)
	ip.Forward(ctx, d.Fn, isTrain)
	ctx.ZeroGradients()
	d.SeedGradient(ctx)
	ip.Backward(ctx, d.Fn)
	return ctx
}

func TestBuild(t *testing.T) {
	assert.Equal(t, []string{"cnn", "lrn", "mlp"}, Names())

	_, err := Build("resnet")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown demo "resnet"`)
}

func TestDemos_RunFinite(t *testing.T) {
	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			d, err := Build(name)
			require.NoError(t, err)
			ctx := run(t, d, parallel.Sequential(), true)

			for _, v := range d.Fn.Values() {
				w := ctx.Weight(v)
				if w == nil {
					continue
				}
				for i, x := range w.Data() {
					require.False(t, math.IsNaN(float64(x)) || math.IsInf(float64(x), 0), "%s[%d] = %v", v, i, x)
				}
			}
			for _, v := range append(d.Inputs[:1:1], d.Params...) {
				require.NotNil(t, ctx.Grad(v), "%s has no gradient", v)
			}
		})
	}
}

func TestDemos_Deterministic(t *testing.T) {
	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			d, err := Build(name)
			require.NoError(t, err)
			a := run(t, d, parallel.Sequential(), false)
			b := run(t, d, parallel.Config{Enabled: true, NumWorkers: 4, MinChunkSize: 1}, false)

			if diff := cmp.Diff(a.Weight(d.Head).Data(), b.Weight(d.Head).Data()); diff != "" {
				t.Errorf("parallel run differs (-sequential +parallel):\n%s", diff)
			}
		})
	}
}

func TestDemos_TrainingLowersLoss(t *testing.T) {
	for _, name := range []string{"cnn", "mlp"} {
		t.Run(name, func(t *testing.T) {
			d, err := Build(name)
			require.NoError(t, err)
			require.True(t, d.HasLoss())

			ctx := interp.NewContext()
			d.Init(ctx)
			ip := newInterpreter(parallel.Sequential())

			ip.Forward(ctx, d.Fn, false)
			first := d.Loss(ctx)
			last := first
			for range 10 {
				ctx.ZeroGradients()
				ip.Backward(ctx, d.Fn)
				d.Step(ctx, 0.02)
				ip.Forward(ctx, d.Fn, false)
				last = d.Loss(ctx)
			}
			assert.Less(t, last, first)
		})
	}
}

func TestLRN_Layout(t *testing.T) {
	d := LRN()
	ctx := run(t, d, parallel.Sequential(), false)

	out := ctx.WeightHandle(d.Head)
	assert.Equal(t, tensor.Shape{1, 12, 2, 2}, out.Dims())

	avg, ok := d.Fn.Value("avgpool")
	require.True(t, ok)
	maxp, ok := d.Fn.Value("maxpool")
	require.True(t, ok)
	for c := 0; c < 6; c++ {
		assert.Equal(t, ctx.WeightHandle(avg).At(0, 1, 0, c), out.At(0, c, 1, 0))
		assert.Equal(t, ctx.WeightHandle(maxp).At(0, 0, 1, c), out.At(0, 6+c, 0, 1))
	}
	assert.False(t, d.HasLoss())
	assert.Panics(t, func() { d.Loss(ctx) })
}

func TestActivations(t *testing.T) {
	d := MLP()
	names := make([]string, 0)
	for _, v := range d.Activations() {
		names = append(names, v.Name)
	}
	assert.Equal(t, []string{"fc1", "tanh", "fc2", "sigmoid", "skip", "fc3", "regression"}, names)
}
