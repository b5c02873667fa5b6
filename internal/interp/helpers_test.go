package interp

import (
	"io"
	"log/slog"
	"math/rand/v2"
	"testing"

	"github.com/born-ml/interp/internal/ir"
	"github.com/born-ml/interp/internal/parallel"
	"github.com/born-ml/interp/internal/tensor"
	"github.com/stretchr/testify/require"
)

// newTestInterpreter returns a sequential, silent interpreter.
func newTestInterpreter() *Interpreter {
	return New(
		WithParallel(parallel.Sequential()),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
}

// bind sets the weight of v to a copy of data.
func bind(t *testing.T, ctx *Context, v *ir.Value, data []float32) {
	t.Helper()
	w, err := tensor.FromSlice(append([]float32(nil), data...), v.Shape)
	require.NoError(t, err)
	ctx.SetWeight(v, w)
}

// bindIndices sets the index tensor of v to a copy of data.
func bindIndices(t *testing.T, ctx *Context, v *ir.Value, data []int64) {
	t.Helper()
	w, err := tensor.FromSlice(append([]int64(nil), data...), v.Shape)
	require.NoError(t, err)
	ctx.SetIndices(v, w)
}

// seed writes g into the gradient buffer of v.
func seed(ctx *Context, v *ir.Value, g []float32) {
	copy(ctx.GradTensor(v).Data(), g)
}

// arange returns [start, start+1, ...) of length n.
func arange(n int, start float32) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = start + float32(i)
	}
	return out
}

// randomFloats returns n values in [-1, 1) from a fixed-seed generator.
func randomFloats(r *rand.Rand, n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = 2*r.Float32() - 1
	}
	return out
}

func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func ones(n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = 1
	}
	return out
}
