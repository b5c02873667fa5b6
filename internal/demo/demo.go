// Package demo builds small instruction streams that exercise every kernel
// of the interpreter. The CLI runs them and tests use them as end-to-end
// fixtures.
package demo

import (
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
	"sort"

	"github.com/born-ml/interp/internal/interp"
	"github.com/born-ml/interp/internal/ir"
	"github.com/born-ml/interp/internal/tensor"
)

// Demo is a built stream together with the values a caller binds or reads.
type Demo struct {
	Name string
	Fn   *ir.Function

	// Inputs are bound by Init and never trained.
	Inputs []*ir.Value
	// Params are trainable weights updated by Step.
	Params []*ir.Value
	// Head is the last value of the stream. Backward seeds its gradient.
	Head *ir.Value

	seed uint64
	init func(ctx *interp.Context, r *rand.Rand)
	loss func(ctx *interp.Context) float64
}

type builder func() *Demo

var builders = map[string]builder{
	"cnn": CNN,
	"mlp": MLP,
	"lrn": LRN,
}

// Names lists the bundled demos in sorted order.
func Names() []string {
	names := make([]string, 0, len(builders))
	for name := range builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Build returns the demo with the given name.
func Build(name string) (*Demo, error) {
	b, ok := builders[name]
	if !ok {
		return nil, fmt.Errorf("unknown demo %q (want one of %v)", name, Names())
	}
	return b(), nil
}

// Init fills inputs, parameters and labels deterministically.
func (d *Demo) Init(ctx *interp.Context) {
	d.init(ctx, rand.New(rand.NewPCG(d.seed, d.seed^0x9e3779b97f4a7c15)))
}

// SeedGradient sets the gradient of Head to ones. Loss heads ignore it.
func (d *Demo) SeedGradient(ctx *interp.Context) {
	ctx.GradTensor(d.Head).Fill(1)
}

// HasLoss reports whether the stream ends in a loss.
func (d *Demo) HasLoss() bool {
	return d.loss != nil
}

// Loss evaluates the stream's loss on the current forward results.
// It panics for demos without a loss head.
func (d *Demo) Loss(ctx *interp.Context) float64 {
	if d.loss == nil {
		panic(fmt.Sprintf("demo: %s has no loss", d.Name))
	}
	return d.loss(ctx)
}

// Step applies one SGD update w -= lr·∇w to every parameter.
func (d *Demo) Step(ctx *interp.Context, lr float32) {
	for _, p := range d.Params {
		w, g := ctx.Weight(p).Data(), ctx.Grad(p).Data()
		for i := range w {
			w[i] -= lr * g[i]
		}
	}
}

// Activations returns the values produced by the stream that are neither
// inputs nor parameters.
func (d *Demo) Activations() []*ir.Value {
	var out []*ir.Value
	for _, v := range d.Fn.Values() {
		if slices.Contains(d.Inputs, v) || slices.Contains(d.Params, v) {
			continue
		}
		out = append(out, v)
	}
	return out
}

// uniform fills v with values in [-scale, scale).
func uniform(ctx *interp.Context, r *rand.Rand, v *ir.Value, scale float64) {
	data := ctx.WeightHandle(v).Data()
	for i := range data {
		data[i] = float32((2*r.Float64() - 1) * scale)
	}
}

// fanIn fills a filter with Xavier-uniform values for the given fan-in.
func fanIn(ctx *interp.Context, r *rand.Rand, v *ir.Value, n int) {
	uniform(ctx, r, v, math.Sqrt(3/float64(n)))
}

func fill(ctx *interp.Context, v *ir.Value, x float32) {
	ctx.WeightHandle(v).Tensor().Fill(x)
}

// labels fills an index value [N, 1] with classes in [0, classes).
func labels(ctx *interp.Context, r *rand.Rand, v *ir.Value, classes int) {
	data := ctx.IndexHandle(v).Data()
	for i := range data {
		data[i] = int64(r.IntN(classes))
	}
}

// alloc brackets the activations of a stream like compiler output does.
func alloc(vs ...*ir.Value) []ir.Instruction {
	out := make([]ir.Instruction, len(vs))
	for i, v := range vs {
		out[i] = &ir.AllocActivationInst{Dest: v}
	}
	return out
}

func dealloc(vs ...*ir.Value) []ir.Instruction {
	out := make([]ir.Instruction, len(vs))
	for i, v := range vs {
		out[i] = &ir.DeallocActivationInst{Src: v}
	}
	return out
}

// nll is the mean negative log-likelihood of the selected classes.
func nll(probs tensor.Handle[float32], selected tensor.Handle[int64]) float64 {
	n, _ := probs.Dims().FlattenCdr()
	var sum float64
	for i := 0; i < n; i++ {
		p := float64(probs.At(i, int(selected.At(i, 0))))
		sum -= math.Log(math.Max(p, 1e-12))
	}
	return sum / float64(n)
}
