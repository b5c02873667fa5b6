package demo

import (
	"math/rand/v2"

	"github.com/born-ml/interp/internal/interp"
	"github.com/born-ml/interp/internal/ir"
	"github.com/born-ml/interp/internal/tensor"
)

// CNN is a small image classifier:
// conv(k3,s1,p1) → batchnorm → relu → maxpool(k2,s2) → reshape → fc(10) →
// softmax.
func CNN() *Demo {
	const (
		batch   = 2
		classes = 10
		depth   = 4
	)
	fn := ir.NewFunction("cnn")
	x := fn.NewValue("input", tensor.Shape{batch, 8, 8, 3})

	conv := &ir.ConvolutionInst{
		Src:    x,
		Filter: fn.NewValue("conv.filter", tensor.Shape{depth, 3, 3, 3}),
		Bias:   fn.NewValue("conv.bias", tensor.Shape{depth}),
		Dest:   fn.NewValue("conv", ir.ConvOutputShape(x.Shape, 3, 1, 1, depth)),
		Kernel: 3, Stride: 1, Pad: 1, Depth: depth,
	}
	bn := &ir.BatchNormalizationInst{
		Src:        conv.Dest,
		Dest:       fn.NewValue("bn", conv.Dest.Shape),
		Scale:      fn.NewValue("bn.scale", tensor.Shape{depth}),
		Bias:       fn.NewValue("bn.bias", tensor.Shape{depth}),
		Mean:       fn.NewValue("bn.mean", tensor.Shape{depth}),
		Var:        fn.NewValue("bn.var", tensor.Shape{depth}),
		ChannelIdx: 3,
		Epsilon:    1e-5,
		Momentum:   0.9,
	}
	relu := &ir.ReluInst{Src: bn.Dest, Dest: fn.NewValue("relu", bn.Dest.Shape)}
	poolOut := ir.PoolOutputShape(relu.Dest.Shape, 2, 2, 0)
	pool := &ir.PoolInst{
		Src:    relu.Dest,
		Dest:   fn.NewValue("pool", poolOut),
		SrcXY:  fn.NewIndexValue("pool.xy", ir.ArgmaxShape(poolOut)),
		Mode:   ir.PoolMax,
		Kernel: 2, Stride: 2,
	}
	_, features := poolOut.FlattenCdr()
	flat := &ir.ReshapeInst{Src: pool.Dest, Dest: fn.NewValue("flat", tensor.Shape{batch, features})}
	fc := &ir.FullyConnectedInst{
		Src:    flat.Dest,
		Filter: fn.NewValue("fc.filter", tensor.Shape{classes, features}),
		Bias:   fn.NewValue("fc.bias", tensor.Shape{classes}),
		Dest:   fn.NewValue("fc", tensor.Shape{batch, classes}),
		Depth:  classes,
	}
	sm := &ir.SoftMaxInst{
		Src:      fc.Dest,
		Dest:     fn.NewValue("softmax", fc.Dest.Shape),
		E:        fn.NewValue("softmax.e", fc.Dest.Shape),
		Selected: fn.NewIndexValue("labels", tensor.Shape{batch, 1}),
	}

	acts := []*ir.Value{conv.Dest, bn.Dest, relu.Dest, pool.Dest, flat.Dest, fc.Dest, sm.Dest}
	fn.Append(alloc(acts...)...)
	fn.Append(conv, bn, relu, pool, flat, fc, sm)
	fn.Append(dealloc(acts[:len(acts)-1]...)...)

	return &Demo{
		Name:   "cnn",
		Fn:     fn,
		Inputs: []*ir.Value{x, sm.Selected},
		Params: []*ir.Value{conv.Filter, conv.Bias, bn.Scale, bn.Bias, fc.Filter, fc.Bias},
		Head:   sm.Dest,
		seed:   1,
		init: func(ctx *interp.Context, r *rand.Rand) {
			uniform(ctx, r, x, 1)
			fanIn(ctx, r, conv.Filter, 3*3*3)
			fill(ctx, conv.Bias, 0)
			fill(ctx, bn.Scale, 1)
			fill(ctx, bn.Bias, 0)
			fill(ctx, bn.Mean, 0)
			fill(ctx, bn.Var, 1)
			fanIn(ctx, r, fc.Filter, features)
			fill(ctx, fc.Bias, 0)
			labels(ctx, r, sm.Selected, classes)
		},
		loss: func(ctx *interp.Context) float64 {
			return nll(ctx.WeightHandle(sm.Dest), ctx.IndexHandle(sm.Selected))
		},
	}
}

// MLP is a regression network with a skip connection:
// fc(8) → tanh → fc(8) → sigmoid → add(skip) → fc(3) → regression.
func MLP() *Demo {
	const (
		batch  = 4
		inputs = 6
		hidden = 8
		out    = 3
	)
	fn := ir.NewFunction("mlp")
	x := fn.NewValue("input", tensor.Shape{batch, inputs})

	fc1 := &ir.FullyConnectedInst{
		Src:    x,
		Filter: fn.NewValue("fc1.filter", tensor.Shape{hidden, inputs}),
		Bias:   fn.NewValue("fc1.bias", tensor.Shape{hidden}),
		Dest:   fn.NewValue("fc1", tensor.Shape{batch, hidden}),
		Depth:  hidden,
	}
	tanh := &ir.TanhInst{Src: fc1.Dest, Dest: fn.NewValue("tanh", fc1.Dest.Shape)}
	fc2 := &ir.FullyConnectedInst{
		Src:    tanh.Dest,
		Filter: fn.NewValue("fc2.filter", tensor.Shape{hidden, hidden}),
		Bias:   fn.NewValue("fc2.bias", tensor.Shape{hidden}),
		Dest:   fn.NewValue("fc2", tensor.Shape{batch, hidden}),
		Depth:  hidden,
	}
	sig := &ir.SigmoidInst{Src: fc2.Dest, Dest: fn.NewValue("sigmoid", fc2.Dest.Shape)}
	skip := &ir.ArithmeticInst{
		LHS:  sig.Dest,
		RHS:  tanh.Dest,
		Dest: fn.NewValue("skip", sig.Dest.Shape),
		Op:   ir.ArithAdd,
	}
	fc3 := &ir.FullyConnectedInst{
		Src:    skip.Dest,
		Filter: fn.NewValue("fc3.filter", tensor.Shape{out, hidden}),
		Bias:   fn.NewValue("fc3.bias", tensor.Shape{out}),
		Dest:   fn.NewValue("fc3", tensor.Shape{batch, out}),
		Depth:  out,
	}
	reg := &ir.RegressionInst{
		Src:      fc3.Dest,
		Expected: fn.NewValue("expected", fc3.Dest.Shape),
		Dest:     fn.NewValue("regression", fc3.Dest.Shape),
	}

	acts := []*ir.Value{fc1.Dest, tanh.Dest, fc2.Dest, sig.Dest, skip.Dest, fc3.Dest, reg.Dest}
	fn.Append(alloc(acts...)...)
	fn.Append(fc1, tanh, fc2, sig, skip, fc3, reg)
	fn.Append(dealloc(acts[:len(acts)-1]...)...)

	return &Demo{
		Name:   "mlp",
		Fn:     fn,
		Inputs: []*ir.Value{x, reg.Expected},
		Params: []*ir.Value{fc1.Filter, fc1.Bias, fc2.Filter, fc2.Bias, fc3.Filter, fc3.Bias},
		Head:   reg.Dest,
		seed:   2,
		init: func(ctx *interp.Context, r *rand.Rand) {
			uniform(ctx, r, x, 1)
			uniform(ctx, r, reg.Expected, 1)
			fanIn(ctx, r, fc1.Filter, inputs)
			fanIn(ctx, r, fc2.Filter, hidden)
			fanIn(ctx, r, fc3.Filter, hidden)
			for _, b := range []*ir.Value{fc1.Bias, fc2.Bias, fc3.Bias} {
				fill(ctx, b, 0)
			}
		},
		loss: func(ctx *interp.Context) float64 {
			y, want := ctx.WeightHandle(reg.Dest).Data(), ctx.WeightHandle(reg.Expected).Data()
			var sum float64
			for i := range y {
				d := float64(y[i] - want[i])
				sum += d * d
			}
			return sum / 2
		},
	}
}

// LRN exercises the layout kernels:
// lrn → {avgpool, maxpool} → concat(channels) → transpose(NCHW) → copy.
func LRN() *Demo {
	fn := ir.NewFunction("lrn")
	x := fn.NewValue("input", tensor.Shape{1, 4, 4, 6})

	lrn := &ir.LocalResponseNormalizationInst{
		Src:            x,
		Dest:           fn.NewValue("lrn", x.Shape),
		Scale:          fn.NewValue("lrn.scale", x.Shape),
		HalfWindowSize: 2,
		Alpha:          1e-1,
		Beta:           0.75,
		K:              2,
	}
	poolOut := ir.PoolOutputShape(x.Shape, 2, 2, 0)
	avg := &ir.PoolInst{
		Src: lrn.Dest, Dest: fn.NewValue("avgpool", poolOut),
		Mode: ir.PoolAvg, Kernel: 2, Stride: 2,
	}
	maxp := &ir.PoolInst{
		Src: lrn.Dest, Dest: fn.NewValue("maxpool", poolOut),
		SrcXY: fn.NewIndexValue("maxpool.xy", ir.ArgmaxShape(poolOut)),
		Mode:  ir.PoolMax, Kernel: 2, Stride: 2,
	}
	catShape := poolOut.Clone()
	catShape[3] *= 2
	cat := &ir.ConcatInst{
		Srcs: []*ir.Value{avg.Dest, maxp.Dest},
		Dest: fn.NewValue("concat", catShape),
		Dim:  3,
	}
	shuffle := []int{0, 3, 1, 2}
	tr := &ir.TransposeInst{Src: cat.Dest, Dest: fn.NewValue("nchw", catShape.Permute(shuffle)), Shuffle: shuffle}
	cp := &ir.CopyInst{Src: tr.Dest, Dest: fn.NewValue("output", tr.Dest.Shape)}

	acts := []*ir.Value{lrn.Dest, avg.Dest, maxp.Dest, cat.Dest, tr.Dest, cp.Dest}
	fn.Append(alloc(acts...)...)
	fn.Append(lrn, avg, maxp, cat, tr, cp)
	fn.Append(dealloc(acts[:len(acts)-1]...)...)

	return &Demo{
		Name:   "lrn",
		Fn:     fn,
		Inputs: []*ir.Value{x},
		Head:   cp.Dest,
		seed:   3,
		init: func(ctx *interp.Context, r *rand.Rand) {
			uniform(ctx, r, x, 2)
		},
	}
}
