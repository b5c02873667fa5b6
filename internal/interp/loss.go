package interp

import (
	"fmt"
	"math"

	"github.com/born-ml/interp/internal/ir"
)

// fwdSoftMax computes a row-wise softmax over Src flattened to
// (batch, classes). The row maximum is subtracted before exponentiating so
// large logits do not overflow. Probabilities are cached in E for the
// backward pass.
func fwdSoftMax(ctx *Context, inst *ir.SoftMaxInst) {
	inW := ctx.WeightHandle(inst.Src)
	outW := ctx.WeightHandle(inst.Dest)
	e := ctx.WeightHandle(inst.E)

	rows, cols := inW.Dims().FlattenCdr()
	in, out, cache := inW.Data(), outW.Data(), e.Data()
	if len(out) != len(in) || len(cache) != len(in) {
		panic(fmt.Sprintf("softmax: %s, %s and %s differ in size", inst.Src, inst.Dest, inst.E))
	}

	for n := 0; n < rows; n++ {
		row := in[n*cols : (n+1)*cols]
		maxVal := row[0]
		for _, x := range row[1:] {
			maxVal = max(maxVal, x)
		}

		var sum float32
		for i, x := range row {
			v := float32(math.Exp(float64(x - maxVal)))
			cache[n*cols+i] = v
			sum += v
		}
		for i := 0; i < cols; i++ {
			cache[n*cols+i] /= sum
			out[n*cols+i] = cache[n*cols+i]
		}
	}
}

// bwdSoftMax accumulates prob - onehot(selected) into the input gradient.
// The instruction is treated as the input of a cross-entropy loss, so the
// upstream gradient is not read.
func bwdSoftMax(ctx *Context, inst *ir.SoftMaxInst) {
	inG := ctx.GradHandle(inst.Src)
	e := ctx.WeightHandle(inst.E).Data()
	selected := ctx.IndexHandle(inst.Selected)

	rows, cols := inG.Dims().FlattenCdr()
	grad := inG.Data()
	for n := 0; n < rows; n++ {
		label := int(selected.At(n, 0))
		if label < 0 || label >= cols {
			panic(fmt.Sprintf("softmax: label %d out of range [0, %d) in row %d", label, cols, n))
		}
		for i := 0; i < cols; i++ {
			delta := e[n*cols+i]
			if i == label {
				delta--
			}
			grad[n*cols+i] += delta
		}
	}
}

// bwdRegression accumulates the squared-error gradient prediction - expected.
func bwdRegression(ctx *Context, inst *ir.RegressionInst) {
	inG := ctx.GradHandle(inst.Src).Data()
	outW := ctx.WeightHandle(inst.Dest).Data()
	expected := ctx.WeightHandle(inst.Expected).Data()
	for i, y := range outW {
		inG[i] += y - expected[i]
	}
}
