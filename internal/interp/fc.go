package interp

import (
	"fmt"

	"github.com/born-ml/interp/internal/ir"
	"github.com/born-ml/interp/internal/parallel"
)

// fwdFullyConnected computes out[n, i] = bias[i] + Σ_j in[n, j]·filter[i, j]
// with the input flattened to (batch, features).
//
// Input shape:  [N, ...] flattened to [N, F]
// Filter shape: [D, F]
// Bias shape:   [D]
// Output shape: [N, D]
func (ip *Interpreter) fwdFullyConnected(ctx *Context, inst *ir.FullyConnectedInst) {
	inW := ctx.WeightHandle(inst.Src)
	outW := ctx.WeightHandle(inst.Dest)
	filterW := ctx.WeightHandle(inst.Filter)
	biasW := ctx.WeightHandle(inst.Bias)

	batch, features := inW.Dims().FlattenCdr()
	depth := checkFCShapes(inst, batch, features, filterW.Dims(), outW.Dims())
	in, filter, bias, out := inW.Data(), filterW.Data(), biasW.Data(), outW.Data()

	parallel.ForBatch(batch, depth, func(n, i int) {
		row := in[n*features : (n+1)*features]
		weights := filter[i*features : (i+1)*features]
		var sum float32
		for j, x := range row {
			sum += x * weights[j]
		}
		out[n*depth+i] = sum + bias[i]
	}, ip.par)
}

// bwdFullyConnected accumulates
//
//	dIn[n, j]     += Σ_i filter[i, j]·dy[n, i]
//	dFilter[i, j] += Σ_n in[n, j]·dy[n, i]
//	dBias[i]      += Σ_n dy[n, i]
func bwdFullyConnected(ctx *Context, inst *ir.FullyConnectedInst) {
	inW := ctx.WeightHandle(inst.Src)
	inG := ctx.GradHandle(inst.Src)
	outG := ctx.GradHandle(inst.Dest)
	filterW := ctx.WeightHandle(inst.Filter)
	filterG := ctx.GradHandle(inst.Filter)
	biasG := ctx.GradHandle(inst.Bias)

	batch, features := inW.Dims().FlattenCdr()
	_, depth := outG.Dims().FlattenCdr()
	in, inGrad := inW.Data(), inG.Data()
	filter, filterGrad := filterW.Data(), filterG.Data()
	dy, biasGrad := outG.Data(), biasG.Data()

	for n := 0; n < batch; n++ {
		for i := 0; i < depth; i++ {
			g := dy[n*depth+i]
			for j := 0; j < features; j++ {
				inGrad[n*features+j] += filter[i*features+j] * g
				filterGrad[i*features+j] += in[n*features+j] * g
			}
			biasGrad[i] += g
		}
	}
}

func checkFCShapes(inst *ir.FullyConnectedInst, batch, features int, filter, out []int) int {
	if len(filter) != 2 || filter[1] != features {
		panic(fmt.Sprintf("fullyconnected: filter shape %v does not take %d features", filter, features))
	}
	depth := filter[0]
	if len(out) != 2 || out[0] != batch || out[1] != depth {
		panic(fmt.Sprintf("fullyconnected: output shape %v, want [%d %d]", out, batch, depth))
	}
	if inst.Depth != 0 && inst.Depth != depth {
		panic(fmt.Sprintf("fullyconnected: depth %d, filter has %d rows", inst.Depth, depth))
	}
	return depth
}
