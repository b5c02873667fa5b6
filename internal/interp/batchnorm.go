package interp

import (
	"math"

	"github.com/born-ml/interp/internal/ir"
)

// fwdBatchNormalizationInfer applies the per-channel affine transform
//
//	y = (x - mean)·scale/sqrt(var + epsilon) + bias
//
// using the running statistics held in Mean and Var.
func fwdBatchNormalizationInfer(ctx *Context, inst *ir.BatchNormalizationInst) {
	inW := ctx.WeightHandle(inst.Src)
	outW := ctx.WeightHandle(inst.Dest)
	scale := ctx.WeightHandle(inst.Scale).Data()
	bias := ctx.WeightHandle(inst.Bias).Data()
	mean := ctx.WeightHandle(inst.Mean).Data()
	variance := ctx.WeightHandle(inst.Var).Data()

	in, out := inW.Data(), outW.Data()
	for i, x := range in {
		c := inW.DimForPtr(inst.ChannelIdx, i)
		invStd := 1 / float32(math.Sqrt(float64(variance[c]+inst.Epsilon)))
		out[i] = (x-mean[c])*scale[c]*invStd + bias[c]
	}
}

// fwdBatchNormalizationTrain folds the batch statistics of Src into the
// running statistics:
//
//	running = momentum·batch + (1-momentum)·running
//
// The caller then applies the inference transform with the updated values.
func fwdBatchNormalizationTrain(ctx *Context, inst *ir.BatchNormalizationInst) {
	inW := ctx.WeightHandle(inst.Src)
	meanH := ctx.WeightHandle(inst.Mean)
	varH := ctx.WeightHandle(inst.Var)

	numChannels := inW.Dims()[inst.ChannelIdx]
	samplesPerChannel := float32(inW.Size() / numChannels)
	in := inW.Data()

	batchMean := make([]float32, numChannels)
	for i, x := range in {
		batchMean[inW.DimForPtr(inst.ChannelIdx, i)] += x
	}
	for c := range batchMean {
		batchMean[c] /= samplesPerChannel
	}

	batchVar := make([]float32, numChannels)
	for i, x := range in {
		c := inW.DimForPtr(inst.ChannelIdx, i)
		d := x - batchMean[c]
		batchVar[c] += d * d
	}
	for c := range batchVar {
		batchVar[c] /= samplesPerChannel
	}

	p := inst.Momentum
	mean, variance := meanH.Data(), varH.Data()
	for c := 0; c < numChannels; c++ {
		mean[c] = p*batchMean[c] + (1-p)*mean[c]
		variance[c] = p*batchVar[c] + (1-p)*variance[c]
	}
}

// bwdBatchNormalization accumulates the closed-form batch norm gradients.
// With N samples per channel, mean μ and variance σ² taken from the running
// statistics:
//
//	dBias  = Σ dy
//	dScale = Σ (x-μ)/sqrt(σ²+ε)·dy
//	dx     = scale/(N·sqrt(σ²+ε)) · (N·dy - Σdy - (x-μ)/(σ²+ε)·Σ dy·(x-μ))
func bwdBatchNormalization(ctx *Context, inst *ir.BatchNormalizationInst) {
	inW := ctx.WeightHandle(inst.Src)
	inG := ctx.GradHandle(inst.Src)
	outG := ctx.GradHandle(inst.Dest)
	scale := ctx.WeightHandle(inst.Scale).Data()
	scaleG := ctx.GradHandle(inst.Scale).Data()
	biasG := ctx.GradHandle(inst.Bias).Data()
	mean := ctx.WeightHandle(inst.Mean).Data()
	variance := ctx.WeightHandle(inst.Var).Data()

	numChannels := inW.Dims()[inst.ChannelIdx]
	samplesPerChannel := float32(inW.Size() / numChannels)
	in, inGrad, dy := inW.Data(), inG.Data(), outG.Data()

	sumDy := make([]float32, numChannels)
	sumDyHmu := make([]float32, numChannels)
	for i, x := range in {
		c := inW.DimForPtr(inst.ChannelIdx, i)
		sumDy[c] += dy[i]
		sumDyHmu[c] += dy[i] * (x - mean[c])
	}

	invN := 1 / samplesPerChannel
	for i, x := range in {
		c := inW.DimForPtr(inst.ChannelIdx, i)
		invVar := 1 / (variance[c] + inst.Epsilon)
		invStd := float32(math.Sqrt(float64(invVar)))
		hmu := x - mean[c]

		inGrad[i] += invN * scale[c] * invStd *
			(samplesPerChannel*dy[i] - sumDy[c] - hmu*invVar*sumDyHmu[c])
		biasG[c] += dy[i]
		scaleG[c] += hmu * invStd * dy[i]
	}
}
