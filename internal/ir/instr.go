package ir

import (
	"fmt"
	"strings"
)

// Instruction is the closed set of operations the interpreter executes.
// The concrete types in this file are the only implementations.
type Instruction interface {
	// Kind identifies the variant.
	Kind() Kind
	// Operands lists the values the instruction touches, destination first.
	Operands() []Operand

	params() string
}

// Operand pairs a value with the way an instruction uses it.
type Operand struct {
	Value *Value
	Role  OperandRole
}

// AllocActivationInst brings an activation buffer to life and clears its
// gradient for the coming backward pass.
type AllocActivationInst struct {
	Dest *Value
}

// DeallocActivationInst marks the end of an activation's lifetime.
type DeallocActivationInst struct {
	Src *Value
}

// CopyInst copies Src into Dest element for element.
type CopyInst struct {
	Dest, Src *Value
}

// ConvolutionInst is a 2-D NHWC convolution with a square kernel.
// Filter is [Depth, Kernel, Kernel, InChannels], Bias is [Depth].
type ConvolutionInst struct {
	Dest, Src, Filter, Bias *Value
	Kernel, Stride, Pad     int
	Depth                   int
}

// PoolInst is 2-D NHWC max or average pooling with a square window.
// For max pooling SrcXY is an index value [N, OH, OW, C, 2] recording the
// argmax input coordinates.
type PoolInst struct {
	Dest, Src, SrcXY    *Value
	Mode                PoolKind
	Kernel, Stride, Pad int
}

// FullyConnectedInst computes Dest[n,i] = Bias[i] + Σ_j Src[n,j]·Filter[i,j]
// with Src flattened to (batch, features).
type FullyConnectedInst struct {
	Dest, Src, Filter, Bias *Value
	Depth                   int
}

// ReluInst is max(0, x).
type ReluInst struct {
	Dest, Src *Value
}

// SigmoidInst is 1/(1+e^-x).
type SigmoidInst struct {
	Dest, Src *Value
}

// TanhInst is the hyperbolic tangent.
type TanhInst struct {
	Dest, Src *Value
}

// SoftMaxInst is a row-wise softmax feeding a cross-entropy loss.
// E caches the probabilities, Selected is an index value [N, 1] of labels.
type SoftMaxInst struct {
	Dest, Src, E, Selected *Value
}

// RegressionInst is the identity forward of a squared-error loss against
// Expected.
type RegressionInst struct {
	Dest, Src, Expected *Value
}

// TransposeInst permutes axes: Dest dimension i is Src dimension Shuffle[i].
type TransposeInst struct {
	Dest, Src *Value
	Shuffle   []int
}

// ReshapeInst reinterprets Src with Dest's shape.
type ReshapeInst struct {
	Dest, Src *Value
}

// ConcatInst places Srcs side by side along Dim.
type ConcatInst struct {
	Dest *Value
	Srcs []*Value
	Dim  int
}

// BatchNormalizationInst normalises Src per channel along ChannelIdx.
// Mean and Var hold the running statistics and are updated in training mode.
type BatchNormalizationInst struct {
	Dest, Src, Scale, Bias, Mean, Var *Value
	ChannelIdx                        int
	Epsilon, Momentum                 float32
}

// LocalResponseNormalizationInst normalises each channel by the sum of
// squares of its 2·HalfWindowSize+1 neighbours. Scale caches the per-element
// normaliser for the backward pass.
type LocalResponseNormalizationInst struct {
	Dest, Src, Scale *Value
	HalfWindowSize   int
	Alpha, Beta, K   float32
}

// ArithmeticInst is an elementwise Add or Mul of two equally shaped values.
type ArithmeticInst struct {
	Dest, LHS, RHS *Value
	Op             ArithKind
}

func (*AllocActivationInst) Kind() Kind            { return KindAllocActivation }
func (*DeallocActivationInst) Kind() Kind          { return KindDeallocActivation }
func (*CopyInst) Kind() Kind                       { return KindCopy }
func (*ConvolutionInst) Kind() Kind                { return KindConvolution }
func (*PoolInst) Kind() Kind                       { return KindPool }
func (*FullyConnectedInst) Kind() Kind             { return KindFullyConnected }
func (*ReluInst) Kind() Kind                       { return KindRelu }
func (*SigmoidInst) Kind() Kind                    { return KindSigmoid }
func (*TanhInst) Kind() Kind                       { return KindTanh }
func (*SoftMaxInst) Kind() Kind                    { return KindSoftMax }
func (*RegressionInst) Kind() Kind                 { return KindRegression }
func (*TransposeInst) Kind() Kind                  { return KindTranspose }
func (*ReshapeInst) Kind() Kind                    { return KindReshape }
func (*ConcatInst) Kind() Kind                     { return KindConcat }
func (*BatchNormalizationInst) Kind() Kind         { return KindBatchNormalization }
func (*LocalResponseNormalizationInst) Kind() Kind { return KindLocalResponseNormalization }
func (*ArithmeticInst) Kind() Kind                 { return KindArithmetic }

func (i *AllocActivationInst) Operands() []Operand {
	return []Operand{{i.Dest, Out}}
}

func (i *DeallocActivationInst) Operands() []Operand {
	return []Operand{{i.Src, In}}
}

func (i *CopyInst) Operands() []Operand {
	return []Operand{{i.Dest, Out}, {i.Src, In}}
}

func (i *ConvolutionInst) Operands() []Operand {
	return []Operand{{i.Dest, Out}, {i.Src, In}, {i.Filter, In}, {i.Bias, In}}
}

func (i *PoolInst) Operands() []Operand {
	ops := []Operand{{i.Dest, Out}, {i.Src, In}}
	if i.SrcXY != nil {
		ops = append(ops, Operand{i.SrcXY, InOut})
	}
	return ops
}

func (i *FullyConnectedInst) Operands() []Operand {
	return []Operand{{i.Dest, Out}, {i.Src, In}, {i.Filter, In}, {i.Bias, In}}
}

func (i *ReluInst) Operands() []Operand    { return []Operand{{i.Dest, Out}, {i.Src, In}} }
func (i *SigmoidInst) Operands() []Operand { return []Operand{{i.Dest, Out}, {i.Src, In}} }
func (i *TanhInst) Operands() []Operand    { return []Operand{{i.Dest, Out}, {i.Src, In}} }

func (i *SoftMaxInst) Operands() []Operand {
	return []Operand{{i.Dest, Out}, {i.Src, In}, {i.E, InOut}, {i.Selected, In}}
}

func (i *RegressionInst) Operands() []Operand {
	return []Operand{{i.Dest, Out}, {i.Src, In}, {i.Expected, In}}
}

func (i *TransposeInst) Operands() []Operand { return []Operand{{i.Dest, Out}, {i.Src, In}} }
func (i *ReshapeInst) Operands() []Operand   { return []Operand{{i.Dest, Out}, {i.Src, In}} }

func (i *ConcatInst) Operands() []Operand {
	ops := make([]Operand, 0, len(i.Srcs)+1)
	ops = append(ops, Operand{i.Dest, Out})
	for _, s := range i.Srcs {
		ops = append(ops, Operand{s, In})
	}
	return ops
}

func (i *BatchNormalizationInst) Operands() []Operand {
	return []Operand{
		{i.Dest, Out}, {i.Src, In}, {i.Scale, In}, {i.Bias, In},
		{i.Mean, InOut}, {i.Var, InOut},
	}
}

func (i *LocalResponseNormalizationInst) Operands() []Operand {
	return []Operand{{i.Dest, Out}, {i.Src, In}, {i.Scale, InOut}}
}

func (i *ArithmeticInst) Operands() []Operand {
	return []Operand{{i.Dest, Out}, {i.LHS, In}, {i.RHS, In}}
}

func (*AllocActivationInst) params() string   { return "" }
func (*DeallocActivationInst) params() string { return "" }
func (*CopyInst) params() string              { return "" }
func (*ReluInst) params() string              { return "" }
func (*SigmoidInst) params() string           { return "" }
func (*TanhInst) params() string              { return "" }
func (*SoftMaxInst) params() string           { return "" }
func (*RegressionInst) params() string        { return "" }
func (*ReshapeInst) params() string           { return "" }

func (i *ConvolutionInst) params() string {
	return fmt.Sprintf("kernel: %d, stride: %d, pad: %d, depth: %d", i.Kernel, i.Stride, i.Pad, i.Depth)
}

func (i *PoolInst) params() string {
	return fmt.Sprintf("kind: %s, kernel: %d, stride: %d, pad: %d", i.Mode, i.Kernel, i.Stride, i.Pad)
}

func (i *FullyConnectedInst) params() string {
	return fmt.Sprintf("depth: %d", i.Depth)
}

func (i *TransposeInst) params() string {
	return fmt.Sprintf("shuffle: %v", i.Shuffle)
}

func (i *ConcatInst) params() string {
	return fmt.Sprintf("dim: %d", i.Dim)
}

func (i *BatchNormalizationInst) params() string {
	return fmt.Sprintf("channelIdx: %d, epsilon: %g, momentum: %g", i.ChannelIdx, i.Epsilon, i.Momentum)
}

func (i *LocalResponseNormalizationInst) params() string {
	return fmt.Sprintf("halfWindowSize: %d, alpha: %g, beta: %g, k: %g", i.HalfWindowSize, i.Alpha, i.Beta, i.K)
}

func (i *ArithmeticInst) params() string {
	return fmt.Sprintf("kind: %s", i.Op)
}

// Format renders one instruction as a single IR line:
//
//	convolution @out %conv, @in %input, @in %filter, @in %bias {kernel: 3, ...}
func Format(inst Instruction) string {
	var sb strings.Builder
	sb.WriteString(inst.Kind().String())
	for i, op := range inst.Operands() {
		if i == 0 {
			sb.WriteByte(' ')
		} else {
			sb.WriteString(", ")
		}
		sb.WriteString(op.Role.String())
		sb.WriteByte(' ')
		sb.WriteString(op.Value.String())
	}
	if p := inst.params(); p != "" {
		sb.WriteString(" {")
		sb.WriteString(p)
		sb.WriteByte('}')
	}
	return sb.String()
}
