// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package ir defines the instruction streams the interpreter executes.
//
// A Function declares typed Values and holds an ordered list of
// Instructions. Each instruction kind is a concrete struct; build a stream by
// declaring values and appending instructions:
//
//	fn := ir.NewFunction("classifier")
//	x := fn.NewValue("x", tensor.Shape{4, 3})
//	fc := &ir.FullyConnectedInst{
//	    Src:    x,
//	    Filter: fn.NewValue("w", tensor.Shape{3, 3}),
//	    Bias:   fn.NewValue("b", tensor.Shape{3}),
//	    Dest:   fn.NewValue("y", tensor.Shape{4, 3}),
//	    Depth:  3,
//	}
//	fn.Append(&ir.AllocActivationInst{Dest: fc.Dest}, fc)
package ir

import (
	"github.com/born-ml/interp/internal/ir"
	"github.com/born-ml/interp/internal/tensor"
)

// Core types.
type (
	Function    = ir.Function
	Value       = ir.Value
	ValueID     = ir.ValueID
	ElemKind    = ir.ElemKind
	Instruction = ir.Instruction
	Operand     = ir.Operand
	OperandRole = ir.OperandRole
	Kind        = ir.Kind
	PoolKind    = ir.PoolKind
	ArithKind   = ir.ArithKind
)

// Instruction variants.
type (
	AllocActivationInst            = ir.AllocActivationInst
	DeallocActivationInst          = ir.DeallocActivationInst
	CopyInst                       = ir.CopyInst
	ConvolutionInst                = ir.ConvolutionInst
	PoolInst                       = ir.PoolInst
	FullyConnectedInst             = ir.FullyConnectedInst
	ReluInst                       = ir.ReluInst
	SigmoidInst                    = ir.SigmoidInst
	TanhInst                       = ir.TanhInst
	SoftMaxInst                    = ir.SoftMaxInst
	RegressionInst                 = ir.RegressionInst
	TransposeInst                  = ir.TransposeInst
	ReshapeInst                    = ir.ReshapeInst
	ConcatInst                     = ir.ConcatInst
	BatchNormalizationInst         = ir.BatchNormalizationInst
	LocalResponseNormalizationInst = ir.LocalResponseNormalizationInst
	ArithmeticInst                 = ir.ArithmeticInst
)

// Element kinds.
const (
	FloatKind = ir.FloatKind
	IndexKind = ir.IndexKind
)

// Sub-kinds.
const (
	PoolMax  = ir.PoolMax
	PoolAvg  = ir.PoolAvg
	ArithAdd = ir.ArithAdd
	ArithMul = ir.ArithMul
)

// Operand roles.
const (
	In    = ir.In
	Out   = ir.Out
	InOut = ir.InOut
)

// NewFunction creates an empty function.
func NewFunction(name string) *Function {
	return ir.NewFunction(name)
}

// Format renders one instruction as "kind @role %value, ... {params}".
func Format(inst Instruction) string {
	return ir.Format(inst)
}

// Kinds returns every instruction kind.
func Kinds() []Kind {
	return ir.Kinds()
}

// ConvOutputShape returns the NHWC destination shape of a convolution.
func ConvOutputShape(in tensor.Shape, kernel, stride, pad, depth int) tensor.Shape {
	return ir.ConvOutputShape(in, kernel, stride, pad, depth)
}

// PoolOutputShape returns the NHWC destination shape of a pooling window.
func PoolOutputShape(in tensor.Shape, kernel, stride, pad int) tensor.Shape {
	return ir.PoolOutputShape(in, kernel, stride, pad)
}

// ArgmaxShape returns the shape of the max pooling coordinate value.
func ArgmaxShape(out tensor.Shape) tensor.Shape {
	return ir.ArgmaxShape(out)
}
