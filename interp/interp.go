// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package interp runs ir instruction streams on the reference CPU
// interpreter.
//
// The Interpreter is stateless. Weights, gradients and index tensors live in
// a Context keyed by value, so the same Interpreter can serve any number of
// Contexts.
//
// Example:
//
//	ctx := interp.NewContext()
//	ctx.SetWeight(x, tensor.MustFromSlice(data, x.Shape))
//
//	ip := interp.New(interp.WithParallel(interp.SequentialConfig()))
//	ip.Forward(ctx, fn, true)
//	ip.Backward(ctx, fn)
//	grad := ctx.Grad(x)
package interp

import (
	"log/slog"

	"github.com/born-ml/interp/internal/interp"
	"github.com/born-ml/interp/internal/parallel"
)

// Interpreter dispatches instructions to their forward and backward kernels.
type Interpreter = interp.Interpreter

// Context owns every buffer an instruction stream reads or writes.
type Context = interp.Context

// Option configures an Interpreter.
type Option = interp.Option

// ParallelConfig controls how forward kernels split work across goroutines.
type ParallelConfig = parallel.Config

// New creates an Interpreter. Without options it logs to slog.Default and
// reads its parallelism from the INTERP_* environment variables.
func New(opts ...Option) *Interpreter {
	return interp.New(opts...)
}

// NewContext creates an empty Context.
func NewContext() *Context {
	return interp.NewContext()
}

// WithLogger sets the logger used for pass and instruction tracing.
func WithLogger(l *slog.Logger) Option {
	return interp.WithLogger(l)
}

// WithParallel sets the worker configuration for forward kernels.
func WithParallel(cfg ParallelConfig) Option {
	return interp.WithParallel(cfg)
}

// DefaultParallelConfig returns a configuration that uses every CPU.
func DefaultParallelConfig() ParallelConfig {
	return parallel.DefaultConfig()
}

// SequentialConfig returns a configuration that runs every kernel on the
// calling goroutine.
func SequentialConfig() ParallelConfig {
	return parallel.Sequential()
}
