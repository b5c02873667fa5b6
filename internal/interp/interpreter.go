// Package interp executes ir instruction streams with explicit-loop float32
// kernels.
//
// Every instruction kind has a forward kernel, which overwrites the weight
// buffers of its outputs, and a backward kernel, which accumulates into the
// gradient buffers of its inputs. Three backward kernels overwrite instead
// of accumulating: Transpose, Concat and Arithmetic. Their inputs must have
// a single consumer for gradients to be correct.
//
// Basic usage:
//
//	ctx := interp.NewContext()
//	ctx.SetWeight(input, x)
//	ip := interp.New()
//	ip.Forward(ctx, fn, true)
//	ip.Backward(ctx, fn)
package interp

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/born-ml/interp/internal/ir"
	"github.com/born-ml/interp/internal/logutil"
	"github.com/born-ml/interp/internal/parallel"
)

// Interpreter dispatches instructions to their kernels.
//
// An Interpreter holds no execution state; all buffers live in the Context
// passed to each call, so one Interpreter may serve many Contexts.
type Interpreter struct {
	logger *slog.Logger
	par    parallel.Config
}

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithLogger sets the logger used for dispatch tracing.
func WithLogger(l *slog.Logger) Option {
	return func(ip *Interpreter) {
		ip.logger = l
	}
}

// WithParallel sets how forward kernels fan out across goroutines.
func WithParallel(cfg parallel.Config) Option {
	return func(ip *Interpreter) {
		ip.par = cfg
	}
}

// New creates an Interpreter. By default it logs to slog.Default and reads
// its parallelism settings from the environment.
func New(opts ...Option) *Interpreter {
	ip := &Interpreter{
		logger: slog.Default(),
		par:    parallel.FromEnv(),
	}
	for _, opt := range opts {
		opt(ip)
	}
	return ip
}

// Forward runs every instruction of fn in order.
func (ip *Interpreter) Forward(ctx *Context, fn *ir.Function, isTrain bool) {
	start := time.Now()
	for _, inst := range fn.Instructions() {
		ip.ForwardInst(ctx, inst, isTrain)
	}
	ip.logger.Debug("forward pass", "function", fn.Name, "instructions", len(fn.Instructions()),
		"train", isTrain, "elapsed", time.Since(start))
}

// Backward runs the backward kernel of every instruction of fn in reverse
// order. Gradients of the stream's outputs must be seeded beforehand; loss
// instructions seed their own inputs.
func (ip *Interpreter) Backward(ctx *Context, fn *ir.Function) {
	start := time.Now()
	insts := fn.Instructions()
	for i := len(insts) - 1; i >= 0; i-- {
		ip.BackwardInst(ctx, insts[i])
	}
	ip.logger.Debug("backward pass", "function", fn.Name, "instructions", len(insts),
		"elapsed", time.Since(start))
}

// ForwardInst executes the forward kernel of a single instruction. isTrain
// only affects batch normalization.
func (ip *Interpreter) ForwardInst(ctx *Context, inst ir.Instruction, isTrain bool) {
	ip.trace("forward", inst)

	switch inst := inst.(type) {
	case *ir.AllocActivationInst:
		fwdAllocActivation(ctx, inst)
	case *ir.DeallocActivationInst:
	case *ir.CopyInst:
		fwdCopy(ctx, inst.Dest, inst.Src)
	case *ir.ConvolutionInst:
		ip.fwdConvolution(ctx, inst)
	case *ir.PoolInst:
		if inst.Mode == ir.PoolMax {
			ip.fwdPoolMax(ctx, inst)
		} else {
			ip.fwdPoolAvg(ctx, inst)
		}
	case *ir.FullyConnectedInst:
		ip.fwdFullyConnected(ctx, inst)
	case *ir.ReluInst:
		fwdRelu(ctx, inst)
	case *ir.SigmoidInst:
		fwdSigmoid(ctx, inst)
	case *ir.TanhInst:
		fwdTanh(ctx, inst)
	case *ir.SoftMaxInst:
		fwdSoftMax(ctx, inst)
	case *ir.RegressionInst:
		fwdCopy(ctx, inst.Dest, inst.Src)
	case *ir.TransposeInst:
		fwdTranspose(ctx, inst)
	case *ir.ReshapeInst:
		fwdCopy(ctx, inst.Dest, inst.Src)
	case *ir.ConcatInst:
		fwdConcat(ctx, inst)
	case *ir.BatchNormalizationInst:
		if isTrain {
			fwdBatchNormalizationTrain(ctx, inst)
		}
		fwdBatchNormalizationInfer(ctx, inst)
	case *ir.LocalResponseNormalizationInst:
		fwdLocalResponseNormalization(ctx, inst)
	case *ir.ArithmeticInst:
		fwdArithmetic(ctx, inst)
	default:
		panic(fmt.Sprintf("interpreter: unknown instruction %T", inst))
	}
}

// BackwardInst executes the backward kernel of a single instruction.
func (ip *Interpreter) BackwardInst(ctx *Context, inst ir.Instruction) {
	ip.trace("backward", inst)

	switch inst := inst.(type) {
	case *ir.AllocActivationInst, *ir.DeallocActivationInst:
	case *ir.CopyInst:
		bwdCopy(ctx, inst.Dest, inst.Src)
	case *ir.ConvolutionInst:
		bwdConvolution(ctx, inst)
	case *ir.PoolInst:
		if inst.Mode == ir.PoolMax {
			bwdPoolMax(ctx, inst)
		} else {
			bwdPoolAvg(ctx, inst)
		}
	case *ir.FullyConnectedInst:
		bwdFullyConnected(ctx, inst)
	case *ir.ReluInst:
		bwdRelu(ctx, inst)
	case *ir.SigmoidInst:
		bwdSigmoid(ctx, inst)
	case *ir.TanhInst:
		bwdTanh(ctx, inst)
	case *ir.SoftMaxInst:
		bwdSoftMax(ctx, inst)
	case *ir.RegressionInst:
		bwdRegression(ctx, inst)
	case *ir.TransposeInst:
		bwdTranspose(ctx, inst)
	case *ir.ReshapeInst:
		bwdCopy(ctx, inst.Dest, inst.Src)
	case *ir.ConcatInst:
		bwdConcat(ctx, inst)
	case *ir.BatchNormalizationInst:
		bwdBatchNormalization(ctx, inst)
	case *ir.LocalResponseNormalizationInst:
		bwdLocalResponseNormalization(ctx, inst)
	case *ir.ArithmeticInst:
		bwdArithmetic(ctx, inst)
	default:
		panic(fmt.Sprintf("interpreter: unknown instruction %T", inst))
	}
}

func (ip *Interpreter) trace(pass string, inst ir.Instruction) {
	if inst == nil {
		panic("interpreter: nil instruction")
	}
	if !ip.logger.Enabled(context.Background(), logutil.LevelTrace) {
		return
	}
	ip.logger.Log(context.Background(), logutil.LevelTrace, pass,
		"kind", inst.Kind(), "dest", inst.Operands()[0].Value)
}
