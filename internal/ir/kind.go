package ir

// Kind enumerates the instruction variants.
type Kind int

// Instruction kinds.
const (
	KindAllocActivation Kind = iota
	KindDeallocActivation
	KindCopy
	KindConvolution
	KindPool
	KindFullyConnected
	KindRelu
	KindSigmoid
	KindTanh
	KindSoftMax
	KindRegression
	KindTranspose
	KindReshape
	KindConcat
	KindBatchNormalization
	KindLocalResponseNormalization
	KindArithmetic

	numKinds
)

var kindNames = [numKinds]string{
	KindAllocActivation:            "allocactivation",
	KindDeallocActivation:          "deallocactivation",
	KindCopy:                       "copy",
	KindConvolution:                "convolution",
	KindPool:                       "pool",
	KindFullyConnected:             "fullyconnected",
	KindRelu:                       "relu",
	KindSigmoid:                    "sigmoid",
	KindTanh:                       "tanh",
	KindSoftMax:                    "softmax",
	KindRegression:                 "regression",
	KindTranspose:                  "transpose",
	KindReshape:                    "reshape",
	KindConcat:                     "concat",
	KindBatchNormalization:         "batchnormalization",
	KindLocalResponseNormalization: "localresponsenormalization",
	KindArithmetic:                 "arithmetic",
}

// String returns the lower-case mnemonic used in IR dumps.
func (k Kind) String() string {
	if k < 0 || k >= numKinds {
		return "unknown"
	}
	return kindNames[k]
}

// Kinds returns every instruction kind in declaration order.
func Kinds() []Kind {
	out := make([]Kind, numKinds)
	for i := range out {
		out[i] = Kind(i)
	}
	return out
}

// PoolKind selects the pooling reduction.
type PoolKind int

// Pooling sub-kinds.
const (
	PoolMax PoolKind = iota
	PoolAvg
)

// String returns "max" or "avg".
func (k PoolKind) String() string {
	if k == PoolMax {
		return "max"
	}
	return "avg"
}

// ArithKind selects the elementwise binary operation.
type ArithKind int

// Arithmetic sub-kinds.
const (
	ArithAdd ArithKind = iota
	ArithMul
)

// String returns "add" or "mul".
func (k ArithKind) String() string {
	if k == ArithAdd {
		return "add"
	}
	return "mul"
}

// OperandRole says how an instruction uses an operand.
type OperandRole int

// Operand roles.
const (
	In OperandRole = iota
	Out
	InOut
)

// String returns "@in", "@out" or "@inout".
func (r OperandRole) String() string {
	switch r {
	case In:
		return "@in"
	case Out:
		return "@out"
	default:
		return "@inout"
	}
}

var kindSignatures = [numKinds]string{
	KindAllocActivation:            "dest@out",
	KindDeallocActivation:          "src@in",
	KindCopy:                       "dest@out src@in",
	KindConvolution:                "dest@out src@in filter@in bias@in",
	KindPool:                       "dest@out src@in srcxy@inout",
	KindFullyConnected:             "dest@out src@in filter@in bias@in",
	KindRelu:                       "dest@out src@in",
	KindSigmoid:                    "dest@out src@in",
	KindTanh:                       "dest@out src@in",
	KindSoftMax:                    "dest@out src@in e@inout selected@in",
	KindRegression:                 "dest@out src@in expected@in",
	KindTranspose:                  "dest@out src@in",
	KindReshape:                    "dest@out src@in",
	KindConcat:                     "dest@out src@in...",
	KindBatchNormalization:         "dest@out src@in scale@in bias@in mean@inout var@inout",
	KindLocalResponseNormalization: "dest@out src@in scale@inout",
	KindArithmetic:                 "dest@out lhs@in rhs@in",
}

// Signature describes the operands of k in declaration order.
func (k Kind) Signature() string {
	if k < 0 || k >= numKinds {
		return ""
	}
	return kindSignatures[k]
}

// OverwritesGradients reports whether the backward kernel of k assigns its
// input gradients instead of adding to them. A value consumed by such an
// instruction must have no other consumer that runs backward first.
func (k Kind) OverwritesGradients() bool {
	switch k {
	case KindTranspose, KindConcat, KindArithmetic:
		return true
	}
	return false
}
