package serialization

import (
	"github.com/born-ml/interp/internal/tensor"
)

// SafeTensors dtype strings.
const (
	DTypeF32 = "F32"
	DTypeF64 = "F64"
	DTypeI32 = "I32"
	DTypeI64 = "I64"
)

// GradSuffix is appended to a value's name to form its gradient entry.
const GradSuffix = ".grad"

// Metadata keys written into every snapshot.
const (
	MetaFunction = "function"
	MetaChecksum = "sha256"
	MetaFormat   = "format"
)

// Header is the decoded header of a snapshot file.
type Header struct {
	Tensors  []TensorMeta      // Entries sorted by offset
	Metadata map[string]string // The __metadata__ object, if any
}

// TensorMeta describes one entry of the data section.
type TensorMeta struct {
	Name   string // Value name, with GradSuffix for gradients
	DType  string // SafeTensors dtype (e.g., "F32", "I64")
	Shape  []int  // Tensor shape
	Offset int64  // Byte offset from the start of the data section
	Size   int64  // Size in bytes
}

// safeTensorHeader is one entry of the SafeTensors JSON header.
type safeTensorHeader struct {
	DType       string   `json:"dtype"`
	Shape       []int64  `json:"shape"`
	DataOffsets [2]int64 `json:"data_offsets"`
}

// dtypeToSafeTensors converts tensor.DataType to SafeTensors dtype string.
func dtypeToSafeTensors(dt tensor.DataType) string {
	switch dt {
	case tensor.Float32:
		return DTypeF32
	case tensor.Float64:
		return DTypeF64
	case tensor.Int32:
		return DTypeI32
	case tensor.Int64:
		return DTypeI64
	default:
		return "unknown"
	}
}

// safeTensorsToDtype converts a SafeTensors dtype string to tensor.DataType.
func safeTensorsToDtype(s string) (tensor.DataType, bool) {
	switch s {
	case DTypeF32:
		return tensor.Float32, true
	case DTypeF64:
		return tensor.Float64, true
	case DTypeI32:
		return tensor.Int32, true
	case DTypeI64:
		return tensor.Int64, true
	default:
		return 0, false
	}
}
