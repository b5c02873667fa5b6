// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/born-ml/interp/internal/tensor"
)

// Element is a constraint for tensor element types.
// The interpreter computes in float32 and stores indices as int64.
type Element = tensor.Element

// DataType represents the underlying data type of a tensor.
type DataType = tensor.DataType

// Data type constants.
const (
	Float32 DataType = tensor.Float32
	Float64 DataType = tensor.Float64
	Int32   DataType = tensor.Int32
	Int64   DataType = tensor.Int64
)

// Shape represents the dimensions of a tensor.
// Example: Shape{2, 3, 4} represents a 3D tensor with dimensions 2×3×4.
type Shape = tensor.Shape

// Tensor owns a contiguous row-major buffer and its shape.
type Tensor[T Element] = tensor.Tensor[T]

// Handle is a shaped accessor bound to a Tensor.
//
// Example:
//
//	t := tensor.New[float32](tensor.Shape{2, 3})
//	h := t.Handle()
//	h.Set(1.5, 1, 2)
//	v := h.At(1, 2) // 1.5
type Handle[T Element] = tensor.Handle[T]

// DumpOptions configures Dump output.
type DumpOptions = tensor.DumpOptions

// New creates a zero-filled tensor.
func New[T Element](shape Shape) *Tensor[T] {
	return tensor.New[T](shape)
}

// FromSlice creates a tensor that takes ownership of data.
//
// Example:
//
//	x, err := tensor.FromSlice([]float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
func FromSlice[T Element](data []T, shape Shape) (*Tensor[T], error) {
	return tensor.FromSlice(data, shape)
}

// MustFromSlice is like FromSlice but panics on error.
func MustFromSlice[T Element](data []T, shape Shape) *Tensor[T] {
	return tensor.MustFromSlice(data, shape)
}

// Dump renders a tensor as a numpy-like string.
func Dump[T Element](t *Tensor[T], opts ...DumpOptions) string {
	return tensor.Dump(t, opts...)
}

// DumpWithPrecision sets the number of decimal places printed for floats.
func DumpWithPrecision(n int) DumpOptions {
	return tensor.DumpWithPrecision(n)
}

// DumpWithThreshold sets the element count above which Dump elides values.
func DumpWithThreshold(n int) DumpOptions {
	return tensor.DumpWithThreshold(n)
}

// DumpWithEdgeItems sets how many elements Dump prints at each end of an
// elided dimension.
func DumpWithEdgeItems(n int) DumpOptions {
	return tensor.DumpWithEdgeItems(n)
}
