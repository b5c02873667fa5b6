package tensor

import (
	"fmt"
	"unsafe"
)

// Tensor owns a contiguous buffer of elements together with its shape.
//
// The buffer length always equals Shape().NumElements(). The shape is copied
// on construction and never changes; a reshape produces a new Tensor.
type Tensor[T Element] struct {
	data  []T
	shape Shape
}

// New allocates a zero-filled tensor of the given shape.
// Panics if the shape has a negative dimension.
func New[T Element](shape Shape) *Tensor[T] {
	if err := shape.Validate(); err != nil {
		panic(fmt.Sprintf("tensor: invalid shape: %v", err))
	}
	return &Tensor[T]{
		data:  make([]T, shape.NumElements()),
		shape: shape.Clone(),
	}
}

// FromSlice wraps data in a tensor of the given shape. The slice is used
// directly, not copied.
func FromSlice[T Element](data []T, shape Shape) (*Tensor[T], error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}
	if len(data) != shape.NumElements() {
		return nil, fmt.Errorf("data length %d does not match shape %v (%d elements)",
			len(data), shape, shape.NumElements())
	}
	return &Tensor[T]{data: data, shape: shape.Clone()}, nil
}

// MustFromSlice is FromSlice that panics on error. Useful for constants in tests
// and demo graphs.
func MustFromSlice[T Element](data []T, shape Shape) *Tensor[T] {
	t, err := FromSlice(data, shape)
	if err != nil {
		panic(fmt.Sprintf("tensor: %v", err))
	}
	return t
}

// Shape returns the tensor's shape. Callers must not modify it.
func (t *Tensor[T]) Shape() Shape {
	return t.shape
}

// DType returns the runtime data type of the elements.
func (t *Tensor[T]) DType() DataType {
	return DataTypeOf[T]()
}

// Size returns the total number of elements.
func (t *Tensor[T]) Size() int {
	return len(t.data)
}

// ByteSize returns the total memory size in bytes.
func (t *Tensor[T]) ByteSize() int {
	return len(t.data) * t.DType().Size()
}

// Data returns the underlying element slice.
func (t *Tensor[T]) Data() []T {
	return t.data
}

// Bytes reinterprets the buffer as little-endian bytes (host order on every
// platform the interpreter targets).
func (t *Tensor[T]) Bytes() []byte {
	if len(t.data) == 0 {
		return nil
	}
	//nolint:gosec // unsafe.Slice for zero-copy export, length derived from the element count
	return unsafe.Slice((*byte)(unsafe.Pointer(&t.data[0])), t.ByteSize())
}

// Zero sets every element to zero.
func (t *Tensor[T]) Zero() {
	clear(t.data)
}

// Fill sets every element to v.
func (t *Tensor[T]) Fill(v T) {
	for i := range t.data {
		t.data[i] = v
	}
}

// Clone returns a deep copy with its own buffer.
func (t *Tensor[T]) Clone() *Tensor[T] {
	data := make([]T, len(t.data))
	copy(data, t.data)
	return &Tensor[T]{data: data, shape: t.shape.Clone()}
}

// CopyFrom copies every element of src into t. Both tensors must hold the same
// number of elements; shapes may differ.
func (t *Tensor[T]) CopyFrom(src *Tensor[T]) {
	if len(src.data) != len(t.data) {
		panic(fmt.Sprintf("copy: size mismatch %d vs %d", len(src.data), len(t.data)))
	}
	copy(t.data, src.data)
}

// Handle returns a shaped accessor bound to this tensor.
func (t *Tensor[T]) Handle() Handle[T] {
	return Handle[T]{t: t, strides: t.shape.ComputeStrides()}
}

// String implements fmt.Stringer with a compact dump.
func (t *Tensor[T]) String() string {
	return Dump(t)
}
