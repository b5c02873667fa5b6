package tensor

import (
	"fmt"
	"strconv"
	"strings"
)

// Shape represents the dimensions of a tensor.
type Shape []int

// NumElements returns the total number of elements in the tensor.
func (s Shape) NumElements() int {
	if len(s) == 0 {
		return 1 // Scalar has 1 element
	}
	n := 1
	for _, dim := range s {
		n *= dim
	}
	return n
}

// Validate checks that no dimension is negative.
func (s Shape) Validate() error {
	for i, dim := range s {
		if dim < 0 {
			return fmt.Errorf("invalid dimension at index %d: %d (must be >= 0)", i, dim)
		}
	}
	return nil
}

// Equal checks if two shapes are equal.
func (s Shape) Equal(other Shape) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy of the shape.
func (s Shape) Clone() Shape {
	clone := make(Shape, len(s))
	copy(clone, s)
	return clone
}

// ComputeStrides calculates row-major strides for the shape.
// Strides define memory layout: stride[i] = product of all dimensions after i.
func (s Shape) ComputeStrides() []int {
	strides := make([]int, len(s))
	if len(s) == 0 {
		return strides
	}

	strides[len(s)-1] = 1
	for i := len(s) - 2; i >= 0; i-- {
		strides[i] = strides[i+1] * s[i+1]
	}
	return strides
}

// FlattenCdr collapses every dimension after the first one.
// A [N, H, W, C] activation becomes (N, H*W*C).
func (s Shape) FlattenCdr() (first, rest int) {
	if len(s) == 0 {
		return 1, 1
	}
	rest = 1
	for _, dim := range s[1:] {
		rest *= dim
	}
	return s[0], rest
}

// Permute returns the shape obtained by reordering dimensions with shuffle:
// result[i] = s[shuffle[i]].
func (s Shape) Permute(shuffle []int) Shape {
	if len(shuffle) != len(s) {
		panic(fmt.Sprintf("permute: shuffle length %d != ndim %d", len(shuffle), len(s)))
	}
	out := make(Shape, len(s))
	for i, ax := range shuffle {
		out[i] = s[ax]
	}
	return out
}

// String formats the shape as "[2 3 4]" without the fmt reflection path.
func (s Shape) String() string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, dim := range s {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(strconv.Itoa(dim))
	}
	sb.WriteByte(']')
	return sb.String()
}

// NHWC names the dimensions of a 4-D activation in batch, height, width,
// channel order.
type NHWC struct {
	N, H, W, C int
}

// ShapeNHWC interprets a 4-D shape as NHWC.
// Panics if the shape is not 4-D.
func ShapeNHWC(s Shape) NHWC {
	if len(s) != 4 {
		panic(fmt.Sprintf("nhwc: expected 4D shape, got %dD %v", len(s), s))
	}
	return NHWC{N: s[0], H: s[1], W: s[2], C: s[3]}
}
