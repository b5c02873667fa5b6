package tensor

import "fmt"

// Handle is a non-owning, shape-aware view of a Tensor.
//
// Multi-index addressing uses row-major strides computed once from the
// tensor's shape. Handles are small values; copying one does not copy data.
type Handle[T Element] struct {
	t       *Tensor[T]
	strides []int
}

// Tensor returns the tensor the handle is bound to.
func (h Handle[T]) Tensor() *Tensor[T] {
	return h.t
}

// Dims returns the shape of the underlying tensor.
func (h Handle[T]) Dims() Shape {
	return h.t.shape
}

// Size returns the number of elements.
func (h Handle[T]) Size() int {
	return len(h.t.data)
}

// Data returns the flat element slice for tight loops.
func (h Handle[T]) Data() []T {
	return h.t.data
}

// Index returns the linear offset of the element at idx.
//
// Fewer indices than dimensions address the first element of the sub-tensor,
// so Index(n) on a [N, F] tensor is the start of row n.
func (h Handle[T]) Index(idx ...int) int {
	if len(idx) > len(h.strides) {
		panic(fmt.Sprintf("handle: %d indices for %dD tensor %v", len(idx), len(h.strides), h.t.shape))
	}
	off := 0
	for i, v := range idx {
		off += v * h.strides[i]
	}
	return off
}

// At reads the element at idx.
func (h Handle[T]) At(idx ...int) T {
	return h.t.data[h.Index(idx...)]
}

// Set writes v at idx.
func (h Handle[T]) Set(v T, idx ...int) {
	h.t.data[h.Index(idx...)] = v
}

// Add accumulates v into the element at idx.
func (h Handle[T]) Add(v T, idx ...int) {
	h.t.data[h.Index(idx...)] += v
}

// Raw reads the element at linear offset i.
func (h Handle[T]) Raw(i int) T {
	return h.t.data[i]
}

// SetRaw writes v at linear offset i.
func (h Handle[T]) SetRaw(i int, v T) {
	h.t.data[i] = v
}

// DimForPtr returns the coordinate along dim of the element at linear offset
// ptr. Normalisation kernels use it to find the channel of a flat element.
func (h Handle[T]) DimForPtr(dim, ptr int) int {
	return (ptr / h.strides[dim]) % h.t.shape[dim]
}

// Transpose writes the elements of h into dst with axes reordered by shuffle:
// dst dimension i is source dimension shuffle[i]. dst is overwritten.
func (h Handle[T]) Transpose(dst *Tensor[T], shuffle []int) {
	src := h.t.shape
	ndim := len(src)
	want := src.Permute(shuffle)
	if !dst.shape.Equal(want) {
		panic(fmt.Sprintf("transpose: destination shape %v, want %v", dst.shape, want))
	}

	dstStrides := dst.shape.ComputeStrides()

	// Destination stride to advance for each source dimension.
	step := make([]int, ndim)
	for dstDim, srcDim := range shuffle {
		step[srcDim] = dstStrides[dstDim]
	}

	coords := make([]int, ndim)
	dstIdx := 0
	for i, v := range h.t.data {
		dst.data[dstIdx] = v
		if i == len(h.t.data)-1 {
			break
		}
		// Odometer increment over source coordinates.
		for d := ndim - 1; d >= 0; d-- {
			coords[d]++
			dstIdx += step[d]
			if coords[d] < src[d] {
				break
			}
			dstIdx -= step[d] * coords[d]
			coords[d] = 0
		}
	}
}

// InsertTensor copies every element of src into h, placing src's origin at
// offset. src must fit inside h along every dimension.
func (h Handle[T]) InsertTensor(src Handle[T], offset []int) {
	h.forEachSlice(src.t.shape, offset, func(outer, inner int) {
		h.t.data[outer] = src.t.data[inner]
	})
}

// ExtractTensor copies the region of h starting at offset, shaped like dst,
// into dst. dst is overwritten.
func (h Handle[T]) ExtractTensor(dst Handle[T], offset []int) {
	h.forEachSlice(dst.t.shape, offset, func(outer, inner int) {
		dst.t.data[inner] = h.t.data[outer]
	})
}

// forEachSlice visits every element of a sub-region shaped like sub and
// anchored at offset, passing the linear offset in h and in the sub-region.
func (h Handle[T]) forEachSlice(sub Shape, offset []int, fn func(outer, inner int)) {
	ndim := len(h.t.shape)
	if len(sub) != ndim || len(offset) < ndim {
		panic(fmt.Sprintf("slice: rank mismatch: tensor %v, slice %v, offset %v", h.t.shape, sub, offset))
	}
	for d := 0; d < ndim; d++ {
		if offset[d]+sub[d] > h.t.shape[d] {
			panic(fmt.Sprintf("slice: %v at %v exceeds tensor %v", sub, offset[:ndim], h.t.shape))
		}
	}

	subStrides := sub.ComputeStrides()
	n := sub.NumElements()
	for i := 0; i < n; i++ {
		outer := 0
		rem := i
		for d := 0; d < ndim; d++ {
			coord := rem / subStrides[d]
			rem %= subStrides[d]
			outer += (coord + offset[d]) * h.strides[d]
		}
		fn(outer, i)
	}
}
