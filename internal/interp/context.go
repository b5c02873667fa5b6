package interp

import (
	"fmt"
	"sort"

	"github.com/born-ml/interp/internal/ir"
	"github.com/born-ml/interp/internal/tensor"
)

// Context owns every buffer of one execution: for each value a weight
// tensor, a lazily paired gradient tensor of the same shape, and for index
// values an int64 side tensor.
//
// Buffers are created on first demand from the value's declared shape and
// are never resized. A Context is not safe for concurrent use.
type Context struct {
	values  map[ir.ValueID]*ir.Value
	weights map[ir.ValueID]*tensor.Tensor[float32]
	grads   map[ir.ValueID]*tensor.Tensor[float32]
	indices map[ir.ValueID]*tensor.Tensor[int64]
}

// NewContext returns an empty Context.
func NewContext() *Context {
	return &Context{
		values:  make(map[ir.ValueID]*ir.Value),
		weights: make(map[ir.ValueID]*tensor.Tensor[float32]),
		grads:   make(map[ir.ValueID]*tensor.Tensor[float32]),
		indices: make(map[ir.ValueID]*tensor.Tensor[int64]),
	}
}

// register validates v and remembers it for Values.
func (c *Context) register(v *ir.Value, want ir.ElemKind) {
	if v == nil {
		panic("context: nil value")
	}
	if len(v.Shape) == 0 {
		panic(fmt.Sprintf("context: value %s has no shape", v))
	}
	if v.Elem != want {
		panic(fmt.Sprintf("context: value %s is %s, want %s", v, v.Elem, want))
	}
	c.values[v.ID] = v
}

// weightTensor returns the weight tensor of v, creating it zeroed.
func (c *Context) weightTensor(v *ir.Value) *tensor.Tensor[float32] {
	if t, ok := c.weights[v.ID]; ok {
		return t
	}
	c.register(v, ir.FloatKind)
	t := tensor.New[float32](v.Shape)
	c.weights[v.ID] = t
	return t
}

// WeightHandle returns a handle to the forward buffer of v.
func (c *Context) WeightHandle(v *ir.Value) tensor.Handle[float32] {
	return c.weightTensor(v).Handle()
}

// GradTensor returns the gradient tensor paired with v, creating it zeroed
// on first use.
func (c *Context) GradTensor(v *ir.Value) *tensor.Tensor[float32] {
	if t, ok := c.grads[v.ID]; ok {
		return t
	}
	c.register(v, ir.FloatKind)
	t := tensor.New[float32](v.Shape)
	c.grads[v.ID] = t
	return t
}

// GradHandle returns a handle to the gradient buffer of v.
func (c *Context) GradHandle(v *ir.Value) tensor.Handle[float32] {
	return c.GradTensor(v).Handle()
}

// IndexHandle returns a handle to the int64 side buffer of an index value.
func (c *Context) IndexHandle(v *ir.Value) tensor.Handle[int64] {
	if t, ok := c.indices[v.ID]; ok {
		return t.Handle()
	}
	c.register(v, ir.IndexKind)
	t := tensor.New[int64](v.Shape)
	c.indices[v.ID] = t
	return t.Handle()
}

// AllocateBackingTensor creates the weight tensor of v, or zeroes it if it
// already exists.
func (c *Context) AllocateBackingTensor(v *ir.Value) *tensor.Tensor[float32] {
	if t, ok := c.weights[v.ID]; ok {
		t.Zero()
		return t
	}
	return c.weightTensor(v)
}

// SetWeight binds an externally owned tensor as the weight of v. The tensor
// is used in place, not copied.
func (c *Context) SetWeight(v *ir.Value, t *tensor.Tensor[float32]) {
	c.register(v, ir.FloatKind)
	if !t.Shape().Equal(v.Shape) {
		panic(fmt.Sprintf("context: weight shape %v does not match %s", t.Shape(), v.Describe()))
	}
	c.weights[v.ID] = t
}

// SetIndices binds an externally owned int64 tensor to an index value.
func (c *Context) SetIndices(v *ir.Value, t *tensor.Tensor[int64]) {
	c.register(v, ir.IndexKind)
	if !t.Shape().Equal(v.Shape) {
		panic(fmt.Sprintf("context: index shape %v does not match %s", t.Shape(), v.Describe()))
	}
	c.indices[v.ID] = t
}

// Weight returns the weight tensor of v, or nil if none was created.
func (c *Context) Weight(v *ir.Value) *tensor.Tensor[float32] {
	return c.weights[v.ID]
}

// Grad returns the gradient tensor of v, or nil if none was created.
func (c *Context) Grad(v *ir.Value) *tensor.Tensor[float32] {
	return c.grads[v.ID]
}

// Indices returns the index tensor of v, or nil if none was created.
func (c *Context) Indices(v *ir.Value) *tensor.Tensor[int64] {
	return c.indices[v.ID]
}

// ZeroGradients clears every gradient buffer. Training loops call it
// between optimizer steps.
func (c *Context) ZeroGradients() {
	for _, g := range c.grads {
		g.Zero()
	}
}

// Values returns every value with a buffer in this Context, in ID order.
func (c *Context) Values() []*ir.Value {
	out := make([]*ir.Value, 0, len(c.values))
	for _, v := range c.values {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
