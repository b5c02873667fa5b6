package ir

import (
	"fmt"
	"strings"

	"github.com/born-ml/interp/internal/tensor"
)

// Function is an ordered instruction stream together with the values it
// declares. The order of Instructions is the execution order of the forward
// pass; the backward pass walks it in reverse.
type Function struct {
	Name   string
	values []*Value
	instrs []Instruction
}

// NewFunction creates an empty function.
func NewFunction(name string) *Function {
	return &Function{Name: name}
}

// NewValue declares a float value of the given shape.
func (f *Function) NewValue(name string, shape tensor.Shape) *Value {
	return f.newValue(name, shape, FloatKind)
}

// NewIndexValue declares an index value of the given shape.
func (f *Function) NewIndexValue(name string, shape tensor.Shape) *Value {
	return f.newValue(name, shape, IndexKind)
}

func (f *Function) newValue(name string, shape tensor.Shape, kind ElemKind) *Value {
	v := &Value{
		ID:    ValueID(len(f.values)),
		Name:  name,
		Shape: shape.Clone(),
		Elem:  kind,
	}
	f.values = append(f.values, v)
	return v
}

// Append adds instructions to the end of the stream.
func (f *Function) Append(insts ...Instruction) {
	f.instrs = append(f.instrs, insts...)
}

// Instructions returns the stream in execution order.
func (f *Function) Instructions() []Instruction {
	return f.instrs
}

// Values returns every declared value in ID order.
func (f *Function) Values() []*Value {
	return f.values
}

// Value looks a value up by name.
func (f *Function) Value(name string) (*Value, bool) {
	for _, v := range f.values {
		if v.Name == name {
			return v, true
		}
	}
	return nil, false
}

// String dumps the declarations followed by the instruction stream.
func (f *Function) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "function %s\n", f.Name)
	sb.WriteString("declare {\n")
	for _, v := range f.values {
		fmt.Fprintf(&sb, "  %s\n", v.Describe())
	}
	sb.WriteString("}\n")
	sb.WriteString("code {\n")
	for i, inst := range f.instrs {
		fmt.Fprintf(&sb, "  %d %s\n", i, Format(inst))
	}
	sb.WriteString("}\n")
	return sb.String()
}

// ConvOutputSize returns the spatial output extent of a convolution or
// pooling window sweep: (in + 2·pad - kernel)/stride + 1.
func ConvOutputSize(in, kernel, stride, pad int) int {
	return (in+2*pad-kernel)/stride + 1
}

// ConvOutputShape returns the NHWC destination shape of a convolution with
// depth output channels.
func ConvOutputShape(in tensor.Shape, kernel, stride, pad, depth int) tensor.Shape {
	d := tensor.ShapeNHWC(in)
	return tensor.Shape{
		d.N,
		ConvOutputSize(d.H, kernel, stride, pad),
		ConvOutputSize(d.W, kernel, stride, pad),
		depth,
	}
}

// PoolOutputShape returns the NHWC destination shape of a pooling window.
func PoolOutputShape(in tensor.Shape, kernel, stride, pad int) tensor.Shape {
	return ConvOutputShape(in, kernel, stride, pad, tensor.ShapeNHWC(in).C)
}

// ArgmaxShape returns the shape of the side value that records max pooling
// coordinates for a pooling output of shape out.
func ArgmaxShape(out tensor.Shape) tensor.Shape {
	return append(out.Clone(), 2)
}
