// Package ir defines the instruction set executed by the interpreter: values,
// the closed set of instruction variants, and ordered instruction streams.
//
// Instructions arrive from an upstream graph compiler already shape-checked;
// this package only describes them.
package ir

import (
	"fmt"

	"github.com/born-ml/interp/internal/tensor"
)

// ValueID identifies a value within one Function. IDs are stable and dense.
type ValueID int

// ElemKind is the element type of a value's buffer.
type ElemKind int

// Element kinds.
const (
	// FloatKind values hold float32 activations, parameters and gradients.
	FloatKind ElemKind = iota
	// IndexKind values hold int64 indices (argmax coordinates, labels).
	IndexKind
)

// String returns a human-readable element kind.
func (k ElemKind) String() string {
	switch k {
	case FloatKind:
		return "float"
	case IndexKind:
		return "index"
	default:
		return "unknown"
	}
}

// Value is a typed operand of instructions. A value with FloatKind may carry
// a weight and a paired gradient buffer at execution time.
type Value struct {
	ID    ValueID
	Name  string
	Shape tensor.Shape
	Elem  ElemKind
}

// String returns "%name".
func (v *Value) String() string {
	if v == nil {
		return "%<nil>"
	}
	return "%" + v.Name
}

// Describe returns "%name : float[2 3]".
func (v *Value) Describe() string {
	return fmt.Sprintf("%s : %s%v", v, v.Elem, v.Shape)
}
