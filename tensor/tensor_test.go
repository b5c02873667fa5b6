// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor_test

import (
	"strings"
	"testing"

	"github.com/born-ml/interp/tensor"
)

func TestTensorAPI(t *testing.T) {
	x, err := tensor.FromSlice([]float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	if err != nil {
		t.Fatalf("FromSlice failed: %v", err)
	}
	if !x.Shape().Equal(tensor.Shape{2, 3}) {
		t.Errorf("Shape() = %v, want [2 3]", x.Shape())
	}
	if x.DType() != tensor.Float32 {
		t.Errorf("DType() = %v, want Float32", x.DType())
	}

	var h tensor.Handle[float32] = x.Handle()
	h.Add(10, 1, 2)
	if got := h.At(1, 2); got != 16 {
		t.Errorf("At(1, 2) = %v, want 16", got)
	}
}

func TestIndexTensor(t *testing.T) {
	idx := tensor.New[int64](tensor.Shape{2, 1})
	if idx.DType() != tensor.Int64 {
		t.Errorf("DType() = %v, want Int64", idx.DType())
	}
	if idx.ByteSize() != 16 {
		t.Errorf("ByteSize() = %d, want 16", idx.ByteSize())
	}
}

func TestDump(t *testing.T) {
	x := tensor.MustFromSlice([]float32{0.5, 1.25}, tensor.Shape{2})
	out := tensor.Dump(x, tensor.DumpWithPrecision(2))
	if !strings.Contains(out, "0.50") || !strings.Contains(out, "1.25") {
		t.Errorf("Dump() = %q", out)
	}
}
