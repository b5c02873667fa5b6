// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the buffers the interpreter reads and writes.
//
// # Overview
//
// A Tensor owns a contiguous, row-major buffer of float32 or int64 elements
// together with its Shape. A Handle addresses a Tensor by multi-dimensional
// index and provides the layout helpers kernels rely on (transpose, slice
// insertion and extraction).
//
// # Basic Usage
//
//	import "github.com/born-ml/interp/tensor"
//
//	func main() {
//	    x := tensor.MustFromSlice([]float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
//	    h := x.Handle()
//	    h.Add(10, 0, 1)
//	    fmt.Println(tensor.Dump(x))
//	}
package tensor
