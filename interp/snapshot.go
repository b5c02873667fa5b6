// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package interp

import (
	"github.com/born-ml/interp/internal/serialization"
)

// Snapshot is a Context saved as a SafeTensors file.
type Snapshot = serialization.Snapshot

// WriteSnapshot saves every weight, gradient and index tensor of ctx to path.
// Gradients are stored under the value name with a ".grad" suffix.
func WriteSnapshot(path string, ctx *Context, metadata map[string]string) error {
	return serialization.WriteSnapshot(path, ctx, metadata)
}

// OpenSnapshot reads and verifies a snapshot written by WriteSnapshot.
func OpenSnapshot(path string) (*Snapshot, error) {
	return serialization.Open(path)
}
