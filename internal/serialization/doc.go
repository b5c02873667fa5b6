// Package serialization saves and restores interpreter Context buffers as
// SafeTensors files.
//
// Format Structure:
//
//	[8 bytes: Header Size (uint64 LE)]
//	[Header: JSON, one entry per tensor plus "__metadata__"]
//	[Tensor data: raw little-endian bytes, sorted by name]
//
// A value's weight is stored under its name and its gradient under
// name+".grad". Index values (argmax coordinates, labels) are stored as I64.
// The metadata records the SHA-256 of the data section, which Open verifies.
//
// Example usage:
//
//	ip.Forward(ctx, fn, true)
//	ip.Backward(ctx, fn)
//	if err := serialization.WriteSnapshot("step.safetensors", ctx, nil); err != nil {
//	    log.Fatal(err)
//	}
//
//	snap, err := serialization.Open("step.safetensors")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	_, err = snap.Restore(interp.NewContext(), fn)
package serialization
