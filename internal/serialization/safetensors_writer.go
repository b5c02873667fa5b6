package serialization

import (
	"bufio"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/born-ml/interp/internal/interp"
	"github.com/born-ml/interp/internal/tensor"
)

// SnapshotWriter writes Context snapshots in SafeTensors format.
type SnapshotWriter struct {
	file   *os.File
	closed bool
}

// entry is one tensor queued for writing.
type entry struct {
	name  string
	dtype tensor.DataType
	shape tensor.Shape
	data  []byte
}

// NewSnapshotWriter creates a snapshot file at path.
func NewSnapshotWriter(path string) (*SnapshotWriter, error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for snapshots
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	return &SnapshotWriter{file: file}, nil
}

// WriteSnapshot writes every buffer held by ctx to path.
//
// Format:
// [8 bytes: header_size (uint64 LE)]
// [header_size bytes: JSON header]
// [tensor data: raw bytes]
//
// Weights are stored under the value name, gradients under name+".grad" and
// index tensors as I64. The header metadata carries the SHA-256 of the data
// section under "sha256".
func WriteSnapshot(path string, ctx *interp.Context, metadata map[string]string) error {
	w, err := NewSnapshotWriter(path)
	if err != nil {
		return err
	}
	if err := w.WriteContext(ctx, metadata); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}

// WriteContext writes the buffers of ctx to the file.
func (w *SnapshotWriter) WriteContext(ctx *interp.Context, metadata map[string]string) error {
	if w.closed {
		return ErrWriterClosed
	}
	entries, err := collect(ctx)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(w.file)
	if err := encode(bw, entries, metadata); err != nil {
		return err
	}
	return bw.Flush()
}

// Close closes the writer and the underlying file.
func (w *SnapshotWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	return w.file.Close()
}

// collect gathers the entries of ctx sorted by name.
func collect(ctx *interp.Context) ([]entry, error) {
	var entries []entry
	seen := make(map[string]bool)
	add := func(e entry) error {
		if err := ValidateTensorName(e.name); err != nil {
			return err
		}
		if seen[e.name] {
			return &ValidationError{Type: "duplicate_name", Tensor: e.name, Details: "two values share a name"}
		}
		seen[e.name] = true
		entries = append(entries, e)
		return nil
	}

	for _, v := range ctx.Values() {
		if t := ctx.Weight(v); t != nil {
			if err := add(entry{v.Name, t.DType(), t.Shape(), t.Bytes()}); err != nil {
				return nil, err
			}
		}
		if t := ctx.Grad(v); t != nil {
			if err := add(entry{v.Name + GradSuffix, t.DType(), t.Shape(), t.Bytes()}); err != nil {
				return nil, err
			}
		}
		if t := ctx.Indices(v); t != nil {
			if err := add(entry{v.Name, t.DType(), t.Shape(), t.Bytes()}); err != nil {
				return nil, err
			}
		}
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].name < entries[j].name })
	return entries, nil
}

// encode writes entries in SafeTensors layout.
func encode(w io.Writer, entries []entry, metadata map[string]string) error {
	header := make(map[string]any, len(entries)+1)

	var offset int64
	data := make([]byte, 0)
	for _, e := range entries {
		size := int64(len(e.data))
		shape := make([]int64, len(e.shape))
		for i, dim := range e.shape {
			shape[i] = int64(dim)
		}
		header[e.name] = safeTensorHeader{
			DType:       dtypeToSafeTensors(e.dtype),
			Shape:       shape,
			DataOffsets: [2]int64{offset, offset + size},
		}
		data = append(data, e.data...)
		offset += size
	}

	meta := make(map[string]string, len(metadata)+2)
	for k, v := range metadata {
		meta[k] = v
	}
	sum := ComputeChecksum(data)
	meta[MetaChecksum] = hex.EncodeToString(sum[:])
	if _, ok := meta[MetaFormat]; !ok {
		meta[MetaFormat] = "interp"
	}
	header["__metadata__"] = meta

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("failed to marshal header: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, uint64(len(headerJSON))); err != nil {
		return fmt.Errorf("failed to write header size: %w", err)
	}
	if _, err := w.Write(headerJSON); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write tensor data: %w", err)
	}
	return nil
}
