package serialization

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/born-ml/interp/internal/interp"
	"github.com/born-ml/interp/internal/ir"
	"github.com/born-ml/interp/internal/tensor"
)

// Snapshot is a decoded snapshot file held in memory.
type Snapshot struct {
	header Header
	data   []byte
}

// ReaderOptions configures snapshot decoding.
type ReaderOptions struct {
	SkipChecksumValidation bool // Skip checksum validation (faster but less safe)
}

// Open reads and validates the snapshot at path.
func Open(path string) (*Snapshot, error) {
	return OpenWithOptions(path, ReaderOptions{})
}

// OpenWithOptions reads the snapshot at path with custom options.
func OpenWithOptions(path string, opts ReaderOptions) (*Snapshot, error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for snapshots
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()
	return ReadFrom(f, opts)
}

// ReadFrom decodes a snapshot from r.
func ReadFrom(r io.Reader, opts ReaderOptions) (*Snapshot, error) {
	var headerSize uint64
	if err := binary.Read(r, binary.LittleEndian, &headerSize); err != nil {
		return nil, fmt.Errorf("failed to read header size: %w", err)
	}
	if headerSize > MaxHeaderSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrHeaderTooLarge, headerSize)
	}

	headerJSON := make([]byte, headerSize)
	if _, err := io.ReadFull(r, headerJSON); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	header, err := parseHeader(headerJSON)
	if err != nil {
		return nil, err
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read tensor data: %w", err)
	}
	if err := ValidateHeader(&header, int64(len(data))); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	if !opts.SkipChecksumValidation {
		if sum, ok := header.Metadata[MetaChecksum]; ok {
			if err := ValidateChecksum(data, sum); err != nil {
				return nil, err
			}
		}
	}

	return &Snapshot{header: header, data: data}, nil
}

// parseHeader decodes the JSON header into entries sorted by offset.
func parseHeader(raw []byte) (Header, error) {
	var fields map[string]json.RawMessage
	if err := json.NewDecoder(bytes.NewReader(raw)).Decode(&fields); err != nil {
		return Header{}, fmt.Errorf("failed to parse header: %w", err)
	}

	var h Header
	for name, msg := range fields {
		if name == "__metadata__" {
			if err := json.Unmarshal(msg, &h.Metadata); err != nil {
				return Header{}, fmt.Errorf("failed to parse metadata: %w", err)
			}
			continue
		}
		var sh safeTensorHeader
		if err := json.Unmarshal(msg, &sh); err != nil {
			return Header{}, fmt.Errorf("failed to parse entry %q: %w", name, err)
		}
		shape := make([]int, len(sh.Shape))
		for i, dim := range sh.Shape {
			shape[i] = int(dim)
		}
		h.Tensors = append(h.Tensors, TensorMeta{
			Name:   name,
			DType:  sh.DType,
			Shape:  shape,
			Offset: sh.DataOffsets[0],
			Size:   sh.DataOffsets[1] - sh.DataOffsets[0],
		})
	}
	sort.Slice(h.Tensors, func(i, j int) bool {
		if h.Tensors[i].Offset != h.Tensors[j].Offset {
			return h.Tensors[i].Offset < h.Tensors[j].Offset
		}
		return h.Tensors[i].Name < h.Tensors[j].Name
	})
	return h, nil
}

// Header returns the decoded header.
func (s *Snapshot) Header() Header {
	return s.header
}

// Metadata returns the metadata map from the header.
func (s *Snapshot) Metadata() map[string]string {
	return s.header.Metadata
}

// TensorNames returns the entry names in file order.
func (s *Snapshot) TensorNames() []string {
	names := make([]string, len(s.header.Tensors))
	for i, meta := range s.header.Tensors {
		names[i] = meta.Name
	}
	return names
}

// TensorInfo returns information about a specific entry.
func (s *Snapshot) TensorInfo(name string) (*TensorMeta, error) {
	for i := range s.header.Tensors {
		if s.header.Tensors[i].Name == name {
			return &s.header.Tensors[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrTensorNotFound, name)
}

// Float32 returns a copy of a F32 entry.
func (s *Snapshot) Float32(name string) (*tensor.Tensor[float32], error) {
	return load[float32](s, name)
}

// Int64 returns a copy of an I64 entry.
func (s *Snapshot) Int64(name string) (*tensor.Tensor[int64], error) {
	return load[int64](s, name)
}

func load[T tensor.Element](s *Snapshot, name string) (*tensor.Tensor[T], error) {
	meta, err := s.TensorInfo(name)
	if err != nil {
		return nil, err
	}
	want := tensor.DataTypeOf[T]()
	if meta.DType != dtypeToSafeTensors(want) {
		return nil, fmt.Errorf("%w: %s is %s, want %s", ErrDTypeMismatch, name, meta.DType, dtypeToSafeTensors(want))
	}
	t := tensor.New[T](tensor.Shape(meta.Shape))
	copy(t.Bytes(), s.data[meta.Offset:meta.Offset+meta.Size])
	return t, nil
}

// Restore binds every entry that names a value of fn into ctx: weights and
// gradients for float values, index tensors for index values. Entries with
// no matching value are skipped. It returns the number of entries restored.
func (s *Snapshot) Restore(ctx *interp.Context, fn *ir.Function) (int, error) {
	restored := 0
	for _, meta := range s.header.Tensors {
		name, isGrad := meta.Name, false
		if n := len(name) - len(GradSuffix); n > 0 && name[n:] == GradSuffix {
			if _, ok := fn.Value(name); !ok {
				name, isGrad = name[:n], true
			}
		}
		v, ok := fn.Value(name)
		if !ok {
			continue
		}
		if !tensor.Shape(meta.Shape).Equal(v.Shape) {
			return restored, &ValidationError{
				Type:    "shape_mismatch",
				Tensor:  meta.Name,
				Details: fmt.Sprintf("snapshot has %v, function declares %s", meta.Shape, v.Describe()),
			}
		}

		switch {
		case v.Elem == ir.IndexKind && !isGrad:
			t, err := s.Int64(meta.Name)
			if err != nil {
				return restored, err
			}
			ctx.SetIndices(v, t)
		case v.Elem == ir.FloatKind && isGrad:
			t, err := s.Float32(meta.Name)
			if err != nil {
				return restored, err
			}
			ctx.GradTensor(v).CopyFrom(t)
		case v.Elem == ir.FloatKind:
			t, err := s.Float32(meta.Name)
			if err != nil {
				return restored, err
			}
			ctx.SetWeight(v, t)
		default:
			return restored, fmt.Errorf("%w: gradient entry %s for index value", ErrDTypeMismatch, meta.Name)
		}
		restored++
	}
	return restored, nil
}
