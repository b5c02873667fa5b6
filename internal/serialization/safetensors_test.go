package serialization

import (
	"encoding/binary"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/born-ml/interp/internal/interp"
	"github.com/born-ml/interp/internal/ir"
	"github.com/born-ml/interp/internal/parallel"
	"github.com/born-ml/interp/internal/tensor"
	"github.com/google/go-cmp/cmp"
)

// poolFixture runs a 2x2 max pool forward and backward so the Context holds
// a weight, a gradient and an index tensor.
func poolFixture(t *testing.T) (*ir.Function, *interp.Context) {
	t.Helper()
	fn := ir.NewFunction("pool")
	pool := &ir.PoolInst{
		Src:    fn.NewValue("x", tensor.Shape{1, 2, 2, 1}),
		Dest:   fn.NewValue("y", tensor.Shape{1, 1, 1, 1}),
		SrcXY:  fn.NewIndexValue("xy", tensor.Shape{1, 1, 1, 1, 2}),
		Mode:   ir.PoolMax,
		Kernel: 2, Stride: 2,
	}
	fn.Append(pool)

	ctx := interp.NewContext()
	ctx.SetWeight(pool.Src, tensor.MustFromSlice([]float32{1, 4, 3, 2}, pool.Src.Shape))

	ip := interp.New(
		interp.WithParallel(parallel.Sequential()),
		interp.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	ip.Forward(ctx, fn, true)
	ctx.GradHandle(pool.Dest).Set(2, 0, 0, 0, 0)
	ip.Backward(ctx, fn)
	return fn, ctx
}

func writeFixture(t *testing.T) (string, *ir.Function, *interp.Context) {
	t.Helper()
	fn, ctx := poolFixture(t)
	path := filepath.Join(t.TempDir(), "pool.safetensors")
	if err := WriteSnapshot(path, ctx, map[string]string{MetaFunction: fn.Name}); err != nil {
		t.Fatalf("WriteSnapshot failed: %v", err)
	}
	return path, fn, ctx
}

func TestWriteSnapshot_Header(t *testing.T) {
	path, _, _ := writeFixture(t)

	snap, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	want := []TensorMeta{
		{Name: "x", DType: DTypeF32, Shape: []int{1, 2, 2, 1}, Offset: 0, Size: 16},
		{Name: "x.grad", DType: DTypeF32, Shape: []int{1, 2, 2, 1}, Offset: 16, Size: 16},
		{Name: "xy", DType: DTypeI64, Shape: []int{1, 1, 1, 1, 2}, Offset: 32, Size: 16},
		{Name: "y", DType: DTypeF32, Shape: []int{1, 1, 1, 1}, Offset: 48, Size: 4},
		{Name: "y.grad", DType: DTypeF32, Shape: []int{1, 1, 1, 1}, Offset: 52, Size: 4},
	}
	if diff := cmp.Diff(want, snap.Header().Tensors); diff != "" {
		t.Errorf("header mismatch (-want +got):\n%s", diff)
	}

	meta := snap.Metadata()
	if meta[MetaFunction] != "pool" {
		t.Errorf("Expected function=pool, got %q", meta[MetaFunction])
	}
	if meta[MetaFormat] != "interp" {
		t.Errorf("Expected format=interp, got %q", meta[MetaFormat])
	}
	if len(meta[MetaChecksum]) != 64 {
		t.Errorf("Expected hex sha256, got %q", meta[MetaChecksum])
	}
}

func TestWriteSnapshot_LayoutIsSafeTensors(t *testing.T) {
	path, _, _ := writeFixture(t)

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	headerSize := binary.LittleEndian.Uint64(raw[:8])
	if got := uint64(len(raw)) - 8 - headerSize; got != 56 {
		t.Errorf("Expected 56 data bytes, got %d", got)
	}
	if raw[8] != '{' {
		t.Errorf("Expected JSON header after the size prefix, got %q", raw[8])
	}
}

func TestSnapshot_Values(t *testing.T) {
	path, fn, ctx := writeFixture(t)

	snap, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	x, _ := fn.Value("x")
	grad, err := snap.Float32("x.grad")
	if err != nil {
		t.Fatalf("Float32 failed: %v", err)
	}
	if diff := cmp.Diff(ctx.Grad(x).Data(), grad.Data()); diff != "" {
		t.Errorf("x.grad mismatch (-ctx +snapshot):\n%s", diff)
	}
	if diff := cmp.Diff([]float32{0, 2, 0, 0}, grad.Data()); diff != "" {
		t.Errorf("gradient should land on the argmax (-want +got):\n%s", diff)
	}

	xy, err := snap.Int64("xy")
	if err != nil {
		t.Fatalf("Int64 failed: %v", err)
	}
	if diff := cmp.Diff([]int64{0, 1}, xy.Data()); diff != "" {
		t.Errorf("argmax mismatch (-want +got):\n%s", diff)
	}

	if _, err := snap.Float32("xy"); !errors.Is(err, ErrDTypeMismatch) {
		t.Errorf("Expected ErrDTypeMismatch, got %v", err)
	}
	if _, err := snap.Float32("missing"); !errors.Is(err, ErrTensorNotFound) {
		t.Errorf("Expected ErrTensorNotFound, got %v", err)
	}
}

func TestSnapshot_Restore(t *testing.T) {
	path, fn, ctx := writeFixture(t)

	snap, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	restored := interp.NewContext()
	n, err := snap.Restore(restored, fn)
	if err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if n != 5 {
		t.Errorf("Expected 5 entries restored, got %d", n)
	}
	for _, v := range fn.Values() {
		switch v.Elem {
		case ir.IndexKind:
			if diff := cmp.Diff(ctx.Indices(v).Data(), restored.Indices(v).Data()); diff != "" {
				t.Errorf("%s indices mismatch:\n%s", v, diff)
			}
		default:
			if diff := cmp.Diff(ctx.Weight(v).Data(), restored.Weight(v).Data()); diff != "" {
				t.Errorf("%s weight mismatch:\n%s", v, diff)
			}
			if diff := cmp.Diff(ctx.Grad(v).Data(), restored.Grad(v).Data()); diff != "" {
				t.Errorf("%s gradient mismatch:\n%s", v, diff)
			}
		}
	}
}

func TestSnapshot_RestoreShapeMismatch(t *testing.T) {
	path, _, _ := writeFixture(t)

	snap, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	other := ir.NewFunction("other")
	other.NewValue("y", tensor.Shape{2})
	_, err = snap.Restore(interp.NewContext(), other)
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Type != "shape_mismatch" {
		t.Errorf("Expected shape_mismatch, got %v", err)
	}
}

func TestOpen_DetectsCorruption(t *testing.T) {
	path, _, _ := writeFixture(t)

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	raw[len(raw)-1] ^= 0xff
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := Open(path); !errors.Is(err, ErrChecksumMismatch) {
		t.Errorf("Expected ErrChecksumMismatch, got %v", err)
	}
	if _, err := OpenWithOptions(path, ReaderOptions{SkipChecksumValidation: true}); err != nil {
		t.Errorf("Expected corrupted data to load without checksum validation, got %v", err)
	}
}

func TestOpen_RejectsTruncatedData(t *testing.T) {
	path, _, _ := writeFixture(t)

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, raw[:len(raw)-4], 0o600); err != nil {
		t.Fatal(err)
	}

	_, err = Open(path)
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Type != "out_of_bounds" {
		t.Errorf("Expected out_of_bounds, got %v", err)
	}
}

func TestSnapshotWriter_Closed(t *testing.T) {
	w, err := NewSnapshotWriter(filepath.Join(t.TempDir(), "closed.safetensors"))
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if err := w.WriteContext(interp.NewContext(), nil); !errors.Is(err, ErrWriterClosed) {
		t.Errorf("Expected ErrWriterClosed, got %v", err)
	}
}
