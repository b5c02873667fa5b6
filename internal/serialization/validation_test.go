package serialization

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateTensorOffsets(t *testing.T) {
	tests := []struct {
		name     string
		tensors  []TensorMeta
		dataSize int64
		wantType string
	}{
		{
			name: "contiguous",
			tensors: []TensorMeta{
				{Name: "conv.filter", Offset: 0, Size: 100},
				{Name: "conv.filter.grad", Offset: 100, Size: 100},
			},
			dataSize: 200,
		},
		{
			name: "unsorted input",
			tensors: []TensorMeta{
				{Name: "b", Offset: 100, Size: 50},
				{Name: "a", Offset: 0, Size: 100},
			},
			dataSize: 150,
		},
		{
			name: "overlap by one byte",
			tensors: []TensorMeta{
				{Name: "a", Offset: 0, Size: 100},
				{Name: "b", Offset: 99, Size: 100},
			},
			dataSize: 200,
			wantType: "offset_overlap",
		},
		{
			name:     "past the data section",
			tensors:  []TensorMeta{{Name: "a", Offset: 50, Size: 100}},
			dataSize: 120,
			wantType: "out_of_bounds",
		},
		{
			name:     "negative offset",
			tensors:  []TensorMeta{{Name: "a", Offset: -4, Size: 4}},
			dataSize: 100,
			wantType: "negative_offset",
		},
		{
			name:     "too many tensors",
			tensors:  make([]TensorMeta, MaxTensorCount+1),
			dataSize: 0,
			wantType: "too_many_tensors",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTensorOffsets(tt.tensors, tt.dataSize)
			checkValidationError(t, err, tt.wantType)
		})
	}
}

func TestValidateTensorName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantType string
	}{
		{"value name", "fc1.weights", ""},
		{"gradient entry", "fc1.weights.grad", ""},
		{"argmax", "pool_xy", ""},
		{"empty", "", "invalid_name"},
		{"traversal", "../etc/passwd", "invalid_name"},
		{"slash", "a/b", "invalid_name"},
		{"backslash", "a\\b", "invalid_name"},
		{"null byte", "a\x00b", "invalid_name"},
		{"too long", strings.Repeat("x", MaxTensorNameLen+1), "name_too_long"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkValidationError(t, ValidateTensorName(tt.input), tt.wantType)
		})
	}
}

func TestValidateTensorSize(t *testing.T) {
	tests := []struct {
		name     string
		meta     TensorMeta
		wantType string
	}{
		{"f32", TensorMeta{Name: "w", DType: DTypeF32, Shape: []int{2, 3}, Size: 24}, ""},
		{"i64", TensorMeta{Name: "xy", DType: DTypeI64, Shape: []int{1, 2, 2, 1, 2}, Size: 64}, ""},
		{"wrong size", TensorMeta{Name: "w", DType: DTypeF32, Shape: []int{2, 3}, Size: 48}, "size_mismatch"},
		{"unknown dtype", TensorMeta{Name: "w", DType: "BF16", Shape: []int{2}, Size: 4}, "unknown_dtype"},
		{"negative dim", TensorMeta{Name: "w", DType: DTypeF32, Shape: []int{-1}, Size: 0}, "invalid_shape"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkValidationError(t, ValidateTensorSize(tt.meta), tt.wantType)
		})
	}
}

func TestValidationError_ErrorMessages(t *testing.T) {
	tests := []struct {
		err      *ValidationError
		expected string
	}{
		{
			&ValidationError{Type: "out_of_bounds", Tensor: "fc.bias", Details: "offset 100 + size 200 > data_size 250"},
			`out_of_bounds: tensor "fc.bias": offset 100 + size 200 > data_size 250`,
		},
		{
			&ValidationError{Type: "offset_overlap", Tensor: "a", Tensor2: "b", Details: "regions [0-100] and [50-150] overlap"},
			`offset_overlap: tensors "a" and "b": regions [0-100] and [50-150] overlap`,
		},
		{
			&ValidationError{Type: "too_many_tensors", Details: "got 100001, max 100000"},
			"too_many_tensors: got 100001, max 100000",
		},
	}

	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.expected {
			t.Errorf("Error message mismatch\nExpected: %s\nGot:      %s", tt.expected, got)
		}
	}
}

// FuzzValidateTensorName ensures name validation never panics on random input.
func FuzzValidateTensorName(f *testing.F) {
	f.Add("conv.filter.grad")
	f.Add("../malicious")
	f.Add("\x00null_byte")
	f.Add(strings.Repeat("a", MaxTensorNameLen))

	f.Fuzz(func(_ *testing.T, name string) {
		_ = ValidateTensorName(name)
	})
}

func checkValidationError(t *testing.T, err error, wantType string) {
	t.Helper()
	if wantType == "" {
		if err != nil {
			t.Errorf("Expected no error, got: %v", err)
		}
		return
	}
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("Expected ValidationError, got %T (%v)", err, err)
	}
	if ve.Type != wantType {
		t.Errorf("Expected %s error, got %s", wantType, ve.Type)
	}
}
