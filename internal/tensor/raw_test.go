package tensor

import (
	"testing"
)

func TestNewRawZeroed(t *testing.T) {
	raw, err := NewRaw(Shape{3, 2}, Float32)
	if err != nil {
		t.Fatalf("NewRaw failed: %v", err)
	}

	if raw.ByteSize() != 24 {
		t.Errorf("ByteSize = %d, want 24", raw.ByteSize())
	}
	for i, v := range raw.AsFloat32() {
		if v != 0 {
			t.Errorf("element %d = %v, want 0", i, v)
		}
	}
	if got := raw.Strides(); got[0] != 2 || got[1] != 1 {
		t.Errorf("Strides = %v, want [2 1]", got)
	}
}

func TestNewRawRejectsNegativeDim(t *testing.T) {
	if _, err := NewRaw(Shape{2, -1}, Float32); err == nil {
		t.Error("expected error for negative dimension")
	}
}

func TestFromFloat32CopiesValues(t *testing.T) {
	values := []float32{1, 2, 3, 4}
	raw, err := FromFloat32(Shape{2, 2}, values)
	if err != nil {
		t.Fatalf("FromFloat32 failed: %v", err)
	}

	values[0] = 42
	if raw.AsFloat32()[0] != 1 {
		t.Error("FromFloat32 should not alias the input slice")
	}
}

func TestFromFloat32LengthMismatch(t *testing.T) {
	if _, err := FromFloat32(Shape{2, 2}, []float32{1, 2, 3}); err == nil {
		t.Error("expected error for element count mismatch")
	}
}

func TestRawTensorEmpty(t *testing.T) {
	raw, err := NewRaw(Shape{0, 3}, Float32)
	if err != nil {
		t.Fatalf("NewRaw failed: %v", err)
	}
	if raw.NumElements() != 0 {
		t.Errorf("NumElements = %d, want 0", raw.NumElements())
	}
	if got := raw.AsFloat32(); len(got) != 0 {
		t.Errorf("AsFloat32 length = %d, want 0", len(got))
	}
}

func TestRawTensorCloneIsDeep(t *testing.T) {
	raw, _ := FromFloat32(Shape{3}, []float32{1, 2, 3})
	clone := raw.Clone()

	clone.AsFloat32()[0] = 9
	if raw.AsFloat32()[0] != 1 {
		t.Error("Clone should not share storage")
	}
	if raw.Equal(clone) {
		t.Error("Equal should detect modified clone")
	}
}

func TestRawTensorReshape(t *testing.T) {
	raw, _ := FromFloat32(Shape{2, 3}, []float32{1, 2, 3, 4, 5, 6})

	out, err := raw.Reshape(Shape{3, 2})
	if err != nil {
		t.Fatalf("Reshape failed: %v", err)
	}
	if !out.Shape().Equal(Shape{3, 2}) {
		t.Errorf("Shape = %v, want [3, 2]", out.Shape())
	}
	if out.AsFloat32()[5] != 6 {
		t.Errorf("last element = %v, want 6", out.AsFloat32()[5])
	}

	if _, err := raw.Reshape(Shape{4}); err == nil {
		t.Error("expected error reshaping 6 elements into 4")
	}
}

func TestRawTensorFromBytes(t *testing.T) {
	src, _ := FromFloat32(Shape{2}, []float32{1.5, -2})
	raw, err := FromBytes(Shape{2}, Float32, src.Data())
	if err != nil {
		t.Fatalf("FromBytes failed: %v", err)
	}
	if !raw.Equal(src) {
		t.Error("FromBytes should reproduce the source tensor")
	}

	if _, err := FromBytes(Shape{3}, Float32, src.Data()); err == nil {
		t.Error("expected error for short data")
	}
}

func TestRawTensorString(t *testing.T) {
	raw, _ := NewRaw(Shape{2, 3}, Float32)
	if got := raw.String(); got != "float32[2, 3]" {
		t.Errorf("String = %q, want %q", got, "float32[2, 3]")
	}
}
