package tensor

import "testing"

func TestShapeNumElements(t *testing.T) {
	tests := []struct {
		name  string
		shape Shape
		want  int
	}{
		{"scalar", Shape{}, 1},
		{"vector", Shape{5}, 5},
		{"matrix", Shape{2, 3}, 6},
		{"zero dim", Shape{4, 0, 2}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.shape.NumElements(); got != tt.want {
				t.Errorf("NumElements() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestShapeComputeStrides(t *testing.T) {
	strides := Shape{2, 3, 4}.ComputeStrides()
	want := []int{12, 4, 1}
	for i := range want {
		if strides[i] != want[i] {
			t.Fatalf("ComputeStrides() = %v, want %v", strides, want)
		}
	}
}

func TestShapeString(t *testing.T) {
	if got := (Shape{}).String(); got != "[]" {
		t.Errorf("String() = %q, want []", got)
	}
	if got := (Shape{64, 3, 7, 7}).String(); got != "[64, 3, 7, 7]" {
		t.Errorf("String() = %q", got)
	}
}

func TestParseDataType(t *testing.T) {
	for _, dt := range []DataType{Float32, Float64, Int32, Int64, Uint8, Bool} {
		got, err := ParseDataType(dt.String())
		if err != nil || got != dt {
			t.Errorf("ParseDataType(%q) = %v, %v", dt.String(), got, err)
		}
	}
	if _, err := ParseDataType("bfloat16"); err == nil {
		t.Error("expected error for unsupported dtype")
	}
}

func TestShapeValidate(t *testing.T) {
	if err := (Shape{2, 0, 3}).Validate(); err != nil {
		t.Errorf("Validate() with zero dim: %v", err)
	}
	if err := (Shape{2, -1}).Validate(); err == nil {
		t.Error("expected error for negative dimension")
	}
}

func TestShapeCloneDoesNotAlias(t *testing.T) {
	s := Shape{2, 3}
	c := s.Clone()
	c[0] = 9
	if s[0] != 2 {
		t.Fatalf("Clone aliases the original: %v", s)
	}
	if (Shape(nil)).Clone() == nil {
		t.Error("Clone of nil shape returned nil")
	}
}

func TestDataTypeSize(t *testing.T) {
	sizes := map[DataType]int{Float32: 4, Float64: 8, Int32: 4, Int64: 8, Uint8: 1, Bool: 1}
	for dt, want := range sizes {
		if got := dt.Size(); got != want {
			t.Errorf("%s.Size() = %d, want %d", dt, got, want)
		}
	}
	if DataType(42).Valid() {
		t.Error("DataType(42) reported valid")
	}
	if got := DataType(42).String(); got != "unknown" {
		t.Errorf("String() = %q, want unknown", got)
	}
}
