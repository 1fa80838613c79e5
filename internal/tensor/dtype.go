// Package tensor provides the tensor container used for loaded model weights.
package tensor

import "fmt"

// DataType identifies the element type stored in a RawTensor.
type DataType int

// Element types. Weights decoded from JSON are always Float32; the others
// appear in binary checkpoints.
const (
	Float32 DataType = iota
	Float64
	Int32
	Int64
	Uint8
	Bool
)

var dtypes = [...]struct {
	name string
	size int
}{
	Float32: {"float32", 4},
	Float64: {"float64", 8},
	Int32:   {"int32", 4},
	Int64:   {"int64", 8},
	Uint8:   {"uint8", 1},
	Bool:    {"bool", 1},
}

// Valid reports whether dt is one of the known element types.
func (dt DataType) Valid() bool {
	return dt >= 0 && int(dt) < len(dtypes)
}

// Size returns the width of one element in bytes. It panics on an unknown
// type.
func (dt DataType) Size() int {
	if !dt.Valid() {
		panic(fmt.Sprintf("tensor: unknown data type %d", int(dt)))
	}
	return dtypes[dt].size
}

func (dt DataType) String() string {
	if !dt.Valid() {
		return "unknown"
	}
	return dtypes[dt].name
}

// ParseDataType is the inverse of DataType.String.
func ParseDataType(s string) (DataType, error) {
	for dt, info := range dtypes {
		if info.name == s {
			return DataType(dt), nil
		}
	}
	return 0, fmt.Errorf("unsupported dtype: %q", s)
}
