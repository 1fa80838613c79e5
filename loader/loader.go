// Package loader loads JSON state dicts: documents mapping parameter names
// to [shape, values] pairs.
//
// This package wraps the internal implementation and exports a small public
// API for loading, saving and checksumming state dicts.
//
// Example usage:
//
//	import "github.com/born-ml/statedict/loader"
//
//	dict, err := loader.Load(ctx, "params.json")
//	if err != nil {
//	    var perr *loader.ParseError
//	    if errors.As(err, &perr) {
//	        log.Fatalf("bad state dict at %s: %v", perr.Pos, perr)
//	    }
//	    log.Fatal(err)
//	}
//
//	for name, t := range dict.All() {
//	    fmt.Println(name, t.Shape(), t.AsFloat32()[:1])
//	}
package loader

import (
	"context"
	"io"

	"github.com/born-ml/statedict/internal/serialization"
	"github.com/born-ml/statedict/internal/statedict"
	"github.com/born-ml/statedict/internal/tensor"
)

// Dict is an ordered name to tensor mapping.
type Dict = statedict.Dict

// Tensor is a dense tensor owning its storage.
type Tensor = tensor.RawTensor

// Shape is a tensor shape.
type Shape = tensor.Shape

// ParseError reports syntax and schema failures with their position.
//
// Note: This is a type alias because its fields reference internal event
// and state types that cannot be abstracted without a wrapper layer.
type ParseError = statedict.ParseError

// Option configures Load and Decode.
type Option = statedict.Option

// WriteOption configures Save and Encode.
type WriteOption = statedict.WriteOption

// Filter selects entries by expression.
type Filter = statedict.Filter

// Errors matched with errors.Is.
var (
	ErrSchema           = statedict.ErrSchema
	ErrSizeMismatch     = statedict.ErrSizeMismatch
	ErrInvalidDimension = statedict.ErrInvalidDimension
	ErrTooLarge         = statedict.ErrTooLarge
)

// Load reads the state dict stored at path. gzip, zstd and lz4 files are
// decompressed transparently.
func Load(ctx context.Context, path string, opts ...Option) (*Dict, error) {
	return statedict.Load(ctx, path, opts...)
}

// Decode reads a state dict from r.
func Decode(ctx context.Context, r io.Reader, opts ...Option) (*Dict, error) {
	return statedict.Decode(ctx, r, opts...)
}

// Save writes d to path in the same JSON layout Load reads.
func Save(path string, d *Dict, opts ...WriteOption) error {
	return statedict.Save(path, d, opts...)
}

// Encode writes d to w.
func Encode(w io.Writer, d *Dict, opts ...WriteOption) error {
	return statedict.Encode(w, d, opts...)
}

// SaveBorn writes d as a native .born checkpoint.
func SaveBorn(path string, d *Dict) error {
	return serialization.Save(path, d, serialization.WriteOptions{})
}

// LoadBorn reads a .born checkpoint written by SaveBorn.
func LoadBorn(path string) (*Dict, error) {
	return serialization.Load(path)
}

// Digest returns the hex xxhash64 digest of d. Equal dicts in the same
// order have equal digests.
func Digest(d *Dict) string {
	return statedict.FormatDigest(statedict.DictDigest(d))
}

// Option constructors.
var (
	WithTrace       = statedict.WithTrace
	WithFilter      = statedict.WithFilter
	WithLogger      = statedict.WithLogger
	WithMaxElements = statedict.WithMaxElements
	CompileFilter   = statedict.CompileFilter
)
