package statedict

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/go-json-experiment/json/jsontext"

	"github.com/born-ml/statedict/internal/tensor"
)

type writeOptions struct {
	compression Compression
	indent      bool
	flat        bool
}

// WriteOption configures Save and Encode.
type WriteOption func(*writeOptions)

// WithCompression forces a codec. Save otherwise picks one from the file
// extension and Encode writes plain JSON.
func WithCompression(c Compression) WriteOption {
	return func(o *writeOptions) {
		o.compression = c
	}
}

// WithIndent writes multi-line, indented JSON.
func WithIndent() WriteOption {
	return func(o *writeOptions) {
		o.indent = true
	}
}

// WithFlatPayload writes every payload as one flat list instead of nesting
// it by shape. Both forms load to the same tensor.
func WithFlatPayload() WriteOption {
	return func(o *writeOptions) {
		o.flat = true
	}
}

// Save writes d to path in the state dict JSON format.
func Save(path string, d *Dict, opts ...WriteOption) (err error) {
	o := &writeOptions{compression: CompressionFromPath(path)}
	for _, opt := range opts {
		opt(o)
	}

	//nolint:gosec // G304: File path comes from user input, which is expected for model saving
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		err = errors.Join(err, file.Close())
	}()

	return encode(file, d, o)
}

// Encode writes d to w in the state dict JSON format.
func Encode(w io.Writer, d *Dict, opts ...WriteOption) error {
	o := &writeOptions{}
	for _, opt := range opts {
		opt(o)
	}
	return encode(w, d, o)
}

func encode(w io.Writer, d *Dict, o *writeOptions) error {
	cw, err := newCompressor(w, o.compression)
	if err != nil {
		return err
	}

	var jsonOpts []jsontext.Options
	if o.indent {
		jsonOpts = append(jsonOpts, jsontext.Multiline(true), jsontext.WithIndent("  "))
	}
	enc := jsontext.NewEncoder(cw, jsonOpts...)

	if err := enc.WriteToken(jsontext.BeginObject); err != nil {
		return err
	}
	for name, t := range d.All() {
		if err := enc.WriteToken(jsontext.String(name)); err != nil {
			return err
		}
		if err := encodeEntry(enc, t, o.flat); err != nil {
			return fmt.Errorf("failed to write tensor %s: %w", name, err)
		}
	}
	if err := enc.WriteToken(jsontext.EndObject); err != nil {
		return err
	}

	if err := cw.Close(); err != nil {
		return fmt.Errorf("failed to flush %s stream: %w", o.compression, err)
	}
	return nil
}

// encodeEntry writes [shape, payload]. Rank-0 tensors get an empty shape
// and a bare number.
func encodeEntry(enc *jsontext.Encoder, t *tensor.RawTensor, flat bool) error {
	if t.DType() != tensor.Float32 {
		return fmt.Errorf("dtype %s is not supported, need float32", t.DType())
	}
	shape := t.Shape()
	values := t.AsFloat32()

	if err := enc.WriteToken(jsontext.BeginArray); err != nil {
		return err
	}
	if err := enc.WriteToken(jsontext.BeginArray); err != nil {
		return err
	}
	for _, dim := range shape {
		if err := enc.WriteToken(jsontext.Uint(uint64(dim))); err != nil {
			return err
		}
	}
	if err := enc.WriteToken(jsontext.EndArray); err != nil {
		return err
	}

	var err error
	switch {
	case len(shape) == 0:
		err = writeFloat(enc, values[0])
	case flat:
		err = encodeList(enc, tensor.Shape{len(values)}, values)
	default:
		err = encodeList(enc, shape, values)
	}
	if err != nil {
		return err
	}
	return enc.WriteToken(jsontext.EndArray)
}

// encodeList writes values as lists nested by shape, row-major.
func encodeList(enc *jsontext.Encoder, shape tensor.Shape, values []float32) error {
	if err := enc.WriteToken(jsontext.BeginArray); err != nil {
		return err
	}
	if len(shape) == 1 {
		for _, v := range values {
			if err := writeFloat(enc, v); err != nil {
				return err
			}
		}
	} else if shape[0] > 0 {
		stride := len(values) / shape[0]
		for i := range shape[0] {
			if err := encodeList(enc, shape[1:], values[i*stride:(i+1)*stride]); err != nil {
				return err
			}
		}
	}
	return enc.WriteToken(jsontext.EndArray)
}

// writeFloat emits the shortest decimal that reads back as the same float32.
func writeFloat(enc *jsontext.Encoder, v float32) error {
	if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
		return fmt.Errorf("value %v has no JSON representation", v)
	}
	return enc.WriteValue(jsontext.Value(strconv.FormatFloat(float64(v), 'g', -1, 32)))
}
