package serialization

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"

	"github.com/born-ml/statedict/internal/statedict"
	"github.com/born-ml/statedict/internal/tensor"
)

// SafeTensors format:
// [8 bytes: header_size (uint64 LE)]
// [header_size bytes: JSON header, space padded to 8 bytes]
// [tensor data: raw bytes]

const safeTensorsMetadataKey = "__metadata__"

// SafeTensorInfo describes a tensor in the SafeTensors header.
type SafeTensorInfo struct {
	DType       string   `json:"dtype"`
	Shape       []int    `json:"shape"`
	DataOffsets [2]int64 `json:"data_offsets"` // [start, end)
}

var safeTensorsDTypes = map[tensor.DataType]string{
	tensor.Float32: "F32",
	tensor.Float64: "F64",
	tensor.Int32:   "I32",
	tensor.Int64:   "I64",
	tensor.Uint8:   "U8",
	tensor.Bool:    "BOOL",
}

func dtypeFromSafeTensors(s string) (tensor.DataType, error) {
	for dt, name := range safeTensorsDTypes {
		if name == s {
			return dt, nil
		}
	}
	return 0, fmt.Errorf("unsupported SafeTensors dtype: %s", s)
}

// SaveSafeTensors writes d to a new SafeTensors file at path.
func SaveSafeTensors(path string, d *statedict.Dict, metadata map[string]string) (err error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for model saving
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		err = errors.Join(err, file.Close())
	}()

	return WriteSafeTensors(file, d, metadata)
}

// WriteSafeTensors writes d in SafeTensors format. Header entries and data
// follow dict order; metadata keys are sorted.
func WriteSafeTensors(w io.Writer, d *statedict.Dict, metadata map[string]string) error {
	var header bytes.Buffer
	enc := jsontext.NewEncoder(&header)

	if err := enc.WriteToken(jsontext.BeginObject); err != nil {
		return err
	}
	if len(metadata) > 0 {
		if err := enc.WriteToken(jsontext.String(safeTensorsMetadataKey)); err != nil {
			return err
		}
		if err := enc.WriteToken(jsontext.BeginObject); err != nil {
			return err
		}
		for _, k := range slices.Sorted(maps.Keys(metadata)) {
			if err := enc.WriteToken(jsontext.String(k)); err != nil {
				return err
			}
			if err := enc.WriteToken(jsontext.String(metadata[k])); err != nil {
				return err
			}
		}
		if err := enc.WriteToken(jsontext.EndObject); err != nil {
			return err
		}
	}

	var offset int64
	for name, t := range d.All() {
		dtype, ok := safeTensorsDTypes[t.DType()]
		if !ok {
			return fmt.Errorf("tensor %s: dtype %s has no SafeTensors equivalent", name, t.DType())
		}
		size := int64(t.ByteSize())
		info := SafeTensorInfo{
			DType:       dtype,
			Shape:       t.Shape().Clone(),
			DataOffsets: [2]int64{offset, offset + size},
		}
		if err := enc.WriteToken(jsontext.String(name)); err != nil {
			return err
		}
		if err := json.MarshalEncode(enc, info); err != nil {
			return fmt.Errorf("failed to marshal tensor %s: %w", name, err)
		}
		offset += size
	}
	if err := enc.WriteToken(jsontext.EndObject); err != nil {
		return err
	}

	headerJSON := bytes.TrimRight(header.Bytes(), "\n")
	if pad := (8 - len(headerJSON)%8) % 8; pad > 0 {
		headerJSON = append(headerJSON, bytes.Repeat([]byte(" "), pad)...)
	}

	var prefix [SafeTensorsPrefix]byte
	binary.LittleEndian.PutUint64(prefix[:], uint64(len(headerJSON)))
	if _, err := w.Write(prefix[:]); err != nil {
		return fmt.Errorf("failed to write header size: %w", err)
	}
	if _, err := w.Write(headerJSON); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for name, t := range d.All() {
		if _, err := w.Write(t.Data()); err != nil {
			return fmt.Errorf("failed to write tensor %s: %w", name, err)
		}
	}
	return nil
}

// LoadSafeTensors reads the SafeTensors file at path.
func LoadSafeTensors(path string) (*statedict.Dict, map[string]string, error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for model loading
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	info, err := file.Stat()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to stat file: %w", err)
	}
	return ReadSafeTensors(file, info.Size())
}

// ReadSafeTensors reads a SafeTensors image of the given size. The returned
// dict follows the order in which tensors appear in the header.
func ReadSafeTensors(src io.ReaderAt, size int64) (*statedict.Dict, map[string]string, error) {
	var prefix [SafeTensorsPrefix]byte
	if _, err := src.ReadAt(prefix[:], 0); err != nil {
		return nil, nil, fmt.Errorf("failed to read header size: %w", err)
	}
	headerSize := binary.LittleEndian.Uint64(prefix[:])
	if headerSize > MaxHeaderSize {
		return nil, nil, fmt.Errorf("%w: %d bytes", ErrHeaderTooLarge, headerSize)
	}
	dataOffset := int64(SafeTensorsPrefix) + int64(headerSize) //nolint:gosec // G115: bounded by MaxHeaderSize
	if dataOffset > size {
		return nil, nil, fmt.Errorf("%w: header ends at %d, file is %d bytes", ErrTruncated, dataOffset, size)
	}

	headerJSON := make([]byte, headerSize)
	if _, err := src.ReadAt(headerJSON, SafeTensorsPrefix); err != nil {
		return nil, nil, fmt.Errorf("failed to read header: %w", err)
	}
	metas, metadata, err := parseSafeTensorsHeader(headerJSON)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse header JSON: %w", err)
	}
	if err := ValidateTensorOffsets(metas, size-dataOffset); err != nil {
		return nil, nil, err
	}

	d := statedict.NewDict()
	for _, meta := range metas {
		if err := ValidateTensorMeta(meta); err != nil {
			return nil, nil, err
		}
		dtype, _ := tensor.ParseDataType(meta.DType)
		raw, err := tensor.NewRaw(tensor.Shape(meta.Shape), dtype)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create tensor %s: %w", meta.Name, err)
		}
		if len(raw.Data()) > 0 {
			if _, err := src.ReadAt(raw.Data(), dataOffset+meta.Offset); err != nil {
				return nil, nil, fmt.Errorf("failed to read tensor %s: %w", meta.Name, err)
			}
		}
		d.Set(meta.Name, raw)
	}
	return d, metadata, nil
}

// parseSafeTensorsHeader walks the header object member by member so that
// tensor order is kept. Offsets are converted to TensorMeta form.
func parseSafeTensorsHeader(data []byte) ([]TensorMeta, map[string]string, error) {
	dec := jsontext.NewDecoder(bytes.NewReader(data))
	tok, err := dec.ReadToken()
	if err != nil {
		return nil, nil, err
	}
	if tok.Kind() != '{' {
		return nil, nil, fmt.Errorf("header is a JSON %s, want object", tok.Kind())
	}

	var (
		metas    []TensorMeta
		metadata map[string]string
	)
	for dec.PeekKind() != '}' {
		nameTok, err := dec.ReadToken()
		if err != nil {
			return nil, nil, err
		}
		name := nameTok.String()

		if name == safeTensorsMetadataKey {
			if err := json.UnmarshalDecode(dec, &metadata); err != nil {
				return nil, nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
			}
			continue
		}

		var info SafeTensorInfo
		if err := json.UnmarshalDecode(dec, &info); err != nil {
			return nil, nil, fmt.Errorf("failed to unmarshal tensor %s: %w", name, err)
		}
		if err := ValidateTensorName(name); err != nil {
			return nil, nil, err
		}
		dtype, err := dtypeFromSafeTensors(info.DType)
		if err != nil {
			return nil, nil, fmt.Errorf("tensor %s: %w", name, err)
		}
		metas = append(metas, TensorMeta{
			Name:   name,
			DType:  dtype.String(),
			Shape:  info.Shape,
			Offset: info.DataOffsets[0],
			Size:   info.DataOffsets[1] - info.DataOffsets[0],
		})
	}
	if _, err := dec.ReadToken(); err != nil {
		return nil, nil, err
	}
	return metas, metadata, nil
}
