package serialization

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-json-experiment/json"

	"github.com/born-ml/statedict/internal/statedict"
	"github.com/born-ml/statedict/internal/tensor"
)

// ReaderOptions configures the behavior of Reader.
type ReaderOptions struct {
	SkipChecksumValidation bool            // Skip checksum validation (faster but less safe)
	ValidationLevel        ValidationLevel // Zero value is ValidationStrict
}

// Reader reads tensors from a .born v2 file.
type Reader struct {
	src        io.ReaderAt
	closer     io.Closer
	header     Header
	flags      uint32
	index      map[string]int
	dataOffset int64
	dataSize   int64
	checksum   [32]byte
	closed     bool
}

// Open opens the .born file at path.
func Open(path string, opts ReaderOptions) (*Reader, error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for model loading
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	r, err := NewReader(file, info.Size(), opts)
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	r.closer = file
	return r, nil
}

// Load reads every tensor of the .born file at path with strict validation.
func Load(path string) (*statedict.Dict, error) {
	r, err := Open(path, ReaderOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Close() }()
	return r.Dict()
}

// NewReader parses the header of a .born image of the given size.
func NewReader(src io.ReaderAt, size int64, opts ReaderOptions) (*Reader, error) {
	r := &Reader{src: src}
	if err := r.parseHeader(size); err != nil {
		return nil, fmt.Errorf("failed to parse header: %w", err)
	}

	if err := ValidateHeader(&r.header, r.dataSize, opts.ValidationLevel); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	if !opts.SkipChecksumValidation {
		computed, err := ComputeChecksumReader(io.NewSectionReader(src, r.dataOffset, r.dataSize))
		if err != nil {
			return nil, fmt.Errorf("failed to read tensor data for checksum: %w", err)
		}
		if err := ValidateChecksum(computed, r.checksum); err != nil {
			return nil, err
		}
	}

	r.index = make(map[string]int, len(r.header.Tensors))
	for i, meta := range r.header.Tensors {
		r.index[meta.Name] = i
	}
	return r, nil
}

func (r *Reader) parseHeader(size int64) error {
	fixed := make([]byte, FixedHeaderSize)
	if _, err := r.src.ReadAt(fixed, 0); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: %d bytes, fixed header needs %d", ErrTruncated, size, FixedHeaderSize)
		}
		return fmt.Errorf("failed to read fixed header: %w", err)
	}

	if string(fixed[0:4]) != MagicBytes {
		return ErrInvalidMagic
	}
	if version := binary.LittleEndian.Uint32(fixed[4:8]); version != FormatVersion {
		return fmt.Errorf("%w: got %d, expected %d", ErrUnsupportedVersion, version, FormatVersion)
	}
	r.flags = binary.LittleEndian.Uint32(fixed[8:12])
	headerSize := binary.LittleEndian.Uint64(fixed[16:24])
	dataSize := binary.LittleEndian.Uint64(fixed[24:32])
	copy(r.checksum[:], fixed[ChecksumOffset:ChecksumOffset+ChecksumSize])

	if headerSize > MaxHeaderSize {
		return ErrHeaderTooLarge
	}

	r.dataOffset = alignUp(FixedHeaderSize + int64(headerSize))         //nolint:gosec // G115: bounded by MaxHeaderSize
	if dataSize > uint64(size) || r.dataOffset > size-int64(dataSize) { //nolint:gosec // G115: checked against size first
		return fmt.Errorf("%w: data section of %d bytes at offset %d, file is %d bytes", ErrTruncated, dataSize, r.dataOffset, size)
	}
	r.dataSize = int64(dataSize) //nolint:gosec // G115: checked above

	headerJSON := make([]byte, headerSize)
	if _, err := r.src.ReadAt(headerJSON, FixedHeaderSize); err != nil {
		return fmt.Errorf("failed to read header JSON: %w", err)
	}
	if err := json.Unmarshal(headerJSON, &r.header); err != nil {
		return fmt.Errorf("failed to parse header JSON: %w", err)
	}
	return nil
}

// Header returns the file header.
func (r *Reader) Header() Header {
	return r.header
}

// Flags returns the flag word of the fixed header.
func (r *Reader) Flags() uint32 {
	return r.flags
}

// Names returns tensor names in file order.
func (r *Reader) Names() []string {
	names := make([]string, len(r.header.Tensors))
	for i, meta := range r.header.Tensors {
		names[i] = meta.Name
	}
	return names
}

// TensorInfo returns the header entry for name.
func (r *Reader) TensorInfo(name string) (TensorMeta, error) {
	i, ok := r.index[name]
	if !ok {
		return TensorMeta{}, fmt.Errorf("%w: %s", ErrTensorNotFound, name)
	}
	return r.header.Tensors[i], nil
}

// Tensor reads one tensor into freshly allocated storage.
func (r *Reader) Tensor(name string) (*tensor.RawTensor, error) {
	if r.closed {
		return nil, fmt.Errorf("reader is closed")
	}

	meta, err := r.TensorInfo(name)
	if err != nil {
		return nil, err
	}
	if err := ValidateTensorMeta(meta); err != nil {
		return nil, err
	}
	dtype, err := tensor.ParseDataType(meta.DType)
	if err != nil {
		return nil, err
	}

	raw, err := tensor.NewRaw(tensor.Shape(meta.Shape), dtype)
	if err != nil {
		return nil, fmt.Errorf("failed to create tensor %s: %w", name, err)
	}
	if len(raw.Data()) > 0 {
		if _, err := r.src.ReadAt(raw.Data(), r.dataOffset+meta.Offset); err != nil {
			return nil, fmt.Errorf("failed to read tensor %s: %w", name, err)
		}
	}
	return raw, nil
}

// Dict reads every tensor, preserving file order.
func (r *Reader) Dict() (*statedict.Dict, error) {
	d := statedict.NewDict()
	for _, meta := range r.header.Tensors {
		raw, err := r.Tensor(meta.Name)
		if err != nil {
			return nil, err
		}
		d.Set(meta.Name, raw)
	}
	return d, nil
}

// Close closes the underlying file, if the Reader opened one.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}
