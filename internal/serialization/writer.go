package serialization

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-json-experiment/json"

	"github.com/born-ml/statedict/internal/statedict"
)

const defaultProducer = "statedict"

// WriteOptions configures the .born header.
type WriteOptions struct {
	Producer string            // Defaults to "statedict"
	Source   string            // Recorded as-is, usually the input path
	Metadata map[string]string // Free-form key/value pairs
	NoDigest bool              // Skip the xxhash dict digest
}

// Save writes d to a new .born file at path.
func Save(path string, d *statedict.Dict, opts WriteOptions) (err error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for model saving
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		err = errors.Join(err, file.Close())
	}()

	return Write(file, d, opts)
}

// Write writes d in .born v2 format. Tensors are stored in dict order.
func Write(w io.Writer, d *statedict.Dict, opts WriteOptions) error {
	header, err := buildHeader(d, opts)
	if err != nil {
		return err
	}

	headerJSON, err := json.Marshal(header, json.Deterministic(true))
	if err != nil {
		return fmt.Errorf("failed to marshal header: %w", err)
	}
	if len(headerJSON) > MaxHeaderSize {
		return fmt.Errorf("%w: %d bytes", ErrHeaderTooLarge, len(headerJSON))
	}

	var dataSize int64
	for _, meta := range header.Tensors {
		dataSize += meta.Size
	}
	checksum := dictChecksum(d)

	fixed := make([]byte, FixedHeaderSize)
	copy(fixed[0:4], MagicBytes)
	binary.LittleEndian.PutUint32(fixed[4:8], FormatVersion)
	binary.LittleEndian.PutUint32(fixed[8:12], headerFlags(header))
	binary.LittleEndian.PutUint64(fixed[16:24], uint64(len(headerJSON)))
	binary.LittleEndian.PutUint64(fixed[24:32], uint64(dataSize)) //nolint:gosec // G115: sum of tensor sizes is non-negative
	copy(fixed[ChecksumOffset:ChecksumOffset+ChecksumSize], checksum[:])

	if _, err := w.Write(fixed); err != nil {
		return fmt.Errorf("failed to write fixed header: %w", err)
	}
	if _, err := w.Write(headerJSON); err != nil {
		return fmt.Errorf("failed to write header JSON: %w", err)
	}

	pos := int64(FixedHeaderSize + len(headerJSON))
	if padding := alignUp(pos) - pos; padding > 0 {
		if _, err := w.Write(make([]byte, padding)); err != nil {
			return fmt.Errorf("failed to write padding: %w", err)
		}
	}

	for name, t := range d.All() {
		if _, err := w.Write(t.Data()); err != nil {
			return fmt.Errorf("failed to write tensor %s: %w", name, err)
		}
	}
	return nil
}

func buildHeader(d *statedict.Dict, opts WriteOptions) (Header, error) {
	header := Header{
		FormatVersion: FormatVersion,
		Producer:      opts.Producer,
		CreatedAt:     time.Now().UTC(),
		Source:        opts.Source,
		Tensors:       make([]TensorMeta, 0, d.Len()),
		Metadata:      opts.Metadata,
	}
	if header.Producer == "" {
		header.Producer = defaultProducer
	}
	if !opts.NoDigest {
		header.Digest = statedict.FormatDigest(statedict.DictDigest(d))
	}

	var offset int64
	for name, t := range d.All() {
		if err := ValidateTensorName(name); err != nil {
			return Header{}, err
		}
		meta := TensorMeta{
			Name:   name,
			DType:  t.DType().String(),
			Shape:  t.Shape().Clone(),
			Offset: offset,
			Size:   int64(t.ByteSize()),
		}
		header.Tensors = append(header.Tensors, meta)
		offset += meta.Size
	}
	return header, nil
}

func headerFlags(h Header) uint32 {
	var flags uint32
	if len(h.Metadata) > 0 {
		flags |= FlagHasMetadata
	}
	if h.Digest != "" {
		flags |= FlagHasDigest
	}
	return flags
}
