package serialization

import (
	"time"
)

// Format constants.
const (
	MagicBytes        = "BORN"
	FormatVersion     = 2
	HeaderAlignment   = 64
	FixedHeaderSize   = 64
	ChecksumSize      = 32
	ChecksumOffset    = 0x20
	SafeTensorsPrefix = 8 // uint64 header size
)

// Flags for the .born format.
const (
	FlagHasMetadata uint32 = 1 << 2 // bit 2: custom metadata included
	FlagHasDigest   uint32 = 1 << 3 // bit 3: header carries the source dict digest
)

// Header is the JSON header of a .born file.
type Header struct {
	FormatVersion int               `json:"format_version"`
	Producer      string            `json:"producer"`
	CreatedAt     time.Time         `json:"created_at"`
	Source        string            `json:"source,omitempty"` // File the dict was loaded from
	Digest        string            `json:"digest,omitempty"` // statedict.DictDigest of the stored dict
	Tensors       []TensorMeta      `json:"tensors"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// TensorMeta describes one tensor in the data section.
type TensorMeta struct {
	Name   string `json:"name"`   // e.g. "backbone.conv1.weight"
	DType  string `json:"dtype"`  // tensor.DataType.String()
	Shape  []int  `json:"shape"`  // may be empty for rank-0 tensors
	Offset int64  `json:"offset"` // bytes from the start of the data section
	Size   int64  `json:"size"`   // bytes
}

// alignUp rounds n up to the next multiple of HeaderAlignment.
func alignUp(n int64) int64 {
	return n + (HeaderAlignment-n%HeaderAlignment)%HeaderAlignment
}
