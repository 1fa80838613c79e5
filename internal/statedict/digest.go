package statedict

import (
	"encoding/binary"
	"fmt"

	"github.com/cespare/xxhash/v2"

	"github.com/born-ml/statedict/internal/tensor"
)

// TensorDigest hashes a tensor's dtype, shape and storage with xxhash64.
// Two tensors have the same digest iff they are Equal, barring collisions.
func TensorDigest(t *tensor.RawTensor) uint64 {
	h := xxhash.New()
	var buf [8]byte

	_, _ = h.WriteString(t.DType().String())
	binary.LittleEndian.PutUint64(buf[:], uint64(t.Shape().Rank()))
	_, _ = h.Write(buf[:])
	for _, dim := range t.Shape() {
		binary.LittleEndian.PutUint64(buf[:], uint64(dim))
		_, _ = h.Write(buf[:])
	}
	_, _ = h.Write(t.Data())
	return h.Sum64()
}

// DictDigest hashes the ordered (name, tensor digest) sequence. Reordering
// entries changes the digest.
func DictDigest(d *Dict) uint64 {
	h := xxhash.New()
	var buf [8]byte

	for name, t := range d.All() {
		binary.LittleEndian.PutUint64(buf[:], uint64(len(name)))
		_, _ = h.Write(buf[:])
		_, _ = h.WriteString(name)
		binary.LittleEndian.PutUint64(buf[:], TensorDigest(t))
		_, _ = h.Write(buf[:])
	}
	return h.Sum64()
}

// FormatDigest renders a digest as 16 lowercase hex digits.
func FormatDigest(sum uint64) string {
	return fmt.Sprintf("%016x", sum)
}
