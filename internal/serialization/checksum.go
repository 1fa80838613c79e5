package serialization

import (
	"crypto/sha256"
	"io"

	"github.com/born-ml/statedict/internal/statedict"
)

// ComputeChecksum computes the SHA-256 checksum of data.
func ComputeChecksum(data []byte) [32]byte {
	return sha256.Sum256(data)
}

// ComputeChecksumReader computes the SHA-256 checksum of everything r yields.
func ComputeChecksumReader(r io.Reader) ([32]byte, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return [32]byte{}, err
	}
	var sum [32]byte
	copy(sum[:], h.Sum(nil))
	return sum, nil
}

// dictChecksum hashes the tensor storage of d in order, which is exactly
// the data section the writer emits.
func dictChecksum(d *statedict.Dict) [32]byte {
	h := sha256.New()
	for _, t := range d.All() {
		_, _ = h.Write(t.Data())
	}
	var sum [32]byte
	copy(sum[:], h.Sum(nil))
	return sum
}

// ValidateChecksum compares computed checksum against stored checksum.
func ValidateChecksum(computed, stored [32]byte) error {
	if computed != stored {
		return ErrChecksumMismatch
	}
	return nil
}
