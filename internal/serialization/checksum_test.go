package serialization

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeChecksum(t *testing.T) {
	data := []byte("test data")

	assert.Equal(t, ComputeChecksum(data), ComputeChecksum(data))
	assert.NotEqual(t, ComputeChecksum(data), ComputeChecksum([]byte("different data")))
}

func TestComputeChecksumReader(t *testing.T) {
	data := []byte("test data for reader")

	sum, err := ComputeChecksumReader(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, ComputeChecksum(data), sum)
}

func TestDictChecksumMatchesDataSection(t *testing.T) {
	d := testDict(t)

	var data []byte
	for _, raw := range d.All() {
		data = append(data, raw.Data()...)
	}
	assert.Equal(t, ComputeChecksum(data), dictChecksum(d))
}

func TestValidateChecksum(t *testing.T) {
	sum := ComputeChecksum([]byte("test data"))

	assert.NoError(t, ValidateChecksum(sum, sum))

	corrupted := sum
	corrupted[0] ^= 0xff
	assert.ErrorIs(t, ValidateChecksum(corrupted, sum), ErrChecksumMismatch)
}
