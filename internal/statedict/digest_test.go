package statedict

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/born-ml/statedict/internal/tensor"
)

func TestTensorDigest(t *testing.T) {
	base := mustTensor(t, tensor.Shape{2, 2}, []float32{1, 2, 3, 4})

	assert.Equal(t, TensorDigest(base), TensorDigest(base.Clone()))
	assert.NotEqual(t, TensorDigest(base), TensorDigest(mustTensor(t, tensor.Shape{4}, []float32{1, 2, 3, 4})),
		"shape is part of the digest")
	assert.NotEqual(t, TensorDigest(base), TensorDigest(mustTensor(t, tensor.Shape{2, 2}, []float32{1, 2, 3, 5})))
}

func TestDictDigestDependsOnOrderAndNames(t *testing.T) {
	one := mustTensor(t, tensor.Shape{1}, []float32{1})
	two := mustTensor(t, tensor.Shape{1}, []float32{2})

	ab := NewDict()
	ab.Set("a", one)
	ab.Set("b", two)

	ba := NewDict()
	ba.Set("b", two)
	ba.Set("a", one)

	renamed := NewDict()
	renamed.Set("a", one)
	renamed.Set("c", two)

	assert.NotEqual(t, DictDigest(ab), DictDigest(ba))
	assert.NotEqual(t, DictDigest(ab), DictDigest(renamed))
	assert.Equal(t, DictDigest(NewDict()), DictDigest(NewDict()))
}

func TestFormatDigest(t *testing.T) {
	assert.Equal(t, "00000000000000ff", FormatDigest(0xff))
	assert.Len(t, FormatDigest(DictDigest(NewDict())), 16)
}
