package statedict

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/statedict/internal/tensor"
)

func TestFilterMatch(t *testing.T) {
	tests := []struct {
		source string
		name   string
		shape  tensor.Shape
		want   bool
	}{
		{`rank > 1`, "w", tensor.Shape{3, 3}, true},
		{`rank > 1`, "b", tensor.Shape{3}, false},
		{`name startsWith "backbone."`, "backbone.conv1.weight", tensor.Shape{1}, true},
		{`name startsWith "backbone."`, "rpn.head.weight", tensor.Shape{1}, false},
		{`hasSuffix(name, ".bias") && numel < 16`, "fc.bias", tensor.Shape{10}, true},
		{`hasSuffix(name, ".bias") && numel < 16`, "fc.bias", tensor.Shape{32}, false},
		{`len(shape) == 4 && shape[0] == 64`, "conv", tensor.Shape{64, 3, 7, 7}, true},
	}

	for _, tt := range tests {
		t.Run(tt.source+"/"+tt.name, func(t *testing.T) {
			f, err := CompileFilter(tt.source)
			require.NoError(t, err)

			got, err := f.Match(tt.name, tt.shape)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCompileFilterErrors(t *testing.T) {
	for _, src := range []string{`name +`, `numel * 2`, `unknown > 1`} {
		_, err := CompileFilter(src)
		assert.Error(t, err, src)
	}
}

func TestFilterString(t *testing.T) {
	f, err := CompileFilter(`rank == 1`)
	require.NoError(t, err)
	assert.Equal(t, `rank == 1`, f.String())
}
