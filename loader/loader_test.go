package loader_test

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/statedict/loader"
)

func TestPublicRoundTrip(t *testing.T) {
	ctx := context.Background()
	d, err := loader.Decode(ctx, strings.NewReader(`{"a": [[1],[1]], "c": [[1],[2]], "b": [[], 3]}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c", "b"}, d.Keys())

	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "p.json.gz")
	require.NoError(t, loader.Save(jsonPath, d))
	fromJSON, err := loader.Load(ctx, jsonPath)
	require.NoError(t, err)

	bornPath := filepath.Join(dir, "p.born")
	require.NoError(t, loader.SaveBorn(bornPath, d))
	fromBorn, err := loader.LoadBorn(bornPath)
	require.NoError(t, err)

	assert.Equal(t, loader.Digest(d), loader.Digest(fromJSON))
	assert.Equal(t, loader.Digest(d), loader.Digest(fromBorn))
}

func TestPublicErrors(t *testing.T) {
	_, err := loader.Decode(context.Background(), strings.NewReader(`[1]`))

	var perr *loader.ParseError
	require.ErrorAs(t, err, &perr)
	assert.ErrorIs(t, err, loader.ErrSchema)
}
