package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/statedict/internal/app"
)

func TestParseGlobalFlags(t *testing.T) {
	var out bytes.Buffer
	opts, exit, err := Parse([]string{
		"-config", "cfg.hcl", "-log-level", "DEBUG", "-log-format", "json",
		"-trace", "-filter", "rank > 1", "-catalog", "cat.db",
		"inspect", "params.json",
	}, &out)
	require.NoError(t, err)
	require.False(t, exit)

	assert.Equal(t, "cfg.hcl", opts.ConfigPath)
	assert.Equal(t, "debug", opts.LogLevel)
	assert.Equal(t, "json", opts.LogFormat)
	require.NotNil(t, opts.Trace)
	assert.True(t, *opts.Trace)
	assert.Equal(t, "rank > 1", opts.Filter)
	assert.Equal(t, "cat.db", opts.Catalog)
	assert.Equal(t, app.CmdInspect, opts.Command)
	assert.Equal(t, []string{"params.json"}, opts.Args)
}

func TestParseUnsetFlagsStayEmpty(t *testing.T) {
	opts, _, err := Parse([]string{"digest", "a.json", "b.json"}, &bytes.Buffer{})
	require.NoError(t, err)

	assert.Empty(t, opts.LogLevel)
	assert.Nil(t, opts.Trace)
	assert.Nil(t, opts.Indent)
	assert.Equal(t, []string{"a.json", "b.json"}, opts.Args)
}

func TestParseConvertFlags(t *testing.T) {
	opts, _, err := Parse([]string{"convert", "-compression", "ZSTD", "in.json", "out.json.zst", "-indent"}, &bytes.Buffer{})
	require.NoError(t, err)

	assert.Equal(t, []string{"in.json", "out.json.zst"}, opts.Args)
	assert.Equal(t, "zstd", opts.Compression)
	require.NotNil(t, opts.Indent)
	assert.True(t, *opts.Indent)
	assert.Nil(t, opts.Flat)
}

func TestParseUsage(t *testing.T) {
	var out bytes.Buffer
	opts, exit, err := Parse(nil, &out)
	require.NoError(t, err)
	assert.True(t, exit)
	assert.Nil(t, opts)
	assert.Contains(t, out.String(), "Usage:")

	out.Reset()
	_, exit, err = Parse([]string{"-h"}, &out)
	require.NoError(t, err)
	assert.True(t, exit)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown command", []string{"explode"}, "unknown command"},
		{"missing file", []string{"inspect"}, "expected 1 arguments"},
		{"too many files", []string{"diff", "a", "b", "c"}, "expected 2 arguments"},
		{"no files to index", []string{"index"}, "at least one file"},
		{"bad level", []string{"-log-level", "loud", "list"}, "invalid log-level"},
		{"bad format", []string{"-log-format", "xml", "list"}, "invalid log-format"},
		{"unknown flag", []string{"-nope", "list"}, "nope"},
		{"bad convert flag", []string{"convert", "-fast", "a", "b"}, "fast"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Parse(tt.args, &bytes.Buffer{})
			var exitErr *ExitError
			require.ErrorAs(t, err, &exitErr)
			assert.Equal(t, 2, exitErr.Code)
			assert.Contains(t, exitErr.Error(), tt.want)
		})
	}
}
