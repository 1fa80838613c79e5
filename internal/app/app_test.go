package app

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/statedict/internal/serialization"
	"github.com/born-ml/statedict/internal/statedict"
)

const sampleJSON = `{
	"conv.weight": [[2, 2], [[1, 2], [3, 4]]],
	"conv.bias": [[2], [0.5, -0.5]],
	"scale": [[], 3.14]
}`

type harness struct {
	dir  string
	out  bytes.Buffer
	logs bytes.Buffer
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{dir: t.TempDir()}
	t.Setenv("HOME", h.dir)
	return h
}

func (h *harness) file(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(h.dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func (h *harness) run(t *testing.T, opts *Options) error {
	t.Helper()
	h.out.Reset()
	if opts.Catalog == "" {
		opts.Catalog = filepath.Join(h.dir, "catalog.db")
	}
	a, err := New(context.Background(), &h.out, &h.logs, opts)
	require.NoError(t, err)
	return a.Run(context.Background(), opts)
}

func TestInspect(t *testing.T) {
	h := newHarness(t)
	path := h.file(t, "params.json", sampleJSON)

	require.NoError(t, h.run(t, &Options{Command: CmdInspect, Args: []string{path}}))

	out := h.out.String()
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "conv.weight")
	assert.Contains(t, out, "[2, 2]")
	assert.Contains(t, out, "3 tensors, 7 elements")
	assert.Less(t, strings.Index(out, "conv.weight"), strings.Index(out, "conv.bias"), "file order")
}

func TestInspectWithFilter(t *testing.T) {
	h := newHarness(t)
	path := h.file(t, "params.json", sampleJSON)

	require.NoError(t, h.run(t, &Options{Command: CmdInspect, Args: []string{path}, Filter: `rank > 1`}))
	assert.Contains(t, h.out.String(), "1 tensors, 4 elements")
}

func TestConvertFormats(t *testing.T) {
	h := newHarness(t)
	in := h.file(t, "params.json", sampleJSON)
	want, err := statedict.Load(context.Background(), in)
	require.NoError(t, err)

	for _, name := range []string{"out.born", "out.safetensors", "out.json.zst", "out.json"} {
		t.Run(name, func(t *testing.T) {
			out := filepath.Join(h.dir, name)
			require.NoError(t, h.run(t, &Options{Command: CmdConvert, Args: []string{in, out}}))
			assert.Contains(t, h.out.String(), "3 tensors")

			var got *statedict.Dict
			switch FormatFromPath(out) {
			case FormatBorn:
				got, err = serialization.Load(out)
			case FormatSafeTensors:
				got, _, err = serialization.LoadSafeTensors(out)
			default:
				got, err = statedict.Load(context.Background(), out)
			}
			require.NoError(t, err)
			assert.True(t, want.Equal(got))
		})
	}
}

func TestConvertCompressionOverride(t *testing.T) {
	h := newHarness(t)
	in := h.file(t, "params.json", sampleJSON)
	out := filepath.Join(h.dir, "out.json")
	indent := true

	require.NoError(t, h.run(t, &Options{Command: CmdConvert, Args: []string{in, out}, Compression: "gzip", Indent: &indent}))

	raw, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x1f, 0x8b}, raw[:2])
}

func TestDigestMatchesAcrossFormats(t *testing.T) {
	h := newHarness(t)
	in := h.file(t, "params.json", sampleJSON)
	born := filepath.Join(h.dir, "params.born")
	require.NoError(t, h.run(t, &Options{Command: CmdConvert, Args: []string{in, born}}))

	require.NoError(t, h.run(t, &Options{Command: CmdDigest, Args: []string{in, born}}))
	lines := strings.Split(strings.TrimSpace(h.out.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, strings.Fields(lines[0])[0], strings.Fields(lines[1])[0])
}

func TestDigestKeepsArgumentOrder(t *testing.T) {
	h := newHarness(t)
	var paths []string
	for i := range 8 {
		paths = append(paths, h.file(t, fmt.Sprintf("p%d.json", i), fmt.Sprintf(`{"w": [[1], [%d]]}`, i)))
	}

	require.NoError(t, h.run(t, &Options{Command: CmdDigest, Args: paths}))
	lines := strings.Split(strings.TrimSpace(h.out.String()), "\n")
	require.Len(t, lines, len(paths))
	for i, line := range lines {
		assert.True(t, strings.HasSuffix(line, paths[i]), "line %d: %s", i, line)
	}
}

func TestDigestFailsOnAnyBadFile(t *testing.T) {
	h := newHarness(t)
	good := h.file(t, "good.json", sampleJSON)
	bad := h.file(t, "bad.json", `{"x": [[2], [1]]}`)

	err := h.run(t, &Options{Command: CmdDigest, Args: []string{good, bad, good}})
	require.ErrorIs(t, err, statedict.ErrSizeMismatch)
	assert.Empty(t, h.out.String())
}

func TestIndexListAndDiff(t *testing.T) {
	h := newHarness(t)
	a := h.file(t, "a.json", sampleJSON)
	b := h.file(t, "b.json", `{
	"conv.weight": [[2, 2], [[1, 2], [3, 5]]],
	"scale": [[], 3.14],
	"extra": [[1], [0]]
}`)

	require.NoError(t, h.run(t, &Options{Command: CmdIndex, Args: []string{a}}))
	assert.Contains(t, h.out.String(), a)

	require.NoError(t, h.run(t, &Options{Command: CmdList}))
	assert.Contains(t, h.out.String(), "a.json")

	require.NoError(t, h.run(t, &Options{Command: CmdDiff, Args: []string{a, b}}))
	out := h.out.String()
	assert.Contains(t, out, "- conv.bias")
	assert.Contains(t, out, "* conv.weight")
	assert.Contains(t, out, "+ extra")
	assert.Contains(t, out, "3 changes")

	require.NoError(t, h.run(t, &Options{Command: CmdDiff, Args: []string{a, a}}))
	assert.Equal(t, "identical\n", h.out.String())
}

func TestLoadErrorsAreReported(t *testing.T) {
	h := newHarness(t)
	bad := h.file(t, "bad.json", `{"x": [[2], [1]]}`)

	err := h.run(t, &Options{Command: CmdInspect, Args: []string{bad}})
	require.Error(t, err)
	assert.ErrorIs(t, err, statedict.ErrSizeMismatch)
	assert.Contains(t, err.Error(), bad)
}

func TestTraceLogsEvents(t *testing.T) {
	h := newHarness(t)
	path := h.file(t, "params.json", `{"b": [[], 1]}`)
	trace := true

	require.NoError(t, h.run(t, &Options{Command: CmdDigest, Args: []string{path}, LogLevel: "debug", Trace: &trace}))
	assert.Contains(t, h.logs.String(), "Parse event.")
}

func TestConfigFileIsApplied(t *testing.T) {
	h := newHarness(t)
	cfgPath := h.file(t, "config.hcl", `
log_level = "debug"
log_format = "json"
filter = "hasSuffix(name, \".bias\")"
`)
	path := h.file(t, "params.json", sampleJSON)

	opts := &Options{ConfigPath: cfgPath, Command: CmdInspect, Args: []string{path}}
	require.NoError(t, h.run(t, opts))
	assert.Contains(t, h.out.String(), "1 tensors, 2 elements")
	assert.Contains(t, h.logs.String(), `"msg":"Loaded state dict."`)
}

func TestNewRejectsBadOverrides(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	_, err := New(context.Background(), &bytes.Buffer{}, &bytes.Buffer{}, &Options{Filter: "rank >", Command: CmdList})
	assert.Error(t, err)

	_, err = New(context.Background(), &bytes.Buffer{}, &bytes.Buffer{}, &Options{ConfigPath: filepath.Join(t.TempDir(), "missing.hcl")})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestVersion(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.run(t, &Options{Command: CmdVersion}))
	assert.Equal(t, "statedict "+Version+"\n", h.out.String())
}

func TestFormatFromPath(t *testing.T) {
	assert.Equal(t, FormatBorn, FormatFromPath("x/model.BORN"))
	assert.Equal(t, FormatSafeTensors, FormatFromPath("model.safetensors"))
	assert.Equal(t, FormatJSON, FormatFromPath("params.json.lz4"))
}
