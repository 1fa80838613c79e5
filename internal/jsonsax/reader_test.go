package jsonsax

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder logs every callback as a compact string.
type recorder struct {
	events []string
	failOn string
	err    error
}

func (r *recorder) add(ev string) error {
	r.events = append(r.events, ev)
	if r.failOn != "" && strings.HasPrefix(ev, r.failOn) {
		return r.err
	}
	return nil
}

func (r *recorder) StartObject() error    { return r.add("{") }
func (r *recorder) EndObject(n int) error { return r.add(fmt.Sprintf("}%d", n)) }
func (r *recorder) Key(name string) error { return r.add("key:" + name) }
func (r *recorder) StartArray() error     { return r.add("[") }
func (r *recorder) EndArray(n int) error  { return r.add(fmt.Sprintf("]%d", n)) }
func (r *recorder) Number(n Number) error { return r.add("num:" + string(n)) }
func (r *recorder) String(s string) error { return r.add("str:" + s) }
func (r *recorder) Bool(b bool) error     { return r.add(fmt.Sprintf("bool:%v", b)) }
func (r *recorder) Null() error           { return r.add("null") }

func TestParseEvents(t *testing.T) {
	rec := &recorder{}
	input := `{"w": [[2, 2], [[1, 2.5], [-3, 4e1]]], "name": "x", "ok": true, "none": null}`

	require.NoError(t, Parse(strings.NewReader(input), rec))

	assert.Equal(t, []string{
		"{",
		"key:w",
		"[",
		"[", "num:2", "num:2", "]2",
		"[", "[", "num:1", "num:2.5", "]2", "[", "num:-3", "num:4e1", "]2", "]2",
		"]2",
		"key:name", "str:x",
		"key:ok", "bool:true",
		"key:none", "null",
		"}4",
	}, rec.events)
}

func TestParseStringValueIsNotKey(t *testing.T) {
	rec := &recorder{}
	require.NoError(t, Parse(strings.NewReader(`{"a": "b", "c": ["d"]}`), rec))

	assert.Equal(t, []string{"{", "key:a", "str:b", "key:c", "[", "str:d", "]1", "}2"}, rec.events)
}

func TestParseTopLevelScalar(t *testing.T) {
	rec := &recorder{}
	require.NoError(t, Parse(strings.NewReader(" 3.14 \n"), rec))
	assert.Equal(t, []string{"num:3.14"}, rec.events)
}

func TestParseSyntaxErrorPosition(t *testing.T) {
	input := "{\n  \"a\": [1,\n  2,,3]}"
	err := Parse(strings.NewReader(input), &recorder{})

	var serr *SyntaxError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, 3, serr.Line)
	assert.Contains(t, serr.Error(), "line 3")
}

func TestParseEmptyInput(t *testing.T) {
	err := Parse(strings.NewReader("   "), &recorder{})

	var serr *SyntaxError
	require.ErrorAs(t, err, &serr)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestParseTruncatedInput(t *testing.T) {
	err := Parse(strings.NewReader(`{"a": [1, 2`), &recorder{})

	var serr *SyntaxError
	require.ErrorAs(t, err, &serr)
}

func TestParseTrailingData(t *testing.T) {
	err := Parse(strings.NewReader(`{} {}`), &recorder{})

	var serr *SyntaxError
	require.ErrorAs(t, err, &serr)
	assert.Contains(t, serr.Msg, "after top-level value")
}

func TestParseDuplicateNames(t *testing.T) {
	err := Parse(strings.NewReader(`{"a": 1, "a": 2}`), &recorder{})

	var serr *SyntaxError
	require.ErrorAs(t, err, &serr)
}

func TestParseHandlerErrorUnchanged(t *testing.T) {
	sentinel := errors.New("stop here")
	rec := &recorder{failOn: "[", err: sentinel}

	err := Parse(strings.NewReader(`{"a": [1]}`), rec)

	assert.Same(t, sentinel, err)
	assert.Equal(t, []string{"{", "key:a", "["}, rec.events)
}

func TestParseReadError(t *testing.T) {
	boom := errors.New("disk on fire")
	r := io.MultiReader(strings.NewReader(`{"a": [1, `), iotest.ErrReader(boom))

	err := Parse(r, &recorder{})

	require.ErrorIs(t, err, boom)
	var serr *SyntaxError
	assert.False(t, errors.As(err, &serr))
}

func TestPositionReaderLines(t *testing.T) {
	p := &positionReader{r: strings.NewReader("ab\ncd\n\nef")}
	_, err := io.ReadAll(p)
	require.NoError(t, err)

	assert.Equal(t, Position{Offset: 0, Line: 1, Column: 1}, p.position(0))
	assert.Equal(t, Position{Offset: 4, Line: 2, Column: 2}, p.position(4))
	assert.Equal(t, Position{Offset: 7, Line: 4, Column: 1}, p.position(7))
}

func TestEventString(t *testing.T) {
	assert.Equal(t, "StartArray", EventStartArray.String())
	assert.Equal(t, "Key", EventKey.String())
	assert.Equal(t, "Event(42)", Event(42).String())
}

func TestNumberConversions(t *testing.T) {
	f, err := Number("3.14").Float32()
	require.NoError(t, err)
	assert.InDelta(t, 3.14, f, 1e-6)

	_, err = Number("2.0").Int64()
	assert.Error(t, err)

	i, err := Number("64").Int64()
	require.NoError(t, err)
	assert.Equal(t, int64(64), i)
}
