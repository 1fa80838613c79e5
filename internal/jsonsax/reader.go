package jsonsax

import (
	"errors"
	"fmt"
	"io"

	"github.com/go-json-experiment/json/jsontext"
)

// frame tracks one open container so End events can report element counts.
type frame struct {
	kind  jsontext.Kind
	count int
}

// Reader feeds a single JSON document to a Handler, one token at a time.
// A Reader is not safe for concurrent use and parses at most one document.
type Reader struct {
	src    *positionReader
	dec    *jsontext.Decoder
	frames []frame
}

// NewReader creates a Reader over r. The caller keeps ownership of r.
func NewReader(r io.Reader) *Reader {
	src := &positionReader{r: r}
	return &Reader{
		src: src,
		dec: jsontext.NewDecoder(src),
	}
}

// Parse reads exactly one JSON value from the input and reports it to h.
//
// It returns a *SyntaxError for malformed JSON (including trailing data
// after the value and empty input), the handler's error unchanged if a
// callback fails, or a wrapped read error if the underlying reader fails.
func Parse(r io.Reader, h Handler) error {
	return NewReader(r).Parse(h)
}

// Parse drives h with the events of one JSON value.
func (r *Reader) Parse(h Handler) error {
	started := false
	for {
		tok, err := r.dec.ReadToken()
		if err != nil {
			if err == io.EOF && !started {
				return r.syntaxError(io.ErrUnexpectedEOF)
			}
			return r.tokenError(err)
		}
		started = true

		if err := r.dispatch(tok, h); err != nil {
			return err
		}

		if r.dec.StackDepth() == 0 {
			break
		}
	}

	// Exactly one top-level value.
	if _, err := r.dec.ReadToken(); err != io.EOF {
		if err != nil {
			return r.tokenError(err)
		}
		return &SyntaxError{
			Position: r.Position(),
			Msg:      "invalid data after top-level value",
		}
	}
	return nil
}

// Position returns the location just past the most recently read token.
func (r *Reader) Position() Position {
	return r.src.position(r.dec.InputOffset())
}

//nolint:gocyclo // One case per token kind.
func (r *Reader) dispatch(tok jsontext.Token, h Handler) error {
	switch kind := tok.Kind(); kind {
	case jsontext.KindBeginObject:
		r.countValue()
		r.frames = append(r.frames, frame{kind: kind})
		return h.StartObject()
	case jsontext.KindEndObject:
		return h.EndObject(r.pop())
	case jsontext.KindBeginArray:
		r.countValue()
		r.frames = append(r.frames, frame{kind: kind})
		return h.StartArray()
	case jsontext.KindEndArray:
		return h.EndArray(r.pop())
	case jsontext.KindString:
		s := tok.String()
		if r.isName() {
			r.frames[len(r.frames)-1].count++
			return h.Key(s)
		}
		r.countValue()
		return h.String(s)
	case jsontext.KindNumber:
		r.countValue()
		return h.Number(Number(tok.String()))
	case jsontext.KindTrue, jsontext.KindFalse:
		r.countValue()
		return h.Bool(tok.Bool())
	case jsontext.KindNull:
		r.countValue()
		return h.Null()
	default:
		return &SyntaxError{
			Position: r.Position(),
			Msg:      fmt.Sprintf("unexpected token kind %v", kind),
		}
	}
}

// isName reports whether the string just read is an object member name.
// The decoder counts names and values separately, so after reading a name
// the enclosing object has an odd length.
func (r *Reader) isName() bool {
	kind, length := r.dec.StackIndex(r.dec.StackDepth())
	return kind == jsontext.KindBeginObject && length%2 == 1
}

// countValue bumps the element count of the enclosing array. Object members
// are counted on their names.
func (r *Reader) countValue() {
	if n := len(r.frames); n > 0 && r.frames[n-1].kind == jsontext.KindBeginArray {
		r.frames[n-1].count++
	}
}

func (r *Reader) pop() int {
	n := len(r.frames)
	if n == 0 {
		return 0
	}
	count := r.frames[n-1].count
	r.frames = r.frames[:n-1]
	return count
}

// tokenError classifies an error returned by the tokenizer.
func (r *Reader) tokenError(err error) error {
	if r.src.err != nil && errors.Is(err, r.src.err) {
		return fmt.Errorf("failed to read json input: %w", r.src.err)
	}
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return r.syntaxError(err)
}

func (r *Reader) syntaxError(err error) *SyntaxError {
	offset := r.dec.InputOffset()
	msg := err.Error()

	var serr *jsontext.SyntacticError
	if errors.As(err, &serr) {
		offset = serr.ByteOffset
		if serr.Err != nil {
			msg = serr.Err.Error()
		}
	}
	return &SyntaxError{
		Position: r.src.position(offset),
		Msg:      msg,
		Err:      err,
	}
}
