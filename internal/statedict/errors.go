package statedict

import (
	"errors"
	"fmt"
	"strings"

	"github.com/born-ml/statedict/internal/jsonsax"
)

// Common errors. Every schema failure satisfies errors.Is(err, ErrSchema).
var (
	ErrSchema           = errors.New("state dict schema violation")
	ErrSizeMismatch     = errors.New("payload size does not match shape")
	ErrInvalidDimension = errors.New("invalid shape dimension")
	ErrTooLarge         = errors.New("tensor exceeds element limit")
)

// ErrorKind classifies a ParseError.
type ErrorKind int

// Parse error kinds.
const (
	// KindSyntax is malformed JSON text.
	KindSyntax ErrorKind = iota + 1
	// KindSchema is well-formed JSON that does not follow the state dict layout.
	KindSchema
)

// String returns "syntax" or "schema".
func (k ErrorKind) String() string {
	switch k {
	case KindSyntax:
		return "syntax"
	case KindSchema:
		return "schema"
	default:
		return "unknown"
	}
}

// ParseError reports why a state dict could not be loaded.
//
// Syntax errors carry the tokenizer's position. Schema errors additionally
// name the event that arrived and the parse state it arrived in.
type ParseError struct {
	Kind  ErrorKind
	Path  string        // File path, set by Load
	Event jsonsax.Event // Offending event (schema errors)
	State ParseState    // Parse state when the event arrived (schema errors)
	Key   string        // Entry being parsed, if any
	Pos   jsonsax.Position
	Msg   string
	Err   error // ErrSizeMismatch, ErrInvalidDimension, ... or *jsonsax.SyntaxError
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	var b strings.Builder
	b.WriteString("statedict: ")
	if e.Path != "" {
		b.WriteString(e.Path)
		b.WriteString(": ")
	}
	fmt.Fprintf(&b, "%s error at %s", e.Kind, e.Pos)
	if e.Key != "" {
		fmt.Fprintf(&b, " in entry %q", e.Key)
	}
	b.WriteString(": ")
	b.WriteString(e.Msg)
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// Is makes every schema error match ErrSchema.
func (e *ParseError) Is(target error) bool {
	return target == ErrSchema && e.Kind == KindSchema
}
