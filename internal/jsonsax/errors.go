package jsonsax

import (
	"fmt"
)

// Position locates a byte in the input. Line and Column are 1-based.
type Position struct {
	Offset int64
	Line   int
	Column int
}

// String formats the position as "line L, column C".
func (p Position) String() string {
	return fmt.Sprintf("line %d, column %d", p.Line, p.Column)
}

// SyntaxError reports malformed JSON text.
type SyntaxError struct {
	Position
	Msg string
	Err error // Underlying tokenizer error
}

// Error implements the error interface.
func (e *SyntaxError) Error() string {
	return fmt.Sprintf("json syntax error at %s (offset %d): %s", e.Position, e.Offset, e.Msg)
}

// Unwrap returns the tokenizer error.
func (e *SyntaxError) Unwrap() error {
	return e.Err
}
