package statedict

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/born-ml/statedict/internal/ctxlog"
	"github.com/born-ml/statedict/internal/jsonsax"
)

// Load reads the state dict stored at path.
//
// The file is opened for the duration of the call and closed on every exit
// path. It returns a *ParseError for malformed or schema-violating input and
// a wrapped *fs.PathError if the file cannot be opened. No partial result
// is returned on failure.
func Load(ctx context.Context, path string, opts ...Option) (*Dict, error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for model loading
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open state dict: %w", err)
	}
	defer func() { _ = file.Close() }()

	dict, err := Decode(ctx, file, opts...)
	if err != nil {
		var perr *ParseError
		if errors.As(err, &perr) {
			perr.Path = path
		}
		return nil, err
	}
	return dict, nil
}

// Decode reads one state dict from r. Compressed input is detected and
// decompressed transparently. The caller keeps ownership of r.
func Decode(ctx context.Context, r io.Reader, opts ...Option) (*Dict, error) {
	o := &options{maxElements: DefaultMaxElements}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = ctxlog.FromContext(ctx)
	}

	body, compression, closeBody, err := newDecompressor(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s stream: %w", compression, err)
	}
	defer func() { _ = closeBody() }()

	src := jsonsax.NewReader(body)
	h := newDictHandler(ctx, src, o)
	if err := src.Parse(h); err != nil {
		var serr *jsonsax.SyntaxError
		if errors.As(err, &serr) {
			return nil, &ParseError{
				Kind: KindSyntax,
				Pos:  serr.Position,
				Msg:  serr.Msg,
				Err:  serr,
			}
		}
		var perr *ParseError
		if errors.As(err, &perr) {
			return nil, perr
		}
		return nil, fmt.Errorf("failed to read state dict: %w", err)
	}

	if !h.done {
		return nil, &ParseError{Kind: KindSchema, State: h.stack.top(), Pos: src.Position(), Msg: "missing top-level object", Err: ErrSchema}
	}

	o.logger.DebugContext(ctx, "Decoded state dict.",
		"entries", h.dict.Len(),
		"skipped", h.skipped,
		"compression", compression.String())
	return h.dict, nil
}
