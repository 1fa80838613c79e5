package statedict

import (
	"log/slog"
)

// DefaultMaxElements caps a single tensor at 1 GiB of float32 storage.
const DefaultMaxElements = 1 << 28

type options struct {
	logger      *slog.Logger
	trace       bool
	filter      *Filter
	maxElements int
}

// Option configures Load and Decode.
type Option func(*options)

// WithLogger overrides the logger taken from the context.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithTrace logs every parse event at debug level.
func WithTrace(trace bool) Option {
	return func(o *options) {
		o.trace = trace
	}
}

// WithFilter keeps only entries matching f. Other entries are still parsed
// and validated but not stored.
func WithFilter(f *Filter) Option {
	return func(o *options) {
		o.filter = f
	}
}

// WithMaxElements limits the element count of any single tensor.
func WithMaxElements(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxElements = n
		}
	}
}
