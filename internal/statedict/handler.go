package statedict

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/born-ml/statedict/internal/jsonsax"
	"github.com/born-ml/statedict/internal/tensor"
)

// dictHandler interprets jsonsax events with an explicit stack of parse
// states. One handler serves exactly one Decode call.
type dictHandler struct {
	ctx    context.Context
	logger *slog.Logger
	trace  bool
	filter *Filter
	limit  int
	src    *jsonsax.Reader

	stack stateStack
	done  bool

	// Pending entry.
	key         string
	shape       tensor.Shape
	numel       int
	payload     *tensor.RawTensor
	values      []float32
	written     int
	scalar      bool // payload is a bare number (rank-0 entry)
	shapeRead   bool
	payloadRead bool

	dict    *Dict
	skipped int
}

func newDictHandler(ctx context.Context, src *jsonsax.Reader, o *options) *dictHandler {
	return &dictHandler{
		ctx:    ctx,
		logger: o.logger,
		trace:  o.trace && o.logger.Enabled(ctx, slog.LevelDebug),
		filter: o.filter,
		limit:  o.maxElements,
		src:    src,
		stack:  newStateStack(),
		dict:   NewDict(),
	}
}

func (h *dictHandler) event(ev jsonsax.Event) {
	if h.trace {
		h.logger.DebugContext(h.ctx, "Parse event.", "event", ev.String(), "state", h.stack.top().String(), "depth", len(h.stack))
	}
}

// unexpected reports an event that has no transition from the current state.
func (h *dictHandler) unexpected(ev jsonsax.Event) error {
	return h.schemaError(ev, ErrSchema, fmt.Sprintf("unexpected %s in state %s", ev, h.stack.top()))
}

func (h *dictHandler) schemaError(ev jsonsax.Event, cause error, msg string) error {
	perr := &ParseError{
		Kind:  KindSchema,
		Event: ev,
		State: h.stack.top(),
		Pos:   h.src.Position(),
		Msg:   msg,
		Err:   cause,
	}
	if h.stack.top() != StateRoot && h.stack.top() != StateTopObject {
		perr.Key = h.key
	}
	return perr
}

func (h *dictHandler) StartObject() error {
	h.event(jsonsax.EventStartObject)
	if h.stack.top() != StateRoot || h.done {
		return h.unexpected(jsonsax.EventStartObject)
	}
	h.stack.push(StateTopObject)
	return nil
}

func (h *dictHandler) EndObject(int) error {
	h.event(jsonsax.EventEndObject)
	if h.stack.top() != StateTopObject {
		return h.unexpected(jsonsax.EventEndObject)
	}
	h.stack.pop()
	h.done = true
	return nil
}

func (h *dictHandler) Key(name string) error {
	h.event(jsonsax.EventKey)
	if h.stack.top() != StateTopObject {
		return h.unexpected(jsonsax.EventKey)
	}
	h.key = name
	h.shape = h.shape[:0]
	h.numel = 1
	h.payload = nil
	h.values = nil
	h.written = 0
	h.scalar = false
	h.shapeRead = false
	h.payloadRead = false
	h.stack.push(StateKeyPending)
	return nil
}

func (h *dictHandler) StartArray() error {
	h.event(jsonsax.EventStartArray)
	switch h.stack.top() {
	case StateKeyPending:
		h.stack.push(StateShapeValuePair)
	case StateShapeValuePair:
		if h.shapeRead {
			return h.schemaError(jsonsax.EventStartArray, ErrSchema, "entry has more than two elements")
		}
		h.shape = h.shape[:0]
		h.numel = 1
		h.stack.push(StateShapeArray)
	case StateShapeValueDelimiter:
		h.stack.replace(StateTensorPayload)
		return h.startPayload(jsonsax.EventStartArray, false)
	case StateTensorPayload:
		if h.scalar {
			return h.schemaError(jsonsax.EventStartArray, ErrSchema, "rank-0 entry needs a bare number payload")
		}
		h.stack.push(StateNestedList)
	case StateNestedList:
		h.stack.push(StateNestedList)
	default:
		return h.unexpected(jsonsax.EventStartArray)
	}
	return nil
}

func (h *dictHandler) EndArray(int) error {
	h.event(jsonsax.EventEndArray)
	switch h.stack.top() {
	case StateNestedList:
		h.stack.pop()
	case StateShapeArray:
		h.stack.pop()
		h.shapeRead = true
		if len(h.shape) == 0 {
			// Rank 0: the payload is a bare number, not an array.
			h.shape = append(h.shape, 1)
			h.stack.push(StateTensorPayload)
			return h.startPayload(jsonsax.EventEndArray, true)
		}
		h.stack.push(StateShapeValueDelimiter)
	case StateTensorPayload:
		if h.scalar {
			return h.schemaError(jsonsax.EventEndArray, ErrSchema, "rank-0 entry is missing its value")
		}
		if err := h.finishPayload(jsonsax.EventEndArray); err != nil {
			return err
		}
	case StateShapeValuePair:
		if !h.payloadRead {
			return h.schemaError(jsonsax.EventEndArray, ErrSchema, "entry needs both a shape and a payload")
		}
		h.stack.pop()
		h.stack.pop() // StateKeyPending
		return h.commit()
	default:
		return h.unexpected(jsonsax.EventEndArray)
	}
	return nil
}

func (h *dictHandler) Number(n jsonsax.Number) error {
	h.event(jsonsax.EventNumber)
	switch h.stack.top() {
	case StateShapeArray:
		return h.appendDim(n)
	case StateTensorPayload, StateNestedList:
		if err := h.appendValue(n); err != nil {
			return err
		}
		if h.scalar {
			return h.finishPayload(jsonsax.EventNumber)
		}
		return nil
	default:
		return h.unexpected(jsonsax.EventNumber)
	}
}

func (h *dictHandler) String(string) error {
	h.event(jsonsax.EventString)
	return h.unexpected(jsonsax.EventString)
}

func (h *dictHandler) Bool(bool) error {
	h.event(jsonsax.EventBool)
	return h.unexpected(jsonsax.EventBool)
}

func (h *dictHandler) Null() error {
	h.event(jsonsax.EventNull)
	return h.unexpected(jsonsax.EventNull)
}

func (h *dictHandler) appendDim(n jsonsax.Number) error {
	dim, err := n.Int64()
	if err != nil || dim < 0 || dim > math.MaxInt32 {
		return h.schemaError(jsonsax.EventNumber, ErrInvalidDimension,
			fmt.Sprintf("dimension %s is not a non-negative integer", n))
	}
	d := int(dim)
	if d != 0 && h.numel > h.limit/d {
		return h.schemaError(jsonsax.EventNumber, ErrTooLarge,
			fmt.Sprintf("shape %s x %d exceeds %d elements", h.shape, d, h.limit))
	}
	h.numel *= d
	h.shape = append(h.shape, d)
	return nil
}

// startPayload pre-sizes storage to product(shape) and resets the write index.
func (h *dictHandler) startPayload(ev jsonsax.Event, scalar bool) error {
	payload, err := tensor.NewRaw(h.shape, tensor.Float32)
	if err != nil {
		return h.schemaError(ev, ErrInvalidDimension, err.Error())
	}
	h.payload = payload
	h.values = payload.AsFloat32()
	h.written = 0
	h.scalar = scalar
	return nil
}

func (h *dictHandler) appendValue(n jsonsax.Number) error {
	if h.written >= len(h.values) {
		return h.schemaError(jsonsax.EventNumber, ErrSizeMismatch,
			fmt.Sprintf("shape %s holds %d values, payload has more", h.shape, len(h.values)))
	}
	v, err := n.Float32()
	if err != nil {
		return h.schemaError(jsonsax.EventNumber, ErrSchema,
			fmt.Sprintf("value %s does not fit in float32", n))
	}
	h.values[h.written] = v
	h.written++
	return nil
}

// finishPayload pops StateTensorPayload once the write index matches the
// pre-sized element count.
func (h *dictHandler) finishPayload(ev jsonsax.Event) error {
	if h.written != len(h.values) {
		return h.schemaError(ev, ErrSizeMismatch,
			fmt.Sprintf("shape %s holds %d values, payload has %d", h.shape, len(h.values), h.written))
	}
	h.stack.pop()
	h.payloadRead = true
	return nil
}

// commit moves the pending entry into the result dict. It is the only place
// entries are added.
func (h *dictHandler) commit() error {
	if h.filter != nil {
		keep, err := h.filter.Match(h.key, h.shape)
		if err != nil {
			return fmt.Errorf("entry %q: %w", h.key, err)
		}
		if !keep {
			h.skipped++
			h.logger.DebugContext(h.ctx, "Skipped tensor.", "name", h.key, "shape", h.shape.String())
			return nil
		}
	}
	h.dict.Set(h.key, h.payload)
	h.logger.DebugContext(h.ctx, "Loaded tensor.", "name", h.key, "shape", h.shape.String())
	h.payload = nil
	h.values = nil
	return nil
}
