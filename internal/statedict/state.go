package statedict

import "strconv"

// ParseState is one level of the loader's parse stack.
type ParseState int

// Parse states, outermost first.
const (
	// StateRoot is the sentinel at the bottom of the stack.
	StateRoot ParseState = iota
	// StateTopObject is inside the top-level object, between entries.
	StateTopObject
	// StateKeyPending has read an entry name and waits for its value.
	StateKeyPending
	// StateShapeValuePair is inside the [shape, payload] wrapper.
	StateShapeValuePair
	// StateShapeArray is reading shape dimensions.
	StateShapeArray
	// StateShapeValueDelimiter has read the shape and waits for the payload array.
	StateShapeValueDelimiter
	// StateTensorPayload is reading values into the pre-sized tensor.
	StateTensorPayload
	// StateNestedList is inside a nested list of the payload.
	StateNestedList
)

// String returns the state name, e.g. "ShapeArray".
func (s ParseState) String() string {
	switch s {
	case StateRoot:
		return "Root"
	case StateTopObject:
		return "TopObject"
	case StateKeyPending:
		return "KeyPending"
	case StateShapeValuePair:
		return "ShapeValuePair"
	case StateShapeArray:
		return "ShapeArray"
	case StateShapeValueDelimiter:
		return "ShapeValueDelimiter"
	case StateTensorPayload:
		return "TensorPayload"
	case StateNestedList:
		return "NestedList"
	default:
		return "ParseState(" + strconv.Itoa(int(s)) + ")"
	}
}

// stateStack is never empty: StateRoot stays at the bottom.
type stateStack []ParseState

func newStateStack() stateStack {
	return stateStack{StateRoot}
}

func (s stateStack) top() ParseState {
	return s[len(s)-1]
}

func (s *stateStack) push(state ParseState) {
	*s = append(*s, state)
}

// pop removes the top state. The root sentinel is never removed.
func (s *stateStack) pop() ParseState {
	st := *s
	top := st[len(st)-1]
	if len(st) > 1 {
		*s = st[:len(st)-1]
	}
	return top
}

// replace swaps the top state for another at the same depth.
func (s stateStack) replace(state ParseState) {
	s[len(s)-1] = state
}
