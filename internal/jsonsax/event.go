package jsonsax

import (
	"strconv"
)

// Event identifies a handler callback. It is used for diagnostics.
type Event int

// Parse events in the order they are declared on Handler.
const (
	EventStartObject Event = iota
	EventEndObject
	EventKey
	EventStartArray
	EventEndArray
	EventNumber
	EventString
	EventBool
	EventNull
)

// String returns the event name, e.g. "StartArray".
func (e Event) String() string {
	switch e {
	case EventStartObject:
		return "StartObject"
	case EventEndObject:
		return "EndObject"
	case EventKey:
		return "Key"
	case EventStartArray:
		return "StartArray"
	case EventEndArray:
		return "EndArray"
	case EventNumber:
		return "Number"
	case EventString:
		return "String"
	case EventBool:
		return "Bool"
	case EventNull:
		return "Null"
	default:
		return "Event(" + strconv.Itoa(int(e)) + ")"
	}
}

// Number is the literal text of a JSON number, e.g. "-1.5e3".
// The tokenizer has already checked it against the JSON grammar.
type Number string

// Float64 parses the number as a float64.
func (n Number) Float64() (float64, error) {
	return strconv.ParseFloat(string(n), 64)
}

// Float32 parses the number as a float32 with correct rounding.
func (n Number) Float32() (float32, error) {
	f, err := strconv.ParseFloat(string(n), 32)
	return float32(f), err
}

// Int64 parses the number as an integer. Fractions and exponents fail.
func (n Number) Int64() (int64, error) {
	return strconv.ParseInt(string(n), 10, 64)
}

// Handler receives parse events. Returning a non-nil error stops the parse;
// Reader.Parse returns that error unchanged.
type Handler interface {
	StartObject() error
	// EndObject reports the number of members in the closed object.
	EndObject(memberCount int) error
	Key(name string) error
	StartArray() error
	// EndArray reports the number of elements in the closed array.
	EndArray(elementCount int) error
	Number(n Number) error
	String(s string) error
	Bool(b bool) error
	Null() error
}
