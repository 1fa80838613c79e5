package statedict

import (
	"iter"

	"github.com/born-ml/statedict/internal/tensor"
)

// Dict is an ordered mapping from parameter name to tensor.
// Iteration follows insertion order. A Dict owns its tensors.
type Dict struct {
	names   []string
	tensors []*tensor.RawTensor
	index   map[string]int
}

// NewDict creates an empty Dict.
func NewDict() *Dict {
	return &Dict{index: make(map[string]int)}
}

// Len returns the number of entries.
func (d *Dict) Len() int {
	return len(d.names)
}

// Set stores t under name. A new name is appended at the end; an existing
// name keeps its position and has its tensor replaced.
func (d *Dict) Set(name string, t *tensor.RawTensor) {
	if i, ok := d.index[name]; ok {
		d.tensors[i] = t
		return
	}
	d.index[name] = len(d.names)
	d.names = append(d.names, name)
	d.tensors = append(d.tensors, t)
}

// Get returns the tensor stored under name.
func (d *Dict) Get(name string) (*tensor.RawTensor, bool) {
	i, ok := d.index[name]
	if !ok {
		return nil, false
	}
	return d.tensors[i], true
}

// Has reports whether name is present.
func (d *Dict) Has(name string) bool {
	_, ok := d.index[name]
	return ok
}

// Keys returns the names in order. The slice is a copy.
func (d *Dict) Keys() []string {
	return append([]string(nil), d.names...)
}

// All iterates over entries in order.
func (d *Dict) All() iter.Seq2[string, *tensor.RawTensor] {
	return func(yield func(string, *tensor.RawTensor) bool) {
		for i, name := range d.names {
			if !yield(name, d.tensors[i]) {
				return
			}
		}
	}
}

// Delete removes name and reports whether it was present.
func (d *Dict) Delete(name string) bool {
	i, ok := d.index[name]
	if !ok {
		return false
	}
	d.names = append(d.names[:i], d.names[i+1:]...)
	d.tensors = append(d.tensors[:i], d.tensors[i+1:]...)
	delete(d.index, name)
	for j := i; j < len(d.names); j++ {
		d.index[d.names[j]] = j
	}
	return true
}

// NumElements returns the total element count across all tensors.
func (d *Dict) NumElements() int {
	n := 0
	for _, t := range d.tensors {
		n += t.NumElements()
	}
	return n
}

// Equal reports whether both dicts hold the same names in the same order
// with identical tensors.
func (d *Dict) Equal(other *Dict) bool {
	if d.Len() != other.Len() {
		return false
	}
	for i, name := range d.names {
		if other.names[i] != name || !d.tensors[i].Equal(other.tensors[i]) {
			return false
		}
	}
	return true
}
