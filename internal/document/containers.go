// Package document models the replicated board document the bridge reads
// from and populates into. The real conflict-free engine lives outside
// this repository; the Doc interface is the contract it must satisfy, and
// the in-memory implementation here backs the host process and the tests.
//
// Nested values are held as Map/Array containers rather than raw Go maps
// so that later client-side mutations can edit structure in place.
package document

import "sort"

// Map is an ordered key/value container. Values are scalars, *Map, or
// *Array.
type Map struct {
	keys   []string
	values map[string]any
}

// NewMap creates an empty map container.
func NewMap() *Map {
	return &Map{values: make(map[string]any)}
}

// Set stores a value under key, preserving first-set ordering.
func (m *Map) Set(key string, value any) {
	if _, exists := m.values[key]; !exists {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// Get returns the value for key.
func (m *Map) Get(key string) (any, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Delete removes key from the container.
func (m *Map) Delete(key string) {
	if _, exists := m.values[key]; !exists {
		return
	}
	delete(m.values, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the keys in insertion order.
func (m *Map) Keys() []string {
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Len returns the number of entries.
func (m *Map) Len() int {
	return len(m.keys)
}

// ToValue materializes the container into plain Go values, recursively.
func (m *Map) ToValue() map[string]any {
	out := make(map[string]any, len(m.keys))
	for _, k := range m.keys {
		out[k] = materialize(m.values[k])
	}
	return out
}

// Array is an ordered sequence container. Elements are scalars, *Map, or
// *Array.
type Array struct {
	elems []any
}

// NewArray creates an empty array container.
func NewArray() *Array {
	return &Array{}
}

// Append adds an element at the end.
func (a *Array) Append(value any) {
	a.elems = append(a.elems, value)
}

// At returns the element at index i.
func (a *Array) At(i int) any {
	return a.elems[i]
}

// Len returns the number of elements.
func (a *Array) Len() int {
	return len(a.elems)
}

// ToValue materializes the container into plain Go values, recursively.
func (a *Array) ToValue() []any {
	out := make([]any, len(a.elems))
	for i, e := range a.elems {
		out[i] = materialize(e)
	}
	return out
}

// FromValue builds a container tree from a plain Go value: maps become
// *Map (keys sorted for determinism), slices become *Array, scalars pass
// through untouched.
func FromValue(value any) any {
	switch v := value.(type) {
	case map[string]any:
		m := NewMap()
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			m.Set(k, FromValue(v[k]))
		}
		return m
	case []any:
		a := NewArray()
		for _, e := range v {
			a.Append(FromValue(e))
		}
		return a
	default:
		return value
	}
}

// FromRecord builds a *Map from a flat record, recursing into nested
// values.
func FromRecord(record map[string]any) *Map {
	m, _ := FromValue(record).(*Map)
	return m
}

func materialize(value any) any {
	switch v := value.(type) {
	case *Map:
		return v.ToValue()
	case *Array:
		return v.ToValue()
	default:
		return value
	}
}
