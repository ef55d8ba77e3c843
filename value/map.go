package value

import (
	"fmt"

	"github.com/dolthub/swiss"
)

// Map is Rhythm's shared, mutable Value→Value association (spec.md
// section 3). Storage is backed by a Swiss-table hash map rather than
// a built-in Go map — grounded on mna-nenuphar's lang/machine/map.go,
// which stores its own language's map value the same way. Value is
// comparable (see value.go) so it can serve directly as the table's
// key type, matching nenuphar's Map[Value, Value] instantiation.
//
// Key equality therefore follows Value.Equal's rule exactly: numbers,
// strings, booleans, and nil compare structurally; arrays, maps, and
// callables compare by identity — consistent with spec.md's "key
// equality follows Value equality".
type Map struct {
	table *swiss.Map[Value, Value]
	order []Value // insertion order, for deterministic keys()/for_each
}

// NewMap returns an empty map with initial capacity for size entries.
func NewMap(size int) *Map {
	if size < 0 {
		size = 0
	}
	return &Map{table: swiss.NewMap[Value, Value](uint32(size))}
}

// Get looks up a key. A missing key returns (Nil, false); callers that
// want spec.md's "missing key yields Nil" subscript semantics just
// discard the bool.
func (m *Map) Get(k Value) (Value, bool) {
	return m.table.Get(k)
}

// Set stores v under k. Storing Nil deletes the key instead of
// inserting it (spec.md section 3: "Nil may not appear as a value —
// assigning Nil deletes the key").
func (m *Map) Set(k, v Value) {
	if v.IsNil() {
		m.Delete(k)
		return
	}
	if !m.table.Has(k) {
		m.order = append(m.order, k)
	}
	m.table.Put(k, v)
}

// Delete removes k if present.
func (m *Map) Delete(k Value) {
	if !m.table.Has(k) {
		return
	}
	m.table.Delete(k)
	for i, existing := range m.order {
		if existing.Equal(k) {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
}

func (m *Map) Len() int { return int(m.table.Count()) }

// Keys returns the map's keys in insertion order.
func (m *Map) Keys() []Value {
	out := make([]Value, len(m.order))
	copy(out, m.order)
	return out
}

// ForEach visits entries in insertion order, stopping early if fn
// returns false. Used by the for_each native.
func (m *Map) ForEach(fn func(k, v Value) bool) {
	for _, k := range m.order {
		v, ok := m.table.Get(k)
		if !ok {
			continue
		}
		if !fn(k, v) {
			return
		}
	}
}

func (m *Map) renderString() string {
	parts := make([]string, 0, len(m.order))
	for _, k := range m.order {
		v, ok := m.table.Get(k)
		if !ok {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s", quoteForContainer(k), quoteForContainer(v)))
	}
	out := "{"
	for i, p := range parts {
		if i > 0 {
			out += ", "
		}
		out += p
	}
	return out + "}"
}
