// Package sparse provides small byte-keyed maps used as extensible attribute
// storage inside records.
//
// A Map keeps its entries in insertion order in two parallel slices and looks
// keys up by linear scan; the maps hold tens of entries at most. The entry
// count is persisted as a single byte, so a Map never holds more than
// MaxEntries entries.
//
// Maps are not safe for concurrent mutation. A map is owned by the record that
// holds it.
package sparse

import (
	"errors"
	"iter"
)

// MaxEntries is the largest number of entries a map can hold
const MaxEntries = 255

// ErrFull is returned when inserting a new key into a map with MaxEntries entries
var ErrFull = errors.New("sparse map is full")

// Map is an insertion-ordered mapping from a byte key to V
type Map[V any] struct {
	keys   []byte
	values []V
}

// Specializations used by the record encodings
type (
	Bytes   = Map[[]byte]
	Shorts  = Map[int16]
	Ints    = Map[int32]
	Longs   = Map[int64]
	Floats  = Map[float32]
	Doubles = Map[float64]
	Strings = Map[string]
)

// New creates a map with room for capacity entries (at least one)
func New[V any](capacity int) *Map[V] {
	if capacity < 1 {
		capacity = 1
	}
	if capacity > MaxEntries {
		capacity = MaxEntries
	}
	return &Map[V]{
		keys:   make([]byte, 0, capacity),
		values: make([]V, 0, capacity),
	}
}

func (m *Map[V]) indexOf(key byte) int {
	for i, k := range m.keys {
		if k == key {
			return i
		}
	}
	return -1
}

// resize moves the entries into backing arrays of the given capacity
func (m *Map[V]) resize(capacity int) {
	keys := make([]byte, len(m.keys), capacity)
	copy(keys, m.keys)
	values := make([]V, len(m.values), capacity)
	copy(values, m.values)
	m.keys, m.values = keys, values
}

// Len returns the number of entries
func (m *Map[V]) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Cap returns the capacity of the backing arrays
func (m *Map[V]) Cap() int {
	if m == nil {
		return 0
	}
	return cap(m.keys)
}

// Get returns the value stored for key
func (m *Map[V]) Get(key byte) (V, bool) {
	var zero V
	if m == nil {
		return zero, false
	}
	if i := m.indexOf(key); i >= 0 {
		return m.values[i], true
	}
	return zero, false
}

// Has reports whether key is present
func (m *Map[V]) Has(key byte) bool {
	return m != nil && m.indexOf(key) >= 0
}

// Put stores value under key, overwriting in place if the key exists
func (m *Map[V]) Put(key byte, value V) error {
	if i := m.indexOf(key); i >= 0 {
		m.values[i] = value
		return nil
	}
	n := len(m.keys)
	if n >= MaxEntries {
		return ErrFull
	}
	if n == cap(m.keys) {
		c := 2 * n
		if c < 1 {
			c = 1
		}
		if c > MaxEntries {
			c = MaxEntries
		}
		m.resize(c)
	}
	m.keys = append(m.keys, key)
	m.values = append(m.values, value)
	return nil
}

// Remove deletes key, shifting later entries down. Backing arrays are halved
// once fewer than a quarter of their slots are used.
func (m *Map[V]) Remove(key byte) bool {
	if m == nil {
		return false
	}
	i := m.indexOf(key)
	if i < 0 {
		return false
	}

	n := len(m.keys)
	copy(m.keys[i:], m.keys[i+1:])
	copy(m.values[i:], m.values[i+1:])
	var zero V
	m.values[n-1] = zero
	m.keys = m.keys[:n-1]
	m.values = m.values[:n-1]

	if c := cap(m.keys); c > 1 && len(m.keys) < c/4 {
		half := c / 2
		if half < 1 {
			half = 1
		}
		m.resize(half)
	}
	return true
}

// Clear removes every entry and shrinks the map to capacity one
func (m *Map[V]) Clear() {
	if m == nil {
		return
	}
	m.keys = make([]byte, 0, 1)
	m.values = make([]V, 0, 1)
}

// KeyAt returns the key of the i-th entry in insertion order
func (m *Map[V]) KeyAt(i int) byte {
	return m.keys[i]
}

// ValueAt returns the value of the i-th entry in insertion order
func (m *Map[V]) ValueAt(i int) V {
	return m.values[i]
}

// Keys returns a copy of the keys in insertion order
func (m *Map[V]) Keys() []byte {
	if m == nil {
		return nil
	}
	keys := make([]byte, len(m.keys))
	copy(keys, m.keys)
	return keys
}

// ForEach calls fn for every entry in insertion order until fn returns false
func (m *Map[V]) ForEach(fn func(key byte, value V) bool) {
	if m == nil {
		return
	}
	for i, k := range m.keys {
		if !fn(k, m.values[i]) {
			return
		}
	}
}

// All returns an iterator over the entries in insertion order
func (m *Map[V]) All() iter.Seq2[byte, V] {
	return func(yield func(byte, V) bool) {
		m.ForEach(yield)
	}
}

// Clone returns a shallow copy with the same capacity
func (m *Map[V]) Clone() *Map[V] {
	if m == nil {
		return nil
	}
	c := &Map[V]{}
	c.keys = append(make([]byte, 0, cap(m.keys)), m.keys...)
	c.values = append(make([]V, 0, cap(m.values)), m.values...)
	return c
}

// Transform builds a map with the same keys and converted values
func Transform[V, U any](m *Map[V], fn func(V) U) *Map[U] {
	if m == nil {
		return nil
	}
	out := New[U](m.Len())
	for i, k := range m.keys {
		out.keys = append(out.keys, k)
		out.values = append(out.values, fn(m.values[i]))
	}
	return out
}
