// Package object implements the heap object graph: String, Function,
// Native, Closure, Upvalue, Class, Instance, BoundMethod and List
// (spec.md §3 "Heap objects"), plus the open-addressed Table used for
// globals, class method tables and instance field tables (spec.md §3
// "Tables").
//
// It is grounded on original_source/clox/include/object.h for the kind set
// and on the teacher's lang/machine package (one file per kind, a String()
// and a capability-marker-interface per kind) for the Go idiom, adapted to
// a closed Kind tag (value.Kind) instead of open-ended marker interfaces,
// since the GC needs to switch on kind to trace an object (spec.md §4.6).
package object

import (
	"github.com/dolthub/swiss"

	"github.com/mna/loxvm/lang/value"
)

// Table is an open-addressed hash map keyed by interned-string identity.
// It backs globals, class method tables and instance field tables
// (spec.md §3). Every key is required by spec.md's invariants to be an
// interned *String, so two equal-content keys are always the same pointer
// and the map's key comparison (pointer equality) is exactly the identity
// comparison spec.md calls for.
//
// It is backed by github.com/dolthub/swiss, the same open-addressed
// swiss-table implementation the teacher uses for its own machine.Map
// (lang/machine/map.go); that package already gives the power-of-two
// capacity and load-factor growth spec.md §3 describes, so there is no
// reason to hand-roll linear/quadratic probing separately.
type Table struct {
	m *swiss.Map[*String, value.Value]
}

// NewTable returns an empty Table with initial capacity for at least size
// entries.
func NewTable(size int) *Table {
	if size < 1 {
		size = 1
	}
	return &Table{m: swiss.NewMap[*String, value.Value](uint32(size))}
}

// Get returns the value stored for key, and whether it was present.
func (t *Table) Get(key *String) (value.Value, bool) {
	return t.m.Get(key)
}

// Set stores value for key, overwriting any previous entry. It returns true
// if this inserted a brand new key (used by SET_GLOBAL to detect "new
// key" and undo the insertion per spec.md §4.5).
func (t *Table) Set(key *String, v value.Value) bool {
	_, existed := t.m.Get(key)
	t.m.Put(key, v)
	return !existed
}

// Delete removes key from the table, if present.
func (t *Table) Delete(key *String) {
	t.m.Delete(key)
}

// Len returns the number of entries in the table.
func (t *Table) Len() int { return int(t.m.Count()) }

// Each calls fn for every entry in the table. fn must not mutate the table.
func (t *Table) Each(fn func(key *String, v value.Value)) {
	t.m.Iter(func(k *String, v value.Value) bool {
		fn(k, v)
		return false
	})
}

// AddAllFrom copies every entry of src into t, overwriting existing keys.
// Used by the INHERIT opcode to copy a superclass's methods into a
// subclass's method table (spec.md §4.5 "INHERIT").
func (t *Table) AddAllFrom(src *Table) {
	if src == nil {
		return
	}
	src.Each(func(k *String, v value.Value) {
		t.m.Put(k, v)
	})
}
