package object

import (
	"fmt"

	"github.com/mna/loxvm/lang/value"
)

// Class is a named bag of methods, with single inheritance realized by
// INHERIT copying the superclass's method table into the subclass's at
// class-declaration time (spec.md §3, §4.5 "INHERIT").
type Class struct {
	value.Header
	Name    *String
	Methods *Table
}

var _ value.Obj = (*Class)(nil)

func (c *Class) Kind() value.Kind { return value.KindClass }
func (c *Class) String() string   { return c.Name.Chars }

// FindMethod looks up name in c's own method table. It does not walk a
// superclass chain because INHERIT already flattened inherited methods
// into this table when the class was declared.
func (c *Class) FindMethod(name *String) (value.Value, bool) {
	return c.Methods.Get(name)
}

// Instance is an object created by calling a Class: a back-reference to
// its class plus a table of fields (spec.md §3).
type Instance struct {
	value.Header
	Class  *Class
	Fields *Table
}

var _ value.Obj = (*Instance)(nil)

func (i *Instance) Kind() value.Kind { return value.KindInstance }
func (i *Instance) String() string   { return fmt.Sprintf("<%s instance>", i.Class.Name.Chars) }

// BoundMethod pairs a receiver with the Closure it was bound from, produced
// when GET_PROPERTY resolves a non-getter method (a getter is called
// directly instead) and whenever GET_SUPER resolves a method (spec.md §3,
// glossary "Bound method").
type BoundMethod struct {
	value.Header
	Receiver value.Value
	Method   *Closure
}

var _ value.Obj = (*BoundMethod)(nil)

func (b *BoundMethod) Kind() value.Kind { return value.KindBoundMethod }
func (b *BoundMethod) String() string   { return b.Method.String() }

// List is an ordered, heterogeneous, mutable sequence of Values (spec.md
// §3, §4.3 "Lists/subscripts").
type List struct {
	value.Header
	Elems []value.Value
}

var _ value.Obj = (*List)(nil)

func (l *List) Kind() value.Kind { return value.KindList }
func (l *List) String() string   { return fmt.Sprintf("<list : %d>", len(l.Elems)) }

// Len returns the number of elements in the list.
func (l *List) Len() int { return len(l.Elems) }
