// Package value defines the dynamically tagged Value representation shared
// by the chunk, compiler, gc, object and vm packages.
//
// Value is rendered as a small tagged struct rather than as the polymorphic
// interface the teacher repository (github.com/mna/nenuphar) uses for its
// own Value type: that repository's value set is open-ended (any Go type
// implementing a handful of marker interfaces may be a value), whereas this
// dialect's value set is closed and small (nil, bool, number, heap object),
// which a tagged struct expresses more directly and more cheaply.
package value

import (
	"fmt"
	"math"
	"strconv"
)

// Type is the tag discriminating a Value's variant.
type Type uint8

const (
	Nil Type = iota
	Bool
	Number
	Obj
)

// Obj is implemented by every heap-allocated object kind (String, Function,
// Native, Closure, Upvalue, Class, Instance, BoundMethod, List). It is kept
// minimal, in the spirit of the teacher's own two-method Value interface
// (String()/Type()) in lang/machine/value.go, with Kind added so the
// garbage collector and VM can switch on it without a type assertion chain.
type Obj interface {
	fmt.Stringer
	Kind() Kind
	Header() *Header
}

// Kind tags the concrete type of a heap object.
type Kind uint8

const (
	KindString Kind = iota
	KindFunction
	KindNative
	KindClosure
	KindUpvalue
	KindClass
	KindInstance
	KindBoundMethod
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindFunction:
		return "function"
	case KindNative:
		return "native"
	case KindClosure:
		return "closure"
	case KindUpvalue:
		return "upvalue"
	case KindClass:
		return "class"
	case KindInstance:
		return "instance"
	case KindBoundMethod:
		return "bound method"
	case KindList:
		return "list"
	}
	return "unknown"
}

// Header is embedded in every heap object. It carries the GC's mark bit and
// the intrusive link in the heap's all-objects list; sweep walks that list
// to free anything left unmarked.
type Header struct {
	Marked bool
	Next   Obj
}

func (h *Header) Header() *Header { return h }

// NilValue is the singular nil value.
var NilValue = Value{typ: Nil}

// Value is a dynamically tagged value: nil, a bool, an IEEE-754 double, or a
// reference to a heap Obj.
type Value struct {
	typ Type
	b   bool
	n   float64
	o   Obj
}

func BoolVal(b bool) Value     { return Value{typ: Bool, b: b} }
func NumberVal(n float64) Value { return Value{typ: Number, n: n} }
func ObjVal(o Obj) Value        { return Value{typ: Obj, o: o} }

func (v Value) Type() Type   { return v.typ }
func (v Value) IsNil() bool  { return v.typ == Nil }
func (v Value) IsBool() bool { return v.typ == Bool }
func (v Value) IsNumber() bool { return v.typ == Number }
func (v Value) IsObj() bool  { return v.typ == Obj }

func (v Value) AsBool() bool     { return v.b }
func (v Value) AsNumber() float64 { return v.n }
func (v Value) AsObj() Obj       { return v.o }

// ObjKind reports the Kind of the Value's heap object, or a false ok if the
// value is not a heap object.
func (v Value) ObjKind() (Kind, bool) {
	if v.typ != Obj {
		return 0, false
	}
	return v.o.Kind(), true
}

// Truthy implements spec.md's truthiness rule: false and nil are falsey,
// everything else (including 0 and "") is truthy.
func (v Value) Truthy() bool {
	switch v.typ {
	case Nil:
		return false
	case Bool:
		return v.b
	default:
		return true
	}
}

// Equal implements Value equality: same-variant structural equality for
// nil/bool/number, identity for interned strings and all other heap
// objects (since every Obj is heap-allocated exactly once and never
// copied).
func Equal(x, y Value) bool {
	if x.typ != y.typ {
		return false
	}
	switch x.typ {
	case Nil:
		return true
	case Bool:
		return x.b == y.b
	case Number:
		return x.n == y.n
	case Obj:
		return x.o == y.o
	}
	return false
}

// String renders v the way PRINT does (spec.md §6 "Standard output").
func (v Value) String() string {
	switch v.typ {
	case Nil:
		return "nil"
	case Bool:
		if v.b {
			return "true"
		}
		return "false"
	case Number:
		return FormatNumber(v.n)
	case Obj:
		return v.o.String()
	}
	return "<invalid value>"
}

// FormatNumber renders a double the way clox's PRINT does: shortest %g-style
// representation, with infinities and NaN spelled "inf", "-inf" and "nan"
// as C's printf does (not Go's "+Inf"/"NaN").
func FormatNumber(n float64) string {
	if math.IsInf(n, 1) {
		return "inf"
	}
	if math.IsInf(n, -1) {
		return "-inf"
	}
	if math.IsNaN(n) {
		return "nan"
	}
	return strconv.FormatFloat(n, 'g', -1, 64)
}

// FormatNumberPrecision renders n with the shortest %.*g-style representation
// at the given precision, used when ADD stringifies a number operand for
// string concatenation (spec.md §4.5 "ADD").
func FormatNumberPrecision(n float64, precision int) string {
	return strconv.FormatFloat(n, 'g', precision, 64)
}
