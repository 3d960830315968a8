package object

import (
	"fmt"

	"github.com/mna/loxvm/lang/chunk"
	"github.com/mna/loxvm/lang/value"
)

// UpvalueDesc describes one upvalue a Closure must capture when it is
// created from a Function, as emitted after CLOSURE by the compiler
// (spec.md §4.3 "Functions").
type UpvalueDesc struct {
	IsLocal bool
	Index   uint16
}

// Function is the compiled form of a function body: its arity, the chunk
// of bytecode for its body, and the upvalues it needs captured when a
// closure is made over it. Arity -1 marks a getter (spec.md §3, "Getter"
// in the glossary).
type Function struct {
	value.Header
	Arity      int
	UpvalueCnt int
	Chunk      *chunk.Chunk
	Name       *String // nil for the top-level script function
	Upvalues   []UpvalueDesc
}

var _ value.Obj = (*Function)(nil)

func (f *Function) Kind() value.Kind { return value.KindFunction }

func (f *Function) String() string {
	if f.Name == nil {
		return "<script>"
	}
	return fmt.Sprintf("<fn %s>", f.Name.Chars)
}

// IsGetter reports whether f was declared as a getter (no parameter list).
func (f *Function) IsGetter() bool { return f.Arity < 0 }

// NativeFn is the Go function signature backing a Native value.
type NativeFn func(args []value.Value) (value.Value, error)

// Native wraps a host-provided function exposed to Lox programs (clock,
// len, gc; spec.md §6 "Natives provided").
type Native struct {
	value.Header
	Name string
	Fn   NativeFn
}

var _ value.Obj = (*Native)(nil)

func (n *Native) Kind() value.Kind { return value.KindNative }
func (n *Native) String() string   { return "<native fn>" }

// Closure pairs a Function with the Upvalues it captured at creation time.
type Closure struct {
	value.Header
	Fn       *Function
	Upvalues []*Upvalue
}

var _ value.Obj = (*Closure)(nil)

func (c *Closure) Kind() value.Kind { return value.KindClosure }
func (c *Closure) String() string   { return c.Fn.String() }

// Upvalue is a cell that starts open (aliasing a live VM stack slot, via
// Slot/Location) and migrates to closed (owning Closed) when the frame
// that owns the slot returns or when CLOSE_UPVALUE runs (spec.md §3, §4.5
// "CLOSE_UPVALUE").
type Upvalue struct {
	value.Header

	// Location is the stack slot index this upvalue currently aliases,
	// valid only while Closed is false. The teacher's machine package
	// models the analogous idea (a captured local) with a dedicated *cell
	// heap object (lang/machine/cell.go) that is always "closed"; spec.md
	// instead requires an *open* phase that aliases a live stack index, so
	// this keeps both a Location (while open) and a Closed value slot
	// (after closing), matching original_source/clox/include/object.h's
	// ObjUpvalue (a Value* location plus a closed Value).
	Location int
	Closed   value.Value
	isClosed bool

	// Next links the open-upvalue list in descending Location order
	// (spec.md §3 "Upvalue", invariant: "sorted by decreasing stack
	// address").
	Next *Upvalue
}

var _ value.Obj = (*Upvalue)(nil)

func (u *Upvalue) Kind() value.Kind { return value.KindUpvalue }
func (u *Upvalue) String() string   { return "<upvalue>" }

// IsClosed reports whether Close has been called on u.
func (u *Upvalue) IsClosed() bool { return u.isClosed }

// Close migrates u from open to closed, capturing v as its owned value.
func (u *Upvalue) Close(v value.Value) {
	u.Closed = v
	u.isClosed = true
	u.Next = nil
}
