package gc_test

import (
	"testing"

	"github.com/mna/loxvm/lang/chunk"
	"github.com/mna/loxvm/lang/gc"
	"github.com/mna/loxvm/lang/object"
	"github.com/mna/loxvm/lang/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInternDedupes(t *testing.T) {
	h := gc.New()
	a := h.Intern(gc.Roots{}, "hello")
	b := h.Intern(gc.Roots{}, "hello")
	c := h.Intern(gc.Roots{}, "world")
	assert.Same(t, a, b)
	assert.NotSame(t, a, c)
	assert.Equal(t, "hello", a.Chars)
}

func TestCollectFreesUnreachableStrings(t *testing.T) {
	h := gc.New()
	kept := h.Intern(gc.Roots{}, "kept")
	h.Intern(gc.Roots{}, "garbage")

	before := h.BytesAllocated()
	h.Collect(gc.Roots{Stack: []value.Value{value.ObjVal(kept)}})
	after := h.BytesAllocated()

	assert.Less(t, after, before, "unreachable string should be collected")

	// kept must still be the same interned instance (not collected).
	again := h.Intern(gc.Roots{Stack: []value.Value{value.ObjVal(kept)}}, "kept")
	assert.Same(t, kept, again)
}

func TestCollectTracesFrameClosuresAndGlobals(t *testing.T) {
	h := gc.New()
	roots := gc.Roots{}

	name := h.Intern(roots, "greet")
	fn := h.AllocFunction(roots)
	fn.Name = name
	fn.Chunk = chunk.New()
	closure := h.AllocClosure(roots, fn, 0)

	globals := object.NewTable(4)
	gname := h.Intern(roots, "g")
	gval := h.AllocInstance(roots, h.AllocClass(roots, h.Intern(roots, "C")))
	globals.Set(gname, value.ObjVal(gval))

	roots.FrameClosures = []*object.Closure{closure}
	roots.Globals = globals

	before := h.BytesAllocated()
	h.Collect(roots)
	after := h.BytesAllocated()
	assert.Equal(t, before, after, "every allocation above is reachable from roots")
}

func TestMaybeCollectStressGC(t *testing.T) {
	h := gc.New()
	h.StressGC = true
	roots := gc.Roots{}
	// Every allocation should trigger a Collect without panicking even with
	// an empty root set.
	for i := 0; i < 50; i++ {
		h.AllocFunction(roots)
	}
}

func TestAllocClosureFillsUpvalueSlots(t *testing.T) {
	h := gc.New()
	roots := gc.Roots{}
	fn := h.AllocFunction(roots)
	cl := h.AllocClosure(roots, fn, 3)
	require.Len(t, cl.Upvalues, 3)
	for _, uv := range cl.Upvalues {
		assert.Nil(t, uv)
	}
}

func TestAllocListCopiesElems(t *testing.T) {
	h := gc.New()
	roots := gc.Roots{}
	src := []value.Value{value.NumberVal(1), value.NumberVal(2)}
	l := h.AllocList(roots, src)
	src[0] = value.NumberVal(99)
	assert.Equal(t, 1.0, l.Elems[0].AsNumber(), "AllocList must copy, not alias, the source slice")
}
