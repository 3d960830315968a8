package chunk_test

import (
	"testing"

	"github.com/mna/loxvm/lang/chunk"
	"github.com/mna/loxvm/lang/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteAndOperandWidth(t *testing.T) {
	c := chunk.New()
	c.WriteOp(chunk.NIL, 1)
	c.WriteOp(chunk.CONSTANT, 1)
	c.Write(0, 1)
	require.Len(t, c.Code, 3)
	assert.Equal(t, 0, chunk.NIL.OperandWidth())
	assert.Equal(t, 1, chunk.CONSTANT.OperandWidth())
	assert.Equal(t, 2, chunk.CONSTANT_LONG.OperandWidth())
	assert.Equal(t, 3, chunk.INVOKE.OperandWidth())
}

func TestWriteUint16(t *testing.T) {
	c := chunk.New()
	c.WriteUint16(0x1234, 1)
	require.Len(t, c.Code, 2)
	assert.Equal(t, byte(0x12), c.Code[0])
	assert.Equal(t, byte(0x34), c.Code[1])
}

func TestAddConstantDedupesInternedStrings(t *testing.T) {
	c := chunk.New()
	s := &fakeString{name: "x"}
	i1 := c.AddConstant(value.ObjVal(s))
	i2 := c.AddConstant(value.ObjVal(s))
	assert.Equal(t, i1, i2)
	assert.Len(t, c.Constants, 1)

	// Non-string objects are never deduped.
	other := &fakeOther{}
	j1 := c.AddConstant(value.ObjVal(other))
	j2 := c.AddConstant(value.ObjVal(other))
	assert.NotEqual(t, j1, j2)
}

func TestWriteConstantCutover(t *testing.T) {
	c := chunk.New()
	ok := c.WriteConstant(value.NumberVal(1), 1)
	require.True(t, ok)
	assert.Equal(t, chunk.CONSTANT, chunk.Op(c.Code[0]))

	c2 := chunk.New()
	for i := 0; i < 300; i++ {
		c2.AddConstant(value.NumberVal(float64(i)))
	}
	ok = c2.WriteConstantIndex(299, 1)
	require.True(t, ok)
	assert.Equal(t, chunk.CONSTANT_LONG, chunk.Op(c2.Code[len(c2.Code)-3]))
}

func TestGetLineMonotonic(t *testing.T) {
	c := chunk.New()
	c.WriteOp(chunk.NIL, 1)
	c.WriteOp(chunk.NIL, 1)
	c.WriteOp(chunk.POP, 2)
	c.WriteOp(chunk.POP, 5)

	assert.Equal(t, 1, c.GetLine(0))
	assert.Equal(t, 1, c.GetLine(1))
	assert.Equal(t, 2, c.GetLine(2))
	assert.Equal(t, 5, c.GetLine(3))

	prev := 0
	for off := 0; off < len(c.Code); off++ {
		line := c.GetLine(off)
		assert.GreaterOrEqual(t, line, prev)
		prev = line
	}
}

func TestOpStringUnknown(t *testing.T) {
	assert.Equal(t, "OP_RETURN", chunk.RETURN.String())
	assert.Contains(t, chunk.Op(250).String(), "OP_UNKNOWN")
}

type fakeString struct {
	value.Header
	name string
}

func (f *fakeString) Kind() value.Kind { return value.KindString }
func (f *fakeString) String() string   { return f.name }

type fakeOther struct {
	value.Header
}

func (f *fakeOther) Kind() value.Kind { return value.KindFunction }
func (f *fakeOther) String() string   { return "other" }
