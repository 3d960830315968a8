package value_test

import (
	"math"
	"testing"

	"github.com/mna/loxvm/lang/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeObj struct {
	value.Header
	name string
}

func (f *fakeObj) Kind() value.Kind { return value.KindString }
func (f *fakeObj) String() string   { return f.name }

func TestValueVariants(t *testing.T) {
	assert.True(t, value.NilValue.IsNil())
	assert.Equal(t, "nil", value.NilValue.String())

	b := value.BoolVal(true)
	require.True(t, b.IsBool())
	assert.True(t, b.AsBool())
	assert.Equal(t, "true", b.String())
	assert.Equal(t, "false", value.BoolVal(false).String())

	n := value.NumberVal(3.5)
	require.True(t, n.IsNumber())
	assert.Equal(t, 3.5, n.AsNumber())
	assert.Equal(t, "3.5", n.String())

	o := &fakeObj{name: "hi"}
	v := value.ObjVal(o)
	require.True(t, v.IsObj())
	assert.Same(t, o, v.AsObj())
	kind, ok := v.ObjKind()
	require.True(t, ok)
	assert.Equal(t, value.KindString, kind)

	_, ok = n.ObjKind()
	assert.False(t, ok)
}

func TestTruthy(t *testing.T) {
	assert.False(t, value.NilValue.Truthy())
	assert.False(t, value.BoolVal(false).Truthy())
	assert.True(t, value.BoolVal(true).Truthy())
	assert.True(t, value.NumberVal(0).Truthy())
	assert.True(t, value.ObjVal(&fakeObj{}).Truthy())
}

func TestEqual(t *testing.T) {
	assert.True(t, value.Equal(value.NilValue, value.NilValue))
	assert.True(t, value.Equal(value.BoolVal(true), value.BoolVal(true)))
	assert.False(t, value.Equal(value.BoolVal(true), value.BoolVal(false)))
	assert.True(t, value.Equal(value.NumberVal(1), value.NumberVal(1)))
	assert.False(t, value.Equal(value.NumberVal(1), value.NumberVal(2)))
	assert.False(t, value.Equal(value.NumberVal(1), value.NilValue))

	o1 := &fakeObj{name: "a"}
	o2 := &fakeObj{name: "a"}
	assert.True(t, value.Equal(value.ObjVal(o1), value.ObjVal(o1)))
	assert.False(t, value.Equal(value.ObjVal(o1), value.ObjVal(o2)), "identity, not structural, equality")
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "1", value.FormatNumber(1))
	assert.Equal(t, "1.5", value.FormatNumber(1.5))
	assert.Equal(t, "inf", value.FormatNumber(math.Inf(1)))
	assert.Equal(t, "-inf", value.FormatNumber(math.Inf(-1)))
	assert.Equal(t, "nan", value.FormatNumber(math.NaN()))
}

func TestFormatNumberPrecision(t *testing.T) {
	assert.Equal(t, "1", value.FormatNumberPrecision(1, 14))
	assert.Equal(t, "0.3333333333333", value.FormatNumberPrecision(1.0/3.0, 13))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "string", value.KindString.String())
	assert.Equal(t, "bound method", value.KindBoundMethod.String())
	assert.Equal(t, "unknown", value.Kind(200).String())
}
