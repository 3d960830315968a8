package object_test

import (
	"testing"

	"github.com/mna/loxvm/lang/object"
	"github.com/mna/loxvm/lang/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableSetReportsNewKey(t *testing.T) {
	tbl := object.NewTable(4)
	a := &object.String{Chars: "a"}

	isNew := tbl.Set(a, value.NumberVal(1))
	assert.True(t, isNew, "first insert of a fresh key")

	isNew = tbl.Set(a, value.NumberVal(2))
	assert.False(t, isNew, "overwriting an existing key")

	got, ok := tbl.Get(a)
	require.True(t, ok)
	assert.Equal(t, 2.0, got.AsNumber())
}

func TestTableDeleteAndLen(t *testing.T) {
	tbl := object.NewTable(4)
	a := &object.String{Chars: "a"}
	b := &object.String{Chars: "b"}
	tbl.Set(a, value.NumberVal(1))
	tbl.Set(b, value.NumberVal(2))
	assert.Equal(t, 2, tbl.Len())

	tbl.Delete(a)
	assert.Equal(t, 1, tbl.Len())
	_, ok := tbl.Get(a)
	assert.False(t, ok)
}

func TestTableAddAllFrom(t *testing.T) {
	dst := object.NewTable(4)
	src := object.NewTable(4)
	m1 := &object.String{Chars: "m1"}
	m2 := &object.String{Chars: "m2"}
	src.Set(m1, value.NumberVal(1))
	src.Set(m2, value.NumberVal(2))

	dst.Set(m1, value.NumberVal(99))
	dst.AddAllFrom(src)

	v1, _ := dst.Get(m1)
	v2, _ := dst.Get(m2)
	assert.Equal(t, 1.0, v1.AsNumber(), "AddAllFrom overwrites existing keys")
	assert.Equal(t, 2.0, v2.AsNumber())
}

func TestTableAddAllFromNilSource(t *testing.T) {
	dst := object.NewTable(4)
	assert.NotPanics(t, func() { dst.AddAllFrom(nil) })
}

func TestFNV1a32(t *testing.T) {
	h1 := object.FNV1a32("hello")
	h2 := object.FNV1a32("hello")
	h3 := object.FNV1a32("world")
	assert.Equal(t, h1, h2)
	assert.NotEqual(t, h1, h3)
}

func TestClassFindMethod(t *testing.T) {
	name := &object.String{Chars: "Greeter"}
	methods := object.NewTable(4)
	methodName := &object.String{Chars: "greet"}
	fn := &object.Function{Name: methodName}
	closure := &object.Closure{Fn: fn}
	methods.Set(methodName, value.ObjVal(closure))

	cls := &object.Class{Name: name, Methods: methods}
	assert.Equal(t, "Greeter", cls.String())

	got, ok := cls.FindMethod(methodName)
	require.True(t, ok)
	assert.Same(t, closure, got.AsObj())

	_, ok = cls.FindMethod(&object.String{Chars: "missing"})
	assert.False(t, ok)
}

func TestInstanceString(t *testing.T) {
	cls := &object.Class{Name: &object.String{Chars: "Point"}}
	inst := &object.Instance{Class: cls, Fields: object.NewTable(4)}
	assert.Equal(t, "<Point instance>", inst.String())
}

func TestUpvalueOpenThenClosed(t *testing.T) {
	uv := &object.Upvalue{Location: 3}
	assert.False(t, uv.IsClosed())

	uv.Close(value.NumberVal(7))
	assert.True(t, uv.IsClosed())
	assert.Equal(t, 7.0, uv.Closed.AsNumber())
	assert.Nil(t, uv.Next)
}

func TestFunctionIsGetter(t *testing.T) {
	getter := &object.Function{Arity: -1}
	fn := &object.Function{Arity: 2}
	assert.True(t, getter.IsGetter())
	assert.False(t, fn.IsGetter())
}

func TestFunctionStringAnonymousScript(t *testing.T) {
	fn := &object.Function{}
	assert.Equal(t, "<script>", fn.String())

	named := &object.Function{Name: &object.String{Chars: "area"}}
	assert.Equal(t, "<fn area>", named.String())
}

func TestListLen(t *testing.T) {
	l := &object.List{Elems: []value.Value{value.NumberVal(1), value.NumberVal(2)}}
	assert.Equal(t, 2, l.Len())
}
