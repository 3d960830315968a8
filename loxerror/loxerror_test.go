package loxerror_test

import (
	"testing"

	"github.com/mna/loxvm/loxerror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmptyListHasNoErrors(t *testing.T) {
	l := &loxerror.List{}
	assert.False(t, l.HasErrors())
	assert.Equal(t, 0, l.Len())
	assert.Equal(t, "no errors", l.Error())
}

func TestAddAccumulates(t *testing.T) {
	l := &loxerror.List{}
	l.Add(3, "Expect %s.", "';'")
	require.True(t, l.HasErrors())
	assert.Equal(t, 1, l.Len())
	assert.Equal(t, "[line 3] Error: Expect ';'.", l.Errs()[0].Error())
}

func TestErrorSummarizesMultiple(t *testing.T) {
	l := &loxerror.List{}
	l.Add(1, "first")
	l.Add(2, "second")
	assert.Contains(t, l.Error(), "(and 1 more errors)")
}

func TestAddAtIncludesLocationClause(t *testing.T) {
	l := &loxerror.List{}
	l.AddAt(5, "at end", "Expect expression.")
	l.AddAt(6, "at 'foo'", "Undefined variable.")
	require.Equal(t, 2, l.Len())
	assert.Equal(t, "[line 5] Error at end: Expect expression.", l.Errs()[0].Error())
	assert.Equal(t, "[line 6] Error at 'foo': Undefined variable.", l.Errs()[1].Error())
}
