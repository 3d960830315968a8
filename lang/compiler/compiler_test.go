package compiler_test

import (
	"testing"

	"github.com/mna/loxvm/lang/chunk"
	"github.com/mna/loxvm/lang/compiler"
	"github.com/mna/loxvm/lang/gc"
	"github.com/mna/loxvm/lang/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileSimpleProgram(t *testing.T) {
	heap := gc.New()
	fn, errs := compiler.Compile(heap, `print 1 + 2;`)
	require.False(t, errs.HasErrors())
	require.NotNil(t, fn)
	assert.NotEmpty(t, fn.Chunk.Code)
}

func TestCompileReportsSyntaxError(t *testing.T) {
	heap := gc.New()
	fn, errs := compiler.Compile(heap, `var = ;`)
	assert.Nil(t, fn)
	require.True(t, errs.HasErrors())
	assert.Greater(t, errs.Len(), 0)
}

func TestCompileCollectsMultipleErrorsWithoutCascading(t *testing.T) {
	heap := gc.New()
	_, errs := compiler.Compile(heap, `
		var = ;
		print ;
		var ok = 1;
	`)
	require.True(t, errs.HasErrors())
	// Two malformed statements should report roughly two diagnostics, not a
	// cascade of dozens caused by panic-mode failing to resynchronize.
	assert.LessOrEqual(t, errs.Len(), 4)
}

func TestCompileEmitsPowerAsRightAssociative(t *testing.T) {
	heap := gc.New()
	fn, errs := compiler.Compile(heap, `print 2 ^ 3 ^ 2;`)
	require.False(t, errs.HasErrors())
	count := 0
	first := -1
	for i, b := range fn.Chunk.Code {
		if chunk.Op(b) == chunk.POWER {
			if first < 0 {
				first = i
			}
			count++
		}
	}
	assert.Equal(t, 2, count)
	// Right-associative: both operands of the inner `3 ^ 2` are pushed
	// before either POWER runs, so the two POWER opcodes are adjacent.
	require.Less(t, first+1, len(fn.Chunk.Code))
	assert.Equal(t, chunk.POWER, chunk.Op(fn.Chunk.Code[first+1]))
}

func TestCompileTopLevelReturnIsError(t *testing.T) {
	heap := gc.New()
	_, errs := compiler.Compile(heap, `return 1;`)
	require.True(t, errs.HasErrors())
}

func TestCompileFunctionClosureOperandLayout(t *testing.T) {
	heap := gc.New()
	fn, errs := compiler.Compile(heap, `
		fun outer() {
			var x = 1;
			fun inner() {
				return x;
			}
			return inner;
		}
	`)
	require.False(t, errs.HasErrors())

	var outer *object.Function
	for _, v := range fn.Chunk.Constants {
		if f, ok := v.AsObj().(*object.Function); v.IsObj() && ok {
			outer = f
		}
	}
	require.NotNil(t, outer, "the script's constants must hold outer's Function")

	found := -1
	code := outer.Chunk.Code
	for i := 0; i < len(code); i++ {
		if chunk.Op(code[i]) == chunk.CLOSURE {
			found = i
			break
		}
	}
	require.GreaterOrEqual(t, found, 0, "outer's chunk must contain a CLOSURE opcode for inner")
	// CLOSURE, 16-bit constant index, then one (isLocal, 16-bit index)
	// triple for inner's single upvalue: outer's local x in slot 1.
	require.Less(t, found+5, len(code))
	assert.Equal(t, byte(1), code[found+3], "x is captured from outer's locals")
	assert.Equal(t, uint16(1), uint16(code[found+4])<<8|uint16(code[found+5]), "x lives in outer's slot 1")
}

func TestCompileConstantPoolDedupesInternedNames(t *testing.T) {
	heap := gc.New()
	fn, errs := compiler.Compile(heap, `
		var a = 1;
		a = a + a;
		print a;
	`)
	require.False(t, errs.HasErrors())

	count := 0
	for _, v := range fn.Chunk.Constants {
		if v.IsObj() {
			if k, ok := v.ObjKind(); ok && k.String() == "string" && v.String() == "a" {
				count++
			}
		}
	}
	assert.Equal(t, 1, count, "every reference to global 'a' should share one constant slot")
}
