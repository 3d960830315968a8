// Package chunk implements the compiled form of a function: a byte buffer
// of opcodes, a constant pool, and a run-length line table, as described by
// spec.md §3 "Chunk" and §4.1.
//
// It is grounded on original_source/clox/src/chunk.c for the exact
// behavior (line-table run-length encoding, the 256/65536 constant-index
// cutover between CONSTANT and CONSTANT_LONG) and on the teacher's
// lang/compiler.Funcode (lang/compiler/compiled.go) for the Go idiom of a
// function's compiled form being a small struct of slices rather than a
// hand-managed growable array.
package chunk

import (
	"fmt"

	"golang.org/x/exp/slices"

	"github.com/mna/loxvm/lang/value"
)

// lineStart is one entry of the run-length line table: code offset where a
// new source line begins.
type lineStart struct {
	offset int
	line   int
}

// Chunk is a function's compiled bytecode: instruction bytes, a constant
// pool, and the line table used to report runtime error locations.
type Chunk struct {
	Code      []byte
	Constants []value.Value
	lines     []lineStart

	// constIndex deduplicates constants within this chunk so that repeated
	// references to the same interned string (e.g. the same global name
	// mentioned many times) reuse one pool slot, per spec.md §4.1.
	constIndex map[value.Obj]int
}

// New returns an empty Chunk.
func New() *Chunk {
	return &Chunk{constIndex: make(map[value.Obj]int)}
}

// Write appends a raw byte to the code stream, recording a new line-table
// entry only when the line changes from the previous write.
func (c *Chunk) Write(b byte, line int) {
	c.Code = append(c.Code, b)
	if n := len(c.lines); n > 0 && c.lines[n-1].line == line {
		return
	}
	c.lines = append(c.lines, lineStart{offset: len(c.Code) - 1, line: line})
}

// WriteOp appends an opcode byte.
func (c *Chunk) WriteOp(op Op, line int) {
	c.Write(byte(op), line)
}

// WriteUint16 appends a 16-bit big-endian operand, as used by the _LONG
// constant opcodes, local/upvalue slot operands, and jump offsets
// (spec.md §4.4).
func (c *Chunk) WriteUint16(v uint16, line int) {
	c.Write(byte(v>>8), line)
	c.Write(byte(v), line)
}

// AddConstant appends value to the constant pool and returns its index. If
// v is an interned string already present in this chunk's pool, the
// existing index is returned instead (spec.md §4.1).
func (c *Chunk) AddConstant(v value.Value) int {
	if v.IsObj() {
		if o := v.AsObj(); o.Kind() == value.KindString {
			if idx, ok := c.constIndex[o]; ok {
				return idx
			}
			idx := len(c.Constants)
			c.Constants = append(c.Constants, v)
			c.constIndex[o] = idx
			return idx
		}
	}
	c.Constants = append(c.Constants, v)
	return len(c.Constants) - 1
}

// WriteConstant emits CONSTANT (8-bit index) or CONSTANT_LONG (16-bit
// index) depending on the pool size, per spec.md §4.1. It reports false if
// the constant pool has grown beyond 65536 entries.
func (c *Chunk) WriteConstant(v value.Value, line int) bool {
	idx := c.AddConstant(v)
	return c.WriteConstantIndex(idx, line)
}

// WriteConstantIndex emits CONSTANT or CONSTANT_LONG for an index already
// present in the pool. It reports false if idx does not fit in 16 bits.
func (c *Chunk) WriteConstantIndex(idx int, line int) bool {
	switch {
	case idx < 256:
		c.WriteOp(CONSTANT, line)
		c.Write(byte(idx), line)
	case idx < 65536:
		c.WriteOp(CONSTANT_LONG, line)
		c.WriteUint16(uint16(idx), line)
	default:
		return false
	}
	return true
}

// GetLine returns the source line number responsible for the instruction at
// offset, via binary search over the run-length line table (spec.md §4.1,
// §8 "getLine(offset) monotonically non-decreasing").
func (c *Chunk) GetLine(offset int) int {
	if len(c.lines) == 0 {
		return 0
	}
	idx, found := slices.BinarySearchFunc(c.lines, offset, func(ls lineStart, target int) int {
		return ls.offset - target
	})
	if !found {
		// idx is the insertion point: the greatest entry with offset <= target
		// is the one just before it.
		idx--
	}
	if idx < 0 {
		idx = 0
	}
	if idx >= len(c.lines) {
		idx = len(c.lines) - 1
	}
	return c.lines[idx].line
}

// String renders a one-line summary of the chunk: its code size in bytes
// and its number of constants.
func (c *Chunk) String() string {
	return fmt.Sprintf("<chunk: %d bytes, %d constants>", len(c.Code), len(c.Constants))
}
