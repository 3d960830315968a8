package chunk

import "fmt"

// Op is a single bytecode opcode. Most opcodes are followed by zero or more
// operand bytes, as documented per-constant below; the operand widths are
// fixed per opcode rather than varint-encoded (unlike the teacher's
// compiler.Opcode in lang/compiler/opcode.go, which varint-encodes most
// operands) because spec.md §4.4 mandates fixed-width 8/16-bit operand
// encodings for constant, local, upvalue and jump operands.
type Op uint8

//nolint:revive
const (
	RETURN Op = iota
	CONSTANT
	CONSTANT_LONG
	NIL
	TRUE
	FALSE
	EQUAL
	GREATER
	LESS
	ADD
	SUBTRACT
	MULTIPLY
	DIVIDE
	NOT
	NEGATE
	POWER
	POP
	PRINT
	DEFINE_GLOBAL
	DEFINE_GLOBAL_LONG
	GET_GLOBAL
	GET_GLOBAL_LONG
	SET_GLOBAL
	SET_GLOBAL_LONG
	GET_LOCAL
	SET_LOCAL
	JUMP
	JUMP_IF_FALSE
	LOOP
	CALL
	CLOSURE
	GET_UPVALUE
	SET_UPVALUE
	CLOSE_UPVALUE
	CLASS
	GET_PROPERTY
	SET_PROPERTY
	METHOD
	INVOKE
	INHERIT
	GET_SUPER
	INVOKE_SUPER
	MAKE_LIST
	GET_ELEMENT
	SET_ELEMENT

	opCount
)

// opNames holds the display name of each opcode, in the teacher's
// table-driven style (lang/compiler/opcode.go's stackEffect/opcodeNames
// arrays indexed by Opcode). Operand widths are given by OperandWidth.
var opNames = [opCount]string{
	RETURN:             "OP_RETURN",
	CONSTANT:           "OP_CONSTANT",
	CONSTANT_LONG:      "OP_CONSTANT_LONG",
	NIL:                "OP_NIL",
	TRUE:               "OP_TRUE",
	FALSE:              "OP_FALSE",
	EQUAL:              "OP_EQUAL",
	GREATER:            "OP_GREATER",
	LESS:               "OP_LESS",
	ADD:                "OP_ADD",
	SUBTRACT:           "OP_SUBTRACT",
	MULTIPLY:           "OP_MULTIPLY",
	DIVIDE:             "OP_DIVIDE",
	NOT:                "OP_NOT",
	NEGATE:             "OP_NEGATE",
	POWER:              "OP_POWER",
	POP:                "OP_POP",
	PRINT:              "OP_PRINT",
	DEFINE_GLOBAL:      "OP_DEFINE_GLOBAL",
	DEFINE_GLOBAL_LONG: "OP_DEFINE_GLOBAL_LONG",
	GET_GLOBAL:         "OP_GET_GLOBAL",
	GET_GLOBAL_LONG:    "OP_GET_GLOBAL_LONG",
	SET_GLOBAL:         "OP_SET_GLOBAL",
	SET_GLOBAL_LONG:    "OP_SET_GLOBAL_LONG",
	GET_LOCAL:          "OP_GET_LOCAL",
	SET_LOCAL:          "OP_SET_LOCAL",
	JUMP:               "OP_JUMP",
	JUMP_IF_FALSE:      "OP_JUMP_IF_FALSE",
	LOOP:               "OP_LOOP",
	CALL:               "OP_CALL",
	CLOSURE:            "OP_CLOSURE",
	GET_UPVALUE:        "OP_GET_UPVALUE",
	SET_UPVALUE:        "OP_SET_UPVALUE",
	CLOSE_UPVALUE:      "OP_CLOSE_UPVALUE",
	CLASS:              "OP_CLASS",
	GET_PROPERTY:       "OP_GET_PROPERTY",
	SET_PROPERTY:       "OP_SET_PROPERTY",
	METHOD:             "OP_METHOD",
	INVOKE:             "OP_INVOKE",
	INHERIT:            "OP_INHERIT",
	GET_SUPER:          "OP_GET_SUPER",
	INVOKE_SUPER:       "OP_INVOKE_SUPER",
	MAKE_LIST:          "OP_MAKE_LIST",
	GET_ELEMENT:        "OP_GET_ELEMENT",
	SET_ELEMENT:        "OP_SET_ELEMENT",
}

func (op Op) String() string {
	if op < opCount && opNames[op] != "" {
		return opNames[op]
	}
	return fmt.Sprintf("OP_UNKNOWN(%d)", uint8(op))
}

// OperandWidth returns the number of operand bytes immediately following
// this opcode in the code stream, not counting any trailing CLOSURE upvalue
// descriptors (those are variable-length and handled specially by callers).
func (op Op) OperandWidth() int {
	switch op {
	case RETURN, NIL, TRUE, FALSE, EQUAL, GREATER, LESS, ADD, SUBTRACT,
		MULTIPLY, DIVIDE, NOT, NEGATE, POWER, POP, PRINT, CLOSE_UPVALUE,
		INHERIT:
		return 0
	case CONSTANT, DEFINE_GLOBAL, GET_GLOBAL, SET_GLOBAL, CALL:
		return 1
	case CONSTANT_LONG, DEFINE_GLOBAL_LONG, GET_GLOBAL_LONG, SET_GLOBAL_LONG,
		GET_LOCAL, SET_LOCAL, JUMP, JUMP_IF_FALSE, LOOP, CLOSURE, GET_UPVALUE,
		SET_UPVALUE, MAKE_LIST, CLASS, GET_PROPERTY, SET_PROPERTY, METHOD,
		GET_SUPER:
		return 2
	case INVOKE, INVOKE_SUPER:
		return 3 // 16-bit name constant + 1-byte argc
	case GET_ELEMENT, SET_ELEMENT:
		return 0
	}
	return 0
}
