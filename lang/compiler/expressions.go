package compiler

import (
	"github.com/mna/loxvm/lang/chunk"
	"github.com/mna/loxvm/lang/scanner"
	"github.com/mna/loxvm/lang/token"
	"github.com/mna/loxvm/lang/value"
)

// parseFn is a Pratt prefix or infix handler: given that the operator/atom
// token is already consumed into c.prev, it parses the rest of its
// production and emits the corresponding bytecode.
type parseFn func(c *compiler, canAssign bool)

// expression parses at PREC_COMMA, the loosest level below a bare
// statement, so a top-level comma-expression is legal everywhere a single
// expression is (spec.md §4.3's precedence ladder).
func (c *compiler) expression() { c.parsePrecedence(precComma) }

// parsePrecedence is the Pratt parser's core loop: run the current token's
// prefix handler, then keep consuming infix operators whose precedence is
// at least prec, left to right (original_source/clox/src/compiler.c's
// parsePrecedence).
func (c *compiler) parsePrecedence(prec precedence) {
	c.advance()
	rule := getRule(c.prev.Type)
	if rule.prefix == nil {
		c.errorAtPrev("Expect expression.")
		return
	}
	canAssign := prec <= precAssignment
	rule.prefix(c, canAssign)

	for prec <= getRule(c.cur.Type).prec {
		c.advance()
		infix := getRule(c.prev.Type).infix
		infix(c, canAssign)
	}

	if canAssign && c.match(token.EQUAL) {
		c.errorAtPrev("Invalid assignment target.")
	}
}

func comma(c *compiler, canAssign bool) {
	c.emitOp(chunk.POP)
	c.parsePrecedence(precComma)
}

func binary(c *compiler, canAssign bool) {
	opType := c.prev.Type
	rule := getRule(opType)
	next := rule.prec + 1
	if opType == token.CARET {
		// Right-associative: recursing at the same precedence, rather than
		// one tighter, lets the next `^` at this level parse as part of our
		// right operand instead of closing us off (spec.md §4.3 "^ is
		// right-associative").
		next = rule.prec
	}
	c.parsePrecedence(next)

	switch opType {
	case token.PLUS:
		c.emitOp(chunk.ADD)
	case token.MINUS:
		c.emitOp(chunk.SUBTRACT)
	case token.STAR:
		c.emitOp(chunk.MULTIPLY)
	case token.SLASH:
		c.emitOp(chunk.DIVIDE)
	case token.BANG_EQUAL:
		c.emitOp(chunk.EQUAL)
		c.emitOp(chunk.NOT)
	case token.EQUAL_EQUAL:
		c.emitOp(chunk.EQUAL)
	case token.GREATER:
		c.emitOp(chunk.GREATER)
	case token.GREATER_EQUAL:
		c.emitOp(chunk.LESS)
		c.emitOp(chunk.NOT)
	case token.LESS:
		c.emitOp(chunk.LESS)
	case token.LESS_EQUAL:
		c.emitOp(chunk.GREATER)
		c.emitOp(chunk.NOT)
	case token.CARET:
		c.emitOp(chunk.POWER)
	}
}

func call(c *compiler, canAssign bool) {
	argCount := c.argumentList()
	c.emitOp(chunk.CALL)
	c.emitByte(byte(argCount))
}

func (c *compiler) argumentList() int {
	count := 0
	if !c.check(token.RPAREN) {
		for {
			c.parsePrecedence(precAssignment) // the comma operator must not swallow argument separators
			if count == 255 {
				c.errorAtPrev("Can't have more than 255 arguments.")
			}
			count++
			if !c.match(token.COMMA) {
				break
			}
		}
	}
	c.consume(token.RPAREN, "Expect ')' after arguments.")
	return count
}

func dot(c *compiler, canAssign bool) {
	c.consume(token.IDENT, "Expect property name after '.'.")
	name := c.identifierConstant(c.prev.Lexeme)
	switch {
	case canAssign && c.match(token.EQUAL):
		c.expression()
		c.emitName16(chunk.SET_PROPERTY, name)
	case c.match(token.LPAREN):
		argCount := c.argumentList()
		c.emitOp(chunk.INVOKE)
		c.emitUint16Raw(uint16(name))
		c.emitByte(byte(argCount))
	default:
		c.emitName16(chunk.GET_PROPERTY, name)
	}
}

func conditional(c *compiler, canAssign bool) {
	elseJump := c.emitJump(chunk.JUMP_IF_FALSE)
	c.emitOp(chunk.POP)
	c.parsePrecedence(precTernary)
	c.consume(token.COLON, "Expect ':' after '?:' expression.")
	endJump := c.emitJump(chunk.JUMP)
	c.patchJump(elseJump)
	c.emitOp(chunk.POP)
	c.parsePrecedence(precTernary)
	c.patchJump(endJump)
}

func literal(c *compiler, canAssign bool) {
	switch c.prev.Type {
	case token.FALSE:
		c.emitOp(chunk.FALSE)
	case token.NIL:
		c.emitOp(chunk.NIL)
	case token.TRUE:
		c.emitOp(chunk.TRUE)
	}
}

func grouping(c *compiler, canAssign bool) {
	c.expression()
	c.consume(token.RPAREN, "Expect ')' after expression.")
}

func number(c *compiler, canAssign bool) {
	c.emitConstant(value.NumberVal(parseFloat(c.prev.Lexeme)))
}

// or_ and and_ implement short-circuit evaluation by reusing the same
// conditional-jump primitives as if/while rather than adding a dedicated
// opcode, exactly as original_source/clox/src/compiler.c does.
func or_(c *compiler, canAssign bool) {
	elseJump := c.emitJump(chunk.JUMP_IF_FALSE)
	endJump := c.emitJump(chunk.JUMP)

	c.patchJump(elseJump)
	c.emitOp(chunk.POP)

	c.parsePrecedence(precOr)
	c.patchJump(endJump)
}

func and_(c *compiler, canAssign bool) {
	endJump := c.emitJump(chunk.JUMP_IF_FALSE)
	c.emitOp(chunk.POP)
	c.parsePrecedence(precAnd)
	c.patchJump(endJump)
}

func stringLit(c *compiler, canAssign bool) {
	s := scanner.StringValue(c.prev.Lexeme)
	c.emitConstant(value.ObjVal(c.heap.Intern(c.roots(), s)))
}

func variable(c *compiler, canAssign bool) {
	c.namedVariable(c.prev, canAssign)
}

func unary(c *compiler, canAssign bool) {
	opType := c.prev.Type
	c.parsePrecedence(precUnary)
	switch opType {
	case token.BANG:
		c.emitOp(chunk.NOT)
	case token.MINUS:
		c.emitOp(chunk.NEGATE)
	}
}

func this_(c *compiler, canAssign bool) {
	if c.class == nil {
		c.errorAtPrev("Can't use 'this' outside of a class.")
		return
	}
	variable(c, false)
}

func super_(c *compiler, canAssign bool) {
	if c.class == nil {
		c.errorAtPrev("Can't use 'super' outside of a class.")
	} else if !c.class.hasSuperclass {
		c.errorAtPrev("Can't use 'super' in a class with no superclass.")
	}
	c.consume(token.DOT, "Expect '.' after 'super'.")
	c.consume(token.IDENT, "Expect superclass method name.")
	name := c.identifierConstant(c.prev.Lexeme)

	c.namedVariable(syntheticToken("this", c.prev.Line), false)
	if c.match(token.LPAREN) {
		argCount := c.argumentList()
		c.namedVariable(syntheticToken("super", c.prev.Line), false)
		c.emitOp(chunk.INVOKE_SUPER)
		c.emitUint16Raw(uint16(name))
		c.emitByte(byte(argCount))
	} else {
		c.namedVariable(syntheticToken("super", c.prev.Line), false)
		c.emitName16(chunk.GET_SUPER, name)
	}
}

func functionExpression(c *compiler, canAssign bool) {
	c.function(funcExpression, "")
}

func list(c *compiler, canAssign bool) {
	length := 0
	for !c.check(token.RBRACK) {
		c.parsePrecedence(precAssignment)
		if length >= 1<<16 {
			c.errorAtPrev("Too many elements in list.")
		}
		length++
		if !c.match(token.COMMA) {
			break
		}
	}
	c.consume(token.RBRACK, "Expect ']' after list declaration.")
	c.emitOp(chunk.MAKE_LIST)
	c.emitUint16Raw(uint16(length))
}

func subscript(c *compiler, canAssign bool) {
	c.expression()
	c.consume(token.RBRACK, "Expect ']' after subscript.")
	if canAssign && c.match(token.EQUAL) {
		c.expression()
		c.emitOp(chunk.SET_ELEMENT)
	} else {
		c.emitOp(chunk.GET_ELEMENT)
	}
}
