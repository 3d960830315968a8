package compiler

import (
	"github.com/mna/loxvm/lang/chunk"
	"github.com/mna/loxvm/lang/token"
)

func (c *compiler) beginScope() { c.fs.scopeDepth++ }

// endScope pops every local that belonged to the scope just closed,
// emitting CLOSE_UPVALUE instead of POP for any that an inner closure
// captured, so the closed-over value outlives this stack slot (spec.md
// §4.5 "CLOSE_UPVALUE").
func (c *compiler) endScope() {
	c.fs.scopeDepth--
	fs := c.fs
	for len(fs.locals) > 0 && fs.locals[len(fs.locals)-1].depth > fs.scopeDepth {
		if fs.locals[len(fs.locals)-1].captured {
			c.emitOp(chunk.CLOSE_UPVALUE)
		} else {
			c.emitOp(chunk.POP)
		}
		fs.locals = fs.locals[:len(fs.locals)-1]
	}
}

func (c *compiler) block() {
	for !c.check(token.RBRACE) && !c.check(token.EOF) {
		c.declaration()
	}
	c.consume(token.RBRACE, "Expect '}' after block.")
}

// function compiles one function/method/getter body in its own funcState,
// then emits CLOSURE in the enclosing function referencing it, followed by
// one (isLocal, index) pair per captured upvalue (spec.md §4.3 "Functions",
// §4.5 "CLOSURE").
func (c *compiler) function(kind funcKind, name string) {
	c.pushFuncState(kind, name)
	c.beginScope()

	if kind == funcGetter {
		c.fs.fn.Arity = -1
	} else {
		c.consume(token.LPAREN, "Expect '(' after function name.")
		if !c.check(token.RPAREN) {
			for {
				c.fs.fn.Arity++
				if c.fs.fn.Arity > 255 {
					c.errorAtCurrent("Can't have more than 255 parameters.")
				}
				constant := c.parseVariable("Expect parameter name.")
				c.defineVariable(constant)
				if !c.match(token.COMMA) {
					break
				}
			}
		}
		c.consume(token.RPAREN, "Expect ')' after parameters.")
	}

	c.consume(token.LBRACE, "Expect '{' before function body.")
	c.block()

	fn := c.popFuncState()

	idx := c.currentChunk().AddConstant(funcConstant(fn))
	c.emitOp(chunk.CLOSURE)
	if idx > 0xFFFF {
		c.errorAtPrev("Too many constants in one chunk.")
		idx = 0
	}
	c.emitUint16Raw(uint16(idx))
	for _, uv := range fn.Upvalues {
		if uv.IsLocal {
			c.emitByte(1)
		} else {
			c.emitByte(0)
		}
		c.emitUint16Raw(uv.Index)
	}
}

func (c *compiler) method() {
	c.consume(token.IDENT, "Expect method name.")
	name := c.prev.Lexeme
	constant := c.identifierConstant(name)

	kind := funcMethod
	if !c.check(token.LPAREN) {
		kind = funcGetter
	}
	if name == "init" {
		kind = funcInitializer
	}
	c.function(kind, name)
	c.emitName16(chunk.METHOD, constant)
}

func (c *compiler) classDeclaration() {
	c.consume(token.IDENT, "Expect class name.")
	name := c.prev
	nameConstant := c.identifierConstant(name.Lexeme)
	c.declareVariable(name.Lexeme)

	c.emitName16(chunk.CLASS, nameConstant)
	c.defineVariable(nameConstant)

	cs := &classState{enclosing: c.class}
	c.class = cs

	if c.match(token.LESS) {
		c.consume(token.IDENT, "Expect superclass name.")
		variable(c, false)
		if c.prev.Lexeme == name.Lexeme {
			c.errorAtPrev("A class can't inherit from itself.")
		}
		c.beginScope()
		c.fs.addLocal(c, "super")
		c.defineVariable(0)

		c.namedVariable(name, false)
		c.emitOp(chunk.INHERIT)
		cs.hasSuperclass = true
	}

	c.namedVariable(name, false)
	c.consume(token.LBRACE, "Expect '{' before class body.")
	for !c.check(token.RBRACE) && !c.check(token.EOF) {
		c.method()
	}
	c.consume(token.RBRACE, "Expect '}' after class body.")
	c.emitOp(chunk.POP)

	if cs.hasSuperclass {
		c.endScope()
	}
	c.class = c.class.enclosing
}

func (c *compiler) functionDeclaration() {
	if c.check(token.IDENT) {
		global := c.parseVariable("Expect function name.")
		c.markInitialized()
		c.function(funcFunction, c.prev.Lexeme)
		c.defineVariable(global)
	} else {
		c.function(funcExpression, "")
		c.emitOp(chunk.POP)
	}
}

func (c *compiler) varDeclaration() {
	global := c.parseVariable("Expect variable name.")

	if c.match(token.EQUAL) {
		c.parsePrecedence(precAssignment)
	} else {
		c.emitOp(chunk.NIL)
	}
	c.consume(token.SEMICOLON, "Expect ';' after variable declaration.")
	c.defineVariable(global)
}

func (c *compiler) expressionStatement() {
	c.expression()
	c.consume(token.SEMICOLON, "Expect ';' after expression.")
	c.emitOp(chunk.POP)
}

func (c *compiler) ifStatement() {
	c.consume(token.LPAREN, "Expect '(' after 'if'.")
	c.expression()
	c.consume(token.RPAREN, "Expect ')' after condition.")

	thenJump := c.emitJump(chunk.JUMP_IF_FALSE)
	c.emitOp(chunk.POP)
	c.statement()

	elseJump := c.emitJump(chunk.JUMP)
	c.patchJump(thenJump)
	c.emitOp(chunk.POP)

	if c.match(token.ELSE) {
		c.statement()
	}
	c.patchJump(elseJump)
}

func (c *compiler) whileStatement() {
	surroundingLoopStart := c.fs.loopStart
	surroundingLoopScope := c.fs.loopScope
	surroundingExitJump := c.fs.exitJump
	c.fs.loopStart = len(c.currentChunk().Code)
	c.fs.loopScope = c.fs.scopeDepth

	c.consume(token.LPAREN, "Expect '(' after 'while'.")
	c.expression()
	c.consume(token.RPAREN, "Expect ')' after condition.")

	c.fs.exitJump = c.emitJump(chunk.JUMP_IF_FALSE)
	c.emitOp(chunk.POP)
	c.statement()
	c.emitLoop(c.fs.loopStart)

	c.patchJump(c.fs.exitJump)
	c.emitOp(chunk.POP)

	c.fs.exitJump = surroundingExitJump
	c.fs.loopScope = surroundingLoopScope
	c.fs.loopStart = surroundingLoopStart
}

func (c *compiler) forStatement() {
	c.beginScope()
	c.consume(token.LPAREN, "Expect '(' after 'for'.")
	switch {
	case c.match(token.SEMICOLON):
		// no initializer
	case c.match(token.VAR):
		c.varDeclaration()
	default:
		c.expressionStatement()
	}

	surroundingLoopStart := c.fs.loopStart
	surroundingLoopScope := c.fs.loopScope
	surroundingExitJump := c.fs.exitJump
	c.fs.loopStart = len(c.currentChunk().Code)
	c.fs.loopScope = c.fs.scopeDepth

	if !c.match(token.SEMICOLON) {
		c.expression()
		c.consume(token.SEMICOLON, "Expect ';' after loop condition.")
		c.fs.exitJump = c.emitJump(chunk.JUMP_IF_FALSE)
		c.emitOp(chunk.POP)
	} else {
		c.emitOp(chunk.TRUE)
		c.fs.exitJump = c.emitJump(chunk.JUMP_IF_FALSE)
	}

	if !c.match(token.RPAREN) {
		bodyJump := c.emitJump(chunk.JUMP)
		incrementStart := len(c.currentChunk().Code)
		c.expression()
		c.emitOp(chunk.POP)
		c.consume(token.RPAREN, "Expect ')' after for clauses.")

		c.emitLoop(c.fs.loopStart)
		c.fs.loopStart = incrementStart
		c.patchJump(bodyJump)
	}

	c.statement()
	c.emitLoop(c.fs.loopStart)

	c.patchJump(c.fs.exitJump)
	c.emitOp(chunk.POP)

	c.fs.exitJump = surroundingExitJump
	c.fs.loopScope = surroundingLoopScope
	c.fs.loopStart = surroundingLoopStart
	c.endScope()
}

// popLoopLocals emits one POP per local declared inside the loop body
// deeper than loopScope, used by break/continue to unwind the stack before
// jumping out of (or back to the top of) the loop.
func (c *compiler) popLoopLocals() {
	fs := c.fs
	for i := len(fs.locals) - 1; i >= 0 && fs.locals[i].depth > fs.loopScope; i-- {
		c.emitOp(chunk.POP)
	}
}

func (c *compiler) continueStatement() {
	if c.fs.loopStart == -1 {
		c.errorAtPrev("Can't use 'continue' outside of a loop.")
	}
	c.consume(token.SEMICOLON, "Expect ';' after 'continue'.")
	c.popLoopLocals()
	c.emitLoop(c.fs.loopStart)
}

func (c *compiler) breakStatement() {
	if c.fs.exitJump == -1 {
		c.errorAtPrev("Can't use 'break' outside of a loop.")
	}
	c.consume(token.SEMICOLON, "Expect ';' after 'break'.")
	c.popLoopLocals()
	// Loop back to just before the condition check, leaving a FALSE value on
	// the stack so that re-evaluated JUMP_IF_FALSE exits immediately,
	// mirroring original_source/clox/src/compiler.c's breakStatement.
	c.emitOp(chunk.FALSE)
	c.emitLoop(c.fs.exitJump - 1)
}

func (c *compiler) returnStatement() {
	if c.fs.kind == funcScript {
		c.errorAtPrev("Can't return from top-level code.")
	}
	switch {
	case c.match(token.SEMICOLON):
		c.emitReturn()
	case c.fs.kind == funcInitializer:
		c.errorAtPrev("Can't return a value from an initializer.")
	default:
		c.expression()
		c.consume(token.SEMICOLON, "Expect ';' after return value.")
		c.emitOp(chunk.RETURN)
	}
}

func (c *compiler) printStatement() {
	c.expression()
	c.consume(token.SEMICOLON, "Expect ';' after value.")
	c.emitOp(chunk.PRINT)
}

// synchronize discards tokens after a parse error until a likely statement
// boundary, so one mistake reports one diagnostic instead of a cascade
// (spec.md §7 "panic-mode recovery").
func (c *compiler) synchronize() {
	c.panicMode = false
	for c.cur.Type != token.EOF {
		if c.prev.Type == token.SEMICOLON {
			return
		}
		switch c.cur.Type {
		case token.CLASS, token.FUN, token.VAR, token.FOR, token.IF,
			token.WHILE, token.PRINT, token.RETURN:
			return
		}
		c.advance()
	}
}

func (c *compiler) declaration() {
	switch {
	case c.match(token.CLASS):
		c.classDeclaration()
	case c.match(token.VAR):
		c.varDeclaration()
	case c.match(token.FUN):
		c.functionDeclaration()
	default:
		c.statement()
	}
	if c.panicMode {
		c.synchronize()
	}
}

func (c *compiler) statement() {
	switch {
	case c.match(token.PRINT):
		c.printStatement()
	case c.match(token.IF):
		c.ifStatement()
	case c.match(token.WHILE):
		c.whileStatement()
	case c.match(token.FOR):
		c.forStatement()
	case c.match(token.LBRACE):
		c.beginScope()
		c.block()
		c.endScope()
	case c.match(token.CONTINUE):
		c.continueStatement()
	case c.match(token.BREAK):
		c.breakStatement()
	case c.match(token.RETURN):
		c.returnStatement()
	default:
		c.expressionStatement()
	}
}
