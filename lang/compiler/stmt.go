package compiler

import (
	"github.com/mna/corvid/lang/token"
	"github.com/mna/corvid/lang/value"
)

func (c *Compiler) declaration() {
	switch {
	case c.match(token.CLASS):
		c.classDeclaration()
	case c.match(token.FUN):
		c.funDeclaration()
	case c.match(token.VAR):
		c.varDeclaration()
	default:
		c.statement()
	}

	if c.panicMode {
		c.synchronize()
	}
}

func (c *Compiler) synchronize() {
	c.panicMode = false
	for c.current.Kind != token.EOF {
		if c.previous.Kind == token.SEMI {
			return
		}
		switch c.current.Kind {
		case token.CLASS, token.FUN, token.VAR, token.FOR, token.IF, token.WHILE, token.PRINT, token.RETURN:
			return
		}
		c.advance()
	}
}

func (c *Compiler) statement() {
	switch {
	case c.match(token.PRINT):
		c.printStatement()
	case c.match(token.FOR):
		c.forStatement()
	case c.match(token.IF):
		c.ifStatement()
	case c.match(token.RETURN):
		c.returnStatement()
	case c.match(token.WHILE):
		c.whileStatement()
	case c.check(token.BREAK):
		c.advance()
		// spec.md §9: break is parsed and rejected, not lowered to a jump.
		c.errorAtPrevious("Unsupported statement.")
		c.match(token.SEMI)
	case c.match(token.LBRACE):
		c.beginScope()
		c.block()
		c.endScope()
	default:
		c.expressionStatement()
	}
}

func (c *Compiler) block() {
	for !c.check(token.RBRACE) && !c.check(token.EOF) {
		c.declaration()
	}
	c.consume(token.RBRACE, "Expect '}' after block.")
}

func (c *Compiler) printStatement() {
	c.expression()
	c.consume(token.SEMI, "Expect ';' after value.")
	c.emitOp(value.OpPrint)
}

func (c *Compiler) expressionStatement() {
	c.expression()
	c.consume(token.SEMI, "Expect ';' after expression.")
	c.emitOp(value.OpPop)
}

func (c *Compiler) ifStatement() {
	c.consume(token.LPAREN, "Expect '(' after 'if'.")
	c.expression()
	c.consume(token.RPAREN, "Expect ')' after condition.")

	thenJump := c.emitJump(value.OpJumpIfFalse)
	c.emitOp(value.OpPop)
	c.statement()

	elseJump := c.emitJump(value.OpJump)
	c.patchJump(thenJump)
	c.emitOp(value.OpPop)

	if c.match(token.ELSE) {
		c.statement()
	}
	c.patchJump(elseJump)
}

func (c *Compiler) whileStatement() {
	loopStart := len(c.currentChunk().Code)
	c.consume(token.LPAREN, "Expect '(' after 'while'.")
	c.expression()
	c.consume(token.RPAREN, "Expect ')' after condition.")

	exitJump := c.emitJump(value.OpJumpIfFalse)
	c.emitOp(value.OpPop)
	c.statement()
	c.emitLoop(loopStart)

	c.patchJump(exitJump)
	c.emitOp(value.OpPop)
}

func (c *Compiler) forStatement() {
	c.beginScope()
	c.consume(token.LPAREN, "Expect '(' after 'for'.")
	switch {
	case c.match(token.SEMI):
		// no initializer
	case c.match(token.VAR):
		c.varDeclaration()
	default:
		c.expressionStatement()
	}

	loopStart := len(c.currentChunk().Code)
	exitJump := -1
	if !c.match(token.SEMI) {
		c.expression()
		c.consume(token.SEMI, "Expect ';' after loop condition.")
		exitJump = c.emitJump(value.OpJumpIfFalse)
		c.emitOp(value.OpPop)
	}

	if !c.match(token.RPAREN) {
		bodyJump := c.emitJump(value.OpJump)
		incrementStart := len(c.currentChunk().Code)
		c.expression()
		c.emitOp(value.OpPop)
		c.consume(token.RPAREN, "Expect ')' after for clauses.")

		c.emitLoop(loopStart)
		loopStart = incrementStart
		c.patchJump(bodyJump)
	}

	c.statement()
	c.emitLoop(loopStart)

	if exitJump != -1 {
		c.patchJump(exitJump)
		c.emitOp(value.OpPop)
	}
	c.endScope()
}

func (c *Compiler) returnStatement() {
	if c.cur.typ == typeScript {
		c.errorAtPrevious("Can't return from top-level code.")
	}
	if c.match(token.SEMI) {
		c.emitReturn()
		return
	}
	if c.cur.typ == typeInitializer {
		c.errorAtPrevious("Can't return a value from an initializer.")
	}
	c.expression()
	c.consume(token.SEMI, "Expect ';' after return value.")
	c.emitOp(value.OpReturn)
}

func (c *Compiler) varDeclaration() {
	global := c.parseVariable("Expect variable name.")
	if c.match(token.EQ) {
		c.expression()
	} else {
		c.emitOp(value.OpNull)
	}
	c.consume(token.SEMI, "Expect ';' after variable declaration.")
	c.defineVariable(global)
}

func (c *Compiler) funDeclaration() {
	global := c.parseVariable("Expect function name.")
	c.markInitialized()
	c.function(typeFunction)
	c.defineVariable(global)
}

// function compiles a parameter list and body as a nested funcState, then
// emits OP_CLOSURE into the *enclosing* chunk followed by one
// (is_local, index) pair per captured upvalue (spec.md §4.4, §4.6).
func (c *Compiler) function(typ funcType) {
	fn := c.gc.NewFunction()
	if typ != typeScript {
		fn.Name = c.gc.Intern(c.previous.Lexeme)
	}
	fs := newFuncState(c.cur, fn, typ)
	if typ == typeMethod || typ == typeInitializer {
		fs.locals = append(fs.locals, local{name: "this", depth: 0})
	} else {
		fs.locals = append(fs.locals, local{name: "", depth: 0})
	}
	c.cur = fs

	c.beginScope()
	c.consume(token.LPAREN, "Expect '(' after function name.")
	if !c.check(token.RPAREN) {
		for {
			c.cur.function.Arity++
			if c.cur.function.Arity > 255 {
				c.errorAtCurrent("Can't have more than 255 parameters.")
			}
			paramConst := c.parseVariable("Expect parameter name.")
			c.defineVariable(paramConst)
			if !c.match(token.COMMA) {
				break
			}
		}
	}
	c.consume(token.RPAREN, "Expect ')' after parameters.")
	c.consume(token.LBRACE, "Expect '{' before function body.")
	c.block()

	compiled, upvalues := c.endCompiler()

	idx, err := c.currentChunk().AddConstant(value.FromObj(compiled))
	if err != nil {
		c.errorAtPrevious(err.Error())
		return
	}
	c.emitOpByte(value.OpClosure, byte(idx))
	for _, uv := range upvalues {
		if uv.isLocal {
			c.emitByte(1)
		} else {
			c.emitByte(0)
		}
		c.emitByte(uv.index)
	}
}

// endCompiler finishes the current funcState, emits its implicit return, and
// pops back to the enclosing funcState (or nil at the top level).
func (c *Compiler) endCompiler() (*value.ObjFunction, []upvalueRef) {
	c.emitReturn()
	fn := c.cur.function
	upvalues := c.cur.upvalues
	c.cur = c.cur.enclosing
	return fn, upvalues
}

func (c *Compiler) emitReturn() {
	if c.cur.typ == typeInitializer {
		c.emitOpByte(value.OpGetLocal, 0)
	} else {
		c.emitOp(value.OpNull)
	}
	c.emitOp(value.OpReturn)
}

// classDeclaration compiles "class Name { ... }" or "class Name(Super) {
// ... }". Superclass syntax uses a parenthesized name after the class name
// rather than the original's "<", matching this implementation's surface
// grammar; the underlying OP_INHERIT/"super" local machinery is unchanged.
func (c *Compiler) classDeclaration() {
	c.consume(token.IDENT, "Expect class name.")
	className := c.previous
	nameConstant := c.identifierConstant(className)
	c.declareVariable()

	c.emitOpByte(value.OpClass, nameConstant)
	c.defineVariable(nameConstant)

	cs := &classState{enclosing: c.class}
	c.class = cs

	if c.match(token.LPAREN) {
		c.consume(token.IDENT, "Expect superclass name.")
		superTok := c.previous
		variable(c, false)
		c.consume(token.RPAREN, "Expect ')' after superclass name.")

		if identifiersEqual(className, superTok) {
			c.errorAtPrevious("A class can't inherit from itself.")
		}

		c.beginScope()
		c.addLocal("super")
		c.defineVariable(0)

		c.namedVariable(className, false)
		c.emitOp(value.OpInherit)
		cs.hasSuperclass = true
	}

	c.namedVariable(className, false)
	c.consume(token.LBRACE, "Expect '{' before class body.")
	for !c.check(token.RBRACE) && !c.check(token.EOF) {
		c.method()
	}
	c.consume(token.RBRACE, "Expect '}' after class body.")
	c.emitOp(value.OpPop)

	if cs.hasSuperclass {
		c.endScope()
	}
	c.class = cs.enclosing
}

func (c *Compiler) method() {
	c.consume(token.IDENT, "Expect method name.")
	nameTok := c.previous
	constant := c.identifierConstant(nameTok)

	typ := typeMethod
	if nameTok.Lexeme == "init" {
		typ = typeInitializer
	}
	c.function(typ)
	c.emitOpByte(value.OpMethod, constant)
}
