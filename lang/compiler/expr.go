package compiler

import (
	"strconv"

	"github.com/mna/corvid/lang/scanner"
	"github.com/mna/corvid/lang/token"
	"github.com/mna/corvid/lang/value"
)

func number(c *Compiler, _ bool) {
	n, err := strconv.ParseFloat(c.previous.Lexeme, 64)
	if err != nil {
		c.errorAtPrevious("Invalid number literal.")
		return
	}
	c.emitConstant(value.Number(n))
}

func stringLit(c *Compiler, _ bool) {
	// Lexeme spans the surrounding quotes.
	raw := c.previous.Lexeme
	s := c.gc.Intern(raw[1 : len(raw)-1])
	c.emitConstant(value.FromObj(s))
}

func grouping(c *Compiler, _ bool) {
	c.expression()
	c.consume(token.RPAREN, "Expect ')' after expression.")
}

func unary(c *Compiler, _ bool) {
	opKind := c.previous.Kind
	c.parsePrecedence(PrecUnary)
	switch opKind {
	case token.BANG:
		c.emitOp(value.OpNot)
	case token.MINUS:
		c.emitOp(value.OpNegate)
	}
}

func binary(c *Compiler, _ bool) {
	opKind := c.previous.Kind
	rule := getRule(opKind)
	c.parsePrecedence(rule.precedence + 1)

	switch opKind {
	case token.BANG_EQ:
		c.emitOp(value.OpEqual)
		c.emitOp(value.OpNot)
	case token.EQ_EQ:
		c.emitOp(value.OpEqual)
	case token.GT:
		c.emitOp(value.OpGreater)
	case token.GE:
		c.emitOp(value.OpLess)
		c.emitOp(value.OpNot)
	case token.LT:
		c.emitOp(value.OpLess)
	case token.LE:
		c.emitOp(value.OpGreater)
		c.emitOp(value.OpNot)
	case token.PLUS:
		c.emitOp(value.OpAdd)
	case token.MINUS:
		c.emitOp(value.OpSubtract)
	case token.STAR:
		c.emitOp(value.OpMultiply)
	case token.SLASH:
		c.emitOp(value.OpDivide)
	}
}

func literal(c *Compiler, _ bool) {
	switch c.previous.Kind {
	case token.FALSE:
		c.emitOp(value.OpFalse)
	case token.TRUE:
		c.emitOp(value.OpTrue)
	case token.NULL:
		c.emitOp(value.OpNull)
	}
}

func and_(c *Compiler, _ bool) {
	endJump := c.emitJump(value.OpJumpIfFalse)
	c.emitOp(value.OpPop)
	c.parsePrecedence(PrecAnd)
	c.patchJump(endJump)
}

func or_(c *Compiler, _ bool) {
	elseJump := c.emitJump(value.OpJumpIfFalse)
	endJump := c.emitJump(value.OpJump)
	c.patchJump(elseJump)
	c.emitOp(value.OpPop)
	c.parsePrecedence(PrecOr)
	c.patchJump(endJump)
}

func (c *Compiler) argumentList() byte {
	var argCount int
	if !c.check(token.RPAREN) {
		for {
			c.expression()
			if argCount == 255 {
				c.errorAtCurrent("Can't have more than 255 arguments.")
			}
			argCount++
			if !c.match(token.COMMA) {
				break
			}
		}
	}
	c.consume(token.RPAREN, "Expect ')' after arguments.")
	return byte(argCount)
}

func call(c *Compiler, _ bool) {
	argCount := c.argumentList()
	c.emitOpByte(value.OpCall, argCount)
}

func dot(c *Compiler, canAssign bool) {
	c.consume(token.IDENT, "Expect property name after '.'.")
	name := c.identifierConstant(c.previous)

	switch {
	case canAssign && c.match(token.EQ):
		c.expression()
		c.emitOpByte(value.OpSetProperty, name)
	case c.match(token.LPAREN):
		argCount := c.argumentList()
		c.emitOpByte(value.OpInvoke, name)
		c.emitByte(argCount)
	default:
		c.emitOpByte(value.OpGetProperty, name)
	}
}

func variable(c *Compiler, canAssign bool) {
	c.namedVariable(c.previous, canAssign)
}

func (c *Compiler) namedVariable(name scanner.Token, canAssign bool) {
	var getOp, setOp value.OpCode
	arg := resolveLocal(c, c.cur, name.Lexeme)
	if arg != -1 {
		getOp, setOp = value.OpGetLocal, value.OpSetLocal
	} else if up := resolveUpvalue(c, c.cur, name.Lexeme); up != -1 {
		arg = up
		getOp, setOp = value.OpGetUpvalue, value.OpSetUpvalue
	} else {
		arg = int(c.identifierConstant(name))
		getOp, setOp = value.OpGetGlobal, value.OpSetGlobal
	}

	if canAssign && c.match(token.EQ) {
		c.expression()
		c.emitOpByte(setOp, byte(arg))
	} else {
		c.emitOpByte(getOp, byte(arg))
	}
}

func this_(c *Compiler, _ bool) {
	if c.class == nil {
		c.errorAtPrevious("Can't use 'this' outside of a class.")
		return
	}
	variable(c, false)
}

func super_(c *Compiler, _ bool) {
	switch {
	case c.class == nil:
		c.errorAtPrevious("Can't use 'super' outside of a class.")
	case !c.class.hasSuperclass:
		c.errorAtPrevious("Can't use 'super' in a class with no superclass.")
	}

	c.consume(token.DOT, "Expect '.' after 'super'.")
	c.consume(token.IDENT, "Expect superclass method name.")
	name := c.identifierConstant(c.previous)

	c.namedVariable(syntheticToken("this"), false)
	if c.match(token.LPAREN) {
		argCount := c.argumentList()
		c.namedVariable(syntheticToken("super"), false)
		c.emitOpByte(value.OpSuperInvoke, name)
		c.emitByte(argCount)
	} else {
		c.namedVariable(syntheticToken("super"), false)
		c.emitOpByte(value.OpGetSuper, name)
	}
}
