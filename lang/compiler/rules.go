package compiler

import "github.com/mna/corvid/lang/token"

// Precedence orders binding strength from loosest to tightest, the way
// original_source/ lays out its precedence enum; PrecNone marks "not an
// operator at all".
type Precedence int

const (
	PrecNone Precedence = iota
	PrecAssignment
	PrecOr
	PrecAnd
	PrecEquality
	PrecComparison
	PrecTerm
	PrecFactor
	PrecUnary
	PrecCall
	PrecPrimary
)

// parseFn is a prefix or infix parsing routine. canAssign tells a routine
// (specifically the variable prefix and the dot infix) whether a trailing "=" should be
// parsed as an assignment, which is only legal when this expression is
// being parsed at PrecAssignment or looser.
type parseFn func(c *Compiler, canAssign bool)

type parseRule struct {
	prefix     parseFn
	infix      parseFn
	precedence Precedence
}

// tokenKindCount must stay in lockstep with lang/token's token set (one past
// WHILE, the last keyword).
const tokenKindCount = 41

var rules [tokenKindCount]parseRule

func init() {
	rules[token.LPAREN] = parseRule{grouping, call, PrecCall}
	rules[token.DOT] = parseRule{nil, dot, PrecCall}
	rules[token.MINUS] = parseRule{unary, binary, PrecTerm}
	rules[token.PLUS] = parseRule{nil, binary, PrecTerm}
	rules[token.SLASH] = parseRule{nil, binary, PrecFactor}
	rules[token.STAR] = parseRule{nil, binary, PrecFactor}
	rules[token.BANG] = parseRule{unary, nil, PrecNone}
	rules[token.BANG_EQ] = parseRule{nil, binary, PrecEquality}
	rules[token.EQ_EQ] = parseRule{nil, binary, PrecEquality}
	rules[token.GT] = parseRule{nil, binary, PrecComparison}
	rules[token.GE] = parseRule{nil, binary, PrecComparison}
	rules[token.LT] = parseRule{nil, binary, PrecComparison}
	rules[token.LE] = parseRule{nil, binary, PrecComparison}
	rules[token.IDENT] = parseRule{variable, nil, PrecNone}
	rules[token.STRING] = parseRule{stringLit, nil, PrecNone}
	rules[token.NUMBER] = parseRule{number, nil, PrecNone}
	rules[token.AND] = parseRule{nil, and_, PrecAnd}
	rules[token.OR] = parseRule{nil, or_, PrecOr}
	rules[token.FALSE] = parseRule{literal, nil, PrecNone}
	rules[token.TRUE] = parseRule{literal, nil, PrecNone}
	rules[token.NULL] = parseRule{literal, nil, PrecNone}
	rules[token.THIS] = parseRule{this_, nil, PrecNone}
	rules[token.SUPER] = parseRule{super_, nil, PrecNone}
}

func getRule(kind token.Token) parseRule { return rules[kind] }

func (c *Compiler) parsePrecedence(prec Precedence) {
	c.advance()
	prefix := getRule(c.previous.Kind).prefix
	if prefix == nil {
		c.errorAtPrevious("Expect expression.")
		return
	}
	canAssign := prec <= PrecAssignment
	prefix(c, canAssign)

	for prec <= getRule(c.current.Kind).precedence {
		c.advance()
		infix := getRule(c.previous.Kind).infix
		infix(c, canAssign)
	}

	if canAssign && c.match(token.EQ) {
		c.errorAtPrevious("Invalid assignment target.")
	}
}

func (c *Compiler) expression() { c.parsePrecedence(PrecAssignment) }
