// Package compiler implements the tree-less, single-pass Pratt compiler of
// spec.md §4.4: it consumes tokens one at a time from a scanner.Scanner and
// emits directly into a value.Chunk, with no intermediate AST. This mirrors
// the teacher's own compiler/machine split in spirit (a dedicated compiler
// package producing code consumed by a separate execution package) but the
// algorithm itself — precedence climbing with a prefix/infix rule table,
// panic-mode error recovery — is grounded on the clox-family design named by
// original_source/, not on the teacher's tree-walking compiler.
package compiler

import (
	"fmt"

	"github.com/mna/corvid/internal/diag"
	"github.com/mna/corvid/lang/gc"
	"github.com/mna/corvid/lang/scanner"
	"github.com/mna/corvid/lang/token"
	"github.com/mna/corvid/lang/value"
)

// Compiler holds the parser state (current/previous token, error flags) and
// the chain of active function compilations. A Compiler is single-use:
// construct one per call to Compile.
type Compiler struct {
	gc      *gc.GC
	scanner *scanner.Scanner

	previous scanner.Token
	current  scanner.Token

	errs      *diag.List
	hadError  bool
	panicMode bool

	cur   *funcState
	class *classState
}

// Compile compiles source into a top-level function (the implicit
// "<script>" wrapper function, per spec.md §4.4). If the returned
// diag.List.HasErrors is true, the returned function is nil and must not be
// run.
func Compile(g *gc.GC, source string) (*value.ObjFunction, *diag.List) {
	c := &Compiler{
		gc:      g,
		scanner: scanner.New(source),
		errs:    &diag.List{},
	}
	c.cur = newFuncState(nil, g.NewFunction(), typeScript)
	c.cur.locals = append(c.cur.locals, local{name: "", depth: 0})

	g.AddRoot(c)
	defer g.RemoveRoot(c)

	c.advance()
	for !c.check(token.EOF) {
		c.declaration()
	}
	fn, _ := c.endCompiler()

	if c.hadError {
		return nil, c.errs
	}
	return fn, c.errs
}

// MarkRoots implements gc.RootProvider: every function object currently
// under construction anywhere in the active compiler chain is a root, the
// way the original's markCompilerRoots walks current->enclosing.
func (c *Compiler) MarkRoots(g *gc.GC) {
	for fs := c.cur; fs != nil; fs = fs.enclosing {
		g.MarkObject(fs.function)
	}
}

func (c *Compiler) currentChunk() *value.Chunk { return c.cur.function.Chunk }

func (c *Compiler) emitByte(b byte) { c.currentChunk().Write(b, c.previous.Line) }

func (c *Compiler) emitOp(op value.OpCode) { c.emitByte(byte(op)) }

func (c *Compiler) emitBytes(a, b byte) {
	c.emitByte(a)
	c.emitByte(b)
}

func (c *Compiler) emitOpByte(op value.OpCode, b byte) { c.emitBytes(byte(op), b) }

// emitJump emits a jump opcode with a two-byte placeholder operand, returning
// the offset of the first placeholder byte for a later patchJump call.
func (c *Compiler) emitJump(op value.OpCode) int {
	c.emitOp(op)
	c.emitByte(0xff)
	c.emitByte(0xff)
	return len(c.currentChunk().Code) - 2
}

// patchJump backfills the jump operand at offset with the distance from just
// past the operand to the current code position.
func (c *Compiler) patchJump(offset int) {
	jump := len(c.currentChunk().Code) - offset - 2
	if jump > 0xffff {
		c.errorAtPrevious("Too much code to jump over.")
		return
	}
	code := c.currentChunk().Code
	code[offset] = byte(jump >> 8)
	code[offset+1] = byte(jump & 0xff)
}

// emitLoop emits OP_LOOP with a backward offset to loopStart.
func (c *Compiler) emitLoop(loopStart int) {
	c.emitOp(value.OpLoop)
	offset := len(c.currentChunk().Code) - loopStart + 2
	if offset > 0xffff {
		c.errorAtPrevious("Loop body too large.")
		return
	}
	c.emitByte(byte(offset >> 8))
	c.emitByte(byte(offset & 0xff))
}

func (c *Compiler) emitConstant(v value.Value) {
	idx, err := c.currentChunk().AddConstant(v)
	if err != nil {
		c.errorAtPrevious(err.Error())
		return
	}
	c.emitOpByte(value.OpConstant, byte(idx))
}

// identifierConstant interns name's lexeme and adds it to the current
// chunk's constant pool, returning its one-byte index.
func (c *Compiler) identifierConstant(name scanner.Token) byte {
	s := c.gc.Intern(name.Lexeme)
	idx, err := c.currentChunk().AddConstant(value.FromObj(s))
	if err != nil {
		c.errorAtPrevious(err.Error())
		return 0
	}
	return byte(idx)
}

func identifiersEqual(a, b scanner.Token) bool { return a.Lexeme == b.Lexeme }

func syntheticToken(name string) scanner.Token {
	return scanner.Token{Kind: token.IDENT, Lexeme: name}
}

// --- token stream plumbing ---

func (c *Compiler) advance() {
	c.previous = c.current
	for {
		c.current = c.scanner.Scan()
		if c.current.Kind != token.ILLEGAL {
			break
		}
		c.errorAtCurrent(c.current.Lexeme)
	}
}

func (c *Compiler) check(kind token.Token) bool { return c.current.Kind == kind }

func (c *Compiler) match(kind token.Token) bool {
	if !c.check(kind) {
		return false
	}
	c.advance()
	return true
}

func (c *Compiler) consume(kind token.Token, msg string) {
	if c.current.Kind == kind {
		c.advance()
		return
	}
	c.errorAtCurrent(msg)
}

func (c *Compiler) errorAtCurrent(msg string) { c.errorAt(c.current, msg) }
func (c *Compiler) errorAtPrevious(msg string) { c.errorAt(c.previous, msg) }

func (c *Compiler) errorAt(tok scanner.Token, msg string) {
	if c.panicMode {
		return
	}
	c.panicMode = true
	c.hadError = true

	where := ""
	switch tok.Kind {
	case token.EOF:
		where = "at end"
	case token.ILLEGAL:
		// the scanner already described the problem in msg; no "at" clause
	default:
		where = fmt.Sprintf("at '%s'", tok.Lexeme)
	}
	c.errs.Add(tok.Line, where, msg)
}
