package compiler

import (
	"github.com/mna/corvid/lang/token"
	"github.com/mna/corvid/lang/value"
)

// funcType distinguishes the four contexts a function body can compile in,
// each with slightly different rules for slot 0 and for "return" (spec.md
// §4.4).
type funcType int

const (
	typeFunction funcType = iota
	typeScript
	typeMethod
	typeInitializer
)

const (
	maxLocals   = 256
	maxUpvalues = 255
)

// local is one entry of a funcState's compile-time local-variable stack.
// depth is -1 between declaration and initialization, the window during
// which a variable cannot refer to itself (spec.md §4.4 edge case).
type local struct {
	name       string
	depth      int
	isCaptured bool
}

// upvalueRef records, for one funcState, where its Nth upvalue comes from:
// either a local slot in the immediately enclosing function, or that
// function's own Nth upvalue (spec.md §4.4's upvalue resolution chain).
type upvalueRef struct {
	index   byte
	isLocal bool
}

// funcState is the compiler's per-function compilation record; nested
// function literals and methods push a new funcState with the current one
// as its enclosing, mirroring call-stack nesting at compile time.
type funcState struct {
	enclosing *funcState
	function  *value.ObjFunction
	typ       funcType

	locals     []local
	scopeDepth int
	upvalues   []upvalueRef
}

func newFuncState(enclosing *funcState, fn *value.ObjFunction, typ funcType) *funcState {
	return &funcState{enclosing: enclosing, function: fn, typ: typ}
}

// classState tracks nested class compilation: whether the innermost class
// has a superclass (so "super" resolves) and the enclosing class, if any
// (nested class bodies are legal; "this"/"super" always refer to the
// innermost one).
type classState struct {
	enclosing     *classState
	hasSuperclass bool
}

func (c *Compiler) beginScope() { c.cur.scopeDepth++ }

func (c *Compiler) endScope() {
	c.cur.scopeDepth--
	fs := c.cur
	for len(fs.locals) > 0 && fs.locals[len(fs.locals)-1].depth > fs.scopeDepth {
		last := fs.locals[len(fs.locals)-1]
		if last.isCaptured {
			c.emitOp(value.OpCloseUpvalue)
		} else {
			c.emitOp(value.OpPop)
		}
		fs.locals = fs.locals[:len(fs.locals)-1]
	}
}

func (c *Compiler) addLocal(name string) {
	if len(c.cur.locals) >= maxLocals {
		c.errorAtPrevious("Too many local variables in function.")
		return
	}
	c.cur.locals = append(c.cur.locals, local{name: name, depth: -1})
}

// declareVariable registers c.previous as a new local in the current scope.
// Globals are never "declared" this way; they are resolved by name at
// runtime, so at global scope this is a no-op.
func (c *Compiler) declareVariable() {
	if c.cur.scopeDepth == 0 {
		return
	}
	name := c.previous.Lexeme
	for i := len(c.cur.locals) - 1; i >= 0; i-- {
		l := c.cur.locals[i]
		if l.depth != -1 && l.depth < c.cur.scopeDepth {
			break
		}
		if l.name == name {
			c.errorAtPrevious("Already a variable with this name in this scope.")
		}
	}
	c.addLocal(name)
}

func (c *Compiler) markInitialized() {
	if c.cur.scopeDepth == 0 {
		return
	}
	c.cur.locals[len(c.cur.locals)-1].depth = c.cur.scopeDepth
}

// parseVariable consumes an identifier, declares it if we are in a local
// scope, and returns the constant-pool index to use for OP_DEFINE_GLOBAL
// (meaningless, and unused, for locals).
func (c *Compiler) parseVariable(msg string) byte {
	c.consume(token.IDENT, msg)
	c.declareVariable()
	if c.cur.scopeDepth > 0 {
		return 0
	}
	return c.identifierConstant(c.previous)
}

func (c *Compiler) defineVariable(global byte) {
	if c.cur.scopeDepth > 0 {
		c.markInitialized()
		return
	}
	c.emitOpByte(value.OpDefineGlobal, global)
}

// resolveLocal returns the slot index of name in fs's own locals, or -1 if
// not found there.
func resolveLocal(c *Compiler, fs *funcState, name string) int {
	for i := len(fs.locals) - 1; i >= 0; i-- {
		if fs.locals[i].name == name {
			if fs.locals[i].depth == -1 {
				c.errorAtPrevious("Can't read local variable in its own initializer.")
			}
			return i
		}
	}
	return -1
}

// resolveUpvalue walks the enclosing-function chain looking for name,
// threading an upvalueRef through every intermediate funcState so each
// nested closure captures only what it needs (spec.md §4.4, §4.6).
func resolveUpvalue(c *Compiler, fs *funcState, name string) int {
	if fs.enclosing == nil {
		return -1
	}
	if slot := resolveLocal(c, fs.enclosing, name); slot != -1 {
		fs.enclosing.locals[slot].isCaptured = true
		return addUpvalue(c, fs, byte(slot), true)
	}
	if up := resolveUpvalue(c, fs.enclosing, name); up != -1 {
		return addUpvalue(c, fs, byte(up), false)
	}
	return -1
}

func addUpvalue(c *Compiler, fs *funcState, index byte, isLocal bool) int {
	for i, uv := range fs.upvalues {
		if uv.index == index && uv.isLocal == isLocal {
			return i
		}
	}
	if len(fs.upvalues) >= maxUpvalues {
		c.errorAtPrevious("Too many closure variables in function.")
		return 0
	}
	fs.upvalues = append(fs.upvalues, upvalueRef{index: index, isLocal: isLocal})
	fs.function.UpvalueCount = len(fs.upvalues)
	return len(fs.upvalues) - 1
}
