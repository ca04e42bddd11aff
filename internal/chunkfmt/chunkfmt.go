// Package chunkfmt renders a compiled value.Chunk as human-readable
// assembly text, the way the original Cobra interpreter's debug.c
// (disassembleChunk/disassembleInstruction, named in
// _examples/original_source/King_Cobra-C_JIT/debug.h) renders bytecode for
// inspection. It exists purely for the CLI's "disassemble" subcommand and
// for DEBUG_PRINT_CODE instrumentation (spec.md §6) — nothing in compiler
// or vm depends on it.
package chunkfmt

import (
	"fmt"
	"strings"

	"github.com/mna/corvid/lang/value"
)

// Disassemble renders every instruction in c under a "== name ==" header,
// one line per instruction, in the clox/Cobra debug-dump format.
func Disassemble(c *value.Chunk, name string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "== %s ==\n", name)
	for offset := 0; offset < len(c.Code); {
		offset = instruction(&b, c, offset)
	}
	return b.String()
}

// instruction writes one disassembled instruction at offset and returns the
// offset of the next one.
func instruction(b *strings.Builder, c *value.Chunk, offset int) int {
	fmt.Fprintf(b, "%04d ", offset)
	if offset > 0 && c.Lines[offset] == c.Lines[offset-1] {
		b.WriteString("   | ")
	} else {
		fmt.Fprintf(b, "%4d ", c.Lines[offset])
	}

	op := value.OpCode(c.Code[offset])
	switch op {
	case value.OpNull, value.OpTrue, value.OpFalse, value.OpPop,
		value.OpEqual, value.OpGreater, value.OpLess,
		value.OpAdd, value.OpSubtract, value.OpMultiply, value.OpDivide,
		value.OpNot, value.OpNegate, value.OpPrint, value.OpCloseUpvalue,
		value.OpReturn, value.OpInherit:
		return simple(b, op, offset)

	case value.OpGetLocal, value.OpSetLocal, value.OpGetUpvalue, value.OpSetUpvalue, value.OpCall:
		return byteOperand(b, op, c, offset)

	case value.OpConstant, value.OpGetGlobal, value.OpSetGlobal, value.OpDefineGlobal,
		value.OpGetProperty, value.OpSetProperty, value.OpClass, value.OpMethod, value.OpGetSuper:
		return constantOperand(b, op, c, offset)

	case value.OpJump, value.OpJumpIfFalse:
		return jumpOperand(b, op, 1, c, offset)
	case value.OpLoop:
		return jumpOperand(b, op, -1, c, offset)

	case value.OpInvoke, value.OpSuperInvoke:
		return invokeOperand(b, op, c, offset)

	case value.OpClosure:
		return closureOperand(b, c, offset)

	default:
		fmt.Fprintf(b, "unknown opcode %d\n", byte(op))
		return offset + 1
	}
}

func simple(b *strings.Builder, op value.OpCode, offset int) int {
	fmt.Fprintf(b, "%s\n", op)
	return offset + 1
}

func byteOperand(b *strings.Builder, op value.OpCode, c *value.Chunk, offset int) int {
	slot := c.Code[offset+1]
	fmt.Fprintf(b, "%-18s %4d\n", op, slot)
	return offset + 2
}

func constantOperand(b *strings.Builder, op value.OpCode, c *value.Chunk, offset int) int {
	idx := c.Code[offset+1]
	fmt.Fprintf(b, "%-18s %4d '%s'\n", op, idx, c.Constants[idx])
	return offset + 2
}

func jumpOperand(b *strings.Builder, op value.OpCode, sign int, c *value.Chunk, offset int) int {
	jump := int(c.Code[offset+1])<<8 | int(c.Code[offset+2])
	target := offset + 3 + sign*jump
	fmt.Fprintf(b, "%-18s %4d -> %d\n", op, offset, target)
	return offset + 3
}

func invokeOperand(b *strings.Builder, op value.OpCode, c *value.Chunk, offset int) int {
	idx := c.Code[offset+1]
	argc := c.Code[offset+2]
	fmt.Fprintf(b, "%-18s (%d args) %4d '%s'\n", op, argc, idx, c.Constants[idx])
	return offset + 3
}

// closureOperand additionally walks the is_local/index capture pairs that
// immediately follow a CLOSURE instruction's function-constant operand
// (spec.md §4.4's "function(type) ... emits CLOSURE <fn_k> followed by
// upvalue_count pairs").
func closureOperand(b *strings.Builder, c *value.Chunk, offset int) int {
	idx := c.Code[offset+1]
	fmt.Fprintf(b, "%-18s %4d '%s'\n", value.OpClosure, idx, c.Constants[idx])
	offset += 2

	if fn, ok := c.Constants[idx].AsObj().(*value.ObjFunction); ok {
		for i := 0; i < fn.UpvalueCount; i++ {
			isLocal := c.Code[offset]
			index := c.Code[offset+1]
			kind := "upvalue"
			if isLocal != 0 {
				kind = "local"
			}
			fmt.Fprintf(b, "%04d      |                     %s %d\n", offset, kind, index)
			offset += 2
		}
	}
	return offset
}
