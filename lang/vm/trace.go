package vm

import (
	"fmt"
	"os"

	"github.com/mna/corvid/lang/value"
)

// operandWidths reports how many operand bytes follow each opcode, so
// traceStep can print an instruction without advancing fr.ip itself.
var operandWidths = [...]int{
	value.OpConstant:     1,
	value.OpGetLocal:     1,
	value.OpSetLocal:     1,
	value.OpGetUpvalue:   1,
	value.OpSetUpvalue:   1,
	value.OpGetGlobal:    1,
	value.OpSetGlobal:    1,
	value.OpDefineGlobal: 1,
	value.OpGetProperty:  1,
	value.OpSetProperty:  1,
	value.OpJump:         2,
	value.OpJumpIfFalse:  2,
	value.OpLoop:         2,
	value.OpCall:         1,
	value.OpInvoke:       2,
	value.OpSuperInvoke:  2,
	value.OpClass:        1,
	value.OpMethod:       1,
	value.OpGetSuper:     1,
}

// traceStep prints the live stack followed by the instruction about to run,
// the clox-style trace debugflags.TraceExecution gates on.
func (vm *VM) traceStep(fr *callFrame) {
	fmt.Fprint(os.Stderr, "          ")
	for i := 0; i < vm.sp; i++ {
		fmt.Fprintf(os.Stderr, "[ %s ]", vm.stack[i].String())
	}
	fmt.Fprintln(os.Stderr)

	chunk := fr.closure.Function.Chunk
	offset := fr.ip
	op := value.OpCode(chunk.Code[offset])
	width := operandWidths[op]

	switch width {
	case 0:
		fmt.Fprintf(os.Stderr, "%04d %-16s\n", offset, op)
	case 1:
		operand := chunk.Code[offset+1]
		fmt.Fprintf(os.Stderr, "%04d %-16s %4d\n", offset, op, operand)
	case 2:
		hi, lo := chunk.Code[offset+1], chunk.Code[offset+2]
		fmt.Fprintf(os.Stderr, "%04d %-16s %4d\n", offset, op, int(hi)<<8|int(lo))
	}
}
