package vm

import (
	"fmt"

	"github.com/mna/corvid/internal/diag"
	"github.com/mna/corvid/lang/value"
)

// fail builds a RuntimeError from the current call-frame stack. It is used
// by call-dispatch helpers that run before a frame for the callee exists
// yet, so the trace is taken from whatever frames are already live.
func (vm *VM) fail(format string, args ...interface{}) *diag.RuntimeError {
	return &diag.RuntimeError{
		Msg:   fmt.Sprintf(format, args...),
		Stack: vm.stackTrace(),
	}
}

// runtimeError is the run loop's error path: it records fr's current
// instruction pointer as the top-of-stack line before walking the rest of
// the call chain.
func (vm *VM) runtimeError(fr *callFrame, format string, args ...interface{}) (value.Value, *diag.RuntimeError) {
	return value.Null, &diag.RuntimeError{
		Msg:   fmt.Sprintf(format, args...),
		Stack: vm.stackTrace(),
	}
}

// stackTrace walks vm.frames most-recent first, naming the top-level frame
// "script" the way spec.md §7 requires.
func (vm *VM) stackTrace() []diag.StackFrame {
	trace := make([]diag.StackFrame, 0, len(vm.frames))
	for i := len(vm.frames) - 1; i >= 0; i-- {
		fr := &vm.frames[i]
		name := "script"
		if fn := fr.closure.Function; fn.Name != nil {
			name = fn.Name.Chars + "()"
		}
		trace = append(trace, diag.StackFrame{Line: vm.currentLine(fr), Name: name})
	}
	return trace
}
