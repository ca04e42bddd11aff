// Package interp wires the compiler, GC, and VM together behind the single
// embedder entry point spec.md §6 specifies: interpret(source) -> {OK,
// COMPILE_ERROR, RUNTIME_ERROR}. The CLI's file runner and REPL go through
// here rather than calling compiler.Compile and vm.VM.Interpret themselves,
// the way the teacher's own maincmd never constructs a machine.Thread itself
// but always goes through a package-level driver function. The disassemble
// subcommand, which compiles without running, calls compiler.Compile
// directly, as do the compiler and vm package tests.
package interp

import (
	"fmt"
	"io"

	"github.com/mna/corvid/internal/chunkfmt"
	"github.com/mna/corvid/internal/debugflags"
	"github.com/mna/corvid/lang/compiler"
	"github.com/mna/corvid/lang/gc"
	"github.com/mna/corvid/lang/value"
	"github.com/mna/corvid/lang/vm"
)

// Result is the three-way outcome of interpret(), spec.md §6.
type Result int

const (
	OK Result = iota
	CompileError
	RuntimeError
)

// Machine bundles the GC and VM an embedder keeps alive across REPL lines:
// globals, the string intern table, and the heap persist from one Run call
// to the next, matching the REPL's "one growing session" semantics (spec.md
// §6) as opposed to the file-runner's one-shot Run.
type Machine struct {
	GC *gc.GC
	VM *vm.VM
}

// New returns a Machine with a fresh heap and VM, output directed to out.
func New(out io.Writer) *Machine {
	g := gc.New()
	return &Machine{GC: g, VM: vm.New(g, out)}
}

// Run compiles and executes source against m, printing compile or runtime
// diagnostics to errOut. It implements spec.md §6's interpret(source).
func (m *Machine) Run(source string, errOut io.Writer) Result {
	fn, errs := compiler.Compile(m.GC, source)
	if errs.HasErrors() {
		errs.PrintTo(errOut)
		return CompileError
	}

	if debugflags.PrintCode {
		var dump func(f *value.ObjFunction)
		dump = func(f *value.ObjFunction) {
			name := "<script>"
			if f.Name != nil {
				name = f.Name.Chars
			}
			fmt.Fprint(errOut, chunkfmt.Disassemble(f.Chunk, name))
			for _, k := range f.Chunk.Constants {
				if k.IsObjType(value.ObjFunctionT) {
					dump(k.AsObj().(*value.ObjFunction))
				}
			}
		}
		dump(fn)
	}

	_, rerr := m.VM.Interpret(fn)
	if rerr != nil {
		rerr.PrintTo(errOut)
		return RuntimeError
	}
	return OK
}
