package maincmd

import (
	"fmt"
	"os"

	"github.com/mna/mainer"
	"github.com/mna/corvid/internal/chunkfmt"
	"github.com/mna/corvid/lang/compiler"
	"github.com/mna/corvid/lang/gc"
	"github.com/mna/corvid/lang/value"
)

// disassembleFiles compiles each file (without running it) and prints its
// bytecode, per SPEC_FULL.md §9's "disassemble" subcommand. Nested
// functions discovered in a chunk's constant pool are dumped too, depth
// first, the way DEBUG_PRINT_CODE dumps every function's chunk as it
// finishes compiling (spec.md §6).
func (c *Cmd) disassembleFiles(stdio mainer.Stdio, paths []string) mainer.ExitCode {
	code := mainer.Success
	for _, path := range paths {
		src, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(stdio.Stderr, "%s: %s\n", path, err)
			code = exitIOError
			continue
		}

		g := gc.New()
		fn, errs := compiler.Compile(g, string(src))
		if errs.HasErrors() {
			errs.PrintTo(stdio.Stderr)
			code = exitCompileError
			continue
		}

		fmt.Fprintf(stdio.Stdout, "== %s ==\n", path)
		dumpFunction(stdio, fn)
	}
	return code
}

func dumpFunction(stdio mainer.Stdio, fn *value.ObjFunction) {
	name := "<script>"
	if fn.Name != nil {
		name = fn.Name.Chars
	}
	fmt.Fprint(stdio.Stdout, chunkfmt.Disassemble(fn.Chunk, name))
	for _, k := range fn.Chunk.Constants {
		if k.IsObjType(value.ObjFunctionT) {
			dumpFunction(stdio, k.AsObj().(*value.ObjFunction))
		}
	}
}
