package maincmd

import (
	"fmt"
	"os"

	"github.com/mna/mainer"
	"github.com/mna/corvid/lang/interp"
)

// runFile implements spec.md §6's one-arg file-runner mode: read the whole
// file as UTF-8 bytes, interpret it, and translate the result into the
// mandated exit code.
func (c *Cmd) runFile(stdio mainer.Stdio, path string) mainer.ExitCode {
	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(stdio.Stderr, "%s: %s\n", path, err)
		return exitIOError
	}

	m := interp.New(stdio.Stdout)
	switch m.Run(string(src), stdio.Stderr) {
	case interp.CompileError:
		return exitCompileError
	case interp.RuntimeError:
		return exitRuntimeError
	default:
		return mainer.Success
	}
}
