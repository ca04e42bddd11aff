package maincmd

import (
	"bufio"
	"context"
	"fmt"

	"github.com/mna/mainer"
	"github.com/mna/corvid/lang/interp"
)

// repl implements spec.md §6's no-arg mode: prompt "> ", read one line,
// interpret it against a Machine that persists across lines (globals, the
// intern table, and the heap survive from one prompt to the next), print
// any output a print statement produces. A compile or runtime error on one
// line is reported and the REPL keeps going, mirroring the teacher's own
// "don't die on one bad line" REPL posture.
func (c *Cmd) repl(ctx context.Context, stdio mainer.Stdio) mainer.ExitCode {
	m := interp.New(stdio.Stdout)
	scan := bufio.NewScanner(stdio.Stdin)

	for {
		select {
		case <-ctx.Done():
			return mainer.Success
		default:
		}

		fmt.Fprint(stdio.Stdout, "> ")
		if !scan.Scan() {
			fmt.Fprintln(stdio.Stdout)
			return mainer.Success
		}
		m.Run(scan.Text(), stdio.Stderr)
	}
}
