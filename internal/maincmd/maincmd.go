// Package maincmd implements the CLI entry point of spec.md §6: a REPL when
// invoked with no path, a one-shot file runner when invoked with one, and
// (the domain-stack expansion of SPEC_FULL.md §9) "tokenize" and
// "disassemble" inspection subcommands. The overall shape — a Cmd struct
// with exported `flag:"..."` fields, SetArgs/SetFlags/Validate satisfying
// mainer.Command, and one method per subcommand — is carried over from the
// teacher's own internal/maincmd, which drives its parse/resolve/tokenize
// trio through github.com/mna/mainer the same way.
package maincmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/mna/mainer"
)

const binName = "corvid"

var (
	shortUsage = fmt.Sprintf(`
usage: %s [<path>]
       %[1]s tokenize <path>...
       %[1]s disassemble <path>...
Run '%[1]s --help' for details.
`, binName)

	longUsage = fmt.Sprintf(`usage: %s [<path>]
       %[1]s tokenize <path>...
       %[1]s disassemble <path>...
       %[1]s -h|--help
       %[1]s -v|--version

Compiler and virtual machine for the %[1]s scripting language.

With no path, %[1]s starts a REPL that compiles and runs one line of
source at a time, keeping globals and the string intern table alive across
lines. With one path, it compiles and runs the named source file, exiting
65 on a compile error, 70 on a runtime error, 74 if the file cannot be
read, and 0 on success.

The <command> can instead be one of:
       tokenize <path>...        Print the token stream the scanner
                                 produces for each file.
       disassemble <path>...     Compile each file and print its bytecode.

Valid flag options are:
       -h --help                 Show this help and exit.
       -v --version              Print version and exit.

More information on the %[1]s repository:
       https://github.com/mna/corvid
`, binName)
)

// Cmd is the top-level command, parsed and run by github.com/mna/mainer.
type Cmd struct {
	BuildVersion string
	BuildDate    string

	Help    bool `flag:"h,help"`
	Version bool `flag:"v,version"`

	args []string
}

// SetArgs implements mainer.Command.
func (c *Cmd) SetArgs(args []string) { c.args = args }

// SetFlags implements mainer.Command. This command has no boolean flags
// that need the raw was-it-set map, unlike the teacher's --with-comments.
func (c *Cmd) SetFlags(map[string]bool) {}

// Validate implements mainer.Command.
func (c *Cmd) Validate() error {
	if c.Help || c.Version {
		return nil
	}
	if len(c.args) == 0 {
		return nil
	}
	switch c.args[0] {
	case "tokenize", "disassemble":
		if len(c.args[1:]) == 0 {
			return fmt.Errorf("%s: at least one file must be provided", c.args[0])
		}
	default:
		if len(c.args) > 1 {
			return fmt.Errorf("usage: %s [<path>]", binName)
		}
	}
	return nil
}

// Exit codes per spec.md §6.
const (
	exitCompileError mainer.ExitCode = 65
	exitRuntimeError mainer.ExitCode = 70
	exitIOError      mainer.ExitCode = 74
)

// Main implements mainer.Command.
func (c *Cmd) Main(args []string, stdio mainer.Stdio) mainer.ExitCode {
	p := mainer.Parser{
		EnvVars:   false,
		EnvPrefix: strings.ToUpper(binName) + "_",
	}
	if err := p.Parse(args, c); err != nil {
		fmt.Fprintf(stdio.Stderr, "invalid arguments: %s\n%s", err, shortUsage)
		return mainer.InvalidArgs
	}

	switch {
	case c.Help:
		fmt.Fprint(stdio.Stdout, longUsage)
		return mainer.Success
	case c.Version:
		fmt.Fprintf(stdio.Stdout, "%s %s %s\n", binName, c.BuildVersion, c.BuildDate)
		return mainer.Success
	}

	ctx := mainer.CancelOnSignal(context.Background(), os.Interrupt)

	switch {
	case len(c.args) == 0:
		return c.repl(ctx, stdio)
	case c.args[0] == "tokenize":
		return c.tokenizeFiles(stdio, c.args[1:])
	case c.args[0] == "disassemble":
		return c.disassembleFiles(stdio, c.args[1:])
	default:
		return c.runFile(stdio, c.args[0])
	}
}
