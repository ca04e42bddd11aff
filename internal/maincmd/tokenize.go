package maincmd

import (
	"fmt"
	"os"

	"github.com/mna/mainer"
	"github.com/mna/corvid/lang/scanner"
	"github.com/mna/corvid/lang/token"
)

// tokenizeFiles runs the scanner alone over each file and prints its token
// stream, one token per line, in the SPEC_FULL.md §9 domain-stack
// "tokenize" subcommand (the teacher's own Tokenize/TokenizeFiles pair,
// rebuilt against this language's lazy single-pass scanner.Scanner instead
// of the teacher's eager whole-file ScanFiles).
func (c *Cmd) tokenizeFiles(stdio mainer.Stdio, paths []string) mainer.ExitCode {
	code := mainer.Success
	for _, path := range paths {
		src, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(stdio.Stderr, "%s: %s\n", path, err)
			code = exitIOError
			continue
		}
		fmt.Fprintf(stdio.Stdout, "== %s ==\n", path)
		s := scanner.New(string(src))
		for {
			tok := s.Scan()
			fmt.Fprintf(stdio.Stdout, "%4d %-18s %q\n", tok.Line, tok.Kind, tok.Lexeme)
			if tok.Kind == token.EOF {
				break
			}
		}
	}
	return code
}
