package maincmd

import (
	"bytes"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/mna/mainer"
	"github.com/mna/corvid/internal/filetest"
	"github.com/stretchr/testify/require"
)

var updateTokenizeTests = flag.Bool("test.update-tokenize-tests", false, "update tokenize golden files")

func TestTokenizeFiles(t *testing.T) {
	const dir = "testdata"
	for _, fi := range filetest.SourceFiles(t, dir, ".lang") {
		fi := fi
		t.Run(fi.Name(), func(t *testing.T) {
			var out, errOut bytes.Buffer
			stdio := mainer.Stdio{Stdout: &out, Stderr: &errOut}
			c := &Cmd{}
			code := c.tokenizeFiles(stdio, []string{filepath.Join(dir, fi.Name())})
			require.Equal(t, mainer.Success, code)
			require.Empty(t, errOut.String())
			filetest.DiffOutput(t, fi, out.String(), dir, updateTokenizeTests)
		})
	}
}

func TestTokenizeFilesReportsIOError(t *testing.T) {
	var out, errOut bytes.Buffer
	stdio := mainer.Stdio{Stdout: &out, Stderr: &errOut}
	c := &Cmd{}
	code := c.tokenizeFiles(stdio, []string{"testdata/does-not-exist.lang"})
	require.Equal(t, exitIOError, code)
	require.NotEmpty(t, errOut.String())
}

func TestDisassembleFilesReportsCompileError(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.lang")
	require.NoError(t, writeFile(bad, "fun f() { var a = a; }"))

	var out, errOut bytes.Buffer
	stdio := mainer.Stdio{Stdout: &out, Stderr: &errOut}
	c := &Cmd{}
	code := c.disassembleFiles(stdio, []string{bad})
	require.Equal(t, exitCompileError, code)
	require.Contains(t, errOut.String(), "Can't read local variable in its own initializer")
}

func TestRunFileSuccess(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.lang")
	require.NoError(t, writeFile(good, "print 1 + 2;"))

	var out, errOut bytes.Buffer
	stdio := mainer.Stdio{Stdout: &out, Stderr: &errOut}
	c := &Cmd{}
	code := c.runFile(stdio, good)
	require.Equal(t, mainer.Success, code)
	require.Equal(t, "3\n", out.String())
}

func TestValidate(t *testing.T) {
	c := &Cmd{}
	require.NoError(t, c.Validate())

	c = &Cmd{}
	c.SetArgs([]string{"one.lang"})
	require.NoError(t, c.Validate())

	c = &Cmd{}
	c.SetArgs([]string{"one.lang", "two.lang"})
	require.Error(t, c.Validate())

	c = &Cmd{}
	c.SetArgs([]string{"tokenize"})
	require.Error(t, c.Validate())

	c = &Cmd{}
	c.SetArgs([]string{"tokenize", "one.lang"})
	require.NoError(t, c.Validate())
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}
