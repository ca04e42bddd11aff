package interp_test

import (
	"bytes"
	"testing"

	"github.com/mna/corvid/lang/interp"
	"github.com/stretchr/testify/require"
)

func TestRunOK(t *testing.T) {
	var out, errs bytes.Buffer
	m := interp.New(&out)
	result := m.Run("print 1 + 2 * 3;", &errs)
	require.Equal(t, interp.OK, result)
	require.Equal(t, "7\n", out.String())
	require.Empty(t, errs.String())
}

func TestRunCompileError(t *testing.T) {
	var out, errs bytes.Buffer
	m := interp.New(&out)
	result := m.Run("fun f() { var a = a; }", &errs)
	require.Equal(t, interp.CompileError, result)
	require.Contains(t, errs.String(), "Can't read local variable in its own initializer")
}

func TestRunRuntimeError(t *testing.T) {
	var out, errs bytes.Buffer
	m := interp.New(&out)
	result := m.Run(`print 1 + "a";`, &errs)
	require.Equal(t, interp.RuntimeError, result)
	require.NotEmpty(t, errs.String())
}

// A Machine persists its globals and intern table across Run calls, the way
// a REPL session accumulates state line by line (spec.md §6).
func TestRunPersistsGlobalsAcrossCalls(t *testing.T) {
	var out, errs bytes.Buffer
	m := interp.New(&out)
	require.Equal(t, interp.OK, m.Run("var counter = 0;", &errs))
	require.Equal(t, interp.OK, m.Run("counter = counter + 1; print counter;", &errs))
	require.Equal(t, interp.OK, m.Run("counter = counter + 1; print counter;", &errs))
	require.Equal(t, "1\n2\n", out.String())
}

// A compile error on one REPL line must not corrupt the session: subsequent
// lines still see the globals established before the bad line.
func TestRunRecoversAfterCompileError(t *testing.T) {
	var out, errs bytes.Buffer
	m := interp.New(&out)
	require.Equal(t, interp.OK, m.Run("var x = 1;", &errs))
	require.Equal(t, interp.CompileError, m.Run("var x = ;", &errs))
	errs.Reset()
	require.Equal(t, interp.OK, m.Run("print x;", &errs))
	require.Equal(t, "1\n", out.String())
}
