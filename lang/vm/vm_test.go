package vm_test

import (
	"bytes"
	"testing"

	"github.com/mna/corvid/lang/compiler"
	"github.com/mna/corvid/lang/gc"
	"github.com/mna/corvid/lang/value"
	"github.com/mna/corvid/lang/vm"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, src string) (string, *value.Value) {
	t.Helper()
	g := gc.New()
	fn, errs := compiler.Compile(g, src)
	require.False(t, errs.HasErrors(), "unexpected compile errors: %v", errs.Errs)

	var out bytes.Buffer
	m := vm.New(g, &out)
	result, rerr := m.Interpret(fn)
	require.Nil(t, rerr, "unexpected runtime error")
	return out.String(), &result
}

func TestEndToEndArithmeticPrecedence(t *testing.T) {
	out, _ := run(t, "print 1 + 2 * 3;")
	require.Equal(t, "7\n", out)
}

func TestEndToEndStringConcat(t *testing.T) {
	out, _ := run(t, `var a="hi "; print a + "there";`)
	require.Equal(t, "hi there\n", out)
}

func TestEndToEndRecursion(t *testing.T) {
	out, _ := run(t, "fun f(n){ if (n<2) return n; return f(n-1)+f(n-2); } print f(10);")
	require.Equal(t, "55\n", out)
}

func TestEndToEndClosureSharedUpvalue(t *testing.T) {
	out, _ := run(t, `fun outer(){ var x=1; fun inner(){ x=x+1; print x; } return inner; } var c=outer(); c(); c();`)
	require.Equal(t, "2\n3\n", out)
}

func TestEndToEndInheritanceAndSuper(t *testing.T) {
	out, _ := run(t, `class A{ greet(){ print "hi"; } } class B(A){ greet(){ super.greet(); print "hey"; } } B().greet();`)
	require.Equal(t, "hi\nhey\n", out)
}

func TestEndToEndForLoop(t *testing.T) {
	out, _ := run(t, "for (var i=0; i<3; i=i+1) print i;")
	require.Equal(t, "0\n1\n2\n", out)
}

func TestStringInterningPointerIdentity(t *testing.T) {
	g := gc.New()
	fn, errs := compiler.Compile(g, `var a = "same"; var b = "same"; print a == b;`)
	require.False(t, errs.HasErrors())

	var out bytes.Buffer
	m := vm.New(g, &out)
	_, rerr := m.Interpret(fn)
	require.Nil(t, rerr)
	require.Equal(t, "true\n", out.String())
}

func TestForLoopStackBalance(t *testing.T) {
	out, _ := run(t, "var total = 0; for (var i=0; i<5; i=i+1) total = total + i; print total;")
	require.Equal(t, "10\n", out)
}

func TestDivisionByZeroProducesInf(t *testing.T) {
	out, _ := run(t, "print 1 / 0;")
	require.Equal(t, "+Inf\n", out)
}

func TestArithmeticTypeMismatch(t *testing.T) {
	g := gc.New()
	fn, errs := compiler.Compile(g, `print 1 + "two";`)
	require.False(t, errs.HasErrors())

	var out bytes.Buffer
	m := vm.New(g, &out)
	_, rerr := m.Interpret(fn)
	require.NotNil(t, rerr)
	require.Equal(t, "Operands must be two numbers or two strings.", rerr.Msg)
}

func TestComparisonTypeMismatch(t *testing.T) {
	g := gc.New()
	fn, errs := compiler.Compile(g, `print 1 < "two";`)
	require.False(t, errs.HasErrors())

	var out bytes.Buffer
	m := vm.New(g, &out)
	_, rerr := m.Interpret(fn)
	require.NotNil(t, rerr)
	require.Equal(t, "Operands must be numbers.", rerr.Msg)
}

func TestRuntimeErrorStackTraceNamesCallers(t *testing.T) {
	g := gc.New()
	fn, errs := compiler.Compile(g, `
fun inner() { return 1 + "a"; }
fun outer() { return inner(); }
outer();
`)
	require.False(t, errs.HasErrors())

	var out bytes.Buffer
	m := vm.New(g, &out)
	_, rerr := m.Interpret(fn)
	require.NotNil(t, rerr)
	require.Len(t, rerr.Stack, 3)
	require.Equal(t, "inner()", rerr.Stack[0].Name)
	require.Equal(t, "outer()", rerr.Stack[1].Name)
	require.Equal(t, "script", rerr.Stack[2].Name)
}

func TestNativeClock(t *testing.T) {
	out, _ := run(t, "print clock() > 0;")
	require.Equal(t, "true\n", out)
}

func TestNativeListRoundTrip(t *testing.T) {
	out, _ := run(t, `
var l = newList();
push(l, 1);
push(l, 2);
push(l, 3);
print length(l);
print get(l, 1);
`)
	require.Equal(t, "3\n2\n", out)
}

func TestNativeLengthOnString(t *testing.T) {
	out, _ := run(t, `print length("hello");`)
	require.Equal(t, "5\n", out)
}

func TestUndefinedGlobalRuntimeError(t *testing.T) {
	g := gc.New()
	fn, errs := compiler.Compile(g, "print nope;")
	require.False(t, errs.HasErrors())

	var out bytes.Buffer
	m := vm.New(g, &out)
	_, rerr := m.Interpret(fn)
	require.NotNil(t, rerr)
	require.Equal(t, "Undefined variable 'nope'.", rerr.Msg)
}

func TestFieldShadowsMethodOnInvoke(t *testing.T) {
	out, _ := run(t, `
class Box { greet() { print "method"; } }
var b = Box();
fun say() { print "field"; }
b.greet = say;
b.greet();
`)
	require.Equal(t, "field\n", out)
}
