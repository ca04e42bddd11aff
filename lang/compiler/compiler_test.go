package compiler_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/mna/corvid/lang/compiler"
	"github.com/mna/corvid/lang/gc"
	"github.com/mna/corvid/lang/value"
	"github.com/stretchr/testify/require"
)

func compileOK(t *testing.T, src string) *value.ObjFunction {
	t.Helper()
	fn, errs := compiler.Compile(gc.New(), src)
	require.False(t, errs.HasErrors(), "unexpected compile errors: %v", errs.Errs)
	require.NotNil(t, fn)
	return fn
}

func compileErr(t *testing.T, src string) []string {
	t.Helper()
	fn, errs := compiler.Compile(gc.New(), src)
	require.True(t, errs.HasErrors())
	require.Nil(t, fn)
	msgs := make([]string, len(errs.Errs))
	for i, e := range errs.Errs {
		msgs[i] = e.Msg
	}
	return msgs
}

func indexOfOp(code []byte, op value.OpCode) int {
	for i, b := range code {
		if value.OpCode(b) == op {
			return i
		}
	}
	return -1
}

func TestCompileArithmeticPrecedence(t *testing.T) {
	fn := compileOK(t, "print 1 + 2 * 3;")
	code := fn.Chunk.Code
	mulAt := indexOfOp(code, value.OpMultiply)
	addAt := indexOfOp(code, value.OpAdd)
	require.NotEqual(t, -1, mulAt)
	require.NotEqual(t, -1, addAt)
	require.Less(t, mulAt, addAt, "multiplication must be emitted before addition")
}

func TestCompileComparisonLowering(t *testing.T) {
	fn := compileOK(t, "print 1 >= 2; print 1 <= 2; print 1 != 2;")
	code := fn.Chunk.Code
	require.NotEqual(t, -1, indexOfOp(code, value.OpLess))
	require.NotEqual(t, -1, indexOfOp(code, value.OpGreater))
	require.NotEqual(t, -1, indexOfOp(code, value.OpEqual))
	require.NotEqual(t, -1, indexOfOp(code, value.OpNot))
}

func TestCompileGlobalVarRoundtrip(t *testing.T) {
	fn := compileOK(t, "var x = 10; print x;")
	code := fn.Chunk.Code
	require.NotEqual(t, -1, indexOfOp(code, value.OpDefineGlobal))
	require.NotEqual(t, -1, indexOfOp(code, value.OpGetGlobal))
}

func TestCompileSelfReferentialLocalInitializerErrors(t *testing.T) {
	msgs := compileErr(t, "fun f() { var a = a; }")
	require.Contains(t, msgs, "Can't read local variable in its own initializer.")
}

func TestCompileDuplicateLocalErrors(t *testing.T) {
	msgs := compileErr(t, "{ var a = 1; var a = 2; }")
	require.Contains(t, msgs, "Already a variable with this name in this scope.")
}

func TestCompileTooManyLocalsErrors(t *testing.T) {
	var b strings.Builder
	b.WriteString("fun f() {\n")
	for i := 0; i < 257; i++ {
		fmt.Fprintf(&b, "var a%d = %d;\n", i, i)
	}
	b.WriteString("}\n")

	msgs := compileErr(t, b.String())
	require.Contains(t, msgs, "Too many local variables in function.")
}

func TestCompileWithinLocalLimitSucceeds(t *testing.T) {
	var b strings.Builder
	b.WriteString("fun f() {\n")
	for i := 0; i < 255; i++ {
		fmt.Fprintf(&b, "var a%d = %d;\n", i, i)
	}
	b.WriteString("}\n")

	compileOK(t, b.String())
}

func TestCompileTooManyParametersErrors(t *testing.T) {
	var params []string
	for i := 0; i < 256; i++ {
		params = append(params, fmt.Sprintf("p%d", i))
	}
	src := fmt.Sprintf("fun f(%s) { return 0; }", strings.Join(params, ", "))
	msgs := compileErr(t, src)
	require.Contains(t, msgs, "Can't have more than 255 parameters.")
}

func TestCompileTooManyArgumentsErrors(t *testing.T) {
	var args []string
	for i := 0; i < 256; i++ {
		// "true" takes no constant slot, so the 256-constant pool limit is not
		// reached before the argument limit.
		args = append(args, "true")
	}
	src := fmt.Sprintf("fun f() { return 0; } f(%s);", strings.Join(args, ", "))
	msgs := compileErr(t, src)
	require.Contains(t, msgs, "Can't have more than 255 arguments.")
}

func TestCompileClassSelfInheritanceErrors(t *testing.T) {
	msgs := compileErr(t, "class A(A) {}")
	require.Contains(t, msgs, "A class can't inherit from itself.")
}

func TestCompileClassInheritanceEmitsInherit(t *testing.T) {
	fn := compileOK(t, "class A {} class B(A) { greet() { super.greet(); } }")
	require.NotEqual(t, -1, indexOfOp(fn.Chunk.Code, value.OpInherit))

	// super.greet() is compiled into the method's own chunk, not the script's.
	var greet *value.ObjFunction
	for _, k := range fn.Chunk.Constants {
		if k.IsObjType(value.ObjFunctionT) {
			greet = k.AsObj().(*value.ObjFunction)
		}
	}
	require.NotNil(t, greet)
	require.NotEqual(t, -1, indexOfOp(greet.Chunk.Code, value.OpSuperInvoke))
}

func TestCompileBreakIsUnsupported(t *testing.T) {
	msgs := compileErr(t, "while (true) { break; }")
	require.Contains(t, msgs, "Unsupported statement.")
}

func TestCompileReturnOutsideFunctionErrors(t *testing.T) {
	msgs := compileErr(t, "return 1;")
	require.Contains(t, msgs, "Can't return from top-level code.")
}

func TestCompileReturnValueFromInitializerErrors(t *testing.T) {
	msgs := compileErr(t, "class A { init() { return 1; } }")
	require.Contains(t, msgs, "Can't return a value from an initializer.")
}

func TestCompileClosureCapturesEnclosingLocal(t *testing.T) {
	fn := compileOK(t, `
fun outer() {
  var x = 1;
  fun inner() {
    return x;
  }
  return inner;
}
`)
	require.NotEqual(t, -1, indexOfOp(fn.Chunk.Code, value.OpClosure))
}

func TestCompileUnterminatedStringReportsScannerError(t *testing.T) {
	msgs := compileErr(t, `print "oops;`)
	require.Contains(t, msgs, "Unterminated string.")
}

func TestCompileInvalidAssignmentTargetErrors(t *testing.T) {
	msgs := compileErr(t, "1 + 2 = 3;")
	require.Contains(t, msgs, "Invalid assignment target.")
}

func TestCompileJumpWithinLimitSucceeds(t *testing.T) {
	var b strings.Builder
	b.WriteString("if (true) {\n")
	b.WriteString(strings.Repeat("print 0;\n", 100))
	b.WriteString("} else {}\n")
	compileOK(t, b.String())
}

func TestCompileJumpExceedingLimitErrors(t *testing.T) {
	var b strings.Builder
	b.WriteString("if (true) {\n")
	// each "print true;" emits OP_TRUE(1) + OP_PRINT(1) = 2 bytes and uses no
	// constant slot; 35000 of them comfortably exceed the 65535-byte jump
	// operand limit.
	b.WriteString(strings.Repeat("print true;\n", 35000))
	b.WriteString("} else {}\n")

	msgs := compileErr(t, b.String())
	require.Contains(t, msgs, "Too much code to jump over.")
}

func TestCompileMultipleErrorsRecoverViaSynchronize(t *testing.T) {
	msgs := compileErr(t, "var ; var ; var x = 1;")
	require.Len(t, msgs, 2)
}
