package compile

import (
	"strings"
	"testing"

	"github.com/nocc-go/nocc/ir/irtest"
)

// mustCompile runs src through the whole pipeline against a fresh irtest
// backend and fails the test on any stage error, mirroring the teacher's
// transpileCompileRun helper (build, then hand back the artifact for the
// caller to inspect) with "run the binary" replaced by "inspect the
// recorded IR trace", since this module has no JIT backend to execute
// the emitted IR against.
func mustCompile(t *testing.T, name, src string) string {
	t.Helper()

	b := irtest.New(name)
	mod, err := Compile(name, src, b)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	if err := mod.Verify(); err != nil {
		t.Fatalf("module failed verification: %v\n%s", err, mod.String())
	}
	return mod.String()
}

func TestCompileSimpleFunction(t *testing.T) {
	out := mustCompile(t, "add3", "int add3(int a) { return a+3; }")
	if !strings.Contains(out, "define i32 @add3(i32)") {
		t.Fatalf("expected a defined add3 function, got:\n%s", out)
	}
	if !strings.Contains(out, "ret i32") {
		t.Fatalf("expected a ret instruction, got:\n%s", out)
	}
}

func TestCompileRecursiveFunction(t *testing.T) {
	out := mustCompile(t, "factorial",
		"int factorial(int n) {\n"+
			"  if (n <= 0) return 1;\n"+
			"  return n*factorial(n-1);\n"+
			"}\n")
	if !strings.Contains(out, "call i32 @factorial") {
		t.Fatalf("expected a recursive call, got:\n%s", out)
	}
}

func TestCompileLocalVariables(t *testing.T) {
	out := mustCompile(t, "variables",
		"int variables(int n) {\n"+
			"  int a;\n"+
			"  int b;\n"+
			"  a = b = n;\n"+
			"  a = a + 1;\n"+
			"  return a * b;\n"+
			"}\n")
	if strings.Count(out, "alloca i32") < 3 {
		t.Fatalf("expected alloca slots for n, a, and b, got:\n%s", out)
	}
}

func TestCompileGlobalVariable(t *testing.T) {
	out := mustCompile(t, "global2",
		"int a;\n"+
			"int global2(int n) {\n"+
			"  a = n;\n"+
			"  return a;\n"+
			"}\n")
	if !strings.Contains(out, "@a = global i32") {
		t.Fatalf("expected a global slot for a, got:\n%s", out)
	}
}

func TestCompileWhileLoop(t *testing.T) {
	out := mustCompile(t, "sum",
		"int sum(int n) {\n"+
			"  int sum;\n"+
			"  int i;\n"+
			"  sum = 0;\n"+
			"  i = 1;\n"+
			"  while (i <= n) {\n"+
			"    sum = sum + i;\n"+
			"    i = i + 1;\n"+
			"  }\n"+
			"  return sum;\n"+
			"}\n")
	if !strings.Contains(out, "while.cond:") || !strings.Contains(out, "while.body:") {
		t.Fatalf("expected while.cond/while.body blocks, got:\n%s", out)
	}
}

func TestCompileForLoop(t *testing.T) {
	out := mustCompile(t, "sum2",
		"int sum2(int n) {\n"+
			"  int sum;\n"+
			"  int i;\n"+
			"  sum = 0;\n"+
			"  for (i = 1; i <= n; i = i + 1) {\n"+
			"    sum = sum + i;\n"+
			"  }\n"+
			"  return sum;\n"+
			"}\n")
	if !strings.Contains(out, "for.cond:") || !strings.Contains(out, "for.cont:") {
		t.Fatalf("expected for.cond/for.cont blocks, got:\n%s", out)
	}
}

func TestCompileDoWhileLoop(t *testing.T) {
	out := mustCompile(t, "do_while",
		"int do_while(int n) {\n"+
			"  do {\n"+
			"    n = n + 1;\n"+
			"  } while (n < 0);\n"+
			"  return n;\n"+
			"}\n")
	if !strings.Contains(out, "do.body:") || !strings.Contains(out, "do.cond:") {
		t.Fatalf("expected do.body/do.cond blocks, got:\n%s", out)
	}
}

func TestCompileContinueInForLoop(t *testing.T) {
	out := mustCompile(t, "continue_",
		"int continue_(int n) {\n"+
			"  int a; int i;\n"+
			"  a = 0;\n"+
			"  for (i = 0; i < n; i = i + 1) {\n"+
			"    if (i < 5) continue;\n"+
			"    a = a + i;\n"+
			"  }\n"+
			"  return a;\n"+
			"}\n")
	if !strings.Contains(out, "br") {
		t.Fatalf("expected branch instructions, got:\n%s", out)
	}
}

func TestCompilePointerChain(t *testing.T) {
	out := mustCompile(t, "pointer3",
		"int pointer3(int n) {\n"+
			"  int a;\n"+
			"  int *p;\n"+
			"  int **pp;\n"+
			"  p = &a;\n"+
			"  pp = &p;\n"+
			"  **pp = n + 2;\n"+
			"  return a;\n"+
			"}\n")
	if !strings.Contains(out, "alloca i32**") {
		t.Fatalf("expected pp's slot to hold a pointer-to-pointer, got:\n%s", out)
	}
}

func TestCompileStructByValueAssignment(t *testing.T) {
	out := mustCompile(t, "struct_",
		"int struct_(int n) {\n"+
			"  struct tag {\n"+
			"    int x;\n"+
			"    int y;\n"+
			"  } a;\n"+
			"  struct tag b;\n"+
			"  a.x = 10;\n"+
			"  a.y = n;\n"+
			"  b = a;\n"+
			"  return b.x * b.y;\n"+
			"}\n")
	if !strings.Contains(out, "%tag = type { i32, i32 }") {
		t.Fatalf("expected a named struct type definition, got:\n%s", out)
	}
	if !strings.Contains(out, "getelementptr") {
		t.Fatalf("expected getelementptr for member access, got:\n%s", out)
	}
}

func TestCompileStructReturnedByValue(t *testing.T) {
	out := mustCompile(t, "struct2",
		"struct tag {\n"+
			"  int x;\n"+
			"  int y;\n"+
			"} f(int x, int y) {\n"+
			"  struct tag a;\n"+
			"  a.x = x;\n"+
			"  a.y = y;\n"+
			"  return a;\n"+
			"}\n"+
			"int struct2(int n) {\n"+
			"  return f(n, 2 * n).y;\n"+
			"}\n")
	if !strings.Contains(out, "define %tag @f") {
		t.Fatalf("expected f to return the struct by value, got:\n%s", out)
	}
}

func TestCompileTypedefParameter(t *testing.T) {
	out := mustCompile(t, "typedef2",
		"typedef int a;\n"+
			"int typedef2(a n) {\n"+
			"  return n;\n"+
			"}\n")
	if !strings.Contains(out, "define i32 @typedef2(i32)") {
		t.Fatalf("expected the typedef to resolve to i32, got:\n%s", out)
	}
}

func TestCompileCastExpressions(t *testing.T) {
	out := mustCompile(t, "cast",
		"int cast(int n) {\n"+
			"  int *p;\n"+
			"  p = (int*)0;\n"+
			"  return 9;\n"+
			"}\n")
	if !strings.Contains(out, "inttoptr") {
		t.Fatalf("expected an inttoptr conversion for the null cast, got:\n%s", out)
	}
}

func TestCompileStringLiteralCall(t *testing.T) {
	out := mustCompile(t, "string",
		"int strlen(const char *s);\n"+
			"int string(int n) {\n"+
			"  return strlen(\"Hello, world!\\n\");\n"+
			"}\n")
	if !strings.Contains(out, "declare i32 @strlen") {
		t.Fatalf("expected strlen declared, got:\n%s", out)
	}
	if !strings.Contains(out, "private constant") {
		t.Fatalf("expected an interned string constant, got:\n%s", out)
	}
}

func TestCompileVariadicCallWithExtraArguments(t *testing.T) {
	out := mustCompile(t, "printf_",
		"int printf(const char *fmt, ...);\n"+
			"int printf_(int n) {\n"+
			"  return printf(\"%d %d\\n\", n, n + 1);\n"+
			"}\n")
	if !strings.Contains(out, "declare i32 @printf") {
		t.Fatalf("expected printf declared, got:\n%s", out)
	}
	if strings.Count(out, "call i32 @printf") != 1 {
		t.Fatalf("expected one call to printf with its extra arguments lowered, got:\n%s", out)
	}
}

func TestCompileForwardDeclaration(t *testing.T) {
	out := mustCompile(t, "forward",
		"int f(void);\n"+
			"int forward(int n) {\n"+
			"  return f();\n"+
			"}\n"+
			"int f(void) {\n"+
			"  return 42;\n"+
			"}\n")
	if strings.Count(out, "@f") < 2 {
		t.Fatalf("expected both the call site and the definition to reference f, got:\n%s", out)
	}
	if !strings.Contains(out, "define i32 @f()") {
		t.Fatalf("expected f defined (not just declared), got:\n%s", out)
	}
}

func TestCompileRejectsUndeclaredSymbol(t *testing.T) {
	b := irtest.New("bad")
	_, err := Compile("bad", "int f(void) { return missing; }", b)
	if err == nil {
		t.Fatalf("expected a compile error for an undeclared symbol")
	}
}

func TestCompileRejectsBreakOutsideLoop(t *testing.T) {
	b := irtest.New("bad2")
	_, err := Compile("bad2", "int f(void) { break; return 0; }", b)
	if err == nil {
		t.Fatalf("expected a compile error for break outside a loop")
	}
}
