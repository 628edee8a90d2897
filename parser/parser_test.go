package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nocc-go/nocc/ast"
	"github.com/nocc-go/nocc/lexer"
	"github.com/nocc-go/nocc/preproc"
	"github.com/nocc-go/nocc/types"
)

func parse(t *testing.T, src string) (*ast.TranslationUnit, error) {
	t.Helper()
	toks, err := lexer.Tokenize("test.c", src)
	require.NoError(t, err)
	toks, err = preproc.Process("test.c", toks)
	require.NoError(t, err)
	return Parse("test.c", toks)
}

func mustParse(t *testing.T, src string) *ast.TranslationUnit {
	t.Helper()
	tu, err := parse(t, src)
	require.NoError(t, err)
	return tu
}

func TestParsesSimpleFunction(t *testing.T) {
	tu := mustParse(t, "int add3(int a, int b, int c) { return a + b + c; }")
	require.Len(t, tu.Decls, 1)
	fn, ok := tu.Decls[0].(*ast.FuncDecl)
	require.True(t, ok)
	assert.Equal(t, "add3", fn.Name)
	assert.Len(t, fn.Params, 3)
	require.NotNil(t, fn.Body)
	require.Len(t, fn.Body.Stmts, 1)
	ret, ok := fn.Body.Stmts[0].(*ast.ReturnStmt)
	require.True(t, ok)
	assert.True(t, types.IsInt32(ret.Value.ExprType()))
}

func TestFunctionPrototypeHasNilBody(t *testing.T) {
	tu := mustParse(t, "int f(int x);")
	fn := tu.Decls[0].(*ast.FuncDecl)
	assert.Nil(t, fn.Body)
}

func TestGlobalVariableDeclaration(t *testing.T) {
	tu := mustParse(t, "int counter;")
	v, ok := tu.Decls[0].(*ast.VarDecl)
	require.True(t, ok)
	assert.True(t, v.Global)
	assert.True(t, types.IsInt32(v.Type))
}

func TestLocalVariablesAreCollected(t *testing.T) {
	tu := mustParse(t, "int f(void) { int a; int b; a = 1; b = 2; return a + b; }")
	fn := tu.Decls[0].(*ast.FuncDecl)
	require.Len(t, fn.Locals, 2)
	assert.Equal(t, "a", fn.Locals[0].Name)
	assert.Equal(t, "b", fn.Locals[1].Name)
}

func TestAssignmentToRvalueIsRejected(t *testing.T) {
	_, err := parse(t, "int f(void) { 1 = 2; return 0; }")
	require.Error(t, err)
}

func TestMismatchedBinaryOperandTypesRejected(t *testing.T) {
	_, err := parse(t, "struct s { int x; }; int f(void) { struct s a; struct s b; return a + 1; }")
	require.Error(t, err)
}

func TestUndeclaredSymbolIsRejected(t *testing.T) {
	_, err := parse(t, "int f(void) { return missing; }")
	require.Error(t, err)
}

func TestRedeclarationInSameScopeIsRejected(t *testing.T) {
	_, err := parse(t, "int f(void) { int a; int a; return 0; }")
	require.Error(t, err)
}

func TestShadowingInNestedScopeIsAllowed(t *testing.T) {
	tu, err := parse(t, "int f(int a) { { int a; a = 1; } return a; }")
	require.NoError(t, err)
	assert.NotNil(t, tu)
}

func TestBreakOutsideLoopIsRejected(t *testing.T) {
	_, err := parse(t, "int f(void) { break; return 0; }")
	require.Error(t, err)
}

func TestBreakInsideWhileIsAccepted(t *testing.T) {
	_, err := parse(t, "int f(void) { while (1) { break; } return 0; }")
	require.NoError(t, err)
}

func TestContinueInsideNestedIfInsideLoopIsAccepted(t *testing.T) {
	// the control-flow bitmask must survive through a non-loop construct
	// (if) nested inside a loop.
	_, err := parse(t, "int f(void) { while (1) { if (1) { continue; } } return 0; }")
	require.NoError(t, err)
}

func TestStructDefinitionAndMemberAccess(t *testing.T) {
	tu := mustParse(t, "struct point { int x; int y; }; int f(void) { struct point p; p.x = 1; return p.x; }")
	require.Len(t, tu.Decls, 1) // the struct definition alone registers a type, not a top-level decl
	fn := tu.Decls[0].(*ast.FuncDecl)
	exprStmt := fn.Body.Stmts[1].(*ast.ExprStmt)
	assign := exprStmt.Value.(*ast.BinaryExpr)
	dot := assign.Left.(*ast.DotExpr)
	assert.Equal(t, "x", dot.Field)
	assert.Equal(t, 0, dot.Index)
}

func TestEmptyStructBodyIsRejected(t *testing.T) {
	_, err := parse(t, "struct s { };")
	require.Error(t, err)
}

func TestStructRedefinitionIsRejected(t *testing.T) {
	_, err := parse(t, "struct s { int x; }; struct s { int y; };")
	require.Error(t, err)
}

func TestPointerDereferenceAndAddressOf(t *testing.T) {
	tu := mustParse(t, "int f(int a) { int *p; p = &a; return *p; }")
	fn := tu.Decls[0].(*ast.FuncDecl)
	require.Len(t, fn.Locals, 1)
	assert.True(t, types.IsPointer(fn.Locals[0].Type))
}

func TestDereferenceOfNonPointerIsRejected(t *testing.T) {
	_, err := parse(t, "int f(int a) { return *a; }")
	require.Error(t, err)
}

func TestAddressOfRvalueIsRejected(t *testing.T) {
	_, err := parse(t, "int f(void) { return &1; }")
	require.Error(t, err)
}

func TestTypedefResolvesToUnderlyingType(t *testing.T) {
	tu := mustParse(t, "typedef int myint; myint f(myint a) { return a; }")
	fn := tu.Decls[1].(*ast.FuncDecl)
	assert.True(t, types.IsInt32(fn.Type.ReturnType))
}

func TestExplicitCastIsAllowed(t *testing.T) {
	tu := mustParse(t, "int f(void) { void *p; p = (void *)0; return 0; }")
	fn := tu.Decls[0].(*ast.FuncDecl)
	assign := fn.Body.Stmts[1].(*ast.ExprStmt).Value.(*ast.BinaryExpr)
	_, ok := assign.Right.(*ast.CastExpr)
	assert.True(t, ok)
}

func TestCastOfStructIsRejected(t *testing.T) {
	_, err := parse(t, "struct s { int x; }; int f(void) { struct s a; int n; n = (int)a; return 0; }")
	require.Error(t, err)
}

func TestUnaryPlusAndMinus(t *testing.T) {
	tu := mustParse(t, "int f(int n) { return +n + -n; }")
	assert.NotNil(t, tu)
}

func TestCallArgumentCountMismatchIsRejected(t *testing.T) {
	_, err := parse(t, "int g(int a); int f(void) { return g(1, 2); }")
	require.Error(t, err)
}

func TestCallArgumentTypeMismatchIsRejected(t *testing.T) {
	_, err := parse(t, "struct s { int x; }; int g(int a); int f(void) { struct s a; return g(a); }")
	require.Error(t, err)
}

func TestVariadicPrototypeIsAccepted(t *testing.T) {
	tu := mustParse(t, "int printf(char *fmt, ...);")
	fn := tu.Decls[0].(*ast.FuncDecl)
	assert.True(t, fn.Type.VarArgs)
}

func TestVariadicFunctionAcceptsExtraArguments(t *testing.T) {
	mustParse(t, "int printf(char *fmt, ...);\n"+
		"int f(void) { return printf(\"%d %d\\n\", 1, 2); }\n")
}

func TestNonVariadicFunctionRejectsExtraArguments(t *testing.T) {
	_, err := parse(t, "int f(int a); int g(void) { return f(1, 2); }")
	require.Error(t, err)
}

func TestVoidFunctionReturningValueIsRejected(t *testing.T) {
	_, err := parse(t, "void f(void) { return 1; }")
	require.Error(t, err)
}

func TestNonVoidFunctionBareReturnIsRejected(t *testing.T) {
	_, err := parse(t, "int f(void) { return; }")
	require.Error(t, err)
}

func TestForLoopWithAllClausesOmitted(t *testing.T) {
	_, err := parse(t, "int f(void) { for (;;) { break; } return 0; }")
	require.NoError(t, err)
}

func TestDoWhileLoop(t *testing.T) {
	tu := mustParse(t, "int f(void) { int i; i = 0; do { i = i + 1; } while (i < 10); return i; }")
	fn := tu.Decls[0].(*ast.FuncDecl)
	_, ok := fn.Body.Stmts[2].(*ast.DoStmt)
	assert.True(t, ok)
}

func TestTranslationUnitLeavesScopeBalanced(t *testing.T) {
	toks, err := lexer.Tokenize("test.c", "int f(void) { { { int a; a = 1; } } return 0; }")
	require.NoError(t, err)
	toks, err = preproc.Process("test.c", toks)
	require.NoError(t, err)
	p := New("test.c", toks)
	tu, err := p.parseTranslationUnit()
	require.NoError(t, err)
	assert.NotNil(t, tu)
	assert.Equal(t, 1, p.env.Depth())
	assert.Equal(t, 1, p.structEnv.Depth())
}
