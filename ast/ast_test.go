package ast

import (
	"testing"

	"github.com/nocc-go/nocc/types"
)

func TestExprAccessors(t *testing.T) {
	lit := NewIntegerLit(3, types.Int32Type(), 42)
	if lit.Line() != 3 {
		t.Fatalf("expected line 3, got %d", lit.Line())
	}
	if !types.Equals(lit.ExprType(), types.Int32Type()) {
		t.Fatalf("expected int32 type")
	}
	if lit.Lvalue() {
		t.Fatalf("an integer literal must not be an lvalue")
	}
}

func TestIdentLvalue(t *testing.T) {
	decl := NewVarDecl(1, "x", types.Int32Type(), false)
	id := NewIdent(2, types.Int32Type(), true, "x", decl)
	if !id.Lvalue() {
		t.Fatalf("expected identifier bound to a variable to be an lvalue")
	}
	if id.BoundTo != Decl(decl) {
		t.Fatalf("expected BoundTo to round-trip the declaration")
	}
}

func TestFuncDeclIsDecl(t *testing.T) {
	fn := NewFuncDecl(1, "f", types.NewFunction(types.VoidType(), nil, false).(*types.FunctionT), nil)
	var _ Decl = fn
	if fn.Body != nil {
		t.Fatalf("expected a prototype to have a nil body")
	}
}

func TestStmtKindsSatisfyStmt(t *testing.T) {
	var stmts []Stmt
	stmts = append(stmts,
		NewCompoundStmt(1, nil),
		NewReturnStmt(1, nil),
		NewIfStmt(1, nil, NewCompoundStmt(1, nil), nil),
		NewWhileStmt(1, nil, NewCompoundStmt(1, nil)),
		NewDoStmt(1, NewCompoundStmt(1, nil), nil),
		NewForStmt(1, nil, nil, nil, NewCompoundStmt(1, nil)),
		NewBreakStmt(1),
		NewContinueStmt(1),
		NewExprStmt(1, nil),
	)
	for i, s := range stmts {
		if s.Line() != 1 {
			t.Fatalf("stmt %d: expected line 1, got %d", i, s.Line())
		}
	}
}
