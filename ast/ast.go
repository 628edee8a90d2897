// Package ast defines the typed node set the parser constructs: every
// expression node carries its resolved Type and IsLvalue flag, set by
// the fused semantic analyzer in package parser at construction time,
// never afterward.
package ast

import "github.com/nocc-go/nocc/types"

// Node is satisfied by every expression, statement, and declaration
// node. Line is the 1-based source line the construct started on.
type Node interface {
	Line() int
}

// Expr is satisfied by every expression node.
type Expr interface {
	Node
	exprNode()
	ExprType() types.Type
	Lvalue() bool
}

// Stmt is satisfied by every statement node.
type Stmt interface {
	Node
	stmtNode()
}

// Decl is satisfied by every declaration node.
type Decl interface {
	Node
	declNode()
}

// base carries the one field every node has.
type base struct {
	line int
}

func (b base) Line() int { return b.line }

// exprBase carries the fields every expression node has: its line, its
// resolved type, and whether it denotes a storage location.
type exprBase struct {
	base
	Type     types.Type
	IsLvalue bool
}

func (e exprBase) exprNode()            {}
func (e exprBase) ExprType() types.Type { return e.Type }
func (e exprBase) Lvalue() bool         { return e.IsLvalue }

// ---- Expressions ----

// IntegerLit is a decimal integer literal; always int32.
type IntegerLit struct {
	exprBase
	Value int32
}

// StringLit is a string literal; always pointer(int8). Bytes is the
// decoded payload (may contain embedded NULs; Len is explicit rather
// than relying on len(Bytes), matching spec.md's data model calling the
// decoded length out separately from the payload itself).
type StringLit struct {
	exprBase
	Bytes []byte
	Len   int
}

// Ident is an identifier expression resolved to the declaration it
// refers to (a *VarDecl, *ParamDecl, or *FuncDecl — all three satisfy
// ast.Decl).
type Ident struct {
	exprBase
	Name    string
	BoundTo Decl
}

// UnaryExpr covers prefix `-`, `+`, `*` (dereference), `&` (address-of).
type UnaryExpr struct {
	exprBase
	Op      byte
	Operand Expr
}

// BinaryExpr covers arithmetic, relational, and assignment (`=`) binary
// operators. Op is a lexer.TokenType widened to int so this package
// doesn't need to import lexer.
type BinaryExpr struct {
	exprBase
	Op    int
	Left  Expr
	Right Expr
}

// CallExpr is a function call. Callee must resolve to a function type
// (an Ident bound to a *FuncDecl, in this grammar).
type CallExpr struct {
	exprBase
	Callee Expr
	Args   []Expr
}

// DotExpr is `.` member access. Index is the resolved member's position
// within the parent struct type, filled in by semantic analysis so the
// generator never has to search by name again.
type DotExpr struct {
	exprBase
	Parent Expr
	Field  string
	Index  int
}

// CastExpr is an explicit `(T)e` conversion; the target type is the
// node's own Type.
type CastExpr struct {
	exprBase
	Operand Expr
}

// ---- Statements ----

type CompoundStmt struct {
	base
	Stmts []Stmt
}

func (*CompoundStmt) stmtNode() {}

type ReturnStmt struct {
	base
	Value Expr // nil for a bare `return;`
}

func (*ReturnStmt) stmtNode() {}

type IfStmt struct {
	base
	Cond Expr
	Then Stmt
	Else Stmt // nil if there is no else branch
}

func (*IfStmt) stmtNode() {}

type WhileStmt struct {
	base
	Cond Expr
	Body Stmt
}

func (*WhileStmt) stmtNode() {}

type DoStmt struct {
	base
	Body Stmt
	Cond Expr
}

func (*DoStmt) stmtNode() {}

type ForStmt struct {
	base
	Init Expr // nil if omitted
	Cond Expr // nil if omitted
	Cont Expr // nil if omitted
	Body Stmt
}

func (*ForStmt) stmtNode() {}

type BreakStmt struct{ base }

func (*BreakStmt) stmtNode() {}

type ContinueStmt struct{ base }

func (*ContinueStmt) stmtNode() {}

type DeclStmt struct {
	base
	Decl Decl
}

func (*DeclStmt) stmtNode() {}

type ExprStmt struct {
	base
	Value Expr
}

func (*ExprStmt) stmtNode() {}

// ---- Declarations ----

// VarDecl is a local or global variable declaration.
type VarDecl struct {
	base
	Name   string
	Type   types.Type
	Global bool
}

func (*VarDecl) declNode() {}

// ParamDecl is a function parameter.
type ParamDecl struct {
	base
	Name string
	Type types.Type
}

func (*ParamDecl) declNode() {}

// FuncDecl is a function prototype or definition. Body is nil for a
// prototype. Locals holds every local variable declared anywhere in the
// body, nested blocks included, in declaration order, for the generator
// to allocate storage for.
type FuncDecl struct {
	base
	Name   string
	Type   *types.FunctionT
	Params []*ParamDecl
	Body   *CompoundStmt // nil for a prototype
	Locals []*VarDecl
}

func (*FuncDecl) declNode() {}

// TypedefDecl binds Name to Aliased. Lookup of Name in the value
// environment resolves to this node; the parser's typedef disambiguation
// test checks for exactly this Decl kind.
type TypedefDecl struct {
	base
	Name    string
	Aliased types.Type
}

func (*TypedefDecl) declNode() {}

// TranslationUnit is the parse result for one source file.
type TranslationUnit struct {
	Filename string
	Decls    []Decl
}

// NewIntegerLit, NewStringLit, ... are small constructors used by the
// parser so each node's line/type/lvalue fields are set in one place.

func NewIntegerLit(line int, typ types.Type, value int32) *IntegerLit {
	return &IntegerLit{exprBase: exprBase{base: base{line}, Type: typ}, Value: value}
}

func NewStringLit(line int, typ types.Type, bytes []byte) *StringLit {
	return &StringLit{exprBase: exprBase{base: base{line}, Type: typ}, Bytes: bytes, Len: len(bytes)}
}

func NewIdent(line int, typ types.Type, lvalue bool, name string, boundTo Decl) *Ident {
	return &Ident{exprBase: exprBase{base: base{line}, Type: typ, IsLvalue: lvalue}, Name: name, BoundTo: boundTo}
}

func NewUnaryExpr(line int, typ types.Type, lvalue bool, op byte, operand Expr) *UnaryExpr {
	return &UnaryExpr{exprBase: exprBase{base: base{line}, Type: typ, IsLvalue: lvalue}, Op: op, Operand: operand}
}

func NewBinaryExpr(line int, typ types.Type, op int, left, right Expr) *BinaryExpr {
	return &BinaryExpr{exprBase: exprBase{base: base{line}, Type: typ}, Op: op, Left: left, Right: right}
}

func NewCallExpr(line int, typ types.Type, callee Expr, args []Expr) *CallExpr {
	return &CallExpr{exprBase: exprBase{base: base{line}, Type: typ}, Callee: callee, Args: args}
}

func NewDotExpr(line int, typ types.Type, lvalue bool, parent Expr, field string, index int) *DotExpr {
	return &DotExpr{exprBase: exprBase{base: base{line}, Type: typ, IsLvalue: lvalue}, Parent: parent, Field: field, Index: index}
}

func NewCastExpr(line int, typ types.Type, operand Expr) *CastExpr {
	return &CastExpr{exprBase: exprBase{base: base{line}, Type: typ}, Operand: operand}
}

// ---- Statement and declaration constructors ----
//
// base's field is unexported, so a package outside ast cannot build these
// node literals directly; the parser calls these instead.

func NewCompoundStmt(line int, stmts []Stmt) *CompoundStmt {
	return &CompoundStmt{base: base{line}, Stmts: stmts}
}

func NewReturnStmt(line int, value Expr) *ReturnStmt {
	return &ReturnStmt{base: base{line}, Value: value}
}

func NewIfStmt(line int, cond Expr, then, els Stmt) *IfStmt {
	return &IfStmt{base: base{line}, Cond: cond, Then: then, Else: els}
}

func NewWhileStmt(line int, cond Expr, body Stmt) *WhileStmt {
	return &WhileStmt{base: base{line}, Cond: cond, Body: body}
}

func NewDoStmt(line int, body Stmt, cond Expr) *DoStmt {
	return &DoStmt{base: base{line}, Body: body, Cond: cond}
}

func NewForStmt(line int, init, cond, cont Expr, body Stmt) *ForStmt {
	return &ForStmt{base: base{line}, Init: init, Cond: cond, Cont: cont, Body: body}
}

func NewBreakStmt(line int) *BreakStmt { return &BreakStmt{base{line}} }

func NewContinueStmt(line int) *ContinueStmt { return &ContinueStmt{base{line}} }

func NewDeclStmt(line int, decl Decl) *DeclStmt {
	return &DeclStmt{base: base{line}, Decl: decl}
}

func NewExprStmt(line int, value Expr) *ExprStmt {
	return &ExprStmt{base: base{line}, Value: value}
}

func NewVarDecl(line int, name string, typ types.Type, global bool) *VarDecl {
	return &VarDecl{base: base{line}, Name: name, Type: typ, Global: global}
}

func NewParamDecl(line int, name string, typ types.Type) *ParamDecl {
	return &ParamDecl{base: base{line}, Name: name, Type: typ}
}

func NewFuncDecl(line int, name string, typ *types.FunctionT, params []*ParamDecl) *FuncDecl {
	return &FuncDecl{base: base{line}, Name: name, Type: typ, Params: params}
}

func NewTypedefDecl(line int, name string, aliased types.Type) *TypedefDecl {
	return &TypedefDecl{base: base{line}, Name: name, Aliased: aliased}
}
