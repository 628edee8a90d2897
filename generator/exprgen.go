package generator

import (
	"github.com/nocc-go/nocc/ast"
	"github.com/nocc-go/nocc/ir"
	"github.com/nocc-go/nocc/lexer"
	"github.com/nocc-go/nocc/types"
)

// genExpr lowers e to the value it denotes as an rvalue: a load for
// anything addressable, a computed value for anything else.
func (fg *funcGen) genExpr(e ast.Expr) (ir.Value, error) {
	switch e := e.(type) {
	case *ast.IntegerLit:
		return fg.b.ConstInt(fg.b.Int32Type(), int64(e.Value)), nil

	case *ast.StringLit:
		return fg.internString(string(e.Bytes)), nil

	case *ast.Ident, *ast.DotExpr:
		addr, err := fg.genAddr(e)
		if err != nil {
			return nil, err
		}
		return fg.b.Load(addr), nil

	case *ast.UnaryExpr:
		return fg.genUnaryExpr(e)

	case *ast.BinaryExpr:
		return fg.genBinaryExpr(e)

	case *ast.CallExpr:
		return fg.genCallExpr(e)

	case *ast.CastExpr:
		return fg.genCastExpr(e)

	default:
		return nil, fg.errorf(e.Line(), "generator: unhandled expression kind %T", e)
	}
}

// genAddr lowers e to the address it denotes; only called for lvalues
// (identifiers bound to a variable/parameter/global, a unary `*`
// dereference, or a `.` member access), matching the is_lvalue invariant
// the parser already established.
func (fg *funcGen) genAddr(e ast.Expr) (ir.Value, error) {
	switch e := e.(type) {
	case *ast.Ident:
		switch d := e.BoundTo.(type) {
		case *ast.VarDecl:
			if d.Global {
				return fg.globalSlots[d.Name], nil
			}
			return fg.locals[d], nil
		case *ast.ParamDecl:
			return fg.params[d], nil
		default:
			return nil, fg.errorf(e.Line(), "generator: %s does not denote a storage location", e.Name)
		}

	case *ast.UnaryExpr: // '*' dereference: the operand's value is the address
		return fg.genExpr(e.Operand)

	case *ast.DotExpr:
		var parentAddr ir.Value
		if e.Parent.Lvalue() {
			addr, err := fg.genAddr(e.Parent)
			if err != nil {
				return nil, err
			}
			parentAddr = addr
		} else {
			// The parent is a value (e.g. a struct returned by a call),
			// not a storage location; materialize it into a temporary
			// slot so its members can still be addressed uniformly.
			v, err := fg.genExpr(e.Parent)
			if err != nil {
				return nil, err
			}
			slot := fg.b.Alloca(fg.typeFor(e.Parent.ExprType()))
			fg.b.Store(v, slot)
			parentAddr = slot
		}
		return fg.b.StructGEP(parentAddr, e.Index), nil

	default:
		return nil, fg.errorf(e.Line(), "generator: %T is not addressable", e)
	}
}

func (fg *funcGen) genUnaryExpr(e *ast.UnaryExpr) (ir.Value, error) {
	switch e.Op {
	case '-':
		v, err := fg.genExpr(e.Operand)
		if err != nil {
			return nil, err
		}
		return fg.b.Neg(v), nil

	case '+':
		return fg.genExpr(e.Operand)

	case '*':
		ptr, err := fg.genExpr(e.Operand)
		if err != nil {
			return nil, err
		}
		return fg.b.Load(ptr), nil

	case '&':
		return fg.genAddr(e.Operand)

	default:
		return nil, fg.errorf(e.Line(), "generator: unknown unary operator %c", e.Op)
	}
}

func (fg *funcGen) genBinaryExpr(e *ast.BinaryExpr) (ir.Value, error) {
	if lexer.TokenType(e.Op) == lexer.TokenType('=') {
		addr, err := fg.genAddr(e.Left)
		if err != nil {
			return nil, err
		}
		v, err := fg.genExpr(e.Right)
		if err != nil {
			return nil, err
		}
		fg.b.Store(v, addr)
		return v, nil
	}

	l, err := fg.genExpr(e.Left)
	if err != nil {
		return nil, err
	}
	r, err := fg.genExpr(e.Right)
	if err != nil {
		return nil, err
	}

	switch lexer.TokenType(e.Op) {
	case lexer.TokenType('+'):
		return fg.b.Add(l, r), nil
	case lexer.TokenType('-'):
		return fg.b.Sub(l, r), nil
	case lexer.TokenType('*'):
		return fg.b.Mul(l, r), nil
	case lexer.TokenType('/'):
		return fg.b.SDiv(l, r), nil
	case lexer.TokenType('%'):
		return fg.b.SRem(l, r), nil
	case lexer.TokenType('<'):
		return fg.compare(ir.IntSLT, l, r), nil
	case lexer.TokenType('>'):
		return fg.compare(ir.IntSGT, l, r), nil
	case lexer.LESSER_EQUAL:
		return fg.compare(ir.IntSLE, l, r), nil
	case lexer.GREATER_EQUAL:
		return fg.compare(ir.IntSGE, l, r), nil
	case lexer.EQUAL:
		return fg.compare(ir.IntEQ, l, r), nil
	case lexer.NOT_EQUAL:
		return fg.compare(ir.IntNE, l, r), nil
	default:
		return nil, fg.errorf(e.Line(), "generator: unknown binary operator %d", e.Op)
	}
}

// compare emits an icmp and zero-extends its i1 result to the int32 the
// parser typed every relational/equality expression as.
func (fg *funcGen) compare(pred ir.IntPredicate, l, r ir.Value) ir.Value {
	return fg.b.ZExt(fg.b.ICmp(pred, l, r), fg.b.Int32Type())
}

func (fg *funcGen) genCallExpr(e *ast.CallExpr) (ir.Value, error) {
	ident, ok := e.Callee.(*ast.Ident)
	if !ok {
		return nil, fg.errorf(e.Line(), "generator: call target must be a function identifier")
	}
	fn, ok := fg.funcSlots[ident.Name]
	if !ok {
		return nil, fg.errorf(e.Line(), "generator: call to undeclared function %s", ident.Name)
	}

	args := make([]ir.Value, len(e.Args))
	for i, a := range e.Args {
		v, err := fg.genExpr(a)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return fg.b.Call(fn, args), nil
}

func (fg *funcGen) genCastExpr(e *ast.CastExpr) (ir.Value, error) {
	v, err := fg.genExpr(e.Operand)
	if err != nil {
		return nil, err
	}
	from, to := e.Operand.ExprType(), e.Type

	dest := fg.typeFor(to)
	switch {
	case types.IsVoid(to):
		return v, nil
	case types.IsPointer(from) && types.IsPointer(to):
		return fg.b.PointerCast(v, dest), nil
	case types.IsPointer(from) && (types.IsInt8(to) || types.IsInt32(to)):
		return fg.b.PtrToInt(v, dest), nil
	case (types.IsInt8(from) || types.IsInt32(from)) && types.IsPointer(to):
		return fg.b.IntToPtr(v, dest), nil
	case types.IsInt8(from) && types.IsInt32(to):
		return fg.b.SExt(v, dest), nil
	case types.IsInt32(from) && types.IsInt8(to):
		return fg.b.Trunc(v, dest), nil
	default:
		return v, nil
	}
}
