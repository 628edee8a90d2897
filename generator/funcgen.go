package generator

import (
	"github.com/nocc-go/nocc/ast"
	"github.com/nocc-go/nocc/ir"
	"github.com/nocc-go/nocc/types"
)

// loopTargets is the (break, continue) destination pair for the
// innermost enclosing loop; pushed/popped around while/do/for bodies the
// same way parser.Parser tracks its flowState bitmask during parsing.
type loopTargets struct {
	breakDest    ir.Value
	continueDest ir.Value
}

// funcGen carries the state specific to lowering one function body: its
// local variable and parameter storage slots, the loop target stack, and
// whether the block currently being appended to already has a
// terminator (so a later statement in an unreachable tail, or a second
// control-flow edge out of the same block, never double-terminates it).
type funcGen struct {
	*generator
	fn      ir.Value
	locals  map[*ast.VarDecl]ir.Value
	params  map[*ast.ParamDecl]ir.Value
	retType types.Type

	loops      []loopTargets
	terminated bool
}

func (g *generator) generateFunctionBody(fn ir.Value, decl *ast.FuncDecl) error {
	entry := g.b.AppendBlock(fn, "entry")
	g.b.SetInsertBlock(entry)

	fg := &funcGen{
		generator: g,
		fn:        fn,
		locals:    map[*ast.VarDecl]ir.Value{},
		params:    map[*ast.ParamDecl]ir.Value{},
		retType:   decl.Type.ReturnType,
	}

	for i, p := range decl.Params {
		slot := g.b.Alloca(g.typeFor(p.Type))
		g.b.Store(g.b.Param(fn, i), slot)
		fg.params[p] = slot
	}
	for _, l := range decl.Locals {
		fg.locals[l] = g.b.Alloca(g.typeFor(l.Type))
	}

	if err := fg.genStmt(decl.Body); err != nil {
		return err
	}
	fg.ensureTerminator()
	return nil
}

func (fg *funcGen) ensureTerminator() {
	if fg.terminated {
		return
	}
	if types.IsVoid(fg.retType) {
		fg.retVoid()
		return
	}
	fg.ret(fg.b.ConstNull(fg.typeFor(fg.retType)))
}

// ---- block/terminator bookkeeping ----

func (fg *funcGen) setBlock(b ir.Value) {
	fg.b.SetInsertBlock(b)
	fg.terminated = false
}

func (fg *funcGen) br(dest ir.Value) {
	if fg.terminated {
		return
	}
	fg.b.Br(dest)
	fg.terminated = true
}

func (fg *funcGen) condBr(cond, then, els ir.Value) {
	if fg.terminated {
		return
	}
	fg.b.CondBr(cond, then, els)
	fg.terminated = true
}

func (fg *funcGen) ret(v ir.Value) {
	if fg.terminated {
		return
	}
	fg.b.Ret(v)
	fg.terminated = true
}

func (fg *funcGen) retVoid() {
	if fg.terminated {
		return
	}
	fg.b.RetVoid()
	fg.terminated = true
}

func (fg *funcGen) pushLoop(t loopTargets) { fg.loops = append(fg.loops, t) }
func (fg *funcGen) popLoop()               { fg.loops = fg.loops[:len(fg.loops)-1] }
func (fg *funcGen) currentLoop() loopTargets {
	return fg.loops[len(fg.loops)-1]
}

// ---- statements ----

func (fg *funcGen) genStmt(s ast.Stmt) error {
	switch s := s.(type) {
	case *ast.CompoundStmt:
		for _, stmt := range s.Stmts {
			if err := fg.genStmt(stmt); err != nil {
				return err
			}
		}
		return nil

	case *ast.DeclStmt:
		// Storage for every local was already allocated up front in
		// generateFunctionBody; a bare declaration with no initializer
		// has nothing left to emit.
		return nil

	case *ast.ExprStmt:
		_, err := fg.genExpr(s.Value)
		return err

	case *ast.ReturnStmt:
		if s.Value == nil {
			fg.retVoid()
			return nil
		}
		v, err := fg.genExpr(s.Value)
		if err != nil {
			return err
		}
		fg.ret(v)
		return nil

	case *ast.IfStmt:
		return fg.genIfStmt(s)

	case *ast.WhileStmt:
		return fg.genWhileStmt(s)

	case *ast.DoStmt:
		return fg.genDoStmt(s)

	case *ast.ForStmt:
		return fg.genForStmt(s)

	case *ast.BreakStmt:
		fg.br(fg.currentLoop().breakDest)
		return nil

	case *ast.ContinueStmt:
		fg.br(fg.currentLoop().continueDest)
		return nil

	default:
		return fg.errorf(s.Line(), "generator: unhandled statement kind %T", s)
	}
}

func (fg *funcGen) genIfStmt(s *ast.IfStmt) error {
	thenBlk := fg.b.AppendBlock(fg.fn, "if.then")
	mergeBlk := fg.b.AppendBlock(fg.fn, "if.end")
	elseBlk := mergeBlk
	if s.Else != nil {
		elseBlk = fg.b.AppendBlock(fg.fn, "if.else")
	}

	cond, err := fg.genExpr(s.Cond)
	if err != nil {
		return err
	}
	fg.condBr(fg.truthy(cond), thenBlk, elseBlk)

	fg.setBlock(thenBlk)
	if err := fg.genStmt(s.Then); err != nil {
		return err
	}
	fg.br(mergeBlk)

	if s.Else != nil {
		fg.setBlock(elseBlk)
		if err := fg.genStmt(s.Else); err != nil {
			return err
		}
		fg.br(mergeBlk)
	}

	fg.setBlock(mergeBlk)
	return nil
}

func (fg *funcGen) genWhileStmt(s *ast.WhileStmt) error {
	condBlk := fg.b.AppendBlock(fg.fn, "while.cond")
	bodyBlk := fg.b.AppendBlock(fg.fn, "while.body")
	endBlk := fg.b.AppendBlock(fg.fn, "while.end")

	fg.br(condBlk)
	fg.setBlock(condBlk)
	cond, err := fg.genExpr(s.Cond)
	if err != nil {
		return err
	}
	fg.condBr(fg.truthy(cond), bodyBlk, endBlk)

	fg.setBlock(bodyBlk)
	fg.pushLoop(loopTargets{breakDest: endBlk, continueDest: condBlk})
	err = fg.genStmt(s.Body)
	fg.popLoop()
	if err != nil {
		return err
	}
	fg.br(condBlk)

	fg.setBlock(endBlk)
	return nil
}

func (fg *funcGen) genDoStmt(s *ast.DoStmt) error {
	bodyBlk := fg.b.AppendBlock(fg.fn, "do.body")
	condBlk := fg.b.AppendBlock(fg.fn, "do.cond")
	endBlk := fg.b.AppendBlock(fg.fn, "do.end")

	fg.br(bodyBlk)
	fg.setBlock(bodyBlk)
	fg.pushLoop(loopTargets{breakDest: endBlk, continueDest: condBlk})
	err := fg.genStmt(s.Body)
	fg.popLoop()
	if err != nil {
		return err
	}
	fg.br(condBlk)

	fg.setBlock(condBlk)
	cond, err := fg.genExpr(s.Cond)
	if err != nil {
		return err
	}
	fg.condBr(fg.truthy(cond), bodyBlk, endBlk)

	fg.setBlock(endBlk)
	return nil
}

func (fg *funcGen) genForStmt(s *ast.ForStmt) error {
	if s.Init != nil {
		if _, err := fg.genExpr(s.Init); err != nil {
			return err
		}
	}

	condBlk := fg.b.AppendBlock(fg.fn, "for.cond")
	bodyBlk := fg.b.AppendBlock(fg.fn, "for.body")
	contBlk := fg.b.AppendBlock(fg.fn, "for.cont")
	endBlk := fg.b.AppendBlock(fg.fn, "for.end")

	fg.br(condBlk)
	fg.setBlock(condBlk)
	if s.Cond != nil {
		cond, err := fg.genExpr(s.Cond)
		if err != nil {
			return err
		}
		fg.condBr(fg.truthy(cond), bodyBlk, endBlk)
	} else {
		fg.br(bodyBlk)
	}

	fg.setBlock(bodyBlk)
	fg.pushLoop(loopTargets{breakDest: endBlk, continueDest: contBlk})
	err := fg.genStmt(s.Body)
	fg.popLoop()
	if err != nil {
		return err
	}
	fg.br(contBlk)

	fg.setBlock(contBlk)
	if s.Cont != nil {
		if _, err := fg.genExpr(s.Cont); err != nil {
			return err
		}
	}
	fg.br(condBlk)

	fg.setBlock(endBlk)
	return nil
}
