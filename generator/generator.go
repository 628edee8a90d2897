// Package generator lowers a typed translation unit into IR against an
// external ir.Builder. It never inspects the builder's concrete values or
// types beyond what ir.Builder itself returns; every piece of state this
// package needs is tracked on its own side (which ast.VarDecl maps to
// which alloca, which ast.FuncDecl maps to which function value).
package generator

import (
	"fmt"

	"github.com/nocc-go/nocc/ast"
	"github.com/nocc-go/nocc/diag"
	"github.com/nocc-go/nocc/ir"
	"github.com/nocc-go/nocc/types"
)

type generator struct {
	b        ir.Builder
	filename string

	funcSlots   map[string]ir.Value
	globalSlots map[string]ir.Value
	stringSlots map[string]ir.Value

	structSlots   map[*types.StructT]ir.Type
	structTagUsed map[string]bool
	structTagSeq  int
}

// Generate lowers tu against b and returns the finished module, or the
// first error encountered (lexing/parsing already happened; this is the
// last stage, so any failure here is either a generator-internal bug or
// a module that fails the builder's own structural verification).
func Generate(filename string, tu *ast.TranslationUnit, b ir.Builder) (*ir.Module, error) {
	g := &generator{
		b:             b,
		filename:      filename,
		funcSlots:     map[string]ir.Value{},
		globalSlots:   map[string]ir.Value{},
		stringSlots:   map[string]ir.Value{},
		structSlots:   map[*types.StructT]ir.Type{},
		structTagUsed: map[string]bool{},
	}

	// A function may appear once as a prototype and again, later, as a
	// full definition (original_source/test_engine.c's "forward" case).
	// Pre-scan so every reference sees one function value, declared with
	// the right declare/define kind from the start.
	willDefine := map[string]bool{}
	for _, d := range tu.Decls {
		if fn, ok := d.(*ast.FuncDecl); ok && fn.Body != nil {
			willDefine[fn.Name] = true
		}
	}

	for _, d := range tu.Decls {
		if err := g.declareTop(d, willDefine); err != nil {
			return nil, err
		}
	}
	for _, d := range tu.Decls {
		if err := g.defineTop(d); err != nil {
			return nil, err
		}
	}

	mod := &ir.Module{Builder: b}
	if err := mod.Verify(); err != nil {
		return nil, diag.New(diag.Verify, filename, 0, "%s", err)
	}
	return mod, nil
}

func (g *generator) declareTop(d ast.Decl, willDefine map[string]bool) error {
	switch d := d.(type) {
	case *ast.FuncDecl:
		if _, ok := g.funcSlots[d.Name]; ok {
			return nil
		}
		ft := g.typeFor(d.Type)
		var fn ir.Value
		if willDefine[d.Name] {
			fn = g.b.DefineFunction(d.Name, ft)
		} else {
			fn = g.b.DeclareFunction(d.Name, ft)
		}
		g.funcSlots[d.Name] = fn

	case *ast.VarDecl:
		if _, ok := g.globalSlots[d.Name]; ok {
			return nil
		}
		t := g.typeFor(d.Type)
		gv := g.b.AddGlobal(d.Name, t)
		g.b.SetInitializer(gv, g.b.ConstNull(t))
		g.globalSlots[d.Name] = gv

	case *ast.TypedefDecl:
		// Nothing to emit; types are resolved structurally by typeFor.
	}
	return nil
}

func (g *generator) defineTop(d ast.Decl) error {
	fn, ok := d.(*ast.FuncDecl)
	if !ok || fn.Body == nil {
		return nil
	}
	return g.generateFunctionBody(g.funcSlots[fn.Name], fn)
}

func (g *generator) errorf(line int, format string, args ...any) error {
	return diag.New(diag.GenInternal, g.filename, line, format, args...)
}

// ---- type mapping ----

func (g *generator) typeFor(t types.Type) ir.Type {
	if t == nil {
		return g.b.VoidType()
	}
	switch {
	case types.IsVoid(t):
		return g.b.VoidType()
	case types.IsInt8(t):
		return g.b.Int8Type()
	case types.IsInt32(t):
		return g.b.Int32Type()
	case types.IsPointer(t):
		return g.b.PointerType(g.typeFor(types.PointerElement(t)))
	case types.IsArray(t):
		return g.b.ArrayType(g.typeFor(types.ArrayElement(t)), types.ArrayLength(t))
	case types.IsFunction(t):
		n := types.FunctionParamCount(t)
		params := make([]ir.Type, n)
		for i := 0; i < n; i++ {
			params[i] = g.typeFor(types.FunctionParam(t, i))
		}
		return g.b.FunctionType(g.typeFor(types.FunctionReturn(t)), params, types.FunctionVarArgs(t))
	case types.IsStruct(t):
		return g.structType(t.(*types.StructT))
	default:
		panic(fmt.Sprintf("generator: unknown type kind %v", t))
	}
}

// structType maps a *types.StructT to a named IR struct type, memoized by
// the StructT's own identity (two StructT values are never equal unless
// they are the same pointer, see types.Equals) and registered before its
// member types are resolved, so a self-referential struct (a member that
// is a pointer back to the struct itself) doesn't recurse forever.
func (g *generator) structType(st *types.StructT) ir.Type {
	if t, ok := g.structSlots[st]; ok {
		return t
	}
	name := st.Tag
	if g.structTagUsed[name] {
		name = fmt.Sprintf("%s.%d", name, g.structTagSeq)
		g.structTagSeq++
	}
	g.structTagUsed[name] = true

	named := g.b.NamedStructType(name)
	g.structSlots[st] = named

	fields := make([]ir.Type, len(st.Members))
	for i, m := range st.Members {
		fields[i] = g.typeFor(m.Type)
	}
	g.b.SetStructBody(named, fields)
	return named
}

func (g *generator) internString(s string) ir.Value {
	if v, ok := g.stringSlots[s]; ok {
		return v
	}
	v := g.b.GlobalStringPtr(s)
	g.stringSlots[s] = v
	return v
}

// truthy converts an int32-typed condition value to the i1 a branch
// needs, matching C's "nonzero is true" rule; every condition expression
// this grammar accepts is int32 (see parser.binaryExpr's relational
// cases), so there's no other source type to convert from.
func (g *generator) truthy(v ir.Value) ir.Value {
	return g.b.ICmp(ir.IntNE, v, g.b.ConstInt(g.b.Int32Type(), 0))
}
