// Package irtest implements ir.Builder entirely in memory: it is the
// backend the generator's own tests and the end-to-end compile tests run
// against, standing in for a real LLVM module the way
// original_source/llvm.h's LLVMModuleRef would, but renderable and
// inspectable without cgo or a linked libLLVM.
package irtest

import (
	"fmt"
	"strings"

	"github.com/nocc-go/nocc/ir"
)

type typeKind int

const (
	kVoid typeKind = iota
	kInt
	kPointer
	kArray
	kFunction
	kStruct
)

// typ is the concrete value behind every ir.Type this backend hands out.
type typ struct {
	kind    typeKind
	bits    int // kInt: 1, 8, or 32
	elem    *typ
	length  int // kArray
	ret     *typ
	params  []*typ
	varArgs bool
	name    string // kStruct
	fields  []*typ // kStruct, filled in by SetStructBody
}

func (t *typ) String() string {
	switch t.kind {
	case kVoid:
		return "void"
	case kInt:
		return fmt.Sprintf("i%d", t.bits)
	case kPointer:
		return t.elem.String() + "*"
	case kArray:
		return fmt.Sprintf("[%d x %s]", t.length, t.elem.String())
	case kFunction:
		parts := make([]string, len(t.params))
		for i, p := range t.params {
			parts[i] = p.String()
		}
		if t.varArgs {
			parts = append(parts, "...")
		}
		return fmt.Sprintf("%s (%s)", t.ret.String(), strings.Join(parts, ", "))
	case kStruct:
		return "%" + t.name
	default:
		return "?"
	}
}

type valueKind int

const (
	kConstInt valueKind = iota
	kConstNull
	kGlobal
	kFunc
	kParam
	kBlock
	kInstr
)

// value is the concrete value behind every ir.Value this backend hands
// out: constants, globals, functions, parameters, basic blocks, and
// instruction results are all the same shape, tagged by kind, the way a
// single opaque LLVMValueRef covers all of them in the C API.
type value struct {
	kind valueKind
	typ  *typ
	name string

	// kConstInt
	intVal int64

	// kGlobal
	strVal      string // set only for a GlobalStringPtr-created global
	initializer *value
	isString    bool

	// kFunc
	defined bool
	blocks  []*value
	params  []*value

	// kParam
	index int

	// kBlock
	fn     *value
	instrs []*value

	// kInstr
	op       string
	operands []*value
}

func (v *value) String() string {
	switch v.kind {
	case kConstInt:
		return fmt.Sprintf("%s %d", v.typ, v.intVal)
	case kConstNull:
		return fmt.Sprintf("%s null", v.typ)
	case kGlobal:
		return "@" + v.name
	case kFunc:
		return "@" + v.name
	case kParam:
		return v.name
	case kBlock:
		return "%" + v.name
	case kInstr:
		if v.typ != nil && v.typ.kind == kVoid {
			return "void"
		}
		return fmt.Sprintf("%s %s", v.typ, v.name)
	default:
		return "?"
	}
}

// Builder is the in-memory reference implementation of ir.Builder.
type Builder struct {
	moduleName string
	structs    []*typ
	globals    []*value
	funcs      []*value

	cur      *value // current insert block
	nextTemp int
	nextStr  int
	nextBlk  int
}

// New returns a fresh Builder for a module named name.
func New(name string) *Builder {
	return &Builder{moduleName: name}
}

var _ ir.Builder = (*Builder)(nil)

func asType(t ir.Type) *typ   { return t.(*typ) }
func asValue(v ir.Value) *value { return v.(*value) }

// ---- types ----

func (b *Builder) VoidType() ir.Type  { return &typ{kind: kVoid} }
func (b *Builder) Int1Type() ir.Type  { return &typ{kind: kInt, bits: 1} }
func (b *Builder) Int8Type() ir.Type  { return &typ{kind: kInt, bits: 8} }
func (b *Builder) Int32Type() ir.Type { return &typ{kind: kInt, bits: 32} }

func (b *Builder) PointerType(elem ir.Type) ir.Type {
	return &typ{kind: kPointer, elem: asType(elem)}
}

func (b *Builder) ArrayType(elem ir.Type, length int) ir.Type {
	return &typ{kind: kArray, elem: asType(elem), length: length}
}

func (b *Builder) FunctionType(ret ir.Type, params []ir.Type, varArgs bool) ir.Type {
	ps := make([]*typ, len(params))
	for i, p := range params {
		ps[i] = asType(p)
	}
	return &typ{kind: kFunction, ret: asType(ret), params: ps, varArgs: varArgs}
}

func (b *Builder) NamedStructType(name string) ir.Type {
	for _, s := range b.structs {
		if s.name == name {
			return s
		}
	}
	s := &typ{kind: kStruct, name: name}
	b.structs = append(b.structs, s)
	return s
}

func (b *Builder) SetStructBody(t ir.Type, fields []ir.Type) {
	st := asType(t)
	st.fields = make([]*typ, len(fields))
	for i, f := range fields {
		st.fields[i] = asType(f)
	}
}

// ---- module scope ----

func (b *Builder) newFunction(name string, fnType ir.Type, defined bool) *value {
	ft := asType(fnType)
	f := &value{kind: kFunc, name: name, typ: ft, defined: defined}
	f.params = make([]*value, len(ft.params))
	for i, pt := range ft.params {
		f.params[i] = &value{kind: kParam, typ: pt, index: i, name: fmt.Sprintf("%%arg%d", i)}
	}
	b.funcs = append(b.funcs, f)
	return f
}

func (b *Builder) DeclareFunction(name string, fnType ir.Type) ir.Value {
	return b.newFunction(name, fnType, false)
}

func (b *Builder) DefineFunction(name string, fnType ir.Type) ir.Value {
	return b.newFunction(name, fnType, true)
}

func (b *Builder) AddGlobal(name string, t ir.Type) ir.Value {
	g := &value{kind: kGlobal, name: name, typ: &typ{kind: kPointer, elem: asType(t)}}
	b.globals = append(b.globals, g)
	return g
}

func (b *Builder) SetInitializer(global, val ir.Value) {
	asValue(global).initializer = asValue(val)
}

// ---- function scope ----

func (b *Builder) Param(fn ir.Value, index int) ir.Value {
	return asValue(fn).params[index]
}

func (b *Builder) AppendBlock(fn ir.Value, name string) ir.Value {
	f := asValue(fn)
	if name == "" {
		name = fmt.Sprintf("bb%d", b.nextBlk)
		b.nextBlk++
	}
	blk := &value{kind: kBlock, name: name, fn: f}
	f.blocks = append(f.blocks, blk)
	return blk
}

func (b *Builder) SetInsertBlock(block ir.Value) {
	b.cur = asValue(block)
}

// ---- constants ----

func (b *Builder) ConstInt(t ir.Type, v int64) ir.Value {
	return &value{kind: kConstInt, typ: asType(t), intVal: v}
}

func (b *Builder) ConstNull(t ir.Type) ir.Value {
	return &value{kind: kConstNull, typ: asType(t)}
}

func (b *Builder) GlobalStringPtr(s string) ir.Value {
	name := fmt.Sprintf(".str.%d", b.nextStr)
	b.nextStr++
	elemT := &typ{kind: kInt, bits: 8}
	arrT := &typ{kind: kArray, elem: elemT, length: len(s) + 1}
	g := &value{kind: kGlobal, name: name, typ: &typ{kind: kPointer, elem: arrT}, strVal: s, isString: true}
	b.globals = append(b.globals, g)
	return g
}

// ---- instruction emission ----

func (b *Builder) emit(op string, t *typ, operands ...*value) *value {
	instr := &value{kind: kInstr, op: op, typ: t, operands: operands}
	instr.name = fmt.Sprintf("%%t%d", b.nextTemp)
	b.nextTemp++
	b.cur.instrs = append(b.cur.instrs, instr)
	return instr
}

func (b *Builder) emitVoid(op string, operands ...*value) {
	b.cur.instrs = append(b.cur.instrs, &value{kind: kInstr, op: op, typ: &typ{kind: kVoid}, operands: operands})
}

func (b *Builder) Add(l, r ir.Value) ir.Value { return b.emit("add", asValue(l).typ, asValue(l), asValue(r)) }
func (b *Builder) Sub(l, r ir.Value) ir.Value { return b.emit("sub", asValue(l).typ, asValue(l), asValue(r)) }
func (b *Builder) Mul(l, r ir.Value) ir.Value { return b.emit("mul", asValue(l).typ, asValue(l), asValue(r)) }
func (b *Builder) SDiv(l, r ir.Value) ir.Value {
	return b.emit("sdiv", asValue(l).typ, asValue(l), asValue(r))
}
func (b *Builder) SRem(l, r ir.Value) ir.Value {
	return b.emit("srem", asValue(l).typ, asValue(l), asValue(r))
}
func (b *Builder) Neg(v ir.Value) ir.Value { return b.emit("neg", asValue(v).typ, asValue(v)) }

func (b *Builder) ICmp(pred ir.IntPredicate, l, r ir.Value) ir.Value {
	return b.emit("icmp "+pred.String(), &typ{kind: kInt, bits: 1}, asValue(l), asValue(r))
}

func (b *Builder) Trunc(v ir.Value, t ir.Type) ir.Value {
	return b.emit("trunc", asType(t), asValue(v))
}
func (b *Builder) SExt(v ir.Value, t ir.Type) ir.Value {
	return b.emit("sext", asType(t), asValue(v))
}
func (b *Builder) ZExt(v ir.Value, t ir.Type) ir.Value {
	return b.emit("zext", asType(t), asValue(v))
}
func (b *Builder) IntToPtr(v ir.Value, t ir.Type) ir.Value {
	return b.emit("inttoptr", asType(t), asValue(v))
}
func (b *Builder) PtrToInt(v ir.Value, t ir.Type) ir.Value {
	return b.emit("ptrtoint", asType(t), asValue(v))
}
func (b *Builder) PointerCast(v ir.Value, t ir.Type) ir.Value {
	return b.emit("bitcast", asType(t), asValue(v))
}

func (b *Builder) Alloca(t ir.Type) ir.Value {
	return b.emit("alloca "+asType(t).String(), &typ{kind: kPointer, elem: asType(t)})
}

func (b *Builder) Load(ptr ir.Value) ir.Value {
	p := asValue(ptr)
	return b.emit("load", p.typ.elem, p)
}

func (b *Builder) Store(val, ptr ir.Value) {
	b.emitVoid("store", asValue(val), asValue(ptr))
}

func (b *Builder) StructGEP(ptr ir.Value, index int) ir.Value {
	p := asValue(ptr)
	st := p.typ.elem
	fieldT := st.fields[index]
	return b.emit("getelementptr", &typ{kind: kPointer, elem: fieldT}, p)
}

func (b *Builder) Call(fn ir.Value, args []ir.Value) ir.Value {
	f := asValue(fn)
	ft := f.typ
	ops := make([]*value, 0, len(args)+1)
	ops = append(ops, f)
	for _, a := range args {
		ops = append(ops, asValue(a))
	}
	if ft.ret.kind == kVoid {
		b.emitVoid("call void", ops...)
		return nil
	}
	return b.emit("call "+ft.ret.String(), ft.ret, ops...)
}

func (b *Builder) Br(dest ir.Value) {
	b.emitVoid("br", asValue(dest))
}

func (b *Builder) CondBr(cond, then, els ir.Value) {
	b.emitVoid("br", asValue(cond), asValue(then), asValue(els))
}

func (b *Builder) Switch(v, defaultDest ir.Value) ir.Value {
	sw := &value{kind: kInstr, op: "switch", typ: &typ{kind: kVoid}, operands: []*value{asValue(v), asValue(defaultDest)}}
	b.cur.instrs = append(b.cur.instrs, sw)
	return sw
}

func (b *Builder) AddCase(sw, onVal, dest ir.Value) {
	s := asValue(sw)
	s.operands = append(s.operands, asValue(onVal), asValue(dest))
}

func (b *Builder) Phi(t ir.Type, block ir.Value) ir.Value {
	save := b.cur
	b.cur = asValue(block)
	phi := b.emit("phi", asType(t))
	b.cur = save
	return phi
}

func (b *Builder) AddIncoming(phi, val, block ir.Value) {
	p := asValue(phi)
	p.operands = append(p.operands, asValue(val), asValue(block))
}

func (b *Builder) GetBasicBlockParent(block ir.Value) ir.Value {
	return asValue(block).fn
}

func (b *Builder) PrintValue(v ir.Value) string {
	return asValue(v).String()
}

func (b *Builder) Ret(v ir.Value) {
	b.emitVoid("ret", asValue(v))
}

func (b *Builder) RetVoid() {
	b.emitVoid("ret void")
}

// ---- output ----

func (b *Builder) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "; module %s\n", b.moduleName)
	for _, s := range b.structs {
		names := make([]string, len(s.fields))
		for i, f := range s.fields {
			names[i] = f.String()
		}
		fmt.Fprintf(&sb, "%%%s = type { %s }\n", s.name, strings.Join(names, ", "))
	}
	for _, g := range b.globals {
		if g.isString {
			fmt.Fprintf(&sb, "@%s = private constant %s c%q\n", g.name, g.typ.elem, g.strVal)
			continue
		}
		fmt.Fprintf(&sb, "@%s = global %s\n", g.name, g.typ.elem)
	}
	for _, f := range b.funcs {
		writeFunction(&sb, f)
	}
	return sb.String()
}

func writeFunction(sb *strings.Builder, f *value) {
	ft := f.typ
	if !f.defined {
		fmt.Fprintf(sb, "declare %s @%s(%s)\n", ft.ret, f.name, joinParams(ft.params))
		return
	}
	fmt.Fprintf(sb, "define %s @%s(%s) {\n", ft.ret, f.name, joinParams(ft.params))
	for _, blk := range f.blocks {
		fmt.Fprintf(sb, "%s:\n", blk.name)
		for _, instr := range blk.instrs {
			writeInstr(sb, instr)
		}
	}
	sb.WriteString("}\n")
}

func joinParams(params []*typ) string {
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = p.String()
	}
	return strings.Join(parts, ", ")
}

func writeInstr(sb *strings.Builder, instr *value) {
	operandStrs := make([]string, len(instr.operands))
	for i, o := range instr.operands {
		operandStrs[i] = o.String()
	}
	if instr.typ != nil && instr.typ.kind != kVoid {
		fmt.Fprintf(sb, "  %s = %s %s\n", instr.name, instr.op, strings.Join(operandStrs, ", "))
		return
	}
	fmt.Fprintf(sb, "  %s %s\n", instr.op, strings.Join(operandStrs, ", "))
}

// Verify checks that every defined function's every basic block ends with
// a terminator instruction (br or ret), the structural check
// LLVMVerifyModule with LLVMReturnStatusAction performs.
func (b *Builder) Verify() error {
	for _, f := range b.funcs {
		if !f.defined {
			continue
		}
		if len(f.blocks) == 0 {
			return fmt.Errorf("function %s has a body but no basic blocks", f.name)
		}
		for _, blk := range f.blocks {
			if len(blk.instrs) == 0 {
				return fmt.Errorf("function %s: block %s has no terminator", f.name, blk.name)
			}
			last := blk.instrs[len(blk.instrs)-1]
			if last.op != "br" && last.op != "ret" && last.op != "ret void" && last.op != "switch" {
				return fmt.Errorf("function %s: block %s does not end in a terminator", f.name, blk.name)
			}
		}
	}
	return nil
}
