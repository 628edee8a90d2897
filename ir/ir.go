// Package ir defines the contract the generator lowers a translation unit
// against. Builder abstracts a single LLVM-module-in-progress the way
// original_source/llvm.h's flat C API does: one context holds a module, a
// positionable instruction builder, and a handful of opaque reference
// types (LLVMTypeRef, LLVMValueRef, LLVMBasicBlockRef). Types and Values
// are opaque here too — the generator only ever receives one back from a
// Builder call and passes it to another Builder call, never inspects it.
package ir

// Type is an opaque type handle returned by one of Builder's type
// constructors.
type Type interface{}

// Value is an opaque value handle: a constant, a global, a function, a
// basic block, or the result of an instruction.
type Value interface{}

// IntPredicate mirrors the subset of LLVMIntPredicate this front end ever
// emits (original_source/llvm.h: LLVMIntEQ, LLVMIntNE, LLVMIntSGT,
// LLVMIntSGE, LLVMIntSLT, LLVMIntSLE). There is no unsigned comparison
// because every integer type this compiler has is signed.
type IntPredicate int

const (
	IntEQ IntPredicate = iota
	IntNE
	IntSGT
	IntSGE
	IntSLT
	IntSLE
)

func (p IntPredicate) String() string {
	switch p {
	case IntEQ:
		return "eq"
	case IntNE:
		return "ne"
	case IntSGT:
		return "sgt"
	case IntSGE:
		return "sge"
	case IntSLT:
		return "slt"
	case IntSLE:
		return "sle"
	default:
		return "unknown"
	}
}

// Builder is the whole surface the generator lowers an AST against. A
// Builder owns exactly one module and, at any moment, an implicit insert
// point set by SetInsertBlock — mirroring LLVMPositionBuilderAtEnd, which
// the original compiler calls before emitting each new statement's
// instructions.
type Builder interface {
	// ---- types ----

	VoidType() Type
	Int1Type() Type
	Int8Type() Type
	Int32Type() Type
	PointerType(elem Type) Type
	ArrayType(elem Type, length int) Type
	FunctionType(ret Type, params []Type, varArgs bool) Type

	// NamedStructType registers (or returns, if already registered) an
	// opaque named struct type, mirroring LLVMStructCreateNamed. The body
	// is filled in later by SetStructBody, once all of its member types
	// are known — a struct type may be referenced (as a pointee) before
	// its own body is complete.
	NamedStructType(name string) Type
	SetStructBody(t Type, fields []Type)

	// ---- module scope ----

	// DeclareFunction registers fn's signature without a body
	// (LLVMAddFunction with no basic blocks ever appended — what
	// LLVMPrintModuleToString renders as a `declare`).
	DeclareFunction(name string, fnType Type) Value

	// DefineFunction registers fn's signature and marks it for a body
	// (what renders as a `define`); the caller still has to AppendBlock
	// and emit instructions into it.
	DefineFunction(name string, fnType Type) Value

	AddGlobal(name string, t Type) Value
	SetInitializer(global Value, value Value)

	// ---- function scope ----

	Param(fn Value, index int) Value
	AppendBlock(fn Value, name string) Value
	SetInsertBlock(block Value)

	// ---- constants ----

	ConstInt(t Type, v int64) Value
	ConstNull(t Type) Value
	GlobalStringPtr(s string) Value

	// ---- arithmetic and comparison ----

	Add(l, r Value) Value
	Sub(l, r Value) Value
	Mul(l, r Value) Value
	SDiv(l, r Value) Value
	SRem(l, r Value) Value
	Neg(v Value) Value
	ICmp(pred IntPredicate, l, r Value) Value

	// ---- conversions ----

	Trunc(v Value, t Type) Value
	SExt(v Value, t Type) Value
	ZExt(v Value, t Type) Value
	IntToPtr(v Value, t Type) Value
	PtrToInt(v Value, t Type) Value
	PointerCast(v Value, t Type) Value

	// ---- memory ----

	Alloca(t Type) Value
	Load(ptr Value) Value
	Store(val, ptr Value)
	StructGEP(ptr Value, index int) Value

	// ---- control flow ----

	Call(fn Value, args []Value) Value
	Br(dest Value)
	CondBr(cond Value, then, els Value)

	// Switch and AddCase together cover a multi-way branch; unused by
	// this front end's grammar (no switch statement, see spec §6's
	// source-language surface) but part of the collaborator contract a
	// generator is entitled to rely on.
	Switch(v Value, defaultDest Value) Value
	AddCase(sw Value, onVal Value, dest Value)

	// Phi and AddIncoming cover real SSA merge points; this generator
	// never needs them since it allocates a stack slot for every local
	// and goes through Load/Store instead (see generator/ — the simpler,
	// always-correct lowering for a front end this size), but they are
	// part of the collaborator contract.
	Phi(t Type, block Value) Value
	AddIncoming(phi Value, val Value, block Value)

	GetBasicBlockParent(block Value) Value

	Ret(v Value)
	RetVoid()

	// ---- output ----

	// String renders the whole module as LLVM-IR-like assembly text, the
	// way LLVMPrintModuleToString does.
	String() string

	// PrintValue renders a single value (useful for -dump-ast/-dump-ir
	// style debugging without printing the whole module).
	PrintValue(v Value) string

	// Verify runs the structural checks LLVMVerifyModule with
	// LLVMReturnStatusAction performs (every block terminated, no use
	// before def across blocks this front end could introduce) and
	// returns the failure message as an error, or nil.
	Verify() error
}

// Module is the opaque handle compile.Compile hands back: the Builder a
// translation unit was lowered into, frozen once lowering and
// verification succeed. Callers that only need to print or re-verify the
// result never need to know which Builder implementation produced it.
type Module struct {
	Builder Builder
}

func (m *Module) String() string { return m.Builder.String() }

func (m *Module) Verify() error { return m.Builder.Verify() }
