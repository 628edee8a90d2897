// Package types implements the type registry: the small set of C-like
// types the front end reasons about (void, int8, int32, pointer, array,
// function, struct), their construction, and their equality rules.
package types

// Kind identifies which concrete Type variant a Type value is.
type Kind int

const (
	Void Kind = iota
	Int8
	Int32
	Pointer
	Array
	Function
	Struct
)

func (k Kind) String() string {
	switch k {
	case Void:
		return "void"
	case Int8:
		return "char"
	case Int32:
		return "int"
	case Pointer:
		return "pointer"
	case Array:
		return "array"
	case Function:
		return "function"
	case Struct:
		return "struct"
	default:
		return "unknown"
	}
}

// Type is the common interface satisfied by every type variant. The
// concrete variants below carry their own extra fields; callers switch on
// Kind() or use the Is*/As* helpers to reach them.
type Type interface {
	Kind() Kind
}

type voidType struct{}
type int8Type struct{}
type int32Type struct{}

func (voidType) Kind() Kind  { return Void }
func (int8Type) Kind() Kind  { return Int8 }
func (int32Type) Kind() Kind { return Int32 }

// The primitive types are singletons: every call to
// VoidType/Int8Type/Int32Type returns the same Type value, so identity
// comparison (a == b) is a
// valid fast path for equality, matching original_source/type.c's
// `Type void_`/`int8`/`int32` static instances.
var (
	voidSingleton  Type = voidType{}
	int8Singleton  Type = int8Type{}
	int32Singleton Type = int32Type{}
)

func VoidType() Type  { return voidSingleton }
func Int8Type() Type  { return int8Singleton }
func Int32Type() Type { return int32Singleton }

// PointerT is a pointer to an ElementType.
type PointerT struct {
	ElementType Type
}

func (*PointerT) Kind() Kind { return Pointer }

func NewPointer(element Type) Type {
	if element == nil {
		panic("types: NewPointer requires a non-nil element type")
	}
	return &PointerT{ElementType: element}
}

// ArrayT is a fixed-length array of ElementType.
type ArrayT struct {
	ElementType Type
	Length      int
}

func (*ArrayT) Kind() Kind { return Array }

func NewArray(element Type, length int) Type {
	if element == nil {
		panic("types: NewArray requires a non-nil element type")
	}
	if length < 1 {
		panic("types: NewArray requires length >= 1")
	}
	return &ArrayT{ElementType: element, Length: length}
}

// FunctionT is a function signature: return type, ordered parameter
// types, and whether it accepts a trailing variadic argument list.
type FunctionT struct {
	ReturnType Type
	ParamTypes []Type
	VarArgs    bool
}

func (*FunctionT) Kind() Kind { return Function }

func NewFunction(ret Type, params []Type, varArgs bool) Type {
	if ret == nil {
		panic("types: NewFunction requires a non-nil return type")
	}
	cp := make([]Type, len(params))
	copy(cp, params)
	return &FunctionT{ReturnType: ret, ParamTypes: cp, VarArgs: varArgs}
}

// Member is one field of a struct type.
type Member struct {
	Name string
	Type Type
}

// StructT is a nominal struct type: two StructT values are only ever
// equal by pointer identity (see Equals below), matching
// original_source/type.c's `case type_struct: return false;` — even two
// structs with identical tags and members compare unequal unless they
// are literally the same registered type.
//
// A struct starts Incomplete (tag declared, body not yet seen) and is
// completed in place exactly once by CompleteStruct.
type StructT struct {
	Tag        string
	Members    []Member
	Incomplete bool
}

func (*StructT) Kind() Kind { return Struct }

// NewIncompleteStruct registers a struct tag with no members yet. Used
// both for a forward declaration (`struct tag;`) and as the first step
// of a full definition (`struct tag { ... }`), which later completes it
// via CompleteStruct.
func NewIncompleteStruct(tag string) *StructT {
	return &StructT{Tag: tag, Incomplete: true}
}

// CompleteStruct fills in a previously incomplete struct's member list.
// It panics if the struct is already complete (a struct body may only be
// given once) or if members is empty (an empty struct body is rejected
// by the parser before this is ever called, but the invariant is cheap
// to enforce here too).
func CompleteStruct(t *StructT, members []Member) {
	if !t.Incomplete {
		panic("types: struct " + t.Tag + " is already complete")
	}
	if len(members) == 0 {
		panic("types: struct " + t.Tag + " cannot be completed with no members")
	}
	t.Members = members
	t.Incomplete = false
}

// FindMember returns the named member and its index, or (nil, -1) if no
// member with that name exists. original_source/type.c's
// struct_type_find_member loops with `for (*index = 0;
// struct_type_count_members(t); (*index)++)` — a condition that never
// references *index and so never terminates on a miss; this port uses an
// ordinary bounded loop instead.
func (t *StructT) FindMember(name string) (*Member, int) {
	for i := range t.Members {
		if t.Members[i].Name == name {
			return &t.Members[i], i
		}
	}
	return nil, -1
}

// Equals reports whether a and b are the same type. Pointer and array
// types compare structurally (recursively, on element type and, for
// arrays, length); function types compare structurally on return type,
// parameter types, and variadic-ness; struct types compare only by
// identity (see StructT doc); void and int32/int8 singletons compare by
// identity, which the Kind equality below already covers.
func Equals(a, b Type) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch av := a.(type) {
	case voidType, int8Type, int32Type:
		return true
	case *PointerT:
		bv := b.(*PointerT)
		return Equals(av.ElementType, bv.ElementType)
	case *ArrayT:
		bv := b.(*ArrayT)
		return av.Length == bv.Length && Equals(av.ElementType, bv.ElementType)
	case *FunctionT:
		bv := b.(*FunctionT)
		if !Equals(av.ReturnType, bv.ReturnType) {
			return false
		}
		if len(av.ParamTypes) != len(bv.ParamTypes) {
			return false
		}
		for i := range av.ParamTypes {
			if !Equals(av.ParamTypes[i], bv.ParamTypes[i]) {
				return false
			}
		}
		return av.VarArgs == bv.VarArgs
	case *StructT:
		return false
	default:
		return false
	}
}

// IsVoid, IsInt8, IsInt32, IsPointer, IsArray, IsFunction and IsStruct
// are Kind()-based predicates mirroring original_source/type.c's
// is_void_type/is_int8_type/...

func IsVoid(t Type) bool     { return t.Kind() == Void }
func IsInt8(t Type) bool     { return t.Kind() == Int8 }
func IsInt32(t Type) bool    { return t.Kind() == Int32 }
func IsPointer(t Type) bool  { return t.Kind() == Pointer }
func IsArray(t Type) bool    { return t.Kind() == Array }
func IsFunction(t Type) bool { return t.Kind() == Function }
func IsStruct(t Type) bool   { return t.Kind() == Struct }

// IsIncomplete reports whether t cannot be instantiated as a value: void,
// function types, and not-yet-completed struct types are all incomplete.
func IsIncomplete(t Type) bool {
	switch tv := t.(type) {
	case voidType:
		return true
	case *FunctionT:
		return true
	case *StructT:
		return tv.Incomplete
	default:
		return false
	}
}

// IsVoidPointer reports whether t is a pointer to void.
func IsVoidPointer(t Type) bool {
	return IsPointer(t) && IsVoid(PointerElement(t))
}

// IsFunctionPointer reports whether t is a pointer to a function type.
func IsFunctionPointer(t Type) bool {
	return IsPointer(t) && IsFunction(PointerElement(t))
}

// IsIncompletePointer reports whether t is a pointer whose pointee is
// itself incomplete (e.g. `struct tag *` before `struct tag`'s body has
// been seen).
func IsIncompletePointer(t Type) bool {
	return IsPointer(t) && IsIncomplete(PointerElement(t))
}

// PointerElement returns the pointee type, or nil if t is not a pointer.
func PointerElement(t Type) Type {
	p, ok := t.(*PointerT)
	if !ok {
		return nil
	}
	return p.ElementType
}

// ArrayElement returns the element type, or nil if t is not an array.
func ArrayElement(t Type) Type {
	a, ok := t.(*ArrayT)
	if !ok {
		return nil
	}
	return a.ElementType
}

// ArrayLength returns the declared element count, or -1 if t is not an
// array.
func ArrayLength(t Type) int {
	a, ok := t.(*ArrayT)
	if !ok {
		return -1
	}
	return a.Length
}

// FunctionReturn returns the return type, or nil if t is not a function
// type.
func FunctionReturn(t Type) Type {
	f, ok := t.(*FunctionT)
	if !ok {
		return nil
	}
	return f.ReturnType
}

// FunctionParamCount returns the number of declared parameters, or -1 if
// t is not a function type.
func FunctionParamCount(t Type) int {
	f, ok := t.(*FunctionT)
	if !ok {
		return -1
	}
	return len(f.ParamTypes)
}

// FunctionParam returns the index'th declared parameter type. It panics
// if index is out of range, mirroring original_source/type.c's assert.
func FunctionParam(t Type, index int) Type {
	f := t.(*FunctionT)
	return f.ParamTypes[index]
}

// FunctionVarArgs reports whether a function type accepts a trailing
// variadic argument list (only legal on a prototype, never on a
// definition — enforced by the parser, not here).
func FunctionVarArgs(t Type) bool {
	f, ok := t.(*FunctionT)
	if !ok {
		return false
	}
	return f.VarArgs
}
