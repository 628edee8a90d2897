package types

import "testing"

func TestPrimitiveSingletons(t *testing.T) {
	if VoidType() != VoidType() {
		t.Fatalf("VoidType() is not a singleton")
	}
	if Int32Type() != Int32Type() {
		t.Fatalf("Int32Type() is not a singleton")
	}
	if !Equals(Int32Type(), Int32Type()) {
		t.Fatalf("Int32Type() should equal itself")
	}
	if Equals(Int32Type(), Int8Type()) {
		t.Fatalf("Int32Type() should not equal Int8Type()")
	}
}

func TestPointerEquality(t *testing.T) {
	a := NewPointer(Int32Type())
	b := NewPointer(Int32Type())
	if a == b {
		t.Fatalf("two separately constructed pointer types should not be the same value")
	}
	if !Equals(a, b) {
		t.Fatalf("pointer types to the same element type should compare equal")
	}
	c := NewPointer(Int8Type())
	if Equals(a, c) {
		t.Fatalf("pointer types to different element types should not compare equal")
	}
}

func TestArrayEquality(t *testing.T) {
	a := NewArray(Int32Type(), 4)
	b := NewArray(Int32Type(), 4)
	if !Equals(a, b) {
		t.Fatalf("arrays of same element type and length should compare equal")
	}
	c := NewArray(Int32Type(), 5)
	if Equals(a, c) {
		t.Fatalf("arrays of different length should not compare equal")
	}
}

func TestFunctionEquality(t *testing.T) {
	f1 := NewFunction(Int32Type(), []Type{Int32Type(), Int32Type()}, false)
	f2 := NewFunction(Int32Type(), []Type{Int32Type(), Int32Type()}, false)
	if !Equals(f1, f2) {
		t.Fatalf("functions with identical signatures should compare equal")
	}
	f3 := NewFunction(Int32Type(), []Type{Int32Type()}, false)
	if Equals(f1, f3) {
		t.Fatalf("functions with different arity should not compare equal")
	}
	f4 := NewFunction(Int32Type(), []Type{Int32Type(), Int32Type()}, true)
	if Equals(f1, f4) {
		t.Fatalf("functions differing only in var_args should not compare equal")
	}
}

func TestStructIdentityOnlyEquality(t *testing.T) {
	a := NewIncompleteStruct("tag")
	CompleteStruct(a, []Member{{Name: "x", Type: Int32Type()}})

	b := NewIncompleteStruct("tag")
	CompleteStruct(b, []Member{{Name: "x", Type: Int32Type()}})

	if Equals(a, b) {
		t.Fatalf("two distinct struct types with the same tag and members must not compare equal")
	}
	if !Equals(a, a) {
		t.Fatalf("a struct type must compare equal to itself")
	}
}

func TestStructCompletionOnce(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on double completion")
		}
	}()
	s := NewIncompleteStruct("tag")
	CompleteStruct(s, []Member{{Name: "x", Type: Int32Type()}})
	CompleteStruct(s, []Member{{Name: "y", Type: Int32Type()}})
}

func TestFindMember(t *testing.T) {
	s := NewIncompleteStruct("point")
	CompleteStruct(s, []Member{
		{Name: "x", Type: Int32Type()},
		{Name: "y", Type: Int32Type()},
	})

	m, idx := s.FindMember("y")
	if m == nil || idx != 1 {
		t.Fatalf("expected to find member y at index 1, got %v idx=%d", m, idx)
	}

	m, idx = s.FindMember("z")
	if m != nil || idx != -1 {
		t.Fatalf("expected no member z, got %v idx=%d", m, idx)
	}
}

func TestIncompleteness(t *testing.T) {
	if !IsIncomplete(VoidType()) {
		t.Fatalf("void must be incomplete")
	}
	if IsIncomplete(Int32Type()) {
		t.Fatalf("int32 must not be incomplete")
	}
	fn := NewFunction(VoidType(), nil, false)
	if !IsIncomplete(fn) {
		t.Fatalf("function types must be incomplete")
	}
	s := NewIncompleteStruct("tag")
	if !IsIncomplete(s) {
		t.Fatalf("a struct with no body yet must be incomplete")
	}
	CompleteStruct(s, []Member{{Name: "x", Type: Int32Type()}})
	if IsIncomplete(s) {
		t.Fatalf("a completed struct must not be incomplete")
	}
}

func TestVoidAndFunctionPointerPredicates(t *testing.T) {
	vp := NewPointer(VoidType())
	if !IsVoidPointer(vp) {
		t.Fatalf("expected void pointer predicate to hold")
	}
	fn := NewFunction(Int32Type(), nil, false)
	fp := NewPointer(fn)
	if !IsFunctionPointer(fp) {
		t.Fatalf("expected function pointer predicate to hold")
	}
	s := NewIncompleteStruct("tag")
	sp := NewPointer(s)
	if !IsIncompletePointer(sp) {
		t.Fatalf("pointer to incomplete struct should be reported incomplete")
	}
	CompleteStruct(s, []Member{{Name: "x", Type: Int32Type()}})
	if IsIncompletePointer(sp) {
		t.Fatalf("pointer to now-complete struct should not be reported incomplete")
	}
}
