// Package scope implements the two-stack scope environment the parser
// threads through a translation unit: one stack of value scopes
// (variables, functions, typedefs) and one stack of tag scopes (struct
// tags), pushed and popped in lockstep around every block, function
// body, and struct body.
package scope

// Entry is anything a scope can bind a name to. The parser's semantic
// layer stores its own symbol types (variable/function/typedef/struct
// tag symbols) here; this package only needs to store and retrieve them
// by name.
type Entry any

type level map[string]Entry

// Stack is a stack of name->Entry scopes, innermost last.
//
// original_source/scope_stack.c's scope_stack_find walks the stack with
// `i = size - 1; do { ... } while (i-- >= 0 && recursive);`, which keeps
// decrementing i past 0 to -1 before the loop condition is checked (the
// post-decrement happens unconditionally even on the last iteration).
// That never causes a bad access in the original only because the loop
// body already returned whenever it found a match, and the one miss path
// is reached at i == 0 with the decrement immediately discarded. A literal
// translation of the same decrement-then-check shape into Go is not safe
// to reuse as a slice index, so Find below is written as an ordinary
// bounded descent from len-1 to 0 instead.
type Stack struct {
	levels []level
}

// New returns a stack with one empty, outermost scope already pushed.
func New() *Stack {
	return &Stack{levels: []level{{}}}
}

// Push opens a new, innermost scope.
func (s *Stack) Push() {
	s.levels = append(s.levels, level{})
}

// Pop closes the innermost scope. It panics if called with no scope left
// to pop (the outermost scope pushed by New is never popped).
func (s *Stack) Pop() {
	if len(s.levels) <= 1 {
		panic("scope: cannot pop the outermost scope")
	}
	s.levels = s.levels[:len(s.levels)-1]
}

// Depth reports how many scopes are currently pushed. A translation unit
// is well-formed only if Depth() == 1 both before and after it is parsed.
func (s *Stack) Depth() int {
	return len(s.levels)
}

// Define binds name to entry in the innermost scope. It reports whether
// name was already bound in that same (innermost) scope — callers use
// this to detect redeclaration, since redeclaration is only an error
// within one scope, not across nested ones.
func (s *Stack) Define(name string, entry Entry) (redefined bool) {
	innermost := s.levels[len(s.levels)-1]
	_, exists := innermost[name]
	innermost[name] = entry
	return exists
}

// Find looks up name. If recursive is false, only the innermost scope is
// searched (used for redeclaration checks). If recursive is true, every
// scope is searched from innermost to outermost (used for ordinary name
// resolution).
func (s *Stack) Find(name string, recursive bool) (Entry, bool) {
	for i := len(s.levels) - 1; i >= 0; i-- {
		if e, ok := s.levels[i][name]; ok {
			return e, true
		}
		if !recursive {
			return nil, false
		}
	}
	return nil, false
}

// FindInnermost looks up name in the innermost scope only. It is
// equivalent to Find(name, false) and exists as a clearer spelling at
// call sites that are specifically checking for redeclaration.
func (s *Stack) FindInnermost(name string) (Entry, bool) {
	return s.Find(name, false)
}
