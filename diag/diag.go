// Package diag defines the structured error taxonomy shared by every
// compilation stage (lexer, preproc, parser, generator, compile). It
// exists as its own leaf package, with no dependency on any other
// package in this module, so that every stage can construct one without
// creating an import cycle with the orchestration package that strings
// them together.
package diag

import "fmt"

// Kind classifies a diagnostic by which stage raised it and why.
type Kind string

const (
	Lex              Kind = "lex"
	Parse            Kind = "parse"
	SemaType         Kind = "sema-type"
	SemaLookup       Kind = "sema-lookup"
	SemaLValue       Kind = "sema-lvalue"
	SemaControlFlow  Kind = "sema-control-flow"
	SemaRedefinition Kind = "sema-redefinition"
	GenInternal      Kind = "gen-internal"
	Verify           Kind = "verify"
)

// Error is the one error type every compilation stage returns instead of
// panicking or calling os.Exit. original_source reports every one of
// these conditions with `fprintf(stderr, "error at %s(%d): ...");
// exit(1);` (see lexer.c's parse_literal_char, sema.c throughout,
// parser.c throughout); this type keeps the same message wording and
// "error at file(line): message" shape but returns it as a normal Go
// error instead of terminating the process, so the decision to print and
// exit belongs to cmd/nocc alone.
type Error struct {
	Kind     Kind
	Filename string
	Line     int // 0 means the error isn't tied to a specific line
	Message  string
}

func New(kind Kind, filename string, line int, format string, args ...any) *Error {
	return &Error{Kind: kind, Filename: filename, Line: line, Message: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("error at %s(%d): %s", e.Filename, e.Line, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Filename, e.Message)
}
