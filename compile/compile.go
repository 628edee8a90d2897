// Package compile wires the front end's stages into one entry point:
// lex, preprocess, parse (fused with semantic analysis), generate, and
// verify. It owns no logic of its own beyond that sequencing and is the
// package cmd/nocc calls into.
package compile

import (
	"github.com/nocc-go/nocc/diag"
	"github.com/nocc-go/nocc/generator"
	"github.com/nocc-go/nocc/ir"
	"github.com/nocc-go/nocc/lexer"
	"github.com/nocc-go/nocc/parser"
	"github.com/nocc-go/nocc/preproc"
)

// CompileError is the structured diagnostic every stage below returns;
// re-exported here so callers of this package don't need to import diag
// directly just to type-switch on a failure's Kind.
type CompileError = diag.Error

// Compile runs filename's source through the whole pipeline and lowers
// it against builder. The first error from any stage is fatal and
// returned immediately — per spec.md's error-handling design, this front
// end makes no attempt at recovery or continuing past a failure.
func Compile(filename, src string, builder ir.Builder) (*ir.Module, error) {
	tokens, err := lexer.Tokenize(filename, src)
	if err != nil {
		return nil, err
	}

	tokens, err = preproc.Process(filename, tokens)
	if err != nil {
		return nil, err
	}

	tu, err := parser.Parse(filename, tokens)
	if err != nil {
		return nil, err
	}

	return generator.Generate(filename, tu, builder)
}
