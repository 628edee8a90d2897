// Package preproc implements the token-stream normalizer that sits
// between the lexer and the parser: it drops whitespace and newline
// tokens and folds consecutive string literals into one.
package preproc

import (
	"github.com/nocc-go/nocc/diag"
	"github.com/nocc-go/nocc/lexer"
)

// Process filters and folds a raw token stream from lexer.Tokenize.
// Grounded on original_source/preprocessor.c's preprocess/
// preprocess_lines/preprocess_line/pp_string/pp_concat_string: unlike
// the teacher's preproc package, there is no macro language here
// (#DEFINE/#IF/#INCLUDE) — the C-like grammar this module targets has
// none — so this is purely a filter-and-fold pass over tokens the lexer
// already produced.
func Process(filename string, tokens []lexer.Token) ([]lexer.Token, error) {
	var result []lexer.Token

	for i := 0; i < len(tokens); i++ {
		t := tokens[i]

		switch t.Type {
		case lexer.EOF:
			result = append(result, t)
			return result, nil

		case lexer.TokenType(' '), lexer.TokenType('\n'):
			continue

		case lexer.STRING:
			if n := len(result); n > 0 && result[n-1].Type == lexer.STRING {
				result[n-1] = concatString(result[n-1], t)
			} else {
				result = append(result, t)
			}

		default:
			result = append(result, t)
		}
	}

	return nil, diag.New(diag.Lex, filename, 0, "unexpected end of token stream before EOF")
}

// concatString folds adjacent string literal tokens the way
// original_source/preprocessor.c's pp_concat_string does: the combined
// spelling drops the closing quote of the first token and the opening
// quote of the second, and the decoded value is a straight byte
// concatenation.
func concatString(a, b lexer.Token) lexer.Token {
	aLit := a.Literal[:len(a.Literal)-1] // drop closing '"'
	bLit := b.Literal[1:]               // drop opening '"'
	a.Literal = aLit + bLit
	a.Value = a.Value + b.Value
	return a
}
