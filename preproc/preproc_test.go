package preproc

import (
	"testing"

	"github.com/nocc-go/nocc/lexer"
)

func process(t *testing.T, src string) []lexer.Token {
	t.Helper()
	toks, err := lexer.Tokenize("test.c", src)
	if err != nil {
		t.Fatalf("lex error: %v", err)
	}
	out, err := Process("test.c", toks)
	if err != nil {
		t.Fatalf("preprocess error: %v", err)
	}
	return out
}

func TestDropsWhitespaceAndNewlines(t *testing.T) {
	out := process(t, "int  x\n;\n")
	for _, tok := range out {
		if tok.Type == lexer.TokenType(' ') || tok.Type == lexer.TokenType('\n') {
			t.Fatalf("whitespace/newline token survived preprocessing: %+v", tok)
		}
	}
	if out[len(out)-1].Type != lexer.EOF {
		t.Fatalf("expected trailing EOF token, got %+v", out[len(out)-1])
	}
}

func TestPreservesOrder(t *testing.T) {
	out := process(t, "int x;")
	expected := []lexer.TokenType{lexer.INT, lexer.IDENT, lexer.TokenType(';'), lexer.EOF}
	if len(out) != len(expected) {
		t.Fatalf("expected %d tokens, got %d", len(expected), len(out))
	}
	for i, exp := range expected {
		if out[i].Type != exp {
			t.Fatalf("token %d: expected %v, got %v", i, exp, out[i].Type)
		}
	}
}

func TestFoldsAdjacentStringLiterals(t *testing.T) {
	out := process(t, `"Hello, " "world!"`)
	if len(out) != 2 {
		t.Fatalf("expected one folded string token plus EOF, got %d tokens: %+v", len(out), out)
	}
	if out[0].Type != lexer.STRING {
		t.Fatalf("expected STRING, got %v", out[0].Type)
	}
	if out[0].Value != "Hello, world!" {
		t.Fatalf("expected folded value %q, got %q", "Hello, world!", out[0].Value)
	}
}

func TestFoldsThreeAdjacentStringLiterals(t *testing.T) {
	out := process(t, `"a" "b" "c"`)
	if len(out) != 2 {
		t.Fatalf("expected one folded string token plus EOF, got %d: %+v", len(out), out)
	}
	if out[0].Value != "abc" {
		t.Fatalf("expected folded value %q, got %q", "abc", out[0].Value)
	}
}

func TestDoesNotFoldStringsSeparatedByOtherTokens(t *testing.T) {
	out := process(t, `"a" x "b"`)
	if len(out) != 4 {
		t.Fatalf("expected 4 tokens (string, ident, string, eof), got %d: %+v", len(out), out)
	}
}
