// Command nocc is the compiler's entry point: it reads one source file,
// runs it through the lex/preprocess/parse/generate pipeline, and prints
// the resulting IR module. There is no linker and no JIT here — the
// module is printed (and, with -dump-tokens/-dump-ast, inspected
// mid-pipeline) rather than executed.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/nocc-go/nocc/ast"
	"github.com/nocc-go/nocc/compile"
	"github.com/nocc-go/nocc/ir/irtest"
	"github.com/nocc-go/nocc/lexer"
	"github.com/nocc-go/nocc/parser"
	"github.com/nocc-go/nocc/preproc"
)

const version = "0.1.0"

func main() {
	showVersion := flag.Bool("version", false, "Print version and exit")
	outputFile := flag.String("o", "", "Output file (default: stdout)")
	dumpTokens := flag.Bool("dump-tokens", false, "Print the token stream after preprocessing and exit")
	dumpAST := flag.Bool("dump-ast", false, "Print the parsed translation unit and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "nocc - a small C front end\n\n")
		fmt.Fprintf(os.Stderr, "Usage: %s [options] <input.c>\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	if *showVersion {
		fmt.Printf("nocc version %s\n", version)
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) < 1 {
		flag.Usage()
		os.Exit(1)
	}

	inputFile := args[0]
	src, err := os.ReadFile(inputFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %s\n", inputFile, err)
		os.Exit(1)
	}

	if *dumpTokens {
		runDumpTokens(inputFile, string(src))
		return
	}
	if *dumpAST {
		runDumpAST(inputFile, string(src))
		return
	}

	b := irtest.New(inputFile)
	mod, err := compile.Compile(inputFile, string(src), b)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	output := mod.String()
	if *outputFile != "" {
		if err := os.WriteFile(*outputFile, []byte(output), 0644); err != nil {
			fmt.Fprintf(os.Stderr, "error writing %s: %s\n", *outputFile, err)
			os.Exit(1)
		}
	} else {
		fmt.Print(output)
	}
}

func runDumpTokens(filename, src string) {
	toks, err := lexer.Tokenize(filename, src)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	toks, err = preproc.Process(filename, toks)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	for _, t := range toks {
		fmt.Printf("%d\t%-14s%q\n", t.Line, t.Type, t.Literal)
	}
}

func runDumpAST(filename, src string) {
	toks, err := lexer.Tokenize(filename, src)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	toks, err = preproc.Process(filename, toks)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	tu, err := parser.Parse(filename, toks)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	for _, d := range tu.Decls {
		dumpDecl(d, 0)
	}
}

// dumpDecl prints a one-line-per-node sketch of a top-level declaration;
// it exists purely as a debugging aid, not a pretty-printer, so it names
// each node's kind and the handful of fields useful for eyeballing what
// the parser produced rather than walking every field reflectively.
func dumpDecl(d ast.Decl, depth int) {
	indent := func(n int) {
		for i := 0; i < n; i++ {
			fmt.Print("  ")
		}
	}

	switch d := d.(type) {
	case *ast.FuncDecl:
		indent(depth)
		kind := "declare"
		if d.Body != nil {
			kind = "define"
		}
		fmt.Printf("func %s %s(%d params)\n", kind, d.Name, len(d.Params))
		if d.Body != nil {
			dumpStmt(d.Body, depth+1)
		}
	case *ast.VarDecl:
		indent(depth)
		fmt.Printf("var %s\n", d.Name)
	case *ast.TypedefDecl:
		indent(depth)
		fmt.Printf("typedef %s\n", d.Name)
	}
}

func dumpStmt(s ast.Stmt, depth int) {
	indent := func(n int) {
		for i := 0; i < n; i++ {
			fmt.Print("  ")
		}
	}
	indent(depth)
	switch s := s.(type) {
	case *ast.CompoundStmt:
		fmt.Printf("block (%d stmts)\n", len(s.Stmts))
		for _, inner := range s.Stmts {
			dumpStmt(inner, depth+1)
		}
	case *ast.IfStmt:
		fmt.Println("if")
		dumpStmt(s.Then, depth+1)
		if s.Else != nil {
			dumpStmt(s.Else, depth+1)
		}
	case *ast.WhileStmt:
		fmt.Println("while")
		dumpStmt(s.Body, depth+1)
	case *ast.DoStmt:
		fmt.Println("do-while")
		dumpStmt(s.Body, depth+1)
	case *ast.ForStmt:
		fmt.Println("for")
		dumpStmt(s.Body, depth+1)
	case *ast.ReturnStmt:
		fmt.Println("return")
	case *ast.BreakStmt:
		fmt.Println("break")
	case *ast.ContinueStmt:
		fmt.Println("continue")
	case *ast.DeclStmt:
		fmt.Println("decl")
	case *ast.ExprStmt:
		fmt.Println("expr")
	default:
		fmt.Printf("%T\n", s)
	}
}
