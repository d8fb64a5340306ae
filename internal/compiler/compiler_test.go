package compiler

import (
	"strings"
	"testing"

	"spun/internal/bytecode"
	"spun/internal/errors"
	"spun/internal/lexer"
	"spun/internal/parser"
)

func compileSrc(t *testing.T, src string) *bytecode.Program {
	t.Helper()
	toks, err := lexer.New("<test>", src).ScanAll()
	if err != nil {
		t.Fatalf("lex error: %v", err)
	}
	stmts, err := parser.New("<test>", toks).Parse()
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	prog, err := Compile("<test>", stmts)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	return prog
}

func TestCompileArithmeticEmitsExpectedOpcodes(t *testing.T) {
	prog := compileSrc(t, "return 1 + 2 * 3;")
	text := bytecode.Disassemble(prog)
	for _, want := range []string{"LDCONST", "MUL", "ADD", "RET"} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected %s in disassembly:\n%s", want, text)
		}
	}
}

func TestCompileConcatEmitsConcat(t *testing.T) {
	prog := compileSrc(t, `var s = "foo" .. "bar"; return s;`)
	text := bytecode.Disassemble(prog)
	if !strings.Contains(text, "CONCAT") {
		t.Fatalf("expected CONCAT in disassembly:\n%s", text)
	}
}

func TestCompileFunctionLitEmitsFunctionAndCall(t *testing.T) {
	prog := compileSrc(t, "var f = fn(x) { return x * x; }; return f(5);")
	text := bytecode.Disassemble(prog)
	for _, want := range []string{"FUNCTION", "CALL", "MUL"} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected %s in disassembly:\n%s", want, text)
		}
	}
}

func TestCompileClosureEmitsClosureWithUpvalue(t *testing.T) {
	prog := compileSrc(t, `
		var make = fn(base) {
			return fn(x) { return x + base; };
		};
	`)
	text := bytecode.Disassemble(prog)
	if !strings.Contains(text, "CLOSURE") {
		t.Fatalf("expected CLOSURE in disassembly:\n%s", text)
	}
	if !strings.Contains(text, "LOCAL") {
		t.Fatalf("expected a LOCAL upvalue descriptor in disassembly:\n%s", text)
	}
}

func TestAssignToCapturedVariableIsCompileTimeError(t *testing.T) {
	src := `var c = 0; var inc = fn() { c = c + 1; return c; }; return inc();`
	toks, lexErr := lexer.New("<test>", src).ScanAll()
	if lexErr != nil {
		t.Fatalf("lex error: %v", lexErr)
	}
	stmts, parseErr := parser.New("<test>", toks).Parse()
	if parseErr != nil {
		t.Fatalf("parse error: %v", parseErr)
	}
	_, err := Compile("<test>", stmts)
	if err == nil {
		t.Fatalf("expected a compile-time error assigning to a captured variable")
	}
	e, ok := err.(*errors.Error)
	if !ok {
		t.Fatalf("expected *errors.Error, got %T: %v", err, err)
	}
	if e.Kind != errors.Semantic {
		t.Fatalf("expected a Semantic error, got %v", e.Kind)
	}
}

func TestArrayAndHashmapLiteralsEmitNewarr(t *testing.T) {
	prog := compileSrc(t, "var a = {}; a[0] = 10; a[1] = 20; return a[0] + a[1];")
	text := bytecode.Disassemble(prog)
	for _, want := range []string{"NEWARR", "ARRSET", "ARRGET"} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected %s in disassembly:\n%s", want, text)
		}
	}
}

func TestBreakOutsideLoopIsCompileError(t *testing.T) {
	src := "break;"
	toks, _ := lexer.New("<test>", src).ScanAll()
	stmts, err := parser.New("<test>", toks).Parse()
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if _, err := Compile("<test>", stmts); err == nil {
		t.Fatalf("expected a compile error for break outside a loop")
	}
}

func TestDivisionByZeroCompilesFine(t *testing.T) {
	// The divide-by-zero check is a VM runtime error, not a compile
	// error: the compiler has no constant-folding pass.
	compileSrc(t, "return 1 / 0;")
}
