package parser

import (
	"testing"

	"spun/internal/lexer"
)

func parseSrc(t *testing.T, src string) []Stmt {
	t.Helper()
	toks, err := lexer.New("<test>", src).ScanAll()
	if err != nil {
		t.Fatalf("lex(%q) error: %v", src, err)
	}
	stmts, err := New("<test>", toks).Parse()
	if err != nil {
		t.Fatalf("parse(%q) error: %v", src, err)
	}
	return stmts
}

func TestArithmeticPrecedence(t *testing.T) {
	stmts := parseSrc(t, "return 1 + 2 * 3;")
	ret := stmts[0].(*ReturnStmt)
	bin, ok := ret.Value.(*Binary)
	if !ok || bin.Op != "+" {
		t.Fatalf("expected top-level '+', got %#v", ret.Value)
	}
	if _, ok := bin.Left.(*IntLit); !ok {
		t.Fatalf("expected left operand to be the bare IntLit 1, got %#v", bin.Left)
	}
	rhs, ok := bin.Right.(*Binary)
	if !ok || rhs.Op != "*" {
		t.Fatalf("expected right operand to be '2 * 3', got %#v", bin.Right)
	}
}

func TestConcatPrecedenceBelowAdditiveAboveComparison(t *testing.T) {
	stmts := parseSrc(t, `return a + b .. c < d;`)
	ret := stmts[0].(*ReturnStmt)
	lt, ok := ret.Value.(*Binary)
	if !ok || lt.Op != "<" {
		t.Fatalf("expected top-level '<', got %#v", ret.Value)
	}
	concat, ok := lt.Left.(*Binary)
	if !ok || concat.Op != ".." {
		t.Fatalf("expected left of '<' to be '..', got %#v", lt.Left)
	}
	add, ok := concat.Left.(*Binary)
	if !ok || add.Op != "+" {
		t.Fatalf("expected '..' left operand to be 'a + b', got %#v", concat.Left)
	}
}

func TestTernary(t *testing.T) {
	stmts := parseSrc(t, "return a ? b : c;")
	ret := stmts[0].(*ReturnStmt)
	tern, ok := ret.Value.(*Ternary)
	if !ok {
		t.Fatalf("expected Ternary, got %#v", ret.Value)
	}
	if _, ok := tern.Cond.(*Identifier); !ok {
		t.Fatalf("expected identifier condition, got %#v", tern.Cond)
	}
}

func TestFunctionLitAndCall(t *testing.T) {
	stmts := parseSrc(t, "var f = fn(x) { return x * x; }; return f(5);")
	decl := stmts[0].(*VarDecl)
	lit, ok := decl.Init.(*FunctionLit)
	if !ok || len(lit.Params) != 1 || lit.Params[0] != "x" {
		t.Fatalf("expected a 1-param FunctionLit, got %#v", decl.Init)
	}
	ret := stmts[1].(*ReturnStmt)
	call, ok := ret.Value.(*CallExpr)
	if !ok || len(call.Args) != 1 {
		t.Fatalf("expected a 1-arg CallExpr, got %#v", ret.Value)
	}
}

func TestArrayAndHashmapLiterals(t *testing.T) {
	stmts := parseSrc(t, "var a = []; var b = {}; var c = {1: 2, 3: 4};")
	if _, ok := stmts[0].(*VarDecl).Init.(*ArrayLit); !ok {
		t.Fatalf("expected ArrayLit for []")
	}
	if h, ok := stmts[1].(*VarDecl).Init.(*HashmapLit); !ok || len(h.Entries) != 0 {
		t.Fatalf("expected empty HashmapLit for {}")
	}
	if h, ok := stmts[2].(*VarDecl).Init.(*HashmapLit); !ok || len(h.Entries) != 2 {
		t.Fatalf("expected 2-entry HashmapLit, got %#v", stmts[2].(*VarDecl).Init)
	}
}

func TestArgRefAndMemberIndex(t *testing.T) {
	stmts := parseSrc(t, "return #0 + a.b + a[0];")
	ret := stmts[0].(*ReturnStmt)
	outer, ok := ret.Value.(*Binary)
	if !ok || outer.Op != "+" {
		t.Fatalf("expected a '+' chain, got %#v", ret.Value)
	}
	inner, ok := outer.Left.(*Binary)
	if !ok || inner.Op != "+" {
		t.Fatalf("expected nested '+' chain, got %#v", outer.Left)
	}
	if _, ok := inner.Left.(*ArgRef); !ok {
		t.Fatalf("expected #0 to parse as ArgRef, got %#v", inner.Left)
	}
	if _, ok := inner.Right.(*MemberExpr); !ok {
		t.Fatalf("expected a.b to parse as MemberExpr, got %#v", inner.Right)
	}
	if _, ok := outer.Right.(*IndexExpr); !ok {
		t.Fatalf("expected a[0] to parse as IndexExpr, got %#v", outer.Right)
	}
}

func TestControlFlowForms(t *testing.T) {
	parseSrc(t, `
		if (a) { return 1; } else if (b) { return 2; } else { return 3; }
		while (a) { a = a - 1; }
		do { a = a - 1; } while (a);
		for (var i = 0; i < 10; i = i + 1) { }
		break; continue;
	`)
}

func TestCompoundAssign(t *testing.T) {
	stmts := parseSrc(t, "a += 1;")
	es := stmts[0].(*ExprStmt)
	ca, ok := es.X.(*CompoundAssign)
	if !ok || ca.Op != "+" {
		t.Fatalf("expected CompoundAssign '+', got %#v", es.X)
	}
}

func TestParseErrorOnBadSyntax(t *testing.T) {
	toks, _ := lexer.New("<test>", "var ;").ScanAll()
	_, err := New("<test>", toks).Parse()
	if err == nil {
		t.Fatalf("expected a syntax error for a missing identifier")
	}
}
