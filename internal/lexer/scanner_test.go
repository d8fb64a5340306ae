package lexer

import "testing"

func scanTypes(t *testing.T, src string) []Type {
	t.Helper()
	toks, err := New("<test>", src).ScanAll()
	if err != nil {
		t.Fatalf("ScanAll(%q) error: %v", src, err)
	}
	types := make([]Type, len(toks))
	for i, tok := range toks {
		types[i] = tok.Type
	}
	return types
}

func TestScanAllPunctuators(t *testing.T) {
	cases := []struct {
		src  string
		want []Type
	}{
		{"1 + 2 * 3", []Type{INT, PLUS, INT, STAR, INT, EOF}},
		{`"foo" .. "bar"`, []Type{STRING, DOTDOT, STRING, EOF}},
		{"a == b", []Type{IDENT, EQ, IDENT, EOF}},
		{"a != b", []Type{IDENT, NE, IDENT, EOF}},
		{"x++ ; --y", []Type{IDENT, INCR, SEMI, DECR, IDENT, EOF}},
		{"#0", []Type{HASH, INT, EOF}},
		{"a << 1 >> 2", []Type{IDENT, SHL, INT, SHR, INT, EOF}},
	}
	for _, c := range cases {
		got := scanTypes(t, c.src)
		if len(got) != len(c.want) {
			t.Fatalf("scan(%q) = %v, want %v", c.src, got, c.want)
		}
		for i := range got {
			if got[i] != c.want[i] {
				t.Fatalf("scan(%q)[%d] = %v, want %v", c.src, i, got[i], c.want[i])
			}
		}
	}
}

func TestScanStringEscapes(t *testing.T) {
	toks, err := New("<test>", `"a\nb\"c"`).ScanAll()
	if err != nil {
		t.Fatalf("ScanAll error: %v", err)
	}
	if len(toks) < 1 || toks[0].Type != STRING {
		t.Fatalf("expected a STRING token, got %v", toks)
	}
}

func TestShebangStripped(t *testing.T) {
	toks, err := New("<test>", "#!/usr/bin/env spun\nvar x = 1;").ScanAll()
	if err != nil {
		t.Fatalf("ScanAll error: %v", err)
	}
	if toks[0].Type != KEYWORD || toks[0].Lexeme != "var" {
		t.Fatalf("expected the shebang line to be stripped, first token got %v %q", toks[0].Type, toks[0].Lexeme)
	}
}

func TestScanKeywordsVsIdentifiers(t *testing.T) {
	toks, err := New("<test>", "var argc = sizeof x;").ScanAll()
	if err != nil {
		t.Fatalf("ScanAll error: %v", err)
	}
	if toks[0].Type != KEYWORD || toks[0].Lexeme != "var" {
		t.Fatalf("expected KEYWORD var, got %v %q", toks[0].Type, toks[0].Lexeme)
	}
	if toks[1].Type != IDENT || toks[1].Lexeme != "argc" {
		t.Fatalf("expected IDENT argc (argc is not a reserved word), got %v %q", toks[1].Type, toks[1].Lexeme)
	}
}

func TestScanError(t *testing.T) {
	_, err := New("<test>", `"unterminated`).ScanAll()
	if err == nil {
		t.Fatalf("expected a scan error for an unterminated string")
	}
}
