package vm

import (
	"testing"

	"spun/internal/compiler"
	"spun/internal/errors"
	"spun/internal/lexer"
	"spun/internal/object"
	"spun/internal/parser"
)

func mustRun(t *testing.T, src string) (object.Value, error) {
	t.Helper()
	toks, err := lexer.New("<test>", src).ScanAll()
	if err != nil {
		t.Fatalf("lex error: %v", err)
	}
	stmts, err := parser.New("<test>", toks).Parse()
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	prog, err := compiler.Compile("<test>", stmts)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	return New().Run(prog, nil)
}

// TestEndToEndScenarios exercises every row of the golden input/output
// table directly against the VM.
func TestEndToEndScenarios(t *testing.T) {
	cases := []struct {
		name string
		src  string
		want object.Value
	}{
		{"arithmetic precedence", "return 1 + 2 * 3;", object.Int(7)},
		{"string concat", `var s = "foo" .. "bar"; return s;`, object.NewString("foobar")},
		{"function call", "var f = fn(x) { return x * x; }; return f(5);", object.Int(25)},
		{"array writes and reads", "var a = {}; a[0] = 10; a[1] = 20; return a[0] + a[1];", object.Int(30)},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := mustRun(t, c.src)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !object.Equal(got, c.want) {
				t.Fatalf("got %s, want %s", got.String(), c.want.String())
			}
		})
	}
}

func TestIntegerDivisionByZeroRaisesWithStack(t *testing.T) {
	_, err := mustRun(t, "return 1 / 0;")
	if err == nil {
		t.Fatalf("expected a runtime error")
	}
	e, ok := err.(*errors.Error)
	if !ok {
		t.Fatalf("expected *errors.Error, got %T", err)
	}
	if e.Kind != errors.Runtime {
		t.Fatalf("expected a Runtime error, got %v", e.Kind)
	}
	if len(e.Stack) == 0 {
		t.Fatalf("expected a non-empty stack trace")
	}
}

func TestClosureCaptureByValue(t *testing.T) {
	// Each call to make() captures its own `base`; later calls must not
	// perturb earlier closures' captured values.
	got, err := mustRun(t, `
		var make = fn(base) {
			return fn(x) { return x + base; };
		};
		var addFive = make(5);
		var addTen = make(10);
		return addFive(1) + addTen(1);
	`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !object.Equal(got, object.Int(17)) {
		t.Fatalf("got %s, want 17", got.String())
	}
}

func TestIntFloatPromotion(t *testing.T) {
	got, err := mustRun(t, "return 1 + 2.5;")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Kind != object.KindFloat {
		t.Fatalf("expected a float result, got %s", object.TypeName(got))
	}
	if got.AsFloat() != 3.5 {
		t.Fatalf("got %v, want 3.5", got.AsFloat())
	}
}

func TestFloatDivisionByZeroYieldsInf(t *testing.T) {
	got, err := mustRun(t, "return 1.0 / 0.0;")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.String() != "inf" {
		t.Fatalf("got %s, want inf", got.String())
	}
}

func TestCannotCompareIncomparableValues(t *testing.T) {
	_, err := mustRun(t, `return "a" < 1;`)
	if err == nil {
		t.Fatalf("expected a runtime error comparing a string to a number")
	}
}

func TestUnresolvedGlobalRaises(t *testing.T) {
	_, err := mustRun(t, "return undefinedThing;")
	if err == nil {
		t.Fatalf("expected a runtime error for an unresolved global")
	}
}

func TestArrayToHashmapPromotionOnNonIntegerKey(t *testing.T) {
	got, err := mustRun(t, `
		var a = [1, 2, 3];
		a["label"] = 99;
		return a["label"];
	`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !object.Equal(got, object.Int(99)) {
		t.Fatalf("got %s, want 99", got.String())
	}
}

func TestRetainReleaseSymmetry(t *testing.T) {
	s := object.NewString("hello")
	before := s.Object().RefCount()
	r := object.Retain(s)
	object.Release(r)
	after := s.Object().RefCount()
	if before != after {
		t.Fatalf("retain then release changed refcount: %d -> %d", before, after)
	}
}
