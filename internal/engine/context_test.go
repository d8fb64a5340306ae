package engine

import (
	"testing"

	"spun/internal/bytecode"
	"spun/internal/object"
)

func TestLoadExecutesSourceAndReturnsValue(t *testing.T) {
	c := New()
	v, err := c.Load("<test>", "return 1 + 2 * 3;", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !object.Equal(v, object.Int(7)) {
		t.Fatalf("got %s, want 7", v.String())
	}
	if c.LastError() != nil {
		t.Fatalf("expected LastError to be nil after success, got %v", c.LastError())
	}
}

func TestSerializeDeserializeRoundTrip(t *testing.T) {
	c := New()
	prog, err := c.Compile("<test>", `var s = "foo" .. "bar"; return s;`)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	data := bytecode.Serialize(prog)

	c2 := New()
	v, err := c2.LoadBinary(data, nil)
	if err != nil {
		t.Fatalf("LoadBinary error: %v", err)
	}
	if !object.Equal(v, object.NewString("foobar")) {
		t.Fatalf("got %s, want foobar", v.String())
	}
}

func TestFailedLoadRecordsLastErrorAndStack(t *testing.T) {
	c := New()
	_, err := c.Load("<test>", "return 1 / 0;", nil)
	if err == nil {
		t.Fatalf("expected a runtime error")
	}
	last := c.LastError()
	if last == nil {
		t.Fatalf("expected LastError to be set")
	}
	if len(c.StackTrace()) == 0 {
		t.Fatalf("expected a non-empty stack trace")
	}
}

func TestCompileExpressionEvaluatesBareExpr(t *testing.T) {
	c := New()
	prog, err := c.CompileExpression("<repl>", "2 + 2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v, err := c.Exec(prog, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !object.Equal(v, object.Int(4)) {
		t.Fatalf("got %s, want 4", v.String())
	}
}

func TestRegisterNativeIsCallableFromScript(t *testing.T) {
	c := New()
	c.RegisterNative("double", func(args []object.Value) (object.Value, error) {
		return object.Int(args[0].AsInt() * 2), nil
	})
	v, err := c.Load("<test>", "return double(21);", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !object.Equal(v, object.Int(42)) {
		t.Fatalf("got %s, want 42", v.String())
	}
}

func TestSetGlobalIsVisibleToScript(t *testing.T) {
	c := New()
	c.SetGlobal("answer", object.Int(42))
	v, err := c.Load("<test>", "return answer;", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !object.Equal(v, object.Int(42)) {
		t.Fatalf("got %s, want 42", v.String())
	}
}

func TestCallInvokesAScriptFunctionValue(t *testing.T) {
	c := New()
	v, err := c.Load("<test>", "var sq = fn(x) { return x * x; }; return sq;", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	result, err := c.Call(v, []object.Value{object.Int(6)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !object.Equal(result, object.Int(36)) {
		t.Fatalf("got %s, want 36", result.String())
	}
}
