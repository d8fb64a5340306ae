// Package engine implements the Context façade: the single entry
// point a host embeds to load source or bytecode, compile and run
// expressions, register native functions, and retrieve the last error
// and its stack trace.
package engine

import (
	"fmt"

	"spun/internal/bytecode"
	"spun/internal/compiler"
	"spun/internal/errors"
	"spun/internal/lexer"
	"spun/internal/object"
	"spun/internal/parser"
	"spun/internal/vm"
)

// Context owns a VM, the programs it has loaded, and the last error
// raised by any operation, matching spec.md §4.6's Context module.
type Context struct {
	vm       *vm.VM
	programs []*bytecode.Program
	lastErr  *errors.Error
}

// New creates an empty Context with no globals beyond what the caller
// registers via RegisterNative.
func New() *Context {
	return &Context{vm: vm.New()}
}

// LastError returns the error raised by the most recent failing
// operation, or nil if the last operation succeeded.
func (c *Context) LastError() *errors.Error { return c.lastErr }

// StackTrace returns the call-stack snapshot of the last error, or nil
// if it carried none.
func (c *Context) StackTrace() []errors.Frame {
	if c.lastErr == nil {
		return nil
	}
	return c.lastErr.Stack
}

func (c *Context) fail(err error) error {
	if e, ok := err.(*errors.Error); ok {
		c.lastErr = e
		return e
	}
	e := errors.Runtimef("%s", err.Error())
	c.lastErr = e
	return e
}

// RegisterNative binds a host callable under name in the global table.
func (c *Context) RegisterNative(name string, fn object.NativeFn) {
	c.vm.RegisterNative(name, fn)
}

// SetGlobal binds a value directly in the global table.
func (c *Context) SetGlobal(name string, v object.Value) {
	c.vm.SetGlobal(name, v)
}

// Compile lexes, parses, and compiles source into a Program without
// running it, raising Syntax or Semantic errors as appropriate.
func (c *Context) Compile(file, source string) (*bytecode.Program, error) {
	toks, err := lexer.New(file, source).ScanAll()
	if err != nil {
		return nil, c.fail(err)
	}
	stmts, err := parser.New(file, toks).Parse()
	if err != nil {
		return nil, c.fail(err)
	}
	prog, err := compiler.Compile(file, stmts)
	if err != nil {
		return nil, c.fail(err)
	}
	return prog, nil
}

// Load compiles source into a top-level function and executes it
// immediately, passing scriptArgs as its actual arguments (reachable
// from the script body through `#N`/`argc`).
func (c *Context) Load(file, source string, scriptArgs []object.Value) (object.Value, error) {
	prog, err := c.Compile(file, source)
	if err != nil {
		return object.Nil, err
	}
	return c.Exec(prog, scriptArgs)
}

// LoadBinary deserializes a compiled .spo image and executes it.
func (c *Context) LoadBinary(data []byte, scriptArgs []object.Value) (object.Value, error) {
	prog, err := bytecode.Deserialize(data)
	if err != nil {
		return object.Nil, c.fail(fmt.Errorf("bytecode: %w", err))
	}
	return c.Exec(prog, scriptArgs)
}

// Exec runs an already-compiled Program as a fresh top-level call.
func (c *Context) Exec(prog *bytecode.Program, scriptArgs []object.Value) (object.Value, error) {
	c.programs = append(c.programs, prog)
	v, err := c.vm.Run(prog, scriptArgs)
	if err != nil {
		return object.Nil, c.fail(err)
	}
	c.lastErr = nil
	return v, nil
}

// CompileExpression wraps expr into a synthesized `return <expr>;`
// top-level program, the mechanism the REPL uses to evaluate a bare
// expression typed at the prompt.
func (c *Context) CompileExpression(file, expr string) (*bytecode.Program, error) {
	return c.Compile(file, "return ("+expr+");")
}

// Call invokes fn with args directly, without going through the
// top-level Load/Exec path; used by natives calling back into script
// functions and by hosts holding a Value of KindFunction.
func (c *Context) Call(fn object.Value, args []object.Value) (object.Value, error) {
	if fn.Kind != object.KindFunction {
		return object.Nil, c.fail(errors.Runtimef("attempt to call a %s value", object.TypeName(fn)))
	}
	v, err := c.vm.Call(fn.AsFunction(), args)
	if err != nil {
		return object.Nil, c.fail(err)
	}
	c.lastErr = nil
	return v, nil
}
