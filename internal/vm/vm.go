// Package vm implements the register-based bytecode interpreter: a
// linear fetch-decode-dispatch loop over bytecode.Program.Code, a
// reference-counted register file per call, and the global symbol
// table that LDSYM/GLBVAL read and write.
package vm

import (
	"spun/internal/bytecode"
	"spun/internal/errors"
	"spun/internal/object"
)

const maxCallDepth = 1024

// VM owns everything that outlives a single call: the global variable
// table and the per-Program resolved-symbol caches that let LDSYM
// rewrite a SYMSTUB to its resolved value exactly once.
type VM struct {
	globals map[string]object.Value
	loaded  map[*bytecode.Program]*loadedProgram
	depth   int
	stack   []frameInfo
}

// frameInfo is the lightweight stack-trace record kept alongside the
// real call stack; it survives after a frame's registers are released
// so a Runtime error can report where it happened.
type frameInfo struct {
	name string
}

// loadedProgram caches the resolved value of every STRCONST/SYMSTUB
// entry of one Program, so repeated LDSYM instructions against the
// same symbol never re-resolve: a resolved SYMSTUB never reverts to a
// stub, per the spec's global-resolution rule.
type loadedProgram struct {
	prog     *bytecode.Program
	resolved []object.Value
	done     []bool
}

// New creates a VM with no globals and no natives registered.
func New() *VM {
	return &VM{
		globals: make(map[string]object.Value),
		loaded:  make(map[*bytecode.Program]*loadedProgram),
	}
}

// SetGlobal binds name in the global table, retaining v.
func (vm *VM) SetGlobal(name string, v object.Value) {
	old, had := vm.globals[name]
	vm.globals[name] = object.Retain(v)
	if had {
		object.Release(old)
	}
}

// GetGlobal looks up name in the global table.
func (vm *VM) GetGlobal(name string) (object.Value, bool) {
	v, ok := vm.globals[name]
	return v, ok
}

// RegisterNative binds name to a host callable in the global table.
func (vm *VM) RegisterNative(name string, fn object.NativeFn) {
	vm.SetGlobal(name, object.NewNativeFunction(name, fn))
}

func (vm *VM) loadProgram(p *bytecode.Program) *loadedProgram {
	if lp, ok := vm.loaded[p]; ok {
		return lp
	}
	lp := &loadedProgram{
		prog:     p,
		resolved: make([]object.Value, len(p.Symbols)),
		done:     make([]bool, len(p.Symbols)),
	}
	vm.loaded[p] = lp
	return lp
}

// resolveSymbol resolves p's symbol at idx, caching the result. A
// SYMSTUB that fails to resolve raises a Runtime error and is not
// cached, so a later definition of the same global still succeeds.
func (vm *VM) resolveSymbol(lp *loadedProgram, idx int) (object.Value, error) {
	if idx < 0 || idx >= len(lp.prog.Symbols) {
		return object.Nil, errors.Runtimef("invalid symbol index %d", idx)
	}
	if lp.done[idx] {
		return lp.resolved[idx], nil
	}
	sym := lp.prog.Symbols[idx]
	switch sym.Kind {
	case bytecode.SymSTRCONST:
		v := object.NewString(sym.Name)
		lp.resolved[idx] = v
		lp.done[idx] = true
		return v, nil
	case bytecode.SymSYMSTUB:
		v, ok := vm.globals[sym.Name]
		if !ok {
			return object.Nil, errors.Runtimef("global symbol not found: %s", sym.Name)
		}
		lp.resolved[idx] = v
		lp.done[idx] = true
		return v, nil
	default:
		return object.Nil, errors.Runtimef("symbol %d is not loadable (kind=%v)", idx, sym.Kind)
	}
}

// Run executes p as a fresh top-level call, passing args as the
// top-level function's actual arguments (script argv reaches `#N` and
// LDARGC this way, unified with ordinary function argument access).
func (vm *VM) Run(p *bytecode.Program, args []object.Value) (object.Value, error) {
	top := &object.FunctionObj{
		IsScript: true,
		Offset:   0,
		BodyLen:  int(p.Header.BodyLen),
		Argc:     int(p.Header.Argc),
		NumRegs:  int(p.Header.NumRegs),
		SymIndex: int(p.Header.SymIndex),
		Program:  p,
		TopLevel: true,
	}
	return vm.callScript(top, args)
}

// Call invokes fn (script or native) with args, the entry point the
// CALL instruction and the engine façade both use.
func (vm *VM) Call(fn *object.FunctionObj, args []object.Value) (object.Value, error) {
	if fn.Native != nil {
		return vm.callNative(fn, args)
	}
	return vm.callScript(fn, args)
}

func (vm *VM) callNative(fn *object.FunctionObj, args []object.Value) (object.Value, error) {
	vm.depth++
	defer func() { vm.depth-- }()
	if vm.depth > maxCallDepth {
		return object.Nil, vm.runtimeErr("stack overflow")
	}
	v, err := fn.Native(args)
	if err != nil {
		return object.Nil, vm.runtimeErr("%s", err.Error())
	}
	return v, nil
}

func (vm *VM) callScript(fn *object.FunctionObj, args []object.Value) (object.Value, error) {
	vm.depth++
	defer func() { vm.depth-- }()
	if vm.depth > maxCallDepth {
		return object.Nil, vm.runtimeErr("stack overflow")
	}

	lp := vm.loadProgram(fn.Program)
	fr := &frame{
		vm:   vm,
		fn:   fn,
		lp:   lp,
		regs: make([]object.Value, fn.NumRegs),
		args: args,
		pc:   fn.Offset,
	}
	for i, a := range args {
		if i >= len(fr.regs) {
			break
		}
		fr.regs[i] = object.Retain(a)
	}

	vm.stack = append(vm.stack, frameInfo{name: frameName(fn)})
	defer func() { vm.stack = vm.stack[:len(vm.stack)-1] }()

	ret, err := fr.run()
	fr.releaseAll()
	if err != nil {
		if e, ok := err.(*errors.Error); ok && e.Kind == errors.Runtime && e.Stack == nil {
			return object.Nil, e.WithStack(vm.captureStack())
		}
		return object.Nil, err
	}
	return ret, nil
}

// frameName reports the stack-trace label for fn, per the spec's
// <main>/<lambda> fallback naming for unnamed functions.
func frameName(fn *object.FunctionObj) string {
	if fn.Name != "" {
		return fn.Name
	}
	if fn.TopLevel {
		return "<main>"
	}
	return "<lambda>"
}

func (vm *VM) runtimeErr(format string, args ...interface{}) *errors.Error {
	return errors.Runtimef(format, args...).WithStack(vm.captureStack())
}

func (vm *VM) captureStack() []errors.Frame {
	out := make([]errors.Frame, len(vm.stack))
	for i := range vm.stack {
		out[len(vm.stack)-1-i] = errors.Frame{Function: vm.stack[i].name}
	}
	return out
}
