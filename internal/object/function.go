package object

import (
	"fmt"
	"unsafe"

	"spun/internal/bytecode"
)

// UpvalueDescKind distinguishes how a closure captured one of its
// upvalues, mirroring the compiler's LOCAL/OUTER descriptor tags.
type UpvalueDescKind uint8

const (
	CaptureLocal UpvalueDescKind = iota // a register of the enclosing frame
	CaptureOuter                        // an upvalue slot of the enclosing closure
)

// UpvalueDesc is one capture descriptor emitted after a CLOSURE
// instruction.
type UpvalueDesc struct {
	Kind  UpvalueDescKind
	Index int
}

// NativeFn is a host callable registered under a name.
type NativeFn func(args []Value) (Value, error)

// FunctionObj is either a script function (referencing a region of a
// Program's bytecode) or a native function (a host callable). Script
// functions that close over free variables carry a materialized
// upvalue vector copied at creation time.
type FunctionObj struct {
	Name string

	// Script function fields.
	IsScript   bool
	Offset     int // word offset of the body within Program.Code
	BodyLen    int
	Argc       int
	NumRegs    int
	SymIndex   int
	Program    *bytecode.Program
	Upvalues   []Value // captured values, by value, copied at closure time
	Descs      []UpvalueDesc
	TopLevel   bool

	// Native function fields.
	Native NativeFn
}

var functionClass = &Class{
	Name: "function",
	Equal: func(a, b unsafe.Pointer) bool {
		return a == b
	},
	Destructor: func(p unsafe.Pointer) {
		f := (*FunctionObj)(p)
		for _, u := range f.Upvalues {
			Release(u)
		}
	},
}

// NewScriptFunction wraps a compiled function body in a Value.
func NewScriptFunction(f *FunctionObj) Value {
	f.IsScript = true
	return FromObject(KindFunction, newObject(functionClass, unsafe.Pointer(f)))
}

// NewNativeFunction wraps a host callable under name.
func NewNativeFunction(name string, fn NativeFn) Value {
	f := &FunctionObj{Name: name, Native: fn}
	return FromObject(KindFunction, newObject(functionClass, unsafe.Pointer(f)))
}

// AttachUpvalues sets v's captured upvalue vector, called by CLOSURE
// right after FUNCTION has built v as a bare, non-capturing function.
func AttachUpvalues(v Value, upvalues []Value) {
	v.AsFunction().Upvalues = upvalues
}

func (f *FunctionObj) String() string {
	name := f.Name
	if name == "" {
		if f.TopLevel {
			name = "<main>"
		} else {
			name = "<lambda>"
		}
	}
	if f.Native != nil {
		return fmt.Sprintf("<native function %s>", name)
	}
	return fmt.Sprintf("<function %s>", name)
}
