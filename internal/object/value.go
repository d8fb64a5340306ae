// Package object implements the tagged Value union and the
// reference-counted heap objects that back it: strings, arrays,
// hashmaps, functions, and host userinfo. Copying a Value that carries
// the object flag retains; discarding one releases.
package object

import (
	"fmt"
	"math"
)

// Kind is the complete discriminant of a Value, derived from the
// original tag+flags split (tag: nil/bool/number/string/array/hashmap/
// function/userinfo; flags: OBJECT, FLOAT) folded into one enum, as the
// sum-type re-expression the design calls for.
type Kind uint8

const (
	KindNil Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindArray
	KindHashmap
	KindFunction
	KindWeakUserinfo
	KindStrongUserinfo
)

func (k Kind) String() string {
	switch k {
	case KindNil:
		return "nil"
	case KindBool:
		return "bool"
	case KindInt, KindFloat:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindHashmap:
		return "hashmap"
	case KindFunction:
		return "function"
	case KindWeakUserinfo, KindStrongUserinfo:
		return "userinfo"
	default:
		return "unknown"
	}
}

// Value is the tagged union passed around the compiler's constant pool,
// the VM's registers, and the host API. Only one of the payload fields
// is meaningful for a given Kind.
type Value struct {
	Kind Kind
	b    bool
	i    int64
	f    float64
	ptr  uintptr  // weak userinfo: an unmanaged host pointer
	obj  *Object  // set when Kind carries a reference-counted payload
}

// Nil is the singleton nil value.
var Nil = Value{Kind: KindNil}

// True and False are the singleton booleans.
var True = Value{Kind: KindBool, b: true}
var False = Value{Kind: KindBool, b: false}

func Bool(b bool) Value {
	if b {
		return True
	}
	return False
}

func Int(i int64) Value { return Value{Kind: KindInt, i: i} }

func Float(f float64) Value { return Value{Kind: KindFloat, f: f} }

// WeakUserinfo wraps an unmanaged host pointer; the runtime never
// retains or releases it.
func WeakUserinfo(ptr uintptr) Value { return Value{Kind: KindWeakUserinfo, ptr: ptr} }

// FromObject builds a Value that owns a reference to obj. The caller's
// reference is transferred, not duplicated; retain explicitly first if
// the caller also needs to keep it.
func FromObject(k Kind, obj *Object) Value { return Value{Kind: k, obj: obj} }

// KindOf reports v's effective kind, resolving array/hashmap values
// through the backing Object's class rather than the tag v was created
// with. promoteArrayToHashmap rewrites an Object's class and payload in
// place without reaching back into every Value copy that still carries
// the KindArray it was born with, so any code that distinguishes array
// from hashmap storage must call this instead of reading v.Kind
// directly.
func KindOf(v Value) Kind {
	if v.obj != nil {
		switch v.obj.class {
		case arrayClass:
			return KindArray
		case hashmapClass:
			return KindHashmap
		}
	}
	return v.Kind
}

func (v Value) IsNil() bool    { return v.Kind == KindNil }
func (v Value) IsObject() bool { return v.obj != nil }
func (v Value) AsBool() bool   { return v.b }
func (v Value) AsInt() int64   { return v.i }
func (v Value) AsFloat() float64 {
	if v.Kind == KindInt {
		return float64(v.i)
	}
	return v.f
}
func (v Value) AsPointer() uintptr { return v.ptr }
func (v Value) Object() *Object    { return v.obj }

// IsNumber reports whether v is int or float.
func (v Value) IsNumber() bool { return v.Kind == KindInt || v.Kind == KindFloat }

// Truthy implements the language's notion of truthiness: nil and false
// are falsy, every other value (including 0 and "") is truthy.
func (v Value) Truthy() bool {
	switch v.Kind {
	case KindNil:
		return false
	case KindBool:
		return v.b
	default:
		return true
	}
}

func (v Value) AsString() *StringObj { return (*StringObj)(v.obj.payload) }
func (v Value) AsArray() *ArrayObj   { return (*ArrayObj)(v.obj.payload) }
func (v Value) AsHashmap() *HashmapObj { return (*HashmapObj)(v.obj.payload) }
func (v Value) AsFunction() *FunctionObj { return (*FunctionObj)(v.obj.payload) }
func (v Value) AsUserinfo() *UserinfoObj { return (*UserinfoObj)(v.obj.payload) }

// Retain increments the reference count of v's backing object, if any.
func Retain(v Value) Value {
	if v.obj != nil {
		v.obj.Retain()
	}
	return v
}

// Release decrements the reference count of v's backing object, if any,
// destroying it when the count reaches zero. retain(v); release(v) must
// leave v's observable state and reference count unchanged.
func Release(v Value) {
	if v.obj != nil {
		v.obj.Release()
	}
}

// TypeName returns the language-level type name used by TYPEOF.
func TypeName(v Value) string {
	k := KindOf(v)
	switch k {
	case KindInt, KindFloat:
		return "number"
	default:
		return k.String()
	}
}

func (v Value) String() string {
	switch KindOf(v) {
	case KindNil:
		return "nil"
	case KindBool:
		if v.b {
			return "true"
		}
		return "false"
	case KindInt:
		return fmt.Sprintf("%d", v.i)
	case KindFloat:
		if math.IsInf(v.f, 1) {
			return "inf"
		}
		if math.IsInf(v.f, -1) {
			return "-inf"
		}
		if math.IsNaN(v.f) {
			return "nan"
		}
		return fmt.Sprintf("%g", v.f)
	case KindString:
		return v.AsString().Value
	case KindArray:
		return v.AsArray().String()
	case KindHashmap:
		return v.AsHashmap().String()
	case KindFunction:
		return v.AsFunction().String()
	case KindWeakUserinfo:
		return fmt.Sprintf("<userinfo %#x>", v.ptr)
	case KindStrongUserinfo:
		return v.AsUserinfo().String()
	default:
		return "<invalid>"
	}
}
