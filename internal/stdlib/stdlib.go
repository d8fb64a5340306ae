// Package stdlib registers the small set of native functions the core
// runtime ships with; spec.md explicitly treats standard-library
// breadth as out of scope, so this stays deliberately minimal: enough
// to observe a running script, not a general-purpose library.
package stdlib

import (
	"fmt"

	"spun/internal/engine"
	"spun/internal/object"
)

// Register binds every native function onto c's global table.
func Register(c *engine.Context) {
	c.RegisterNative("print", nativePrint)
	c.RegisterNative("len", nativeLen)
	c.RegisterNative("type", nativeType)
	c.RegisterNative("push", nativePush)
	c.RegisterNative("pop", nativePop)
	c.RegisterNative("str", nativeStr)
}

func nativePrint(args []object.Value) (object.Value, error) {
	for i, a := range args {
		if i > 0 {
			fmt.Print(" ")
		}
		fmt.Print(a.String())
	}
	fmt.Println()
	return object.Nil, nil
}

func nativeLen(args []object.Value) (object.Value, error) {
	if len(args) != 1 {
		return object.Nil, fmt.Errorf("len() takes exactly one argument, got %d", len(args))
	}
	v := args[0]
	switch v.Kind {
	case object.KindString:
		return object.Int(int64(v.AsString().Len())), nil
	case object.KindArray, object.KindHashmap:
		return object.Int(int64(object.ContainerLen(v))), nil
	default:
		return object.Nil, fmt.Errorf("len() does not accept a %s value", object.TypeName(v))
	}
}

func nativeType(args []object.Value) (object.Value, error) {
	if len(args) != 1 {
		return object.Nil, fmt.Errorf("type() takes exactly one argument, got %d", len(args))
	}
	return object.NewString(object.TypeName(args[0])), nil
}

func nativePush(args []object.Value) (object.Value, error) {
	if len(args) != 2 || object.KindOf(args[0]) != object.KindArray {
		return object.Nil, fmt.Errorf("push(array, value) requires an array and a value")
	}
	args[0].AsArray().Push(args[1])
	return object.Nil, nil
}

func nativePop(args []object.Value) (object.Value, error) {
	if len(args) != 1 || object.KindOf(args[0]) != object.KindArray {
		return object.Nil, fmt.Errorf("pop(array) requires an array")
	}
	return args[0].AsArray().Pop(), nil
}

func nativeStr(args []object.Value) (object.Value, error) {
	if len(args) != 1 {
		return object.Nil, fmt.Errorf("str() takes exactly one argument, got %d", len(args))
	}
	return object.NewString(args[0].String()), nil
}
