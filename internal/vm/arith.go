package vm

import (
	"math"

	"spun/internal/bytecode"
	"spun/internal/errors"
	"spun/internal/object"
)

// arithOp implements ADD/SUB/MUL/DIV/MOD with the spec's promotion
// rule: int OP int stays int, either operand a float promotes the
// whole operation to float. ADD additionally falls through to string
// concatenation when either operand is a string, matching how `+`
// reads in code that mixes numeric and textual output.
func arithOp(op bytecode.Op, a, b object.Value) (object.Value, error) {
	if op == bytecode.OpADD && (a.Kind == object.KindString || b.Kind == object.KindString) {
		return concatValues(a, b), nil
	}
	if !a.IsNumber() || !b.IsNumber() {
		return object.Nil, errors.Runtimef("cannot apply %s to %s and %s", op, object.TypeName(a), object.TypeName(b))
	}
	if a.Kind == object.KindInt && b.Kind == object.KindInt {
		ai, bi := a.AsInt(), b.AsInt()
		switch op {
		case bytecode.OpADD:
			return object.Int(ai + bi), nil
		case bytecode.OpSUB:
			return object.Int(ai - bi), nil
		case bytecode.OpMUL:
			return object.Int(ai * bi), nil
		case bytecode.OpDIV:
			if bi == 0 {
				return object.Nil, errors.Runtimef("integer division by zero")
			}
			return object.Int(ai / bi), nil
		case bytecode.OpMOD:
			if bi == 0 {
				return object.Nil, errors.Runtimef("integer modulo by zero")
			}
			return object.Int(ai % bi), nil
		}
	}
	af, bf := a.AsFloat(), b.AsFloat()
	switch op {
	case bytecode.OpADD:
		return object.Float(af + bf), nil
	case bytecode.OpSUB:
		return object.Float(af - bf), nil
	case bytecode.OpMUL:
		return object.Float(af * bf), nil
	case bytecode.OpDIV:
		return object.Float(af / bf), nil // division by zero yields inf/nan, not an error
	case bytecode.OpMOD:
		return object.Float(math.Mod(af, bf)), nil
	}
	return object.Nil, errors.Runtimef("unreachable arithmetic opcode %s", op)
}

func bitwiseOp(op bytecode.Op, a, b object.Value) (object.Value, error) {
	if a.Kind != object.KindInt || b.Kind != object.KindInt {
		return object.Nil, errors.Runtimef("bitwise %s requires integer operands, got %s and %s", op, object.TypeName(a), object.TypeName(b))
	}
	ai, bi := a.AsInt(), b.AsInt()
	switch op {
	case bytecode.OpAND:
		return object.Int(ai & bi), nil
	case bytecode.OpOR:
		return object.Int(ai | bi), nil
	case bytecode.OpXOR:
		return object.Int(ai ^ bi), nil
	case bytecode.OpSHL:
		return object.Int(ai << uint64(bi)), nil
	case bytecode.OpSHR:
		return object.Int(ai >> uint64(bi)), nil
	}
	return object.Nil, errors.Runtimef("unreachable bitwise opcode %s", op)
}

func compareOp(op bytecode.Op, a, b object.Value) (object.Value, error) {
	if !object.Comparable(a, b) {
		return object.Nil, errors.Runtimef("cannot compare %s and %s", object.TypeName(a), object.TypeName(b))
	}
	c := object.Compare(a, b)
	switch op {
	case bytecode.OpLT:
		return object.Bool(c < 0), nil
	case bytecode.OpLE:
		return object.Bool(c <= 0), nil
	case bytecode.OpGT:
		return object.Bool(c > 0), nil
	case bytecode.OpGE:
		return object.Bool(c >= 0), nil
	}
	return object.Nil, errors.Runtimef("unreachable comparison opcode %s", op)
}

func negate(v object.Value) (object.Value, error) {
	switch v.Kind {
	case object.KindInt:
		return object.Int(-v.AsInt()), nil
	case object.KindFloat:
		return object.Float(-v.AsFloat()), nil
	default:
		return object.Nil, errors.Runtimef("cannot negate a %s value", object.TypeName(v))
	}
}

func intOnlyUnary(v object.Value, f func(int64) int64) (object.Value, error) {
	if v.Kind != object.KindInt {
		return object.Nil, errors.Runtimef("operation requires an integer, got %s", object.TypeName(v))
	}
	return object.Int(f(v.AsInt())), nil
}

// addDelta implements INC/DEC (delta is +1 or -1) on an int or float
// register in place.
func addDelta(v object.Value, delta int64) (object.Value, error) {
	switch v.Kind {
	case object.KindInt:
		return object.Int(v.AsInt() + delta), nil
	case object.KindFloat:
		return object.Float(v.AsFloat() + float64(delta)), nil
	default:
		return object.Nil, errors.Runtimef("cannot increment/decrement a %s value", object.TypeName(v))
	}
}
