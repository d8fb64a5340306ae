package vm

import (
	"math"

	"spun/internal/bytecode"
	"spun/internal/errors"
	"spun/internal/object"
)

// frame is one activation record: its own register file, the actual
// argument values it was called with (read by NTHARG/LDARGC), and a
// program counter into the shared Program.Code stream.
type frame struct {
	vm   *VM
	fn   *object.FunctionObj
	lp   *loadedProgram
	regs []object.Value
	args []object.Value
	pc   int
}

func (f *frame) reg(i byte) object.Value { return f.regs[i] }

// setReg retains v into register i, releasing whatever it held before.
// Retaining before releasing keeps `setReg(i, f.reg(i))` a no-op.
func (f *frame) setReg(i byte, v object.Value) {
	old := f.regs[i]
	f.regs[i] = object.Retain(v)
	object.Release(old)
}

func (f *frame) releaseAll() {
	for _, v := range f.regs {
		object.Release(v)
	}
}

func (f *frame) code() []bytecode.Word { return f.lp.prog.Code }

func (f *frame) run() (object.Value, error) {
	code := f.code()
	for {
		ins := bytecode.Instruction(code[f.pc])
		op := ins.Op()
		f.pc++

		switch op {
		case bytecode.OpRET:
			v := object.Retain(f.reg(ins.A()))
			return v, nil

		case bytecode.OpMOV:
			f.setReg(ins.A(), f.reg(ins.B()))

		case bytecode.OpJMP:
			off := bytecode.DecodeSignedOffset(code[f.pc])
			f.pc = f.pc + 1 + int(off)

		case bytecode.OpJZE:
			off := bytecode.DecodeSignedOffset(code[f.pc])
			f.pc++
			if !f.reg(ins.A()).Truthy() {
				f.pc = f.pc + int(off)
			}

		case bytecode.OpJNZ:
			off := bytecode.DecodeSignedOffset(code[f.pc])
			f.pc++
			if f.reg(ins.A()).Truthy() {
				f.pc = f.pc + int(off)
			}

		case bytecode.OpLDCONST:
			v, err := f.decodeConst(ins)
			if err != nil {
				return object.Nil, err
			}
			f.setReg(ins.A(), v)

		case bytecode.OpLDSYM:
			idx := int(ins.B()) | int(ins.C())<<8
			v, err := f.vm.resolveSymbol(f.lp, idx)
			if err != nil {
				return object.Nil, err
			}
			f.setReg(ins.A(), v)

		case bytecode.OpGLBVAL:
			length := int(ins.B())
			name, n := bytecode.ReadName(code, f.pc, length)
			f.pc += n
			f.vm.SetGlobal(name, f.reg(ins.A()))

		case bytecode.OpLDUPVAL:
			f.setReg(ins.A(), f.fn.Upvalues[ins.B()])

		case bytecode.OpLDARGC:
			f.setReg(ins.A(), object.Int(int64(len(f.args))))

		case bytecode.OpNTHARG:
			idxV := f.reg(ins.B())
			if idxV.Kind != object.KindInt {
				return object.Nil, errors.Runtimef("argument index must be an integer, got %s", object.TypeName(idxV))
			}
			i := idxV.AsInt()
			if i < 0 || i >= int64(len(f.args)) {
				f.setReg(ins.A(), object.Nil)
			} else {
				f.setReg(ins.A(), f.args[i])
			}

		case bytecode.OpNEWARR:
			if ins.B() == 1 {
				f.setReg(ins.A(), object.NewHashmap())
			} else {
				f.setReg(ins.A(), object.NewArray())
			}

		case bytecode.OpARRGET:
			container, key := f.reg(ins.B()), f.reg(ins.C())
			if container.Kind != object.KindArray && container.Kind != object.KindHashmap {
				return object.Nil, errors.Runtimef("cannot index a %s value", object.TypeName(container))
			}
			f.setReg(ins.A(), object.ContainerGet(container, key))

		case bytecode.OpARRSET:
			container, key, val := f.reg(ins.A()), f.reg(ins.B()), f.reg(ins.C())
			if container.Kind != object.KindArray && container.Kind != object.KindHashmap {
				return object.Nil, errors.Runtimef("cannot index a %s value", object.TypeName(container))
			}
			if !object.Hashable(key) {
				return object.Nil, errors.Runtimef("%s is not a valid container key", object.TypeName(key))
			}
			object.ContainerSet(container, key, val)

		case bytecode.OpSIZEOF:
			v, err := f.sizeof(f.reg(ins.B()))
			if err != nil {
				return object.Nil, err
			}
			f.setReg(ins.A(), v)

		case bytecode.OpTYPEOF:
			f.setReg(ins.A(), object.NewString(object.TypeName(f.reg(ins.B()))))

		case bytecode.OpCONCAT:
			f.setReg(ins.A(), concatValues(f.reg(ins.B()), f.reg(ins.C())))

		case bytecode.OpNEG:
			v, err := negate(f.reg(ins.B()))
			if err != nil {
				return object.Nil, err
			}
			f.setReg(ins.A(), v)

		case bytecode.OpBITNOT:
			v, err := intOnlyUnary(f.reg(ins.B()), func(i int64) int64 { return ^i })
			if err != nil {
				return object.Nil, err
			}
			f.setReg(ins.A(), v)

		case bytecode.OpLOGNOT:
			f.setReg(ins.A(), object.Bool(!f.reg(ins.B()).Truthy()))

		case bytecode.OpINC:
			v, err := addDelta(f.reg(ins.A()), 1)
			if err != nil {
				return object.Nil, err
			}
			f.setReg(ins.A(), v)

		case bytecode.OpDEC:
			v, err := addDelta(f.reg(ins.A()), -1)
			if err != nil {
				return object.Nil, err
			}
			f.setReg(ins.A(), v)

		case bytecode.OpEQ:
			f.setReg(ins.A(), object.Bool(object.Equal(f.reg(ins.B()), f.reg(ins.C()))))
		case bytecode.OpNE:
			f.setReg(ins.A(), object.Bool(!object.Equal(f.reg(ins.B()), f.reg(ins.C()))))
		case bytecode.OpLT, bytecode.OpLE, bytecode.OpGT, bytecode.OpGE:
			v, err := compareOp(op, f.reg(ins.B()), f.reg(ins.C()))
			if err != nil {
				return object.Nil, err
			}
			f.setReg(ins.A(), v)

		case bytecode.OpADD, bytecode.OpSUB, bytecode.OpMUL, bytecode.OpDIV, bytecode.OpMOD:
			v, err := arithOp(op, f.reg(ins.B()), f.reg(ins.C()))
			if err != nil {
				return object.Nil, err
			}
			f.setReg(ins.A(), v)

		case bytecode.OpAND, bytecode.OpOR, bytecode.OpXOR, bytecode.OpSHL, bytecode.OpSHR:
			v, err := bitwiseOp(op, f.reg(ins.B()), f.reg(ins.C()))
			if err != nil {
				return object.Nil, err
			}
			f.setReg(ins.A(), v)

		case bytecode.OpFUNCTION:
			f.execFunction(ins)

		case bytecode.OpCLOSURE:
			if err := f.execClosure(ins); err != nil {
				return object.Nil, err
			}

		case bytecode.OpCALL:
			if err := f.execCall(ins); err != nil {
				return object.Nil, err
			}

		default:
			return object.Nil, errors.Runtimef("unimplemented opcode %s", op)
		}
	}
}

func (f *frame) decodeConst(ins bytecode.Instruction) (object.Value, error) {
	switch ins.B() {
	case 0: // int
		bits := uint64(f.code()[f.pc]) | uint64(f.code()[f.pc+1])<<32
		f.pc += 2
		return object.Int(int64(bits)), nil
	case 1: // float
		bits := uint64(f.code()[f.pc]) | uint64(f.code()[f.pc+1])<<32
		f.pc += 2
		return object.Float(math.Float64frombits(bits)), nil
	case 2:
		return object.Nil, nil
	case 3:
		return object.False, nil
	case 4:
		return object.True, nil
	default:
		return object.Nil, errors.Runtimef("invalid LDCONST kind %d", ins.B())
	}
}

func (f *frame) sizeof(v object.Value) (object.Value, error) {
	switch v.Kind {
	case object.KindString:
		return object.Int(int64(v.AsString().Len())), nil
	case object.KindArray, object.KindHashmap:
		return object.Int(int64(object.ContainerLen(v))), nil
	default:
		return object.Nil, errors.Runtimef("cannot take sizeof a %s value", object.TypeName(v))
	}
}

func concatValues(a, b object.Value) object.Value {
	as, bs := a, b
	if a.Kind != object.KindString {
		as = object.NewString(a.String())
	}
	if b.Kind != object.KindString {
		bs = object.NewString(b.String())
	}
	result := object.Concat(as, bs)
	if as.Kind != a.Kind {
		object.Release(as)
	}
	if bs.Kind != b.Kind {
		object.Release(bs)
	}
	return result
}

// execFunction creates a bare (non-capturing) script function from the
// inline header that follows the FUNCTION instruction, then skips the
// function's body: FUNCTION never executes the body, CALL does.
func (f *frame) execFunction(ins bytecode.Instruction) {
	code := f.code()
	bodyLen := int(code[f.pc])
	argc := int(code[f.pc+1])
	nregs := int(code[f.pc+2])
	symIdx := int(code[f.pc+3])
	bodyStart := f.pc + 4

	name := ""
	if symIdx >= 0 && symIdx < len(f.lp.prog.Symbols) {
		name = f.lp.prog.Symbols[symIdx].Name
	}
	fn := &object.FunctionObj{
		Name: name, IsScript: true, Offset: bodyStart, BodyLen: bodyLen,
		Argc: argc, NumRegs: nregs, SymIndex: symIdx, Program: f.lp.prog,
	}
	f.setReg(ins.A(), object.NewScriptFunction(fn))
	f.pc = bodyStart + bodyLen
}

// execClosure wraps the function just built in register A into a
// closure by resolving its N capture descriptors against this frame's
// registers (LOCAL) or this frame's own upvalues (OUTER).
func (f *frame) execClosure(ins bytecode.Instruction) error {
	code := f.code()
	n := int(ins.B())
	upvals := make([]object.Value, n)
	for i := 0; i < n; i++ {
		d := bytecode.Instruction(code[f.pc])
		f.pc++
		idx := int(d.A())
		if d.Op() == bytecode.UVOuter {
			if idx < 0 || idx >= len(f.fn.Upvalues) {
				return errors.Runtimef("invalid outer upvalue index %d", idx)
			}
			upvals[i] = object.Retain(f.fn.Upvalues[idx])
		} else {
			upvals[i] = object.Retain(f.reg(byte(idx)))
		}
	}
	object.AttachUpvalues(f.reg(ins.A()), upvals)
	return nil
}

func (f *frame) execCall(ins bytecode.Instruction) error {
	dst, fnReg, argc := ins.A(), ins.B(), int(ins.C())
	code := f.code()
	nWords := (argc + 3) / 4
	args := make([]object.Value, argc)
	for i := 0; i < argc; i++ {
		word := code[f.pc+i/4]
		regNum := byte(word >> (8 * uint(i%4)))
		args[i] = f.reg(regNum)
	}
	f.pc += nWords

	fnVal := f.reg(fnReg)
	if fnVal.Kind != object.KindFunction {
		return errors.Runtimef("attempt to call a %s value", object.TypeName(fnVal))
	}
	result, err := f.vm.Call(fnVal.AsFunction(), args)
	if err != nil {
		return err
	}
	f.setReg(dst, result)
	object.Release(result) // setReg retained its own reference
	return nil
}
