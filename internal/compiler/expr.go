package compiler

import (
	"math"

	"spun/internal/bytecode"
	"spun/internal/errors"
	"spun/internal/object"
	"spun/internal/parser"
)

// ldconst kind tags carried in LDCONST's B operand. Only int and float
// carry immediate value words; the others are zero-immediate singleton
// loads, an extension of the format the spec describes for numeric
// constants to cover the other literal kinds without a dedicated
// opcode for each.
const (
	ldcInt   = 0
	ldcFloat = 1
	ldcNil   = 2
	ldcFalse = 3
	ldcTrue  = 4
)

var binOpcodes = map[string]bytecode.Op{
	"+": bytecode.OpADD, "-": bytecode.OpSUB, "*": bytecode.OpMUL,
	"/": bytecode.OpDIV, "%": bytecode.OpMOD, "..": bytecode.OpCONCAT,
	"==": bytecode.OpEQ, "!=": bytecode.OpNE, "<": bytecode.OpLT,
	"<=": bytecode.OpLE, ">": bytecode.OpGT, ">=": bytecode.OpGE,
	"&": bytecode.OpAND, "|": bytecode.OpOR, "^": bytecode.OpXOR,
	"<<": bytecode.OpSHL, ">>": bytecode.OpSHR,
}

func compileExpr(fc *funcCtx, e parser.Expr) (byte, error) {
	switch ex := e.(type) {
	case *parser.IntLit:
		dst, err := fc.allocReg(ex.Pos())
		if err != nil {
			return 0, err
		}
		fc.emitIns(bytecode.OpLDCONST, dst, ldcInt, 0)
		lo, hi := splitWord64(uint64(ex.Value))
		fc.emit(lo)
		fc.emit(hi)
		return dst, nil
	case *parser.FloatLit:
		dst, err := fc.allocReg(ex.Pos())
		if err != nil {
			return 0, err
		}
		fc.emitIns(bytecode.OpLDCONST, dst, ldcFloat, 0)
		lo, hi := splitWord64(math.Float64bits(ex.Value))
		fc.emit(lo)
		fc.emit(hi)
		return dst, nil
	case *parser.BoolLit:
		dst, err := fc.allocReg(ex.Pos())
		if err != nil {
			return 0, err
		}
		kind := byte(ldcFalse)
		if ex.Value {
			kind = ldcTrue
		}
		fc.emitIns(bytecode.OpLDCONST, dst, kind, 0)
		return dst, nil
	case *parser.NilLit:
		dst, err := fc.allocReg(ex.Pos())
		if err != nil {
			return 0, err
		}
		fc.emitIns(bytecode.OpLDCONST, dst, ldcNil, 0)
		return dst, nil
	case *parser.StringLit:
		dst, err := fc.allocReg(ex.Pos())
		if err != nil {
			return 0, err
		}
		idx := fc.internString(ex.Value)
		fc.emitIns(bytecode.OpLDSYM, dst, byte(idx), byte(idx>>8))
		return dst, nil
	case *parser.Identifier:
		return compileIdentifierLoad(fc, ex.Pos(), ex.Name)
	case *parser.ArgRef:
		dst, err := fc.allocReg(ex.Pos())
		if err != nil {
			return 0, err
		}
		mark := fc.nextReg
		idxReg, err := compileExpr(fc, ex.Index)
		if err != nil {
			return 0, err
		}
		fc.emitIns(bytecode.OpNTHARG, dst, idxReg, 0)
		fc.freeTo(mark)
		return dst, nil
	case *parser.SizeofExpr:
		return compileUnaryOp(fc, ex.Pos(), bytecode.OpSIZEOF, ex.Operand)
	case *parser.TypeofExpr:
		return compileUnaryOp(fc, ex.Pos(), bytecode.OpTYPEOF, ex.Operand)
	case *parser.Unary:
		return compileUnary(fc, ex)
	case *parser.PostfixIncDec:
		return compilePostfixIncDec(fc, ex)
	case *parser.Binary:
		return compileBinary(fc, ex)
	case *parser.Ternary:
		return compileTernary(fc, ex)
	case *parser.Assign:
		return compileAssign(fc, ex)
	case *parser.CompoundAssign:
		return compileCompoundAssign(fc, ex)
	case *parser.CallExpr:
		return compileCall(fc, ex)
	case *parser.FunctionLit:
		return compileFunctionLit(fc, ex)
	case *parser.ArrayLit:
		return compileArrayLit(fc, ex)
	case *parser.HashmapLit:
		return compileHashmapLit(fc, ex)
	case *parser.MemberExpr:
		return compileMemberLoad(fc, ex)
	case *parser.IndexExpr:
		return compileIndexLoad(fc, ex)
	default:
		return 0, errors.Semanticf(e.Pos(), "compiler: unhandled expression %T", e)
	}
}

func splitWord64(bits uint64) (lo, hi bytecode.Word) {
	return bytecode.Word(bits), bytecode.Word(bits >> 32)
}

func compileIdentifierLoad(fc *funcCtx, loc errors.Location, name string) (byte, error) {
	if reg, ok := fc.resolveLocalOnly(name); ok {
		return reg, nil
	}
	if idx, ok := fc.resolveUpvalue(name); ok {
		dst, err := fc.allocReg(loc)
		if err != nil {
			return 0, err
		}
		fc.emitIns(bytecode.OpLDUPVAL, dst, byte(idx), 0)
		return dst, nil
	}
	if name == "argc" {
		dst, err := fc.allocReg(loc)
		if err != nil {
			return 0, err
		}
		fc.emitIns(bytecode.OpLDARGC, dst, 0, 0)
		return dst, nil
	}
	dst, err := fc.allocReg(loc)
	if err != nil {
		return 0, err
	}
	idx := fc.internGlobalStub(name)
	fc.emitIns(bytecode.OpLDSYM, dst, byte(idx), byte(idx>>8))
	return dst, nil
}

func compileUnaryOp(fc *funcCtx, loc errors.Location, op bytecode.Op, operand parser.Expr) (byte, error) {
	mark := fc.nextReg
	src, err := compileExpr(fc, operand)
	if err != nil {
		return 0, err
	}
	fc.freeTo(mark)
	dst, err := fc.allocReg(loc)
	if err != nil {
		return 0, err
	}
	fc.emitIns(op, dst, src, 0)
	return dst, nil
}

func compileUnary(fc *funcCtx, ex *parser.Unary) (byte, error) {
	switch ex.Op {
	case "-":
		return compileUnaryOp(fc, ex.Pos(), bytecode.OpNEG, ex.Operand)
	case "!":
		return compileUnaryOp(fc, ex.Pos(), bytecode.OpLOGNOT, ex.Operand)
	case "~":
		return compileUnaryOp(fc, ex.Pos(), bytecode.OpBITNOT, ex.Operand)
	case "++", "--":
		op := bytecode.OpINC
		if ex.Op == "--" {
			op = bytecode.OpDEC
		}
		return compileIncDecLValue(fc, ex.Pos(), ex.Operand, op, false)
	default:
		return 0, errors.Semanticf(ex.Pos(), "compiler: unknown unary operator %q", ex.Op)
	}
}

func compilePostfixIncDec(fc *funcCtx, ex *parser.PostfixIncDec) (byte, error) {
	op := bytecode.OpINC
	if ex.Op == "--" {
		op = bytecode.OpDEC
	}
	return compileIncDecLValue(fc, ex.Pos(), ex.Operand, op, true)
}

// compileIncDecLValue applies INC/DEC to the storage named by target.
// When returnOld is true (postfix), the pre-increment value is copied
// out first and returned; otherwise the post-increment value is
// returned (prefix).
func compileIncDecLValue(fc *funcCtx, loc errors.Location, target parser.Expr, op bytecode.Op, returnOld bool) (byte, error) {
	switch t := target.(type) {
	case *parser.Identifier:
		if reg, ok := fc.resolveLocalOnly(t.Name); ok {
			if !returnOld {
				fc.emitIns(op, reg, 0, 0)
				return reg, nil
			}
			old, err := fc.allocReg(loc)
			if err != nil {
				return 0, err
			}
			fc.emitIns(bytecode.OpMOV, old, reg, 0)
			fc.emitIns(op, reg, 0, 0)
			return old, nil
		}
		// global or upvalue: load, adjust, store back
		cur, err := compileIdentifierLoad(fc, loc, t.Name)
		if err != nil {
			return 0, err
		}
		var old byte
		if returnOld {
			old, err = fc.allocReg(loc)
			if err != nil {
				return 0, err
			}
			fc.emitIns(bytecode.OpMOV, old, cur, 0)
		}
		fc.emitIns(op, cur, 0, 0)
		if err := storeIdentifier(fc, loc, t.Name, cur); err != nil {
			return 0, err
		}
		if returnOld {
			return old, nil
		}
		return cur, nil
	case *parser.IndexExpr, *parser.MemberExpr:
		cur, arrReg, keyReg, err := loadIndexable(fc, target)
		if err != nil {
			return 0, err
		}
		var old byte
		if returnOld {
			old, err = fc.allocReg(loc)
			if err != nil {
				return 0, err
			}
			fc.emitIns(bytecode.OpMOV, old, cur, 0)
		}
		fc.emitIns(op, cur, 0, 0)
		fc.emitIns(bytecode.OpARRSET, arrReg, keyReg, cur)
		if returnOld {
			return old, nil
		}
		return cur, nil
	default:
		return 0, errors.Semanticf(loc, "invalid increment/decrement target")
	}
}

func compileBinary(fc *funcCtx, ex *parser.Binary) (byte, error) {
	if ex.Op == "&&" || ex.Op == "||" {
		return compileShortCircuit(fc, ex)
	}
	op, ok := binOpcodes[ex.Op]
	if !ok {
		return 0, errors.Semanticf(ex.Pos(), "compiler: unknown binary operator %q", ex.Op)
	}
	mark := fc.nextReg
	left, err := compileExpr(fc, ex.Left)
	if err != nil {
		return 0, err
	}
	right, err := compileExpr(fc, ex.Right)
	if err != nil {
		return 0, err
	}
	fc.freeTo(mark)
	dst, err := fc.allocReg(ex.Pos())
	if err != nil {
		return 0, err
	}
	fc.emitIns(op, dst, left, right)
	return dst, nil
}

func compileShortCircuit(fc *funcCtx, ex *parser.Binary) (byte, error) {
	dst, err := fc.allocReg(ex.Pos())
	if err != nil {
		return 0, err
	}
	mark := fc.nextReg
	left, err := compileExpr(fc, ex.Left)
	if err != nil {
		return 0, err
	}
	fc.emitIns(bytecode.OpMOV, dst, left, 0)
	fc.freeTo(mark)
	var skip int
	if ex.Op == "&&" {
		skip = fc.emitJump(bytecode.OpJZE, dst)
	} else {
		skip = fc.emitJump(bytecode.OpJNZ, dst)
	}
	right, err := compileExpr(fc, ex.Right)
	if err != nil {
		return 0, err
	}
	fc.emitIns(bytecode.OpMOV, dst, right, 0)
	fc.freeTo(mark)
	fc.patchJump(skip, fc.pc())
	return dst, nil
}

func compileTernary(fc *funcCtx, ex *parser.Ternary) (byte, error) {
	dst, err := fc.allocReg(ex.Pos())
	if err != nil {
		return 0, err
	}
	mark := fc.nextReg
	cond, err := compileExpr(fc, ex.Cond)
	if err != nil {
		return 0, err
	}
	fc.freeTo(mark)
	jze := fc.emitJump(bytecode.OpJZE, cond)
	thenReg, err := compileExpr(fc, ex.Then)
	if err != nil {
		return 0, err
	}
	fc.emitIns(bytecode.OpMOV, dst, thenReg, 0)
	fc.freeTo(mark)
	jmp := fc.emitJump(bytecode.OpJMP, 0)
	fc.patchJump(jze, fc.pc())
	elseReg, err := compileExpr(fc, ex.Else)
	if err != nil {
		return 0, err
	}
	fc.emitIns(bytecode.OpMOV, dst, elseReg, 0)
	fc.freeTo(mark)
	fc.patchJump(jmp, fc.pc())
	return dst, nil
}

func storeIdentifier(fc *funcCtx, loc errors.Location, name string, src byte) error {
	if reg, ok := fc.resolveLocalOnly(name); ok {
		if reg != src {
			fc.emitIns(bytecode.OpMOV, reg, src, 0)
		}
		return nil
	}
	if idx, ok := fc.resolveUpvalue(name); ok {
		// Captures are by value, so there is no shared slot for the
		// write to reach: assigning to a captured variable from inside
		// the closure is rejected at compile time.
		_ = idx
		return errors.Semanticf(loc, "cannot assign to captured variable %q: closures capture by value", name)
	}
	nameLen := len(name)
	if nameLen > 255 {
		return errors.Semanticf(loc, "global name %q too long", name)
	}
	fc.emitIns(bytecode.OpGLBVAL, src, byte(nameLen), 0)
	emitName(fc, name)
	return nil
}

func emitName(fc *funcCtx, name string) {
	padded := make([]byte, ((len(name)+1+3)/4)*4)
	copy(padded, name)
	for i := 0; i < len(padded); i += 4 {
		w := bytecode.Word(padded[i]) | bytecode.Word(padded[i+1])<<8 | bytecode.Word(padded[i+2])<<16 | bytecode.Word(padded[i+3])<<24
		fc.emit(w)
	}
}

func compileAssign(fc *funcCtx, ex *parser.Assign) (byte, error) {
	mark := fc.nextReg
	val, err := compileExpr(fc, ex.Value)
	if err != nil {
		return 0, err
	}
	switch t := ex.Target.(type) {
	case *parser.Identifier:
		if err := storeIdentifier(fc, ex.Pos(), t.Name, val); err != nil {
			return 0, err
		}
	case *parser.IndexExpr:
		arrReg, err := compileExpr(fc, t.Target)
		if err != nil {
			return 0, err
		}
		keyReg, err := compileExpr(fc, t.Key)
		if err != nil {
			return 0, err
		}
		fc.emitIns(bytecode.OpARRSET, arrReg, keyReg, val)
	case *parser.MemberExpr:
		arrReg, err := compileExpr(fc, t.Target)
		if err != nil {
			return 0, err
		}
		keyReg, err := compileExpr(fc, &parser.StringLit{Value: t.Name})
		if err != nil {
			return 0, err
		}
		fc.emitIns(bytecode.OpARRSET, arrReg, keyReg, val)
	default:
		return 0, errors.Semanticf(ex.Pos(), "invalid assignment target")
	}
	fc.freeTo(mark)
	dst, err := fc.allocReg(ex.Pos())
	if err != nil {
		return 0, err
	}
	fc.emitIns(bytecode.OpMOV, dst, val, 0)
	return dst, nil
}

func compileCompoundAssign(fc *funcCtx, ex *parser.CompoundAssign) (byte, error) {
	bin := &parser.Binary{Op: ex.Op, Left: ex.Target, Right: ex.Value}
	bin2 := *bin
	assign := &parser.Assign{Target: ex.Target, Value: &bin2}
	return compileAssign(fc, assign)
}

// loadIndexable evaluates target (an IndexExpr or MemberExpr) and
// returns a register holding the current value plus the container and
// key registers needed to write it back.
func loadIndexable(fc *funcCtx, target parser.Expr) (cur, arrReg, keyReg byte, err error) {
	switch t := target.(type) {
	case *parser.IndexExpr:
		arrReg, err = compileExpr(fc, t.Target)
		if err != nil {
			return
		}
		keyReg, err = compileExpr(fc, t.Key)
		if err != nil {
			return
		}
	case *parser.MemberExpr:
		arrReg, err = compileExpr(fc, t.Target)
		if err != nil {
			return
		}
		keyReg, err = compileExpr(fc, &parser.StringLit{Value: t.Name})
		if err != nil {
			return
		}
	default:
		err = errors.Semanticf(target.Pos(), "invalid indexable target")
		return
	}
	cur, err = fc.allocReg(target.Pos())
	if err != nil {
		return
	}
	fc.emitIns(bytecode.OpARRGET, cur, arrReg, keyReg)
	return
}

func compileCall(fc *funcCtx, ex *parser.CallExpr) (byte, error) {
	mark := fc.nextReg
	fnReg, err := compileExpr(fc, ex.Callee)
	if err != nil {
		return 0, err
	}
	argRegs := make([]byte, len(ex.Args))
	for i, a := range ex.Args {
		r, err := compileExpr(fc, a)
		if err != nil {
			return 0, err
		}
		argRegs[i] = r
	}
	fc.freeTo(mark)
	dst, err := fc.allocReg(ex.Pos())
	if err != nil {
		return 0, err
	}
	if len(ex.Args) > 255 {
		return 0, errors.Semanticf(ex.Pos(), "too many call arguments")
	}
	fc.emitIns(bytecode.OpCALL, dst, fnReg, byte(len(argRegs)))
	for i := 0; i < len(argRegs); i += 4 {
		var w bytecode.Word
		for j := 0; j < 4 && i+j < len(argRegs); j++ {
			w |= bytecode.Word(argRegs[i+j]) << (8 * uint(j))
		}
		fc.emit(w)
	}
	return dst, nil
}

func compileArrayLit(fc *funcCtx, ex *parser.ArrayLit) (byte, error) {
	dst, err := fc.allocReg(ex.Pos())
	if err != nil {
		return 0, err
	}
	fc.emitIns(bytecode.OpNEWARR, dst, 0, 0)
	for i, elem := range ex.Elements {
		mark := fc.nextReg
		valReg, err := compileExpr(fc, elem)
		if err != nil {
			return 0, err
		}
		idxReg, err := compileExpr(fc, &parser.IntLit{Value: int64(i)})
		if err != nil {
			return 0, err
		}
		fc.emitIns(bytecode.OpARRSET, dst, idxReg, valReg)
		fc.freeTo(mark)
	}
	return dst, nil
}

func compileHashmapLit(fc *funcCtx, ex *parser.HashmapLit) (byte, error) {
	dst, err := fc.allocReg(ex.Pos())
	if err != nil {
		return 0, err
	}
	fc.emitIns(bytecode.OpNEWARR, dst, 1, 0) // B=1 signals "hashmap" to the VM's NEWARR handler
	for _, entry := range ex.Entries {
		mark := fc.nextReg
		keyReg, err := compileExpr(fc, entry.Key)
		if err != nil {
			return 0, err
		}
		valReg, err := compileExpr(fc, entry.Value)
		if err != nil {
			return 0, err
		}
		fc.emitIns(bytecode.OpARRSET, dst, keyReg, valReg)
		fc.freeTo(mark)
	}
	return dst, nil
}

func compileMemberLoad(fc *funcCtx, ex *parser.MemberExpr) (byte, error) {
	mark := fc.nextReg
	arrReg, err := compileExpr(fc, ex.Target)
	if err != nil {
		return 0, err
	}
	keyReg, err := compileExpr(fc, &parser.StringLit{Value: ex.Name})
	if err != nil {
		return 0, err
	}
	fc.freeTo(mark)
	dst, err := fc.allocReg(ex.Pos())
	if err != nil {
		return 0, err
	}
	fc.emitIns(bytecode.OpARRGET, dst, arrReg, keyReg)
	return dst, nil
}

func compileIndexLoad(fc *funcCtx, ex *parser.IndexExpr) (byte, error) {
	mark := fc.nextReg
	arrReg, err := compileExpr(fc, ex.Target)
	if err != nil {
		return 0, err
	}
	keyReg, err := compileExpr(fc, ex.Key)
	if err != nil {
		return 0, err
	}
	fc.freeTo(mark)
	dst, err := fc.allocReg(ex.Pos())
	if err != nil {
		return 0, err
	}
	fc.emitIns(bytecode.OpARRGET, dst, arrReg, keyReg)
	return dst, nil
}

func compileFunctionLit(fc *funcCtx, ex *parser.FunctionLit) (byte, error) {
	if len(ex.Params) > 255 {
		return 0, errors.Semanticf(ex.Pos(), "too many parameters")
	}
	dst, err := fc.allocReg(ex.Pos())
	if err != nil {
		return 0, err
	}

	fc.emitIns(bytecode.OpFUNCTION, dst, 0, 0)
	headerPos := fc.pc()
	fc.emit(0)
	fc.emit(0)
	fc.emit(0)
	fc.emit(0)
	bodyStart := fc.pc()

	child := newFuncCtx(fc.c, fc, fc.codeBuf, ex.Name, false)
	for _, pname := range ex.Params {
		if _, err := child.declareLocal(ex.Pos(), pname); err != nil {
			return 0, err
		}
	}
	if err := compileStmtsNoScope(child, ex.Body); err != nil {
		return 0, err
	}
	child.emitIns(bytecode.OpRET, 0, 0, 0)

	bodyLen := fc.pc() - bodyStart
	symIndex := len(fc.c.symbols)
	fc.c.symbols = append(fc.c.symbols, bytecode.SymbolEntry{
		Kind: bytecode.SymFUNCDEF, Name: ex.Name, FuncOffset: uint32(bodyStart),
	})

	(*fc.codeBuf)[headerPos] = bytecode.Word(bodyLen)
	(*fc.codeBuf)[headerPos+1] = bytecode.Word(len(ex.Params))
	(*fc.codeBuf)[headerPos+2] = bytecode.Word(child.maxReg)
	(*fc.codeBuf)[headerPos+3] = bytecode.Word(symIndex)

	if len(child.upvalues) > 0 {
		fc.emitIns(bytecode.OpCLOSURE, dst, byte(len(child.upvalues)), 0)
		for _, d := range child.upvalues {
			op := bytecode.UVLocal
			if d.Kind == object.CaptureOuter {
				op = bytecode.UVOuter
			}
			fc.emitIns(op, byte(d.Index), 0, 0)
		}
	}
	return dst, nil
}
