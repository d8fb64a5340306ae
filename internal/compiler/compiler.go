// Package compiler lowers a parsed AST into a bytecode.Program: a
// register allocator turns expression trees into three-operand
// instructions, block scopes map names to registers, free identifiers
// become global references resolved at first use by the VM, and nested
// function literals become closures with explicit upvalue capture
// descriptors.
package compiler

import (
	"spun/internal/bytecode"
	"spun/internal/errors"
	"spun/internal/object"
	"spun/internal/parser"
)

const maxRegisters = 256

// Compiler owns the symbol table shared by the whole program: every
// function compiled within one Compile call — top-level or nested —
// interns its string constants, global stubs, and FUNCDEF entries into
// this single table, per the spec's "the top-level function owns the
// local symbol table" rule.
type Compiler struct {
	file         string
	symbols      []bytecode.SymbolEntry
	stringConsts map[string]int
	globalStubs  map[string]int
}

func New(file string) *Compiler {
	return &Compiler{
		file:         file,
		stringConsts: make(map[string]int),
		globalStubs:  make(map[string]int),
	}
}

// loopCtx tracks patch sites for break/continue inside one loop.
type loopCtx struct {
	breaks    []int // offset-word positions to patch to the loop's end
	continues []int // offset-word positions to patch to the loop's post/cond
}

// funcCtx is per-function compile state: its own register file and
// block scopes, plus a link to the enclosing function for upvalue
// resolution. The symbol table lives on the shared Compiler instead.
type funcCtx struct {
	c      *Compiler
	parent *funcCtx

	// codeBuf is shared by every funcCtx in one Compile call: nested
	// function bodies are spliced inline wherever their FUNCTION
	// instruction is emitted, so an offset recorded at any nesting
	// depth is already an absolute position in the final Program.Code.
	codeBuf *[]bytecode.Word
	nextReg int
	maxReg  int

	scopes []map[string]byte

	upvalues     []object.UpvalueDesc
	upvalueNames []string

	loops []loopCtx

	isTop bool
	name  string
}

func newFuncCtx(c *Compiler, parent *funcCtx, codeBuf *[]bytecode.Word, name string, isTop bool) *funcCtx {
	fc := &funcCtx{c: c, parent: parent, codeBuf: codeBuf, name: name, isTop: isTop}
	fc.pushScope()
	return fc
}

func (fc *funcCtx) pushScope() { fc.scopes = append(fc.scopes, make(map[string]byte)) }

func (fc *funcCtx) popScope() {
	top := fc.scopes[len(fc.scopes)-1]
	fc.nextReg -= len(top)
	fc.scopes = fc.scopes[:len(fc.scopes)-1]
}

func (fc *funcCtx) declareLocal(loc errors.Location, name string) (byte, error) {
	if fc.nextReg >= maxRegisters {
		return 0, errors.Semanticf(loc, "too many live registers in function (limit %d)", maxRegisters)
	}
	reg := byte(fc.nextReg)
	fc.scopes[len(fc.scopes)-1][name] = reg
	fc.nextReg++
	if fc.nextReg > fc.maxReg {
		fc.maxReg = fc.nextReg
	}
	return reg, nil
}

func (fc *funcCtx) allocReg(loc errors.Location) (byte, error) {
	if fc.nextReg >= maxRegisters {
		return 0, errors.Semanticf(loc, "too many live registers in function (limit %d)", maxRegisters)
	}
	reg := byte(fc.nextReg)
	fc.nextReg++
	if fc.nextReg > fc.maxReg {
		fc.maxReg = fc.nextReg
	}
	return reg, nil
}

func (fc *funcCtx) freeTo(mark int) { fc.nextReg = mark }

func (fc *funcCtx) resolveLocalOnly(name string) (byte, bool) {
	for i := len(fc.scopes) - 1; i >= 0; i-- {
		if reg, ok := fc.scopes[i][name]; ok {
			return reg, true
		}
	}
	return 0, false
}

// resolveUpvalue searches enclosing functions for name, materializing
// (and memoizing) the chain of LOCAL/OUTER capture descriptors needed
// to reach it, per the spec's upvalue model.
func (fc *funcCtx) resolveUpvalue(name string) (int, bool) {
	if fc.parent == nil {
		return -1, false
	}
	for i, n := range fc.upvalueNames {
		if n == name {
			return i, true
		}
	}
	if reg, ok := fc.parent.resolveLocalOnly(name); ok {
		idx := len(fc.upvalues)
		fc.upvalues = append(fc.upvalues, object.UpvalueDesc{Kind: object.CaptureLocal, Index: int(reg)})
		fc.upvalueNames = append(fc.upvalueNames, name)
		return idx, true
	}
	if outerIdx, ok := fc.parent.resolveUpvalue(name); ok {
		idx := len(fc.upvalues)
		fc.upvalues = append(fc.upvalues, object.UpvalueDesc{Kind: object.CaptureOuter, Index: outerIdx})
		fc.upvalueNames = append(fc.upvalueNames, name)
		return idx, true
	}
	return -1, false
}

func (fc *funcCtx) emit(w bytecode.Word) { *fc.codeBuf = append(*fc.codeBuf, w) }
func (fc *funcCtx) emitIns(op bytecode.Op, a, b, c byte) {
	fc.emit(bytecode.Encode(op, a, b, c).Word())
}
func (fc *funcCtx) pc() int { return len(*fc.codeBuf) }

// emitJump emits op with cond register a (ignored for JMP) followed by
// a placeholder offset word, returning the offset word's position.
func (fc *funcCtx) emitJump(op bytecode.Op, condReg byte) int {
	fc.emitIns(op, condReg, 0, 0)
	fc.emit(0)
	return fc.pc() - 1
}

// patchJump back-patches the offset word at pos to target target.
func (fc *funcCtx) patchJump(pos int, target int) {
	off := int32(target - (pos + 1))
	(*fc.codeBuf)[pos] = bytecode.EncodeSignedOffset(off)
}

func (fc *funcCtx) internString(s string) int {
	if idx, ok := fc.c.stringConsts[s]; ok {
		return idx
	}
	idx := len(fc.c.symbols)
	fc.c.symbols = append(fc.c.symbols, bytecode.SymbolEntry{Kind: bytecode.SymSTRCONST, Name: s})
	fc.c.stringConsts[s] = idx
	return idx
}

func (fc *funcCtx) internGlobalStub(name string) int {
	if idx, ok := fc.c.globalStubs[name]; ok {
		return idx
	}
	idx := len(fc.c.symbols)
	fc.c.symbols = append(fc.c.symbols, bytecode.SymbolEntry{Kind: bytecode.SymSYMSTUB, Name: name})
	fc.c.globalStubs[name] = idx
	return idx
}

// Compile lowers a whole program into a bytecode.Program whose
// top-level function has no declared parameters; script arguments
// still reach it through the call's actual argument registers, which
// LDARGC/NTHARG read regardless of the header's static Argc.
func Compile(file string, stmts []parser.Stmt) (*bytecode.Program, error) {
	c := New(file)
	code := &[]bytecode.Word{}
	top := newFuncCtx(c, nil, code, "", true)
	if err := compileBlock(top, stmts); err != nil {
		return nil, err
	}
	nilReg, err := top.allocReg(errors.Location{File: file})
	if err != nil {
		return nil, err
	}
	top.emitIns(bytecode.OpLDCONST, nilReg, ldcNil, 0)
	top.emitIns(bytecode.OpRET, nilReg, 0, 0) // implicit `return nil;`

	symIndex := len(c.symbols)
	c.symbols = append(c.symbols, bytecode.SymbolEntry{Kind: bytecode.SymFUNCDEF, Name: "", FuncOffset: 0})

	p := &bytecode.Program{
		Header: bytecode.FunctionHeader{
			BodyLen:  uint32(len(*code)),
			Argc:     0,
			NumRegs:  uint32(top.maxReg),
			SymIndex: uint32(symIndex),
		},
		Code:       *code,
		Symbols:    c.symbols,
		SourcePath: file,
	}
	return p, nil
}
