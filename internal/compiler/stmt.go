package compiler

import (
	"spun/internal/bytecode"
	"spun/internal/errors"
	"spun/internal/parser"
)

func compileBlock(fc *funcCtx, stmts []parser.Stmt) error {
	fc.pushScope()
	defer fc.popScope()
	for _, s := range stmts {
		if err := compileStmt(fc, s); err != nil {
			return err
		}
	}
	return nil
}

// compileStmtsNoScope compiles a statement list without opening a new
// block scope, used where the caller already manages scoping (e.g. a
// for loop's init-variable scope must stay open across the body).
func compileStmtsNoScope(fc *funcCtx, stmts []parser.Stmt) error {
	for _, s := range stmts {
		if err := compileStmt(fc, s); err != nil {
			return err
		}
	}
	return nil
}

func compileStmt(fc *funcCtx, s parser.Stmt) error {
	switch st := s.(type) {
	case *parser.EmptyStmt:
		return nil
	case *parser.ExprStmt:
		mark := fc.nextReg
		_, err := compileExpr(fc, st.X)
		fc.freeTo(mark)
		return err
	case *parser.VarDecl:
		return compileVarDecl(fc, st)
	case *parser.ConstDecl:
		return compileVarDecl(fc, &parser.VarDecl{Name: st.Name, Init: st.Init})
	case *parser.BlockStmt:
		return compileBlock(fc, st.Stmts)
	case *parser.IfStmt:
		return compileIf(fc, st)
	case *parser.WhileStmt:
		return compileWhile(fc, st)
	case *parser.DoWhileStmt:
		return compileDoWhile(fc, st)
	case *parser.ForStmt:
		return compileFor(fc, st)
	case *parser.BreakStmt:
		if len(fc.loops) == 0 {
			return errors.Semanticf(st.Pos(), "'break' outside a loop")
		}
		loop := &fc.loops[len(fc.loops)-1]
		pos := fc.emitJump(bytecode.OpJMP, 0)
		loop.breaks = append(loop.breaks, pos)
		return nil
	case *parser.ContinueStmt:
		if len(fc.loops) == 0 {
			return errors.Semanticf(st.Pos(), "'continue' outside a loop")
		}
		loop := &fc.loops[len(fc.loops)-1]
		pos := fc.emitJump(bytecode.OpJMP, 0)
		loop.continues = append(loop.continues, pos)
		return nil
	case *parser.ReturnStmt:
		return compileReturn(fc, st)
	default:
		return errors.Semanticf(s.Pos(), "compiler: unhandled statement %T", s)
	}
}

func compileVarDecl(fc *funcCtx, st *parser.VarDecl) error {
	reg, err := fc.declareLocal(st.Pos(), st.Name)
	if err != nil {
		return err
	}
	if st.Init == nil {
		// the register may still hold a freed temporary, so load nil explicitly
		fc.emitIns(bytecode.OpLDCONST, reg, ldcNil, 0)
		return nil
	}
	mark := fc.nextReg
	srcReg, err := compileExpr(fc, st.Init)
	if err != nil {
		return err
	}
	fc.emitIns(bytecode.OpMOV, reg, srcReg, 0)
	fc.freeTo(mark)
	return nil
}

func compileIf(fc *funcCtx, st *parser.IfStmt) error {
	mark := fc.nextReg
	condReg, err := compileExpr(fc, st.Cond)
	if err != nil {
		return err
	}
	fc.freeTo(mark)
	jzePos := fc.emitJump(bytecode.OpJZE, condReg)
	if err := compileBlock(fc, st.Then); err != nil {
		return err
	}
	if st.Else != nil {
		jmpEndPos := fc.emitJump(bytecode.OpJMP, 0)
		fc.patchJump(jzePos, fc.pc())
		if err := compileBlock(fc, st.Else); err != nil {
			return err
		}
		fc.patchJump(jmpEndPos, fc.pc())
	} else {
		fc.patchJump(jzePos, fc.pc())
	}
	return nil
}

func compileWhile(fc *funcCtx, st *parser.WhileStmt) error {
	loopStart := fc.pc()
	mark := fc.nextReg
	condReg, err := compileExpr(fc, st.Cond)
	if err != nil {
		return err
	}
	fc.freeTo(mark)
	jzePos := fc.emitJump(bytecode.OpJZE, condReg)

	fc.loops = append(fc.loops, loopCtx{})
	if err := compileBlock(fc, st.Body); err != nil {
		return err
	}
	loop := fc.loops[len(fc.loops)-1]
	fc.loops = fc.loops[:len(fc.loops)-1]

	backPos := fc.emitJump(bytecode.OpJMP, 0)
	fc.patchJump(backPos, loopStart)
	endPC := fc.pc()
	fc.patchJump(jzePos, endPC)
	for _, p := range loop.breaks {
		fc.patchJump(p, endPC)
	}
	for _, p := range loop.continues {
		fc.patchJump(p, loopStart)
	}
	return nil
}

func compileDoWhile(fc *funcCtx, st *parser.DoWhileStmt) error {
	loopStart := fc.pc()
	fc.loops = append(fc.loops, loopCtx{})
	if err := compileBlock(fc, st.Body); err != nil {
		return err
	}
	loop := fc.loops[len(fc.loops)-1]
	fc.loops = fc.loops[:len(fc.loops)-1]

	condPC := fc.pc()
	mark := fc.nextReg
	condReg, err := compileExpr(fc, st.Cond)
	if err != nil {
		return err
	}
	fc.freeTo(mark)
	jnzPos := fc.emitJump(bytecode.OpJNZ, condReg)
	fc.patchJump(jnzPos, loopStart)
	endPC := fc.pc()
	for _, p := range loop.breaks {
		fc.patchJump(p, endPC)
	}
	for _, p := range loop.continues {
		fc.patchJump(p, condPC)
	}
	return nil
}

func compileFor(fc *funcCtx, st *parser.ForStmt) error {
	fc.pushScope()
	defer fc.popScope()

	if st.Init != nil {
		if err := compileStmt(fc, st.Init); err != nil {
			return err
		}
	}

	loopStart := fc.pc()
	var jzePos int
	hasCond := st.Cond != nil
	if hasCond {
		mark := fc.nextReg
		condReg, err := compileExpr(fc, st.Cond)
		if err != nil {
			return err
		}
		fc.freeTo(mark)
		jzePos = fc.emitJump(bytecode.OpJZE, condReg)
	}

	fc.loops = append(fc.loops, loopCtx{})
	if err := compileStmtsNoScope(fc, st.Body); err != nil {
		return err
	}
	loop := fc.loops[len(fc.loops)-1]
	fc.loops = fc.loops[:len(fc.loops)-1]

	postPC := fc.pc()
	if st.Post != nil {
		if err := compileStmt(fc, st.Post); err != nil {
			return err
		}
	}
	backPos := fc.emitJump(bytecode.OpJMP, 0)
	fc.patchJump(backPos, loopStart)
	endPC := fc.pc()
	if hasCond {
		fc.patchJump(jzePos, endPC)
	}
	for _, p := range loop.breaks {
		fc.patchJump(p, endPC)
	}
	for _, p := range loop.continues {
		fc.patchJump(p, postPC)
	}
	return nil
}

func compileReturn(fc *funcCtx, st *parser.ReturnStmt) error {
	if st.Value == nil {
		fc.emitIns(bytecode.OpRET, 0, 0, 0)
		return nil
	}
	mark := fc.nextReg
	reg, err := compileExpr(fc, st.Value)
	if err != nil {
		return err
	}
	fc.emitIns(bytecode.OpRET, reg, 0, 0)
	fc.freeTo(mark)
	return nil
}
