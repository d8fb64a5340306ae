package parser

import (
	"fmt"
	"strings"
)

// Dump renders a parsed program as an indented tree, one node per line
// with its children indented below it, the format the CLI's --dump-ast
// prints.
func Dump(stmts []Stmt) string {
	var b strings.Builder
	for _, s := range stmts {
		dumpStmt(&b, s, 0)
	}
	return b.String()
}

func indent(b *strings.Builder, depth int) {
	b.WriteString(strings.Repeat("  ", depth))
}

func dumpStmt(b *strings.Builder, s Stmt, depth int) {
	indent(b, depth)
	switch n := s.(type) {
	case *ExprStmt:
		b.WriteString("ExprStmt\n")
		dumpExpr(b, n.X, depth+1)
	case *VarDecl:
		fmt.Fprintf(b, "VarDecl %s\n", n.Name)
		if n.Init != nil {
			dumpExpr(b, n.Init, depth+1)
		}
	case *ConstDecl:
		fmt.Fprintf(b, "ConstDecl %s\n", n.Name)
		dumpExpr(b, n.Init, depth+1)
	case *BlockStmt:
		b.WriteString("BlockStmt\n")
		dumpStmts(b, n.Stmts, depth+1)
	case *IfStmt:
		b.WriteString("IfStmt\n")
		dumpExpr(b, n.Cond, depth+1)
		dumpStmts(b, n.Then, depth+1)
		if n.Else != nil {
			indent(b, depth+1)
			b.WriteString("Else\n")
			dumpStmts(b, n.Else, depth+2)
		}
	case *WhileStmt:
		b.WriteString("WhileStmt\n")
		dumpExpr(b, n.Cond, depth+1)
		dumpStmts(b, n.Body, depth+1)
	case *DoWhileStmt:
		b.WriteString("DoWhileStmt\n")
		dumpStmts(b, n.Body, depth+1)
		dumpExpr(b, n.Cond, depth+1)
	case *ForStmt:
		b.WriteString("ForStmt\n")
		if n.Init != nil {
			dumpStmt(b, n.Init, depth+1)
		}
		if n.Cond != nil {
			dumpExpr(b, n.Cond, depth+1)
		}
		if n.Post != nil {
			dumpStmt(b, n.Post, depth+1)
		}
		dumpStmts(b, n.Body, depth+1)
	case *BreakStmt:
		b.WriteString("BreakStmt\n")
	case *ContinueStmt:
		b.WriteString("ContinueStmt\n")
	case *ReturnStmt:
		b.WriteString("ReturnStmt\n")
		if n.Value != nil {
			dumpExpr(b, n.Value, depth+1)
		}
	case *EmptyStmt:
		b.WriteString("EmptyStmt\n")
	default:
		fmt.Fprintf(b, "<unknown stmt %T>\n", n)
	}
}

func dumpStmts(b *strings.Builder, stmts []Stmt, depth int) {
	for _, s := range stmts {
		dumpStmt(b, s, depth)
	}
}

func dumpExpr(b *strings.Builder, e Expr, depth int) {
	indent(b, depth)
	switch n := e.(type) {
	case *IntLit:
		fmt.Fprintf(b, "IntLit %d\n", n.Value)
	case *FloatLit:
		fmt.Fprintf(b, "FloatLit %g\n", n.Value)
	case *StringLit:
		fmt.Fprintf(b, "StringLit %q\n", n.Value)
	case *BoolLit:
		fmt.Fprintf(b, "BoolLit %v\n", n.Value)
	case *NilLit:
		b.WriteString("NilLit\n")
	case *ArgRef:
		b.WriteString("ArgRef\n")
		dumpExpr(b, n.Index, depth+1)
	case *Identifier:
		fmt.Fprintf(b, "Identifier %s\n", n.Name)
	case *Unary:
		fmt.Fprintf(b, "Unary %q\n", n.Op)
		dumpExpr(b, n.Operand, depth+1)
	case *PostfixIncDec:
		fmt.Fprintf(b, "PostfixIncDec %q\n", n.Op)
		dumpExpr(b, n.Operand, depth+1)
	case *Binary:
		fmt.Fprintf(b, "Binary %q\n", n.Op)
		dumpExpr(b, n.Left, depth+1)
		dumpExpr(b, n.Right, depth+1)
	case *Assign:
		b.WriteString("Assign\n")
		dumpExpr(b, n.Target, depth+1)
		dumpExpr(b, n.Value, depth+1)
	case *CompoundAssign:
		fmt.Fprintf(b, "CompoundAssign %q\n", n.Op)
		dumpExpr(b, n.Target, depth+1)
		dumpExpr(b, n.Value, depth+1)
	case *Ternary:
		b.WriteString("Ternary\n")
		dumpExpr(b, n.Cond, depth+1)
		dumpExpr(b, n.Then, depth+1)
		dumpExpr(b, n.Else, depth+1)
	case *SizeofExpr:
		b.WriteString("SizeofExpr\n")
		dumpExpr(b, n.Operand, depth+1)
	case *TypeofExpr:
		b.WriteString("TypeofExpr\n")
		dumpExpr(b, n.Operand, depth+1)
	case *CallExpr:
		b.WriteString("CallExpr\n")
		dumpExpr(b, n.Callee, depth+1)
		for _, a := range n.Args {
			dumpExpr(b, a, depth+1)
		}
	case *FunctionLit:
		fmt.Fprintf(b, "FunctionLit %s(%s)\n", n.Name, strings.Join(n.Params, ", "))
		dumpStmts(b, n.Body, depth+1)
	case *ArrayLit:
		b.WriteString("ArrayLit\n")
		for _, el := range n.Elements {
			dumpExpr(b, el, depth+1)
		}
	case *HashmapLit:
		b.WriteString("HashmapLit\n")
		for _, ent := range n.Entries {
			dumpExpr(b, ent.Key, depth+1)
			dumpExpr(b, ent.Value, depth+1)
		}
	case *MemberExpr:
		fmt.Fprintf(b, "MemberExpr .%s\n", n.Name)
		dumpExpr(b, n.Target, depth+1)
	case *IndexExpr:
		b.WriteString("IndexExpr\n")
		dumpExpr(b, n.Target, depth+1)
		dumpExpr(b, n.Key, depth+1)
	default:
		fmt.Fprintf(b, "<unknown expr %T>\n", n)
	}
}
