package ast

import (
	"fmt"
	"io"
)

// Printer renders a Program as an indented debug tree. The driver does not
// call it: its --parse and --validate stages stop without printing.
type Printer struct {
	w     io.Writer
	depth int
}

// NewPrinter creates a Printer writing to w.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

func (p *Printer) line(format string, args ...interface{}) {
	for i := 0; i < p.depth; i++ {
		fmt.Fprint(p.w, "  ")
	}
	fmt.Fprintf(p.w, format+"\n", args...)
}

// PrintProgram prints every top-level declaration in order.
func (p *Printer) PrintProgram(prog *Program) {
	for _, d := range prog.Decls {
		p.printDecl(d)
	}
}

func (p *Printer) printDecl(d Decl) {
	switch v := d.(type) {
	case *VarDecl:
		p.line("VarDecl %s %s %s", v.Storage, v.Ty, v.Name)
		if v.Init != nil {
			p.depth++
			p.printExpr(v.Init)
			p.depth--
		}
	case *FunDecl:
		p.line("FunDecl %s %s %s", v.Storage, v.Ty, v.Name)
		if v.Body != nil {
			p.depth++
			p.printBlock(v.Body)
			p.depth--
		}
	}
}

func (p *Printer) printBlock(b *Block) {
	p.line("Block")
	p.depth++
	for _, item := range b.Items {
		p.printBlockItem(item)
	}
	p.depth--
}

func (p *Printer) printBlockItem(item BlockItem) {
	switch v := item.(type) {
	case Decl:
		p.printDecl(v)
	case Stmt:
		p.printStmt(v)
	}
}

func (p *Printer) printStmt(s Stmt) {
	switch v := s.(type) {
	case *Return:
		p.line("Return")
		p.depth++
		if v.Expr != nil {
			p.printExpr(v.Expr)
		}
		p.depth--
	case *ExprStmt:
		p.line("ExprStmt")
		p.depth++
		p.printExpr(v.Expr)
		p.depth--
	case *If:
		p.line("If")
		p.depth++
		p.printExpr(v.Cond)
		p.printStmt(v.Then)
		if v.Else != nil {
			p.printStmt(v.Else)
		}
		p.depth--
	case *Goto:
		p.line("Goto %s", v.Label)
	case *Labeled:
		p.line("Labeled %s", v.Label)
		p.depth++
		p.printStmt(v.Stmt)
		p.depth--
	case *Compound:
		p.printBlock(v.Body)
	case *Break:
		p.line("Break -> %s", v.Target)
	case *Continue:
		p.line("Continue -> %s", v.Target)
	case *While:
		p.line("While [%s]", v.Label)
		p.depth++
		p.printExpr(v.Cond)
		p.printStmt(v.Body)
		p.depth--
	case *DoWhile:
		p.line("DoWhile [%s]", v.Label)
		p.depth++
		p.printStmt(v.Body)
		p.printExpr(v.Cond)
		p.depth--
	case *For:
		p.line("For [%s]", v.Label)
		p.depth++
		if v.Init.Decl != nil {
			p.printDecl(v.Init.Decl)
		} else if v.Init.Expr != nil {
			p.printExpr(v.Init.Expr)
		}
		if v.Cond != nil {
			p.printExpr(v.Cond)
		}
		if v.Post != nil {
			p.printExpr(v.Post)
		}
		p.printStmt(v.Body)
		p.depth--
	case *Switch:
		p.line("Switch [%s]", v.Label)
		p.depth++
		p.printExpr(v.Expr)
		p.printStmt(v.Body)
		p.depth--
	case *Case:
		p.line("Case [%s]", v.Label)
		p.depth++
		p.printExpr(v.Expr)
		p.printStmt(v.Body)
		p.depth--
	case *Default:
		p.line("Default [%s]", v.Label)
		p.depth++
		p.printStmt(v.Body)
		p.depth--
	case *Null:
		p.line("Null")
	}
}

func (p *Printer) printExpr(e Expr) {
	switch v := e.(type) {
	case *Constant:
		p.line("Constant %d", v.Value())
	case *Variable:
		p.line("Variable %s", v.Name)
	case *Cast:
		p.line("Cast -> %s", v.Target)
		p.depth++
		p.printExpr(v.Inner)
		p.depth--
	case *Unary:
		p.line("Unary %s", v.Op)
		p.depth++
		p.printExpr(v.Inner)
		p.depth--
	case *Binary:
		p.line("Binary %s", v.Op)
		p.depth++
		p.printExpr(v.Lhs)
		p.printExpr(v.Rhs)
		p.depth--
	case *Assignment:
		p.line("Assignment")
		p.depth++
		p.printExpr(v.Lhs)
		p.printExpr(v.Rhs)
		p.depth--
	case *Conditional:
		p.line("Conditional")
		p.depth++
		p.printExpr(v.Cond)
		p.printExpr(v.Then)
		p.printExpr(v.Else)
		p.depth--
	case *FunctionCall:
		p.line("FunctionCall %s", v.FnName)
		p.depth++
		for _, a := range v.Args {
			p.printExpr(a)
		}
		p.depth--
	}
}
