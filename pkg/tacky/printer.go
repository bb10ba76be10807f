package tacky

import (
	"fmt"
	"io"
)

// Printer renders a Program in a flat, readable form. The driver does not
// call it: its --tacky stage stops without printing.
type Printer struct {
	w io.Writer
}

// NewPrinter creates a Printer writing to w.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// PrintProgram prints every top-level item in order.
func (p *Printer) PrintProgram(prog *Program) {
	for _, item := range prog.Items {
		switch v := item.(type) {
		case *Function:
			p.printFunction(v)
		case *StaticVariable:
			p.printStatic(v)
		}
	}
}

func (p *Printer) printStatic(s *StaticVariable) {
	linkage := "internal"
	if s.Global {
		linkage = "global"
	}
	fmt.Fprintf(p.w, "var %s %s %s = %d\n", linkage, s.Ty, s.Name, s.Init)
}

func (p *Printer) printFunction(fn *Function) {
	linkage := "internal"
	if fn.Global {
		linkage = "global"
	}
	fmt.Fprintf(p.w, "%s function %s(%v) {\n", linkage, fn.Name, fn.Params)
	for _, inst := range fn.Body {
		p.printInstruction(inst)
	}
	fmt.Fprintln(p.w, "}")
}

func (p *Printer) printInstruction(inst Instruction) {
	switch v := inst.(type) {
	case *Return:
		fmt.Fprintf(p.w, "    Return(%s)\n", p.val(v.Value))
	case *Unary:
		fmt.Fprintf(p.w, "    %s = %s %s\n", p.val(v.Dest), v.Op, p.val(v.Src))
	case *Binary:
		fmt.Fprintf(p.w, "    %s = %s %s %s\n", p.val(v.Dest), p.val(v.Lhs), v.Op, p.val(v.Rhs))
	case *Copy:
		fmt.Fprintf(p.w, "    %s = %s\n", p.val(v.Dest), p.val(v.Src))
	case *Jump:
		fmt.Fprintf(p.w, "    Jump(%s)\n", v.Target)
	case *JumpIfZero:
		fmt.Fprintf(p.w, "    JumpIfZero(%s, %s)\n", p.val(v.Cond), v.Target)
	case *JumpIfNotZero:
		fmt.Fprintf(p.w, "    JumpIfNotZero(%s, %s)\n", p.val(v.Cond), v.Target)
	case *Label:
		fmt.Fprintf(p.w, "  %s:\n", v.Name)
	case *FunctionCall:
		fmt.Fprintf(p.w, "    %s = %s(%s)\n", p.val(v.Dest), v.FnName, p.vals(v.Args))
	}
}

func (p *Printer) val(v Value) string {
	switch x := v.(type) {
	case Constant:
		return fmt.Sprintf("%d", x.Value)
	case Variable:
		return x.Name
	default:
		return "?"
	}
}

func (p *Printer) vals(vs []Value) string {
	out := ""
	for i, v := range vs {
		if i > 0 {
			out += ", "
		}
		out += p.val(v)
	}
	return out
}
