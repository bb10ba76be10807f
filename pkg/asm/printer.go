// Package asm prints the machine IR as GAS-syntax x86-64 assembler text.
// Conversion is stateless: the printer holds no state beyond the output
// writer and whether the target is Darwin (macOS), which only affects
// symbol prefixing and whether the trailing GNU-stack note is emitted.
package asm

import (
	"fmt"
	"io"
	"runtime"

	"github.com/adrianmoss/subcc/pkg/asmir"
)

// Printer renders an asmir.Program as assembler text.
type Printer struct {
	w        io.Writer
	isDarwin bool
}

// NewPrinter returns a Printer that prefixes symbols with an underscore
// when running on macOS, matching the host toolchain's convention.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w, isDarwin: runtime.GOOS == "darwin"}
}

func (p *Printer) symbolName(name string) string {
	if p.isDarwin {
		return "_" + name
	}
	return name
}

// PrintProgram writes every top-level item in prog.Items order, then an
// ELF-only trailer. Darwin binaries need no GNU-stack note.
func (p *Printer) PrintProgram(prog *asmir.Program) {
	for _, item := range prog.Items {
		switch v := item.(type) {
		case *asmir.Function:
			p.printFunction(v)
		case *asmir.StaticVariable:
			p.printStatic(v)
		}
	}
	if !p.isDarwin {
		fmt.Fprintln(p.w, "\t.section .note.GNU-stack,\"\",@progbits")
	}
}

func (p *Printer) printStatic(v *asmir.StaticVariable) {
	if v.Init == 0 {
		fmt.Fprintln(p.w, "\t.bss")
	} else {
		fmt.Fprintln(p.w, "\t.data")
	}
	if v.Global {
		fmt.Fprintf(p.w, "\t.globl %s\n", p.symbolName(v.Name))
	}
	fmt.Fprintln(p.w, "\t.balign 4")
	fmt.Fprintf(p.w, "%s:\n", p.symbolName(v.Name))
	if v.Init == 0 {
		size := 4
		if v.Long {
			size = 8
		}
		fmt.Fprintf(p.w, "\t.zero %d\n", size)
		return
	}
	if v.Long {
		fmt.Fprintf(p.w, "\t.quad %d\n", v.Init)
	} else {
		fmt.Fprintf(p.w, "\t.long %d\n", v.Init)
	}
}

func (p *Printer) printFunction(fn *asmir.Function) {
	fmt.Fprintln(p.w, "\t.text")
	if fn.Global {
		fmt.Fprintf(p.w, "\t.globl %s\n", p.symbolName(fn.Name))
	}
	fmt.Fprintf(p.w, "%s:\n", p.symbolName(fn.Name))
	fmt.Fprintln(p.w, "\tpushq %rbp")
	fmt.Fprintln(p.w, "\tmovq %rsp, %rbp")
	for _, inst := range fn.Body {
		p.printInstruction(inst)
	}
}

func regName(r asmir.Reg, long bool) string {
	if long {
		names := map[asmir.Reg]string{
			asmir.AX: "%rax", asmir.CX: "%rcx", asmir.DX: "%rdx",
			asmir.DI: "%rdi", asmir.SI: "%rsi",
			asmir.R8: "%r8", asmir.R9: "%r9", asmir.R10: "%r10", asmir.R11: "%r11",
		}
		return names[r]
	}
	names := map[asmir.Reg]string{
		asmir.AX: "%eax", asmir.CX: "%ecx", asmir.DX: "%edx",
		asmir.DI: "%edi", asmir.SI: "%esi",
		asmir.R8: "%r8d", asmir.R9: "%r9d", asmir.R10: "%r10d", asmir.R11: "%r11d",
	}
	return names[r]
}

func regByte(r asmir.Reg) string {
	names := map[asmir.Reg]string{
		asmir.AX: "%al", asmir.CX: "%cl", asmir.DX: "%dl",
		asmir.DI: "%dil", asmir.SI: "%sil",
		asmir.R8: "%r8b", asmir.R9: "%r9b", asmir.R10: "%r10b", asmir.R11: "%r11b",
	}
	return names[r]
}

func (p *Printer) operand(op asmir.Operand, long bool) string {
	switch v := op.(type) {
	case asmir.Imm:
		return fmt.Sprintf("$%d", v.Value)
	case asmir.Register:
		return regName(v.Reg, long)
	case asmir.Stack:
		return fmt.Sprintf("%d(%%rbp)", v.Offset)
	case asmir.Data:
		return fmt.Sprintf("%s(%%rip)", p.symbolName(v.Name))
	default:
		return "?"
	}
}

func (p *Printer) operandByte(op asmir.Operand) string {
	switch v := op.(type) {
	case asmir.Register:
		return regByte(v.Reg)
	default:
		return p.operand(op, false)
	}
}

func condSuffix(c asmir.CondCode) string {
	switch c {
	case asmir.E:
		return "e"
	case asmir.NE:
		return "ne"
	case asmir.L:
		return "l"
	case asmir.LE:
		return "le"
	case asmir.G:
		return "g"
	case asmir.GE:
		return "ge"
	default:
		return "e"
	}
}

func (p *Printer) printInstruction(inst asmir.Instruction) {
	switch v := inst.(type) {
	case *asmir.Mov:
		mnem := "movl"
		if v.Long {
			mnem = "movq"
		}
		fmt.Fprintf(p.w, "\t%s %s, %s\n", mnem, p.operand(v.Src, v.Long), p.operand(v.Dst, v.Long))
	case *asmir.Unary:
		mnem := "negl"
		if v.Op == asmir.Not {
			mnem = "notl"
		}
		fmt.Fprintf(p.w, "\t%s %s\n", mnem, p.operand(v.Dst, false))
	case *asmir.Binary:
		fmt.Fprintf(p.w, "\t%s %s, %s\n", binaryMnem(v.Op), p.operand(v.Src, false), p.operand(v.Dst, false))
	case *asmir.Cmp:
		fmt.Fprintf(p.w, "\tcmpl %s, %s\n", p.operand(v.Src, false), p.operand(v.Dst, false))
	case *asmir.Idiv:
		fmt.Fprintf(p.w, "\tidivl %s\n", p.operand(v.Src, false))
	case *asmir.Cdq:
		fmt.Fprintln(p.w, "\tcdq")
	case *asmir.Sal:
		fmt.Fprintf(p.w, "\tsall %%cl, %s\n", p.operand(v.Dst, false))
	case *asmir.Sar:
		fmt.Fprintf(p.w, "\tsarl %%cl, %s\n", p.operand(v.Dst, false))
	case *asmir.Jmp:
		fmt.Fprintf(p.w, "\tjmp L%s\n", v.Target)
	case *asmir.JmpCC:
		fmt.Fprintf(p.w, "\tj%s L%s\n", condSuffix(v.Cond), v.Target)
	case *asmir.SetCC:
		fmt.Fprintf(p.w, "\tset%s %s\n", condSuffix(v.Cond), p.operandByte(v.Dst))
	case *asmir.LabelIns:
		fmt.Fprintf(p.w, "L%s:\n", v.Name)
	case *asmir.AllocateStack:
		if v.Bytes != 0 {
			fmt.Fprintf(p.w, "\tsubq $%d, %%rsp\n", v.Bytes)
		}
	case *asmir.DeallocateStack:
		if v.Bytes != 0 {
			fmt.Fprintf(p.w, "\taddq $%d, %%rsp\n", v.Bytes)
		}
	case *asmir.Push:
		fmt.Fprintf(p.w, "\tpushq %s\n", p.operand(v.Src, true))
	case *asmir.Call:
		fmt.Fprintf(p.w, "\tcall %s\n", p.symbolName(v.Target))
	case *asmir.Ret:
		fmt.Fprintln(p.w, "\tmovq %rbp, %rsp")
		fmt.Fprintln(p.w, "\tpopq %rbp")
		fmt.Fprintln(p.w, "\tret")
	}
}

func binaryMnem(op asmir.BinaryOp) string {
	switch op {
	case asmir.Add:
		return "addl"
	case asmir.Sub:
		return "subl"
	case asmir.Mult:
		return "imull"
	case asmir.And:
		return "andl"
	case asmir.Or:
		return "orl"
	case asmir.Xor:
		return "xorl"
	default:
		return "addl"
	}
}
