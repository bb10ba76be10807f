package codegen

import (
	"github.com/adrianmoss/subcc/pkg/asmir"
	"github.com/adrianmoss/subcc/pkg/symtab"
)

// AssignStackSlots rewrites every Pseudo operand in prog: names that the
// symbol table marks as static become Data operands; everything else is
// assigned a stack slot at -4*(n+1)(%rbp), -8 aligned for Long-width
// values, reusing the slot on repeat occurrences. An AllocateStack is
// prepended to each function with the function's total frame size rounded
// up to 16 bytes.
func AssignStackSlots(prog *asmir.Program, table *symtab.Table) {
	for _, item := range prog.Items {
		fn, ok := item.(*asmir.Function)
		if !ok {
			continue
		}
		assignFunction(fn, table)
	}
}

type slotAssigner struct {
	table  *symtab.Table
	slots  map[string]int64
	offset int64
}

func assignFunction(fn *asmir.Function, table *symtab.Table) {
	a := &slotAssigner{table: table, slots: make(map[string]int64)}
	for i, inst := range fn.Body {
		fn.Body[i] = a.rewriteInstruction(inst)
	}
	size := alignUp(-a.offset, 16)
	fn.Body = append([]asmir.Instruction{&asmir.AllocateStack{Bytes: size}}, fn.Body...)
}

func alignUp(n, align int64) int64 {
	if n <= 0 {
		return 0
	}
	return (n + align - 1) / align * align
}

func (a *slotAssigner) rewriteOperand(op asmir.Operand) asmir.Operand {
	p, ok := op.(asmir.Pseudo)
	if !ok {
		return op
	}
	if a.table.IsStatic(p.Name) {
		return asmir.Data{Name: p.Name}
	}
	if off, ok := a.slots[p.Name]; ok {
		return asmir.Stack{Offset: off}
	}
	width := int64(4)
	if p.Ty != nil && p.Ty.String() == "long" {
		width = 8
	}
	a.offset = roundToMultiple(a.offset-width, width)
	a.slots[p.Name] = a.offset
	return asmir.Stack{Offset: a.offset}
}

// roundToMultiple rounds n down (more negative) to the nearest multiple of
// width, so a Long-width slot never straddles a non-aligned offset.
func roundToMultiple(n, width int64) int64 {
	if n%width == 0 {
		return n
	}
	if n < 0 {
		return n - width - (n % width)
	}
	return n - n%width
}

func (a *slotAssigner) rewriteInstruction(inst asmir.Instruction) asmir.Instruction {
	switch v := inst.(type) {
	case *asmir.Mov:
		v.Src = a.rewriteOperand(v.Src)
		v.Dst = a.rewriteOperand(v.Dst)
	case *asmir.Unary:
		v.Dst = a.rewriteOperand(v.Dst)
	case *asmir.Binary:
		v.Src = a.rewriteOperand(v.Src)
		v.Dst = a.rewriteOperand(v.Dst)
	case *asmir.Cmp:
		v.Src = a.rewriteOperand(v.Src)
		v.Dst = a.rewriteOperand(v.Dst)
	case *asmir.Idiv:
		v.Src = a.rewriteOperand(v.Src)
	case *asmir.Sal:
		v.Dst = a.rewriteOperand(v.Dst)
	case *asmir.Sar:
		v.Dst = a.rewriteOperand(v.Dst)
	case *asmir.SetCC:
		v.Dst = a.rewriteOperand(v.Dst)
	case *asmir.Push:
		v.Src = a.rewriteOperand(v.Src)
	}
	return inst
}
