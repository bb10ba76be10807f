package asm

import (
	"strings"
	"testing"

	"github.com/adrianmoss/subcc/pkg/asmir"
)

func printed(t *testing.T, prog *asmir.Program) string {
	t.Helper()
	var sb strings.Builder
	p := &Printer{w: &sb, isDarwin: true}
	p.PrintProgram(prog)
	return sb.String()
}

func TestPrintFunctionPrologueAndEpilogue(t *testing.T) {
	prog := &asmir.Program{Items: []asmir.TopLevel{
		&asmir.Function{Name: "main", Global: true, Body: []asmir.Instruction{
			&asmir.Mov{Src: asmir.Imm{Value: 2}, Dst: asmir.Register{Reg: asmir.AX}},
			&asmir.Ret{},
		}},
	}}
	out := printed(t, prog)
	for _, want := range []string{
		"\t.globl _main\n",
		"_main:\n",
		"\tpushq %rbp\n",
		"\tmovq %rsp, %rbp\n",
		"\tmovl $2, %eax\n",
		"\tmovq %rbp, %rsp\n",
		"\tpopq %rbp\n",
		"\tret\n",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q, got:\n%s", want, out)
		}
	}
}

func TestPrintStaticNonZeroUsesDataAndLong(t *testing.T) {
	prog := &asmir.Program{Items: []asmir.TopLevel{
		&asmir.StaticVariable{Name: "g", Global: true, Init: 7},
	}}
	out := printed(t, prog)
	if !strings.Contains(out, "\t.data\n") {
		t.Fatalf("expected .data section, got:\n%s", out)
	}
	if !strings.Contains(out, "\t.long 7\n") {
		t.Fatalf("expected .long 7, got:\n%s", out)
	}
}

func TestPrintStaticZeroUsesBssAndZero(t *testing.T) {
	prog := &asmir.Program{Items: []asmir.TopLevel{
		&asmir.StaticVariable{Name: "g", Global: false},
	}}
	out := printed(t, prog)
	if !strings.Contains(out, "\t.bss\n") {
		t.Fatalf("expected .bss section, got:\n%s", out)
	}
	if !strings.Contains(out, "\t.zero 4\n") {
		t.Fatalf("expected .zero 4, got:\n%s", out)
	}
	if strings.Contains(out, ".globl") {
		t.Fatalf("non-global static should not emit .globl, got:\n%s", out)
	}
}

func TestPrintLongStaticUsesQuadAndEightByteZero(t *testing.T) {
	prog := &asmir.Program{Items: []asmir.TopLevel{
		&asmir.StaticVariable{Name: "g", Long: true, Init: 9},
	}}
	out := printed(t, prog)
	if !strings.Contains(out, "\t.quad 9\n") {
		t.Fatalf("expected .quad 9, got:\n%s", out)
	}
}

func TestPrintJumpAndLabel(t *testing.T) {
	prog := &asmir.Program{Items: []asmir.TopLevel{
		&asmir.Function{Name: "f", Body: []asmir.Instruction{
			&asmir.Jmp{Target: "end"},
			&asmir.LabelIns{Name: "end"},
			&asmir.Ret{},
		}},
	}}
	out := printed(t, prog)
	if !strings.Contains(out, "\tjmp Lend\n") {
		t.Fatalf("expected jmp Lend, got:\n%s", out)
	}
	if !strings.Contains(out, "Lend:\n") {
		t.Fatalf("expected Lend: label, got:\n%s", out)
	}
}

func TestPrintSetCCUsesByteRegister(t *testing.T) {
	prog := &asmir.Program{Items: []asmir.TopLevel{
		&asmir.Function{Name: "f", Body: []asmir.Instruction{
			&asmir.SetCC{Cond: asmir.E, Dst: asmir.Register{Reg: asmir.AX}},
			&asmir.Ret{},
		}},
	}}
	out := printed(t, prog)
	if !strings.Contains(out, "\tsete %al\n") {
		t.Fatalf("expected sete %%al, got:\n%s", out)
	}
}

func TestPrintStackAndDataOperands(t *testing.T) {
	prog := &asmir.Program{Items: []asmir.TopLevel{
		&asmir.Function{Name: "f", Body: []asmir.Instruction{
			&asmir.Mov{Src: asmir.Stack{Offset: -4}, Dst: asmir.Data{Name: "g"}},
			&asmir.Ret{},
		}},
	}}
	out := printed(t, prog)
	if !strings.Contains(out, "\tmovl -4(%rbp), _g(%rip)\n") {
		t.Fatalf("expected stack/data operand rendering, got:\n%s", out)
	}
}

func TestPrintAllocateStackEmitsSubq(t *testing.T) {
	prog := &asmir.Program{Items: []asmir.TopLevel{
		&asmir.Function{Name: "f", Body: []asmir.Instruction{
			&asmir.AllocateStack{Bytes: 16},
			&asmir.Ret{},
		}},
	}}
	out := printed(t, prog)
	if !strings.Contains(out, "\tsubq $16, %rsp\n") {
		t.Fatalf("expected subq $16, %%rsp, got:\n%s", out)
	}
}

func TestPrintCallSymbolPrefixed(t *testing.T) {
	prog := &asmir.Program{Items: []asmir.TopLevel{
		&asmir.Function{Name: "f", Body: []asmir.Instruction{
			&asmir.Call{Target: "helper"},
			&asmir.Ret{},
		}},
	}}
	out := printed(t, prog)
	if !strings.Contains(out, "\tcall _helper\n") {
		t.Fatalf("expected call _helper, got:\n%s", out)
	}
}
