package codegen

import (
	"github.com/adrianmoss/subcc/pkg/asmir"
	"github.com/adrianmoss/subcc/pkg/symtab"
	"github.com/adrianmoss/subcc/pkg/tacky"
)

// Generate runs all three codegen sub-phases in order: instruction
// selection, pseudo-register assignment, and the x86 operand fix-up pass.
func Generate(prog *tacky.Program, table *symtab.Table) *asmir.Program {
	out := Select(prog, table)
	AssignStackSlots(out, table)
	FixUp(out)
	return out
}
