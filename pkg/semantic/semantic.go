// Package semantic runs the four-pass semantic analysis (identifier
// resolution, label resolution, loop/switch labeling, switch-case
// collection) followed by type checking, rewriting the AST in place and
// producing the symbol table consumed by TAC generation.
package semantic

import (
	"github.com/adrianmoss/subcc/pkg/ast"
	"github.com/adrianmoss/subcc/pkg/symtab"
)

// Check runs every pass in order, halting at the first pass that reports
// errors. It returns the populated symbol table only when every pass
// succeeds.
func Check(prog *ast.Program) (*symtab.Table, []error) {
	if errs := resolveIdentifiers(prog); len(errs) > 0 {
		return nil, errs
	}
	if errs := resolveLabels(prog); len(errs) > 0 {
		return nil, errs
	}
	if errs := labelLoopsAndSwitches(prog); len(errs) > 0 {
		return nil, errs
	}
	if errs := collectSwitchCases(prog); len(errs) > 0 {
		return nil, errs
	}
	table, errs := checkTypes(prog)
	if len(errs) > 0 {
		return nil, errs
	}
	return table, nil
}
