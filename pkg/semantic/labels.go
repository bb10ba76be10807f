package semantic

import (
	"fmt"

	"github.com/adrianmoss/subcc/pkg/ast"
)

type labelResolver struct {
	counter int
	errs    []error
}

func (r *labelResolver) fail(format string, args ...interface{}) {
	r.errs = append(r.errs, resolutionErrorf(format, args...))
}

func (r *labelResolver) fresh(original string) string {
	r.counter++
	return fmt.Sprintf("SEMANTIC_LABEL.%d.%s", r.counter, original)
}

// resolveLabels performs the two-phase goto/label rewrite, function by
// function: phase 1 renames every Labeled statement, phase 2 rewrites every
// Goto to the renamed target.
func resolveLabels(prog *ast.Program) []error {
	r := &labelResolver{}
	for _, d := range prog.Decls {
		fd, ok := d.(*ast.FunDecl)
		if !ok || fd.Body == nil {
			continue
		}
		mapping := make(map[string]string)
		r.renamePass(fd.Body, mapping)
		r.gotoPass(fd.Body, mapping)
	}
	return r.errs
}

func (r *labelResolver) renamePass(b *ast.Block, mapping map[string]string) {
	for _, item := range b.Items {
		r.renameStmtPass(asStmt(item), mapping)
	}
}

func (r *labelResolver) renameStmtPass(s ast.Stmt, mapping map[string]string) {
	if s == nil {
		return
	}
	switch v := s.(type) {
	case *ast.Labeled:
		if _, dup := mapping[v.Label]; dup {
			r.fail("duplicate label %q", v.Label)
		} else {
			mapping[v.Label] = r.fresh(v.Label)
		}
		r.renameStmtPass(v.Stmt, mapping)
	case *ast.Compound:
		r.renamePass(v.Body, mapping)
	case *ast.If:
		r.renameStmtPass(v.Then, mapping)
		r.renameStmtPass(v.Else, mapping)
	case *ast.While:
		r.renameStmtPass(v.Body, mapping)
	case *ast.DoWhile:
		r.renameStmtPass(v.Body, mapping)
	case *ast.For:
		r.renameStmtPass(v.Body, mapping)
	case *ast.Switch:
		r.renameStmtPass(v.Body, mapping)
	case *ast.Case:
		r.renameStmtPass(v.Body, mapping)
	case *ast.Default:
		r.renameStmtPass(v.Body, mapping)
	}
}

func (r *labelResolver) gotoPass(b *ast.Block, mapping map[string]string) {
	for _, item := range b.Items {
		r.gotoStmtPass(asStmt(item), mapping)
	}
}

func (r *labelResolver) gotoStmtPass(s ast.Stmt, mapping map[string]string) {
	if s == nil {
		return
	}
	switch v := s.(type) {
	case *ast.Goto:
		renamed, ok := mapping[v.Label]
		if !ok {
			r.fail("goto to undeclared label %q", v.Label)
			return
		}
		v.Label = renamed
	case *ast.Labeled:
		renamed, ok := mapping[v.Label]
		if ok {
			v.Label = renamed
		}
		r.gotoStmtPass(v.Stmt, mapping)
	case *ast.Compound:
		r.gotoPass(v.Body, mapping)
	case *ast.If:
		r.gotoStmtPass(v.Then, mapping)
		r.gotoStmtPass(v.Else, mapping)
	case *ast.While:
		r.gotoStmtPass(v.Body, mapping)
	case *ast.DoWhile:
		r.gotoStmtPass(v.Body, mapping)
	case *ast.For:
		r.gotoStmtPass(v.Body, mapping)
	case *ast.Switch:
		r.gotoStmtPass(v.Body, mapping)
	case *ast.Case:
		r.gotoStmtPass(v.Body, mapping)
	case *ast.Default:
		r.gotoStmtPass(v.Body, mapping)
	}
}

// asStmt extracts the Stmt side of a BlockItem, or nil if it is a Decl.
func asStmt(item ast.BlockItem) ast.Stmt {
	if s, ok := item.(ast.Stmt); ok {
		return s
	}
	return nil
}
