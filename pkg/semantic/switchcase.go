package semantic

import (
	"fmt"

	"github.com/adrianmoss/subcc/pkg/ast"
)

type switchCollector struct {
	counter int
	errs    []error
}

func (r *switchCollector) fail(format string, args ...interface{}) {
	r.errs = append(r.errs, switchErrorf(format, args...))
}

func (r *switchCollector) fresh(suffix string) string {
	r.counter++
	return fmt.Sprintf("SEMANTIC_CASE.%d.%s", r.counter, suffix)
}

// switchCtx is non-nil only while walking the body of a switch statement.
type switchCtx struct {
	sw       *ast.Switch
	seen     map[int64]bool
	sawDflt  bool
}

// collectSwitchCases gathers case/default labels per switch, assigning each
// a fresh jump label and rejecting duplicate values, multiple defaults, and
// case/default appearing outside any switch.
func collectSwitchCases(prog *ast.Program) []error {
	r := &switchCollector{}
	for _, d := range prog.Decls {
		fd, ok := d.(*ast.FunDecl)
		if !ok || fd.Body == nil {
			continue
		}
		r.walkBlock(fd.Body, nil)
	}
	return r.errs
}

func (r *switchCollector) walkBlock(b *ast.Block, ctx *switchCtx) {
	for _, item := range b.Items {
		if s := asStmt(item); s != nil {
			r.walkStmt(s, ctx)
		}
	}
}

func (r *switchCollector) walkStmt(s ast.Stmt, ctx *switchCtx) {
	switch v := s.(type) {
	case *ast.If:
		r.walkStmt(v.Then, ctx)
		if v.Else != nil {
			r.walkStmt(v.Else, ctx)
		}
	case *ast.Compound:
		r.walkBlock(v.Body, ctx)
	case *ast.Labeled:
		r.walkStmt(v.Stmt, ctx)
	case *ast.While:
		r.walkStmt(v.Body, ctx)
	case *ast.DoWhile:
		r.walkStmt(v.Body, ctx)
	case *ast.For:
		r.walkStmt(v.Body, ctx)
	case *ast.Switch:
		inner := &switchCtx{sw: v, seen: make(map[int64]bool)}
		r.walkStmt(v.Body, inner)
	case *ast.Case:
		if ctx == nil {
			r.fail("case label not within a switch statement")
			return
		}
		c, ok := v.Expr.(*ast.Constant)
		if !ok {
			r.fail("case label does not reduce to an integer constant")
			return
		}
		val := c.Value()
		if ctx.seen[val] {
			r.fail("duplicate case value %d", val)
			return
		}
		ctx.seen[val] = true
		v.Label = r.fresh(fmt.Sprintf("case.%d", val))
		ctx.sw.Cases = append(ctx.sw.Cases, ast.CaseLabel{Value: val, Label: v.Label})
		r.walkStmt(v.Body, ctx)
	case *ast.Default:
		if ctx == nil {
			r.fail("default label not within a switch statement")
			return
		}
		if ctx.sawDflt {
			r.fail("multiple default labels in one switch")
			return
		}
		ctx.sawDflt = true
		v.Label = r.fresh("default")
		ctx.sw.Default = true
		ctx.sw.DefaultLabel = v.Label
		r.walkStmt(v.Body, ctx)
	}
}
