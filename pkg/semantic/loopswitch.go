package semantic

import (
	"fmt"

	"github.com/adrianmoss/subcc/pkg/ast"
)

type loopSwitchLabeler struct {
	loopCounter   int
	switchCounter int
	errs          []error
}

func (r *loopSwitchLabeler) fail(format string, args ...interface{}) {
	r.errs = append(r.errs, resolutionErrorf(format, args...))
}

func (r *loopSwitchLabeler) freshLoop(kind ast.LoopKind) string {
	r.loopCounter++
	return fmt.Sprintf("SEMANTIC_LOOP.%d.%s", r.loopCounter, kind)
}

func (r *loopSwitchLabeler) freshSwitch() string {
	r.switchCounter++
	return fmt.Sprintf("SEMANTIC_SWITCH.%d", r.switchCounter)
}

// enclosing tracks the nearest break target (loop or switch) and the
// nearest continue target (always a loop); a switch shadows the former but
// never the latter.
type enclosing struct {
	breakTarget    string
	hasBreak       bool
	continueTarget string
	hasContinue    bool
}

// labelLoopsAndSwitches assigns synthetic labels to every loop and switch
// and resolves break/continue to their nearest enclosing target.
func labelLoopsAndSwitches(prog *ast.Program) []error {
	r := &loopSwitchLabeler{}
	for _, d := range prog.Decls {
		fd, ok := d.(*ast.FunDecl)
		if !ok || fd.Body == nil {
			continue
		}
		r.walkBlock(fd.Body, enclosing{})
	}
	return r.errs
}

func (r *loopSwitchLabeler) walkBlock(b *ast.Block, enc enclosing) {
	for _, item := range b.Items {
		if s := asStmt(item); s != nil {
			r.walkStmt(s, enc)
		}
	}
}

func (r *loopSwitchLabeler) walkStmt(s ast.Stmt, enc enclosing) {
	switch v := s.(type) {
	case *ast.If:
		r.walkStmt(v.Then, enc)
		if v.Else != nil {
			r.walkStmt(v.Else, enc)
		}
	case *ast.Compound:
		r.walkBlock(v.Body, enc)
	case *ast.Labeled:
		r.walkStmt(v.Stmt, enc)
	case *ast.While:
		v.Label = r.freshLoop(ast.LoopWhile)
		inner := enclosing{breakTarget: v.Label, hasBreak: true, continueTarget: v.Label, hasContinue: true}
		r.walkStmt(v.Body, inner)
	case *ast.DoWhile:
		v.Label = r.freshLoop(ast.LoopDoWhile)
		inner := enclosing{breakTarget: v.Label, hasBreak: true, continueTarget: v.Label, hasContinue: true}
		r.walkStmt(v.Body, inner)
	case *ast.For:
		v.Label = r.freshLoop(ast.LoopFor)
		inner := enclosing{breakTarget: v.Label, hasBreak: true, continueTarget: v.Label, hasContinue: true}
		r.walkStmt(v.Body, inner)
	case *ast.Switch:
		v.Label = r.freshSwitch()
		// A switch shadows the break target but leaves continue pointing
		// at whatever loop already enclosed it.
		inner := enclosing{breakTarget: v.Label, hasBreak: true, continueTarget: enc.continueTarget, hasContinue: enc.hasContinue}
		r.walkStmt(v.Body, inner)
	case *ast.Case:
		r.walkStmt(v.Body, enc)
	case *ast.Default:
		r.walkStmt(v.Body, enc)
	case *ast.Break:
		if !enc.hasBreak {
			r.fail("break statement not within a loop or switch")
			return
		}
		v.Target = enc.breakTarget
	case *ast.Continue:
		if !enc.hasContinue {
			r.fail("continue statement not within a loop")
			return
		}
		v.Target = enc.continueTarget
	}
}
