// Package tackygen lowers a type-checked AST into the tacky three-address
// code representation, by a postorder traversal over expressions that
// emits instructions into a growing list and returns a value handle.
package tackygen

import (
	"fmt"

	"github.com/adrianmoss/subcc/pkg/ast"
	"github.com/adrianmoss/subcc/pkg/symtab"
	"github.com/adrianmoss/subcc/pkg/tacky"
)

type emitter struct {
	table        *symtab.Table
	varCounter   int
	labelCounter int
	code         []tacky.Instruction
}

func (e *emitter) emit(inst tacky.Instruction) {
	e.code = append(e.code, inst)
}

func (e *emitter) freshVar(ty ast.Type) tacky.Variable {
	e.varCounter++
	return tacky.Variable{Name: fmt.Sprintf("TAC_VAR.%d", e.varCounter), Ty: ty}
}

func (e *emitter) freshLabel(tag string) string {
	e.labelCounter++
	return fmt.Sprintf("TAC_LABEL.%d.%s", e.labelCounter, tag)
}

// Generate lowers an entire type-checked program to a tacky.Program.
func Generate(prog *ast.Program, table *symtab.Table) *tacky.Program {
	out := &tacky.Program{}
	for _, d := range prog.Decls {
		if fd, ok := d.(*ast.FunDecl); ok && fd.Body != nil {
			out.Items = append(out.Items, generateFunction(fd, table))
		}
	}
	for _, name := range table.Names() {
		entry, _ := table.Get(name)
		attrs, ok := entry.Attrs.(symtab.StaticAttrs)
		if !ok {
			continue
		}
		switch attrs.Init {
		case symtab.Tentative:
			out.Items = append(out.Items, &tacky.StaticVariable{Name: name, Global: attrs.Global, Ty: entry.Type, Init: 0})
		case symtab.Initial:
			out.Items = append(out.Items, &tacky.StaticVariable{Name: name, Global: attrs.Global, Ty: entry.Type, Init: attrs.Value.Value})
		case symtab.NoInitializer:
			// contributes nothing; it is only an alias for a definition elsewhere
		}
	}
	return out
}

func generateFunction(fd *ast.FunDecl, table *symtab.Table) *tacky.Function {
	e := &emitter{table: table}
	params := make([]string, len(fd.Params))
	for i, p := range fd.Params {
		params[i] = p.Name
	}
	e.generateBlock(fd.Body)
	e.emit(&tacky.Return{Value: tacky.Constant{Value: 0}})

	global := true
	if entry, ok := table.Get(fd.Name); ok {
		if attrs, ok := entry.Attrs.(symtab.FunAttrs); ok {
			global = attrs.Global
		}
	}
	return &tacky.Function{Name: fd.Name, Global: global, Params: params, Body: e.code}
}

func (e *emitter) generateBlock(b *ast.Block) {
	for _, item := range b.Items {
		switch v := item.(type) {
		case *ast.VarDecl:
			e.generateLocalVarDecl(v)
		case *ast.FunDecl:
			// nested declaration without a body; nothing to lower
		case ast.Stmt:
			e.generateStmt(v)
		}
	}
}

func (e *emitter) generateLocalVarDecl(v *ast.VarDecl) {
	if v.Storage != ast.StorageNone {
		// static/extern locals are lowered as StaticVariable top-level items
		return
	}
	if v.Init == nil {
		return
	}
	rhs := e.generateExpr(v.Init)
	e.emit(&tacky.Copy{Src: rhs, Dest: tacky.Variable{Name: v.Name, Ty: v.Ty}})
}

func (e *emitter) generateStmt(s ast.Stmt) {
	switch v := s.(type) {
	case *ast.Return:
		var val tacky.Value = tacky.Constant{Value: 0}
		if v.Expr != nil {
			val = e.generateExpr(v.Expr)
		}
		e.emit(&tacky.Return{Value: val})
	case *ast.ExprStmt:
		e.generateExpr(v.Expr)
	case *ast.If:
		e.generateIf(v)
	case *ast.Goto:
		e.emit(&tacky.Jump{Target: v.Label})
	case *ast.Labeled:
		e.emit(&tacky.Label{Name: v.Label})
		e.generateStmt(v.Stmt)
	case *ast.Compound:
		e.generateBlock(v.Body)
	case *ast.Break:
		e.emit(&tacky.Jump{Target: v.Target + ".break"})
	case *ast.Continue:
		e.emit(&tacky.Jump{Target: v.Target + ".continue"})
	case *ast.While:
		e.generateWhile(v)
	case *ast.DoWhile:
		e.generateDoWhile(v)
	case *ast.For:
		e.generateFor(v)
	case *ast.Switch:
		e.generateSwitch(v)
	case *ast.Case:
		e.emit(&tacky.Label{Name: v.Label})
		e.generateStmt(v.Body)
	case *ast.Default:
		e.emit(&tacky.Label{Name: v.Label})
		e.generateStmt(v.Body)
	case *ast.Null:
		// no-op
	}
}

func (e *emitter) generateIf(v *ast.If) {
	cond := e.generateExpr(v.Cond)
	if v.Else == nil {
		end := e.freshLabel("if_end")
		e.emit(&tacky.JumpIfZero{Cond: cond, Target: end})
		e.generateStmt(v.Then)
		e.emit(&tacky.Label{Name: end})
		return
	}
	elseLabel := e.freshLabel("if_else")
	end := e.freshLabel("if_end")
	e.emit(&tacky.JumpIfZero{Cond: cond, Target: elseLabel})
	e.generateStmt(v.Then)
	e.emit(&tacky.Jump{Target: end})
	e.emit(&tacky.Label{Name: elseLabel})
	e.generateStmt(v.Else)
	e.emit(&tacky.Label{Name: end})
}

func (e *emitter) generateWhile(v *ast.While) {
	contLabel := v.Label + ".continue"
	breakLabel := v.Label + ".break"
	e.emit(&tacky.Label{Name: contLabel})
	cond := e.generateExpr(v.Cond)
	e.emit(&tacky.JumpIfZero{Cond: cond, Target: breakLabel})
	e.generateStmt(v.Body)
	e.emit(&tacky.Jump{Target: contLabel})
	e.emit(&tacky.Label{Name: breakLabel})
}

func (e *emitter) generateDoWhile(v *ast.DoWhile) {
	start := e.freshLabel("do_start")
	contLabel := v.Label + ".continue"
	breakLabel := v.Label + ".break"
	e.emit(&tacky.Label{Name: start})
	e.generateStmt(v.Body)
	e.emit(&tacky.Label{Name: contLabel})
	cond := e.generateExpr(v.Cond)
	e.emit(&tacky.JumpIfNotZero{Cond: cond, Target: start})
	e.emit(&tacky.Label{Name: breakLabel})
}

func (e *emitter) generateFor(v *ast.For) {
	if v.Init.Decl != nil {
		e.generateLocalVarDecl(v.Init.Decl)
	} else if v.Init.Expr != nil {
		e.generateExpr(v.Init.Expr)
	}
	start := e.freshLabel("for_start")
	contLabel := v.Label + ".continue"
	breakLabel := v.Label + ".break"
	e.emit(&tacky.Label{Name: start})
	if v.Cond != nil {
		cond := e.generateExpr(v.Cond)
		e.emit(&tacky.JumpIfZero{Cond: cond, Target: breakLabel})
	}
	e.generateStmt(v.Body)
	e.emit(&tacky.Label{Name: contLabel})
	if v.Post != nil {
		e.generateExpr(v.Post)
	}
	e.emit(&tacky.Jump{Target: start})
	e.emit(&tacky.Label{Name: breakLabel})
}

func (e *emitter) generateSwitch(v *ast.Switch) {
	selector := e.generateExpr(v.Expr)
	breakLabel := v.Label + ".break"
	for _, c := range v.Cases {
		var cv tacky.Value
		if ast.IsLong(v.Expr.Type()) {
			cv = tacky.Constant{IsLong: true, Value: c.Value}
		} else {
			cv = tacky.Constant{Value: c.Value}
		}
		eq := e.freshVar(ast.IntType{})
		e.emit(&tacky.Binary{Op: ast.OpEqual, Lhs: selector, Rhs: cv, Dest: eq})
		e.emit(&tacky.JumpIfNotZero{Cond: eq, Target: c.Label})
	}
	if v.Default {
		e.emit(&tacky.Jump{Target: v.DefaultLabel})
	} else {
		e.emit(&tacky.Jump{Target: breakLabel})
	}
	e.generateStmt(v.Body)
	e.emit(&tacky.Label{Name: breakLabel})
}
