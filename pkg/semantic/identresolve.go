package semantic

import (
	"fmt"

	"github.com/adrianmoss/subcc/pkg/ast"
)

// identEntry records where an identifier currently resolves to and whether
// that resolution survives into a nested block.
type identEntry struct {
	newName          string
	fromCurrentScope bool
	hasLinkage       bool
}

type identScope map[string]identEntry

// clone copies the map and clears fromCurrentScope on every entry, so a
// nested block may shadow freely while still seeing outer linkage.
func (s identScope) clone() identScope {
	out := make(identScope, len(s))
	for k, v := range s {
		v.fromCurrentScope = false
		out[k] = v
	}
	return out
}

type identResolver struct {
	varCounter int
	errs       []error
}

func (r *identResolver) fail(format string, args ...interface{}) {
	r.errs = append(r.errs, resolutionErrorf(format, args...))
}

func (r *identResolver) freshVar(original string) string {
	r.varCounter++
	return fmt.Sprintf("SEMANTIC_VAR.%d.%s", r.varCounter, original)
}

// resolveIdentifiers alpha-renames every variable to a globally unique
// name while enforcing C scoping and linkage rules.
func resolveIdentifiers(prog *ast.Program) []error {
	r := &identResolver{}
	fileScope := make(identScope)

	for _, d := range prog.Decls {
		switch v := d.(type) {
		case *ast.VarDecl:
			r.resolveFileVarDecl(v, fileScope)
		case *ast.FunDecl:
			r.resolveFileFunDecl(v, fileScope)
		}
	}
	return r.errs
}

func (r *identResolver) resolveFileVarDecl(v *ast.VarDecl, scope identScope) {
	if existing, ok := scope[v.Name]; ok && existing.fromCurrentScope && !existing.hasLinkage {
		r.fail("duplicate declaration of %q in file scope", v.Name)
		return
	}
	scope[v.Name] = identEntry{newName: v.Name, fromCurrentScope: true, hasLinkage: true}
	if v.Init != nil {
		r.resolveExpr(v.Init, scope)
	}
}

func (r *identResolver) resolveFileFunDecl(f *ast.FunDecl, scope identScope) {
	scope[f.Name] = identEntry{newName: f.Name, fromCurrentScope: true, hasLinkage: true}
	if f.Body == nil {
		return
	}
	fnScope := scope.clone()
	seen := make(map[string]bool, len(f.Params))
	for i := range f.Params {
		p := &f.Params[i]
		if seen[p.Name] {
			r.fail("duplicate parameter name %q", p.Name)
			continue
		}
		seen[p.Name] = true
		fresh := r.freshVar(p.Name)
		fnScope[p.Name] = identEntry{newName: fresh, fromCurrentScope: true, hasLinkage: false}
		p.Name = fresh
	}
	r.resolveBlock(f.Body, fnScope)
}

func (r *identResolver) resolveBlock(b *ast.Block, scope identScope) {
	for _, item := range b.Items {
		switch v := item.(type) {
		case *ast.VarDecl:
			r.resolveBlockVarDecl(v, scope)
		case *ast.FunDecl:
			r.resolveBlockFunDecl(v, scope)
		case ast.Stmt:
			r.resolveStmt(v, scope)
		}
	}
}

func (r *identResolver) resolveBlockVarDecl(v *ast.VarDecl, scope identScope) {
	if existing, ok := scope[v.Name]; ok && existing.fromCurrentScope {
		if !(existing.hasLinkage && v.Storage == ast.StorageExtern) {
			r.fail("duplicate declaration of %q in the same scope", v.Name)
			return
		}
	}

	if v.Storage == ast.StorageExtern {
		if v.Init != nil {
			r.fail("extern declaration of %q may not have an initializer", v.Name)
		}
		scope[v.Name] = identEntry{newName: v.Name, fromCurrentScope: true, hasLinkage: true}
		return
	}

	fresh := r.freshVar(v.Name)
	scope[v.Name] = identEntry{newName: fresh, fromCurrentScope: true, hasLinkage: false}
	v.Name = fresh
	if v.Init != nil {
		r.resolveExpr(v.Init, scope)
	}
}

func (r *identResolver) resolveBlockFunDecl(f *ast.FunDecl, scope identScope) {
	if f.Storage == ast.StorageStatic {
		r.fail("block-scope function declaration %q may not be static", f.Name)
	}
	if f.Body != nil {
		r.fail("block-scope function declaration %q may not have a body", f.Name)
	}
	scope[f.Name] = identEntry{newName: f.Name, fromCurrentScope: true, hasLinkage: true}
}

func (r *identResolver) resolveStmt(s ast.Stmt, scope identScope) {
	switch v := s.(type) {
	case *ast.Return:
		if v.Expr != nil {
			r.resolveExpr(v.Expr, scope)
		}
	case *ast.ExprStmt:
		r.resolveExpr(v.Expr, scope)
	case *ast.If:
		r.resolveExpr(v.Cond, scope)
		r.resolveStmt(v.Then, scope)
		if v.Else != nil {
			r.resolveStmt(v.Else, scope)
		}
	case *ast.Compound:
		r.resolveBlock(v.Body, scope.clone())
	case *ast.Labeled:
		r.resolveStmt(v.Stmt, scope)
	case *ast.While:
		r.resolveExpr(v.Cond, scope)
		r.resolveStmt(v.Body, scope)
	case *ast.DoWhile:
		r.resolveStmt(v.Body, scope)
		r.resolveExpr(v.Cond, scope)
	case *ast.For:
		loopScope := scope.clone()
		if v.Init.Decl != nil {
			r.resolveBlockVarDecl(v.Init.Decl, loopScope)
		} else if v.Init.Expr != nil {
			r.resolveExpr(v.Init.Expr, loopScope)
		}
		if v.Cond != nil {
			r.resolveExpr(v.Cond, loopScope)
		}
		if v.Post != nil {
			r.resolveExpr(v.Post, loopScope)
		}
		r.resolveStmt(v.Body, loopScope)
	case *ast.Switch:
		r.resolveExpr(v.Expr, scope)
		r.resolveStmt(v.Body, scope)
	case *ast.Case:
		r.resolveExpr(v.Expr, scope)
		r.resolveStmt(v.Body, scope)
	case *ast.Default:
		r.resolveStmt(v.Body, scope)
	case *ast.Goto, *ast.Break, *ast.Continue, *ast.Null:
		// no identifiers to resolve
	}
}

func (r *identResolver) resolveExpr(e ast.Expr, scope identScope) {
	switch v := e.(type) {
	case *ast.Constant:
	case *ast.Variable:
		entry, ok := scope[v.Name]
		if !ok {
			r.fail("use of undeclared identifier %q", v.Name)
			return
		}
		v.Name = entry.newName
	case *ast.Cast:
		r.resolveExpr(v.Inner, scope)
	case *ast.Unary:
		if isLvalueOp(v.Op) {
			r.requireLvalue(v.Inner)
		}
		r.resolveExpr(v.Inner, scope)
	case *ast.Binary:
		r.resolveExpr(v.Lhs, scope)
		r.resolveExpr(v.Rhs, scope)
	case *ast.Assignment:
		r.requireLvalue(v.Lhs)
		r.resolveExpr(v.Lhs, scope)
		r.resolveExpr(v.Rhs, scope)
	case *ast.Conditional:
		r.resolveExpr(v.Cond, scope)
		r.resolveExpr(v.Then, scope)
		r.resolveExpr(v.Else, scope)
	case *ast.FunctionCall:
		entry, ok := scope[v.FnName]
		if !ok {
			r.fail("call to undeclared function %q", v.FnName)
		} else {
			v.FnName = entry.newName
		}
		for _, a := range v.Args {
			r.resolveExpr(a, scope)
		}
	}
}

func isLvalueOp(op ast.UnaryOp) bool {
	switch op {
	case ast.OpPreIncrement, ast.OpPreDecrement, ast.OpPostIncrement, ast.OpPostDecrement:
		return true
	default:
		return false
	}
}

func (r *identResolver) requireLvalue(e ast.Expr) {
	if _, ok := e.(*ast.Variable); !ok {
		r.fail("expression is not assignable")
	}
}
