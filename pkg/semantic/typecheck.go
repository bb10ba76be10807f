package semantic

import (
	"github.com/adrianmoss/subcc/pkg/ast"
	"github.com/adrianmoss/subcc/pkg/symtab"
)

type typeChecker struct {
	table *symtab.Table
	errs  []error
}

func (c *typeChecker) fail(format string, args ...interface{}) {
	c.errs = append(c.errs, typeErrorf(format, args...))
}

// checkTypes assigns a type to every expression, inserts explicit Cast
// nodes for implicit conversions, and populates the symbol table.
func checkTypes(prog *ast.Program) (*symtab.Table, []error) {
	c := &typeChecker{table: symtab.New()}
	for _, d := range prog.Decls {
		switch v := d.(type) {
		case *ast.VarDecl:
			c.checkFileVarDecl(v)
		case *ast.FunDecl:
			c.checkFunDecl(v)
		}
	}
	return c.table, c.errs
}

func (c *typeChecker) checkFileVarDecl(v *ast.VarDecl) {
	initKind := symtab.Tentative
	var initVal symtab.StaticInit
	if v.Storage == ast.StorageExtern && v.Init == nil {
		initKind = symtab.NoInitializer
	}
	if v.Init != nil {
		cv, ok := constantValue(v.Init)
		if !ok {
			c.fail("file-scope initializer for %q is not a constant expression", v.Name)
			return
		}
		initKind = symtab.Initial
		initVal = convertConstant(cv, v.Ty)
	}

	global := v.Storage != ast.StorageStatic

	if existing, ok := c.table.Get(v.Name); ok {
		prevAttrs, ok := existing.Attrs.(symtab.StaticAttrs)
		if !ok {
			c.fail("redeclaration of %q changes its kind", v.Name)
			return
		}
		if !ast.TypesEqual(existing.Type, v.Ty) {
			c.fail("conflicting types for %q", v.Name)
			return
		}
		if v.Storage == ast.StorageExtern {
			global = prevAttrs.Global
		} else if prevAttrs.Global != global {
			c.fail("conflicting linkage for %q", v.Name)
			return
		}
		if prevAttrs.Init == symtab.Initial && initKind == symtab.Initial {
			c.fail("redefinition of %q", v.Name)
			return
		}
		if initKind != symtab.Initial && prevAttrs.Init == symtab.Initial {
			initKind = symtab.Initial
			initVal = prevAttrs.Value
		} else if initKind == symtab.NoInitializer && prevAttrs.Init != symtab.NoInitializer {
			initKind = prevAttrs.Init
			initVal = prevAttrs.Value
		}
	}

	c.table.Add(v.Name, &symtab.Entry{
		Type:  v.Ty,
		Attrs: symtab.StaticAttrs{Init: initKind, Value: initVal, Global: global},
	})
}

func (c *typeChecker) checkFunDecl(f *ast.FunDecl) {
	global := f.Storage != ast.StorageStatic
	defined := f.Body != nil

	if existing, ok := c.table.Get(f.Name); ok {
		prevAttrs, ok := existing.Attrs.(symtab.FunAttrs)
		if !ok {
			c.fail("redeclaration of %q changes its kind", f.Name)
			return
		}
		if !ast.TypesEqual(existing.Type, f.Ty) {
			c.fail("conflicting types for function %q", f.Name)
			return
		}
		if prevAttrs.Defined && defined {
			c.fail("redefinition of function %q", f.Name)
			return
		}
		defined = defined || prevAttrs.Defined
		if !global && prevAttrs.Global {
			c.fail("static declaration of %q follows non-static declaration", f.Name)
			return
		}
		global = prevAttrs.Global
	}

	c.table.Add(f.Name, &symtab.Entry{Type: f.Ty, Attrs: symtab.FunAttrs{Defined: defined, Global: global}})

	if f.Body != nil {
		for i, p := range f.Params {
			c.table.Add(p.Name, &symtab.Entry{Type: f.Ty.Params[i], Attrs: symtab.LocalAttrs{}})
		}
		c.checkBlock(f.Body)
	}
}

func (c *typeChecker) checkBlock(b *ast.Block) {
	for _, item := range b.Items {
		switch v := item.(type) {
		case *ast.VarDecl:
			c.checkBlockVarDecl(v)
		case *ast.FunDecl:
			c.checkFunDecl(v)
		case ast.Stmt:
			c.checkStmt(v)
		}
	}
}

func (c *typeChecker) checkBlockVarDecl(v *ast.VarDecl) {
	if v.Storage == ast.StorageExtern {
		if v.Init != nil {
			c.fail("extern declaration of %q may not have an initializer", v.Name)
			return
		}
		if existing, ok := c.table.Get(v.Name); ok {
			if !ast.TypesEqual(existing.Type, v.Ty) {
				c.fail("conflicting types for %q", v.Name)
			}
			return
		}
		c.table.Add(v.Name, &symtab.Entry{Type: v.Ty, Attrs: symtab.StaticAttrs{Init: symtab.NoInitializer, Global: true}})
		return
	}

	if v.Storage == ast.StorageStatic {
		initKind := symtab.Tentative
		var initVal symtab.StaticInit
		if v.Init != nil {
			cv, ok := constantValue(v.Init)
			if !ok {
				c.fail("static local initializer for %q is not a constant expression", v.Name)
				return
			}
			initKind = symtab.Initial
			initVal = convertConstant(cv, v.Ty)
		}
		c.table.Add(v.Name, &symtab.Entry{Type: v.Ty, Attrs: symtab.StaticAttrs{Init: initKind, Value: initVal, Global: false}})
		return
	}

	c.table.Add(v.Name, &symtab.Entry{Type: v.Ty, Attrs: symtab.LocalAttrs{}})
	if v.Init != nil {
		c.checkExpr(v.Init)
		v.Init = c.convertTo(v.Init, v.Ty)
	}
}

func (c *typeChecker) checkStmt(s ast.Stmt) {
	switch v := s.(type) {
	case *ast.Return:
		if v.Expr != nil {
			c.checkExpr(v.Expr)
		}
	case *ast.ExprStmt:
		c.checkExpr(v.Expr)
	case *ast.If:
		c.checkExpr(v.Cond)
		c.checkStmt(v.Then)
		if v.Else != nil {
			c.checkStmt(v.Else)
		}
	case *ast.Compound:
		c.checkBlock(v.Body)
	case *ast.Labeled:
		c.checkStmt(v.Stmt)
	case *ast.While:
		c.checkExpr(v.Cond)
		c.checkStmt(v.Body)
	case *ast.DoWhile:
		c.checkStmt(v.Body)
		c.checkExpr(v.Cond)
	case *ast.For:
		if v.Init.Decl != nil {
			if v.Init.Decl.Storage != ast.StorageNone {
				c.fail("for-loop initializer may not carry a storage class")
			} else {
				c.checkBlockVarDecl(v.Init.Decl)
			}
		} else if v.Init.Expr != nil {
			c.checkExpr(v.Init.Expr)
		}
		if v.Cond != nil {
			c.checkExpr(v.Cond)
		}
		if v.Post != nil {
			c.checkExpr(v.Post)
		}
		c.checkStmt(v.Body)
	case *ast.Switch:
		c.checkExpr(v.Expr)
		c.checkStmt(v.Body)
	case *ast.Case:
		c.checkExpr(v.Expr)
		c.checkStmt(v.Body)
	case *ast.Default:
		c.checkStmt(v.Body)
	}
}

func (c *typeChecker) checkExpr(e ast.Expr) {
	switch v := e.(type) {
	case *ast.Constant:
		if v.IsLong {
			v.SetType(ast.LongType{})
		} else {
			v.SetType(ast.IntType{})
		}
	case *ast.Variable:
		entry, ok := c.table.Get(v.Name)
		if !ok {
			c.fail("use of undeclared identifier %q", v.Name)
			v.SetType(ast.IntType{})
			return
		}
		if _, isFun := entry.Type.(ast.FunctionType); isFun {
			c.fail("function %q used as a variable", v.Name)
		}
		v.SetType(entry.Type)
	case *ast.Cast:
		c.checkExpr(v.Inner)
		v.SetType(v.Target)
	case *ast.Unary:
		c.checkExpr(v.Inner)
		if v.Op == ast.OpNot {
			v.SetType(ast.IntType{})
		} else {
			v.SetType(v.Inner.Type())
		}
	case *ast.Binary:
		c.checkBinary(v)
	case *ast.Assignment:
		c.checkAssignment(v)
	case *ast.Conditional:
		c.checkExpr(v.Cond)
		c.checkExpr(v.Then)
		c.checkExpr(v.Else)
		common := commonType(v.Then.Type(), v.Else.Type())
		v.Then = c.convertTo(v.Then, common)
		v.Else = c.convertTo(v.Else, common)
		v.SetType(common)
	case *ast.FunctionCall:
		c.checkCall(v)
	}
}

func (c *typeChecker) checkBinary(v *ast.Binary) {
	c.checkExpr(v.Lhs)
	c.checkExpr(v.Rhs)

	if v.Op == ast.OpLogicalAnd || v.Op == ast.OpLogicalOr {
		v.SetType(ast.IntType{})
		return
	}

	common := commonType(v.Lhs.Type(), v.Rhs.Type())
	v.Lhs = c.convertTo(v.Lhs, common)
	v.Rhs = c.convertTo(v.Rhs, common)
	if v.Op.IsRelational() {
		v.SetType(ast.IntType{})
	} else {
		v.SetType(common)
	}
}

func (c *typeChecker) checkAssignment(v *ast.Assignment) {
	if _, ok := v.Lhs.(*ast.Variable); !ok {
		c.fail("left-hand side of assignment is not assignable")
	}
	c.checkExpr(v.Lhs)
	c.checkExpr(v.Rhs)
	v.Rhs = c.convertTo(v.Rhs, v.Lhs.Type())
	v.SetType(v.Lhs.Type())
}

func (c *typeChecker) checkCall(v *ast.FunctionCall) {
	entry, ok := c.table.Get(v.FnName)
	if !ok {
		c.fail("call to undeclared function %q", v.FnName)
		v.SetType(ast.IntType{})
		return
	}
	fnTy, ok := entry.Type.(ast.FunctionType)
	if !ok {
		c.fail("variable %q called as a function", v.FnName)
		v.SetType(ast.IntType{})
		return
	}
	if len(v.Args) != len(fnTy.Params) {
		c.fail("function %q called with %d arguments, expected %d", v.FnName, len(v.Args), len(fnTy.Params))
	}
	for i := range v.Args {
		c.checkExpr(v.Args[i])
		if i < len(fnTy.Params) {
			v.Args[i] = c.convertTo(v.Args[i], fnTy.Params[i])
		}
	}
	v.SetType(fnTy.Return)
}

// convertTo wraps e in a Cast to ty if its type differs, otherwise returns
// e unchanged.
func (c *typeChecker) convertTo(e ast.Expr, ty ast.Type) ast.Expr {
	if ast.TypesEqual(e.Type(), ty) {
		return e
	}
	cast := &ast.Cast{Target: ty, Inner: e}
	cast.SetType(ty)
	return cast
}

// commonType implements the book's usual-arithmetic-conversion subset:
// Long if either operand is Long, otherwise Int.
func commonType(a, b ast.Type) ast.Type {
	if ast.IsLong(a) || ast.IsLong(b) {
		return ast.LongType{}
	}
	return ast.IntType{}
}

// constantValue extracts the folded integer value of a file-scope or
// static initializer, which per this subset must already be a bare
// Constant (optionally cast).
func constantValue(e ast.Expr) (int64, bool) {
	switch v := e.(type) {
	case *ast.Constant:
		return v.Value(), true
	case *ast.Cast:
		return constantValue(v.Inner)
	default:
		return 0, false
	}
}

// convertConstant truncates/sign-extends a folded constant to the target
// type's storage width.
func convertConstant(v int64, ty ast.Type) symtab.StaticInit {
	if ast.IsLong(ty) {
		return symtab.StaticInit{IsLong: true, Value: v}
	}
	return symtab.StaticInit{IsLong: false, Value: int64(int32(v))}
}
