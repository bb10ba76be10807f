package tackygen

import (
	"github.com/adrianmoss/subcc/pkg/ast"
	"github.com/adrianmoss/subcc/pkg/tacky"
)

// generateExpr lowers e by a postorder traversal, appending instructions
// to e.code and returning a value handle for the result.
func (e *emitter) generateExpr(expr ast.Expr) tacky.Value {
	switch v := expr.(type) {
	case *ast.Constant:
		return tacky.Constant{IsLong: v.IsLong, Value: v.Value()}
	case *ast.Variable:
		return tacky.Variable{Name: v.Name, Ty: v.Type()}
	case *ast.Cast:
		src := e.generateExpr(v.Inner)
		dst := e.freshVar(v.Target)
		e.emit(&tacky.Copy{Src: src, Dest: dst})
		return dst
	case *ast.Unary:
		return e.generateUnary(v)
	case *ast.Binary:
		return e.generateBinary(v)
	case *ast.Assignment:
		return e.generateAssignment(v)
	case *ast.Conditional:
		return e.generateConditional(v)
	case *ast.FunctionCall:
		return e.generateCall(v)
	default:
		return tacky.Constant{Value: 0}
	}
}

func (e *emitter) generateUnary(v *ast.Unary) tacky.Value {
	switch v.Op {
	case ast.OpPreIncrement, ast.OpPreDecrement:
		return e.generatePrefixIncDec(v)
	case ast.OpPostIncrement, ast.OpPostDecrement:
		return e.generatePostfixIncDec(v)
	default:
		src := e.generateExpr(v.Inner)
		dst := e.freshVar(v.Type())
		e.emit(&tacky.Unary{Op: v.Op, Src: src, Dest: dst})
		return dst
	}
}

func (e *emitter) generatePrefixIncDec(v *ast.Unary) tacky.Value {
	target := e.generateExpr(v.Inner)
	one := oneFor(v.Inner.Type())
	op := ast.OpAdd
	if v.Op == ast.OpPreDecrement {
		op = ast.OpSubtract
	}
	e.emit(&tacky.Binary{Op: op, Lhs: target, Rhs: one, Dest: target})
	return target
}

func (e *emitter) generatePostfixIncDec(v *ast.Unary) tacky.Value {
	target := e.generateExpr(v.Inner)
	saved := e.freshVar(v.Inner.Type())
	e.emit(&tacky.Copy{Src: target, Dest: saved})
	one := oneFor(v.Inner.Type())
	op := ast.OpAdd
	if v.Op == ast.OpPostDecrement {
		op = ast.OpSubtract
	}
	e.emit(&tacky.Binary{Op: op, Lhs: target, Rhs: one, Dest: target})
	return saved
}

func oneFor(ty ast.Type) tacky.Value {
	return tacky.Constant{IsLong: ast.IsLong(ty), Value: 1}
}

func (e *emitter) generateBinary(v *ast.Binary) tacky.Value {
	switch v.Op {
	case ast.OpLogicalAnd:
		return e.generateLogicalAnd(v)
	case ast.OpLogicalOr:
		return e.generateLogicalOr(v)
	default:
		lhs := e.generateExpr(v.Lhs)
		rhs := e.generateExpr(v.Rhs)
		dst := e.freshVar(v.Type())
		e.emit(&tacky.Binary{Op: v.Op, Lhs: lhs, Rhs: rhs, Dest: dst})
		return dst
	}
}

func (e *emitter) generateLogicalAnd(v *ast.Binary) tacky.Value {
	falseLabel := e.freshLabel("and_false")
	end := e.freshLabel("and_end")
	dst := e.freshVar(ast.IntType{})

	lhs := e.generateExpr(v.Lhs)
	e.emit(&tacky.JumpIfZero{Cond: lhs, Target: falseLabel})
	rhs := e.generateExpr(v.Rhs)
	e.emit(&tacky.JumpIfZero{Cond: rhs, Target: falseLabel})
	e.emit(&tacky.Copy{Src: tacky.Constant{Value: 1}, Dest: dst})
	e.emit(&tacky.Jump{Target: end})
	e.emit(&tacky.Label{Name: falseLabel})
	e.emit(&tacky.Copy{Src: tacky.Constant{Value: 0}, Dest: dst})
	e.emit(&tacky.Label{Name: end})
	return dst
}

func (e *emitter) generateLogicalOr(v *ast.Binary) tacky.Value {
	trueLabel := e.freshLabel("or_true")
	end := e.freshLabel("or_end")
	dst := e.freshVar(ast.IntType{})

	lhs := e.generateExpr(v.Lhs)
	e.emit(&tacky.JumpIfNotZero{Cond: lhs, Target: trueLabel})
	rhs := e.generateExpr(v.Rhs)
	e.emit(&tacky.JumpIfNotZero{Cond: rhs, Target: trueLabel})
	e.emit(&tacky.Copy{Src: tacky.Constant{Value: 0}, Dest: dst})
	e.emit(&tacky.Jump{Target: end})
	e.emit(&tacky.Label{Name: trueLabel})
	e.emit(&tacky.Copy{Src: tacky.Constant{Value: 1}, Dest: dst})
	e.emit(&tacky.Label{Name: end})
	return dst
}

func (e *emitter) generateAssignment(v *ast.Assignment) tacky.Value {
	lhsVar := v.Lhs.(*ast.Variable)
	lhs := tacky.Variable{Name: lhsVar.Name, Ty: lhsVar.Type()}

	if v.Op == ast.AssignPlain {
		rhs := e.generateExpr(v.Rhs)
		e.emit(&tacky.Copy{Src: rhs, Dest: lhs})
		return lhs
	}

	op, _ := v.Op.BinaryOp()
	rhs := e.generateExpr(v.Rhs)
	e.emit(&tacky.Binary{Op: op, Lhs: lhs, Rhs: rhs, Dest: lhs})
	return lhs
}

func (e *emitter) generateConditional(v *ast.Conditional) tacky.Value {
	elseLabel := e.freshLabel("cond_else")
	end := e.freshLabel("cond_end")
	dst := e.freshVar(v.Type())

	cond := e.generateExpr(v.Cond)
	e.emit(&tacky.JumpIfZero{Cond: cond, Target: elseLabel})
	thenVal := e.generateExpr(v.Then)
	e.emit(&tacky.Copy{Src: thenVal, Dest: dst})
	e.emit(&tacky.Jump{Target: end})
	e.emit(&tacky.Label{Name: elseLabel})
	elseVal := e.generateExpr(v.Else)
	e.emit(&tacky.Copy{Src: elseVal, Dest: dst})
	e.emit(&tacky.Label{Name: end})
	return dst
}

func (e *emitter) generateCall(v *ast.FunctionCall) tacky.Value {
	args := make([]tacky.Value, len(v.Args))
	for i, a := range v.Args {
		args[i] = e.generateExpr(a)
	}
	dst := e.freshVar(v.Type())
	e.emit(&tacky.FunctionCall{FnName: v.FnName, Args: args, Dest: dst})
	return dst
}
