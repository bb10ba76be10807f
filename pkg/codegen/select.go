// Package codegen lowers tacky instructions to the asmir machine IR via
// instruction selection, assigns pseudo-registers to concrete stack slots
// or static data operands, and fixes up x86 operand-form constraints.
package codegen

import (
	"github.com/adrianmoss/subcc/pkg/ast"
	"github.com/adrianmoss/subcc/pkg/asmir"
	"github.com/adrianmoss/subcc/pkg/symtab"
	"github.com/adrianmoss/subcc/pkg/tacky"
)

// Select runs instruction selection over an entire tacky program.
func Select(prog *tacky.Program, table *symtab.Table) *asmir.Program {
	out := &asmir.Program{}
	for _, item := range prog.Items {
		switch v := item.(type) {
		case *tacky.Function:
			out.Items = append(out.Items, selectFunction(v))
		case *tacky.StaticVariable:
			out.Items = append(out.Items, &asmir.StaticVariable{
				Name: v.Name, Global: v.Global, Long: ast.IsLong(v.Ty), Init: v.Init,
			})
		}
	}
	return out
}

type selector struct {
	body []asmir.Instruction
}

func (s *selector) emit(inst asmir.Instruction) {
	s.body = append(s.body, inst)
}

func selectFunction(fn *tacky.Function) *asmir.Function {
	s := &selector{}

	for i, name := range fn.Params {
		dst := asmir.Pseudo{Name: name}
		if i < len(asmir.ParamRegs) {
			s.emit(&asmir.Mov{Src: asmir.Register{Reg: asmir.ParamRegs[i]}, Dst: dst})
		} else {
			stackIdx := i - len(asmir.ParamRegs)
			s.emit(&asmir.Mov{Src: asmir.Stack{Offset: int64(16 + stackIdx*8)}, Dst: dst})
		}
	}

	for _, inst := range fn.Body {
		s.selectInstruction(inst)
	}

	return &asmir.Function{Name: fn.Name, Global: fn.Global, Body: s.body}
}

func operand(v tacky.Value) asmir.Operand {
	switch x := v.(type) {
	case tacky.Constant:
		return asmir.Imm{Value: x.Value}
	case tacky.Variable:
		return asmir.Pseudo{Name: x.Name, Ty: x.Ty}
	default:
		return asmir.Imm{Value: 0}
	}
}

func relationalCond(op ast.BinaryOp) asmir.CondCode {
	switch op {
	case ast.OpEqual:
		return asmir.E
	case ast.OpNotEqual:
		return asmir.NE
	case ast.OpLess:
		return asmir.L
	case ast.OpLessOrEqual:
		return asmir.LE
	case ast.OpGreater:
		return asmir.G
	case ast.OpGreaterOrEqual:
		return asmir.GE
	default:
		return asmir.E
	}
}

func (s *selector) selectInstruction(inst tacky.Instruction) {
	switch v := inst.(type) {
	case *tacky.Return:
		s.emit(&asmir.Mov{Src: operand(v.Value), Dst: asmir.Register{Reg: asmir.AX}})
		s.emit(&asmir.Ret{})
	case *tacky.Unary:
		s.selectUnary(v)
	case *tacky.Binary:
		s.selectBinary(v)
	case *tacky.Copy:
		s.emit(&asmir.Mov{Src: operand(v.Src), Dst: operand(v.Dest)})
	case *tacky.Jump:
		s.emit(&asmir.Jmp{Target: v.Target})
	case *tacky.JumpIfZero:
		s.emit(&asmir.Cmp{Src: asmir.Imm{Value: 0}, Dst: operand(v.Cond)})
		s.emit(&asmir.JmpCC{Cond: asmir.E, Target: v.Target})
	case *tacky.JumpIfNotZero:
		s.emit(&asmir.Cmp{Src: asmir.Imm{Value: 0}, Dst: operand(v.Cond)})
		s.emit(&asmir.JmpCC{Cond: asmir.NE, Target: v.Target})
	case *tacky.Label:
		s.emit(&asmir.LabelIns{Name: v.Name})
	case *tacky.FunctionCall:
		s.selectCall(v)
	}
}

func (s *selector) selectUnary(v *tacky.Unary) {
	dst := operand(v.Dest)
	if v.Op == ast.OpNot {
		s.emit(&asmir.Cmp{Src: asmir.Imm{Value: 0}, Dst: operand(v.Src)})
		s.emit(&asmir.Mov{Src: asmir.Imm{Value: 0}, Dst: dst})
		s.emit(&asmir.SetCC{Cond: asmir.E, Dst: dst})
		return
	}
	op := asmir.Not
	if v.Op == ast.OpNegate {
		op = asmir.Neg
	}
	s.emit(&asmir.Mov{Src: operand(v.Src), Dst: dst})
	s.emit(&asmir.Unary{Op: op, Dst: dst})
}

func (s *selector) selectBinary(v *tacky.Binary) {
	dst := operand(v.Dest)
	lhs := operand(v.Lhs)
	rhs := operand(v.Rhs)

	switch v.Op {
	case ast.OpDivide:
		s.emit(&asmir.Mov{Src: lhs, Dst: asmir.Register{Reg: asmir.AX}})
		s.emit(&asmir.Cdq{})
		s.emit(&asmir.Idiv{Src: rhs})
		s.emit(&asmir.Mov{Src: asmir.Register{Reg: asmir.AX}, Dst: dst})
	case ast.OpRemainder:
		s.emit(&asmir.Mov{Src: lhs, Dst: asmir.Register{Reg: asmir.AX}})
		s.emit(&asmir.Cdq{})
		s.emit(&asmir.Idiv{Src: rhs})
		s.emit(&asmir.Mov{Src: asmir.Register{Reg: asmir.DX}, Dst: dst})
	case ast.OpShiftLeft, ast.OpShiftRight:
		s.emit(&asmir.Mov{Src: lhs, Dst: dst})
		s.emit(&asmir.Mov{Src: rhs, Dst: asmir.Register{Reg: asmir.CX}})
		if v.Op == ast.OpShiftLeft {
			s.emit(&asmir.Sal{Dst: dst})
		} else {
			s.emit(&asmir.Sar{Dst: dst})
		}
	case ast.OpAdd, ast.OpSubtract, ast.OpMultiply, ast.OpBitwiseAnd, ast.OpBitwiseOr, ast.OpBitwiseXor:
		s.emit(&asmir.Mov{Src: lhs, Dst: dst})
		s.emit(&asmir.Binary{Op: machineBinaryOp(v.Op), Src: rhs, Dst: dst})
	default: // relational / equality
		s.emit(&asmir.Cmp{Src: rhs, Dst: lhs})
		s.emit(&asmir.Mov{Src: asmir.Imm{Value: 0}, Dst: dst})
		s.emit(&asmir.SetCC{Cond: relationalCond(v.Op), Dst: dst})
	}
}

func machineBinaryOp(op ast.BinaryOp) asmir.BinaryOp {
	switch op {
	case ast.OpAdd:
		return asmir.Add
	case ast.OpSubtract:
		return asmir.Sub
	case ast.OpMultiply:
		return asmir.Mult
	case ast.OpBitwiseAnd:
		return asmir.And
	case ast.OpBitwiseOr:
		return asmir.Or
	case ast.OpBitwiseXor:
		return asmir.Xor
	default:
		return asmir.Add
	}
}

// selectCall implements the System V AMD64 subset calling convention:
// first six integer args in DI/SI/DX/CX/R8/R9, the rest pushed right to
// left with 16-byte stack alignment at the call.
func (s *selector) selectCall(v *tacky.FunctionCall) {
	regArgs := v.Args
	var stackArgs []tacky.Value
	if len(v.Args) > len(asmir.ParamRegs) {
		regArgs = v.Args[:len(asmir.ParamRegs)]
		stackArgs = v.Args[len(asmir.ParamRegs):]
	}

	padding := int64(0)
	if len(stackArgs)%2 != 0 {
		padding = 8
		s.emit(&asmir.AllocateStack{Bytes: padding})
	}

	for i, reg := range asmir.ParamRegs {
		if i >= len(regArgs) {
			break
		}
		s.emit(&asmir.Mov{Src: operand(regArgs[i]), Dst: asmir.Register{Reg: reg}})
	}

	for i := len(stackArgs) - 1; i >= 0; i-- {
		arg := operand(stackArgs[i])
		if _, isImm := arg.(asmir.Imm); isImm {
			s.emit(&asmir.Push{Src: arg})
			continue
		}
		// Stack slots may be 4 bytes wide; push always moves a full
		// quadword, so route through AX.
		s.emit(&asmir.Mov{Long: true, Src: arg, Dst: asmir.Register{Reg: asmir.AX}})
		s.emit(&asmir.Push{Src: asmir.Register{Reg: asmir.AX}})
	}

	s.emit(&asmir.Call{Target: v.FnName})

	cleanup := int64(len(stackArgs))*8 + padding
	if cleanup > 0 {
		s.emit(&asmir.DeallocateStack{Bytes: cleanup})
	}

	s.emit(&asmir.Mov{Src: asmir.Register{Reg: asmir.AX}, Dst: operand(v.Dest)})
}
