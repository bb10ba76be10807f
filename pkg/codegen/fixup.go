package codegen

import "github.com/adrianmoss/subcc/pkg/asmir"

// FixUp rewrites instructions that violate x86 operand-form constraints:
// no instruction may read two memory operands, Idiv cannot take an
// immediate, and Cmp's second operand cannot be an immediate.
func FixUp(prog *asmir.Program) {
	for _, item := range prog.Items {
		fn, ok := item.(*asmir.Function)
		if !ok {
			continue
		}
		fn.Body = fixUpFunction(fn.Body)
	}
}

func isMemory(op asmir.Operand) bool {
	switch op.(type) {
	case asmir.Stack, asmir.Data:
		return true
	default:
		return false
	}
}

func isImmediate(op asmir.Operand) bool {
	_, ok := op.(asmir.Imm)
	return ok
}

func fixUpFunction(body []asmir.Instruction) []asmir.Instruction {
	var out []asmir.Instruction
	for _, inst := range body {
		switch v := inst.(type) {
		case *asmir.Mov:
			if isMemory(v.Src) && isMemory(v.Dst) {
				out = append(out,
					&asmir.Mov{Long: v.Long, Src: v.Src, Dst: asmir.Register{Reg: asmir.R10}},
					&asmir.Mov{Long: v.Long, Src: asmir.Register{Reg: asmir.R10}, Dst: v.Dst},
				)
				continue
			}
			out = append(out, v)
		case *asmir.Cmp:
			out = append(out, fixUpCmp(v)...)
		case *asmir.Idiv:
			if isImmediate(v.Src) {
				out = append(out,
					&asmir.Mov{Src: v.Src, Dst: asmir.Register{Reg: asmir.R10}},
					&asmir.Idiv{Src: asmir.Register{Reg: asmir.R10}},
				)
				continue
			}
			out = append(out, v)
		case *asmir.Binary:
			out = append(out, fixUpBinary(v)...)
		default:
			out = append(out, inst)
		}
	}
	return out
}

func fixUpCmp(v *asmir.Cmp) []asmir.Instruction {
	if isMemory(v.Src) && isMemory(v.Dst) {
		return []asmir.Instruction{
			&asmir.Mov{Src: v.Src, Dst: asmir.Register{Reg: asmir.R10}},
			&asmir.Cmp{Src: asmir.Register{Reg: asmir.R10}, Dst: v.Dst},
		}
	}
	if isImmediate(v.Dst) {
		return []asmir.Instruction{
			&asmir.Mov{Src: v.Dst, Dst: asmir.Register{Reg: asmir.R11}},
			&asmir.Cmp{Src: v.Src, Dst: asmir.Register{Reg: asmir.R11}},
		}
	}
	return []asmir.Instruction{v}
}

func fixUpBinary(v *asmir.Binary) []asmir.Instruction {
	if v.Op == asmir.Mult && isMemory(v.Dst) {
		return []asmir.Instruction{
			&asmir.Mov{Src: v.Dst, Dst: asmir.Register{Reg: asmir.R11}},
			&asmir.Binary{Op: asmir.Mult, Src: v.Src, Dst: asmir.Register{Reg: asmir.R11}},
			&asmir.Mov{Src: asmir.Register{Reg: asmir.R11}, Dst: v.Dst},
		}
	}
	if isMemory(v.Src) && isMemory(v.Dst) {
		switch v.Op {
		case asmir.Add, asmir.Sub, asmir.And, asmir.Or, asmir.Xor:
			return []asmir.Instruction{
				&asmir.Mov{Src: v.Src, Dst: asmir.Register{Reg: asmir.R10}},
				&asmir.Binary{Op: v.Op, Src: asmir.Register{Reg: asmir.R10}, Dst: v.Dst},
			}
		}
	}
	return []asmir.Instruction{v}
}
