// Package tacky defines the three-address code (TAC) intermediate
// representation produced by lowering the typed AST and consumed by
// instruction selection.
package tacky

import "github.com/adrianmoss/subcc/pkg/ast"

// Value is an operand: either an immediate constant or a reference to a
// variable (a source local/global or a compiler-generated temporary).
type Value interface {
	implValue()
}

// Constant is an immediate integer operand.
type Constant struct {
	IsLong bool
	Value  int64
}

// Variable is a named operand, either a surface-level identifier or a
// fresh TAC_VAR.<counter> temporary.
type Variable struct {
	Name string
	Ty   ast.Type
}

func (Constant) implValue() {}
func (Variable) implValue() {}

// Instruction is the TAC instruction sum type.
type Instruction interface {
	implInstruction()
}

type Return struct {
	Value Value
}

type Unary struct {
	Op   ast.UnaryOp
	Src  Value
	Dest Value
}

type Binary struct {
	Op   ast.BinaryOp
	Lhs  Value
	Rhs  Value
	Dest Value
}

type Copy struct {
	Src  Value
	Dest Value
}

type Jump struct {
	Target string
}

type JumpIfZero struct {
	Cond   Value
	Target string
}

type JumpIfNotZero struct {
	Cond   Value
	Target string
}

type Label struct {
	Name string
}

type FunctionCall struct {
	FnName string
	Args   []Value
	Dest   Value
}

func (*Return) implInstruction()         {}
func (*Unary) implInstruction()          {}
func (*Binary) implInstruction()         {}
func (*Copy) implInstruction()           {}
func (*Jump) implInstruction()           {}
func (*JumpIfZero) implInstruction()     {}
func (*JumpIfNotZero) implInstruction()  {}
func (*Label) implInstruction()          {}
func (*FunctionCall) implInstruction()   {}

// Function is a lowered function body: a flat instruction list plus the
// parameter names in ABI order.
type Function struct {
	Name   string
	Global bool
	Params []string
	Body   []Instruction
}

// StaticVariable is a lowered file-scope or block-static variable.
type StaticVariable struct {
	Name   string
	Global bool
	Ty     ast.Type
	Init   int64
}

// TopLevel is either a Function or a StaticVariable.
type TopLevel interface {
	implTopLevel()
}

func (*Function) implTopLevel()       {}
func (*StaticVariable) implTopLevel() {}

// Program is the entire lowered translation unit.
type Program struct {
	Items []TopLevel
}
