package ir

import (
	"fmt"
	"strings"

	"github.com/iley/sysyc/internal/types"
)

type ValueKind int

const (
	ValueConst ValueKind = iota
	ValueInst
	ValueFuncArg
	ValueBlockArg
	ValueGlobal
)

// Value is a handle to anything an instruction can use as an operand.
// Handles are compared by identity.
type Value struct {
	Kind  ValueKind
	Type  types.Type
	Name  string
	Const int32
	// Position among the function or block parameters.
	Index int
}

func (v *Value) String() string {
	if v.Kind == ValueConst {
		return fmt.Sprintf("%d", v.Const)
	}
	return v.Name
}

func (v *Value) IsConst() bool {
	return v.Kind == ValueConst
}

// Symbol returns the assembler symbol of a global value.
func (v *Value) Symbol() string {
	return strings.TrimPrefix(v.Name, "@")
}

func NewConst(val int32) *Value {
	return &Value{Kind: ValueConst, Type: types.Int32, Const: val}
}

func newValue(kind ValueKind, typ types.Type, name string) *Value {
	return &Value{Kind: kind, Type: typ, Name: name}
}
