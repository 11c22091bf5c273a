package functions

import (
	"github.com/iley/sysyc/internal/types"
)

type Proto struct {
	Name       string
	Params     []Param
	ReturnType types.Type
	// Intrinsic functions are declared but have no body in the program.
	Intrinsic bool
}

type Param struct {
	Name string
	Typ  types.Type
}

func (p Proto) Type() *types.FunctionType {
	params := make([]types.Type, len(p.Params))
	for i, param := range p.Params {
		params[i] = param.Typ
	}
	return types.NewFunctionType(params, p.ReturnType)
}

func (p Proto) IsVoid() bool {
	return p.ReturnType.Equals(types.Unit)
}

// Table holds function prototypes in declaration order.
type Table struct {
	protos []Proto
	index  map[string]int
}

// NewTable returns a table preloaded with the intrinsics.
func NewTable() *Table {
	table := &Table{index: map[string]int{}}
	for _, proto := range Intrinsics() {
		proto.Intrinsic = true
		table.Add(proto)
	}
	return table
}

// Add registers a prototype. It returns false if the name is already taken.
func (t *Table) Add(proto Proto) bool {
	if _, exists := t.index[proto.Name]; exists {
		return false
	}
	t.index[proto.Name] = len(t.protos)
	t.protos = append(t.protos, proto)
	return true
}

func (t *Table) Lookup(name string) (Proto, bool) {
	idx, ok := t.index[name]
	if !ok {
		return Proto{}, false
	}
	return t.protos[idx], true
}

func (t *Table) All() []Proto {
	return t.protos
}
