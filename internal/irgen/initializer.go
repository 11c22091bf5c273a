package irgen

import (
	"fmt"

	"github.com/iley/sysyc/internal/ast"
	"github.com/iley/sysyc/internal/ir"
)

type InitKind int

const (
	InitConst InitKind = iota
	InitValue
	InitList
)

// Initializer is an initializer tree with leaves either evaluated to constants or lowered to values.
type Initializer struct {
	Kind  InitKind
	Const int32
	Value *ir.Value
	List  []Initializer
}

func constInit(val int32) Initializer {
	return Initializer{Kind: InitConst, Const: val}
}

func listInit(list []Initializer) Initializer {
	return Initializer{Kind: InitList, List: list}
}

// newConstInitializer evaluates every leaf at compile time.
func newConstInitializer(init *ast.InitVal, eval func(ast.Expression) (int32, error)) (Initializer, error) {
	if !init.IsList {
		val, err := eval(init.Expr)
		if err != nil {
			return Initializer{}, err
		}
		return constInit(val), nil
	}
	list := make([]Initializer, 0, len(init.List))
	for _, elem := range init.List {
		sub, err := newConstInitializer(elem, eval)
		if err != nil {
			return Initializer{}, err
		}
		list = append(list, sub)
	}
	return listInit(list), nil
}

// newValueInitializer lowers every leaf to an IR value, in source order.
func newValueInitializer(init *ast.InitVal, lower func(ast.Expression) (*ir.Value, error)) (Initializer, error) {
	if !init.IsList {
		val, err := lower(init.Expr)
		if err != nil {
			return Initializer{}, err
		}
		return Initializer{Kind: InitValue, Value: val}, nil
	}
	list := make([]Initializer, 0, len(init.List))
	for _, elem := range init.List {
		sub, err := newValueInitializer(elem, lower)
		if err != nil {
			return Initializer{}, err
		}
		list = append(list, sub)
	}
	return listInit(list), nil
}

type dimLen struct {
	len   int
	total int
}

// Reshape fits init to the array dims (outermost first) and pads missing elements with zeros.
// With no dims init must be a single scalar.
func Reshape(init Initializer, dims []int) (Initializer, error) {
	if len(dims) == 0 {
		if init.Kind == InitList {
			return Initializer{}, fmt.Errorf("%w: list given for a scalar", ErrUnsupportedInitializerShape)
		}
		return init, nil
	}
	if init.Kind != InitList {
		return Initializer{}, fmt.Errorf("%w: scalar given for an array", ErrUnsupportedInitializerShape)
	}

	// Innermost dimension first, each with the number of elements it spans.
	lens := make([]dimLen, len(dims))
	total := 1
	for i := range dims {
		d := dims[len(dims)-1-i]
		total *= d
		lens[i] = dimLen{len: d, total: total}
	}
	return reshapeList(init.List, lens)
}

func reshapeList(inits []Initializer, lens []dimLen) (Initializer, error) {
	if len(lens) == 0 {
		return Initializer{}, fmt.Errorf("%w: braces around scalar", ErrUnsupportedInitializerShape)
	}

	// reshaped[i] collects complete sub-arrays of rank i.
	reshaped := make([][]Initializer, len(lens)+1)
	total := lens[len(lens)-1].total
	n := 0

	for _, init := range inits {
		if n >= total {
			return Initializer{}, ErrTooManyInitializers
		}
		if init.Kind != InitList {
			reshaped[0] = append(reshaped[0], init)
			carry(reshaped, lens)
			n++
			continue
		}

		next := lens[:len(lens)-1]
		for i, bucket := range reshaped {
			if len(bucket) == 0 {
				continue
			}
			if i == 0 {
				return Initializer{}, ErrMisalignedInitializer
			}
			next = lens[:i]
			break
		}
		sub, err := reshapeList(init.List, next)
		if err != nil {
			return Initializer{}, err
		}
		reshaped[len(next)] = append(reshaped[len(next)], sub)
		carry(reshaped, lens)
		n += next[len(next)-1].total
	}

	for n < total {
		reshaped[0] = append(reshaped[0], constInit(0))
		carry(reshaped, lens)
		n++
	}

	top := reshaped[len(lens)]
	return top[len(top)-1], nil
}

// carry wraps every full bucket into a list and moves it one rank up, like mixed-radix counting.
func carry(reshaped [][]Initializer, lens []dimLen) {
	for i, l := range lens {
		if len(reshaped[i]) == l.len {
			reshaped[i+1] = append(reshaped[i+1], listInit(reshaped[i]))
			reshaped[i] = nil
		}
	}
}

// Flatten returns the leaves in row-major order.
func (i Initializer) Flatten() []Initializer {
	if i.Kind != InitList {
		return []Initializer{i}
	}
	var leaves []Initializer
	for _, elem := range i.List {
		leaves = append(leaves, elem.Flatten()...)
	}
	return leaves
}

// IRValue returns the leaf as an operand.
func (i Initializer) IRValue() *ir.Value {
	if i.Kind == InitConst {
		return ir.NewConst(i.Const)
	}
	return i.Value
}

// IntoConst converts a constant tree into a global initializer.
func (i Initializer) IntoConst() *ir.Constant {
	switch i.Kind {
	case InitConst:
		return ir.NewIntConstant(i.Const)
	case InitList:
		elems := make([]*ir.Constant, len(i.List))
		for j, elem := range i.List {
			elems[j] = elem.IntoConst()
		}
		return ir.NewAggregate(elems)
	}
	panic(fmt.Sprintf("initializer leaf %s is not a constant", i.Value))
}

// ConstValues returns the flattened leaves of a constant tree.
func (i Initializer) ConstValues() []int32 {
	leaves := i.Flatten()
	values := make([]int32, len(leaves))
	for j, leaf := range leaves {
		values[j] = leaf.Const
	}
	return values
}
