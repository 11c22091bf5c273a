package types

import (
	"fmt"
	"strings"
)

// Type represents an IR type
type Type interface {
	fmt.Stringer
	isType()
	// Equals returns true if this type is equal to the other type
	Equals(other Type) bool
}

// BaseType represents primitive types: i32 and unit
type BaseType struct {
	Name string
}

func (b *BaseType) isType() {}

func (b *BaseType) String() string {
	return b.Name
}

func (b *BaseType) Equals(other Type) bool {
	if otherBase, ok := other.(*BaseType); ok {
		return b.Name == otherBase.Name
	}
	return false
}

// PointerType represents a pointer to another type
type PointerType struct {
	ElementType Type
}

func (p *PointerType) isType() {}

func (p *PointerType) String() string {
	return "*" + p.ElementType.String()
}

func (p *PointerType) Equals(other Type) bool {
	if otherPtr, ok := other.(*PointerType); ok {
		return p.ElementType.Equals(otherPtr.ElementType)
	}
	return false
}

// ArrayType is a fixed-length array, e.g. [i32, 3]
type ArrayType struct {
	ElementType Type
	Len         int
}

func (a *ArrayType) isType() {}

func (a *ArrayType) String() string {
	return fmt.Sprintf("[%s, %d]", a.ElementType, a.Len)
}

func (a *ArrayType) Equals(other Type) bool {
	if otherArr, ok := other.(*ArrayType); ok {
		return a.Len == otherArr.Len && a.ElementType.Equals(otherArr.ElementType)
	}
	return false
}

// FunctionType describes parameters and the return type. Unit return means void.
type FunctionType struct {
	Params []Type
	Return Type
}

func (f *FunctionType) isType() {}

func (f *FunctionType) String() string {
	parts := make([]string, len(f.Params))
	for i, param := range f.Params {
		parts[i] = param.String()
	}
	s := "(" + strings.Join(parts, ", ") + ")"
	if !f.Return.Equals(Unit) {
		s += ": " + f.Return.String()
	}
	return s
}

func (f *FunctionType) Equals(other Type) bool {
	otherFn, ok := other.(*FunctionType)
	if !ok || len(f.Params) != len(otherFn.Params) || !f.Return.Equals(otherFn.Return) {
		return false
	}
	for i := range f.Params {
		if !f.Params[i].Equals(otherFn.Params[i]) {
			return false
		}
	}
	return true
}

// Helper functions for creating common types

// NewBaseType returns the shared instance for known primitive names.
func NewBaseType(name string) *BaseType {
	switch name {
	case "i32":
		return Int32
	case "unit":
		return Unit
	}
	return &BaseType{Name: name}
}

// NewPointerType creates a new pointer type
func NewPointerType(elementType Type) *PointerType {
	return &PointerType{ElementType: elementType}
}

func NewArrayType(elementType Type, length int) *ArrayType {
	return &ArrayType{ElementType: elementType, Len: length}
}

// ArrayOf builds a nested array type from outermost-first dimensions.
// With no dimensions it returns elem itself.
func ArrayOf(elem Type, dims []int) Type {
	typ := elem
	for i := len(dims) - 1; i >= 0; i-- {
		typ = NewArrayType(typ, dims[i])
	}
	return typ
}

func NewFunctionType(params []Type, ret Type) *FunctionType {
	return &FunctionType{Params: params, Return: ret}
}

// Common base types
var (
	Int32 = &BaseType{Name: "i32"}
	Unit  = &BaseType{Name: "unit"}
)

// Pointee returns the element type of a pointer, or nil for other types.
func Pointee(typ Type) Type {
	if ptr, ok := typ.(*PointerType); ok {
		return ptr.ElementType
	}
	return nil
}

// IsArray reports whether typ is an array type.
func IsArray(typ Type) bool {
	_, ok := typ.(*ArrayType)
	return ok
}
