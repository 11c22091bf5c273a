package ir

import (
	"fmt"

	"github.com/iley/sysyc/internal/types"
)

// Builder appends instructions to the current block of a function.
type Builder struct {
	fn            *Function
	block         *BasicBlock
	nextTempIndex int
	nextBlockID   int
}

func NewBuilder(fn *Function) *Builder {
	return &Builder{fn: fn}
}

func (b *Builder) Function() *Function {
	return b.fn
}

func (b *Builder) Block() *BasicBlock {
	return b.block
}

func (b *Builder) SetBlock(block *BasicBlock) {
	b.block = block
}

// NewBlock creates a block and appends it to the function. It does not switch to it.
func (b *Builder) NewBlock(name string) *BasicBlock {
	block := &BasicBlock{Name: name}
	b.fn.Blocks = append(b.fn.Blocks, block)
	return block
}

// NextID allocates a number shared by all blocks of one construct, e.g. %then_3 and %end_3.
func (b *Builder) NextID() int {
	id := b.nextBlockID
	b.nextBlockID++
	return id
}

func (b *Builder) allocTemp(typ types.Type) *Value {
	idx := b.nextTempIndex
	b.nextTempIndex++
	return newValue(ValueInst, typ, fmt.Sprintf("%%%d", idx))
}

// emit appends inst to the current block. Code following a terminator goes to a fresh
// unreachable block so that every block keeps a single terminator at the end.
func (b *Builder) emit(inst Inst) {
	if b.block.Terminated() {
		b.block = b.NewBlock(fmt.Sprintf("%%dead_%d", b.NextID()))
	}
	b.block.Insts = append(b.block.Insts, inst)
}

func (b *Builder) Alloc(name string, elem types.Type) *Value {
	dest := newValue(ValueInst, types.NewPointerType(elem), name)
	b.emit(&Alloc{Dest: dest, Elem: elem})
	return dest
}

func (b *Builder) Load(src *Value) *Value {
	dest := b.allocTemp(types.Pointee(src.Type))
	b.emit(&Load{Dest: dest, Src: src})
	return dest
}

func (b *Builder) Store(value, dest *Value) {
	b.emit(&Store{Value: value, Dest: dest})
}

// GetElemPtr turns *[T, n] into *T.
func (b *Builder) GetElemPtr(src, index *Value) *Value {
	arr, ok := types.Pointee(src.Type).(*types.ArrayType)
	if !ok {
		panic(fmt.Sprintf("getelemptr on non-array pointer %s: %s", src, src.Type))
	}
	dest := b.allocTemp(types.NewPointerType(arr.ElementType))
	b.emit(&GetElemPtr{Dest: dest, Src: src, Index: index})
	return dest
}

func (b *Builder) GetPtr(src, index *Value) *Value {
	dest := b.allocTemp(src.Type)
	b.emit(&GetPtr{Dest: dest, Src: src, Index: index})
	return dest
}

func (b *Builder) Binary(op BinaryOp, lhs, rhs *Value) *Value {
	dest := b.allocTemp(types.Int32)
	b.emit(&Binary{Dest: dest, Op: op, Lhs: lhs, Rhs: rhs})
	return dest
}

// Call returns nil for void callees.
func (b *Builder) Call(callee *Function, args []*Value) *Value {
	var dest *Value
	if !callee.IsVoid() {
		dest = b.allocTemp(callee.Type.Return)
	}
	b.emit(&Call{Dest: dest, Callee: callee, Args: args})
	return dest
}

func (b *Builder) Jump(target *BasicBlock, args ...*Value) {
	b.emit(&Jump{Target: target, Args: args})
}

func (b *Builder) Branch(cond *Value, ifTrue, ifFalse *BasicBlock) {
	b.emit(&Branch{Cond: cond, True: ifTrue, False: ifFalse})
}

// Return takes nil for a bare ret.
func (b *Builder) Return(value *Value) {
	b.emit(&Return{Value: value})
}
