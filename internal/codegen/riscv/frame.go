package riscv

import (
	"fmt"

	"github.com/iley/sysyc/internal/ir"
	"github.com/iley/sysyc/internal/types"
	"github.com/iley/sysyc/internal/util"
)

// RISC-V psABI: sp is kept 16-byte aligned.
const STACK_ALIGNMENT = 16

// Frame is the stack layout of one function. Every value that needs storage has a slot
// at a non-negative offset from sp. The return address is saved at Size-4.
type Frame struct {
	Size    int
	SavesRA bool
	Slots   map[*ir.Value]int

	// Allocs holds the results of alloc. Their slot is the storage itself, not a pointer to it.
	allocs map[*ir.Value]bool
}

func (f *Frame) IsAlloc(v *ir.Value) bool {
	return f.allocs[v]
}

// RAOffset returns the offset of the saved return address.
func (f *Frame) RAOffset() int {
	return f.Size - types.WORD_SIZE
}

// LayoutFrame assigns stack slots in program order.
func LayoutFrame(fn *ir.Function) (*Frame, error) {
	if fn.IsDeclaration() {
		return nil, fmt.Errorf("cannot lay out frame of declaration %s", fn.Name)
	}

	frame := &Frame{
		Slots:  make(map[*ir.Value]int),
		allocs: make(map[*ir.Value]bool),
	}

	offset := 0
	assign := func(v *ir.Value, size int) {
		frame.Slots[v] = offset
		offset += size
	}

	for _, block := range fn.Blocks {
		for _, param := range block.Params {
			assign(param, types.WORD_SIZE)
		}
		for _, inst := range block.Insts {
			if alloc, ok := inst.(*ir.Alloc); ok {
				assign(alloc.Dest, types.GetTypeSize(alloc.Elem))
				frame.allocs[alloc.Dest] = true
				continue
			}
			if _, ok := inst.(*ir.Call); ok {
				frame.SavesRA = true
			}
			if result := inst.Result(); result != nil {
				assign(result, types.WORD_SIZE)
			}
		}
	}

	if frame.SavesRA {
		offset += types.WORD_SIZE
	}
	frame.Size = util.Align(offset, STACK_ALIGNMENT)
	return frame, nil
}
