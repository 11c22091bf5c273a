package riscv

import (
	"slices"
	"strings"
	"testing"

	"github.com/nalgeon/be"

	"github.com/iley/sysyc/internal/ir"
	"github.com/iley/sysyc/internal/irgen"
	"github.com/iley/sysyc/internal/lexer"
	"github.com/iley/sysyc/internal/parser"
	"github.com/iley/sysyc/internal/types"
)

func lowerSource(t *testing.T, src string) *ir.Program {
	t.Helper()
	ast, err := parser.New(lexer.New(strings.NewReader(src), "")).ParseProgram()
	be.Err(t, err, nil)
	prog, err := irgen.Generate(ast)
	be.Err(t, err, nil)
	return prog
}

func TestLayoutFrame_Leaf(t *testing.T) {
	fn := ir.NewFunction("@main", types.NewFunctionType(nil, types.Int32), []string{})
	b := ir.NewBuilder(fn)
	b.SetBlock(b.NewBlock("%entry"))
	a := b.Alloc("@a_0", types.Int32)
	b.Store(ir.NewConst(1), a)
	loaded := b.Load(a)
	sum := b.Binary(ir.OpAdd, loaded, ir.NewConst(2))
	b.Return(sum)

	frame, err := LayoutFrame(fn)
	be.Err(t, err, nil)
	be.Equal(t, frame.Slots[a], 0)
	be.Equal(t, frame.Slots[loaded], 4)
	be.Equal(t, frame.Slots[sum], 8)
	be.Equal(t, frame.SavesRA, false)
	be.Equal(t, frame.Size, 16)
	be.True(t, frame.IsAlloc(a))
	be.True(t, !frame.IsAlloc(loaded))
}

func TestLayoutFrame_NonLeaf(t *testing.T) {
	putint := ir.NewFunction("@putint", types.NewFunctionType([]types.Type{types.Int32}, types.Unit), nil)
	fn := ir.NewFunction("@main", types.NewFunctionType(nil, types.Int32), []string{})
	b := ir.NewBuilder(fn)
	b.SetBlock(b.NewBlock("%entry"))
	arr := b.Alloc("@arr_0", types.NewArrayType(types.Int32, 3))
	b.Call(putint, []*ir.Value{ir.NewConst(1)})
	end := b.NewBlock("%end_0")
	param := end.AddParam("%result_0", types.Int32)
	b.Jump(end, ir.NewConst(1))
	b.SetBlock(end)
	b.Return(param)

	frame, err := LayoutFrame(fn)
	be.Err(t, err, nil)
	be.Equal(t, frame.Slots[arr], 0)
	be.Equal(t, frame.Slots[param], 12)
	be.Equal(t, frame.SavesRA, true)
	be.Equal(t, frame.Size, 32)
	be.Equal(t, frame.RAOffset(), 28)
}

func TestLayoutFrame_Declaration(t *testing.T) {
	decl := ir.NewFunction("@getint", types.NewFunctionType(nil, types.Int32), nil)
	_, err := LayoutFrame(decl)
	be.Err(t, err, "declaration")
}

// Slots must not overlap each other or the saved return address.
func TestLayoutFrame_SlotsAreDisjoint(t *testing.T) {
	prog := lowerSource(t, `
int sum(int a[], int n) {
  int i = 0, s = 0;
  while (i < n) { s = s + a[i]; i = i + 1; }
  return s;
}
int main() {
  int arr[2][5] = {{1, 2}, {3}};
  int x = sum(arr[0], 5) || sum(arr[1], 5);
  if (x > 0 && arr[1][0] == 3) putint(x);
  return sum(arr[1], 5);
}
`)
	for _, fn := range prog.Functions {
		if fn.IsDeclaration() {
			continue
		}
		frame, err := LayoutFrame(fn)
		be.Err(t, err, nil)

		type interval struct{ start, end int }
		var intervals []interval
		for _, block := range fn.Blocks {
			for _, param := range block.Params {
				intervals = append(intervals, interval{frame.Slots[param], frame.Slots[param] + 4})
			}
			for _, inst := range block.Insts {
				if alloc, ok := inst.(*ir.Alloc); ok {
					start := frame.Slots[alloc.Dest]
					intervals = append(intervals, interval{start, start + types.GetTypeSize(alloc.Elem)})
				} else if result := inst.Result(); result != nil {
					intervals = append(intervals, interval{frame.Slots[result], frame.Slots[result] + 4})
				}
			}
		}
		if frame.SavesRA {
			intervals = append(intervals, interval{frame.RAOffset(), frame.Size})
		}

		slices.SortFunc(intervals, func(a, b interval) int { return a.start - b.start })
		for i := 1; i < len(intervals); i++ {
			be.True(t, intervals[i-1].end <= intervals[i].start)
		}
		be.True(t, intervals[len(intervals)-1].end <= frame.Size)
		be.Equal(t, frame.Size%STACK_ALIGNMENT, 0)
	}
}
