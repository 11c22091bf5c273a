package riscv

import (
	"bytes"
	"strings"
	"testing"

	"github.com/nalgeon/be"

	"github.com/iley/sysyc/internal/codegen/asm"
	"github.com/iley/sysyc/internal/ir"
	"github.com/iley/sysyc/internal/types"
)

func formatSource(t *testing.T, src string) string {
	t.Helper()
	prog, err := Generate(lowerSource(t, src))
	be.Err(t, err, nil)
	var out bytes.Buffer
	be.Err(t, Format(&out, prog), nil)
	return out.String()
}

// instructionLines returns the rendered instructions of fn, without comments and labels.
func instructionLines(fn asm.Function) []string {
	var lines []string
	for _, line := range fn.Lines {
		if line.Op != "" {
			lines = append(lines, strings.TrimSpace(FormatLine(line)))
		}
	}
	return lines
}

func TestGenerate_Simple(t *testing.T) {
	expected := `  .text
  .globl main
main:
  # frame size: 16 bytes
  addi sp, sp, -16
  # @a_0 = alloc i32
  # store 1, @a_0
  li t0, 1
  sw t0, 0(sp)
  # %0 = load @a_0
  lw t0, 0(sp)
  sw t0, 4(sp)
  # %1 = add %0, 2
  lw t0, 4(sp)
  li t1, 2
  add t2, t0, t1
  sw t2, 8(sp)
  # ret %1
  lw a0, 8(sp)
  addi sp, sp, 16
  ret
`
	be.Equal(t, formatSource(t, `int main() { int a = 1; return a + 2; }`), expected)
}

func TestGenerate_DataSection(t *testing.T) {
	out := formatSource(t, `int g; int arr[3] = {1, 2}; int main() { return g; }`)
	expected := `  .data
  .globl g
g:
  .zero 4
  .globl arr
arr:
  .word 1
  .word 2
  .word 0

  .text
  .globl main
`
	be.True(t, strings.HasPrefix(out, expected))
	be.True(t, strings.Contains(out, "  la t1, g\n  lw t0, 0(t1)\n"))
}

func TestGenerate_BlockLabels(t *testing.T) {
	out := formatSource(t, `int main() { int x = 1; while (x < 5) x = x + 1; return x; }`)
	be.True(t, strings.Contains(out, "  j .Lmain_while_cond_0\n"))
	be.True(t, strings.Contains(out, ".Lmain_while_cond_0:\n"))
	be.True(t, strings.Contains(out, "  bnez t0, .Lmain_while_body_0\n  j .Lmain_while_end_0\n"))
	be.True(t, !strings.Contains(out, ".Lmain_entry"))
}

func TestGenerate_NonLeafSavesRA(t *testing.T) {
	out := formatSource(t, `int main() { putint(1); return 0; }`)
	be.True(t, strings.Contains(out, "  addi sp, sp, -16\n  sw ra, 12(sp)\n"))
	be.True(t, strings.Contains(out, "  li a0, 1\n  call putint\n"))
	be.True(t, strings.Contains(out, "  mv a0, zero\n  lw ra, 12(sp)\n  addi sp, sp, 16\n  ret\n"))
}

func TestGenerate_LargeFrame(t *testing.T) {
	out := formatSource(t, `int main() { int a[1000]; a[999] = 7; return a[999]; }`)
	be.True(t, strings.Contains(out, "  li t0, -4016\n  add sp, sp, t0\n"))
	be.True(t, strings.Contains(out, "  li t0, 4016\n  add sp, sp, t0\n  ret\n"))
	// Slots past the 12-bit range are addressed through t6.
	be.True(t, strings.Contains(out, "  li t6, 4000\n  add t6, sp, t6\n  sw t2, 0(t6)\n"))
}

func TestGenerate_StackArguments(t *testing.T) {
	src := `
int f(int a, int b, int c, int d, int e, int x, int g, int h, int i, int j) { return i + j; }
int main() { return f(1, 2, 3, 4, 5, 6, 7, 8, 9, 10); }
`
	prog, err := Generate(lowerSource(t, src))
	be.Err(t, err, nil)
	be.Equal(t, len(prog.Functions), 2)

	callee := strings.Join(instructionLines(prog.Functions[0]), "\n")
	// Frame of f: ten i32 slots plus three temporaries, 52 bytes rounded to 64.
	be.True(t, strings.Contains(callee, "lw t0, 64(sp)\nsw t0, 32(sp)"))
	be.True(t, strings.Contains(callee, "lw t0, 68(sp)\nsw t0, 36(sp)"))

	caller := strings.Join(instructionLines(prog.Functions[1]), "\n")
	be.True(t, strings.Contains(caller, `addi sp, sp, -16
li t0, 9
sw t0, 0(sp)
li t0, 10
sw t0, 4(sp)
li a0, 1`))
	be.True(t, strings.Contains(caller, `li a7, 8
call f
addi sp, sp, 16
sw a0, 0(sp)`))
}

func TestGenerate_BinaryOps(t *testing.T) {
	testCases := []struct {
		op       ir.BinaryOp
		expected string
	}{
		{ir.OpAdd, "add t2, t0, t1"},
		{ir.OpSub, "sub t2, t0, t1"},
		{ir.OpMul, "mul t2, t0, t1"},
		{ir.OpDiv, "div t2, t0, t1"},
		{ir.OpMod, "rem t2, t0, t1"},
		{ir.OpAnd, "and t2, t0, t1"},
		{ir.OpOr, "or t2, t0, t1"},
		{ir.OpXor, "xor t2, t0, t1"},
		{ir.OpLt, "slt t2, t0, t1"},
		{ir.OpGt, "slt t2, t1, t0"},
		{ir.OpLe, "slt t2, t1, t0\nseqz t2, t2"},
		{ir.OpGe, "slt t2, t0, t1\nseqz t2, t2"},
		{ir.OpEq, "xor t2, t0, t1\nseqz t2, t2"},
		{ir.OpNotEq, "xor t2, t0, t1\nsnez t2, t2"},
	}

	for _, tc := range testCases {
		t.Run(tc.op.String(), func(t *testing.T) {
			fn := ir.NewFunction("@main", types.NewFunctionType(nil, types.Int32), []string{})
			b := ir.NewBuilder(fn)
			b.SetBlock(b.NewBlock("%entry"))
			b.Return(b.Binary(tc.op, ir.NewConst(7), ir.NewConst(0)))

			prog, err := Generate(&ir.Program{Functions: []*ir.Function{fn}})
			be.Err(t, err, nil)
			lines := strings.Join(instructionLines(prog.Functions[0]), "\n")
			be.True(t, strings.Contains(lines, "li t0, 7\nmv t1, zero\n"+tc.expected+"\nsw t2, 0(sp)"))
		})
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	src := `
int g[2][2] = {{1}, {2, 3}};
int f(int a[][2], int n) { if (n > 0 && a[0][0]) return a[n][1]; return -1; }
int main() { return f(g, 1) + f(g, 0); }
`
	be.Equal(t, formatSource(t, src), formatSource(t, src))
}

type unknownInst struct{}

func (unknownInst) String() string { return "unknown" }
func (unknownInst) Result() *ir.Value { return nil }
func (unknownInst) Operands() []*ir.Value { return nil }

func TestGenerate_Errors(t *testing.T) {
	newMain := func() (*ir.Function, *ir.Builder) {
		fn := ir.NewFunction("@main", types.NewFunctionType(nil, types.Int32), []string{})
		b := ir.NewBuilder(fn)
		b.SetBlock(b.NewBlock("%entry"))
		return fn, b
	}

	t.Run("unresolved block", func(t *testing.T) {
		fn, b := newMain()
		other := ir.NewFunction("@other", types.NewFunctionType(nil, types.Int32), []string{})
		foreign := ir.NewBuilder(other).NewBlock("%elsewhere")
		b.Jump(foreign)

		_, err := Generate(&ir.Program{Functions: []*ir.Function{fn}})
		be.Err(t, err, ErrUnresolvedBlockTarget)
		be.Err(t, err, "error when generating code for function main")
	})

	t.Run("missing slot", func(t *testing.T) {
		fn, b := newMain()
		other := ir.NewFunction("@other", types.NewFunctionType(nil, types.Int32), []string{})
		ob := ir.NewBuilder(other)
		ob.SetBlock(ob.NewBlock("%entry"))
		foreign := ob.Binary(ir.OpAdd, ir.NewConst(1), ir.NewConst(2))
		b.Return(foreign)

		_, err := Generate(&ir.Program{Functions: []*ir.Function{fn}})
		be.Err(t, err, ErrMissingStackSlot)
	})

	t.Run("unsupported instruction", func(t *testing.T) {
		fn, b := newMain()
		b.Block().Insts = append(b.Block().Insts, unknownInst{})

		_, err := Generate(&ir.Program{Functions: []*ir.Function{fn}})
		be.Err(t, err, ErrUnsupportedOpcode)
	})
}
