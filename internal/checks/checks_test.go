package checks

import (
	"strings"
	"testing"

	"github.com/nalgeon/be"

	"github.com/iley/sysyc/internal/ir"
	"github.com/iley/sysyc/internal/irgen"
	"github.com/iley/sysyc/internal/lexer"
	"github.com/iley/sysyc/internal/parser"
	"github.com/iley/sysyc/internal/types"
)

func newMain() (*ir.Function, *ir.Builder) {
	fn := ir.NewFunction("@main", types.NewFunctionType(nil, types.Int32), []string{})
	b := ir.NewBuilder(fn)
	b.SetBlock(b.NewBlock("%entry"))
	return fn, b
}

func program(fns ...*ir.Function) *ir.Program {
	return &ir.Program{Functions: fns}
}

func TestRun_GeneratedPrograms(t *testing.T) {
	sources := []string{
		`int main() { return 0; }`,
		`int f(int a[]) { return a[0] || a[1] && 0; } int main() { int x[2]; return f(x); }`,
		`int g[3]; int main() { int i = 0; while (i < 3) { if (i == 1) { i = i + 1; continue; } g[i] = i; i = i + 1; } return g[2]; return 1; }`,
	}
	for _, src := range sources {
		ast, err := parser.New(lexer.New(strings.NewReader(src), "")).ParseProgram()
		be.Err(t, err, nil)
		prog, err := irgen.Generate(ast)
		be.Err(t, err, nil)
		be.Equal(t, len(Run(prog)), 0)
	}
}

func TestRun_MissingTerminator(t *testing.T) {
	fn, b := newMain()
	b.Binary(ir.OpAdd, ir.NewConst(1), ir.NewConst(2))

	errs := Run(program(fn))
	be.Equal(t, len(errs), 1)
	be.Err(t, errs[0], ErrMissingTerminator)
}

func TestRun_MisplacedTerminator(t *testing.T) {
	fn, b := newMain()
	b.Return(ir.NewConst(0))
	entry := fn.Blocks[0]
	entry.Insts = append([]ir.Inst{&ir.Return{Value: ir.NewConst(1)}}, entry.Insts...)

	errs := Run(program(fn))
	be.Equal(t, len(errs), 1)
	be.Err(t, errs[0], ErrMisplacedTerminator)
}

func TestRun_BlockArguments(t *testing.T) {
	fn, b := newMain()
	end := b.NewBlock("%end_0")
	end.AddParam("%result_0", types.Int32)
	b.Jump(end)
	b.SetBlock(end)
	b.Return(ir.NewConst(0))

	errs := Run(program(fn))
	be.Equal(t, len(errs), 1)
	be.Err(t, errs[0], ErrBlockArgCount)
	be.Err(t, errs[0], "%end_0 takes 1, got 0")
}

func TestRun_ForeignBlock(t *testing.T) {
	other, ob := newMain()
	ob.Return(ir.NewConst(0))

	fn, b := newMain()
	b.Jump(other.Blocks[0])

	errs := Run(program(fn))
	be.Equal(t, len(errs), 1)
	be.Err(t, errs[0], ErrForeignBlock)
}

func TestRun_DuplicateBlock(t *testing.T) {
	fn, b := newMain()
	again := b.NewBlock("%entry")
	b.Jump(again)
	b.SetBlock(again)
	b.Return(ir.NewConst(0))

	errs := Run(program(fn))
	be.Equal(t, len(errs), 1)
	be.Err(t, errs[0], ErrDuplicateBlock)
}

func TestRun_Values(t *testing.T) {
	t.Run("value from another function", func(t *testing.T) {
		_, ob := newMain()
		stray := ob.Binary(ir.OpAdd, ir.NewConst(1), ir.NewConst(1))
		ob.Return(stray)

		fn, b := newMain()
		b.Return(stray)

		errs := Run(program(fn))
		be.Equal(t, len(errs), 1)
		be.Err(t, errs[0], ErrUndefinedValue)
	})

	t.Run("undeclared global", func(t *testing.T) {
		global := ir.NewGlobal("@g", types.Int32, ir.NewZeroInit())
		fn, b := newMain()
		b.Return(b.Load(global.Value))

		errs := Run(program(fn))
		be.Equal(t, len(errs), 1)
		be.Err(t, errs[0], ErrUnknownGlobal)

		prog := program(fn)
		prog.Globals = []*ir.Global{global}
		be.Equal(t, len(Run(prog)), 0)
	})

	t.Run("redefinition", func(t *testing.T) {
		fn, b := newMain()
		sum := b.Binary(ir.OpAdd, ir.NewConst(1), ir.NewConst(1))
		fn.Blocks[0].Insts = append(fn.Blocks[0].Insts, &ir.Binary{Dest: sum, Op: ir.OpSub, Lhs: sum, Rhs: sum})
		b.Return(sum)

		errs := Run(program(fn))
		be.Equal(t, len(errs), 1)
		be.Err(t, errs[0], ErrRedefinedValue)
	})
}

func TestRun_SkipsDeclarations(t *testing.T) {
	decl := ir.NewFunction("@getint", types.NewFunctionType(nil, types.Int32), nil)
	be.Equal(t, len(Run(program(decl))), 0)
}
