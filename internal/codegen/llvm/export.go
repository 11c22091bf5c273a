// Package llvm translates the IR into LLVM IR so that programs can be inspected and run
// with the standard LLVM tools. Block parameters become phi nodes.
package llvm

import (
	"errors"
	"fmt"
	"io"
	"strings"

	llir "github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	lltypes "github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/iley/sysyc/internal/ir"
	"github.com/iley/sysyc/internal/logger"
	"github.com/iley/sysyc/internal/types"
)

var ErrUnknownValue = errors.New("value not defined in function")

type exporter struct {
	module  *llir.Module
	funcs   map[*ir.Function]*llir.Func
	globals map[*ir.Value]*llir.Global

	// Function-specific.
	values map[*ir.Value]value.Value
	blocks map[*ir.BasicBlock]*llir.Block
	phis   map[*ir.Value]*llir.InstPhi
}

// Generate writes the LLVM IR text of the program.
func Generate(out io.Writer, prog *ir.Program) error {
	module, err := Export(prog)
	if err != nil {
		return err
	}
	_, err = io.WriteString(out, module.String())
	return err
}

func Export(prog *ir.Program) (*llir.Module, error) {
	e := &exporter{
		module:  llir.NewModule(),
		funcs:   make(map[*ir.Function]*llir.Func),
		globals: make(map[*ir.Value]*llir.Global),
	}

	for _, global := range prog.Globals {
		init, err := exportConstant(global.Init, global.Type)
		if err != nil {
			return nil, fmt.Errorf("global %s: %w", global.Name(), err)
		}
		e.globals[global.Value] = e.module.NewGlobalDef(global.Value.Symbol(), init)
	}

	// Declare everything first so that calls can refer to later functions.
	for _, fn := range prog.Functions {
		var params []*llir.Param
		for i, paramType := range fn.Type.Params {
			name := ""
			if !fn.IsDeclaration() {
				name = "arg." + strings.TrimPrefix(fn.Params[i].Name, "%")
			}
			params = append(params, llir.NewParam(name, exportType(paramType)))
		}
		e.funcs[fn] = e.module.NewFunc(fn.Symbol(), exportType(fn.Type.Return), params...)
	}

	for _, fn := range prog.Functions {
		if fn.IsDeclaration() {
			continue
		}
		if err := e.exportFunction(fn); err != nil {
			return nil, fmt.Errorf("error when exporting function %s: %w", fn.Symbol(), err)
		}
	}

	logger.LogPhase("llvm", "functions", len(prog.Functions), "globals", len(prog.Globals))
	return e.module, nil
}

func exportType(typ types.Type) lltypes.Type {
	switch t := typ.(type) {
	case *types.PointerType:
		return lltypes.NewPointer(exportType(t.ElementType))
	case *types.ArrayType:
		return lltypes.NewArray(uint64(t.Len), exportType(t.ElementType))
	}
	if typ.Equals(types.Unit) {
		return lltypes.Void
	}
	return lltypes.I32
}

func exportConstant(c *ir.Constant, typ types.Type) (constant.Constant, error) {
	switch c.Kind {
	case ir.ConstInt:
		return constant.NewInt(lltypes.I32, int64(c.Int)), nil
	case ir.ConstZeroInit:
		if !types.IsArray(typ) {
			return constant.NewInt(lltypes.I32, 0), nil
		}
		return constant.NewZeroInitializer(exportType(typ)), nil
	}

	arr, ok := typ.(*types.ArrayType)
	if !ok {
		return nil, fmt.Errorf("aggregate initializer for non-array type %s", typ)
	}
	elems := make([]constant.Constant, 0, len(c.Elems))
	for _, elem := range c.Elems {
		exported, err := exportConstant(elem, arr.ElementType)
		if err != nil {
			return nil, err
		}
		elems = append(elems, exported)
	}
	return constant.NewArray(exportType(arr).(*lltypes.ArrayType), elems...), nil
}

func (e *exporter) exportFunction(fn *ir.Function) error {
	f := e.funcs[fn]
	e.values = make(map[*ir.Value]value.Value)
	e.blocks = make(map[*ir.BasicBlock]*llir.Block)
	e.phis = make(map[*ir.Value]*llir.InstPhi)

	for i, param := range fn.Params {
		e.values[param] = f.Params[i]
	}

	// Phi nodes exist before any instruction refers to them. Incoming edges are added by jumps.
	for _, block := range fn.Blocks {
		lb := f.NewBlock(strings.TrimPrefix(block.Name, "%"))
		e.blocks[block] = lb
		for _, param := range block.Params {
			phi := &llir.InstPhi{Typ: exportType(param.Type)}
			phi.SetName(strings.TrimPrefix(param.Name, "%"))
			lb.Insts = append(lb.Insts, phi)
			e.phis[param] = phi
			e.values[param] = phi
		}
	}

	for _, block := range fn.Blocks {
		lb := e.blocks[block]
		for _, inst := range block.Insts {
			if err := e.exportInst(lb, inst); err != nil {
				return err
			}
		}
	}
	return nil
}

func (e *exporter) value(v *ir.Value) (value.Value, error) {
	switch v.Kind {
	case ir.ValueConst:
		return constant.NewInt(lltypes.I32, int64(v.Const)), nil
	case ir.ValueGlobal:
		if global, ok := e.globals[v]; ok {
			return global, nil
		}
	default:
		if result, ok := e.values[v]; ok {
			return result, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownValue, v)
}

func (e *exporter) block(block *ir.BasicBlock) (*llir.Block, error) {
	lb, ok := e.blocks[block]
	if !ok {
		return nil, fmt.Errorf("block %s is not part of the function", block.Name)
	}
	return lb, nil
}

func (e *exporter) valuePair(a, b *ir.Value) (value.Value, value.Value, error) {
	x, err := e.value(a)
	if err != nil {
		return nil, nil, err
	}
	y, err := e.value(b)
	if err != nil {
		return nil, nil, err
	}
	return x, y, nil
}

var comparisons = map[ir.BinaryOp]enum.IPred{
	ir.OpEq:    enum.IPredEQ,
	ir.OpNotEq: enum.IPredNE,
	ir.OpLt:    enum.IPredSLT,
	ir.OpGt:    enum.IPredSGT,
	ir.OpLe:    enum.IPredSLE,
	ir.OpGe:    enum.IPredSGE,
}

func (e *exporter) exportInst(lb *llir.Block, inst ir.Inst) error {
	switch inst := inst.(type) {
	case *ir.Alloc:
		alloca := lb.NewAlloca(exportType(inst.Elem))
		alloca.SetName("v." + inst.Dest.Symbol())
		e.values[inst.Dest] = alloca
	case *ir.Load:
		src, err := e.value(inst.Src)
		if err != nil {
			return err
		}
		e.values[inst.Dest] = lb.NewLoad(exportType(types.Pointee(inst.Src.Type)), src)
	case *ir.Store:
		val, dest, err := e.valuePair(inst.Value, inst.Dest)
		if err != nil {
			return err
		}
		lb.NewStore(val, dest)
	case *ir.GetElemPtr:
		src, idx, err := e.valuePair(inst.Src, inst.Index)
		if err != nil {
			return err
		}
		zero := constant.NewInt(lltypes.I32, 0)
		e.values[inst.Dest] = lb.NewGetElementPtr(exportType(types.Pointee(inst.Src.Type)), src, zero, idx)
	case *ir.GetPtr:
		src, idx, err := e.valuePair(inst.Src, inst.Index)
		if err != nil {
			return err
		}
		e.values[inst.Dest] = lb.NewGetElementPtr(exportType(types.Pointee(inst.Src.Type)), src, idx)
	case *ir.Binary:
		x, y, err := e.valuePair(inst.Lhs, inst.Rhs)
		if err != nil {
			return err
		}
		result, err := exportBinary(lb, inst.Op, x, y)
		if err != nil {
			return err
		}
		e.values[inst.Dest] = result
	case *ir.Call:
		args := make([]value.Value, 0, len(inst.Args))
		for _, arg := range inst.Args {
			v, err := e.value(arg)
			if err != nil {
				return err
			}
			args = append(args, v)
		}
		call := lb.NewCall(e.funcs[inst.Callee], args...)
		if inst.Dest != nil {
			e.values[inst.Dest] = call
		}
	case *ir.Jump:
		target, err := e.block(inst.Target)
		if err != nil {
			return err
		}
		if len(inst.Args) != len(inst.Target.Params) {
			return fmt.Errorf("jump to %s passes %d arguments, block takes %d",
				inst.Target.Name, len(inst.Args), len(inst.Target.Params))
		}
		for i, arg := range inst.Args {
			v, err := e.value(arg)
			if err != nil {
				return err
			}
			phi := e.phis[inst.Target.Params[i]]
			phi.Incs = append(phi.Incs, llir.NewIncoming(v, lb))
		}
		lb.NewBr(target)
	case *ir.Branch:
		cond, err := e.value(inst.Cond)
		if err != nil {
			return err
		}
		ifTrue, err := e.block(inst.True)
		if err != nil {
			return err
		}
		ifFalse, err := e.block(inst.False)
		if err != nil {
			return err
		}
		nonZero := lb.NewICmp(enum.IPredNE, cond, constant.NewInt(lltypes.I32, 0))
		lb.NewCondBr(nonZero, ifTrue, ifFalse)
	case *ir.Return:
		if inst.Value == nil {
			lb.NewRet(nil)
			return nil
		}
		v, err := e.value(inst.Value)
		if err != nil {
			return err
		}
		lb.NewRet(v)
	default:
		return fmt.Errorf("unsupported instruction: %s", inst)
	}
	return nil
}

func exportBinary(lb *llir.Block, op ir.BinaryOp, x, y value.Value) (value.Value, error) {
	if pred, ok := comparisons[op]; ok {
		return lb.NewZExt(lb.NewICmp(pred, x, y), lltypes.I32), nil
	}
	switch op {
	case ir.OpAdd:
		return lb.NewAdd(x, y), nil
	case ir.OpSub:
		return lb.NewSub(x, y), nil
	case ir.OpMul:
		return lb.NewMul(x, y), nil
	case ir.OpDiv:
		return lb.NewSDiv(x, y), nil
	case ir.OpMod:
		return lb.NewSRem(x, y), nil
	case ir.OpAnd:
		return lb.NewAnd(x, y), nil
	case ir.OpOr:
		return lb.NewOr(x, y), nil
	case ir.OpXor:
		return lb.NewXor(x, y), nil
	}
	return nil, fmt.Errorf("unsupported binary operator %s", op)
}
