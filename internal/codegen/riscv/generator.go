package riscv

import (
	"errors"
	"fmt"
	"strings"

	"github.com/iley/sysyc/internal/codegen/asm"
	"github.com/iley/sysyc/internal/ir"
	"github.com/iley/sysyc/internal/logger"
	"github.com/iley/sysyc/internal/types"
	"github.com/iley/sysyc/internal/util"
)

var (
	ErrMissingStackSlot      = errors.New("missing stack slot")
	ErrUnsupportedOpcode     = errors.New("unsupported opcode")
	ErrUnresolvedBlockTarget = errors.New("unresolved block target")
)

type CodegenContext struct {
	fn     *ir.Function
	frame  *Frame
	labels map[*ir.BasicBlock]string
	// Bytes reserved below the frame for outgoing stack arguments of the call being emitted.
	spBias int
}

// Generate selects instructions for every defined function of the program. Every value
// lives in a stack slot; t0-t2 hold operands only for the duration of one instruction.
func Generate(prog *ir.Program) (asm.Program, error) {
	result := asm.Program{}

	for _, global := range prog.Globals {
		result.Globals = append(result.Globals, generateGlobal(global))
	}

	for _, fn := range prog.Functions {
		if fn.IsDeclaration() {
			continue
		}
		asmFn, err := generateFunction(fn)
		if err != nil {
			return asm.Program{}, fmt.Errorf("error when generating code for function %s: %w", fn.Symbol(), err)
		}
		result.Functions = append(result.Functions, asmFn)
	}

	logger.LogPhase("codegen", "functions", len(result.Functions), "globals", len(result.Globals))
	return result, nil
}

func generateGlobal(global *ir.Global) asm.Global {
	name := global.Value.Symbol()
	if global.Init.Kind == ir.ConstZeroInit {
		return asm.Global{Name: name, ZeroSize: types.GetTypeSize(global.Type)}
	}
	return asm.Global{Name: name, Words: global.Init.Words(global.Type)}
}

func generateFunction(fn *ir.Function) (asm.Function, error) {
	result := asm.Function{Name: fn.Symbol()}

	frame, err := LayoutFrame(fn)
	if err != nil {
		return result, err
	}

	cc := &CodegenContext{
		fn:     fn,
		frame:  frame,
		labels: make(map[*ir.BasicBlock]string),
	}
	// The entry block is reached by falling through the prologue only.
	for _, block := range fn.Blocks[1:] {
		cc.labels[block] = fmt.Sprintf(".L%s_%s", fn.Symbol(), strings.TrimPrefix(block.Name, "%"))
	}

	result.Lines = append(result.Lines, asm.Comment(fmt.Sprintf("frame size: %d bytes", frame.Size)))
	result.Lines = append(result.Lines, adjustSP(-frame.Size)...)
	if frame.SavesRA {
		result.Lines = append(result.Lines, stackAccess("sw", asm.RA, frame.RAOffset())...)
	}

	for i, block := range fn.Blocks {
		if i > 0 {
			result.Lines = append(result.Lines, asm.Label(cc.labels[block]))
		}
		for _, inst := range block.Insts {
			result.Lines = append(result.Lines, asm.Comment(inst.String()))
			lines, err := cc.generateInst(inst)
			if err != nil {
				return result, err
			}
			result.Lines = append(result.Lines, lines...)
		}
	}

	logger.LogFunction("codegen", fn.Symbol(), "frame", frame.Size, "lines", len(result.Lines))
	return result, nil
}

func (cc *CodegenContext) generateInst(inst ir.Inst) ([]asm.Line, error) {
	if _, ok := inst.(*ir.Alloc); ok {
		// Storage is part of the frame.
		return nil, nil
	} else if load, ok := inst.(*ir.Load); ok {
		return cc.generateLoad(load)
	} else if store, ok := inst.(*ir.Store); ok {
		return cc.generateStore(store)
	} else if gep, ok := inst.(*ir.GetElemPtr); ok {
		arr, ok := types.Pointee(gep.Src.Type).(*types.ArrayType)
		if !ok {
			return nil, fmt.Errorf("%w: getelemptr on %s", ErrUnsupportedOpcode, gep.Src.Type)
		}
		return cc.generatePointerArithmetic(gep.Dest, gep.Src, gep.Index, types.GetTypeSize(arr.ElementType))
	} else if getptr, ok := inst.(*ir.GetPtr); ok {
		elemSize := types.GetTypeSize(types.Pointee(getptr.Src.Type))
		return cc.generatePointerArithmetic(getptr.Dest, getptr.Src, getptr.Index, elemSize)
	} else if binary, ok := inst.(*ir.Binary); ok {
		return cc.generateBinary(binary)
	} else if call, ok := inst.(*ir.Call); ok {
		return cc.generateCall(call)
	} else if jump, ok := inst.(*ir.Jump); ok {
		return cc.generateJump(jump)
	} else if branch, ok := inst.(*ir.Branch); ok {
		return cc.generateBranch(branch)
	} else if ret, ok := inst.(*ir.Return); ok {
		return cc.generateReturn(ret)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedOpcode, inst)
}

func (cc *CodegenContext) generateLoad(load *ir.Load) ([]asm.Line, error) {
	lines, err := cc.memoryAccess("lw", asm.T0, load.Src)
	if err != nil {
		return nil, err
	}
	return cc.appendStoreResult(lines, asm.T0, load.Dest)
}

func (cc *CodegenContext) generateStore(store *ir.Store) ([]asm.Line, error) {
	lines, err := cc.loadValue(asm.T0, store.Value)
	if err != nil {
		return nil, err
	}
	access, err := cc.memoryAccess("sw", asm.T0, store.Dest)
	if err != nil {
		return nil, err
	}
	return append(lines, access...), nil
}

// generatePointerArithmetic computes dest = src + index * elemSize.
func (cc *CodegenContext) generatePointerArithmetic(dest, src, index *ir.Value, elemSize int) ([]asm.Line, error) {
	lines, err := cc.loadValue(asm.T1, src)
	if err != nil {
		return nil, err
	}
	indexLines, err := cc.loadValue(asm.T0, index)
	if err != nil {
		return nil, err
	}
	lines = append(lines, indexLines...)
	lines = append(lines,
		asm.Op2("li", asm.T2, asm.Imm(elemSize)),
		asm.Op3("mul", asm.T0, asm.T0, asm.T2),
		asm.Op3("add", asm.T2, asm.T1, asm.T0))
	return cc.appendStoreResult(lines, asm.T2, dest)
}

var directBinaryOps = map[ir.BinaryOp]string{
	ir.OpAdd: "add",
	ir.OpSub: "sub",
	ir.OpMul: "mul",
	ir.OpDiv: "div",
	ir.OpMod: "rem",
	ir.OpAnd: "and",
	ir.OpOr:  "or",
	ir.OpXor: "xor",
	ir.OpLt:  "slt",
}

func (cc *CodegenContext) generateBinary(binary *ir.Binary) ([]asm.Line, error) {
	lines, err := cc.loadValue(asm.T0, binary.Lhs)
	if err != nil {
		return nil, err
	}
	rhsLines, err := cc.loadValue(asm.T1, binary.Rhs)
	if err != nil {
		return nil, err
	}
	lines = append(lines, rhsLines...)

	if op, ok := directBinaryOps[binary.Op]; ok {
		lines = append(lines, asm.Op3(op, asm.T2, asm.T0, asm.T1))
	} else {
		switch binary.Op {
		case ir.OpGt:
			lines = append(lines, asm.Op3("slt", asm.T2, asm.T1, asm.T0))
		case ir.OpLe:
			lines = append(lines,
				asm.Op3("slt", asm.T2, asm.T1, asm.T0),
				asm.Op2("seqz", asm.T2, asm.T2))
		case ir.OpGe:
			lines = append(lines,
				asm.Op3("slt", asm.T2, asm.T0, asm.T1),
				asm.Op2("seqz", asm.T2, asm.T2))
		case ir.OpEq:
			lines = append(lines,
				asm.Op3("xor", asm.T2, asm.T0, asm.T1),
				asm.Op2("seqz", asm.T2, asm.T2))
		case ir.OpNotEq:
			lines = append(lines,
				asm.Op3("xor", asm.T2, asm.T0, asm.T1),
				asm.Op2("snez", asm.T2, asm.T2))
		default:
			return nil, fmt.Errorf("%w: binary operator %s", ErrUnsupportedOpcode, binary.Op)
		}
	}
	return cc.appendStoreResult(lines, asm.T2, binary.Dest)
}

// generateCall passes the first eight arguments in a0-a7 and the rest in an area
// reserved below the frame for the duration of the call.
func (cc *CodegenContext) generateCall(call *ir.Call) ([]asm.Line, error) {
	var lines []asm.Line

	area := 0
	if len(call.Args) > asm.ARG_REGISTERS {
		area = util.Align((len(call.Args)-asm.ARG_REGISTERS)*types.WORD_SIZE, STACK_ALIGNMENT)
		lines = append(lines, adjustSP(-area)...)
		cc.spBias += area
		for i := asm.ARG_REGISTERS; i < len(call.Args); i++ {
			argLines, err := cc.loadValue(asm.T0, call.Args[i])
			if err != nil {
				return nil, err
			}
			lines = append(lines, argLines...)
			lines = append(lines, stackAccess("sw", asm.T0, (i-asm.ARG_REGISTERS)*types.WORD_SIZE)...)
		}
	}

	for i := 0; i < len(call.Args) && i < asm.ARG_REGISTERS; i++ {
		argLines, err := cc.loadValue(asm.ArgRegister(i), call.Args[i])
		if err != nil {
			return nil, err
		}
		lines = append(lines, argLines...)
	}

	lines = append(lines, asm.Op1("call", asm.Ref(call.Callee.Symbol())))

	if area > 0 {
		lines = append(lines, adjustSP(area)...)
		cc.spBias -= area
	}

	if call.Dest == nil {
		return lines, nil
	}
	return cc.appendStoreResult(lines, asm.A0, call.Dest)
}

func (cc *CodegenContext) generateJump(jump *ir.Jump) ([]asm.Line, error) {
	label, err := cc.blockLabel(jump.Target)
	if err != nil {
		return nil, err
	}
	if len(jump.Args) != len(jump.Target.Params) {
		return nil, fmt.Errorf("jump to %s passes %d arguments, block takes %d",
			jump.Target.Name, len(jump.Args), len(jump.Target.Params))
	}

	var lines []asm.Line
	for i, arg := range jump.Args {
		argLines, err := cc.loadValue(asm.T0, arg)
		if err != nil {
			return nil, err
		}
		lines = append(lines, argLines...)
		lines, err = cc.appendStoreResult(lines, asm.T0, jump.Target.Params[i])
		if err != nil {
			return nil, err
		}
	}
	return append(lines, asm.Op1("j", asm.Ref(label))), nil
}

func (cc *CodegenContext) generateBranch(branch *ir.Branch) ([]asm.Line, error) {
	trueLabel, err := cc.blockLabel(branch.True)
	if err != nil {
		return nil, err
	}
	falseLabel, err := cc.blockLabel(branch.False)
	if err != nil {
		return nil, err
	}

	lines, err := cc.loadValue(asm.T0, branch.Cond)
	if err != nil {
		return nil, err
	}
	return append(lines,
		asm.Op2("bnez", asm.T0, asm.Ref(trueLabel)),
		asm.Op1("j", asm.Ref(falseLabel))), nil
}

func (cc *CodegenContext) generateReturn(ret *ir.Return) ([]asm.Line, error) {
	var lines []asm.Line
	if ret.Value != nil {
		valueLines, err := cc.loadValue(asm.A0, ret.Value)
		if err != nil {
			return nil, err
		}
		lines = append(lines, valueLines...)
	}
	if cc.frame.SavesRA {
		lines = append(lines, stackAccess("lw", asm.RA, cc.frame.RAOffset())...)
	}
	lines = append(lines, adjustSP(cc.frame.Size)...)
	return append(lines, asm.Op0("ret")), nil
}

func (cc *CodegenContext) blockLabel(block *ir.BasicBlock) (string, error) {
	label, ok := cc.labels[block]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnresolvedBlockTarget, block.Name)
	}
	return label, nil
}

func (cc *CodegenContext) slot(v *ir.Value) (int, error) {
	offset, ok := cc.frame.Slots[v]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrMissingStackSlot, v)
	}
	return offset + cc.spBias, nil
}

// loadValue puts v into reg.
func (cc *CodegenContext) loadValue(reg asm.Arg, v *ir.Value) ([]asm.Line, error) {
	switch v.Kind {
	case ir.ValueConst:
		if v.Const == 0 {
			return []asm.Line{asm.Op2("mv", reg, asm.Zero)}, nil
		}
		return []asm.Line{asm.Op2("li", reg, asm.Imm(int(v.Const)))}, nil
	case ir.ValueFuncArg:
		if v.Index < asm.ARG_REGISTERS {
			return []asm.Line{asm.Op2("mv", reg, asm.ArgRegister(v.Index))}, nil
		}
		// Stack arguments sit right above our frame.
		offset := cc.frame.Size + (v.Index-asm.ARG_REGISTERS)*types.WORD_SIZE + cc.spBias
		return stackAccess("lw", reg, offset), nil
	case ir.ValueGlobal:
		return []asm.Line{asm.Op2("la", reg, asm.Ref(v.Symbol()))}, nil
	}

	offset, err := cc.slot(v)
	if err != nil {
		return nil, err
	}
	if cc.frame.IsAlloc(v) {
		return stackAddress(reg, offset), nil
	}
	return stackAccess("lw", reg, offset), nil
}

// memoryAccess loads or stores reg through the pointer ptr. t1 holds the address if needed.
func (cc *CodegenContext) memoryAccess(op string, reg asm.Arg, ptr *ir.Value) ([]asm.Line, error) {
	if cc.frame.IsAlloc(ptr) {
		offset, err := cc.slot(ptr)
		if err != nil {
			return nil, err
		}
		return stackAccess(op, reg, offset), nil
	}

	lines, err := cc.loadValue(asm.T1, ptr)
	if err != nil {
		return nil, err
	}
	return append(lines, asm.Op2(op, reg, asm.Mem(asm.T1, 0))), nil
}

func (cc *CodegenContext) appendStoreResult(lines []asm.Line, reg asm.Arg, dest *ir.Value) ([]asm.Line, error) {
	offset, err := cc.slot(dest)
	if err != nil {
		return nil, err
	}
	return append(lines, stackAccess("sw", reg, offset)...), nil
}

// stackAccess emits "op reg, offset(sp)". Offsets beyond the 12-bit immediate range go through t6.
func stackAccess(op string, reg asm.Arg, offset int) []asm.Line {
	if util.FitsImm12(offset) {
		return []asm.Line{asm.Op2(op, reg, asm.Mem(asm.SP, offset))}
	}
	return []asm.Line{
		asm.Op2("li", asm.T6, asm.Imm(offset)),
		asm.Op3("add", asm.T6, asm.SP, asm.T6),
		asm.Op2(op, reg, asm.Mem(asm.T6, 0)),
	}
}

func stackAddress(reg asm.Arg, offset int) []asm.Line {
	if util.FitsImm12(offset) {
		return []asm.Line{asm.Op3("addi", reg, asm.SP, asm.Imm(offset))}
	}
	return []asm.Line{
		asm.Op2("li", asm.T6, asm.Imm(offset)),
		asm.Op3("add", reg, asm.SP, asm.T6),
	}
}

func adjustSP(delta int) []asm.Line {
	if delta == 0 {
		return nil
	}
	if util.FitsImm12(delta) {
		return []asm.Line{asm.Op3("addi", asm.SP, asm.SP, asm.Imm(delta))}
	}
	return []asm.Line{
		asm.Op2("li", asm.T0, asm.Imm(delta)),
		asm.Op3("add", asm.SP, asm.SP, asm.T0),
	}
}
