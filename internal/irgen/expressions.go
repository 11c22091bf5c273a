package irgen

import (
	"fmt"

	"github.com/iley/sysyc/internal/ast"
	"github.com/iley/sysyc/internal/ir"
)

var binaryOps = map[string]ir.BinaryOp{
	"+":  ir.OpAdd,
	"-":  ir.OpSub,
	"*":  ir.OpMul,
	"/":  ir.OpDiv,
	"%":  ir.OpMod,
	"<":  ir.OpLt,
	">":  ir.OpGt,
	"<=": ir.OpLe,
	">=": ir.OpGe,
	"==": ir.OpEq,
	"!=": ir.OpNotEq,
}

// lowerExpression lowers an expression used as a value.
func (g *Generator) lowerExpression(node ast.Expression) (*ir.Value, error) {
	if lit, ok := node.(*ast.IntLiteral); ok {
		return ir.NewConst(lit.Value), nil
	} else if lval, ok := node.(*ast.LVal); ok {
		return g.lowerLValLoad(lval)
	} else if unOp, ok := node.(*ast.UnaryOperation); ok {
		return g.lowerUnaryOperation(unOp)
	} else if binOp, ok := node.(*ast.BinaryOperation); ok {
		if binOp.Operator == "&&" || binOp.Operator == "||" {
			return g.lowerShortCircuit(binOp)
		}
		return g.lowerBinaryOperation(binOp)
	} else if call, ok := node.(*ast.FunctionCall); ok {
		result, err := g.lowerCall(call)
		if err != nil {
			return nil, err
		}
		if result == nil {
			return nil, errorAt(call.Loc, ErrVoidValue, "%s returns void", call.FunctionName)
		}
		return result, nil
	}
	return nil, fmt.Errorf("%s: unknown expression type: %v", node.GetLocation(), node)
}

func (g *Generator) lowerUnaryOperation(unOp *ast.UnaryOperation) (*ir.Value, error) {
	operand, err := g.lowerExpression(unOp.Operand)
	if err != nil {
		return nil, err
	}

	b := g.fn.builder
	switch unOp.Operator {
	case "+":
		return operand, nil
	case "-":
		return b.Binary(ir.OpSub, ir.NewConst(0), operand), nil
	case "!":
		return b.Binary(ir.OpEq, operand, ir.NewConst(0)), nil
	}
	return nil, fmt.Errorf("%s: unknown unary operator %s", unOp.Loc, unOp.Operator)
}

func (g *Generator) lowerBinaryOperation(binOp *ast.BinaryOperation) (*ir.Value, error) {
	op, ok := binaryOps[binOp.Operator]
	if !ok {
		return nil, fmt.Errorf("%s: unknown binary operator %s", binOp.Loc, binOp.Operator)
	}

	lhs, err := g.lowerExpression(binOp.Left)
	if err != nil {
		return nil, err
	}
	rhs, err := g.lowerExpression(binOp.Right)
	if err != nil {
		return nil, err
	}
	return g.fn.builder.Binary(op, lhs, rhs), nil
}

// lowerShortCircuit evaluates the right operand of && and || only when needed.
// The result arrives as the parameter of the end block.
func (g *Generator) lowerShortCircuit(binOp *ast.BinaryOperation) (*ir.Value, error) {
	lhs, err := g.lowerExpression(binOp.Left)
	if err != nil {
		return nil, err
	}

	b := g.fn.builder
	lhsBool := b.Binary(ir.OpNotEq, lhs, ir.NewConst(0))

	prefix := "land"
	if binOp.Operator == "||" {
		prefix = "lor"
	}
	id := b.NextID()
	rhsBlock := b.NewBlock(fmt.Sprintf("%%%s_rhs_%d", prefix, id))
	trueBlock := b.NewBlock(fmt.Sprintf("%%%s_true_%d", prefix, id))
	falseBlock := b.NewBlock(fmt.Sprintf("%%%s_false_%d", prefix, id))
	endBlock := b.NewBlock(fmt.Sprintf("%%%s_end_%d", prefix, id))
	result := endBlock.AddParam(fmt.Sprintf("%%%s_result_%d", prefix, id), lhsBool.Type)

	if binOp.Operator == "||" {
		b.Branch(lhsBool, trueBlock, rhsBlock)
	} else {
		b.Branch(lhsBool, rhsBlock, falseBlock)
	}

	b.SetBlock(rhsBlock)
	rhs, err := g.lowerExpression(binOp.Right)
	if err != nil {
		return nil, err
	}
	rhsBool := b.Binary(ir.OpNotEq, rhs, ir.NewConst(0))
	b.Branch(rhsBool, trueBlock, falseBlock)

	b.SetBlock(trueBlock)
	b.Jump(endBlock, ir.NewConst(1))

	b.SetBlock(falseBlock)
	b.Jump(endBlock, ir.NewConst(0))

	b.SetBlock(endBlock)
	return result, nil
}

// lowerCall returns nil for void callees.
func (g *Generator) lowerCall(call *ast.FunctionCall) (*ir.Value, error) {
	callee, ok := g.funcs[call.FunctionName]
	if !ok {
		return nil, errorAt(call.Loc, ErrUnknownFunction, "%s", call.FunctionName)
	}
	if len(call.Args) != len(callee.Type.Params) {
		return nil, errorAt(call.Loc, ErrArgumentCount, "%s expects %d arguments, got %d",
			call.FunctionName, len(callee.Type.Params), len(call.Args))
	}

	args := make([]*ir.Value, 0, len(call.Args))
	for i, argExpr := range call.Args {
		arg, err := g.lowerArgument(argExpr)
		if err != nil {
			return nil, err
		}
		if param := callee.Type.Params[i]; !param.Equals(arg.Type) {
			return nil, errorAt(argExpr.GetLocation(), ErrArgumentType, "argument %d of %s: expected %s, got %s",
				i+1, call.FunctionName, param, arg.Type)
		}
		args = append(args, arg)
	}
	return g.fn.builder.Call(callee, args), nil
}

// lowerArgument is like lowerExpression, except that arrays decay to a pointer to their first element.
func (g *Generator) lowerArgument(node ast.Expression) (*ir.Value, error) {
	lval, ok := node.(*ast.LVal)
	if !ok {
		return g.lowerExpression(node)
	}
	sym, err := g.scopes.Lookup(lval.Name)
	if err != nil {
		return nil, errorAt(lval.Loc, err, "%s", lval.Name)
	}
	if !sym.IsArray() || len(lval.Indices) >= len(sym.Dims) {
		return g.lowerLValLoad(lval)
	}

	b := g.fn.builder
	if sym.Kind == SymParamArray && len(lval.Indices) == 0 {
		return b.Load(sym.Ptr), nil
	}
	ptr, err := g.lowerElementAddress(sym, lval.Indices)
	if err != nil {
		return nil, err
	}
	return b.GetElemPtr(ptr, ir.NewConst(0)), nil
}

func (g *Generator) lowerLValLoad(lval *ast.LVal) (*ir.Value, error) {
	sym, err := g.scopes.Lookup(lval.Name)
	if err != nil {
		return nil, errorAt(lval.Loc, err, "%s", lval.Name)
	}

	if !sym.IsArray() {
		if len(lval.Indices) > 0 {
			return nil, errorAt(lval.Loc, ErrIndexIntoScalar, "%s", lval)
		}
		if sym.Kind == SymConst {
			return ir.NewConst(sym.Const), nil
		}
		return g.fn.builder.Load(sym.Ptr), nil
	}

	if len(lval.Indices) > len(sym.Dims) {
		return nil, errorAt(lval.Loc, ErrIndexIntoScalar, "%s", lval)
	} else if len(lval.Indices) < len(sym.Dims) {
		return nil, errorAt(lval.Loc, ErrLoadEntireArray, "%s", lval)
	}
	ptr, err := g.lowerElementAddress(sym, lval.Indices)
	if err != nil {
		return nil, err
	}
	return g.fn.builder.Load(ptr), nil
}

// lowerElementAddress computes the address of sym indexed by a prefix of its dimensions.
// A true array chains getelemptr. A parameter array loads the stored pointer, applies getptr
// for the first index and getelemptr for the rest.
func (g *Generator) lowerElementAddress(sym Symbol, indexExprs []ast.Expression) (*ir.Value, error) {
	indices := make([]*ir.Value, 0, len(indexExprs))
	for _, expr := range indexExprs {
		idx, err := g.lowerExpression(expr)
		if err != nil {
			return nil, err
		}
		indices = append(indices, idx)
	}

	b := g.fn.builder
	ptr := sym.Ptr
	if sym.Kind == SymParamArray {
		ptr = b.Load(sym.Ptr)
		for i, idx := range indices {
			if i == 0 {
				ptr = b.GetPtr(ptr, idx)
			} else {
				ptr = b.GetElemPtr(ptr, idx)
			}
		}
		return ptr, nil
	}

	for _, idx := range indices {
		ptr = b.GetElemPtr(ptr, idx)
	}
	return ptr, nil
}
