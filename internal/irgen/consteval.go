package irgen

import (
	"github.com/iley/sysyc/internal/ast"
)

// evalConst evaluates a compile-time constant expression with C semantics on int32.
func (g *Generator) evalConst(expr ast.Expression) (int32, error) {
	if lit, ok := expr.(*ast.IntLiteral); ok {
		return lit.Value, nil
	} else if lval, ok := expr.(*ast.LVal); ok {
		return g.evalConstLVal(lval)
	} else if unOp, ok := expr.(*ast.UnaryOperation); ok {
		val, err := g.evalConst(unOp.Operand)
		if err != nil {
			return 0, err
		}
		switch unOp.Operator {
		case "-":
			return -val, nil
		case "+":
			return val, nil
		case "!":
			return boolToInt(val == 0), nil
		}
		return 0, errorAt(unOp.Loc, ErrNotConstant, "unknown unary operator %s", unOp.Operator)
	} else if binOp, ok := expr.(*ast.BinaryOperation); ok {
		return g.evalConstBinary(binOp)
	}
	return 0, errorAt(expr.GetLocation(), ErrNotConstant, "%s", expr)
}

func (g *Generator) evalConstLVal(lval *ast.LVal) (int32, error) {
	sym, err := g.scopes.Lookup(lval.Name)
	if err != nil {
		return 0, errorAt(lval.Loc, err, "%s", lval.Name)
	}

	if sym.Kind == SymConst {
		if len(lval.Indices) > 0 {
			return 0, errorAt(lval.Loc, ErrIndexIntoScalar, "%s", lval.Name)
		}
		return sym.Const, nil
	}

	if sym.Kind != SymLocalConstArray && sym.Kind != SymGlobalConstArray {
		return 0, errorAt(lval.Loc, ErrNotConstant, "%s is not a constant", lval.Name)
	}
	if len(lval.Indices) > len(sym.Dims) {
		return 0, errorAt(lval.Loc, ErrIndexIntoScalar, "%s", lval)
	}
	if len(lval.Indices) < len(sym.Dims) {
		return 0, errorAt(lval.Loc, ErrLoadEntireArray, "%s", lval)
	}

	flat := 0
	for i, idxExpr := range lval.Indices {
		idx, err := g.evalConst(idxExpr)
		if err != nil {
			return 0, err
		}
		if idx < 0 || int(idx) >= sym.Dims[i] {
			return 0, errorAt(idxExpr.GetLocation(), ErrNotConstant, "index %d out of range for %s", idx, lval.Name)
		}
		flat = flat*sym.Dims[i] + int(idx)
	}
	return sym.Values[flat], nil
}

func (g *Generator) evalConstBinary(binOp *ast.BinaryOperation) (int32, error) {
	lhs, err := g.evalConst(binOp.Left)
	if err != nil {
		return 0, err
	}

	// Short-circuit: the right operand is not evaluated, and need not be constant.
	if binOp.Operator == "&&" && lhs == 0 {
		return 0, nil
	} else if binOp.Operator == "||" && lhs != 0 {
		return 1, nil
	}

	rhs, err := g.evalConst(binOp.Right)
	if err != nil {
		return 0, err
	}

	switch binOp.Operator {
	case "+":
		return lhs + rhs, nil
	case "-":
		return lhs - rhs, nil
	case "*":
		return lhs * rhs, nil
	case "/", "%":
		if rhs == 0 {
			return 0, errorAt(binOp.Loc, ErrDivisionByZero, "%s", binOp)
		}
		if binOp.Operator == "/" {
			return lhs / rhs, nil
		}
		return lhs % rhs, nil
	case "<":
		return boolToInt(lhs < rhs), nil
	case ">":
		return boolToInt(lhs > rhs), nil
	case "<=":
		return boolToInt(lhs <= rhs), nil
	case ">=":
		return boolToInt(lhs >= rhs), nil
	case "==":
		return boolToInt(lhs == rhs), nil
	case "!=":
		return boolToInt(lhs != rhs), nil
	case "&&", "||":
		return boolToInt(rhs != 0), nil
	}
	return 0, errorAt(binOp.Loc, ErrNotConstant, "unknown binary operator %s", binOp.Operator)
}

// evalDims evaluates array dimensions, which must be positive constants.
func (g *Generator) evalDims(exprs []ast.Expression) ([]int, error) {
	dims := make([]int, 0, len(exprs))
	for _, expr := range exprs {
		d, err := g.evalConst(expr)
		if err != nil {
			return nil, err
		}
		if d <= 0 {
			return nil, errorAt(expr.GetLocation(), ErrInvalidDimension, "%d", d)
		}
		dims = append(dims, int(d))
	}
	return dims, nil
}

func boolToInt(b bool) int32 {
	if b {
		return 1
	}
	return 0
}
