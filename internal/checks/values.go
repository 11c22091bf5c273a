package checks

import (
	"errors"
	"fmt"

	"github.com/iley/sysyc/internal/ir"
)

var (
	ErrUndefinedValue = errors.New("use of a value not defined in this function")
	ErrRedefinedValue = errors.New("value defined twice")
	ErrUnknownGlobal  = errors.New("use of an undeclared global")
)

// ValueChecker verifies that every operand is a constant, a global of the program or a
// value defined exactly once inside the function.
type ValueChecker struct {
	fn      *ir.Function
	globals map[*ir.Value]bool
	defined map[*ir.Value]bool
	errors  []error
}

func NewValueChecker(prog *ir.Program, fn *ir.Function) *ValueChecker {
	globals := make(map[*ir.Value]bool)
	for _, global := range prog.Globals {
		globals[global.Value] = true
	}
	return &ValueChecker{
		fn:      fn,
		globals: globals,
		defined: make(map[*ir.Value]bool),
		errors:  []error{},
	}
}

func (c *ValueChecker) Errors() []error {
	return c.errors
}

func (c *ValueChecker) Check() {
	for _, param := range c.fn.Params {
		c.define(param)
	}
	// Block order does not follow dominance, so definitions are gathered first.
	for _, block := range c.fn.Blocks {
		for _, param := range block.Params {
			c.define(param)
		}
		for _, inst := range block.Insts {
			if result := inst.Result(); result != nil {
				c.define(result)
			}
		}
	}

	for _, block := range c.fn.Blocks {
		for _, inst := range block.Insts {
			for _, operand := range inst.Operands() {
				c.checkOperand(operand, inst)
			}
		}
	}
}

func (c *ValueChecker) define(val *ir.Value) {
	if c.defined[val] {
		c.errors = append(c.errors, fmt.Errorf("%s: %w: %s", c.fn.Name, ErrRedefinedValue, val.Name))
	}
	c.defined[val] = true
}

func (c *ValueChecker) checkOperand(val *ir.Value, inst ir.Inst) {
	switch {
	case val.IsConst():
		return
	case val.Kind == ir.ValueGlobal:
		if !c.globals[val] {
			c.errors = append(c.errors, fmt.Errorf("%s: %w: %s in %q", c.fn.Name, ErrUnknownGlobal, val.Name, inst))
		}
	case !c.defined[val]:
		c.errors = append(c.errors, fmt.Errorf("%s: %w: %s in %q", c.fn.Name, ErrUndefinedValue, val.Name, inst))
	}
}
