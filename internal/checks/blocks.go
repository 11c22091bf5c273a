package checks

import (
	"errors"
	"fmt"

	"github.com/iley/sysyc/internal/ir"
)

var (
	ErrMissingTerminator   = errors.New("block does not end with a terminator")
	ErrMisplacedTerminator = errors.New("terminator in the middle of a block")
	ErrForeignBlock        = errors.New("jump to a block of another function")
	ErrBlockArgCount       = errors.New("wrong number of block arguments")
	ErrDuplicateBlock      = errors.New("duplicate block name")
)

// BlockChecker verifies control flow: one terminator per block and well-formed edges.
type BlockChecker struct {
	fn     *ir.Function
	blocks map[*ir.BasicBlock]bool
	errors []error
}

func NewBlockChecker(fn *ir.Function) *BlockChecker {
	return &BlockChecker{
		fn:     fn,
		blocks: make(map[*ir.BasicBlock]bool),
		errors: []error{},
	}
}

func (c *BlockChecker) Errors() []error {
	return c.errors
}

func (c *BlockChecker) Check() {
	names := make(map[string]bool)
	for _, block := range c.fn.Blocks {
		c.blocks[block] = true
		if names[block.Name] {
			c.fail(block, ErrDuplicateBlock, "")
		}
		names[block.Name] = true
	}

	for _, block := range c.fn.Blocks {
		c.checkBlock(block)
	}
}

func (c *BlockChecker) checkBlock(block *ir.BasicBlock) {
	if !block.Terminated() {
		c.fail(block, ErrMissingTerminator, "")
		return
	}

	for i, inst := range block.Insts {
		if ir.IsTerminator(inst) && i != len(block.Insts)-1 {
			c.fail(block, ErrMisplacedTerminator, inst.String())
		}
	}

	switch term := block.Insts[len(block.Insts)-1].(type) {
	case *ir.Jump:
		c.checkEdge(block, term.Target, len(term.Args))
	case *ir.Branch:
		c.checkEdge(block, term.True, 0)
		c.checkEdge(block, term.False, 0)
	}
}

func (c *BlockChecker) checkEdge(from, to *ir.BasicBlock, args int) {
	if !c.blocks[to] {
		c.fail(from, ErrForeignBlock, to.Name)
		return
	}
	if len(to.Params) != args {
		c.fail(from, ErrBlockArgCount, fmt.Sprintf("%s takes %d, got %d", to.Name, len(to.Params), args))
	}
}

func (c *BlockChecker) fail(block *ir.BasicBlock, err error, detail string) {
	if detail == "" {
		c.errors = append(c.errors, fmt.Errorf("%s %s: %w", c.fn.Name, block.Name, err))
		return
	}
	c.errors = append(c.errors, fmt.Errorf("%s %s: %w: %s", c.fn.Name, block.Name, err, detail))
}
