package irgen

import (
	"fmt"

	"github.com/iley/sysyc/internal/ast"
	"github.com/iley/sysyc/internal/ir"
	"github.com/iley/sysyc/internal/types"
)

type loopContext struct {
	header *ir.BasicBlock
	end    *ir.BasicBlock
}

// controlFlowContext is an enclosing if or while. Control leaving the construct goes to continuation:
// the end block of an if, the header of a loop.
type controlFlowContext struct {
	continuation *ir.BasicBlock
}

type pendingJump struct {
	from *ir.BasicBlock
	to   *ir.BasicBlock
}

type functionState struct {
	fn           *ir.Function
	builder      *ir.Builder
	loops        []loopContext
	controlFlow  []controlFlowContext
	pendingJumps []pendingJump
}

func newFunctionState(fn *ir.Function) *functionState {
	return &functionState{fn: fn, builder: ir.NewBuilder(fn)}
}

// recordPendingJump links the end block of a finished construct to the continuation of the enclosing one.
func (fs *functionState) recordPendingJump(end *ir.BasicBlock) {
	if len(fs.controlFlow) > 1 {
		outer := fs.controlFlow[len(fs.controlFlow)-2]
		fs.pendingJumps = append(fs.pendingJumps, pendingJump{from: end, to: outer.continuation})
	}
}

// finalizeFunction seals every block that is still open.
func (g *Generator) finalizeFunction() {
	b := g.fn.builder
	for _, pj := range g.fn.pendingJumps {
		if !pj.from.Terminated() {
			b.SetBlock(pj.from)
			b.Jump(pj.to)
		}
	}

	for _, block := range g.fn.fn.Blocks {
		if block.Terminated() {
			continue
		}
		b.SetBlock(block)
		if g.fn.fn.IsVoid() {
			b.Return(nil)
		} else {
			b.Return(ir.NewConst(0))
		}
	}
}

func (g *Generator) lowerStatement(node ast.Statement) error {
	if decl, ok := node.(*ast.Declaration); ok {
		return g.lowerLocalDeclaration(decl)
	} else if block, ok := node.(*ast.Block); ok {
		return g.lowerBlock(block)
	} else if stmt, ok := node.(*ast.ExpressionStatement); ok {
		return g.lowerExpressionStatement(stmt)
	} else if assgn, ok := node.(*ast.Assignment); ok {
		return g.lowerAssignment(assgn)
	} else if ret, ok := node.(*ast.ReturnStatement); ok {
		return g.lowerReturn(ret)
	} else if ifStmt, ok := node.(*ast.IfStatement); ok {
		return g.lowerIf(ifStmt)
	} else if while, ok := node.(*ast.WhileStatement); ok {
		return g.lowerWhile(while)
	} else if brk, ok := node.(*ast.BreakStatement); ok {
		if len(g.fn.loops) == 0 {
			return errorAt(brk.Loc, ErrBreakOutsideLoop, "break")
		}
		g.fn.builder.Jump(g.fn.loops[len(g.fn.loops)-1].end)
		return nil
	} else if cont, ok := node.(*ast.ContinueStatement); ok {
		if len(g.fn.loops) == 0 {
			return errorAt(cont.Loc, ErrContinueOutsideLoop, "continue")
		}
		g.fn.builder.Jump(g.fn.loops[len(g.fn.loops)-1].header)
		return nil
	}
	return fmt.Errorf("%s: unknown statement type: %v", node.GetLocation(), node)
}

func (g *Generator) lowerBlock(block *ast.Block) error {
	g.scopes.Enter()
	defer g.scopes.Exit()

	for _, item := range block.Items {
		if err := g.lowerStatement(item); err != nil {
			return err
		}
	}
	return nil
}

// lowerScopedStatement lowers the body of an if or while. A lone statement gets its own scope too.
func (g *Generator) lowerScopedStatement(node ast.Statement) error {
	if block, ok := node.(*ast.Block); ok {
		return g.lowerBlock(block)
	}
	g.scopes.Enter()
	defer g.scopes.Exit()
	return g.lowerStatement(node)
}

func (g *Generator) lowerExpressionStatement(stmt *ast.ExpressionStatement) error {
	if stmt.Expression == nil {
		return nil
	}
	// Calls to void functions are allowed here.
	if call, ok := stmt.Expression.(*ast.FunctionCall); ok {
		_, err := g.lowerCall(call)
		return err
	}
	_, err := g.lowerExpression(stmt.Expression)
	return err
}

func (g *Generator) lowerAssignment(assgn *ast.Assignment) error {
	value, err := g.lowerExpression(assgn.Value)
	if err != nil {
		return err
	}

	target := assgn.Target
	sym, err := g.scopes.Lookup(target.Name)
	if err != nil {
		return errorAt(target.Loc, err, "%s", target.Name)
	}
	if sym.IsConst() {
		return errorAt(target.Loc, ErrAssignToConstant, "%s", target.Name)
	}

	if !sym.IsArray() {
		if len(target.Indices) > 0 {
			return errorAt(target.Loc, ErrIndexIntoScalar, "%s", target)
		}
		g.fn.builder.Store(value, sym.Ptr)
		return nil
	}

	if len(target.Indices) > len(sym.Dims) {
		return errorAt(target.Loc, ErrIndexIntoScalar, "%s", target)
	} else if len(target.Indices) < len(sym.Dims) {
		return errorAt(target.Loc, ErrAssignToArray, "%s", target)
	}
	ptr, err := g.lowerElementAddress(sym, target.Indices)
	if err != nil {
		return err
	}
	g.fn.builder.Store(value, ptr)
	return nil
}

func (g *Generator) lowerReturn(ret *ast.ReturnStatement) error {
	isVoid := g.fn.fn.IsVoid()
	if isVoid && ret.Value != nil {
		return errorAt(ret.Loc, ErrReturnMismatch, "void function %s returns a value", g.fn.fn.Symbol())
	} else if !isVoid && ret.Value == nil {
		return errorAt(ret.Loc, ErrReturnMismatch, "function %s must return a value", g.fn.fn.Symbol())
	}

	if ret.Value == nil {
		g.fn.builder.Return(nil)
		return nil
	}
	value, err := g.lowerExpression(ret.Value)
	if err != nil {
		return err
	}
	g.fn.builder.Return(value)
	return nil
}

func (g *Generator) lowerIf(stmt *ast.IfStatement) error {
	cond, err := g.lowerExpression(stmt.Condition)
	if err != nil {
		return err
	}

	b := g.fn.builder
	id := b.NextID()
	thenBlock := b.NewBlock(fmt.Sprintf("%%then_%d", id))
	elseBlock := b.NewBlock(fmt.Sprintf("%%else_%d", id))
	endBlock := b.NewBlock(fmt.Sprintf("%%end_%d", id))

	b.Branch(cond, thenBlock, elseBlock)
	g.fn.controlFlow = append(g.fn.controlFlow, controlFlowContext{continuation: endBlock})

	b.SetBlock(thenBlock)
	if err := g.lowerScopedStatement(stmt.Then); err != nil {
		return err
	}
	if !b.Block().Terminated() {
		b.Jump(endBlock)
	}

	b.SetBlock(elseBlock)
	if stmt.Else != nil {
		if err := g.lowerScopedStatement(stmt.Else); err != nil {
			return err
		}
	}
	if !b.Block().Terminated() {
		b.Jump(endBlock)
	}

	b.SetBlock(endBlock)
	g.fn.recordPendingJump(endBlock)
	g.fn.controlFlow = g.fn.controlFlow[:len(g.fn.controlFlow)-1]
	return nil
}

func (g *Generator) lowerWhile(stmt *ast.WhileStatement) error {
	b := g.fn.builder
	id := b.NextID()
	condBlock := b.NewBlock(fmt.Sprintf("%%while_cond_%d", id))
	bodyBlock := b.NewBlock(fmt.Sprintf("%%while_body_%d", id))
	endBlock := b.NewBlock(fmt.Sprintf("%%while_end_%d", id))

	b.Jump(condBlock)
	g.fn.loops = append(g.fn.loops, loopContext{header: condBlock, end: endBlock})
	g.fn.controlFlow = append(g.fn.controlFlow, controlFlowContext{continuation: condBlock})

	b.SetBlock(condBlock)
	cond, err := g.lowerExpression(stmt.Condition)
	if err != nil {
		return err
	}
	b.Branch(cond, bodyBlock, endBlock)

	b.SetBlock(bodyBlock)
	if err := g.lowerScopedStatement(stmt.Body); err != nil {
		return err
	}
	if !b.Block().Terminated() {
		b.Jump(condBlock)
	}

	b.SetBlock(endBlock)
	g.fn.recordPendingJump(endBlock)
	g.fn.loops = g.fn.loops[:len(g.fn.loops)-1]
	g.fn.controlFlow = g.fn.controlFlow[:len(g.fn.controlFlow)-1]
	return nil
}

func (g *Generator) lowerLocalDeclaration(decl *ast.Declaration) error {
	for _, def := range decl.Defs {
		dims, err := g.evalDims(def.Dims)
		if err != nil {
			return err
		}

		var sym Symbol
		if decl.Const {
			sym, err = g.lowerLocalConstDef(def, dims)
		} else {
			sym, err = g.lowerLocalVarDef(def, dims)
		}
		if err != nil {
			return err
		}

		if err := g.scopes.Define(def.Name, sym); err != nil {
			return errorAt(def.Loc, err, "%s", def.Name)
		}
	}
	return nil
}

func (g *Generator) lowerLocalConstDef(def ast.Def, dims []int) (Symbol, error) {
	if def.Init == nil {
		return Symbol{}, errorAt(def.Loc, ErrNotConstant, "constant %s has no initializer", def.Name)
	}
	tree, err := newConstInitializer(def.Init, g.evalConst)
	if err != nil {
		return Symbol{}, err
	}
	init, err := Reshape(tree, dims)
	if err != nil {
		return Symbol{}, errorAt(def.Loc, err, "%s", def.Name)
	}

	if len(dims) == 0 {
		return Symbol{Kind: SymConst, Const: init.Const}, nil
	}

	slot := g.fn.builder.Alloc(g.scopes.UniqueName(def.Name), types.ArrayOf(types.Int32, dims))
	g.storeElements(slot, dims, init.Flatten())
	return Symbol{Kind: SymLocalConstArray, Ptr: slot, Dims: dims, Values: init.ConstValues()}, nil
}

func (g *Generator) lowerLocalVarDef(def ast.Def, dims []int) (Symbol, error) {
	b := g.fn.builder
	slot := b.Alloc(g.scopes.UniqueName(def.Name), types.ArrayOf(types.Int32, dims))

	kind := SymVar
	if len(dims) > 0 {
		kind = SymLocalArray
	}
	sym := Symbol{Kind: kind, Ptr: slot, Dims: dims}

	if def.Init == nil {
		return sym, nil
	}
	tree, err := newValueInitializer(def.Init, g.lowerExpression)
	if err != nil {
		return Symbol{}, err
	}
	init, err := Reshape(tree, dims)
	if err != nil {
		return Symbol{}, errorAt(def.Loc, err, "%s", def.Name)
	}

	if len(dims) == 0 {
		b.Store(init.IRValue(), slot)
	} else {
		g.storeElements(slot, dims, init.Flatten())
	}
	return sym, nil
}

// storeElements writes every element of a local array, padding zeros included.
func (g *Generator) storeElements(base *ir.Value, dims []int, leaves []Initializer) {
	b := g.fn.builder
	indices := make([]int, len(dims))
	for _, leaf := range leaves {
		ptr := base
		for _, idx := range indices {
			ptr = b.GetElemPtr(ptr, ir.NewConst(int32(idx)))
		}
		b.Store(leaf.IRValue(), ptr)

		// Advance the row-major index.
		for d := len(dims) - 1; d >= 0; d-- {
			indices[d]++
			if indices[d] < dims[d] {
				break
			}
			indices[d] = 0
		}
	}
}
