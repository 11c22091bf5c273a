package irgen

import (
	"github.com/iley/sysyc/internal/ast"
	"github.com/iley/sysyc/internal/functions"
	"github.com/iley/sysyc/internal/ir"
	"github.com/iley/sysyc/internal/logger"
	"github.com/iley/sysyc/internal/types"
)

const entryFunction = "main"

// Generator lowers a whole program. It is not reusable across programs.
type Generator struct {
	program *ir.Program
	scopes  *ScopeStack
	protos  *functions.Table
	funcs   map[string]*ir.Function
	// State of the function being lowered.
	fn *functionState
}

func NewGenerator() *Generator {
	return &Generator{
		program: &ir.Program{},
		scopes:  NewScopeStack(),
		protos:  functions.NewTable(),
		funcs:   make(map[string]*ir.Function),
	}
}

// Generate lowers the program to IR. It stops at the first semantic error.
func Generate(node *ast.Program) (*ir.Program, error) {
	return NewGenerator().Generate(node)
}

func (g *Generator) Generate(node *ast.Program) (*ir.Program, error) {
	for _, proto := range g.protos.All() {
		fn := ir.NewFunction("@"+proto.Name, proto.Type(), nil)
		g.program.Functions = append(g.program.Functions, fn)
		g.funcs[proto.Name] = fn
	}

	var funcNodes []*ast.Function
	for _, item := range node.Items {
		if decl, ok := item.(*ast.Declaration); ok {
			if err := g.lowerGlobalDeclaration(decl); err != nil {
				return nil, err
			}
		} else if fn, ok := item.(*ast.Function); ok {
			funcNodes = append(funcNodes, fn)
		}
	}

	hasEntry := false
	for _, fn := range funcNodes {
		if fn.Name == entryFunction {
			hasEntry = true
		}
	}
	if !hasEntry {
		return nil, errorAt(node.Loc, ErrMissingEntryFunction, "function %s is not defined", entryFunction)
	}

	// Register all signatures first so that calls can refer to functions defined later.
	for _, fn := range funcNodes {
		if err := g.declareFunction(fn); err != nil {
			return nil, err
		}
	}

	for _, fn := range funcNodes {
		if err := g.lowerFunction(fn); err != nil {
			return nil, err
		}
	}

	logger.LogPhase("irgen", "globals", len(g.program.Globals), "functions", len(funcNodes))
	return g.program, nil
}

func (g *Generator) declareFunction(node *ast.Function) error {
	proto := functions.Proto{Name: node.Name, ReturnType: types.Int32}
	if node.ReturnType == ast.TypeVoid {
		proto.ReturnType = types.Unit
	}

	paramNames := make([]string, 0, len(node.Params))
	for _, param := range node.Params {
		typ, err := g.paramType(param)
		if err != nil {
			return err
		}
		proto.Params = append(proto.Params, functions.Param{Name: param.Name, Typ: typ})
		paramNames = append(paramNames, "%"+param.Name)
	}

	// Functions share the global namespace with global variables.
	if _, err := g.scopes.Lookup(node.Name); err == nil || !g.protos.Add(proto) {
		return errorAt(node.Loc, ErrDuplicateDefinition, "function %s", node.Name)
	}

	fn := ir.NewFunction("@"+node.Name, proto.Type(), paramNames)
	g.program.Functions = append(g.program.Functions, fn)
	g.funcs[node.Name] = fn
	return nil
}

// paramType decays array parameters: int a[][3] becomes *[i32, 3].
func (g *Generator) paramType(param ast.Param) (types.Type, error) {
	if !param.IsArray {
		return types.Int32, nil
	}
	dims, err := g.evalDims(param.Dims)
	if err != nil {
		return nil, err
	}
	return types.NewPointerType(types.ArrayOf(types.Int32, dims)), nil
}

func (g *Generator) lowerFunction(node *ast.Function) error {
	fn := g.funcs[node.Name]
	g.fn = newFunctionState(fn)
	defer func() { g.fn = nil }()

	b := g.fn.builder
	b.SetBlock(b.NewBlock("%entry"))

	// Parameters live in the same scope as the outermost block of the body.
	g.scopes.Enter()
	defer g.scopes.Exit()

	for i, param := range node.Params {
		slot := b.Alloc(g.scopes.UniqueName(param.Name), fn.Params[i].Type)
		b.Store(fn.Params[i], slot)

		sym := Symbol{Kind: SymVar, Ptr: slot}
		if param.IsArray {
			dims, err := g.evalDims(param.Dims)
			if err != nil {
				return err
			}
			sym = Symbol{Kind: SymParamArray, Ptr: slot, Dims: append([]int{0}, dims...)}
		}
		if err := g.scopes.Define(param.Name, sym); err != nil {
			return errorAt(param.Loc, err, "parameter %s", param.Name)
		}
	}

	for _, item := range node.Body.Items {
		if err := g.lowerStatement(item); err != nil {
			return err
		}
	}

	g.finalizeFunction()

	insts := 0
	for _, block := range fn.Blocks {
		insts += len(block.Insts)
	}
	logger.LogFunction("irgen", node.Name, "blocks", len(fn.Blocks), "insts", insts)
	return nil
}

func (g *Generator) lowerGlobalDeclaration(decl *ast.Declaration) error {
	for _, def := range decl.Defs {
		// Runtime functions own their symbols.
		if _, isFunc := g.funcs[def.Name]; isFunc {
			return errorAt(def.Loc, ErrDuplicateDefinition, "%s is a runtime function", def.Name)
		}
		dims, err := g.evalDims(def.Dims)
		if err != nil {
			return err
		}

		sym, err := g.lowerGlobalDef(decl.Const, def, dims)
		if err != nil {
			return err
		}
		if err := g.scopes.Define(def.Name, sym); err != nil {
			return errorAt(def.Loc, err, "%s", def.Name)
		}
	}
	return nil
}

func (g *Generator) lowerGlobalDef(isConst bool, def ast.Def, dims []int) (Symbol, error) {
	var init *Initializer
	if def.Init != nil {
		tree, err := newConstInitializer(def.Init, g.evalConst)
		if err != nil {
			return Symbol{}, err
		}
		reshaped, err := Reshape(tree, dims)
		if err != nil {
			return Symbol{}, errorAt(def.Loc, err, "%s", def.Name)
		}
		init = &reshaped
	}

	if isConst && init == nil {
		return Symbol{}, errorAt(def.Loc, ErrNotConstant, "constant %s has no initializer", def.Name)
	}

	// Scalar constants have no storage.
	if isConst && len(dims) == 0 {
		return Symbol{Kind: SymConst, Const: init.Const}, nil
	}

	typ := types.ArrayOf(types.Int32, dims)
	constant := ir.NewZeroInit()
	if init != nil {
		constant = init.IntoConst()
	}
	global := ir.NewGlobal("@"+def.Name, typ, constant)
	g.program.Globals = append(g.program.Globals, global)

	switch {
	case len(dims) == 0:
		return Symbol{Kind: SymGlobalVar, Ptr: global.Value}, nil
	case isConst:
		return Symbol{Kind: SymGlobalConstArray, Ptr: global.Value, Dims: dims, Values: init.ConstValues()}, nil
	default:
		return Symbol{Kind: SymGlobalArray, Ptr: global.Value, Dims: dims}, nil
	}
}
