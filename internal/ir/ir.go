package ir

import (
	"fmt"
	"io"
	"strings"

	"github.com/iley/sysyc/internal/types"
)

/*
Intermediate representation for SysY. This sits between AST and machine code.
A function is a list of basic blocks. Blocks may take parameters, which replace phi nodes.
Every block ends with exactly one terminator: jump, br or ret.

Here are the supported instructions:
 * alloc T - reserve stack storage for a T, result is *T.
 * load P - read the value behind pointer P.
 * store V, P - write V through pointer P.
 * getelemptr P, I - given P: *[T, n], address of element I, result is *T.
 * getptr P, I - given P: *T, address P + I * sizeof(T), result is *T.
 * BinaryOp L, R - arithmetic, bitwise and comparison ops on i32.
 * call @f(args) - call a function, result is absent for void functions.
 * jump %b(args) - unconditional jump passing block arguments.
 * br C, %t, %f - jump to %t if C is non-zero, to %f otherwise.
 * ret [V] - return from the function.
*/

type Program struct {
	Globals   []*Global
	Functions []*Function
}

// Print writes the textual dump: declarations, then globals, then function definitions.
func (p *Program) Print(writer io.Writer) error {
	_, err := io.WriteString(writer, p.String())
	return err
}

func (p *Program) String() string {
	var sections []string

	var decls []string
	for _, fn := range p.Functions {
		if fn.IsDeclaration() {
			decls = append(decls, fn.String())
		}
	}
	if len(decls) > 0 {
		sections = append(sections, strings.Join(decls, ""))
	}

	var globals []string
	for _, global := range p.Globals {
		globals = append(globals, global.String()+"\n")
	}
	if len(globals) > 0 {
		sections = append(sections, strings.Join(globals, ""))
	}

	for _, fn := range p.Functions {
		if !fn.IsDeclaration() {
			sections = append(sections, fn.String())
		}
	}
	return strings.Join(sections, "\n")
}

// FindFunction returns the function with the given source name, e.g. "main".
func (p *Program) FindFunction(name string) *Function {
	for _, fn := range p.Functions {
		if fn.Name == "@"+name {
			return fn
		}
	}
	return nil
}

type ConstKind int

const (
	ConstInt ConstKind = iota
	ConstZeroInit
	ConstAggregate
)

// Constant is a static initializer of a global.
type Constant struct {
	Kind  ConstKind
	Int   int32
	Elems []*Constant
}

func (c *Constant) String() string {
	switch c.Kind {
	case ConstInt:
		return fmt.Sprintf("%d", c.Int)
	case ConstZeroInit:
		return "zeroinit"
	}
	parts := make([]string, len(c.Elems))
	for i, elem := range c.Elems {
		parts[i] = elem.String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// Words flattens the constant into 32-bit words, expanding zeroinit to the size of typ.
func (c *Constant) Words(typ types.Type) []int32 {
	switch c.Kind {
	case ConstInt:
		return []int32{c.Int}
	case ConstZeroInit:
		return make([]int32, types.GetTypeSize(typ)/types.WORD_SIZE)
	}
	var elemType types.Type = types.Int32
	if arr, ok := typ.(*types.ArrayType); ok {
		elemType = arr.ElementType
	}
	words := []int32{}
	for _, elem := range c.Elems {
		words = append(words, elem.Words(elemType)...)
	}
	return words
}

func NewIntConstant(val int32) *Constant {
	return &Constant{Kind: ConstInt, Int: val}
}

func NewZeroInit() *Constant {
	return &Constant{Kind: ConstZeroInit}
}

func NewAggregate(elems []*Constant) *Constant {
	return &Constant{Kind: ConstAggregate, Elems: elems}
}

type Global struct {
	// Value is the address of the global, its type is *Type.
	Value *Value
	Type  types.Type
	Init  *Constant
}

func NewGlobal(name string, typ types.Type, init *Constant) *Global {
	return &Global{
		Value: newValue(ValueGlobal, types.NewPointerType(typ), name),
		Type:  typ,
		Init:  init,
	}
}

func (g *Global) Name() string {
	return g.Value.Name
}

func (g *Global) String() string {
	return fmt.Sprintf("global %s = alloc %s, %s", g.Value.Name, g.Type, g.Init)
}

type Function struct {
	Name   string
	Type   *types.FunctionType
	Params []*Value
	Blocks []*BasicBlock
}

// NewFunction creates a function with parameter values named after paramNames.
// A nil paramNames gives a declaration.
func NewFunction(name string, typ *types.FunctionType, paramNames []string) *Function {
	fn := &Function{Name: name, Type: typ}
	for i, paramName := range paramNames {
		param := newValue(ValueFuncArg, typ.Params[i], paramName)
		param.Index = i
		fn.Params = append(fn.Params, param)
	}
	return fn
}

func (f *Function) IsDeclaration() bool {
	return len(f.Blocks) == 0
}

// Symbol returns the assembler symbol of the function.
func (f *Function) Symbol() string {
	return strings.TrimPrefix(f.Name, "@")
}

func (f *Function) IsVoid() bool {
	return f.Type.Return.Equals(types.Unit)
}

func (f *Function) String() string {
	var sb strings.Builder
	ret := ""
	if !f.IsVoid() {
		ret = ": " + f.Type.Return.String()
	}

	if f.IsDeclaration() {
		parts := make([]string, len(f.Type.Params))
		for i, param := range f.Type.Params {
			parts[i] = param.String()
		}
		fmt.Fprintf(&sb, "decl %s(%s)%s\n", f.Name, strings.Join(parts, ", "), ret)
		return sb.String()
	}

	parts := make([]string, len(f.Params))
	for i, param := range f.Params {
		parts[i] = fmt.Sprintf("%s: %s", param.Name, param.Type)
	}
	fmt.Fprintf(&sb, "fun %s(%s)%s {\n", f.Name, strings.Join(parts, ", "), ret)
	for _, block := range f.Blocks {
		sb.WriteString(block.String())
	}
	sb.WriteString("}\n")
	return sb.String()
}

type BasicBlock struct {
	Name   string
	Params []*Value
	Insts  []Inst
}

// AddParam appends a block parameter and returns its value.
func (b *BasicBlock) AddParam(name string, typ types.Type) *Value {
	param := newValue(ValueBlockArg, typ, name)
	param.Index = len(b.Params)
	b.Params = append(b.Params, param)
	return param
}

// Terminated reports whether the block already ends with jump, br or ret.
func (b *BasicBlock) Terminated() bool {
	if len(b.Insts) == 0 {
		return false
	}
	return IsTerminator(b.Insts[len(b.Insts)-1])
}

func (b *BasicBlock) Header() string {
	if len(b.Params) == 0 {
		return b.Name + ":"
	}
	parts := make([]string, len(b.Params))
	for i, param := range b.Params {
		parts[i] = fmt.Sprintf("%s: %s", param.Name, param.Type)
	}
	return fmt.Sprintf("%s(%s):", b.Name, strings.Join(parts, ", "))
}

func (b *BasicBlock) String() string {
	var sb strings.Builder
	sb.WriteString(b.Header())
	sb.WriteString("\n")
	for _, inst := range b.Insts {
		fmt.Fprintf(&sb, "  %s\n", inst)
	}
	return sb.String()
}

type Inst interface {
	fmt.Stringer
	// Result returns the value defined by the instruction or nil.
	Result() *Value
	// Operands returns all values used by the instruction.
	Operands() []*Value
}

func IsTerminator(inst Inst) bool {
	switch inst.(type) {
	case *Jump, *Branch, *Return:
		return true
	}
	return false
}

type Alloc struct {
	Dest *Value
	Elem types.Type
}

func (a *Alloc) String() string {
	return fmt.Sprintf("%s = alloc %s", a.Dest.Name, a.Elem)
}

func (a *Alloc) Result() *Value {
	return a.Dest
}

func (a *Alloc) Operands() []*Value {
	return nil
}

type Load struct {
	Dest *Value
	Src  *Value
}

func (l *Load) String() string {
	return fmt.Sprintf("%s = load %s", l.Dest.Name, l.Src)
}

func (l *Load) Result() *Value {
	return l.Dest
}

func (l *Load) Operands() []*Value {
	return []*Value{l.Src}
}

type Store struct {
	Value *Value
	Dest  *Value
}

func (s *Store) String() string {
	return fmt.Sprintf("store %s, %s", s.Value, s.Dest)
}

func (s *Store) Result() *Value {
	return nil
}

func (s *Store) Operands() []*Value {
	return []*Value{s.Value, s.Dest}
}

type GetElemPtr struct {
	Dest  *Value
	Src   *Value
	Index *Value
}

func (g *GetElemPtr) String() string {
	return fmt.Sprintf("%s = getelemptr %s, %s", g.Dest.Name, g.Src, g.Index)
}

func (g *GetElemPtr) Result() *Value {
	return g.Dest
}

func (g *GetElemPtr) Operands() []*Value {
	return []*Value{g.Src, g.Index}
}

type GetPtr struct {
	Dest  *Value
	Src   *Value
	Index *Value
}

func (g *GetPtr) String() string {
	return fmt.Sprintf("%s = getptr %s, %s", g.Dest.Name, g.Src, g.Index)
}

func (g *GetPtr) Result() *Value {
	return g.Dest
}

func (g *GetPtr) Operands() []*Value {
	return []*Value{g.Src, g.Index}
}

type BinaryOp int

const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpEq
	OpNotEq
	OpLt
	OpGt
	OpLe
	OpGe
	OpAnd
	OpOr
	OpXor
)

var binaryOpNames = []string{
	OpAdd:   "add",
	OpSub:   "sub",
	OpMul:   "mul",
	OpDiv:   "div",
	OpMod:   "mod",
	OpEq:    "eq",
	OpNotEq: "ne",
	OpLt:    "lt",
	OpGt:    "gt",
	OpLe:    "le",
	OpGe:    "ge",
	OpAnd:   "and",
	OpOr:    "or",
	OpXor:   "xor",
}

func (op BinaryOp) String() string {
	if int(op) < len(binaryOpNames) {
		return binaryOpNames[op]
	}
	return fmt.Sprintf("op%d", int(op))
}

type Binary struct {
	Dest *Value
	Op   BinaryOp
	Lhs  *Value
	Rhs  *Value
}

func (b *Binary) String() string {
	return fmt.Sprintf("%s = %s %s, %s", b.Dest.Name, b.Op, b.Lhs, b.Rhs)
}

func (b *Binary) Result() *Value {
	return b.Dest
}

func (b *Binary) Operands() []*Value {
	return []*Value{b.Lhs, b.Rhs}
}

type Call struct {
	// Dest is nil when the callee returns unit.
	Dest   *Value
	Callee *Function
	Args   []*Value
}

func (c *Call) String() string {
	call := fmt.Sprintf("call %s(%s)", c.Callee.Name, joinValues(c.Args))
	if c.Dest == nil {
		return call
	}
	return fmt.Sprintf("%s = %s", c.Dest.Name, call)
}

func (c *Call) Result() *Value {
	return c.Dest
}

func (c *Call) Operands() []*Value {
	return c.Args
}

type Jump struct {
	Target *BasicBlock
	Args   []*Value
}

func (j *Jump) String() string {
	if len(j.Args) == 0 {
		return fmt.Sprintf("jump %s", j.Target.Name)
	}
	return fmt.Sprintf("jump %s(%s)", j.Target.Name, joinValues(j.Args))
}

func (j *Jump) Result() *Value {
	return nil
}

func (j *Jump) Operands() []*Value {
	return j.Args
}

type Branch struct {
	Cond  *Value
	True  *BasicBlock
	False *BasicBlock
}

func (b *Branch) String() string {
	return fmt.Sprintf("br %s, %s, %s", b.Cond, b.True.Name, b.False.Name)
}

func (b *Branch) Result() *Value {
	return nil
}

func (b *Branch) Operands() []*Value {
	return []*Value{b.Cond}
}

type Return struct {
	// Value is nil for void functions.
	Value *Value
}

func (r *Return) String() string {
	if r.Value == nil {
		return "ret"
	}
	return fmt.Sprintf("ret %s", r.Value)
}

func (r *Return) Result() *Value {
	return nil
}

func (r *Return) Operands() []*Value {
	if r.Value == nil {
		return nil
	}
	return []*Value{r.Value}
}

func joinValues(values []*Value) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = v.String()
	}
	return strings.Join(parts, ", ")
}
