package ast

import (
	"fmt"
	"strings"

	"github.com/iley/sysyc/internal/lexer"
)

type Location = lexer.Location

type AstNode interface {
	fmt.Stringer
	GetLocation() Location
}

// BaseType is the return type of a function. Variables are always int.
type BaseType int

const (
	TypeInt BaseType = iota
	TypeVoid
)

func (t BaseType) String() string {
	if t == TypeVoid {
		return "void"
	}
	return "int"
}

type Program struct {
	Loc   Location
	Items []Item
}

func (p *Program) GetLocation() Location {
	return p.Loc
}

func (p *Program) String() string {
	var sb strings.Builder
	sb.WriteString("(program")
	for _, item := range p.Items {
		sb.WriteString(" ")
		sb.WriteString(item.String())
	}
	sb.WriteString(")")
	return sb.String()
}

// Item is a top-level element of a program: a function or a global declaration.
type Item interface {
	AstNode
	isItem()
}

type Function struct {
	Loc        Location
	Name       string
	ReturnType BaseType
	Params     []Param
	Body       Block
}

func (f *Function) GetLocation() Location {
	return f.Loc
}

func (f *Function) isItem() {}

func (f *Function) String() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("(func %s %s (", f.ReturnType, f.Name))
	for i, param := range f.Params {
		sb.WriteString(param.String())
		if i != len(f.Params)-1 {
			sb.WriteString(" ")
		}
	}
	sb.WriteString(") ")
	sb.WriteString(f.Body.String())
	sb.WriteString(")")
	return sb.String()
}

// Param is a function parameter. Array parameters have an unsized first
// dimension; Dims holds the remaining ones.
type Param struct {
	Loc     Location
	Name    string
	IsArray bool
	Dims    []Expression
}

func (p Param) GetLocation() Location {
	return p.Loc
}

func (p Param) String() string {
	if !p.IsArray {
		return fmt.Sprintf("(%s int)", p.Name)
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("(%s int[]", p.Name))
	for _, dim := range p.Dims {
		sb.WriteString("[" + dim.String() + "]")
	}
	sb.WriteString(")")
	return sb.String()
}

type Block struct {
	Loc   Location
	Items []Statement
}

func (b *Block) GetLocation() Location {
	return b.Loc
}

func (b *Block) isStatement() {}

func (b *Block) String() string {
	var sb strings.Builder
	sb.WriteString("(block")
	for _, stmt := range b.Items {
		sb.WriteString(" ")
		sb.WriteString(stmt.String())
	}
	sb.WriteString(")")
	return sb.String()
}

// Statement types.

type Statement interface {
	AstNode
	isStatement()
}

// Declaration is a const or var declaration with one or more definitions.
// It is both a block item and a top-level item.
type Declaration struct {
	Loc   Location
	Const bool
	Defs  []Def
}

func (d *Declaration) GetLocation() Location {
	return d.Loc
}

func (d *Declaration) isStatement() {}

func (d *Declaration) isItem() {}

func (d *Declaration) String() string {
	var sb strings.Builder
	if d.Const {
		sb.WriteString("(const")
	} else {
		sb.WriteString("(var")
	}
	for _, def := range d.Defs {
		sb.WriteString(" ")
		sb.WriteString(def.String())
	}
	sb.WriteString(")")
	return sb.String()
}

type Def struct {
	Loc  Location
	Name string
	Dims []Expression
	Init *InitVal // optional for variables, required for constants
}

func (d Def) GetLocation() Location {
	return d.Loc
}

func (d Def) String() string {
	var sb strings.Builder
	sb.WriteString("(" + d.Name)
	for _, dim := range d.Dims {
		sb.WriteString("[" + dim.String() + "]")
	}
	if d.Init != nil {
		sb.WriteString(" " + d.Init.String())
	}
	sb.WriteString(")")
	return sb.String()
}

// InitVal is either a single expression or a brace-enclosed list.
type InitVal struct {
	Loc    Location
	Expr   Expression
	IsList bool
	List   []*InitVal
}

func (i *InitVal) GetLocation() Location {
	return i.Loc
}

func (i *InitVal) String() string {
	if !i.IsList {
		return i.Expr.String()
	}
	parts := make([]string, len(i.List))
	for j, elem := range i.List {
		parts[j] = elem.String()
	}
	return "{" + strings.Join(parts, " ") + "}"
}

type ExpressionStatement struct {
	Loc        Location
	Expression Expression // nil for an empty statement
}

func (s *ExpressionStatement) GetLocation() Location {
	return s.Loc
}

func (s *ExpressionStatement) isStatement() {}

func (s *ExpressionStatement) String() string {
	if s.Expression == nil {
		return "(empty)"
	}
	return s.Expression.String()
}

type Assignment struct {
	Loc    Location
	Target *LVal
	Value  Expression
}

func (a *Assignment) GetLocation() Location {
	return a.Loc
}

func (a *Assignment) isStatement() {}

func (a *Assignment) String() string {
	return fmt.Sprintf("(= %s %s)", a.Target.String(), a.Value.String())
}

type ReturnStatement struct {
	Loc   Location
	Value Expression // optional return value
}

func (r *ReturnStatement) GetLocation() Location {
	return r.Loc
}

func (r *ReturnStatement) isStatement() {}

func (r *ReturnStatement) String() string {
	if r.Value == nil {
		return "(return)"
	} else {
		return fmt.Sprintf("(return %s)", r.Value.String())
	}
}

type IfStatement struct {
	Loc       Location
	Condition Expression
	Then      Statement
	Else      Statement // optional
}

func (i *IfStatement) GetLocation() Location {
	return i.Loc
}

func (i *IfStatement) isStatement() {}

func (i *IfStatement) String() string {
	if i.Else == nil {
		return fmt.Sprintf("(if %s %s)", i.Condition.String(), i.Then.String())
	} else {
		return fmt.Sprintf("(if %s %s %s)", i.Condition.String(), i.Then.String(), i.Else.String())
	}
}

type WhileStatement struct {
	Loc       Location
	Condition Expression
	Body      Statement
}

func (w *WhileStatement) GetLocation() Location {
	return w.Loc
}

func (w *WhileStatement) isStatement() {}

func (w *WhileStatement) String() string {
	return fmt.Sprintf("(while %s %s)", w.Condition.String(), w.Body.String())
}

type BreakStatement struct {
	Loc Location
}

func (b *BreakStatement) GetLocation() Location {
	return b.Loc
}

func (b *BreakStatement) isStatement() {}

func (b *BreakStatement) String() string {
	return "(break)"
}

type ContinueStatement struct {
	Loc Location
}

func (c *ContinueStatement) GetLocation() Location {
	return c.Loc
}

func (c *ContinueStatement) isStatement() {}

func (c *ContinueStatement) String() string {
	return "(continue)"
}

// Expression types.

type Expression interface {
	AstNode
	isExpression()
}

type IntLiteral struct {
	Loc   Location
	Value int32
}

func (l *IntLiteral) GetLocation() Location {
	return l.Loc
}

func (l *IntLiteral) isExpression() {}

func (l *IntLiteral) String() string {
	return fmt.Sprintf("%d", l.Value)
}

func NewIntLiteral(value int32) *IntLiteral {
	return &IntLiteral{Value: value}
}

// LVal is a reference to a named object, optionally indexed.
type LVal struct {
	Loc     Location
	Name    string
	Indices []Expression
}

func (v *LVal) GetLocation() Location {
	return v.Loc
}

func (v *LVal) isExpression() {}

func (v *LVal) String() string {
	if len(v.Indices) == 0 {
		return v.Name
	}
	var sb strings.Builder
	sb.WriteString("([] " + v.Name)
	for _, idx := range v.Indices {
		sb.WriteString(" " + idx.String())
	}
	sb.WriteString(")")
	return sb.String()
}

func NewLVal(name string, indices ...Expression) *LVal {
	return &LVal{Name: name, Indices: indices}
}

type UnaryOperation struct {
	Loc      Location
	Operator string
	Operand  Expression
}

func (u *UnaryOperation) GetLocation() Location {
	return u.Loc
}

func (u *UnaryOperation) isExpression() {}

func (u *UnaryOperation) String() string {
	return fmt.Sprintf("(%s %s)", u.Operator, u.Operand.String())
}

type BinaryOperation struct {
	Loc      Location
	Left     Expression
	Operator string
	Right    Expression
}

func (b *BinaryOperation) GetLocation() Location {
	return b.Loc
}

func (b *BinaryOperation) isExpression() {}

func (b *BinaryOperation) String() string {
	return fmt.Sprintf("(%s %s %s)", b.Operator, b.Left.String(), b.Right.String())
}

func NewBinaryOperation(op string, left, right Expression) *BinaryOperation {
	return &BinaryOperation{Operator: op, Left: left, Right: right}
}

type FunctionCall struct {
	Loc          Location
	FunctionName string
	Args         []Expression
}

func (c *FunctionCall) GetLocation() Location {
	return c.Loc
}

func (c *FunctionCall) isExpression() {}

func (c *FunctionCall) String() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("(call %s", c.FunctionName))
	for _, arg := range c.Args {
		sb.WriteString(" ")
		sb.WriteString(arg.String())
	}
	sb.WriteString(")")
	return sb.String()
}
