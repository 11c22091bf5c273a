package parser

import (
	"fmt"
	"strconv"

	"github.com/iley/sysyc/internal/ast"
	"github.com/iley/sysyc/internal/lexer"
)

type Parser struct {
	lexer   *lexer.Lexer
	lexemes []lexer.Lexeme
	pos     int
}

func New(lex *lexer.Lexer) *Parser {
	return &Parser{lexer: lex}
}

// fill makes sure at least n lexemes past the current position are buffered.
func (p *Parser) fill(n int) error {
	for len(p.lexemes) < p.pos+n {
		lex, err := p.lexer.Next()
		if err != nil {
			return err
		}
		p.lexemes = append(p.lexemes, lex)
	}
	return nil
}

func (p *Parser) consume() (lexer.Lexeme, error) {
	if err := p.fill(1); err != nil {
		return lexer.Lexeme{}, err
	}
	lex := p.lexemes[p.pos]
	p.pos++
	return lex, nil
}

func (p *Parser) peek() (lexer.Lexeme, error) {
	return p.peekAt(0)
}

// peekAt returns the lexeme offset positions ahead without consuming anything.
func (p *Parser) peekAt(offset int) (lexer.Lexeme, error) {
	if err := p.fill(offset + 1); err != nil {
		return lexer.Lexeme{}, err
	}
	return p.lexemes[p.pos+offset], nil
}

func (p *Parser) expectPunctuation(pv string) (lexer.Lexeme, error) {
	lex, err := p.consume()
	if err != nil {
		return lex, err
	}
	if !lex.IsPunctuation(pv) {
		return lex, fmt.Errorf("%s: expected '%s', got %v", lex.Loc, pv, lex)
	}
	return lex, nil
}

func (p *Parser) expectKeyword(kw string) (lexer.Lexeme, error) {
	lex, err := p.consume()
	if err != nil {
		return lex, err
	}
	if !lex.IsKeyword(kw) {
		return lex, fmt.Errorf("%s: expected '%s', got %v", lex.Loc, kw, lex)
	}
	return lex, nil
}

func (p *Parser) expectIdent(what string) (lexer.Lexeme, error) {
	lex, err := p.consume()
	if err != nil {
		return lex, err
	}
	if lex.Type != lexer.LEX_IDENT {
		return lex, fmt.Errorf("%s: expected %s, got %v", lex.Loc, what, lex)
	}
	return lex, nil
}

// skipIf consumes the next lexeme if it is the given punctuation and reports whether it did.
func (p *Parser) skipIf(pv string) (bool, error) {
	lex, err := p.peek()
	if err != nil {
		return false, err
	}
	if lex.IsPunctuation(pv) {
		_, err = p.consume()
		return true, err
	}
	return false, nil
}

func (p *Parser) ParseProgram() (*ast.Program, error) {
	program := &ast.Program{}
	first, err := p.peek()
	if err != nil {
		return nil, err
	}
	program.Loc = first.Loc

	for {
		lex, err := p.peek()
		if err != nil {
			return nil, err
		}
		if lex.IsEOF() {
			break
		}

		item, err := p.parseItem()
		if err != nil {
			return nil, err
		}
		program.Items = append(program.Items, item)
	}

	return program, nil
}

func (p *Parser) parseItem() (ast.Item, error) {
	lex, err := p.peek()
	if err != nil {
		return nil, err
	}
	if lex.IsKeyword("void") {
		return p.parseFunction()
	}
	if lex.IsKeyword("int") {
		// int ident ( ... is a function, anything else is a declaration.
		third, err := p.peekAt(2)
		if err != nil {
			return nil, err
		}
		if third.IsPunctuation("(") {
			return p.parseFunction()
		}
		return p.parseDeclaration()
	}
	if lex.IsKeyword("const") {
		return p.parseDeclaration()
	}
	return nil, fmt.Errorf("%s: expected declaration or function, got %v", lex.Loc, lex)
}

func (p *Parser) parseFunction() (*ast.Function, error) {
	lex, err := p.consume()
	if err != nil {
		return nil, err
	}
	fn := &ast.Function{Loc: lex.Loc, ReturnType: ast.TypeInt}
	if lex.IsKeyword("void") {
		fn.ReturnType = ast.TypeVoid
	}

	name, err := p.expectIdent("function name")
	if err != nil {
		return nil, err
	}
	fn.Name = name.Str

	if _, err := p.expectPunctuation("("); err != nil {
		return nil, err
	}

	closed, err := p.skipIf(")")
	if err != nil {
		return nil, err
	}
	for !closed {
		param, err := p.parseParam()
		if err != nil {
			return nil, err
		}
		fn.Params = append(fn.Params, param)

		lex, err := p.consume()
		if err != nil {
			return nil, err
		}
		if lex.IsPunctuation(")") {
			closed = true
		} else if !lex.IsPunctuation(",") {
			return nil, fmt.Errorf("%s: expected ',' or ')', got %v", lex.Loc, lex)
		}
	}

	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	fn.Body = *body

	return fn, nil
}

func (p *Parser) parseParam() (ast.Param, error) {
	lex, err := p.expectKeyword("int")
	if err != nil {
		return ast.Param{}, err
	}
	name, err := p.expectIdent("parameter name")
	if err != nil {
		return ast.Param{}, err
	}
	param := ast.Param{Loc: lex.Loc, Name: name.Str}

	isArray, err := p.skipIf("[")
	if err != nil {
		return param, err
	}
	if !isArray {
		return param, nil
	}
	param.IsArray = true
	if _, err := p.expectPunctuation("]"); err != nil {
		return param, err
	}
	param.Dims, err = p.parseDims()
	return param, err
}

// parseDims parses zero or more "[expr]" suffixes.
func (p *Parser) parseDims() ([]ast.Expression, error) {
	var dims []ast.Expression
	for {
		open, err := p.skipIf("[")
		if err != nil {
			return nil, err
		}
		if !open {
			return dims, nil
		}
		dim, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectPunctuation("]"); err != nil {
			return nil, err
		}
		dims = append(dims, dim)
	}
}

func (p *Parser) parseDeclaration() (*ast.Declaration, error) {
	lex, err := p.consume()
	if err != nil {
		return nil, err
	}
	decl := &ast.Declaration{Loc: lex.Loc}
	if lex.IsKeyword("const") {
		decl.Const = true
		if _, err := p.expectKeyword("int"); err != nil {
			return nil, err
		}
	} else if !lex.IsKeyword("int") {
		return nil, fmt.Errorf("%s: expected 'int' or 'const', got %v", lex.Loc, lex)
	}

	for {
		def, err := p.parseDef(decl.Const)
		if err != nil {
			return nil, err
		}
		decl.Defs = append(decl.Defs, def)

		lex, err := p.consume()
		if err != nil {
			return nil, err
		}
		if lex.IsPunctuation(";") {
			break
		}
		if !lex.IsPunctuation(",") {
			return nil, fmt.Errorf("%s: expected ',' or ';', got %v", lex.Loc, lex)
		}
	}

	return decl, nil
}

func (p *Parser) parseDef(isConst bool) (ast.Def, error) {
	name, err := p.expectIdent("variable name")
	if err != nil {
		return ast.Def{}, err
	}
	def := ast.Def{Loc: name.Loc, Name: name.Str}

	def.Dims, err = p.parseDims()
	if err != nil {
		return def, err
	}

	lex, err := p.peek()
	if err != nil {
		return def, err
	}
	if !lex.IsOperator("=") {
		if isConst {
			return def, fmt.Errorf("%s: constant %s must be initialized", name.Loc, name.Str)
		}
		return def, nil
	}
	if _, err := p.consume(); err != nil {
		return def, err
	}

	def.Init, err = p.parseInitVal()
	return def, err
}

func (p *Parser) parseInitVal() (*ast.InitVal, error) {
	lex, err := p.peek()
	if err != nil {
		return nil, err
	}
	if !lex.IsPunctuation("{") {
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		return &ast.InitVal{Loc: lex.Loc, Expr: expr}, nil
	}

	if _, err := p.consume(); err != nil {
		return nil, err
	}
	init := &ast.InitVal{Loc: lex.Loc, IsList: true}
	closed, err := p.skipIf("}")
	if err != nil {
		return nil, err
	}
	for !closed {
		elem, err := p.parseInitVal()
		if err != nil {
			return nil, err
		}
		init.List = append(init.List, elem)

		lex, err := p.consume()
		if err != nil {
			return nil, err
		}
		if lex.IsPunctuation("}") {
			closed = true
		} else if !lex.IsPunctuation(",") {
			return nil, fmt.Errorf("%s: expected ',' or '}', got %v", lex.Loc, lex)
		}
	}
	return init, nil
}

func (p *Parser) parseBlock() (*ast.Block, error) {
	open, err := p.expectPunctuation("{")
	if err != nil {
		return nil, err
	}
	block := &ast.Block{Loc: open.Loc}

	for {
		lex, err := p.peek()
		if err != nil {
			return nil, err
		}
		if lex.IsPunctuation("}") {
			break
		}
		if lex.IsEOF() {
			return nil, fmt.Errorf("%s: expected '}', got %v", lex.Loc, lex)
		}

		var item ast.Statement
		if lex.IsKeyword("int") || lex.IsKeyword("const") {
			item, err = p.parseDeclaration()
		} else {
			item, err = p.parseStatement()
		}
		if err != nil {
			return nil, err
		}
		block.Items = append(block.Items, item)
	}

	// consume '}'
	_, err = p.consume()
	if err != nil {
		return nil, err
	}

	return block, nil
}

func (p *Parser) parseStatement() (ast.Statement, error) {
	lex, err := p.peek()
	if err != nil {
		return nil, err
	}

	if lex.IsPunctuation("{") {
		return p.parseBlock()
	} else if lex.IsPunctuation(";") {
		_, err := p.consume()
		return &ast.ExpressionStatement{Loc: lex.Loc}, err
	} else if lex.IsKeyword("if") {
		return p.parseIfStatement()
	} else if lex.IsKeyword("while") {
		return p.parseWhileStatement()
	} else if lex.IsKeyword("break") {
		return p.parseSimpleStatement(&ast.BreakStatement{Loc: lex.Loc})
	} else if lex.IsKeyword("continue") {
		return p.parseSimpleStatement(&ast.ContinueStatement{Loc: lex.Loc})
	} else if lex.IsKeyword("return") {
		return p.parseReturnStatement()
	}

	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}

	next, err := p.consume()
	if err != nil {
		return nil, err
	}
	if next.IsOperator("=") {
		target, ok := expr.(*ast.LVal)
		if !ok {
			return nil, fmt.Errorf("%s: cannot assign to %s", lex.Loc, expr)
		}
		value, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectPunctuation(";"); err != nil {
			return nil, err
		}
		return &ast.Assignment{Loc: lex.Loc, Target: target, Value: value}, nil
	}
	if !next.IsPunctuation(";") {
		return nil, fmt.Errorf("%s: expected ';', got %v", next.Loc, next)
	}
	return &ast.ExpressionStatement{Loc: lex.Loc, Expression: expr}, nil
}

// parseSimpleStatement consumes a keyword followed by ';'.
func (p *Parser) parseSimpleStatement(stmt ast.Statement) (ast.Statement, error) {
	if _, err := p.consume(); err != nil {
		return nil, err
	}
	if _, err := p.expectPunctuation(";"); err != nil {
		return nil, err
	}
	return stmt, nil
}

func (p *Parser) parseReturnStatement() (*ast.ReturnStatement, error) {
	lex, err := p.consume()
	if err != nil {
		return nil, err
	}
	ret := &ast.ReturnStatement{Loc: lex.Loc}

	done, err := p.skipIf(";")
	if err != nil || done {
		return ret, err
	}
	ret.Value, err = p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectPunctuation(";"); err != nil {
		return nil, err
	}
	return ret, nil
}

func (p *Parser) parseCondition() (ast.Expression, error) {
	if _, err := p.expectPunctuation("("); err != nil {
		return nil, err
	}
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectPunctuation(")"); err != nil {
		return nil, err
	}
	return cond, nil
}

func (p *Parser) parseIfStatement() (*ast.IfStatement, error) {
	lex, err := p.consume()
	if err != nil {
		return nil, err
	}
	cond, err := p.parseCondition()
	if err != nil {
		return nil, err
	}
	then, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	stmt := &ast.IfStatement{Loc: lex.Loc, Condition: cond, Then: then}

	next, err := p.peek()
	if err != nil {
		return nil, err
	}
	// A dangling else binds to the nearest if.
	if next.IsKeyword("else") {
		if _, err := p.consume(); err != nil {
			return nil, err
		}
		stmt.Else, err = p.parseStatement()
		if err != nil {
			return nil, err
		}
	}
	return stmt, nil
}

func (p *Parser) parseWhileStatement() (*ast.WhileStatement, error) {
	lex, err := p.consume()
	if err != nil {
		return nil, err
	}
	cond, err := p.parseCondition()
	if err != nil {
		return nil, err
	}
	body, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	return &ast.WhileStatement{Loc: lex.Loc, Condition: cond, Body: body}, nil
}

// Binary operator precedence levels, from loosest to tightest.
var precedenceLevels = [][]string{
	{"||"},
	{"&&"},
	{"==", "!="},
	{"<", ">", "<=", ">="},
	{"+", "-"},
	{"*", "/", "%"},
}

func (p *Parser) parseExpression() (ast.Expression, error) {
	return p.parseBinary(0)
}

// parseBinary parses a left-associative chain of operators at the given precedence level.
func (p *Parser) parseBinary(level int) (ast.Expression, error) {
	if level == len(precedenceLevels) {
		return p.parseUnary()
	}

	left, err := p.parseBinary(level + 1)
	if err != nil {
		return nil, err
	}

	for {
		lex, err := p.peek()
		if err != nil {
			return nil, err
		}
		if !isOneOfOperators(lex, precedenceLevels[level]) {
			return left, nil
		}
		if _, err := p.consume(); err != nil {
			return nil, err
		}
		right, err := p.parseBinary(level + 1)
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryOperation{Loc: lex.Loc, Left: left, Operator: lex.Str, Right: right}
	}
}

func isOneOfOperators(lex lexer.Lexeme, ops []string) bool {
	for _, op := range ops {
		if lex.IsOperator(op) {
			return true
		}
	}
	return false
}

func (p *Parser) parseUnary() (ast.Expression, error) {
	lex, err := p.peek()
	if err != nil {
		return nil, err
	}
	if lex.IsOperator("+") || lex.IsOperator("-") || lex.IsOperator("!") {
		if _, err := p.consume(); err != nil {
			return nil, err
		}
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryOperation{Loc: lex.Loc, Operator: lex.Str, Operand: operand}, nil
	}
	return p.parsePrimary()
}

func (p *Parser) parsePrimary() (ast.Expression, error) {
	lex, err := p.consume()
	if err != nil {
		return nil, err
	}

	switch {
	case lex.IsPunctuation("("):
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectPunctuation(")"); err != nil {
			return nil, err
		}
		return expr, nil
	case lex.Type == lexer.LEX_NUMBER:
		value, err := parseIntLiteral(lex.Str)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", lex.Loc, err)
		}
		return &ast.IntLiteral{Loc: lex.Loc, Value: value}, nil
	case lex.Type == lexer.LEX_IDENT:
		next, err := p.peek()
		if err != nil {
			return nil, err
		}
		if next.IsPunctuation("(") {
			return p.parseCallArgs(lex)
		}
		indices, err := p.parseDims()
		if err != nil {
			return nil, err
		}
		return &ast.LVal{Loc: lex.Loc, Name: lex.Str, Indices: indices}, nil
	}

	return nil, fmt.Errorf("%s: expected expression, got %v", lex.Loc, lex)
}

func (p *Parser) parseCallArgs(name lexer.Lexeme) (*ast.FunctionCall, error) {
	// consume '('
	if _, err := p.consume(); err != nil {
		return nil, err
	}
	call := &ast.FunctionCall{Loc: name.Loc, FunctionName: name.Str}

	closed, err := p.skipIf(")")
	if err != nil {
		return nil, err
	}
	for !closed {
		arg, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		call.Args = append(call.Args, arg)

		lex, err := p.consume()
		if err != nil {
			return nil, err
		}
		if lex.IsPunctuation(")") {
			closed = true
		} else if !lex.IsPunctuation(",") {
			return nil, fmt.Errorf("%s: expected ',' or ')', got %v", lex.Loc, lex)
		}
	}
	return call, nil
}

// parseIntLiteral converts decimal, octal and hexadecimal literals.
// Values up to 2^32-1 are accepted and wrap to int32, so that -2147483648 can be written.
func parseIntLiteral(s string) (int32, error) {
	value, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid integer literal %q", s)
	}
	return int32(uint32(value)), nil
}
