package lexer

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"unicode"
)

type TokenType int

// Token types
const (
	LEX_EOF TokenType = iota
	LEX_IDENT
	LEX_NUMBER
	LEX_KEYWORD
	LEX_OPERATOR
	LEX_PUNCTUATION
)

func (t TokenType) String() string {
	switch t {
	case LEX_EOF:
		return "EOF"
	case LEX_IDENT:
		return "IDENT"
	case LEX_NUMBER:
		return "NUMBER"
	case LEX_KEYWORD:
		return "KEYWORD"
	case LEX_OPERATOR:
		return "OPERATOR"
	case LEX_PUNCTUATION:
		return "PUNCTUATION"
	default:
		return "UNKNOWN"
	}
}

// Keywords in SysY
var keywords = map[string]bool{
	"int":      true,
	"void":     true,
	"const":    true,
	"if":       true,
	"else":     true,
	"while":    true,
	"break":    true,
	"continue": true,
	"return":   true,
}

// Single-character operators and punctuation
var singleCharTokens = map[rune]TokenType{
	'(': LEX_PUNCTUATION,
	')': LEX_PUNCTUATION,
	'{': LEX_PUNCTUATION,
	'}': LEX_PUNCTUATION,
	'[': LEX_PUNCTUATION,
	']': LEX_PUNCTUATION,
	';': LEX_PUNCTUATION,
	',': LEX_PUNCTUATION,
	'+': LEX_OPERATOR,
	'-': LEX_OPERATOR,
	'*': LEX_OPERATOR,
	'%': LEX_OPERATOR,
}

// Operators that may be followed by a second character to form a two-character operator.
// The value lists the accepted second characters.
var twoCharPrefixes = map[rune]string{
	'=': "=",
	'!': "=",
	'<': "=",
	'>': "=",
	'&': "&",
	'|': "|",
}

type Location struct {
	Filename string
	Line     int
	Col      int
}

func (l Location) String() string {
	if l.Filename == "" {
		return fmt.Sprintf("%d:%d", l.Line, l.Col)
	}
	return fmt.Sprintf("%s:%d:%d", l.Filename, l.Line, l.Col)
}

type Lexeme struct {
	Type TokenType
	Str  string
	Loc  Location
}

func (l Lexeme) String() string {
	if l.Str == "" {
		return fmt.Sprintf("<%s>", l.Type)
	}
	return fmt.Sprintf("<%s %q>", l.Type, l.Str)
}

func (l Lexeme) IsKeyword(kv string) bool {
	return l.Type == LEX_KEYWORD && l.Str == kv
}

func (l Lexeme) IsPunctuation(pv string) bool {
	return l.Type == LEX_PUNCTUATION && l.Str == pv
}

func (l Lexeme) IsOperator(op string) bool {
	return l.Type == LEX_OPERATOR && l.Str == op
}

func (l Lexeme) IsEOF() bool {
	return l.Type == LEX_EOF
}

type Lexer struct {
	input     *bufio.Reader
	filename  string
	line      int
	col       int
	prevCol   int
	lastRune  rune
	lastSize  int
	hasUnread bool
}

func New(inputReader io.Reader, filename string) *Lexer {
	return &Lexer{
		input:    bufio.NewReader(inputReader),
		filename: filename,
		line:     1,
		col:      1,
		prevCol:  1,
	}
}

// readRune reads the next rune from the input
func (l *Lexer) readRune() (rune, int, error) {
	var r rune
	var size int
	var err error

	if l.hasUnread {
		l.hasUnread = false
		r, size, err = l.lastRune, l.lastSize, nil
	} else {
		l.prevCol = l.col
		r, size, err = l.input.ReadRune()
	}

	if err != nil {
		return 0, 0, err
	}

	l.lastRune = r
	l.lastSize = size
	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return r, size, nil
}

// unreadRune puts back the last read rune.
// Should be called at most once per successful readRune.
func (l *Lexer) unreadRune() {
	l.hasUnread = true
	if l.lastRune == '\n' {
		l.line--
	}
	l.col = l.prevCol
}

func (l *Lexer) location(line, col int) Location {
	return Location{Filename: l.filename, Line: line, Col: col}
}

// skipSpace skips whitespace characters
func (l *Lexer) skipSpace() error {
	for {
		r, _, err := l.readRune()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		if !unicode.IsSpace(r) {
			l.unreadRune()
			return nil
		}
	}
}

// skipLineComment skips a C++ style comment (from // to end of line)
func (l *Lexer) skipLineComment() error {
	for {
		r, _, err := l.readRune()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		if r == '\n' {
			return nil
		}
	}
}

// skipBlockComment skips a C style comment. The opening "/*" is already consumed.
func (l *Lexer) skipBlockComment(start Location) error {
	star := false
	for {
		r, _, err := l.readRune()
		if err != nil {
			if err == io.EOF {
				return fmt.Errorf("%s: unterminated block comment", start)
			}
			return err
		}
		if star && r == '/' {
			return nil
		}
		star = r == '*'
	}
}

// Next returns the next lexeme from the input
func (l *Lexer) Next() (Lexeme, error) {
	if err := l.skipSpace(); err != nil {
		return Lexeme{Type: LEX_EOF}, err
	}
	start := l.location(l.line, l.col)
	r, _, err := l.readRune()
	if err != nil {
		if err == io.EOF {
			return Lexeme{Type: LEX_EOF, Loc: start}, nil
		}
		return Lexeme{Type: LEX_EOF}, err
	}

	switch {
	case unicode.IsLetter(r) || r == '_':
		l.unreadRune()
		return l.lexIdent(start)
	case unicode.IsDigit(r):
		l.unreadRune()
		return l.lexNumber(start)
	case r == '/':
		nextR, _, err := l.readRune()
		if err != nil {
			if err == io.EOF {
				return Lexeme{Type: LEX_OPERATOR, Str: "/", Loc: start}, nil
			}
			return Lexeme{Type: LEX_EOF}, err
		}
		switch nextR {
		case '/':
			if err := l.skipLineComment(); err != nil {
				return Lexeme{Type: LEX_EOF}, err
			}
			return l.Next()
		case '*':
			if err := l.skipBlockComment(start); err != nil {
				return Lexeme{Type: LEX_EOF}, err
			}
			return l.Next()
		default:
			l.unreadRune()
			return Lexeme{Type: LEX_OPERATOR, Str: "/", Loc: start}, nil
		}
	}

	if seconds, ok := twoCharPrefixes[r]; ok {
		return l.lexOperator(r, seconds, start)
	}

	if tokType, ok := singleCharTokens[r]; ok {
		return Lexeme{Type: tokType, Str: string(r), Loc: start}, nil
	}

	return Lexeme{Type: LEX_EOF}, fmt.Errorf("%s: unexpected character %q", start, r)
}

// lexOperator reads an operator that is either a single character or first followed by one of seconds.
// '&' and '|' only exist in their doubled form.
func (l *Lexer) lexOperator(first rune, seconds string, start Location) (Lexeme, error) {
	nextR, _, err := l.readRune()
	if err != nil && err != io.EOF {
		return Lexeme{Type: LEX_EOF}, err
	}
	if err == nil {
		if strings.ContainsRune(seconds, nextR) {
			return Lexeme{Type: LEX_OPERATOR, Str: string(first) + string(nextR), Loc: start}, nil
		}
		l.unreadRune()
	}
	if first == '&' || first == '|' {
		return Lexeme{Type: LEX_EOF}, fmt.Errorf("%s: unexpected character %q", start, first)
	}
	return Lexeme{Type: LEX_OPERATOR, Str: string(first), Loc: start}, nil
}

// lexIdent reads an identifier or keyword
func (l *Lexer) lexIdent(start Location) (Lexeme, error) {
	var sb strings.Builder

	for {
		r, _, err := l.readRune()
		if err != nil {
			if err == io.EOF {
				break
			}
			return Lexeme{}, err
		}

		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			l.unreadRune()
			break
		}

		sb.WriteRune(r)
	}

	ident := sb.String()
	if keywords[ident] {
		return Lexeme{Type: LEX_KEYWORD, Str: ident, Loc: start}, nil
	}
	return Lexeme{Type: LEX_IDENT, Str: ident, Loc: start}, nil
}

// lexNumber reads a decimal, octal (leading 0) or hexadecimal (0x prefix) literal.
// The literal text is returned as written; the parser converts it.
func (l *Lexer) lexNumber(start Location) (Lexeme, error) {
	var sb strings.Builder

	r, _, err := l.readRune()
	if err != nil {
		return Lexeme{}, err
	}
	sb.WriteRune(r)

	isDigit := unicode.IsDigit
	if r == '0' {
		nextR, _, err := l.readRune()
		if err != nil {
			if err == io.EOF {
				return Lexeme{Type: LEX_NUMBER, Str: sb.String(), Loc: start}, nil
			}
			return Lexeme{}, err
		}
		if nextR == 'x' || nextR == 'X' {
			sb.WriteRune(nextR)
			isDigit = isHexDigit
		} else {
			l.unreadRune()
		}
	}

	for {
		r, _, err := l.readRune()
		if err != nil {
			if err == io.EOF {
				break
			}
			return Lexeme{}, err
		}
		if !isDigit(r) {
			l.unreadRune()
			break
		}
		sb.WriteRune(r)
	}

	return Lexeme{Type: LEX_NUMBER, Str: sb.String(), Loc: start}, nil
}

func isHexDigit(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}
