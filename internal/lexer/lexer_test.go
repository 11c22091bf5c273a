package lexer

import (
	"strings"
	"testing"
)

func TestLexer(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []Lexeme
	}{
		{
			name:  "empty input",
			input: "",
			expected: []Lexeme{
				{Type: LEX_EOF},
			},
		},
		{
			name:  "simple identifiers",
			input: "hello world _test123",
			expected: []Lexeme{
				{Type: LEX_IDENT, Str: "hello", Loc: Location{Filename: "test.sy", Line: 1, Col: 1}},
				{Type: LEX_IDENT, Str: "world", Loc: Location{Filename: "test.sy", Line: 1, Col: 7}},
				{Type: LEX_IDENT, Str: "_test123", Loc: Location{Filename: "test.sy", Line: 1, Col: 13}},
				{Type: LEX_EOF},
			},
		},
		{
			name:  "keywords",
			input: "int void const if else while break continue return",
			expected: []Lexeme{
				{Type: LEX_KEYWORD, Str: "int", Loc: Location{Filename: "test.sy", Line: 1, Col: 1}},
				{Type: LEX_KEYWORD, Str: "void", Loc: Location{Filename: "test.sy", Line: 1, Col: 5}},
				{Type: LEX_KEYWORD, Str: "const", Loc: Location{Filename: "test.sy", Line: 1, Col: 10}},
				{Type: LEX_KEYWORD, Str: "if", Loc: Location{Filename: "test.sy", Line: 1, Col: 16}},
				{Type: LEX_KEYWORD, Str: "else", Loc: Location{Filename: "test.sy", Line: 1, Col: 19}},
				{Type: LEX_KEYWORD, Str: "while", Loc: Location{Filename: "test.sy", Line: 1, Col: 24}},
				{Type: LEX_KEYWORD, Str: "break", Loc: Location{Filename: "test.sy", Line: 1, Col: 30}},
				{Type: LEX_KEYWORD, Str: "continue", Loc: Location{Filename: "test.sy", Line: 1, Col: 36}},
				{Type: LEX_KEYWORD, Str: "return", Loc: Location{Filename: "test.sy", Line: 1, Col: 45}},
				{Type: LEX_EOF},
			},
		},
		{
			name:  "numbers in all bases",
			input: "0 42 017 0x1F 0XaB",
			expected: []Lexeme{
				{Type: LEX_NUMBER, Str: "0", Loc: Location{Filename: "test.sy", Line: 1, Col: 1}},
				{Type: LEX_NUMBER, Str: "42", Loc: Location{Filename: "test.sy", Line: 1, Col: 3}},
				{Type: LEX_NUMBER, Str: "017", Loc: Location{Filename: "test.sy", Line: 1, Col: 6}},
				{Type: LEX_NUMBER, Str: "0x1F", Loc: Location{Filename: "test.sy", Line: 1, Col: 10}},
				{Type: LEX_NUMBER, Str: "0XaB", Loc: Location{Filename: "test.sy", Line: 1, Col: 15}},
				{Type: LEX_EOF},
			},
		},
		{
			name:  "two character operators",
			input: "a<=b>=c==d!=e&&f||g",
			expected: []Lexeme{
				{Type: LEX_IDENT, Str: "a", Loc: Location{Filename: "test.sy", Line: 1, Col: 1}},
				{Type: LEX_OPERATOR, Str: "<=", Loc: Location{Filename: "test.sy", Line: 1, Col: 2}},
				{Type: LEX_IDENT, Str: "b", Loc: Location{Filename: "test.sy", Line: 1, Col: 4}},
				{Type: LEX_OPERATOR, Str: ">=", Loc: Location{Filename: "test.sy", Line: 1, Col: 5}},
				{Type: LEX_IDENT, Str: "c", Loc: Location{Filename: "test.sy", Line: 1, Col: 7}},
				{Type: LEX_OPERATOR, Str: "==", Loc: Location{Filename: "test.sy", Line: 1, Col: 8}},
				{Type: LEX_IDENT, Str: "d", Loc: Location{Filename: "test.sy", Line: 1, Col: 10}},
				{Type: LEX_OPERATOR, Str: "!=", Loc: Location{Filename: "test.sy", Line: 1, Col: 11}},
				{Type: LEX_IDENT, Str: "e", Loc: Location{Filename: "test.sy", Line: 1, Col: 13}},
				{Type: LEX_OPERATOR, Str: "&&", Loc: Location{Filename: "test.sy", Line: 1, Col: 14}},
				{Type: LEX_IDENT, Str: "f", Loc: Location{Filename: "test.sy", Line: 1, Col: 16}},
				{Type: LEX_OPERATOR, Str: "||", Loc: Location{Filename: "test.sy", Line: 1, Col: 17}},
				{Type: LEX_IDENT, Str: "g", Loc: Location{Filename: "test.sy", Line: 1, Col: 19}},
				{Type: LEX_EOF},
			},
		},
		{
			name:  "single character operators",
			input: "= < > ! + - * / %",
			expected: []Lexeme{
				{Type: LEX_OPERATOR, Str: "=", Loc: Location{Filename: "test.sy", Line: 1, Col: 1}},
				{Type: LEX_OPERATOR, Str: "<", Loc: Location{Filename: "test.sy", Line: 1, Col: 3}},
				{Type: LEX_OPERATOR, Str: ">", Loc: Location{Filename: "test.sy", Line: 1, Col: 5}},
				{Type: LEX_OPERATOR, Str: "!", Loc: Location{Filename: "test.sy", Line: 1, Col: 7}},
				{Type: LEX_OPERATOR, Str: "+", Loc: Location{Filename: "test.sy", Line: 1, Col: 9}},
				{Type: LEX_OPERATOR, Str: "-", Loc: Location{Filename: "test.sy", Line: 1, Col: 11}},
				{Type: LEX_OPERATOR, Str: "*", Loc: Location{Filename: "test.sy", Line: 1, Col: 13}},
				{Type: LEX_OPERATOR, Str: "/", Loc: Location{Filename: "test.sy", Line: 1, Col: 15}},
				{Type: LEX_OPERATOR, Str: "%", Loc: Location{Filename: "test.sy", Line: 1, Col: 17}},
				{Type: LEX_EOF},
			},
		},
		{
			name:  "comments are skipped",
			input: "a // line comment\n/* block\ncomment */ b",
			expected: []Lexeme{
				{Type: LEX_IDENT, Str: "a", Loc: Location{Filename: "test.sy", Line: 1, Col: 1}},
				{Type: LEX_IDENT, Str: "b", Loc: Location{Filename: "test.sy", Line: 3, Col: 12}},
				{Type: LEX_EOF},
			},
		},
		{
			name:  "division is not a comment",
			input: "a / b",
			expected: []Lexeme{
				{Type: LEX_IDENT, Str: "a", Loc: Location{Filename: "test.sy", Line: 1, Col: 1}},
				{Type: LEX_OPERATOR, Str: "/", Loc: Location{Filename: "test.sy", Line: 1, Col: 3}},
				{Type: LEX_IDENT, Str: "b", Loc: Location{Filename: "test.sy", Line: 1, Col: 5}},
				{Type: LEX_EOF},
			},
		},
		{
			name: "function definition",
			input: `int f(int a[][3], int n) {
    if (a[0][1] <= n) {
        return 1;
    }
}`,
			expected: []Lexeme{
				{Type: LEX_KEYWORD, Str: "int", Loc: Location{Filename: "test.sy", Line: 1, Col: 1}},
				{Type: LEX_IDENT, Str: "f", Loc: Location{Filename: "test.sy", Line: 1, Col: 5}},
				{Type: LEX_PUNCTUATION, Str: "(", Loc: Location{Filename: "test.sy", Line: 1, Col: 6}},
				{Type: LEX_KEYWORD, Str: "int", Loc: Location{Filename: "test.sy", Line: 1, Col: 7}},
				{Type: LEX_IDENT, Str: "a", Loc: Location{Filename: "test.sy", Line: 1, Col: 11}},
				{Type: LEX_PUNCTUATION, Str: "[", Loc: Location{Filename: "test.sy", Line: 1, Col: 12}},
				{Type: LEX_PUNCTUATION, Str: "]", Loc: Location{Filename: "test.sy", Line: 1, Col: 13}},
				{Type: LEX_PUNCTUATION, Str: "[", Loc: Location{Filename: "test.sy", Line: 1, Col: 14}},
				{Type: LEX_NUMBER, Str: "3", Loc: Location{Filename: "test.sy", Line: 1, Col: 15}},
				{Type: LEX_PUNCTUATION, Str: "]", Loc: Location{Filename: "test.sy", Line: 1, Col: 16}},
				{Type: LEX_PUNCTUATION, Str: ",", Loc: Location{Filename: "test.sy", Line: 1, Col: 17}},
				{Type: LEX_KEYWORD, Str: "int", Loc: Location{Filename: "test.sy", Line: 1, Col: 19}},
				{Type: LEX_IDENT, Str: "n", Loc: Location{Filename: "test.sy", Line: 1, Col: 23}},
				{Type: LEX_PUNCTUATION, Str: ")", Loc: Location{Filename: "test.sy", Line: 1, Col: 24}},
				{Type: LEX_PUNCTUATION, Str: "{", Loc: Location{Filename: "test.sy", Line: 1, Col: 26}},
				{Type: LEX_KEYWORD, Str: "if", Loc: Location{Filename: "test.sy", Line: 2, Col: 5}},
				{Type: LEX_PUNCTUATION, Str: "(", Loc: Location{Filename: "test.sy", Line: 2, Col: 8}},
				{Type: LEX_IDENT, Str: "a", Loc: Location{Filename: "test.sy", Line: 2, Col: 9}},
				{Type: LEX_PUNCTUATION, Str: "[", Loc: Location{Filename: "test.sy", Line: 2, Col: 10}},
				{Type: LEX_NUMBER, Str: "0", Loc: Location{Filename: "test.sy", Line: 2, Col: 11}},
				{Type: LEX_PUNCTUATION, Str: "]", Loc: Location{Filename: "test.sy", Line: 2, Col: 12}},
				{Type: LEX_PUNCTUATION, Str: "[", Loc: Location{Filename: "test.sy", Line: 2, Col: 13}},
				{Type: LEX_NUMBER, Str: "1", Loc: Location{Filename: "test.sy", Line: 2, Col: 14}},
				{Type: LEX_PUNCTUATION, Str: "]", Loc: Location{Filename: "test.sy", Line: 2, Col: 15}},
				{Type: LEX_OPERATOR, Str: "<=", Loc: Location{Filename: "test.sy", Line: 2, Col: 17}},
				{Type: LEX_IDENT, Str: "n", Loc: Location{Filename: "test.sy", Line: 2, Col: 20}},
				{Type: LEX_PUNCTUATION, Str: ")", Loc: Location{Filename: "test.sy", Line: 2, Col: 21}},
				{Type: LEX_PUNCTUATION, Str: "{", Loc: Location{Filename: "test.sy", Line: 2, Col: 23}},
				{Type: LEX_KEYWORD, Str: "return", Loc: Location{Filename: "test.sy", Line: 3, Col: 9}},
				{Type: LEX_NUMBER, Str: "1", Loc: Location{Filename: "test.sy", Line: 3, Col: 16}},
				{Type: LEX_PUNCTUATION, Str: ";", Loc: Location{Filename: "test.sy", Line: 3, Col: 17}},
				{Type: LEX_PUNCTUATION, Str: "}", Loc: Location{Filename: "test.sy", Line: 4, Col: 5}},
				{Type: LEX_PUNCTUATION, Str: "}", Loc: Location{Filename: "test.sy", Line: 5, Col: 1}},
				{Type: LEX_EOF},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := New(strings.NewReader(tt.input), "test.sy")
			for i, expected := range tt.expected {
				got, err := l.Next()
				if err != nil {
					t.Errorf("unexpected error: %v", err)
					return
				}

				if got.Type != expected.Type {
					t.Errorf("token %d: expected type %s, got %s", i, expected.Type, got.Type)
				}
				if got.Str != expected.Str {
					t.Errorf("token %d: expected string %q, got %q", i, expected.Str, got.Str)
				}
				if expected.Type == LEX_EOF {
					continue
				}
				if got.Loc.Line != expected.Loc.Line {
					t.Errorf("token %d: expected line %d, got %d", i, expected.Loc.Line, got.Loc.Line)
				}
				if got.Loc.Col != expected.Loc.Col {
					t.Errorf("token %d: expected column %d, got %d", i, expected.Loc.Col, got.Loc.Col)
				}
			}
		})
	}
}

func TestLexerErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "single ampersand", input: "a & b"},
		{name: "single pipe", input: "a | b"},
		{name: "unknown character", input: "a $ b"},
		{name: "unterminated block comment", input: "/* never closed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := New(strings.NewReader(tt.input), "test.sy")
			for {
				lex, err := l.Next()
				if err != nil {
					return
				}
				if lex.Type == LEX_EOF {
					t.Errorf("expected an error for input %q", tt.input)
					return
				}
			}
		})
	}
}

func TestLocationString(t *testing.T) {
	loc := Location{Filename: "main.sy", Line: 3, Col: 7}
	if got := loc.String(); got != "main.sy:3:7" {
		t.Errorf("Location.String() = %q, want %q", got, "main.sy:3:7")
	}
	loc.Filename = ""
	if got := loc.String(); got != "3:7" {
		t.Errorf("Location.String() = %q, want %q", got, "3:7")
	}
}
