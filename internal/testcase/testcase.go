// Package testcase extracts golden compiler tests from Markdown documents.
//
// A test starts at a heading "Test: <name>" and consists of one sysy fence with the
// program followed by assertion fences:
//
//	ir             the exact IR dump
//	asm-contains   lines that must appear, in order, in the assembly
//	execute        "exit <code>" on the first line, expected stdout on the rest
//	compile-error  a substring of the expected compile error
//	input          stdin for execute
package testcase

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

const InputLanguage = "sysy"

type AssertionType string

const (
	AssertionIR           AssertionType = "ir"
	AssertionAsmContains  AssertionType = "asm-contains"
	AssertionExecute      AssertionType = "execute"
	AssertionCompileError AssertionType = "compile-error"
	AssertionInput        AssertionType = "input"
)

type Assertion struct {
	Type    AssertionType
	Content string
	Line    int
}

type TestCase struct {
	Name       string
	Source     string
	Stdin      string
	Assertions []Assertion
}

// Execution is the parsed content of an execute fence.
type Execution struct {
	ExitCode int32
	Stdout   string
}

// ParseExecution splits an execute fence into the exit code and the expected output.
func ParseExecution(content string) (Execution, error) {
	first, rest, _ := strings.Cut(content, "\n")
	code, ok := strings.CutPrefix(strings.TrimSpace(first), "exit ")
	if !ok {
		return Execution{}, fmt.Errorf("execute fence must start with \"exit <code>\", got %q", first)
	}
	val, err := strconv.ParseInt(strings.TrimSpace(code), 10, 32)
	if err != nil {
		return Execution{}, fmt.Errorf("invalid exit code %q: %w", code, err)
	}
	return Execution{ExitCode: int32(val), Stdout: rest}, nil
}

// Extract parses a Markdown document and returns its test cases in document order.
func Extract(markdown string) ([]TestCase, error) {
	source := []byte(markdown)
	doc := goldmark.New().Parser().Parse(text.NewReader(source))

	var testCases []TestCase
	var current *TestCase

	err := ast.Walk(doc, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch n := node.(type) {
		case *ast.Heading:
			heading := nodeText(n, source)
			name, ok := strings.CutPrefix(heading, "Test: ")
			if !ok {
				return ast.WalkContinue, nil
			}
			if current != nil {
				if err := validate(current); err != nil {
					return ast.WalkStop, err
				}
				testCases = append(testCases, *current)
			}
			current = &TestCase{Name: name}

		case *ast.FencedCodeBlock:
			language := string(n.Language(source))
			content := fenceContent(n, source)
			line := lineNumber(n, source)

			if current == nil {
				if language != "" {
					return ast.WalkStop, fmt.Errorf("line %d: %s fence found outside of test case", line, language)
				}
				return ast.WalkContinue, nil
			}

			switch {
			case language == InputLanguage:
				if current.Source != "" {
					return ast.WalkStop, fmt.Errorf("line %d: multiple sysy fences in test '%s'", line, current.Name)
				}
				current.Source = content
			case language == string(AssertionInput):
				current.Stdin = content
			case isAssertion(language):
				current.Assertions = append(current.Assertions, Assertion{
					Type:    AssertionType(language),
					Content: strings.TrimRight(content, "\n"),
					Line:    line,
				})
			case language != "":
				return ast.WalkStop, fmt.Errorf("line %d: unknown fence language '%s' in test '%s'", line, language, current.Name)
			}
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, fmt.Errorf("error walking markdown AST: %w", err)
	}

	if current != nil {
		if err := validate(current); err != nil {
			return nil, err
		}
		testCases = append(testCases, *current)
	}
	return testCases, nil
}

func isAssertion(language string) bool {
	switch AssertionType(language) {
	case AssertionIR, AssertionAsmContains, AssertionExecute, AssertionCompileError:
		return true
	}
	return false
}

func validate(tc *TestCase) error {
	if tc.Source == "" {
		return fmt.Errorf("test '%s' has no sysy fence", tc.Name)
	}
	if len(tc.Assertions) == 0 {
		return fmt.Errorf("test '%s' has no assertion fences", tc.Name)
	}
	for _, assertion := range tc.Assertions {
		if assertion.Type != AssertionExecute {
			continue
		}
		if _, err := ParseExecution(assertion.Content); err != nil {
			return fmt.Errorf("line %d: test '%s': %w", assertion.Line, tc.Name, err)
		}
	}
	return nil
}

func nodeText(node ast.Node, source []byte) string {
	var buf bytes.Buffer
	ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if t, ok := n.(*ast.Text); ok && entering {
			buf.Write(t.Segment.Value(source))
		}
		return ast.WalkContinue, nil
	})
	return buf.String()
}

func fenceContent(block *ast.FencedCodeBlock, source []byte) string {
	var buf bytes.Buffer
	lines := block.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(source))
	}
	return buf.String()
}

func lineNumber(node ast.Node, source []byte) int {
	if node.Lines().Len() == 0 {
		return 1
	}
	start := node.Lines().At(0).Start
	return bytes.Count(source[:start], []byte("\n")) + 1
}
