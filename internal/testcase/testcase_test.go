package testcase

import (
	"testing"

	"github.com/nalgeon/be"
)

const fence = "```"

func TestExtract(t *testing.T) {
	markdown := `# Arithmetic

Free text and untagged fences are ignored.

` + fence + `
not a test
` + fence + `

## Test: sum
` + fence + `sysy
int main() { return 1 + 2 + 3; }
` + fence + `
` + fence + `execute
exit 6
` + fence + `

## Test: echo
` + fence + `sysy
int main() { putint(getint()); return 0; }
` + fence + `
` + fence + `input
42
` + fence + `
` + fence + `execute
exit 0
42
` + fence + `
` + fence + `asm-contains
call getint
call putint
` + fence

	testCases, err := Extract(markdown)
	be.Err(t, err, nil)
	be.Equal(t, len(testCases), 2)

	sum := testCases[0]
	be.Equal(t, sum.Name, "sum")
	be.Equal(t, sum.Source, "int main() { return 1 + 2 + 3; }\n")
	be.Equal(t, sum.Stdin, "")
	be.Equal(t, len(sum.Assertions), 1)
	be.Equal(t, sum.Assertions[0].Type, AssertionExecute)
	be.Equal(t, sum.Assertions[0].Content, "exit 6")

	echo := testCases[1]
	be.Equal(t, echo.Name, "echo")
	be.Equal(t, echo.Stdin, "42\n")
	be.Equal(t, len(echo.Assertions), 2)
	be.Equal(t, echo.Assertions[1].Type, AssertionAsmContains)
	be.Equal(t, echo.Assertions[1].Content, "call getint\ncall putint")
}

func TestParseExecution(t *testing.T) {
	exec, err := ParseExecution("exit 3\nhello\nworld")
	be.Err(t, err, nil)
	be.Equal(t, exec, Execution{ExitCode: 3, Stdout: "hello\nworld"})

	exec, err = ParseExecution("exit -1")
	be.Err(t, err, nil)
	be.Equal(t, exec, Execution{ExitCode: -1})

	_, err = ParseExecution("6")
	be.Err(t, err, "must start with")

	_, err = ParseExecution("exit six")
	be.Err(t, err, "invalid exit code")
}

func TestExtract_Errors(t *testing.T) {
	testCases := []struct {
		name     string
		markdown string
		expected string
	}{
		{
			name:     "fence outside test",
			markdown: fence + "sysy\nint main() {}\n" + fence,
			expected: "line 2: sysy fence found outside of test case",
		},
		{
			name:     "unknown language",
			markdown: "## Test: x\n" + fence + "sysy\nint main() {}\n" + fence + "\n" + fence + "wasm\n\n" + fence,
			expected: "unknown fence language 'wasm'",
		},
		{
			name:     "no source",
			markdown: "## Test: x\n" + fence + "execute\nexit 0\n" + fence,
			expected: "test 'x' has no sysy fence",
		},
		{
			name:     "no assertions",
			markdown: "## Test: x\n" + fence + "sysy\nint main() {}\n" + fence,
			expected: "test 'x' has no assertion fences",
		},
		{
			name:     "multiple sources",
			markdown: "## Test: x\n" + fence + "sysy\nint main() {}\n" + fence + "\n" + fence + "sysy\nint main() {}\n" + fence,
			expected: "multiple sysy fences",
		},
		{
			name:     "bad execute fence",
			markdown: "## Test: x\n" + fence + "sysy\nint main() {}\n" + fence + "\n" + fence + "execute\n0\n" + fence,
			expected: "must start with",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Extract(tc.markdown)
			be.Err(t, err, tc.expected)
		})
	}
}
