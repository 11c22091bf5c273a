package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/iley/sysyc/internal/compiler"
	"github.com/iley/sysyc/internal/rvsim"
)

// TestCase is a program with its expected output and optional input.
type TestCase struct {
	Name         string
	SourceFile   string
	InputFile    string
	ExpectedFile string
}

// discoverTests finds every <name>.sy in testsDir that has a matching <name>.out.
func discoverTests(testsDir string) ([]TestCase, error) {
	var tests []TestCase

	err := filepath.WalkDir(testsDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".sy") {
			return nil
		}

		base := strings.TrimSuffix(path, ".sy")
		expectedFile := base + ".out"
		if _, err := os.Stat(expectedFile); err != nil {
			return nil
		}

		test := TestCase{
			Name:         strings.TrimSuffix(filepath.Base(path), ".sy"),
			SourceFile:   path,
			ExpectedFile: expectedFile,
		}
		if _, err := os.Stat(base + ".in"); err == nil {
			test.InputFile = base + ".in"
		}
		tests = append(tests, test)
		return nil
	})

	sort.Slice(tests, func(i, j int) bool {
		return tests[i].Name < tests[j].Name
	})
	return tests, err
}

// matchesFilter accepts a test number ("07"), a full name or a path to the source file.
func matchesFilter(test TestCase, filter string) bool {
	if filter == "" {
		return true
	}
	filter = strings.TrimSuffix(filepath.Base(filter), ".sy")
	return test.Name == filter || strings.HasPrefix(test.Name, filter+"_")
}

// runTest compiles and executes a test and renders its output the way the expected files
// store it: stdout, a newline if stdout does not end with one, then the exit code.
func runTest(test TestCase, maxSteps int64) (string, error) {
	src, err := os.Open(test.SourceFile)
	if err != nil {
		return "", err
	}
	defer src.Close()

	var stdin io.Reader = strings.NewReader("")
	if test.InputFile != "" {
		in, err := os.Open(test.InputFile)
		if err != nil {
			return "", err
		}
		defer in.Close()
		stdin = in
	}

	var stdout bytes.Buffer
	cfg := rvsim.DefaultConfig()
	cfg.Stdin = stdin
	cfg.Stdout = &stdout
	cfg.MaxSteps = maxSteps

	exitCode, err := compiler.Run(src, test.SourceFile, cfg)
	if err != nil {
		return "", err
	}

	output := stdout.String()
	if output != "" && !strings.HasSuffix(output, "\n") {
		output += "\n"
	}
	return output + fmt.Sprintf("%d\n", exitCode&0xff), nil
}

func runSingleTest(test TestCase, maxSteps int64) error {
	actual, err := runTest(test, maxSteps)
	if errors.Is(err, rvsim.ErrStepLimit) {
		return fmt.Errorf("timeout: %w", err)
	} else if err != nil {
		return err
	}

	content, err := os.ReadFile(test.ExpectedFile)
	if err != nil {
		return fmt.Errorf("error reading expected output: %w", err)
	}
	expected := string(content)

	if strings.TrimRight(actual, " \n") != strings.TrimRight(expected, " \n") {
		return fmt.Errorf("output mismatch:\nExpected: %q\nActual:   %q", expected, actual)
	}
	return nil
}

func main() {
	testsDir := flag.String("dir", "tests", "directory with .sy, .in and .out files")
	filter := flag.String("filter", "", "run only the test with this number, name or path")
	verbose := flag.Bool("v", false, "print every test, not only failures")
	maxSteps := flag.Int64("max-steps", rvsim.DEFAULT_MAX_STEPS, "instruction limit per test")
	flag.Parse()

	tests, err := discoverTests(*testsDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error discovering tests: %v\n", err)
		os.Exit(1)
	}
	if len(tests) == 0 {
		fmt.Printf("No tests found in %s\n", *testsDir)
		return
	}

	var testsToRun []TestCase
	for _, test := range tests {
		if matchesFilter(test, *filter) {
			testsToRun = append(testsToRun, test)
		}
	}
	if len(testsToRun) == 0 {
		fmt.Fprintf(os.Stderr, "Error: test not found: %s\n", *filter)
		os.Exit(1)
	}

	passed := 0
	failed := 0
	for _, test := range testsToRun {
		if err := runSingleTest(test, *maxSteps); err != nil {
			fmt.Printf("FAIL %s - %v\n", test.Name, err)
			failed++
			continue
		}
		if *verbose {
			fmt.Printf("PASS %s\n", test.Name)
		}
		passed++
	}

	if failed == 0 {
		fmt.Printf("Test Results: %d passed. All good!\n", passed)
	} else {
		fmt.Printf("Test Results: %d passed, %d failed\n", passed, failed)
		os.Exit(1)
	}
}
