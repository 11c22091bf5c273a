// Package compiler chains the phases: source text, AST, IR, assembly.
// Every Emit function renders into memory first, so nothing is written when a phase fails.
package compiler

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/iley/sysyc/internal/ast"
	"github.com/iley/sysyc/internal/checks"
	"github.com/iley/sysyc/internal/codegen"
	"github.com/iley/sysyc/internal/codegen/asm"
	"github.com/iley/sysyc/internal/codegen/llvm"
	"github.com/iley/sysyc/internal/ir"
	"github.com/iley/sysyc/internal/irgen"
	"github.com/iley/sysyc/internal/lexer"
	"github.com/iley/sysyc/internal/logger"
	"github.com/iley/sysyc/internal/parser"
	"github.com/iley/sysyc/internal/rvsim"
)

func Parse(src io.Reader, filename string) (*ast.Program, error) {
	prog, err := parser.New(lexer.New(src, filename)).ParseProgram()
	if err != nil {
		return nil, err
	}
	logger.LogPhase("parse", "file", filename, "items", len(prog.Items))
	return prog, nil
}

func LowerIR(src io.Reader, filename string) (*ir.Program, error) {
	prog, err := Parse(src, filename)
	if err != nil {
		return nil, err
	}
	irp, err := irgen.Generate(prog)
	if err != nil {
		return nil, err
	}
	if errs := checks.Run(irp); len(errs) > 0 {
		return nil, fmt.Errorf("malformed IR: %w", errors.Join(errs...))
	}
	return irp, nil
}

func Assemble(src io.Reader, filename string, target codegen.Target) (asm.Program, error) {
	irp, err := LowerIR(src, filename)
	if err != nil {
		return asm.Program{}, err
	}
	return codegen.Lower(target, irp)
}

func EmitAST(out io.Writer, src io.Reader, filename string) error {
	prog, err := Parse(src, filename)
	if err != nil {
		return err
	}
	_, err = io.WriteString(out, prog.String()+"\n")
	return err
}

func EmitIR(out io.Writer, src io.Reader, filename string) error {
	irp, err := LowerIR(src, filename)
	if err != nil {
		return err
	}
	return irp.Print(out)
}

func EmitAsm(out io.Writer, src io.Reader, filename string, target codegen.Target) error {
	irp, err := LowerIR(src, filename)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := codegen.Generate(&buf, target, irp); err != nil {
		return err
	}
	_, err = buf.WriteTo(out)
	return err
}

func EmitLLVM(out io.Writer, src io.Reader, filename string) error {
	irp, err := LowerIR(src, filename)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := llvm.Generate(&buf, irp); err != nil {
		return err
	}
	_, err = buf.WriteTo(out)
	return err
}

// Run compiles the program for RV32 and executes it in the simulator.
func Run(src io.Reader, filename string, cfg rvsim.Config) (int32, error) {
	prog, err := Assemble(src, filename, codegen.TargetRISCV32)
	if err != nil {
		return 0, err
	}
	return rvsim.Run(prog, cfg)
}
