package codegen

import (
	"fmt"
	"io"

	"github.com/iley/sysyc/internal/codegen/asm"
	"github.com/iley/sysyc/internal/codegen/riscv"
	"github.com/iley/sysyc/internal/ir"
)

type Target int

const (
	TargetRISCV32 Target = iota
)

func TargetFromName(name string) (Target, error) {
	switch name {
	case "riscv32", "rv32":
		return TargetRISCV32, nil
	}
	return 0, fmt.Errorf("unknown target: %s", name)
}

func (t Target) String() string {
	switch t {
	case TargetRISCV32:
		return "riscv32"
	}
	return fmt.Sprintf("target(%d)", int(t))
}

// Lower selects instructions without rendering them.
func Lower(target Target, irp *ir.Program) (asm.Program, error) {
	switch target {
	case TargetRISCV32:
		return riscv.Generate(irp)
	}
	return asm.Program{}, fmt.Errorf("unknown target: %v", target)
}

// Generate writes assembly text for the target. Nothing is written on error.
func Generate(out io.Writer, target Target, irp *ir.Program) error {
	asmProgram, err := Lower(target, irp)
	if err != nil {
		return err
	}
	return riscv.Format(out, asmProgram)
}
