package riscv

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/iley/sysyc/internal/codegen/asm"
)

// Format writes the program as GNU assembler text.
func Format(out io.Writer, p asm.Program) error {
	w := bufio.NewWriter(out)

	if len(p.Globals) > 0 {
		fmt.Fprintf(w, "  .data\n")
		for _, global := range p.Globals {
			formatGlobal(w, global)
		}
		fmt.Fprintf(w, "\n")
	}

	for i, fn := range p.Functions {
		if i > 0 {
			fmt.Fprintf(w, "\n")
		}
		formatFunction(w, fn)
	}

	return w.Flush()
}

func formatGlobal(w io.Writer, global asm.Global) {
	fmt.Fprintf(w, "  .globl %s\n", global.Name)
	fmt.Fprintf(w, "%s:\n", global.Name)
	if global.ZeroSize > 0 {
		fmt.Fprintf(w, "  .zero %d\n", global.ZeroSize)
		return
	}
	for _, word := range global.Words {
		fmt.Fprintf(w, "  .word %d\n", word)
	}
}

func formatFunction(w io.Writer, fn asm.Function) {
	fmt.Fprintf(w, "  .text\n")
	fmt.Fprintf(w, "  .globl %s\n", fn.Name)
	fmt.Fprintf(w, "%s:\n", fn.Name)
	for _, line := range fn.Lines {
		fmt.Fprintf(w, "%s\n", FormatLine(line))
	}
}

// FormatLine renders a single line without the trailing newline.
func FormatLine(line asm.Line) string {
	var sb strings.Builder
	if line.Label != "" {
		fmt.Fprintf(&sb, "%s:", line.Label)
	} else if line.Op != "" {
		fmt.Fprintf(&sb, "  %s", line.Op)
		for i, arg := range line.Args {
			if i == 0 {
				fmt.Fprintf(&sb, " %s", arg)
			} else {
				fmt.Fprintf(&sb, ", %s", arg)
			}
		}
	}

	if line.Comment != "" {
		fmt.Fprintf(&sb, "  # %s", line.Comment)
	}
	return sb.String()
}
