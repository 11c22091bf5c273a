// Package checks validates the structure of generated IR before code generation.
package checks

import "github.com/iley/sysyc/internal/ir"

// Run returns every structural problem found in prog. An empty result means the
// program is safe to hand to a backend.
func Run(prog *ir.Program) []error {
	var errs []error
	for _, fn := range prog.Functions {
		if fn.IsDeclaration() {
			continue
		}
		blockChecker := NewBlockChecker(fn)
		blockChecker.Check()
		errs = append(errs, blockChecker.Errors()...)

		valueChecker := NewValueChecker(prog, fn)
		valueChecker.Check()
		errs = append(errs, valueChecker.Errors()...)
	}
	return errs
}
