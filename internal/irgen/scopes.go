package irgen

import (
	"fmt"

	"github.com/iley/sysyc/internal/ir"
)

type SymbolKind int

const (
	SymConst SymbolKind = iota
	SymVar
	SymLocalArray
	SymLocalConstArray
	SymGlobalVar
	SymGlobalArray
	SymGlobalConstArray
	// Array parameter. Ptr is the slot holding the decayed pointer and Dims[0] is 0.
	SymParamArray
)

type Symbol struct {
	Kind SymbolKind
	// Value of a scalar constant.
	Const int32
	// Storage: an alloc or a global.
	Ptr  *ir.Value
	Dims []int
	// Flattened elements of a const array, used when it is indexed in a constant expression.
	Values []int32
}

func (s Symbol) IsArray() bool {
	switch s.Kind {
	case SymLocalArray, SymLocalConstArray, SymGlobalArray, SymGlobalConstArray, SymParamArray:
		return true
	}
	return false
}

func (s Symbol) IsConst() bool {
	switch s.Kind {
	case SymConst, SymLocalConstArray, SymGlobalConstArray:
		return true
	}
	return false
}

type scope map[string]Symbol

// ScopeStack resolves source identifiers. Scope 0 holds globals and is never popped.
type ScopeStack struct {
	scopes []scope
	// Map that tracks how many times a given name has been used.
	// This is used for renaming variables to make names unique across the whole program.
	usageCounts map[string]int
}

func NewScopeStack() *ScopeStack {
	return &ScopeStack{
		scopes:      []scope{make(scope)},
		usageCounts: make(map[string]int),
	}
}

func (ss *ScopeStack) Enter() {
	ss.scopes = append(ss.scopes, make(scope))
}

// Exit pops the innermost scope. It does nothing at the global scope.
func (ss *ScopeStack) Exit() {
	if len(ss.scopes) > 1 {
		ss.scopes = ss.scopes[:len(ss.scopes)-1]
	}
}

// Depth returns 0 at global scope.
func (ss *ScopeStack) Depth() int {
	return len(ss.scopes) - 1
}

// Define adds a symbol to the innermost scope. Shadowing outer scopes is allowed.
func (ss *ScopeStack) Define(name string, sym Symbol) error {
	innermost := ss.scopes[len(ss.scopes)-1]
	if _, exists := innermost[name]; exists {
		return ErrDuplicateDefinition
	}
	innermost[name] = sym
	return nil
}

func (ss *ScopeStack) Lookup(name string) (Symbol, error) {
	for i := len(ss.scopes) - 1; i >= 0; i-- {
		if sym, ok := ss.scopes[i][name]; ok {
			return sym, nil
		}
	}
	return Symbol{}, ErrUnknownIdentifier
}

// UniqueName returns "@base_N" where N counts previous requests for the same base.
func (ss *ScopeStack) UniqueName(base string) string {
	idx := ss.usageCounts[base]
	ss.usageCounts[base]++
	return fmt.Sprintf("@%s_%d", base, idx)
}
