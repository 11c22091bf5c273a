package irgen

import (
	"testing"

	"github.com/nalgeon/be"
)

func TestScopeStackShadowing(t *testing.T) {
	ss := NewScopeStack()
	be.Err(t, ss.Define("x", Symbol{Kind: SymConst, Const: 1}), nil)

	ss.Enter()
	be.Err(t, ss.Define("x", Symbol{Kind: SymConst, Const: 2}), nil)
	sym, err := ss.Lookup("x")
	be.Err(t, err, nil)
	be.Equal(t, sym.Const, int32(2))

	be.Err(t, ss.Define("x", Symbol{Kind: SymVar}), ErrDuplicateDefinition)

	ss.Exit()
	sym, err = ss.Lookup("x")
	be.Err(t, err, nil)
	be.Equal(t, sym.Const, int32(1))
}

func TestScopeStackLookupUnknown(t *testing.T) {
	ss := NewScopeStack()
	ss.Enter()
	be.Err(t, ss.Define("y", Symbol{Kind: SymVar}), nil)
	ss.Exit()

	_, err := ss.Lookup("y")
	be.Err(t, err, ErrUnknownIdentifier)
}

func TestScopeStackGlobalScopeIsNeverPopped(t *testing.T) {
	ss := NewScopeStack()
	be.Err(t, ss.Define("g", Symbol{Kind: SymGlobalVar}), nil)

	ss.Exit()
	ss.Exit()
	be.Equal(t, ss.Depth(), 0)

	sym, err := ss.Lookup("g")
	be.Err(t, err, nil)
	be.Equal(t, sym.Kind, SymGlobalVar)

	ss.Enter()
	ss.Enter()
	be.Equal(t, ss.Depth(), 2)
}

func TestUniqueName(t *testing.T) {
	ss := NewScopeStack()
	be.Equal(t, ss.UniqueName("a"), "@a_0")
	be.Equal(t, ss.UniqueName("a"), "@a_1")
	be.Equal(t, ss.UniqueName("b"), "@b_0")

	ss.Enter()
	ss.Exit()
	be.Equal(t, ss.UniqueName("a"), "@a_2")
}

func TestSymbolPredicates(t *testing.T) {
	testCases := []struct {
		kind    SymbolKind
		isArray bool
		isConst bool
	}{
		{SymConst, false, true},
		{SymVar, false, false},
		{SymLocalArray, true, false},
		{SymLocalConstArray, true, true},
		{SymGlobalVar, false, false},
		{SymGlobalArray, true, false},
		{SymGlobalConstArray, true, true},
		{SymParamArray, true, false},
	}

	for _, tc := range testCases {
		sym := Symbol{Kind: tc.kind}
		be.Equal(t, sym.IsArray(), tc.isArray)
		be.Equal(t, sym.IsConst(), tc.isConst)
	}
}
