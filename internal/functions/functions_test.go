package functions

import (
	"testing"

	"github.com/nalgeon/be"

	"github.com/iley/sysyc/internal/types"
)

func TestIntrinsicSignatures(t *testing.T) {
	testCases := []struct {
		name     string
		expected string
	}{
		{"getint", "(): i32"},
		{"getch", "(): i32"},
		{"getarray", "(*i32): i32"},
		{"putint", "(i32)"},
		{"putch", "(i32)"},
		{"putarray", "(i32, *i32)"},
		{"starttime", "()"},
		{"stoptime", "()"},
	}

	table := NewTable()
	be.Equal(t, len(table.All()), len(testCases))
	for _, tc := range testCases {
		proto, ok := table.Lookup(tc.name)
		be.True(t, ok)
		be.True(t, proto.Intrinsic)
		be.Equal(t, proto.Type().String(), tc.expected)
	}
}

func TestTableAdd(t *testing.T) {
	table := NewTable()
	proto := Proto{Name: "f", Params: []Param{{"x", types.Int32}}, ReturnType: types.Unit}

	be.True(t, table.Add(proto))
	be.True(t, !table.Add(proto))
	be.True(t, !table.Add(Proto{Name: "putint", ReturnType: types.Unit}))

	got, ok := table.Lookup("f")
	be.True(t, ok)
	be.True(t, got.IsVoid())
	be.True(t, !got.Intrinsic)

	_, ok = table.Lookup("g")
	be.True(t, !ok)
}
