package functions

import "github.com/iley/sysyc/internal/types"

var intPtr = types.NewPointerType(types.Int32)

// Intrinsics returns the runtime library functions every program may call.
func Intrinsics() []Proto {
	return []Proto{
		{
			Name:       "getint",
			ReturnType: types.Int32,
		},
		{
			Name:       "getch",
			ReturnType: types.Int32,
		},
		{
			Name:       "getarray",
			Params:     []Param{{"a", intPtr}},
			ReturnType: types.Int32,
		},
		{
			Name:       "putint",
			Params:     []Param{{"n", types.Int32}},
			ReturnType: types.Unit,
		},
		{
			Name:       "putch",
			Params:     []Param{{"c", types.Int32}},
			ReturnType: types.Unit,
		},
		{
			Name:       "putarray",
			Params:     []Param{{"n", types.Int32}, {"a", intPtr}},
			ReturnType: types.Unit,
		},
		{
			Name:       "starttime",
			ReturnType: types.Unit,
		},
		{
			Name:       "stoptime",
			ReturnType: types.Unit,
		},
	}
}
