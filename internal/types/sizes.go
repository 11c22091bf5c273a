package types

import (
	"fmt"
)

const (
	WORD_SIZE = 4
)

// GetTypeSize returns the size in bytes on RV32.
func GetTypeSize(typ Type) int {
	switch t := typ.(type) {
	case *PointerType:
		return WORD_SIZE
	case *ArrayType:
		return t.Len * GetTypeSize(t.ElementType)
	case *BaseType:
		if t.Equals(Int32) {
			return 4
		} else if t.Equals(Unit) {
			return 0
		}
	}
	panic(fmt.Sprintf("unknown type %s", typ))
}
