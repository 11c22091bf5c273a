package irgen

import (
	"errors"
	"fmt"

	"github.com/iley/sysyc/internal/ast"
)

// Semantic errors. They are wrapped with a source location and detail, match them with errors.Is.
var (
	ErrDuplicateDefinition         = errors.New("duplicate definition")
	ErrUnknownIdentifier           = errors.New("unknown identifier")
	ErrUnknownFunction             = errors.New("unknown function")
	ErrAssignToConstant            = errors.New("assignment to constant")
	ErrAssignToArray               = errors.New("assignment to array")
	ErrIndexIntoScalar             = errors.New("index into scalar")
	ErrLoadEntireArray             = errors.New("array used as value")
	ErrBreakOutsideLoop            = errors.New("break outside loop")
	ErrContinueOutsideLoop         = errors.New("continue outside loop")
	ErrTooManyInitializers         = errors.New("too many initializers")
	ErrMisalignedInitializer       = errors.New("misaligned initializer")
	ErrUnsupportedInitializerShape = errors.New("unsupported initializer shape")
	ErrMissingEntryFunction        = errors.New("missing entry function")
	ErrArgumentCount               = errors.New("wrong number of arguments")
	ErrArgumentType                = errors.New("argument type mismatch")
	ErrVoidValue                   = errors.New("void value used")
	ErrReturnMismatch              = errors.New("return type mismatch")
	ErrNotConstant                 = errors.New("not a constant expression")
	ErrDivisionByZero              = errors.New("division by zero")
	ErrInvalidDimension            = errors.New("invalid array dimension")
)

func errorAt(loc ast.Location, err error, format string, args ...any) error {
	return fmt.Errorf("%s: %w: %s", loc, err, fmt.Sprintf(format, args...))
}
