package asm

import "fmt"

var (
	Zero = Reg("zero")
	RA   = Reg("ra")
	SP   = Reg("sp")
	T0   = Reg("t0")
	T1   = Reg("t1")
	T2   = Reg("t2")
	T6   = Reg("t6")
	A0   = Reg("a0")
)

// Number of integer argument registers (a0-a7).
const ARG_REGISTERS = 8

type Program struct {
	Globals   []Global
	Functions []Function
}

type Function struct {
	Name  string
	Lines []Line
}

// Global is an entry in the data section. ZeroSize > 0 means the global is zero-filled
// and Words is empty.
type Global struct {
	Name     string
	Words    []int32
	ZeroSize int
}

// Size returns the size of the global in bytes.
func (g Global) Size() int {
	if g.ZeroSize > 0 {
		return g.ZeroSize
	}
	return 4 * len(g.Words)
}

// Line is an instruction, a label or a standalone comment.
type Line struct {
	Comment string
	Label   string
	Op      string
	Args    []Arg
}

type ArgKind int

const (
	ArgReg ArgKind = iota
	ArgImm
	ArgLabel
	ArgMem
)

type Arg struct {
	Kind  ArgKind
	Reg   string
	Imm   int
	Label string
}

func (a Arg) String() string {
	switch a.Kind {
	case ArgReg:
		return a.Reg
	case ArgImm:
		return fmt.Sprintf("%d", a.Imm)
	case ArgLabel:
		return a.Label
	case ArgMem:
		return fmt.Sprintf("%d(%s)", a.Imm, a.Reg)
	}
	panic(fmt.Errorf("invalid arg %#v", a))
}

func Reg(name string) Arg {
	return Arg{Kind: ArgReg, Reg: name}
}

// ArgRegister returns a0..a7.
func ArgRegister(i int) Arg {
	return Reg(fmt.Sprintf("a%d", i))
}

func Imm(value int) Arg {
	return Arg{Kind: ArgImm, Imm: value}
}

func Ref(label string) Arg {
	return Arg{Kind: ArgLabel, Label: label}
}

// Mem is the offset(base) operand of loads and stores.
func Mem(base Arg, offset int) Arg {
	return Arg{Kind: ArgMem, Reg: base.Reg, Imm: offset}
}

func Op0(op string) Line {
	return Line{Op: op}
}

func Op1(op string, arg Arg) Line {
	return Line{Op: op, Args: []Arg{arg}}
}

func Op2(op string, arg1, arg2 Arg) Line {
	return Line{Op: op, Args: []Arg{arg1, arg2}}
}

func Op3(op string, arg1, arg2, arg3 Arg) Line {
	return Line{Op: op, Args: []Arg{arg1, arg2, arg3}}
}

func Comment(text string) Line {
	return Line{Comment: text}
}

func Label(text string) Line {
	return Line{Label: text}
}
