// Package rvsim executes the RV32IM subset emitted by the RISC-V backend directly on the
// assembly model, with the SysY runtime functions implemented natively.
package rvsim

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/iley/sysyc/internal/codegen/asm"
	"github.com/iley/sysyc/internal/logger"
	"github.com/iley/sysyc/internal/util"
)

const (
	// Addresses below DATA_BASE are unmapped so that null dereferences fault.
	DATA_BASE = 0x1000

	DEFAULT_MAX_STEPS  = 100_000_000
	DEFAULT_STACK_SIZE = 8 << 20

	// Return address of the entry function. Returning to it halts the machine.
	exitAddress = -1
)

var (
	ErrStepLimit          = errors.New("step limit exceeded")
	ErrMemoryFault        = errors.New("memory fault")
	ErrUnknownSymbol      = errors.New("unknown symbol")
	ErrIllegalInstruction = errors.New("illegal instruction")
	ErrBadInput           = errors.New("bad input")
)

var registerNames = []string{
	"zero", "ra", "sp", "gp", "tp", "t0", "t1", "t2",
	"s0", "s1", "a0", "a1", "a2", "a3", "a4", "a5",
	"a6", "a7", "s2", "s3", "s4", "s5", "s6", "s7",
	"s8", "s9", "s10", "s11", "t3", "t4", "t5", "t6",
}

var registerIndex = func() map[string]int {
	index := make(map[string]int, len(registerNames))
	for i, name := range registerNames {
		index[name] = i
		index[fmt.Sprintf("x%d", i)] = i
	}
	index["fp"] = 8
	return index
}()

type Config struct {
	Stdin     io.Reader
	Stdout    io.Writer
	MaxSteps  int64
	StackSize int
}

func DefaultConfig() Config {
	return Config{
		Stdin:     strings.NewReader(""),
		Stdout:    io.Discard,
		MaxSteps:  DEFAULT_MAX_STEPS,
		StackSize: DEFAULT_STACK_SIZE,
	}
}

type Machine struct {
	code    []asm.Line
	labels  map[string]int
	symbols map[string]int32
	regs    [32]int32
	mem     []byte
	pc      int
	steps   int64

	maxSteps int64
	in       *bufio.Reader
	out      *bufio.Writer
}

// New loads the program: instructions are laid out in order, labels resolve to instruction
// indices and globals are placed from DATA_BASE upwards. The stack sits above the data.
func New(prog asm.Program, cfg Config) (*Machine, error) {
	if cfg.Stdin == nil {
		cfg.Stdin = strings.NewReader("")
	}
	if cfg.Stdout == nil {
		cfg.Stdout = io.Discard
	}
	if cfg.StackSize <= 0 {
		cfg.StackSize = DEFAULT_STACK_SIZE
	}

	m := &Machine{
		labels:   make(map[string]int),
		symbols:  make(map[string]int32),
		maxSteps: cfg.MaxSteps,
		in:       bufio.NewReader(cfg.Stdin),
		out:      bufio.NewWriter(cfg.Stdout),
	}

	for _, fn := range prog.Functions {
		if _, dup := m.labels[fn.Name]; dup {
			return nil, fmt.Errorf("duplicate symbol %s", fn.Name)
		}
		m.labels[fn.Name] = len(m.code)
		for _, line := range fn.Lines {
			if line.Label != "" {
				m.labels[line.Label] = len(m.code)
			}
			if line.Op != "" {
				m.code = append(m.code, line)
			}
		}
	}

	addr := DATA_BASE
	for _, global := range prog.Globals {
		m.symbols[global.Name] = int32(addr)
		addr += util.Align(global.Size(), 4)
	}
	dataEnd := util.Align(addr, 16)
	m.mem = make([]byte, dataEnd+cfg.StackSize)
	for _, global := range prog.Globals {
		base := m.symbols[global.Name]
		for i, word := range global.Words {
			binary.LittleEndian.PutUint32(m.mem[int(base)+4*i:], uint32(word))
		}
	}
	return m, nil
}

// Run executes a program from main and returns its exit code.
func Run(prog asm.Program, cfg Config) (int32, error) {
	m, err := New(prog, cfg)
	if err != nil {
		return 0, err
	}
	return m.Run("main")
}

// Steps returns the number of instructions executed so far.
func (m *Machine) Steps() int64 {
	return m.steps
}

// Run calls entry and returns the value of a0 once it returns. Output is flushed even on error.
func (m *Machine) Run(entry string) (int32, error) {
	start, ok := m.labels[entry]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownSymbol, entry)
	}
	m.pc = start
	m.regs[registerIndex["ra"]] = exitAddress
	m.regs[registerIndex["sp"]] = int32(len(m.mem))

	err := m.loop()
	if flushErr := m.out.Flush(); err == nil {
		err = flushErr
	}
	logger.Debug("simulation finished", "entry", entry, "steps", m.steps, "error", err)
	if err != nil {
		return 0, err
	}
	return m.regs[registerIndex["a0"]], nil
}

func (m *Machine) loop() error {
	for m.pc != exitAddress {
		if m.pc < 0 || m.pc >= len(m.code) {
			return fmt.Errorf("%w: jump to instruction %d", ErrMemoryFault, m.pc)
		}
		if m.maxSteps > 0 && m.steps >= m.maxSteps {
			return fmt.Errorf("%w: %d", ErrStepLimit, m.maxSteps)
		}
		m.steps++

		line := m.code[m.pc]
		m.pc++
		if err := m.exec(line); err != nil {
			return fmt.Errorf("%s %v: %w", line.Op, line.Args, err)
		}
	}
	return nil
}

func (m *Machine) exec(line asm.Line) error {
	args := line.Args
	switch line.Op {
	case "li":
		return m.setReg(args, 0, int32(args[1].Imm))
	case "mv":
		return m.unary(args, func(x int32) int32 { return x })
	case "seqz":
		return m.unary(args, func(x int32) int32 { return boolToInt(x == 0) })
	case "snez":
		return m.unary(args, func(x int32) int32 { return boolToInt(x != 0) })
	case "neg":
		return m.unary(args, func(x int32) int32 { return -x })
	case "la":
		addr, ok := m.symbols[args[1].Label]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownSymbol, args[1].Label)
		}
		return m.setReg(args, 0, addr)
	case "addi":
		base, err := m.reg(args[1])
		if err != nil {
			return err
		}
		return m.setReg(args, 0, base+int32(args[2].Imm))
	case "add", "sub", "mul", "div", "rem", "and", "or", "xor", "slt", "sltu":
		return m.binary(line.Op, args)
	case "lw":
		addr, err := m.address(args[1])
		if err != nil {
			return err
		}
		val, err := m.load(addr)
		if err != nil {
			return err
		}
		return m.setReg(args, 0, val)
	case "sw":
		val, err := m.reg(args[0])
		if err != nil {
			return err
		}
		addr, err := m.address(args[1])
		if err != nil {
			return err
		}
		return m.store(addr, val)
	case "bnez", "beqz":
		cond, err := m.reg(args[0])
		if err != nil {
			return err
		}
		if (cond != 0) == (line.Op == "bnez") {
			return m.jump(args[1])
		}
		return nil
	case "j":
		return m.jump(args[0])
	case "call":
		return m.call(args[0].Label)
	case "ret":
		m.pc = int(m.regs[registerIndex["ra"]])
		return nil
	}
	return fmt.Errorf("%w: %s", ErrIllegalInstruction, line.Op)
}

func (m *Machine) call(name string) error {
	if target, ok := m.labels[name]; ok {
		m.regs[registerIndex["ra"]] = int32(m.pc)
		m.pc = target
		return nil
	}
	if intrinsic, ok := intrinsics[name]; ok {
		return intrinsic(m)
	}
	return fmt.Errorf("%w: %s", ErrUnknownSymbol, name)
}

func (m *Machine) jump(target asm.Arg) error {
	idx, ok := m.labels[target.Label]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSymbol, target.Label)
	}
	m.pc = idx
	return nil
}

func (m *Machine) reg(arg asm.Arg) (int32, error) {
	idx, ok := registerIndex[arg.Reg]
	if arg.Kind != asm.ArgReg || !ok {
		return 0, fmt.Errorf("%w: bad register %s", ErrIllegalInstruction, arg)
	}
	return m.regs[idx], nil
}

func (m *Machine) setReg(args []asm.Arg, i int, val int32) error {
	idx, ok := registerIndex[args[i].Reg]
	if args[i].Kind != asm.ArgReg || !ok {
		return fmt.Errorf("%w: bad register %s", ErrIllegalInstruction, args[i])
	}
	if idx != 0 {
		m.regs[idx] = val
	}
	return nil
}

func (m *Machine) unary(args []asm.Arg, op func(int32) int32) error {
	x, err := m.reg(args[1])
	if err != nil {
		return err
	}
	return m.setReg(args, 0, op(x))
}

func (m *Machine) binary(op string, args []asm.Arg) error {
	x, err := m.reg(args[1])
	if err != nil {
		return err
	}
	y, err := m.reg(args[2])
	if err != nil {
		return err
	}

	var result int32
	switch op {
	case "add":
		result = x + y
	case "sub":
		result = x - y
	case "mul":
		result = x * y
	case "div":
		result = divide(x, y)
	case "rem":
		result = remainder(x, y)
	case "and":
		result = x & y
	case "or":
		result = x | y
	case "xor":
		result = x ^ y
	case "slt":
		result = boolToInt(x < y)
	case "sltu":
		result = boolToInt(uint32(x) < uint32(y))
	}
	return m.setReg(args, 0, result)
}

// RISC-V M extension semantics: no traps on division.
func divide(x, y int32) int32 {
	if y == 0 {
		return -1
	}
	if x == math.MinInt32 && y == -1 {
		return math.MinInt32
	}
	return x / y
}

func remainder(x, y int32) int32 {
	if y == 0 {
		return x
	}
	if x == math.MinInt32 && y == -1 {
		return 0
	}
	return x % y
}

func (m *Machine) address(arg asm.Arg) (int32, error) {
	if arg.Kind != asm.ArgMem {
		return 0, fmt.Errorf("%w: expected memory operand, got %s", ErrIllegalInstruction, arg)
	}
	base, err := m.reg(asm.Reg(arg.Reg))
	if err != nil {
		return 0, err
	}
	return base + int32(arg.Imm), nil
}

func (m *Machine) checkAddress(addr int32) error {
	if addr < DATA_BASE || int(addr)+4 > len(m.mem) || addr%4 != 0 {
		return fmt.Errorf("%w: address %#x", ErrMemoryFault, addr)
	}
	return nil
}

func (m *Machine) load(addr int32) (int32, error) {
	if err := m.checkAddress(addr); err != nil {
		return 0, err
	}
	return int32(binary.LittleEndian.Uint32(m.mem[addr:])), nil
}

func (m *Machine) store(addr, val int32) error {
	if err := m.checkAddress(addr); err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(m.mem[addr:], uint32(val))
	return nil
}

func boolToInt(b bool) int32 {
	if b {
		return 1
	}
	return 0
}
