package rvsim

import (
	"errors"
	"fmt"
	"io"
)

type intrinsic func(m *Machine) error

// Native versions of the SysY runtime library. Names and signatures match functions.Intrinsics.
var intrinsics = map[string]intrinsic{
	"getint":    getint,
	"getch":     getch,
	"getarray":  getarray,
	"putint":    putint,
	"putch":     putch,
	"putarray":  putarray,
	"starttime": func(*Machine) error { return nil },
	"stoptime":  func(*Machine) error { return nil },
}

func (m *Machine) arg(i int) int32 {
	return m.regs[registerIndex["a0"]+i]
}

func (m *Machine) setResult(val int32) {
	m.regs[registerIndex["a0"]] = val
}

func (m *Machine) readInt() (int32, error) {
	var val int32
	if _, err := fmt.Fscan(m.in, &val); err != nil {
		return 0, fmt.Errorf("%w: reading integer: %v", ErrBadInput, err)
	}
	return val, nil
}

func getint(m *Machine) error {
	val, err := m.readInt()
	if err != nil {
		return err
	}
	m.setResult(val)
	return nil
}

// getch returns -1 at the end of input.
func getch(m *Machine) error {
	c, err := m.in.ReadByte()
	if errors.Is(err, io.EOF) {
		m.setResult(-1)
		return nil
	} else if err != nil {
		return err
	}
	m.setResult(int32(c))
	return nil
}

func getarray(m *Machine) error {
	base := m.arg(0)
	n, err := m.readInt()
	if err != nil {
		return err
	}
	for i := int32(0); i < n; i++ {
		val, err := m.readInt()
		if err != nil {
			return err
		}
		if err := m.store(base+4*i, val); err != nil {
			return err
		}
	}
	m.setResult(n)
	return nil
}

func putint(m *Machine) error {
	_, err := fmt.Fprintf(m.out, "%d", m.arg(0))
	return err
}

func putch(m *Machine) error {
	return m.out.WriteByte(byte(m.arg(0)))
}

func putarray(m *Machine) error {
	n, base := m.arg(0), m.arg(1)
	fmt.Fprintf(m.out, "%d:", n)
	for i := int32(0); i < n; i++ {
		val, err := m.load(base + 4*i)
		if err != nil {
			return err
		}
		fmt.Fprintf(m.out, " %d", val)
	}
	_, err := fmt.Fprintf(m.out, "\n")
	return err
}
