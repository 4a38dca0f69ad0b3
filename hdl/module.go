// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hdl

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
)

// OpKind is the type of a primitive operation.
//
type OpKind uint8

// Primitive operation kinds.
//
const (
	AND OpKind = iota
	OR
	NOT
	NAND
	NOR
	XOR
	XNOR
	BUF
	MUX2
	MUX4
	DFF
)

var opNames = [...]string{
	AND:  "and",
	OR:   "or",
	NOT:  "not",
	NAND: "nand",
	NOR:  "nor",
	XOR:  "xor",
	XNOR: "xnor",
	BUF:  "buf",
	MUX2: "mux2",
	MUX4: "mux4",
	DFF:  "dff",
}

// String returns the primitive name of k, as used in instantiations.
//
func (k OpKind) String() string {
	if int(k) < len(opNames) {
		return opNames[k]
	}
	return "op(" + strconv.Itoa(int(k)) + ")"
}

// ParseOpKind returns the kind for a primitive name.
//
func ParseOpKind(s string) (OpKind, bool) {
	for k, n := range opNames {
		if n == s {
			return OpKind(k), true
		}
	}
	return 0, false
}

// Arity returns the exact input count of fixed-arity primitives, or -2 for
// gates taking at least two inputs.
//
func (k OpKind) Arity() int {
	switch k {
	case NOT, BUF:
		return 1
	case MUX2:
		return 3
	case MUX4:
		return 6
	case DFF:
		return 2
	}
	return -2
}

// scalar reports whether input i of an operation of kind k is a control
// input (select or clock) that always takes a single bit.
func (k OpKind) scalar(i int) bool {
	switch k {
	case MUX2:
		return i == 2
	case MUX4:
		return i >= 4
	case DFF:
		return i == 1
	}
	return false
}

// A Port is a module input, output or internal wire.
//
type Port struct {
	Name   string
	MSB    int
	LSB    int
	Ranged bool
}

// Width returns the bit width of p.
//
func (p Port) Width() int {
	if !p.Ranged {
		return 1
	}
	if p.MSB >= p.LSB {
		return p.MSB - p.LSB + 1
	}
	return p.LSB - p.MSB + 1
}

// Bits returns the signal names of the individual bits of p, least
// significant bit first: "a" for a scalar, "a[0]", "a[1]", ... for a vector
// declared as [1:0].
//
func (p Port) Bits() []string {
	if !p.Ranged {
		return []string{p.Name}
	}
	step := 1
	if p.MSB < p.LSB {
		step = -1
	}
	r := make([]string, 0, p.Width())
	for i := p.LSB; ; i += step {
		r = append(r, BitName(p.Name, i))
		if i == p.MSB {
			break
		}
	}
	return r
}

func (p Port) String() string {
	if p.Ranged {
		return fmt.Sprintf("[%d:%d] %s", p.MSB, p.LSB, p.Name)
	}
	return p.Name
}

// BitName returns the signal name of bit i of vector name.
//
func BitName(name string, i int) string {
	return name + "[" + strconv.Itoa(i) + "]"
}

// SplitBit splits a bit signal name into its base name and index. ok is false
// for scalar names.
//
func SplitBit(s string) (base string, index int, ok bool) {
	i := strings.IndexByte(s, '[')
	if i <= 0 || !strings.HasSuffix(s, "]") {
		return s, 0, false
	}
	n, err := strconv.Atoi(s[i+1 : len(s)-1])
	if err != nil {
		return s, 0, false
	}
	return s[:i], n, true
}

// A CaseArm records one slot of a multiplexer built from a case statement.
//
type CaseArm struct {
	Value  string // case label, "default", or empty for an uncovered slot
	Result string // signal selected for that label
}

// An Operation is a primitive gate or multiplexer instance. Inputs are
// ordered as follows:
//
//	gates: operands
//	MUX2: d0, d1, sel
//	MUX4: d0, d1, d2, d3, s0, s1
//	DFF: d, clk
//
// Inputs are signal names or literals (see IsLiteral).
//
type Operation struct {
	Kind   OpKind
	Name   string
	Output string
	Inputs []string
	// Select is the source text of the select expression of multiplexers
	// built from if, case or ternary expressions.
	Select string
	Cases  []CaseArm
	Pos    lexer.Position
}

func (o *Operation) String() string {
	return fmt.Sprintf("%s %s(%s, %s)", o.Kind, o.Name, o.Output, strings.Join(o.Inputs, ", "))
}

// A Module is the result of parsing a module declaration. Ops lists the
// primitive operations in source order, with every signal driven by at most
// one operation.
//
type Module struct {
	Name     string
	Inputs   []Port
	Outputs  []Port
	Wires    []Port
	Ops      []*Operation
	Warnings []string
}

// InputBits returns the bit signal names of all inputs, in declaration order.
//
func (m *Module) InputBits() []string {
	return bits(m.Inputs)
}

// OutputBits returns the bit signal names of all outputs, in declaration
// order.
//
func (m *Module) OutputBits() []string {
	return bits(m.Outputs)
}

func bits(ps []Port) []string {
	var r []string
	for _, p := range ps {
		r = append(r, p.Bits()...)
	}
	return r
}

// Driver returns the operation driving signal s, or nil.
//
func (m *Module) Driver(s string) *Operation {
	for _, o := range m.Ops {
		if o.Output == s {
			return o
		}
	}
	return nil
}

// Port returns the port, wire or vector with the given base name.
//
func (m *Module) Port(name string) (Port, bool) {
	for _, l := range [][]Port{m.Inputs, m.Outputs, m.Wires} {
		for _, p := range l {
			if p.Name == name {
				return p, true
			}
		}
	}
	return Port{}, false
}

// IsInput returns true if s is an input signal or input bit.
//
func (m *Module) IsInput(s string) bool {
	for _, b := range m.InputBits() {
		if b == s {
			return true
		}
	}
	return false
}

// String returns m in the text syntax, one operation per line.
//
func (m *Module) String() string {
	var b strings.Builder
	var ports []string
	for _, p := range m.Inputs {
		ports = append(ports, p.Name)
	}
	for _, p := range m.Outputs {
		ports = append(ports, p.Name)
	}
	fmt.Fprintf(&b, "module %s(%s);\n", m.Name, strings.Join(ports, ", "))
	decl := func(kw string, ps []Port) {
		for _, p := range ps {
			fmt.Fprintf(&b, "  %s %s;\n", kw, p)
		}
	}
	decl("input", m.Inputs)
	decl("output", m.Outputs)
	decl("wire", m.Wires)
	for _, o := range m.Ops {
		fmt.Fprintf(&b, "  %s;\n", o)
	}
	b.WriteString("endmodule\n")
	return b.String()
}
