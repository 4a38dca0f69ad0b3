// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package equiv checks the combinational equivalence of two modules with a
// SAT solver.
//
// Both modules are built into a single and-inverter circuit over shared
// input literals. Matching outputs are xored and the xors or'ed into a
// miter: the modules are equivalent if and only if the miter is
// unsatisfiable.
//
package equiv

import (
	"sort"
	"strings"

	"github.com/circuitlab/hwsim/hdl"
	"github.com/go-air/gini"
	"github.com/go-air/gini/logic"
	"github.com/go-air/gini/z"
	"github.com/pkg/errors"
)

// ErrSequential is returned for modules holding state: flip-flops or
// combinational loops.
//
var ErrSequential = errors.New("module is not combinational")

// ErrPorts is returned when the two modules do not have the same input and
// output bits.
//
var ErrPorts = errors.New("port mismatch")

const sat = 1

// Result is the outcome of an equivalence check.
//
type Result struct {
	Equivalent bool
	// Counterexample holds the input levels of a distinguishing assignment.
	// Signals left free by the solver are reported low.
	Counterexample map[string]bool
	// Output is the first output bit, in declaration order, that differs
	// under Counterexample.
	Output string
}

// circuit lowers modules into a shared logic.C.
type circuit struct {
	c   *logic.C
	ins map[string]z.Lit
	// names of free signals, in creation order
	free []string
}

func newCircuit() *circuit {
	return &circuit{c: logic.NewC(), ins: make(map[string]z.Lit)}
}

func (ct *circuit) input(name string) z.Lit {
	if m, ok := ct.ins[name]; ok {
		return m
	}
	m := ct.c.Lit()
	ct.ins[name] = m
	ct.free = append(ct.free, name)
	return m
}

// builder computes the literal of every signal of one module.
type builder struct {
	ct    *circuit
	m     *hdl.Module
	lits  map[string]z.Lit
	state map[string]int // 1: in progress, 2: done
}

func (ct *circuit) add(m *hdl.Module) (map[string]z.Lit, error) {
	b := &builder{ct: ct, m: m, lits: make(map[string]z.Lit), state: make(map[string]int)}
	for _, op := range m.Ops {
		if op.Kind == hdl.DFF {
			return nil, errors.Wrapf(ErrSequential, "%s: flip-flop %s", m.Name, op.Name)
		}
	}
	outs := make(map[string]z.Lit)
	for _, o := range m.OutputBits() {
		l, err := b.signal(o)
		if err != nil {
			return nil, err
		}
		outs[o] = l
	}
	return outs, nil
}

func (b *builder) signal(s string) (z.Lit, error) {
	c := b.ct.c
	if hdl.IsLiteral(s) {
		v, err := hdl.LiteralBit(s, 0)
		if err != nil {
			return z.LitNull, err
		}
		if v {
			return c.T, nil
		}
		return c.F, nil
	}
	switch b.state[s] {
	case 1:
		return z.LitNull, errors.Wrapf(ErrSequential, "%s: loop through %s", b.m.Name, s)
	case 2:
		return b.lits[s], nil
	}
	op := b.m.Driver(s)
	if op == nil {
		if p, ok := b.m.Port(s); ok && p.Ranged && !b.m.IsInput(s) {
			// bare vector name: least significant bit
			return b.signal(p.Bits()[0])
		}
		l := b.ct.input(s)
		b.lits[s], b.state[s] = l, 2
		return l, nil
	}
	b.state[s] = 1
	ins := make([]z.Lit, len(op.Inputs))
	for i, in := range op.Inputs {
		l, err := b.signal(in)
		if err != nil {
			return z.LitNull, err
		}
		ins[i] = l
	}
	var l z.Lit
	switch op.Kind {
	case hdl.AND:
		l = c.Ands(ins...)
	case hdl.NAND:
		l = c.Ands(ins...).Not()
	case hdl.OR:
		l = c.Ors(ins...)
	case hdl.NOR:
		l = c.Ors(ins...).Not()
	case hdl.XOR, hdl.XNOR:
		l = ins[0]
		for _, m := range ins[1:] {
			l = c.Xor(l, m)
		}
		if op.Kind == hdl.XNOR {
			l = l.Not()
		}
	case hdl.NOT:
		l = ins[0].Not()
	case hdl.BUF:
		l = ins[0]
	case hdl.MUX2:
		l = c.Choice(ins[2], ins[1], ins[0])
	case hdl.MUX4:
		lo := c.Choice(ins[4], ins[1], ins[0])
		hi := c.Choice(ins[4], ins[3], ins[2])
		l = c.Choice(ins[5], hi, lo)
	default:
		return z.LitNull, errors.Errorf("%s: unsupported operation %s", b.m.Name, op)
	}
	b.lits[s], b.state[s] = l, 2
	return l, nil
}

func sameBits(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	a = append([]string(nil), a...)
	b = append([]string(nil), b...)
	sort.Strings(a)
	sort.Strings(b)
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Check decides whether a and b compute the same outputs for every input
// assignment. Both must have the same input and output bit names, in any
// order. Undriven internal signals are treated as free inputs shared by
// name.
//
func Check(a, b *hdl.Module) (*Result, error) {
	if !sameBits(a.InputBits(), b.InputBits()) {
		return nil, errors.Wrapf(ErrPorts, "inputs [%s] and [%s]",
			strings.Join(a.InputBits(), " "), strings.Join(b.InputBits(), " "))
	}
	if !sameBits(a.OutputBits(), b.OutputBits()) {
		return nil, errors.Wrapf(ErrPorts, "outputs [%s] and [%s]",
			strings.Join(a.OutputBits(), " "), strings.Join(b.OutputBits(), " "))
	}
	ct := newCircuit()
	for _, in := range a.InputBits() {
		ct.input(in)
	}
	oa, err := ct.add(a)
	if err != nil {
		return nil, err
	}
	ob, err := ct.add(b)
	if err != nil {
		return nil, err
	}

	names := a.OutputBits()
	diffs := make([]z.Lit, len(names))
	for i, o := range names {
		diffs[i] = ct.c.Xor(oa[o], ob[o])
	}
	miter := ct.c.Ors(diffs...)
	if miter == ct.c.F {
		return &Result{Equivalent: true}, nil
	}

	g := gini.New()
	ct.c.ToCnf(g)
	g.Assume(miter)
	if g.Solve() != sat {
		return &Result{Equivalent: true}, nil
	}

	value := func(m z.Lit) bool {
		switch m {
		case ct.c.T:
			return true
		case ct.c.F:
			return false
		}
		if m.Var() > g.MaxVar() {
			return false
		}
		return g.Value(m)
	}
	r := &Result{Counterexample: make(map[string]bool, len(ct.free))}
	for _, name := range ct.free {
		r.Counterexample[name] = value(ct.ins[name])
	}
	for i, o := range names {
		if value(diffs[i]) {
			r.Output = o
			break
		}
	}
	return r, nil
}
