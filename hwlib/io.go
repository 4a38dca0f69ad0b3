// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwlib

import (
	"strconv"

	"github.com/circuitlab/hwsim"
)

// common port labels
const (
	pA   = "a"
	pB   = "b"
	pIn  = "in"
	pSel = "sel"
	pOut = "out"
)

// bus returns the bit labels of vector name, least significant bit first.
func bus(name string, bits int) []string {
	b := make([]string, bits)
	for i := range b {
		b[i] = name + "[" + strconv.Itoa(i) + "]"
	}
	return b
}

// builder wraps a netlist under construction. Wiring errors are programming
// errors and make it panic.
type builder struct {
	n *hwsim.Netlist
}

func newBuilder() *builder {
	return &builder{n: hwsim.New()}
}

// in adds a toggle and returns its output.
func (b *builder) in(label string) *hwsim.Port {
	return b.n.Add(hwsim.Toggle, label).Out[0]
}

// clock adds a clock and returns its output.
func (b *builder) clock(label string) *hwsim.Port {
	return b.n.Add(hwsim.Clock, label).Out[0]
}

// out adds a light fed by p.
func (b *builder) out(label string, p *hwsim.Port) {
	b.connect(p, b.n.Add(hwsim.Light, label).In[0])
}

// gate adds a single output component of kind k. Nil inputs are left
// unconnected, to be closed later with connect.
func (b *builder) gate(k hwsim.Kind, label string, ins ...*hwsim.Port) *hwsim.Component {
	c := b.n.AddN(k, label, len(ins), 1)
	for i, p := range ins {
		if p != nil {
			b.connect(p, c.In[i])
		}
	}
	return c
}

// op is gate returning the first output.
func (b *builder) op(k hwsim.Kind, label string, ins ...*hwsim.Port) *hwsim.Port {
	return b.gate(k, label, ins...).Out[0]
}

func (b *builder) connect(from, to *hwsim.Port) {
	if _, err := b.n.Connect(from, to); err != nil {
		panic(err)
	}
}

// done settles the netlist and returns it.
func (b *builder) done() *hwsim.Netlist {
	if err := b.n.Simulate(); err != nil {
		panic(err)
	}
	return b.n
}
