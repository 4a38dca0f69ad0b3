// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwlib

import (
	"github.com/circuitlab/hwsim"
	"github.com/pkg/errors"
)

// SRLatch returns a set/reset latch made of two cross-coupled NAND gates.
// Inputs are active low.
//
//	Inputs: s, r
//	Outputs: q, qn
//	Function: s=0 sets q, r=0 resets q, s=r=1 holds
//
func SRLatch() *hwsim.Netlist {
	b := newBuilder()
	s, r := b.in("s"), b.in("r")
	n1 := b.gate(hwsim.Nand, "n1", s, nil)
	n2 := b.gate(hwsim.Nand, "n2", r, n1.Out[0])
	b.connect(n2.Out[0], n1.In[1])
	b.out("q", n1.Out[0])
	b.out("qn", n2.Out[0])
	return b.done()
}

// DLatch returns a level sensitive data latch.
//
//	Inputs: d, en
//	Outputs: q
//	Function: if en { q = d }
//
func DLatch() *hwsim.Netlist {
	b := newBuilder()
	l := b.gate(hwsim.DLatch, "", b.in("d"), b.in("en"))
	b.out("q", l.Out[0])
	return b.done()
}

// Counter returns a synchronous binary counter clocked by a Clock
// component. Each bit is a flip-flop fed by the XOR of its output and the
// carry of the lower bits.
//
//	Inputs: en
//	Clock: clk
//	Outputs: q[bits]
//	Function: q(t) = q(t-1) + en on each rising edge of clk
//
func Counter(bits int) (*hwsim.Netlist, error) {
	if bits < 1 || bits > 32 {
		return nil, errors.Errorf("counter width %d out of range [1, 32]", bits)
	}
	b := newBuilder()
	if bits+2 > b.n.Passes {
		b.n.Passes = bits + 2
	}
	en := b.in("en")
	clk := b.clock("clk")
	t := en
	for i, l := range bus("q", bits) {
		ff := b.gate(hwsim.DFF, "", nil, clk)
		q := ff.Out[0]
		b.connect(b.op(hwsim.Xor, "", q, t), ff.In[0])
		if i < bits-1 {
			t = b.op(hwsim.And, "", q, t)
		}
		b.out(l, q)
	}
	return b.done(), nil
}
