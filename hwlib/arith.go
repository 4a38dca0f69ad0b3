// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwlib

import (
	"github.com/circuitlab/hwsim"
	"github.com/pkg/errors"
)

// halfAdder adds a XOR and an AND and returns the sum and carry.
func (b *builder) halfAdder(a, bb *hwsim.Port) (s, c *hwsim.Port) {
	return b.op(hwsim.Xor, "", a, bb), b.op(hwsim.And, "", a, bb)
}

// fullAdder chains two half adders.
func (b *builder) fullAdder(a, bb, cin *hwsim.Port) (s, cout *hwsim.Port) {
	s0, c0 := b.halfAdder(a, bb)
	s, c1 := b.halfAdder(s0, cin)
	return s, b.op(hwsim.Or, "", c0, c1)
}

// HalfAdder returns a half adder.
//
//	Inputs: a, b
//	Outputs: s, c
//	Function: s = lsb(a + b)
//	          c = msb(a + b)
//
func HalfAdder() *hwsim.Netlist {
	b := newBuilder()
	s, c := b.halfAdder(b.in(pA), b.in(pB))
	b.out("s", s)
	b.out("c", c)
	return b.done()
}

// FullAdder returns a full adder.
//
//	Inputs: a, b, cin
//	Outputs: s, cout
//	Function: s = lsb(a + b + cin)
//	          cout = msb(a + b + cin)
//
func FullAdder() *hwsim.Netlist {
	b := newBuilder()
	s, c := b.fullAdder(b.in(pA), b.in(pB), b.in("cin"))
	b.out("s", s)
	b.out("cout", c)
	return b.done()
}

// RippleAdder returns a ripple carry adder of the given width.
//
//	Inputs: a[bits], b[bits]
//	Outputs: out[bits], c
//	Function: out = a + b, c is the carry out
//
// Inputs are ordered a[bits-1] ... a[0], b[bits-1] ... b[0] so that the
// first input of each operand is its most significant bit.
//
func RippleAdder(bits int) (*hwsim.Netlist, error) {
	if bits < 1 || bits > 32 {
		return nil, errors.Errorf("adder width %d out of range [1, 32]", bits)
	}
	b := newBuilder()
	// the carry goes through two gates per bit
	if p := 2*bits + 2; p > b.n.Passes {
		b.n.Passes = p
	}
	as, bs := bus(pA, bits), bus(pB, bits)
	a := make([]*hwsim.Port, bits)
	bb := make([]*hwsim.Port, bits)
	for i := bits - 1; i >= 0; i-- {
		a[i] = b.in(as[i])
	}
	for i := bits - 1; i >= 0; i-- {
		bb[i] = b.in(bs[i])
	}
	outs := bus(pOut, bits)
	var c *hwsim.Port
	for i := 0; i < bits; i++ {
		var s *hwsim.Port
		if i == 0 {
			s, c = b.halfAdder(a[i], bb[i])
		} else {
			s, c = b.fullAdder(a[i], bb[i], c)
		}
		b.out(outs[i], s)
	}
	b.out("c", c)
	return b.done(), nil
}
