// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwlib

import (
	"github.com/circuitlab/hwsim"
	"github.com/pkg/errors"
)

// MuxTree returns a 1<<selBits to 1 multiplexer built from a tree of MUX2
// components.
//
//	Inputs: sel[selBits], in[1<<selBits]
//	Outputs: out
//	Function: out = in[sel]
//
func MuxTree(selBits int) (*hwsim.Netlist, error) {
	if selBits < 1 || selBits > 4 {
		return nil, errors.Errorf("select width %d out of range [1, 4]", selBits)
	}
	b := newBuilder()
	sel := make([]*hwsim.Port, selBits)
	for i, l := range bus(pSel, selBits) {
		sel[i] = b.in(l)
	}
	var level []*hwsim.Port
	for _, l := range bus(pIn, 1<<uint(selBits)) {
		level = append(level, b.in(l))
	}
	for _, s := range sel {
		next := make([]*hwsim.Port, len(level)/2)
		for i := range next {
			next[i] = b.op(hwsim.Mux2, "", level[2*i], level[2*i+1], s)
		}
		level = next
	}
	b.out(pOut, level[0])
	return b.done(), nil
}

// Decoder returns a 2 to 4 decoder.
//
//	Inputs: a, b
//	Outputs: out[4]
//	Function: out[b<<1|a] = 1, other outputs are 0
//
func Decoder() *hwsim.Netlist {
	b := newBuilder()
	d := b.gate(hwsim.Decoder, "", b.in(pA), b.in(pB))
	for i, l := range bus(pOut, 4) {
		b.out(l, d.Out[i])
	}
	return b.done()
}
