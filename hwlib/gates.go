// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package hwlib provides a library of ready-made netlists for hwsim.
//
// Every function returns a settled netlist whose inputs are Toggle
// components and whose outputs are Light components, labeled after the
// ports listed in the function documentation. Vector ports get one component
// per bit, labeled "name[i]".
//
package hwlib

import (
	"strconv"

	"github.com/circuitlab/hwsim"
	"github.com/pkg/errors"
)

// Gate returns a single gate of kind k with n inputs.
//
//	Inputs: a, b, ... (in for NOT and buffers)
//	Outputs: out
//
func Gate(k hwsim.Kind, n int) (*hwsim.Netlist, error) {
	b := newBuilder()
	switch {
	case k == hwsim.Not || k == hwsim.Buffer:
		b.out(pOut, b.op(k, "", b.in(pIn)))
	case k.IsGate():
		if n < 2 {
			return nil, errors.Errorf("%s needs at least 2 inputs, got %d", k, n)
		}
		ins := make([]*hwsim.Port, n)
		for i := range ins {
			ins[i] = b.in(string(rune('a' + i%26)) + suffix(i/26))
		}
		b.out(pOut, b.op(k, "", ins...))
	default:
		return nil, errors.Wrapf(hwsim.ErrUnsupported, "%s is not a gate", k)
	}
	return b.done(), nil
}

func suffix(i int) string {
	if i == 0 {
		return ""
	}
	return strconv.Itoa(i)
}

// NandNot returns a NOT gate built from a NAND.
//
//	Inputs: in
//	Outputs: out
//
func NandNot() *hwsim.Netlist {
	b := newBuilder()
	in := b.in(pIn)
	b.out(pOut, b.op(hwsim.Nand, "", in, in))
	return b.done()
}

// NandAnd returns an AND gate built from NAND gates.
//
//	Inputs: a, b
//	Outputs: out
//
func NandAnd() *hwsim.Netlist {
	b := newBuilder()
	x := b.op(hwsim.Nand, "", b.in(pA), b.in(pB))
	b.out(pOut, b.op(hwsim.Nand, "", x, x))
	return b.done()
}

// NandOr returns an OR gate built from NAND gates.
//
//	Inputs: a, b
//	Outputs: out
//
func NandOr() *hwsim.Netlist {
	b := newBuilder()
	a, bb := b.in(pA), b.in(pB)
	notA := b.op(hwsim.Nand, "notA", a, a)
	notB := b.op(hwsim.Nand, "notB", bb, bb)
	b.out(pOut, b.op(hwsim.Nand, "", notA, notB))
	return b.done()
}

// NandXor returns a XOR gate built from four NAND gates.
//
//	Inputs: a, b
//	Outputs: out
//
func NandXor() *hwsim.Netlist {
	b := newBuilder()
	a, bb := b.in(pA), b.in(pB)
	n := b.op(hwsim.Nand, "", a, bb)
	x := b.op(hwsim.Nand, "", a, n)
	y := b.op(hwsim.Nand, "", bb, n)
	b.out(pOut, b.op(hwsim.Nand, "", x, y))
	return b.done()
}
