// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwlib_test

import (
	"testing"
	"testing/quick"

	hw "github.com/circuitlab/hwsim"
	hl "github.com/circuitlab/hwsim/hwlib"
	"github.com/circuitlab/hwsim/hwtest"
	"github.com/circuitlab/hwsim/synth"
)

// testGate checks every row of the truth table of n against result, one
// column per output.
func testGate(t *testing.T, name string, n *hw.Netlist, result [][]bool) {
	t.Helper()
	tt, err := n.TruthTable()
	if err != nil {
		t.Fatal(err)
	}
	if len(tt.Outputs) != len(result) {
		t.Fatalf("%s: %d outputs, expected %d", name, len(tt.Outputs), len(result))
	}
	for o := range tt.Outputs {
		for i, row := range tt.Rows {
			if exp := result[o][i]; row.Out[o] != exp {
				t.Errorf("%s %v: %s = %v, got %v", name, row.In, tt.Outputs[o], exp, row.Out[o])
			}
		}
	}
}

func mustGate(t *testing.T, k hw.Kind, n int) *hw.Netlist {
	t.Helper()
	g, err := hl.Gate(k, n)
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func TestGates(t *testing.T) {
	td := []struct {
		name   string
		n      *hw.Netlist
		result [][]bool
	}{
		{"NOT", mustGate(t, hw.Not, 1), [][]bool{{true, false}}},
		{"BUF", mustGate(t, hw.Buffer, 1), [][]bool{{false, true}}},
		{"AND", mustGate(t, hw.And, 2), [][]bool{{false, false, false, true}}},
		{"NAND", mustGate(t, hw.Nand, 2), [][]bool{{true, true, true, false}}},
		{"OR", mustGate(t, hw.Or, 2), [][]bool{{false, true, true, true}}},
		{"NOR", mustGate(t, hw.Nor, 2), [][]bool{{true, false, false, false}}},
		{"XOR", mustGate(t, hw.Xor, 2), [][]bool{{false, true, true, false}}},
		{"XNOR", mustGate(t, hw.Xnor, 2), [][]bool{{true, false, false, true}}},
		{"AND3", mustGate(t, hw.And, 3), [][]bool{{false, false, false, false, false, false, false, true}}},
		{"XOR3", mustGate(t, hw.Xor, 3), [][]bool{{false, true, true, false, true, false, false, true}}},
		{"NandNot", hl.NandNot(), [][]bool{{true, false}}},
		{"NandAnd", hl.NandAnd(), [][]bool{{false, false, false, true}}},
		{"NandOr", hl.NandOr(), [][]bool{{false, true, true, true}}},
		{"NandXor", hl.NandXor(), [][]bool{{false, true, true, false}}},
		{"HalfAdder", hl.HalfAdder(), [][]bool{
			{false, true, true, false},
			{false, false, false, true}}},
		{"FullAdder", hl.FullAdder(), [][]bool{
			{false, true, true, false, true, false, false, true},
			{false, false, false, true, false, true, true, true}}},
	}
	for _, d := range td {
		t.Run(d.name, func(t *testing.T) {
			testGate(t, d.name, d.n, d.result)
		})
	}
}

func TestGate_errors(t *testing.T) {
	if _, err := hl.Gate(hw.And, 1); err == nil {
		t.Error("expected error for a single input AND")
	}
	if _, err := hl.Gate(hw.DFF, 2); err == nil {
		t.Error("expected error for a DFF")
	}
}

func TestNandGates_synth(t *testing.T) {
	td := []struct {
		name string
		n    *hw.Netlist
		src  string
	}{
		{"or", hl.NandOr(), `module m(input a, b, output out); assign out = a | b; endmodule`},
		{"and", hl.NandAnd(), `module m(input a, b, output out); assign out = a & b; endmodule`},
		{"xor", hl.NandXor(), `module m(input a, b, output out); xor g(out, a, b); endmodule`},
	}
	for _, d := range td {
		t.Run(d.name, func(t *testing.T) {
			r, err := synth.FromVerilog(d.src, nil)
			if err != nil {
				t.Fatal(err)
			}
			hwtest.CompareNetlists(t, d.n, r.Netlist)
		})
	}
}

func TestRippleAdder(t *testing.T) {
	const bits = 8
	n, err := hl.RippleAdder(bits)
	if err != nil {
		t.Fatal(err)
	}
	a := make([]*hw.Component, bits)
	b := make([]*hw.Component, bits)
	out := make([]*hw.Component, bits)
	for i := 0; i < bits; i++ {
		a[i] = n.Find("a[" + string(rune('0'+i)) + "]")
		b[i] = n.Find("b[" + string(rune('0'+i)) + "]")
		out[i] = n.Find("out[" + string(rune('0'+i)) + "]")
	}
	c := n.Find("c")

	add := func(x, y uint8) bool {
		for i := 0; i < bits; i++ {
			if err := a[i].SetLevel(x&(1<<uint(i)) != 0); err != nil {
				t.Fatal(err)
			}
			if err := b[i].SetLevel(y&(1<<uint(i)) != 0); err != nil {
				t.Fatal(err)
			}
		}
		if err := n.Simulate(); err != nil {
			t.Fatal(err)
		}
		var sum uint
		for i, o := range out {
			if o.Value().Bool() {
				sum |= 1 << uint(i)
			}
		}
		if c.Value().Bool() {
			sum |= 1 << bits
		}
		return sum == uint(x)+uint(y)
	}
	if !add(255, 1) {
		t.Error("255 + 1 failed")
	}
	if err := quick.Check(add, nil); err != nil {
		t.Error(err)
	}
	if _, err := hl.RippleAdder(0); err == nil {
		t.Error("expected error for a zero width adder")
	}
}

func TestMuxTree(t *testing.T) {
	n, err := hl.MuxTree(2)
	if err != nil {
		t.Fatal(err)
	}
	tt, err := n.TruthTable()
	if err != nil {
		t.Fatal(err)
	}
	// inputs: sel[0] sel[1] in[0] in[1] in[2] in[3]
	for _, row := range tt.Rows {
		sel := 0
		if row.In[0] {
			sel |= 1
		}
		if row.In[1] {
			sel |= 2
		}
		if exp := row.In[2+sel]; row.Out[0] != exp {
			t.Fatalf("%v: expected %v, got %v", row.In, exp, row.Out[0])
		}
	}
}

func TestDecoder(t *testing.T) {
	n := hl.Decoder()
	for i := 0; i < 4; i++ {
		if err := n.Find("a").SetLevel(i&1 != 0); err != nil {
			t.Fatal(err)
		}
		if err := n.Find("b").SetLevel(i&2 != 0); err != nil {
			t.Fatal(err)
		}
		if err := n.Simulate(); err != nil {
			t.Fatal(err)
		}
		for j := 0; j < 4; j++ {
			o := n.Find("out[" + string(rune('0'+j)) + "]")
			if o.Value().Bool() != (i == j) {
				t.Errorf("sel %d: out[%d] = %v", i, j, o.Value().Bool())
			}
		}
	}
}

func TestSRLatch(t *testing.T) {
	n := hl.SRLatch()
	s, r, q := n.Find("s"), n.Find("r"), n.Find("q")
	set := func(sv, rv bool) bool {
		t.Helper()
		if err := s.SetLevel(sv); err != nil {
			t.Fatal(err)
		}
		if err := r.SetLevel(rv); err != nil {
			t.Fatal(err)
		}
		if err := n.Simulate(); err != nil {
			t.Fatal(err)
		}
		return q.Value().Bool()
	}
	if !set(false, true) {
		t.Error("set")
	}
	if !set(true, true) {
		t.Error("hold after set")
	}
	if set(true, false) {
		t.Error("reset")
	}
	if set(true, true) {
		t.Error("hold after reset")
	}
}

func TestDLatch(t *testing.T) {
	n := hl.DLatch()
	d, en, q := n.Find("d"), n.Find("en"), n.Find("q")
	step := func(dv, ev bool) bool {
		t.Helper()
		if err := d.SetLevel(dv); err != nil {
			t.Fatal(err)
		}
		if err := en.SetLevel(ev); err != nil {
			t.Fatal(err)
		}
		if err := n.Simulate(); err != nil {
			t.Fatal(err)
		}
		return q.Value().Bool()
	}
	if !step(true, true) {
		t.Error("transparent")
	}
	if !step(false, false) {
		t.Error("latched")
	}
	if step(false, true) {
		t.Error("transparent again")
	}
}

func TestCounter(t *testing.T) {
	const bits = 4
	n, err := hl.Counter(bits)
	if err != nil {
		t.Fatal(err)
	}
	value := func() int {
		v := 0
		for i := 0; i < bits; i++ {
			if n.Find("q[" + string(rune('0'+i)) + "]").Value().Bool() {
				v |= 1 << uint(i)
			}
		}
		return v
	}
	if err := n.Find("en").SetLevel(true); err != nil {
		t.Fatal(err)
	}
	for i := 1; i <= 20; i++ {
		if err := n.TickTock(); err != nil {
			t.Fatal(err)
		}
		if v := value(); v != i%(1<<bits) {
			t.Fatalf("after %d cycles: got %d", i, v)
		}
	}
	if err := n.Find("en").SetLevel(false); err != nil {
		t.Fatal(err)
	}
	v := value()
	if err := n.TickTock(); err != nil {
		t.Fatal(err)
	}
	if value() != v {
		t.Error("counter moved while disabled")
	}
}
