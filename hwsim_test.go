// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwsim_test

import (
	"testing"

	hw "github.com/circuitlab/hwsim"
	"github.com/pkg/errors"
)

func trace(t *testing.T, err error) {
	t.Helper()
	if err, ok := err.(interface {
		StackTrace() errors.StackTrace
	}); ok {
		for _, f := range err.StackTrace() {
			t.Logf("%+v ", f)
		}
	}
}

func connect(t *testing.T, n *hw.Netlist, from, to *hw.Port) *hw.Wire {
	t.Helper()
	w, err := n.Connect(from, to)
	if err != nil {
		trace(t, err)
		t.Fatal(err)
	}
	return w
}

func simulate(t *testing.T, n *hw.Netlist) {
	t.Helper()
	if err := n.Simulate(); err != nil {
		trace(t, err)
		t.Fatal(err)
	}
}

func TestNetlist_add(t *testing.T) {
	n := hw.New()
	a := n.Add(hw.Toggle, "a")
	g := n.AddN(hw.And, "g", 3, 1)
	if len(g.In) != 3 || len(g.Out) != 1 {
		t.Fatalf("AND3 has %d inputs and %d outputs", len(g.In), len(g.Out))
	}
	if a.ID == g.ID {
		t.Fatal("duplicate generated ids")
	}
	if n.Component(g.ID) != g || n.Find("g") != g {
		t.Fatal("lookup failed")
	}
	if _, err := n.AddID(a.ID, hw.Not, "", 0, 1); err == nil {
		t.Fatal("expected duplicate id error")
	}
	c, err := n.AddID("x", hw.Mux4, "", 0, 4)
	if err != nil {
		t.Fatal(err)
	}
	if c.Width() != 4 || c.In[4].Width != 1 || c.In[5].Width != 1 {
		t.Fatalf("bad mux4 ports: width %d, sel widths %d %d", c.Width(), c.In[4].Width, c.In[5].Width)
	}
	// generated ids skip explicit ones
	n2 := hw.New()
	if _, err = n2.AddID("not-1", hw.Toggle, "", 0, 1); err != nil {
		t.Fatal(err)
	}
	if c := n2.Add(hw.Not, ""); c.ID == "not-1" {
		t.Fatal("generated id collides with explicit id")
	}
	if n.Size() != 3 {
		t.Fatalf("size = %d, expected 3", n.Size())
	}
}

func TestNetlist_connect(t *testing.T) {
	n := hw.New()
	a := n.Add(hw.Toggle, "a")
	g := n.Add(hw.Not, "")
	l := n.Add(hw.Light, "y")

	connect(t, n, a.Out[0], g.In[0])
	if _, err := n.Connect(a.Out[0], g.In[0]); errors.Cause(err) != hw.ErrConnected {
		t.Fatalf("expected ErrConnected, got %v", err)
	}
	if _, err := n.Connect(g.In[0], l.In[0]); errors.Cause(err) != hw.ErrDirection {
		t.Fatalf("expected ErrDirection, got %v", err)
	}
	other := hw.New().Add(hw.Toggle, "")
	if _, err := n.Connect(other.Out[0], l.In[0]); err == nil {
		t.Fatal("connected a port of another netlist")
	}

	w, err := n.Dangle(g.Out[0])
	if err != nil {
		t.Fatal(err)
	}
	if err = n.Simulate(); errors.Cause(err) != hw.ErrDangling {
		t.Fatalf("expected ErrDangling, got %v", err)
	}
	if err = n.Attach(w, l.In[0]); err != nil {
		t.Fatal(err)
	}
	if err = n.Attach(w, l.In[0]); err == nil {
		t.Fatal("attached a wire twice")
	}
	simulate(t, n)
	if !l.Value().Bool() {
		t.Fatal("expected NOT 0 = 1")
	}

	n.Disconnect(w)
	if l.In[0].Connected() || len(n.Wires()) != 1 {
		t.Fatal("wire not removed")
	}
	simulate(t, n)
	if l.Value().Bool() {
		t.Fatal("unconnected input must read 0")
	}
	if _, err = n.ConnectID(g.ID, "out0", l.ID, "in0"); err != nil {
		t.Fatal(err)
	}
	if _, err = n.ConnectID(g.ID, "out9", l.ID, "in0"); err == nil {
		t.Fatal("expected unknown port error")
	}
}

func TestNetlist_widths(t *testing.T) {
	n := hw.New()
	in, _ := n.AddID("in", hw.Toggle, "", 0, 4)
	narrow, _ := n.AddID("narrow", hw.Light, "", 0, 2)
	wide, _ := n.AddID("wide", hw.Light, "", 0, 8)
	connect(t, n, in.Out[0], narrow.In[0])
	connect(t, n, in.Out[0], wide.In[0])
	if err := in.SetValue(0xd); err != nil {
		t.Fatal(err)
	}
	simulate(t, n)
	if v := narrow.Value().Uint(); v != 1 {
		t.Errorf("truncated value = %d, expected 1", v)
	}
	if v := wide.Value().Uint(); v != 0xd {
		t.Errorf("extended value = %d, expected 13", v)
	}
	if s := wide.Value().String(); s != "00001101" {
		t.Errorf("String() = %q", s)
	}
}

func TestBits(t *testing.T) {
	b := hw.MakeBits(0x1f5, 8)
	if b.Uint() != 0xf5 {
		t.Fatalf("MakeBits dropped the wrong bits: %x", b.Uint())
	}
	if r := b.Resize(4); r.Uint() != 5 || len(r) != 4 {
		t.Fatalf("Resize(4) = %v", r)
	}
	if r := b.Resize(12); r.Uint() != 0xf5 || len(r) != 12 {
		t.Fatalf("Resize(12) = %v", r)
	}
	if !b.Equal(hw.MakeBits(0xf5, 8)) || b.Equal(hw.MakeBits(0xf5, 9)) {
		t.Fatal("Equal")
	}
	if hw.Bits(nil).Bool() {
		t.Fatal("empty Bits is true")
	}
}

// Simulating a settled circuit again must not change anything.
func TestSimulate_determinism(t *testing.T) {
	n := hw.New()
	a, b, c := n.Add(hw.Toggle, "a"), n.Add(hw.Toggle, "b"), n.Add(hw.Toggle, "c")
	and := n.Add(hw.And, "")
	not := n.Add(hw.Not, "")
	or := n.Add(hw.Or, "")
	y := n.Add(hw.Light, "y")
	connect(t, n, a.Out[0], and.In[0])
	connect(t, n, b.Out[0], and.In[1])
	connect(t, n, c.Out[0], not.In[0])
	connect(t, n, and.Out[0], or.In[0])
	connect(t, n, not.Out[0], or.In[1])
	connect(t, n, or.Out[0], y.In[0])

	for i := 0; i < 8; i++ {
		for j, in := range []*hw.Component{a, b, c} {
			if err := in.SetLevel(i&(4>>uint(j)) != 0); err != nil {
				t.Fatal(err)
			}
		}
		simulate(t, n)
		v := y.Value().Bool()
		steps := n.Steps()
		simulate(t, n)
		if y.Value().Bool() != v {
			t.Fatalf("input %03b: output changed on second run", i)
		}
		if n.Steps()-steps != uint(n.Passes+1) {
			t.Fatalf("ran %d passes, expected %d", n.Steps()-steps, n.Passes+1)
		}
		exp := i&6 == 6 || i&1 == 0
		if v != exp {
			t.Errorf("input %03b: y = %v, expected %v", i, v, exp)
		}
	}
}

// A ring of three inverters has no stable state: Simulate must return
// anyway.
func TestSimulate_oscillator(t *testing.T) {
	n := hw.New()
	g := []*hw.Component{n.Add(hw.Not, ""), n.Add(hw.Not, ""), n.Add(hw.Not, "")}
	for i := range g {
		connect(t, n, g[i].Out[0], g[(i+1)%3].In[0])
	}
	simulate(t, n)
	simulate(t, n)
}

func TestSetLevel(t *testing.T) {
	n := hw.New()
	g := n.Add(hw.Not, "")
	if err := g.SetLevel(true); errors.Cause(err) != hw.ErrUnsupported {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
	if err := n.Set("nope", true); err == nil {
		t.Fatal("expected unknown id error")
	}
	if err := g.SetState(1); errors.Cause(err) != hw.ErrUnsupported {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
	b := n.Add(hw.Button, "b")
	if err := n.Set(b.ID, true); err != nil {
		t.Fatal(err)
	}
	if !b.State().Bool() {
		t.Fatal("button level not set")
	}
	if len(n.Inputs()) != 1 || len(n.Outputs()) != 0 || len(n.Clocks()) != 0 {
		t.Fatal("bad I/O filters")
	}
}

func TestParseKind(t *testing.T) {
	for _, d := range []struct {
		s string
		k hw.Kind
	}{
		{"and", hw.And},
		{"LED", hw.Light},
		{"light-bulb", hw.Light},
		{" dff ", hw.DFF},
		{"dflipflop", hw.DFF},
		{"constant1", hw.Const1},
	} {
		k, err := hw.ParseKind(d.s)
		if err != nil {
			t.Fatal(err)
		}
		if k != d.k {
			t.Errorf("ParseKind(%q) = %v, expected %v", d.s, k, d.k)
		}
	}
	if _, err := hw.ParseKind("flux"); err == nil {
		t.Fatal("expected error")
	}
}
