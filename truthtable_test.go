// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwsim_test

import (
	"strings"
	"testing"

	hw "github.com/circuitlab/hwsim"
	"github.com/pkg/errors"
)

func xorNetlist(t *testing.T) (*hw.Netlist, *hw.Component) {
	n := hw.New()
	a, b := n.Add(hw.Toggle, ""), n.Add(hw.Toggle, "")
	g := n.Add(hw.Xor, "")
	l := n.Add(hw.Light, "")
	connect(t, n, a.Out[0], g.In[0])
	connect(t, n, b.Out[0], g.In[1])
	connect(t, n, g.Out[0], l.In[0])
	return n, a
}

func TestTruthTable(t *testing.T) {
	n, a := xorNetlist(t)
	if err := a.SetLevel(true); err != nil {
		t.Fatal(err)
	}
	tt, err := n.TruthTable()
	if err != nil {
		t.Fatal(err)
	}
	if !a.State().Bool() {
		t.Fatal("input level not restored")
	}
	if len(tt.Rows) != 4 || tt.Output("F1") != 0 || tt.Output("F2") != -1 {
		t.Fatalf("bad table shape: %+v", tt)
	}
	col := tt.Column(0)
	for i, exp := range []bool{false, true, true, false} {
		if col[i] != exp {
			t.Errorf("row %d: %v, expected %v", i, col[i], exp)
		}
	}
	var sb strings.Builder
	if err = tt.Write(&sb); err != nil {
		t.Fatal(err)
	}
	exp := "A\tB\t|\tF1\n" +
		"0\t0\t|\t0\n" +
		"0\t1\t|\t1\n" +
		"1\t0\t|\t1\n" +
		"1\t1\t|\t0\n"
	if sb.String() != exp {
		t.Fatalf("got:\n%s\nexpected:\n%s", sb.String(), exp)
	}
}

func TestTruthTable_errors(t *testing.T) {
	n := hw.New()
	for i := 0; i <= hw.MaxTableInputs; i++ {
		n.Add(hw.Toggle, "")
	}
	if _, err := n.TruthTable(); errors.Cause(err) != hw.ErrTooManyInputs {
		t.Fatalf("expected ErrTooManyInputs, got %v", err)
	}
	n = hw.New()
	if _, err := n.AddID("in", hw.Toggle, "", 0, 2); err != nil {
		t.Fatal(err)
	}
	if _, err := n.TruthTable(); errors.Cause(err) != hw.ErrUnsupported {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}

// A netlist that cannot be simulated reports the error and keeps its input
// levels.
func TestTruthTable_dangling(t *testing.T) {
	n, a := xorNetlist(t)
	if err := a.SetLevel(true); err != nil {
		t.Fatal(err)
	}
	if _, err := n.Dangle(a.Out[0]); err != nil {
		t.Fatal(err)
	}
	tt, err := n.TruthTable()
	if errors.Cause(err) != hw.ErrDangling {
		t.Fatalf("expected ErrDangling, got %v", err)
	}
	if tt != nil {
		t.Fatal("got a table from a netlist that cannot be simulated")
	}
	if !a.State().Bool() {
		t.Fatal("input level not restored")
	}
}
