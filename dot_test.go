// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwsim_test

import (
	"strings"
	"testing"
)

func TestWriteDot(t *testing.T) {
	n, a := xorNetlist(t)
	if err := a.SetLevel(true); err != nil {
		t.Fatal(err)
	}
	simulate(t, n)
	var sb strings.Builder
	if err := n.WriteDot(&sb); err != nil {
		t.Fatal(err)
	}
	s := sb.String()
	for _, exp := range []string{
		"digraph netlist",
		`c0	[shape=invtriangle, label="toggle"];`,
		`c2	[shape=box, label="xor"];`,
		`c3	[shape=doublecircle, label="light-bulb"];`,
		"{  rank=same; c0; c1;}",
		`c0 -> c2	[taillabel="out0", headlabel="in0", label="1"];`,
		`c2 -> c3	[taillabel="out0", headlabel="in0", label="1"];`,
	} {
		if !strings.Contains(s, exp) {
			t.Errorf("missing %q in:\n%s", exp, s)
		}
	}
}
