// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwsim

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// WriteDot writes a graphviz description of n. Inputs and outputs are ranked
// on the first and last rows, components are labeled with their type and
// label, and wires carry their current value.
//
func (n *Netlist) WriteDot(w io.Writer) error {
	out := bufio.NewWriter(w)
	fmt.Fprintf(out, "digraph netlist\n{\n")
	fmt.Fprintf(out, "  rankdir=LR;\n")
	fmt.Fprintf(out, "  node\t[fontname=\"Helvetica\"];\n")

	idx := make(map[*Component]int, len(n.cs))
	for i, c := range n.cs {
		idx[c] = i
	}
	shape := func(k Kind) string {
		switch k {
		case Toggle, Button, Clock, Const0, Const1:
			return "invtriangle"
		case Light:
			return "doublecircle"
		case Text:
			return "plaintext"
		}
		return "box"
	}
	for i, c := range n.cs {
		label := c.Kind.String()
		if c.Label != "" {
			label += "\\n" + c.Label
		}
		fmt.Fprintf(out, "  c%d\t[shape=%s, label=\"%s\"];\n", i, shape(c.Kind), strings.ReplaceAll(label, `"`, `\"`))
	}

	rank := func(f func(Kind) bool) {
		fmt.Fprintf(out, "  {  rank=same")
		for i, c := range n.cs {
			if f(c.Kind) {
				fmt.Fprintf(out, "; c%d", i)
			}
		}
		fmt.Fprintf(out, ";}\n")
	}
	rank(Kind.IsInput)
	rank(func(k Kind) bool { return k == Light })

	for _, wr := range n.ws {
		if wr.To == nil {
			continue
		}
		fmt.Fprintf(out, "  c%d -> c%d\t[taillabel=%q, headlabel=%q, label=%q];\n",
			idx[wr.From.c], idx[wr.To.c], wr.From.ID, wr.To.ID, wr.From.Value.String())
	}
	fmt.Fprintf(out, "}\n")
	return out.Flush()
}
