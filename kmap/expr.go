// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package kmap

import (
	"fmt"
	"sort"
	"strings"

	"github.com/circuitlab/hwsim"
	"github.com/pkg/errors"
)

type notation struct {
	not, and, or string
	zero, one    string
}

var (
	unicodeOps = notation{not: "¬", and: " ∧ ", or: " ∨ ", zero: "0", one: "1"}
	verilogOps = notation{not: "~", and: " & ", or: " | ", zero: "1'b0", one: "1'b1"}
)

func term(vars []string, lits []literal, n notation) string {
	if len(lits) == 0 {
		return n.one
	}
	s := make([]string, len(lits))
	for i, l := range lits {
		s[i] = vars[l.v]
		if l.neg {
			s[i] = n.not + s[i]
		}
	}
	return strings.Join(s, n.and)
}

func (m *Map) render(vars []string, n notation) string {
	ones := m.ones()
	switch {
	case ones == 0:
		return n.zero
	case ones == m.full():
		return n.one
	}
	seen := make(map[string]bool)
	var terms []string
	multi := make(map[string]bool)
	for _, g := range m.cover {
		t := term(vars, g.lits, n)
		if seen[t] {
			continue
		}
		seen[t] = true
		multi[t] = len(g.lits) > 1
		terms = append(terms, t)
	}
	sort.Strings(terms)
	if len(terms) > 1 {
		for i, t := range terms {
			if multi[t] {
				terms[i] = "(" + t + ")"
			}
		}
	}
	return strings.Join(terms, n.or)
}

// Expression returns the minimized sum of products using ¬, ∧ and ∨, or "0"
// and "1" for constant functions.
//
func (m *Map) Expression() string {
	return m.render(m.Vars, unicodeOps)
}

// Verilog returns the minimized sum of products as a Verilog expression over
// the map variables.
//
func (m *Map) Verilog() string {
	return m.render(m.Vars, verilogOps)
}

// Module returns the text of a module named name implementing every output
// of tt as a minimized assign statement. Port names are the table labels
// turned into identifiers.
//
func Module(name string, tt *hwsim.TruthTable) (string, error) {
	if len(tt.Outputs) == 0 {
		return "", errors.New("truth table has no outputs")
	}
	used := make(map[string]bool)
	ident := func(label string) string {
		id := hwsim.Identifier(label)
		for base, i := id, 2; used[id]; i++ {
			id = fmt.Sprintf("%s_%d", base, i)
		}
		used[id] = true
		return id
	}
	ins := make([]string, len(tt.Inputs))
	for i, l := range tt.Inputs {
		ins[i] = ident(l)
	}
	outs := make([]string, len(tt.Outputs))
	for i, l := range tt.Outputs {
		outs[i] = ident(l)
	}

	var b strings.Builder
	var ports []string
	for _, s := range ins {
		ports = append(ports, "input "+s)
	}
	for _, s := range outs {
		ports = append(ports, "output "+s)
	}
	fmt.Fprintf(&b, "module %s(%s);\n", hwsim.Identifier(name), strings.Join(ports, ", "))
	for i, o := range outs {
		m, err := FromTable(tt, i)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "  assign %s = %s;\n", o, m.render(ins, verilogOps))
	}
	b.WriteString("endmodule\n")
	return b.String(), nil
}
