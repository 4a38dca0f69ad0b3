// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwsim

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

var (
	reIdent  = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	reBitRef = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)\[(\d+)\]$`)
)

var keywords = map[string]bool{
	"module": true, "endmodule": true, "input": true, "output": true, "inout": true,
	"wire": true, "reg": true, "assign": true, "always": true, "begin": true,
	"end": true, "if": true, "else": true, "case": true, "casez": true,
	"casex": true, "endcase": true, "default": true, "posedge": true,
	"negedge": true, "and": true, "or": true, "not": true, "nand": true,
	"nor": true, "xor": true, "xnor": true, "buf": true, "mux2": true,
	"mux4": true, "dff": true,
}

// Identifier turns a label into a valid Verilog identifier. Keywords get a
// trailing underscore.
//
func Identifier(s string) string {
	var b strings.Builder
	for i, r := range s {
		switch {
		case r == '_' || 'a' <= r && r <= 'z' || 'A' <= r && r <= 'Z':
			b.WriteRune(r)
		case '0' <= r && r <= '9':
			if i == 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	id := b.String()
	if id == "" {
		id = "_"
	}
	if keywords[id] {
		id += "_"
	}
	return id
}

// a declared port of the generated module
type vport struct {
	name     string
	output   bool
	msb, lsb int
	vector   bool
}

// verilogWriter holds the naming state of a single WriteVerilog call.
type verilogWriter struct {
	n      *Netlist
	used   map[string]bool
	names  map[*Port]string
	ports  []*vport
	wires  []string
	lines  []string
	counts map[string]int
	wseq   int
}

// WriteVerilog writes n as a structural module in the Verilog subset
// accepted by package hdl.
//
// Toggles, Buttons and Clocks become inputs, Lights become outputs, and every
// other component becomes one or more primitive instances named after their
// type with a per-type counter (and0, and1, or0, mux2_0, ...). Internal
// signals are declared as wires w0, w1, ... and constants are written inline.
// Labels of the form name[i] are regrouped into vector ports.
//
// Adders, subtractors and decoders are decomposed into primitive gates, a
// latch becomes a multiplexer feeding back on itself. The inverted output of
// a flip-flop or latch is only written, as a NOT, when something reads it.
// Components wider than one bit are not supported.
//
func (n *Netlist) WriteVerilog(w io.Writer, name string) error {
	vw := &verilogWriter{
		n:      n,
		used:   make(map[string]bool),
		names:  make(map[*Port]string),
		counts: make(map[string]int),
	}
	for _, c := range n.cs {
		if c.Kind != Text && c.Width() != 1 {
			return errors.Wrapf(ErrUnsupported, "%s is %d bits wide", c.ID, c.Width())
		}
	}
	if name == "" {
		name = "circuit"
	}
	vw.declarePorts()
	vw.nameSignals()
	if err := vw.instances(); err != nil {
		return err
	}
	return vw.write(w, Identifier(name))
}

// Verilog returns the output of WriteVerilog as a string.
//
func (n *Netlist) Verilog(name string) (string, error) {
	var sb strings.Builder
	if err := n.WriteVerilog(&sb, name); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// unique reserves a name derived from id.
func (vw *verilogWriter) unique(id string) string {
	if !vw.used[id] {
		vw.used[id] = true
		return id
	}
	for i := 2; ; i++ {
		s := id + "_" + strconv.Itoa(i)
		if !vw.used[s] {
			vw.used[s] = true
			return s
		}
	}
}

func (vw *verilogWriter) wire() string {
	for {
		s := "w" + strconv.Itoa(vw.wseq)
		vw.wseq++
		if !vw.used[s] {
			vw.used[s] = true
			vw.wires = append(vw.wires, s)
			return s
		}
	}
}

type portLabel struct {
	c     *Component
	label string
}

// declarePorts names the I/O components and groups vector bits.
func (vw *verilogWriter) declarePorts() {
	var ins, outs []portLabel
	inputs, clocks := 0, 0
	for _, c := range vw.n.cs {
		switch c.Kind {
		case Toggle, Button:
			l := c.Label
			if l == "" {
				l = inputName(inputs)
			}
			inputs++
			ins = append(ins, portLabel{c, l})
		case Clock:
			l := c.Label
			if l == "" {
				l = "clk"
				if clocks > 0 {
					l += strconv.Itoa(clocks)
				}
			}
			clocks++
			ins = append(ins, portLabel{c, l})
		case Light:
			l := c.Label
			if l == "" {
				l = "F" + strconv.Itoa(len(outs)+1)
			}
			outs = append(outs, portLabel{c, l})
		}
	}
	vw.group(ins, false)
	vw.group(outs, true)
}

// group declares the ports for a list of labels. Labels of the form base[i]
// sharing a base with contiguous distinct indices form a vector.
func (vw *verilogWriter) group(pls []portLabel, output bool) {
	type vec struct {
		idx   []int
		comps []*Component
	}
	vecs := make(map[string]*vec)
	scalars := make(map[string]bool)
	for _, pl := range pls {
		if m := reBitRef.FindStringSubmatch(pl.label); m != nil && !keywords[m[1]] {
			i, err := strconv.Atoi(m[2])
			if err == nil {
				v := vecs[m[1]]
				if v == nil {
					v = &vec{}
					vecs[m[1]] = v
				}
				v.idx = append(v.idx, i)
				v.comps = append(v.comps, pl.c)
				continue
			}
		}
		scalars[Identifier(pl.label)] = true
	}
	isVector := func(base string) bool {
		v := vecs[base]
		if v == nil || scalars[base] || vw.used[base] {
			return false
		}
		idx := append([]int(nil), v.idx...)
		sort.Ints(idx)
		for i := 1; i < len(idx); i++ {
			if idx[i] != idx[i-1]+1 {
				return false
			}
		}
		return true
	}
	done := make(map[string]bool)
	for _, pl := range pls {
		m := reBitRef.FindStringSubmatch(pl.label)
		if m != nil && vecs[m[1]] != nil {
			base := m[1]
			if done[base] {
				continue
			}
			done[base] = true
			v := vecs[base]
			if isVector(base) {
				vw.used[base] = true
				lo, hi := v.idx[0], v.idx[0]
				for k, i := range v.idx {
					if i < lo {
						lo = i
					}
					if i > hi {
						hi = i
					}
					vw.bind(v.comps[k], base+"["+strconv.Itoa(i)+"]")
				}
				vw.ports = append(vw.ports, &vport{name: base, output: output, msb: hi, lsb: lo, vector: true})
				continue
			}
			for k, i := range v.idx {
				s := vw.unique(Identifier(base + "_" + strconv.Itoa(i)))
				vw.bind(v.comps[k], s)
				vw.ports = append(vw.ports, &vport{name: s, output: output})
			}
			continue
		}
		s := vw.unique(Identifier(pl.label))
		vw.bind(pl.c, s)
		vw.ports = append(vw.ports, &vport{name: s, output: output})
	}
}

// bind records the signal name of an I/O component. For a Light, this is the
// name of its input signal.
func (vw *verilogWriter) bind(c *Component, s string) {
	if c.Kind == Light {
		vw.names[c.In[0]] = s
		return
	}
	vw.names[c.Out[0]] = s
}

// nameSignals names every output port of non I/O components. The driver of
// a Light takes the Light's name when it is not already named.
func (vw *verilogWriter) nameSignals() {
	for _, c := range vw.n.cs {
		switch c.Kind {
		case Const0:
			vw.names[c.Out[0]] = "1'b0"
		case Const1:
			vw.names[c.Out[0]] = "1'b1"
		}
	}
	for _, c := range vw.n.cs {
		if c.Kind != Light || c.In[0].wire == nil {
			continue
		}
		src := c.In[0].wire.From
		if _, ok := vw.names[src]; ok {
			continue
		}
		vw.names[src] = vw.names[c.In[0]]
		// the light input now aliases its driver
		vw.names[c.In[0]] = ""
	}
	for _, c := range vw.n.cs {
		if c.Kind.IsInput() || c.Kind == Light || c.Kind == Text {
			continue
		}
		for i, p := range c.Out {
			if c.Kind.Sequential() && i == 1 && !p.Connected() {
				continue
			}
			if _, ok := vw.names[p]; !ok {
				vw.names[p] = vw.wire()
			}
		}
	}
}

// ref returns the signal feeding input port p.
func (vw *verilogWriter) ref(p *Port) string {
	if p.wire == nil {
		return "1'b0"
	}
	return vw.names[p.wire.From]
}

func (vw *verilogWriter) inst(typ, out string, ins ...string) {
	name := typ
	if l := typ[len(typ)-1]; '0' <= l && l <= '9' {
		name += "_"
	}
	name += strconv.Itoa(vw.counts[typ])
	vw.counts[typ]++
	vw.lines = append(vw.lines, fmt.Sprintf("%s %s(%s, %s);", typ, name, out, strings.Join(ins, ", ")))
}

// complement writes the inverted output of a flip-flop or latch, if used.
func (vw *verilogWriter) complement(c *Component, out []string) {
	if c.Out[1].Connected() {
		vw.inst("not", out[1], out[0])
	}
}

func (vw *verilogWriter) instances() error {
	for _, c := range vw.n.cs {
		in := make([]string, len(c.In))
		for i, p := range c.In {
			in[i] = vw.ref(p)
		}
		out := make([]string, len(c.Out))
		for i, p := range c.Out {
			out[i] = vw.names[p]
		}
		switch c.Kind {
		case Toggle, Button, Clock, Const0, Const1, Text:
		case Light:
			if s := vw.names[c.In[0]]; s != "" {
				vw.inst("buf", s, in[0])
			}
		case And, Or, Nand, Nor, Xor, Xnor, Not:
			vw.inst(c.Kind.String(), out[0], in...)
		case Buffer:
			vw.inst("buf", out[0], in...)
		case Mux2, Mux4:
			vw.inst(c.Kind.String(), out[0], in...)
		case DFF:
			vw.inst("dff", out[0], in...)
			vw.complement(c, out)
		case DLatch:
			vw.inst("mux2", out[0], out[0], in[0], in[1])
			vw.complement(c, out)
		case HalfAdder:
			vw.inst("xor", out[0], in[0], in[1])
			vw.inst("and", out[1], in[0], in[1])
		case FullAdder:
			t, c1, c2 := vw.wire(), vw.wire(), vw.wire()
			vw.inst("xor", t, in[0], in[1])
			vw.inst("xor", out[0], t, in[2])
			vw.inst("and", c1, in[0], in[1])
			vw.inst("and", c2, t, in[2])
			vw.inst("or", out[1], c1, c2)
		case HalfSubtractor:
			na := vw.wire()
			vw.inst("xor", out[0], in[0], in[1])
			vw.inst("not", na, in[0])
			vw.inst("and", out[1], na, in[1])
		case FullSubtractor:
			t, na, nt, b1, b2 := vw.wire(), vw.wire(), vw.wire(), vw.wire(), vw.wire()
			vw.inst("xor", t, in[0], in[1])
			vw.inst("xor", out[0], t, in[2])
			vw.inst("not", na, in[0])
			vw.inst("and", b1, na, in[1])
			vw.inst("not", nt, t)
			vw.inst("and", b2, nt, in[2])
			vw.inst("or", out[1], b1, b2)
		case Decoder:
			na0, na1 := vw.wire(), vw.wire()
			vw.inst("not", na0, in[0])
			vw.inst("not", na1, in[1])
			vw.inst("and", out[0], na0, na1)
			vw.inst("and", out[1], in[0], na1)
			vw.inst("and", out[2], na0, in[1])
			vw.inst("and", out[3], in[0], in[1])
		default:
			return errors.Wrapf(ErrUnsupported, "%s", c.Kind)
		}
	}
	return nil
}

func (vw *verilogWriter) write(w io.Writer, name string) error {
	bw := bufio.NewWriter(w)
	names := make([]string, len(vw.ports))
	for i, p := range vw.ports {
		names[i] = p.name
	}
	fmt.Fprintf(bw, "module %s(%s);\n", name, strings.Join(names, ", "))
	for _, p := range vw.ports {
		dir := "input"
		if p.output {
			dir = "output"
		}
		if p.vector {
			fmt.Fprintf(bw, "  %s [%d:%d] %s;\n", dir, p.msb, p.lsb, p.name)
		} else {
			fmt.Fprintf(bw, "  %s %s;\n", dir, p.name)
		}
	}
	if len(vw.wires) > 0 {
		fmt.Fprintf(bw, "  wire %s;\n", strings.Join(vw.wires, ", "))
	}
	if len(vw.lines) > 0 {
		fmt.Fprintln(bw)
	}
	for _, l := range vw.lines {
		fmt.Fprintf(bw, "  %s\n", l)
	}
	fmt.Fprintln(bw, "endmodule")
	return bw.Flush()
}
