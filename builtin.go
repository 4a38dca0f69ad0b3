// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwsim

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Kind identifies the type of a component. The set of kinds is closed: the
// behavior of every kind is implemented by a single switch in
// (*Component).eval.
//
type Kind uint8

// Component kinds.
//
const (
	Toggle Kind = iota
	Button
	Clock
	Const0
	Const1
	Light
	Text
	And
	Or
	Not
	Nand
	Nor
	Xor
	Xnor
	Buffer
	Mux2
	Mux4
	DFF
	DLatch
	HalfAdder
	FullAdder
	HalfSubtractor
	FullSubtractor
	Decoder

	kindCount
)

// type strings, as found in exchange records.
var kindNames = [kindCount]string{
	Toggle:         "toggle",
	Button:         "button",
	Clock:          "clock",
	Const0:         "constant0",
	Const1:         "constant1",
	Light:          "light-bulb",
	Text:           "text",
	And:            "and",
	Or:             "or",
	Not:            "not",
	Nand:           "nand",
	Nor:            "nor",
	Xor:            "xor",
	Xnor:           "xnor",
	Buffer:         "buffer",
	Mux2:           "mux2",
	Mux4:           "mux4",
	DFF:            "dflipflop",
	DLatch:         "dlatch",
	HalfAdder:      "halfadder",
	FullAdder:      "fulladder",
	HalfSubtractor: "halfsubtractor",
	FullSubtractor: "fullsubtractor",
	Decoder:        "decoder",
}

var kindAliases = map[string]Kind{
	"led":       Light,
	"lightbulb": Light,
	"buf":       Buffer,
	"dff":       DFF,
}

// String returns the type string of k.
//
func (k Kind) String() string {
	if k < kindCount {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// ParseKind returns the kind whose type string is s. Matching is case
// insensitive and accepts a few aliases ("led", "buf", "dff").
//
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for k, n := range kindNames {
		if n == s {
			return Kind(k), nil
		}
	}
	if k, ok := kindAliases[s]; ok {
		return k, nil
	}
	return 0, errors.Errorf("unknown component type %q", s)
}

// IsInput returns true for kinds whose output level is set by the user or by
// an external trigger.
//
func (k Kind) IsInput() bool {
	return k == Toggle || k == Button || k == Clock
}

// IsGate returns true for the n-ary boolean gates.
//
func (k Kind) IsGate() bool {
	switch k {
	case And, Or, Nand, Nor, Xor, Xnor:
		return true
	}
	return false
}

// Sequential returns true for kinds holding state between evaluations.
//
func (k Kind) Sequential() bool {
	return k == DFF || k == DLatch
}

// ports returns the widths of the input and output ports of a component of
// kind k. inputs is only used by n-ary gates and defaults to 2.
//
func (k Kind) ports(inputs, width int) (in, out []int) {
	if width < 1 {
		width = 1
	}
	w := func(n, v int) []int {
		r := make([]int, n)
		for i := range r {
			r[i] = v
		}
		return r
	}
	switch k {
	case Toggle, Button, Clock, Const0, Const1:
		return nil, w(1, width)
	case Light:
		return w(1, width), nil
	case Text:
		return nil, nil
	case And, Or, Nand, Nor, Xor, Xnor:
		if inputs < 2 {
			inputs = 2
		}
		return w(inputs, width), w(1, width)
	case Not, Buffer:
		return w(1, width), w(1, width)
	case Mux2:
		return []int{width, width, 1}, w(1, width)
	case Mux4:
		return []int{width, width, width, width, 1, 1}, w(1, width)
	case DFF, DLatch:
		return []int{width, 1}, w(2, width)
	case HalfAdder, HalfSubtractor:
		return w(2, width), []int{width, 1}
	case FullAdder, FullSubtractor:
		return []int{width, width, 1}, []int{width, 1}
	case Decoder:
		return w(2, 1), w(4, 1)
	}
	return nil, nil
}

// eval computes the outputs of c from its current inputs and state.
//
func (c *Component) eval() {
	switch c.Kind {
	case Toggle, Button, Clock:
		c.state.copyTo(c.Out[0].Value)
	case Const0:
		c.Out[0].Value.fill(false)
	case Const1:
		c.Out[0].Value.set(1)
	case Light, Text:
	case And, Nand:
		out := c.Out[0].Value
		for i := range out {
			v := true
			for _, p := range c.In {
				v = v && bit(p.Value, i)
			}
			out[i] = v != (c.Kind == Nand)
		}
	case Or, Nor:
		out := c.Out[0].Value
		for i := range out {
			v := false
			for _, p := range c.In {
				v = v || bit(p.Value, i)
			}
			out[i] = v != (c.Kind == Nor)
		}
	case Xor, Xnor:
		out := c.Out[0].Value
		for i := range out {
			v := false
			for _, p := range c.In {
				v = v != bit(p.Value, i)
			}
			out[i] = v != (c.Kind == Xnor)
		}
	case Not:
		out := c.Out[0].Value
		for i := range out {
			out[i] = !bit(c.In[0].Value, i)
		}
	case Buffer:
		c.In[0].Value.copyTo(c.Out[0].Value)
	case Mux2:
		if c.In[2].Bool() {
			c.In[1].Value.copyTo(c.Out[0].Value)
		} else {
			c.In[0].Value.copyTo(c.Out[0].Value)
		}
	case Mux4:
		sel := 0
		if c.In[4].Bool() {
			sel |= 1
		}
		if c.In[5].Bool() {
			sel |= 2
		}
		c.In[sel].Value.copyTo(c.Out[0].Value)
	case DFF:
		clk := c.In[1].Bool()
		// raising edge?
		if clk && !c.lastClk {
			c.In[0].Value.copyTo(c.state)
		}
		c.lastClk = clk
		c.setQ()
	case DLatch:
		if c.In[1].Bool() {
			c.In[0].Value.copyTo(c.state)
		}
		c.setQ()
	case HalfAdder:
		c.arith(c.In[0].Value.Uint() + c.In[1].Value.Uint())
	case FullAdder:
		c.arith(c.In[0].Value.Uint() + c.In[1].Value.Uint() + c.In[2].Value.Uint())
	case HalfSubtractor:
		c.sub(c.In[0].Value.Uint(), c.In[1].Value.Uint())
	case FullSubtractor:
		c.sub(c.In[0].Value.Uint(), c.In[1].Value.Uint()+c.In[2].Value.Uint())
	case Decoder:
		sel := 0
		if c.In[0].Bool() {
			sel |= 1
		}
		if c.In[1].Bool() {
			sel |= 2
		}
		for i, o := range c.Out {
			o.Value[0] = i == sel
		}
	}
}

func bit(b Bits, i int) bool {
	return i < len(b) && b[i]
}

func (c *Component) setQ() {
	c.state.copyTo(c.Out[0].Value)
	qn := c.Out[1].Value
	for i := range qn {
		qn[i] = !bit(c.state, i)
	}
}

// arith sets the sum and carry outputs of an adder.
func (c *Component) arith(sum uint64) {
	w := c.Out[0].Width
	c.Out[0].Value.set(sum)
	c.Out[1].Value[0] = w < 64 && sum&(1<<uint(w)) != 0
}

// sub sets the difference and borrow outputs of a subtractor. A negative
// difference is wrapped to its two's complement representation on the
// output width.
func (c *Component) sub(a, b uint64) {
	c.Out[0].Value.set(a - b)
	c.Out[1].Value[0] = a < b
}
