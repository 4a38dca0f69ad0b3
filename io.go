// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwsim

import (
	"github.com/pkg/errors"
)

// SetLevel sets the level of a Toggle, Button or Clock. Multi-bit inputs get
// v on their least significant bit and zero elsewhere.
//
func (c *Component) SetLevel(v bool) error {
	var u uint64
	if v {
		u = 1
	}
	return c.SetValue(u)
}

// SetValue sets the value of a Toggle, Button or Clock.
//
func (c *Component) SetValue(v uint64) error {
	if !c.Kind.IsInput() {
		return errors.Wrapf(ErrUnsupported, "%s is not an input", c.ID)
	}
	c.state.set(v)
	return nil
}

// Set sets the level of the input component with the given ID.
//
func (n *Netlist) Set(id string, v bool) error {
	c := n.ids[id]
	if c == nil {
		return errors.Errorf("no component with id %q", id)
	}
	return c.SetLevel(v)
}

// Inputs returns the Toggle and Button components in insertion order.
//
func (n *Netlist) Inputs() []*Component {
	return n.filter(func(k Kind) bool { return k == Toggle || k == Button })
}

// Outputs returns the Light components in insertion order.
//
func (n *Netlist) Outputs() []*Component {
	return n.filter(func(k Kind) bool { return k == Light })
}

// Clocks returns the Clock components in insertion order.
//
func (n *Netlist) Clocks() []*Component {
	return n.filter(func(k Kind) bool { return k == Clock })
}

func (n *Netlist) filter(f func(Kind) bool) []*Component {
	var r []*Component
	for _, c := range n.cs {
		if f(c.Kind) {
			r = append(r, c)
		}
	}
	return r
}

// SetState restores the stored value of a flip-flop or latch and updates its
// outputs. The clock level last seen by a flip-flop is taken from its current
// clock input, so that restoring a state does not fake an edge.
//
func (c *Component) SetState(v uint64) error {
	if !c.Kind.Sequential() {
		return errors.Wrapf(ErrUnsupported, "%s holds no state", c.ID)
	}
	c.state.set(v)
	c.lastClk = c.In[1].Bool()
	c.setQ()
	return nil
}
