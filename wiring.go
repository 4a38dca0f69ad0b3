// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwsim

import (
	"github.com/pkg/errors"
)

// Connect adds a wire from output port from to input port to.
//
// Both ports must belong to components of n. The input port must not already
// be connected. Ports of different widths may be connected, values are
// converted with Bits.Resize. A component may feed one of its own inputs,
// which is how latches built from gates close their loop.
//
func (n *Netlist) Connect(from, to *Port) (*Wire, error) {
	if err := n.checkFrom(from); err != nil {
		return nil, err
	}
	w := &Wire{From: from}
	if err := n.attach(w, to); err != nil {
		return nil, err
	}
	from.fan++
	n.ws = append(n.ws, w)
	return w, nil
}

// Dangle adds a wire starting at output port from with no destination. Such
// wires are a transient state while a netlist is being edited: Validate and
// Simulate reject them until Attach is called.
//
func (n *Netlist) Dangle(from *Port) (*Wire, error) {
	if err := n.checkFrom(from); err != nil {
		return nil, err
	}
	w := &Wire{From: from}
	from.fan++
	n.ws = append(n.ws, w)
	return w, nil
}

// Attach connects the free end of a dangling wire to input port to.
//
func (n *Netlist) Attach(w *Wire, to *Port) error {
	if w.To != nil {
		return errors.New("wire is not dangling")
	}
	return n.attach(w, to)
}

// Disconnect removes w from the netlist.
//
func (n *Netlist) Disconnect(w *Wire) {
	for i, x := range n.ws {
		if x != w {
			continue
		}
		copy(n.ws[i:], n.ws[i+1:])
		n.ws[len(n.ws)-1] = nil
		n.ws = n.ws[:len(n.ws)-1]
		w.From.fan--
		if w.To != nil {
			w.To.wire = nil
		}
		return
	}
}

// ConnectID is like Connect with ports given by component and port IDs.
//
func (n *Netlist) ConnectID(fromComp, fromPort, toComp, toPort string) (*Wire, error) {
	from, err := n.port(fromComp, fromPort)
	if err != nil {
		return nil, err
	}
	to, err := n.port(toComp, toPort)
	if err != nil {
		return nil, err
	}
	return n.Connect(from, to)
}

func (n *Netlist) port(comp, port string) (*Port, error) {
	c := n.ids[comp]
	if c == nil {
		return nil, errors.Errorf("no component with id %q", comp)
	}
	p := c.Port(port)
	if p == nil {
		return nil, errors.Errorf("component %q has no port %q", comp, port)
	}
	return p, nil
}

func (n *Netlist) checkFrom(from *Port) error {
	if from == nil || from.input {
		return ErrDirection
	}
	if n.ids[from.c.ID] != from.c {
		return errors.Errorf("port %s of %s does not belong to this netlist", from.ID, from.c.ID)
	}
	return nil
}

func (n *Netlist) attach(w *Wire, to *Port) error {
	if to == nil || !to.input {
		return ErrDirection
	}
	if n.ids[to.c.ID] != to.c {
		return errors.Errorf("port %s of %s does not belong to this netlist", to.ID, to.c.ID)
	}
	if to.wire != nil {
		return errors.Wrapf(ErrConnected, "%s:%s", to.c.ID, to.ID)
	}
	w.To = to
	to.wire = w
	return nil
}

// Validate checks that n can be simulated.
//
func (n *Netlist) Validate() error {
	for _, w := range n.ws {
		if w.To == nil {
			return errors.Wrapf(ErrDangling, "from %s:%s", w.From.c.ID, w.From.ID)
		}
	}
	return nil
}
