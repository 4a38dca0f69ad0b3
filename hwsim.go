// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwsim

import (
	"strconv"

	"github.com/pkg/errors"
)

// DefaultPasses is the number of relaxation passes that follow the initial
// evaluation pass in Simulate.
//
const DefaultPasses = 10

// Errors returned by netlist operations.
//
var (
	ErrDangling      = errors.New("dangling wire")
	ErrConnected     = errors.New("input port already connected")
	ErrDirection     = errors.New("wire must go from an output port to an input port")
	ErrUnsupported   = errors.New("unsupported component")
	ErrTooManyInputs = errors.New("too many inputs")
)

// A Point is the position of a component on the schematic. Positions are
// informative only and have no effect on simulation.
//
type Point struct {
	X, Y float64
}

// A Port is an input or output pin of a component.
//
type Port struct {
	ID    string // "in0", "in1", ..., "out0", ...
	Width int
	Value Bits

	c     *Component
	input bool
	wire  *Wire // incoming wire, input ports only
	fan   int   // outgoing wire count, output ports only
}

// Component returns the component p belongs to.
//
func (p *Port) Component() *Component { return p.c }

// IsInput returns true if p is an input port.
//
func (p *Port) IsInput() bool { return p.input }

// Connected returns true if a wire ends on p (input port) or starts from p
// (output port).
//
func (p *Port) Connected() bool {
	if p.input {
		return p.wire != nil
	}
	return p.fan > 0
}

// Wire returns the wire feeding an input port, nil if there is none.
//
func (p *Port) Wire() *Wire { return p.wire }

// Bool returns the least significant bit of the port value.
//
func (p *Port) Bool() bool { return p.Value.Bool() }

// A Component is a simulatable unit in a netlist.
//
type Component struct {
	ID    string
	Kind  Kind
	Label string
	Pos   Point
	In    []*Port
	Out   []*Port

	state   Bits // input level or stored Q
	lastClk bool
}

// Width returns the data width of c.
//
func (c *Component) Width() int {
	switch {
	case len(c.Out) > 0:
		return c.Out[0].Width
	case len(c.In) > 0:
		return c.In[0].Width
	}
	return 0
}

// Port returns the port of c with the given ID, or nil.
//
func (c *Component) Port(id string) *Port {
	for _, p := range c.In {
		if p.ID == id {
			return p
		}
	}
	for _, p := range c.Out {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// State returns the internal state of c: the level of an input component or
// the stored Q of a flip-flop or latch. Other kinds return nil.
//
func (c *Component) State() Bits {
	return c.state
}

// Value returns the value observed by c: the input value of a Light, the
// first output value of any other component with outputs.
//
func (c *Component) Value() Bits {
	if c.Kind == Light {
		return c.In[0].Value
	}
	if len(c.Out) > 0 {
		return c.Out[0].Value
	}
	return nil
}

// A Wire connects an output port to an input port. To is nil for a dangling
// wire.
//
type Wire struct {
	From *Port
	To   *Port
}

// A Netlist is a set of components and the wires connecting them.
//
// The zero value is not usable, use New.
//
type Netlist struct {
	// Passes is the number of extra relaxation passes run by Simulate.
	Passes int

	cs    []*Component
	ws    []*Wire
	ids   map[string]*Component
	seq   int
	steps uint
}

// New returns an empty netlist.
//
func New() *Netlist {
	return &Netlist{Passes: DefaultPasses, ids: make(map[string]*Component)}
}

// Components returns the components in insertion order. The returned slice
// must not be modified.
//
func (n *Netlist) Components() []*Component { return n.cs }

// Wires returns the wires in insertion order. The returned slice must not be
// modified.
//
func (n *Netlist) Wires() []*Wire { return n.ws }

// Component returns the component with the given ID, or nil.
//
func (n *Netlist) Component(id string) *Component { return n.ids[id] }

// Find returns the first component with the given label, or nil.
//
func (n *Netlist) Find(label string) *Component {
	for _, c := range n.cs {
		if c.Label == label {
			return c
		}
	}
	return nil
}

// Add adds a single bit component of kind k with default arity.
//
func (n *Netlist) Add(k Kind, label string) *Component {
	return n.AddN(k, label, 0, 1)
}

// AddN adds a component of kind k. inputs is the input count of n-ary gates
// (AND, OR, ...) and is ignored by other kinds. width is the data width.
//
func (n *Netlist) AddN(k Kind, label string, inputs, width int) *Component {
	for {
		n.seq++
		id := k.String() + "-" + strconv.Itoa(n.seq)
		if n.ids[id] == nil {
			c, _ := n.AddID(id, k, label, inputs, width)
			return c
		}
	}
}

// AddID adds a component with an explicit ID. It fails if the ID is already
// in use.
//
func (n *Netlist) AddID(id string, k Kind, label string, inputs, width int) (*Component, error) {
	if k >= kindCount {
		return nil, errors.Errorf("invalid component kind %d", k)
	}
	if id == "" {
		return nil, errors.New("empty component id")
	}
	if n.ids[id] != nil {
		return nil, errors.Errorf("duplicate component id %q", id)
	}
	c := &Component{ID: id, Kind: k, Label: label}
	in, out := k.ports(inputs, width)
	for i, w := range in {
		c.In = append(c.In, &Port{ID: "in" + strconv.Itoa(i), Width: w, Value: make(Bits, w), c: c, input: true})
	}
	for i, w := range out {
		c.Out = append(c.Out, &Port{ID: "out" + strconv.Itoa(i), Width: w, Value: make(Bits, w), c: c})
	}
	switch {
	case k.IsInput():
		c.state = make(Bits, out[0])
	case k.Sequential():
		c.state = make(Bits, out[0])
	}
	n.cs = append(n.cs, c)
	n.ids[id] = c
	return c, nil
}

// Steps returns the number of evaluation passes run so far.
//
func (n *Netlist) Steps() uint {
	return n.steps
}

// resetInputs clears the value of every input port with no incoming wire.
//
func (n *Netlist) resetInputs() {
	for _, c := range n.cs {
		for _, p := range c.In {
			if p.wire == nil {
				p.Value.fill(false)
			}
		}
	}
}

// Step runs a single simulation pass: values are transferred along every
// wire, then every component is evaluated.
//
func (n *Netlist) Step() {
	for _, w := range n.ws {
		if w.To != nil {
			w.From.Value.copyTo(w.To.Value)
		}
	}
	for _, c := range n.cs {
		c.eval()
	}
	n.steps++
}

// Simulate brings the netlist to a stable state: unconnected inputs are
// reset, then one evaluation pass is followed by n.Passes relaxation passes.
//
// Simulate does not detect oscillations. A circuit with no stable state
// simply keeps whatever the last pass produced.
//
func (n *Netlist) Simulate() error {
	if err := n.Validate(); err != nil {
		return err
	}
	n.resetInputs()
	n.Step()
	for i := 0; i < n.Passes; i++ {
		n.Step()
	}
	return nil
}

// Tick toggles every Clock component then simulates the netlist. This is
// what a periodic clock trigger calls.
//
func (n *Netlist) Tick() error {
	for _, c := range n.Clocks() {
		c.state[0] = !c.state[0]
	}
	return n.Simulate()
}

// TickTock runs a whole clock cycle.
//
func (n *Netlist) TickTock() error {
	if err := n.Tick(); err != nil {
		return err
	}
	return n.Tick()
}

// Size returns the component count of the netlist.
//
func (n *Netlist) Size() int { return len(n.cs) }
