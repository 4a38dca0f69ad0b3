// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package record converts netlists to and from their JSON exchange record.
//
// A record lists components with their position and port values, and the
// wires between their ports. Import validates the document against an
// embedded CUE schema before building anything.
//
package record

import (
	_ "embed"
	"encoding/json"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"github.com/circuitlab/hwsim"
	"github.com/pkg/errors"
)

// Version is the record format version.
//
const Version = 1

//go:embed schema.cue
var schemaSrc []byte

// A Record is the exchange form of a netlist.
//
type Record struct {
	Version    int         `json:"version"`
	Name       string      `json:"name,omitempty"`
	Components []Component `json:"components"`
	Wires      []Wire      `json:"wires"`
}

// Position is a component position.
//
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// A Port records the value of a component port.
//
type Port struct {
	ID       string `json:"id"`
	Value    uint64 `json:"value"`
	BitWidth int    `json:"bitWidth"`
}

// State is the observable state of a component. Level is the stored level of
// input components and flip-flops.
//
type State struct {
	Inputs  []Port `json:"inputs"`
	Outputs []Port `json:"outputs"`
	Level   *bool  `json:"level,omitempty"`
}

// A Component is a netlist component.
//
type Component struct {
	ID       string   `json:"id"`
	Type     string   `json:"type"`
	Label    string   `json:"label,omitempty"`
	Position Position `json:"position"`
	State    State    `json:"state"`
}

// A Wire connects two ports. The destination of a dangling wire is null.
//
type Wire struct {
	FromComponentID string  `json:"fromComponentId"`
	FromPortID      string  `json:"fromPortId"`
	ToComponentID   *string `json:"toComponentId"`
	ToPortID        *string `json:"toPortId"`
}

func ports(ps []*hwsim.Port) []Port {
	r := make([]Port, len(ps))
	for i, p := range ps {
		r[i] = Port{ID: p.ID, Value: p.Value.Uint(), BitWidth: p.Width}
	}
	return r
}

// Export returns the record of n.
//
func Export(n *hwsim.Netlist) *Record {
	r := &Record{Version: Version, Components: []Component{}, Wires: []Wire{}}
	for _, c := range n.Components() {
		rc := Component{
			ID:       c.ID,
			Type:     c.Kind.String(),
			Label:    c.Label,
			Position: Position{X: c.Pos.X, Y: c.Pos.Y},
			State:    State{Inputs: ports(c.In), Outputs: ports(c.Out)},
		}
		if s := c.State(); s != nil {
			v := s.Bool()
			rc.State.Level = &v
		}
		r.Components = append(r.Components, rc)
	}
	for _, w := range n.Wires() {
		rw := Wire{FromComponentID: w.From.Component().ID, FromPortID: w.From.ID}
		if w.To != nil {
			cid, pid := w.To.Component().ID, w.To.ID
			rw.ToComponentID, rw.ToPortID = &cid, &pid
		}
		r.Wires = append(r.Wires, rw)
	}
	return r
}

// Marshal returns the indented JSON record of n.
//
func Marshal(n *hwsim.Netlist) ([]byte, error) {
	return json.MarshalIndent(Export(n), "", "  ")
}

// Validate checks data against the record schema.
//
func Validate(data []byte) error {
	ctx := cuecontext.New()
	schema := ctx.CompileBytes(schemaSrc, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return errors.Wrap(err, "compiling record schema")
	}
	v := ctx.CompileBytes(data, cue.Filename("record.json"))
	if err := v.Err(); err != nil {
		return errors.Errorf("malformed record: %s", details(err))
	}
	def := schema.LookupPath(cue.ParsePath("#Record"))
	if err := def.Unify(v).Validate(cue.Concrete(true)); err != nil {
		return errors.Errorf("invalid record: %s", details(err))
	}
	return nil
}

func details(err error) string {
	return strings.TrimSpace(cueerrors.Details(err, nil))
}

// Import validates data and builds the netlist it describes. Component IDs,
// labels, positions, input levels and stored states are restored, then the
// netlist is simulated unless it holds a dangling wire.
//
func Import(data []byte) (*hwsim.Netlist, error) {
	if err := Validate(data); err != nil {
		return nil, err
	}
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, errors.Wrap(err, "decoding record")
	}
	return Build(&r)
}

// Build builds the netlist described by r.
//
func Build(r *Record) (*hwsim.Netlist, error) {
	n := hwsim.New()
	for i := range r.Components {
		if err := addComponent(n, &r.Components[i]); err != nil {
			return nil, err
		}
	}
	dangling := false
	for i, w := range r.Wires {
		from := n.Component(w.FromComponentID)
		if from == nil {
			return nil, errors.Errorf("wire %d: no component %q", i, w.FromComponentID)
		}
		fp := from.Port(w.FromPortID)
		if fp == nil {
			return nil, errors.Errorf("wire %d: component %q has no port %q", i, w.FromComponentID, w.FromPortID)
		}
		if w.ToComponentID == nil || w.ToPortID == nil {
			if _, err := n.Dangle(fp); err != nil {
				return nil, errors.Wrapf(err, "wire %d", i)
			}
			dangling = true
			continue
		}
		if _, err := n.ConnectID(w.FromComponentID, w.FromPortID, *w.ToComponentID, *w.ToPortID); err != nil {
			return nil, errors.Wrapf(err, "wire %d", i)
		}
	}
	// restore stored states once clock inputs hold their recorded level
	for i := range r.Components {
		rc := &r.Components[i]
		c := n.Component(rc.ID)
		if !c.Kind.Sequential() || len(rc.State.Outputs) == 0 {
			continue
		}
		if err := c.SetState(rc.State.Outputs[0].Value); err != nil {
			return nil, err
		}
	}
	if dangling {
		return n, nil
	}
	return n, n.Simulate()
}

func addComponent(n *hwsim.Netlist, rc *Component) error {
	k, err := hwsim.ParseKind(rc.Type)
	if err != nil {
		return errors.Wrapf(err, "component %s", rc.ID)
	}
	width := 1
	switch {
	case len(rc.State.Outputs) > 0:
		width = rc.State.Outputs[0].BitWidth
	case len(rc.State.Inputs) > 0:
		width = rc.State.Inputs[0].BitWidth
	}
	c, err := n.AddID(rc.ID, k, rc.Label, len(rc.State.Inputs), width)
	if err != nil {
		return err
	}
	c.Pos = hwsim.Point{X: rc.Position.X, Y: rc.Position.Y}
	for _, rp := range append(rc.State.Inputs, rc.State.Outputs...) {
		p := c.Port(rp.ID)
		if p == nil {
			return errors.Errorf("component %s (%s) has no port %s", rc.ID, k, rp.ID)
		}
		copy(p.Value, hwsim.MakeBits(rp.Value, p.Width))
	}
	if !k.IsInput() {
		return nil
	}
	switch {
	case len(rc.State.Outputs) > 0:
		return c.SetValue(rc.State.Outputs[0].Value)
	case rc.State.Level != nil:
		return c.SetLevel(*rc.State.Level)
	}
	return nil
}
