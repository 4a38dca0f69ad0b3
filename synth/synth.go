// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package synth turns a parsed module into a placed, wired and settled
// netlist.
//
// Synthesis runs in a fixed order on a per-call context: feedback detection,
// layering, placement, instantiation, input resolution, forward wiring,
// feedback wiring and a final simulation.
//
package synth

import (
	"strconv"

	"github.com/circuitlab/hwsim"
	"github.com/circuitlab/hwsim/hdl"
	"github.com/go-logr/logr"
	"github.com/pkg/errors"
)

// StructuralError reports a module that cannot be turned into a netlist.
//
type StructuralError = hdl.StructuralError

// An Edge is a dependency from the signal From to the operation driving To.
//
type Edge struct {
	From string
	To   string
}

// Options configures synthesis. A nil *Options uses DefaultLayout,
// hwsim.DefaultPasses and discards log output.
//
type Options struct {
	Layout Layout
	// Passes is the minimum number of relaxation passes of the netlist. It is
	// raised to the depth of the deepest layer plus one so that acyclic
	// circuits always settle.
	Passes int
	Log    logr.Logger
}

// DefaultOptions returns the default synthesis options.
//
func DefaultOptions() *Options {
	return &Options{Layout: DefaultLayout(), Passes: hwsim.DefaultPasses, Log: logr.Discard()}
}

// Result is the outcome of a synthesis.
//
type Result struct {
	Netlist *hwsim.Netlist
	// Feedback lists the dependencies closing a loop, in detection order.
	Feedback []Edge
	// Layers maps every input and operation output signal to its layer.
	Layers map[string]int
	// Inputs maps input bit names to their toggle component, including
	// toggles created for unresolved signals.
	Inputs map[string]*hwsim.Component
	// Outputs maps output bit names to their light component.
	Outputs map[string]*hwsim.Component
	// Auto lists the signals that got an auto-created toggle.
	Auto     []string
	Warnings []string
}

// HasFeedback returns true if the synthesized circuit contains a loop.
//
func (r *Result) HasFeedback() bool { return len(r.Feedback) > 0 }

// synthesis is the per-call context. Nothing in it outlives a Synthesize
// call.
type synthesis struct {
	m    *hdl.Module
	opts Options
	log  logr.Logger
	n    *hwsim.Netlist
	res  *Result

	ops      map[string]*hdl.Operation // by output signal
	comps    map[*hdl.Operation]*hwsim.Component
	drivers  map[string]*hwsim.Port
	feedback map[Edge]bool
	layers   map[string]int
	maxLayer int
	pos      map[string]hwsim.Point
	consts   [2]*hwsim.Component
	nextY    float64 // first free row below inputs
}

// Synthesize builds a netlist from m.
//
func Synthesize(m *hdl.Module, o *Options) (*Result, error) {
	if o == nil {
		o = DefaultOptions()
	}
	s := &synthesis{
		m:        m,
		opts:     *o,
		log:      o.Log,
		n:        hwsim.New(),
		ops:      make(map[string]*hdl.Operation),
		comps:    make(map[*hdl.Operation]*hwsim.Component),
		drivers:  make(map[string]*hwsim.Port),
		feedback: make(map[Edge]bool),
		layers:   make(map[string]int),
		pos:      make(map[string]hwsim.Point),
	}
	if s.log.GetSink() == nil {
		s.log = logr.Discard()
	}
	if s.opts.Passes > 0 {
		s.n.Passes = s.opts.Passes
	}
	if s.opts.Layout == (Layout{}) {
		s.opts.Layout = DefaultLayout()
	}
	s.res = &Result{
		Netlist: s.n,
		Layers:  s.layers,
		Inputs:  make(map[string]*hwsim.Component),
		Outputs: make(map[string]*hwsim.Component),
	}
	for _, op := range m.Ops {
		if s.ops[op.Output] != nil {
			return nil, &StructuralError{Pos: op.Pos, Signal: op.Output, Msg: "multiple drivers (" + s.ops[op.Output].Name + " and " + op.Name + ")"}
		}
		s.ops[op.Output] = op
	}
	if err := s.check(); err != nil {
		return nil, err
	}

	s.detectFeedback()
	s.assignLayers()
	if p := s.maxLayer + 1; p > s.n.Passes {
		s.n.Passes = p
	}
	s.place()
	s.instantiate()
	if err := s.wire(); err != nil {
		return nil, err
	}
	if err := s.n.Simulate(); err != nil {
		return nil, errors.Wrap(err, "initial simulation")
	}
	s.log.V(1).Info("synthesized", "module", m.Name, "components", s.n.Size(), "wires", len(s.n.Wires()),
		"layers", s.maxLayer, "feedback", len(s.res.Feedback))
	return s.res, nil
}

// FromVerilog parses src and synthesizes the resulting module. Parser
// warnings come first in Result.Warnings.
//
func FromVerilog(src string, o *Options) (*Result, error) {
	log := logr.Discard()
	if o != nil && o.Log.GetSink() != nil {
		log = o.Log
	}
	m, err := hdl.Parse(src, hdl.WithLogger(log))
	if err != nil {
		return nil, err
	}
	r, err := Synthesize(m, o)
	if err != nil {
		return nil, err
	}
	r.Warnings = append(append([]string(nil), m.Warnings...), r.Warnings...)
	return r, nil
}

// check catches the conditions the parser lets through.
func (s *synthesis) check() error {
	for _, op := range s.m.Ops {
		switch n := op.Kind.Arity(); {
		case n < 0 && len(op.Inputs) < 2, n > 0 && len(op.Inputs) != n:
			return &StructuralError{Pos: op.Pos, Signal: op.Name, Msg: op.Kind.String() + " with " + strconv.Itoa(len(op.Inputs)) + " inputs"}
		}
		switch op.Kind {
		case hdl.MUX2, hdl.MUX4:
			sels := op.Inputs[len(op.Inputs)-1:]
			if op.Kind == hdl.MUX4 {
				sels = op.Inputs[4:]
			}
			for _, sel := range sels {
				if sel == "" {
					return &StructuralError{Pos: op.Pos, Signal: op.Name, Msg: "multiplexer select resolves to nothing"}
				}
			}
		case hdl.DFF:
			if hdl.IsLiteral(op.Inputs[1]) {
				return &StructuralError{Pos: op.Pos, Signal: op.Name, Msg: "flip-flop clocked by a constant"}
			}
		}
	}
	return nil
}

func (s *synthesis) warn(msg string, kv ...interface{}) {
	s.res.Warnings = append(s.res.Warnings, msg)
	s.log.Info(msg, kv...)
}
