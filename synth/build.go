// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package synth

import (
	"github.com/circuitlab/hwsim"
	"github.com/circuitlab/hwsim/hdl"
	"github.com/pkg/errors"
)

var kinds = [...]hwsim.Kind{
	hdl.AND:  hwsim.And,
	hdl.OR:   hwsim.Or,
	hdl.NOT:  hwsim.Not,
	hdl.NAND: hwsim.Nand,
	hdl.NOR:  hwsim.Nor,
	hdl.XOR:  hwsim.Xor,
	hdl.XNOR: hwsim.Xnor,
	hdl.BUF:  hwsim.Buffer,
	hdl.MUX2: hwsim.Mux2,
	hdl.MUX4: hwsim.Mux4,
	hdl.DFF:  hwsim.DFF,
}

// Kind returns the netlist component kind implementing k.
//
func Kind(k hdl.OpKind) hwsim.Kind {
	return kinds[k]
}

func (s *synthesis) at(c *hwsim.Component, key string) {
	if p, ok := s.pos[key]; ok {
		c.Pos = p
	}
}

// instantiate creates one toggle per input bit, one component per operation
// and one light per output bit.
func (s *synthesis) instantiate() {
	for _, b := range s.m.InputBits() {
		c := s.n.Add(hwsim.Toggle, b)
		s.at(c, b)
		s.drivers[b] = c.Out[0]
		s.res.Inputs[b] = c
	}
	for _, op := range s.m.Ops {
		c := s.n.AddN(Kind(op.Kind), op.Name, len(op.Inputs), 1)
		s.at(c, op.Output)
		s.comps[op] = c
		s.drivers[op.Output] = c.Out[0]
	}
	for _, b := range s.m.OutputBits() {
		c := s.n.Add(hwsim.Light, b)
		s.at(c, outputKey(b))
		s.res.Outputs[b] = c
	}
}

// resolve returns the output port feeding signal sig: a shared constant for
// literals, the driver of sig (or of its least significant bit for a bare
// vector name), or an auto-created toggle.
func (s *synthesis) resolve(sig string) (*hwsim.Port, error) {
	if hdl.IsLiteral(sig) {
		v, err := hdl.LiteralBit(sig, 0)
		if err != nil {
			return nil, err
		}
		return s.constant(v), nil
	}
	if p := s.drivers[sig]; p != nil {
		return p, nil
	}
	if port, ok := s.m.Port(sig); ok && port.Ranged {
		if p := s.drivers[port.Bits()[0]]; p != nil {
			return p, nil
		}
	}
	l := s.opts.Layout
	c := s.n.Add(hwsim.Toggle, sig)
	c.Pos = hwsim.Point{X: l.XBase, Y: s.nextY}
	t := s.n.Add(hwsim.Text, sig)
	t.Pos = hwsim.Point{X: l.XBase, Y: s.nextY - l.BitSpacing/2}
	s.nextY += l.ComponentSpacing
	s.drivers[sig] = c.Out[0]
	s.res.Inputs[sig] = c
	s.res.Auto = append(s.res.Auto, sig)
	s.warn("unresolved signal "+sig+" bound to an auto-generated input", "signal", sig)
	return c.Out[0], nil
}

func (s *synthesis) constant(v bool) *hwsim.Port {
	i, k := 0, hwsim.Const0
	if v {
		i, k = 1, hwsim.Const1
	}
	if s.consts[i] == nil {
		l := s.opts.Layout
		c := s.n.Add(k, "")
		c.Pos = hwsim.Point{X: l.XBase, Y: s.nextY}
		s.nextY += l.MinSpacing
		s.consts[i] = c
	}
	return s.consts[i].Out[0]
}

// wire connects operation inputs and lights in two passes: forward edges
// first, feedback edges last. An input port already connected keeps its
// first wire.
func (s *synthesis) wire() error {
	for _, op := range s.m.Ops {
		c := s.comps[op]
		for i, in := range op.Inputs {
			if s.feedback[Edge{From: in, To: op.Output}] {
				continue
			}
			from, err := s.resolve(in)
			if err != nil {
				return errors.Wrapf(err, "%s input %d", op.Name, i)
			}
			if _, err := s.n.Connect(from, c.In[i]); err != nil {
				return errors.Wrapf(err, "%s input %d", op.Name, i)
			}
		}
	}
	for _, b := range s.m.OutputBits() {
		from := s.drivers[b]
		if from == nil {
			s.warn("output "+b+" is not driven", "signal", b)
			continue
		}
		if _, err := s.n.Connect(from, s.res.Outputs[b].In[0]); err != nil {
			return errors.Wrapf(err, "output %s", b)
		}
	}
	for _, op := range s.m.Ops {
		c := s.comps[op]
		for i, in := range op.Inputs {
			if !s.feedback[Edge{From: in, To: op.Output}] || c.In[i].Connected() {
				continue
			}
			if _, err := s.n.Connect(s.drivers[in], c.In[i]); err != nil {
				return errors.Wrapf(err, "feedback %s -> %s", in, op.Name)
			}
		}
	}
	return nil
}
