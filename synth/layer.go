// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package synth

// maxLayerPasses bounds the layering fixed point.
const maxLayerPasses = 100

// assignLayers puts inputs at layer 0 and every operation output one layer
// above its latest non-feedback dependency.
func (s *synthesis) assignLayers() {
	for _, b := range s.m.InputBits() {
		s.layers[b] = 0
	}
	pass := 0
	for changed := true; changed && pass < maxLayerPasses; pass++ {
		changed = false
		for _, op := range s.m.Ops {
			l, ok := s.layerOf(op.Output, false)
			if !ok {
				continue
			}
			if cur, seen := s.layers[op.Output]; !seen || cur < l {
				s.layers[op.Output] = l
				changed = true
			}
		}
	}
	for _, op := range s.m.Ops {
		if _, ok := s.layers[op.Output]; !ok {
			l, _ := s.layerOf(op.Output, true)
			s.layers[op.Output] = l
			s.log.V(1).Info("layer forced", "signal", op.Output, "layer", l)
		}
	}
	for _, op := range s.m.Ops {
		if l := s.layers[op.Output]; l > s.maxLayer {
			s.maxLayer = l
		}
	}
	s.log.V(1).Info("layers assigned", "passes", pass, "max", s.maxLayer)
}

// layerOf computes the layer of an operation output from its dependencies.
// Signals not driven by an operation are at layer 0. Unless force is set, ok
// is false while a dependency has no layer yet; with force such
// dependencies are ignored.
func (s *synthesis) layerOf(out string, force bool) (layer int, ok bool) {
	op := s.ops[out]
	l := 0
	for _, in := range op.Inputs {
		if s.ops[in] == nil || s.feedback[Edge{From: in, To: out}] {
			continue
		}
		dl, seen := s.layers[in]
		if !seen {
			if !force {
				return 0, false
			}
			continue
		}
		if dl > l {
			l = dl
		}
	}
	return l + 1, true
}
