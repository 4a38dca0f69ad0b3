// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package synth

// deps returns the operation inputs of op that are driven by another
// operation, without duplicates.
func (s *synthesis) deps(out string) []string {
	op := s.ops[out]
	if op == nil {
		return nil
	}
	var r []string
	seen := make(map[string]bool, len(op.Inputs))
	for _, in := range op.Inputs {
		if s.ops[in] != nil && !seen[in] {
			seen[in] = true
			r = append(r, in)
		}
	}
	return r
}

func (s *synthesis) addFeedback(e Edge) {
	if s.feedback[e] {
		return
	}
	s.feedback[e] = true
	s.res.Feedback = append(s.res.Feedback, e)
	s.log.V(1).Info("feedback edge", "from", e.From, "to", e.To)
}

type frame struct {
	sig  string
	deps []string
	next int
}

// detectFeedback walks the dependency graph depth first with an explicit
// stack. Every edge on a cycle found through a back edge is recorded, then
// cross-coupled operation pairs are added.
func (s *synthesis) detectFeedback() {
	const (
		white = iota
		grey
		black
	)
	color := make(map[string]int, len(s.m.Ops))
	for _, root := range s.m.Ops {
		if color[root.Output] != white {
			continue
		}
		stack := []*frame{{sig: root.Output, deps: s.deps(root.Output)}}
		color[root.Output] = grey
		for len(stack) > 0 {
			top := stack[len(stack)-1]
			if top.next == len(top.deps) {
				color[top.sig] = black
				stack = stack[:len(stack)-1]
				continue
			}
			d := top.deps[top.next]
			top.next++
			switch color[d] {
			case white:
				color[d] = grey
				stack = append(stack, &frame{sig: d, deps: s.deps(d)})
			case grey:
				// back edge: top reads d, and d transitively reads top
				i := len(stack) - 1
				for stack[i].sig != d {
					i--
				}
				for ; i < len(stack)-1; i++ {
					s.addFeedback(Edge{From: stack[i+1].sig, To: stack[i].sig})
				}
				s.addFeedback(Edge{From: d, To: top.sig})
			}
		}
	}
	for i, a := range s.m.Ops {
		for _, b := range s.m.Ops[i+1:] {
			if reads(a.Inputs, b.Output) && reads(b.Inputs, a.Output) {
				s.addFeedback(Edge{From: b.Output, To: a.Output})
				s.addFeedback(Edge{From: a.Output, To: b.Output})
			}
		}
	}
}

func reads(inputs []string, sig string) bool {
	for _, in := range inputs {
		if in == sig {
			return true
		}
	}
	return false
}
