// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package synth

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/circuitlab/hwsim"
	"github.com/circuitlab/hwsim/hdl"
)

// Layout holds the placement constants, in schematic units.
//
type Layout struct {
	XBase            float64 `json:"xBase"`
	YBase            float64 `json:"yBase"`
	LayerSpacing     float64 `json:"layerSpacing"`
	ComponentSpacing float64 `json:"componentSpacing"`
	GroupSpacing     float64 `json:"groupSpacing"`
	MinSpacing       float64 `json:"minSpacing"`
	BitSpacing       float64 `json:"bitSpacing"`
	ControlOffset    float64 `json:"controlOffset"`
	OutputOffset     float64 `json:"outputOffset"`
}

// DefaultLayout returns the default placement constants.
//
func DefaultLayout() Layout {
	return Layout{
		XBase:            100,
		YBase:            0,
		LayerSpacing:     180,
		ComponentSpacing: 200,
		GroupSpacing:     100,
		MinSpacing:       100,
		BitSpacing:       60,
		ControlOffset:    100,
		OutputOffset:     50,
	}
}

var reIndexed = regexp.MustCompile(`^([a-zA-Z_]+)(\d+)$`)

// group is a set of related signal bits placed together, MSB first.
type group struct {
	key     string
	bits    []string
	vector  bool
	control bool
}

func isControl(name string) bool {
	switch name {
	case "mode", "cin", "reset", "clk", "s":
		return true
	}
	return strings.Contains(name, "sel")
}

// suffix returns the numeric suffix of a scalar name, or the bit index of a
// vector bit.
func suffix(name string) int {
	if _, i, ok := hdl.SplitBit(name); ok {
		return i
	}
	if m := reIndexed.FindStringSubmatch(name); m != nil {
		n, _ := strconv.Atoi(m[2])
		return n
	}
	return 0
}

// groupPorts groups ports by name affinity: vectors stay together, scalars
// named like a0, a1 share a group, control signals share one group. Groups
// keep first appearance order.
func groupPorts(ports []hdl.Port) []*group {
	var gs []*group
	byKey := make(map[string]*group)
	add := func(key string, control bool, bits ...string) {
		g := byKey[key]
		if g == nil {
			g = &group{key: key, control: control}
			byKey[key] = g
			gs = append(gs, g)
		}
		g.bits = append(g.bits, bits...)
	}
	for _, p := range ports {
		switch {
		case p.Ranged:
			add("["+p.Name+"]", isControl(p.Name), p.Bits()...)
			byKey["["+p.Name+"]"].vector = true
		case reIndexed.MatchString(p.Name):
			add(reIndexed.FindStringSubmatch(p.Name)[1], false, p.Name)
		case isControl(p.Name):
			add("control", true, p.Name)
		default:
			add(p.Name, false, p.Name)
		}
	}
	for _, g := range gs {
		sort.SliceStable(g.bits, func(i, j int) bool { return suffix(g.bits[i]) > suffix(g.bits[j]) })
	}
	return gs
}

// place computes the position of every input bit, operation output and
// output bit.
func (s *synthesis) place() {
	l := s.opts.Layout
	used := make(map[float64]bool)

	// inputs
	y := l.YBase
	for _, g := range groupPorts(s.m.Inputs) {
		step := l.ComponentSpacing
		if g.vector {
			step = l.BitSpacing
		}
		if g.control {
			for i, b := range g.bits {
				py := l.YBase + float64(i)*step
				used[py] = true
				s.pos[b] = hwsim.Point{X: l.XBase + l.ControlOffset, Y: py}
			}
			y = l.YBase + float64(len(g.bits))*step + l.GroupSpacing
			continue
		}
		for used[y] {
			y += l.GroupSpacing
		}
		for i, b := range g.bits {
			py := y + float64(i)*step
			used[py] = true
			s.pos[b] = hwsim.Point{X: l.XBase, Y: py}
		}
		y += float64(len(g.bits))*step + l.GroupSpacing
	}
	s.nextY = y

	// operations, layer by layer
	byLayer := make(map[int][]*hdl.Operation)
	for _, op := range s.m.Ops {
		byLayer[s.layers[op.Output]] = append(byLayer[s.layers[op.Output]], op)
	}
	for layer := 1; layer <= s.maxLayer; layer++ {
		x := l.XBase + float64(layer)*l.LayerSpacing
		var placed []float64
		for i, op := range byLayer[layer] {
			gy := l.YBase + float64(i)*l.ComponentSpacing
			var sum float64
			var cnt int
			for _, in := range op.Inputs {
				if p, ok := s.pos[in]; ok {
					sum += p.Y
					cnt++
				}
			}
			if cnt > 0 {
				gy = sum / float64(cnt)
			}
			for moved := true; moved; {
				moved = false
				for _, py := range placed {
					if abs(py-gy) < l.MinSpacing {
						gy = py + l.MinSpacing
						moved = true
						break
					}
				}
			}
			placed = append(placed, gy)
			s.pos[op.Output] = hwsim.Point{X: x, Y: gy}
		}
	}

	// outputs, aligned with their driver
	type slot struct {
		bit string
		y   float64
	}
	var slots []*slot
	y = l.YBase
	for _, g := range groupPorts(s.m.Outputs) {
		last := y
		for i, b := range g.bits {
			sy := y + float64(i)*l.ComponentSpacing
			if s.ops[b] != nil {
				if p, ok := s.pos[b]; ok {
					sy = p.Y
				}
			}
			slots = append(slots, &slot{b, sy})
			if i == 0 || sy > last {
				last = sy
			}
		}
		y = last + l.ComponentSpacing
	}
	sort.SliceStable(slots, func(i, j int) bool { return slots[i].y < slots[j].y })
	for i := 1; i < len(slots); i++ {
		if slots[i].y-slots[i-1].y < l.MinSpacing {
			slots[i].y = slots[i-1].y + l.MinSpacing
		}
	}
	ox := l.XBase + float64(s.maxLayer+1)*l.LayerSpacing + l.OutputOffset
	for _, sl := range slots {
		s.pos[outputKey(sl.bit)] = hwsim.Point{X: ox, Y: sl.y}
	}
}

// outputKey is the position key of the light for output bit b, distinct from
// the key of the operation driving b.
func outputKey(b string) string { return b + "\x00out" }

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
