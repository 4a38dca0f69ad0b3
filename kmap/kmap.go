// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package kmap minimizes boolean functions of 1 to 4 variables with Karnaugh
// maps.
//
// Groups are power of two rectangles of true cells, wrapping around the map
// edges. The cover is made of the essential prime implicants completed by a
// greedy pick of the remaining primes. The result is usually, but not
// always, minimal.
//
package kmap

import (
	"math/bits"

	"github.com/circuitlab/hwsim"
	"github.com/pkg/errors"
)

// MaxVars is the largest number of variables a map can hold.
//
const MaxVars = 4

// ErrVars is returned for functions with fewer than 1 or more than MaxVars
// variables.
//
var ErrVars = errors.New("karnaugh maps support 1 to 4 variables")

var gray = [...]int{0, 1, 3, 2}

// A Map is a Karnaugh map. Cells[r][c] holds the function value for the
// minterm Index(r, c). Variables are ordered most significant first: the
// first variable is the most significant bit of the minterm index.
//
type Map struct {
	Vars  []string
	Rows  int
	Cols  int
	Cells [][]bool

	values []bool
	primes []Group
	cover  []Group
}

// A Group is a rectangle of true cells. Mask has bit i set if minterm i is
// in the group.
//
type Group struct {
	Row, Col      int
	Height, Width int
	Mask          uint16
	Term          string
	lits          []literal
}

// Size returns the number of cells in g.
//
func (g *Group) Size() int { return g.Height * g.Width }

type literal struct {
	v   int // variable index
	neg bool
}

// New returns the map of the function of vars whose value for minterm i is
// values[i].
//
func New(vars []string, values []bool) (*Map, error) {
	n := len(vars)
	if n < 1 || n > MaxVars {
		return nil, errors.Wrapf(ErrVars, "got %d", n)
	}
	if len(values) != 1<<uint(n) {
		return nil, errors.Errorf("%d variables need %d values, got %d", n, 1<<uint(n), len(values))
	}
	m := &Map{
		Vars:   append([]string(nil), vars...),
		values: append([]bool(nil), values...),
	}
	switch n {
	case 1:
		m.Rows, m.Cols = 1, 2
	case 2:
		m.Rows, m.Cols = 2, 2
	case 3:
		m.Rows, m.Cols = 2, 4
	default:
		m.Rows, m.Cols = 4, 4
	}
	m.Cells = make([][]bool, m.Rows)
	for r := range m.Cells {
		m.Cells[r] = make([]bool, m.Cols)
		for c := range m.Cells[r] {
			m.Cells[r][c] = values[m.Index(r, c)]
		}
	}
	m.solve()
	return m, nil
}

// FromTable returns the map of output column out of tt.
//
func FromTable(tt *hwsim.TruthTable, out int) (*Map, error) {
	if out < 0 || out >= len(tt.Outputs) {
		return nil, errors.Errorf("output %d out of range [0, %d)", out, len(tt.Outputs))
	}
	return New(tt.Inputs, tt.Column(out))
}

// Minimize returns the minimized expression of output column out of tt.
//
func Minimize(tt *hwsim.TruthTable, out int) (string, error) {
	m, err := FromTable(tt, out)
	if err != nil {
		return "", err
	}
	return m.Expression(), nil
}

// Index returns the minterm index of cell (r, c).
//
func (m *Map) Index(r, c int) int {
	switch len(m.Vars) {
	case 1:
		return c
	case 2:
		return r<<1 | c
	case 3:
		return r<<2 | gray[c]
	}
	return gray[r]<<2 | gray[c]
}

// Primes returns the prime implicants of the map, in enumeration order.
//
func (m *Map) Primes() []Group { return m.primes }

// Groups returns the groups of the cover, in selection order. Constant
// functions have no groups.
//
func (m *Map) Groups() []Group { return m.cover }

func (m *Map) ones() uint16 {
	var mask uint16
	for i, v := range m.values {
		if v {
			mask |= 1 << uint(i)
		}
	}
	return mask
}

func (m *Map) full() uint16 {
	return uint16(1<<uint(len(m.values)) - 1)
}

func (m *Map) solve() {
	ones := m.ones()
	if ones == 0 || ones == m.full() {
		return
	}
	m.primes = m.candidates()
	m.cover = m.pick(ones)
}

// candidates enumerates every all-true power of two rectangle, wrapping
// around the edges, and keeps those not contained in another.
func (m *Map) candidates() []Group {
	var all []Group
	seen := make(map[uint16]bool)
	for _, h := range []int{1, 2, 4} {
		if h > m.Rows {
			continue
		}
		for _, w := range []int{1, 2, 4} {
			if w > m.Cols {
				continue
			}
			for r := 0; r < m.Rows; r++ {
				for c := 0; c < m.Cols; c++ {
					mask, ok := m.rect(r, c, h, w)
					if !ok || seen[mask] {
						continue
					}
					seen[mask] = true
					all = append(all, Group{Row: r, Col: c, Height: h, Width: w, Mask: mask})
				}
			}
		}
	}
	var primes []Group
	for i, g := range all {
		prime := true
		for j, o := range all {
			if i != j && g.Mask&o.Mask == g.Mask && o.Mask != g.Mask {
				prime = false
				break
			}
		}
		if prime {
			g.lits = m.literals(g.Mask)
			g.Term = term(m.Vars, g.lits, unicodeOps)
			primes = append(primes, g)
		}
	}
	return primes
}

// rect returns the minterm mask of the h×w rectangle at (r, c) and whether
// all its cells are true.
func (m *Map) rect(r, c, h, w int) (uint16, bool) {
	var mask uint16
	for i := 0; i < h; i++ {
		for j := 0; j < w; j++ {
			rr, cc := (r+i)%m.Rows, (c+j)%m.Cols
			if !m.Cells[rr][cc] {
				return 0, false
			}
			mask |= 1 << uint(m.Index(rr, cc))
		}
	}
	return mask, true
}

// literals returns the variables constant across the minterms of mask.
func (m *Map) literals(mask uint16) []literal {
	n := len(m.Vars)
	var lits []literal
	for v := 0; v < n; v++ {
		bit := uint(n - 1 - v)
		set, clear := false, false
		for i := 0; i < len(m.values); i++ {
			if mask&(1<<uint(i)) == 0 {
				continue
			}
			if i>>bit&1 == 1 {
				set = true
			} else {
				clear = true
			}
		}
		if set != clear {
			lits = append(lits, literal{v: v, neg: clear})
		}
	}
	return lits
}

// pick selects the essential primes, then greedily adds the prime covering
// the most uncovered minterms, preferring larger groups, then enumeration
// order.
func (m *Map) pick(ones uint16) []Group {
	var cover []Group
	used := make([]bool, len(m.primes))
	var covered uint16
	for i := 0; i < len(m.values); i++ {
		bit := uint16(1) << uint(i)
		if ones&bit == 0 {
			continue
		}
		only := -1
		for j, p := range m.primes {
			if p.Mask&bit == 0 {
				continue
			}
			if only >= 0 {
				only = -1
				break
			}
			only = j
		}
		if only >= 0 && !used[only] {
			used[only] = true
		}
	}
	for j, p := range m.primes {
		if used[j] {
			cover = append(cover, p)
			covered |= p.Mask
		}
	}
	for covered != ones {
		best, bestN := -1, 0
		for j, p := range m.primes {
			if used[j] {
				continue
			}
			n := bits.OnesCount16(p.Mask &^ covered)
			if n > bestN || n == bestN && n > 0 && p.Size() > m.primes[best].Size() {
				best, bestN = j, n
			}
		}
		if best < 0 {
			break
		}
		used[best] = true
		cover = append(cover, m.primes[best])
		covered |= m.primes[best].Mask
	}
	return cover
}
