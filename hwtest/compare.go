// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package hwtest provides utility functions for testing netlists.
//
package hwtest

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/circuitlab/hwsim"
)

// MaxExhaustive is the input count above which CompareNetlists switches from
// exhaustive to random testing.
//
const MaxExhaustive = 12

func randBool(r *rand.Rand) bool {
	return r.Int63()&(1<<62) != 0
}

func labels(cs []*hwsim.Component) []string {
	r := make([]string, len(cs))
	for i, c := range cs {
		r[i] = c.Label
	}
	return r
}

// CompareNetlists drives the inputs of a and b with the same levels and
// compares their outputs. Inputs and outputs are matched by position and
// their labels must be identical.
//
// Netlists with at most MaxExhaustive inputs are tested for every input
// combination. Larger ones get all zeros, all ones and 1<<MaxExhaustive
// random combinations.
//
func CompareNetlists(t testing.TB, a, b *hwsim.Netlist) {
	t.Helper()

	ins1, ins2 := a.Inputs(), b.Inputs()
	outs1, outs2 := a.Outputs(), b.Outputs()
	if l1, l2 := labels(ins1), labels(ins2); strings.Join(l1, ",") != strings.Join(l2, ",") {
		t.Fatalf("input mismatch: %v != %v", l1, l2)
	}
	if l1, l2 := labels(outs1), labels(outs2); strings.Join(l1, ",") != strings.Join(l2, ",") {
		t.Fatalf("output mismatch: %v != %v", l1, l2)
	}

	inputs := make([]bool, len(ins1))
	errString := func(oname string, ex, got bool) string {
		var b strings.Builder
		for i, c := range ins1 {
			if b.Len() > 0 {
				b.WriteString(", ")
			}
			b.WriteString(c.Label)
			b.WriteRune('=')
			if inputs[i] {
				b.WriteString("true")
			} else {
				b.WriteString("false")
			}
		}
		return fmt.Sprintf("\nExpected %s => %s=%v\nGot %v", b.String(), oname, ex, got)
	}
	run := func() {
		for i, v := range inputs {
			if err := ins1[i].SetLevel(v); err != nil {
				t.Fatal(err)
			}
			if err := ins2[i].SetLevel(v); err != nil {
				t.Fatal(err)
			}
		}
		if err := a.Simulate(); err != nil {
			t.Fatal(err)
		}
		if err := b.Simulate(); err != nil {
			t.Fatal(err)
		}
		for o := range outs1 {
			ex, got := outs1[o].Value().Bool(), outs2[o].Value().Bool()
			if ex != got {
				t.Fatal(errString(outs1[o].Label, ex, got))
			}
		}
	}

	start := time.Now()
	steps := a.Steps()
	if len(inputs) <= MaxExhaustive {
		for r := 0; r < 1<<uint(len(inputs)); r++ {
			for i := range inputs {
				inputs[i] = r&(1<<uint(len(inputs)-1-i)) != 0
			}
			run()
		}
	} else {
		run()
		for i := range inputs {
			inputs[i] = true
		}
		run()
		rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
		for n := 0; n < 1<<MaxExhaustive; n++ {
			for i := range inputs {
				inputs[i] = randBool(rnd)
			}
			run()
		}
	}
	elapsed := time.Since(start)
	t.Logf("%d components. %d steps in %v", a.Size(), a.Steps()-steps, elapsed)
}
