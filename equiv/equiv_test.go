// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package equiv_test

import (
	"testing"

	"github.com/circuitlab/hwsim/equiv"
	"github.com/circuitlab/hwsim/hdl"
	"github.com/circuitlab/hwsim/kmap"
	"github.com/circuitlab/hwsim/synth"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, src string) *hdl.Module {
	t.Helper()
	m, err := hdl.Parse(src)
	require.NoError(t, err)
	return m
}

func TestCheck(t *testing.T) {
	td := []struct {
		name  string
		a, b  string
		equiv bool
	}{
		{"de morgan",
			`module m(input a, b, output y); assign y = ~(a & b); endmodule`,
			`module m(input a, b, output y); assign y = ~a | ~b; endmodule`,
			true},
		{"xor",
			`module m(input a, b, output y); xor g(y, a, b); endmodule`,
			`module m(input a, b, output y); assign y = (a & ~b) | (~a & b); endmodule`,
			true},
		{"mux",
			`module m(input a, b, s, output y); assign y = s ? b : a; endmodule`,
			`module m(input a, b, s, output y); assign y = (s & b) | (~s & a); endmodule`,
			true},
		{"port order",
			`module m(input a, b, output y, z); assign y = a & b; assign z = a | b; endmodule`,
			`module m(input b, a, output z, y); assign z = b | a; assign y = b & a; endmodule`,
			true},
		{"and or",
			`module m(input a, b, output y); assign y = a & b; endmodule`,
			`module m(input a, b, output y); assign y = a | b; endmodule`,
			false},
		{"constant",
			`module m(input a, output y); assign y = a | ~a; endmodule`,
			`module m(input a, output y); assign y = 1'b1; endmodule`,
			true},
	}
	for _, d := range td {
		t.Run(d.name, func(t *testing.T) {
			r, err := equiv.Check(parse(t, d.a), parse(t, d.b))
			require.NoError(t, err)
			assert.Equal(t, d.equiv, r.Equivalent)
		})
	}
}

func TestCheck_counterexample(t *testing.T) {
	a := parse(t, `module m(input a, b, output y, z); assign y = a; assign z = a & b; endmodule`)
	b := parse(t, `module m(input a, b, output y, z); assign y = a; assign z = a | b; endmodule`)
	r, err := equiv.Check(a, b)
	require.NoError(t, err)
	require.False(t, r.Equivalent)
	assert.Equal(t, "z", r.Output)
	// a & b and a | b differ exactly when a != b
	assert.NotEqual(t, r.Counterexample["a"], r.Counterexample["b"])
}

func TestCheck_errors(t *testing.T) {
	ff := parse(t, `module r(input clk, d, output reg q); always @(posedge clk) q <= d; endmodule`)
	_, err := equiv.Check(ff, ff)
	assert.Equal(t, equiv.ErrSequential, errors.Cause(err))

	sr := parse(t, `module sr(input s, r, output q, qn); nand n1(q, r, qn); nand n2(qn, s, q); endmodule`)
	_, err = equiv.Check(sr, sr)
	assert.Equal(t, equiv.ErrSequential, errors.Cause(err))

	a := parse(t, `module m(input a, b, output y); assign y = a & b; endmodule`)
	b := parse(t, `module m(input a, c, output y); assign y = a & c; endmodule`)
	_, err = equiv.Check(a, b)
	assert.Equal(t, equiv.ErrPorts, errors.Cause(err))
}

// Minimization must preserve the function, as seen by the solver.
func TestCheck_minimized(t *testing.T) {
	src := `
module f(input a, b, c, output y);
  assign y = (a & b & c) | (a & b & ~c) | (~a & ~b & c);
endmodule`
	r, err := synth.FromVerilog(src, nil)
	require.NoError(t, err)
	tt, err := r.Netlist.TruthTable()
	require.NoError(t, err)
	text, err := kmap.Module("f", tt)
	require.NoError(t, err)

	res, err := equiv.Check(parse(t, src), parse(t, text))
	require.NoError(t, err)
	assert.True(t, res.Equivalent, text)
}
