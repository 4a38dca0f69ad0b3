// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package drc_test

import (
	"context"
	"testing"

	"github.com/circuitlab/hwsim/drc"
	"github.com/circuitlab/hwsim/hdl"
	"github.com/circuitlab/hwsim/synth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func check(t *testing.T, src string, cfg drc.Config) *drc.Report {
	t.Helper()
	ctx := context.Background()
	e, err := drc.New(ctx)
	require.NoError(t, err)
	m, err := hdl.Parse(src)
	require.NoError(t, err)
	res, err := synth.Synthesize(m, nil)
	require.NoError(t, err)
	r, err := e.Check(ctx, m, res, cfg)
	require.NoError(t, err)
	return r
}

func signals(vs []drc.Violation) []string {
	var r []string
	for _, v := range vs {
		r = append(r, v.Signal)
	}
	return r
}

func TestCheck_clean(t *testing.T) {
	r := check(t, `module ha(input a, b, output s, c); xor x(s, a, b); and g(c, a, b); endmodule`, drc.Config{})
	assert.Empty(t, r.Violations)
	assert.Equal(t, drc.Summary{}, r.Summary)
}

func TestCheck_undrivenOutput(t *testing.T) {
	r := check(t, `module m(input a, output y, z); assign y = a; endmodule`, drc.Config{})
	vs := r.Has("undriven_output")
	require.Len(t, vs, 1)
	assert.Equal(t, "z", vs[0].Signal)
	assert.Equal(t, drc.Error, vs[0].Severity)
	assert.Equal(t, 1, r.Summary.Errors)
}

func TestCheck_unusedInput(t *testing.T) {
	r := check(t, `module m(input a, b, output y); assign y = ~a; endmodule`, drc.Config{})
	assert.Equal(t, []string{"b"}, signals(r.Has("unused_input")))
	assert.Equal(t, 1, r.Summary.Warnings)
}

func TestCheck_autoInput(t *testing.T) {
	r := check(t, `module m(input a, output y); and g(y, a, t); endmodule`, drc.Config{})
	assert.Equal(t, []string{"t"}, signals(r.Has("auto_input")))
}

func TestCheck_loop(t *testing.T) {
	r := check(t, `module sr(input s, r, output q, qn); nand n1(q, r, qn); nand n2(qn, s, q); endmodule`, drc.Config{})
	loops := signals(r.Has("combinational_loop"))
	assert.Contains(t, loops, "q")
	assert.Contains(t, loops, "qn")

	r = check(t, `module r(input clk, d, output reg q); always @(posedge clk) q <= d; endmodule`, drc.Config{})
	assert.Empty(t, r.Has("combinational_loop"))
}

func TestCheck_fanout(t *testing.T) {
	src := `module m(input a, b, output w, x, y, z);
  and g1(w, a, b);
  or g2(x, a, b);
  xor g3(y, a, b);
  nand g4(z, a, b);
endmodule`
	r := check(t, src, drc.Config{MaxFanout: 3})
	assert.ElementsMatch(t, []string{"a", "b"}, signals(r.Has("fanout")))
	r = check(t, src, drc.Config{})
	assert.Empty(t, r.Has("fanout"))
}

func TestCheck_constantGate(t *testing.T) {
	r := check(t, `module m(input a, output y, z);
  assign y = a;
  and g(z, 1, 1'b0);
endmodule`, drc.Config{})
	vs := r.Has("constant_gate")
	require.Len(t, vs, 1)
	assert.Equal(t, "z", vs[0].Signal)
	assert.Equal(t, 3, vs[0].Line)
	assert.Equal(t, 1, r.Summary.Info)
	assert.Equal(t, r.Summary.Total, len(r.Violations))
}

func TestCheck_noResult(t *testing.T) {
	ctx := context.Background()
	e, err := drc.New(ctx)
	require.NoError(t, err)
	m, err := hdl.Parse(`module m(input a, output y); and g(y, a, t); endmodule`)
	require.NoError(t, err)
	r, err := e.Check(ctx, m, nil, drc.Config{})
	require.NoError(t, err)
	assert.Empty(t, r.Has("auto_input"))
}
