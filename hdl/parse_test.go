// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hdl_test

import (
	"strings"
	"testing"

	"github.com/circuitlab/hwsim/hdl"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, src string) *hdl.Module {
	t.Helper()
	m, err := hdl.Parse(src)
	require.NoError(t, err)
	return m
}

func TestParse_instance(t *testing.T) {
	m := mustParse(t, `module m(input a, input b, output c); and g1(c, a, b); endmodule`)
	assert.Equal(t, "m", m.Name)
	assert.Equal(t, []string{"a", "b"}, m.InputBits())
	assert.Equal(t, []string{"c"}, m.OutputBits())
	require.Len(t, m.Ops, 1)
	op := m.Ops[0]
	assert.Equal(t, hdl.AND, op.Kind)
	assert.Equal(t, "g1", op.Name)
	assert.Equal(t, "c", op.Output)
	assert.Equal(t, []string{"a", "b"}, op.Inputs)
	assert.Empty(t, m.Warnings)
}

func TestParse_surroundingText(t *testing.T) {
	src := "Here is the circuit:\n\n" +
		"// half adder\n" +
		"module ha(a, b, s, c);\n" +
		"  input a, b; /* operands */\n" +
		"  output s, c;\n" +
		"  assign s = a ^ b;\n" +
		"  assign c = a & b;\n" +
		"endmodule\n\nHope this helps."
	m := mustParse(t, src)
	assert.Equal(t, "ha", m.Name)
	assert.Equal(t, []string{"a", "b"}, m.InputBits())
	assert.Equal(t, []string{"s", "c"}, m.OutputBits())
	require.Len(t, m.Ops, 2)
	assert.Equal(t, hdl.XOR, m.Ops[0].Kind)
	assert.Equal(t, "s", m.Ops[0].Output)
	assert.Equal(t, hdl.AND, m.Ops[1].Kind)
	assert.Equal(t, "c", m.Ops[1].Output)
}

func TestParse_syntaxErrors(t *testing.T) {
	td := []struct {
		name      string
		src       string
		construct string
	}{
		{"no module", "assign a = b;", "module header"},
		{"no endmodule", "module m(input a, output b); assign b = a;", "endmodule"},
		{"empty ports", "module m(); endmodule", "port list"},
		{"semicolon in ports", "module m(input a; output b); endmodule", "port list"},
		{"no name", "module (a); endmodule", "module header"},
		{"body", "module m(input a, output b); assign b = ; endmodule", "module body"},
	}
	for _, d := range td {
		t.Run(d.name, func(t *testing.T) {
			_, err := hdl.Parse(d.src)
			require.Error(t, err)
			var se *hdl.SyntaxError
			require.True(t, errors.As(err, &se), "got %T: %v", err, err)
			assert.Equal(t, d.construct, se.Construct)
		})
	}
}

func TestParse_structuralErrors(t *testing.T) {
	td := []struct {
		name   string
		src    string
		signal string
	}{
		{"multiple drivers", `module m(input a, b, output y); assign y = a; assign y = b; endmodule`, "y"},
		{"driven input", `module m(input a, b, output y); assign a = b; assign y = a; endmodule`, "a"},
		{"not arity", `module m(input a, b, output y); not n1(y, a, b); endmodule`, "n1"},
		{"and arity", `module m(input a, output y); and g(y, a); endmodule`, "g"},
		{"mux2 arity", `module m(input a, b, output y); mux2 u(y, a, b); endmodule`, "u"},
		{"mux4 arity", `module m(input a, b, c, d, s, output y); mux4 u(y, a, b, c, d, s); endmodule`, "u"},
		{"wide case", `module m(input [2:0] s, input a, output reg y); always @* case (s) 0: y = a; default: y = 0; endcase endmodule`, "s"},
		{"case label", `module m(input s, a, output reg y); always @* case (s) a: y = a; endcase endmodule`, "a"},
		{"bit range", `module m(input [1:0] a, output y); assign y = a[2]; endmodule`, "a"},
	}
	for _, d := range td {
		t.Run(d.name, func(t *testing.T) {
			_, err := hdl.Parse(d.src)
			require.Error(t, err)
			var se *hdl.StructuralError
			require.True(t, errors.As(err, &se), "got %T: %v", err, err)
			assert.Equal(t, d.signal, se.Signal)
		})
	}
}

func TestParse_ternary(t *testing.T) {
	m := mustParse(t, `module m(input a, b, s, output y); assign y = s ? b : a; endmodule`)
	require.Len(t, m.Ops, 1)
	op := m.Ops[0]
	assert.Equal(t, hdl.MUX2, op.Kind)
	assert.Equal(t, "y", op.Output)
	assert.Equal(t, []string{"a", "b", "s"}, op.Inputs)
	assert.Equal(t, "s", op.Select)
}

func TestParse_chains(t *testing.T) {
	m := mustParse(t, `module m(input a, b, c, output y, z); assign y = a | b | c; assign z = ~(a & b); endmodule`)
	require.Len(t, m.Ops, 3)
	assert.Equal(t, hdl.OR, m.Ops[0].Kind)
	assert.Equal(t, []string{"a", "b", "c"}, m.Ops[0].Inputs)
	assert.Equal(t, hdl.AND, m.Ops[1].Kind)
	assert.Equal(t, hdl.NOT, m.Ops[2].Kind)
	assert.Equal(t, "z", m.Ops[2].Output)
	assert.Equal(t, []string{m.Ops[1].Output}, m.Ops[2].Inputs)
}

func TestParse_vector(t *testing.T) {
	m := mustParse(t, `module m(input [1:0] a, input [1:0] b, output [1:0] y); assign y = a & b; endmodule`)
	assert.Equal(t, []string{"a[0]", "a[1]", "b[0]", "b[1]"}, m.InputBits())
	require.Len(t, m.Ops, 2)
	for i, op := range m.Ops {
		bit := []string{"[0]", "[1]"}[i]
		assert.Equal(t, hdl.AND, op.Kind)
		assert.Equal(t, "y"+bit, op.Output)
		assert.Equal(t, []string{"a" + bit, "b" + bit}, op.Inputs)
	}
}

func TestParse_equality(t *testing.T) {
	m := mustParse(t, `module m(input [1:0] s, output y); assign y = s == 2'b10; endmodule`)
	require.Len(t, m.Ops, 2)
	not, and := m.Ops[0], m.Ops[1]
	assert.Equal(t, hdl.NOT, not.Kind)
	assert.Equal(t, []string{"s[0]"}, not.Inputs)
	assert.Equal(t, hdl.AND, and.Kind)
	assert.Equal(t, "y", and.Output)
	assert.Equal(t, []string{not.Output, "s[1]"}, and.Inputs)
}

func TestParse_case(t *testing.T) {
	m := mustParse(t, `
module sel(input [1:0] s, input a, b, c, output reg y);
  always @(*) begin
    case (s)
      2'b00: y = a;
      2'b01: y = b;
      default: y = c;
    endcase
  end
endmodule`)
	require.Len(t, m.Ops, 1)
	op := m.Ops[0]
	assert.Equal(t, hdl.MUX4, op.Kind)
	assert.Equal(t, "y", op.Output)
	assert.Equal(t, []string{"a", "b", "c", "c", "s[0]", "s[1]"}, op.Inputs)
	assert.Equal(t, "s", op.Select)
	require.Len(t, op.Cases, 4)
	assert.Equal(t, "2'b01", op.Cases[1].Value)
	assert.Equal(t, "default", op.Cases[3].Value)
}

func TestParse_caseNoDefault(t *testing.T) {
	m := mustParse(t, `
module sel(input [1:0] s, input a, b, output reg y);
  always @(*)
    case (s)
      2'b00: y = a;
      2'b01: y = b;
    endcase
endmodule`)
	require.Len(t, m.Ops, 1)
	op := m.Ops[0]
	assert.Equal(t, hdl.MUX4, op.Kind)
	assert.Equal(t, []string{"a", "b", "1'b0", "1'b0", "s[0]", "s[1]"}, op.Inputs)
	require.Len(t, op.Cases, 4)
	assert.Equal(t, "2'b00", op.Cases[0].Value)
	assert.Equal(t, "", op.Cases[2].Value)
	assert.Equal(t, "1'b0", op.Cases[2].Result)
	assert.Equal(t, "", op.Cases[3].Value)
}

func TestParse_caseOneBit(t *testing.T) {
	m := mustParse(t, `
module sel(input s, a, b, output reg y);
  always @(*)
    case (s)
      1'b0: y = a;
      1'b1: y = b;
    endcase
endmodule`)
	require.Len(t, m.Ops, 1)
	op := m.Ops[0]
	assert.Equal(t, hdl.MUX2, op.Kind)
	assert.Equal(t, "y", op.Output)
	assert.Equal(t, []string{"a", "b", "s"}, op.Inputs)
	assert.Equal(t, "s", op.Select)
	require.Len(t, op.Cases, 2)
	assert.Equal(t, "1'b1", op.Cases[1].Value)
}

func TestParse_latch(t *testing.T) {
	m := mustParse(t, `module l(input en, d, output reg q); always @* if (en) q = d; endmodule`)
	require.Len(t, m.Ops, 1)
	op := m.Ops[0]
	assert.Equal(t, hdl.MUX2, op.Kind)
	assert.Equal(t, "q", op.Output)
	assert.Equal(t, []string{"q", "d", "en"}, op.Inputs)
}

func TestParse_flipFlop(t *testing.T) {
	m := mustParse(t, `module r(input clk, d, output reg q); always @(posedge clk) q <= d; endmodule`)
	require.Len(t, m.Ops, 1)
	op := m.Ops[0]
	assert.Equal(t, hdl.DFF, op.Kind)
	assert.Equal(t, "q", op.Output)
	assert.Equal(t, []string{"d", "clk"}, op.Inputs)
}

func TestParse_implicitWire(t *testing.T) {
	m := mustParse(t, `module m(input a, output y); assign y = a & t; endmodule`)
	require.Len(t, m.Warnings, 1)
	assert.Contains(t, m.Warnings[0], "t")
	_, ok := m.Port("t")
	assert.True(t, ok)
}

func TestParse_nonANSI(t *testing.T) {
	m := mustParse(t, `module m(a, y); input [3:0] a; output y; wire t; assign t = a[3]; assign y = t; endmodule`)
	assert.Equal(t, 4, len(m.InputBits()))
	p, ok := m.Port("a")
	require.True(t, ok)
	assert.Equal(t, 4, p.Width())
	assert.True(t, strings.HasPrefix(m.String(), "module m(a, y);"))
}

func TestModule_String(t *testing.T) {
	srcs := []string{
		`module m(input [1:0] a, input [1:0] b, output [1:0] y); assign y = a & b; endmodule`,
		`module sel(input [1:0] s, input a, b, c, output reg y);
		   always @* case (s) 2'b00: y = a; 2'b01: y = b; default: y = c; endcase
		 endmodule`,
		`module r(input clk, d, output reg q); always @(posedge clk) q <= d; endmodule`,
	}
	for _, src := range srcs {
		m := mustParse(t, src)
		m2 := mustParse(t, m.String())
		require.Len(t, m2.Ops, len(m.Ops))
		for i := range m.Ops {
			assert.Equal(t, m.Ops[i].Kind, m2.Ops[i].Kind)
			assert.Equal(t, m.Ops[i].Output, m2.Ops[i].Output)
			assert.Equal(t, m.Ops[i].Inputs, m2.Ops[i].Inputs)
		}
	}
}

func TestParseLiteral(t *testing.T) {
	td := []struct {
		in    string
		value uint64
		width int
	}{
		{"0", 0, 1},
		{"5", 5, 3},
		{"1'b1", 1, 1},
		{"4'b1010", 10, 4},
		{"8'hFF", 255, 8},
		{"4'b1_0x1", 9, 4},
		{"'d3", 3, 2},
		{"2'hF", 3, 2},
	}
	for _, d := range td {
		v, w, err := hdl.ParseLiteral(d.in)
		require.NoError(t, err, d.in)
		assert.Equal(t, d.value, v, d.in)
		assert.Equal(t, d.width, w, d.in)
	}
	assert.False(t, hdl.IsLiteral("a1"))
	_, _, err := hdl.ParseLiteral("4'q1")
	assert.Error(t, err)
}
