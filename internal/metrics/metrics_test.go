// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package metrics_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/circuitlab/hwsim/internal/metrics"
	"github.com/circuitlab/hwsim/synth"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrite(t *testing.T) {
	m := metrics.New()
	m.ObserveParse(nil)
	m.ObserveParse(nil)
	m.ObserveParse(errors.New("boom"))

	r, err := synth.FromVerilog(`module sr(input s, r, output q, qn); nand n1(q, r, qn); nand n2(qn, s, q); endmodule`, nil)
	require.NoError(t, err)
	m.ObserveSynth(r)
	m.ObserveSimulation(r.Netlist.Steps())

	var b strings.Builder
	require.NoError(t, m.Write(&b))
	out := b.String()
	assert.Contains(t, out, `hwsim_parse_total{result="ok"} 2`)
	assert.Contains(t, out, `hwsim_parse_total{result="error"} 1`)
	assert.Contains(t, out, "hwsim_synth_components 6")
	assert.Contains(t, out, "# TYPE hwsim_simulate_passes histogram")
	assert.Contains(t, out, "hwsim_simulate_passes_count 1")
}

func TestWriteFile(t *testing.T) {
	m := metrics.New()
	p := filepath.Join(t.TempDir(), "metrics.prom")
	require.NoError(t, m.WriteFile(p))
	data, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hwsim_synth_components 0")
}
