// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package metrics collects counters on parse, synthesis and simulation
// activity and dumps them in the prometheus text format.
//
package metrics

import (
	"io"
	"os"

	"github.com/circuitlab/hwsim/synth"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// Metrics holds the collectors on a private registry.
//
type Metrics struct {
	reg        *prometheus.Registry
	parses     *prometheus.CounterVec
	components prometheus.Counter
	feedback   prometheus.Counter
	passes     prometheus.Histogram
}

// New returns a set of zeroed collectors.
//
func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		parses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hwsim_parse_total",
			Help: "Number of parsed modules by result.",
		}, []string{"result"}),
		components: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hwsim_synth_components",
			Help: "Number of components created by synthesis.",
		}),
		feedback: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hwsim_synth_feedback_edges",
			Help: "Number of feedback edges found by synthesis.",
		}),
		passes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "hwsim_simulate_passes",
			Help:    "Evaluation passes run per command.",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		}),
	}
	m.reg.MustRegister(m.parses, m.components, m.feedback, m.passes)
	return m
}

// ObserveParse counts a parse with outcome err.
//
func (m *Metrics) ObserveParse(err error) {
	res := "ok"
	if err != nil {
		res = "error"
	}
	m.parses.WithLabelValues(res).Inc()
}

// ObserveSynth records the size of a synthesis result.
//
func (m *Metrics) ObserveSynth(r *synth.Result) {
	m.components.Add(float64(r.Netlist.Size()))
	m.feedback.Add(float64(len(r.Feedback)))
}

// ObserveSimulation records the number of passes run.
//
func (m *Metrics) ObserveSimulation(passes uint) {
	m.passes.Observe(float64(passes))
}

// Write dumps all metrics in the text exposition format.
//
func (m *Metrics) Write(w io.Writer) error {
	mfs, err := m.reg.Gather()
	if err != nil {
		return errors.Wrap(err, "gathering metrics")
	}
	for _, mf := range mfs {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}

// WriteFile dumps all metrics to the named file.
//
func (m *Metrics) WriteFile(name string) (err error) {
	f, err := os.Create(name)
	if err != nil {
		return errors.Wrap(err, "creating metrics file")
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return m.Write(f)
}
