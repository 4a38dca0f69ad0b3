// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Command hwsynth parses, synthesizes, simulates and checks Verilog modules
// and circuit exchange records.
//
// Usage:
//
//	hwsynth [flags] command [command flags] file...
//
// Commands:
//
//	parse file.v            print the lowered operations of a module
//	synth file.v            synthesize a module and print a summary
//	sim file                simulate a circuit and print its outputs
//	table file              print the truth table of a circuit
//	minimize file           print minimized expressions for every output
//	verilog file.json       write a record as a Verilog module
//	json file.v             write a synthesized module as a record
//	load file.json          load a record and print its outputs
//	dot file                write a graphviz graph of a circuit
//	drc file.v              run the design rules on a module
//	equiv a.v b.v           check that two modules compute the same function
//
// A file ending in .json is loaded as an exchange record, anything else is
// parsed as Verilog.
//
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/circuitlab/hwsim"
	"github.com/circuitlab/hwsim/drc"
	"github.com/circuitlab/hwsim/equiv"
	"github.com/circuitlab/hwsim/hdl"
	"github.com/circuitlab/hwsim/internal/config"
	"github.com/circuitlab/hwsim/internal/metrics"
	"github.com/circuitlab/hwsim/kmap"
	"github.com/circuitlab/hwsim/record"
	"github.com/circuitlab/hwsim/synth"
	"github.com/go-logr/logr"
	"github.com/go-logr/stdr"
	"github.com/pkg/errors"
)

type app struct {
	cfg     *config.Config
	log     logr.Logger
	metrics *metrics.Metrics
	out     io.Writer
}

type command struct {
	args int
	run  func(a *app, fs *flag.FlagSet) error
	// flags registers command specific flags
	flags func(fs *flag.FlagSet)
}

var commands = map[string]*command{
	"parse":    {args: 1, run: (*app).parse},
	"synth":    {args: 1, run: (*app).synth},
	"sim":      {args: 1, run: (*app).sim, flags: simFlags},
	"table":    {args: 1, run: (*app).table},
	"minimize": {args: 1, run: (*app).minimize, flags: minimizeFlags},
	"verilog":  {args: 1, run: (*app).verilog},
	"json":     {args: 1, run: (*app).json},
	"load":     {args: 1, run: (*app).load},
	"dot":      {args: 1, run: (*app).dot},
	"drc":      {args: 1, run: (*app).drc},
	"equiv":    {args: 2, run: (*app).equiv},
}

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] command [command flags] file...\n\ncommands:\n", filepath.Base(os.Args[0]))
	var names []string
	for n := range commands {
		names = append(names, n)
	}
	sort.Strings(names)
	fmt.Fprintf(flag.CommandLine.Output(), "  %s\n\nflags:\n", strings.Join(names, " "))
	flag.PrintDefaults()
}

func main() {
	var (
		cfgFile     = flag.String("config", "", "configuration `file` (default: search "+config.FileName+")")
		verbosity   = flag.Int("v", -1, "log verbosity, overrides the configuration")
		passes      = flag.Int("passes", -1, "simulation relaxation passes, overrides the configuration")
		metricsFile = flag.String("metrics", "", "write prometheus metrics to `file` on exit")
	)
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() < 1 {
		usage()
		os.Exit(2)
	}

	var (
		cfg *config.Config
		err error
	)
	if *cfgFile != "" {
		cfg, err = config.LoadFile(*cfgFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		log.Fatal(err)
	}
	if *verbosity >= 0 {
		cfg.Log.Verbosity = *verbosity
	}
	if *passes >= 0 {
		cfg.Simulation.Passes = *passes
	}
	stdr.SetVerbosity(cfg.Log.Verbosity)

	a := &app{
		cfg:     cfg,
		log:     stdr.New(log.New(os.Stderr, "", log.LstdFlags)).WithName("hwsynth"),
		metrics: metrics.New(),
		out:     os.Stdout,
	}

	name := flag.Arg(0)
	cmd := commands[name]
	if cmd == nil {
		fmt.Fprintf(os.Stderr, "unknown command %q\n", name)
		usage()
		os.Exit(2)
	}
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	if cmd.flags != nil {
		cmd.flags(fs)
	}
	fs.Parse(flag.Args()[1:])
	if fs.NArg() != cmd.args {
		fmt.Fprintf(os.Stderr, "%s takes %d file argument(s)\n", name, cmd.args)
		os.Exit(2)
	}

	err = cmd.run(a, fs)
	if *metricsFile != "" {
		if merr := a.metrics.WriteFile(*metricsFile); merr != nil {
			a.log.Error(merr, "writing metrics")
		}
	}
	if err != nil {
		a.log.V(1).Info("command failed", "command", name, "trace", fmt.Sprintf("%+v", err))
		log.Fatal(err)
	}
}

func isRecord(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".json")
}

// module parses the Verilog file name.
func (a *app) module(name string) (*hdl.Module, error) {
	src, err := os.ReadFile(name)
	if err != nil {
		return nil, errors.Wrap(err, "reading source")
	}
	m, err := hdl.Parse(string(src), hdl.WithLogger(a.log.WithName("hdl")))
	a.metrics.ObserveParse(err)
	if err != nil {
		return nil, errors.Wrap(err, name)
	}
	for _, w := range m.Warnings {
		a.log.Info("warning", "file", name, "msg", w)
	}
	return m, nil
}

// synthesize parses and synthesizes the Verilog file name.
func (a *app) synthesize(name string) (*hdl.Module, *synth.Result, error) {
	m, err := a.module(name)
	if err != nil {
		return nil, nil, err
	}
	r, err := synth.Synthesize(m, a.cfg.SynthOptions(a.log.WithName("synth")))
	if err != nil {
		return nil, nil, errors.Wrap(err, name)
	}
	a.metrics.ObserveSynth(r)
	a.metrics.ObserveSimulation(r.Netlist.Steps())
	return m, r, nil
}

// netlist loads a record or synthesizes a Verilog file.
func (a *app) netlist(name string) (*hwsim.Netlist, error) {
	if !isRecord(name) {
		_, r, err := a.synthesize(name)
		if err != nil {
			return nil, err
		}
		return r.Netlist, nil
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, errors.Wrap(err, "reading record")
	}
	n, err := record.Import(data)
	if err != nil {
		return nil, errors.Wrap(err, name)
	}
	n.Passes = a.cfg.Simulation.Passes
	return n, nil
}

func (a *app) parse(fs *flag.FlagSet) error {
	m, err := a.module(fs.Arg(0))
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "module %s\n", m.Name)
	fmt.Fprintf(a.out, "inputs:  %s\n", strings.Join(m.InputBits(), " "))
	fmt.Fprintf(a.out, "outputs: %s\n", strings.Join(m.OutputBits(), " "))
	for _, op := range m.Ops {
		fmt.Fprintf(a.out, "%4d: %s\n", op.Pos.Line, op)
	}
	return nil
}

func (a *app) synth(fs *flag.FlagSet) error {
	_, r, err := a.synthesize(fs.Arg(0))
	if err != nil {
		return err
	}
	n := r.Netlist
	fmt.Fprintf(a.out, "components: %d\nwires: %d\n", n.Size(), len(n.Wires()))
	for _, e := range r.Feedback {
		fmt.Fprintf(a.out, "feedback: %s -> %s\n", e.From, e.To)
	}
	for _, s := range r.Auto {
		fmt.Fprintf(a.out, "auto input: %s\n", s)
	}
	for _, w := range r.Warnings {
		fmt.Fprintf(a.out, "warning: %s\n", w)
	}
	return nil
}

var (
	simSet   string
	simTicks int
)

func simFlags(fs *flag.FlagSet) {
	fs.StringVar(&simSet, "set", "", "comma separated input `levels`, e.g. a=1,b=0")
	fs.IntVar(&simTicks, "ticks", 0, "number of clock ticks to run")
}

func (a *app) printOutputs(n *hwsim.Netlist) {
	for _, c := range n.Outputs() {
		l := c.Label
		if l == "" {
			l = c.ID
		}
		fmt.Fprintf(a.out, "%s = %s\n", l, c.Value())
	}
}

func (a *app) sim(fs *flag.FlagSet) error {
	n, err := a.netlist(fs.Arg(0))
	if err != nil {
		return err
	}
	if simSet != "" {
		for _, kv := range strings.Split(simSet, ",") {
			k, v, ok := strings.Cut(kv, "=")
			if !ok {
				return errors.Errorf("invalid input setting %q", kv)
			}
			c := n.Find(strings.TrimSpace(k))
			if c == nil {
				c = n.Component(strings.TrimSpace(k))
			}
			if c == nil {
				return errors.Errorf("no input %q", k)
			}
			var u uint64
			if _, err = fmt.Sscan(v, &u); err != nil {
				return errors.Wrapf(err, "value of %s", k)
			}
			if err = c.SetValue(u); err != nil {
				return err
			}
		}
	}
	before := n.Steps()
	if err = n.Simulate(); err != nil {
		return err
	}
	for i := 0; i < simTicks; i++ {
		if err = n.Tick(); err != nil {
			return err
		}
	}
	a.metrics.ObserveSimulation(n.Steps() - before)
	a.printOutputs(n)
	return nil
}

func (a *app) table(fs *flag.FlagSet) error {
	n, err := a.netlist(fs.Arg(0))
	if err != nil {
		return err
	}
	tt, err := n.TruthTable()
	if err != nil {
		return err
	}
	return tt.Write(a.out)
}

var minimizeVerilog bool

func minimizeFlags(fs *flag.FlagSet) {
	fs.BoolVar(&minimizeVerilog, "verilog", false, "print a minimized Verilog module instead of expressions")
}

func (a *app) minimize(fs *flag.FlagSet) error {
	n, err := a.netlist(fs.Arg(0))
	if err != nil {
		return err
	}
	tt, err := n.TruthTable()
	if err != nil {
		return err
	}
	if minimizeVerilog {
		name := strings.TrimSuffix(filepath.Base(fs.Arg(0)), filepath.Ext(fs.Arg(0)))
		s, err := kmap.Module(name+"_min", tt)
		if err != nil {
			return err
		}
		_, err = io.WriteString(a.out, s)
		return err
	}
	for i, o := range tt.Outputs {
		s, err := kmap.Minimize(tt, i)
		if err != nil {
			return errors.Wrap(err, o)
		}
		fmt.Fprintf(a.out, "%s = %s\n", o, s)
	}
	return nil
}

func (a *app) verilog(fs *flag.FlagSet) error {
	n, err := a.netlist(fs.Arg(0))
	if err != nil {
		return err
	}
	name := strings.TrimSuffix(filepath.Base(fs.Arg(0)), filepath.Ext(fs.Arg(0)))
	return n.WriteVerilog(a.out, name)
}

func (a *app) json(fs *flag.FlagSet) error {
	n, err := a.netlist(fs.Arg(0))
	if err != nil {
		return err
	}
	data, err := record.Marshal(n)
	if err != nil {
		return err
	}
	_, err = a.out.Write(append(data, '\n'))
	return err
}

func (a *app) load(fs *flag.FlagSet) error {
	n, err := a.netlist(fs.Arg(0))
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "components: %d\nwires: %d\n", n.Size(), len(n.Wires()))
	a.printOutputs(n)
	return nil
}

func (a *app) dot(fs *flag.FlagSet) error {
	n, err := a.netlist(fs.Arg(0))
	if err != nil {
		return err
	}
	return n.WriteDot(a.out)
}

func (a *app) drc(fs *flag.FlagSet) error {
	ctx := context.Background()
	m, err := a.module(fs.Arg(0))
	if err != nil {
		return err
	}
	// rules on loops and auto inputs need a synthesis result
	r, err := synth.Synthesize(m, a.cfg.SynthOptions(a.log.WithName("synth")))
	if err != nil {
		a.log.Info("synthesis failed, netlist rules skipped", "err", err.Error())
		r = nil
	}
	e, err := drc.New(ctx)
	if err != nil {
		return err
	}
	rep, err := e.Check(ctx, m, r, a.cfg.DRC)
	if err != nil {
		return err
	}
	for _, v := range rep.Violations {
		fmt.Fprintf(a.out, "%s:%d: %s: %s [%s]\n", fs.Arg(0), v.Line, v.Severity, v.Message, v.Rule)
	}
	s := rep.Summary
	fmt.Fprintf(a.out, "%d violations: %d errors, %d warnings, %d info\n", s.Total, s.Errors, s.Warnings, s.Info)
	if s.Errors > 0 {
		return errors.Errorf("%d design rule errors", s.Errors)
	}
	return nil
}

func (a *app) equiv(fs *flag.FlagSet) error {
	m1, err := a.module(fs.Arg(0))
	if err != nil {
		return err
	}
	m2, err := a.module(fs.Arg(1))
	if err != nil {
		return err
	}
	r, err := equiv.Check(m1, m2)
	if err != nil {
		return err
	}
	if r.Equivalent {
		fmt.Fprintln(a.out, "equivalent")
		return nil
	}
	fmt.Fprintf(a.out, "not equivalent: %s differs for", r.Output)
	var ins []string
	for s := range r.Counterexample {
		ins = append(ins, s)
	}
	sort.Strings(ins)
	for _, s := range ins {
		v := 0
		if r.Counterexample[s] {
			v = 1
		}
		fmt.Fprintf(a.out, " %s=%d", s, v)
	}
	fmt.Fprintln(a.out)
	return errors.New("modules differ")
}
