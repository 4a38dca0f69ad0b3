// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package drc runs design rule checks on a parsed module and the result of
// its synthesis.
//
// Rules are written in Rego and evaluated with OPA against an input document
// describing ports, operations, signal fanout, feedback edges and generated
// inputs.
//
package drc

import (
	"context"
	_ "embed"
	"encoding/json"
	"sort"

	"github.com/circuitlab/hwsim/hdl"
	"github.com/circuitlab/hwsim/synth"
	"github.com/open-policy-agent/opa/rego"
	"github.com/pkg/errors"
)

//go:embed rules.rego
var rules string

// DefaultMaxFanout is the fanout limit used when Config.MaxFanout is zero.
//
const DefaultMaxFanout = 8

// Config holds rule thresholds.
//
type Config struct {
	MaxFanout int `json:"maxFanout"`
}

// Severity levels.
//
const (
	Error   = "error"
	Warning = "warning"
	Info    = "info"
)

// A Violation is a broken rule.
//
type Violation struct {
	Rule     string `json:"rule"`
	Severity string `json:"severity"`
	Signal   string `json:"signal"`
	Line     int    `json:"line"`
	Message  string `json:"message"`
}

// Summary counts violations by severity.
//
type Summary struct {
	Total    int `json:"total"`
	Errors   int `json:"errors"`
	Warnings int `json:"warnings"`
	Info     int `json:"info"`
}

// A Report is the outcome of a check.
//
type Report struct {
	Violations []Violation
	Summary    Summary
}

// Engine holds the prepared rule queries. It is safe for concurrent use.
//
type Engine struct {
	violations rego.PreparedEvalQuery
	summary    rego.PreparedEvalQuery
}

// New compiles the embedded rules.
//
func New(ctx context.Context) (*Engine, error) {
	mod := rego.Module("rules.rego", rules)
	v, err := rego.New(mod, rego.Query("data.hwsim.drc.violations")).PrepareForEval(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "preparing violations query")
	}
	s, err := rego.New(mod, rego.Query("data.hwsim.drc.summary")).PrepareForEval(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "preparing summary query")
	}
	return &Engine{violations: v, summary: s}, nil
}

type inputOp struct {
	Kind   string   `json:"kind"`
	Name   string   `json:"name"`
	Output string   `json:"output"`
	Inputs []string `json:"inputs"`
	Line   int      `json:"line"`
}

type inputEdge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type inputDoc struct {
	Module   string         `json:"module"`
	Inputs   []string       `json:"inputs"`
	Outputs  []string       `json:"outputs"`
	Ops      []inputOp      `json:"ops"`
	Fanout   map[string]int `json:"fanout"`
	Feedback []inputEdge    `json:"feedback"`
	Auto     []string       `json:"auto"`
	Config   Config         `json:"config"`
}

// document builds the rule input. res may be nil, in which case feedback and
// generated inputs are not checked.
func document(m *hdl.Module, res *synth.Result, cfg Config) inputDoc {
	if cfg.MaxFanout <= 0 {
		cfg.MaxFanout = DefaultMaxFanout
	}
	doc := inputDoc{
		Module:   m.Name,
		Inputs:   nonNil(m.InputBits()),
		Outputs:  nonNil(m.OutputBits()),
		Ops:      []inputOp{},
		Fanout:   make(map[string]int),
		Feedback: []inputEdge{},
		Auto:     []string{},
		Config:   cfg,
	}
	for _, op := range m.Ops {
		doc.Ops = append(doc.Ops, inputOp{
			Kind:   op.Kind.String(),
			Name:   op.Name,
			Output: op.Output,
			Inputs: nonNil(op.Inputs),
			Line:   op.Pos.Line,
		})
		for _, in := range op.Inputs {
			if !hdl.IsLiteral(in) {
				doc.Fanout[in]++
			}
		}
	}
	if res != nil {
		for _, e := range res.Feedback {
			doc.Feedback = append(doc.Feedback, inputEdge{From: e.From, To: e.To})
		}
		doc.Auto = append(doc.Auto, res.Auto...)
	}
	return doc
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// structToMap converts v to the generic form expected by the evaluator.
func structToMap(v interface{}) (map[string]interface{}, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var r map[string]interface{}
	err = json.Unmarshal(data, &r)
	return r, err
}

// Check evaluates the rules on m and, if not nil, its synthesis result.
// Violations are sorted by line, rule and signal.
//
func (e *Engine) Check(ctx context.Context, m *hdl.Module, res *synth.Result, cfg Config) (*Report, error) {
	in, err := structToMap(document(m, res, cfg))
	if err != nil {
		return nil, errors.Wrap(err, "building rule input")
	}
	r := &Report{}

	rs, err := e.violations.Eval(ctx, rego.EvalInput(in))
	if err != nil {
		return nil, errors.Wrap(err, "evaluating violations")
	}
	if len(rs) > 0 && len(rs[0].Expressions) > 0 {
		vs, _ := rs[0].Expressions[0].Value.([]interface{})
		for _, v := range vs {
			vm, ok := v.(map[string]interface{})
			if !ok {
				continue
			}
			r.Violations = append(r.Violations, Violation{
				Rule:     getString(vm, "rule"),
				Severity: getString(vm, "severity"),
				Signal:   getString(vm, "signal"),
				Line:     getInt(vm, "line"),
				Message:  getString(vm, "message"),
			})
		}
	}
	sort.Slice(r.Violations, func(i, j int) bool {
		a, b := &r.Violations[i], &r.Violations[j]
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		if a.Rule != b.Rule {
			return a.Rule < b.Rule
		}
		return a.Signal < b.Signal
	})

	rs, err = e.summary.Eval(ctx, rego.EvalInput(in))
	if err != nil {
		return nil, errors.Wrap(err, "evaluating summary")
	}
	if len(rs) > 0 && len(rs[0].Expressions) > 0 {
		if sm, ok := rs[0].Expressions[0].Value.(map[string]interface{}); ok {
			r.Summary = Summary{
				Total:    getInt(sm, "total"),
				Errors:   getInt(sm, "errors"),
				Warnings: getInt(sm, "warnings"),
				Info:     getInt(sm, "info"),
			}
		}
	}
	return r, nil
}

// Has returns the violations of the given rule.
//
func (r *Report) Has(rule string) []Violation {
	var vs []Violation
	for _, v := range r.Violations {
		if v.Rule == rule {
			vs = append(vs, v)
		}
	}
	return vs
}

func getString(m map[string]interface{}, key string) string {
	if s, ok := m[key].(string); ok {
		return s
	}
	return ""
}

func getInt(m map[string]interface{}, key string) int {
	switch n := m[key].(type) {
	case int:
		return n
	case float64:
		return int(n)
	case json.Number:
		i, _ := n.Int64()
		return int(i)
	}
	return 0
}
