// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hdl

import (
	"strconv"
	"strings"
)

// String methods rebuild the source text of expressions. They are used to
// record the select expression of multiplexers.

func (e *expr) String() string {
	if e.Then == nil {
		return e.Cond.String()
	}
	return e.Cond.String() + " ? " + e.Then.String() + " : " + e.Else.String()
}

func (e *orExpr) String() string {
	s := []string{e.Left.String()}
	for _, r := range e.Right {
		s = append(s, r.String())
	}
	return strings.Join(s, " | ")
}

func (e *xorExpr) String() string {
	var b strings.Builder
	b.WriteString(e.Left.String())
	for _, t := range e.Rest {
		b.WriteString(" " + t.Op + " ")
		b.WriteString(t.Right.String())
	}
	return b.String()
}

func (e *andExpr) String() string {
	s := []string{e.Left.String()}
	for _, r := range e.Right {
		s = append(s, r.String())
	}
	return strings.Join(s, " & ")
}

func (e *eqExpr) String() string {
	if e.Op == "" {
		return e.Left.String()
	}
	return e.Left.String() + " " + e.Op + " " + e.Right.String()
}

func (e *unary) String() string {
	return strings.Join(e.Ops, "") + e.Primary.String()
}

func (e *primary) String() string {
	switch {
	case e.Paren != nil:
		return "(" + e.Paren.String() + ")"
	case e.Ref != nil:
		return e.Ref.String()
	}
	return e.Literal
}

func (r *ref) String() string {
	if r.Index != nil {
		return r.Name + "[" + strconv.Itoa(*r.Index) + "]"
	}
	return r.Name
}

// literal returns the literal text of e if e is a plain number literal.
func (e *expr) literal() (string, bool) {
	if e.Then != nil || len(e.Cond.Right) > 0 {
		return "", false
	}
	x := e.Cond.Left
	if len(x.Rest) > 0 || len(x.Left.Right) > 0 {
		return "", false
	}
	q := x.Left.Left
	if q.Op != "" || len(q.Left.Ops) > 0 {
		return "", false
	}
	p := q.Left.Primary
	switch {
	case p.Literal != "":
		return p.Literal, true
	case p.Paren != nil:
		return p.Paren.literal()
	}
	return "", false
}

// plainRef returns the reference e is made of, or nil if e is anything else.
func (e *expr) plainRef() *ref {
	if e.Then != nil || len(e.Cond.Right) > 0 {
		return nil
	}
	x := e.Cond.Left
	if len(x.Rest) > 0 || len(x.Left.Right) > 0 {
		return nil
	}
	q := x.Left.Left
	if q.Op != "" || len(q.Left.Ops) > 0 {
		return nil
	}
	return q.Left.Primary.Ref
}

// walk calls f for every reference in e.
func (e *expr) walk(f func(*ref)) {
	e.Cond.walk(f)
	if e.Then != nil {
		e.Then.walk(f)
		e.Else.walk(f)
	}
}

func (e *orExpr) walk(f func(*ref)) {
	e.Left.walk(f)
	for _, r := range e.Right {
		r.walk(f)
	}
}

func (e *xorExpr) walk(f func(*ref)) {
	e.Left.walk(f)
	for _, t := range e.Rest {
		t.Right.walk(f)
	}
}

func (e *andExpr) walk(f func(*ref)) {
	e.Left.walk(f)
	for _, r := range e.Right {
		r.walk(f)
	}
}

func (e *eqExpr) walk(f func(*ref)) {
	e.Left.Primary.walk(f)
	if e.Right != nil {
		e.Right.Primary.walk(f)
	}
}

func (p *primary) walk(f func(*ref)) {
	switch {
	case p.Paren != nil:
		p.Paren.walk(f)
	case p.Ref != nil:
		f(p.Ref)
	}
}

// walk calls f for every reference read by s.
func (s *stmt) walk(f func(*ref)) {
	switch {
	case s.Block != nil:
		for _, x := range s.Block.Stmts {
			x.walk(f)
		}
	case s.If != nil:
		s.If.Cond.walk(f)
		s.If.Then.walk(f)
		if s.If.Else != nil {
			s.If.Else.walk(f)
		}
	case s.Case != nil:
		s.Case.Sel.walk(f)
		for _, a := range s.Case.Arms {
			for _, l := range a.Labels {
				l.walk(f)
			}
			a.Body.walk(f)
		}
	case s.Assign != nil:
		s.Assign.Expr.walk(f)
	}
}
