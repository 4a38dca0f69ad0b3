// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hdl

import (
	"fmt"
	"strconv"

	"github.com/alecthomas/participle/v2/lexer"
	"github.com/go-logr/logr"
)

type direction uint8

const (
	dirWire direction = iota
	dirInput
	dirOutput
)

type signal struct {
	port     Port
	dir      direction
	implicit bool
}

type memoKey struct {
	node interface{}
	bit  int
}

// env maps assigned bit signals to their current value inside an always
// block. keys keeps assignment order.
type env struct {
	keys []string
	vals map[string]string
}

func newEnv() *env { return &env{vals: make(map[string]string)} }

func (e *env) get(k string) (string, bool) {
	v, ok := e.vals[k]
	return v, ok
}

func (e *env) set(k, v string) {
	if _, ok := e.vals[k]; !ok {
		e.keys = append(e.keys, k)
	}
	e.vals[k] = v
}

func (e *env) clone() *env {
	c := &env{keys: append([]string(nil), e.keys...), vals: make(map[string]string, len(e.vals))}
	for k, v := range e.vals {
		c.vals[k] = v
	}
	return c
}

// builder lowers a module AST to primitive operations.
type builder struct {
	log      logr.Logger
	m        *Module
	sigs     map[string]*signal
	header   []string // port list names
	order    []string // declaration order
	implicit []string
	drivers  map[string]*Operation
	temps    map[string]bool
	alias    map[string]string
	memo     map[memoKey]string
	nots     map[string]string
	counts   map[string]int
	env      *env // value lookup for combinational always blocks
	err      error
}

func lower(d *moduleDecl, log logr.Logger) (*Module, error) {
	b := &builder{
		log:     log,
		m:       &Module{Name: d.Name},
		sigs:    make(map[string]*signal),
		drivers: make(map[string]*Operation),
		temps:   make(map[string]bool),
		alias:   make(map[string]string),
		memo:    make(map[memoKey]string),
		nots:    make(map[string]string),
		counts:  make(map[string]int),
	}
	b.ports(d.Ports)
	for _, it := range d.Items {
		if it.Decl != nil {
			b.decl(it.Decl)
		}
	}
	for _, name := range b.header {
		if s := b.sigs[name]; s.dir == dirWire {
			b.warn(d.Pos, "port %s has no direction, treated as a wire", name)
		}
	}
	b.collect()
	for _, it := range d.Items {
		if b.err != nil {
			break
		}
		switch {
		case it.Assign != nil:
			b.assign(it.Assign)
		case it.Instance != nil:
			b.instance(it.Instance)
		case it.Always != nil:
			b.always(it.Always)
		}
	}
	if b.err != nil {
		return nil, b.err
	}
	b.finish()
	return b.m, nil
}

func (b *builder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

func (b *builder) warn(pos lexer.Position, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if pos.Line > 0 {
		msg = fmt.Sprintf("%d:%d: %s", pos.Line, pos.Column, msg)
	}
	b.m.Warnings = append(b.m.Warnings, msg)
	b.log.Info("warning", "module", b.m.Name, "msg", msg)
}

func dirOf(kw string) direction {
	switch kw {
	case "input", "inout":
		return dirInput
	case "output":
		return dirOutput
	}
	return dirWire
}

func makePort(name string, r *bitRange) Port {
	p := Port{Name: name}
	if r != nil {
		p.MSB, p.LSB, p.Ranged = r.MSB, r.LSB, true
	}
	return p
}

// ports declares the port list. Bare names following an ANSI declaration
// inherit its direction and range.
func (b *builder) ports(ps []*portItem) {
	dir := ""
	var rng *bitRange
	for _, p := range ps {
		switch {
		case p.Dir != "":
			dir, rng = p.Dir, p.Range
		case p.Range != nil:
			rng = p.Range
		}
		if _, ok := b.sigs[p.Name]; ok {
			b.fail(structural(p.Pos, p.Name, "duplicate port"))
			return
		}
		b.header = append(b.header, p.Name)
		b.order = append(b.order, p.Name)
		if dir == "" {
			b.sigs[p.Name] = &signal{port: Port{Name: p.Name}}
			continue
		}
		if dir == "inout" {
			b.warn(p.Pos, "inout port %s treated as an input", p.Name)
		}
		b.sigs[p.Name] = &signal{port: makePort(p.Name, rng), dir: dirOf(dir)}
	}
}

func (b *builder) decl(d *decl) {
	dir := dirOf(d.Kind)
	for _, name := range d.Names {
		s, ok := b.sigs[name]
		switch {
		case !ok:
			b.sigs[name] = &signal{port: makePort(name, d.Range), dir: dir}
			b.order = append(b.order, name)
		case dir == dirWire:
			// "output y; reg y;" or a repeated net declaration
			if d.Range != nil && !s.port.Ranged {
				s.port = makePort(name, d.Range)
			}
		case s.dir == dirWire:
			if d.Kind == "inout" {
				b.warn(d.Pos, "inout port %s treated as an input", name)
			}
			s.dir = dir
			if d.Range != nil {
				s.port = makePort(name, d.Range)
			}
		default:
			b.fail(structural(d.Pos, name, "declared twice"))
		}
	}
}

// collect fills the port lists of the module.
func (b *builder) collect() {
	for _, name := range b.order {
		s := b.sigs[name]
		switch s.dir {
		case dirInput:
			b.m.Inputs = append(b.m.Inputs, s.port)
		case dirOutput:
			b.m.Outputs = append(b.m.Outputs, s.port)
		default:
			b.m.Wires = append(b.m.Wires, s.port)
		}
	}
}

// lookup returns the signal named by r, declaring an implicit wire for
// undeclared names.
func (b *builder) lookup(r *ref) *signal {
	s, ok := b.sigs[r.Name]
	if !ok {
		s = &signal{port: Port{Name: r.Name}, implicit: true}
		if r.Index != nil {
			s.port.MSB, s.port.LSB, s.port.Ranged = *r.Index, *r.Index, true
		}
		b.sigs[r.Name] = s
		b.implicit = append(b.implicit, r.Name)
		b.warn(r.Pos, "undeclared signal %s treated as an implicit wire", r.Name)
		return s
	}
	if s.implicit && r.Index != nil && s.port.Ranged {
		if *r.Index > s.port.MSB {
			s.port.MSB = *r.Index
		}
		if *r.Index < s.port.LSB {
			s.port.LSB = *r.Index
		}
	}
	return s
}

// bits returns the bit signal names referenced by r, least significant first.
func (b *builder) bits(r *ref) []string {
	s := b.lookup(r)
	if r.Index == nil {
		return s.port.Bits()
	}
	i := *r.Index
	if !s.port.Ranged {
		if i != 0 {
			b.fail(structural(r.Pos, r.Name, "bit select [%d] on a scalar", i))
		}
		return []string{r.Name}
	}
	lo, hi := s.port.LSB, s.port.MSB
	if lo > hi {
		lo, hi = hi, lo
	}
	if i < lo || i > hi {
		b.fail(structural(r.Pos, r.Name, "bit %d out of range [%d:%d]", i, s.port.MSB, s.port.LSB))
	}
	return []string{BitName(r.Name, i)}
}

// widths

func (b *builder) widthExpr(e *expr) int {
	if e.Then == nil {
		return b.widthOr(e.Cond)
	}
	return max(b.widthExpr(e.Then), b.widthExpr(e.Else))
}

func (b *builder) widthOr(e *orExpr) int {
	w := b.widthXor(e.Left)
	for _, r := range e.Right {
		w = max(w, b.widthXor(r))
	}
	return w
}

func (b *builder) widthXor(e *xorExpr) int {
	w := b.widthAnd(e.Left)
	for _, t := range e.Rest {
		w = max(w, b.widthAnd(t.Right))
	}
	return w
}

func (b *builder) widthAnd(e *andExpr) int {
	w := b.widthEq(e.Left)
	for _, r := range e.Right {
		w = max(w, b.widthEq(r))
	}
	return w
}

func (b *builder) widthEq(e *eqExpr) int {
	if e.Op != "" {
		return 1
	}
	return b.widthUnary(e.Left)
}

func (b *builder) widthUnary(u *unary) int {
	if logical(u) {
		return 1
	}
	return b.widthPrimary(u.Primary)
}

func (b *builder) widthPrimary(p *primary) int {
	switch {
	case p.Paren != nil:
		return b.widthExpr(p.Paren)
	case p.Ref != nil:
		return len(b.bits(p.Ref))
	}
	_, w, err := ParseLiteral(p.Literal)
	if err != nil {
		return 1
	}
	return w
}

func logical(u *unary) bool {
	for _, op := range u.Ops {
		if op == "!" {
			return true
		}
	}
	return false
}

// operation construction

func (b *builder) instName(kind OpKind) string {
	k := "_" + kind.String()
	for {
		n := b.counts[k]
		b.counts[k] = n + 1
		name := k + strconv.Itoa(n)
		if kind == MUX2 || kind == MUX4 {
			name = k + "_" + strconv.Itoa(n)
		}
		if _, ok := b.sigs[name]; !ok {
			return name
		}
	}
}

func (b *builder) temp() string {
	for {
		n := b.counts["_e"]
		b.counts["_e"] = n + 1
		name := "_e" + strconv.Itoa(n)
		if _, ok := b.sigs[name]; !ok {
			b.temps[name] = true
			return name
		}
	}
}

// drive adds op to the module, checking that its output can be driven.
func (b *builder) drive(op *Operation) {
	out := op.Output
	switch {
	case IsLiteral(out):
		b.fail(structural(op.Pos, out, "cannot drive a literal"))
	case b.m.IsInput(out):
		b.fail(structural(op.Pos, out, "input port driven by %s", op.Name))
	case b.drivers[out] != nil:
		b.fail(structural(op.Pos, out, "multiple drivers (%s and %s)", b.drivers[out].Name, op.Name))
	default:
		b.drivers[out] = op
		b.m.Ops = append(b.m.Ops, op)
	}
}

// op adds an operation driving a new synthetic signal and returns that signal.
func (b *builder) op(kind OpKind, pos lexer.Position, inputs []string, sel string) string {
	op := &Operation{
		Kind:   kind,
		Name:   b.instName(kind),
		Output: b.temp(),
		Inputs: inputs,
		Select: sel,
		Pos:    pos,
	}
	b.drive(op)
	return op.Output
}

func (b *builder) resolve(s string) string {
	for {
		a, ok := b.alias[s]
		if !ok {
			return s
		}
		s = a
	}
}

func (b *builder) used(s string) bool {
	for _, op := range b.m.Ops {
		for _, in := range op.Inputs {
			if in == s {
				return true
			}
		}
	}
	return false
}

// bind makes signal t carry value v, renaming the operation driving v when
// nothing else reads it, or inserting a buffer otherwise.
func (b *builder) bind(t, v string, pos lexer.Position) {
	v = b.resolve(v)
	if t == v {
		return
	}
	if op := b.drivers[v]; op != nil && b.temps[v] && !b.used(v) {
		if b.m.IsInput(t) {
			b.fail(structural(pos, t, "input port driven by %s", op.Name))
			return
		}
		if prev := b.drivers[t]; prev != nil {
			b.fail(structural(pos, t, "multiple drivers (%s and %s)", prev.Name, op.Name))
			return
		}
		delete(b.drivers, v)
		delete(b.temps, v)
		op.Output = t
		op.Pos = pos
		b.drivers[t] = op
		b.alias[v] = t
		return
	}
	b.drive(&Operation{Kind: BUF, Name: b.instName(BUF), Output: t, Inputs: []string{v}, Pos: pos})
}

func (b *builder) not(s string, pos lexer.Position) string {
	if IsLiteral(s) {
		v, _ := LiteralBit(s, 0)
		return bitLiteral(!v)
	}
	if n, ok := b.nots[s]; ok {
		return n
	}
	n := b.op(NOT, pos, []string{s}, "")
	b.nots[s] = n
	return n
}

// reduce ORs the first w bits produced by f into a single bit.
func (b *builder) reduce(key interface{}, pos lexer.Position, w int, f func(bit int) string) string {
	k := memoKey{key, -1}
	if v, ok := b.memo[k]; ok {
		return v
	}
	var v string
	if w <= 1 {
		v = f(0)
	} else {
		var in []string
		for i := 0; i < w; i++ {
			s := f(i)
			if IsLiteral(s) {
				if on, _ := LiteralBit(s, 0); !on {
					continue
				}
				in = []string{"1'b1"}
				break
			}
			in = append(in, s)
		}
		switch len(in) {
		case 0:
			v = "1'b0"
		case 1:
			v = in[0]
		default:
			v = b.op(OR, pos, in, "")
		}
	}
	b.memo[k] = v
	return v
}

func (b *builder) boolExpr(e *expr) string {
	return b.reduce(e, e.Pos, b.widthExpr(e), func(i int) string { return b.expr(e, i) })
}

// expression lowering, one bit at a time

func (b *builder) expr(e *expr, bit int) string {
	if e.Then == nil {
		return b.or(e.Cond, bit)
	}
	sel := b.reduce(e.Cond, e.Pos, b.widthOr(e.Cond), func(i int) string { return b.or(e.Cond, i) })
	t := b.expr(e.Then, bit)
	f := b.expr(e.Else, bit)
	if IsLiteral(sel) {
		if on, _ := LiteralBit(sel, 0); on {
			return t
		}
		return f
	}
	if t == f {
		return t
	}
	return b.op(MUX2, e.Pos, []string{f, t, sel}, e.Cond.String())
}

// gate builds an AND, OR or XOR of in, folding literal operands.
func (b *builder) gate(kind OpKind, pos lexer.Position, in []string) string {
	var rest []string
	invert := false
	for _, s := range in {
		if !IsLiteral(s) {
			rest = append(rest, s)
			continue
		}
		v, _ := LiteralBit(s, 0)
		switch {
		case kind == AND && !v:
			return "1'b0"
		case kind == OR && v:
			return "1'b1"
		case kind == XOR && v:
			invert = !invert
		}
	}
	var out string
	switch len(rest) {
	case 0:
		out = bitLiteral(kind == AND)
	case 1:
		out = rest[0]
	default:
		out = b.op(kind, pos, rest, "")
	}
	if invert {
		out = b.not(out, pos)
	}
	return out
}

func (b *builder) or(e *orExpr, bit int) string {
	in := []string{b.xor(e.Left, bit)}
	for _, r := range e.Right {
		in = append(in, b.xor(r, bit))
	}
	return b.gate(OR, e.Pos, in)
}

func (b *builder) xor(e *xorExpr, bit int) string {
	in := []string{b.and(e.Left, bit)}
	for _, t := range e.Rest {
		r := b.and(t.Right, bit)
		if t.Op == "^" {
			in = append(in, r)
			continue
		}
		// xnor does not chain like xor: a ~^ b ~^ c == a ^ b ^ c
		acc := b.gate(XOR, e.Pos, in)
		switch {
		case IsLiteral(r):
			in = []string{acc, b.not(r, e.Pos)}
		case IsLiteral(acc):
			in = []string{b.not(acc, e.Pos), r}
		default:
			in = []string{b.op(XNOR, e.Pos, []string{acc, r}, "")}
		}
	}
	return b.gate(XOR, e.Pos, in)
}

func (b *builder) and(e *andExpr, bit int) string {
	in := []string{b.eq(e.Left, bit)}
	for _, r := range e.Right {
		in = append(in, b.eq(r, bit))
	}
	return b.gate(AND, e.Pos, in)
}

func (b *builder) eq(e *eqExpr, bit int) string {
	if e.Op == "" {
		return b.unary(e.Left, bit)
	}
	if bit > 0 {
		return "1'b0"
	}
	k := memoKey{e, 0}
	if v, ok := b.memo[k]; ok {
		return v
	}
	w := max(b.widthUnary(e.Left), b.widthUnary(e.Right))
	var terms []string
	equal := true
	for i := 0; i < w && equal; i++ {
		l, r := b.unary(e.Left, i), b.unary(e.Right, i)
		ll, rl := IsLiteral(l), IsLiteral(r)
		switch {
		case ll && rl:
			lv, _ := LiteralBit(l, 0)
			rv, _ := LiteralBit(r, 0)
			equal = lv == rv
		case ll:
			lv, _ := LiteralBit(l, 0)
			if !lv {
				r = b.not(r, e.Pos)
			}
			terms = append(terms, r)
		case rl:
			rv, _ := LiteralBit(r, 0)
			if !rv {
				l = b.not(l, e.Pos)
			}
			terms = append(terms, l)
		default:
			terms = append(terms, b.op(XNOR, e.Pos, []string{l, r}, ""))
		}
	}
	var v string
	switch {
	case !equal:
		v = "1'b0"
	case len(terms) == 0:
		v = "1'b1"
	default:
		v = b.gate(AND, e.Pos, terms)
	}
	if e.Op == "!=" {
		v = b.not(v, e.Pos)
	}
	b.memo[k] = v
	return v
}

func (b *builder) unary(u *unary, bit int) string {
	if logical(u) && b.widthPrimary(u.Primary) > 1 {
		if bit > 0 {
			return "1'b0"
		}
		v := b.reduce(u.Primary, u.Pos, b.widthPrimary(u.Primary), func(i int) string { return b.primary(u.Primary, i) })
		if len(u.Ops)%2 == 1 {
			v = b.not(v, u.Pos)
		}
		return v
	}
	v := b.primary(u.Primary, bit)
	if len(u.Ops)%2 == 1 {
		v = b.not(v, u.Pos)
	}
	return v
}

func (b *builder) primary(p *primary, bit int) string {
	switch {
	case p.Paren != nil:
		return b.expr(p.Paren, bit)
	case p.Ref != nil:
		bits := b.bits(p.Ref)
		if bit >= len(bits) {
			return "1'b0"
		}
		s := bits[bit]
		if b.env != nil {
			if v, ok := b.env.get(s); ok {
				return v
			}
		}
		return s
	}
	_, w, err := ParseLiteral(p.Literal)
	if err != nil {
		b.fail(&SyntaxError{Construct: "literal", Msg: err.Error()})
		return "1'b0"
	}
	if w == 1 && bit == 0 {
		return p.Literal
	}
	v, _ := LiteralBit(p.Literal, bit)
	return bitLiteral(v)
}

// statements

func (b *builder) assign(a *assign) {
	for i, t := range b.bits(a.Target) {
		b.bind(t, b.expr(a.Expr, i), a.Pos)
	}
}

func (b *builder) instance(in *instance) {
	kind, _ := ParseOpKind(in.Type)
	name := in.Name
	if name == "" {
		name = b.instName(kind)
	}
	if len(in.Args) == 0 {
		b.fail(structural(in.Pos, name, "%s instance without connections", kind))
		return
	}
	out := in.Args[0].plainRef()
	if out == nil {
		b.fail(structural(in.Pos, name, "output %s is not a signal", in.Args[0]))
		return
	}
	args := in.Args[1:]
	switch n := kind.Arity(); {
	case n < 0 && len(args) < 2:
		b.fail(structural(in.Pos, name, "%s needs at least 2 inputs, got %d", kind, len(args)))
		return
	case n > 0 && len(args) != n:
		b.fail(structural(in.Pos, name, "%s takes %d inputs, got %d", kind, n, len(args)))
		return
	}
	targets := b.bits(out)
	for i, t := range targets {
		inputs := make([]string, len(args))
		for j, a := range args {
			bit := i
			if kind.scalar(j) {
				bit = 0
			}
			inputs[j] = b.expr(a, bit)
		}
		n := name
		if len(targets) > 1 {
			n = name + "_" + strconv.Itoa(i)
		}
		b.drive(&Operation{Kind: kind, Name: n, Output: t, Inputs: inputs, Pos: in.Pos})
	}
}

func (b *builder) always(a *always) {
	var edges []*sensItem
	if a.Sens != nil {
		for _, it := range a.Sens.Items {
			if it.Edge != "" {
				edges = append(edges, it)
			}
		}
	}
	e := newEnv()
	if len(edges) == 0 {
		b.env = e
	}
	b.stmt(a.Body, e)
	b.env = nil
	if b.err != nil {
		return
	}
	if len(edges) == 0 {
		for _, k := range e.keys {
			b.bind(k, e.vals[k], a.Pos)
		}
		return
	}
	clk := b.clock(a, edges)
	if clk == "" {
		return
	}
	for _, k := range e.keys {
		b.drive(&Operation{Kind: DFF, Name: b.instName(DFF), Output: k, Inputs: []string{b.resolve(e.vals[k]), clk}, Pos: a.Pos})
	}
}

// clock picks the clock of an edge triggered block: the first edge signal
// the body does not read. Other edge signals are asynchronous controls
// handled as ordinary data.
func (b *builder) clock(a *always, edges []*sensItem) string {
	read := make(map[string]bool)
	a.Body.walk(func(r *ref) { read[r.Name] = true })
	pick := edges[len(edges)-1]
	for _, it := range edges {
		if !read[it.Signal] {
			pick = it
			break
		}
	}
	if len(edges) > 1 {
		b.warn(a.Pos, "asynchronous controls of %s are sampled on the clock edge", pick.Signal)
	}
	r := &ref{Pos: a.Pos, Name: pick.Signal}
	clk := b.bits(r)[0]
	if pick.Edge == "negedge" {
		clk = b.not(clk, a.Pos)
	}
	return clk
}

// hold returns the value of k before a branch: the current value in e or k
// itself, which makes an incomplete assignment hold its state.
func hold(e *env, k string) string {
	if v, ok := e.get(k); ok {
		return v
	}
	return k
}

func (b *builder) stmt(s *stmt, e *env) {
	if b.err != nil {
		return
	}
	switch {
	case s.Block != nil:
		for _, x := range s.Block.Stmts {
			b.stmt(x, e)
		}
	case s.Assign != nil:
		for i, t := range b.bits(s.Assign.Target) {
			e.set(t, b.expr(s.Assign.Expr, i))
		}
	case s.If != nil:
		b.ifStmt(s, e)
	case s.Case != nil:
		b.caseStmt(s, e)
	}
}

// branch runs s on a copy of e.
func (b *builder) branch(s *stmt, e *env) *env {
	c := e.clone()
	if s != nil {
		saved := b.env
		if saved != nil {
			b.env = c
		}
		b.stmt(s, c)
		b.env = saved
	}
	return c
}

func (b *builder) ifStmt(s *stmt, e *env) {
	cond := b.boolExpr(s.If.Cond)
	te := b.branch(s.If.Then, e)
	ee := b.branch(s.If.Else, e)
	if b.err != nil {
		return
	}
	for _, k := range union(te, ee) {
		t, f := hold(te, k), hold(ee, k)
		if IsLiteral(cond) {
			if on, _ := LiteralBit(cond, 0); on {
				e.set(k, t)
			} else {
				e.set(k, f)
			}
			continue
		}
		if t == f {
			e.set(k, t)
			continue
		}
		e.set(k, b.op(MUX2, s.Pos, []string{f, t, cond}, s.If.Cond.String()))
	}
}

func union(envs ...*env) []string {
	seen := make(map[string]bool)
	var keys []string
	for _, e := range envs {
		if e == nil {
			continue
		}
		for _, k := range e.keys {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	return keys
}

func (b *builder) caseStmt(s *stmt, e *env) {
	c := s.Case
	w := b.widthExpr(c.Sel)
	if w > 2 {
		b.fail(structural(s.Pos, c.Sel.String(), "case selector is %d bits wide, at most 2 supported", w))
		return
	}
	n := 1 << uint(w)
	sels := make([]string, w)
	for i := range sels {
		sels[i] = b.expr(c.Sel, i)
	}
	slots := make([]*env, n)
	labels := make([]string, n)
	var def *env
	var arms []*env
	for _, arm := range c.Arms {
		ae := b.branch(arm.Body, e)
		arms = append(arms, ae)
		if len(arm.Labels) == 0 {
			if def == nil {
				def = ae
			}
			continue
		}
		for _, l := range arm.Labels {
			lit, ok := l.literal()
			if !ok {
				b.fail(structural(arm.Pos, l.String(), "case label is not a constant"))
				return
			}
			v, _, err := ParseLiteral(lit)
			if err != nil {
				b.fail(&SyntaxError{Pos: arm.Pos, Construct: "case label", Msg: err.Error()})
				return
			}
			if v >= uint64(n) {
				b.warn(arm.Pos, "case label %s out of range for a %d bit selector, ignored", lit, w)
				continue
			}
			if slots[v] == nil {
				slots[v], labels[v] = ae, lit
			}
		}
	}
	if b.err != nil {
		return
	}
	for _, k := range union(arms...) {
		vals := make([]string, n)
		cases := make([]CaseArm, n)
		for i := range vals {
			switch {
			case slots[i] != nil:
				vals[i] = hold(slots[i], k)
				cases[i] = CaseArm{Value: labels[i], Result: vals[i]}
			case def != nil:
				vals[i] = hold(def, k)
				cases[i] = CaseArm{Value: "default", Result: vals[i]}
			default:
				vals[i] = "1'b0"
				cases[i] = CaseArm{Value: "", Result: vals[i]}
			}
		}
		if same(vals) {
			e.set(k, vals[0])
			continue
		}
		kind := MUX2
		if n == 4 {
			kind = MUX4
		}
		out := b.op(kind, s.Pos, append(vals, sels...), c.Sel.String())
		if op := b.drivers[out]; op != nil {
			op.Cases = cases
		}
		e.set(k, out)
	}
}

func same(s []string) bool {
	for _, v := range s[1:] {
		if v != s[0] {
			return false
		}
	}
	return true
}

// finish resolves renamed signals and declares synthetic wires.
func (b *builder) finish() {
	declared := make(map[string]bool)
	for _, p := range b.m.Wires {
		declared[p.Name] = true
	}
	for _, op := range b.m.Ops {
		for i, in := range op.Inputs {
			op.Inputs[i] = b.resolve(in)
		}
		for j := range op.Cases {
			op.Cases[j].Result = b.resolve(op.Cases[j].Result)
		}
	}
	for _, op := range b.m.Ops {
		for _, s := range append([]string{op.Output}, op.Inputs...) {
			if b.temps[s] && !declared[s] {
				declared[s] = true
				b.m.Wires = append(b.m.Wires, Port{Name: s})
			}
		}
	}
	for _, name := range b.implicit {
		if !declared[name] {
			declared[name] = true
			b.m.Wires = append(b.m.Wires, b.sigs[name].port)
		}
	}
	for _, p := range b.m.Outputs {
		for _, s := range p.Bits() {
			if b.drivers[s] == nil {
				b.warn(lexer.Position{}, "output %s is never driven", s)
			}
		}
	}
	b.log.V(1).Info("lowered module", "module", b.m.Name, "ops", len(b.m.Ops), "warnings", len(b.m.Warnings))
}
