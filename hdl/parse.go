// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hdl

import (
	"regexp"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	"github.com/go-logr/logr"
	"github.com/pkg/errors"
)

// An Option configures Parse.
//
type Option func(*options)

type options struct {
	log logr.Logger
}

// WithLogger sets the logger used to report warnings. The default is to
// discard them; warnings are collected in Module.Warnings either way.
//
func WithLogger(l logr.Logger) Option {
	return func(o *options) { o.log = l }
}

var (
	reComment = regexp.MustCompile(`//[^\n]*|/\*(?s:.*?)\*/`)
	reModule  = regexp.MustCompile(`\bmodule\b`)
	reEnd     = regexp.MustCompile(`\bendmodule\b`)
	reHeader  = regexp.MustCompile(`^module\s+([a-zA-Z_][a-zA-Z0-9_$]*)\s*\(`)
)

// Parse parses the single module declaration found in src and lowers it to
// primitive operations. Text before the module keyword and after endmodule is
// ignored.
//
// Errors are either a *SyntaxError or a *StructuralError.
//
func Parse(src string, opts ...Option) (*Module, error) {
	o := options{log: logr.Discard()}
	for _, opt := range opts {
		opt(&o)
	}
	text, err := preflight(src)
	if err != nil {
		return nil, err
	}
	f, err := parser.ParseString("", text)
	if err != nil {
		return nil, syntaxError(err)
	}
	m, err := lower(f.Module, o.log)
	if err != nil {
		return nil, err
	}
	o.log.V(1).Info("parsed module", "module", m.Name, "inputs", len(m.Inputs), "outputs", len(m.Outputs), "ops", len(m.Ops))
	return m, nil
}

// preflight checks the overall module shape and blanks out any text around
// it, preserving line and column numbers.
func preflight(src string) (string, error) {
	s := blankComments(src)
	loc := reModule.FindStringIndex(s)
	if loc == nil {
		return "", &SyntaxError{Construct: "module header", Msg: "no module declaration"}
	}
	ends := reEnd.FindAllStringIndex(s, -1)
	if len(ends) == 0 || ends[len(ends)-1][0] < loc[0] {
		return "", &SyntaxError{Pos: position(s, len(s)), Construct: "endmodule", Msg: "missing endmodule"}
	}
	end := ends[len(ends)-1][1]

	hdr := s[loc[0]:]
	m := reHeader.FindStringIndex(hdr)
	if m == nil {
		return "", &SyntaxError{Pos: position(s, loc[0]), Construct: "module header", Msg: "expected module name followed by a port list"}
	}
	open := loc[0] + m[1]
	closing := strings.IndexByte(s[open:], ')')
	if closing < 0 {
		return "", &SyntaxError{Pos: position(s, open), Construct: "port list", Msg: "unterminated port list"}
	}
	closing += open
	ports := s[open:closing]
	if strings.TrimSpace(ports) == "" {
		return "", &SyntaxError{Pos: position(s, open), Construct: "port list", Msg: "empty port list"}
	}
	if i := strings.IndexByte(ports, ';'); i >= 0 {
		return "", &SyntaxError{Pos: position(s, open+i), Construct: "port list", Msg: "unexpected ';' in port list"}
	}
	rest := strings.TrimLeft(s[closing+1:], " \t\r\n")
	if !strings.HasPrefix(rest, ";") {
		return "", &SyntaxError{Pos: position(s, closing+1), Construct: "module header", Msg: "expected ';' after port list"}
	}

	return blank(src[:loc[0]]) + src[loc[0]:end] + blank(src[end:]), nil
}

// blankComments replaces comments with spaces so that offsets in the result
// match those of s.
func blankComments(s string) string {
	return reComment.ReplaceAllStringFunc(s, blank)
}

// blank replaces every byte of s but newlines with a space.
func blank(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c != '\n' {
			b[i] = ' '
		}
	}
	return string(b)
}

func position(s string, offset int) lexer.Position {
	if offset > len(s) {
		offset = len(s)
	}
	line := 1 + strings.Count(s[:offset], "\n")
	col := offset - strings.LastIndexByte(s[:offset], '\n')
	return lexer.Position{Offset: offset, Line: line, Column: col}
}

func syntaxError(err error) error {
	var perr participle.Error
	if errors.As(err, &perr) {
		return &SyntaxError{Pos: perr.Position(), Construct: "module body", Msg: perr.Message()}
	}
	return &SyntaxError{Construct: "module body", Msg: err.Error()}
}
