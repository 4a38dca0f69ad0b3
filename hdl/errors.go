// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hdl

import (
	"fmt"

	"github.com/alecthomas/participle/v2/lexer"
)

// A SyntaxError reports malformed source text. Construct names the offending
// construct ("module header", "port list", "endmodule", ...).
type SyntaxError struct {
	Pos       lexer.Position
	Construct string
	Msg       string
}

func (e *SyntaxError) Error() string {
	if e.Pos.Line > 0 {
		return fmt.Sprintf("%d:%d: syntax error in %s: %s", e.Pos.Line, e.Pos.Column, e.Construct, e.Msg)
	}
	return fmt.Sprintf("syntax error in %s: %s", e.Construct, e.Msg)
}

// A StructuralError reports a well-formed description that cannot be turned
// into a netlist: a signal with several drivers, a primitive with the wrong
// number of inputs, an unresolvable multiplexer control, ...
type StructuralError struct {
	Pos    lexer.Position
	Signal string
	Msg    string
}

func (e *StructuralError) Error() string {
	if e.Pos.Line > 0 {
		return fmt.Sprintf("%d:%d: %s: %s", e.Pos.Line, e.Pos.Column, e.Signal, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Signal, e.Msg)
}

func structural(pos lexer.Position, signal, format string, args ...interface{}) error {
	return &StructuralError{Pos: pos, Signal: signal, Msg: fmt.Sprintf(format, args...)}
}
