// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hdl

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// source file: a single module
type file struct {
	Module *moduleDecl `@@`
}

type moduleDecl struct {
	Pos   lexer.Position
	Name  string      `"module" @Ident`
	Ports []*portItem `"(" ( @@ ( "," @@ )* )? ")" ";"`
	Items []*item     `@@*`
	End   bool        `@"endmodule"`
}

// port list entry, either a bare name or an ANSI declaration
type portItem struct {
	Pos   lexer.Position
	Dir   string    `@( "input" | "output" | "inout" )?`
	Net   string    `@( "wire" | "reg" )?`
	Range *bitRange `@@?`
	Name  string    `@Ident`
}

type bitRange struct {
	MSB int `"[" @Int`
	LSB int `":" @Int "]"`
}

type item struct {
	Decl     *decl     `  @@`
	Assign   *assign   `| @@`
	Always   *always   `| @@`
	Instance *instance `| @@`
}

type decl struct {
	Pos   lexer.Position
	Kind  string    `@( "input" | "output" | "inout" | "wire" | "reg" )`
	Net   string    `@( "wire" | "reg" )?`
	Range *bitRange `@@?`
	Names []string  `@Ident ( "," @Ident )* ";"`
}

type assign struct {
	Pos    lexer.Position
	Target *ref  `"assign" @@ "="`
	Expr   *expr `@@ ";"`
}

type instance struct {
	Pos  lexer.Position
	Type string  `@( "and" | "or" | "not" | "nand" | "nor" | "xor" | "xnor" | "buf" | "mux2" | "mux4" | "dff" )`
	Name string  `@Ident?`
	Args []*expr `"(" @@ ( "," @@ )* ")" ";"`
}

type always struct {
	Pos  lexer.Position
	Sens *sensitivity `"always" "@" @@`
	Body *stmt        `@@`
}

type sensitivity struct {
	Star  bool        `(  @"*"`
	Paren bool        ` | "(" ( @"*"`
	Items []*sensItem `      | @@ ( ( "or" | "," ) @@ )* ) ")" )`
}

type sensItem struct {
	Edge   string `@( "posedge" | "negedge" )?`
	Signal string `@Ident`
}

type stmt struct {
	Pos    lexer.Position
	Block  *block      `  @@`
	If     *ifStmt     `| @@`
	Case   *caseStmt   `| @@`
	Assign *procAssign `| @@`
}

type block struct {
	Stmts []*stmt `"begin" @@* "end"`
}

type ifStmt struct {
	Cond *expr `"if" "(" @@ ")"`
	Then *stmt `@@`
	Else *stmt `( "else" @@ )?`
}

type caseStmt struct {
	Kind string     `@( "case" | "casez" | "casex" )`
	Sel  *expr      `"(" @@ ")"`
	Arms []*caseArm `@@* "endcase"`
}

// a case arm with no labels is the default arm
type caseArm struct {
	Pos    lexer.Position
	Labels []*expr `( "default" ":"? | @@ ( "," @@ )* ":" )`
	Body   *stmt   `@@`
}

type procAssign struct {
	Pos    lexer.Position
	Target *ref  `@@`
	Op     string `@( "=" | "<=" )`
	Expr   *expr `@@ ";"`
}

// expressions, lowest precedence first
type expr struct {
	Pos  lexer.Position
	Cond *orExpr `@@`
	Then *expr   `( "?" @@`
	Else *expr   `  ":" @@ )?`
}

type orExpr struct {
	Pos   lexer.Position
	Left  *xorExpr   `@@`
	Right []*xorExpr `( ( "|" | "||" ) @@ )*`
}

type xorExpr struct {
	Pos  lexer.Position
	Left *andExpr   `@@`
	Rest []*xorTail `@@*`
}

type xorTail struct {
	Op    string   `@( "^" | "~^" | "^~" )`
	Right *andExpr `@@`
}

type andExpr struct {
	Pos   lexer.Position
	Left  *eqExpr   `@@`
	Right []*eqExpr `( ( "&" | "&&" ) @@ )*`
}

type eqExpr struct {
	Pos   lexer.Position
	Left  *unary `@@`
	Op    string `( @( "==" | "!=" )`
	Right *unary `  @@ )?`
}

type unary struct {
	Pos     lexer.Position
	Ops     []string `@( "~" | "!" )*`
	Primary *primary `@@`
}

type primary struct {
	Paren   *expr  `  "(" @@ ")"`
	Literal string `| @( Sized | Int )`
	Ref     *ref   `| @@`
}

type ref struct {
	Pos   lexer.Position
	Name  string `@Ident`
	Index *int   `( "[" @Int "]" )?`
}

var verilogLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `//[^\n]*|/\*(?s:.*?)\*/`},
	{Name: "Whitespace", Pattern: `[ \t\r\n]+`},
	{Name: "Sized", Pattern: `\d*'[sS]?[bBoOdDhH][0-9a-fA-F_xXzZ?]+`},
	{Name: "Int", Pattern: `\d+`},
	{Name: "Keyword", Pattern: `(?:module|endmodule|input|output|inout|wire|reg|assign|always|begin|end|if|else|casez|casex|case|endcase|default|posedge|negedge|and|or|not|nand|nor|xor|xnor|buf|mux2|mux4|dff)\b`},
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_$]*`},
	{Name: "Op", Pattern: `<=|==|!=|~\^|\^~|&&|\|\||[()\[\]:;,=?~&|^@*!]`},
})

var parser = participle.MustBuild[file](
	participle.Lexer(verilogLexer),
	participle.Elide("Whitespace", "Comment"),
	participle.UseLookahead(4),
)
