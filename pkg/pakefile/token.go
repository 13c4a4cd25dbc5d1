// SPDX-License-Identifier: MPL-2.0

package pakefile

import "fmt"

// Kind classifies a token.
type Kind int

const (
	OpenParen Kind = iota
	CloseParen
	Literal
	Variable
	Colon
	Newline
	MultilineLiteral
)

var kindNames = [...]string{
	OpenParen:        "'('",
	CloseParen:       "')'",
	Literal:          "literal",
	Variable:         "variable",
	Colon:            "':'",
	Newline:          "newline",
	MultilineLiteral: "multiline literal",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Pos is a 1-based line and column in a build file.
type Pos struct {
	Line   int
	Column int
}

func (p Pos) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Token is one lexical unit with its raw content.
type Token struct {
	Kind Kind
	Text string
	Pos  Pos
}

func (t Token) String() string {
	switch t.Kind {
	case Literal, Variable, MultilineLiteral:
		return fmt.Sprintf("%s %q", t.Kind, t.Text)
	default:
		return t.Kind.String()
	}
}

// isValue reports whether the token can stand for a value in a statement or list.
func (t Token) isValue() bool {
	return t.Kind == Literal || t.Kind == Variable || t.Kind == MultilineLiteral
}
