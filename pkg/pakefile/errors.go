// SPDX-License-Identifier: MPL-2.0

package pakefile

import (
	"errors"
	"fmt"
)

var (
	// ErrLex is the sentinel wrapped by LexError.
	ErrLex = errors.New("lexical error")
	// ErrParse is the sentinel wrapped by ParseError.
	ErrParse = errors.New("parse error")
)

type (
	// LexError reports text the lexer cannot turn into tokens.
	LexError struct {
		File string
		Pos  Pos
		// Char is the offending character, zero for unterminated literals.
		Char rune
		Msg  string
	}

	// ParseError reports a token the parser did not expect.
	// Token is nil when the input ended early.
	ParseError struct {
		File  string
		Token *Token
		Msg   string
	}
)

func (e *LexError) Error() string {
	if e.Char != 0 {
		return fmt.Sprintf("%s:%s: %s %q", e.File, e.Pos, e.Msg, e.Char)
	}
	return fmt.Sprintf("%s:%s: %s", e.File, e.Pos, e.Msg)
}

func (e *LexError) Unwrap() error {
	return ErrLex
}

func (e *ParseError) Error() string {
	if e.Token == nil {
		return fmt.Sprintf("%s: unexpected end of file: %s", e.File, e.Msg)
	}
	return fmt.Sprintf("%s:%s: %s, got %s", e.File, e.Token.Pos, e.Msg, e.Token)
}

func (e *ParseError) Unwrap() error {
	return ErrParse
}
