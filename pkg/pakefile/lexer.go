// SPDX-License-Identifier: MPL-2.0

package pakefile

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const tripleQuote = `"""`

type lexer struct {
	file   string
	src    string
	off    int
	pos    Pos
	tokens []Token
}

// Lex splits src into tokens. file is only used in error messages.
//
// Recognizers are tried in a fixed order at each position: comment,
// single-character token, triple-quoted literal, quoted literal,
// identifier or variable run, whitespace run. A character no recognizer
// accepts is a *LexError.
func Lex(file, src string) ([]Token, error) {
	l := &lexer{file: file, src: src, pos: Pos{Line: 1, Column: 1}}
	for l.off < len(l.src) {
		if err := l.step(); err != nil {
			return nil, err
		}
	}
	return l.tokens, nil
}

func (l *lexer) step() error {
	start := l.pos
	rest := l.src[l.off:]
	r, _ := utf8.DecodeRuneInString(rest)

	switch {
	case r == '#':
		end := strings.IndexByte(rest, '\n')
		if end < 0 {
			end = len(rest)
		}
		l.advance(end)
	case r == '\n':
		l.emit(Newline, "\n", start)
		l.advance(1)
	case r == '(':
		l.emit(OpenParen, "(", start)
		l.advance(1)
	case r == ')':
		l.emit(CloseParen, ")", start)
		l.advance(1)
	case r == ':':
		l.emit(Colon, ":", start)
		l.advance(1)
	case strings.HasPrefix(rest, tripleQuote):
		end := strings.Index(rest[len(tripleQuote):], tripleQuote)
		if end < 0 {
			return &LexError{File: l.file, Pos: start, Msg: "unterminated multiline literal"}
		}
		l.emit(MultilineLiteral, rest[len(tripleQuote):len(tripleQuote)+end], start)
		l.advance(end + 2*len(tripleQuote))
	case r == '"':
		end := strings.IndexByte(rest[1:], '"')
		if end < 0 {
			return &LexError{File: l.file, Pos: start, Msg: "unterminated quoted literal"}
		}
		l.emit(Literal, rest[1:1+end], start)
		l.advance(end + 2)
	case isIdentRune(r):
		n := 0
		for n < len(rest) {
			c, size := utf8.DecodeRuneInString(rest[n:])
			if !isIdentRune(c) {
				break
			}
			n += size
		}
		kind := Literal
		if r == '$' {
			kind = Variable
		}
		l.emit(kind, rest[:n], start)
		l.advance(n)
	case isSpace(r):
		n := 0
		for n < len(rest) && isSpace(rune(rest[n])) {
			n++
		}
		l.advance(n)
	default:
		return &LexError{File: l.file, Pos: start, Char: r, Msg: "unexpected character"}
	}
	return nil
}

func (l *lexer) emit(kind Kind, text string, pos Pos) {
	l.tokens = append(l.tokens, Token{Kind: kind, Text: text, Pos: pos})
}

// advance consumes n bytes, keeping the line and column current.
func (l *lexer) advance(n int) {
	for _, r := range l.src[l.off : l.off+n] {
		if r == '\n' {
			l.pos.Line++
			l.pos.Column = 1
			continue
		}
		l.pos.Column++
	}
	l.off += n
}

func isIdentRune(r rune) bool {
	if unicode.IsLetter(r) || unicode.IsDigit(r) {
		return true
	}
	return strings.ContainsRune("./$_-=+", r)
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\r'
}
