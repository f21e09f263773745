// Package pgn reads Portable Game Notation text into a raw move tree.
//
// The reader is purely textual: it recognises tag pairs, move numbers, SAN
// move tokens, brace and semicolon comments, NAGs and suffix annotations,
// recursive annotation variations (RAVs) and game results. Legality of the
// moves is not checked here.
package pgn

import (
	"strings"
	"unicode"
)

// TokenType identifies the kind of a lexical token.
type TokenType int

const (
	EOFToken TokenType = iota
	TagToken
	CommentToken
	MoveNumberToken
	MoveToken
	NAGToken
	RAVStartToken
	RAVEndToken
	ResultToken
)

// Token is a single lexical unit of PGN text.
type Token struct {
	Type TokenType
	Text string
	// Value holds the tag value for TagToken.
	Value string
}

// annotationNAGs maps suffix annotations to their numeric glyphs.
var annotationNAGs = map[string]string{
	"!":  "$1",
	"?":  "$2",
	"!!": "$3",
	"??": "$4",
	"!?": "$5",
	"?!": "$6",
}

// Lexer splits PGN text into tokens.
type Lexer struct {
	src string
	pos int
}

// NewLexer returns a lexer over src.
func NewLexer(src string) *Lexer {
	return &Lexer{src: src}
}

// Tokens lexes the whole input.
func Tokens(src string) []Token {
	l := NewLexer(src)
	var toks []Token
	for {
		batch := l.Next()
		toks = append(toks, batch...)
		if len(batch) > 0 && batch[len(batch)-1].Type == EOFToken {
			return toks
		}
	}
}

// Next returns the next one or more tokens. A single symbol such as "12.e4!"
// expands into a move number, a move and a NAG.
func (l *Lexer) Next() []Token {
	for {
		l.skipSpace()
		if l.pos >= len(l.src) {
			return []Token{{Type: EOFToken}}
		}

		ch := l.src[l.pos]
		switch {
		case ch == '%' && l.atLineStart():
			l.skipLine()
		case ch == ';':
			l.pos++
			return []Token{l.lineComment()}
		case ch == '{':
			l.pos++
			return []Token{l.braceComment()}
		case ch == '[':
			l.pos++
			if tok, ok := l.tag(); ok {
				return []Token{tok}
			}
		case ch == '(':
			l.pos++
			return []Token{{Type: RAVStartToken, Text: "("}}
		case ch == ')':
			l.pos++
			return []Token{{Type: RAVEndToken, Text: ")"}}
		case ch == '$':
			l.pos++
			return []Token{{Type: NAGToken, Text: "$" + l.takeWhile(isDigit)}}
		case ch == '*':
			l.pos++
			return []Token{{Type: ResultToken, Text: "*"}}
		case isSymbolStart(ch):
			if toks := classify(l.takeWhile(isSymbolChar)); len(toks) > 0 {
				return toks
			}
		default:
			// Stray punctuation carries no meaning in movetext.
			l.pos++
		}
	}
}

func (l *Lexer) skipSpace() {
	for l.pos < len(l.src) && unicode.IsSpace(rune(l.src[l.pos])) {
		l.pos++
	}
}

func (l *Lexer) atLineStart() bool {
	return l.pos == 0 || l.src[l.pos-1] == '\n'
}

func (l *Lexer) skipLine() {
	for l.pos < len(l.src) && l.src[l.pos] != '\n' {
		l.pos++
	}
}

func (l *Lexer) lineComment() Token {
	start := l.pos
	l.skipLine()
	return Token{Type: CommentToken, Text: strings.TrimSpace(l.src[start:l.pos])}
}

// braceComment reads up to the closing brace. An unterminated comment runs to
// the end of input.
func (l *Lexer) braceComment() Token {
	end := strings.IndexByte(l.src[l.pos:], '}')
	var text string
	if end < 0 {
		text = l.src[l.pos:]
		l.pos = len(l.src)
	} else {
		text = l.src[l.pos : l.pos+end]
		l.pos += end + 1
	}
	return Token{Type: CommentToken, Text: strings.TrimSpace(text)}
}

// tag reads `Name "Value"]` after the opening bracket.
func (l *Lexer) tag() (Token, bool) {
	l.skipSpace()
	name := l.takeWhile(func(c byte) bool { return isAlnum(c) || c == '_' })
	l.skipSpace()
	if name == "" || l.pos >= len(l.src) || l.src[l.pos] != '"' {
		l.skipLine()
		return Token{}, false
	}
	l.pos++

	var value strings.Builder
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		l.pos++
		if c == '\\' && l.pos < len(l.src) {
			value.WriteByte(l.src[l.pos])
			l.pos++
			continue
		}
		if c == '"' {
			break
		}
		value.WriteByte(c)
	}

	for l.pos < len(l.src) && l.src[l.pos] != ']' && l.src[l.pos] != '\n' {
		l.pos++
	}
	if l.pos < len(l.src) && l.src[l.pos] == ']' {
		l.pos++
	}
	return Token{Type: TagToken, Text: name, Value: value.String()}, true
}

func (l *Lexer) takeWhile(pred func(byte) bool) string {
	start := l.pos
	for l.pos < len(l.src) && pred(l.src[l.pos]) {
		l.pos++
	}
	return l.src[start:l.pos]
}

// classify turns a raw symbol into tokens.
func classify(sym string) []Token {
	switch sym {
	case "1-0", "0-1", "1/2-1/2":
		return []Token{{Type: ResultToken, Text: sym}}
	}

	var toks []Token

	// Move number, possibly glued to the move: "12.", "12...", "12.Nf3".
	if isDigit(sym[0]) {
		i := 0
		for i < len(sym) && isDigit(sym[i]) {
			i++
		}
		j := i
		for j < len(sym) && sym[j] == '.' {
			j++
		}
		if j > i || j == len(sym) {
			toks = append(toks, Token{Type: MoveNumberToken, Text: sym[:j]})
			sym = sym[j:]
		}
	}
	sym = strings.TrimLeft(sym, ".")
	if sym == "" {
		return toks
	}

	move := strings.TrimRight(sym, "!?")
	if move == "" {
		return append(toks, annotationToken(sym))
	}
	toks = append(toks, Token{Type: MoveToken, Text: move})
	if suffix := sym[len(move):]; suffix != "" {
		toks = append(toks, annotationToken(suffix))
	}
	return toks
}

func annotationToken(text string) Token {
	if nag, ok := annotationNAGs[text]; ok {
		return Token{Type: NAGToken, Text: nag}
	}
	return Token{Type: NAGToken, Text: text}
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isAlnum(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isSymbolStart(c byte) bool {
	return isAlnum(c) || c == '!' || c == '?' || c == '-'
}

func isSymbolChar(c byte) bool {
	switch c {
	case '+', '#', '=', ':', '-', '/', '!', '?', '.', '_':
		return true
	}
	return isAlnum(c)
}
