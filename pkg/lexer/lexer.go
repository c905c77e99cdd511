// Package lexer splits the right-hand side of an equation into operand,
// operator and parenthesis tokens.
package lexer

import (
	"unicode"
	"unicode/utf8"

	"github.com/xplshn/gtac/pkg/token"
)

// Lexer walks the source by byte offset so operands are sliced verbatim, bytes
// that are not valid UTF-8 included. Column counts runes from 1.
type Lexer struct {
	source string
	pos    int
	column int
}

func NewLexer(source string) *Lexer {
	return &Lexer{source: source, column: 1}
}

// Next returns the next token. Operands are maximal runs of characters that are
// neither whitespace nor one of "+-*/%()", so "a+b" and "a + b" lex alike.
func (l *Lexer) Next() token.Token {
	l.skipWhitespace()
	startPos, startCol := l.pos, l.column

	if l.isAtEnd() {
		return l.makeToken(token.EOF, "", startCol)
	}

	ch := l.advance()
	if typ, ok := token.OperatorMap[ch]; ok {
		return l.makeToken(typ, "", startCol)
	}

	for !l.isAtEnd() && !l.isSeparator(l.peek()) {
		l.advance()
	}
	return l.makeToken(token.Operand, l.source[startPos:l.pos], startCol)
}

func (l *Lexer) peek() rune {
	if l.isAtEnd() {
		return 0
	}
	ch, _ := utf8.DecodeRuneInString(l.source[l.pos:])
	return ch
}

func (l *Lexer) advance() rune {
	if l.isAtEnd() {
		return 0
	}
	ch, size := utf8.DecodeRuneInString(l.source[l.pos:])
	l.pos += size
	l.column++
	return ch
}

func (l *Lexer) isAtEnd() bool { return l.pos >= len(l.source) }

func (l *Lexer) isSeparator(ch rune) bool {
	if unicode.IsSpace(ch) {
		return true
	}
	_, isOp := token.OperatorMap[ch]
	return isOp
}

func (l *Lexer) skipWhitespace() {
	for !l.isAtEnd() && unicode.IsSpace(l.peek()) {
		l.advance()
	}
}

func (l *Lexer) makeToken(tokType token.Type, value string, startCol int) token.Token {
	return token.Token{Type: tokType, Value: value, Column: startCol, Len: l.column - startCol}
}

// Tokenize lexes the whole source, dropping the trailing EOF token.
func Tokenize(source string) []token.Token {
	l := NewLexer(source)
	var toks []token.Token
	for {
		tok := l.Next()
		if tok.Type == token.EOF {
			return toks
		}
		toks = append(toks, tok)
	}
}

// ContainsOperator reports whether source contains any arithmetic operator character.
func ContainsOperator(source string) bool {
	for _, ch := range source {
		if typ, ok := token.OperatorMap[ch]; ok && typ.IsArith() {
			return true
		}
	}
	return false
}
