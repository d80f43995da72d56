package syntax

import (
	"fmt"
	"strings"
)

// TokenType identifies the lexical class of a token.
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenIdent
	TokenNumber
	TokenKeyword
	TokenPunct
)

func (t TokenType) String() string {
	switch t {
	case TokenEOF:
		return "EOF"
	case TokenIdent:
		return "identifier"
	case TokenNumber:
		return "number"
	case TokenKeyword:
		return "keyword"
	case TokenPunct:
		return "punctuation"
	default:
		return "?"
	}
}

// Token is a single lexeme with its position.
type Token struct {
	Type  TokenType
	Value string
	Pos   Pos
	// NewlineBefore records whether a line break separates this token
	// from the previous one.
	NewlineBefore bool
}

var keywords = map[string]bool{
	"var":      true,
	"let":      true,
	"const":    true,
	"function": true,
	"return":   true,
	"if":       true,
	"else":     true,
	"while":    true,
	"true":     true,
	"false":    true,
}

// punctuators, longest first so that maximal munch works by prefix test.
var punctuators = []string{
	"===", "!==",
	"==", "!=", "<=", ">=", "&&", "||", "++", "--",
	"+=", "-=", "*=", "/=", "%=", "<<", ">>",
	"+", "-", "*", "/", "%", "<", ">", "=", "!",
	"(", ")", "{", "}", ",", ";", "&", "|", "^",
}

// Lexer scans source text into tokens.
type Lexer struct {
	input    string
	position int
	line     int
	column   int
	tokens   []Token
	newline  bool
}

// NewLexer returns a lexer positioned at the start of input.
func NewLexer(input string) *Lexer {
	return &Lexer{
		input:  input,
		line:   1,
		column: 1,
		tokens: make([]Token, 0),
	}
}

// Tokenize scans the whole input. The returned slice always ends in a
// TokenEOF token.
func (l *Lexer) Tokenize() ([]Token, error) {
	for l.position < len(l.input) {
		c := l.input[l.position]
		switch {
		case c == '\n':
			l.newline = true
			l.advance(1)
		case c == ' ' || c == '\t' || c == '\r':
			l.advance(1)
		case strings.HasPrefix(l.input[l.position:], "//"):
			l.skipLineComment()
		case strings.HasPrefix(l.input[l.position:], "/*"):
			if err := l.skipBlockComment(); err != nil {
				return nil, err
			}
		case isDigit(c):
			l.lexNumber()
		case isIdentStart(c):
			l.lexIdent()
		default:
			if !l.lexPunct() {
				return nil, &ParseError{
					Pos: l.pos(),
					Msg: fmt.Sprintf("unexpected character %q", c),
				}
			}
		}
	}

	l.addToken(TokenEOF, "", l.pos())
	return l.tokens, nil
}

func (l *Lexer) pos() Pos {
	return Pos{Line: l.line, Column: l.column}
}

func (l *Lexer) advance(n int) {
	for i := 0; i < n && l.position < len(l.input); i++ {
		if l.input[l.position] == '\n' {
			l.line++
			l.column = 1
		} else {
			l.column++
		}
		l.position++
	}
}

func (l *Lexer) addToken(typ TokenType, value string, pos Pos) {
	l.tokens = append(l.tokens, Token{
		Type:          typ,
		Value:         value,
		Pos:           pos,
		NewlineBefore: l.newline,
	})
	l.newline = false
}

func (l *Lexer) skipLineComment() {
	for l.position < len(l.input) && l.input[l.position] != '\n' {
		l.advance(1)
	}
}

func (l *Lexer) skipBlockComment() error {
	start := l.pos()
	end := strings.Index(l.input[l.position+2:], "*/")
	if end < 0 {
		return &ParseError{Pos: start, Msg: "unterminated block comment"}
	}
	comment := l.input[l.position : l.position+2+end+2]
	if strings.Contains(comment, "\n") {
		l.newline = true
	}
	l.advance(len(comment))
	return nil
}

func (l *Lexer) lexNumber() {
	start := l.position
	pos := l.pos()
	if strings.HasPrefix(l.input[l.position:], "0x") || strings.HasPrefix(l.input[l.position:], "0X") {
		l.advance(2)
		for l.position < len(l.input) && isHexDigit(l.input[l.position]) {
			l.advance(1)
		}
	} else {
		for l.position < len(l.input) && isDigit(l.input[l.position]) {
			l.advance(1)
		}
	}
	l.addToken(TokenNumber, l.input[start:l.position], pos)
}

func (l *Lexer) lexIdent() {
	start := l.position
	pos := l.pos()
	for l.position < len(l.input) && isIdentPart(l.input[l.position]) {
		l.advance(1)
	}
	word := l.input[start:l.position]
	if keywords[word] {
		l.addToken(TokenKeyword, word, pos)
		return
	}
	l.addToken(TokenIdent, word, pos)
}

func (l *Lexer) lexPunct() bool {
	rest := l.input[l.position:]
	for _, p := range punctuators {
		if strings.HasPrefix(rest, p) {
			pos := l.pos()
			l.advance(len(p))
			l.addToken(TokenPunct, p, pos)
			return true
		}
	}
	return false
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isHexDigit(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}
