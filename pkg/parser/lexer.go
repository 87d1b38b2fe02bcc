package parser

import (
	"fmt"
	"unicode"
	"unicode/utf8"

	"github.com/sandrolain/imagemath/pkg/types"
)

const eof = -1

// Lexer converts an image expression into a sequence of tokens.
// The implementation is based on Rob Pike's "Lexical Scanning in Go" technique.
type Lexer struct {
	input   string // Input string being scanned
	length  int    // Length of input string
	start   int    // Start position of current token
	current int    // Current position in input
	width   int    // Width of last rune read
	err     error  // First error encountered
}

// NewLexer creates a new lexer from the provided input string.
// The input is tokenized by successive calls to the Next method.
func NewLexer(input string) *Lexer {
	return &Lexer{
		input:  input,
		length: len(input),
	}
}

// Next returns the next token from the input.
// When the end of the input is reached, Next returns TokenEOF for all subsequent calls.
func (l *Lexer) Next() Token {
	l.skipWhitespace()

	ch := l.nextRune()
	if ch == eof {
		return l.eof()
	}

	// Check for two-character symbols first (e.g., **, //, <=)
	if rts := lookupSymbol2(ch); rts != nil {
		for _, rt := range rts {
			if l.acceptRune(rt.r) {
				return l.newToken(rt.tt)
			}
		}
	}

	// A leading dot only starts a number literal (.5)
	if ch == '.' {
		if isDigit(l.peek()) {
			l.current = l.start
			return l.scanNumber()
		}
		return l.error(types.ErrUnexpectedChar, "unexpected character '.'")
	}

	if tt := lookupSymbol1(ch); tt > 0 {
		return l.newToken(tt)
	}

	if ch == '"' || ch == '\'' {
		l.ignore()
		return l.scanString(ch)
	}

	if isDigit(ch) {
		l.backup()
		return l.scanNumber()
	}

	if isNameStart(ch) {
		l.backup()
		return l.scanName()
	}

	return l.error(types.ErrUnexpectedChar, fmt.Sprintf("unexpected character %q", ch))
}

// Error returns the first error encountered during lexing, if any.
func (l *Lexer) Error() error {
	return l.err
}

// scanString reads a string literal from the current position.
// The opening quote has already been consumed.
func (l *Lexer) scanString(quote rune) Token {
Loop:
	for {
		switch l.nextRune() {
		case quote:
			break Loop
		case '\\':
			// Consume escaped character
			if r := l.nextRune(); r != eof && r != '\n' {
				break
			}
			fallthrough
		case eof, '\n':
			return l.error(types.ErrStringNotClosed, "unterminated string literal")
		}
	}

	l.backup()
	t := l.newToken(TokenString)
	l.acceptRune(quote)
	l.ignore()
	return t
}

// scanNumber reads a number literal from the current position.
// Supports decimal, 0x/0o/0b prefixed integers, '_' digit separators,
// fractions and exponents.
func (l *Lexer) scanNumber() Token {
	if l.acceptRune('0') {
		var digits func(rune) bool
		switch {
		case l.acceptRunes2('x', 'X'):
			digits = isHexDigit
		case l.acceptRunes2('o', 'O'):
			digits = isOctalDigit
		case l.acceptRunes2('b', 'B'):
			digits = isBinaryDigit
		}
		if digits != nil {
			if !l.acceptAll(digits) {
				return l.error(types.ErrInvalidNumber, "invalid integer literal")
			}
			return l.finishNumber()
		}
	}
	l.current = l.start

	l.acceptAll(isDecimalDigit)

	// Fraction
	if l.acceptRune('.') {
		l.acceptAll(isDecimalDigit)
	}

	// Exponent
	if l.acceptRunes2('e', 'E') {
		l.acceptRunes2('+', '-')
		if !l.acceptAll(isDecimalDigit) {
			return l.error(types.ErrInvalidNumber, "invalid exponent in number literal")
		}
	}

	return l.finishNumber()
}

// finishNumber rejects literals glued to a trailing name character (12ab).
func (l *Lexer) finishNumber() Token {
	if r := l.peek(); isNameChar(r) || r == '.' {
		l.nextRune()
		return l.error(types.ErrInvalidNumber, "invalid number literal")
	}
	return l.newToken(TokenNumber)
}

// scanName reads an identifier or keyword from the current position.
func (l *Lexer) scanName() Token {
	l.acceptAll(isNameChar)

	t := l.newToken(TokenName)
	if tt := lookupKeyword(t.Value); tt > 0 {
		t.Type = tt
	}
	return t
}

// Helper methods

func (l *Lexer) eof() Token {
	return Token{
		Type:     TokenEOF,
		Position: l.current,
	}
}

func (l *Lexer) error(code types.ErrorCode, message string) Token {
	t := l.newToken(TokenError)
	l.err = &types.Error{
		Code:     code,
		Message:  message,
		Position: t.Position,
		Token:    t.Value,
	}
	return t
}

func (l *Lexer) newToken(tt TokenType) Token {
	t := Token{
		Type:     tt,
		Value:    l.input[l.start:l.current],
		Position: l.start,
	}
	l.width = 0
	l.start = l.current
	return t
}

func (l *Lexer) nextRune() rune {
	if l.err != nil || l.current >= l.length {
		l.width = 0
		return eof
	}

	r, w := utf8.DecodeRuneInString(l.input[l.current:])
	l.width = w
	l.current += w
	return r
}

func (l *Lexer) peek() rune {
	r := l.nextRune()
	l.backup()
	return r
}

func (l *Lexer) backup() {
	l.current -= l.width
	l.width = 0
}

func (l *Lexer) ignore() {
	l.start = l.current
}

func (l *Lexer) acceptRune(r rune) bool {
	return l.accept(func(c rune) bool {
		return c == r
	})
}

func (l *Lexer) acceptRunes2(r1, r2 rune) bool {
	return l.accept(func(c rune) bool {
		return c == r1 || c == r2
	})
}

func (l *Lexer) accept(isValid func(rune) bool) bool {
	if isValid(l.nextRune()) {
		return true
	}
	l.backup()
	return false
}

func (l *Lexer) acceptAll(isValid func(rune) bool) bool {
	var matched bool
	for l.accept(isValid) {
		matched = true
	}
	return matched
}

func (l *Lexer) skipWhitespace() {
	l.acceptAll(isWhitespace)
	l.ignore()
}

// Character classification functions

func isWhitespace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	default:
		return false
	}
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isDecimalDigit(r rune) bool {
	return isDigit(r) || r == '_'
}

func isHexDigit(r rune) bool {
	return isDigit(r) || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F') || r == '_'
}

func isOctalDigit(r rune) bool {
	return (r >= '0' && r <= '7') || r == '_'
}

func isBinaryDigit(r rune) bool {
	return r == '0' || r == '1' || r == '_'
}

func isNameStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isNameChar(r rune) bool {
	return isNameStart(r) || unicode.IsDigit(r)
}
