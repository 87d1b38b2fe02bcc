package parser

// TokenType represents the type of a lexical token.
type TokenType uint8

const (
	// Special tokens
	TokenEOF TokenType = iota
	TokenError

	// Literals
	TokenNumber // 42, 0x2a, 3.5, .5, 1e-3
	TokenString // "F" or 'F'
	TokenName   // identifier

	// Grouping and punctuation
	TokenParenOpen  // (
	TokenParenClose // )
	TokenComma      // ,
	TokenColon      // :

	// Arithmetic operators
	TokenPlus     // +
	TokenMinus    // -
	TokenMult     // *
	TokenDiv      // /
	TokenFloorDiv // //
	TokenMod      // %
	TokenPow      // **

	// Bitwise operators
	TokenInvert // ~
	TokenAnd    // &
	TokenOr     // |
	TokenXor    // ^
	TokenLShift // <<
	TokenRShift // >>

	// Comparison operators
	TokenEqual        // ==
	TokenNotEqual     // !=
	TokenLess         // <
	TokenLessEqual    // <=
	TokenGreater      // >
	TokenGreaterEqual // >=

	// Keywords
	TokenKwAnd    // and
	TokenKwOr     // or
	TokenKwNot    // not
	TokenKwIf     // if
	TokenKwElse   // else
	TokenKwLambda // lambda
	TokenKwTrue   // True
	TokenKwFalse  // False
	TokenKwNone   // None
)

// String returns a string representation of the token type.
func (tt TokenType) String() string {
	switch tt {
	case TokenEOF:
		return "(eof)"
	case TokenError:
		return "(error)"
	case TokenNumber:
		return "(number)"
	case TokenString:
		return "(string)"
	case TokenName:
		return "(name)"
	case TokenParenOpen:
		return "("
	case TokenParenClose:
		return ")"
	case TokenComma:
		return ","
	case TokenColon:
		return ":"
	case TokenPlus:
		return "+"
	case TokenMinus:
		return "-"
	case TokenMult:
		return "*"
	case TokenDiv:
		return "/"
	case TokenFloorDiv:
		return "//"
	case TokenMod:
		return "%"
	case TokenPow:
		return "**"
	case TokenInvert:
		return "~"
	case TokenAnd:
		return "&"
	case TokenOr:
		return "|"
	case TokenXor:
		return "^"
	case TokenLShift:
		return "<<"
	case TokenRShift:
		return ">>"
	case TokenEqual:
		return "=="
	case TokenNotEqual:
		return "!="
	case TokenLess:
		return "<"
	case TokenLessEqual:
		return "<="
	case TokenGreater:
		return ">"
	case TokenGreaterEqual:
		return ">="
	case TokenKwAnd:
		return "and"
	case TokenKwOr:
		return "or"
	case TokenKwNot:
		return "not"
	case TokenKwIf:
		return "if"
	case TokenKwElse:
		return "else"
	case TokenKwLambda:
		return "lambda"
	case TokenKwTrue:
		return "True"
	case TokenKwFalse:
		return "False"
	case TokenKwNone:
		return "None"
	default:
		return "(unknown)"
	}
}

// Token represents a lexical token in an image expression.
type Token struct {
	Type     TokenType // Type of the token
	Value    string    // Literal value of the token
	Position int       // Starting position in the input string
}

// symbols1 maps single-character symbols to token types.
var symbols1 = [...]TokenType{
	'(': TokenParenOpen,
	')': TokenParenClose,
	',': TokenComma,
	':': TokenColon,
	'+': TokenPlus,
	'-': TokenMinus,
	'*': TokenMult,
	'/': TokenDiv,
	'%': TokenMod,
	'~': TokenInvert,
	'&': TokenAnd,
	'|': TokenOr,
	'^': TokenXor,
	'<': TokenLess,
	'>': TokenGreater,
}

// runeTokenType pairs a rune with its corresponding token type.
type runeTokenType struct {
	r  rune
	tt TokenType
}

// symbols2 maps two-character symbol sequences to token types.
// The key is the first character of the sequence.
var symbols2 = [...][]runeTokenType{
	'*': {{'*', TokenPow}},
	'/': {{'/', TokenFloorDiv}},
	'<': {{'<', TokenLShift}, {'=', TokenLessEqual}},
	'>': {{'>', TokenRShift}, {'=', TokenGreaterEqual}},
	'=': {{'=', TokenEqual}},
	'!': {{'=', TokenNotEqual}},
}

const (
	symbol1Count = rune(len(symbols1))
	symbol2Count = rune(len(symbols2))
)

// lookupSymbol1 returns the token type for a single-character symbol.
// Returns 0 if the rune is not a valid symbol.
func lookupSymbol1(r rune) TokenType {
	if r < 0 || r >= symbol1Count {
		return 0
	}
	return symbols1[r]
}

// lookupSymbol2 returns possible two-character symbol completions.
// Returns nil if the rune cannot start a two-character symbol.
func lookupSymbol2(r rune) []runeTokenType {
	if r < 0 || r >= symbol2Count {
		return nil
	}
	return symbols2[r]
}

// lookupKeyword returns the token type for a keyword.
// Returns 0 if the string is not a reserved word.
func lookupKeyword(s string) TokenType {
	switch s {
	case "and":
		return TokenKwAnd
	case "or":
		return TokenKwOr
	case "not":
		return TokenKwNot
	case "if":
		return TokenKwIf
	case "else":
		return TokenKwElse
	case "lambda":
		return TokenKwLambda
	case "True":
		return TokenKwTrue
	case "False":
		return TokenKwFalse
	case "None":
		return TokenKwNone
	default:
		return 0
	}
}

// Keywords returns the reserved words of the expression language.
func Keywords() []string {
	return []string{"and", "or", "not", "if", "else", "lambda", "True", "False", "None"}
}

// IsKeyword reports whether s is a reserved word.
func IsKeyword(s string) bool {
	return lookupKeyword(s) > 0
}
