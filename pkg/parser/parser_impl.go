package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sandrolain/imagemath/pkg/types"
)

// Parser implements a recursive descent parser for image expressions.
// It uses Pratt's "Top Down Operator Precedence" algorithm to handle
// operator precedence correctly.
type Parser struct {
	lexer   *Lexer
	arena   *types.NodeArena
	current Token
	prev    Token
	depth   int
	opts    CompileOptions
}

// NewParser creates a new parser for the given input string.
func NewParser(input string, opts ...CompileOption) *Parser {
	options := CompileOptions{
		MaxDepth: 100,
	}
	for _, opt := range opts {
		opt(&options)
	}

	p := &Parser{
		lexer: NewLexer(input),
		arena: types.NewNodeArena(),
		opts:  options,
	}

	// Read the first token
	p.advance()

	return p
}

// Parse parses the entire expression and returns the compiled Expression.
func (p *Parser) Parse() (*types.Expression, error) {
	if p.current.Type == TokenError {
		return nil, p.lexer.Error()
	}

	if p.current.Type == TokenEOF {
		return nil, p.error(types.ErrEmptyExpression, "empty expression")
	}

	node, err := p.parseExpression(0)
	if err != nil {
		return nil, err
	}

	if p.current.Type != TokenEOF {
		return nil, p.error(types.ErrSyntaxError, fmt.Sprintf("unexpected token: %s", p.current.Value))
	}

	return types.NewExpression(node, p.lexer.input), nil
}

// Binding powers. Higher values bind more tightly.
const (
	precCondition = 10  // a if c else b
	precOr        = 20  // or
	precAnd       = 30  // and
	precNot       = 35  // not (prefix)
	precCompare   = 40  // == != < <= > >=
	precBitOr     = 50  // |
	precBitXor    = 60  // ^
	precBitAnd    = 70  // &
	precShift     = 80  // << >>
	precSum       = 90  // + -
	precTerm      = 100 // * / // %
	precUnary     = 110 // - + ~ (prefix)
	precPower     = 120 // **
	precCall      = 130 // f(...)
)

// precedence maps infix tokens to their binding power.
var precedence = map[TokenType]int{
	TokenKwIf:         precCondition,
	TokenKwOr:         precOr,
	TokenKwAnd:        precAnd,
	TokenEqual:        precCompare,
	TokenNotEqual:     precCompare,
	TokenLess:         precCompare,
	TokenLessEqual:    precCompare,
	TokenGreater:      precCompare,
	TokenGreaterEqual: precCompare,
	TokenOr:           precBitOr,
	TokenXor:          precBitXor,
	TokenAnd:          precBitAnd,
	TokenLShift:       precShift,
	TokenRShift:       precShift,
	TokenPlus:         precSum,
	TokenMinus:        precSum,
	TokenMult:         precTerm,
	TokenDiv:          precTerm,
	TokenFloorDiv:     precTerm,
	TokenMod:          precTerm,
	TokenPow:          precPower,
	TokenParenOpen:    precCall,
}

// getPrecedence returns the precedence of a token type.
func (p *Parser) getPrecedence(tt TokenType) int {
	if prec, ok := precedence[tt]; ok {
		return prec
	}
	return 0
}

// advance moves to the next token.
func (p *Parser) advance() {
	p.prev = p.current
	p.current = p.lexer.Next()
}

// expect checks if the current token matches the expected type and advances.
func (p *Parser) expect(tt TokenType) error {
	if p.current.Type != tt {
		return p.error(types.ErrExpectedToken, fmt.Sprintf("expected %s but got %s", tt.String(), p.describe(p.current)))
	}
	p.advance()
	return nil
}

// describe renders a token for error messages.
func (p *Parser) describe(t Token) string {
	switch t.Type {
	case TokenEOF:
		return "end of expression"
	case TokenName, TokenNumber, TokenString:
		return fmt.Sprintf("%s %q", t.Type.String(), t.Value)
	default:
		return fmt.Sprintf("%q", t.Type.String())
	}
}

// error creates a parser error. A pending lexer error takes precedence
// because it describes the real cause.
func (p *Parser) error(code types.ErrorCode, message string) error {
	if p.current.Type == TokenError && p.lexer.Error() != nil {
		return p.lexer.Error()
	}
	return &types.Error{
		Code:     code,
		Message:  message,
		Position: p.current.Position,
		Token:    p.current.Value,
	}
}

// parseExpression parses an expression with operator precedence.
// rbp is the right binding power (minimum precedence).
func (p *Parser) parseExpression(rbp int) (*types.ASTNode, error) {
	p.depth++
	defer func() { p.depth-- }()
	if p.opts.MaxDepth > 0 && p.depth > p.opts.MaxDepth {
		return nil, p.error(types.ErrNestingTooDeep, fmt.Sprintf("expression nested deeper than %d levels", p.opts.MaxDepth))
	}

	// Parse prefix expression (nud - null denotation)
	left, err := p.parsePrefix(rbp)
	if err != nil {
		return nil, err
	}

	// Parse infix expressions while precedence allows (led - left denotation)
	for rbp < p.getPrecedence(p.current.Type) {
		left, err = p.parseInfix(left)
		if err != nil {
			return nil, err
		}
	}

	return left, nil
}

// parsePrefix parses a prefix expression (nud - null denotation).
// rbp decides whether low-precedence prefix forms (lambda, not) are
// allowed at this position.
func (p *Parser) parsePrefix(rbp int) (*types.ASTNode, error) {
	token := p.current

	switch token.Type {
	case TokenNumber:
		return p.parseNumber()
	case TokenString:
		return p.parseString()
	case TokenName:
		return p.parseName()
	case TokenKwTrue, TokenKwFalse:
		return p.parseBoolean()
	case TokenKwNone:
		return p.parseNone()
	case TokenMinus, TokenPlus, TokenInvert:
		return p.parseUnary()
	case TokenParenOpen:
		return p.parseGrouping()
	case TokenKwNot:
		if rbp > precNot {
			return nil, p.error(types.ErrSyntaxError, "'not' must be parenthesized here")
		}
		return p.parseNot()
	case TokenKwLambda:
		if rbp > 0 {
			return nil, p.error(types.ErrSyntaxError, "lambda must be parenthesized here")
		}
		return p.parseLambda()
	case TokenEOF:
		return nil, p.error(types.ErrSyntaxError, "unexpected end of expression")
	default:
		return nil, p.error(types.ErrSyntaxError, fmt.Sprintf("unexpected token: %s", p.describe(token)))
	}
}

// parseInfix parses an infix expression (led - left denotation).
func (p *Parser) parseInfix(left *types.ASTNode) (*types.ASTNode, error) {
	token := p.current

	switch token.Type {
	case TokenParenOpen:
		return p.parseCall(left)
	case TokenKwIf:
		return p.parseConditional(left)
	case TokenKwAnd, TokenKwOr:
		return p.parseLogical(left)
	case TokenEqual, TokenNotEqual, TokenLess, TokenLessEqual, TokenGreater, TokenGreaterEqual:
		return p.parseCompare(left)
	case TokenPow:
		return p.parsePower(left)
	case TokenPlus, TokenMinus, TokenMult, TokenDiv, TokenFloorDiv, TokenMod,
		TokenAnd, TokenOr, TokenXor, TokenLShift, TokenRShift:
		return p.parseBinaryOp(left)
	default:
		return nil, p.error(types.ErrSyntaxError, fmt.Sprintf("unexpected infix token: %s", p.describe(token)))
	}
}

// parseNumber parses an integer or floating-point literal.
func (p *Parser) parseNumber() (*types.ASTNode, error) {
	node := p.arena.Alloc(types.NodeNumber, p.current.Position)
	text := strings.ReplaceAll(p.current.Value, "_", "")

	switch {
	case hasIntPrefix(text):
		v, err := strconv.ParseInt(text, 0, 64)
		if err != nil {
			return nil, p.error(types.ErrInvalidNumber, fmt.Sprintf("integer literal out of range: %s", p.current.Value))
		}
		node.IsInt = true
		node.IntValue = v
		node.NumValue = float64(v)
		node.Value = v
	case strings.ContainsAny(text, ".eE"):
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, p.error(types.ErrInvalidNumber, fmt.Sprintf("invalid number: %s", p.current.Value))
		}
		node.NumValue = v
		node.Value = v
	default:
		v, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return nil, p.error(types.ErrInvalidNumber, fmt.Sprintf("integer literal out of range: %s", p.current.Value))
		}
		node.IsInt = true
		node.IntValue = v
		node.NumValue = float64(v)
		node.Value = v
	}

	p.advance()
	return node, nil
}

func hasIntPrefix(s string) bool {
	if len(s) < 2 || s[0] != '0' {
		return false
	}
	switch s[1] {
	case 'x', 'X', 'o', 'O', 'b', 'B':
		return true
	}
	return false
}

// parseString parses a string literal.
func (p *Parser) parseString() (*types.ASTNode, error) {
	node := p.arena.Alloc(types.NodeString, p.current.Position)

	unescaped, err := unescapeString(p.current.Value)
	if err != nil {
		return nil, p.error(types.ErrStringNotClosed, fmt.Sprintf("invalid string literal: %v", err))
	}

	node.Value = unescaped
	node.StrValue = unescaped
	p.advance()
	return node, nil
}

// unescapeString processes escape sequences in a string literal.
// Unknown escapes are kept verbatim, backslash included.
func unescapeString(s string) (string, error) {
	if !strings.Contains(s, "\\") {
		return s, nil // Fast path: no escapes
	}

	var result strings.Builder
	result.Grow(len(s))

	for i := 0; i < len(s); i++ {
		if s[i] != '\\' {
			result.WriteByte(s[i])
			continue
		}

		i++ // Skip backslash
		if i >= len(s) {
			return "", fmt.Errorf("invalid escape sequence at end of string")
		}

		switch s[i] {
		case 'n':
			result.WriteByte('\n')
		case 't':
			result.WriteByte('\t')
		case 'r':
			result.WriteByte('\r')
		case '0':
			result.WriteByte(0)
		case '\\', '"', '\'':
			result.WriteByte(s[i])
		case 'x', 'u':
			n := 2
			if s[i] == 'u' {
				n = 4
			}
			if i+n >= len(s) {
				return "", fmt.Errorf("truncated \\%c escape", s[i])
			}
			hex := s[i+1 : i+1+n]
			codePoint, err := strconv.ParseUint(hex, 16, 32)
			if err != nil {
				return "", fmt.Errorf("invalid \\%c escape: %s", s[i], hex)
			}
			result.WriteRune(rune(codePoint))
			i += n
		default:
			result.WriteByte('\\')
			result.WriteByte(s[i])
		}
	}

	return result.String(), nil
}

// parseName parses an identifier reference.
func (p *Parser) parseName() (*types.ASTNode, error) {
	node := p.arena.Alloc(types.NodeName, p.current.Position)
	node.Value = p.current.Value
	node.StrValue = p.current.Value
	p.advance()
	return node, nil
}

// parseBoolean parses True or False.
func (p *Parser) parseBoolean() (*types.ASTNode, error) {
	node := p.arena.Alloc(types.NodeBoolean, p.current.Position)
	node.Value = p.current.Type == TokenKwTrue
	p.advance()
	return node, nil
}

// parseNone parses the None literal.
func (p *Parser) parseNone() (*types.ASTNode, error) {
	node := p.arena.Alloc(types.NodeNone, p.current.Position)
	p.advance()
	return node, nil
}

// parseUnary parses -x, +x and ~x.
func (p *Parser) parseUnary() (*types.ASTNode, error) {
	op := p.current
	p.advance()

	operand, err := p.parseExpression(precUnary)
	if err != nil {
		return nil, err
	}

	node := p.arena.Alloc(types.NodeUnary, op.Position)
	node.Value = op.Type.String()
	node.LHS = operand
	return node, nil
}

// parseNot parses the boolean negation prefix.
func (p *Parser) parseNot() (*types.ASTNode, error) {
	pos := p.current.Position
	p.advance()

	operand, err := p.parseExpression(precNot)
	if err != nil {
		return nil, err
	}

	node := p.arena.Alloc(types.NodeNot, pos)
	node.Value = "not"
	node.LHS = operand
	return node, nil
}

// parseGrouping parses a parenthesized expression.
func (p *Parser) parseGrouping() (*types.ASTNode, error) {
	p.advance() // Skip '('

	if p.current.Type == TokenParenClose {
		return nil, p.error(types.ErrSyntaxError, "empty parentheses")
	}

	expr, err := p.parseExpression(0)
	if err != nil {
		return nil, err
	}

	if err := p.expect(TokenParenClose); err != nil {
		return nil, err
	}
	return expr, nil
}

// parseLambda parses "lambda a, b: body".
func (p *Parser) parseLambda() (*types.ASTNode, error) {
	node := p.arena.Alloc(types.NodeLambda, p.current.Position)
	p.advance() // Skip 'lambda'

	seen := make(map[string]bool)
	for p.current.Type != TokenColon {
		if p.current.Type != TokenName {
			return nil, p.error(types.ErrSyntaxError, fmt.Sprintf("expected parameter name but got %s", p.describe(p.current)))
		}
		name := p.current.Value
		if seen[name] {
			return nil, p.error(types.ErrSyntaxError, fmt.Sprintf("duplicate parameter %q", name))
		}
		seen[name] = true
		node.Params = append(node.Params, name)
		p.advance()

		if p.current.Type == TokenColon {
			break
		}
		if err := p.expect(TokenComma); err != nil {
			return nil, err
		}
	}
	p.advance() // Skip ':'

	body, err := p.parseExpression(0)
	if err != nil {
		return nil, err
	}
	node.LHS = body
	return node, nil
}

// parseCall parses a call applied to any callee expression.
func (p *Parser) parseCall(callee *types.ASTNode) (*types.ASTNode, error) {
	node := p.arena.Alloc(types.NodeCall, p.current.Position)
	p.advance() // Skip '('

	node.LHS = callee
	if callee.Type == types.NodeName {
		node.Value = callee.StrValue
	}

	for p.current.Type != TokenParenClose {
		arg, err := p.parseExpression(0)
		if err != nil {
			return nil, err
		}
		node.Arguments = append(node.Arguments, arg)

		if p.current.Type == TokenParenClose {
			break
		}
		if err := p.expect(TokenComma); err != nil {
			return nil, err
		}
	}

	if err := p.expect(TokenParenClose); err != nil {
		return nil, err
	}
	return node, nil
}

// parseConditional parses "body if test else alternative".
func (p *Parser) parseConditional(body *types.ASTNode) (*types.ASTNode, error) {
	node := p.arena.Alloc(types.NodeCondition, p.current.Position)
	p.advance() // Skip 'if'

	test, err := p.parseExpression(precCondition)
	if err != nil {
		return nil, err
	}

	if err := p.expect(TokenKwElse); err != nil {
		return nil, err
	}

	alt, err := p.parseExpression(0)
	if err != nil {
		return nil, err
	}

	node.LHS = body
	node.RHS = test
	node.Else = alt
	return node, nil
}

// parseLogical parses the short-circuit operators and/or.
func (p *Parser) parseLogical(left *types.ASTNode) (*types.ASTNode, error) {
	op := p.current
	prec := p.getPrecedence(op.Type)
	p.advance()

	right, err := p.parseExpression(prec)
	if err != nil {
		return nil, err
	}

	node := p.arena.Alloc(types.NodeLogical, op.Position)
	node.Value = op.Type.String()
	node.LHS = left
	node.RHS = right
	return node, nil
}

// parseCompare parses a comparison chain such as a < b <= c.
func (p *Parser) parseCompare(left *types.ASTNode) (*types.ASTNode, error) {
	node := p.arena.Alloc(types.NodeCompare, p.current.Position)
	node.Arguments = append(node.Arguments, left)

	for isComparison(p.current.Type) {
		op := p.current
		p.advance()

		right, err := p.parseExpression(precCompare)
		if err != nil {
			return nil, err
		}
		node.Ops = append(node.Ops, op.Type.String())
		node.Arguments = append(node.Arguments, right)
	}

	return node, nil
}

func isComparison(tt TokenType) bool {
	switch tt {
	case TokenEqual, TokenNotEqual, TokenLess, TokenLessEqual, TokenGreater, TokenGreaterEqual:
		return true
	}
	return false
}

// parsePower parses the right-associative power operator.
func (p *Parser) parsePower(left *types.ASTNode) (*types.ASTNode, error) {
	op := p.current
	p.advance()

	right, err := p.parseExpression(precPower - 1)
	if err != nil {
		return nil, err
	}

	node := p.arena.Alloc(types.NodeBinary, op.Position)
	node.Value = op.Type.String()
	node.LHS = left
	node.RHS = right
	return node, nil
}

// parseBinaryOp parses a left-associative binary operator.
func (p *Parser) parseBinaryOp(left *types.ASTNode) (*types.ASTNode, error) {
	op := p.current
	prec := p.getPrecedence(op.Type)
	p.advance()

	// Parse the right-hand side with appropriate precedence
	right, err := p.parseExpression(prec)
	if err != nil {
		return nil, err
	}

	node := p.arena.Alloc(types.NodeBinary, op.Position)
	node.Value = op.Type.String()
	node.LHS = left
	node.RHS = right
	return node, nil
}
