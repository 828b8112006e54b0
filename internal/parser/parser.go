// internal/parser/parser.go
package parser

import (
	"strconv"

	"github.com/rill-lang/rill/internal/errors"
	"github.com/rill-lang/rill/internal/lexer"
)

// Parser is a recursive-descent parser over the scanner's token slice.
// Precedence, low to high: assignment, or, and, equality, comparison,
// additive, multiplicative, unary, call, primary.
type Parser struct {
	tokens  []lexer.Token
	current int
}

func NewParser(tokens []lexer.Token) *Parser {
	return &Parser{tokens: tokens}
}

// Parse consumes the whole token stream and returns the program root.
// Top-level expressions are separated by ';'; the trailing separator is
// optional. Parsing aborts at the first error.
func (p *Parser) Parse() (*Program, error) {
	prog := &Program{}
	for !p.isAtEnd() {
		expr, err := p.expression()
		if err != nil {
			return nil, err
		}
		prog.Exprs = append(prog.Exprs, expr)
		if !p.match(lexer.TokenSemicolon) {
			break
		}
	}
	if !p.isAtEnd() {
		return nil, p.errUnexpected(";")
	}
	return prog, nil
}

func (p *Parser) expression() (Expr, error) {
	if p.check(lexer.TokenLet) {
		return p.letExpr()
	}
	return p.assignment()
}

func (p *Parser) letExpr() (Expr, error) {
	kw := p.advance() // let
	name, err := p.consume(lexer.TokenIdent, "identifier")
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(lexer.TokenEqual, "="); err != nil {
		return nil, err
	}
	init, err := p.expression()
	if err != nil {
		return nil, err
	}
	return &Let{Name: name.Lexeme, Init: init, Pos: kw.Pos}, nil
}

func (p *Parser) assignment() (Expr, error) {
	expr, err := p.or()
	if err != nil {
		return nil, err
	}
	if p.check(lexer.TokenEqual) {
		eq := p.advance()
		target, ok := expr.(*Variable)
		if !ok {
			return nil, &errors.ParseError{
				Kind:     errors.UnexpectedToken,
				Expected: []string{"assignable name"},
				Found:    eq.Lexeme,
				Pos:      eq.Pos,
			}
		}
		value, err := p.assignment()
		if err != nil {
			return nil, err
		}
		return &Assign{Name: target.Name, Value: value, Pos: target.Pos}, nil
	}
	return expr, nil
}

func (p *Parser) or() (Expr, error) {
	expr, err := p.and()
	if err != nil {
		return nil, err
	}
	for p.check(lexer.TokenOr) {
		op := p.advance()
		right, err := p.and()
		if err != nil {
			return nil, err
		}
		expr = &Logical{Left: expr, Operator: op.Lexeme, Right: right, Pos: op.Pos}
	}
	return expr, nil
}

func (p *Parser) and() (Expr, error) {
	expr, err := p.equality()
	if err != nil {
		return nil, err
	}
	for p.check(lexer.TokenAnd) {
		op := p.advance()
		right, err := p.equality()
		if err != nil {
			return nil, err
		}
		expr = &Logical{Left: expr, Operator: op.Lexeme, Right: right, Pos: op.Pos}
	}
	return expr, nil
}

func (p *Parser) equality() (Expr, error) {
	return p.binary(p.comparison, lexer.TokenDoubleEqual, lexer.TokenNotEqual)
}

func (p *Parser) comparison() (Expr, error) {
	return p.binary(p.term, lexer.TokenLT, lexer.TokenLE, lexer.TokenGT, lexer.TokenGE)
}

func (p *Parser) term() (Expr, error) {
	return p.binary(p.factor, lexer.TokenPlus, lexer.TokenMinus)
}

func (p *Parser) factor() (Expr, error) {
	return p.binary(p.unary, lexer.TokenStar, lexer.TokenSlash, lexer.TokenPercent)
}

// binary parses a left-associative run of the given operators at one
// precedence level, with next parsing the operands.
func (p *Parser) binary(next func() (Expr, error), ops ...lexer.TokenType) (Expr, error) {
	expr, err := next()
	if err != nil {
		return nil, err
	}
	for p.checkAny(ops...) {
		op := p.advance()
		right, err := next()
		if err != nil {
			return nil, err
		}
		expr = &Binary{Left: expr, Operator: op.Lexeme, Right: right, Pos: op.Pos}
	}
	return expr, nil
}

func (p *Parser) unary() (Expr, error) {
	if p.checkAny(lexer.TokenMinus, lexer.TokenNot) {
		op := p.advance()
		operand, err := p.unary()
		if err != nil {
			return nil, err
		}
		return &Unary{Operator: op.Lexeme, Operand: operand, Pos: op.Pos}, nil
	}
	return p.call()
}

func (p *Parser) call() (Expr, error) {
	expr, err := p.primary()
	if err != nil {
		return nil, err
	}
	for p.check(lexer.TokenLParen) {
		lparen := p.advance()
		var args []Expr
		if !p.check(lexer.TokenRParen) {
			for {
				arg, err := p.expression()
				if err != nil {
					return nil, err
				}
				args = append(args, arg)
				if !p.match(lexer.TokenComma) {
					break
				}
			}
		}
		if _, err := p.consume(lexer.TokenRParen, ")"); err != nil {
			return nil, err
		}
		expr = &Call{Callee: expr, Args: args, Pos: lparen.Pos}
	}
	return expr, nil
}

func (p *Parser) primary() (Expr, error) {
	tok := p.peek()
	switch tok.Type {
	case lexer.TokenNumber:
		p.advance()
		n, err := strconv.ParseFloat(tok.Lexeme, 64)
		if err != nil {
			return nil, &errors.ParseError{
				Kind:     errors.UnexpectedToken,
				Expected: []string{"number"},
				Found:    tok.Lexeme,
				Pos:      tok.Pos,
			}
		}
		return &Literal{Value: n, Pos: tok.Pos}, nil
	case lexer.TokenString:
		p.advance()
		return &Literal{Value: tok.Lexeme, Pos: tok.Pos}, nil
	case lexer.TokenTrue:
		p.advance()
		return &Literal{Value: true, Pos: tok.Pos}, nil
	case lexer.TokenFalse:
		p.advance()
		return &Literal{Value: false, Pos: tok.Pos}, nil
	case lexer.TokenNull:
		p.advance()
		return &Literal{Value: nil, Pos: tok.Pos}, nil
	case lexer.TokenIdent:
		p.advance()
		return &Variable{Name: tok.Lexeme, Pos: tok.Pos}, nil
	case lexer.TokenLParen:
		p.advance()
		expr, err := p.expression()
		if err != nil {
			return nil, err
		}
		if _, err := p.consume(lexer.TokenRParen, ")"); err != nil {
			return nil, err
		}
		return expr, nil
	case lexer.TokenLBrace:
		return p.block()
	case lexer.TokenIf:
		return p.ifExpr()
	case lexer.TokenWhile:
		return p.whileExpr()
	case lexer.TokenFn:
		return p.funcDecl()
	}
	return nil, p.errUnexpected("expression")
}

// block parses { e; e; ... }. The separator before '}' is optional and the
// block may be empty.
func (p *Parser) block() (Expr, error) {
	lbrace := p.advance() // {
	blk := &Block{Pos: lbrace.Pos}
	for !p.check(lexer.TokenRBrace) {
		expr, err := p.expression()
		if err != nil {
			return nil, err
		}
		blk.Exprs = append(blk.Exprs, expr)
		if !p.match(lexer.TokenSemicolon) {
			break
		}
	}
	if _, err := p.consume(lexer.TokenRBrace, "}"); err != nil {
		return nil, err
	}
	return blk, nil
}

func (p *Parser) ifExpr() (Expr, error) {
	kw := p.advance() // if
	cond, err := p.expression()
	if err != nil {
		return nil, err
	}

	var then Expr
	switch {
	case p.match(lexer.TokenThen):
		then, err = p.expression()
	case p.check(lexer.TokenLBrace):
		then, err = p.block()
	default:
		return nil, p.errUnexpected("then", "{")
	}
	if err != nil {
		return nil, err
	}

	// Else is left nil when absent; the compiler emits the null default.
	var elseBranch Expr
	if p.match(lexer.TokenElse) {
		switch {
		case p.check(lexer.TokenIf):
			elseBranch, err = p.ifExpr()
		case p.check(lexer.TokenLBrace):
			elseBranch, err = p.block()
		default:
			elseBranch, err = p.expression()
		}
		if err != nil {
			return nil, err
		}
	}
	return &If{Cond: cond, Then: then, Else: elseBranch, Pos: kw.Pos}, nil
}

func (p *Parser) whileExpr() (Expr, error) {
	kw := p.advance() // while
	cond, err := p.expression()
	if err != nil {
		return nil, err
	}
	if !p.check(lexer.TokenLBrace) {
		return nil, p.errUnexpected("{")
	}
	body, err := p.block()
	if err != nil {
		return nil, err
	}
	return &While{Cond: cond, Body: body, Pos: kw.Pos}, nil
}

func (p *Parser) funcDecl() (Expr, error) {
	kw := p.advance() // fn
	name, err := p.consume(lexer.TokenIdent, "identifier")
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(lexer.TokenLParen, "("); err != nil {
		return nil, err
	}
	var params []string
	if !p.check(lexer.TokenRParen) {
		for {
			param, err := p.consume(lexer.TokenIdent, "identifier")
			if err != nil {
				return nil, err
			}
			params = append(params, param.Lexeme)
			if !p.match(lexer.TokenComma) {
				break
			}
		}
	}
	if _, err := p.consume(lexer.TokenRParen, ")"); err != nil {
		return nil, err
	}

	var body Expr
	switch {
	case p.match(lexer.TokenArrow):
		body, err = p.expression()
	case p.check(lexer.TokenLBrace):
		body, err = p.block()
	default:
		return nil, p.errUnexpected("->", "{")
	}
	if err != nil {
		return nil, err
	}
	return &FuncDecl{Name: name.Lexeme, Params: params, Body: body, Pos: kw.Pos}, nil
}

func (p *Parser) match(t lexer.TokenType) bool {
	if p.check(t) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) consume(t lexer.TokenType, expected string) (lexer.Token, error) {
	if p.check(t) {
		return p.advance(), nil
	}
	return lexer.Token{}, p.errUnexpected(expected)
}

func (p *Parser) check(t lexer.TokenType) bool {
	return p.peek().Type == t
}

func (p *Parser) checkAny(types ...lexer.TokenType) bool {
	for _, t := range types {
		if p.check(t) {
			return true
		}
	}
	return false
}

func (p *Parser) advance() lexer.Token {
	tok := p.tokens[p.current]
	if !p.isAtEnd() {
		p.current++
	}
	return tok
}

func (p *Parser) peek() lexer.Token {
	return p.tokens[p.current]
}

func (p *Parser) isAtEnd() bool {
	return p.peek().Type == lexer.TokenEOF
}

func (p *Parser) errUnexpected(expected ...string) error {
	tok := p.peek()
	if tok.Type == lexer.TokenEOF {
		return &errors.ParseError{
			Kind:     errors.UnexpectedEndOfInput,
			Expected: expected,
			Pos:      tok.Pos,
		}
	}
	return &errors.ParseError{
		Kind:     errors.UnexpectedToken,
		Expected: expected,
		Found:    tok.Lexeme,
		Pos:      tok.Pos,
	}
}
