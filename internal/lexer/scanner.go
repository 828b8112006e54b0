package lexer

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/rill-lang/rill/internal/errors"
)

type TokenType string

const (
	// Keywords
	TokenLet   TokenType = "LET"
	TokenFn    TokenType = "FN"
	TokenIf    TokenType = "IF"
	TokenThen  TokenType = "THEN"
	TokenElse  TokenType = "ELSE"
	TokenWhile TokenType = "WHILE"
	TokenAnd   TokenType = "AND"
	TokenOr    TokenType = "OR"

	// Literals
	TokenTrue   TokenType = "TRUE"
	TokenFalse  TokenType = "FALSE"
	TokenNull   TokenType = "NULL"
	TokenIdent  TokenType = "IDENT"
	TokenNumber TokenType = "NUMBER"
	TokenString TokenType = "STRING"

	// Symbols
	TokenLParen      TokenType = "("
	TokenRParen      TokenType = ")"
	TokenLBrace      TokenType = "{"
	TokenRBrace      TokenType = "}"
	TokenPlus        TokenType = "+"
	TokenMinus       TokenType = "-"
	TokenStar        TokenType = "*"
	TokenSlash       TokenType = "/"
	TokenPercent     TokenType = "%"
	TokenEqual       TokenType = "="
	TokenDoubleEqual TokenType = "=="
	TokenNotEqual    TokenType = "!="
	TokenNot         TokenType = "!"
	TokenLT          TokenType = "<"
	TokenGT          TokenType = ">"
	TokenLE          TokenType = "<="
	TokenGE          TokenType = ">="
	TokenArrow       TokenType = "->"
	TokenComma       TokenType = ","
	TokenSemicolon   TokenType = ";"
	TokenEOF         TokenType = "EOF"
)

type Token struct {
	Type   TokenType
	Lexeme string
	Pos    errors.Position
}

func (t Token) String() string {
	return fmt.Sprintf("[%s] '%s'", t.Type, t.Lexeme)
}

var keywords = map[string]TokenType{
	"let":   TokenLet,
	"fn":    TokenFn,
	"if":    TokenIf,
	"then":  TokenThen,
	"else":  TokenElse,
	"while": TokenWhile,
	"and":   TokenAnd,
	"or":    TokenOr,
	"true":  TokenTrue,
	"false": TokenFalse,
	"null":  TokenNull,
}

type Scanner struct {
	source   string
	tokens   []Token
	start    int
	current  int
	line     int
	col      int // column of s.current, 1-based
	startPos errors.Position
}

func NewScanner(source string) *Scanner {
	return &Scanner{
		source: source,
		line:   1,
		col:    1,
	}
}

// ScanTokens lexes the whole source. It stops at the first error; the
// returned token slice is only meaningful when the error is nil.
func (s *Scanner) ScanTokens() ([]Token, error) {
	for {
		s.skipWhitespace()
		if s.isAtEnd() {
			break
		}
		s.start = s.current
		s.startPos = errors.Position{Line: s.line, Column: s.col}
		if err := s.scanToken(); err != nil {
			return nil, err
		}
	}
	s.tokens = append(s.tokens, Token{
		Type: TokenEOF,
		Pos:  errors.Position{Line: s.line, Column: s.col},
	})
	return s.tokens, nil
}

func (s *Scanner) scanToken() error {
	c := s.advance()
	switch c {
	case '(':
		s.addToken(TokenLParen)
	case ')':
		s.addToken(TokenRParen)
	case '{':
		s.addToken(TokenLBrace)
	case '}':
		s.addToken(TokenRBrace)
	case '+':
		s.addToken(TokenPlus)
	case '-':
		if s.match('>') {
			s.addToken(TokenArrow)
		} else {
			s.addToken(TokenMinus)
		}
	case '*':
		s.addToken(TokenStar)
	case '/':
		if s.match('/') {
			for s.peek() != '\n' && !s.isAtEnd() {
				s.advance()
			}
		} else {
			s.addToken(TokenSlash)
		}
	case '%':
		s.addToken(TokenPercent)
	case '=':
		if s.match('=') {
			s.addToken(TokenDoubleEqual)
		} else {
			s.addToken(TokenEqual)
		}
	case '!':
		if s.match('=') {
			s.addToken(TokenNotEqual)
		} else {
			s.addToken(TokenNot)
		}
	case '<':
		if s.match('=') {
			s.addToken(TokenLE)
		} else {
			s.addToken(TokenLT)
		}
	case '>':
		if s.match('=') {
			s.addToken(TokenGE)
		} else {
			s.addToken(TokenGT)
		}
	case ',':
		s.addToken(TokenComma)
	case ';':
		s.addToken(TokenSemicolon)
	case '"':
		return s.string()
	default:
		if isDigit(c) {
			s.number()
			return nil
		}
		if isAlpha(c) {
			s.identifier()
			return nil
		}
		return &errors.LexError{
			Kind: errors.InvalidCharacter,
			Char: rune(c),
			Pos:  s.startPos,
		}
	}
	return nil
}

func (s *Scanner) identifier() {
	for isAlphaNumeric(s.peek()) {
		s.advance()
	}
	text := s.source[s.start:s.current]
	if kw, ok := keywords[text]; ok {
		s.addToken(kw)
		return
	}
	s.addToken(TokenIdent)
}

func (s *Scanner) number() {
	for isDigit(s.peek()) {
		s.advance()
	}
	// Decimal part only when a digit follows the dot.
	if s.peek() == '.' && isDigit(s.peekNext()) {
		s.advance()
		for isDigit(s.peek()) {
			s.advance()
		}
	}
	s.addToken(TokenNumber)
}

func (s *Scanner) string() error {
	var sb strings.Builder
	for !s.isAtEnd() && s.peek() != '"' {
		c := s.advance()
		if c == '\\' {
			if s.isAtEnd() {
				break
			}
			switch e := s.advance(); e {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case '\\':
				sb.WriteByte('\\')
			case '"':
				sb.WriteByte('"')
			default:
				return &errors.LexError{
					Kind: errors.InvalidCharacter,
					Char: rune(e),
					Pos:  errors.Position{Line: s.line, Column: s.col - 1},
				}
			}
			continue
		}
		sb.WriteByte(c)
	}
	if s.isAtEnd() {
		return &errors.LexError{
			Kind: errors.UnterminatedString,
			Pos:  s.startPos,
		}
	}
	s.advance() // closing quote
	s.tokens = append(s.tokens, Token{
		Type:   TokenString,
		Lexeme: sb.String(),
		Pos:    s.startPos,
	})
	return nil
}

func (s *Scanner) addToken(t TokenType) {
	s.tokens = append(s.tokens, Token{
		Type:   t,
		Lexeme: s.source[s.start:s.current],
		Pos:    s.startPos,
	})
}

func (s *Scanner) advance() byte {
	c := s.source[s.current]
	s.current++
	if c == '\n' {
		s.line++
		s.col = 1
	} else {
		s.col++
	}
	return c
}

func (s *Scanner) match(expected byte) bool {
	if s.isAtEnd() || s.source[s.current] != expected {
		return false
	}
	s.advance()
	return true
}

func (s *Scanner) peek() byte {
	if s.isAtEnd() {
		return '\000'
	}
	return s.source[s.current]
}

func (s *Scanner) peekNext() byte {
	if s.current+1 >= len(s.source) {
		return '\000'
	}
	return s.source[s.current+1]
}

func (s *Scanner) isAtEnd() bool {
	return s.current >= len(s.source)
}

func (s *Scanner) skipWhitespace() {
	for !s.isAtEnd() && unicode.IsSpace(rune(s.peek())) {
		s.advance()
	}
}

func isAlpha(c byte) bool {
	return unicode.IsLetter(rune(c)) || c == '_'
}

func isAlphaNumeric(c byte) bool {
	return isAlpha(c) || isDigit(c)
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}
