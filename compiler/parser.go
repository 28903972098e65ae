package compiler

import "fmt"

// ---------------------------------------------------------------------------
// Parser: Pratt parser for kata
// ---------------------------------------------------------------------------

// PrefixParselet parses the construct introduced by tok, which has already
// been consumed.
type PrefixParselet interface {
	Parse(p *Parser, tok Token) Expr
}

// InfixParselet parses the construct introduced by tok following left. tok
// has already been consumed.
type InfixParselet interface {
	Parse(p *Parser, left Expr, tok Token) Expr
	Precedence() int
}

// PrefixFunc adapts a function to PrefixParselet.
type PrefixFunc func(p *Parser, tok Token) Expr

func (f PrefixFunc) Parse(p *Parser, tok Token) Expr { return f(p, tok) }

// InfixFunc adapts a function and a precedence to InfixParselet.
func InfixFunc(prec int, fn func(p *Parser, left Expr, tok Token) Expr) InfixParselet {
	return infixFunc{prec: prec, fn: fn}
}

type infixFunc struct {
	prec int
	fn   func(p *Parser, left Expr, tok Token) Expr
}

func (f infixFunc) Parse(p *Parser, left Expr, tok Token) Expr { return f.fn(p, left, tok) }
func (f infixFunc) Precedence() int                            { return f.prec }

// Parser turns a stream of significant tokens into an AST. Syntax errors are
// recorded in the reporter and represented by IllegalExpr nodes; the parser
// never stops at the first error.
type Parser struct {
	src   TokenReader
	rep   *Reporter
	queue []Token
	last  Token // most recently consumed token
	taken int   // number of tokens consumed so far

	prefix map[TokenType]PrefixParselet
	infix  map[TokenType]InfixParselet
}

// NewParser creates a parser reading from src, which should already be free
// of trivia (wrap a Lexer in a Morpher). Diagnostics go to rep.
func NewParser(src TokenReader, rep *Reporter) *Parser {
	p := &Parser{
		src:    src,
		rep:    rep,
		prefix: make(map[TokenType]PrefixParselet),
		infix:  make(map[TokenType]InfixParselet),
	}
	registerParselets(p)
	return p
}

// RegisterPrefix installs the prefix parselet for t, replacing any existing
// one.
func (p *Parser) RegisterPrefix(t TokenType, parselet PrefixParselet) {
	p.prefix[t] = parselet
}

// RegisterInfix installs the infix parselet for t, replacing any existing
// one.
func (p *Parser) RegisterInfix(t TokenType, parselet InfixParselet) {
	p.infix[t] = parselet
}

// Reporter returns the reporter diagnostics are recorded in.
func (p *Parser) Reporter() *Reporter {
	return p.rep
}

// ---------------------------------------------------------------------------
// Token access
// ---------------------------------------------------------------------------

// LookAhead returns the token distance positions ahead without consuming
// anything. LookAhead(0) is the next token.
func (p *Parser) LookAhead(distance int) Token {
	for len(p.queue) <= distance {
		p.queue = append(p.queue, p.src.ReadToken())
	}
	return p.queue[distance]
}

// Consume removes and returns the next token. At end of input it keeps
// returning the EOF token.
func (p *Parser) Consume() Token {
	tok := p.LookAhead(0)
	if tok.Type != TokenEOF {
		p.queue = p.queue[1:]
	}
	p.last = tok
	p.taken++
	return tok
}

// Match consumes the next token if it is one of types.
func (p *Parser) Match(types ...TokenType) bool {
	next := p.LookAhead(0).Type
	for _, t := range types {
		if next == t {
			p.Consume()
			return true
		}
	}
	return false
}

// Expect consumes the next token if it has type t. Otherwise it records a
// syntax error, leaves the token in place and returns it with false.
func (p *Parser) Expect(t TokenType) (Token, bool) {
	tok := p.LookAhead(0)
	if tok.Type == t {
		return p.Consume(), true
	}
	if tok.Type == TokenIllegal && tok.Message != "" {
		p.rep.AddError(tok, tok.Message)
	} else {
		p.rep.AddError(tok, fmt.Sprintf("Expected '%s' but found '%s'.", t, tokenText(tok)))
	}
	return tok, false
}

func (p *Parser) at(t TokenType) bool {
	return p.LookAhead(0).Type == t
}

// spanFrom returns the span from start to the end of the last consumed
// token.
func (p *Parser) spanFrom(start Position) Span {
	end := p.last.End
	if end.Offset < start.Offset {
		end = start
	}
	return Span{Start: start, End: end}
}

// tokenText renders a token for a diagnostic.
func tokenText(tok Token) string {
	switch {
	case tok.Type == TokenEOF:
		return "end of input"
	case tok.Type == TokenString:
		return fmt.Sprintf("%q", tok.Literal)
	case tok.Literal != "":
		return tok.Literal
	}
	return tok.Type.String()
}

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

// ParseExpression parses an expression whose infix operators all bind
// tighter than minPrecedence.
func (p *Parser) ParseExpression(minPrecedence int) Expr {
	tok := p.LookAhead(0)
	prefix, ok := p.prefix[tok.Type]
	if !ok {
		msg := fmt.Sprintf("Not able to parse '%s'.", tokenText(tok))
		p.rep.AddError(tok, msg)
		if !isRecoveryPoint(tok.Type) {
			p.Consume()
		}
		return &IllegalExpr{SpanVal: tok.Span(), Message: msg}
	}
	p.Consume()
	left := prefix.Parse(p, tok)

	for minPrecedence < p.nextPrecedence() {
		tok = p.Consume()
		left = p.infix[tok.Type].Parse(p, left, tok)
	}
	return left
}

func (p *Parser) nextPrecedence() int {
	if infix, ok := p.infix[p.LookAhead(0).Type]; ok {
		return infix.Precedence()
	}
	return PrecLowest
}

// isRecoveryPoint reports whether t closes an enclosing construct. The
// expression parser never consumes such a token when it cannot use it.
func isRecoveryPoint(t TokenType) bool {
	switch t {
	case TokenEOF, TokenSemicolon, TokenRParen, TokenRBracket, TokenRBrace, TokenComma, TokenColon:
		return true
	}
	return false
}

// synchronize skips tokens up to and including the next ';', or up to the
// next '}' or end of input.
func (p *Parser) synchronize() {
	for {
		switch p.LookAhead(0).Type {
		case TokenEOF, TokenRBrace:
			return
		case TokenSemicolon:
			p.Consume()
			return
		}
		p.Consume()
	}
}

// ---------------------------------------------------------------------------
// Entry points
// ---------------------------------------------------------------------------

// ParseProgram parses statements until end of input.
func (p *Parser) ParseProgram() []Expr {
	var program []Expr
	for !p.at(TokenEOF) {
		if p.Match(TokenSemicolon) {
			continue
		}
		if tok := p.LookAhead(0); tok.Type == TokenRBrace {
			p.rep.AddError(tok, "Unexpected '}'.")
			p.Consume()
			continue
		}
		before := p.taken
		if stmt := p.parseStatement(); stmt != nil {
			program = append(program, stmt)
		}
		if p.taken == before {
			p.Consume()
		}
	}
	return program
}

// Parse parses a whole program from src, recording diagnostics in rep.
func Parse(src TokenReader, rep *Reporter) []Expr {
	return NewParser(src, rep).ParseProgram()
}

// ParseString lexes and parses source.
func ParseString(source string) ([]Expr, *Reporter) {
	rep := NewReporter()
	program := Parse(NewMorpher(NewLexerString(source)), rep)
	return program, rep
}
