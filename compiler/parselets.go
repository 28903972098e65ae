package compiler

import "fmt"

// ---------------------------------------------------------------------------
// Parselets
// ---------------------------------------------------------------------------

// registerParselets installs the parselets for the kata expression grammar.
func registerParselets(p *Parser) {
	p.RegisterPrefix(TokenIdentifier, PrefixFunc(parseIdentifier))
	p.RegisterPrefix(TokenThis, PrefixFunc(parseIdentifier))
	for _, t := range []TokenType{TokenNumber, TokenString, TokenRegEx, TokenTrue, TokenFalse, TokenNull} {
		p.RegisterPrefix(t, PrefixFunc(parseConstant))
	}
	p.RegisterPrefix(TokenIllegal, PrefixFunc(parseIllegal))
	p.RegisterPrefix(TokenLParen, PrefixFunc(parseGroup))
	p.RegisterPrefix(TokenLBracket, PrefixFunc(parseArrayLiteral))
	p.RegisterPrefix(TokenLBrace, PrefixFunc(parseObjectLiteral))
	p.RegisterPrefix(TokenFunction, PrefixFunc(parseFunction))
	p.RegisterPrefix(TokenNew, PrefixFunc(parseNew))
	for _, t := range prefixOperators {
		p.RegisterPrefix(t, PrefixOperatorParselet{Prec: PrecPrefix})
	}

	for t, prec := range binaryPrecedences {
		p.RegisterInfix(t, BinaryOperatorParselet{Prec: prec})
	}
	for _, t := range postfixOperators {
		p.RegisterInfix(t, PostfixOperatorParselet{Prec: PrecPostfix})
	}
	for t := TokenAssign; t <= TokenXorAssign; t++ {
		p.RegisterInfix(t, AssignParselet{})
	}
	p.RegisterInfix(TokenQuestion, ConditionalParselet{})
	p.RegisterInfix(TokenLParen, InfixFunc(PrecCall, parseCall))
	p.RegisterInfix(TokenLBracket, InfixFunc(PrecAccessor, parseAccessor))
	p.RegisterInfix(TokenDot, InfixFunc(PrecAccessor, parseMember))
}

// expectClose consumes the closing token t of the construct that started at
// start. When t is missing the error is recorded and the parsed children are
// returned inside an IllegalExpr.
func (p *Parser) expectClose(t TokenType, start Position, children ...Expr) (*IllegalExpr, bool) {
	tok, ok := p.Expect(t)
	if ok {
		return nil, true
	}
	return &IllegalExpr{
		SpanVal:  p.spanFrom(start),
		Message:  fmt.Sprintf("Expected '%s' but found '%s'.", t, tokenText(tok)),
		Children: children,
	}, false
}

func parseIdentifier(p *Parser, tok Token) Expr {
	return &IdentifierExpr{SpanVal: tok.Span(), Name: tok.Literal}
}

var constantTypes = map[TokenType]ConstantType{
	TokenNumber: ConstNumber,
	TokenString: ConstString,
	TokenRegEx:  ConstRegEx,
	TokenTrue:   ConstBoolean,
	TokenFalse:  ConstBoolean,
	TokenNull:   ConstNull,
}

func parseConstant(p *Parser, tok Token) Expr {
	return &ConstantExpr{SpanVal: tok.Span(), Literal: tok.Literal, Type: constantTypes[tok.Type]}
}

// parseIllegal reports a lexical error carried by an Illegal token.
func parseIllegal(p *Parser, tok Token) Expr {
	msg := tok.Message
	if msg == "" {
		msg = fmt.Sprintf("Not able to parse '%s'.", tokenText(tok))
	}
	p.rep.AddError(tok, msg)
	return &IllegalExpr{SpanVal: tok.Span(), Message: msg}
}

func parseGroup(p *Parser, tok Token) Expr {
	e := p.ParseExpression(PrecLowest)
	if bad, ok := p.expectClose(TokenRParen, tok.Pos, e); !ok {
		return bad
	}
	return e
}

// parseList parses comma separated expressions up to the closing token,
// which is consumed. A trailing comma is allowed.
func (p *Parser) parseList(close TokenType, start Position) ([]Expr, *IllegalExpr) {
	var items []Expr
	for !p.at(close) && !p.at(TokenEOF) {
		items = append(items, p.ParseExpression(PrecLowest))
		if !p.Match(TokenComma) {
			break
		}
	}
	if bad, ok := p.expectClose(close, start, items...); !ok {
		return items, bad
	}
	return items, nil
}

func parseArrayLiteral(p *Parser, tok Token) Expr {
	elements, bad := p.parseList(TokenRBracket, tok.Pos)
	if bad != nil {
		return bad
	}
	return &ArrayLiteralExpr{SpanVal: p.spanFrom(tok.Pos), Elements: elements}
}

func parseObjectLiteral(p *Parser, tok Token) Expr {
	var members []*DefinitionExpr
	children := func() []Expr {
		out := make([]Expr, len(members))
		for i, m := range members {
			out[i] = m
		}
		return out
	}

	for !p.at(TokenRBrace) && !p.at(TokenEOF) {
		key := p.LookAhead(0)
		if !isPropertyName(key.Type) {
			msg := fmt.Sprintf("Invalid property name '%s'.", tokenText(key))
			p.rep.AddError(key, msg)
			return &IllegalExpr{SpanVal: p.spanFrom(tok.Pos), Message: msg, Children: children()}
		}
		p.Consume()
		if bad, ok := p.expectClose(TokenColon, key.Pos, children()...); !ok {
			return bad
		}
		value := p.ParseExpression(PrecLowest)
		members = append(members, &DefinitionExpr{SpanVal: p.spanFrom(key.Pos), Key: key.Literal, Value: value})
		if !p.Match(TokenComma) {
			break
		}
	}
	if bad, ok := p.expectClose(TokenRBrace, tok.Pos, children()...); !ok {
		return bad
	}
	return &ObjectLiteralExpr{SpanVal: p.spanFrom(tok.Pos), Members: members}
}

func isPropertyName(t TokenType) bool {
	return t == TokenIdentifier || t == TokenString || t == TokenNumber || t.IsKeyword()
}

// parseFunction parses a function literal or declaration; the 'function'
// keyword has been consumed.
func parseFunction(p *Parser, tok Token) Expr {
	var name *IdentifierExpr
	if next := p.LookAhead(0); next.Type == TokenIdentifier {
		p.Consume()
		name = &IdentifierExpr{SpanVal: next.Span(), Name: next.Literal}
	}

	if bad, ok := p.expectClose(TokenLParen, tok.Pos); !ok {
		return bad
	}
	var params []*IdentifierExpr
	for !p.at(TokenRParen) && !p.at(TokenEOF) {
		ptok, ok := p.Expect(TokenIdentifier)
		if !ok {
			return &IllegalExpr{SpanVal: p.spanFrom(tok.Pos), Message: "Invalid parameter list."}
		}
		params = append(params, &IdentifierExpr{SpanVal: ptok.Span(), Name: ptok.Literal})
		if !p.Match(TokenComma) {
			break
		}
	}
	if bad, ok := p.expectClose(TokenRParen, tok.Pos); !ok {
		return bad
	}

	body := p.parseBlock()
	return &MethodExpr{SpanVal: p.spanFrom(tok.Pos), Name: name, Params: params, Body: body}
}

// parseNew parses 'new' Callee(args). The arguments may be omitted.
func parseNew(p *Parser, tok Token) Expr {
	callee := p.ParseExpression(PrecNew)
	var args []Expr
	if p.at(TokenLParen) {
		open := p.Consume()
		var bad *IllegalExpr
		args, bad = p.parseList(TokenRParen, open.Pos)
		if bad != nil {
			bad.Children = append([]Expr{callee}, bad.Children...)
			return bad
		}
	}
	span := p.spanFrom(tok.Pos)
	call := &CallExpr{SpanVal: Span{Start: callee.Span().Start, End: span.End}, Callee: callee, Args: args}
	return NewNewExpr(span, call)
}

func parseCall(p *Parser, left Expr, tok Token) Expr {
	args, bad := p.parseList(TokenRParen, tok.Pos)
	if bad != nil {
		bad.Children = append([]Expr{left}, bad.Children...)
		return bad
	}
	return &CallExpr{SpanVal: p.spanFrom(left.Span().Start), Callee: left, Args: args}
}

func parseAccessor(p *Parser, left Expr, tok Token) Expr {
	index := p.ParseExpression(PrecLowest)
	if bad, ok := p.expectClose(TokenRBracket, left.Span().Start, left, index); !ok {
		return bad
	}
	return &AccessorExpr{SpanVal: p.spanFrom(left.Span().Start), Member: left, Index: index}
}

// parseMember parses left.name. Keywords are valid member names.
func parseMember(p *Parser, left Expr, tok Token) Expr {
	name := p.LookAhead(0)
	if name.Type != TokenIdentifier && !name.Type.IsKeyword() {
		msg := fmt.Sprintf("Expected property name after '.' but found '%s'.", tokenText(name))
		p.rep.AddError(name, msg)
		return &IllegalExpr{SpanVal: p.spanFrom(left.Span().Start), Message: msg, Children: []Expr{left}}
	}
	p.Consume()
	return &IdentifierPartExpr{
		SpanVal: p.spanFrom(left.Span().Start),
		Object:  left,
		Member:  &IdentifierExpr{SpanVal: name.Span(), Name: name.Literal},
	}
}

// ---------------------------------------------------------------------------
// Operator parselets
// ---------------------------------------------------------------------------

// PrefixOperatorParselet parses a unary prefix operator whose operand binds
// at Prec.
type PrefixOperatorParselet struct {
	Prec int
}

func (o PrefixOperatorParselet) Parse(p *Parser, tok Token) Expr {
	right := p.ParseExpression(o.Prec)
	span := p.spanFrom(tok.Pos)
	if isUpdateOperator(tok.Type) && !IsLValue(right) {
		return p.invalidOperand(tok, span, right)
	}
	return &PrefixExpr{SpanVal: span, Operator: tok.Type, Right: right}
}

// PostfixOperatorParselet parses a unary postfix operator.
type PostfixOperatorParselet struct {
	Prec int
}

func (o PostfixOperatorParselet) Parse(p *Parser, left Expr, tok Token) Expr {
	span := p.spanFrom(left.Span().Start)
	if isUpdateOperator(tok.Type) && !IsLValue(left) {
		return p.invalidOperand(tok, span, left)
	}
	return &PostfixExpr{SpanVal: span, Left: left, Operator: tok.Type}
}

func (o PostfixOperatorParselet) Precedence() int { return o.Prec }

func isUpdateOperator(t TokenType) bool {
	return t == TokenIncrement || t == TokenDecrement
}

func (p *Parser) invalidOperand(tok Token, span Span, operand Expr) Expr {
	msg := fmt.Sprintf("Invalid operand for '%s'.", tok.Type)
	p.rep.AddError(operand, msg)
	return &IllegalExpr{SpanVal: span, Message: msg, Children: []Expr{operand}}
}

// BinaryOperatorParselet parses a binary infix operator. Right associative
// operators parse their right operand one level lower.
type BinaryOperatorParselet struct {
	Prec       int
	RightAssoc bool
}

func (o BinaryOperatorParselet) Parse(p *Parser, left Expr, tok Token) Expr {
	prec := o.Prec
	if o.RightAssoc {
		prec--
	}
	right := p.ParseExpression(prec)
	return &BinaryOperatorExpr{SpanVal: p.spanFrom(left.Span().Start), Left: left, Operator: tok.Type, Right: right}
}

func (o BinaryOperatorParselet) Precedence() int { return o.Prec }

// AssignParselet parses = and the compound assignments, right associative.
type AssignParselet struct{}

func (AssignParselet) Parse(p *Parser, left Expr, tok Token) Expr {
	right := p.ParseExpression(PrecAssignment - 1)
	span := p.spanFrom(left.Span().Start)
	if !IsLValue(left) {
		msg := "Invalid left-hand side in assignment."
		p.rep.AddError(left, msg)
		return &IllegalExpr{SpanVal: span, Message: msg, Children: []Expr{left, right}}
	}
	return NewAssignExpr(span, left, tok.Type, right)
}

func (AssignParselet) Precedence() int { return PrecAssignment }

// ConditionalParselet parses cond ? then : else, right associative.
type ConditionalParselet struct{}

func (ConditionalParselet) Parse(p *Parser, left Expr, tok Token) Expr {
	then := p.ParseExpression(PrecLowest)
	if bad, ok := p.expectClose(TokenColon, left.Span().Start, left, then); !ok {
		return bad
	}
	els := p.ParseExpression(PrecConditional - 1)
	return &ConditionalExpr{SpanVal: p.spanFrom(left.Span().Start), Cond: left, Then: then, Else: els}
}

func (ConditionalParselet) Precedence() int { return PrecConditional }
