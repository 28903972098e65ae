package compiler

import "fmt"

// ---------------------------------------------------------------------------
// Statements: recursive descent over the expression parser
// ---------------------------------------------------------------------------

// parseStatement parses one statement. A lone ';' yields an empty sequence.
func (p *Parser) parseStatement() Expr {
	tok := p.LookAhead(0)
	switch tok.Type {
	case TokenLBrace:
		return p.parseBlock()
	case TokenSemicolon:
		p.Consume()
		return &SequenceExpr{SpanVal: tok.Span()}
	case TokenVar:
		p.Consume()
		return p.endStatement(p.parseVar(tok))
	case TokenIf:
		p.Consume()
		return p.parseIf(tok)
	case TokenWhile:
		p.Consume()
		return p.parseWhile(tok)
	case TokenDo:
		p.Consume()
		return p.parseDoWhile(tok)
	case TokenFor:
		p.Consume()
		return p.parseFor(tok)
	case TokenTry:
		p.Consume()
		return p.parseTry(tok)
	case TokenSwitch:
		p.Consume()
		return p.parseSwitch(tok)
	case TokenBreak:
		p.Consume()
		return p.endStatement(&BreakExpr{SpanVal: tok.Span()})
	case TokenContinue:
		p.Consume()
		return p.endStatement(&ContinueExpr{SpanVal: tok.Span()})
	case TokenReturn:
		p.Consume()
		var value Expr
		if !p.at(TokenSemicolon) && !p.at(TokenRBrace) && !p.at(TokenEOF) {
			value = p.ParseExpression(PrecLowest)
		}
		return p.endStatement(&ReturnExpr{SpanVal: p.spanFrom(tok.Pos), Value: value})
	case TokenThrow:
		p.Consume()
		value := p.ParseExpression(PrecLowest)
		return p.endStatement(&ThrowExpr{SpanVal: p.spanFrom(tok.Pos), Value: value})
	case TokenFunction:
		if p.LookAhead(1).Type == TokenIdentifier {
			p.Consume()
			return parseFunction(p, tok)
		}
	}
	return p.parseExpressionStatement()
}

func (p *Parser) parseExpressionStatement() Expr {
	e := p.ParseExpression(PrecLowest)
	if _, bad := e.(*IllegalExpr); bad {
		p.synchronize()
		return e
	}
	return p.endStatement(e)
}

// endStatement consumes the ';' ending stmt. The ';' may be left out before
// '}' or end of input.
func (p *Parser) endStatement(stmt Expr) Expr {
	if p.Match(TokenSemicolon) || p.at(TokenRBrace) || p.at(TokenEOF) {
		return stmt
	}
	tok := p.LookAhead(0)
	msg := fmt.Sprintf("Expected ';' but found '%s'.", tokenText(tok))
	p.rep.AddError(tok, msg)
	p.synchronize()
	return &IllegalExpr{SpanVal: stmt.Span(), Message: msg, Children: []Expr{stmt}}
}

// parseBlock parses '{' statements '}'.
func (p *Parser) parseBlock() *SequenceExpr {
	open, ok := p.Expect(TokenLBrace)
	if !ok {
		return &SequenceExpr{SpanVal: open.Span()}
	}
	var items []Expr
	for !p.at(TokenRBrace) && !p.at(TokenEOF) {
		if p.Match(TokenSemicolon) {
			continue
		}
		before := p.taken
		if stmt := p.parseStatement(); stmt != nil {
			items = append(items, stmt)
		}
		if p.taken == before {
			p.Consume()
		}
	}
	p.Expect(TokenRBrace)
	return &SequenceExpr{SpanVal: p.spanFrom(open.Pos), Items: items}
}

// parseVar parses the declarations after 'var': a, b = 1, c.
func (p *Parser) parseVar(tok Token) Expr {
	var items []Expr
	for {
		name, ok := p.Expect(TokenIdentifier)
		if !ok {
			return &IllegalExpr{SpanVal: p.spanFrom(tok.Pos), Message: "Expected variable name.", Children: items}
		}
		id := &IdentifierExpr{SpanVal: name.Span(), Name: name.Literal}
		if p.Match(TokenAssign) {
			init := p.ParseExpression(PrecLowest)
			items = append(items, NewAssignExpr(p.spanFrom(name.Pos), id, TokenAssign, init))
		} else {
			items = append(items, id)
		}
		if !p.Match(TokenComma) {
			break
		}
	}
	return &VarExpr{SpanVal: p.spanFrom(tok.Pos), Items: items}
}

// parseCondition parses '(' expression ')'.
func (p *Parser) parseCondition() Expr {
	open, ok := p.Expect(TokenLParen)
	if !ok {
		return &IllegalExpr{SpanVal: open.Span(), Message: "Expected '('."}
	}
	cond := p.ParseExpression(PrecLowest)
	if bad, ok := p.expectClose(TokenRParen, open.Pos, cond); !ok {
		return bad
	}
	return cond
}

func (p *Parser) parseIf(tok Token) Expr {
	cond := p.parseCondition()
	then := p.parseStatement()
	var els Expr
	if p.Match(TokenElse) {
		els = p.parseStatement()
	}
	return &IfExpr{SpanVal: p.spanFrom(tok.Pos), Cond: cond, Then: then, Else: els}
}

func (p *Parser) parseWhile(tok Token) Expr {
	cond := p.parseCondition()
	body := p.parseStatement()
	return &ConditionalLoopExpr{SpanVal: p.spanFrom(tok.Pos), Cond: cond, Body: body}
}

func (p *Parser) parseDoWhile(tok Token) Expr {
	body := p.parseStatement()
	if _, ok := p.Expect(TokenWhile); !ok {
		p.synchronize()
		return &IllegalExpr{SpanVal: p.spanFrom(tok.Pos), Message: "Expected 'while' after do body.", Children: []Expr{body}}
	}
	cond := p.parseCondition()
	p.Match(TokenSemicolon)
	return &ConditionalLoopExpr{SpanVal: p.spanFrom(tok.Pos), Cond: cond, Body: body, PostCondition: true}
}

// parseFor parses both loop forms. A for-in loop is recognised by the
// lookahead '(' var? identifier in.
func (p *Parser) parseFor(tok Token) Expr {
	open, ok := p.Expect(TokenLParen)
	if !ok {
		p.synchronize()
		return &IllegalExpr{SpanVal: open.Span(), Message: "Expected '(' after 'for'."}
	}

	declare := p.at(TokenVar)
	skip := 0
	if declare {
		skip = 1
	}
	if p.LookAhead(skip).Type == TokenIdentifier && p.LookAhead(skip+1).Type == TokenIn {
		if declare {
			p.Consume()
		}
		name := p.Consume()
		p.Consume() // in
		collection := p.ParseExpression(PrecLowest)
		if bad, ok := p.expectClose(TokenRParen, tok.Pos, collection); !ok {
			return bad
		}
		body := p.parseStatement()
		return &ForInExpr{
			SpanVal:    p.spanFrom(tok.Pos),
			Declare:    declare,
			Item:       &IdentifierExpr{SpanVal: name.Span(), Name: name.Literal},
			Collection: collection,
			Body:       body,
		}
	}

	var init, cond, step Expr
	if p.at(TokenVar) {
		init = p.parseVar(p.Consume())
	} else if !p.at(TokenSemicolon) {
		init = p.ParseExpression(PrecLowest)
	}
	if bad, ok := p.expectClose(TokenSemicolon, tok.Pos, nonNil(init)...); !ok {
		p.synchronize()
		return bad
	}
	if !p.at(TokenSemicolon) {
		cond = p.ParseExpression(PrecLowest)
	}
	if bad, ok := p.expectClose(TokenSemicolon, tok.Pos, nonNil(init, cond)...); !ok {
		p.synchronize()
		return bad
	}
	if !p.at(TokenRParen) {
		step = p.ParseExpression(PrecLowest)
	}
	if bad, ok := p.expectClose(TokenRParen, tok.Pos, nonNil(init, cond, step)...); !ok {
		return bad
	}
	body := p.parseStatement()
	return &ForExpr{SpanVal: p.spanFrom(tok.Pos), Init: init, Cond: cond, Step: step, Body: body}
}

func nonNil(exprs ...Expr) []Expr {
	out := exprs[:0:0]
	for _, e := range exprs {
		if e != nil {
			out = append(out, e)
		}
	}
	return out
}

func (p *Parser) parseTry(tok Token) Expr {
	try := p.parseBlock()
	n := &TryCatchFinallyExpr{Try: try}
	if p.Match(TokenCatch) {
		if _, ok := p.Expect(TokenLParen); !ok {
			p.synchronize()
			return &IllegalExpr{SpanVal: p.spanFrom(tok.Pos), Message: "Expected '(' after 'catch'.", Children: []Expr{try}}
		}
		name, ok := p.Expect(TokenIdentifier)
		if !ok {
			p.synchronize()
			return &IllegalExpr{SpanVal: p.spanFrom(tok.Pos), Message: "Expected catch variable.", Children: []Expr{try}}
		}
		n.CatchName = &IdentifierExpr{SpanVal: name.Span(), Name: name.Literal}
		p.Expect(TokenRParen)
		n.Catch = p.parseBlock()
	}
	if p.Match(TokenFinally) {
		n.Finally = p.parseBlock()
	}
	n.SpanVal = p.spanFrom(tok.Pos)
	if n.Catch == nil && n.Finally == nil {
		msg := "Missing catch or finally after try."
		p.rep.AddError(tok, msg)
		return &IllegalExpr{SpanVal: n.SpanVal, Message: msg, Children: []Expr{try}}
	}
	return n
}

func (p *Parser) parseSwitch(tok Token) Expr {
	subject := p.parseCondition()
	if _, ok := p.Expect(TokenLBrace); !ok {
		p.synchronize()
		return &IllegalExpr{SpanVal: p.spanFrom(tok.Pos), Message: "Expected '{' after switch.", Children: []Expr{subject}}
	}

	var cases []*CaseExpr
	seenDefault := false
	for !p.at(TokenRBrace) && !p.at(TokenEOF) {
		label := p.Consume()
		var test Expr
		switch label.Type {
		case TokenCase:
			test = p.ParseExpression(PrecLowest)
		case TokenDefault:
			if seenDefault {
				p.rep.AddError(label, "More than one default clause in switch.")
			}
			seenDefault = true
		default:
			p.rep.AddError(label, fmt.Sprintf("Expected 'case' or 'default' but found '%s'.", tokenText(label)))
			p.synchronize()
			continue
		}
		p.Expect(TokenColon)

		body := &SequenceExpr{SpanVal: p.LookAhead(0).Span()}
		for !p.at(TokenCase) && !p.at(TokenDefault) && !p.at(TokenRBrace) && !p.at(TokenEOF) {
			if p.Match(TokenSemicolon) {
				continue
			}
			before := p.taken
			body.Items = append(body.Items, p.parseStatement())
			if p.taken == before {
				p.Consume()
			}
		}
		body.SpanVal = p.spanFrom(body.SpanVal.Start)
		cases = append(cases, &CaseExpr{SpanVal: p.spanFrom(label.Pos), Test: test, Body: body})
	}
	p.Expect(TokenRBrace)
	return &SwitchExpr{SpanVal: p.spanFrom(tok.Pos), Subject: subject, Cases: cases}
}
