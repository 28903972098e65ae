package compiler

import (
	"strings"
	"testing"
)

// parseOne parses input and returns its only statement.
func parseOne(t *testing.T, input string) Expr {
	t.Helper()
	program, rep := ParseString(input)
	if rep.NumberOfErrors() > 0 {
		t.Fatalf("Parse(%q) errors:\n%s", input, rep.Render(input))
	}
	if len(program) != 1 {
		t.Fatalf("Parse(%q): %d statements, want 1", input, len(program))
	}
	return program[0]
}

func TestParseExpressionPrecedence(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"a + b * c", "(a + (b * c))"},
		{"(a + b) * c", "((a + b) * c)"},
		{"a - b - c", "((a - b) - c)"},
		{"a = b = c", "(a = (b = c))"},
		{"x += y *= 2", "(x += (y *= 2))"},
		{"-a!", "(-(a!))"},
		{"!!!a", "(!(!(!a)))"},
		{"~!-+a", "(~(!(-(+a))))"},
		{"a ? b : c ? d : e", "(a ? b : (c ? d : e))"},
		{"a || b && c", "(a || (b && c))"},
		{"a | b ^ c & d", "(a | (b ^ (c & d)))"},
		{"a == b < c", "(a == (b < c))"},
		{"a << 1 + 2", "(a << (1 + 2))"},
		{"a % b * c / d", "(((a % b) * c) / d)"},
		{"a++ + b", "((a++) + b)"},
		{"++a * 2", "((++a) * 2)"},
		{"typeof a == \"x\"", `((typeof a) == "x")`},
		{"a in b && c instanceof d", "((a in b) && (c instanceof d))"},
		{"a.b.c(1, 2)", "a.b.c(1, 2)"},
		{"a[1][2]", "a[1][2]"},
		{"f(a)[0].b", "f(a)[0].b"},
		{"a.if", "a.if"},
		{"-a.b", "(-a.b)"},
		{"new Foo(1)", "(new Foo(1))"},
		{"new a.b", "(new a.b())"},
		{"new Foo().bar", "(new Foo()).bar"},
		{"[1, 2, [3]]", "[1, 2, [3]]"},
		{"[1, 2,]", "[1, 2]"},
		{"({a: 1, 'b': 2, 3: c})", "{a: 1, b: 2, 3: c}"},
		{"f()", "f()"},
		{"x = function (a, b) { return a + b; }", "(x = function(a, b) {return (a + b)})"},
		{"a = 2 + 3 > 1 ? 2 + 3 : 3 + 4", "(a = (((2 + 3) > 1) ? (2 + 3) : (3 + 4)))"},
		{"r = /ab+c/g", "(r = /ab+c/g)"},
		{"this.x = null", "(this.x = null)"},
	}

	for _, tc := range tests {
		got := parseOne(t, tc.input).String()
		if got != tc.want {
			t.Errorf("Parse(%q) = %s, want %s", tc.input, got, tc.want)
		}
	}
}

func TestParseStatements(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"if (a) b; else c;", "if (a) b else c"},
		{"if (a < 1) { b(); }", "if (a < 1) {b()}"},
		{"while (a) { b(); }", "while (a) {b()}"},
		{"do { x++; } while (x < 10);", "do {(x++)} while (x < 10)"},
		{"for (var i = 0; i < 10; i++) {}", "for (var (i = 0); (i < 10); (i++)) {}"},
		{"for (;;) break;", "for (; ; ) break"},
		{"for (var k in o) {}", "for (var k in o) {}"},
		{"for (k in o) f(k);", "for (k in o) f(k)"},
		{"try { a(); } catch (e) { b(); } finally { c(); }", "try {a()} catch (e) {b()} finally {c()}"},
		{"try { a(); } finally { c(); }", "try {a()} finally {c()}"},
		{"switch (x) { case 1: a(); break; default: b(); }", "switch (x) {case 1: {a(); break} default: {b()}}"},
		{"var a, b = 2;", "var a, (b = 2)"},
		{"function f(a) { return a; }", "function f(a) {return a}"},
		{"{ a; b }", "{a; b}"},
		{"throw e;", "throw e"},
		{"return", "return"},
		{"continue;", "continue"},
	}

	for _, tc := range tests {
		got := parseOne(t, tc.input).String()
		if got != tc.want {
			t.Errorf("Parse(%q) = %s, want %s", tc.input, got, tc.want)
		}
	}
}

func TestParseStatementNodes(t *testing.T) {
	if n, ok := parseOne(t, "do a(); while (b)").(*ConditionalLoopExpr); !ok || !n.PostCondition {
		t.Errorf("do-while: got %#v", n)
	}
	if n, ok := parseOne(t, "while (b) a();").(*ConditionalLoopExpr); !ok || n.PostCondition {
		t.Errorf("while: got %#v", n)
	}
	if n, ok := parseOne(t, "for (var x in y) {}").(*ForInExpr); !ok || !n.Declare || n.Item.Name != "x" {
		t.Errorf("for-in: got %#v", n)
	}
	if _, ok := parseOne(t, "for (x = 0; x < 1; x++) {}").(*ForExpr); !ok {
		t.Error("three clause for not recognised")
	}
	sw, ok := parseOne(t, "switch (x) { case 1: case 2: a(); default: }").(*SwitchExpr)
	if !ok {
		t.Fatal("switch not parsed")
	}
	if len(sw.Cases) != 3 || sw.Cases[2].Test != nil || len(sw.Cases[0].Body.Items) != 0 {
		t.Errorf("switch cases = %s", sw)
	}
}

func TestParseSemicolonOptionalBeforeBrace(t *testing.T) {
	program, rep := ParseString("function f() { return 1 } a = 2")
	if rep.NumberOfErrors() != 0 {
		t.Fatalf("errors:\n%s", rep.Render(""))
	}
	if len(program) != 2 {
		t.Fatalf("got %d statements", len(program))
	}
}

func TestParseEmptyStatements(t *testing.T) {
	program, rep := ParseString(";;a;;")
	if rep.NumberOfErrors() != 0 || len(program) != 1 {
		t.Errorf("got %v with %d errors", program, rep.NumberOfErrors())
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		input string
		msg   string
	}{
		{"a + ;", "Not able to parse ';'."},
		{"1 = 2;", "Invalid left-hand side in assignment."},
		{"f(a, b", "Expected ')' but found 'end of input'."},
		{"a b", "Expected ';' but found 'b'."},
		{"}", "Unexpected '}'."},
		{"try {}", "Missing catch or finally after try."},
		{"a.+", "Expected property name after '.' but found '+'."},
		{"({a 1})", "Expected ':' but found '1'."},
		{"++1", "Invalid operand for '++'."},
		{"x = 'abc", "Unterminated string literal."},
		{"var class = 1;", "'class' is a future reserved keyword."},
		{"switch (x) { foo: }", "Expected 'case' or 'default' but found 'foo'."},
		{"switch (x) { default: default: }", "More than one default clause in switch."},
		{"a = [1, 2", "Expected ']' but found 'end of input'."},
	}

	for _, tc := range tests {
		_, rep := ParseString(tc.input)
		if rep.NumberOfErrors() == 0 {
			t.Errorf("Parse(%q): no errors", tc.input)
			continue
		}
		found := false
		for _, d := range rep.Diagnostics() {
			if d.Message == tc.msg {
				found = true
			}
		}
		if !found {
			t.Errorf("Parse(%q): missing %q in\n%s", tc.input, tc.msg, rep.Render(tc.input))
		}
	}
}

func TestParseRecoversAndContinues(t *testing.T) {
	input := "a = ); b = ]; c = 1;"
	program, rep := ParseString(input)
	if rep.NumberOfErrors() < 2 {
		t.Errorf("got %d errors, want at least 2", rep.NumberOfErrors())
	}
	if len(program) != 3 {
		t.Fatalf("got %d statements, want 3: %v", len(program), program)
	}
	if got := program[2].String(); got != "(c = 1)" {
		t.Errorf("last statement = %s, want (c = 1)", got)
	}
}

func TestParseIllegalKeepsChildren(t *testing.T) {
	program, _ := ParseString("f(a, b")
	ill, ok := program[0].(*IllegalExpr)
	if !ok {
		t.Fatalf("got %T, want *IllegalExpr", program[0])
	}
	if len(ill.Children) != 3 {
		t.Errorf("children = %v, want callee and both arguments", ill.Children)
	}
}

func TestParseSpans(t *testing.T) {
	e := parseOne(t, "  foo + bar")
	span := e.Span()
	if span.Start.Column != 3 || span.End.Column != 12 {
		t.Errorf("span = %s..%s, want 1:3..1:12", span.Start, span.End)
	}
}

type sliceReader struct {
	toks []Token
}

func (s *sliceReader) ReadToken() Token {
	if len(s.toks) == 0 {
		return Token{Type: TokenEOF}
	}
	tok := s.toks[0]
	s.toks = s.toks[1:]
	return tok
}

func TestParserTokenPrimitives(t *testing.T) {
	src := &sliceReader{toks: []Token{
		{Type: TokenIdentifier, Literal: "a"},
		{Type: TokenPlus, Literal: "+"},
		{Type: TokenIdentifier, Literal: "b"},
	}}
	p := NewParser(src, NewReporter())

	if tok := p.LookAhead(2); tok.Literal != "b" {
		t.Errorf("LookAhead(2) = %v", tok)
	}
	if tok := p.LookAhead(5); tok.Type != TokenEOF {
		t.Errorf("LookAhead(5) = %v", tok)
	}
	if p.Match(TokenPlus) {
		t.Error("Match(+) succeeded on identifier")
	}
	if tok := p.Consume(); tok.Literal != "a" {
		t.Errorf("Consume() = %v", tok)
	}
	if !p.Match(TokenMinus, TokenPlus) {
		t.Error("Match(-, +) failed on +")
	}
	if _, ok := p.Expect(TokenNumber); ok {
		t.Error("Expect(NUMBER) succeeded on identifier")
	}
	if p.Reporter().NumberOfErrors() != 1 {
		t.Errorf("Expect failure recorded %d errors", p.Reporter().NumberOfErrors())
	}
	p.Consume()
	for i := 0; i < 3; i++ {
		if tok := p.Consume(); tok.Type != TokenEOF {
			t.Fatalf("Consume past end = %v", tok)
		}
	}
}

func TestRegisterInfixOverrides(t *testing.T) {
	src := NewMorpher(NewLexerString("a % b % c"))
	p := NewParser(src, NewReporter())
	p.RegisterInfix(TokenPercent, BinaryOperatorParselet{Prec: PrecProduct, RightAssoc: true})
	if got := p.ParseExpression(PrecLowest).String(); got != "(a % (b % c))" {
		t.Errorf("got %s", got)
	}
}

func TestRegisterPrefix(t *testing.T) {
	src := NewMorpher(NewLexerString("with x"))
	p := NewParser(src, NewReporter())
	p.RegisterPrefix(TokenWith, PrefixFunc(func(p *Parser, tok Token) Expr {
		operand := p.ParseExpression(PrecPrefix)
		return &CallExpr{SpanVal: p.spanFrom(tok.Pos), Callee: &IdentifierExpr{Name: "with"}, Args: []Expr{operand}}
	}))
	if got := p.ParseExpression(PrecLowest).String(); got != "with(x)" {
		t.Errorf("got %s", got)
	}
}

func TestContractViolationsPanic(t *testing.T) {
	mustPanic := func(name string, fn func()) {
		t.Helper()
		defer func() {
			if recover() == nil {
				t.Errorf("%s did not panic", name)
			}
		}()
		fn()
	}
	mustPanic("NewAssignExpr(constant)", func() {
		NewAssignExpr(Span{}, &ConstantExpr{Literal: "1", Type: ConstNumber}, TokenAssign, &IdentifierExpr{Name: "a"})
	})
	mustPanic("NewAssignExpr(+)", func() {
		NewAssignExpr(Span{}, &IdentifierExpr{Name: "a"}, TokenPlus, &IdentifierExpr{Name: "b"})
	})
	mustPanic("NewNewExpr(identifier)", func() {
		NewNewExpr(Span{}, &IdentifierExpr{Name: "Foo"})
	})
}

func TestParseDeepNesting(t *testing.T) {
	input := strings.Repeat("(", 200) + "a" + strings.Repeat(")", 200)
	if got := parseOne(t, input).String(); got != "a" {
		t.Errorf("got %s", got)
	}
}
