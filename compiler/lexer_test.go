package compiler

import (
	"strings"
	"testing"
)

// significant lexes input through a Morpher and returns every token up to
// and including EOF.
func significant(input string) []Token {
	m := NewMorpher(NewLexerString(input))
	var toks []Token
	for {
		tok := m.ReadToken()
		toks = append(toks, tok)
		if tok.Type == TokenEOF {
			return toks
		}
	}
}

func TestLexerPunctuators(t *testing.T) {
	input := `( ) [ ] { } . ; , ? : >>>= >>> >>= >> >= > <<= << <= < === == = !== != ++ += -- -= && &= || |= ^= ~ %=`
	expected := []TokenType{
		TokenLParen, TokenRParen, TokenLBracket, TokenRBracket, TokenLBrace, TokenRBrace,
		TokenDot, TokenSemicolon, TokenComma, TokenQuestion, TokenColon,
		TokenShrUAssign, TokenShiftRightU, TokenShrAssign, TokenShiftRight, TokenGreaterEqual, TokenGreater,
		TokenShlAssign, TokenShiftLeft, TokenLessEqual, TokenLess,
		TokenStrictEqual, TokenEqual, TokenAssign, TokenStrictNotEq, TokenNotEqual,
		TokenIncrement, TokenPlusAssign, TokenDecrement, TokenMinusAssign,
		TokenAnd, TokenAndAssign, TokenOr, TokenOrAssign, TokenXorAssign, TokenTilde, TokenPercentAssign,
		TokenEOF,
	}

	toks := significant(input)
	if len(toks) != len(expected) {
		t.Fatalf("got %d tokens, want %d: %v", len(toks), len(expected), toks)
	}
	for i, want := range expected {
		if toks[i].Type != want {
			t.Errorf("token[%d] = %v, want %v", i, toks[i].Type, want)
		}
	}
}

func TestLexerGreedyWithoutSpaces(t *testing.T) {
	toks := significant("a>>>=b")
	want := []TokenType{TokenIdentifier, TokenShrUAssign, TokenIdentifier, TokenEOF}
	for i, typ := range want {
		if toks[i].Type != typ {
			t.Errorf("token[%d] = %v, want %v", i, toks[i].Type, typ)
		}
	}
}

func TestLexerSplitsBangs(t *testing.T) {
	toks := significant("!!!a")
	want := []TokenType{TokenBang, TokenBang, TokenBang, TokenIdentifier, TokenEOF}
	if len(toks) != len(want) {
		t.Fatalf("got %v", toks)
	}
	for i, typ := range want {
		if toks[i].Type != typ {
			t.Errorf("token[%d] = %v, want %v", i, toks[i].Type, typ)
		}
	}

	// != still lexes as one operator.
	if toks := significant("a != b"); toks[1].Type != TokenNotEqual {
		t.Errorf("a != b: got %v, want !=", toks[1].Type)
	}
}

func TestLexerNumbers(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"42", "42"},
		{"0", "0"},
		{"3.14", "3.14"},
		{".5", ".5"},
		{"1e10", "1e10"},
		{"1.5e-3", "1.5e-3"},
		{"2.0E+5", "2.0E+5"},
		{"0xFF", "0xFF"},
		{"0x06", "0x06"},
	}

	for _, tc := range tests {
		toks := significant(tc.input)
		if toks[0].Type != TokenNumber {
			t.Errorf("Lexer(%q): type = %v, want NUMBER", tc.input, toks[0].Type)
			continue
		}
		if toks[0].Literal != tc.want {
			t.Errorf("Lexer(%q): literal = %q, want %q", tc.input, toks[0].Literal, tc.want)
		}
		if toks[1].Type != TokenEOF {
			t.Errorf("Lexer(%q): trailing token %v", tc.input, toks[1])
		}
	}
}

func TestLexerNumberPunctuationOnce(t *testing.T) {
	tests := []struct {
		input string
		first string
		next  TokenType
	}{
		{"1.5.3", "1.5", TokenNumber},
		{"1e5e3", "1e5", TokenIdentifier},
		{"0x1F+2", "0x1F", TokenPlus},
		{"0xA.b", "0xA", TokenDot},
		{"1e-", "1", TokenIdentifier},
	}
	for _, tc := range tests {
		toks := significant(tc.input)
		if toks[0].Literal != tc.first {
			t.Errorf("Lexer(%q): first = %q, want %q", tc.input, toks[0].Literal, tc.first)
		}
		if toks[1].Type != tc.next {
			t.Errorf("Lexer(%q): second = %v, want %v", tc.input, toks[1].Type, tc.next)
		}
	}
}

func TestLexerMalformedHex(t *testing.T) {
	toks := significant("0x")
	if toks[0].Type != TokenIllegal || toks[0].Message != "Malformed hexadecimal literal." {
		t.Errorf("got %v", toks[0])
	}
}

func TestLexerStrings(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{`'hello'`, "hello"},
		{`"hello"`, "hello"},
		{`''`, ""},
		{`'it\'s'`, "it's"},
		{`"say \"hi\""`, `say "hi"`},
		{`'a"b'`, `a"b`},
		{`"a'b"`, `a'b`},
		{`'\n\r\t\\\0'`, "\n\r\t\\\x00"},
		{`'\q'`, "q"},
		{`'héllo'`, "héllo"},
	}

	for _, tc := range tests {
		toks := significant(tc.input)
		if toks[0].Type != TokenString {
			t.Errorf("Lexer(%s): type = %v, want STRING", tc.input, toks[0])
			continue
		}
		if toks[0].Literal != tc.want {
			t.Errorf("Lexer(%s): literal = %q, want %q", tc.input, toks[0].Literal, tc.want)
		}
	}
}

func TestLexerUnterminatedString(t *testing.T) {
	for _, input := range []string{`'abc`, `"abc`, "'abc\n'", `'abc\`} {
		toks := significant(input)
		if toks[0].Type != TokenIllegal || toks[0].Message != "Unterminated string literal." {
			t.Errorf("Lexer(%q): got %v, want unterminated string", input, toks[0])
		}
	}
}

func TestLexerInvalidUTF8InString(t *testing.T) {
	toks := significant("s = \"a\xffbc\"; x = 1;")
	want := []TokenType{TokenIdentifier, TokenAssign, TokenString, TokenSemicolon,
		TokenIdentifier, TokenAssign, TokenNumber, TokenSemicolon, TokenEOF}
	if len(toks) != len(want) {
		t.Fatalf("got %v, want %d tokens", toks, len(want))
	}
	for i, typ := range want {
		if toks[i].Type != typ {
			t.Errorf("token %d = %v, want %s", i, toks[i], typ)
		}
	}
	if toks[2].Literal != "a\uFFFDbc" {
		t.Errorf("string literal = %q", toks[2].Literal)
	}
}

func TestLexerKeywords(t *testing.T) {
	for word, typ := range keywords {
		toks := significant(word)
		if toks[0].Type != typ {
			t.Errorf("Lexer(%q) = %v, want %v", word, toks[0].Type, typ)
		}
		if !typ.IsKeyword() {
			t.Errorf("%v.IsKeyword() = false", typ)
		}
	}
	if toks := significant("whileLoop"); toks[0].Type != TokenIdentifier {
		t.Errorf("whileLoop lexed as %v", toks[0].Type)
	}
}

func TestLexerFutureReserved(t *testing.T) {
	toks := significant("class")
	if toks[0].Type != TokenIllegal {
		t.Fatalf("class lexed as %v", toks[0].Type)
	}
	if want := "'class' is a future reserved keyword."; toks[0].Message != want {
		t.Errorf("message = %q, want %q", toks[0].Message, want)
	}
}

func TestLexerIdentifiers(t *testing.T) {
	for _, input := range []string{"foo", "$bar", "_baz", "a1", "$", "café"} {
		toks := significant(input)
		if toks[0].Type != TokenIdentifier || toks[0].Literal != input {
			t.Errorf("Lexer(%q) = %v", input, toks[0])
		}
	}
}

func TestLexerIdentifierNFC(t *testing.T) {
	// "cafe" followed by a combining acute accent.
	toks := significant("cafe\u0301")
	if toks[0].Type != TokenIdentifier {
		t.Fatalf("got %v", toks[0])
	}
	if toks[0].Literal != "caf\u00e9" {
		t.Errorf("literal = %q, want NFC form", toks[0].Literal)
	}
}

func TestLexerComments(t *testing.T) {
	toks := Tokenize("a // line\n/* block */ b")
	var kinds []TokenType
	for _, tok := range toks {
		kinds = append(kinds, tok.Type)
	}
	want := []TokenType{
		TokenIdentifier, TokenWhitespace, TokenComment, TokenNewline,
		TokenComment, TokenWhitespace, TokenIdentifier, TokenEOF,
	}
	if len(kinds) != len(want) {
		t.Fatalf("got %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("token[%d] = %v, want %v", i, kinds[i], want[i])
		}
	}
	if toks[2].Literal != "// line" {
		t.Errorf("line comment literal = %q", toks[2].Literal)
	}
	if toks[4].Literal != "/* block */" {
		t.Errorf("block comment literal = %q", toks[4].Literal)
	}
}

func TestLexerUnterminatedBlockComment(t *testing.T) {
	toks := Tokenize("/* -illegal\n ")
	if toks[0].Type != TokenIllegal {
		t.Fatalf("got %v, want ILLEGAL", toks[0])
	}
	if toks[0].Message != "Unterminated block comment." {
		t.Errorf("message = %q", toks[0].Message)
	}
	if toks[len(toks)-1].Type != TokenEOF {
		t.Errorf("stream does not end in EOF: %v", toks)
	}
}

func TestLexerRegexVersusDivision(t *testing.T) {
	toks := significant("r = /^-ms-/,")
	want := []struct {
		typ TokenType
		lit string
	}{
		{TokenIdentifier, "r"},
		{TokenAssign, "="},
		{TokenRegEx, "/^-ms-/"},
		{TokenComma, ","},
		{TokenEOF, ""},
	}
	if len(toks) != len(want) {
		t.Fatalf("got %v", toks)
	}
	for i, w := range want {
		if toks[i].Type != w.typ || toks[i].Literal != w.lit {
			t.Errorf("token[%d] = %v, want %v(%q)", i, toks[i], w.typ, w.lit)
		}
	}

	tests := []struct {
		input string
		at    int
		typ   TokenType
	}{
		{"a / b", 1, TokenSlash},
		{"4 / 2", 1, TokenSlash},
		{"(a) / 2", 3, TokenSlash},
		{"x[0] / 2", 4, TokenSlash},
		{"(/ab/)", 1, TokenRegEx},
		{"f(/a[/]b/gi)", 2, TokenRegEx},
	}
	for _, tc := range tests {
		toks := significant(tc.input)
		if toks[tc.at].Type != tc.typ {
			t.Errorf("Lexer(%q): token[%d] = %v, want %v", tc.input, tc.at, toks[tc.at], tc.typ)
		}
	}
	if toks := significant("f(/a[/]b/gi)"); toks[2].Type != TokenRegEx || toks[2].Literal != "/a[/]b/gi" {
		t.Errorf("class with slash: got %v", toks[2])
	}
}

func TestLexerRegexErrors(t *testing.T) {
	tests := []struct {
		input string
		msg   string
	}{
		{"/abc", "Unterminated regular expression literal."},
		{"/abc\n/", "Unterminated regular expression literal."},
		{"/abc/x", "Invalid regular expression flags."},
	}
	for _, tc := range tests {
		toks := significant(tc.input)
		if toks[0].Type != TokenIllegal || toks[0].Message != tc.msg {
			t.Errorf("Lexer(%q) = %v, want %q", tc.input, toks[0], tc.msg)
		}
	}
}

func TestLexerUnrecognizedCharacter(t *testing.T) {
	toks := significant("a # b")
	if toks[1].Type != TokenIllegal || !strings.Contains(toks[1].Message, "Unrecognized character") {
		t.Errorf("got %v", toks[1])
	}
	if toks[2].Type != TokenIdentifier {
		t.Errorf("lexing did not continue after the error: %v", toks)
	}
}

func TestLexerInvalidUTF8Character(t *testing.T) {
	toks := significant("\xff = 1;")
	want := []TokenType{TokenIllegal, TokenAssign, TokenNumber, TokenSemicolon, TokenEOF}
	if len(toks) != len(want) {
		t.Fatalf("got %v, want %d tokens", toks, len(want))
	}
	for i, typ := range want {
		if toks[i].Type != typ {
			t.Errorf("token %d = %v, want %s", i, toks[i], typ)
		}
	}
	if toks[0].End.Offset != 1 {
		t.Errorf("illegal token spans %d bytes, want 1", toks[0].End.Offset)
	}
}

func TestLexerPositions(t *testing.T) {
	toks := significant("a\n  bb\ncé d")
	tests := []struct {
		lit       string
		line, col int
	}{
		{"a", 1, 1},
		{"bb", 2, 3},
		{"cé", 3, 1},
		{"d", 3, 4},
	}
	for i, tc := range tests {
		if toks[i].Literal != tc.lit {
			t.Fatalf("token[%d] = %v, want %q", i, toks[i], tc.lit)
		}
		if toks[i].Pos.Line != tc.line || toks[i].Pos.Column != tc.col {
			t.Errorf("%q at %s, want %d:%d", tc.lit, toks[i].Pos, tc.line, tc.col)
		}
	}
	if toks[1].End.Column != 5 {
		t.Errorf("bb ends at column %d, want 5", toks[1].End.Column)
	}
}

func TestLexerEOFForever(t *testing.T) {
	l := NewLexerString("a")
	l.ReadToken()
	for i := 0; i < 3; i++ {
		if tok := l.ReadToken(); tok.Type != TokenEOF {
			t.Fatalf("read %d past end: %v", i, tok)
		}
	}
}

func TestLexerReader(t *testing.T) {
	l := NewLexer(strings.NewReader("x = 1"))
	m := NewMorpher(l)
	var types []TokenType
	for tok := m.ReadToken(); tok.Type != TokenEOF; tok = m.ReadToken() {
		types = append(types, tok.Type)
	}
	want := []TokenType{TokenIdentifier, TokenAssign, TokenNumber}
	if len(types) != len(want) {
		t.Fatalf("got %v", types)
	}
}

func TestMorpherDropsTrivia(t *testing.T) {
	toks := significant(" a /* c */\n\t// x\n b ")
	if len(toks) != 3 {
		t.Fatalf("got %v, want a b EOF", toks)
	}
	for _, tok := range toks {
		if tok.Type.IsTrivia() {
			t.Errorf("trivia leaked: %v", tok)
		}
	}
}

func TestTokensMatchesTokenize(t *testing.T) {
	input := "var x = 1; // done"
	n := 0
	for range Tokens(input) {
		n++
	}
	if want := len(Tokenize(input)); n != want {
		t.Errorf("Tokens yielded %d tokens, Tokenize %d", n, want)
	}
}
