package compiler

import (
	"fmt"
	"io"
	"iter"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/tdewolff/parse/v2"
	"golang.org/x/text/unicode/norm"
)

// ---------------------------------------------------------------------------
// Lexer: tokenizer for kata source
// ---------------------------------------------------------------------------

// TokenReader is a pull-based source of tokens.
type TokenReader interface {
	ReadToken() Token
}

// Lexer tokenizes kata source code. The entire input is buffered in memory
// before the first token is produced.
type Lexer struct {
	r      *parse.Input
	src    []byte
	size   int // input length in bytes
	err    error
	offset int // byte offset of the read position
	line   int // current line (1-based)
	col    int // current column (1-based)

	prev     TokenType // last non-trivia token, for regex detection
	seenPrev bool
}

// NewLexer creates a lexer reading all of r. A read error surfaces as an
// Illegal token once the bytes read so far are exhausted.
func NewLexer(r io.Reader) *Lexer {
	data, err := io.ReadAll(r)
	l := newLexer(data)
	if err != nil {
		l.err = fmt.Errorf("read source: %w", err)
	}
	return l
}

// NewLexerString creates a lexer over an in-memory string.
func NewLexerString(input string) *Lexer {
	return newLexer([]byte(input))
}

func newLexer(data []byte) *Lexer {
	return &Lexer{r: parse.NewInputBytes(data), src: data, size: len(data), line: 1, col: 1}
}

// position returns the current position.
func (l *Lexer) position() Position {
	return Position{Offset: l.offset, Line: l.line, Column: l.col}
}

// advance moves the read position n bytes forward, tracking lines and columns.
func (l *Lexer) advance(n int) {
	for i := 0; i < n; i++ {
		c := l.peek(i)
		switch {
		case c == '\n':
			l.line++
			l.col = 1
		case c&0xC0 != 0x80: // not a UTF-8 continuation byte
			l.col++
		}
	}
	l.r.Move(n)
	l.offset += n
}

// peek returns the byte i positions ahead, or 0 past the end of input.
func (l *Lexer) peek(i int) byte {
	if l.eofAt(i) {
		return 0
	}
	return l.r.Peek(i)
}

// eofAt reports whether the byte i positions ahead is past the end of input.
func (l *Lexer) eofAt(i int) bool {
	return l.offset+i >= l.size
}

func (l *Lexer) atEOF() bool {
	return l.eofAt(0)
}

// peekRune decodes the rune at the read position. An invalid byte decodes
// as utf8.RuneError with size 1, and size is 0 at the end of input.
func (l *Lexer) peekRune() (rune, int) {
	if l.atEOF() {
		return 0, 0
	}
	return utf8.DecodeRune(l.src[l.offset:])
}

// ReadToken returns the next token, including whitespace, newline and
// comment tokens. It returns EOF tokens forever once the input is exhausted.
func (l *Lexer) ReadToken() Token {
	start := l.position()
	tok := l.scan()
	tok.Pos = start
	tok.End = l.position()
	l.r.Skip()

	if !tok.Type.IsTrivia() {
		l.prev = tok.Type
		l.seenPrev = true
	}
	return tok
}

func (l *Lexer) lexeme() string {
	return string(l.r.Lexeme())
}

func (l *Lexer) illegal(format string, args ...any) Token {
	return Token{Type: TokenIllegal, Literal: l.lexeme(), Message: fmt.Sprintf(format, args...)}
}

func (l *Lexer) scan() Token {
	c := l.peek(0)

	switch {
	case l.atEOF():
		if l.err != nil {
			err := l.err
			l.err = nil
			return Token{Type: TokenIllegal, Message: err.Error()}
		}
		return Token{Type: TokenEOF}

	case c == '\n':
		l.advance(1)
		return Token{Type: TokenNewline, Literal: "\n"}

	case isSpace(c):
		for isSpace(l.peek(0)) {
			l.advance(1)
		}
		return Token{Type: TokenWhitespace, Literal: l.lexeme()}

	case c == '"' || c == '\'':
		return l.readString(c)

	case c == '/' && l.peek(1) == '/':
		return l.readLineComment()

	case c == '/' && l.peek(1) == '*':
		return l.readBlockComment()

	case c == '/' && l.regexAllowed():
		return l.readRegex()

	case isDigit(c) || (c == '.' && isDigit(l.peek(1))):
		return l.readNumber()

	case l.identifierStart():
		return l.readIdentifier()
	}

	if tok, ok := l.readPunctuator(); ok {
		return tok
	}

	r, size := l.peekRune()
	if size == 0 {
		size = 1
	}
	l.advance(size)
	return l.illegal("Unrecognized character %q.", r)
}

// regexAllowed reports whether a '/' at the current position starts a
// regular expression literal rather than a division operator.
func (l *Lexer) regexAllowed() bool {
	if !l.seenPrev {
		return true
	}
	switch l.prev {
	case TokenIdentifier, TokenNumber, TokenRParen, TokenRBracket, TokenRBrace,
		TokenThis, TokenTrue, TokenFalse, TokenNull:
		return false
	}
	return true
}

// readString reads a string literal delimited by quote. The token literal is
// the unescaped content.
func (l *Lexer) readString(quote byte) Token {
	l.advance(1) // opening quote

	var sb strings.Builder
	for {
		c := l.peek(0)
		switch {
		case l.atEOF() || c == '\n':
			return l.illegal("Unterminated string literal.")

		case c == quote:
			l.advance(1)
			return Token{Type: TokenString, Literal: sb.String()}

		case c == '\\':
			l.advance(1)
			if l.atEOF() {
				return l.illegal("Unterminated string literal.")
			}
			e, size := l.peekRune()
			switch e {
			case 'n':
				sb.WriteByte('\n')
			case 'r':
				sb.WriteByte('\r')
			case 't':
				sb.WriteByte('\t')
			case '0':
				sb.WriteByte(0)
			case '\n':
				// line continuation
			default:
				sb.WriteRune(e)
			}
			l.advance(size)

		default:
			r, size := l.peekRune()
			sb.WriteRune(r)
			l.advance(size)
		}
	}
}

func (l *Lexer) readLineComment() Token {
	for !l.atEOF() && l.peek(0) != '\n' {
		l.advance(1)
	}
	return Token{Type: TokenComment, Literal: l.lexeme()}
}

func (l *Lexer) readBlockComment() Token {
	l.advance(2) // /*
	for {
		if l.atEOF() {
			return l.illegal("Unterminated block comment.")
		}
		if l.peek(0) == '*' && l.peek(1) == '/' {
			l.advance(2)
			return Token{Type: TokenComment, Literal: l.lexeme()}
		}
		l.advance(1)
	}
}

// readRegex reads /body/flags. The literal keeps the slashes and flags.
func (l *Lexer) readRegex() Token {
	l.advance(1) // opening /

	inClass := false
scan:
	for {
		c := l.peek(0)
		if l.atEOF() || c == '\n' {
			return l.illegal("Unterminated regular expression literal.")
		}
		l.advance(1)
		switch c {
		case '\\':
			if l.atEOF() || l.peek(0) == '\n' {
				return l.illegal("Unterminated regular expression literal.")
			}
			_, size := l.peekRune()
			l.advance(size)
		case '[':
			inClass = true
		case ']':
			inClass = false
		case '/':
			if !inClass {
				break scan
			}
		}
	}

	for isRegexFlag(l.peek(0)) {
		l.advance(1)
	}

	if l.atEOF() || isRegexTerminator(l.peek(0)) {
		return Token{Type: TokenRegEx, Literal: l.lexeme()}
	}
	for isIdentPart(rune(l.peek(0))) && !l.atEOF() {
		l.advance(1)
	}
	return l.illegal("Invalid regular expression flags.")
}

// readNumber reads decimal, fractional, scientific and hexadecimal literals.
func (l *Lexer) readNumber() Token {
	if l.peek(0) == '0' && (l.peek(1) == 'x' || l.peek(1) == 'X') {
		l.advance(2)
		digits := 0
		for isHexDigit(l.peek(0)) {
			l.advance(1)
			digits++
		}
		if digits == 0 {
			return l.illegal("Malformed hexadecimal literal.")
		}
		return Token{Type: TokenNumber, Literal: l.lexeme()}
	}

	seenDot, seenExp := false, false
	for {
		c := l.peek(0)
		switch {
		case isDigit(c):
			l.advance(1)
		case c == '.' && !seenDot && !seenExp:
			seenDot = true
			l.advance(1)
		case (c == 'e' || c == 'E') && !seenExp:
			n := 1
			if s := l.peek(1); s == '+' || s == '-' {
				n = 2
			}
			if !isDigit(l.peek(n)) {
				return Token{Type: TokenNumber, Literal: l.lexeme()}
			}
			seenExp = true
			l.advance(n)
		default:
			return Token{Type: TokenNumber, Literal: l.lexeme()}
		}
	}
}

func (l *Lexer) identifierStart() bool {
	r, _ := l.peekRune()
	return r == '$' || r == '_' || unicode.IsLetter(r)
}

// readIdentifier reads an identifier or keyword.
func (l *Lexer) readIdentifier() Token {
	for {
		r, size := l.peekRune()
		if size == 0 || !isIdentPart(r) {
			break
		}
		l.advance(size)
	}

	literal := norm.NFC.String(l.lexeme())
	if typ, ok := keywords[literal]; ok {
		return Token{Type: typ, Literal: literal}
	}
	if futureReserved[literal] {
		return Token{Type: TokenIllegal, Literal: literal,
			Message: fmt.Sprintf("'%s' is a future reserved keyword.", literal)}
	}
	return Token{Type: TokenIdentifier, Literal: literal}
}

// readPunctuator reads the longest operator or delimiter at the current
// position. A '!' never merges with a following '!'.
func (l *Lexer) readPunctuator() (Token, bool) {
	if l.peek(0) == '!' && l.peek(1) == '!' {
		l.advance(1)
		return Token{Type: TokenBang, Literal: "!"}, true
	}

	var buf [maxPunctuatorLen]byte
	n := 0
	for n < maxPunctuatorLen && !l.eofAt(n) {
		buf[n] = l.peek(n)
		n++
	}
	for ; n > 0; n-- {
		if typ, ok := punctuators[string(buf[:n])]; ok {
			l.advance(n)
			return Token{Type: typ, Literal: string(buf[:n])}, true
		}
	}
	return Token{}, false
}

// Helper functions

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\v' || c == '\f'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isHexDigit(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func isIdentPart(r rune) bool {
	return r == '$' || r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) ||
		unicode.In(r, unicode.Mn, unicode.Mc, unicode.Pc)
}

func isRegexFlag(c byte) bool {
	return c == 'g' || c == 'i' || c == 'm'
}

func isRegexTerminator(c byte) bool {
	switch c {
	case ' ', '\t', '\r', '\n', ',', '.', ';', ')', ']', '}':
		return true
	}
	return false
}

// Tokenize returns all tokens from the input, trivia included, ending with EOF.
func Tokenize(input string) []Token {
	var tokens []Token
	for tok := range Tokens(input) {
		tokens = append(tokens, tok)
	}
	return tokens
}

// Tokens lazily yields the tokens of input, trivia included, ending with EOF.
func Tokens(input string) iter.Seq[Token] {
	return func(yield func(Token) bool) {
		l := NewLexerString(input)
		for {
			tok := l.ReadToken()
			if !yield(tok) || tok.Type == TokenEOF {
				return
			}
		}
	}
}

