package compiler

import (
	"fmt"
	"slices"
)

// ---------------------------------------------------------------------------
// Token types
// ---------------------------------------------------------------------------

// TokenType represents the type of a token.
type TokenType int

const (
	// Special tokens
	TokenEOF TokenType = iota
	TokenIllegal
	TokenWhitespace
	TokenNewline
	TokenComment

	// Literals
	TokenIdentifier // foo, $bar, _baz
	TokenNumber     // 42, 3.14, 1e10, 0xFF
	TokenString     // 'hello', "hello"
	TokenRegEx      // /ab+c/gi

	// Delimiters
	TokenLParen    // (
	TokenRParen    // )
	TokenLBracket  // [
	TokenRBracket  // ]
	TokenLBrace    // {
	TokenRBrace    // }
	TokenDot       // .
	TokenSemicolon // ;
	TokenComma     // ,
	TokenQuestion  // ?
	TokenColon     // :

	// Operators
	TokenPlus          // +
	TokenMinus         // -
	TokenStar          // *
	TokenSlash         // /
	TokenPercent       // %
	TokenIncrement     // ++
	TokenDecrement     // --
	TokenShiftLeft     // <<
	TokenShiftRight    // >>
	TokenShiftRightU   // >>>
	TokenLess          // <
	TokenGreater       // >
	TokenLessEqual     // <=
	TokenGreaterEqual  // >=
	TokenEqual         // ==
	TokenNotEqual      // !=
	TokenStrictEqual   // ===
	TokenStrictNotEq   // !==
	TokenBitAnd        // &
	TokenBitOr         // |
	TokenBitXor        // ^
	TokenBang          // !
	TokenTilde         // ~
	TokenAnd           // &&
	TokenOr            // ||
	TokenAssign        // =
	TokenPlusAssign    // +=
	TokenMinusAssign   // -=
	TokenStarAssign    // *=
	TokenSlashAssign   // /=
	TokenPercentAssign // %=
	TokenShlAssign     // <<=
	TokenShrAssign     // >>=
	TokenShrUAssign    // >>>=
	TokenAndAssign     // &=
	TokenOrAssign      // |=
	TokenXorAssign     // ^=

	// Reserved keywords
	TokenBreak
	TokenCase
	TokenCatch
	TokenContinue
	TokenDefault
	TokenDelete
	TokenDo
	TokenElse
	TokenFinally
	TokenFor
	TokenFunction
	TokenIf
	TokenIn
	TokenInstanceof
	TokenNew
	TokenReturn
	TokenSwitch
	TokenThis
	TokenThrow
	TokenTry
	TokenTypeof
	TokenVar
	TokenVoid
	TokenWhile
	TokenWith
	TokenTrue
	TokenFalse
	TokenNull
)

var tokenNames = map[TokenType]string{
	TokenEOF:        "EOF",
	TokenIllegal:    "ILLEGAL",
	TokenWhitespace: "WHITESPACE",
	TokenNewline:    "NEWLINE",
	TokenComment:    "COMMENT",
	TokenIdentifier: "IDENTIFIER",
	TokenNumber:     "NUMBER",
	TokenString:     "STRING",
	TokenRegEx:      "REGEX",
}

func init() {
	for lit, typ := range punctuators {
		tokenNames[typ] = lit
	}
	for lit, typ := range keywords {
		tokenNames[typ] = lit
	}
}

func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Token(%d)", t)
}

// IsKeyword reports whether t is a reserved keyword.
func (t TokenType) IsKeyword() bool {
	return t >= TokenBreak && t <= TokenNull
}

// IsTrivia reports whether t carries no syntactic meaning (whitespace,
// newlines and comments).
func (t TokenType) IsTrivia() bool {
	return t == TokenWhitespace || t == TokenNewline || t == TokenComment
}

// Position represents a source location.
type Position struct {
	Offset int // byte offset
	Line   int // 1-based line number
	Column int // 1-based column number
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Token represents a lexical token.
type Token struct {
	Type    TokenType
	Literal string   // source text; unescaped content for strings
	Pos     Position // start position
	End     Position // position just past the token
	Message string   // diagnostic for Illegal tokens
}

// Span returns the source range covered by the token.
func (t Token) Span() Span {
	return Span{Start: t.Pos, End: t.End}
}

func (t Token) String() string {
	switch t.Type {
	case TokenEOF:
		return "EOF"
	case TokenIllegal:
		return fmt.Sprintf("ILLEGAL(%s)", t.Message)
	}
	if len(t.Literal) > 20 {
		return fmt.Sprintf("%s(%q...)", t.Type, t.Literal[:20])
	}
	return fmt.Sprintf("%s(%q)", t.Type, t.Literal)
}

// Keywords returns the reserved words of the language in sorted order.
func Keywords() []string {
	words := make([]string, 0, len(keywords))
	for w := range keywords {
		words = append(words, w)
	}
	slices.Sort(words)
	return words
}

// Reserved words mapped to their token types.
var keywords = map[string]TokenType{
	"break":      TokenBreak,
	"case":       TokenCase,
	"catch":      TokenCatch,
	"continue":   TokenContinue,
	"default":    TokenDefault,
	"delete":     TokenDelete,
	"do":         TokenDo,
	"else":       TokenElse,
	"finally":    TokenFinally,
	"for":        TokenFor,
	"function":   TokenFunction,
	"if":         TokenIf,
	"in":         TokenIn,
	"instanceof": TokenInstanceof,
	"new":        TokenNew,
	"return":     TokenReturn,
	"switch":     TokenSwitch,
	"this":       TokenThis,
	"throw":      TokenThrow,
	"try":        TokenTry,
	"typeof":     TokenTypeof,
	"var":        TokenVar,
	"void":       TokenVoid,
	"while":      TokenWhile,
	"with":       TokenWith,
	"true":       TokenTrue,
	"false":      TokenFalse,
	"null":       TokenNull,
}

// Words reserved for future use. The lexer turns them into Illegal tokens.
var futureReserved = map[string]bool{
	"class":      true,
	"const":      true,
	"enum":       true,
	"export":     true,
	"extends":    true,
	"import":     true,
	"super":      true,
	"implements": true,
	"interface":  true,
	"let":        true,
	"package":    true,
	"private":    true,
	"protected":  true,
	"public":     true,
	"static":     true,
	"yield":      true,
}

// punctuators maps every operator and delimiter spelling to its token type.
var punctuators = map[string]TokenType{
	"(":    TokenLParen,
	")":    TokenRParen,
	"[":    TokenLBracket,
	"]":    TokenRBracket,
	"{":    TokenLBrace,
	"}":    TokenRBrace,
	".":    TokenDot,
	";":    TokenSemicolon,
	",":    TokenComma,
	"?":    TokenQuestion,
	":":    TokenColon,
	"+":    TokenPlus,
	"-":    TokenMinus,
	"*":    TokenStar,
	"/":    TokenSlash,
	"%":    TokenPercent,
	"++":   TokenIncrement,
	"--":   TokenDecrement,
	"<<":   TokenShiftLeft,
	">>":   TokenShiftRight,
	">>>":  TokenShiftRightU,
	"<":    TokenLess,
	">":    TokenGreater,
	"<=":   TokenLessEqual,
	">=":   TokenGreaterEqual,
	"==":   TokenEqual,
	"!=":   TokenNotEqual,
	"===":  TokenStrictEqual,
	"!==":  TokenStrictNotEq,
	"&":    TokenBitAnd,
	"|":    TokenBitOr,
	"^":    TokenBitXor,
	"!":    TokenBang,
	"~":    TokenTilde,
	"&&":   TokenAnd,
	"||":   TokenOr,
	"=":    TokenAssign,
	"+=":   TokenPlusAssign,
	"-=":   TokenMinusAssign,
	"*=":   TokenStarAssign,
	"/=":   TokenSlashAssign,
	"%=":   TokenPercentAssign,
	"<<=":  TokenShlAssign,
	">>=":  TokenShrAssign,
	">>>=": TokenShrUAssign,
	"&=":   TokenAndAssign,
	"|=":   TokenOrAssign,
	"^=":   TokenXorAssign,
}

// maxPunctuatorLen is the length of the longest entry in punctuators.
const maxPunctuatorLen = 4

// isAssignmentOperator reports whether t is = or a compound assignment.
func isAssignmentOperator(t TokenType) bool {
	return t >= TokenAssign && t <= TokenXorAssign
}
