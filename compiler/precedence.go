package compiler

// Binding powers, lowest first. ParseExpression(p) keeps consuming infix
// operators whose precedence is strictly greater than p.
const (
	PrecLowest = iota
	PrecAssignment
	PrecConditional
	PrecLogicalOr
	PrecLogicalAnd
	PrecBitwiseOr
	PrecBitwiseXor
	PrecBitwiseAnd
	PrecEquality
	PrecRelational
	PrecShift
	PrecSum
	PrecProduct
	PrecPrefix
	PrecPostfix
	PrecCall
	PrecNew
	PrecAccessor
)

// binaryPrecedences lists the left-associative binary operators.
var binaryPrecedences = map[TokenType]int{
	TokenOr:           PrecLogicalOr,
	TokenAnd:          PrecLogicalAnd,
	TokenBitOr:        PrecBitwiseOr,
	TokenBitXor:       PrecBitwiseXor,
	TokenBitAnd:       PrecBitwiseAnd,
	TokenEqual:        PrecEquality,
	TokenNotEqual:     PrecEquality,
	TokenStrictEqual:  PrecEquality,
	TokenStrictNotEq:  PrecEquality,
	TokenLess:         PrecRelational,
	TokenGreater:      PrecRelational,
	TokenLessEqual:    PrecRelational,
	TokenGreaterEqual: PrecRelational,
	TokenIn:           PrecRelational,
	TokenInstanceof:   PrecRelational,
	TokenShiftLeft:    PrecShift,
	TokenShiftRight:   PrecShift,
	TokenShiftRightU:  PrecShift,
	TokenPlus:         PrecSum,
	TokenMinus:        PrecSum,
	TokenStar:         PrecProduct,
	TokenSlash:        PrecProduct,
	TokenPercent:      PrecProduct,
}

var prefixOperators = []TokenType{
	TokenMinus, TokenPlus, TokenBang, TokenTilde,
	TokenIncrement, TokenDecrement,
	TokenTypeof, TokenVoid, TokenDelete,
}

var postfixOperators = []TokenType{
	TokenIncrement, TokenDecrement, TokenBang,
}
