package compiler

import (
	"math"
	"math/big"
	"strconv"
	"strings"
)

// ---------------------------------------------------------------------------
// Constant folding
// ---------------------------------------------------------------------------

// value is the decoded form of a foldable constant.
type value struct {
	typ ConstantType
	num float64
	str string
	b   bool
}

// valueOf decodes c. Null and RegEx constants are not foldable.
func valueOf(c *ConstantExpr) (value, bool) {
	switch c.Type {
	case ConstNumber:
		f, ok := ParseNumber(c.Literal)
		return value{typ: ConstNumber, num: f}, ok
	case ConstString:
		return value{typ: ConstString, str: c.Literal}, true
	case ConstBoolean:
		return value{typ: ConstBoolean, b: c.Literal == "true"}, true
	}
	return value{}, false
}

func (v value) literal() string {
	switch v.typ {
	case ConstNumber:
		return FormatNumber(v.num)
	case ConstBoolean:
		return strconv.FormatBool(v.b)
	}
	return v.str
}

func (v value) constant(span Span) *ConstantExpr {
	return &ConstantExpr{SpanVal: span, Literal: v.literal(), Type: v.typ}
}

func number(f float64) value { return value{typ: ConstNumber, num: f} }
func boolean(b bool) value   { return value{typ: ConstBoolean, b: b} }

// ParseNumber decodes a numeric literal: decimal, scientific or 0x hex.
func ParseNumber(lit string) (float64, bool) {
	if len(lit) > 2 && lit[0] == '0' && (lit[1] == 'x' || lit[1] == 'X') {
		n, ok := new(big.Int).SetString(lit[2:], 16)
		if !ok {
			return 0, false
		}
		f, _ := new(big.Float).SetInt(n).Float64()
		return f, true
	}
	f, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
			return f, true
		}
		return 0, false
	}
	return f, true
}

// FormatNumber renders f the way folded constants are stored: integral
// values without a fraction, everything else in the shortest form that
// parses back to f.
func FormatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	case f == math.Trunc(f) && math.Abs(f) < 1e21:
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// toInt32 truncates f to a signed 32-bit integer with wraparound.
func toInt32(f float64) int32 {
	return int32(toUint32(f))
}

func toUint32(f float64) uint32 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return uint32(int64(math.Mod(math.Trunc(f), 1<<32)))
}

type folder func(l, r value) (value, bool)

func numeric(fn func(a, b float64) float64) folder {
	return func(l, r value) (value, bool) {
		if l.typ != ConstNumber {
			return value{}, false
		}
		return number(fn(l.num, r.num)), true
	}
}

func bitwise(fn func(a, b int32) int32) folder {
	return numeric(func(a, b float64) float64 {
		return float64(fn(toInt32(a), toInt32(b)))
	})
}

func compare(num func(a, b float64) bool, str func(a, b string) bool) folder {
	return func(l, r value) (value, bool) {
		switch l.typ {
		case ConstNumber:
			return boolean(num(l.num, r.num)), true
		case ConstString:
			return boolean(str(l.str, r.str)), true
		}
		return value{}, false
	}
}

func logical(fn func(a, b bool) bool) folder {
	return func(l, r value) (value, bool) {
		if l.typ != ConstBoolean {
			return value{}, false
		}
		return boolean(fn(l.b, r.b)), true
	}
}

func equality(negate bool) folder {
	return func(l, r value) (value, bool) {
		eq := l == r
		if l.typ == ConstNumber {
			eq = l.num == r.num
		}
		return boolean(eq != negate), true
	}
}

// binaryFolders maps each foldable operator to its evaluation. Operands
// always have the same type when a folder runs.
var binaryFolders = map[TokenType]folder{
	TokenPlus: func(l, r value) (value, bool) {
		switch l.typ {
		case ConstNumber:
			return number(l.num + r.num), true
		case ConstString:
			return value{typ: ConstString, str: l.str + r.str}, true
		}
		return value{}, false
	},
	TokenMinus:   numeric(func(a, b float64) float64 { return a - b }),
	TokenStar:    numeric(func(a, b float64) float64 { return a * b }),
	TokenSlash:   numeric(func(a, b float64) float64 { return a / b }),
	TokenPercent: numeric(math.Mod),

	TokenShiftLeft:  bitwise(func(a, b int32) int32 { return a << (uint32(b) & 31) }),
	TokenShiftRight: bitwise(func(a, b int32) int32 { return a >> (uint32(b) & 31) }),
	TokenShiftRightU: numeric(func(a, b float64) float64 {
		return float64(toUint32(a) >> (toUint32(b) & 31))
	}),
	TokenBitAnd: bitwise(func(a, b int32) int32 { return a & b }),
	TokenBitOr:  bitwise(func(a, b int32) int32 { return a | b }),
	TokenBitXor: bitwise(func(a, b int32) int32 { return a ^ b }),

	TokenLess:         compare(func(a, b float64) bool { return a < b }, func(a, b string) bool { return a < b }),
	TokenGreater:      compare(func(a, b float64) bool { return a > b }, func(a, b string) bool { return a > b }),
	TokenLessEqual:    compare(func(a, b float64) bool { return a <= b }, func(a, b string) bool { return a <= b }),
	TokenGreaterEqual: compare(func(a, b float64) bool { return a >= b }, func(a, b string) bool { return a >= b }),

	TokenEqual:       equality(false),
	TokenStrictEqual: equality(false),
	TokenNotEqual:    equality(true),
	TokenStrictNotEq: equality(true),

	TokenAnd: logical(func(a, b bool) bool { return a && b }),
	TokenOr:  logical(func(a, b bool) bool { return a || b }),
}

// foldBinary folds op applied to two constants. It returns nil when the
// operation cannot be folded; mismatch reports operands of different
// foldable types.
func foldBinary(op TokenType, l, r *ConstantExpr, span Span) (folded *ConstantExpr, mismatch bool) {
	lv, lok := valueOf(l)
	rv, rok := valueOf(r)
	if !lok || !rok {
		return nil, false
	}
	if lv.typ != rv.typ {
		return nil, true
	}
	fn, ok := binaryFolders[op]
	if !ok {
		return nil, false
	}
	v, ok := fn(lv, rv)
	if !ok {
		return nil, false
	}
	return v.constant(span), false
}

// foldPrefix folds a prefix operator applied to a constant, or returns nil.
func foldPrefix(op TokenType, operand *ConstantExpr, span Span) *ConstantExpr {
	v, ok := valueOf(operand)
	if !ok {
		return nil
	}
	switch {
	case v.typ == ConstNumber && op == TokenMinus:
		return number(-v.num).constant(span)
	case v.typ == ConstNumber && op == TokenPlus:
		return number(v.num).constant(span)
	case v.typ == ConstNumber && op == TokenTilde:
		return number(float64(^toInt32(v.num))).constant(span)
	case v.typ == ConstBoolean && op == TokenBang:
		return boolean(!v.b).constant(span)
	}
	return nil
}

// NormalizeConstant returns the canonical text of a constant's value, used
// as the constant pool key: numbers and booleans are parsed and
// re-rendered, everything else keeps its text.
func NormalizeConstant(c *ConstantExpr) string {
	switch c.Type {
	case ConstNumber:
		if f, ok := ParseNumber(c.Literal); ok {
			return FormatNumber(f)
		}
	case ConstBoolean:
		if b, err := strconv.ParseBool(strings.ToLower(c.Literal)); err == nil {
			return strconv.FormatBool(b)
		}
	}
	return c.Literal
}
