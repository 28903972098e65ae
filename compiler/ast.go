package compiler

import "fmt"

// ---------------------------------------------------------------------------
// AST: Abstract Syntax Tree for kata
// ---------------------------------------------------------------------------

// Span represents a range in source code.
type Span struct {
	Start Position
	End   Position
}

// MakeSpan creates a span from start to end.
func MakeSpan(start, end Position) Span {
	return Span{Start: start, End: end}
}

// Node is the interface implemented by all AST nodes.
type Node interface {
	Span() Span
	node() // marker method
}

// Expr is the interface for every AST node. Statements are expressions too;
// the set of implementations is closed.
type Expr interface {
	Node
	expr() // marker method
	String() string
}

// ConstantType classifies a ConstantExpr.
type ConstantType uint8

const (
	ConstNumber ConstantType = iota + 1
	ConstString
	ConstBoolean
	ConstNull
	ConstRegEx
)

func (c ConstantType) String() string {
	switch c {
	case ConstNumber:
		return "Number"
	case ConstString:
		return "String"
	case ConstBoolean:
		return "Boolean"
	case ConstNull:
		return "Null"
	case ConstRegEx:
		return "RegEx"
	}
	return fmt.Sprintf("ConstantType(%d)", uint8(c))
}

// ---------------------------------------------------------------------------
// Leaves
// ---------------------------------------------------------------------------

// IdentifierExpr is a bare name.
type IdentifierExpr struct {
	SpanVal Span
	Name    string
}

// IdentifierPartExpr is a member access a.b.
type IdentifierPartExpr struct {
	SpanVal Span
	Object  Expr
	Member  *IdentifierExpr
}

// ConstantExpr is a literal. Key is valid only when Keyed is set, which
// happens once the node has been cross-referenced into the constant pool.
type ConstantExpr struct {
	SpanVal Span
	Literal string // source text; unescaped content for strings
	Type    ConstantType
	Key     int
	Keyed   bool
}

// IllegalExpr stands in for input that could not be parsed. It keeps the
// pieces that were parsed before the error.
type IllegalExpr struct {
	SpanVal  Span
	Message  string
	Children []Expr
}

// ---------------------------------------------------------------------------
// Operators
// ---------------------------------------------------------------------------

// BinaryOperatorExpr is an infix operation.
type BinaryOperatorExpr struct {
	SpanVal  Span
	Left     Expr
	Operator TokenType
	Right    Expr
}

// PrefixExpr is a unary prefix operation.
type PrefixExpr struct {
	SpanVal  Span
	Operator TokenType
	Right    Expr
}

// PostfixExpr is a unary postfix operation (a++, a--, a!).
type PostfixExpr struct {
	SpanVal  Span
	Left     Expr
	Operator TokenType
}

// AssignExpr is an assignment or compound assignment. Left is always an
// lvalue; construct it with NewAssignExpr.
type AssignExpr struct {
	SpanVal  Span
	Left     Expr
	Operator TokenType
	Right    Expr
}

// ConditionalExpr is the ternary c ? a : b.
type ConditionalExpr struct {
	SpanVal Span
	Cond    Expr
	Then    Expr
	Else    Expr
}

// CallExpr is a function call.
type CallExpr struct {
	SpanVal Span
	Callee  Expr
	Args    []Expr
}

// AccessorExpr is an indexed access member[index].
type AccessorExpr struct {
	SpanVal Span
	Member  Expr
	Index   Expr
}

// NewExpr is a constructor call. Call is always a call; construct it with
// NewNewExpr.
type NewExpr struct {
	SpanVal Span
	Call    *CallExpr
}

// ---------------------------------------------------------------------------
// Literals
// ---------------------------------------------------------------------------

// ArrayLiteralExpr is [a, b, c].
type ArrayLiteralExpr struct {
	SpanVal  Span
	Elements []Expr
}

// ObjectLiteralExpr is {a: 1, "b": 2}.
type ObjectLiteralExpr struct {
	SpanVal Span
	Members []*DefinitionExpr
}

// DefinitionExpr is one key/value member of an object literal.
type DefinitionExpr struct {
	SpanVal Span
	Key     string
	Value   Expr
}

// MethodExpr is a function declaration or function literal. Name is nil for
// anonymous functions.
type MethodExpr struct {
	SpanVal Span
	Name    *IdentifierExpr
	Params  []*IdentifierExpr
	Body    *SequenceExpr
}

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

// SequenceExpr is an ordered list of statements (a block or a program body).
type SequenceExpr struct {
	SpanVal Span
	Items   []Expr
}

// VarExpr declares variables. Items are identifiers or assignments whose
// left side is an identifier.
type VarExpr struct {
	SpanVal Span
	Items   []Expr
}

// IfExpr is if/else. Else may be nil.
type IfExpr struct {
	SpanVal Span
	Cond    Expr
	Then    Expr
	Else    Expr
}

// ConditionalLoopExpr is a while loop, or a do-while loop when
// PostCondition is set.
type ConditionalLoopExpr struct {
	SpanVal       Span
	Cond          Expr
	Body          Expr
	PostCondition bool
}

// ForExpr is the three-clause for loop. Any clause may be nil.
type ForExpr struct {
	SpanVal Span
	Init    Expr
	Cond    Expr
	Step    Expr
	Body    Expr
}

// ForInExpr is for (var? item in collection).
type ForInExpr struct {
	SpanVal    Span
	Declare    bool
	Item       *IdentifierExpr
	Collection Expr
	Body       Expr
}

// TryCatchFinallyExpr is try/catch/finally. Catch or Finally may be nil, not
// both.
type TryCatchFinallyExpr struct {
	SpanVal   Span
	Try       *SequenceExpr
	CatchName *IdentifierExpr
	Catch     *SequenceExpr
	Finally   *SequenceExpr
}

// SwitchExpr is switch (subject) { cases }.
type SwitchExpr struct {
	SpanVal Span
	Subject Expr
	Cases   []*CaseExpr
}

// CaseExpr is one arm of a switch. Test is nil for the default arm.
type CaseExpr struct {
	SpanVal Span
	Test    Expr
	Body    *SequenceExpr
}

// ReturnExpr is return with an optional value.
type ReturnExpr struct {
	SpanVal Span
	Value   Expr
}

// ThrowExpr is throw value.
type ThrowExpr struct {
	SpanVal Span
	Value   Expr
}

// BreakExpr is break.
type BreakExpr struct {
	SpanVal Span
}

// ContinueExpr is continue.
type ContinueExpr struct {
	SpanVal Span
}

// ---------------------------------------------------------------------------
// Constructors with structural checks
// ---------------------------------------------------------------------------

// IsLValue reports whether e can be assigned to.
func IsLValue(e Expr) bool {
	switch e.(type) {
	case *IdentifierExpr, *IdentifierPartExpr, *AccessorExpr:
		return true
	}
	return false
}

// NewAssignExpr builds an assignment. It panics if left is not an lvalue:
// parselets validate user input before calling it, so a failure here means a
// parselet is wired incorrectly.
func NewAssignExpr(span Span, left Expr, op TokenType, right Expr) *AssignExpr {
	if !IsLValue(left) {
		panic(fmt.Sprintf("compiler: assignment to non-lvalue %T", left))
	}
	if !isAssignmentOperator(op) {
		panic(fmt.Sprintf("compiler: %s is not an assignment operator", op))
	}
	return &AssignExpr{SpanVal: span, Left: left, Operator: op, Right: right}
}

// NewNewExpr builds a constructor call. It panics if call is not a
// *CallExpr.
func NewNewExpr(span Span, call Expr) *NewExpr {
	c, ok := call.(*CallExpr)
	if !ok {
		panic(fmt.Sprintf("compiler: new applied to %T, want *CallExpr", call))
	}
	return &NewExpr{SpanVal: span, Call: c}
}

// IsControlTransfer reports whether e unconditionally leaves the enclosing
// sequence.
func IsControlTransfer(e Expr) bool {
	switch e.(type) {
	case *BreakExpr, *ContinueExpr, *ReturnExpr, *ThrowExpr:
		return true
	}
	return false
}

// ---------------------------------------------------------------------------
// Node interface implementations
// ---------------------------------------------------------------------------

func (n *IdentifierExpr) Span() Span      { return n.SpanVal }
func (n *IdentifierPartExpr) Span() Span  { return n.SpanVal }
func (n *ConstantExpr) Span() Span        { return n.SpanVal }
func (n *IllegalExpr) Span() Span         { return n.SpanVal }
func (n *BinaryOperatorExpr) Span() Span  { return n.SpanVal }
func (n *PrefixExpr) Span() Span          { return n.SpanVal }
func (n *PostfixExpr) Span() Span         { return n.SpanVal }
func (n *AssignExpr) Span() Span          { return n.SpanVal }
func (n *ConditionalExpr) Span() Span     { return n.SpanVal }
func (n *CallExpr) Span() Span            { return n.SpanVal }
func (n *AccessorExpr) Span() Span        { return n.SpanVal }
func (n *NewExpr) Span() Span             { return n.SpanVal }
func (n *ArrayLiteralExpr) Span() Span    { return n.SpanVal }
func (n *ObjectLiteralExpr) Span() Span   { return n.SpanVal }
func (n *DefinitionExpr) Span() Span      { return n.SpanVal }
func (n *MethodExpr) Span() Span          { return n.SpanVal }
func (n *SequenceExpr) Span() Span        { return n.SpanVal }
func (n *VarExpr) Span() Span             { return n.SpanVal }
func (n *IfExpr) Span() Span              { return n.SpanVal }
func (n *ConditionalLoopExpr) Span() Span { return n.SpanVal }
func (n *ForExpr) Span() Span             { return n.SpanVal }
func (n *ForInExpr) Span() Span           { return n.SpanVal }
func (n *TryCatchFinallyExpr) Span() Span { return n.SpanVal }
func (n *SwitchExpr) Span() Span          { return n.SpanVal }
func (n *CaseExpr) Span() Span            { return n.SpanVal }
func (n *ReturnExpr) Span() Span          { return n.SpanVal }
func (n *ThrowExpr) Span() Span           { return n.SpanVal }
func (n *BreakExpr) Span() Span           { return n.SpanVal }
func (n *ContinueExpr) Span() Span        { return n.SpanVal }

func (n *IdentifierExpr) node()      {}
func (n *IdentifierPartExpr) node()  {}
func (n *ConstantExpr) node()        {}
func (n *IllegalExpr) node()         {}
func (n *BinaryOperatorExpr) node()  {}
func (n *PrefixExpr) node()          {}
func (n *PostfixExpr) node()         {}
func (n *AssignExpr) node()          {}
func (n *ConditionalExpr) node()     {}
func (n *CallExpr) node()            {}
func (n *AccessorExpr) node()        {}
func (n *NewExpr) node()             {}
func (n *ArrayLiteralExpr) node()    {}
func (n *ObjectLiteralExpr) node()   {}
func (n *DefinitionExpr) node()      {}
func (n *MethodExpr) node()          {}
func (n *SequenceExpr) node()        {}
func (n *VarExpr) node()             {}
func (n *IfExpr) node()              {}
func (n *ConditionalLoopExpr) node() {}
func (n *ForExpr) node()             {}
func (n *ForInExpr) node()           {}
func (n *TryCatchFinallyExpr) node() {}
func (n *SwitchExpr) node()          {}
func (n *CaseExpr) node()            {}
func (n *ReturnExpr) node()          {}
func (n *ThrowExpr) node()           {}
func (n *BreakExpr) node()           {}
func (n *ContinueExpr) node()        {}

func (n *IdentifierExpr) expr()      {}
func (n *IdentifierPartExpr) expr()  {}
func (n *ConstantExpr) expr()        {}
func (n *IllegalExpr) expr()         {}
func (n *BinaryOperatorExpr) expr()  {}
func (n *PrefixExpr) expr()          {}
func (n *PostfixExpr) expr()         {}
func (n *AssignExpr) expr()          {}
func (n *ConditionalExpr) expr()     {}
func (n *CallExpr) expr()            {}
func (n *AccessorExpr) expr()        {}
func (n *NewExpr) expr()             {}
func (n *ArrayLiteralExpr) expr()    {}
func (n *ObjectLiteralExpr) expr()   {}
func (n *DefinitionExpr) expr()      {}
func (n *MethodExpr) expr()          {}
func (n *SequenceExpr) expr()        {}
func (n *VarExpr) expr()             {}
func (n *IfExpr) expr()              {}
func (n *ConditionalLoopExpr) expr() {}
func (n *ForExpr) expr()             {}
func (n *ForInExpr) expr()           {}
func (n *TryCatchFinallyExpr) expr() {}
func (n *SwitchExpr) expr()          {}
func (n *CaseExpr) expr()            {}
func (n *ReturnExpr) expr()          {}
func (n *ThrowExpr) expr()           {}
func (n *BreakExpr) expr()           {}
func (n *ContinueExpr) expr()        {}
