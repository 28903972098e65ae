package compiler

import (
	"strconv"
	"strings"
)

// Format renders e fully parenthesized, e.g. (a + (b * c)). Statements are
// rendered in a compact single-line form.
func Format(e Expr) string {
	var sb strings.Builder
	format(&sb, e)
	return sb.String()
}

func format(sb *strings.Builder, e Expr) {
	switch n := e.(type) {
	case nil:
		sb.WriteString("<nil>")

	case *IdentifierExpr:
		sb.WriteString(n.Name)

	case *IdentifierPartExpr:
		format(sb, n.Object)
		sb.WriteByte('.')
		sb.WriteString(n.Member.Name)

	case *ConstantExpr:
		if n.Type == ConstString {
			sb.WriteString(strconv.Quote(n.Literal))
		} else {
			sb.WriteString(n.Literal)
		}

	case *IllegalExpr:
		sb.WriteString("<illegal: ")
		sb.WriteString(n.Message)
		sb.WriteByte('>')

	case *BinaryOperatorExpr:
		sb.WriteByte('(')
		format(sb, n.Left)
		sb.WriteByte(' ')
		sb.WriteString(n.Operator.String())
		sb.WriteByte(' ')
		format(sb, n.Right)
		sb.WriteByte(')')

	case *PrefixExpr:
		sb.WriteByte('(')
		sb.WriteString(n.Operator.String())
		if n.Operator.IsKeyword() {
			sb.WriteByte(' ')
		}
		format(sb, n.Right)
		sb.WriteByte(')')

	case *PostfixExpr:
		sb.WriteByte('(')
		format(sb, n.Left)
		sb.WriteString(n.Operator.String())
		sb.WriteByte(')')

	case *AssignExpr:
		sb.WriteByte('(')
		format(sb, n.Left)
		sb.WriteByte(' ')
		sb.WriteString(n.Operator.String())
		sb.WriteByte(' ')
		format(sb, n.Right)
		sb.WriteByte(')')

	case *ConditionalExpr:
		sb.WriteByte('(')
		format(sb, n.Cond)
		sb.WriteString(" ? ")
		format(sb, n.Then)
		sb.WriteString(" : ")
		format(sb, n.Else)
		sb.WriteByte(')')

	case *CallExpr:
		format(sb, n.Callee)
		sb.WriteByte('(')
		formatList(sb, n.Args)
		sb.WriteByte(')')

	case *AccessorExpr:
		format(sb, n.Member)
		sb.WriteByte('[')
		format(sb, n.Index)
		sb.WriteByte(']')

	case *NewExpr:
		sb.WriteString("(new ")
		format(sb, n.Call)
		sb.WriteByte(')')

	case *ArrayLiteralExpr:
		sb.WriteByte('[')
		formatList(sb, n.Elements)
		sb.WriteByte(']')

	case *ObjectLiteralExpr:
		sb.WriteByte('{')
		for i, m := range n.Members {
			if i > 0 {
				sb.WriteString(", ")
			}
			format(sb, m)
		}
		sb.WriteByte('}')

	case *DefinitionExpr:
		sb.WriteString(n.Key)
		sb.WriteString(": ")
		format(sb, n.Value)

	case *MethodExpr:
		sb.WriteString("function")
		if n.Name != nil {
			sb.WriteByte(' ')
			sb.WriteString(n.Name.Name)
		}
		sb.WriteByte('(')
		for i, p := range n.Params {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(p.Name)
		}
		sb.WriteString(") ")
		format(sb, n.Body)

	case *SequenceExpr:
		sb.WriteByte('{')
		for i, item := range n.Items {
			if i > 0 {
				sb.WriteString("; ")
			}
			format(sb, item)
		}
		sb.WriteByte('}')

	case *VarExpr:
		sb.WriteString("var ")
		formatList(sb, n.Items)

	case *IfExpr:
		sb.WriteString("if ")
		formatCond(sb, n.Cond)
		sb.WriteByte(' ')
		format(sb, n.Then)
		if n.Else != nil {
			sb.WriteString(" else ")
			format(sb, n.Else)
		}

	case *ConditionalLoopExpr:
		if n.PostCondition {
			sb.WriteString("do ")
			format(sb, n.Body)
			sb.WriteString(" while ")
			formatCond(sb, n.Cond)
		} else {
			sb.WriteString("while ")
			formatCond(sb, n.Cond)
			sb.WriteByte(' ')
			format(sb, n.Body)
		}

	case *ForExpr:
		sb.WriteString("for (")
		if n.Init != nil {
			format(sb, n.Init)
		}
		sb.WriteString("; ")
		if n.Cond != nil {
			format(sb, n.Cond)
		}
		sb.WriteString("; ")
		if n.Step != nil {
			format(sb, n.Step)
		}
		sb.WriteString(") ")
		format(sb, n.Body)

	case *ForInExpr:
		sb.WriteString("for (")
		if n.Declare {
			sb.WriteString("var ")
		}
		sb.WriteString(n.Item.Name)
		sb.WriteString(" in ")
		format(sb, n.Collection)
		sb.WriteString(") ")
		format(sb, n.Body)

	case *TryCatchFinallyExpr:
		sb.WriteString("try ")
		format(sb, n.Try)
		if n.Catch != nil {
			sb.WriteString(" catch (")
			sb.WriteString(n.CatchName.Name)
			sb.WriteString(") ")
			format(sb, n.Catch)
		}
		if n.Finally != nil {
			sb.WriteString(" finally ")
			format(sb, n.Finally)
		}

	case *SwitchExpr:
		sb.WriteString("switch ")
		formatCond(sb, n.Subject)
		sb.WriteString(" {")
		for i, c := range n.Cases {
			if i > 0 {
				sb.WriteByte(' ')
			}
			format(sb, c)
		}
		sb.WriteByte('}')

	case *CaseExpr:
		if n.Test == nil {
			sb.WriteString("default: ")
		} else {
			sb.WriteString("case ")
			format(sb, n.Test)
			sb.WriteString(": ")
		}
		format(sb, n.Body)

	case *ReturnExpr:
		sb.WriteString("return")
		if n.Value != nil {
			sb.WriteByte(' ')
			format(sb, n.Value)
		}

	case *ThrowExpr:
		sb.WriteString("throw ")
		format(sb, n.Value)

	case *BreakExpr:
		sb.WriteString("break")

	case *ContinueExpr:
		sb.WriteString("continue")
	}
}

func formatList(sb *strings.Builder, items []Expr) {
	for i, item := range items {
		if i > 0 {
			sb.WriteString(", ")
		}
		format(sb, item)
	}
}

// formatCond writes a parenthesized condition without doubling the
// parentheses of an operator expression.
func formatCond(sb *strings.Builder, e Expr) {
	s := Format(e)
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") && balanced(s[1:len(s)-1]) {
		sb.WriteString(s)
		return
	}
	sb.WriteByte('(')
	sb.WriteString(s)
	sb.WriteByte(')')
}

func balanced(s string) bool {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return false
			}
		}
	}
	return depth == 0
}

func (n *IdentifierExpr) String() string      { return Format(n) }
func (n *IdentifierPartExpr) String() string  { return Format(n) }
func (n *ConstantExpr) String() string        { return Format(n) }
func (n *IllegalExpr) String() string         { return Format(n) }
func (n *BinaryOperatorExpr) String() string  { return Format(n) }
func (n *PrefixExpr) String() string          { return Format(n) }
func (n *PostfixExpr) String() string         { return Format(n) }
func (n *AssignExpr) String() string          { return Format(n) }
func (n *ConditionalExpr) String() string     { return Format(n) }
func (n *CallExpr) String() string            { return Format(n) }
func (n *AccessorExpr) String() string        { return Format(n) }
func (n *NewExpr) String() string             { return Format(n) }
func (n *ArrayLiteralExpr) String() string    { return Format(n) }
func (n *ObjectLiteralExpr) String() string   { return Format(n) }
func (n *DefinitionExpr) String() string      { return Format(n) }
func (n *MethodExpr) String() string          { return Format(n) }
func (n *SequenceExpr) String() string        { return Format(n) }
func (n *VarExpr) String() string             { return Format(n) }
func (n *IfExpr) String() string              { return Format(n) }
func (n *ConditionalLoopExpr) String() string { return Format(n) }
func (n *ForExpr) String() string             { return Format(n) }
func (n *ForInExpr) String() string           { return Format(n) }
func (n *TryCatchFinallyExpr) String() string { return Format(n) }
func (n *SwitchExpr) String() string          { return Format(n) }
func (n *CaseExpr) String() string            { return Format(n) }
func (n *ReturnExpr) String() string          { return Format(n) }
func (n *ThrowExpr) String() string           { return Format(n) }
func (n *BreakExpr) String() string           { return Format(n) }
func (n *ContinueExpr) String() string        { return Format(n) }
