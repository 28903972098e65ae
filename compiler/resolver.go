package compiler

import (
	"fmt"
	"strings"

	"github.com/dlclark/regexp2"
)

// ---------------------------------------------------------------------------
// Resolver: scope checks, constant folding and dead code elimination
// ---------------------------------------------------------------------------

// Resolve checks program against scope and returns a rebuilt program with
// constants folded, statically decided branches pruned and unreachable
// statements removed. Diagnostics go to rep; assignments are recorded in
// scope. The input tree is not modified.
func Resolve(program []Expr, scope *Scope, rep *Reporter) []Expr {
	r := &resolver{scope: scope, rep: rep}
	return r.sequence(program)
}

type resolver struct {
	scope *Scope
	rep   *Reporter
}

func (r *resolver) resolve(e Expr) Expr {
	switch n := e.(type) {
	case nil:
		return nil

	case *IdentifierExpr:
		c := *n
		if r.scope.Allocating() {
			r.define(&c)
		}
		return &c

	case *ConstantExpr:
		if n.Type == ConstRegEx {
			r.checkRegex(n)
		}
		c := *n
		return &c

	case *BinaryOperatorExpr:
		return r.binary(n)

	case *PrefixExpr:
		right := r.resolve(n.Right)
		if c, ok := right.(*ConstantExpr); ok {
			if folded := foldPrefix(n.Operator, c, n.SpanVal); folded != nil {
				return folded
			}
		}
		return &PrefixExpr{SpanVal: n.SpanVal, Operator: n.Operator, Right: right}

	case *AssignExpr:
		return r.assign(n)

	case *CallExpr:
		switch n.Callee.(type) {
		case *IdentifierExpr, *IdentifierPartExpr:
			r.checkRoot(n.Callee, SeverityError)
		}
		return Rebuild(n, r.resolve)

	case *AccessorExpr:
		if !isIdentifierLike(n.Member) {
			r.rep.AddError(n.Member, "Accessor target must be an identifier, member, call or accessor.")
		} else {
			r.checkRoot(n.Member, SeverityWarning)
		}
		return Rebuild(n, r.resolve)

	case *ConditionalExpr:
		cond := r.resolve(n.Cond)
		if b, ok := constantBool(cond); ok {
			if b {
				return r.resolve(n.Then)
			}
			return r.resolve(n.Else)
		}
		return &ConditionalExpr{SpanVal: n.SpanVal, Cond: cond, Then: r.resolve(n.Then), Else: r.resolve(n.Else)}

	case *IfExpr:
		cond := r.resolve(n.Cond)
		if b, ok := constantBool(cond); ok {
			switch {
			case b:
				return r.resolve(n.Then)
			case n.Else != nil:
				return r.resolve(n.Else)
			}
			return &SequenceExpr{SpanVal: n.SpanVal}
		}
		return &IfExpr{SpanVal: n.SpanVal, Cond: cond, Then: r.resolve(n.Then), Else: opt(n.Else, r.resolve)}

	case *SequenceExpr:
		return &SequenceExpr{SpanVal: n.SpanVal, Items: r.sequence(n.Items)}

	case *VarExpr:
		return r.declare(n)

	case *MethodExpr:
		return r.method(n)

	case *ForInExpr:
		return r.forIn(n)

	case *TryCatchFinallyExpr:
		return r.try(n)

	case *ObjectLiteralExpr:
		seen := make(map[string]bool, len(n.Members))
		for _, m := range n.Members {
			if seen[m.Key] {
				r.rep.AddWarning(m, fmt.Sprintf("Duplicate key '%s' in object literal.", m.Key))
			}
			seen[m.Key] = true
		}
		return Rebuild(n, r.resolve)
	}
	return Rebuild(e, r.resolve)
}

// sequence resolves statements in order. Everything after a break,
// continue, return or throw is dropped with one warning per statement.
func (r *resolver) sequence(items []Expr) []Expr {
	var out []Expr
	for i, item := range items {
		res := r.resolve(item)
		out = append(out, res)
		if IsControlTransfer(res) {
			for _, dead := range items[i+1:] {
				r.rep.AddWarning(dead, "Unreachable code.")
			}
			break
		}
	}
	return out
}

func (r *resolver) binary(n *BinaryOperatorExpr) Expr {
	left := r.resolve(n.Left)
	right := r.resolve(n.Right)
	lc, lok := left.(*ConstantExpr)
	rc, rok := right.(*ConstantExpr)
	if lok && rok {
		folded, mismatch := foldBinary(n.Operator, lc, rc, n.SpanVal)
		if mismatch {
			msg := fmt.Sprintf("Type mismatch: %s %s %s.", lc.Type, n.Operator, rc.Type)
			r.rep.AddError(lc, msg)
			r.rep.AddError(rc, msg)
		}
		if folded != nil {
			return folded
		}
	}
	return &BinaryOperatorExpr{SpanVal: n.SpanVal, Left: left, Operator: n.Operator, Right: right}
}

// assign resolves an assignment. Writing through an undefined root is an
// error and leaves the assignment untagged.
func (r *resolver) assign(n *AssignExpr) Expr {
	defined := r.checkRoot(n.Left, SeverityError)
	switch n.Right.(type) {
	case *IdentifierExpr, *IdentifierPartExpr:
		r.checkRoot(n.Right, SeverityWarning)
	}

	prev := r.scope.SetAllocating(false)
	left := r.target(n.Left)
	right := r.resolve(n.Right)
	r.scope.SetAllocating(prev)

	a := NewAssignExpr(n.SpanVal, left, n.Operator, right)
	if defined {
		r.scope.AddAssignment(a)
	}
	return a
}

// target resolves an assignment target without repeating the root check
// that assign already made.
func (r *resolver) target(e Expr) Expr {
	switch n := e.(type) {
	case *IdentifierExpr:
		c := *n
		return &c
	case *IdentifierPartExpr:
		return &IdentifierPartExpr{SpanVal: n.SpanVal, Object: r.target(n.Object), Member: rebuildIdent(n.Member, r.resolve)}
	case *AccessorExpr:
		return &AccessorExpr{SpanVal: n.SpanVal, Member: r.target(n.Member), Index: r.resolve(n.Index)}
	case *CallExpr:
		args := make([]Expr, len(n.Args))
		for i, arg := range n.Args {
			args[i] = r.resolve(arg)
		}
		return &CallExpr{SpanVal: n.SpanVal, Callee: r.target(n.Callee), Args: args}
	}
	return r.resolve(e)
}

// declare resolves a var statement in allocation mode.
func (r *resolver) declare(n *VarExpr) Expr {
	items := make([]Expr, len(n.Items))
	for i, item := range n.Items {
		switch it := item.(type) {
		case *IdentifierExpr:
			prev := r.scope.SetAllocating(true)
			items[i] = r.resolve(it)
			r.scope.SetAllocating(prev)

		case *AssignExpr:
			prev := r.scope.SetAllocating(true)
			left := r.resolve(it.Left)
			r.scope.SetAllocating(false)
			right := r.resolve(it.Right)
			r.scope.SetAllocating(prev)

			a := NewAssignExpr(it.SpanVal, left, it.Operator, right)
			r.scope.AddAssignment(a)
			items[i] = a

		default:
			items[i] = r.resolve(item)
		}
	}
	return &VarExpr{SpanVal: n.SpanVal, Items: items}
}

// method resolves a function. Its name is bound in the enclosing frame
// before the body is resolved, so the body may call it.
func (r *resolver) method(n *MethodExpr) Expr {
	var name *IdentifierExpr
	if n.Name != nil {
		c := *n.Name
		name = &c
		r.define(name)
	}

	prev := r.scope.SetAllocating(false)
	r.scope.Push()
	params := make([]*IdentifierExpr, len(n.Params))
	for i, p := range n.Params {
		c := *p
		params[i] = &c
		if !r.scope.Define(c.Name, &c) {
			r.rep.AddError(p, fmt.Sprintf("Duplicate parameter '%s'.", c.Name))
		}
	}
	body := &SequenceExpr{SpanVal: n.Body.SpanVal, Items: r.sequence(n.Body.Items)}
	r.scope.Pop()
	r.scope.SetAllocating(prev)

	return &MethodExpr{SpanVal: n.SpanVal, Name: name, Params: params, Body: body}
}

func (r *resolver) forIn(n *ForInExpr) Expr {
	item := *n.Item
	if n.Declare {
		r.define(&item)
	} else {
		r.checkRoot(n.Item, SeverityError)
	}
	return &ForInExpr{
		SpanVal:    n.SpanVal,
		Declare:    n.Declare,
		Item:       &item,
		Collection: r.resolve(n.Collection),
		Body:       r.resolve(n.Body),
	}
}

func (r *resolver) try(n *TryCatchFinallyExpr) Expr {
	out := &TryCatchFinallyExpr{
		SpanVal: n.SpanVal,
		Try:     &SequenceExpr{SpanVal: n.Try.SpanVal, Items: r.sequence(n.Try.Items)},
	}
	if n.Catch != nil {
		r.scope.Push()
		name := *n.CatchName
		r.define(&name)
		out.CatchName = &name
		out.Catch = &SequenceExpr{SpanVal: n.Catch.SpanVal, Items: r.sequence(n.Catch.Items)}
		r.scope.Pop()
	}
	if n.Finally != nil {
		out.Finally = &SequenceExpr{SpanVal: n.Finally.SpanVal, Items: r.sequence(n.Finally.Items)}
	}
	return out
}

func (r *resolver) define(id *IdentifierExpr) {
	if !r.scope.Define(id.Name, id) {
		r.rep.AddError(id, fmt.Sprintf("'%s' is already defined.", id.Name))
	}
}

// checkRoot looks up the first segment of e's identifier path. Nested
// members are not checked: objects are open and members spring into
// existence on first use. It reports false, after recording a diagnostic of
// the given severity, when the root is undefined.
func (r *resolver) checkRoot(e Expr, sev Severity) bool {
	path := IdentifierPath(e)
	if len(path) == 0 {
		return true
	}
	if _, ok := r.scope.Lookup(path[0]); ok {
		return true
	}
	msg := fmt.Sprintf("'%s' is not defined.", path[0])
	if len(path) > 1 {
		msg = fmt.Sprintf("'%s' is not defined (in '%s').", path[0], strings.Join(path, "."))
	}
	if sev == SeverityError {
		r.rep.AddError(e, msg)
	} else {
		r.rep.AddWarning(e, msg)
	}
	return false
}

// checkRegex compiles a regular expression literal with ECMAScript
// semantics.
func (r *resolver) checkRegex(c *ConstantExpr) {
	lit := c.Literal
	end := strings.LastIndexByte(lit, '/')
	if end <= 0 {
		return
	}
	opts := regexp2.RegexOptions(regexp2.ECMAScript)
	for _, f := range lit[end+1:] {
		switch f {
		case 'i':
			opts |= regexp2.IgnoreCase
		case 'm':
			opts |= regexp2.Multiline
		}
	}
	if _, err := regexp2.Compile(lit[1:end], opts); err != nil {
		r.rep.AddError(c, fmt.Sprintf("Invalid regular expression: %v.", err))
	}
}

// IdentifierPath returns the dotted path named by e: a.b.c yields
// [a b c]. Accessors and calls contribute the path of their member or
// callee. It returns nil when e does not start with an identifier.
func IdentifierPath(e Expr) []string {
	switch n := e.(type) {
	case *IdentifierExpr:
		return []string{n.Name}
	case *IdentifierPartExpr:
		base := IdentifierPath(n.Object)
		if base == nil {
			return nil
		}
		return append(base, n.Member.Name)
	case *AccessorExpr:
		return IdentifierPath(n.Member)
	case *CallExpr:
		return IdentifierPath(n.Callee)
	}
	return nil
}

func isIdentifierLike(e Expr) bool {
	switch e.(type) {
	case *IdentifierExpr, *IdentifierPartExpr, *AccessorExpr, *CallExpr:
		return true
	}
	return false
}

func constantBool(e Expr) (bool, bool) {
	c, ok := e.(*ConstantExpr)
	if !ok || c.Type != ConstBoolean {
		return false, false
	}
	return c.Literal == "true", true
}
