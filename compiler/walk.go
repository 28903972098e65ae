package compiler

// ---------------------------------------------------------------------------
// Walk: default rebuild behaviour shared by every pass
// ---------------------------------------------------------------------------

// Rebuild returns a new node of the same kind as e whose children are the
// results of fn applied to e's children. Passes call Rebuild for the node
// kinds they do not handle themselves, and fn is usually the pass itself.
//
// Rebuild never modifies e. Optional children that are nil stay nil.
func Rebuild(e Expr, fn func(Expr) Expr) Expr {
	switch n := e.(type) {
	case nil:
		return nil

	case *IdentifierExpr:
		c := *n
		return &c

	case *ConstantExpr:
		c := *n
		return &c

	case *BreakExpr:
		c := *n
		return &c

	case *ContinueExpr:
		c := *n
		return &c

	case *IdentifierPartExpr:
		return &IdentifierPartExpr{
			SpanVal: n.SpanVal,
			Object:  fn(n.Object),
			Member:  rebuildIdent(n.Member, fn),
		}

	case *IllegalExpr:
		return &IllegalExpr{SpanVal: n.SpanVal, Message: n.Message, Children: rebuildList(n.Children, fn)}

	case *BinaryOperatorExpr:
		return &BinaryOperatorExpr{SpanVal: n.SpanVal, Left: fn(n.Left), Operator: n.Operator, Right: fn(n.Right)}

	case *PrefixExpr:
		return &PrefixExpr{SpanVal: n.SpanVal, Operator: n.Operator, Right: fn(n.Right)}

	case *PostfixExpr:
		return &PostfixExpr{SpanVal: n.SpanVal, Left: fn(n.Left), Operator: n.Operator}

	case *AssignExpr:
		return NewAssignExpr(n.SpanVal, fn(n.Left), n.Operator, fn(n.Right))

	case *ConditionalExpr:
		return &ConditionalExpr{SpanVal: n.SpanVal, Cond: fn(n.Cond), Then: fn(n.Then), Else: fn(n.Else)}

	case *CallExpr:
		return &CallExpr{SpanVal: n.SpanVal, Callee: fn(n.Callee), Args: rebuildList(n.Args, fn)}

	case *AccessorExpr:
		return &AccessorExpr{SpanVal: n.SpanVal, Member: fn(n.Member), Index: fn(n.Index)}

	case *NewExpr:
		return NewNewExpr(n.SpanVal, fn(n.Call))

	case *ArrayLiteralExpr:
		return &ArrayLiteralExpr{SpanVal: n.SpanVal, Elements: rebuildList(n.Elements, fn)}

	case *ObjectLiteralExpr:
		members := make([]*DefinitionExpr, len(n.Members))
		for i, m := range n.Members {
			members[i] = rebuildDefinition(m, fn)
		}
		return &ObjectLiteralExpr{SpanVal: n.SpanVal, Members: members}

	case *DefinitionExpr:
		return rebuildDefinition(n, fn)

	case *MethodExpr:
		params := make([]*IdentifierExpr, len(n.Params))
		for i, p := range n.Params {
			params[i] = rebuildIdent(p, fn)
		}
		return &MethodExpr{
			SpanVal: n.SpanVal,
			Name:    rebuildIdent(n.Name, fn),
			Params:  params,
			Body:    rebuildSequence(n.Body, fn),
		}

	case *SequenceExpr:
		return &SequenceExpr{SpanVal: n.SpanVal, Items: rebuildList(n.Items, fn)}

	case *VarExpr:
		return &VarExpr{SpanVal: n.SpanVal, Items: rebuildList(n.Items, fn)}

	case *IfExpr:
		return &IfExpr{SpanVal: n.SpanVal, Cond: fn(n.Cond), Then: fn(n.Then), Else: opt(n.Else, fn)}

	case *ConditionalLoopExpr:
		return &ConditionalLoopExpr{SpanVal: n.SpanVal, Cond: fn(n.Cond), Body: fn(n.Body), PostCondition: n.PostCondition}

	case *ForExpr:
		return &ForExpr{
			SpanVal: n.SpanVal,
			Init:    opt(n.Init, fn),
			Cond:    opt(n.Cond, fn),
			Step:    opt(n.Step, fn),
			Body:    fn(n.Body),
		}

	case *ForInExpr:
		return &ForInExpr{
			SpanVal:    n.SpanVal,
			Declare:    n.Declare,
			Item:       rebuildIdent(n.Item, fn),
			Collection: fn(n.Collection),
			Body:       fn(n.Body),
		}

	case *TryCatchFinallyExpr:
		return &TryCatchFinallyExpr{
			SpanVal:   n.SpanVal,
			Try:       rebuildSequence(n.Try, fn),
			CatchName: rebuildIdent(n.CatchName, fn),
			Catch:     rebuildSequence(n.Catch, fn),
			Finally:   rebuildSequence(n.Finally, fn),
		}

	case *SwitchExpr:
		cases := make([]*CaseExpr, len(n.Cases))
		for i, c := range n.Cases {
			cases[i] = rebuildCase(c, fn)
		}
		return &SwitchExpr{SpanVal: n.SpanVal, Subject: fn(n.Subject), Cases: cases}

	case *CaseExpr:
		return rebuildCase(n, fn)

	case *ReturnExpr:
		return &ReturnExpr{SpanVal: n.SpanVal, Value: opt(n.Value, fn)}

	case *ThrowExpr:
		return &ThrowExpr{SpanVal: n.SpanVal, Value: fn(n.Value)}
	}
	panic("compiler: Rebuild: unhandled node type")
}

func opt(e Expr, fn func(Expr) Expr) Expr {
	if e == nil {
		return nil
	}
	return fn(e)
}

func rebuildList(items []Expr, fn func(Expr) Expr) []Expr {
	if items == nil {
		return nil
	}
	out := make([]Expr, len(items))
	for i, item := range items {
		out[i] = fn(item)
	}
	return out
}

// rebuildIdent applies fn to a typed identifier slot. A pass that replaces
// the identifier with another kind of node leaves the slot unchanged.
func rebuildIdent(id *IdentifierExpr, fn func(Expr) Expr) *IdentifierExpr {
	if id == nil {
		return nil
	}
	if r, ok := fn(id).(*IdentifierExpr); ok {
		return r
	}
	return id
}

// rebuildSequence applies fn to a typed block slot, wrapping the result in a
// sequence if fn returned some other node.
func rebuildSequence(s *SequenceExpr, fn func(Expr) Expr) *SequenceExpr {
	if s == nil {
		return nil
	}
	switch r := fn(s).(type) {
	case *SequenceExpr:
		return r
	case nil:
		return &SequenceExpr{SpanVal: s.SpanVal}
	default:
		return &SequenceExpr{SpanVal: s.SpanVal, Items: []Expr{r}}
	}
}

func rebuildDefinition(d *DefinitionExpr, fn func(Expr) Expr) *DefinitionExpr {
	return &DefinitionExpr{SpanVal: d.SpanVal, Key: d.Key, Value: fn(d.Value)}
}

func rebuildCase(c *CaseExpr, fn func(Expr) Expr) *CaseExpr {
	return &CaseExpr{SpanVal: c.SpanVal, Test: opt(c.Test, fn), Body: rebuildSequence(c.Body, fn)}
}

// Walk calls visit for e and every node below it in depth-first order,
// parent before children. If visit returns false the children of that node
// are skipped.
func Walk(e Expr, visit func(Expr) bool) {
	if e == nil || !visit(e) {
		return
	}
	Rebuild(e, func(child Expr) Expr {
		Walk(child, visit)
		return child
	})
}
