package compiler

// BuildXref collects every literal of program into scope's constant pool and
// returns a rebuilt program whose ConstantExpr nodes carry their pool keys.
// Equal values of the same type share one key.
func BuildXref(program []Expr, scope *Scope) []Expr {
	var xref func(Expr) Expr
	xref = func(e Expr) Expr {
		switch n := e.(type) {
		case *ConstantExpr:
			c := *n
			c.Key = scope.AddConstant(NormalizeConstant(n), n.Type)
			c.Keyed = true
			return &c
		case *AssignExpr:
			a := Rebuild(n, xref).(*AssignExpr)
			scope.retag(n, a)
			return a
		}
		return Rebuild(e, xref)
	}

	out := make([]Expr, len(program))
	for i, e := range program {
		out[i] = xref(e)
	}
	return out
}
