package compiler

import "testing"

func TestXrefDeduplicatesConstants(t *testing.T) {
	input := `a=1+2; b=true||true; c="foo"+"bar"; d=7-4; e=!false; f="fo"+"ob"+"ar";`
	program, scope, _ := resolveString(t, input, "a", "b", "c", "d", "e", "f")
	program = BuildXref(program, scope)

	want := []Constant{
		{Key: 0, Value: "3", Type: ConstNumber},
		{Key: 1, Value: "true", Type: ConstBoolean},
		{Key: 2, Value: "foobar", Type: ConstString},
	}
	got := scope.Constants()
	if len(got) != len(want) {
		t.Fatalf("got %d constants %v, want %d", len(got), got, len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("constant[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}

	wantKeys := []int{0, 1, 2, 0, 1, 2}
	for i, stmt := range program {
		c, ok := stmt.(*AssignExpr).Right.(*ConstantExpr)
		if !ok {
			t.Fatalf("statement %d: right side %s is not a constant", i, stmt)
		}
		if !c.Keyed || c.Key != wantKeys[i] {
			t.Errorf("statement %d: key = %d (keyed %v), want %d", i, c.Key, c.Keyed, wantKeys[i])
		}
	}
}

func TestXrefNormalizesLiterals(t *testing.T) {
	program, scope, _ := resolveString(t, "x = [1, 1.0, 0x1, 1e0, '1', true, null, null, /a/g];", "x")
	BuildXref(program, scope)

	want := []Constant{
		{Key: 0, Value: "1", Type: ConstNumber},
		{Key: 1, Value: "1", Type: ConstString},
		{Key: 2, Value: "true", Type: ConstBoolean},
		{Key: 3, Value: "null", Type: ConstNull},
		{Key: 4, Value: "/a/g", Type: ConstRegEx},
	}
	got := scope.Constants()
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("constant[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestXrefKeepsAssignmentTags(t *testing.T) {
	program, scope, _ := resolveString(t, "var a = 1; a = 2;")
	program = BuildXref(program, scope)
	if _, ok := scope.AssignmentFor(program[1].(*AssignExpr)); !ok {
		t.Error("rebuilt assignment lost its tag")
	}
	v := program[0].(*VarExpr)
	if _, ok := scope.AssignmentFor(v.Items[0].(*AssignExpr)); !ok {
		t.Error("rebuilt var initializer lost its tag")
	}
}

func TestXrefDoesNotModifyInput(t *testing.T) {
	program, scope, _ := resolveString(t, "x = 42;", "x")
	BuildXref(program, scope)
	if c := program[0].(*AssignExpr).Right.(*ConstantExpr); c.Keyed {
		t.Error("input constant was keyed in place")
	}
}
