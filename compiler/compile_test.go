package compiler

import (
	"strings"
	"testing"
)

func TestCompileEndToEnd(t *testing.T) {
	source := `var total = 2 * 3 + 1;
function add(a, b) { return a + b; }
total = add(total, "x" + "y");`

	unit := Compile(source, WithName("sum.js"))
	if unit.Name != "sum.js" {
		t.Errorf("Name = %q", unit.Name)
	}
	if unit.Source != source {
		t.Error("Source not kept")
	}
	if unit.HasErrors() {
		t.Fatalf("unexpected errors:\n%s", unit.Reporter.Render(source))
	}
	if len(unit.Program) != 3 {
		t.Fatalf("got %d statements, want 3", len(unit.Program))
	}

	if got := Format(unit.Program[0]); got != "var (total = 7)" {
		t.Errorf("statement 0 = %s", got)
	}
	for _, name := range []string{"total", "add"} {
		if _, ok := unit.Scope.Lookup(name); !ok {
			t.Errorf("%s not defined in unit scope", name)
		}
	}

	var values []string
	for _, c := range unit.Scope.Constants() {
		values = append(values, c.Type.String()+":"+c.Value)
	}
	if got := strings.Join(values, ","); got != "Number:7,String:xy" {
		t.Errorf("constants = %s", got)
	}
}

func TestCompileGlobals(t *testing.T) {
	source := "print(1);"

	if unit := Compile(source); !unit.HasErrors() {
		t.Error("call to undefined print compiled cleanly")
	}
	if unit := Compile(source, WithGlobals("print")); unit.HasErrors() {
		t.Errorf("errors with print predefined:\n%s", unit.Reporter.Render(source))
	}
}

func TestCompileDefaultName(t *testing.T) {
	if unit := Compile(""); unit.Name != "<input>" || len(unit.Program) != 0 {
		t.Errorf("Compile(\"\") = %+v", unit)
	}
}

func TestCompileFreshScopes(t *testing.T) {
	a := Compile("var x = 1;")
	b := Compile("var x = 1;")
	if a.Scope.ID == b.Scope.ID {
		t.Error("units share a scope ID")
	}
	if b.HasErrors() {
		t.Error("second compile saw the first unit's definitions")
	}
}

func TestCompileReportsEveryStage(t *testing.T) {
	source := "var a = 1; var a = 2;\nb = 'x' - 1;\nc = ;"
	unit := Compile(source, WithGlobals("b", "c"))

	wants := []string{
		"Not able to parse ';'.",
		"'a' is already defined.",
		"Type mismatch",
	}
	out := unit.Reporter.Render(source)
	for _, want := range wants {
		if !strings.Contains(out, want) {
			t.Errorf("diagnostics missing %q:\n%s", want, out)
		}
	}
}
