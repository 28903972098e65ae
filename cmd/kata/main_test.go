package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chazu/kata/compiler/pool"
	"github.com/chazu/kata/manifest"
	"github.com/chazu/kata/store"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func newProject(t *testing.T) (*manifest.Manifest, string) {
	t.Helper()
	dir := t.TempDir()
	m, err := manifest.Default(dir)
	if err != nil {
		t.Fatal(err)
	}
	return m, dir
}

func TestCollectFiles(t *testing.T) {
	m, dir := newProject(t)
	writeFile(t, filepath.Join(dir, "a.js"), "")
	writeFile(t, filepath.Join(dir, "lib", "b.js"), "")
	writeFile(t, filepath.Join(dir, "lib", "notes.txt"), "")
	writeFile(t, filepath.Join(dir, ".cache", "c.js"), "")
	writeFile(t, filepath.Join(dir, "script.txt"), "")

	files, err := collectFiles(m, []string{dir, filepath.Join(dir, "a.js"), filepath.Join(dir, "script.txt")})
	if err != nil {
		t.Fatalf("collectFiles failed: %v", err)
	}
	var names []string
	for _, f := range files {
		rel, _ := filepath.Rel(dir, f)
		names = append(names, rel)
	}
	want := "a.js,lib/b.js,script.txt"
	if got := strings.Join(names, ","); got != want {
		t.Errorf("files = %s, want %s", got, want)
	}

	if _, err := collectFiles(m, []string{filepath.Join(dir, "missing")}); err == nil {
		t.Error("missing path did not fail")
	}
}

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, manifest.FileName), "[project]\nname = \"cli\"\n")

	for _, path := range []string{dir, filepath.Join(dir, manifest.FileName)} {
		m, err := loadManifest(path)
		if err != nil {
			t.Fatalf("loadManifest(%s) failed: %v", path, err)
		}
		if m.Project.Name != "cli" {
			t.Errorf("project name = %q", m.Project.Name)
		}
	}

	if _, err := loadManifest(filepath.Join(dir, "other.toml")); err == nil {
		t.Error("config with the wrong file name accepted")
	}
}

func TestBuild(t *testing.T) {
	m, dir := newProject(t)
	m.Analysis.Globals = []string{"print", "y"}
	m.Output.Pool = "out"
	m.Output.Store = "units.db"
	writeFile(t, filepath.Join(dir, "ok.js"), "var x = 2 * 21;\nprint(x);\n")
	writeFile(t, filepath.Join(dir, "bad.js"), "y = ;\n")

	ctx := context.Background()
	st, err := store.Open(ctx, m.StorePath())
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	var out, errOut bytes.Buffer
	b := &builder{manifest: m, store: st, showAST: true, out: &out, errOut: &errOut}
	files := []string{filepath.Join(dir, "ok.js"), filepath.Join(dir, "bad.js")}
	failed, err := b.build(ctx, files)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if !failed {
		t.Error("build with an error did not fail")
	}

	if !strings.Contains(out.String(), "var (x = 42)") {
		t.Errorf("AST output =\n%s", out.String())
	}
	if !strings.Contains(errOut.String(), "bad.js:\nError at 1:5: Not able to parse ';'.") {
		t.Errorf("diagnostics =\n%s", errOut.String())
	}
	if !strings.HasSuffix(errOut.String(), "2 files, 1 errors, 0 warnings\n") {
		t.Errorf("summary =\n%s", errOut.String())
	}

	data, err := os.ReadFile(filepath.Join(dir, "out", "ok.pool"))
	if err != nil {
		t.Fatalf("pool not written: %v", err)
	}
	p, err := pool.Unmarshal(data)
	if err != nil {
		t.Fatal(err)
	}
	if e, ok := p.Lookup(0); !ok || e.Value != "42" {
		t.Errorf("pool entry 0 = %v, %v", e, ok)
	}

	units, err := st.Units(ctx)
	if err != nil || len(units) != 2 {
		t.Errorf("stored units = %v, %v", units, err)
	}
}

func TestBuildWarningsAsErrors(t *testing.T) {
	m, dir := newProject(t)
	path := filepath.Join(dir, "w.js")
	writeFile(t, path, "return;\nx;\n")

	var out, errOut bytes.Buffer
	b := &builder{manifest: m, out: &out, errOut: &errOut}
	if failed, err := b.build(context.Background(), []string{path}); err != nil || failed {
		t.Errorf("warnings failed the build: %v, %v", failed, err)
	}

	m.Analysis.WarningsAsErrors = true
	if failed, _ := b.build(context.Background(), []string{path}); !failed {
		t.Error("warnings-as-errors did not fail the build")
	}
}

func TestBuildTokens(t *testing.T) {
	m, dir := newProject(t)
	path := filepath.Join(dir, "t.js")
	writeFile(t, path, "a + 1")

	var out bytes.Buffer
	b := &builder{manifest: m, showTokens: true, out: &out, errOut: &bytes.Buffer{}}
	if _, err := b.build(context.Background(), []string{path}); err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(out.String(), "\n  "); n != 4 {
		t.Errorf("printed %d tokens, want 4 (a, +, 1, EOF):\n%s", n, out.String())
	}
}

func TestOpenBrackets(t *testing.T) {
	tests := []struct {
		src  string
		want int
	}{
		{"x = 1;", 0},
		{"function f() {", 1},
		{"if (a) { b = [1,", 2},
		{"}", -1},
		{"s = '{';", 0},
		{"// {", 0},
	}
	for _, tt := range tests {
		if got := openBrackets(tt.src); got != tt.want {
			t.Errorf("openBrackets(%q) = %d, want %d", tt.src, got, tt.want)
		}
	}
}

func TestSessionKeepsDefinitions(t *testing.T) {
	m, _ := newProject(t)
	var out bytes.Buffer
	s := &session{manifest: m, out: &out}

	s.eval("var total = 1;")
	s.eval("function inc(n) { return n + 1; }")
	out.Reset()
	s.eval("total = inc(total);")
	if strings.Contains(out.String(), "Error") {
		t.Errorf("earlier definitions not visible:\n%s", out.String())
	}

	// Input with errors defines nothing.
	s.eval("var broken = ;")
	out.Reset()
	s.eval("broken();")
	if !strings.Contains(out.String(), "'broken' is not defined.") {
		t.Errorf("output =\n%s", out.String())
	}

	if !s.command(":reset") || len(s.globals) != 0 {
		t.Errorf("globals after reset = %v", s.globals)
	}
	if s.command(":quit") {
		t.Error(":quit did not end the session")
	}
}

func TestSessionPoolDisplay(t *testing.T) {
	m, _ := newProject(t)
	var out bytes.Buffer
	s := &session{manifest: m, out: &out}
	s.command(":pool")
	out.Reset()
	s.eval("var x = 'hi';")
	if !strings.Contains(out.String(), `#0 String "hi"`) {
		t.Errorf("output =\n%s", out.String())
	}
}
