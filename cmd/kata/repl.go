package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strings"
	"syscall"

	"github.com/peterh/liner"

	"github.com/chazu/kata/compiler"
	"github.com/chazu/kata/compiler/pool"
	"github.com/chazu/kata/manifest"
)

const (
	historyFile = ".kata_history"
	promptMain  = "kata> "
	promptCont  = "  ... "
)

// session carries the names defined by earlier REPL inputs into later
// ones as globals.
type session struct {
	manifest *manifest.Manifest
	globals  []string
	tokens   bool
	pool     bool
	out      io.Writer
}

func runREPL(m *manifest.Manifest) int {
	fmt.Println("kata REPL (:help for commands, :quit to exit)")

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigc)
	go func() {
		<-sigc
		ln.Close()
		os.Exit(130)
	}()

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}

	ln.SetCompleter(func(line string) []string {
		var out []string
		for _, w := range compiler.Keywords() {
			if strings.HasPrefix(w, line) {
				out = append(out, w)
			}
		}
		return out
	})

	s := &session{manifest: m, globals: slices.Clone(m.Analysis.Globals), out: os.Stdout}
	for {
		code, ok := readInput(ln)
		if !ok {
			fmt.Println()
			return 0
		}

		trimmed := strings.TrimSpace(code)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, ":") {
			if !s.command(trimmed) {
				return 0
			}
			continue
		}

		s.eval(code)
		ln.AppendHistory(strings.ReplaceAll(code, "\n", " "))
	}
}

// command runs a REPL command and reports whether the session continues.
func (s *session) command(cmd string) bool {
	switch strings.ToLower(cmd) {
	case ":quit", ":q":
		return false
	case ":tokens":
		s.tokens = !s.tokens
		fmt.Fprintf(s.out, "token display %s\n", onOff(s.tokens))
	case ":pool":
		s.pool = !s.pool
		fmt.Fprintf(s.out, "pool display %s\n", onOff(s.pool))
	case ":globals":
		fmt.Fprintln(s.out, strings.Join(s.globals, " "))
	case ":reset":
		s.globals = slices.Clone(s.manifest.Analysis.Globals)
		fmt.Fprintln(s.out, "definitions cleared")
	case ":help":
		fmt.Fprintln(s.out, ":tokens   toggle token display")
		fmt.Fprintln(s.out, ":pool     toggle constant pool display")
		fmt.Fprintln(s.out, ":globals  list names defined so far")
		fmt.Fprintln(s.out, ":reset    forget earlier definitions")
		fmt.Fprintln(s.out, ":quit     exit")
	default:
		fmt.Fprintf(s.out, "unknown command %s. Type :help for commands.\n", cmd)
	}
	return true
}

// eval compiles code and prints the resolved program and its diagnostics.
// Names defined by error-free input stay visible to later input.
func (s *session) eval(code string) {
	if s.tokens {
		for tok := range compiler.Tokens(code) {
			if !tok.Type.IsTrivia() && tok.Type != compiler.TokenEOF {
				fmt.Fprintf(s.out, "  %s\n", tok)
			}
		}
	}

	opts := s.manifest.CompileOptions("<repl>")
	opts = append(opts, compiler.WithGlobals(s.globals...))
	unit := compiler.Compile(code, opts...)

	for _, stmt := range unit.Program {
		fmt.Fprintln(s.out, compiler.Format(stmt))
	}
	if len(unit.Reporter.Diagnostics()) > 0 {
		_ = unit.Reporter.Report(s.out, code, s.manifest.Analysis.MaxErrors)
	}
	if s.pool {
		for _, e := range pool.FromScope(unit.Scope).Entries {
			fmt.Fprintf(s.out, "  %s\n", e)
		}
	}

	if unit.HasErrors() {
		return
	}
	for _, name := range unit.Scope.Names() {
		if name != "this" && !slices.Contains(s.globals, name) {
			s.globals = append(s.globals, name)
		}
	}
}

// readInput reads lines until the brackets opened so far are closed.
func readInput(ln *liner.State) (string, bool) {
	var b strings.Builder

	for {
		prompt := promptMain
		if b.Len() > 0 {
			prompt = promptCont
		}
		line, err := ln.Prompt(prompt)
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if err != nil {
			return "", true
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		if openBrackets(b.String()) <= 0 {
			return b.String(), true
		}
	}
}

// openBrackets counts the brackets in source that are still unclosed.
func openBrackets(source string) int {
	depth := 0
	for tok := range compiler.Tokens(source) {
		switch tok.Type {
		case compiler.TokenLParen, compiler.TokenLBracket, compiler.TokenLBrace:
			depth++
		case compiler.TokenRParen, compiler.TokenRBracket, compiler.TokenRBrace:
			depth--
		}
	}
	return depth
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}
