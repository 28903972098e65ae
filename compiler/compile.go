package compiler

import (
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("kata.compiler")

// Unit is the result of compiling one source text.
type Unit struct {
	Name     string
	Source   string
	Program  []Expr
	Scope    *Scope
	Reporter *Reporter
}

// HasErrors reports whether any stage recorded an error.
func (u *Unit) HasErrors() bool {
	return u.Reporter.NumberOfErrors() > 0
}

// Option configures Compile.
type Option func(*options)

type options struct {
	name    string
	globals []string
}

// WithName sets the unit name used in diagnostics and logs.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithGlobals predefines names in the unit's root scope.
func WithGlobals(names ...string) Option {
	return func(o *options) { o.globals = append(o.globals, names...) }
}

// Compile runs the whole pipeline over source with a fresh scope: lexer,
// morpher, parser, resolver and cross-reference builder. Problems in the
// source are reported through the unit's Reporter, never as a Go error.
func Compile(source string, opts ...Option) *Unit {
	o := options{name: "<input>"}
	for _, opt := range opts {
		opt(&o)
	}

	scope := NewScope(o.globals...)
	rep := NewReporter()
	log.Debugf("compile %s: scope %s", o.name, scope.ID)

	program := Parse(NewMorpher(NewLexerString(source)), rep)
	log.Debugf("compile %s: parsed %d statements, %d errors", o.name, len(program), rep.NumberOfErrors())

	program = Resolve(program, scope, rep)
	log.Debugf("compile %s: resolved, %d assignments, %d errors, %d warnings",
		o.name, len(scope.Assignments()), rep.NumberOfErrors(), rep.NumberOfWarnings())

	program = BuildXref(program, scope)
	log.Debugf("compile %s: %d constants", o.name, len(scope.Constants()))

	return &Unit{Name: o.name, Source: source, Program: program, Scope: scope, Reporter: rep}
}
