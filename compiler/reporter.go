package compiler

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ---------------------------------------------------------------------------
// Reporter: diagnostics collected across lexing, parsing and resolution
// ---------------------------------------------------------------------------

// Severity of a diagnostic.
type Severity uint8

const (
	SeverityError Severity = iota + 1
	SeverityWarning
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "Error"
	case SeverityWarning:
		return "Warning"
	}
	return fmt.Sprintf("Severity(%d)", uint8(s))
}

// Locator is anything with a source span: tokens and AST nodes.
type Locator interface {
	Span() Span
}

// Diagnostic is one error or warning.
type Diagnostic struct {
	Severity Severity
	Span     Span
	Message  string
}

func (d Diagnostic) Error() string {
	return fmt.Sprintf("%s at %s: %s", d.Severity, d.Span.Start, d.Message)
}

// Reporter accumulates diagnostics in insertion order. Nothing is ever
// dropped.
type Reporter struct {
	diags    []Diagnostic
	errors   int
	warnings int
}

// NewReporter creates an empty reporter.
func NewReporter() *Reporter {
	return &Reporter{}
}

// AddError records an error at the location of at.
func (r *Reporter) AddError(at Locator, msg string) {
	r.add(SeverityError, at, msg)
	r.errors++
}

// AddWarning records a warning at the location of at.
func (r *Reporter) AddWarning(at Locator, msg string) {
	r.add(SeverityWarning, at, msg)
	r.warnings++
}

func (r *Reporter) add(sev Severity, at Locator, msg string) {
	var span Span
	if at != nil {
		span = at.Span()
	}
	r.diags = append(r.diags, Diagnostic{Severity: sev, Span: span, Message: msg})
}

// Diagnostics returns all diagnostics in the order they were added.
func (r *Reporter) Diagnostics() []Diagnostic {
	return r.diags
}

// NumberOfErrors returns the error count.
func (r *Reporter) NumberOfErrors() int { return r.errors }

// NumberOfWarnings returns the warning count.
func (r *Reporter) NumberOfWarnings() int { return r.warnings }

// Err returns the errors (not warnings) joined into one error, or nil.
func (r *Reporter) Err() error {
	if r.errors == 0 {
		return nil
	}
	var errs []error
	for _, d := range r.diags {
		if d.Severity == SeverityError {
			errs = append(errs, d)
		}
	}
	return errors.Join(errs...)
}

// Render returns a report of every diagnostic, each followed by the source
// line it points at and a caret under the column.
func (r *Reporter) Render(source string) string {
	var sb strings.Builder
	r.Report(&sb, source, 0)
	return sb.String()
}

// Report writes the report to w. A positive limit caps the number of
// diagnostics written; a trailing line says how many were left out.
func (r *Reporter) Report(w io.Writer, source string, limit int) error {
	shown := r.diags
	if limit > 0 && len(shown) > limit {
		shown = shown[:limit]
	}
	for _, d := range shown {
		if _, err := fmt.Fprintln(w, d.Error()); err != nil {
			return err
		}
		line, ok := sourceLine(source, d.Span.Start.Line)
		if !ok {
			continue
		}
		col := d.Span.Start.Column
		if col < 1 {
			col = 1
		}
		if _, err := fmt.Fprintf(w, "  %s\n  %s^\n", line, strings.Repeat(" ", col-1)); err != nil {
			return err
		}
	}
	if n := len(r.diags) - len(shown); n > 0 {
		if _, err := fmt.Fprintf(w, "... %d more diagnostics\n", n); err != nil {
			return err
		}
	}
	return nil
}

// sourceLine reads forward through source to the 1-based line number.
func sourceLine(source string, line int) (string, bool) {
	if line < 1 {
		return "", false
	}
	sc := bufio.NewScanner(strings.NewReader(source))
	sc.Buffer(make([]byte, 0, 4096), len(source)+1)
	for n := 1; sc.Scan(); n++ {
		if n == line {
			return strings.TrimRight(sc.Text(), "\r\t "), true
		}
	}
	return "", false
}
