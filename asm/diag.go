package asm

import "fmt"

// Severity classifies a Diagnostic as blocking or informational.
type Severity int

const (
	Warning Severity = iota
	Error
)

func (s Severity) String() string {
	if s == Error {
		return "error"
	}
	return "warning"
}

// SourceLocation identifies a line within one of the assembled files.
// Column is optional; a zero value means the diagnostic could not be
// pinned to a column.
type SourceLocation struct {
	File   string
	Line   int
	Column int
}

func (loc SourceLocation) String() string {
	if loc.Column > 0 {
		return fmt.Sprintf("%s:%d:%d", loc.File, loc.Line, loc.Column)
	}
	return fmt.Sprintf("%s:%d", loc.File, loc.Line)
}

// A Diagnostic reports one lexical, structural, semantic, or include
// failure discovered while assembling. Diagnostics are accumulated,
// never thrown: a public entry point never panics or returns a bare
// error for a malformed program, only a longer diagnostics list.
type Diagnostic struct {
	Severity   Severity
	Location   SourceLocation
	Message    string
	Suggestion string
}

func (d Diagnostic) String() string {
	s := fmt.Sprintf("%s: %s: %s", d.Location, d.Severity, d.Message)
	if d.Suggestion != "" {
		s += fmt.Sprintf(" (suggestion: %s)", d.Suggestion)
	}
	return s
}

// diagList accumulates diagnostics in discovery order, the way the
// teacher's assembler appends to assembler.errors as it walks source.
type diagList struct {
	diags []Diagnostic
}

func (d *diagList) addError(loc SourceLocation, format string, args ...any) {
	d.diags = append(d.diags, Diagnostic{Severity: Error, Location: loc, Message: fmt.Sprintf(format, args...)})
}

func (d *diagList) addErrorSuggest(loc SourceLocation, suggestion string, format string, args ...any) {
	d.diags = append(d.diags, Diagnostic{Severity: Error, Location: loc, Message: fmt.Sprintf(format, args...), Suggestion: suggestion})
}

func (d *diagList) addWarning(loc SourceLocation, format string, args ...any) {
	d.diags = append(d.diags, Diagnostic{Severity: Warning, Location: loc, Message: fmt.Sprintf(format, args...)})
}

// HasErrors reports whether any diagnostic in the list is error-severity.
func HasErrors(diags []Diagnostic) bool {
	for _, d := range diags {
		if d.Severity == Error {
			return true
		}
	}
	return false
}
