// Package diag implements the diagnostics sink shared by every pass of the
// pipeline (lexer, parser, macro expander, context preparation, solver).
// Passes are handed a *List by reference and append to it rather than
// returning a Go error, so that lexical/syntactic/semantic problems
// accumulate across a whole source file instead of aborting at the first
// one (spec.md §7 propagation policy).
package diag

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pinsolve/pinsolve/token"
)

// Severity distinguishes diagnostics that suppress solving from those that
// merely accompany a result.
type Severity int

const (
	Error Severity = iota
	Warning
)

func (s Severity) String() string {
	if s == Warning {
		return "warning"
	}
	return "error"
}

// Diagnostic is a single lexical, syntactic, semantic or search-time
// complaint.
type Diagnostic struct {
	Severity Severity
	Pos      token.Position
	Message  string
	Source   string // optional tag, e.g. "macro", "require", "solver"

	// PartialSolution, when non-nil, is the deepest partial assignment a
	// solver reached before giving up — attached to "no solution found"
	// diagnostics for post-mortem (spec.md §7 Search).
	PartialSolution any
}

func (d Diagnostic) String() string {
	var b strings.Builder
	if d.Pos.IsValid() {
		fmt.Fprintf(&b, "%s: ", d.Pos)
	}
	fmt.Fprintf(&b, "%s: %s", d.Severity, d.Message)
	if d.Source != "" {
		fmt.Fprintf(&b, " (%s)", d.Source)
	}
	return b.String()
}

// List accumulates diagnostics across a pipeline run, in the order they were
// added, and can be sorted by source position once collection is done.
type List struct {
	items []Diagnostic
}

// Add appends an error-severity diagnostic.
func (l *List) Add(pos token.Position, msg string) {
	l.items = append(l.items, Diagnostic{Severity: Error, Pos: pos, Message: msg})
}

// Addf appends a formatted error-severity diagnostic.
func (l *List) Addf(pos token.Position, format string, args ...any) {
	l.Add(pos, fmt.Sprintf(format, args...))
}

// Warn appends a warning-severity diagnostic.
func (l *List) Warn(pos token.Position, msg string) {
	l.items = append(l.items, Diagnostic{Severity: Warning, Pos: pos, Message: msg})
}

// Warnf appends a formatted warning-severity diagnostic.
func (l *List) Warnf(pos token.Position, format string, args ...any) {
	l.Warn(pos, fmt.Sprintf(format, args...))
}

// AddTagged appends a diagnostic with an explicit source tag.
func (l *List) AddTagged(sev Severity, pos token.Position, source, msg string) {
	l.items = append(l.items, Diagnostic{Severity: sev, Pos: pos, Message: msg, Source: source})
}

// Append merges another diagnostic, e.g. one carrying a PartialSolution.
func (l *List) Append(d Diagnostic) { l.items = append(l.items, d) }

// AppendAll merges every diagnostic from other into l.
func (l *List) AppendAll(other *List) {
	if other == nil {
		return
	}
	l.items = append(l.items, other.items...)
}

// Items returns the accumulated diagnostics, in insertion order.
func (l *List) Items() []Diagnostic { return l.items }

// Len returns the number of diagnostics collected so far.
func (l *List) Len() int { return len(l.items) }

// HasErrors reports whether any diagnostic has Error severity.
func (l *List) HasErrors() bool {
	for _, d := range l.items {
		if d.Severity == Error {
			return true
		}
	}
	return false
}

// Sort orders diagnostics by source position, keeping insertion order for
// ties.
func (l *List) Sort() {
	sort.SliceStable(l.items, func(i, j int) bool {
		a, b := l.items[i].Pos, l.items[j].Pos
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Column < b.Column
	})
}

// Err returns an aggregate error describing every collected diagnostic, or
// nil if the list is empty. The returned error's message reports counts the
// way nenuphar's ParseFiles/ResolveFiles report scanner.ErrorList.Err().
func (l *List) Err() error {
	if len(l.items) == 0 {
		return nil
	}
	return listError(l.items)
}

type listError []Diagnostic

func (e listError) Error() string {
	var errs, warns int
	for _, d := range e {
		if d.Severity == Error {
			errs++
		} else {
			warns++
		}
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d error(s), %d warning(s):", errs, warns)
	for _, d := range e {
		b.WriteString("\n  ")
		b.WriteString(d.String())
	}
	return b.String()
}
