// Package diagnostics implements the compiler error taxonomy (spec §7) and
// rustc-style rendering with source snippets, in the manner of dingo's
// pkg/errors.EnhancedError.
package diagnostics

import (
	"fmt"
	"strings"

	"github.com/snuggle-lang/snugglec/pkg/source"
)

// Kind distinguishes the pass an error originated in, per spec §7.
type Kind string

const (
	ParseError    Kind = "parse"
	ResolveError  Kind = "resolve"
	TypeError     Kind = "type"
	LowerError    Kind = "lower"
	InternalError Kind = "internal"
)

// Error is the base shape every compiler error shares: {kind, message, location}.
type Error struct {
	Kind       Kind
	Message    string
	Loc        source.Location
	Annotation string
	Suggestion string

	// Warning marks an error that should be reported but must not make a
	// Bag.Fatal(). Used by config.Checker.FalliblePatternPolicy's "warn"
	// setting (spec §4.2's fallible-pattern rejection stays non-fatal
	// without inventing a whole severity taxonomy spec §7 doesn't have) and
	// by the host bridge for a generic class accepted under
	// config.Bridge.AcknowledgeGenericsDefault.
	Warning bool

	// Not set by anything at present: Render reads the source lines from
	// its FileSet on every call.
	sourceLines   []string
	highlightLine int
	col           int
}

func New(kind Kind, loc source.Location, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Loc: loc}
}

// Internal builds an InternalError carrying the "please report" marker
// spec §7 requires for lowering/internal bugs — these must never be
// silently recovered from.
func Internal(loc source.Location, format string, args ...interface{}) *Error {
	e := New(InternalError, loc, format, args...)
	e.Annotation = "internal compiler error — please report this"
	return e
}

// AsWarning marks e non-fatal: a Bag containing only warnings reports
// Fatal() == false, so the pass that added it may continue past it.
func (e *Error) AsWarning() *Error {
	e.Warning = true
	return e
}

func (e *Error) WithAnnotation(a string) *Error {
	e.Annotation = a
	return e
}

func (e *Error) WithSuggestion(s string) *Error {
	e.Suggestion = s
	return e
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Kind, e.Loc, e.Message)
}

// Render produces a multi-line, rustc-style diagnostic using source text
// registered in fs, mirroring dingo's EnhancedError.Format: a header line,
// a source snippet with a caret under the offending span, then an
// optional annotation/suggestion.
func (e *Error) Render(fs *source.FileSet) string {
	var buf strings.Builder

	pos := fs.Position(e.Loc)
	if pos.Line > 0 {
		fmt.Fprintf(&buf, "error[%s]: %s\n  --> %s:%s\n\n", e.Kind, e.Message, e.Loc.File, pos)
	} else {
		fmt.Fprintf(&buf, "error[%s]: %s\n\n", e.Kind, e.Message)
	}

	lines := fs.Lines(e.Loc.File)
	if pos.Line > 0 && pos.Line <= len(lines) {
		line := lines[pos.Line-1]
		fmt.Fprintf(&buf, "  %4d | %s\n", pos.Line, line)

		length := e.Loc.End - e.Loc.Start
		if length < 1 {
			length = 1
		}
		caretIndent := pos.Col - 1
		if caretIndent < 0 {
			caretIndent = 0
		}
		fmt.Fprintf(&buf, "       | %s%s", strings.Repeat(" ", caretIndent), strings.Repeat("^", length))
		if e.Annotation != "" {
			fmt.Fprintf(&buf, " %s", e.Annotation)
		}
		buf.WriteString("\n")
	}

	if e.Suggestion != "" {
		fmt.Fprintf(&buf, "\nsuggestion: %s\n", e.Suggestion)
	}

	return buf.String()
}

// Bag accumulates errors across a pass. A pass may keep scanning after a
// local, recoverable problem (e.g. an unknown identifier inside one
// block) but must stop and return the bag once it can no longer make
// forward progress — spec §7's "emission stops at the first error that
// escapes a pass's local handling" is enforced at the pass boundary, by
// the pass checking Fatal() before continuing to the next stage.
type Bag struct {
	errs []*Error
}

func (b *Bag) Add(e *Error) {
	b.errs = append(b.errs, e)
}

func (b *Bag) Errors() []*Error {
	return b.errs
}

func (b *Bag) Fatal() bool {
	for _, e := range b.errs {
		if e.Kind == InternalError {
			return true
		}
		if !e.Warning {
			return true
		}
	}
	return false
}

// Empty reports whether the bag holds no entries at all, warnings
// included — callers that want "any non-fatal warnings to still show the
// user" (the CLI's build summary, the LSP's published diagnostics) should
// use Errors(), not Empty(), to decide whether to render anything.
func (b *Bag) Empty() bool {
	return len(b.errs) == 0
}

func (b *Bag) Error() string {
	parts := make([]string, len(b.errs))
	for i, e := range b.errs {
		parts[i] = e.Error()
	}
	return strings.Join(parts, "\n")
}
