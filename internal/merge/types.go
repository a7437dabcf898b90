// Package merge reconciles an LLM-written snippet, which elides unchanged code
// behind placeholder comments, with the existing file it edits.
//
// A merge runs in stages: trailing placeholders are closed, each snippet line
// is aligned to an existing line, every placeholder is given trustworthy
// anchors above and below, and the existing lines between those anchors are
// spliced in place of the placeholder.
package merge

import (
	"errors"
	"fmt"
)

// ErrLineOutOfRange is returned when a line index does not address a line.
var ErrLineOutOfRange = errors.New("merge: line index out of range")

func outOfRange(what string, idx, n int) error {
	return fmt.Errorf("%w: %s line %d (have %d)", ErrLineOutOfRange, what, idx, n)
}

// AnnotatedLine is one snippet line with its alignment and, for placeholders,
// the anchors chosen for it.
type AnnotatedLine struct {
	Text          string
	IsPlaceholder bool
	// Match is the aligned existing line, -1 for placeholders.
	Match int
	// Score is the keyword-normalised similarity to the matched line.
	Score float64

	// Candidate anchors (snippet indices), best score first.
	AboveCandidates []int
	BelowCandidates []int
	// Resolved anchors, -1 when none.
	Above int
	Below int

	// Next is the next placeholder further down the snippet.
	Next *AnnotatedLine

	index int
}

// Index is the line's position in the snippet.
func (l *AnnotatedLine) Index() int { return l.index }

// DiagnosticKind classifies a recoverable anomaly.
type DiagnosticKind string

const (
	DiagNoReferences        DiagnosticKind = "no_references"
	DiagSyntaxFallback      DiagnosticKind = "syntax_fallback"
	DiagOracleUnavailable   DiagnosticKind = "oracle_unavailable"
	DiagImportsSkipped      DiagnosticKind = "imports_skipped"
	DiagPlaceholderInserted DiagnosticKind = "placeholder_inserted"
	DiagPlaceholderStripped DiagnosticKind = "placeholder_stripped"
	DiagReturnFallback      DiagnosticKind = "return_boundary_fallback"
	DiagAnchorConflict      DiagnosticKind = "anchor_conflict"
	DiagSyntheticDropped    DiagnosticKind = "synthetic_close_dropped"
)

// Diagnostic reports a fallback taken during a merge. Line is a snippet line
// index, or -1 when the diagnostic is not tied to a line.
type Diagnostic struct {
	Kind      DiagnosticKind `json:"kind" yaml:"kind"`
	Line      int            `json:"line" yaml:"line"`
	Message   string         `json:"message" yaml:"message"`
	RequestID string         `json:"request_id" yaml:"request_id"`
}

func (d Diagnostic) String() string {
	if d.Line < 0 {
		return fmt.Sprintf("%s: %s", d.Kind, d.Message)
	}
	return fmt.Sprintf("%s (line %d): %s", d.Kind, d.Line+1, d.Message)
}

// Result is the outcome of one merge.
type Result struct {
	Content     string
	RequestID   string
	Diagnostics []Diagnostic
	// Placeholders counts placeholder lines in the snippet after insertion.
	Placeholders int
	// Inserted counts placeholders added for silently omitted code.
	Inserted int
}

// Has reports whether a diagnostic of kind was recorded.
func (r *Result) Has(kind DiagnosticKind) bool {
	for _, d := range r.Diagnostics {
		if d.Kind == kind {
			return true
		}
	}
	return false
}
