// Package diff computes line diffs with sergi/go-diff. It serves two callers:
// the merge engine, which asks an Oracle for the line spans two texts share,
// and the CLI, which shows what a merge changed as unified hunks.
package diff

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// LineType represents the type of diff line
type LineType int

const (
	LineContext LineType = iota // Unchanged context line
	LineAdded                   // Added line
	LineRemoved                 // Removed line
)

// Line is a single line in a hunk. OldNum and NewNum are 1-based, 0 when the
// line does not exist on that side.
type Line struct {
	OldNum  int
	NewNum  int
	Content string
	Type    LineType
}

// Hunk is a group of changes with surrounding context.
type Hunk struct {
	OldStart int
	OldCount int
	NewStart int
	NewCount int
	Lines    []Line
}

// FileDiff is the change between two versions of one file.
type FileDiff struct {
	OldPath string
	NewPath string
	Hunks   []Hunk
	IsNew   bool
}

// Empty reports whether the two versions are identical.
func (d *FileDiff) Empty() bool { return len(d.Hunks) == 0 }

// Stats counts added and removed lines.
func (d *FileDiff) Stats() (added, removed int) {
	for _, h := range d.Hunks {
		for _, l := range h.Lines {
			switch l.Type {
			case LineAdded:
				added++
			case LineRemoved:
				removed++
			}
		}
	}
	return added, removed
}

// Engine computes line diffs.
type Engine struct {
	dmp     *diffmatchpatch.DiffMatchPatch
	context int
}

// NewEngine returns an engine emitting contextLines of context per hunk.
func NewEngine(contextLines int) *Engine {
	dmp := diffmatchpatch.New()
	dmp.DiffTimeout = 0
	if contextLines < 0 {
		contextLines = 0
	}
	return &Engine{dmp: dmp, context: contextLines}
}

// lineDiffs diffs a and b at line granularity. Each line is encoded as one
// rune, so every returned chunk holds whole lines.
func (e *Engine) lineDiffs(a, b string) []diffmatchpatch.Diff {
	ra, rb, lines := e.dmp.DiffLinesToRunes(a, b)
	diffs := e.dmp.DiffMainRunes(ra, rb, false)
	return e.dmp.DiffCharsToLines(diffs, lines)
}

// ComputeDiff returns the hunks turning oldContent into newContent.
func (e *Engine) ComputeDiff(oldPath, newPath, oldContent, newContent string) *FileDiff {
	fd := &FileDiff{OldPath: oldPath, NewPath: newPath, IsNew: oldContent == ""}
	if oldContent == newContent {
		return fd
	}
	fd.Hunks = e.group(toLines(e.lineDiffs(ensureNewline(oldContent), ensureNewline(newContent))))
	return fd
}

// ComputeDiff is a convenience wrapper with three lines of context.
func ComputeDiff(oldPath, newPath, oldContent, newContent string) *FileDiff {
	return NewEngine(3).ComputeDiff(oldPath, newPath, oldContent, newContent)
}

// toLines expands diff chunks into numbered lines.
func toLines(diffs []diffmatchpatch.Diff) []Line {
	var out []Line
	oldNum, newNum := 0, 0
	for _, d := range diffs {
		for _, text := range splitLines(d.Text) {
			switch d.Type {
			case diffmatchpatch.DiffEqual:
				oldNum++
				newNum++
				out = append(out, Line{OldNum: oldNum, NewNum: newNum, Content: text, Type: LineContext})
			case diffmatchpatch.DiffDelete:
				oldNum++
				out = append(out, Line{OldNum: oldNum, Content: text, Type: LineRemoved})
			case diffmatchpatch.DiffInsert:
				newNum++
				out = append(out, Line{NewNum: newNum, Content: text, Type: LineAdded})
			}
		}
	}
	return out
}

// group collects changed lines into hunks, merging hunks whose context
// would overlap.
func (e *Engine) group(lines []Line) []Hunk {
	var hunks []Hunk
	i := 0
	for i < len(lines) {
		if lines[i].Type == LineContext {
			i++
			continue
		}
		start := i - e.context
		if start < 0 {
			start = 0
		}
		end := i
		for j := i; j < len(lines); j++ {
			if lines[j].Type != LineContext {
				end = j
				continue
			}
			if j-end > 2*e.context {
				break
			}
		}
		stop := end + e.context + 1
		if stop > len(lines) {
			stop = len(lines)
		}
		hunks = append(hunks, newHunk(lines[start:stop]))
		i = stop
	}
	return hunks
}

func newHunk(lines []Line) Hunk {
	h := Hunk{Lines: append([]Line(nil), lines...)}
	for _, l := range lines {
		if l.Type != LineAdded {
			if h.OldStart == 0 {
				h.OldStart = l.OldNum
			}
			h.OldCount++
		}
		if l.Type != LineRemoved {
			if h.NewStart == 0 {
				h.NewStart = l.NewNum
			}
			h.NewCount++
		}
	}
	return h
}

// splitLines splits a chunk produced by line-mode diffing. Every line in it
// ends with a newline.
func splitLines(s string) []string {
	s = strings.TrimSuffix(s, "\n")
	if s == "" {
		return []string{""}
	}
	return strings.Split(s, "\n")
}

// countLines is the number of lines in a line-mode chunk.
func countLines(s string) int {
	n := strings.Count(s, "\n")
	if s != "" && !strings.HasSuffix(s, "\n") {
		n++
	}
	return n
}

func ensureNewline(s string) string {
	if s == "" || strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}
