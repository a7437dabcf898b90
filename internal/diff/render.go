package diff

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// RenderOptions controls Render output.
type RenderOptions struct {
	// Color styles lines with lipgloss; plain text otherwise.
	Color bool
	// IgnoreWhitespace shows whitespace-only edits as context.
	IgnoreWhitespace bool
}

var (
	addedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#22c55e")).Background(lipgloss.Color("#052e16"))
	removedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#ef4444")).Background(lipgloss.Color("#2d0a0a"))
	hunkStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#60a5fa"))
	headerStyle  = lipgloss.NewStyle().Bold(true)
)

// Render formats d as a unified diff.
func Render(d *FileDiff, opts RenderOptions) string {
	style := func(s lipgloss.Style, text string) string {
		if !opts.Color {
			return text
		}
		return s.Render(text)
	}

	var sb strings.Builder
	sb.WriteString(style(headerStyle, "--- "+d.OldPath))
	sb.WriteString("\n")
	sb.WriteString(style(headerStyle, "+++ "+d.NewPath))
	sb.WriteString("\n")

	for _, h := range d.Hunks {
		lines := h.Lines
		if opts.IgnoreWhitespace {
			lines = foldWhitespace(lines)
			if !hasChange(lines) {
				continue
			}
		}
		sb.WriteString(style(hunkStyle, fmt.Sprintf("@@ -%d,%d +%d,%d @@", h.OldStart, h.OldCount, h.NewStart, h.NewCount)))
		sb.WriteString("\n")
		for _, l := range lines {
			switch l.Type {
			case LineAdded:
				sb.WriteString(style(addedStyle, "+"+l.Content))
			case LineRemoved:
				sb.WriteString(style(removedStyle, "-"+l.Content))
			default:
				sb.WriteString(" " + l.Content)
			}
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// foldWhitespace turns a removed line followed closely by an added line that
// differs only in whitespace into a single context line.
func foldWhitespace(lines []Line) []Line {
	out := make([]Line, 0, len(lines))
	skip := make(map[int]bool)
	for i, l := range lines {
		if skip[i] {
			continue
		}
		if l.Type == LineRemoved {
			for j := i + 1; j < len(lines) && j < i+5; j++ {
				if lines[j].Type == LineRemoved {
					break
				}
				if lines[j].Type == LineAdded && !skip[j] && sameIgnoringSpace(l.Content, lines[j].Content) {
					skip[j] = true
					l = Line{OldNum: l.OldNum, NewNum: lines[j].NewNum, Content: lines[j].Content, Type: LineContext}
					break
				}
			}
		}
		out = append(out, l)
	}
	return out
}

func hasChange(lines []Line) bool {
	for _, l := range lines {
		if l.Type != LineContext {
			return true
		}
	}
	return false
}

func sameIgnoringSpace(a, b string) bool {
	return strings.Join(strings.Fields(a), "") == strings.Join(strings.Fields(b), "")
}
