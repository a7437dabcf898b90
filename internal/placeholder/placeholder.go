// Package placeholder recognizes elision markers that LLM-written snippets use
// in place of unchanged code ("// rest of code...", "{/* ... */}", bare "...").
package placeholder

import (
	"regexp"
	"strings"

	"github.com/dlclark/regexp2"
)

const tokens = `rest|\.\.\.|\. \. \.|snip|placeholder`

var (
	// A comment opener followed anywhere by an elision token.
	commentMarker = regexp.MustCompile(`(?i)^\s*(?://|/\*|\{/\*).*(?:` + tokens + `)`)

	// An elision token standing alone on its line, or bounded by whitespace on
	// both sides and not glued to a quote character. Text that merely ends in
	// a token ("Loading ...") is not a marker.
	bareMarker = regexp.MustCompile(`(?i)^\s*(?:` + tokens + `)\s*$|(?:^|[^'"]\s)\s*(?:` + tokens + `)\s`)

	// quotePair reports a complete quoted or backticked run.
	quotePair = regexp2.MustCompile("(['\"`])(.*?)\\1", regexp2.None)
)

// IsPlaceholder reports whether line is an elision marker.
func IsPlaceholder(line string) bool {
	if commentMarker.MatchString(line) {
		return true
	}
	loc := bareMarker.FindStringIndex(line)
	if loc == nil {
		return false
	}
	before, after := line[:loc[0]+1], line[loc[1]:]
	if insideString(before) {
		return false
	}
	return !hasQuotePair(before) && !hasQuotePair(after)
}

// insideString reports whether s ends inside an unterminated string literal.
func insideString(s string) bool {
	var open rune
	escaped := false
	for _, c := range s {
		switch {
		case escaped:
			escaped = false
		case c == '\\':
			escaped = true
		case open == 0 && (c == '\'' || c == '"' || c == '`'):
			open = c
		case c == open:
			open = 0
		}
	}
	return open != 0
}

func hasQuotePair(s string) bool {
	if s == "" {
		return false
	}
	ok, err := quotePair.MatchString(s)
	return err == nil && ok
}

// Contains reports whether any of lines is a placeholder.
func Contains(lines []string) bool {
	for _, l := range lines {
		if IsPlaceholder(l) {
			return true
		}
	}
	return false
}

// Count returns the number of placeholder lines.
func Count(lines []string) int {
	n := 0
	for _, l := range lines {
		if IsPlaceholder(l) {
			n++
		}
	}
	return n
}

// StripLines splits lines into the ones to keep and the placeholders removed.
func StripLines(lines []string) (kept, removed []string) {
	kept = make([]string, 0, len(lines))
	for _, l := range lines {
		if IsPlaceholder(l) {
			removed = append(removed, l)
			continue
		}
		kept = append(kept, l)
	}
	return kept, removed
}

// Strip removes every placeholder line from text.
func Strip(text string) string {
	kept, _ := StripLines(strings.Split(text, "\n"))
	return strings.Join(kept, "\n")
}

// EndsWithPlaceholder reports whether the last non-blank line of text is a
// placeholder.
func EndsWithPlaceholder(text string) bool {
	lines := strings.Split(strings.TrimRight(text, " \t\r\n"), "\n")
	return IsPlaceholder(lines[len(lines)-1])
}

// CloseWhenPlaceholder appends a synthetic closing brace line when text ends
// with a placeholder. The second result reports whether a line was added.
func CloseWhenPlaceholder(text string) (string, bool) {
	if !EndsWithPlaceholder(text) {
		return text, false
	}
	return strings.TrimRight(text, " \t\r\n") + "\n}", true
}
