// Package extract pulls source code out of a chat-style LLM response.
package extract

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"snipmerge/internal/placeholder"
	"snipmerge/internal/syntax"
)

// ErrNoCode is returned when no line of the response starts parseable code.
var ErrNoCode = errors.New("extract: no code found")

// Code returns the code in text. Markdown fence lines are dropped; the code
// starts at the first line from which the rest parses, and ends before the
// first line that fails to parse when that is not the starting line. A
// candidate ending in a placeholder is parsed with its closing line added, so
// an elided tail does not count as an error.
func Code(ctx context.Context, text string, lang *syntax.Language, log *zap.Logger) (string, error) {
	if log == nil {
		log = zap.NewNop()
	}
	lines := dropFences(strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n"))

	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		candidate := strings.Join(lines[i:], "\n")
		closed, _ := placeholder.CloseWhenPlaceholder(candidate)
		tree, err := syntax.Parse(ctx, lang, closed)
		if err != nil {
			return "", err
		}
		if !tree.HasError() {
			log.Debug("code found", zap.Int("start", i))
			return strings.TrimSpace(candidate), nil
		}
		if row := tree.FirstErrorRow(); row > 0 {
			row = min(row, len(lines)-i)
			code := strings.TrimSpace(strings.Join(lines[i:i+row], "\n"))
			if code != "" {
				log.Debug("code found before trailing text", zap.Int("start", i), zap.Int("end", i+row))
				return code, nil
			}
		}
	}
	return "", ErrNoCode
}

func dropFences(lines []string) []string {
	out := lines[:0:0]
	for _, l := range lines {
		if !strings.Contains(l, "```") {
			out = append(out, l)
		}
	}
	return out
}
