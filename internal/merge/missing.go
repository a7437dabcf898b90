package merge

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"snipmerge/internal/diff"
	"snipmerge/internal/placeholder"
)

// insertMissingPlaceholders adds a placeholder wherever the snippet jumps
// over a long run of existing lines without saying so. It only runs for
// snippets that already elide code elsewhere, and never next to an existing
// placeholder. An oracle failure skips the step.
func (r *run) insertMissingPlaceholders() error {
	if r.e.oracle == nil || !placeholder.Contains(r.snippet) {
		return nil
	}
	spans, err := r.e.oracle.EqualSpans(r.ctx, strings.Join(r.existing, "\n"), strings.Join(r.snippet, "\n"))
	if err != nil {
		if ctxErr := r.ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		r.diag(DiagOracleUnavailable, -1, fmt.Sprintf("diff oracle failed; missing placeholder detection skipped: %v", err))
		return nil
	}

	at := omissions(spans, r.snippet, r.e.minOmitted)
	if len(at) == 0 {
		return nil
	}

	out := make([]string, 0, len(r.snippet)+len(at))
	next := 0
	for i, line := range r.snippet {
		if next < len(at) && at[next] == i {
			out = append(out, indentOf(line)+"// ...")
			r.diag(DiagPlaceholderInserted, i, "snippet omits existing lines without a placeholder; inserted one")
			next++
		}
		out = append(out, line)
	}
	if r.synthetic >= 0 {
		r.synthetic += len(at)
	}
	r.inserted = len(at)
	r.snippet = out
	r.log.Debug("inserted missing placeholders", zap.Ints("at", at))
	return nil
}

// omissions returns the snippet line indices, ascending, before which a
// placeholder should be inserted.
func omissions(spans []diff.MatchSpan, snippet []string, minOmitted int) []int {
	spans = append([]diff.MatchSpan(nil), spans...)
	sort.SliceStable(spans, func(i, j int) bool { return spans[i].StartB < spans[j].StartB })

	var at []int
	for k := 1; k < len(spans); k++ {
		prev, cur := spans[k-1], spans[k]
		if cur.StartB != prev.EndB || cur.StartA-prev.EndA < minOmitted {
			continue
		}
		if prev.EndB < 1 || cur.StartB >= len(snippet) {
			continue
		}
		if placeholder.IsPlaceholder(snippet[prev.EndB-1]) || placeholder.IsPlaceholder(snippet[cur.StartB]) {
			continue
		}
		at = append(at, cur.StartB)
	}
	return at
}

func indentOf(line string) string {
	return line[:len(line)-len(strings.TrimLeft(line, " \t"))]
}
