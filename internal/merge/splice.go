package merge

import (
	"regexp"
	"strings"

	"go.uber.org/zap"

	"snipmerge/internal/placeholder"
	"snipmerge/internal/similarity"
)

var returnStmt = regexp.MustCompile(`(?:^|[^\w$.])return(?:[^\w$]|$)`)

// spliced is the reassembled file. fromExisting marks the lines copied from
// the existing file; the final placeholder strip leaves those alone.
type spliced struct {
	lines        []string
	fromExisting []bool
}

func (s *spliced) snippet(lines ...string) {
	for _, l := range lines {
		s.lines = append(s.lines, l)
		s.fromExisting = append(s.fromExisting, false)
	}
}

func (s *spliced) existing(lines ...string) {
	for _, l := range lines {
		s.lines = append(s.lines, l)
		s.fromExisting = append(s.fromExisting, true)
	}
}

// splice walks the annotated snippet and replaces each resolved placeholder
// with the existing lines it stands for.
func (r *run) splice() *spliced {
	out := &spliced{
		lines:        make([]string, 0, len(r.existing)+len(r.lines)),
		fromExisting: make([]bool, 0, len(r.existing)+len(r.lines)),
	}
	for i := 0; i < len(r.lines); i++ {
		l := r.lines[i]
		if !l.IsPlaceholder {
			// The synthetic closing line is only emitted through closeSynthetic.
			if i != r.synthetic {
				out.snippet(l.Text)
			}
			continue
		}

		if q := l.Next; q != nil && l.Below < 0 && q.Above < 0 && (l.Above >= 0 || q.Below >= 0) {
			r.spliceCombined(out, l, q)
			r.closeSynthetic(out, q.Below)
			i = q.index
			continue
		}

		if l.Above < 0 && l.Below < 0 {
			r.diag(DiagNoReferences, i, "no references found; placeholder dropped")
			continue
		}

		start, end := r.regionBounds(l, l)
		r.log.Debug("splicing region", zap.Int("line", i), zap.Int("start", start), zap.Int("end", end))
		out.existing(r.existing[start:end]...)
		r.closeSynthetic(out, l.Below)
	}

	if r.synthetic >= 0 && !r.syntheticUsed {
		r.diag(DiagSyntheticDropped, r.synthetic, "synthetic closing line did not anchor; dropped")
	}
	return out
}

// spliceCombined fills the region spanned by two placeholders that have no
// anchor between them. The snippet lines between the placeholders replace the
// part of the region between its first and last return statement.
func (r *run) spliceCombined(out *spliced, p, q *AnnotatedLine) {
	start, end := r.regionBounds(p, q)
	region := r.existing[start:end]

	middle := make([]string, 0, q.index-p.index-1)
	for j := p.index + 1; j < q.index; j++ {
		middle = append(middle, r.lines[j].Text)
	}

	upper, lower := r.splitRegion(region, middle, p.index)
	r.log.Debug("splicing combined region",
		zap.Int("line", p.index),
		zap.Int("next", q.index),
		zap.Int("start", start),
		zap.Int("end", end),
		zap.Int("upper", len(upper)),
		zap.Int("lower", len(lower)))

	out.existing(upper...)
	out.snippet(middle...)
	out.existing(lower...)
}

// splitRegion divides region around the place the middle snippet lines take.
// The default boundary is the first and last return statement; without one,
// the best fuzzy match of the middle lines is used, and failing that the
// whole region goes above the middle lines.
func (r *run) splitRegion(region, middle []string, line int) (upper, lower []string) {
	first, last := -1, -1
	for i, text := range region {
		if returnStmt.MatchString(text) {
			if first < 0 {
				first = i
			}
			last = i
		}
	}
	if first >= 0 {
		return region[:first], region[last:]
	}

	r.diag(DiagReturnFallback, line, "no return statement in combined region; splitting on best match")
	head, tail := firstNonBlank(middle), lastNonBlank(middle)
	if head < 0 {
		return region, nil
	}
	a := r.bestIn(middle[head], region, 0, len(region), false)
	if a.Index < 0 || a.Score < r.e.threshold {
		return region, nil
	}
	b := r.bestIn(middle[tail], region, a.Index, len(region), false)
	if b.Index >= 0 && b.Score >= r.e.threshold {
		return region[:a.Index], region[b.Index+1:]
	}
	return region[:a.Index], region[a.Index+1:]
}

// regionBounds returns the existing-line range [start, end) between p's above
// anchor and q's below anchor, widened by the snippet lines that keep matching
// outward from each anchor. A missing anchor is replaced by the best match of
// the neighbouring snippet line, then by the file edge.
func (r *run) regionBounds(p, q *AnnotatedLine) (start, end int) {
	start, end = -1, -1
	if p.Above >= 0 {
		start = r.extendDown(p.Above, p.index)
	}
	if q.Below >= 0 {
		end = r.extendUp(q.Below, q.index)
	}
	if start < 0 {
		start = r.fallbackStart(p.index, end)
	}
	if end < 0 {
		end = r.fallbackEnd(q.index, start)
	}
	if start > end {
		start = end
	}
	return start, end
}

// extendDown follows the snippet lines after the above anchor while they
// keep matching the existing lines after its match.
func (r *run) extendDown(above, limit int) int {
	m := r.lines[above].Match
	start := m + 1
	for j := above + 1; j < limit; j++ {
		k := m + (j - above)
		if k >= len(r.existing) || r.aligner.RawScore(r.lines[j].Text, r.existing[k]) < r.e.threshold {
			break
		}
		start = k + 1
	}
	return start
}

// extendUp is extendDown mirrored for the below anchor.
func (r *run) extendUp(below, limit int) int {
	n := r.lines[below].Match
	end := n
	for j := below - 1; j > limit; j-- {
		k := n - (below - j)
		if k < 0 || r.aligner.RawScore(r.lines[j].Text, r.existing[k]) < r.e.threshold {
			break
		}
		end = k
	}
	return end
}

func (r *run) fallbackStart(p, end int) int {
	if end < 0 {
		end = len(r.existing)
	}
	j := r.neighbour(p, -1)
	if j < 0 {
		return 0
	}
	m := r.bestIn(r.lines[j].Text, r.existing, 0, end, false)
	if m.Index < 0 || m.Score < r.e.threshold {
		return 0
	}
	return m.Index + 1
}

func (r *run) fallbackEnd(q, start int) int {
	if start < 0 {
		start = 0
	}
	j := r.neighbour(q, 1)
	if j < 0 {
		return len(r.existing)
	}
	text := r.lines[j].Text
	// Bare closers after an elision usually close the outermost construct.
	m := r.bestIn(text, r.existing, start, len(r.existing), !hasChar(text))
	if m.Index < 0 || m.Score < r.e.threshold {
		return len(r.existing)
	}
	return m.Index
}

// neighbour is the nearest non-blank snippet line from i in direction dir,
// or -1 when a placeholder, the synthetic line or the edge comes first.
func (r *run) neighbour(i, dir int) int {
	for j := i + dir; j >= 0 && j < len(r.lines); j += dir {
		l := r.lines[j]
		if l.IsPlaceholder || j == r.synthetic {
			return -1
		}
		if strings.TrimSpace(l.Text) != "" {
			return j
		}
	}
	return -1
}

// bestIn searches lines[lo:hi] for text. Index is absolute. With preferLast,
// equal scores resolve to the later line.
func (r *run) bestIn(text string, lines []string, lo, hi int, preferLast bool) similarity.Match {
	best := similarity.Match{Index: -1}
	for i := lo; i < hi && i < len(lines); i++ {
		s := r.aligner.RawScore(text, lines[i])
		if best.Index < 0 || s > best.Score || (preferLast && s == best.Score) {
			best = similarity.Match{Index: i, Score: s}
		}
	}
	return best
}

// closeSynthetic emits the existing closing line the synthetic line anchored
// to, followed by the existing file's tail.
func (r *run) closeSynthetic(out *spliced, below int) {
	if r.synthetic < 0 || below != r.synthetic {
		return
	}
	r.syntheticUsed = true
	l := r.lines[below]
	out.existing(r.existing[l.Match])
	if r.e.restOfFile && l.Match+1 < len(r.existing) {
		out.existing(r.existing[l.Match+1:]...)
	}
}

func firstNonBlank(lines []string) int {
	for i, l := range lines {
		if strings.TrimSpace(l) != "" && !placeholder.IsPlaceholder(l) {
			return i
		}
	}
	return -1
}

func lastNonBlank(lines []string) int {
	for i := len(lines) - 1; i >= 0; i-- {
		if strings.TrimSpace(lines[i]) != "" && !placeholder.IsPlaceholder(lines[i]) {
			return i
		}
	}
	return -1
}
