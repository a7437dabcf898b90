package merge

import (
	"sort"

	"go.uber.org/zap"
)

// resolve assigns anchors to every placeholder in a single right-to-left pass
// and links each placeholder to the next one below it. Scans never cross
// another placeholder.
func (r *run) resolve() {
	var next *AnnotatedLine
	for i := len(r.lines) - 1; i >= 0; i-- {
		l := r.lines[i]
		if !l.IsPlaceholder {
			continue
		}
		l.AboveCandidates = r.candidates(i, -1)
		l.BelowCandidates = r.candidates(i, 1)
		l.Above, l.Below = r.pair(l)
		l.Next = next
		next = l

		r.log.Debug("placeholder resolved",
			zap.Int("line", i),
			zap.Int("above", l.Above),
			zap.Int("below", l.Below),
			zap.Int("above_candidates", len(l.AboveCandidates)),
			zap.Int("below_candidates", len(l.BelowCandidates)))
	}
}

// candidates walks from placeholder i in direction dir and returns the
// acceptable anchors, best score first. Equal scores keep the nearer line.
func (r *run) candidates(i, dir int) []int {
	var out []int
	for j := i + dir; j >= 0 && j < len(r.lines); j += dir {
		l := r.lines[j]
		if l.IsPlaceholder {
			break
		}
		if r.oracle.Acceptable(l) {
			out = append(out, j)
		}
	}
	sort.SliceStable(out, func(a, b int) bool {
		return r.lines[out[a]].Score > r.lines[out[b]].Score
	})
	return out
}

// pair picks one above and one below anchor such that the above anchor's
// existing line precedes the below anchor's. When the two best candidates
// cross, the stronger one is kept and its partner is the best candidate
// consistent with it.
func (r *run) pair(l *AnnotatedLine) (above, below int) {
	above, below = -1, -1
	if len(l.AboveCandidates) > 0 {
		above = l.AboveCandidates[0]
	}
	if len(l.BelowCandidates) > 0 {
		below = l.BelowCandidates[0]
	}
	if above < 0 || below < 0 || r.lines[above].Match < r.lines[below].Match {
		return above, below
	}

	r.diag(DiagAnchorConflict, l.index, "best above and below anchors cross; re-pairing")
	if r.lines[above].Score >= r.lines[below].Score {
		return above, firstAfter(r.lines, l.BelowCandidates, r.lines[above].Match)
	}
	return firstBefore(r.lines, l.AboveCandidates, r.lines[below].Match), below
}

func firstAfter(lines []*AnnotatedLine, cands []int, match int) int {
	for _, c := range cands {
		if lines[c].Match > match {
			return c
		}
	}
	return -1
}

func firstBefore(lines []*AnnotatedLine, cands []int, match int) int {
	for _, c := range cands {
		if lines[c].Match < match {
			return c
		}
	}
	return -1
}
