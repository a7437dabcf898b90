package merge

import (
	"context"
	"strings"

	"snipmerge/internal/similarity"
	"snipmerge/internal/syntax"
)

// Aligner maps snippet lines to existing lines. Lines containing a closing
// brace are aligned through the declaration that encloses them when syntax
// awareness is on; everything else uses best-match text similarity.
type Aligner struct {
	ctx         context.Context
	existing    []string
	snippet     []string
	lang        *syntax.Language
	score       similarity.Func
	anchorScore similarity.Func
	syntaxAware bool

	// Trees are parsed at most once per merge.
	parsed    bool
	snipTree  *syntax.Tree
	existTree *syntax.Tree
	parseErr  error
}

// NewAligner returns an aligner over the two line slices. A nil score uses
// Dice similarity.
func NewAligner(ctx context.Context, existing, snippet []string, lang *syntax.Language, score similarity.Func, syntaxAware bool) *Aligner {
	if score == nil {
		score = similarity.Compare
	}
	return &Aligner{
		ctx:         ctx,
		existing:    existing,
		snippet:     snippet,
		lang:        lang,
		score:       score,
		anchorScore: similarity.WithoutCommon(score),
		syntaxAware: syntaxAware,
	}
}

// Align returns the index of the existing line that best matches snippet
// line idx. It returns -1 only when the existing file has no lines.
func (a *Aligner) Align(idx int) (int, error) {
	if idx < 0 || idx >= len(a.snippet) {
		return -1, outOfRange("snippet", idx, len(a.snippet))
	}
	line := a.snippet[idx]
	if a.syntaxAware && strings.Contains(line, "}") {
		if m, ok := a.alignBySyntax(idx); ok {
			return m, nil
		}
	}
	return similarity.BestMatch(line, a.existing, a.score).Index, nil
}

// Score is the anchor confidence between snippet line idx and existing line
// match.
func (a *Aligner) Score(idx, match int) (float64, error) {
	if idx < 0 || idx >= len(a.snippet) {
		return 0, outOfRange("snippet", idx, len(a.snippet))
	}
	if match < 0 || match >= len(a.existing) {
		return 0, outOfRange("existing", match, len(a.existing))
	}
	return a.anchorScore(a.snippet[idx], a.existing[match]), nil
}

// RawScore compares two lines with the configured scorer.
func (a *Aligner) RawScore(snippetLine, existingLine string) float64 {
	return a.score(snippetLine, existingLine)
}

// ParseErr is the error from parsing either text, if any.
func (a *Aligner) ParseErr() error {
	a.trees()
	return a.parseErr
}

func (a *Aligner) trees() (*syntax.Tree, *syntax.Tree, bool) {
	if !a.parsed {
		a.parsed = true
		a.snipTree, a.parseErr = syntax.Parse(a.ctx, a.lang, strings.Join(a.snippet, "\n"))
		if a.parseErr == nil {
			a.existTree, a.parseErr = syntax.Parse(a.ctx, a.lang, strings.Join(a.existing, "\n"))
		}
	}
	return a.snipTree, a.existTree, a.parseErr == nil
}

// snippetTree is the parsed snippet, or nil when parsing failed.
func (a *Aligner) snippetTree() *syntax.Tree {
	st, _, ok := a.trees()
	if !ok {
		return nil
	}
	return st
}

func (a *Aligner) alignBySyntax(idx int) (int, bool) {
	st, et, ok := a.trees()
	if !ok {
		return -1, false
	}
	decl, ok := st.EnclosingDecl(idx)
	if !ok || decl.Name == "" {
		return -1, false
	}

	// The closing line of a declaration anchors to the closing line of its
	// namesake.
	if decl.EndRow == idx {
		for _, d := range et.DeclsNamed(decl.Name) {
			if d.Kind == decl.Kind && d.EndRow < len(a.existing) {
				return d.EndRow, true
			}
		}
	}

	line := a.snippet[idx]
	best, bestScore := -1, 0.0
	for i, existing := range a.existing {
		if et.NameAt(i) != decl.Name {
			continue
		}
		if s := a.score(line, existing); s > bestScore {
			best, bestScore = i, s
		}
	}
	return best, best >= 0
}

// IsUniqueClosingBrace reports whether snippet line idx is the closing line
// of a named declaration that exists exactly once in the existing file.
func (a *Aligner) IsUniqueClosingBrace(idx int) bool {
	if !a.syntaxAware || idx < 0 || idx >= len(a.snippet) || !strings.Contains(a.snippet[idx], "}") {
		return false
	}
	st, et, ok := a.trees()
	if !ok {
		return false
	}
	decl, ok := st.EnclosingDecl(idx)
	if !ok || decl.Name == "" || decl.EndRow != idx {
		return false
	}
	n := 0
	for _, d := range et.DeclsNamed(decl.Name) {
		if d.Kind == decl.Kind {
			n++
		}
	}
	return n == 1
}
