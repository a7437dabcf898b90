package merge

import (
	"regexp"
	"strings"
	"unicode"

	"snipmerge/internal/placeholder"
)

var (
	simpleCall          = regexp.MustCompile(`^[a-zA-Z_$][a-zA-Z0-9_$]*\(\)\s*;?$`)
	simpleCallWithArrow = regexp.MustCompile(`^[a-zA-Z_$][a-zA-Z0-9_$]*\(\s*\(\s*\)\s*=>\s*\{\s*$`)
	commonHookEnd       = regexp.MustCompile(`^\}\s*,\s*\[\s*\]\s*\)\s*;?$`)
)

// IsSimpleCall reports a bare call such as "refresh();".
func IsSimpleCall(line string) bool { return simpleCall.MatchString(strings.TrimSpace(line)) }

// IsSimpleCallWithArrow reports a call opening an arrow body, "useEffect(() => {".
func IsSimpleCallWithArrow(line string) bool {
	return simpleCallWithArrow.MatchString(strings.TrimSpace(line))
}

// IsCommonHookEnd reports the hook closing idiom "}, []);".
func IsCommonHookEnd(line string) bool { return commonHookEnd.MatchString(strings.TrimSpace(line)) }

func hasChar(line string) bool {
	return strings.IndexFunc(line, func(r rune) bool {
		return unicode.IsLetter(r) || unicode.IsDigit(r)
	}) >= 0
}

// IsUnique reports whether line occurs exactly once in existing and exactly
// once in snippet, comparing trimmed text.
func IsUnique(line string, existing, snippet []string) bool {
	target := strings.TrimSpace(line)
	return countTrimmed(target, existing) == 1 && countTrimmed(target, snippet) == 1
}

func countTrimmed(target string, lines []string) int {
	n := 0
	for _, l := range lines {
		if strings.TrimSpace(l) == target {
			n++
		}
	}
	return n
}

// anchorOracle decides whether an aligned snippet line can bound a splice.
type anchorOracle struct {
	existing  []string
	code      []string
	aligner   *Aligner
	threshold float64

	arrowChecked  bool
	arrowOverride bool
}

func newAnchorOracle(existing, snippet []string, a *Aligner, threshold float64) *anchorOracle {
	code, _ := placeholder.StripLines(snippet)
	return &anchorOracle{existing: existing, code: code, aligner: a, threshold: threshold}
}

// singleArrowCallWithPlaceholder reports whether the snippet has exactly one
// call taking an arrow function whose body holds a placeholder comment. Only
// then are "useEffect(() => {" and "}, []);" specific enough to anchor on.
func (o *anchorOracle) singleArrowCallWithPlaceholder() bool {
	if !o.arrowChecked {
		o.arrowChecked = true
		if tree := o.aligner.snippetTree(); tree != nil {
			o.arrowOverride = tree.ArrowCallsWrapping(placeholder.IsPlaceholder) == 1
		}
	}
	return o.arrowOverride
}

// Acceptable applies every anchor rule to the annotated line.
func (o *anchorOracle) Acceptable(l *AnnotatedLine) bool {
	if l.IsPlaceholder || l.Match < 0 || l.Match >= len(o.existing) {
		return false
	}
	if strings.TrimSpace(l.Text) == "" || l.Score < o.threshold {
		return false
	}
	unique := IsUnique(o.existing[l.Match], o.existing, o.code)
	if IsSimpleCall(l.Text) && !unique {
		return false
	}
	if (IsSimpleCallWithArrow(l.Text) || IsCommonHookEnd(l.Text)) && !o.singleArrowCallWithPlaceholder() {
		return false
	}
	return (hasChar(l.Text) && unique) || o.aligner.IsUniqueClosingBrace(l.index)
}
