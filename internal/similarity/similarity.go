// Package similarity scores how alike two source lines are.
//
// Compare is the Sørensen-Dice coefficient over character bigrams with all
// whitespace removed. It is the scorer used for anchoring snippet lines to
// existing lines. Levenshtein is an alternative backed by go-diff.
package similarity

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Func scores two lines in [0, 1].
type Func func(a, b string) float64

// Match is the result of a best-match search.
type Match struct {
	Index int
	Score float64
}

// Compare returns the Dice coefficient of the bigram multisets of a and b.
// Identical strings score 1; strings shorter than two runes score 0 unless
// identical.
func Compare(a, b string) float64 {
	a, b = stripSpace(a), stripSpace(b)
	if a == b {
		return 1
	}
	ra, rb := []rune(a), []rune(b)
	if len(ra) < 2 || len(rb) < 2 {
		return 0
	}

	first := make(map[[2]rune]int, len(ra)-1)
	for i := 0; i < len(ra)-1; i++ {
		first[[2]rune{ra[i], ra[i+1]}]++
	}

	shared := 0
	for i := 0; i < len(rb)-1; i++ {
		bg := [2]rune{rb[i], rb[i+1]}
		if first[bg] > 0 {
			first[bg]--
			shared++
		}
	}
	return 2 * float64(shared) / float64(len(ra)+len(rb)-2)
}

var (
	commonKeywords = regexp.MustCompile(`\b(const|let|if\s*\(|if|function|return)\b`)
	trailingSemi   = regexp.MustCompile(`;$`)
	trailingNote   = regexp.MustCompile(`//.*$`)
)

// CompareNoCommon is Compare after removing keywords that make unrelated
// statements look alike, a trailing semicolon and any trailing line comment.
func CompareNoCommon(a, b string) float64 {
	return Compare(withoutCommon(a), withoutCommon(b))
}

// WithoutCommon wraps f with the same keyword normalisation as
// CompareNoCommon.
func WithoutCommon(f Func) Func {
	return func(a, b string) float64 {
		return f(withoutCommon(a), withoutCommon(b))
	}
}

func withoutCommon(line string) string {
	line = commonKeywords.ReplaceAllString(line, "")
	line = trailingSemi.ReplaceAllString(line, "")
	if !strings.HasPrefix(line, "//") {
		line = trailingNote.ReplaceAllString(line, "")
	}
	return line
}

// Levenshtein returns 1 - distance/maxLen over runes using go-diff's edit
// script.
func Levenshtein(a, b string) float64 {
	a, b = stripSpace(a), stripSpace(b)
	if a == b {
		return 1
	}
	if a == "" || b == "" {
		return 0
	}
	dmp := diffmatchpatch.New()
	dist := dmp.DiffLevenshtein(dmp.DiffMain(a, b, false))
	maxLen := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > maxLen {
		maxLen = n
	}
	return 1 - float64(dist)/float64(maxLen)
}

// BestMatch returns the first candidate with the highest score against
// target. Index is -1 when candidates is empty.
func BestMatch(target string, candidates []string, score Func) Match {
	best := Match{Index: -1}
	for i, c := range candidates {
		s := score(target, c)
		if best.Index < 0 || s > best.Score {
			best = Match{Index: i, Score: s}
		}
	}
	return best
}

// ByName resolves a configured scorer name.
func ByName(name string) (Func, error) {
	switch strings.ToLower(name) {
	case "", "dice":
		return Compare, nil
	case "levenshtein":
		return Levenshtein, nil
	default:
		return nil, fmt.Errorf("unknown similarity %q", name)
	}
}

func stripSpace(s string) string {
	if strings.IndexFunc(s, unicode.IsSpace) < 0 {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if !unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
