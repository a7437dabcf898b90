package similarity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompare(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		{"healed", "sealed", 0.8},
		{"a b", "ab", 1},
		{"", "", 1},
		{"a", "b", 0},
		{"x", "xy", 0},
		{"abc", "xyz", 0},
		{"aaaa", "aa", 2.0 / 4.0},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, Compare(tt.a, tt.b), 1e-9, "%q vs %q", tt.a, tt.b)
	}
}

func TestCompareIsSymmetric(t *testing.T) {
	pairs := [][2]string{
		{"const [data, setData] = useState(null);", "const [user, setUser] = useState(null);"},
		{"useEffect(() => {", "useEffect(async () => {"},
	}
	for _, p := range pairs {
		assert.InDelta(t, Compare(p[0], p[1]), Compare(p[1], p[0]), 1e-12)
	}
}

func TestCompareNoCommon(t *testing.T) {
	// Keywords alone must not make unrelated statements similar.
	plain := Compare("const a = 1;", "const b = 2;")
	normalized := CompareNoCommon("const a = 1;", "const b = 2;")
	assert.Less(t, normalized, plain)

	assert.InDelta(t, 1.0, CompareNoCommon("return x;", "x"), 1e-9)
	assert.InDelta(t, 1.0, CompareNoCommon("foo() // done", "foo()"), 1e-9)
	assert.InDelta(t, 1.0, CompareNoCommon("// keep me", "// keep me"), 1e-9)
}

func TestLevenshtein(t *testing.T) {
	assert.InDelta(t, 1.0, Levenshtein("foo()", "foo ()"), 1e-9)
	assert.InDelta(t, 0.0, Levenshtein("abc", ""), 1e-9)
	assert.InDelta(t, 2.0/3.0, Levenshtein("abc", "abd"), 1e-9)
}

func TestBestMatch(t *testing.T) {
	lines := []string{"function a() {", "  return 1;", "}", "  return 1;"}

	m := BestMatch("return 1;", lines, Compare)
	assert.Equal(t, 1, m.Index, "ties go to the first occurrence")
	assert.InDelta(t, 1.0, m.Score, 1e-9)

	assert.Equal(t, -1, BestMatch("x", nil, Compare).Index)
}

func TestByName(t *testing.T) {
	f, err := ByName("levenshtein")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, f("a", "a"), 1e-9)

	_, err = ByName("jaccard")
	assert.Error(t, err)
}
