package merge

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"snipmerge/internal/similarity"
	"snipmerge/internal/syntax"
)

func newTestAligner(existing, snippet string, syntaxAware bool) *Aligner {
	return NewAligner(context.Background(), strings.Split(existing, "\n"), strings.Split(snippet, "\n"),
		syntax.JavaScript, similarity.Compare, syntaxAware)
}

func TestAligner_OutOfRange(t *testing.T) {
	a := newTestAligner("a();\nb();", "b();", true)

	_, err := a.Align(1)
	assert.ErrorIs(t, err, ErrLineOutOfRange)
	_, err = a.Align(-1)
	assert.ErrorIs(t, err, ErrLineOutOfRange)

	_, err = a.Score(0, 2)
	assert.ErrorIs(t, err, ErrLineOutOfRange)
	_, err = a.Score(3, 0)
	assert.ErrorIs(t, err, ErrLineOutOfRange)
}

func TestAligner_BestMatch(t *testing.T) {
	a := newTestAligner("const a = 1;\nconst b = 2;\nconst c = 3;", "const b = 2;", true)

	m, err := a.Align(0)
	require.NoError(t, err)
	assert.Equal(t, 1, m)

	s, err := a.Score(0, m)
	require.NoError(t, err)
	assert.Equal(t, 1.0, s)
}

func TestAligner_ClosingBraceFollowsDeclaration(t *testing.T) {
	existing := lines(
		`function first() {`,
		`  one();`,
		`}`,
		``,
		`function second() {`,
		`  two();`,
		`}`,
	)
	snippet := lines(
		`function second() {`,
		`  // ...`,
		`}`,
	)

	t.Run("syntax aware", func(t *testing.T) {
		a := newTestAligner(existing, snippet, true)
		m, err := a.Align(2)
		require.NoError(t, err)
		assert.Equal(t, 6, m)
		assert.True(t, a.IsUniqueClosingBrace(2))
		assert.NoError(t, a.ParseErr())
	})

	t.Run("text only", func(t *testing.T) {
		a := newTestAligner(existing, snippet, false)
		m, err := a.Align(2)
		require.NoError(t, err)
		assert.Equal(t, 2, m, "first equal line wins without syntax")
		assert.False(t, a.IsUniqueClosingBrace(2))
	})
}

func TestAligner_DuplicateDeclarationNotUnique(t *testing.T) {
	existing := lines(
		`if (a) {`,
		`  function go() {`,
		`    left();`,
		`  }`,
		`} else {`,
		`  function go() {`,
		`    right();`,
		`  }`,
		`}`,
	)
	snippet := lines(
		`function go() {`,
		`  // ...`,
		`}`,
	)
	a := newTestAligner(existing, snippet, true)
	assert.False(t, a.IsUniqueClosingBrace(2))
}

func TestAligner_InnerLineNotClosingBrace(t *testing.T) {
	snippet := lines(
		`function go() {`,
		`  if (x) { y(); }`,
		`}`,
	)
	a := newTestAligner(snippet, snippet, true)
	assert.False(t, a.IsUniqueClosingBrace(1))
	assert.True(t, a.IsUniqueClosingBrace(2))
}
