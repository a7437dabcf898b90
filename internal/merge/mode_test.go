package merge

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecideMode(t *testing.T) {
	existing := strings.Repeat("line();\n", 20)

	assert.Equal(t, ModeMerge, DecideMode(existing, "a();\n// ...\nb();"))
	assert.Equal(t, ModeFragment, DecideMode(existing, "a();\nb();"))
	assert.Equal(t, ModeReplace, DecideMode(existing, strings.Repeat("x();\n", 15)))
	assert.Equal(t, ModeReplace, DecideMode("", "a();"))
}

func TestMode_String(t *testing.T) {
	assert.Equal(t, "merge", ModeMerge.String())
	assert.Equal(t, "fragment", ModeFragment.String())
	assert.Equal(t, "replace", ModeReplace.String())
	assert.Equal(t, "Mode(7)", Mode(7).String())
}

func TestReplaceDeclarations(t *testing.T) {
	existing := lines(
		`import x from "x";`,
		``,
		`function a() {`,
		`  return 1;`,
		`}`,
		``,
		`export function b() {`,
		`  return 2;`,
		`}`,
	)
	fragment := lines(
		`export function b() {`,
		`  return 3;`,
		`}`,
		``,
		`const c = 4;`,
	)

	res, err := ReplaceDeclarations(context.Background(), existing, fragment, "util.js")
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, res.Replaced)
	assert.Equal(t, []string{"c"}, res.Appended)
	assertContent(t, lines(
		`import x from "x";`,
		``,
		`function a() {`,
		`  return 1;`,
		`}`,
		``,
		`export function b() {`,
		`  return 3;`,
		`}`,
		``,
		`const c = 4;`,
	), res.Content)
}

func TestReplaceDeclarations_Multiple(t *testing.T) {
	existing := lines(
		`const a = 1;`,
		`function b() {`,
		`  return a;`,
		`}`,
		`const c = 3;`,
	)
	fragment := lines(
		`const c = 30;`,
		`const a = 10;`,
	)

	res, err := ReplaceDeclarations(context.Background(), existing, fragment, "util.js")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "c"}, res.Replaced)
	assert.Empty(t, res.Appended)
	assertContent(t, lines(
		`const a = 10;`,
		`function b() {`,
		`  return a;`,
		`}`,
		`const c = 30;`,
	), res.Content)
}
