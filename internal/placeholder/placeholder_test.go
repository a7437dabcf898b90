package placeholder

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsPlaceholder(t *testing.T) {
	tests := []struct {
		name string
		line string
		want bool
	}{
		{"line comment rest", "// rest of code", true},
		{"indented rest with dots", "    // ... rest of hook body", true},
		{"block comment snip", "/* snip */", true},
		{"block comment dots", "  /* ... */", true},
		{"jsx comment", "      {/* Rest of the JSX */}", true},
		{"placeholder word", "// placeholder for existing handlers", true},
		{"upper case", "// REST OF FILE", true},
		{"bare dots", "...", true},
		{"indented bare dots", "    ...", true},
		{"spaced dots", "  . . .", true},
		{"dots between code", "foo(); ... bar();", true},
		{"bare dots trailing space", "    ... ", true},
		{"jsx text ending in dots", "      Loading ...", false},
		{"statement ending in dots", "label = next ...", false},
		{"jsx text ending in rest", "      Take a rest", false},
		{"plain code", "const x = 1;", false},
		{"spread", "return [...items, next];", false},
		{"spread call", "setItems((prev) => [...prev, item]);", false},
		{"dots in double quotes", `const msg = "loading ... please wait";`, false},
		{"dots in single quotes", "setLabel('wait ... ');", false},
		{"dots in template", "const s = `a ... b`;", false},
		{"quoted after marker", `x ... "y"`, false},
		{"plain comment", "// fetch the user", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsPlaceholder(tt.line), "line %q", tt.line)
		})
	}
}

func TestStrip(t *testing.T) {
	in := "function a() {\n  // rest of code\n  return 1;\n}\n{/* ... */}"
	assert.Equal(t, "function a() {\n  return 1;\n}", Strip(in))

	kept, removed := StripLines([]string{"a", "// ...", "b"})
	assert.Equal(t, []string{"a", "b"}, kept)
	assert.Equal(t, []string{"// ..."}, removed)
}

func TestCloseWhenPlaceholder(t *testing.T) {
	t.Run("trailing placeholder", func(t *testing.T) {
		out, added := CloseWhenPlaceholder("function a() {\n  foo();\n  // rest of code\n\n")
		assert.True(t, added)
		assert.Equal(t, "function a() {\n  foo();\n  // rest of code\n}", out)
	})

	t.Run("closed snippet", func(t *testing.T) {
		in := "function a() {\n  // ...\n}"
		out, added := CloseWhenPlaceholder(in)
		assert.False(t, added)
		assert.Equal(t, in, out)
	})
}

func TestCount(t *testing.T) {
	lines := []string{"a", "// ...", "b", "/* snip */"}
	assert.Equal(t, 2, Count(lines))
	assert.True(t, Contains(lines))
	assert.False(t, Contains([]string{"a", "b"}))
}
