package merge

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"snipmerge/internal/placeholder"
	"snipmerge/internal/syntax"
)

// Mode is how a snippet should be applied to a file.
type Mode int

const (
	// ModeMerge splices existing code into the snippet's placeholders.
	ModeMerge Mode = iota
	// ModeFragment replaces the declarations the snippet redefines.
	ModeFragment
	// ModeReplace writes the snippet as the whole file.
	ModeReplace
)

func (m Mode) String() string {
	switch m {
	case ModeMerge:
		return "merge"
	case ModeFragment:
		return "fragment"
	case ModeReplace:
		return "replace"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// DecideMode picks a mode: any placeholder means merge; a snippet shorter
// than half the existing file is a fragment; anything else replaces it.
func DecideMode(existing, snippet string) Mode {
	snippetLines := strings.Split(snippet, "\n")
	if placeholder.Contains(snippetLines) {
		return ModeMerge
	}
	existingLines := strings.Split(existing, "\n")
	if float64(len(snippetLines)) < float64(len(existingLines))/2 {
		return ModeFragment
	}
	return ModeReplace
}

// FragmentResult reports what ReplaceDeclarations changed.
type FragmentResult struct {
	Content  string
	Replaced []string
	Appended []string
}

// ReplaceDeclarations applies a placeholder-free fragment: each named
// top-level declaration in fragment replaces the existing declaration of the
// same name, or is appended when the file has none.
func ReplaceDeclarations(ctx context.Context, existing, fragment, filePath string) (*FragmentResult, error) {
	lang := syntax.ForPath(filePath)
	et, err := syntax.Parse(ctx, lang, existing)
	if err != nil {
		return nil, fmt.Errorf("parse existing: %w", err)
	}
	ft, err := syntax.Parse(ctx, lang, fragment)
	if err != nil {
		return nil, fmt.Errorf("parse fragment: %w", err)
	}

	existingLines := strings.Split(existing, "\n")
	fragmentLines := strings.Split(fragment, "\n")
	byName := make(map[string]syntax.Decl, len(et.TopLevel))
	for _, d := range et.TopLevel {
		if _, dup := byName[d.Name]; !dup {
			byName[d.Name] = d
		}
	}

	type edit struct {
		target syntax.Decl
		lines  []string
	}
	var edits []edit
	res := &FragmentResult{}
	var appended []string
	seen := make(map[string]bool, len(ft.TopLevel))
	for _, d := range ft.TopLevel {
		if seen[d.Name] {
			continue
		}
		seen[d.Name] = true
		text := fragmentLines[d.StartRow : d.EndRow+1]
		if target, ok := byName[d.Name]; ok {
			edits = append(edits, edit{target: target, lines: text})
			res.Replaced = append(res.Replaced, d.Name)
			continue
		}
		appended = append(appended, "")
		appended = append(appended, text...)
		res.Appended = append(res.Appended, d.Name)
	}

	// Apply bottom-up so earlier row numbers stay valid.
	sort.Slice(edits, func(i, j int) bool { return edits[i].target.StartRow > edits[j].target.StartRow })
	out := existingLines
	for _, ed := range edits {
		next := make([]string, 0, len(out)-(ed.target.EndRow-ed.target.StartRow+1)+len(ed.lines))
		next = append(next, out[:ed.target.StartRow]...)
		next = append(next, ed.lines...)
		next = append(next, out[ed.target.EndRow+1:]...)
		out = next
	}
	out = append(out, appended...)
	res.Content = strings.TrimSpace(strings.Join(out, "\n"))
	return res, nil
}
