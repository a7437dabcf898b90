// Package imports reconciles the header of a JavaScript module (directive
// prologue and import statements) between an existing file and a snippet
// that edits it, so the merge engine only has to splice bodies.
package imports

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"snipmerge/internal/merge"
	"snipmerge/internal/syntax"
)

// skipDirs are never searched when correcting import paths.
var skipDirs = map[string]bool{
	"node_modules": true,
	".git":         true,
	".next":        true,
	"dist":         true,
	"build":        true,
}

var resolveSuffixes = []string{"", ".js", ".jsx", ".ts", ".tsx", ".mjs", "/index.js", "/index.jsx", "/index.ts", "/index.tsx"}

// Options configures a Reconciler.
type Options struct {
	// CorrectPaths rewrites relative import sources that do not resolve.
	CorrectPaths bool
	// ProjectRoot anchors file paths and the search for moved modules.
	ProjectRoot string
	Logger      *zap.Logger
}

// Reconciler implements merge.ImportReconciler.
type Reconciler struct {
	opts Options
	log  *zap.Logger
}

// New returns a Reconciler.
func New(opts Options) *Reconciler {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if opts.ProjectRoot == "" {
		opts.ProjectRoot = "."
	}
	return &Reconciler{opts: opts, log: log}
}

var _ merge.ImportReconciler = (*Reconciler)(nil)

// section is one text split at its header.
type section struct {
	header syntax.Header
	body   string
}

func split(ctx context.Context, lang *syntax.Language, text string) (section, error) {
	tree, err := syntax.Parse(ctx, lang, text)
	if err != nil {
		return section{}, err
	}
	lines := strings.Split(text, "\n")
	h := tree.Header
	if h.EndRow < 0 {
		return section{header: h, body: text}, nil
	}
	return section{header: h, body: strings.Join(lines[h.EndRow+1:], "\n")}, nil
}

// Reconcile merges the two headers. The snippet's directive wins over the
// existing one; the snippet's imports come first, followed by existing
// imports from modules the snippet does not import.
func (r *Reconciler) Reconcile(ctx context.Context, existing, snippet, filePath string) (merge.ImportHeader, error) {
	lang := syntax.ForPath(filePath)
	old, err := split(ctx, lang, existing)
	if err != nil {
		return merge.ImportHeader{}, fmt.Errorf("existing header: %w", err)
	}
	upd, err := split(ctx, lang, snippet)
	if err != nil {
		return merge.ImportHeader{}, fmt.Errorf("snippet header: %w", err)
	}

	directives := upd.header.Directives
	if len(directives) == 0 {
		directives = old.header.Directives
	}

	merged := append([]syntax.Import(nil), upd.header.Imports...)
	seen := make(map[string]bool, len(merged))
	for _, imp := range merged {
		seen[imp.Source] = true
	}
	for _, imp := range old.header.Imports {
		if !seen[imp.Source] {
			merged = append(merged, imp)
			seen[imp.Source] = true
		}
	}

	texts := make([]string, len(merged))
	for i, imp := range merged {
		texts[i] = imp.Text
		if r.opts.CorrectPaths {
			texts[i] = r.correct(imp, filePath, old.header.Imports)
		}
	}

	var parts []string
	if len(directives) > 0 {
		d := make([]string, len(directives))
		for i, s := range directives {
			d[i] = s.Text
		}
		parts = append(parts, strings.Join(d, "\n"))
	}
	if len(texts) > 0 {
		parts = append(parts, strings.Join(texts, "\n"))
	}

	r.log.Debug("reconciled header",
		zap.Int("directives", len(directives)),
		zap.Int("snippet_imports", len(upd.header.Imports)),
		zap.Int("merged_imports", len(merged)))

	return merge.ImportHeader{
		Prefix:       strings.Join(parts, "\n\n"),
		ExistingBody: strings.TrimLeft(old.body, "\n"),
		SnippetBody:  strings.TrimLeft(upd.body, "\n"),
	}, nil
}

// correct returns imp's text with its source rewritten when the source is
// relative and does not resolve from filePath's directory.
func (r *Reconciler) correct(imp syntax.Import, filePath string, existing []syntax.Import) string {
	if !strings.HasPrefix(imp.Source, ".") {
		return imp.Text
	}
	dir := filepath.Dir(r.abs(filePath))
	if resolves(dir, imp.Source) {
		return imp.Text
	}

	// Prefer the path the existing file used for the same binding.
	for _, old := range existing {
		if old.Source != imp.Source && sharesBinding(old, imp) && (!strings.HasPrefix(old.Source, ".") || resolves(dir, old.Source)) {
			return r.rewrite(imp, old.Source)
		}
	}

	found, err := r.findModule(filepath.Base(imp.Source))
	if err != nil || found == "" {
		r.log.Debug("import source unresolved", zap.String("source", imp.Source), zap.Error(err))
		return imp.Text
	}
	rel, err := filepath.Rel(dir, found)
	if err != nil {
		return imp.Text
	}
	rel = filepath.ToSlash(strings.TrimSuffix(rel, filepath.Ext(rel)))
	if !strings.HasPrefix(rel, ".") {
		rel = "./" + rel
	}
	return r.rewrite(imp, rel)
}

func (r *Reconciler) rewrite(imp syntax.Import, source string) string {
	r.log.Info("corrected import path", zap.String("from", imp.Source), zap.String("to", source))
	return strings.Replace(imp.Text, imp.Source, source, 1)
}

func (r *Reconciler) abs(filePath string) string {
	if filepath.IsAbs(filePath) {
		return filePath
	}
	return filepath.Join(r.opts.ProjectRoot, filePath)
}

var errAmbiguous = errors.New("more than one candidate module")

// findModule looks under the project root for a single file whose name
// without extension is base.
func (r *Reconciler) findModule(base string) (string, error) {
	var found []string
	err := filepath.WalkDir(r.opts.ProjectRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if skipDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		name := d.Name()
		if strings.TrimSuffix(name, filepath.Ext(name)) == base && isScript(name) {
			found = append(found, path)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	switch len(found) {
	case 0:
		return "", nil
	case 1:
		return found[0], nil
	default:
		return "", fmt.Errorf("%w for %q: %s", errAmbiguous, base, strings.Join(found, ", "))
	}
}

func isScript(name string) bool {
	switch filepath.Ext(name) {
	case ".js", ".jsx", ".ts", ".tsx", ".mjs":
		return true
	}
	return false
}

func resolves(dir, source string) bool {
	base := filepath.Join(dir, filepath.FromSlash(source))
	for _, suffix := range resolveSuffixes {
		if info, err := os.Stat(base + filepath.FromSlash(suffix)); err == nil && !info.IsDir() {
			return true
		}
	}
	return false
}

func sharesBinding(a, b syntax.Import) bool {
	for _, x := range a.Bindings {
		for _, y := range b.Bindings {
			if x == y {
				return true
			}
		}
	}
	return false
}
