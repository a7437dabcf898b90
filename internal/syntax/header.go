package syntax

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// Header is the leading block of a module: directive prologue ('use client'),
// comments and import statements.
type Header struct {
	Directives []Span
	Imports    []Import
	// EndRow is the last row of the final directive or import, or -1.
	EndRow int
}

// Import is one import statement.
type Import struct {
	Span
	Source   string
	Bindings []string
}

func readHeader(root *sitter.Node, src []byte) Header {
	h := Header{EndRow: -1}
	if root == nil {
		return h
	}
	for i := 0; i < int(root.NamedChildCount()); i++ {
		n := root.NamedChild(i)
		if n == nil {
			continue
		}
		switch n.Type() {
		case "comment":
			continue
		case "expression_statement":
			if len(h.Imports) > 0 || !isDirective(n) {
				return h
			}
			h.Directives = append(h.Directives, spanOf(n, src))
		case "import_statement":
			h.Imports = append(h.Imports, readImport(n, src))
		default:
			return h
		}
		h.EndRow = int(n.EndPoint().Row)
	}
	return h
}

func isDirective(n *sitter.Node) bool {
	return n.NamedChildCount() == 1 && n.NamedChild(0).Type() == "string"
}

func readImport(n *sitter.Node, src []byte) Import {
	imp := Import{Span: spanOf(n, src)}
	if s := n.ChildByFieldName("source"); s != nil {
		imp.Source = strings.Trim(s.Content(src), "'\"`")
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if c := n.NamedChild(i); c != nil && c.Type() == "import_clause" {
			imp.Bindings = clauseBindings(c, src)
		}
	}
	return imp
}

// clauseBindings lists the local names an import clause introduces.
func clauseBindings(n *sitter.Node, src []byte) []string {
	var out []string
	var visit func(*sitter.Node)
	visit = func(n *sitter.Node) {
		switch n.Type() {
		case "identifier":
			out = append(out, n.Content(src))
			return
		case "import_specifier":
			if alias := n.ChildByFieldName("alias"); alias != nil {
				out = append(out, alias.Content(src))
			} else if name := n.ChildByFieldName("name"); name != nil {
				out = append(out, name.Content(src))
			}
			return
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			if c := n.NamedChild(i); c != nil {
				visit(c)
			}
		}
	}
	visit(n)
	return out
}
