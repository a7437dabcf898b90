// Package syntax wraps tree-sitter for the handful of structural questions the
// merge engine asks about JavaScript/TypeScript sources: which declaration
// encloses a line, which comments exist, which calls take an arrow function,
// where the import header ends and whether the text parses at all.
//
// A parsed Tree keeps no tree-sitter nodes. Everything is copied out during a
// single walk so the C tree can be closed immediately.
package syntax

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// Language is an immutable grammar handle. The package-level values are
// created once and shared by every parse.
type Language struct {
	name string
	lang *sitter.Language
}

func (l *Language) String() string { return l.name }

var (
	JavaScript = &Language{name: "javascript", lang: javascript.GetLanguage()}
	TypeScript = &Language{name: "typescript", lang: typescript.GetLanguage()}
	TSX        = &Language{name: "tsx", lang: tsx.GetLanguage()}
)

// ForPath picks a grammar from the file extension. The JavaScript grammar
// understands JSX, so it is the default.
func ForPath(path string) *Language {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ts", ".mts", ".cts":
		return TypeScript
	case ".tsx":
		return TSX
	default:
		return JavaScript
	}
}

// ErrParse is returned when tree-sitter produces no tree.
var ErrParse = errors.New("syntax: parse failed")

// DeclKind is the small fixed set of declaration shapes the engine consults.
type DeclKind int

const (
	FunctionDecl DeclKind = iota // function foo() {}
	VariableDecl                 // const foo = ..., let, var
	FunctionExpr                 // function () {} used as a value
	ClassDecl                    // class Foo {}; only reported in TopLevel
)

func (k DeclKind) String() string {
	switch k {
	case FunctionDecl:
		return "function_declaration"
	case VariableDecl:
		return "variable_declaration"
	case FunctionExpr:
		return "function_expression"
	case ClassDecl:
		return "class_declaration"
	}
	return "unknown"
}

// Decl is a declaration's row range and optional name.
type Decl struct {
	Kind     DeclKind
	Name     string
	StartRow int
	EndRow   int
	size     uint32
}

// Contains reports whether row lies inside the declaration.
func (d Decl) Contains(row int) bool { return row >= d.StartRow && row <= d.EndRow }

// Span is a byte range with the row it starts on.
type Span struct {
	Text      string
	StartByte uint32
	EndByte   uint32
	StartRow  int
	EndRow    int
}

// ArrowCall is a call expression whose first argument is an arrow function,
// e.g. useEffect(() => { ... }). Body is the arrow function's body.
type ArrowCall struct {
	Callee string
	Row    int
	Body   Span
}

// Tree is the flattened result of one parse.
type Tree struct {
	Language   *Language
	Decls      []Decl
	Comments   []Span
	ArrowCalls []ArrowCall
	Header     Header
	// TopLevel holds the named module-level declarations, export keyword
	// included in their row range.
	TopLevel []Decl

	lines      int
	firstError int
	names      []string
}

// Parse parses src with lang. A tree with syntax errors is still returned;
// FirstErrorRow reports where the first error sits.
func Parse(ctx context.Context, lang *Language, src string) (*Tree, error) {
	if lang == nil {
		lang = JavaScript
	}
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(lang.lang)

	content := []byte(src)
	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrParse, lang, err)
	}
	if tree == nil {
		return nil, fmt.Errorf("%w: %s", ErrParse, lang)
	}
	defer tree.Close()

	t := &Tree{
		Language:   lang,
		lines:      strings.Count(src, "\n") + 1,
		firstError: -1,
	}
	root := tree.RootNode()
	t.walk(root, content)
	t.Header = readHeader(root, content)
	t.TopLevel = topLevel(root, content)
	t.indexNames()
	return t, nil
}

// HasError reports whether the parse recovered from at least one error.
func (t *Tree) HasError() bool { return t.firstError >= 0 }

// FirstErrorRow is the row of the first error or missing node, or -1.
func (t *Tree) FirstErrorRow() int { return t.firstError }

func (t *Tree) walk(n *sitter.Node, src []byte) {
	if n == nil {
		return
	}
	row := int(n.StartPoint().Row)
	if (n.Type() == "ERROR" || n.IsMissing()) && (t.firstError < 0 || row < t.firstError) {
		t.firstError = row
	}

	switch n.Type() {
	case "function_declaration", "generator_function_declaration":
		t.addDecl(n, FunctionDecl, fieldText(n, "name", src))
	case "lexical_declaration", "variable_declaration":
		t.addDecl(n, VariableDecl, declaratorName(n, src))
	case "function", "function_expression", "generator_function":
		t.addDecl(n, FunctionExpr, fieldText(n, "name", src))
	case "comment":
		t.Comments = append(t.Comments, spanOf(n, src))
	case "call_expression":
		if call, ok := arrowCall(n, src); ok {
			t.ArrowCalls = append(t.ArrowCalls, call)
		}
	}

	for i := 0; i < int(n.ChildCount()); i++ {
		t.walk(n.Child(i), src)
	}
}

func (t *Tree) addDecl(n *sitter.Node, kind DeclKind, name string) {
	t.Decls = append(t.Decls, Decl{
		Kind:     kind,
		Name:     name,
		StartRow: int(n.StartPoint().Row),
		EndRow:   int(n.EndPoint().Row),
		size:     n.EndByte() - n.StartByte(),
	})
}

// indexNames records, per row, the name of the smallest enclosing
// declaration.
func (t *Tree) indexNames() {
	t.names = make([]string, t.lines)
	for row := range t.names {
		if d, ok := t.EnclosingDecl(row); ok {
			t.names[row] = d.Name
		}
	}
}

// EnclosingDecl returns the smallest declaration containing row.
func (t *Tree) EnclosingDecl(row int) (Decl, bool) {
	var best Decl
	found := false
	for _, d := range t.Decls {
		if !d.Contains(row) {
			continue
		}
		if !found || d.size < best.size {
			best, found = d, true
		}
	}
	return best, found
}

// NameAt is the name of the smallest declaration enclosing row, or "".
func (t *Tree) NameAt(row int) string {
	if row < 0 || row >= len(t.names) {
		return ""
	}
	return t.names[row]
}

// DeclsNamed returns the declarations carrying name, in source order.
func (t *Tree) DeclsNamed(name string) []Decl {
	var out []Decl
	for _, d := range t.Decls {
		if d.Name == name {
			out = append(out, d)
		}
	}
	return out
}

// ArrowCallsWrapping counts arrow calls whose body strictly contains a comment
// accepted by match.
func (t *Tree) ArrowCallsWrapping(match func(comment string) bool) int {
	n := 0
	for _, call := range t.ArrowCalls {
		for _, c := range t.Comments {
			if c.StartByte > call.Body.StartByte && c.EndByte < call.Body.EndByte && match(c.Text) {
				n++
				break
			}
		}
	}
	return n
}

func topLevel(root *sitter.Node, src []byte) []Decl {
	var out []Decl
	for i := 0; i < int(root.NamedChildCount()); i++ {
		stmt := root.NamedChild(i)
		if stmt == nil {
			continue
		}
		n := stmt
		if n.Type() == "export_statement" {
			if d := n.ChildByFieldName("declaration"); d != nil {
				n = d
			}
		}
		var kind DeclKind
		var name string
		switch n.Type() {
		case "function_declaration", "generator_function_declaration":
			kind, name = FunctionDecl, fieldText(n, "name", src)
		case "lexical_declaration", "variable_declaration":
			kind, name = VariableDecl, declaratorName(n, src)
		case "class_declaration":
			kind, name = ClassDecl, fieldText(n, "name", src)
		default:
			continue
		}
		if name == "" {
			continue
		}
		out = append(out, Decl{
			Kind:     kind,
			Name:     name,
			StartRow: int(stmt.StartPoint().Row),
			EndRow:   int(stmt.EndPoint().Row),
			size:     stmt.EndByte() - stmt.StartByte(),
		})
	}
	return out
}

func spanOf(n *sitter.Node, src []byte) Span {
	return Span{
		Text:      n.Content(src),
		StartByte: n.StartByte(),
		EndByte:   n.EndByte(),
		StartRow:  int(n.StartPoint().Row),
		EndRow:    int(n.EndPoint().Row),
	}
}

func fieldText(n *sitter.Node, field string, src []byte) string {
	if c := n.ChildByFieldName(field); c != nil {
		return c.Content(src)
	}
	return ""
}

// declaratorName reads the identifier bound by the first declarator. Pattern
// bindings ({a, b} = ...) have no single name.
func declaratorName(n *sitter.Node, src []byte) string {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if c == nil || c.Type() != "variable_declarator" {
			continue
		}
		name := c.ChildByFieldName("name")
		if name != nil && name.Type() == "identifier" {
			return name.Content(src)
		}
		return ""
	}
	return ""
}

func arrowCall(n *sitter.Node, src []byte) (ArrowCall, bool) {
	args := n.ChildByFieldName("arguments")
	if args == nil || args.Type() != "arguments" {
		return ArrowCall{}, false
	}
	var first *sitter.Node
	for i := 0; i < int(args.NamedChildCount()); i++ {
		c := args.NamedChild(i)
		if c != nil && c.Type() != "comment" {
			first = c
			break
		}
	}
	if first == nil || first.Type() != "arrow_function" {
		return ArrowCall{}, false
	}
	body := first.ChildByFieldName("body")
	if body == nil {
		return ArrowCall{}, false
	}
	return ArrowCall{
		Callee: fieldText(n, "function", src),
		Row:    int(n.StartPoint().Row),
		Body:   spanOf(body, src),
	}, true
}
