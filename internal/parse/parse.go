// Package parse extracts per-file metadata from Python sources using
// tree-sitter.
package parse

import (
	"context"
	"embed"
	"fmt"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"depmap/internal/model"
)

//go:embed queries/python.scm
var queryFS embed.FS

// Import is one import statement found in a file.
type Import struct {
	Module    string // dotted module name, "" for a bare `from . import x`
	Level     int    // 0 = absolute, N = relative with N leading dots
	Alias     string // `import x as y` alias, "" if none
	Line      int
	Malformed bool // statement contained a syntax error
}

// Result is everything structural extracted from a single parse.
type Result struct {
	Docstring        string
	Classes          []string
	Functions        []string
	Imports          []Import
	HasErrorHandling bool
	ParseError       bool
}

// Parser wraps a tree-sitter parser and the compiled definitions query.
// Not safe for concurrent use; the traversal is single-threaded.
type Parser struct {
	parser *sitter.Parser
	query  *sitter.Query
}

// New creates a Parser for Python sources.
func New() (*Parser, error) {
	data, err := queryFS.ReadFile("queries/python.scm")
	if err != nil {
		return nil, fmt.Errorf("reading query file: %w", err)
	}
	q, err := sitter.NewQuery(data, python.GetLanguage())
	if err != nil {
		return nil, fmt.Errorf("compiling query: %w", err)
	}
	p := sitter.NewParser()
	p.SetLanguage(python.GetLanguage())
	return &Parser{parser: p, query: q}, nil
}

// Parse parses source and extracts structural metadata. A file whose tree
// contains syntax errors yields Result{ParseError: true} with no other
// fields set; the caller records it as a parse_error node.
func (p *Parser) Parse(source []byte) (*Result, error) {
	tree, err := p.parser.ParseCtx(context.Background(), nil, source)
	if err != nil {
		return nil, fmt.Errorf("parsing: %w", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return &Result{ParseError: true}, nil
	}

	res := &Result{
		Docstring: moduleDocstring(root, source),
	}
	res.Classes, res.Functions = p.topLevelDefs(root, source)

	walk(root, func(n *sitter.Node) {
		switch n.Type() {
		case "try_statement":
			res.HasErrorHandling = true
		case "import_statement", "import_from_statement", "future_import_statement":
			res.Imports = append(res.Imports, extractImports(n, source)...)
		}
	})

	return res, nil
}

// topLevelDefs runs the embedded query and returns top-level class and
// function names in source order.
func (p *Parser) topLevelDefs(root *sitter.Node, source []byte) (classes, functions []string) {
	type def struct {
		line int
		name string
	}
	var classDefs, funcDefs []def

	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(p.query, root)

	for {
		match, ok := qc.NextMatch()
		if !ok {
			break
		}
		match = qc.FilterPredicates(match, source)

		var nameNode *sitter.Node
		var captureName string
		for _, c := range match.Captures {
			switch cname := p.query.CaptureNameForId(c.Index); cname {
			case "name":
				nameNode = c.Node
			default:
				captureName = cname
			}
		}
		if nameNode == nil || captureName == "" {
			continue
		}

		d := def{line: int(nameNode.StartPoint().Row) + 1, name: nodeText(nameNode, source)}
		switch captureName {
		case "definition.class":
			classDefs = append(classDefs, d)
		case "definition.function":
			funcDefs = append(funcDefs, d)
		}
	}

	sort.Slice(classDefs, func(i, j int) bool { return classDefs[i].line < classDefs[j].line })
	sort.Slice(funcDefs, func(i, j int) bool { return funcDefs[i].line < funcDefs[j].line })
	for _, d := range classDefs {
		classes = append(classes, d.name)
	}
	for _, d := range funcDefs {
		functions = append(functions, d.name)
	}
	return classes, functions
}

// extractImports turns one import statement node into Import records.
func extractImports(n *sitter.Node, source []byte) []Import {
	line := int(n.StartPoint().Row) + 1

	if n.HasError() {
		return []Import{{Line: line, Malformed: true}}
	}

	switch n.Type() {
	case "future_import_statement":
		return []Import{{Module: "__future__", Line: line}}

	case "import_statement":
		// `import a.b, c as d` — one record per name.
		var imports []Import
		for i := 0; i < int(n.NamedChildCount()); i++ {
			child := n.NamedChild(i)
			switch child.Type() {
			case "dotted_name":
				imports = append(imports, Import{Module: nodeText(child, source), Line: line})
			case "aliased_import":
				imp := Import{Line: line}
				if name := child.ChildByFieldName("name"); name != nil {
					imp.Module = nodeText(name, source)
				}
				if alias := child.ChildByFieldName("alias"); alias != nil {
					imp.Alias = nodeText(alias, source)
				}
				imports = append(imports, imp)
			}
		}
		return imports

	case "import_from_statement":
		// `from X import ...` — only X matters for the graph.
		mod := n.ChildByFieldName("module_name")
		if mod == nil {
			return []Import{{Line: line, Malformed: true}}
		}
		switch mod.Type() {
		case "dotted_name":
			return []Import{{Module: nodeText(mod, source), Line: line}}
		case "relative_import":
			imp := Import{Line: line}
			for i := 0; i < int(mod.NamedChildCount()); i++ {
				child := mod.NamedChild(i)
				switch child.Type() {
				case "import_prefix":
					imp.Level = len(nodeText(child, source))
				case "dotted_name":
					imp.Module = nodeText(child, source)
				}
			}
			return []Import{imp}
		}
	}

	return nil
}

// moduleDocstring returns the module docstring, or "". Leading comments
// (shebang, coding line) are named nodes in the tree and are skipped.
func moduleDocstring(root *sitter.Node, source []byte) string {
	for i := 0; i < int(root.NamedChildCount()); i++ {
		first := root.NamedChild(i)
		if first.Type() == "comment" {
			continue
		}
		if first.Type() != "expression_statement" || first.NamedChildCount() == 0 {
			return ""
		}
		str := first.NamedChild(0)
		if str.Type() != "string" {
			return ""
		}
		return stripStringLiteral(nodeText(str, source))
	}
	return ""
}

// BusinessPurpose returns the first non-empty line of a docstring, or "".
func BusinessPurpose(docstring string) string {
	for _, line := range strings.Split(docstring, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

// stripStringLiteral removes a Python string literal's prefix and quotes.
func stripStringLiteral(s string) string {
	s = strings.TrimLeft(s, "rRbBuUfF")
	for _, q := range []string{`"""`, "'''", `"`, "'"} {
		if strings.HasPrefix(s, q) && strings.HasSuffix(s, q) && len(s) >= 2*len(q) {
			return s[len(q) : len(s)-len(q)]
		}
	}
	return s
}

// todoTags is the fixed comment-marker vocabulary, in precedence order.
var todoTags = []string{"TODO", "FIXME", "HACK", "DEPRECATED"}

// ScanTodos scans raw source text for comment markers. It is line-based and
// independent of the structural parse, so it still works on files with
// syntax errors.
func ScanTodos(source []byte) []model.TodoTag {
	var tags []model.TodoTag
	for i, line := range strings.Split(string(source), "\n") {
		hash := strings.Index(line, "#")
		if hash < 0 {
			continue
		}
		comment := line[hash+1:]

		best := -1
		bestTag := ""
		for _, tag := range todoTags {
			if idx := strings.Index(comment, tag); idx >= 0 && (best < 0 || idx < best) {
				best = idx
				bestTag = tag
			}
		}
		if best < 0 {
			continue
		}

		text := comment[best+len(bestTag):]
		text = strings.TrimPrefix(text, ":")
		tags = append(tags, model.TodoTag{
			Line: i + 1,
			Tag:  bestTag,
			Text: strings.TrimSpace(text),
		})
	}
	return tags
}

// IsTestFile reports whether the file name matches the test-naming
// convention, independent of content.
func IsTestFile(path string) bool {
	base := path
	if idx := strings.LastIndexByte(base, '/'); idx >= 0 {
		base = base[idx+1:]
	}
	return strings.HasPrefix(base, "test_") || strings.HasSuffix(base, "_test.py")
}

func nodeText(node *sitter.Node, source []byte) string {
	return string(source[node.StartByte():node.EndByte()])
}

// walk visits every named node in the tree, depth first, in source order.
func walk(root *sitter.Node, visit func(n *sitter.Node)) {
	stack := []*sitter.Node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		visit(n)
		for i := int(n.NamedChildCount()) - 1; i >= 0; i-- {
			stack = append(stack, n.NamedChild(i))
		}
	}
}
