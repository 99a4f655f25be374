// Package graph builds the import dependency graph from an entry file.
package graph

import (
	"fmt"
	"os"
	"path/filepath"

	"depmap/internal/locate"
	"depmap/internal/model"
	"depmap/internal/parse"
	"depmap/internal/project"
)

// Builder drives the traversal. It owns the graph while building; callers
// get it back read-only.
type Builder struct {
	root     string // absolute project root
	maxDepth int    // <= 0 means unbounded

	parser  *parse.Parser
	locator *locate.Locator
	tests   *project.TestFinder

	// OnVisit, when set, is called once per expanded file at the moment it
	// is dequeued.
	OnVisit func(path string, depth int)
}

// NewBuilder creates a Builder for the given absolute project root.
// maxDepth <= 0 means the traversal runs until the worklist is exhausted.
func NewBuilder(root string, maxDepth int) (*Builder, error) {
	p, err := parse.New()
	if err != nil {
		return nil, err
	}
	return &Builder{
		root:     root,
		maxDepth: maxDepth,
		parser:   p,
		locator:  locate.New(root),
		tests:    project.NewTestFinder(root),
	}, nil
}

type workItem struct {
	path  string
	depth int
}

// Build traverses imports starting from entryRel (project-relative slash
// path). Only an unreadable entry file is fatal; every other failure is
// absorbed into the graph.
func (b *Builder) Build(entryRel string) (*model.Graph, error) {
	entryRel = filepath.ToSlash(filepath.Clean(filepath.FromSlash(entryRel)))
	if _, err := os.Stat(b.abs(entryRel)); err != nil {
		return nil, fmt.Errorf("entry file: %w", err)
	}

	g := &model.Graph{
		Entry:    entryRel,
		Root:     b.root,
		MaxDepth: b.maxDepth,
		Nodes:    make(map[string]*model.ModuleNode),
	}

	queue := []workItem{{entryRel, 0}}
	visited := make(map[string]bool)
	pending := map[string]bool{entryRel: true}
	edgeSeen := make(map[model.Edge]bool)

	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]
		if visited[item.path] {
			continue
		}
		visited[item.path] = true
		delete(pending, item.path)

		node := b.ensureNode(g, item.path, item.depth)
		node.CutOff = false
		if b.OnVisit != nil {
			b.OnVisit(item.path, item.depth)
		}

		source, err := os.ReadFile(b.abs(item.path))
		if err != nil {
			if item.path == entryRel {
				return nil, fmt.Errorf("entry file: %w", err)
			}
			node.Status = model.StatusParseError
			g.Errors = append(g.Errors, model.ImportError{File: item.path, Message: err.Error()})
			continue
		}

		// The line scan and filename heuristic do not depend on a
		// successful parse.
		md := &model.Metadata{
			Todos:      parse.ScanTodos(source),
			IsTestFile: parse.IsTestFile(item.path),
			TestFile:   b.tests.Find(item.path),
		}
		node.Metadata = md

		res, err := b.parser.Parse(source)
		if err != nil || res.ParseError {
			node.Status = model.StatusParseError
			msg := "invalid syntax"
			if err != nil {
				msg = err.Error()
			}
			g.Errors = append(g.Errors, model.ImportError{File: item.path, Message: msg})
			continue
		}

		md.BusinessPurpose = parse.BusinessPurpose(res.Docstring)
		md.Classes = res.Classes
		md.Functions = res.Functions
		md.HasErrorHandling = res.HasErrorHandling

		for _, imp := range res.Imports {
			if imp.Malformed {
				g.Errors = append(g.Errors, model.ImportError{
					File: item.path, Line: imp.Line, Message: "malformed import statement",
				})
				continue
			}

			target := b.locator.Resolve(item.path, imp)
			switch target.Kind {
			case locate.KindExternal:
				md.ExternalDeps = appendUnique(md.ExternalDeps, target.External)

			case locate.KindError:
				g.Errors = append(g.Errors, model.ImportError{
					File: item.path, Line: imp.Line, Message: target.Reason,
				})

			case locate.KindProject:
				kind := model.AbsoluteImport
				if imp.Level > 0 {
					kind = model.RelativeImport
				}
				edge := model.Edge{From: item.path, To: target.Path, Kind: kind}
				if !edgeSeen[edge] {
					edgeSeen[edge] = true
					g.Edges = append(g.Edges, edge)
				}
				node.Imports = appendUnique(node.Imports, target.Path)

				if visited[target.Path] || pending[target.Path] {
					continue
				}
				if b.maxDepth <= 0 || item.depth+1 <= b.maxDepth {
					pending[target.Path] = true
					queue = append(queue, workItem{target.Path, item.depth + 1})
					continue
				}
				// Beyond the depth limit: materialize the node but
				// never expand it. FIFO order guarantees this is the
				// shortest discovery depth.
				if _, exists := g.Nodes[target.Path]; !exists {
					cut := b.ensureNode(g, target.Path, item.depth+1)
					cut.CutOff = true
					g.CutOffs = append(g.CutOffs, target.Path)
				}
			}
		}
	}

	return g, nil
}

// ensureNode returns the node for path, creating it at the given discovery
// depth if it does not exist. First discovery wins: an existing node's depth
// is never changed.
func (b *Builder) ensureNode(g *model.Graph, path string, depth int) *model.ModuleNode {
	if node, ok := g.Nodes[path]; ok {
		return node
	}
	node := &model.ModuleNode{Path: path, Status: model.StatusOK, Depth: depth}
	g.Nodes[path] = node
	g.Order = append(g.Order, path)
	return node
}

func (b *Builder) abs(rel string) string {
	return filepath.Join(b.root, filepath.FromSlash(rel))
}

func appendUnique(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}
