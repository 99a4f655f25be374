// Package locate resolves Python import statements to project files.
package locate

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"depmap/internal/parse"
)

// Kind classifies a resolution outcome.
type Kind string

const (
	// KindProject means the import resolved to a file under the project root.
	KindProject Kind = "project"
	// KindExternal means the import targets stdlib or a third-party package.
	KindExternal Kind = "external"
	// KindError means the import could not be resolved and the failure should
	// be recorded against the importing file.
	KindError Kind = "error"
)

// Target is the result of resolving one import.
type Target struct {
	Kind     Kind
	Path     string // project-relative slash path (KindProject)
	External string // top-level module name (KindExternal)
	Reason   string // human-readable failure (KindError)
}

// Locator resolves imports against a project root.
type Locator struct {
	root string // absolute
}

// New creates a Locator for the given absolute project root.
func New(root string) *Locator {
	return &Locator{root: root}
}

// Resolve maps one import found in importerRel (project-relative slash path)
// to a Target. Absolute imports that do not resolve under the root are
// external, never errors. Relative imports that ascend out of the tree or do
// not resolve are errors.
func (l *Locator) Resolve(importerRel string, imp parse.Import) Target {
	if imp.Level == 0 {
		return l.resolveAbsolute(imp.Module)
	}
	return l.resolveRelative(importerRel, imp)
}

func (l *Locator) resolveAbsolute(module string) Target {
	if module == "" {
		return Target{Kind: KindError, Reason: "empty import target"}
	}
	base := filepath.Join(l.root, filepath.FromSlash(strings.ReplaceAll(module, ".", "/")))
	if rel, ok := l.probe(base); ok {
		return Target{Kind: KindProject, Path: rel}
	}
	top := module
	if idx := strings.IndexByte(top, '.'); idx >= 0 {
		top = top[:idx]
	}
	return Target{Kind: KindExternal, External: top}
}

func (l *Locator) resolveRelative(importerRel string, imp parse.Import) Target {
	// Level 1 is the importer's own package directory; each additional
	// level ascends one directory.
	dir := filepath.Dir(filepath.Join(l.root, filepath.FromSlash(importerRel)))
	for i := 1; i < imp.Level; i++ {
		dir = filepath.Dir(dir)
	}
	if !l.within(dir) {
		return Target{Kind: KindError, Reason: fmt.Sprintf("relative import %q ascends out of the project tree", dots(imp.Level)+imp.Module)}
	}

	if imp.Module == "" {
		// `from . import x` resolves to the package itself.
		if rel, ok := l.probeFile(filepath.Join(dir, "__init__.py")); ok {
			return Target{Kind: KindProject, Path: rel}
		}
		return Target{Kind: KindError, Reason: fmt.Sprintf("unresolved relative import %q", dots(imp.Level))}
	}

	base := filepath.Join(dir, filepath.FromSlash(strings.ReplaceAll(imp.Module, ".", "/")))
	if rel, ok := l.probe(base); ok {
		return Target{Kind: KindProject, Path: rel}
	}
	return Target{Kind: KindError, Reason: fmt.Sprintf("unresolved relative import %q", dots(imp.Level)+imp.Module)}
}

// probe tries `base.py`, then `base/__init__.py`.
func (l *Locator) probe(base string) (string, bool) {
	if rel, ok := l.probeFile(base + ".py"); ok {
		return rel, true
	}
	return l.probeFile(filepath.Join(base, "__init__.py"))
}

// probeFile reports whether path is a regular file under the root, returning
// its canonical project-relative slash path.
func (l *Locator) probeFile(path string) (string, bool) {
	if !l.within(path) {
		return "", false
	}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", false
	}
	rel, err := filepath.Rel(l.root, path)
	if err != nil {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

func (l *Locator) within(path string) bool {
	rel, err := filepath.Rel(l.root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func dots(level int) string {
	return strings.Repeat(".", level)
}
