// Package project locates the project root and indexes test files.
package project

import (
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"
)

var skipDirs = map[string]struct{}{
	"__pycache__":   {},
	"node_modules":  {},
	".git":          {},
	".hg":           {},
	".svn":          {},
	"venv":          {},
	".venv":         {},
	"env":           {},
	".env":          {},
	"build":         {},
	"dist":          {},
	".tox":          {},
	".mypy_cache":   {},
	".ruff_cache":   {},
	".pytest_cache": {},
	"egg-info":      {},
}

// DetectRoot returns the nearest ancestor of dir (inclusive) containing a
// .git directory or a pyproject.toml, or dir itself when none is found.
func DetectRoot(dir string) string {
	for cur := dir; ; {
		if exists(filepath.Join(cur, ".git")) || exists(filepath.Join(cur, "pyproject.toml")) {
			return cur
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return dir
		}
		cur = parent
	}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// TestFinder links modules to their companion test files. It walks the
// project once, honoring .gitignore and the usual skip directories, and
// records every file matching the test-naming convention.
type TestFinder struct {
	root   string
	files  map[string]struct{} // rel slash paths of all test files
	byName map[string][]string // base name → rel slash paths, sorted
}

// NewTestFinder walks root and indexes its test files. Walk errors are
// absorbed; an unreadable subtree just yields fewer candidates.
func NewTestFinder(root string) *TestFinder {
	f := &TestFinder{
		root:   root,
		files:  make(map[string]struct{}),
		byName: make(map[string][]string),
	}
	gi := loadGitignore(root)

	_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // skip errors
		}

		name := d.Name()

		if d.IsDir() {
			if path == root {
				return nil
			}
			if _, skip := skipDirs[name]; skip || strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}

		if strings.HasPrefix(name, ".") || d.Type()&os.ModeSymlink != 0 {
			return nil
		}
		if !strings.HasPrefix(name, "test_") && !strings.HasSuffix(name, "_test.py") {
			return nil
		}
		if !strings.HasSuffix(name, ".py") {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if gi != nil && gi.MatchesPath(rel) {
			return nil
		}

		f.files[rel] = struct{}{}
		f.byName[name] = append(f.byName[name], rel)
		return nil
	})

	for name := range f.byName {
		sort.Strings(f.byName[name])
	}
	return f
}

// Find returns the companion test file for a module, or "". Fixed probe
// locations are tried first (tests/, test/, the module's own directory, for
// both test_X.py and X_test.py); failing those, the first indexed file with
// a matching name anywhere in the tree wins.
func (f *TestFinder) Find(rel string) string {
	base := path.Base(rel)
	stem := strings.TrimSuffix(base, ".py")
	dir := path.Dir(rel)

	names := []string{"test_" + stem + ".py", stem + "_test.py"}

	for _, name := range names {
		for _, prefix := range []string{"tests", "test", dir} {
			candidate := path.Join(prefix, name)
			if candidate == rel {
				continue
			}
			if _, ok := f.files[candidate]; ok {
				return candidate
			}
		}
	}

	for _, name := range names {
		for _, candidate := range f.byName[name] {
			if candidate != rel {
				return candidate
			}
		}
	}
	return ""
}

func loadGitignore(root string) *ignore.GitIgnore {
	gi, err := ignore.CompileIgnoreFile(filepath.Join(root, ".gitignore"))
	if err != nil {
		return nil
	}
	return gi
}
