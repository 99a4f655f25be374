// Package model defines core data structures for depmap.
package model

// NodeStatus describes what happened to a file during traversal.
type NodeStatus string

const (
	// StatusOK means the file was read and parsed.
	StatusOK NodeStatus = "ok"
	// StatusParseError means the file was unreadable or had invalid syntax.
	StatusParseError NodeStatus = "parse_error"
)

// EdgeKind distinguishes absolute from relative imports.
type EdgeKind string

const (
	AbsoluteImport EdgeKind = "absolute"
	RelativeImport EdgeKind = "relative"
)

// RiskLevel is the heuristic risk classification (extended mode).
type RiskLevel string

const (
	RiskHigh   RiskLevel = "HIGH"
	RiskMedium RiskLevel = "MEDIUM"
	RiskLow    RiskLevel = "LOW"
)

// Role is the heuristic architectural role (extended mode).
type Role string

const (
	RoleController Role = "Controller"
	RoleModel      Role = "Model"
	RoleView       Role = "View"
	RoleUtility    Role = "Utility"
	RoleOther      Role = "Other"
)

// TodoTag is a single comment marker found during the line scan.
type TodoTag struct {
	Line int
	Tag  string
	Text string
}

// Metadata holds everything extracted from a single file beyond its edges.
type Metadata struct {
	BusinessPurpose  string // first non-empty docstring line, "" if none
	Classes          []string
	Functions        []string
	ExternalDeps     []string // top-level external module names, insertion order
	HasErrorHandling bool
	Todos            []TodoTag
	IsTestFile       bool
	TestFile         string // companion test file, "" if none found

	// Extended mode only.
	Risk RiskLevel
	Role Role
}

// ModuleNode is one file in the dependency graph. Identity is the
// project-relative, slash-separated path.
type ModuleNode struct {
	Path     string
	Status   NodeStatus
	Depth    int      // depth of first discovery
	Imports  []string // resolved in-project targets, per-file import order
	Metadata *Metadata
	CutOff   bool // reached beyond the depth limit, never expanded
}

// Edge is a directed import between two in-project files.
type Edge struct {
	From string
	To   string
	Kind EdgeKind
}

// ImportError is a non-fatal problem recorded against the importing file.
type ImportError struct {
	File    string
	Line    int
	Message string
}

// Graph is the full dependency graph built from one entry file.
type Graph struct {
	Entry    string // entry file, project-relative
	Root     string // absolute project root
	MaxDepth int    // <= 0 means unbounded
	Nodes    map[string]*ModuleNode
	Order    []string // node paths in first-discovery order
	Edges    []Edge
	Errors   []ImportError
	CutOffs  []string // paths reached but not expanded, discovery order
}

// ImportedBy returns the paths of nodes that import target, derived from the
// edge list. The reverse index is never stored.
func (g *Graph) ImportedBy(target string) []string {
	var from []string
	seen := make(map[string]struct{})
	for _, e := range g.Edges {
		if e.To != target {
			continue
		}
		if _, dup := seen[e.From]; dup {
			continue
		}
		seen[e.From] = struct{}{}
		from = append(from, e.From)
	}
	return from
}
