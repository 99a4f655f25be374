// Package classify assigns heuristic risk levels and architectural roles.
//
// Both classifiers are ordered rule tables with strict precedence: the first
// matching rule wins, there is no scoring or combination. They are pure
// functions so rules can be tested with literal inputs.
package classify

import (
	"os"
	"path/filepath"
	"strings"

	"depmap/internal/model"
)

// highRiskSignals mark persistent-state mutation: dynamic code execution,
// database access, destructive file-system or process calls, credentials.
var highRiskSignals = []string{
	"eval(", "exec(", "__import__", "subprocess",
	"oracledb", "psycopg", "pymongo",
	"sqlalchemy", "database", "db_connection",
	"password", "secret", "token", "api_key",
	"os.remove", "shutil.rmtree", "os.system",
}

// mediumRiskSignals mark broad exception handling, configuration, and
// file/network I/O without the high-risk signals.
var mediumRiskSignals = []string{
	"try:", "except", "raise", "error",
	"config", "settings", "environment",
	"file.write", "file.delete", "makedirs",
	"requests.", "http", "api",
}

// Risk classifies a file's source text. HIGH > MEDIUM > LOW, first match wins.
func Risk(source []byte) model.RiskLevel {
	content := strings.ToLower(string(source))
	for _, kw := range highRiskSignals {
		if strings.Contains(content, kw) {
			return model.RiskHigh
		}
	}
	for _, kw := range mediumRiskSignals {
		if strings.Contains(content, kw) {
			return model.RiskMedium
		}
	}
	return model.RiskLow
}

// roleRule matches a keyword anywhere in the path, or a filename suffix.
type roleRule struct {
	keywords []string
	suffix   string
	role     model.Role
}

var roleRules = []roleRule{
	{keywords: []string{"controller"}, suffix: "_controller.py", role: model.RoleController},
	{keywords: []string{"model"}, suffix: "_model.py", role: model.RoleModel},
	{keywords: []string{"view"}, suffix: "_view.py", role: model.RoleView},
	{keywords: []string{"util", "helper"}, role: model.RoleUtility},
}

// Role classifies a project-relative path. First match wins; no match is Other.
func Role(rel string) model.Role {
	lower := strings.ToLower(rel)
	base := lower
	if idx := strings.LastIndexByte(base, '/'); idx >= 0 {
		base = base[idx+1:]
	}
	for _, rule := range roleRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.role
			}
		}
		if rule.suffix != "" && strings.HasSuffix(base, rule.suffix) {
			return rule.role
		}
	}
	return model.RoleOther
}

// Apply classifies every expanded node in the graph. The graph itself is
// only annotated, never restructured. Files that cannot be re-read keep an
// empty risk level.
func Apply(g *model.Graph) {
	for _, path := range g.Order {
		node := g.Nodes[path]
		if node.Metadata == nil {
			continue
		}
		node.Metadata.Role = Role(path)
		source, err := os.ReadFile(filepath.Join(g.Root, filepath.FromSlash(path)))
		if err != nil {
			continue
		}
		node.Metadata.Risk = Risk(source)
	}
}
