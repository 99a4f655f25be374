// Package render turns a dependency graph into deterministic Markdown.
//
// Markdown is a pure function of the graph and options: the same inputs
// produce byte-identical output, so diffs between runs are meaningful.
package render

import (
	"fmt"
	"sort"
	"strings"

	"depmap/internal/model"
)

// Options controls rendering.
type Options struct {
	// Extended adds risk/role annotations and the summary section.
	Extended bool
	// Checked maps anchor → previously checked state, recovered from the
	// prior output file. Anchors absent from the map start unchecked.
	Checked map[string]bool
}

const (
	maxListedMembers = 5  // classes and functions shown per file
	maxListedExtras  = 10 // external deps and TODO tags shown per file
)

// Markdown renders the full report.
func Markdown(g *model.Graph, opts Options) string {
	anchors := Anchors(g)
	var b strings.Builder

	writeHeader(&b, g, opts)
	writeTreeSection(&b, g)
	writeTOC(&b, g, opts, anchors)
	writeFileSections(&b, g, opts, anchors)
	writeErrors(&b, g)
	if opts.Extended {
		writeSummary(&b, g)
	}

	return b.String()
}

// Anchors returns the anchor slug for every node. Slugs are the lowercased
// path with path separators and dots replaced by hyphens; residual
// collisions get a deterministic numeric suffix so the mapping stays
// injective.
func Anchors(g *model.Graph) map[string]string {
	anchors := make(map[string]string, len(g.Order))
	taken := make(map[string]bool, len(g.Order))
	for _, path := range g.Order {
		slug := slugify(path)
		if taken[slug] {
			for i := 2; ; i++ {
				candidate := fmt.Sprintf("%s-%d", slug, i)
				if !taken[candidate] {
					slug = candidate
					break
				}
			}
		}
		taken[slug] = true
		anchors[path] = slug
	}
	return anchors
}

func slugify(path string) string {
	slug := strings.ToLower(path)
	slug = strings.ReplaceAll(slug, "/", "-")
	slug = strings.ReplaceAll(slug, ".", "-")
	return slug
}

func writeHeader(b *strings.Builder, g *model.Graph, opts Options) {
	title := "# 📊 Dependency Map"
	if opts.Extended {
		title += " (Extended)"
	}
	depth := "unlimited"
	if g.MaxDepth > 0 {
		depth = fmt.Sprintf("%d", g.MaxDepth)
	}
	fmt.Fprintf(b, "%s\n\n", title)
	fmt.Fprintf(b, "**Entry point:** [%s](%s)\n", g.Entry, g.Entry)
	fmt.Fprintf(b, "**Root directory:** `%s`\n", g.Root)
	fmt.Fprintf(b, "**Max depth:** %s\n", depth)
	fmt.Fprintf(b, "**Files analyzed:** %d\n", len(g.Order))
	b.WriteString("\n---\n\n")
}

func writeTreeSection(b *strings.Builder, g *model.Graph) {
	b.WriteString("## 🌲 Dependency Tree\n\n```\n")
	writeTree(b, g, g.Entry, "", true, make(map[string]bool))
	b.WriteString("```\n\n---\n\n")
}

// writeTree reproduces per-file import order. A node already rendered
// earlier in the walk (or one cut off by the depth limit) becomes a leaf
// reference, which keeps the walk finite on cyclic graphs.
func writeTree(b *strings.Builder, g *model.Graph, path, prefix string, isLast bool, rendered map[string]bool) {
	node, ok := g.Nodes[path]
	if !ok {
		return
	}

	branch := "├── "
	if isLast {
		branch = "└── "
	}
	switch {
	case node.CutOff:
		fmt.Fprintf(b, "%s%s%s (not expanded)\n", prefix, branch, path)
		return
	case rendered[path]:
		fmt.Fprintf(b, "%s%s%s (see above)\n", prefix, branch, path)
		return
	}
	fmt.Fprintf(b, "%s%s%s\n", prefix, branch, path)
	rendered[path] = true

	childPrefix := prefix + "│   "
	if isLast {
		childPrefix = prefix + "    "
	}
	for i, imp := range node.Imports {
		writeTree(b, g, imp, childPrefix, i == len(node.Imports)-1, rendered)
	}
}

func writeTOC(b *strings.Builder, g *model.Graph, opts Options, anchors map[string]string) {
	b.WriteString("## 📑 Table of Contents\n\n")
	for _, path := range g.Order {
		anchor := anchors[path]
		if opts.Extended {
			fmt.Fprintf(b, "- %s %s [%s](#%s)\n", checkbox(opts, anchor), riskEmoji(nodeRisk(g.Nodes[path])), path, anchor)
		} else {
			fmt.Fprintf(b, "- %s [%s](#%s)\n", checkbox(opts, anchor), path, anchor)
		}
	}
	b.WriteString("\n---\n\n")
}

func writeFileSections(b *strings.Builder, g *model.Graph, opts Options, anchors map[string]string) {
	b.WriteString("## 📄 File Details\n\n")

	for _, path := range g.Order {
		node := g.Nodes[path]
		anchor := anchors[path]

		fmt.Fprintf(b, "### %s {#%s}\n\n", path, anchor)
		fmt.Fprintf(b, "**Path:** [%s](%s)\n\n", path, path)

		if node.CutOff {
			b.WriteString("*(Not expanded: beyond depth limit)*\n\n---\n\n")
			continue
		}
		if node.Status == model.StatusParseError {
			b.WriteString("**Status:** ⚠️ parse error\n\n")
		}

		md := node.Metadata
		if md != nil {
			writeMetadata(b, md, opts)
			writeTestFileLink(b, g, md, anchors)
		}

		if len(node.Imports) > 0 {
			b.WriteString("**Imports:**\n")
			sorted := append([]string(nil), node.Imports...)
			sort.Strings(sorted)
			for _, imp := range sorted {
				impAnchor := anchors[imp]
				if opts.Extended {
					fmt.Fprintf(b, "- %s %s [%s](#%s)\n", checkbox(opts, impAnchor), riskEmoji(nodeRisk(g.Nodes[imp])), imp, impAnchor)
				} else {
					fmt.Fprintf(b, "- %s [%s](#%s)\n", checkbox(opts, impAnchor), imp, impAnchor)
				}
			}
			b.WriteString("\n")
		}

		importedBy := g.ImportedBy(path)
		if len(importedBy) > 0 {
			sort.Strings(importedBy)
			b.WriteString("**Imported by:**\n")
			for _, from := range importedBy {
				fromAnchor := anchors[from]
				fmt.Fprintf(b, "- %s [%s](#%s)\n", checkbox(opts, fromAnchor), from, fromAnchor)
			}
			b.WriteString("\n")
		}

		b.WriteString("---\n\n")
	}
}

func writeMetadata(b *strings.Builder, md *model.Metadata, opts Options) {
	if md.BusinessPurpose != "" {
		fmt.Fprintf(b, "**Business Purpose:** %s\n\n", md.BusinessPurpose)
	}
	if opts.Extended {
		if md.Role != "" {
			fmt.Fprintf(b, "**Architectural Role:** %s\n\n", md.Role)
		}
		if md.Risk != "" {
			fmt.Fprintf(b, "**Risk Level:** %s %s\n", riskEmoji(md.Risk), md.Risk)
			if md.HasErrorHandling {
				b.WriteString("*(Has error handling: try/except blocks)*\n")
			}
			b.WriteString("\n")
		}
	}
	if len(md.ExternalDeps) > 0 {
		fmt.Fprintf(b, "**External Dependencies:** %s\n\n", codeList(md.ExternalDeps, maxListedExtras, ""))
	}
	if len(md.Classes) > 0 {
		fmt.Fprintf(b, "**Classes:** %s\n\n", codeList(md.Classes, maxListedMembers, ""))
	}
	if len(md.Functions) > 0 {
		fmt.Fprintf(b, "**Functions:** %s\n\n", codeList(md.Functions, maxListedMembers, "()"))
	}
	if len(md.Todos) > 0 {
		b.WriteString("**🚨 TODOs/Issues:**\n")
		for i, todo := range md.Todos {
			if i == maxListedExtras {
				fmt.Fprintf(b, "- ... +%d more\n", len(md.Todos)-maxListedExtras)
				break
			}
			fmt.Fprintf(b, "- Line %d [%s]: %s\n", todo.Line, todo.Tag, todo.Text)
		}
		b.WriteString("\n")
	}
	if md.IsTestFile {
		b.WriteString("**Test file:** yes\n\n")
	}
}

// writeTestFileLink links a module to its companion test. The link is an
// in-document anchor when the test file is itself a node, a plain file link
// otherwise.
func writeTestFileLink(b *strings.Builder, g *model.Graph, md *model.Metadata, anchors map[string]string) {
	if md.TestFile == "" {
		return
	}
	if anchor, ok := anchors[md.TestFile]; ok {
		fmt.Fprintf(b, "**Test File:** ✅ [%s](#%s)\n\n", md.TestFile, anchor)
	} else {
		fmt.Fprintf(b, "**Test File:** ✅ [%s](%s)\n\n", md.TestFile, md.TestFile)
	}
}

func writeErrors(b *strings.Builder, g *model.Graph) {
	if len(g.Errors) == 0 {
		return
	}
	b.WriteString("## ⚠️ Import Errors\n\n")
	for _, e := range g.Errors {
		if e.Line > 0 {
			fmt.Fprintf(b, "- `%s:%d`: %s\n", e.File, e.Line, e.Message)
		} else {
			fmt.Fprintf(b, "- `%s`: %s\n", e.File, e.Message)
		}
	}
	b.WriteString("\n")
}

func writeSummary(b *strings.Builder, g *model.Graph) {
	b.WriteString("## 📊 Summary Statistics\n\n")

	riskCounts := make(map[model.RiskLevel]int)
	roleCounts := make(map[model.Role]int)
	externals := make(map[string]struct{})
	for _, path := range g.Order {
		md := g.Nodes[path].Metadata
		if md == nil {
			continue
		}
		if md.Risk != "" {
			riskCounts[md.Risk]++
		}
		if md.Role != "" {
			roleCounts[md.Role]++
		}
		for _, dep := range md.ExternalDeps {
			externals[dep] = struct{}{}
		}
	}

	b.WriteString("**Risk Distribution:**\n")
	fmt.Fprintf(b, "- 🔴 HIGH: %d files\n", riskCounts[model.RiskHigh])
	fmt.Fprintf(b, "- 🟡 MEDIUM: %d files\n", riskCounts[model.RiskMedium])
	fmt.Fprintf(b, "- 🟢 LOW: %d files\n", riskCounts[model.RiskLow])
	b.WriteString("\n")

	b.WriteString("**Architectural Distribution:**\n")
	type roleCount struct {
		role  model.Role
		count int
	}
	var roles []roleCount
	for role, count := range roleCounts {
		roles = append(roles, roleCount{role, count})
	}
	sort.Slice(roles, func(i, j int) bool {
		if roles[i].count != roles[j].count {
			return roles[i].count > roles[j].count
		}
		return roles[i].role < roles[j].role
	})
	for _, rc := range roles {
		fmt.Fprintf(b, "- %s: %d files\n", rc.role, rc.count)
	}
	b.WriteString("\n")

	if len(externals) > 0 {
		names := make([]string, 0, len(externals))
		for name := range externals {
			names = append(names, name)
		}
		sort.Strings(names)
		quoted := make([]string, len(names))
		for i, name := range names {
			quoted[i] = "`" + name + "`"
		}
		fmt.Fprintf(b, "**All External Dependencies:** %s\n\n", strings.Join(quoted, ", "))
	}
}

func checkbox(opts Options, anchor string) string {
	if opts.Checked[anchor] {
		return "[x]"
	}
	return "[ ]"
}

func nodeRisk(node *model.ModuleNode) model.RiskLevel {
	if node == nil || node.Metadata == nil {
		return ""
	}
	return node.Metadata.Risk
}

func riskEmoji(risk model.RiskLevel) string {
	switch risk {
	case model.RiskHigh:
		return "🔴"
	case model.RiskMedium:
		return "🟡"
	case model.RiskLow:
		return "🟢"
	default:
		return "⚪"
	}
}

// codeList renders up to limit names as `code` spans with a "+N more" tail,
// appending suffix to each name (e.g. "()" for functions).
func codeList(names []string, limit int, suffix string) string {
	shown := names
	if len(shown) > limit {
		shown = shown[:limit]
	}
	quoted := make([]string, len(shown))
	for i, name := range shown {
		quoted[i] = "`" + name + suffix + "`"
	}
	out := strings.Join(quoted, ", ")
	if len(names) > limit {
		out += fmt.Sprintf(" ... +%d more", len(names)-limit)
	}
	return out
}
