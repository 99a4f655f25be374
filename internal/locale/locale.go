// Package locale holds the translated CLI prose. The Markdown report itself
// is identical across locales; only the stderr messages differ, so the
// traversal and rendering logic is never duplicated per language.
package locale

import "sort"

// Strings is the set of stderr message templates for one language.
type Strings struct {
	MappingFrom         string // %s = entry file
	MappingFromExtended string // %s = entry file
	RootDir             string // %s = root directory
	MaxDepth            string // %s = depth or Unlimited
	Unlimited           string
	Visit               string // %s = file being mapped
	Generated           string // %s = output file
	GeneratedExtended   string // %s = output file
	Stats               string
	StatsFiles          string // %d = node count
	StatsErrors         string // %d = error count
}

var tables = map[string]Strings{
	"en": {
		MappingFrom:         "🔍 Mapping dependencies from: %s",
		MappingFromExtended: "🔍 Mapping dependencies (EXTENDED) from: %s",
		RootDir:             "📁 Root directory: %s",
		MaxDepth:            "⚙️  Max depth: %s",
		Unlimited:           "unlimited",
		Visit:               "📄 Mapping: %s",
		Generated:           "✅ Dependency map generated: %s",
		GeneratedExtended:   "✅ Extended dependency map generated: %s",
		Stats:               "📊 Statistics:",
		StatsFiles:          "  - Files: %d",
		StatsErrors:         "  - Errors: %d",
	},
	"cs": {
		MappingFrom:         "🔍 Mapuji závislosti od: %s",
		MappingFromExtended: "🔍 Mapuji závislosti (EXTENDED) od: %s",
		RootDir:             "📁 Root adresář: %s",
		MaxDepth:            "⚙️  Max hloubka: %s",
		Unlimited:           "neomezeno",
		Visit:               "📄 Mapuji: %s",
		Generated:           "✅ Dependency map vygenerována: %s",
		GeneratedExtended:   "✅ Extended dependency map vygenerována: %s",
		Stats:               "📊 Statistiky:",
		StatsFiles:          "  - Soubory: %d",
		StatsErrors:         "  - Chyby: %d",
	},
}

// Get returns the string table for a locale name.
func Get(name string) (Strings, bool) {
	s, ok := tables[name]
	return s, ok
}

// Names lists the supported locale names, sorted.
func Names() []string {
	names := make([]string, 0, len(tables))
	for name := range tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
