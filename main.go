// depmap maps a Python project's import dependencies from an entry file and
// writes an interactive Markdown report.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"depmap/internal/classify"
	"depmap/internal/graph"
	"depmap/internal/locale"
	"depmap/internal/project"
	"depmap/internal/render"
)

var version = "dev"

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("depmap", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		output      string
		maxDepth    int
		extended    bool
		localeName  string
		showVersion bool
	)

	fs.StringVar(&output, "o", "", "output file (default dependencies.md, dependencies_ext.md with -x)")
	fs.StringVar(&output, "output", "", "output file (default dependencies.md, dependencies_ext.md with -x)")
	fs.IntVar(&maxDepth, "max-depth", 0, "maximum traversal depth (0 = unlimited)")
	fs.BoolVar(&extended, "x", false, "extended analysis (risk level, architectural role, summary)")
	fs.BoolVar(&extended, "extended", false, "extended analysis (risk level, architectural role, summary)")
	fs.StringVar(&localeName, "locale", "en", "message language ("+strings.Join(locale.Names(), ", ")+")")
	fs.BoolVar(&showVersion, "V", false, "show version and exit")
	fs.BoolVar(&showVersion, "version", false, "show version and exit")

	if err := fs.Parse(reorderArgs(args)); err != nil {
		return err
	}

	if showVersion {
		_, _ = fmt.Fprintf(stdout, "depmap %s\n", version)
		return nil
	}

	loc, ok := locale.Get(localeName)
	if !ok {
		return fmt.Errorf("unsupported locale %q (supported: %s)", localeName, strings.Join(locale.Names(), ", "))
	}

	entry := "main.py"
	if fs.NArg() > 0 {
		entry = fs.Arg(0)
	}
	entryAbs, err := filepath.Abs(entry)
	if err != nil {
		return fmt.Errorf("resolving entry file: %w", err)
	}
	info, err := os.Stat(entryAbs)
	if err != nil {
		return fmt.Errorf("entry file: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s: is a directory", entry)
	}

	if output == "" {
		output = "dependencies.md"
		if extended {
			output = "dependencies_ext.md"
		}
	}

	root := project.DetectRoot(filepath.Dir(entryAbs))
	rel, err := filepath.Rel(root, entryAbs)
	if err != nil {
		return fmt.Errorf("resolving entry file against root: %w", err)
	}
	entryRel := filepath.ToSlash(rel)

	depthLabel := loc.Unlimited
	if maxDepth > 0 {
		depthLabel = fmt.Sprintf("%d", maxDepth)
	}
	mappingFrom := loc.MappingFrom
	if extended {
		mappingFrom = loc.MappingFromExtended
	}
	_, _ = fmt.Fprintf(stderr, mappingFrom+"\n", entryRel)
	_, _ = fmt.Fprintf(stderr, loc.RootDir+"\n", root)
	_, _ = fmt.Fprintf(stderr, loc.MaxDepth+"\n", depthLabel)
	_, _ = fmt.Fprintln(stderr)

	builder, err := graph.NewBuilder(root, maxDepth)
	if err != nil {
		return err
	}
	builder.OnVisit = func(path string, depth int) {
		_, _ = fmt.Fprintf(stderr, "%s"+loc.Visit+"\n", strings.Repeat("  ", depth), path)
	}

	g, err := builder.Build(entryRel)
	if err != nil {
		return err
	}

	if extended {
		classify.Apply(g)
	}

	// The previous report, if any, is read only to carry over checked boxes.
	previous, _ := os.ReadFile(output)
	markdown := render.Markdown(g, render.Options{
		Extended: extended,
		Checked:  render.PreviousChecked(string(previous)),
	})

	if err := os.WriteFile(output, []byte(markdown), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", output, err)
	}

	generated := loc.Generated
	if extended {
		generated = loc.GeneratedExtended
	}
	_, _ = fmt.Fprintf(stderr, generated+"\n", output)
	_, _ = fmt.Fprintln(stderr)
	_, _ = fmt.Fprintln(stderr, loc.Stats)
	_, _ = fmt.Fprintf(stderr, loc.StatsFiles+"\n", len(g.Order))
	_, _ = fmt.Fprintf(stderr, loc.StatsErrors+"\n", len(g.Errors))

	return nil
}

// flagsWithValue lists flags that take a value argument.
var flagsWithValue = map[string]bool{
	"-o": true, "--o": true,
	"-output": true, "--output": true,
	"-max-depth": true, "--max-depth": true,
	"-locale": true, "--locale": true,
}

// reorderArgs moves positional arguments after all flags so Go's flag package
// can parse them correctly (it stops at the first non-flag arg).
func reorderArgs(args []string) []string {
	var flags, positional []string
	for i := 0; i < len(args); i++ {
		if args[i] == "--" {
			positional = append(positional, args[i+1:]...)
			break
		}
		if len(args[i]) > 0 && args[i][0] == '-' {
			flags = append(flags, args[i])
			if flagsWithValue[args[i]] && i+1 < len(args) {
				i++
				flags = append(flags, args[i])
			}
		} else {
			positional = append(positional, args[i])
		}
	}
	return append(flags, positional...)
}
