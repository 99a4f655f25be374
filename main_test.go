package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTestFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func createSampleProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeTestFile(t, dir, "pyproject.toml", "[project]\nname = \"sample\"\n")
	writeTestFile(t, dir, "main.py", `"""Application entry point."""
import a
import b
`)
	writeTestFile(t, dir, "a.py", `"""Service layer."""

class Service:
    pass
`)
	writeTestFile(t, dir, "b.py", `"""Storage helpers."""

def load():
    pass
`)
	return dir
}

func TestRunBasic(t *testing.T) {
	t.Parallel()
	dir := createSampleProject(t)
	output := filepath.Join(dir, "deps.md")

	var stdout, stderr bytes.Buffer
	err := run([]string{filepath.Join(dir, "main.py"), "-o", output}, &stdout, &stderr)
	if err != nil {
		t.Fatalf("run: %v\nstderr: %s", err, stderr.String())
	}

	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	out := string(data)

	if !strings.Contains(out, "# 📊 Dependency Map") {
		t.Error("missing report header")
	}
	for _, section := range []string{"### main.py", "### a.py", "### b.py"} {
		if !strings.Contains(out, section) {
			t.Errorf("missing section %q", section)
		}
	}
	if n := strings.Count(out, "- [ ]"); n < 3 {
		t.Errorf("expected at least 3 checkboxes, got %d", n)
	}
	if !strings.Contains(out, "**Business Purpose:** Application entry point.") {
		t.Error("missing business purpose")
	}
	if !strings.Contains(stderr.String(), "📄 Mapping: main.py") {
		t.Errorf("missing progress output, stderr:\n%s", stderr.String())
	}
}

func TestRunExtended(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeTestFile(t, dir, "pyproject.toml", "")
	writeTestFile(t, dir, "main.py", `"""Writes records to the database."""
import db_connection

try:
    pass
except Exception:
    pass
`)
	writeTestFile(t, dir, "db_connection.py", `"""Database access."""
`)
	output := filepath.Join(dir, "deps_ext.md")

	var stdout, stderr bytes.Buffer
	err := run([]string{"-x", "-o", output, filepath.Join(dir, "main.py")}, &stdout, &stderr)
	if err != nil {
		t.Fatalf("run: %v\nstderr: %s", err, stderr.String())
	}

	data, _ := os.ReadFile(output)
	out := string(data)

	if !strings.Contains(out, "# 📊 Dependency Map (Extended)") {
		t.Error("missing extended header")
	}
	if !strings.Contains(out, "**Risk Level:** 🔴 HIGH") {
		t.Errorf("expected HIGH risk:\n%s", out)
	}
	if !strings.Contains(out, "*(Has error handling: try/except blocks)*") {
		t.Error("missing error-handling note")
	}
	if !strings.Contains(out, "## 📊 Summary Statistics") {
		t.Error("missing summary statistics")
	}
	if !strings.Contains(out, "**Architectural Role:**") {
		t.Error("missing architectural role")
	}
}

func TestRunMaxDepth(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeTestFile(t, dir, "pyproject.toml", "")
	writeTestFile(t, dir, "main.py", "import mid\n")
	writeTestFile(t, dir, "mid.py", "import deep\n")
	writeTestFile(t, dir, "deep.py", "")
	output := filepath.Join(dir, "deps.md")

	var stdout, stderr bytes.Buffer
	err := run([]string{"-max-depth", "1", "-o", output, filepath.Join(dir, "main.py")}, &stdout, &stderr)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	data, _ := os.ReadFile(output)
	out := string(data)

	if !strings.Contains(out, "deep.py (not expanded)") {
		t.Errorf("deep.py should be a cut-off reference:\n%s", out)
	}
	if !strings.Contains(out, "**Max depth:** 1") {
		t.Error("header should show the depth limit")
	}
}

func TestRunMissingEntry(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	var stdout, stderr bytes.Buffer
	err := run([]string{filepath.Join(dir, "nope.py")}, &stdout, &stderr)
	if err == nil {
		t.Fatal("expected error for missing entry file")
	}
}

func TestRunCheckboxCarryover(t *testing.T) {
	t.Parallel()
	dir := createSampleProject(t)
	output := filepath.Join(dir, "deps.md")
	entry := filepath.Join(dir, "main.py")

	var stdout, stderr bytes.Buffer
	if err := run([]string{entry, "-o", output}, &stdout, &stderr); err != nil {
		t.Fatalf("first run: %v", err)
	}

	// Tick a.py by hand, as a user tracking progress would.
	data, _ := os.ReadFile(output)
	ticked := strings.Replace(string(data), "- [ ] [a.py](#a-py)", "- [x] [a.py](#a-py)", 1)
	if err := os.WriteFile(output, []byte(ticked), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := run([]string{entry, "-o", output}, &stdout, &stderr); err != nil {
		t.Fatalf("second run: %v", err)
	}

	data, _ = os.ReadFile(output)
	if !strings.Contains(string(data), "- [x] [a.py](#a-py)") {
		t.Error("checked state lost across re-runs")
	}
	if !strings.Contains(string(data), "- [ ] [b.py](#b-py)") {
		t.Error("unchecked entries must stay unchecked")
	}
}

func TestRunLocaleCzech(t *testing.T) {
	t.Parallel()
	dir := createSampleProject(t)
	output := filepath.Join(dir, "deps.md")

	var stdout, stderr bytes.Buffer
	err := run([]string{"-locale", "cs", "-o", output, filepath.Join(dir, "main.py")}, &stdout, &stderr)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(stderr.String(), "📄 Mapuji: main.py") {
		t.Errorf("expected Czech progress lines, got:\n%s", stderr.String())
	}

	// The report itself is locale-independent.
	data, _ := os.ReadFile(output)
	if !strings.Contains(string(data), "## 📑 Table of Contents") {
		t.Error("report headings must not vary by locale")
	}
}

func TestRunUnsupportedLocale(t *testing.T) {
	t.Parallel()
	dir := createSampleProject(t)

	var stdout, stderr bytes.Buffer
	err := run([]string{"-locale", "de", filepath.Join(dir, "main.py")}, &stdout, &stderr)
	if err == nil || !strings.Contains(err.Error(), "unsupported locale") {
		t.Fatalf("expected unsupported-locale error, got %v", err)
	}
}

func TestRunVersion(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer
	if err := run([]string{"--version"}, &stdout, &stderr); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.HasPrefix(stdout.String(), "depmap ") {
		t.Errorf("version output: %q", stdout.String())
	}
}

func TestReorderArgs(t *testing.T) {
	t.Parallel()
	got := reorderArgs([]string{"main.py", "-o", "out.md", "-x"})
	want := []string{"-o", "out.md", "-x", "main.py"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}
