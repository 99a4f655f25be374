package render

import (
	"regexp"
	"strings"
)

// checkedLine matches a checked checkbox entry and captures its anchor.
var checkedLine = regexp.MustCompile(`^\s*- \[[xX]\] .*\]\(#([^)]+)\)`)

// PreviousChecked recovers checked anchors from a previous report. The old
// file is treated purely as an anchor → checked store; nothing else in it is
// interpreted. Re-rendering merges these states so progress tracking
// survives incremental runs.
func PreviousChecked(content string) map[string]bool {
	checked := make(map[string]bool)
	for _, line := range strings.Split(content, "\n") {
		if m := checkedLine.FindStringSubmatch(line); m != nil {
			checked[m[1]] = true
		}
	}
	return checked
}
