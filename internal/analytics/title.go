// Package analytics computes derived text data: display titles, per-note
// statistics, and cross-collection aggregates. Everything here is a pure
// function of note content.
package analytics

import (
	"regexp"
	"strings"
)

// UntitledNote is the fallback title for empty content.
const UntitledNote = "Untitled Note"

var headingMarker = regexp.MustCompile(`^#+\s*`)

// GenerateTitle derives a display title from the first line of content:
// leading markdown heading markers are stripped and the result is capped at
// 50 runes (47 plus an ellipsis). Deterministic; same content always yields
// the same title.
func GenerateTitle(content string) string {
	if strings.TrimSpace(content) == "" {
		return UntitledNote
	}

	first := content
	if i := strings.IndexByte(content, '\n'); i >= 0 {
		first = content[:i]
	}
	first = strings.TrimSpace(first)
	first = headingMarker.ReplaceAllString(first, "")

	if r := []rune(first); len(r) > 50 {
		first = string(r[:47]) + "..."
	}
	if first == "" {
		return UntitledNote
	}
	return first
}
