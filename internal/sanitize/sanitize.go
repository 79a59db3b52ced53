// Package sanitize turns free-text species labels into folder names.
package sanitize

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var lower = cases.Lower(language.Und)

// FolderName converts a label into a lowercase token that is safe to use as a
// single path segment. Whitespace, hyphens and slashes become underscores;
// apostrophes, parentheses, periods and other characters that are not valid in
// filenames on common filesystems are dropped.
func FolderName(label string) string {
	var b strings.Builder
	b.Grow(len(label))

	for _, r := range lower.String(label) {
		switch {
		case r == '-' || r == '/' || unicode.IsSpace(r):
			b.WriteRune('_')
		case dropped(r):
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func dropped(r rune) bool {
	switch r {
	case '\'', '’', '(', ')', '.', '\\', '"', ':', '*', '?', '<', '>', '|':
		return true
	}
	return unicode.IsControl(r)
}
