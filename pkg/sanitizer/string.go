package sanitizer

import (
	"strings"
	"unicode"
)

// TrimAndNormalize trims leading/trailing whitespace and collapses internal
// whitespace runs to a single space. Unicode letters are preserved untouched.
func TrimAndNormalize(s string) string {
	s = strings.TrimSpace(s)

	if s == "" {
		return ""
	}

	var result strings.Builder
	var lastWasSpace bool

	for _, r := range s {
		if unicode.IsSpace(r) {
			if !lastWasSpace {
				result.WriteRune(' ')
				lastWasSpace = true
			}
		} else {
			result.WriteRune(r)
			lastWasSpace = false
		}
	}

	return result.String()
}

// NormalizeName normalizes a participant or calendar display name.
func NormalizeName(name string) string {
	return TrimAndNormalize(name)
}

// NormalizeNote normalizes a free-text availability note, stripping control
// characters that would corrupt log lines or summaries.
func NormalizeNote(note string) string {
	note = TrimAndNormalize(note)
	if note == "" {
		return ""
	}

	var result strings.Builder
	for _, r := range note {
		if unicode.IsControl(r) {
			continue
		}
		result.WriteRune(r)
	}
	return result.String()
}
