package discover

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// SplitCaseBoundaries cuts s wherever a lower-case letter is immediately
// followed by an upper-case one. Listing markup often glues a category label
// to a headline ("SportBig win for the home side"); the cut separates them.
func SplitCaseBoundaries(s string) []string {
	if s == "" {
		return nil
	}

	var segments []string
	start := 0
	prev, prevSize := utf8.DecodeRuneInString(s)
	for i := prevSize; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if unicode.IsLower(prev) && unicode.IsUpper(r) {
			segments = append(segments, s[start:i])
			start = i
		}
		prev = r
		i += size
	}
	return append(segments, s[start:])
}

// LongestSegment returns the longest trimmed piece of s after case-boundary
// splitting. Earlier segments win ties.
func LongestSegment(s string) string {
	best := ""
	for _, seg := range SplitCaseBoundaries(s) {
		seg = strings.TrimSpace(seg)
		if utf8.RuneCountInString(seg) > utf8.RuneCountInString(best) {
			best = seg
		}
	}
	return best
}
