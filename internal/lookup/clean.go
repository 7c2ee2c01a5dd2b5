package lookup

import (
	"regexp"
	"strings"
	"unicode"
)

// artistSeparators mark where a track's artist field stops naming the
// primary artist. Matched case-insensitively, earliest occurrence wins.
var artistSeparators = []string{"feat.", "ft.", "featuring", ",", "&", "/"}

var (
	parenRe      = regexp.MustCompile(`\s*\([^)]*\)`)
	bracketRe    = regexp.MustCompile(`\s*\[[^\]]*\]`)
	featSuffixRe = regexp.MustCompile(`(?i)\s[-–]\s(?:feat\.|ft\.|featuring)\s.*$`)
)

// CleanArtist reduces a tag-style artist field to the primary artist so
// tag databases can find it. "Drake ft. Rihanna" becomes "Drake". When
// stripping would leave nothing the original survives trimmed.
func CleanArtist(artist string) string {
	original := strings.TrimSpace(artist)
	if original == "" {
		return ""
	}

	lower := strings.ToLower(original)
	cut := len(original)
	for _, sep := range artistSeparators {
		if idx := strings.Index(lower, sep); idx >= 0 && idx < cut {
			cut = idx
		}
	}

	cleaned := strings.TrimSpace(original[:cut])
	if cleaned == "" {
		return original
	}

	return cleaned
}

// CleanTitle strips remix parentheticals, bracketed edits, and trailing
// "- feat. X" credits from a title. Titles duplicated around a dash,
// a pattern VirtualDJ imports produce, collapse to a single copy.
func CleanTitle(title string) string {
	original := strings.TrimSpace(title)
	if original == "" {
		return ""
	}

	cleaned := parenRe.ReplaceAllString(original, "")
	cleaned = bracketRe.ReplaceAllString(cleaned, "")
	cleaned = featSuffixRe.ReplaceAllString(cleaned, "")
	cleaned = strings.TrimSpace(cleaned)

	if left, right, found := strings.Cut(cleaned, " - "); found && left == right {
		cleaned = left
	}

	if cleaned == "" {
		return original
	}

	return cleaned
}

// titleCase capitalizes the first letter of every word, where a word
// starts after any non-letter. Mirrors how legacy library tools render
// unmapped genre tags ("hip-hop" to "Hip-Hop").
func titleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	prevLetter := false
	for _, r := range s {
		switch {
		case !unicode.IsLetter(r):
			b.WriteRune(r)
			prevLetter = false
		case prevLetter:
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(unicode.ToUpper(r))
			prevLetter = true
		}
	}

	return b.String()
}
