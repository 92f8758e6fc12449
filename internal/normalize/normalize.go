// Package normalize canonicalizes free-form enum input from clients.
package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	// Matches runs of anything that is not an ASCII letter or digit.
	separatorRe = regexp.MustCompile(`[^A-Z0-9]+`)
)

// Enum converts user input to the canonical SCREAMING_SNAKE form used by
// statuses, genres and tags.
//
// Examples:
//
//	"sci-fi"          → "SCI_FI"
//	"  Slice of Life" → "SLICE_OF_LIFE"
//	"R-18"            → "R_18"
//	"Wúxiá"           → "WUXIA"
//	"COMPLETED"       → "COMPLETED"
func Enum(input string) string {
	// Decompose accented characters so the base letter survives.
	s := norm.NFKD.String(input)

	s = strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII {
			return -1
		}
		return r
	}, s)

	s = strings.ToUpper(s)
	s = separatorRe.ReplaceAllString(s, "_")
	return strings.Trim(s, "_")
}

// Enums applies Enum to each element, dropping entries that normalize to nothing.
// A nil input stays nil.
func Enums(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = Enum(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
