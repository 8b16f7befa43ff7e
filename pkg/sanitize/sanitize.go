// Package sanitize cleans free text returned by the GitHub API before it is
// rendered back to the model.
package sanitize

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	policy     *bluemonday.Policy
	policyOnce sync.Once
)

// Sanitize strips invisible characters and all HTML markup from input.
func Sanitize(input string) string {
	return FilterHTMLTags(FilterInvisibleCharacters(input))
}

// FilterHTMLTags removes HTML elements, keeping their text content.
func FilterHTMLTags(input string) string {
	if !strings.ContainsAny(input, "<>") {
		return input
	}
	policyOnce.Do(func() {
		policy = bluemonday.StrictPolicy()
	})
	// StrictPolicy escapes entities; the output is plain text, not HTML.
	return html.UnescapeString(policy.Sanitize(input))
}

// FilterInvisibleCharacters removes invisible or control characters that should not appear
// in user-facing text: Unicode tag characters, BiDi controls and isolates, and
// zero-width or hidden modifier characters.
func FilterInvisibleCharacters(input string) string {
	if input == "" {
		return input
	}
	return strings.Map(func(r rune) rune {
		if invisible(r) {
			return -1
		}
		return r
	}, input)
}

type runeRange struct{ lo, hi rune }

var invisibleRanges = []runeRange{
	{0x00AD, 0x00AD},   // soft hyphen
	{0x180E, 0x180E},   // mongolian vowel separator
	{0x200B, 0x200C},   // zero width space, non-joiner
	{0x200E, 0x200F},   // LTR/RTL marks
	{0x202A, 0x202E},   // BiDi embeddings and overrides
	{0x2060, 0x2064},   // word joiner and invisible operators
	{0x2066, 0x2069},   // BiDi isolates
	{0xFEFF, 0xFEFF},   // zero width no-break space
	{0xE0001, 0xE0001}, // language tag
	{0xE0020, 0xE007F}, // tag characters
}

func invisible(r rune) bool {
	for _, rr := range invisibleRanges {
		if r >= rr.lo && r <= rr.hi {
			return true
		}
	}
	return false
}
