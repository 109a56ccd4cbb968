// Package normalize applies per-language cleanup passes to translated text
// before annotation.
package normalize

import (
	"regexp"
	"strings"
)

var (
	symbolRun = regexp.MustCompile(`([^\p{L}\p{M}\p{N}\s])`)
	spaceRun  = regexp.MustCompile(`\s+`)
)

// Normalizer holds the set of language codes that receive symbol-spacing
// normalization. All other languages pass through unchanged.
type Normalizer struct {
	langs map[string]bool
}

// New returns a normalizer active for the given language codes.
func New(langs []string) *Normalizer {
	set := make(map[string]bool, len(langs))
	for _, l := range langs {
		set[l] = true
	}
	return &Normalizer{langs: set}
}

// Normalize returns text with every non-word, non-space character set off by
// single spaces and whitespace collapsed, when targetLang is configured for
// it; otherwise text is returned as-is. Pure function, no shared state.
func (n *Normalizer) Normalize(text, targetLang string) string {
	if !n.langs[targetLang] {
		return text
	}
	return SpaceSymbols(text)
}

// SpaceSymbols is the symbol-spacing pass itself.
func SpaceSymbols(text string) string {
	spaced := symbolRun.ReplaceAllString(text, " $1 ")
	return strings.TrimSpace(spaceRun.ReplaceAllString(spaced, " "))
}
