// Package match detects glossary concepts in source-language text.
package match

import (
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/medlingua/medlingua/internal/glossary"
)

// Word boundaries are expressed with explicit non-letter classes instead of
// \b because Go's \b is ASCII-only and never fires inside Devanagari or other
// non-Latin scripts. Combining marks count as word-internal so Indic matras
// do not split words.
const (
	boundaryBefore = `(?:\A|[^\p{L}\p{M}\p{N}_])`
	boundaryAfter  = `(?:[^\p{L}\p{M}\p{N}_]|\z)`
)

// Matcher finds glossary concepts present in source-language text.
// Compiled patterns are cached per (concept, language); the cache never
// invalidates because the glossary is immutable.
type Matcher struct {
	index *glossary.Index

	mu       sync.RWMutex
	patterns map[string][]*regexp.Regexp
}

// NewMatcher returns a matcher over the given glossary index.
func NewMatcher(index *glossary.Index) *Matcher {
	return &Matcher{
		index:    index,
		patterns: make(map[string][]*regexp.Regexp),
	}
}

// FindConcepts returns the keys of all concepts whose sourceLang surface
// forms appear in text, sorted, each at most once. Matching is
// case-insensitive and tolerates variable whitespace inside multi-word forms
// ("head ache" matches a form stored as "headache" and vice versa).
// Concepts with no surface forms for sourceLang are skipped. Empty or
// whitespace-only text short-circuits to an empty result.
func (m *Matcher) FindConcepts(text, sourceLang string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	lower := strings.ToLower(text)

	var found []string
	for _, key := range m.index.Keys() {
		forms := m.index.SurfaceForms(key, sourceLang)
		if len(forms) == 0 {
			continue
		}
		for _, re := range m.variantPatterns(key, sourceLang, forms) {
			if re.MatchString(lower) {
				found = append(found, key)
				break
			}
		}
	}
	sort.Strings(found)
	return found
}

func (m *Matcher) variantPatterns(key, lang string, forms []string) []*regexp.Regexp {
	cacheKey := lang + "\x00" + key
	m.mu.RLock()
	res, ok := m.patterns[cacheKey]
	m.mu.RUnlock()
	if ok {
		return res
	}
	res = make([]*regexp.Regexp, 0, len(forms))
	for _, form := range forms {
		res = append(res, compileFlexible(form))
	}
	m.mu.Lock()
	m.patterns[cacheKey] = res
	m.mu.Unlock()
	return res
}

// compileFlexible builds a boundary-anchored pattern for form that allows
// zero-or-more whitespace between its whitespace-separated tokens.
func compileFlexible(form string) *regexp.Regexp {
	tokens := strings.Fields(strings.ToLower(form))
	quoted := make([]string, len(tokens))
	for i, tok := range tokens {
		quoted[i] = regexp.QuoteMeta(tok)
	}
	return regexp.MustCompile(boundaryBefore + strings.Join(quoted, `\s*`) + boundaryAfter)
}
