// Package annotate locates recognized concepts inside translated text and
// produces term occurrences for the caller's UI.
package annotate

import (
	"net/url"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/medlingua/medlingua/internal/glossary"
)

// visualAidBase is the image search endpoint used for visual-aid deep links.
const visualAidBase = "https://www.google.com/search?tbm=isch&q="

// Occurrence is a concept located in translated text. Term holds the exact
// substring matched (inflected form as seen), not the dictionary form.
// JSON field names follow the public API contract.
type Occurrence struct {
	Term            string `json:"term"`
	Concept         string `json:"english"`
	VisualAidSearch string `json:"visual_aid_search"`
}

// Annotator re-locates concepts' surface forms inside translated output.
type Annotator struct {
	index *glossary.Index

	mu       sync.RWMutex
	patterns map[string][]*regexp.Regexp
}

// NewAnnotator returns an annotator over the given glossary index.
func NewAnnotator(index *glossary.Index) *Annotator {
	return &Annotator{
		index:    index,
		patterns: make(map[string][]*regexp.Regexp),
	}
}

// Annotate searches translated for each concept's targetLang surface forms
// and returns one occurrence per concept found. Per concept, the first
// variant whose pattern matches wins, at its first occurrence; the matched
// substring may carry a trailing word-character run (inflection introduced by
// translation). Concepts without targetLang forms are silently omitted.
// Output is ordered by first-occurrence offset, ties broken by concept key,
// so repeated calls yield identical results.
func (a *Annotator) Annotate(keys []string, translated, targetLang string) []Occurrence {
	type located struct {
		occ    Occurrence
		offset int
	}
	var found []located
	for _, key := range keys {
		forms := a.index.SurfaceForms(key, targetLang)
		if len(forms) == 0 {
			continue
		}
		for _, re := range a.variantPatterns(key, targetLang, forms) {
			loc := re.FindStringSubmatchIndex(translated)
			if loc == nil {
				continue
			}
			// Group 1 is the term itself, excluding the boundary context.
			start, end := loc[2], loc[3]
			found = append(found, located{
				occ: Occurrence{
					Term:            translated[start:end],
					Concept:         key,
					VisualAidSearch: VisualAidURL(key),
				},
				offset: start,
			})
			break
		}
	}
	sort.Slice(found, func(i, j int) bool {
		if found[i].offset != found[j].offset {
			return found[i].offset < found[j].offset
		}
		return found[i].occ.Concept < found[j].occ.Concept
	})
	occs := make([]Occurrence, len(found))
	for i, f := range found {
		occs[i] = f.occ
	}
	return occs
}

// VisualAidURL builds the deterministic image-search link for a concept's
// pivot-language label. Pure string construction, no network.
func VisualAidURL(key string) string {
	query := `"` + key + `" medical diagram anatomy`
	return visualAidBase + url.QueryEscape(query)
}

func (a *Annotator) variantPatterns(key, lang string, forms []string) []*regexp.Regexp {
	cacheKey := lang + "\x00" + key
	a.mu.RLock()
	res, ok := a.patterns[cacheKey]
	a.mu.RUnlock()
	if ok {
		return res
	}
	res = make([]*regexp.Regexp, 0, len(forms))
	for _, form := range forms {
		res = append(res, compileSuffixTolerant(form))
	}
	a.mu.Lock()
	a.patterns[cacheKey] = res
	a.mu.Unlock()
	return res
}

// compileSuffixTolerant builds a case-insensitive pattern matching form at a
// word boundary, capturing the form plus any trailing run of word characters
// (plural or case endings added by the translation engine). Whitespace inside
// multi-word forms is matched flexibly, consistent with the matcher.
func compileSuffixTolerant(form string) *regexp.Regexp {
	tokens := strings.Fields(form)
	quoted := make([]string, len(tokens))
	for i, tok := range tokens {
		quoted[i] = regexp.QuoteMeta(tok)
	}
	body := strings.Join(quoted, `\s*`)
	return regexp.MustCompile(`(?i)(?:\A|[^\p{L}\p{M}\p{N}_])(` + body + `[\p{L}\p{M}\p{N}_]*)`)
}
