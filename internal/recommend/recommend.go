// Package recommend maps recognized concepts to clinical departments
// translated into the patient's target language.
package recommend

import (
	"fmt"

	"github.com/medlingua/medlingua/internal/glossary"
)

// Mode selects how recommendations are shaped.
type Mode string

const (
	// ModePerConcept emits one pair per (concept, mapped department),
	// preserving the concept-to-department rationale. Default.
	ModePerConcept Mode = "per_concept"
	// ModeDedup emits each translated department name once, with no
	// concept linkage.
	ModeDedup Mode = "dedup"
)

// ParseMode validates a mode string; empty selects the default.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "":
		return ModePerConcept, nil
	case ModePerConcept, ModeDedup:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("unknown recommendation mode %q", s)
	}
}

// Recommendation pairs a concept label with a department name, both in the
// target language. Concept is empty in dedup mode.
type Recommendation struct {
	Concept    string `json:"concept,omitempty"`
	Department string `json:"department"`
}

// Recommender derives department recommendations from recognized concepts.
type Recommender struct {
	index *glossary.Index
}

// NewRecommender returns a recommender over the given glossary index.
func NewRecommender(index *glossary.Index) *Recommender {
	return &Recommender{index: index}
}

// Recommend maps the recognized concept keys to departments in targetLang.
// Departments lacking a targetLang name are skipped. Output order follows
// the given key order (per-concept mode) or sorted department id order
// (dedup mode).
func (r *Recommender) Recommend(keys []string, targetLang string, mode Mode) []Recommendation {
	if mode == ModeDedup {
		return r.recommendDedup(keys, targetLang)
	}
	return r.recommendPerConcept(keys, targetLang)
}

func (r *Recommender) recommendPerConcept(keys []string, targetLang string) []Recommendation {
	var recs []Recommendation
	for _, key := range keys {
		label := r.conceptLabel(key, targetLang)
		for _, dept := range r.index.Departments(key) {
			name, ok := r.index.DepartmentName(dept, targetLang)
			if !ok {
				continue
			}
			recs = append(recs, Recommendation{Concept: label, Department: name})
		}
	}
	return recs
}

func (r *Recommender) recommendDedup(keys []string, targetLang string) []Recommendation {
	wanted := make(map[string]bool)
	for _, key := range keys {
		for _, dept := range r.index.Departments(key) {
			wanted[dept] = true
		}
	}
	var recs []Recommendation
	// Iterate sorted ids so dedup output is stable across requests.
	for _, dept := range r.index.DepartmentIDs() {
		if !wanted[dept] {
			continue
		}
		name, ok := r.index.DepartmentName(dept, targetLang)
		if !ok {
			continue
		}
		recs = append(recs, Recommendation{Department: name})
	}
	return recs
}

// conceptLabel is the concept's first target-language surface form, falling
// back to the pivot key when the target language has none.
func (r *Recommender) conceptLabel(key, targetLang string) string {
	if forms := r.index.SurfaceForms(key, targetLang); len(forms) > 0 {
		return forms[0]
	}
	return key
}
