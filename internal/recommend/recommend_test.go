package recommend

import (
	"testing"

	"github.com/medlingua/medlingua/internal/glossary"
)

func newRecommender(t *testing.T) (*Recommender, *glossary.Index) {
	t.Helper()
	x, err := glossary.LoadBuiltin()
	if err != nil {
		t.Fatalf("LoadBuiltin: %v", err)
	}
	return NewRecommender(x), x
}

func TestParseMode(t *testing.T) {
	if m, err := ParseMode(""); err != nil || m != ModePerConcept {
		t.Errorf("ParseMode(\"\") = %v, %v", m, err)
	}
	if m, err := ParseMode("dedup"); err != nil || m != ModeDedup {
		t.Errorf("ParseMode(dedup) = %v, %v", m, err)
	}
	if _, err := ParseMode("bogus"); err == nil {
		t.Error("ParseMode(bogus) should fail")
	}
}

func TestRecommendPerConcept(t *testing.T) {
	r, x := newRecommender(t)
	keys := []string{"fever", "headache"}
	recs := r.Recommend(keys, "es", ModePerConcept)

	// One pair per (concept, department): fever has 1, headache has 2.
	wantCount := len(x.Departments("fever")) + len(x.Departments("headache"))
	if len(recs) != wantCount {
		t.Fatalf("got %d recommendations, want %d: %v", len(recs), wantCount, recs)
	}
	if recs[0].Concept != "fiebre" || recs[0].Department != "Medicina General" {
		t.Errorf("recs[0] = %+v", recs[0])
	}
	// Duplicate department names across concepts are allowed in this mode.
	seen := 0
	for _, rec := range recs {
		if rec.Department == "Medicina General" {
			seen++
		}
	}
	if seen != 2 {
		t.Errorf("Medicina General appeared %d times, want 2", seen)
	}
}

func TestRecommendDedup(t *testing.T) {
	r, _ := newRecommender(t)
	recs := r.Recommend([]string{"fever", "headache", "cough"}, "es", ModeDedup)

	names := make(map[string]int)
	for _, rec := range recs {
		if rec.Concept != "" {
			t.Errorf("dedup mode carries concept linkage: %+v", rec)
		}
		names[rec.Department]++
	}
	for name, n := range names {
		if n > 1 {
			t.Errorf("department %q appeared %d times", name, n)
		}
	}
	// fever+headache+cough map to General Medicine, Neurology, Pulmonology.
	if len(recs) != 3 {
		t.Errorf("got %d unique departments, want 3: %v", len(recs), recs)
	}
}

func TestRecommendSkipsUntranslatedDepartments(t *testing.T) {
	r, _ := newRecommender(t)
	// Builtin departments carry no French names; nothing is emitted, no error.
	recs := r.Recommend([]string{"fever"}, "fr", ModePerConcept)
	if len(recs) != 0 {
		t.Errorf("got %v, want none", recs)
	}
}

func TestRecommendConceptLabelFallback(t *testing.T) {
	r, _ := newRecommender(t)
	// English target: label is the pivot surface form.
	recs := r.Recommend([]string{"fever"}, "en", ModePerConcept)
	if len(recs) != 1 || recs[0].Concept != "fever" {
		t.Errorf("got %v", recs)
	}
}

func TestRecommendNoConcepts(t *testing.T) {
	r, _ := newRecommender(t)
	if recs := r.Recommend(nil, "es", ModePerConcept); len(recs) != 0 {
		t.Errorf("got %v", recs)
	}
	if recs := r.Recommend(nil, "es", ModeDedup); len(recs) != 0 {
		t.Errorf("got %v", recs)
	}
}
