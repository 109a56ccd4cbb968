package glossary

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadBuiltin(t *testing.T) {
	x, err := LoadBuiltin()
	if err != nil {
		t.Fatalf("LoadBuiltin: %v", err)
	}
	if x.ConceptCount() == 0 {
		t.Fatal("no concepts loaded")
	}
	c := x.Concept("fever")
	if c == nil {
		t.Fatal("fever not found")
	}
	if got := x.SurfaceForms("fever", "es"); len(got) != 1 || got[0] != "fiebre" {
		t.Errorf("SurfaceForms(fever, es) = %v", got)
	}
	if got := x.SurfaceForms("cold", "es"); len(got) != 2 {
		t.Errorf("SurfaceForms(cold, es) = %v, want two variants", got)
	}
	if got := x.Departments("headache"); len(got) != 2 {
		t.Errorf("Departments(headache) = %v", got)
	}
	name, ok := x.DepartmentName("Neurology", "es")
	if !ok || name != "Neurología" {
		t.Errorf("DepartmentName(Neurology, es) = %q, %v", name, ok)
	}
}

func TestLookupAbsent(t *testing.T) {
	x, err := LoadBuiltin()
	if err != nil {
		t.Fatalf("LoadBuiltin: %v", err)
	}
	if c := x.Concept("no-such"); c != nil {
		t.Errorf("Concept(no-such) = %v", c)
	}
	if got := x.SurfaceForms("no-such", "en"); got != nil {
		t.Errorf("SurfaceForms(no-such) = %v", got)
	}
	if got := x.SurfaceForms("fever", "zz"); got != nil {
		t.Errorf("SurfaceForms(fever, zz) = %v", got)
	}
	if _, ok := x.DepartmentName("Neurology", "fr"); ok {
		t.Error("DepartmentName(Neurology, fr) should be absent")
	}
	if _, ok := x.DepartmentName("no-such", "en"); ok {
		t.Error("DepartmentName(no-such) should be absent")
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "glossary.yaml")
	data := `
concepts:
  - key: fever
    forms:
      en: [fever]
    departments: [Emergency]
departments:
  - id: Emergency
    names: {en: Emergency}
`
	if err := os.WriteFile(path, []byte(data), 0600); err != nil {
		t.Fatal(err)
	}
	x, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if x.ConceptCount() != 1 || x.DepartmentCount() != 1 {
		t.Errorf("counts = %d, %d", x.ConceptCount(), x.DepartmentCount())
	}
}

func TestParseValidation(t *testing.T) {
	cases := []struct {
		name string
		data string
		want string
	}{
		{
			name: "duplicate concept",
			data: `
concepts:
  - key: fever
    forms: {en: [fever]}
  - key: fever
    forms: {en: [fever]}
departments: []
`,
			want: "duplicate concept",
		},
		{
			name: "empty form list",
			data: `
concepts:
  - key: fever
    forms: {en: [fever], es: []}
departments: []
`,
			want: "empty form list",
		},
		{
			name: "missing pivot forms",
			data: `
concepts:
  - key: fever
    forms: {es: [fiebre]}
departments: []
`,
			want: "no en surface forms",
		},
		{
			name: "unknown department",
			data: `
concepts:
  - key: fever
    forms: {en: [fever]}
    departments: [Nowhere]
departments: []
`,
			want: "unknown department",
		},
		{
			name: "no concepts",
			data: `departments: []`,
			want: "no concepts",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.data))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error = %v, want substring %q", err, tc.want)
			}
		})
	}
}

func TestSearcher(t *testing.T) {
	x, err := LoadBuiltin()
	if err != nil {
		t.Fatalf("LoadBuiltin: %v", err)
	}
	s, err := NewSearcher(x)
	if err != nil {
		t.Fatalf("NewSearcher: %v", err)
	}
	defer s.Close()

	hits, err := s.Search("fiebre", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) == 0 || hits[0].Key != "fever" {
		t.Errorf("Search(fiebre) = %v, want fever first", hits)
	}

	hits, err = s.Search("heart", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	found := false
	for _, h := range hits {
		if h.Key == "heart attack" {
			found = true
		}
	}
	if !found {
		t.Errorf("Search(heart) = %v, want heart attack among hits", hits)
	}

	if hits, _ := s.Search("   ", 5); hits != nil {
		t.Errorf("Search(blank) = %v, want nil", hits)
	}
}
