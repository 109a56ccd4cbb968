// Package glossary provides the immutable medical concept index: canonical
// concepts with per-language surface forms, concept-to-department mappings,
// and translated department names. The index is built once at startup and is
// safe for unsynchronized concurrent reads.
package glossary

import "sort"

// PivotLang is the language whose surface forms double as concept keys.
const PivotLang = "en"

// Concept is a canonical medical idea with per-language surface forms.
// The key is the English pivot label (e.g. "fever", "heart attack").
type Concept struct {
	Key         string              `yaml:"key"`
	Forms       map[string][]string `yaml:"forms"`
	Departments []string            `yaml:"departments"`
}

// Department is a clinical department with per-language display names.
type Department struct {
	ID    string            `yaml:"id"`
	Names map[string]string `yaml:"names"`
}

// Index is the process-lifetime glossary. It exposes no mutation API.
type Index struct {
	concepts    map[string]*Concept
	keys        []string
	departments map[string]*Department
	deptOrder   []string
}

// Concept returns the concept for key, or nil if unknown.
func (x *Index) Concept(key string) *Concept {
	return x.concepts[key]
}

// Keys returns all concept keys in sorted order.
func (x *Index) Keys() []string {
	return x.keys
}

// SurfaceForms returns the surface forms of key in lang. The result is empty
// (never nil-dereferencing, never an error) when the concept or the language
// entry is absent.
func (x *Index) SurfaceForms(key, lang string) []string {
	c := x.concepts[key]
	if c == nil {
		return nil
	}
	return c.Forms[lang]
}

// Departments returns the department ids mapped to key, empty if unknown.
func (x *Index) Departments(key string) []string {
	c := x.concepts[key]
	if c == nil {
		return nil
	}
	return c.Departments
}

// DepartmentName returns the display name of department id in lang.
// ok is false when the department or the translation is absent.
func (x *Index) DepartmentName(id, lang string) (string, bool) {
	d := x.departments[id]
	if d == nil {
		return "", false
	}
	name, ok := d.Names[lang]
	return name, ok
}

// DepartmentIDs returns all department ids in sorted order.
func (x *Index) DepartmentIDs() []string {
	return x.deptOrder
}

// ConceptCount returns the number of concepts in the index.
func (x *Index) ConceptCount() int { return len(x.keys) }

// DepartmentCount returns the number of departments in the index.
func (x *Index) DepartmentCount() int { return len(x.deptOrder) }

func newIndex(concepts []*Concept, departments []*Department) *Index {
	x := &Index{
		concepts:    make(map[string]*Concept, len(concepts)),
		departments: make(map[string]*Department, len(departments)),
	}
	for _, c := range concepts {
		x.concepts[c.Key] = c
		x.keys = append(x.keys, c.Key)
	}
	for _, d := range departments {
		x.departments[d.ID] = d
		x.deptOrder = append(x.deptOrder, d.ID)
	}
	sort.Strings(x.keys)
	sort.Strings(x.deptOrder)
	return x
}
