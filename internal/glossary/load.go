package glossary

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// builtinData is the glossary shipped with the binary, used when no glossary
// path is configured. A deployment can replace it with a larger data file.
//
//go:embed builtin.yaml
var builtinData []byte

type glossaryFile struct {
	Concepts    []*Concept    `yaml:"concepts"`
	Departments []*Department `yaml:"departments"`
}

// Load reads and validates the glossary data file at path.
// Validation failures are returned as errors; callers treat them as fatal.
func Load(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read glossary: %w", err)
	}
	return Parse(data)
}

// LoadBuiltin builds the index from the embedded default glossary.
func LoadBuiltin() (*Index, error) {
	return Parse(builtinData)
}

// Parse parses and validates glossary YAML data.
func Parse(data []byte) (*Index, error) {
	var f glossaryFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse glossary: %w", err)
	}
	if err := validate(&f); err != nil {
		return nil, fmt.Errorf("invalid glossary: %w", err)
	}
	return newIndex(f.Concepts, f.Departments), nil
}

func validate(f *glossaryFile) error {
	if len(f.Concepts) == 0 {
		return fmt.Errorf("no concepts defined")
	}
	deptIDs := make(map[string]bool, len(f.Departments))
	for _, d := range f.Departments {
		if d.ID == "" {
			return fmt.Errorf("department with empty id")
		}
		if deptIDs[d.ID] {
			return fmt.Errorf("duplicate department %q", d.ID)
		}
		if len(d.Names) == 0 {
			return fmt.Errorf("department %q has no names", d.ID)
		}
		deptIDs[d.ID] = true
	}
	seen := make(map[string]bool, len(f.Concepts))
	for _, c := range f.Concepts {
		if c.Key == "" {
			return fmt.Errorf("concept with empty key")
		}
		if seen[c.Key] {
			return fmt.Errorf("duplicate concept %q", c.Key)
		}
		seen[c.Key] = true
		if len(c.Forms[PivotLang]) == 0 {
			return fmt.Errorf("concept %q has no %s surface forms", c.Key, PivotLang)
		}
		for lang, forms := range c.Forms {
			if len(forms) == 0 {
				return fmt.Errorf("concept %q has an empty form list for %q", c.Key, lang)
			}
			for _, form := range forms {
				if form == "" {
					return fmt.Errorf("concept %q has an empty surface form for %q", c.Key, lang)
				}
			}
		}
		for _, dept := range c.Departments {
			if !deptIDs[dept] {
				return fmt.Errorf("concept %q references unknown department %q", c.Key, dept)
			}
		}
	}
	return nil
}
