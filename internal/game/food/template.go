package food

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultRadius is the contact radius of a food whose template leaves it unset.
const DefaultRadius = 0.5

// Template defines a food archetype loaded from YAML.
type Template struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
	// Health is the base health before the stage multiplier is applied.
	Health int `yaml:"health"`
	// HungerValue is the reward added to the hunger meter on destruction.
	HungerValue int     `yaml:"hunger_value"`
	Speed       float64 `yaml:"speed"`
	Radius      float64 `yaml:"radius"`
}

func (t *Template) radius() float64 {
	if t.Radius <= 0 {
		return DefaultRadius
	}
	return t.Radius
}

// Validate checks that the template satisfies basic invariants.
//
// Postcondition: Returns nil iff ID and Name are non-empty, Health >= 1,
// HungerValue >= 0 and Speed >= 0.
func (t *Template) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("food template: id must not be empty")
	}
	if t.Name == "" {
		return fmt.Errorf("food template %q: name must not be empty", t.ID)
	}
	if t.Health < 1 {
		return fmt.Errorf("food template %q: health must be >= 1", t.ID)
	}
	if t.HungerValue < 0 {
		return fmt.Errorf("food template %q: hunger_value must be >= 0", t.ID)
	}
	if t.Speed < 0 {
		return fmt.Errorf("food template %q: speed must be >= 0", t.ID)
	}
	return nil
}

// LoadTemplateFromBytes parses a single food template from raw YAML bytes.
func LoadTemplateFromBytes(data []byte) (*Template, error) {
	var tmpl Template
	if err := yaml.Unmarshal(data, &tmpl); err != nil {
		return nil, fmt.Errorf("parsing food template YAML: %w", err)
	}
	if err := tmpl.Validate(); err != nil {
		return nil, err
	}
	return &tmpl, nil
}

// LoadTemplates reads all *.yaml files in dir and returns the parsed templates.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns all templates or an error on the first parse or validate
// failure; on error, the partial result is discarded.
func LoadTemplates(dir string) ([]*Template, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading food dir %q: %w", dir, err)
	}

	var templates []*Template
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}
		tmpl, err := LoadTemplateFromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("loading %q: %w", path, err)
		}
		templates = append(templates, tmpl)
	}
	return templates, nil
}
