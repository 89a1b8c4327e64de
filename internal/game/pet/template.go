package pet

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/petheaven/internal/game/ability"
)

// Template defines a pet loaded from YAML.
type Template struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
	// Ability is the id of the ability template the pet wields.
	Ability string `yaml:"ability"`
}

// Validate checks that every field is set.
func (t *Template) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("pet template: id must not be empty")
	}
	if t.Name == "" {
		return fmt.Errorf("pet template %q: name must not be empty", t.ID)
	}
	if t.Ability == "" {
		return fmt.Errorf("pet template %q: ability must not be empty", t.ID)
	}
	return nil
}

// Spawn creates a pet from t with its own copy of the referenced ability.
//
// Postcondition: Returns an error if the ability id is not registered.
func (t *Template) Spawn(abilities *ability.Registry) (*Pet, error) {
	a, ok := abilities.Instantiate(t.Ability)
	if !ok {
		return nil, fmt.Errorf("pet template %q: unknown ability %q", t.ID, t.Ability)
	}
	return New(t.ID, t.Name, a)
}

// LoadTemplateFromBytes parses a single pet template.
func LoadTemplateFromBytes(data []byte) (*Template, error) {
	var tmpl Template
	if err := yaml.Unmarshal(data, &tmpl); err != nil {
		return nil, fmt.Errorf("parsing pet template YAML: %w", err)
	}
	if err := tmpl.Validate(); err != nil {
		return nil, err
	}
	return &tmpl, nil
}

// LoadTemplates reads all *.yaml files in dir.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns all templates or an error on the first failure.
func LoadTemplates(dir string) ([]*Template, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading pet dir %q: %w", dir, err)
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
