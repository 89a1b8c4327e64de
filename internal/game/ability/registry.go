package ability

import "fmt"

// Registry holds ability prototypes by template id. Pets receive copies of
// these prototypes, never the prototypes themselves.
type Registry struct {
	prototypes map[string]Ability
	order      []string
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{prototypes: make(map[string]Ability)}
}

// Register builds t and stores the result as a prototype.
//
// Postcondition: Returns an error if t is invalid or t.ID is already registered.
func (r *Registry) Register(t *Template) error {
	if _, exists := r.prototypes[t.ID]; exists {
		return fmt.Errorf("ability: Registry.Register: id %q already registered", t.ID)
	}
	a, err := Build(t)
	if err != nil {
		return err
	}
	r.prototypes[t.ID] = a
	r.order = append(r.order, t.ID)
	return nil
}

// Instantiate returns a fresh inactive copy of the prototype with the given id.
//
// Postcondition: ok is false iff id is not registered.
func (r *Registry) Instantiate(id string) (Ability, bool) {
	a, ok := r.prototypes[id]
	if !ok {
		return nil, false
	}
	return a.Copy(), true
}

// IDs returns registered ids in registration order.
func (r *Registry) IDs() []string {
	return append([]string(nil), r.order...)
}

// NewRegistryFromTemplates registers every template.
//
// Postcondition: Returns an error on the first invalid or duplicate template.
func NewRegistryFromTemplates(templates []*Template) (*Registry, error) {
	r := NewRegistry()
	for _, t := range templates {
		if err := r.Register(t); err != nil {
			return nil, err
		}
	}
	return r, nil
}
