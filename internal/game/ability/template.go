package ability

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/petheaven/internal/game/projectile"
)

// Template is an ability definition loaded from YAML. Durations are Go
// duration strings such as "1.5s" or "250ms".
type Template struct {
	ID     string `yaml:"id"`
	Kind   Kind   `yaml:"kind"`
	Damage int    `yaml:"damage"`
	// Duration is the ring rotation period or the spawner's projectile lifetime.
	Duration      string  `yaml:"duration"`
	RotationSpeed float64 `yaml:"rotation_speed"`
	Radius        float64 `yaml:"radius"`
	Count         int     `yaml:"count"`
	Range         float64 `yaml:"range"`

	FireRate           string  `yaml:"fire_rate"`
	ProjectileSpeed    float64 `yaml:"projectile_speed"`
	ProjectileLifetime string  `yaml:"projectile_lifetime"`
	SpawnRate          string  `yaml:"spawn_rate"`

	Projectile projectile.Spec `yaml:"projectile"`
}

// Validate checks the fields shared by every kind. Kind-specific parameters
// are checked by Build.
//
// Postcondition: Returns nil iff ID is non-empty, Kind is known and Damage >= 0.
func (t *Template) Validate() error {
	if t.ID == "" {
		return &ConfigError{Ability: "", Field: "id", Reason: "must not be empty"}
	}
	switch t.Kind {
	case KindOrbitingRing, KindClosestShooter, KindRangeSpawner:
	default:
		return &ConfigError{Ability: t.ID, Field: "kind", Reason: fmt.Sprintf("unknown kind %q", t.Kind)}
	}
	if t.Damage < 0 {
		return &ConfigError{Ability: t.ID, Field: "damage", Reason: "must be >= 0"}
	}
	return nil
}

func (t *Template) duration(field, value string) (time.Duration, error) {
	if value == "" {
		return 0, &ConfigError{Ability: t.ID, Field: field, Reason: "must be set"}
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, &ConfigError{Ability: t.ID, Field: field, Reason: fmt.Sprintf("invalid duration %q", value)}
	}
	return d, nil
}

// Build constructs an inactive ability from t.
//
// Postcondition: Returns a *ConfigError if any parameter is missing or
// invalid; no ability is constructed in that case.
func Build(t *Template) (Ability, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	switch t.Kind {
	case KindOrbitingRing:
		period, err := t.duration("duration", t.Duration)
		if err != nil {
			return nil, err
		}
		return NewOrbitingRing(t.ID, t.Damage, RingConfig{
			Count:         t.Count,
			Radius:        t.Radius,
			RotationSpeed: t.RotationSpeed,
			Period:        period,
		}, t.Projectile)
	case KindClosestShooter:
		rate, err := t.duration("fire_rate", t.FireRate)
		if err != nil {
			return nil, err
		}
		life, err := t.duration("projectile_lifetime", t.ProjectileLifetime)
		if err != nil {
			return nil, err
		}
		return NewClosestShooter(t.ID, t.Damage, ShooterConfig{
			FireRate: rate,
			Range:    t.Range,
			Speed:    t.ProjectileSpeed,
			Lifetime: life,
		}, t.Projectile)
	default:
		rate, err := t.duration("spawn_rate", t.SpawnRate)
		if err != nil {
			return nil, err
		}
		life, err := t.duration("duration", t.Duration)
		if err != nil {
			return nil, err
		}
		return NewRangeSpawner(t.ID, t.Damage, SpawnerConfig{
			SpawnRate: rate,
			Range:     t.Range,
			Lifetime:  life,
		}, t.Projectile)
	}
}

// LoadTemplateFromBytes parses and validates a single ability template.
//
// Postcondition: Returns a template that Build accepts, or an error.
func LoadTemplateFromBytes(data []byte) (*Template, error) {
	var tmpl Template
	if err := yaml.Unmarshal(data, &tmpl); err != nil {
		return nil, fmt.Errorf("parsing ability template YAML: %w", err)
	}
	if _, err := Build(&tmpl); err != nil {
		return nil, err
	}
	return &tmpl, nil
}

// LoadTemplates reads all *.yaml files in dir.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns all templates sorted by file name, or an error on the
// first parse or validation failure.
func LoadTemplates(dir string) ([]*Template, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading ability dir %q: %w", dir, err)
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
