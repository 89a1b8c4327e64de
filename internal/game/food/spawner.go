package food

import (
	"fmt"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/petheaven/internal/game/dice"
	"github.com/cory-johannsen/petheaven/internal/game/space"
)

// SpawnConfig controls how food enters a stage.
//
// Invariant: Interval > 0; MaxAlive >= 1; 0 <= MinRadius <= MaxRadius.
type SpawnConfig struct {
	// Interval between spawn waves.
	Interval time.Duration
	// Batch is the number of foods spawned per wave. Zero means one.
	Batch int
	// MaxAlive is the population cap: waves are suppressed at or above it.
	MaxAlive int
	// MinRadius and MaxRadius bound the planar distance from the player.
	MinRadius float64
	MaxRadius float64
	// Templates lists the template ids eligible for spawning.
	Templates []string
}

// Validate checks the invariants of c.
func (c SpawnConfig) Validate() error {
	switch {
	case c.Interval <= 0:
		return fmt.Errorf("spawn config: interval must be > 0")
	case c.MaxAlive < 1:
		return fmt.Errorf("spawn config: max_alive must be >= 1")
	case c.MinRadius < 0 || c.MaxRadius < c.MinRadius:
		return fmt.Errorf("spawn config: need 0 <= min_radius <= max_radius")
	case len(c.Templates) == 0:
		return fmt.Errorf("spawn config: templates must not be empty")
	}
	return nil
}

// Registrar receives spawned food.
type Registrar interface {
	RegisterFood(f *Food)
	Count() int
}

// Spawner places food around the player on a fixed interval.
// It is safe for concurrent use.
type Spawner struct {
	mu        sync.Mutex
	cfg       SpawnConfig
	templates []*Template
	src       dice.Source
	logger    *zap.Logger
}

// NewSpawner resolves cfg's template ids against templates.
//
// Precondition: logger must be non-nil; src may be nil (crypto source is used).
// Postcondition: Returns an error if cfg is invalid or names an unknown template.
func NewSpawner(cfg SpawnConfig, templates map[string]*Template, src dice.Source, logger *zap.Logger) (*Spawner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	resolved := make([]*Template, 0, len(cfg.Templates))
	for _, id := range cfg.Templates {
		tmpl, ok := templates[id]
		if !ok {
			return nil, fmt.Errorf("spawn config: unknown food template %q", id)
		}
		resolved = append(resolved, tmpl)
	}
	if src == nil {
		src = dice.NewCryptoSource()
	}
	return &Spawner{cfg: cfg, templates: resolved, src: src, logger: logger}, nil
}

// Interval returns the time between waves.
func (s *Spawner) Interval() time.Duration { return s.cfg.Interval }

// Wave spawns up to Batch foods around center with health scaled by
// multiplier, never exceeding MaxAlive live foods in reg.
//
// Postcondition: Returns the spawned foods; each is already registered with reg.
func (s *Spawner) Wave(reg Registrar, center space.Vec, multiplier float64) []*Food {
	s.mu.Lock()
	defer s.mu.Unlock()

	batch := s.cfg.Batch
	if batch < 1 {
		batch = 1
	}
	room := s.cfg.MaxAlive - reg.Count()
	if room < batch {
		batch = room
	}
	var spawned []*Food
	for i := 0; i < batch; i++ {
		tmpl := dice.Pick(s.src, s.templates)
		f := New(tmpl, s.position(center), multiplier)
		reg.RegisterFood(f)
		spawned = append(spawned, f)
		s.logger.Debug("food spawned",
			zap.String("food", f.ID),
			zap.String("template", tmpl.ID),
			zap.Int("health", f.Health),
		)
	}
	return spawned
}

// Populate spawns waves until reg holds MaxAlive foods.
func (s *Spawner) Populate(reg Registrar, center space.Vec, multiplier float64) {
	for reg.Count() < s.cfg.MaxAlive {
		if len(s.Wave(reg, center, multiplier)) == 0 {
			return
		}
	}
}

// position picks a point on the ring between MinRadius and MaxRadius.
func (s *Spawner) position(center space.Vec) space.Vec {
	angle := dice.Uniform(s.src, 0, 2*math.Pi)
	dist := dice.Uniform(s.src, s.cfg.MinRadius, s.cfg.MaxRadius)
	off := space.RotateY(space.Vec{Z: dist}, angle)
	return space.Vec{X: center.X + off.X, Z: center.Z + off.Z}
}
