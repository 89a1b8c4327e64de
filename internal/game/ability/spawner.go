package ability

import (
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/petheaven/internal/game/dice"
	"github.com/cory-johannsen/petheaven/internal/game/projectile"
	"github.com/cory-johannsen/petheaven/internal/game/space"
)

// maxSampleAttempts bounds rejection sampling before falling back to clamping.
const maxSampleAttempts = 64

// SpawnerConfig parameterises a RangeSpawner.
type SpawnerConfig struct {
	SpawnRate time.Duration
	Range     float64
	Lifetime  time.Duration
}

// RangeSpawner drops projectiles at random points near the player.
type RangeSpawner struct {
	*base
	cfg SpawnerConfig
}

// NewRangeSpawner constructs an inactive spawner.
//
// Precondition: every SpawnerConfig field must be > 0.
// Postcondition: Returns a *ConfigError on the first invalid parameter.
func NewRangeSpawner(id string, damage int, cfg SpawnerConfig, spec projectile.Spec) (*RangeSpawner, error) {
	switch {
	case cfg.SpawnRate <= 0:
		return nil, &ConfigError{Ability: id, Field: "spawn_rate", Reason: "must be > 0"}
	case cfg.Range <= 0:
		return nil, &ConfigError{Ability: id, Field: "range", Reason: "must be > 0"}
	case cfg.Lifetime <= 0:
		return nil, &ConfigError{Ability: id, Field: "duration", Reason: "must be > 0"}
	}
	return &RangeSpawner{base: newBase(id, KindRangeSpawner, damage, spec), cfg: cfg}, nil
}

// Config returns the spawner's parameters.
func (s *RangeSpawner) Config() SpawnerConfig { return s.cfg }

// Activate starts the spawn timer. A nil env.Source is replaced with a
// crypto-backed source.
func (s *RangeSpawner) Activate(env Env) error {
	if env.Source == nil {
		env.Source = dice.NewCryptoSource()
	}
	if err := s.begin(env); err != nil {
		return err
	}
	s.track(env.Clock.Every(s.id+"/spawn", s.cfg.SpawnRate, s.spawn))
	return nil
}

func (s *RangeSpawner) spawn() {
	env := s.environment()
	pos := samplePosition(env.Arena, env.Source, s.cfg.Range)
	p, err := s.SpawnProjectile()
	if err != nil {
		s.logger().Warn("range spawner spawn failed", zapID(s.id), zap.Error(err))
		return
	}
	p.Position = space.Vec{X: pos.X, Y: p.Position.Y, Z: pos.Z}
	p.Lifetime = s.cfg.Lifetime
	s.despawnLater(p)
}

// samplePosition draws a planar point within r of the player. Each candidate
// is checked against the player's position at acceptance time, which may
// differ from the position the offset was drawn around.
//
// Postcondition: space.WithinRange(result, arena.PlayerPosition(), r) held
// when the result was produced.
func samplePosition(arena Arena, src dice.Source, r float64) space.Vec {
	var candidate space.Vec
	for attempt := 0; attempt < maxSampleAttempts; attempt++ {
		origin := arena.PlayerPosition()
		candidate = space.Vec{
			X: origin.X + dice.Uniform(src, -r, r),
			Z: origin.Z + dice.Uniform(src, -r, r),
		}
		if space.WithinRange(candidate, arena.PlayerPosition(), r) {
			return candidate
		}
	}
	return space.ClampToRange(candidate, arena.PlayerPosition(), r)
}

// Copy returns an inactive spawner with the same configuration.
func (s *RangeSpawner) Copy() Ability {
	return &RangeSpawner{base: s.clone(), cfg: s.cfg}
}
