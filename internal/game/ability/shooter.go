package ability

import (
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/petheaven/internal/game/projectile"
	"github.com/cory-johannsen/petheaven/internal/game/space"
)

// ShooterConfig parameterises a ClosestShooter.
type ShooterConfig struct {
	FireRate time.Duration
	Range    float64
	Speed    float64
	Lifetime time.Duration
}

// ClosestShooter fires at the food closest to the player on a fixed cadence.
type ClosestShooter struct {
	*base
	cfg ShooterConfig
}

// NewClosestShooter constructs an inactive shooter.
//
// Precondition: every ShooterConfig field must be > 0.
// Postcondition: Returns a *ConfigError on the first invalid parameter.
func NewClosestShooter(id string, damage int, cfg ShooterConfig, spec projectile.Spec) (*ClosestShooter, error) {
	switch {
	case cfg.FireRate <= 0:
		return nil, &ConfigError{Ability: id, Field: "fire_rate", Reason: "must be > 0"}
	case cfg.Range <= 0:
		return nil, &ConfigError{Ability: id, Field: "range", Reason: "must be > 0"}
	case cfg.Speed <= 0:
		return nil, &ConfigError{Ability: id, Field: "projectile_speed", Reason: "must be > 0"}
	case cfg.Lifetime <= 0:
		return nil, &ConfigError{Ability: id, Field: "projectile_lifetime", Reason: "must be > 0"}
	}
	return &ClosestShooter{base: newBase(id, KindClosestShooter, damage, spec), cfg: cfg}, nil
}

// Config returns the shooter's parameters.
func (s *ClosestShooter) Config() ShooterConfig { return s.cfg }

// Activate starts the fire timer.
//
// Precondition: env.Targets must be non-nil.
func (s *ClosestShooter) Activate(env Env) error {
	if env.Targets == nil {
		return errors.New("ability env: targets must not be nil for a closest shooter")
	}
	if err := s.begin(env); err != nil {
		return err
	}
	s.track(env.Clock.Every(s.id+"/fire", s.cfg.FireRate, s.fire))
	return nil
}

// fire shoots one projectile at the closest food when it is within range.
func (s *ClosestShooter) fire() {
	env := s.environment()
	target, dist, ok := env.Targets.ClosestTarget()
	if !ok || dist >= s.cfg.Range {
		return
	}
	p, err := s.SpawnProjectile()
	if err != nil {
		s.logger().Warn("closest shooter spawn failed", zapID(s.id), zap.Error(err))
		return
	}
	origin := env.Arena.PlayerPosition()
	p.Position = space.Vec{X: origin.X, Y: p.Position.Y, Z: origin.Z}
	dest := space.Vec{X: target.X, Y: p.Position.Y, Z: target.Z}
	p.Destination = &dest
	p.Speed = s.cfg.Speed
	p.Lifetime = s.cfg.Lifetime
	s.despawnLater(p)
}

// Copy returns an inactive shooter with the same configuration.
func (s *ClosestShooter) Copy() Ability {
	return &ClosestShooter{base: s.clone(), cfg: s.cfg}
}
