// Package projectile defines the transient damage-dealing entities spawned by
// abilities.
package projectile

import (
	"time"

	"github.com/google/uuid"

	"github.com/cory-johannsen/petheaven/internal/game/space"
)

// DefaultRadius is the collision radius used when a Spec leaves it unset.
const DefaultRadius = 0.25

// Projectile is a single live projectile.
//
// Invariant: ID is unique for the lifetime of the process.
type Projectile struct {
	ID        string
	AbilityID string
	// Position is the world-space location of the projectile.
	Position space.Vec
	// Offset is the position relative to the ring center for orbiting
	// projectiles; it is zero for free-flying projectiles.
	Offset space.Vec
	Damage int
	// Destination is the point the projectile travels toward. Nil means the
	// projectile does not travel on its own.
	Destination *space.Vec
	// Speed is the travel speed in world units per second.
	Speed    float64
	Lifetime time.Duration
	// SpawnedAt is the scheduler time at which the projectile was spawned.
	SpawnedAt time.Duration
	Radius    float64
}

// Spec describes the projectiles produced by a Factory.
type Spec struct {
	Radius float64 `yaml:"radius"`
	// Height is the spawn height above the ground plane.
	Height float64 `yaml:"height"`
}

// Factory produces a fresh Projectile. Abilities fill in position, damage
// and motion after calling it.
type Factory func() *Projectile

// NewFactory returns a Factory producing projectiles that match spec.
//
// Postcondition: every call returns a distinct Projectile with a new ID.
func NewFactory(spec Spec) Factory {
	radius := spec.Radius
	if radius <= 0 {
		radius = DefaultRadius
	}
	height := spec.Height
	return func() *Projectile {
		return &Projectile{
			ID:       uuid.NewString(),
			Position: space.Vec{Y: height},
			Radius:   radius,
		}
	}
}

// Advance moves p toward its destination by Speed*dt.
//
// Postcondition: p.Position equals the destination once it has been reached;
// projectiles without a destination or speed are not moved.
func (p *Projectile) Advance(dt time.Duration) {
	if p.Destination == nil || p.Speed <= 0 || dt <= 0 {
		return
	}
	p.Position = space.MoveToward(p.Position, *p.Destination, p.Speed*dt.Seconds())
}

// Arrived reports whether p has reached its destination.
func (p *Projectile) Arrived() bool {
	return p.Destination != nil && p.Position == *p.Destination
}

// Expired reports whether p has outlived its Lifetime at time now. A zero
// Lifetime never expires.
func (p *Projectile) Expired(now time.Duration) bool {
	return p.Lifetime > 0 && now-p.SpawnedAt >= p.Lifetime
}
