// Package ability implements the autonomous attack behaviors pets wield. Each
// ability spawns projectiles into the arena and is responsible for despawning
// them again.
//
// Three variants exist: an orbiting ring around the player, a shooter that
// fires at the closest food, and a spawner that drops projectiles at random
// points near the player. All three share one contract and one runtime (base).
package ability

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/petheaven/internal/game/dice"
	"github.com/cory-johannsen/petheaven/internal/game/projectile"
	"github.com/cory-johannsen/petheaven/internal/game/scheduler"
	"github.com/cory-johannsen/petheaven/internal/game/space"
)

// Kind names an ability variant.
type Kind string

const (
	KindOrbitingRing   Kind = "orbiting_ring"
	KindClosestShooter Kind = "closest_shooter"
	KindRangeSpawner   Kind = "range_spawner"
)

var (
	// ErrAlreadyActive is returned by Activate on an ability that is already active.
	ErrAlreadyActive = errors.New("ability already active")
	// ErrNoFactory is returned when an ability has no projectile factory.
	ErrNoFactory = errors.New("ability has no projectile factory")
	// ErrNoEnv is returned by SpawnProjectile before the ability has been activated.
	ErrNoEnv = errors.New("ability has no environment; activate it first")
)

// ConfigError reports an invalid ability parameter.
type ConfigError struct {
	Ability string
	Field   string
	Reason  string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("ability %q: %s: %s", e.Ability, e.Field, e.Reason)
}

// Arena is the part of the world an ability spawns into.
type Arena interface {
	AddProjectile(p *projectile.Projectile) bool
	RemoveProjectile(id string) bool
	PlayerPosition() space.Vec
}

// Targets answers nearest-enemy queries.
type Targets interface {
	// ClosestTarget returns the position of and planar distance to the food
	// closest to the player. ok is false when no food is alive.
	ClosestTarget() (pos space.Vec, distance float64, ok bool)
}

// Env carries the collaborators an active ability works with.
type Env struct {
	Arena   Arena
	Targets Targets
	Clock   scheduler.Clock
	Source  dice.Source
	Logger  *zap.Logger
}

func (e Env) validate() error {
	switch {
	case e.Arena == nil:
		return errors.New("ability env: arena must not be nil")
	case e.Clock == nil:
		return errors.New("ability env: clock must not be nil")
	case e.Logger == nil:
		return errors.New("ability env: logger must not be nil")
	}
	return nil
}

// Ability is the contract shared by every variant.
type Ability interface {
	ID() string
	Kind() Kind
	// Activate starts the variant-specific behavior.
	//
	// Postcondition: returns ErrAlreadyActive with no state change when the
	// ability is already active.
	Activate(env Env) error
	IsActive() bool
	// SpawnProjectile builds a projectile with the ability's current damage
	// and registers it with both the ability and the arena.
	SpawnProjectile() (*projectile.Projectile, error)
	// DespawnProjectile removes p from the ability and the arena. Idempotent.
	DespawnProjectile(p *projectile.Projectile)
	// SetDamage changes the damage of future and live projectiles.
	SetDamage(v int)
	Damage() int
	ActiveProjectiles() []*projectile.Projectile
	// Copy returns an inactive ability with identical configuration, a fresh
	// factory and no projectiles.
	Copy() Ability
	// Teardown cancels timers and despawns every projectile. The ability may
	// be activated again afterwards.
	Teardown()
}
