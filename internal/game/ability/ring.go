package ability

import (
	"math"
	"time"

	"github.com/cory-johannsen/petheaven/internal/game/projectile"
	"github.com/cory-johannsen/petheaven/internal/game/space"
)

// RingConfig parameterises an OrbitingRing.
type RingConfig struct {
	// Count is the number of projectiles in the ring. Zero yields an idle ring.
	Count  int
	Radius float64
	// RotationSpeed is the angle in radians the ring turns every Period.
	RotationSpeed float64
	Period        time.Duration
}

// RingInterval returns the angular spacing between count evenly spaced
// projectiles, or zero when count <= 0.
func RingInterval(count int) float64 {
	if count <= 0 {
		return 0
	}
	return 2 * math.Pi / float64(count)
}

// OrbitingRing keeps Count projectiles circling the player.
type OrbitingRing struct {
	*base
	cfg   RingConfig
	angle float64
}

// NewOrbitingRing constructs an inactive ring.
//
// Precondition: cfg.Count >= 0, cfg.Radius > 0, cfg.Period > 0.
// Postcondition: Returns a *ConfigError on the first invalid parameter.
func NewOrbitingRing(id string, damage int, cfg RingConfig, spec projectile.Spec) (*OrbitingRing, error) {
	switch {
	case cfg.Count < 0:
		return nil, &ConfigError{Ability: id, Field: "count", Reason: "must be >= 0"}
	case cfg.Radius <= 0:
		return nil, &ConfigError{Ability: id, Field: "radius", Reason: "must be > 0"}
	case cfg.Period <= 0:
		return nil, &ConfigError{Ability: id, Field: "duration", Reason: "must be > 0"}
	}
	return &OrbitingRing{base: newBase(id, KindOrbitingRing, damage, spec), cfg: cfg}, nil
}

// Config returns the ring's parameters.
func (r *OrbitingRing) Config() RingConfig { return r.cfg }

// Activate spawns Count projectiles evenly spaced around the player and
// starts rotating them every frame.
func (r *OrbitingRing) Activate(env Env) error {
	if err := r.begin(env); err != nil {
		return err
	}
	interval := RingInterval(r.cfg.Count)
	center := env.Arena.PlayerPosition()

	r.mu.Lock()
	r.angle = 0
	r.mu.Unlock()

	for i := 0; r.count() < r.cfg.Count; i++ {
		p, err := r.SpawnProjectile()
		if err != nil {
			r.Teardown()
			return err
		}
		p.Offset = space.RotateY(space.Vec{Z: r.cfg.Radius}, float64(i)*interval)
		p.Position = ringPosition(center, p.Offset, p.Position.Y)
	}

	frame := env.Clock.FrameInterval()
	r.track(env.Clock.Every(r.id+"/rotate", frame, func() { r.rotate(frame) }))
	env.Logger.Debug("orbiting ring activated",
		zapID(r.id),
		zapCount(r.cfg.Count),
	)
	return nil
}

// Angle returns the ring's current rotation in radians.
func (r *OrbitingRing) Angle() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.angle
}

func (r *OrbitingRing) rotate(dt time.Duration) {
	env := r.environment()
	center := env.Arena.PlayerPosition()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.angle = math.Mod(r.angle+r.cfg.RotationSpeed*dt.Seconds()/r.cfg.Period.Seconds(), 2*math.Pi)
	for _, id := range r.order {
		p := r.active[id]
		p.Position = ringPosition(center, space.RotateY(p.Offset, r.angle), p.Position.Y)
	}
}

// Copy returns an inactive ring with the same configuration.
func (r *OrbitingRing) Copy() Ability {
	return &OrbitingRing{base: r.clone(), cfg: r.cfg}
}

func ringPosition(center, offset space.Vec, height float64) space.Vec {
	return space.Vec{X: center.X + offset.X, Y: height, Z: center.Z + offset.Z}
}
