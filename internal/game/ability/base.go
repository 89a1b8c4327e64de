package ability

import (
	"sync"

	"go.uber.org/zap"

	"github.com/cory-johannsen/petheaven/internal/game/projectile"
	"github.com/cory-johannsen/petheaven/internal/game/scheduler"
)

// base is the runtime state every variant embeds.
//
// Invariant: every projectile in active is also present in the arena until
// it is despawned or the arena is cleared.
type base struct {
	mu      sync.Mutex
	id      string
	kind    Kind
	damage  int
	spec    projectile.Spec
	factory projectile.Factory
	isOn    bool
	env     Env
	active  map[string]*projectile.Projectile
	order   []string
	timers  []*scheduler.Handle
}

func newBase(id string, kind Kind, damage int, spec projectile.Spec) *base {
	return &base{
		id:      id,
		kind:    kind,
		damage:  damage,
		spec:    spec,
		factory: projectile.NewFactory(spec),
		active:  make(map[string]*projectile.Projectile),
	}
}

// clone returns a fresh inactive base with the same configuration.
func (b *base) clone() *base {
	b.mu.Lock()
	defer b.mu.Unlock()
	return newBase(b.id, b.kind, b.damage, b.spec)
}

func (b *base) ID() string { return b.id }

func (b *base) Kind() Kind { return b.kind }

func (b *base) IsActive() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.isOn
}

// begin marks the ability active with env.
//
// Postcondition: returns ErrAlreadyActive without side effects if already active.
func (b *base) begin(env Env) error {
	if err := env.validate(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.isOn {
		return ErrAlreadyActive
	}
	if b.factory == nil {
		return ErrNoFactory
	}
	b.isOn = true
	b.env = env
	return nil
}

func (b *base) track(h *scheduler.Handle) {
	b.mu.Lock()
	b.timers = append(b.timers, h)
	b.mu.Unlock()
}

func (b *base) SpawnProjectile() (*projectile.Projectile, error) {
	b.mu.Lock()
	if b.factory == nil {
		b.mu.Unlock()
		return nil, ErrNoFactory
	}
	if b.env.Arena == nil {
		b.mu.Unlock()
		return nil, ErrNoEnv
	}
	p := b.factory()
	p.AbilityID = b.id
	p.Damage = b.damage
	p.SpawnedAt = b.env.Clock.Now()
	b.active[p.ID] = p
	b.order = append(b.order, p.ID)
	arena := b.env.Arena
	b.mu.Unlock()

	arena.AddProjectile(p)
	return p, nil
}

func (b *base) DespawnProjectile(p *projectile.Projectile) {
	if p == nil {
		return
	}
	b.mu.Lock()
	if _, ok := b.active[p.ID]; ok {
		delete(b.active, p.ID)
		for i, id := range b.order {
			if id == p.ID {
				b.order = append(b.order[:i], b.order[i+1:]...)
				break
			}
		}
	}
	arena := b.env.Arena
	b.mu.Unlock()

	if arena != nil {
		arena.RemoveProjectile(p.ID)
	}
}

// despawnLater schedules p to be despawned after its lifetime.
func (b *base) despawnLater(p *projectile.Projectile) {
	if p.Lifetime <= 0 {
		return
	}
	b.env.Clock.After(b.id+"/despawn", p.Lifetime, func() { b.DespawnProjectile(p) })
}

func (b *base) SetDamage(v int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.damage = v
	for _, p := range b.active {
		p.Damage = v
	}
}

func (b *base) Damage() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.damage
}

func (b *base) ActiveProjectiles() []*projectile.Projectile {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]*projectile.Projectile, 0, len(b.order))
	for _, id := range b.order {
		out = append(out, b.active[id])
	}
	return out
}

func (b *base) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.order)
}

func (b *base) logger() *zap.Logger {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.env.Logger == nil {
		return zap.NewNop()
	}
	return b.env.Logger
}

func (b *base) Teardown() {
	b.mu.Lock()
	timers := b.timers
	b.timers = nil
	b.isOn = false
	b.mu.Unlock()

	for _, h := range timers {
		h.Cancel()
	}
	for _, p := range b.ActiveProjectiles() {
		b.DespawnProjectile(p)
	}
}

func (b *base) environment() Env {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.env
}
