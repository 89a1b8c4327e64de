// Package world is the entity arena of a play session: live projectiles keyed
// by stable ids, pet bodies, and the player avatar.
package world

import (
	"sync"
	"time"

	"github.com/cory-johannsen/petheaven/internal/game/projectile"
	"github.com/cory-johannsen/petheaven/internal/game/space"
)

// PlayerID is the entity id reported for the player avatar.
const PlayerID = "player"

// Manager provides thread-safe access to the arena.
//
// Invariant: projectile iteration order is insertion order.
type Manager struct {
	mu          sync.RWMutex
	projectiles map[string]*projectile.Projectile
	order       []string
	bodies      map[string]space.Vec
	bodyOrder   []string
	player      space.Vec
	heading     space.Vec
}

// NewManager creates an empty arena with the player at the origin.
func NewManager() *Manager {
	return &Manager{
		projectiles: make(map[string]*projectile.Projectile),
		bodies:      make(map[string]space.Vec),
	}
}

// AddProjectile inserts p into the arena.
//
// Precondition: p must be non-nil with a non-empty ID.
// Postcondition: Returns false if a projectile with the same ID is already present.
func (m *Manager) AddProjectile(p *projectile.Projectile) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.projectiles[p.ID]; exists {
		return false
	}
	m.projectiles[p.ID] = p
	m.order = append(m.order, p.ID)
	return true
}

// RemoveProjectile deletes the projectile with the given id.
//
// Postcondition: Returns true if a projectile was removed; removing an absent
// id is a no-op.
func (m *Manager) RemoveProjectile(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.projectiles[id]; !ok {
		return false
	}
	delete(m.projectiles, id)
	for i, oid := range m.order {
		if oid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return true
}

// Projectile returns the projectile with the given id.
//
// Postcondition: Returns (p, true) if present, or (nil, false) otherwise.
func (m *Manager) Projectile(id string) (*projectile.Projectile, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.projectiles[id]
	return p, ok
}

// Projectiles returns the live projectiles in insertion order.
//
// Postcondition: the returned slice is a fresh copy; the projectiles are shared.
func (m *Manager) Projectiles() []*projectile.Projectile {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*projectile.Projectile, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.projectiles[id])
	}
	return out
}

// ProjectileCount returns the number of live projectiles.
func (m *Manager) ProjectileCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.order)
}

// AdvanceProjectiles moves every travelling projectile by dt.
func (m *Manager) AdvanceProjectiles(dt time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range m.order {
		m.projectiles[id].Advance(dt)
	}
}

// PlayerPosition returns the player's current position.
func (m *Manager) PlayerPosition() space.Vec {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.player
}

// SetPlayerPosition teleports the player to pos.
func (m *Manager) SetPlayerPosition(pos space.Vec) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.player = pos
}

// SetPlayerHeading sets the direction the player walks in. Only the planar
// direction of dir is used; the zero vector stops the player.
func (m *Manager) SetPlayerHeading(dir space.Vec) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.heading = space.PlanarUnit(dir)
}

// Heading returns the player's current unit heading.
func (m *Manager) Heading() space.Vec {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.heading
}

// StepPlayer moves the player along its heading at speed units per second.
//
// Postcondition: Returns the new player position.
func (m *Manager) StepPlayer(dt time.Duration, speed float64) space.Vec {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.player = space.Add(m.player, space.Scale(speed*dt.Seconds(), m.heading))
	return m.player
}

// SetBody records the position of a pet body.
func (m *Manager) SetBody(id string, pos space.Vec) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.bodies[id]; !ok {
		m.bodyOrder = append(m.bodyOrder, id)
	}
	m.bodies[id] = pos
}

// Body returns the position of the pet body with the given id.
func (m *Manager) Body(id string) (space.Vec, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	pos, ok := m.bodies[id]
	return pos, ok
}

// BodyIDs returns pet body ids in registration order.
func (m *Manager) BodyIDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.bodyOrder...)
}

// SpatialPosition resolves the position of any arena entity: the player, a
// pet body or a projectile.
//
// Postcondition: Returns (pos, true) if the entity exists, or (zero, false) otherwise.
func (m *Manager) SpatialPosition(id string) (space.Vec, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if id == PlayerID {
		return m.player, true
	}
	if pos, ok := m.bodies[id]; ok {
		return pos, true
	}
	if p, ok := m.projectiles[id]; ok {
		return p.Position, true
	}
	return space.Vec{}, false
}

// ClearProjectiles removes every projectile.
func (m *Manager) ClearProjectiles() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.projectiles = make(map[string]*projectile.Projectile)
	m.order = nil
}

// Clear removes every entity and returns the player to the origin.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.projectiles = make(map[string]*projectile.Projectile)
	m.order = nil
	m.bodies = make(map[string]space.Vec)
	m.bodyOrder = nil
	m.player = space.Vec{}
	m.heading = space.Vec{}
}
