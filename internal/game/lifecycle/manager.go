// Package lifecycle is the session directory of live food: registration,
// nearest-food queries and two-phase deferred removal.
package lifecycle

import (
	"errors"
	"math"
	"sync"
	"time"

	"github.com/cory-johannsen/petheaven/internal/game/food"
	"github.com/cory-johannsen/petheaven/internal/game/space"
)

// ErrFoodNotFound is returned when an operation names an unregistered food.
var ErrFoodNotFound = errors.New("food not found")

// PlayerLocator reports the player's current position.
type PlayerLocator interface {
	PlayerPosition() space.Vec
}

// Manager tracks every live food by ID in registration order.
// All methods are safe for concurrent use.
//
// Invariant: removal is two-phase. QueueRemoval only marks an id; the active
// set changes on Update, once per frame.
type Manager struct {
	mu     sync.RWMutex
	foods  map[string]*food.Food
	order  []string
	player PlayerLocator

	pendingMu sync.Mutex
	pending   []string

	onRemove func(*food.Food)
}

// NewManager creates an empty Manager measuring distances from player.
//
// Precondition: player must be non-nil.
func NewManager(player PlayerLocator) *Manager {
	return &Manager{
		foods:  make(map[string]*food.Food),
		player: player,
	}
}

// OnRemove sets a callback invoked for every food removed by Update.
func (m *Manager) OnRemove(fn func(*food.Food)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onRemove = fn
}

// RegisterFood adds f to the active set. Registering an id twice is a no-op.
//
// Precondition: f must be non-nil.
func (m *Manager) RegisterFood(f *food.Food) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.foods[f.ID]; exists {
		return
	}
	m.foods[f.ID] = f
	m.order = append(m.order, f.ID)
}

// UnregisterFood removes the food with the given id immediately.
//
// Postcondition: Returns ErrFoodNotFound if id is not registered.
func (m *Manager) UnregisterFood(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.foods[id]; !ok {
		return ErrFoodNotFound
	}
	m.removeLocked(id)
	return nil
}

func (m *Manager) removeLocked(id string) *food.Food {
	f, ok := m.foods[id]
	if !ok {
		return nil
	}
	delete(m.foods, id)
	for i, oid := range m.order {
		if oid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return f
}

// Food returns the live food with the given id.
//
// Postcondition: Returns (f, true) if registered, or (nil, false) otherwise.
func (m *Manager) Food(id string) (*food.Food, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, ok := m.foods[id]
	return f, ok
}

// Foods returns the live foods in registration order.
func (m *Manager) Foods() []*food.Food {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*food.Food, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.foods[id])
	}
	return out
}

// Count returns the number of registered foods.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.order)
}

// ClosestFood returns the registered food nearest the player on the X/Z
// plane and its distance. Ties go to the earliest registered food.
//
// Postcondition: Returns (nil, +Inf) when no food is registered.
func (m *Manager) ClosestFood() (*food.Food, float64) {
	origin := m.player.PlayerPosition()

	m.mu.RLock()
	defer m.mu.RUnlock()
	var closest *food.Food
	best := math.Inf(1)
	for _, id := range m.order {
		f := m.foods[id]
		if d := space.PlanarDistance(f.Position, origin); d < best {
			closest, best = f, d
		}
	}
	return closest, best
}

// ClosestTarget adapts ClosestFood for abilities.
func (m *Manager) ClosestTarget() (space.Vec, float64, bool) {
	f, d := m.ClosestFood()
	if f == nil {
		return space.Vec{}, d, false
	}
	return f.Position, d, true
}

// QueueRemoval marks id for removal on the next Update. Safe to call from any
// goroutine, including while another goroutine iterates the active set.
func (m *Manager) QueueRemoval(id string) {
	m.pendingMu.Lock()
	defer m.pendingMu.Unlock()
	m.pending = append(m.pending, id)
}

// PendingRemovals returns the number of queued ids.
func (m *Manager) PendingRemovals() int {
	m.pendingMu.Lock()
	defer m.pendingMu.Unlock()
	return len(m.pending)
}

// Update drains the removal queue.
//
// Postcondition: every queued id is no longer registered; Returns the foods
// actually removed, in queue order. Ids queued twice or already gone are skipped.
func (m *Manager) Update() []*food.Food {
	m.pendingMu.Lock()
	ids := m.pending
	m.pending = nil
	m.pendingMu.Unlock()

	if len(ids) == 0 {
		return nil
	}

	m.mu.Lock()
	var removed []*food.Food
	for _, id := range ids {
		if f := m.removeLocked(id); f != nil {
			removed = append(removed, f)
		}
	}
	cb := m.onRemove
	m.mu.Unlock()

	if cb != nil {
		for _, f := range removed {
			cb(f)
		}
	}
	return removed
}

// Advance drifts every food toward the player for dt.
func (m *Manager) Advance(dt time.Duration) {
	target := m.player.PlayerPosition()
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range m.order {
		m.foods[id].Drift(target, dt)
	}
}

// Reset clears the active set and the removal queue, for stage transitions.
func (m *Manager) Reset() {
	m.mu.Lock()
	m.foods = make(map[string]*food.Food)
	m.order = nil
	m.mu.Unlock()

	m.pendingMu.Lock()
	m.pending = nil
	m.pendingMu.Unlock()
}
