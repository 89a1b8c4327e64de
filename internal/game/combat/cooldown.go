package combat

import (
	"sync"
	"time"
)

// DefaultCooldown is the minimum time between two hits on the same food.
const DefaultCooldown = 100 * time.Millisecond

// CooldownRegistry gates how often each food can take damage.
// It is safe for concurrent use.
//
// Invariant: for any food, two allowed hits are at least window apart.
type CooldownRegistry struct {
	mu     sync.Mutex
	window time.Duration
	last   map[string]time.Duration
}

// NewCooldownRegistry creates a registry with the given window.
//
// Precondition: window >= 0.
func NewCooldownRegistry(window time.Duration) *CooldownRegistry {
	return &CooldownRegistry{window: window, last: make(map[string]time.Duration)}
}

// Window returns the cooldown window.
func (c *CooldownRegistry) Window() time.Duration { return c.window }

// Allow reports whether id may take a hit at now and, if so, restarts its
// cooldown at now. A rejected hit leaves the cooldown untouched.
func (c *CooldownRegistry) Allow(id string, now time.Duration) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if last, ok := c.last[id]; ok && now-last < c.window {
		return false
	}
	c.last[id] = now
	return true
}

// Forget drops the cooldown entry for id.
func (c *CooldownRegistry) Forget(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.last, id)
}

// Len returns the number of tracked foods.
func (c *CooldownRegistry) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.last)
}

// Reset drops every entry.
func (c *CooldownRegistry) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.last = make(map[string]time.Duration)
}
