// Package combat resolves contacts between the player's side and food into
// damage, kills, rewards and pet experience.
package combat

import (
	"sync"

	"github.com/cory-johannsen/petheaven/internal/game/physics"
)

// ContactSlot holds the most recent begin-contact event. It keeps only the
// latest event: when several contacts begin between two frames, all but the
// last are overwritten. Dropped counts the overwritten events.
// It is safe for concurrent use.
type ContactSlot struct {
	mu      sync.Mutex
	latest  physics.Contact
	has     bool
	dropped uint64
}

// BeginContact records c, replacing any unconsumed contact.
func (s *ContactSlot) BeginContact(c physics.Contact) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.has {
		s.dropped++
	}
	s.latest = c
	s.has = true
}

// Take consumes the recorded contact.
//
// Postcondition: ok is false when no contact has begun since the last Take.
func (s *ContactSlot) Take() (c physics.Contact, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.has {
		return physics.Contact{}, false
	}
	c = s.latest
	s.latest = physics.Contact{}
	s.has = false
	return c, true
}

// Dropped returns the number of contacts overwritten before being consumed.
func (s *ContactSlot) Dropped() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

// Clear discards any unconsumed contact.
func (s *ContactSlot) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest = physics.Contact{}
	s.has = false
}
