// Package physics is the contact source of the simulation. It reports the
// moment a player-side body (a projectile or a pet) starts overlapping a food.
package physics

import (
	"sync"

	"github.com/cory-johannsen/petheaven/internal/game/space"
)

// Category is a collision category bitmask.
type Category uint32

const (
	CategoryPlayer Category = 1 << 0
	CategoryFood   Category = 1 << 1
)

// Has reports whether c includes mask.
func (c Category) Has(mask Category) bool { return c&mask != 0 }

// Body is a collision shape: a vertical cylinder of Radius around Position.
type Body struct {
	ID       string
	Category Category
	Position space.Vec
	Radius   float64
}

// Contact is a begin-contact event between two bodies in no particular order.
type Contact struct {
	A Body
	B Body
}

// Sink receives begin-contact events.
type Sink interface {
	BeginContact(c Contact)
}

type pair struct{ a, b string }

// Detector finds new overlaps between attacker and food bodies.
// It is safe for concurrent use.
//
// Invariant: a pair is reported once when it starts overlapping and again
// only after it has separated.
type Detector struct {
	mu       sync.Mutex
	touching map[pair]struct{}
}

// NewDetector returns a Detector with no known overlaps.
func NewDetector() *Detector {
	return &Detector{touching: make(map[pair]struct{})}
}

// Overlaps reports whether a and b intersect on the X/Z plane.
func Overlaps(a, b Body) bool {
	return space.PlanarDistance(a.Position, b.Position) <= a.Radius+b.Radius
}

// Step tests every attacker against every food and emits BeginContact to sink
// for each pair that overlaps now but did not at the previous Step.
//
// Postcondition: Returns the number of contacts emitted.
func (d *Detector) Step(attackers, foods []Body, sink Sink) int {
	d.mu.Lock()
	next := make(map[pair]struct{}, len(d.touching))
	var begun []Contact
	for _, a := range attackers {
		for _, f := range foods {
			if !Overlaps(a, f) {
				continue
			}
			k := pair{a.ID, f.ID}
			next[k] = struct{}{}
			if _, already := d.touching[k]; !already {
				begun = append(begun, Contact{A: a, B: f})
			}
		}
	}
	d.touching = next
	d.mu.Unlock()

	for _, c := range begun {
		sink.BeginContact(c)
	}
	return len(begun)
}

// Reset forgets every known overlap.
func (d *Detector) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.touching = make(map[pair]struct{})
}
