// Package food models the enemies the pets destroy and the spawner that
// keeps them coming.
package food

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/cory-johannsen/petheaven/internal/game/space"
)

// Food is a live enemy.
//
// Invariant: ID is unique; the food is alive while Health > 0.
type Food struct {
	ID          string
	TemplateID  string
	Name        string
	Health      int
	MaxHealth   int
	HungerValue int
	Position    space.Vec
	// Speed is the drift speed toward the player in units per second.
	Speed  float64
	Radius float64
}

// New creates a food from tmpl at pos with its health scaled by multiplier.
//
// Precondition: tmpl must be valid; multiplier > 0.
// Postcondition: Health == MaxHealth == max(1, ceil(tmpl.Health*multiplier)).
func New(tmpl *Template, pos space.Vec, multiplier float64) *Food {
	hp := int(math.Ceil(float64(tmpl.Health) * multiplier))
	if hp < 1 {
		hp = 1
	}
	return &Food{
		ID:          uuid.NewString(),
		TemplateID:  tmpl.ID,
		Name:        tmpl.Name,
		Health:      hp,
		MaxHealth:   hp,
		HungerValue: tmpl.HungerValue,
		Position:    pos,
		Speed:       tmpl.Speed,
		Radius:      tmpl.radius(),
	}
}

// Alive reports whether the food still has health.
func (f *Food) Alive() bool {
	return f.Health > 0
}

// ApplyDamage subtracts amount from the food's health. Health may go negative.
//
// Postcondition: Returns the remaining health.
func (f *Food) ApplyDamage(amount int) int {
	f.Health -= amount
	return f.Health
}

// Drift moves the food toward target at its speed for dt.
func (f *Food) Drift(target space.Vec, dt time.Duration) {
	if f.Speed <= 0 || dt <= 0 {
		return
	}
	goal := space.Vec{X: target.X, Y: f.Position.Y, Z: target.Z}
	f.Position = space.MoveToward(f.Position, goal, f.Speed*dt.Seconds())
}
