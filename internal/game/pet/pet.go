// Package pet models the player's companions. Each pet owns exactly one
// ability runtime and grows stronger as food is destroyed.
package pet

import (
	"fmt"

	"github.com/cory-johannsen/petheaven/internal/game/ability"
)

// Pet is a live companion.
//
// Invariant: Level >= 1; BaseAttack == float64(Level); Speed == float64(Level)/10;
// Ability is owned exclusively by this pet.
type Pet struct {
	ID         string
	Name       string
	Level      int
	Exp        float64
	BaseAttack float64
	Speed      float64
	Ability    ability.Ability
}

// New creates a level 1 pet wielding a.
//
// Precondition: a must be a fresh, inactive ability not shared with any other pet.
// Postcondition: the ability's damage equals the pet's base attack.
func New(id, name string, a ability.Ability) (*Pet, error) {
	if id == "" {
		return nil, fmt.Errorf("pet.New: id must not be empty")
	}
	if a == nil {
		return nil, fmt.Errorf("pet.New(%q): ability must not be nil", id)
	}
	p := &Pet{ID: id, Name: name, Ability: a}
	p.setLevel(1)
	return p, nil
}

// LevelUpExp returns the experience required to leave the current level.
//
// Postcondition: Returns Level².
func (p *Pet) LevelUpExp() float64 {
	return float64(p.Level * p.Level)
}

// GainExp adds amount experience and levels the pet up when the threshold
// for its current level is reached.
//
// Postcondition: on level-up Exp is 0, Level has increased by one, stats are
// recomputed and the ability's damage equals the new base attack.
func (p *Pet) GainExp(amount float64) bool {
	p.Exp += amount
	if p.Exp < p.LevelUpExp() {
		return false
	}
	p.Exp = 0
	p.setLevel(p.Level + 1)
	return true
}

// AttackDamage returns the contact damage the pet's body deals.
func (p *Pet) AttackDamage() int {
	return int(p.BaseAttack)
}

func (p *Pet) setLevel(level int) {
	p.Level = level
	p.BaseAttack = float64(level)
	p.Speed = float64(level) / 10
	p.Ability.SetDamage(int(p.BaseAttack))
}
