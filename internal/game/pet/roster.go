package pet

import "sync"

// LevelUp records one pet reaching a new level.
type LevelUp struct {
	PetID  string
	Level  int
	Damage int
}

// Roster is the ordered set of active pets.
// All methods are safe for concurrent use.
type Roster struct {
	mu   sync.RWMutex
	pets []*Pet
}

// NewRoster returns a roster holding pets in the given order.
func NewRoster(pets ...*Pet) *Roster {
	return &Roster{pets: append([]*Pet(nil), pets...)}
}

// Add appends p to the roster.
func (r *Roster) Add(p *Pet) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pets = append(r.pets, p)
}

// Pets returns the active pets in roster order.
func (r *Roster) Pets() []*Pet {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*Pet(nil), r.pets...)
}

// Get returns the pet with the given id.
func (r *Roster) Get(id string) (*Pet, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.pets {
		if p.ID == id {
			return p, true
		}
	}
	return nil, false
}

// Len returns the number of active pets.
func (r *Roster) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.pets)
}

// AwardKill grants one experience point to every active pet.
//
// Postcondition: Returns one LevelUp per pet that levelled, in roster order.
func (r *Roster) AwardKill() []LevelUp {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ups []LevelUp
	for _, p := range r.pets {
		if p.GainExp(1) {
			ups = append(ups, LevelUp{PetID: p.ID, Level: p.Level, Damage: p.AttackDamage()})
		}
	}
	return ups
}

// MoveSpeed returns the player's movement speed: 1 plus a tenth of the
// combined speed of every active pet.
func (r *Roster) MoveSpeed() float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	speed := 1.0
	for _, p := range r.pets {
		speed += p.Speed / 10
	}
	return speed
}
