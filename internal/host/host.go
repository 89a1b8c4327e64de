// Package host declares the collaborators the combat core calls into: audio,
// the in-game UI, and the camera projection. The host engine implements them;
// this package also provides a no-op and a recording implementation.
package host

import (
	"sync"

	"github.com/cory-johannsen/petheaven/internal/game/space"
)

// Sound event names.
const (
	EventEat     = "eat"
	EventLevelUp = "level_up"
	EventStage   = "stage_clear"
)

// ScreenPoint is a position in screen space.
type ScreenPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Audio plays named sound effects.
type Audio interface {
	Play(event string)
}

// UI receives gameplay notifications for display.
type UI interface {
	AddReward(value int)
	ShowDamageNumber(at ScreenPoint, amount int)
	UpdateHungerMeter(score, max int)
	AbilityDamageChanged(petID string, damage int)
}

// Projector maps world positions to screen positions.
type Projector interface {
	Project(p space.Vec) ScreenPoint
}

// TopDown projects the X/Z plane straight onto the screen.
type TopDown struct{}

// Project returns (X, Z).
func (TopDown) Project(p space.Vec) ScreenPoint {
	return ScreenPoint{X: p.X, Y: p.Z}
}

// Nop discards every call.
type Nop struct{}

func (Nop) Play(string)                       {}
func (Nop) AddReward(int)                     {}
func (Nop) ShowDamageNumber(ScreenPoint, int) {}
func (Nop) UpdateHungerMeter(int, int)        {}
func (Nop) AbilityDamageChanged(string, int)  {}

// DamageNumber is one recorded ShowDamageNumber call.
type DamageNumber struct {
	At     ScreenPoint
	Amount int
}

// Recorder records every call for inspection.
// All methods are safe for concurrent use.
type Recorder struct {
	mu            sync.Mutex
	Sounds        []string
	Rewards       []int
	DamageNumbers []DamageNumber
	HungerUpdates [][2]int
	DamageChanges map[string]int
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{DamageChanges: make(map[string]int)}
}

func (r *Recorder) Play(event string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Sounds = append(r.Sounds, event)
}

func (r *Recorder) AddReward(value int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Rewards = append(r.Rewards, value)
}

func (r *Recorder) ShowDamageNumber(at ScreenPoint, amount int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.DamageNumbers = append(r.DamageNumbers, DamageNumber{At: at, Amount: amount})
}

func (r *Recorder) UpdateHungerMeter(score, max int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.HungerUpdates = append(r.HungerUpdates, [2]int{score, max})
}

func (r *Recorder) AbilityDamageChanged(petID string, damage int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.DamageChanges[petID] = damage
}

// Count returns how many times event was played.
func (r *Recorder) Count(event string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, s := range r.Sounds {
		if s == event {
			n++
		}
	}
	return n
}

// Fanout forwards UI and audio calls to several hosts.
type Fanout []interface {
	Audio
	UI
}

func (f Fanout) Play(event string) {
	for _, h := range f {
		h.Play(event)
	}
}

func (f Fanout) AddReward(value int) {
	for _, h := range f {
		h.AddReward(value)
	}
}

func (f Fanout) ShowDamageNumber(at ScreenPoint, amount int) {
	for _, h := range f {
		h.ShowDamageNumber(at, amount)
	}
}

func (f Fanout) UpdateHungerMeter(score, max int) {
	for _, h := range f {
		h.UpdateHungerMeter(score, max)
	}
}

func (f Fanout) AbilityDamageChanged(petID string, damage int) {
	for _, h := range f {
		h.AbilityDamageChanged(petID, damage)
	}
}
