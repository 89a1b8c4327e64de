// Package session owns one play session: the arena, the live food, the active
// pets and the frame loop that ties them together.
//
// Every mutation of game state happens on the scheduler goroutine. Host input
// arrives through MovePlayer, which posts onto that goroutine.
package session

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/petheaven/internal/game/ability"
	"github.com/cory-johannsen/petheaven/internal/game/combat"
	"github.com/cory-johannsen/petheaven/internal/game/dice"
	"github.com/cory-johannsen/petheaven/internal/game/food"
	"github.com/cory-johannsen/petheaven/internal/game/hunger"
	"github.com/cory-johannsen/petheaven/internal/game/lifecycle"
	"github.com/cory-johannsen/petheaven/internal/game/pet"
	"github.com/cory-johannsen/petheaven/internal/game/physics"
	"github.com/cory-johannsen/petheaven/internal/game/scheduler"
	"github.com/cory-johannsen/petheaven/internal/game/space"
	"github.com/cory-johannsen/petheaven/internal/game/world"
	"github.com/cory-johannsen/petheaven/internal/host"
)

// ErrStarted is returned by Start on a session that is already running.
var ErrStarted = errors.New("session already started")

// Config tunes the frame loop.
type Config struct {
	TickRate        int
	ContactCooldown time.Duration
	// PlayerSpeed is the base walking speed, scaled by the roster's move speed.
	PlayerSpeed float64
	// PetSpacing is the distance of pet bodies from the player.
	PetSpacing float64
	PetRadius  float64
	// AutoAdvance moves to the next stage as soon as the meter is cleared.
	AutoAdvance bool
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	switch {
	case c.TickRate < 1:
		return errors.New("session config: tick_rate must be >= 1")
	case c.ContactCooldown < 0:
		return errors.New("session config: contact_cooldown must be >= 0")
	case c.PlayerSpeed < 0:
		return errors.New("session config: player_speed must be >= 0")
	case c.PetSpacing < 0 || c.PetRadius < 0:
		return errors.New("session config: pet spacing and radius must be >= 0")
	}
	return nil
}

// Deps are the collaborators of a Session. Host collaborators, Hooks and
// Kills are optional.
type Deps struct {
	Roster    *pet.Roster
	Spawner   *food.Spawner
	Meter     *hunger.Meter
	Source    dice.Source
	Audio     host.Audio
	UI        host.UI
	Projector host.Projector
	Hooks     combat.Hooks
	Kills     combat.KillSink
	Logger    *zap.Logger
}

// Session is the explicitly constructed context of one play session.
type Session struct {
	cfg    Config
	d      Deps
	logger *zap.Logger

	sched     *scheduler.Scheduler
	arena     *world.Manager
	foods     *lifecycle.Manager
	contacts  *combat.ContactSlot
	cooldowns *combat.CooldownRegistry
	detector  *physics.Detector
	resolver  *combat.Resolver

	mu      sync.Mutex
	ctx     context.Context
	started bool
	tasks   []*scheduler.Handle
	frames  uint64
}

// New wires a session. Nothing runs until Start.
//
// Precondition: d.Roster, d.Spawner, d.Meter and d.Logger must be non-nil.
// Postcondition: Returns an error if cfg is invalid or a collaborator is missing.
func New(cfg Config, d Deps) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch {
	case d.Roster == nil:
		return nil, errors.New("session.New: roster must not be nil")
	case d.Spawner == nil:
		return nil, errors.New("session.New: spawner must not be nil")
	case d.Meter == nil:
		return nil, errors.New("session.New: meter must not be nil")
	case d.Logger == nil:
		return nil, errors.New("session.New: logger must not be nil")
	}
	if d.Source == nil {
		d.Source = dice.NewCryptoSource()
	}
	if d.Audio == nil {
		d.Audio = host.Nop{}
	}
	if d.UI == nil {
		d.UI = host.Nop{}
	}

	s := &Session{
		cfg:       cfg,
		d:         d,
		logger:    d.Logger,
		sched:     scheduler.New(cfg.TickRate, d.Logger),
		arena:     world.NewManager(),
		contacts:  &combat.ContactSlot{},
		cooldowns: combat.NewCooldownRegistry(cfg.ContactCooldown),
		detector:  physics.NewDetector(),
		ctx:       context.Background(),
	}
	s.foods = lifecycle.NewManager(s.arena)
	s.foods.OnRemove(func(f *food.Food) {
		s.logger.Debug("food removed", zap.String("food", f.ID), zap.String("template", f.TemplateID))
	})

	r, err := combat.NewResolver(combat.Deps{
		Lifecycle: s.foods,
		Arena:     s.arena,
		Roster:    d.Roster,
		Contacts:  s.contacts,
		Cooldowns: s.cooldowns,
		Meter:     d.Meter,
		Audio:     d.Audio,
		UI:        d.UI,
		Projector: d.Projector,
		Hooks:     d.Hooks,
		Kills:     d.Kills,
		Logger:    d.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("session.New: %w", err)
	}
	s.resolver = r
	return s, nil
}

// Arena returns the session's entity arena.
func (s *Session) Arena() *world.Manager { return s.arena }

// Foods returns the session's food directory.
func (s *Session) Foods() *lifecycle.Manager { return s.foods }

// Scheduler returns the session's scheduler.
func (s *Session) Scheduler() *scheduler.Scheduler { return s.sched }

// Contacts returns the latest-contact slot fed by the physics pass.
func (s *Session) Contacts() *combat.ContactSlot { return s.contacts }

// Frames returns the number of frames run so far.
func (s *Session) Frames() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}

func (s *Session) env() ability.Env {
	return ability.Env{
		Arena:   s.arena,
		Targets: s.foods,
		Clock:   s.sched,
		Source:  s.d.Source,
		Logger:  s.logger,
	}
}

// Start restores the hunger meter, spawns the first wave, activates every
// pet's ability and registers the frame, physics and spawner tasks.
//
// Precondition: ctx is used for persistence calls for the session lifetime.
// Postcondition: Returns ErrStarted if already started. When an ability fails
// to activate, every ability is torn down, the first wave is removed and the
// session may be started again.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return ErrStarted
	}
	s.started = true
	s.ctx = ctx
	s.mu.Unlock()

	if err := s.d.Meter.Load(ctx); err != nil {
		s.logger.Warn("hunger meter restore failed, starting fresh", zap.Error(err))
	}
	s.placePets()
	s.d.Spawner.Populate(s.foods, s.arena.PlayerPosition(), s.d.Meter.FoodHealthMultiplier())
	if err := s.activateAbilities(); err != nil {
		for _, p := range s.d.Roster.Pets() {
			p.Ability.Teardown()
		}
		s.foods.Reset()
		s.arena.ClearProjectiles()
		s.mu.Lock()
		s.started = false
		s.mu.Unlock()
		return err
	}

	frame := s.sched.FrameInterval()
	s.mu.Lock()
	s.tasks = append(s.tasks,
		s.sched.Every("frame", frame, s.frame),
		s.sched.Every("physics", frame, s.physics),
		s.sched.Every("spawner", s.d.Spawner.Interval(), s.spawn),
	)
	s.mu.Unlock()

	s.d.UI.UpdateHungerMeter(s.d.Meter.Score(), s.d.Meter.Max())
	s.logger.Info("session started",
		zap.Int("pets", s.d.Roster.Len()),
		zap.Int("stage", s.d.Meter.Stage()),
		zap.Int("foods", s.foods.Count()),
	)
	return nil
}

func (s *Session) activateAbilities() error {
	env := s.env()
	for _, p := range s.d.Roster.Pets() {
		if err := p.Ability.Activate(env); err != nil {
			return fmt.Errorf("session: activating ability of pet %q: %w", p.ID, err)
		}
	}
	return nil
}

// frame is the main loop body.
func (s *Session) frame() {
	dt := s.sched.FrameInterval()
	s.arena.StepPlayer(dt, s.cfg.PlayerSpeed*s.d.Roster.MoveSpeed())
	s.placePets()
	s.arena.AdvanceProjectiles(dt)
	s.foods.Advance(dt)

	s.mu.Lock()
	ctx := s.ctx
	s.frames++
	s.mu.Unlock()

	res := s.resolver.Frame(ctx, s.sched.Now())
	if res.Kill != nil && s.cfg.AutoAdvance && s.d.Meter.Cleared() {
		if err := s.NextStage(ctx); err != nil {
			s.logger.Warn("stage advance failed", zap.Error(err))
		}
	}
}

// physics feeds new overlaps between attackers and food into the contact slot.
func (s *Session) physics() {
	var attackers []physics.Body
	for _, p := range s.arena.Projectiles() {
		attackers = append(attackers, physics.Body{
			ID:       p.ID,
			Category: physics.CategoryPlayer,
			Position: p.Position,
			Radius:   p.Radius,
		})
	}
	for _, id := range s.arena.BodyIDs() {
		pos, _ := s.arena.Body(id)
		attackers = append(attackers, physics.Body{
			ID:       id,
			Category: physics.CategoryPlayer,
			Position: pos,
			Radius:   s.cfg.PetRadius,
		})
	}
	foods := s.foods.Foods()
	targets := make([]physics.Body, 0, len(foods))
	for _, f := range foods {
		targets = append(targets, physics.Body{
			ID:       f.ID,
			Category: physics.CategoryFood,
			Position: f.Position,
			Radius:   f.Radius,
		})
	}
	s.detector.Step(attackers, targets, s.contacts)
}

func (s *Session) spawn() {
	s.d.Spawner.Wave(s.foods, s.arena.PlayerPosition(), s.d.Meter.FoodHealthMultiplier())
}

// placePets spreads pet bodies evenly on a circle of PetSpacing around the player.
func (s *Session) placePets() {
	pets := s.d.Roster.Pets()
	if len(pets) == 0 {
		return
	}
	center := s.arena.PlayerPosition()
	step := 2 * math.Pi / float64(len(pets))
	for i, p := range pets {
		offset := space.RotateY(space.Vec{Z: s.cfg.PetSpacing}, float64(i)*step)
		s.arena.SetBody(p.ID, space.Add(center, offset))
	}
}

// NextStage clears the stage: the meter advances, live food and projectiles
// are discarded, abilities restart and a fresh wave is spawned.
//
// Precondition: must run on the scheduler goroutine once started.
func (s *Session) NextStage(ctx context.Context) error {
	if err := s.d.Meter.NextStage(ctx); err != nil {
		return fmt.Errorf("session.NextStage: %w", err)
	}
	for _, p := range s.d.Roster.Pets() {
		p.Ability.Teardown()
	}
	s.foods.Reset()
	s.arena.ClearProjectiles()
	s.contacts.Clear()
	s.cooldowns.Reset()
	s.detector.Reset()

	s.d.Spawner.Populate(s.foods, s.arena.PlayerPosition(), s.d.Meter.FoodHealthMultiplier())
	if err := s.activateAbilities(); err != nil {
		return fmt.Errorf("session.NextStage: %w", err)
	}
	s.d.Audio.Play(host.EventStage)
	s.d.UI.UpdateHungerMeter(s.d.Meter.Score(), s.d.Meter.Max())
	s.logger.Info("stage cleared",
		zap.Int("stage", s.d.Meter.Stage()),
		zap.Int("max", s.d.Meter.Max()),
	)
	return nil
}

// MovePlayer sets the player's walking direction. Safe from any goroutine.
func (s *Session) MovePlayer(dir space.Vec) {
	if !s.sched.Post(func() { s.arena.SetPlayerHeading(dir) }) {
		s.logger.Debug("dropping move input")
	}
}

// Step advances the session by d of virtual time.
func (s *Session) Step(d time.Duration) {
	s.sched.Advance(d)
}

// Run drives the session from the wall clock until ctx is done.
func (s *Session) Run(ctx context.Context) error {
	return s.sched.Run(ctx)
}

// Teardown stops every task, tears down every ability and empties the arena.
// A torn-down session cannot be started again.
func (s *Session) Teardown() {
	s.mu.Lock()
	for _, h := range s.tasks {
		h.Cancel()
	}
	s.tasks = nil
	s.mu.Unlock()

	s.sched.Stop()
	for _, p := range s.d.Roster.Pets() {
		p.Ability.Teardown()
	}
	s.foods.Reset()
	s.arena.Clear()
	s.contacts.Clear()
	s.cooldowns.Reset()
	s.detector.Reset()
	s.logger.Info("session torn down")
}
