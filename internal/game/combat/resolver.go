package combat

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/petheaven/internal/game/food"
	"github.com/cory-johannsen/petheaven/internal/game/lifecycle"
	"github.com/cory-johannsen/petheaven/internal/game/pet"
	"github.com/cory-johannsen/petheaven/internal/game/physics"
	"github.com/cory-johannsen/petheaven/internal/game/world"
	"github.com/cory-johannsen/petheaven/internal/host"
)

// AttackerKind says which side of the player dealt a hit.
type AttackerKind string

const (
	AttackerProjectile AttackerKind = "projectile"
	AttackerPet        AttackerKind = "pet"
)

// RewardMeter accumulates kill rewards.
type RewardMeter interface {
	AddReward(ctx context.Context, v int) error
	Score() int
	Max() int
	Stage() int
}

// Hooks lets content scripts react to kills and level-ups.
type Hooks interface {
	// FoodDestroyed returns the reward to grant for a kill.
	FoodDestroyed(templateID string, reward int) int
	LevelUp(petID string, level int)
}

// Kill describes a destroyed food.
type Kill struct {
	Time     time.Duration
	FoodID   string
	Template string
	Attacker string
	Kind     AttackerKind
	Damage   int
	Reward   int
	Stage    int
}

// KillSink records kills.
type KillSink interface {
	RecordKill(k Kill)
}

// Hit describes one applied hit.
type Hit struct {
	FoodID   string
	Attacker string
	Kind     AttackerKind
	Damage   int
	Health   int
}

// FrameResult summarises one Frame call.
type FrameResult struct {
	Removed  []*food.Food
	Hit      *Hit
	Kill     *Kill
	LevelUps []pet.LevelUp
}

// Deps are the collaborators of a Resolver. Hooks and Kills are optional.
type Deps struct {
	Lifecycle *lifecycle.Manager
	Arena     *world.Manager
	Roster    *pet.Roster
	Contacts  *ContactSlot
	Cooldowns *CooldownRegistry
	Meter     RewardMeter
	Audio     host.Audio
	UI        host.UI
	Projector host.Projector
	Hooks     Hooks
	Kills     KillSink
	Logger    *zap.Logger
}

func (d Deps) validate() error {
	switch {
	case d.Lifecycle == nil:
		return errors.New("combat: lifecycle manager must not be nil")
	case d.Arena == nil:
		return errors.New("combat: arena must not be nil")
	case d.Roster == nil:
		return errors.New("combat: roster must not be nil")
	case d.Contacts == nil:
		return errors.New("combat: contact slot must not be nil")
	case d.Cooldowns == nil:
		return errors.New("combat: cooldown registry must not be nil")
	case d.Meter == nil:
		return errors.New("combat: reward meter must not be nil")
	case d.Logger == nil:
		return errors.New("combat: logger must not be nil")
	}
	return nil
}

// Resolver runs the per-frame contact and damage pipeline.
type Resolver struct {
	d Deps
}

// NewResolver validates deps and fills unset host collaborators with no-ops.
//
// Postcondition: Returns an error naming the first missing required collaborator.
func NewResolver(d Deps) (*Resolver, error) {
	if err := d.validate(); err != nil {
		return nil, err
	}
	if d.Audio == nil {
		d.Audio = host.Nop{}
	}
	if d.UI == nil {
		d.UI = host.Nop{}
	}
	if d.Projector == nil {
		d.Projector = host.TopDown{}
	}
	return &Resolver{d: d}, nil
}

// Frame runs one frame of the pipeline at virtual time now:
//  1. drain deferred food removals;
//  2. consume the latest contact and classify it;
//  3. gate it on the food's cooldown;
//  4. apply the attacker's damage;
//  5. on death, reward, queue removal and award experience.
//
// Postcondition: a food that is unregistered or already dead takes no damage.
func (r *Resolver) Frame(ctx context.Context, now time.Duration) FrameResult {
	var res FrameResult
	res.Removed = r.d.Lifecycle.Update()
	for _, f := range res.Removed {
		r.d.Cooldowns.Forget(f.ID)
	}

	c, ok := r.d.Contacts.Take()
	if !ok {
		return res
	}
	attacker, target, ok := classify(c)
	if !ok {
		return res
	}

	f, ok := r.d.Lifecycle.Food(target.ID)
	if !ok || !f.Alive() {
		return res
	}
	damage, kind, ok := r.attackDamage(attacker.ID)
	if !ok {
		return res
	}
	if !r.d.Cooldowns.Allow(f.ID, now) {
		return res
	}

	health := f.ApplyDamage(damage)
	res.Hit = &Hit{FoodID: f.ID, Attacker: attacker.ID, Kind: kind, Damage: damage, Health: health}
	r.d.UI.ShowDamageNumber(r.d.Projector.Project(f.Position), damage)
	r.d.Logger.Debug("food hit",
		zap.String("food", f.ID),
		zap.String("attacker", attacker.ID),
		zap.Int("damage", damage),
		zap.Int("health", health),
	)

	if health <= 0 {
		res.Kill, res.LevelUps = r.destroy(ctx, f, attacker.ID, kind, damage, now)
	}
	return res
}

// classify orders a contact as (attacker, food).
func classify(c physics.Contact) (attacker, target physics.Body, ok bool) {
	switch {
	case c.A.Category.Has(physics.CategoryPlayer) && c.B.Category.Has(physics.CategoryFood):
		return c.A, c.B, true
	case c.B.Category.Has(physics.CategoryPlayer) && c.A.Category.Has(physics.CategoryFood):
		return c.B, c.A, true
	}
	return physics.Body{}, physics.Body{}, false
}

// attackDamage resolves a projectile's damage or a pet's base attack.
func (r *Resolver) attackDamage(id string) (int, AttackerKind, bool) {
	if p, ok := r.d.Arena.Projectile(id); ok {
		return p.Damage, AttackerProjectile, true
	}
	if p, ok := r.d.Roster.Get(id); ok {
		return p.AttackDamage(), AttackerPet, true
	}
	return 0, "", false
}

func (r *Resolver) destroy(ctx context.Context, f *food.Food, attacker string, kind AttackerKind, damage int, now time.Duration) (*Kill, []pet.LevelUp) {
	reward := f.HungerValue
	if r.d.Hooks != nil {
		reward = r.d.Hooks.FoodDestroyed(f.TemplateID, reward)
	}
	if err := r.d.Meter.AddReward(ctx, reward); err != nil {
		r.d.Logger.Warn("persisting reward", zap.String("food", f.ID), zap.Error(err))
	}
	r.d.UI.AddReward(reward)
	r.d.UI.UpdateHungerMeter(r.d.Meter.Score(), r.d.Meter.Max())
	r.d.Lifecycle.QueueRemoval(f.ID)
	r.d.Audio.Play(host.EventEat)

	ups := r.d.Roster.AwardKill()
	for _, up := range ups {
		r.d.UI.AbilityDamageChanged(up.PetID, up.Damage)
		if r.d.Hooks != nil {
			r.d.Hooks.LevelUp(up.PetID, up.Level)
		}
		r.d.Logger.Info("pet leveled up",
			zap.String("pet", up.PetID),
			zap.Int("level", up.Level),
			zap.Int("damage", up.Damage),
		)
	}

	k := &Kill{
		Time:     now,
		FoodID:   f.ID,
		Template: f.TemplateID,
		Attacker: attacker,
		Kind:     kind,
		Damage:   damage,
		Reward:   reward,
		Stage:    r.d.Meter.Stage(),
	}
	if r.d.Kills != nil {
		r.d.Kills.RecordKill(*k)
	}
	r.d.Logger.Debug("food destroyed",
		zap.String("food", f.ID),
		zap.String("template", f.TemplateID),
		zap.Int("reward", reward),
	)
	return k, ups
}
