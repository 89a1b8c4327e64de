package combat_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/petheaven/internal/game/ability"
	"github.com/cory-johannsen/petheaven/internal/game/combat"
	"github.com/cory-johannsen/petheaven/internal/game/food"
	"github.com/cory-johannsen/petheaven/internal/game/hunger"
	"github.com/cory-johannsen/petheaven/internal/game/lifecycle"
	"github.com/cory-johannsen/petheaven/internal/game/pet"
	"github.com/cory-johannsen/petheaven/internal/game/physics"
	"github.com/cory-johannsen/petheaven/internal/game/projectile"
	"github.com/cory-johannsen/petheaven/internal/game/space"
	"github.com/cory-johannsen/petheaven/internal/game/world"
	"github.com/cory-johannsen/petheaven/internal/host"
	"github.com/cory-johannsen/petheaven/internal/storage/memory"
)

type recordingHooks struct {
	destroyed []string
	levels    map[string]int
	bonus     int
}

func (h *recordingHooks) FoodDestroyed(templateID string, reward int) int {
	h.destroyed = append(h.destroyed, templateID)
	return reward + h.bonus
}

func (h *recordingHooks) LevelUp(petID string, level int) {
	h.levels[petID] = level
}

type killLog struct{ kills []combat.Kill }

func (k *killLog) RecordKill(kill combat.Kill) { k.kills = append(k.kills, kill) }

type fixture struct {
	arena     *world.Manager
	lifecycle *lifecycle.Manager
	roster    *pet.Roster
	slot      *combat.ContactSlot
	meter     *hunger.Meter
	host      *host.Recorder
	hooks     *recordingHooks
	kills     *killLog
	resolver  *combat.Resolver
}

func newPet(t require.TestingT, id string) *pet.Pet {
	a, err := ability.NewRangeSpawner(id+"-drop", 0, ability.SpawnerConfig{
		SpawnRate: time.Second, Range: 2, Lifetime: time.Second,
	}, projectile.Spec{})
	require.NoError(t, err)
	p, err := pet.New(id, id, a)
	require.NoError(t, err)
	return p
}

func newFixture(t require.TestingT, pets ...*pet.Pet) *fixture {
	arena := world.NewManager()
	meter, err := hunger.NewMeter(memory.New(), hunger.Config{BaseMax: 100, MaxMultiplier: 1.5, HealthGrowth: 1.2}, zap.NewNop())
	require.NoError(t, err)
	f := &fixture{
		arena:     arena,
		lifecycle: lifecycle.NewManager(arena),
		roster:    pet.NewRoster(pets...),
		slot:      &combat.ContactSlot{},
		meter:     meter,
		host:      host.NewRecorder(),
		hooks:     &recordingHooks{levels: make(map[string]int)},
		kills:     &killLog{},
	}
	f.resolver, err = combat.NewResolver(combat.Deps{
		Lifecycle: f.lifecycle,
		Arena:     arena,
		Roster:    f.roster,
		Contacts:  f.slot,
		Cooldowns: combat.NewCooldownRegistry(combat.DefaultCooldown),
		Meter:     meter,
		Audio:     f.host,
		UI:        f.host,
		Hooks:     f.hooks,
		Kills:     f.kills,
		Logger:    zap.NewNop(),
	})
	require.NoError(t, err)
	return f
}

func (f *fixture) spawnFood(health, reward int) *food.Food {
	fd := food.New(&food.Template{ID: "apple", Name: "Apple", Health: health, HungerValue: reward}, space.Vec{X: 1}, 1)
	f.lifecycle.RegisterFood(fd)
	return fd
}

func (f *fixture) addBolt(id string, damage int) {
	f.arena.AddProjectile(&projectile.Projectile{ID: id, Damage: damage, Radius: 0.25})
}

func (f *fixture) touch(attackerID string, target *food.Food) {
	f.slot.BeginContact(physics.Contact{
		A: physics.Body{ID: attackerID, Category: physics.CategoryPlayer},
		B: physics.Body{ID: target.ID, Category: physics.CategoryFood},
	})
}

func TestResolver_ExampleScenario(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t, newPet(t, "cat"))
	fx.addBolt("bolt", 3)
	fd := fx.spawnFood(5, 4)

	fx.touch("bolt", fd)
	res := fx.resolver.Frame(ctx, 0)
	require.NotNil(t, res.Hit)
	assert.Equal(t, 2, fd.Health)

	fx.touch("bolt", fd)
	res = fx.resolver.Frame(ctx, 50*time.Millisecond)
	assert.Nil(t, res.Hit, "within cooldown")
	assert.Equal(t, 2, fd.Health)

	fx.touch("bolt", fd)
	res = fx.resolver.Frame(ctx, 250*time.Millisecond)
	require.NotNil(t, res.Kill)
	assert.Equal(t, -1, fd.Health)
	assert.Equal(t, 4, res.Kill.Reward)
	assert.Equal(t, 1, fx.lifecycle.PendingRemovals())

	res = fx.resolver.Frame(ctx, 266*time.Millisecond)
	require.Len(t, res.Removed, 1)
	_, ok := fx.lifecycle.Food(fd.ID)
	assert.False(t, ok)

	fx.touch("bolt", fd)
	res = fx.resolver.Frame(ctx, 500*time.Millisecond)
	assert.Nil(t, res.Hit, "removed food never takes damage")
	assert.Equal(t, -1, fd.Health)

	assert.Equal(t, []int{4}, fx.host.Rewards, "reward granted once")
	assert.Equal(t, 4, fx.meter.Score())
	assert.Equal(t, 1, fx.host.Count(host.EventEat))
	assert.Len(t, fx.host.DamageNumbers, 2)
	assert.Len(t, fx.kills.kills, 1)
}

func TestResolver_DeadButUnremovedFoodIsIgnored(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)
	fx.addBolt("bolt", 10)
	fd := fx.spawnFood(1, 1)

	fx.touch("bolt", fd)
	require.NotNil(t, fx.resolver.Frame(ctx, 0).Kill)
	require.Len(t, fx.resolver.Frame(ctx, 10*time.Millisecond).Removed, 1)

	// A dead food that is somehow still registered must not be hit.
	fx.lifecycle.RegisterFood(fd)
	fx.touch("bolt", fd)
	res := fx.resolver.Frame(ctx, time.Second)
	assert.Nil(t, res.Hit)
	assert.Equal(t, -9, fd.Health)
	assert.Equal(t, []int{1}, fx.host.Rewards)
}

func TestResolver_PetBodyUsesBaseAttack(t *testing.T) {
	ctx := context.Background()
	cat := newPet(t, "cat")
	cat.GainExp(1)
	cat.GainExp(4)
	require.Equal(t, 3, cat.Level)
	fx := newFixture(t, cat)
	fd := fx.spawnFood(10, 1)

	fx.slot.BeginContact(physics.Contact{
		A: physics.Body{ID: fd.ID, Category: physics.CategoryFood},
		B: physics.Body{ID: "cat", Category: physics.CategoryPlayer},
	})
	res := fx.resolver.Frame(ctx, 0)
	require.NotNil(t, res.Hit)
	assert.Equal(t, combat.AttackerPet, res.Hit.Kind)
	assert.Equal(t, 7, fd.Health)
}

func TestResolver_IgnoresUnclassifiableContacts(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)
	fx.addBolt("bolt", 1)
	fd := fx.spawnFood(5, 1)
	fx.slot.BeginContact(physics.Contact{
		A: physics.Body{ID: "bolt", Category: physics.CategoryPlayer},
		B: physics.Body{ID: "other", Category: physics.CategoryPlayer},
	})
	assert.Nil(t, fx.resolver.Frame(ctx, 0).Hit)

	fx.touch("ghost", fd)
	assert.Nil(t, fx.resolver.Frame(ctx, time.Second).Hit, "unknown attacker")
	assert.Equal(t, 5, fd.Health)
}

func TestResolver_KillAwardsExpToEveryPet(t *testing.T) {
	ctx := context.Background()
	a, b := newPet(t, "a"), newPet(t, "b")
	b.GainExp(1)
	fx := newFixture(t, a, b)
	fx.hooks.bonus = 2
	fx.addBolt("bolt", 100)
	fd := fx.spawnFood(1, 3)

	fx.touch("bolt", fd)
	res := fx.resolver.Frame(ctx, 0)
	require.NotNil(t, res.Kill)
	assert.Equal(t, 5, res.Kill.Reward, "hook bonus applied")
	require.Len(t, res.LevelUps, 1)
	assert.Equal(t, "a", res.LevelUps[0].PetID)

	assert.Equal(t, 2, a.Level)
	assert.Equal(t, 2, a.Ability.Damage())
	assert.Equal(t, 1.0, b.Exp)
	assert.Equal(t, 2, fx.host.DamageChanges["a"])
	assert.Equal(t, 2, fx.hooks.levels["a"])
	assert.Equal(t, []string{"apple"}, fx.hooks.destroyed)
	assert.Equal(t, [][2]int{{5, 100}}, fx.host.HungerUpdates)
}

func TestResolver_RemovalPrecedesContact(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)
	fx.addBolt("bolt", 1)
	fd := fx.spawnFood(5, 1)
	fx.lifecycle.QueueRemoval(fd.ID)
	fx.touch("bolt", fd)
	res := fx.resolver.Frame(ctx, 0)
	assert.Len(t, res.Removed, 1)
	assert.Nil(t, res.Hit)
	assert.Equal(t, 5, fd.Health)
}

func TestNewResolver_RequiresCollaborators(t *testing.T) {
	_, err := combat.NewResolver(combat.Deps{})
	assert.Error(t, err)
}

func TestResolver_Property_HitsRespectCooldownAndDamage(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		ctx := context.Background()
		fx := newFixture(rt)
		damage := rapid.IntRange(1, 5).Draw(rt, "damage")
		fx.addBolt("bolt", damage)
		fd := fx.spawnFood(rapid.IntRange(1, 60).Draw(rt, "health"), 1)

		var now time.Duration
		var lastHit time.Duration = -1
		removed := false
		steps := rapid.IntRange(1, 80).Draw(rt, "steps")
		for i := 0; i < steps; i++ {
			now += time.Duration(rapid.IntRange(0, 150).Draw(rt, "gap_ms")) * time.Millisecond
			before := fd.Health
			fx.touch("bolt", fd)
			res := fx.resolver.Frame(ctx, now)
			if len(res.Removed) > 0 {
				removed = true
			}
			if res.Hit == nil {
				assert.Equal(rt, before, fd.Health)
				continue
			}
			assert.False(rt, removed, "hit after removal")
			assert.Equal(rt, before-damage, fd.Health)
			if lastHit >= 0 {
				assert.GreaterOrEqual(rt, now-lastHit, combat.DefaultCooldown)
			}
			lastHit = now
		}
		assert.LessOrEqual(rt, len(fx.host.Rewards), 1)
	})
}
