package session_test

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cory-johannsen/petheaven/internal/game/ability"
	"github.com/cory-johannsen/petheaven/internal/game/dice"
	"github.com/cory-johannsen/petheaven/internal/game/food"
	"github.com/cory-johannsen/petheaven/internal/game/hunger"
	"github.com/cory-johannsen/petheaven/internal/game/pet"
	"github.com/cory-johannsen/petheaven/internal/game/projectile"
	"github.com/cory-johannsen/petheaven/internal/game/session"
	"github.com/cory-johannsen/petheaven/internal/game/space"
	"github.com/cory-johannsen/petheaven/internal/host"
	"github.com/cory-johannsen/petheaven/internal/storage/memory"
)

var crumb = &food.Template{ID: "crumb", Name: "Crumb", Health: 1, HungerValue: 2, Radius: 0.5}

var testConfig = session.Config{
	TickRate:        60,
	ContactCooldown: 100 * time.Millisecond,
	PlayerSpeed:     4,
	PetSpacing:      10,
	PetRadius:       0.1,
}

type fixture struct {
	sess   *session.Session
	meter  *hunger.Meter
	roster *pet.Roster
	rec    *host.Recorder
}

func newFixture(t *testing.T, cfg session.Config, baseMax int) *fixture {
	t.Helper()
	ring, err := ability.NewOrbitingRing("ring", 0, ability.RingConfig{
		Count:         1,
		Radius:        3,
		RotationSpeed: 2 * math.Pi,
		Period:        time.Second,
	}, projectile.Spec{Radius: 0.25})
	require.NoError(t, err)
	p, err := pet.New("cat", "Cat", ring)
	require.NoError(t, err)
	roster := pet.NewRoster(p)

	spawner, err := food.NewSpawner(food.SpawnConfig{
		Interval:  time.Hour,
		MaxAlive:  1,
		MinRadius: 3,
		MaxRadius: 3,
		Templates: []string{"crumb"},
	}, map[string]*food.Template{"crumb": crumb}, dice.NewSeededSource(7), zap.NewNop())
	require.NoError(t, err)

	meter, err := hunger.NewMeter(memory.New(), hunger.Config{
		BaseMax:       baseMax,
		MaxMultiplier: 2,
		HealthGrowth:  2,
	}, zap.NewNop())
	require.NoError(t, err)

	rec := host.NewRecorder()
	sess, err := session.New(cfg, session.Deps{
		Roster:  roster,
		Spawner: spawner,
		Meter:   meter,
		Source:  dice.NewSeededSource(1),
		Audio:   rec,
		UI:      rec,
		Logger:  zap.NewNop(),
	})
	require.NoError(t, err)
	t.Cleanup(sess.Teardown)
	return &fixture{sess: sess, meter: meter, roster: roster, rec: rec}
}

func TestNew_Validation(t *testing.T) {
	_, err := session.New(session.Config{}, session.Deps{Logger: zap.NewNop()})
	assert.Error(t, err)
	_, err = session.New(testConfig, session.Deps{Logger: zap.NewNop()})
	assert.Error(t, err)
}

func TestStart_PopulatesAndActivates(t *testing.T) {
	f := newFixture(t, testConfig, 100)
	require.NoError(t, f.sess.Start(context.Background()))
	assert.ErrorIs(t, f.sess.Start(context.Background()), session.ErrStarted)

	assert.Equal(t, 1, f.sess.Foods().Count())
	assert.Equal(t, 1, f.sess.Arena().ProjectileCount())
	p, _ := f.roster.Get("cat")
	assert.True(t, p.Ability.IsActive())

	body, ok := f.sess.Arena().Body("cat")
	require.True(t, ok)
	assert.InDelta(t, 10, space.PlanarDistance(body, space.Vec{}), 1e-9)
	require.NotEmpty(t, f.rec.HungerUpdates)
	assert.Equal(t, [2]int{0, 100}, f.rec.HungerUpdates[0])
}

type switchedAbility struct {
	ability.Ability
	fail bool
}

func (a *switchedAbility) Activate(env ability.Env) error {
	if a.fail {
		return errors.New("activation refused")
	}
	return a.Ability.Activate(env)
}

func TestStart_FailedActivationRollsBack(t *testing.T) {
	f := newFixture(t, testConfig, 100)
	cat, _ := f.roster.Get("cat")
	sw := &switchedAbility{Ability: cat.Ability.Copy(), fail: true}
	dog, err := pet.New("dog", "Dog", sw)
	require.NoError(t, err)
	f.roster.Add(dog)

	require.Error(t, f.sess.Start(context.Background()))
	assert.False(t, cat.Ability.IsActive())
	assert.Zero(t, f.sess.Arena().ProjectileCount())
	assert.Zero(t, f.sess.Foods().Count())

	f.sess.Step(2 * time.Second)
	assert.Zero(t, f.sess.Frames())

	sw.fail = false
	require.NoError(t, f.sess.Start(context.Background()))
	assert.True(t, cat.Ability.IsActive())
	assert.True(t, sw.IsActive())
	assert.Equal(t, 1, f.sess.Foods().Count())
}

func TestSession_RingEatsFood(t *testing.T) {
	f := newFixture(t, testConfig, 100)
	require.NoError(t, f.sess.Start(context.Background()))

	f.sess.Step(2 * time.Second)

	assert.Equal(t, 1, f.rec.Count(host.EventEat))
	assert.Equal(t, 2, f.meter.Score())
	assert.Zero(t, f.sess.Foods().Count())
	assert.Equal(t, []int{2}, f.rec.Rewards)
	p, _ := f.roster.Get("cat")
	assert.Equal(t, 2, p.Level)
	assert.Equal(t, p.Ability.Damage(), f.rec.DamageChanges["cat"])
	assert.Greater(t, f.sess.Frames(), uint64(100))
}

func TestSession_AutoAdvanceClearsStage(t *testing.T) {
	cfg := testConfig
	cfg.AutoAdvance = true
	f := newFixture(t, cfg, 2)
	require.NoError(t, f.sess.Start(context.Background()))

	frame := f.sess.Scheduler().FrameInterval()
	for i := 0; i < 240 && f.meter.Stage() == 0; i++ {
		f.sess.Step(frame)
	}

	assert.Equal(t, 1, f.rec.Count(host.EventStage))
	assert.Equal(t, 1, f.meter.Stage())
	assert.Equal(t, 4, f.meter.Max())
	require.Equal(t, 1, f.sess.Foods().Count())
	assert.Equal(t, 2, f.sess.Foods().Foods()[0].MaxHealth)
	assert.Equal(t, 1, f.sess.Arena().ProjectileCount())
}

func TestSession_NextStageResets(t *testing.T) {
	f := newFixture(t, testConfig, 100)
	require.NoError(t, f.sess.Start(context.Background()))
	before := f.sess.Foods().Foods()[0].ID

	require.NoError(t, f.sess.NextStage(context.Background()))

	assert.Equal(t, 1, f.meter.Stage())
	require.Equal(t, 1, f.sess.Foods().Count())
	assert.NotEqual(t, before, f.sess.Foods().Foods()[0].ID)
	assert.Equal(t, 1, f.sess.Arena().ProjectileCount())
	p, _ := f.roster.Get("cat")
	assert.True(t, p.Ability.IsActive())
}

func TestSession_MovePlayer(t *testing.T) {
	f := newFixture(t, testConfig, 100)
	require.NoError(t, f.sess.Start(context.Background()))

	frame := f.sess.Scheduler().FrameInterval()
	f.sess.MovePlayer(space.Vec{X: 5})
	f.sess.Step(frame)

	pos := f.sess.Arena().PlayerPosition()
	assert.InDelta(t, 4*f.roster.MoveSpeed()*frame.Seconds(), pos.X, 1e-9)
	assert.Zero(t, pos.Z)
	body, _ := f.sess.Arena().Body("cat")
	assert.InDelta(t, 10, space.PlanarDistance(body, pos), 1e-9)
}

func TestSession_Teardown(t *testing.T) {
	f := newFixture(t, testConfig, 100)
	require.NoError(t, f.sess.Start(context.Background()))
	f.sess.Teardown()

	assert.Zero(t, f.sess.Arena().ProjectileCount())
	assert.Zero(t, f.sess.Foods().Count())
	assert.Zero(t, f.sess.Scheduler().Pending())
	frames := f.sess.Frames()
	f.sess.Step(time.Second)
	assert.Equal(t, frames, f.sess.Frames())
}

func TestSession_RunStopsWithContext(t *testing.T) {
	f := newFixture(t, testConfig, 100)
	require.NoError(t, f.sess.Start(context.Background()))
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, f.sess.Run(ctx), context.DeadlineExceeded)
	assert.Positive(t, f.sess.Frames())
}
