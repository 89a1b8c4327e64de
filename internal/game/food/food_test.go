package food_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/petheaven/internal/game/dice"
	"github.com/cory-johannsen/petheaven/internal/game/food"
	"github.com/cory-johannsen/petheaven/internal/game/space"
)

var apple = &food.Template{ID: "apple", Name: "Apple", Health: 5, HungerValue: 3, Speed: 1}

type registrar struct{ foods []*food.Food }

func (r *registrar) RegisterFood(f *food.Food) { r.foods = append(r.foods, f) }
func (r *registrar) Count() int                { return len(r.foods) }

func TestNew_ScalesHealth(t *testing.T) {
	f := food.New(apple, space.Vec{X: 1}, 1.5)
	assert.Equal(t, 8, f.Health, "ceil(5*1.5)")
	assert.Equal(t, 8, f.MaxHealth)
	assert.Equal(t, 3, f.HungerValue)
	assert.Equal(t, food.DefaultRadius, f.Radius)
	assert.NotEmpty(t, f.ID)
	assert.NotEqual(t, f.ID, food.New(apple, space.Vec{}, 1).ID)
}

func TestApplyDamage_MayGoNegative(t *testing.T) {
	f := food.New(apple, space.Vec{}, 1)
	assert.Equal(t, 2, f.ApplyDamage(3))
	assert.True(t, f.Alive())
	assert.Equal(t, -1, f.ApplyDamage(3))
	assert.False(t, f.Alive())
}

func TestDrift_MovesTowardPlayerOnPlane(t *testing.T) {
	f := food.New(apple, space.Vec{X: 10, Y: 0.5}, 1)
	f.Drift(space.Vec{Y: 3}, 2*time.Second)
	assert.InDelta(t, 8.0, f.Position.X, 1e-9)
	assert.Equal(t, 0.5, f.Position.Y)

	still := food.New(&food.Template{ID: "rock", Name: "Rock", Health: 1}, space.Vec{X: 4}, 1)
	still.Drift(space.Vec{}, time.Second)
	assert.Equal(t, 4.0, still.Position.X)
}

func TestTemplate_Validate(t *testing.T) {
	_, err := food.LoadTemplateFromBytes([]byte("id: pie\nname: Pie\nhealth: 0\n"))
	assert.Error(t, err)
	tmpl, err := food.LoadTemplateFromBytes([]byte("id: pie\nname: Pie\nhealth: 4\nhunger_value: 2\nradius: 0.7\n"))
	require.NoError(t, err)
	assert.Equal(t, 0.7, food.New(tmpl, space.Vec{}, 1).Radius)
}

func newSpawner(t require.TestingT, cfg food.SpawnConfig, seed uint64) *food.Spawner {
	s, err := food.NewSpawner(cfg, map[string]*food.Template{"apple": apple}, dice.NewSeededSource(seed), zap.NewNop())
	require.NoError(t, err)
	return s
}

func TestSpawner_RejectsUnknownTemplate(t *testing.T) {
	_, err := food.NewSpawner(food.SpawnConfig{
		Interval: time.Second, MaxAlive: 1, MaxRadius: 1, Templates: []string{"pear"},
	}, map[string]*food.Template{"apple": apple}, nil, zap.NewNop())
	assert.Error(t, err)
}

func TestSpawner_RespectsCap(t *testing.T) {
	s := newSpawner(t, food.SpawnConfig{
		Interval: time.Second, Batch: 3, MaxAlive: 5, MinRadius: 2, MaxRadius: 4, Templates: []string{"apple"},
	}, 1)
	reg := &registrar{}
	assert.Len(t, s.Wave(reg, space.Vec{}, 1), 3)
	assert.Len(t, s.Wave(reg, space.Vec{}, 1), 2)
	assert.Empty(t, s.Wave(reg, space.Vec{}, 1))
	assert.Equal(t, 5, reg.Count())
}

func TestSpawner_Populate(t *testing.T) {
	s := newSpawner(t, food.SpawnConfig{
		Interval: time.Second, MaxAlive: 7, MaxRadius: 4, Templates: []string{"apple"},
	}, 2)
	reg := &registrar{}
	s.Populate(reg, space.Vec{}, 2)
	assert.Equal(t, 7, reg.Count())
	assert.Equal(t, 10, reg.foods[0].Health)
}

func TestSpawner_Property_PositionsWithinRing(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		minR := rapid.Float64Range(0, 10).Draw(rt, "min")
		maxR := minR + rapid.Float64Range(0, 10).Draw(rt, "extra")
		center := space.Vec{
			X: rapid.Float64Range(-50, 50).Draw(rt, "cx"),
			Z: rapid.Float64Range(-50, 50).Draw(rt, "cz"),
		}
		s := newSpawner(rt, food.SpawnConfig{
			Interval: time.Second, Batch: 4, MaxAlive: 4, MinRadius: minR, MaxRadius: maxR, Templates: []string{"apple"},
		}, rapid.Uint64().Draw(rt, "seed"))
		reg := &registrar{}
		for _, f := range s.Wave(reg, center, 1) {
			d := space.PlanarDistance(f.Position, center)
			assert.GreaterOrEqual(rt, d, minR-1e-9)
			assert.LessOrEqual(rt, d, maxR+1e-9)
		}
	})
}
