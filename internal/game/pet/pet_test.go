package pet_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/petheaven/internal/game/ability"
	"github.com/cory-johannsen/petheaven/internal/game/pet"
	"github.com/cory-johannsen/petheaven/internal/game/projectile"
)

func newAbility(t require.TestingT) ability.Ability {
	a, err := ability.NewRangeSpawner("drop", 0, ability.SpawnerConfig{
		SpawnRate: time.Second,
		Range:     3,
		Lifetime:  time.Second,
	}, projectile.Spec{})
	require.NoError(t, err)
	return a
}

func newPet(t require.TestingT, id string) *pet.Pet {
	p, err := pet.New(id, "Pet "+id, newAbility(t))
	require.NoError(t, err)
	return p
}

func TestNew_StartsAtLevelOne(t *testing.T) {
	p := newPet(t, "cat")
	assert.Equal(t, 1, p.Level)
	assert.Zero(t, p.Exp)
	assert.Equal(t, 1.0, p.BaseAttack)
	assert.InDelta(t, 0.1, p.Speed, 1e-12)
	assert.Equal(t, 1.0, p.LevelUpExp())
	assert.Equal(t, 1, p.Ability.Damage())
}

func TestNew_Rejects(t *testing.T) {
	_, err := pet.New("", "x", newAbility(t))
	assert.Error(t, err)
	_, err = pet.New("x", "x", nil)
	assert.Error(t, err)
}

func TestGainExp_LevelsAtSquaredThreshold(t *testing.T) {
	p := newPet(t, "dog")
	assert.True(t, p.GainExp(1), "level 1 needs 1 exp")
	assert.Equal(t, 2, p.Level)
	assert.Zero(t, p.Exp)

	for i := 0; i < 3; i++ {
		assert.False(t, p.GainExp(1))
	}
	assert.True(t, p.GainExp(1), "level 2 needs 4 exp")
	assert.Equal(t, 3, p.Level)
	assert.Equal(t, 3.0, p.BaseAttack)
	assert.InDelta(t, 0.3, p.Speed, 1e-12)
	assert.Equal(t, 3, p.Ability.Damage())
}

func TestGainExp_Property_LevelUpIffThresholdReached(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		p := newPet(rt, "p")
		kills := rapid.IntRange(1, 200).Draw(rt, "kills")
		for i := 0; i < kills; i++ {
			level, exp := p.Level, p.Exp
			leveled := p.GainExp(1)
			if exp+1 >= float64(level*level) {
				require.True(rt, leveled)
				assert.Equal(rt, level+1, p.Level)
				assert.Zero(rt, p.Exp)
				assert.Equal(rt, float64(p.Level), p.BaseAttack)
				assert.InDelta(rt, float64(p.Level)/10, p.Speed, 1e-12)
				assert.Equal(rt, p.Level, p.Ability.Damage())
			} else {
				require.False(rt, leveled)
				assert.Equal(rt, level, p.Level)
				assert.Equal(rt, exp+1, p.Exp)
			}
		}
	})
}

func TestRoster_AwardKillGivesEveryPetOneExp(t *testing.T) {
	a, b := newPet(t, "a"), newPet(t, "b")
	b.GainExp(1)
	r := pet.NewRoster(a, b)

	ups := r.AwardKill()
	require.Len(t, ups, 1)
	assert.Equal(t, pet.LevelUp{PetID: "a", Level: 2, Damage: 2}, ups[0])
	assert.Equal(t, 1.0, b.Exp)
	assert.Equal(t, 2, b.Level)
}

func TestRoster_MoveSpeed(t *testing.T) {
	r := pet.NewRoster()
	assert.Equal(t, 1.0, r.MoveSpeed())
	r.Add(newPet(t, "a"))
	r.Add(newPet(t, "b"))
	assert.InDelta(t, 1.02, r.MoveSpeed(), 1e-12)
	assert.Equal(t, 2, r.Len())

	p, ok := r.Get("b")
	require.True(t, ok)
	assert.Equal(t, "b", p.ID)
	_, ok = r.Get("zzz")
	assert.False(t, ok)
}

func TestTemplate_SpawnCopiesAbility(t *testing.T) {
	reg := ability.NewRegistry()
	require.NoError(t, reg.Register(&ability.Template{
		ID: "drop", Kind: ability.KindRangeSpawner, SpawnRate: "1s", Duration: "1s", Range: 3,
	}))
	tmpl, err := pet.LoadTemplateFromBytes([]byte("id: cat\nname: Cat\nability: drop\n"))
	require.NoError(t, err)

	a, err := tmpl.Spawn(reg)
	require.NoError(t, err)
	b, err := tmpl.Spawn(reg)
	require.NoError(t, err)
	assert.NotSame(t, a.Ability, b.Ability)

	a.GainExp(1)
	assert.Equal(t, 2, a.Ability.Damage())
	assert.Equal(t, 1, b.Ability.Damage())

	_, err = (&pet.Template{ID: "x", Name: "x", Ability: "missing"}).Spawn(reg)
	assert.Error(t, err)
}

func TestLoadTemplateFromBytes_Invalid(t *testing.T) {
	_, err := pet.LoadTemplateFromBytes([]byte("id: cat\nname: Cat\n"))
	assert.Error(t, err)
}
