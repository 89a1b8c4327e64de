package physics_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/petheaven/internal/game/physics"
	"github.com/cory-johannsen/petheaven/internal/game/space"
)

type sink struct{ contacts []physics.Contact }

func (s *sink) BeginContact(c physics.Contact) { s.contacts = append(s.contacts, c) }

func attacker(id string, x float64) physics.Body {
	return physics.Body{ID: id, Category: physics.CategoryPlayer, Position: space.Vec{X: x}, Radius: 0.5}
}

func foodBody(id string, x float64) physics.Body {
	return physics.Body{ID: id, Category: physics.CategoryFood, Position: space.Vec{X: x}, Radius: 0.5}
}

func TestStep_EmitsOnlyOnBeginContact(t *testing.T) {
	d := physics.NewDetector()
	s := &sink{}
	foods := []physics.Body{foodBody("f", 0)}

	assert.Zero(t, d.Step([]physics.Body{attacker("p", 5)}, foods, s))
	assert.Equal(t, 1, d.Step([]physics.Body{attacker("p", 0.8)}, foods, s))
	assert.Zero(t, d.Step([]physics.Body{attacker("p", 0.5)}, foods, s), "still touching")
	assert.Zero(t, d.Step([]physics.Body{attacker("p", 3)}, foods, s), "separated")
	assert.Equal(t, 1, d.Step([]physics.Body{attacker("p", 0)}, foods, s), "touching again")

	require.Len(t, s.contacts, 2)
	assert.Equal(t, "p", s.contacts[0].A.ID)
	assert.Equal(t, "f", s.contacts[0].B.ID)
	assert.True(t, s.contacts[0].B.Category.Has(physics.CategoryFood))
}

func TestStep_IgnoresHeight(t *testing.T) {
	a := attacker("p", 0)
	a.Position.Y = 10
	assert.True(t, physics.Overlaps(a, foodBody("f", 0.9)))
}

func TestReset_ForgetsOverlaps(t *testing.T) {
	d := physics.NewDetector()
	s := &sink{}
	bodies := []physics.Body{attacker("p", 0)}
	foods := []physics.Body{foodBody("f", 0)}
	d.Step(bodies, foods, s)
	d.Reset()
	assert.Equal(t, 1, d.Step(bodies, foods, s))
}

func TestCategory_Has(t *testing.T) {
	c := physics.CategoryPlayer | physics.CategoryFood
	assert.True(t, c.Has(physics.CategoryPlayer))
	assert.False(t, physics.CategoryPlayer.Has(physics.CategoryFood))
}
