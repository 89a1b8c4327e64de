package space_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/petheaven/internal/game/space"
)

func TestPlanarDistance_IgnoresHeight(t *testing.T) {
	a := space.Vec{X: 0, Y: 10, Z: 0}
	b := space.Vec{X: 3, Y: -4, Z: 4}
	assert.InDelta(t, 5.0, space.PlanarDistance(a, b), 1e-9)
}

func TestRotateY_QuarterTurnMovesZOntoX(t *testing.T) {
	v := space.RotateY(space.Vec{Z: 2}, math.Pi/2)
	assert.InDelta(t, 2.0, math.Abs(v.X), 1e-9)
	assert.InDelta(t, 0.0, v.Z, 1e-9)
	assert.InDelta(t, math.Pi/2, math.Abs(space.PlanarAngle(v)), 1e-9)
}

func TestRotateY_Property_PreservesPlanarLength(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		v := space.Vec{
			X: rapid.Float64Range(-100, 100).Draw(rt, "x"),
			Y: rapid.Float64Range(-100, 100).Draw(rt, "y"),
			Z: rapid.Float64Range(-100, 100).Draw(rt, "z"),
		}
		angle := rapid.Float64Range(-10, 10).Draw(rt, "angle")
		r := space.RotateY(v, angle)
		assert.InDelta(rt, v.Y, r.Y, 1e-6)
		assert.InDelta(rt, space.PlanarDistance(v, space.Vec{}), space.PlanarDistance(r, space.Vec{}), 1e-6)
	})
}

func TestWithinRange(t *testing.T) {
	c := space.Vec{X: 1, Z: 1}
	assert.True(t, space.WithinRange(space.Vec{X: 3, Z: -1}, c, 2))
	assert.False(t, space.WithinRange(space.Vec{X: 3.01, Z: 1}, c, 2))
}

func TestClampToRange_Property_AlwaysWithin(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		p := space.Vec{X: rapid.Float64Range(-1e3, 1e3).Draw(rt, "px"), Z: rapid.Float64Range(-1e3, 1e3).Draw(rt, "pz")}
		c := space.Vec{X: rapid.Float64Range(-1e3, 1e3).Draw(rt, "cx"), Z: rapid.Float64Range(-1e3, 1e3).Draw(rt, "cz")}
		r := rapid.Float64Range(0, 50).Draw(rt, "r")
		assert.True(rt, space.WithinRange(space.ClampToRange(p, c, r), c, r))
	})
}

func TestClampToRange_RoundingAtEdge(t *testing.T) {
	c := space.Vec{Z: 47.04489728808403}
	r := 0.11628213433533978
	got := space.ClampToRange(space.Vec{}, c, r)
	assert.True(t, space.WithinRange(got, c, r))
	assert.InDelta(t, c.Z-r, got.Z, 1e-12)
	assert.Equal(t, 0.0, got.X)
}

func TestMoveToward(t *testing.T) {
	from := space.Vec{}
	to := space.Vec{X: 10}
	assert.InDelta(t, 4.0, space.MoveToward(from, to, 4).X, 1e-9)
	assert.Equal(t, to, space.MoveToward(from, to, 40))
}
