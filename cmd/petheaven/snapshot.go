package main

import (
	"github.com/cory-johannsen/petheaven/internal/frontend/ws"
	"github.com/cory-johannsen/petheaven/internal/game/hunger"
	"github.com/cory-johannsen/petheaven/internal/game/session"
	"github.com/cory-johannsen/petheaven/internal/game/world"
)

// snapshot captures the world for the host. It must run on the scheduler goroutine.
func snapshot(sess *session.Session, meter *hunger.Meter) ws.State {
	player := sess.Arena().PlayerPosition()
	projectiles := sess.Arena().Projectiles()
	foods := sess.Foods().Foods()

	st := ws.State{
		Time:        sess.Scheduler().Now().Milliseconds(),
		Player:      ws.EntitySnapshot{ID: world.PlayerID, X: player.X, Z: player.Z},
		Projectiles: make([]ws.EntitySnapshot, 0, len(projectiles)),
		Foods:       make([]ws.FoodSnapshot, 0, len(foods)),
		Score:       meter.Score(),
		Max:         meter.Max(),
		Stage:       meter.Stage(),
	}
	for _, p := range projectiles {
		st.Projectiles = append(st.Projectiles, ws.EntitySnapshot{ID: p.ID, X: p.Position.X, Z: p.Position.Z})
	}
	for _, f := range foods {
		st.Foods = append(st.Foods, ws.FoodSnapshot{ID: f.ID, X: f.Position.X, Z: f.Position.Z, Health: f.Health})
	}
	return st
}
