// Package ws serves the browser front end over WebSocket. The server pushes
// sound cues, HUD updates and world snapshots; the client sends movement input.
//
// Every message is a JSON envelope {"t": type, "p": payload}.
package ws

import (
	"encoding/json"
	"fmt"
)

// Message types.
const (
	MsgWelcome = "welcome"
	MsgState   = "state"
	MsgSound   = "sound"
	MsgReward  = "reward"
	MsgDamage  = "damage"
	MsgHunger  = "hunger"
	MsgAbility = "ability"
	MsgMove    = "move"
)

// Envelope wraps every message on the wire.
type Envelope struct {
	T string          `json:"t"`
	P json.RawMessage `json:"p"`
}

type Welcome struct {
	ClientID string `json:"clientId"`
	TickHz   int    `json:"tickHz"`
}

type Sound struct {
	Event string `json:"event"`
}

type Reward struct {
	Value int `json:"value"`
}

type Damage struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Amount int     `json:"amount"`
}

type Hunger struct {
	Score int `json:"score"`
	Max   int `json:"max"`
}

type AbilityDamage struct {
	PetID  string `json:"petId"`
	Damage int    `json:"damage"`
}

// Move is client input: a planar walking direction. The zero vector stops.
type Move struct {
	X float64 `json:"x"`
	Z float64 `json:"z"`
}

// State is a world snapshot.
type State struct {
	Time        int64            `json:"time"`
	Player      EntitySnapshot   `json:"player"`
	Projectiles []EntitySnapshot `json:"projectiles"`
	Foods       []FoodSnapshot   `json:"foods"`
	Score       int              `json:"score"`
	Max         int              `json:"max"`
	Stage       int              `json:"stage"`
}

type EntitySnapshot struct {
	ID string  `json:"id"`
	X  float64 `json:"x"`
	Z  float64 `json:"z"`
}

type FoodSnapshot struct {
	ID     string  `json:"id"`
	X      float64 `json:"x"`
	Z      float64 `json:"z"`
	Health int     `json:"health"`
}

// Encode marshals payload inside an envelope of type t.
func Encode(t string, payload any) ([]byte, error) {
	if t == "" {
		return nil, fmt.Errorf("ws.Encode: empty message type")
	}
	if payload == nil {
		return nil, fmt.Errorf("ws.Encode(%q): nil payload", t)
	}
	pb, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("ws.Encode(%q): %w", t, err)
	}
	return json.Marshal(Envelope{T: t, P: pb})
}

// DecodeEnvelope parses the outer envelope of b.
func DecodeEnvelope(b []byte) (Envelope, error) {
	if len(b) == 0 {
		return Envelope{}, fmt.Errorf("ws.DecodeEnvelope: empty message")
	}
	var e Envelope
	if err := json.Unmarshal(b, &e); err != nil {
		return Envelope{}, fmt.Errorf("ws.DecodeEnvelope: %w", err)
	}
	return e, nil
}

// DecodePayload parses the payload of env as T.
func DecodePayload[T any](env Envelope) (T, error) {
	var out T
	if len(env.P) == 0 {
		return out, fmt.Errorf("ws.DecodePayload: empty payload for type %q", env.T)
	}
	err := json.Unmarshal(env.P, &out)
	return out, err
}
