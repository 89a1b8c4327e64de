// Package store defines the key/value persistence contract for the session's
// named integer counters (scores, stage number).
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when no value has been stored under a key.
var ErrNotFound = errors.New("counter not found")

// Store persists named int64 counters.
type Store interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) (int64, error)
	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value int64) error
	// Add atomically adds delta to key, treating a missing key as zero.
	//
	// Postcondition: Returns the new value.
	Add(ctx context.Context, key string, delta int64) (int64, error)
}

// GetOr returns the value under key, or def when the key is absent.
func GetOr(ctx context.Context, s Store, key string, def int64) (int64, error) {
	v, err := s.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return def, nil
	}
	return v, err
}
