package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/petheaven/internal/store"
)

// CounterRepository persists named counters in the counters table.
type CounterRepository struct {
	db *pgxpool.Pool
}

// NewCounterRepository creates a CounterRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewCounterRepository(db *pgxpool.Pool) *CounterRepository {
	return &CounterRepository{db: db}
}

var _ store.Store = (*CounterRepository)(nil)

// Get returns the value stored under key.
//
// Postcondition: Returns store.ErrNotFound if no row exists for key.
func (r *CounterRepository) Get(ctx context.Context, key string) (int64, error) {
	var v int64
	err := r.db.QueryRow(ctx, `SELECT value FROM counters WHERE key = $1`, key).Scan(&v)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, store.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("querying counter %q: %w", key, err)
	}
	return v, nil
}

// Set upserts value under key.
func (r *CounterRepository) Set(ctx context.Context, key string, value int64) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO counters (key, value) VALUES ($1, $2)
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("setting counter %q: %w", key, err)
	}
	return nil
}

// Add increments key by delta in a single statement.
//
// Postcondition: Returns the value after the increment; a missing key starts at zero.
func (r *CounterRepository) Add(ctx context.Context, key string, delta int64) (int64, error) {
	var v int64
	err := r.db.QueryRow(ctx,
		`INSERT INTO counters (key, value) VALUES ($1, $2)
		 ON CONFLICT (key) DO UPDATE SET value = counters.value + EXCLUDED.value, updated_at = NOW()
		 RETURNING value`,
		key, delta,
	).Scan(&v)
	if err != nil {
		return 0, fmt.Errorf("adding to counter %q: %w", key, err)
	}
	return v, nil
}
