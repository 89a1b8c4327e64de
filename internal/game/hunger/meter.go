// Package hunger tracks the session score ("hunger meter") and stage
// progression. Every value is mirrored into a store.Store as a named counter.
package hunger

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"go.uber.org/zap"

	"github.com/cory-johannsen/petheaven/internal/store"
)

// Persisted counter keys.
const (
	KeyTotalScore    = "total_score"
	KeyStageScore    = "stage_score"
	KeyStageMaxScore = "stage_max_score"
	KeyStageCount    = "stage_count"
)

// Config sets the stage curve.
type Config struct {
	// BaseMax is the score needed to clear the first stage.
	BaseMax int
	// MaxMultiplier scales the required score from one stage to the next.
	MaxMultiplier float64
	// HealthGrowth is the per-stage food health multiplier base.
	HealthGrowth float64
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	switch {
	case c.BaseMax < 1:
		return errors.New("hunger config: base_max must be >= 1")
	case c.MaxMultiplier < 1:
		return errors.New("hunger config: max_multiplier must be >= 1")
	case c.HealthGrowth < 1:
		return errors.New("hunger config: health_growth must be >= 1")
	}
	return nil
}

// Meter is the session's hunger meter.
// All methods are safe for concurrent use.
//
// Invariant: 0 <= stage; max >= cfg.BaseMax.
type Meter struct {
	mu     sync.Mutex
	store  store.Store
	cfg    Config
	total  int64
	score  int
	max    int
	stage  int
	logger *zap.Logger
}

// NewMeter creates a meter at stage zero with no score.
//
// Precondition: s and logger must be non-nil.
// Postcondition: Returns an error if cfg is invalid.
func NewMeter(s store.Store, cfg Config, logger *zap.Logger) (*Meter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Meter{store: s, cfg: cfg, max: cfg.BaseMax, logger: logger}, nil
}

// Load restores the meter from the store. Missing counters keep their defaults.
func (m *Meter) Load(ctx context.Context) error {
	total, err := store.GetOr(ctx, m.store, KeyTotalScore, 0)
	if err != nil {
		return fmt.Errorf("loading %s: %w", KeyTotalScore, err)
	}
	score, err := store.GetOr(ctx, m.store, KeyStageScore, 0)
	if err != nil {
		return fmt.Errorf("loading %s: %w", KeyStageScore, err)
	}
	maxScore, err := store.GetOr(ctx, m.store, KeyStageMaxScore, int64(m.cfg.BaseMax))
	if err != nil {
		return fmt.Errorf("loading %s: %w", KeyStageMaxScore, err)
	}
	stage, err := store.GetOr(ctx, m.store, KeyStageCount, 0)
	if err != nil {
		return fmt.Errorf("loading %s: %w", KeyStageCount, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.total = total
	m.score = int(score)
	m.max = max(int(maxScore), m.cfg.BaseMax)
	m.stage = max(int(stage), 0)
	m.logger.Info("hunger meter loaded",
		zap.Int64("total", m.total),
		zap.Int("score", m.score),
		zap.Int("max", m.max),
		zap.Int("stage", m.stage),
	)
	return nil
}

// AddReward adds v to the stage and total scores.
//
// Postcondition: the in-memory score is updated even when persisting fails;
// the persistence error is returned.
func (m *Meter) AddReward(ctx context.Context, v int) error {
	m.mu.Lock()
	m.score += v
	m.total += int64(v)
	score := m.score
	m.mu.Unlock()

	if _, err := m.store.Add(ctx, KeyTotalScore, int64(v)); err != nil {
		return fmt.Errorf("persisting %s: %w", KeyTotalScore, err)
	}
	if err := m.store.Set(ctx, KeyStageScore, int64(score)); err != nil {
		return fmt.Errorf("persisting %s: %w", KeyStageScore, err)
	}
	return nil
}

// Score returns the current stage score.
func (m *Meter) Score() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.score
}

// Max returns the score needed to clear the current stage.
func (m *Meter) Max() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.max
}

// Stage returns the number of stages cleared.
func (m *Meter) Stage() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stage
}

// Total returns the lifetime score.
func (m *Meter) Total() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.total
}

// Cleared reports whether the stage score has reached the stage maximum.
func (m *Meter) Cleared() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.score >= m.max
}

// NextStage advances to the next stage.
//
// Postcondition: Stage has increased by one, the score is zero and Max has
// been scaled by MaxMultiplier (never below its previous value).
func (m *Meter) NextStage(ctx context.Context) error {
	m.mu.Lock()
	m.stage++
	m.score = 0
	m.max = max(int(float64(m.max)*m.cfg.MaxMultiplier), m.max)
	stage, maxScore := m.stage, m.max
	m.mu.Unlock()

	for _, kv := range []struct {
		key string
		v   int64
	}{
		{KeyStageCount, int64(stage)},
		{KeyStageScore, 0},
		{KeyStageMaxScore, int64(maxScore)},
	} {
		if err := m.store.Set(ctx, kv.key, kv.v); err != nil {
			return fmt.Errorf("persisting %s: %w", kv.key, err)
		}
	}
	m.logger.Info("stage advanced", zap.Int("stage", stage), zap.Int("max", maxScore))
	return nil
}

// FoodHealthMultiplier returns HealthGrowth raised to the current stage.
func (m *Meter) FoodHealthMultiplier() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return math.Pow(m.cfg.HealthGrowth, float64(m.stage))
}
