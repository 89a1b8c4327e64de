// Package telemetry writes per-kill records of a play session to CSV.
package telemetry

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/gocarina/gocsv"
	"go.uber.org/zap"

	"github.com/cory-johannsen/petheaven/internal/game/combat"
)

// KillsFile is the file name OpenKillLog creates inside its directory.
const KillsFile = "kills.csv"

// KillRecord is one CSV row.
type KillRecord struct {
	TimeMS   int64  `csv:"time_ms"`
	FoodID   string `csv:"food_id"`
	Template string `csv:"template"`
	Attacker string `csv:"attacker"`
	Kind     string `csv:"kind"`
	Damage   int    `csv:"damage"`
	Reward   int    `csv:"reward"`
	Stage    int    `csv:"stage"`
}

// FromKill converts a combat kill into a CSV row.
func FromKill(k combat.Kill) KillRecord {
	return KillRecord{
		TimeMS:   k.Time.Milliseconds(),
		FoodID:   k.FoodID,
		Template: k.Template,
		Attacker: k.Attacker,
		Kind:     string(k.Kind),
		Damage:   k.Damage,
		Reward:   k.Reward,
		Stage:    k.Stage,
	}
}

// KillLog appends kill records to a writer. A nil *KillLog discards records.
//
// Invariant: the header row is written exactly once, before the first record.
type KillLog struct {
	mu            sync.Mutex
	w             io.Writer
	closer        io.Closer
	headerWritten bool
	count         int
	rewards       int
	logger        *zap.Logger
}

// NewKillLog creates a KillLog writing to w.
//
// Precondition: w and logger must be non-nil.
func NewKillLog(w io.Writer, logger *zap.Logger) *KillLog {
	return &KillLog{w: w, logger: logger}
}

// OpenKillLog creates dir if needed and a fresh kills.csv inside it.
// Returns nil if dir is empty (output disabled).
func OpenKillLog(dir string, logger *zap.Logger) (*KillLog, error) {
	if dir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("telemetry.OpenKillLog: creating output directory: %w", err)
	}
	f, err := os.Create(filepath.Join(dir, KillsFile))
	if err != nil {
		return nil, fmt.Errorf("telemetry.OpenKillLog: creating %s: %w", KillsFile, err)
	}
	kl := NewKillLog(f, logger)
	kl.closer = f
	return kl, nil
}

// Write appends one record.
func (kl *KillLog) Write(rec KillRecord) error {
	if kl == nil {
		return nil
	}
	kl.mu.Lock()
	defer kl.mu.Unlock()

	records := []KillRecord{rec}
	if !kl.headerWritten {
		if err := gocsv.Marshal(records, kl.w); err != nil {
			return fmt.Errorf("writing kill: %w", err)
		}
		kl.headerWritten = true
	} else if err := gocsv.MarshalWithoutHeaders(records, kl.w); err != nil {
		return fmt.Errorf("writing kill: %w", err)
	}
	kl.count++
	kl.rewards += rec.Reward
	return nil
}

// RecordKill implements combat.KillSink. Write failures are logged.
func (kl *KillLog) RecordKill(k combat.Kill) {
	if kl == nil {
		return
	}
	if err := kl.Write(FromKill(k)); err != nil {
		kl.logger.Warn("dropping kill record", zap.String("food", k.FoodID), zap.Error(err))
	}
}

// Count returns the number of records written.
func (kl *KillLog) Count() int {
	if kl == nil {
		return 0
	}
	kl.mu.Lock()
	defer kl.mu.Unlock()
	return kl.count
}

// Rewards returns the sum of rewards across written records.
func (kl *KillLog) Rewards() int {
	if kl == nil {
		return 0
	}
	kl.mu.Lock()
	defer kl.mu.Unlock()
	return kl.rewards
}

// Close closes the underlying file when the log owns one.
func (kl *KillLog) Close() error {
	if kl == nil || kl.closer == nil {
		return nil
	}
	kl.mu.Lock()
	defer kl.mu.Unlock()
	return kl.closer.Close()
}

// ReadKills parses a kills CSV stream.
func ReadKills(r io.Reader) ([]KillRecord, error) {
	var out []KillRecord
	if err := gocsv.Unmarshal(r, &out); err != nil {
		return nil, fmt.Errorf("telemetry.ReadKills: %w", err)
	}
	return out, nil
}
