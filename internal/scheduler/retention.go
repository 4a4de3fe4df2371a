// Package scheduler runs the cron-driven maintenance of the engine:
// pruning finished scans and their execution logs past the retention age.
package scheduler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/flowsint/flowsint/internal/common"
	"github.com/flowsint/flowsint/internal/interfaces"
)

// Retention prunes finished scans and stale execution logs on a schedule
type Retention struct {
	scans  interfaces.ScanStorage
	config *common.Config
	logger arbor.ILogger
	cron   *cron.Cron
}

// NewRetention creates the retention scheduler
func NewRetention(scans interfaces.ScanStorage, config *common.Config, logger arbor.ILogger) *Retention {
	return &Retention{
		scans:  scans,
		config: config,
		logger: logger,
	}
}

// Start registers the cron entry. Disabled retention is a no-op.
func (r *Retention) Start() error {
	if !r.config.Retention.Enabled {
		r.logger.Debug().Msg("Retention scheduler disabled")
		return nil
	}

	maxAge, err := time.ParseDuration(r.config.Retention.MaxAge)
	if err != nil {
		return fmt.Errorf("invalid retention max_age %q: %w", r.config.Retention.MaxAge, err)
	}

	r.cron = cron.New()
	_, err = r.cron.AddFunc(r.config.Retention.Schedule, func() {
		r.sweep(maxAge)
	})
	if err != nil {
		return fmt.Errorf("invalid retention schedule %q: %w", r.config.Retention.Schedule, err)
	}

	r.cron.Start()
	r.logger.Info().
		Str("schedule", r.config.Retention.Schedule).
		Str("max_age", r.config.Retention.MaxAge).
		Msg("Retention scheduler started")
	return nil
}

// Stop halts the scheduler and waits for a running sweep
func (r *Retention) Stop() {
	if r.cron != nil {
		ctx := r.cron.Stop()
		<-ctx.Done()
	}
}

func (r *Retention) sweep(maxAge time.Duration) {
	cutoff := time.Now().Add(-maxAge)

	deleted, err := r.scans.DeleteScansBefore(context.Background(), cutoff)
	if err != nil {
		r.logger.Error().Err(err).Msg("Retention sweep failed")
		return
	}

	logsRemoved := r.pruneLogs(cutoff)

	r.logger.Info().
		Int("scans_deleted", deleted).
		Int("logs_deleted", logsRemoved).
		Msg("Retention sweep completed")
}

// pruneLogs removes execution log files older than the cutoff
func (r *Retention) pruneLogs(cutoff time.Time) int {
	entries, err := os.ReadDir(r.config.Engine.LogDir)
	if err != nil {
		return 0
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), "enricher_execution_") {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(r.config.Engine.LogDir, entry.Name())); err != nil {
			r.logger.Warn().Err(err).Str("file", entry.Name()).Msg("Failed to delete stale execution log")
			continue
		}
		removed++
	}
	return removed
}
