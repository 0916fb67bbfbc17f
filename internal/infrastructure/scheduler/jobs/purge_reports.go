// Package jobs contains the scheduled maintenance jobs.
package jobs

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/alem-hub/roster-insights/internal/domain/report"
	"github.com/alem-hub/roster-insights/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// PURGE REPORTS JOB
// ══════════════════════════════════════════════════════════════════════════════

// PurgeReportsJob deletes stored reports older than the retention window.
type PurgeReportsJob struct {
	repo   report.Repository
	log    *logger.Logger
	config PurgeReportsConfig
	now    func() time.Time

	lastRunStats atomic.Pointer[PurgeReportsStats]
}

// PurgeReportsConfig configures retention.
type PurgeReportsConfig struct {
	// Retention is how long a report is kept after creation.
	Retention time.Duration

	// Timeout bounds one run.
	Timeout time.Duration
}

// DefaultPurgeReportsConfig keeps reports for 30 days.
func DefaultPurgeReportsConfig() PurgeReportsConfig {
	return PurgeReportsConfig{
		Retention: 30 * 24 * time.Hour,
		Timeout:   time.Minute,
	}
}

// PurgeReportsStats describes the last run.
type PurgeReportsStats struct {
	StartedAt time.Time
	Cutoff    time.Time
	Deleted   int
}

// NewPurgeReportsJob creates the job. A nil clock uses time.Now.
func NewPurgeReportsJob(repo report.Repository, log *logger.Logger, config PurgeReportsConfig, now func() time.Time) *PurgeReportsJob {
	if log == nil {
		log = logger.Nop()
	}
	if now == nil {
		now = time.Now
	}
	return &PurgeReportsJob{
		repo:   repo,
		log:    log.With(logger.Component("purge_reports")),
		config: config,
		now:    now,
	}
}

// Name implements scheduler.Job.
func (j *PurgeReportsJob) Name() string { return "purge_reports" }

// Run implements scheduler.Job.
func (j *PurgeReportsJob) Run(ctx context.Context) error {
	if j.config.Retention <= 0 {
		return nil
	}
	if j.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.config.Timeout)
		defer cancel()
	}

	started := j.now().UTC()
	cutoff := started.Add(-j.config.Retention)

	deleted, err := j.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("purge reports before %s: %w", cutoff.Format(time.RFC3339), err)
	}

	j.lastRunStats.Store(&PurgeReportsStats{StartedAt: started, Cutoff: cutoff, Deleted: deleted})
	if deleted > 0 {
		j.log.Info("expired reports purged", logger.Int("deleted", deleted), logger.Time("cutoff", cutoff))
	}
	return nil
}

// LastRunStats returns the stats of the last successful run, or nil.
func (j *PurgeReportsJob) LastRunStats() *PurgeReportsStats {
	return j.lastRunStats.Load()
}
