// Package command contains write operations (CQRS - Commands).
// Commands are responsible for changing the state of the system.
package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alem-hub/roster-insights/internal/domain/relations"
	"github.com/alem-hub/roster-insights/internal/domain/report"
	"github.com/alem-hub/roster-insights/internal/domain/roster"
	"github.com/alem-hub/roster-insights/internal/domain/shared"
	"github.com/alem-hub/roster-insights/internal/domain/stats"
	"github.com/alem-hub/roster-insights/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// ANALYZE ROSTER COMMAND
// Turns a finished class-assignment table into a stored report: per-class
// statistics, broken mutual friendships and same-class conflicts.
// ══════════════════════════════════════════════════════════════════════════════

// AnalyzeRosterCommand contains the table to analyze.
type AnalyzeRosterCommand struct {
	// Table is the roster as uploaded.
	Table *roster.Table

	// SkipCache forces a fresh analysis even when an identical table was
	// analyzed before.
	SkipCache bool
}

// AnalyzeRosterResult contains the produced report.
type AnalyzeRosterResult struct {
	Report *report.Report

	// Cached is true when the report was found by fingerprint instead of
	// being computed.
	Cached bool
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// AnalyzeRosterHandler handles AnalyzeRosterCommand.
type AnalyzeRosterHandler struct {
	repo  report.Repository
	cache report.Cache // optional
	log   *logger.Logger

	schema   roster.Schema
	cacheTTL time.Duration
	maxRows  int
	now      func() time.Time
}

// AnalyzeRosterHandlerConfig contains configuration for the handler.
type AnalyzeRosterHandlerConfig struct {
	Schema   roster.Schema
	CacheTTL time.Duration

	// MaxRows rejects larger rosters; 0 disables the limit.
	MaxRows int
}

// DefaultAnalyzeRosterHandlerConfig returns default configuration.
func DefaultAnalyzeRosterHandlerConfig() AnalyzeRosterHandlerConfig {
	return AnalyzeRosterHandlerConfig{
		Schema:   roster.DefaultSchema(),
		CacheTTL: 24 * time.Hour,
		MaxRows:  10000,
	}
}

// NewAnalyzeRosterHandler creates a new handler. cache may be nil.
func NewAnalyzeRosterHandler(
	repo report.Repository,
	cache report.Cache,
	log *logger.Logger,
	config AnalyzeRosterHandlerConfig,
) *AnalyzeRosterHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &AnalyzeRosterHandler{
		repo:     repo,
		cache:    cache,
		log:      log.With(logger.Component("analyze_roster")),
		schema:   config.Schema.WithDefaults(),
		cacheTTL: config.CacheTTL,
		maxRows:  config.MaxRows,
		now:      time.Now,
	}
}

// Schema returns the schema the handler analyzes with.
func (h *AnalyzeRosterHandler) Schema() roster.Schema {
	return h.schema
}

// Handle executes the command.
func (h *AnalyzeRosterHandler) Handle(ctx context.Context, cmd AnalyzeRosterCommand) (*AnalyzeRosterResult, error) {
	start := h.now()

	if err := h.validate(cmd.Table); err != nil {
		return nil, err
	}

	fingerprint := report.Fingerprint(cmd.Table, h.schema)
	log := h.log.With(logger.Fingerprint(fingerprint), logger.RowCount(cmd.Table.Len()))

	if !cmd.SkipCache {
		if cached := h.lookup(ctx, log, fingerprint); cached != nil {
			log.Info("roster already analyzed", logger.ReportID(cached.ID.String()), logger.CacheHit(true))
			return &AnalyzeRosterResult{Report: cached, Cached: true}, nil
		}
	}

	rep, err := h.analyze(ctx, cmd.Table, fingerprint)
	if err != nil {
		return nil, err
	}

	if err := h.repo.Save(ctx, rep); err != nil {
		log.Error("failed to store report", logger.ReportID(rep.ID.String()), logger.Err(err))
		return nil, shared.WrapError("command", "AnalyzeRoster", shared.ErrExternalService, "store report", err)
	}

	if h.cache != nil {
		if err := h.cache.Set(ctx, rep, h.cacheTTL); err != nil {
			log.Warn("failed to cache report", logger.ReportID(rep.ID.String()), logger.Err(err))
		}
	}

	log.Info("roster analyzed",
		logger.ReportID(rep.ID.String()),
		logger.ClassCount(rep.ClassCount()),
		logger.Int("conflicts", rep.ConflictTotal()),
		logger.Int("broken_pairs", len(rep.BrokenPairs)),
		logger.Latency(h.now().Sub(start)),
	)

	return &AnalyzeRosterResult{Report: rep}, nil
}

func (h *AnalyzeRosterHandler) validate(t *roster.Table) error {
	if t == nil {
		return shared.ErrEmptyTable
	}
	if err := t.Validate(); err != nil {
		return err
	}
	if t.Len() == 0 {
		return shared.ErrEmptyTable
	}
	if h.maxRows > 0 && t.Len() > h.maxRows {
		return shared.WrapError("command", "AnalyzeRoster", shared.ErrTooLarge,
			fmt.Sprintf("%d rows, limit %d", t.Len(), h.maxRows), shared.ErrRosterTooLarge)
	}
	return nil
}

// lookup finds an earlier report for the same input. Lookup failures are
// logged and treated as a miss.
func (h *AnalyzeRosterHandler) lookup(ctx context.Context, log *logger.Logger, fingerprint string) *report.Report {
	if h.cache != nil {
		rep, err := h.cache.GetByFingerprint(ctx, fingerprint)
		if err != nil {
			log.Warn("report cache lookup failed", logger.Err(err))
		} else if rep != nil {
			return rep
		}
	}

	rep, err := h.repo.GetLatestByFingerprint(ctx, fingerprint)
	switch {
	case err == nil:
		return rep
	case !errors.Is(err, shared.ErrNotFound):
		log.Warn("report lookup by fingerprint failed", logger.Err(err))
	}
	return nil
}

// analyze runs the engine. Conflict detection and the friendship audit read
// the same roster independently, so they run concurrently.
func (h *AnalyzeRosterHandler) analyze(ctx context.Context, t *roster.Table, fingerprint string) (*report.Report, error) {
	resolved, scenario, err := roster.ResolveScenarioColumn(t, h.schema)
	if err != nil {
		return nil, err
	}
	normalized, renames := roster.NormalizeHeaders(resolved, h.schema)
	r := roster.FromTable(normalized, h.schema)

	var (
		conflicts []relations.ConflictRecord
		pairs     []relations.BrokenPair
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		conflicts = relations.DetectConflicts(r)
		return gctx.Err()
	})
	g.Go(func() error {
		pairs = relations.FindBrokenPairs(r)
		return gctx.Err()
	})
	if err := g.Wait(); err != nil {
		return nil, shared.WrapError("command", "AnalyzeRoster", shared.ErrTimeout, "analysis interrupted", err)
	}

	rep := report.New(fingerprint, r.Len(), h.now())
	rep.ScenarioColumn = scenario
	rep.Renames = renames
	if missing := h.schema.MissingColumns(normalized); missing != nil {
		rep.MissingColumns = missing
	}
	rep.Statistics = stats.Merge(r, conflicts, pairs)
	rep.BrokenPairs = pairs
	rep.BrokenSummary = stats.BrokenSummary(pairs)
	rep.ConflictingStudents = stats.ConflictingStudents(r, conflicts)

	return rep, nil
}
