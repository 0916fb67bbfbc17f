// Package query contains read operations (CQRS - Queries).
package query

import (
	"context"
	"time"

	"github.com/alem-hub/roster-insights/internal/domain/report"
	"github.com/alem-hub/roster-insights/internal/domain/roster"
	"github.com/alem-hub/roster-insights/internal/domain/shared"
	"github.com/alem-hub/roster-insights/internal/domain/stats"
	"github.com/alem-hub/roster-insights/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET REPORT QUERY
// Возвращает сохранённый отчёт: сначала из кеша, затем из репозитория.
// ══════════════════════════════════════════════════════════════════════════════

// GetReportQuery содержит параметры запроса отчёта.
type GetReportQuery struct {
	// ReportID - ID отчёта в строковом виде (UUID).
	ReportID string
}

// GetReportResult содержит найденный отчёт.
type GetReportResult struct {
	Report *report.Report

	// FromCache - отчёт взят из кеша.
	FromCache bool
}

// GetReportHandler обрабатывает запросы на получение отчёта.
type GetReportHandler struct {
	repo     report.Repository
	cache    report.Cache
	cacheTTL time.Duration
	log      *logger.Logger
}

// NewGetReportHandler создаёт новый обработчик. cache может быть nil.
func NewGetReportHandler(repo report.Repository, cache report.Cache, cacheTTL time.Duration, log *logger.Logger) *GetReportHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &GetReportHandler{
		repo:     repo,
		cache:    cache,
		cacheTTL: cacheTTL,
		log:      log.With(logger.Component("get_report")),
	}
}

// Handle выполняет запрос.
func (h *GetReportHandler) Handle(ctx context.Context, q GetReportQuery) (*GetReportResult, error) {
	id, err := report.ParseID(q.ReportID)
	if err != nil {
		return nil, err
	}

	// Кеш: ошибки не фатальны, идём в репозиторий
	if h.cache != nil {
		rep, err := h.cache.Get(ctx, id)
		if err != nil {
			h.log.Warn("report cache read failed", logger.ReportID(id.String()), logger.Err(err))
		} else if rep != nil {
			return &GetReportResult{Report: rep, FromCache: true}, nil
		}
	}

	rep, err := h.repo.GetByID(ctx, id)
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, err
		}
		return nil, shared.WrapError("query", "GetReport", shared.ErrExternalService, "load report", err)
	}

	// Прогреваем кеш
	if h.cache != nil {
		if err := h.cache.Set(ctx, rep, h.cacheTTL); err != nil {
			h.log.Warn("failed to warm report cache", logger.ReportID(id.String()), logger.Err(err))
		}
	}

	return &GetReportResult{Report: rep}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// GET TABLE QUERY
// Плоские таблицы отчёта: статистика, конфликты, разорванные дружбы.
// ══════════════════════════════════════════════════════════════════════════════

// TableKind - вид плоской таблицы отчёта.
type TableKind string

const (
	TableStatistics  TableKind = "statistics"
	TableConflicts   TableKind = "conflicts"
	TableBrokenPairs TableKind = "broken-pairs"
)

// GetTable возвращает выбранную таблицу отчёта в плоском виде.
func (h *GetReportHandler) GetTable(ctx context.Context, q GetReportQuery, kind TableKind) (*roster.Table, error) {
	res, err := h.Handle(ctx, q)
	if err != nil {
		return nil, err
	}
	return FlatTable(res.Report, kind)
}

// FlatTable рендерит таблицу kind из готового отчёта.
func FlatTable(rep *report.Report, kind TableKind) (*roster.Table, error) {
	switch kind {
	case TableStatistics:
		return rep.Statistics.Flat(), nil
	case TableConflicts:
		return stats.FlatConflictingStudents(rep.ConflictingStudents), nil
	case TableBrokenPairs:
		return stats.FlatBrokenPairs(rep.BrokenPairs), nil
	default:
		return nil, shared.NewDomainError("query", "GetTable", shared.ErrInvalidInput, "unknown table "+string(kind))
	}
}

// GetStatisticsTable возвращает статистику отчёта в виде плоской таблицы.
func (h *GetReportHandler) GetStatisticsTable(ctx context.Context, q GetReportQuery) (*roster.Table, error) {
	return h.GetTable(ctx, q, TableStatistics)
}
