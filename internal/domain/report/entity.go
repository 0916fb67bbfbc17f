// Package report содержит доменную модель отчёта по распределению учеников.
package report

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/alem-hub/roster-insights/internal/domain/relations"
	"github.com/alem-hub/roster-insights/internal/domain/shared"
	"github.com/alem-hub/roster-insights/internal/domain/stats"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPORT ENTITY
// ══════════════════════════════════════════════════════════════════════════════

// Report - результат анализа одного ростера: статистика по классам,
// разорванные взаимные дружбы и ученики с конфликтами внутри класса.
// Отчёт неизменяем после создания.
type Report struct {
	// ID - уникальный идентификатор отчёта.
	ID uuid.UUID `json:"id"`

	// Fingerprint - отпечаток входной таблицы и схемы (см. Fingerprint).
	Fingerprint string `json:"fingerprint"`

	// CreatedAt - время создания.
	CreatedAt time.Time `json:"created_at"`

	// RowCount - количество строк ростера.
	RowCount int `json:"row_count"`

	// ScenarioColumn - колонка сценария, из которой взят класс (пусто, если не было).
	ScenarioColumn string `json:"scenario_column,omitempty"`

	// Renames - автоматические переименования колонок (старое -> новое).
	Renames map[string]string `json:"renames"`

	// MissingColumns - ожидаемые колонки, которых нет в таблице.
	MissingColumns []string `json:"missing_columns"`

	Statistics          *stats.Table               `json:"statistics"`
	BrokenPairs         []relations.BrokenPair     `json:"broken_pairs"`
	BrokenSummary       []stats.ClassCount         `json:"broken_summary"`
	ConflictingStudents []stats.ConflictingStudent `json:"conflicting_students"`
}

// New создаёт отчёт с новым ID.
func New(fingerprint string, rowCount int, createdAt time.Time) *Report {
	return &Report{
		ID:                  uuid.New(),
		Fingerprint:         fingerprint,
		CreatedAt:           createdAt.UTC(),
		RowCount:            rowCount,
		Renames:             map[string]string{},
		MissingColumns:      []string{},
		Statistics:          &stats.Table{AttributeKeys: []string{}, Classes: []stats.ClassStatistics{}},
		BrokenPairs:         []relations.BrokenPair{},
		BrokenSummary:       []stats.ClassCount{},
		ConflictingStudents: []stats.ConflictingStudent{},
	}
}

// ConflictTotal возвращает сумму конфликтов по всем классам.
func (r *Report) ConflictTotal() int {
	var n int
	for _, cs := range r.Statistics.Classes {
		n += cs.Conflicts
	}
	return n
}

// ClassCount возвращает количество классов в статистике.
func (r *Report) ClassCount() int {
	return len(r.Statistics.Classes)
}

// ExpiredAt проверяет, старше ли отчёт чем cutoff.
func (r *Report) ExpiredAt(cutoff time.Time) bool {
	return r.CreatedAt.Before(cutoff)
}

// ParseID разбирает строковый ID отчёта.
func ParseID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, shared.WrapError("report", "ParseID", shared.ErrInvalidInput, "invalid report ID", shared.ErrInvalidReportID)
	}
	return id, nil
}
