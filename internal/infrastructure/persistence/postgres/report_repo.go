package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/alem-hub/roster-insights/internal/domain/report"
	"github.com/alem-hub/roster-insights/internal/domain/shared"
)

// ReportRepository implements report.Repository. The report body is stored
// as JSONB; summary columns exist for listing and retention.
type ReportRepository struct {
	conn *Connection
}

// NewReportRepository creates a repository over conn.
func NewReportRepository(conn *Connection) *ReportRepository {
	return &ReportRepository{conn: conn}
}

// Save upserts r.
func (r *ReportRepository) Save(ctx context.Context, rep *report.Report) error {
	ctx, cancel := r.conn.withTimeout(ctx)
	defer cancel()

	payload, err := json.Marshal(rep)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}

	_, err = r.conn.Exec(ctx, `
		INSERT INTO roster_reports (id, fingerprint, row_count, class_count, conflict_total, broken_pairs, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			fingerprint = EXCLUDED.fingerprint,
			row_count = EXCLUDED.row_count,
			class_count = EXCLUDED.class_count,
			conflict_total = EXCLUDED.conflict_total,
			broken_pairs = EXCLUDED.broken_pairs,
			payload = EXCLUDED.payload`,
		rep.ID,
		rep.Fingerprint,
		rep.RowCount,
		rep.ClassCount(),
		rep.ConflictTotal(),
		len(rep.BrokenPairs),
		payload,
		rep.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	return nil
}

// GetByID loads a report.
func (r *ReportRepository) GetByID(ctx context.Context, id uuid.UUID) (*report.Report, error) {
	ctx, cancel := r.conn.withTimeout(ctx)
	defer cancel()

	return r.scanOne(r.conn.QueryRow(ctx, `SELECT payload FROM roster_reports WHERE id = $1`, id))
}

// GetLatestByFingerprint loads the newest report for fingerprint.
func (r *ReportRepository) GetLatestByFingerprint(ctx context.Context, fingerprint string) (*report.Report, error) {
	ctx, cancel := r.conn.withTimeout(ctx)
	defer cancel()

	return r.scanOne(r.conn.QueryRow(ctx, `
		SELECT payload FROM roster_reports
		WHERE fingerprint = $1
		ORDER BY created_at DESC
		LIMIT 1`, fingerprint))
}

// DeleteOlderThan removes reports created before cutoff.
func (r *ReportRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	ctx, cancel := r.conn.withTimeout(ctx)
	defer cancel()

	tag, err := r.conn.Exec(ctx, `DELETE FROM roster_reports WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old reports: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *ReportRepository) scanOne(row rowScanner) (*report.Report, error) {
	var payload []byte
	if err := row.Scan(&payload); err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrReportNotFound
		}
		return nil, fmt.Errorf("failed to load report: %w", err)
	}
	return decodeReport(payload)
}

func decodeReport(payload []byte) (*report.Report, error) {
	var rep report.Report
	if err := json.Unmarshal(payload, &rep); err != nil {
		return nil, fmt.Errorf("failed to decode report: %w", err)
	}
	return &rep, nil
}

var _ report.Repository = (*ReportRepository)(nil)
