// Package memory provides an in-process report store, used when no database
// is configured and in tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/alem-hub/roster-insights/internal/domain/report"
	"github.com/alem-hub/roster-insights/internal/domain/shared"
)

// ReportStore implements report.Repository in memory.
type ReportStore struct {
	mu      sync.RWMutex
	reports map[uuid.UUID]*report.Report
}

// NewReportStore creates an empty store.
func NewReportStore() *ReportStore {
	return &ReportStore{reports: make(map[uuid.UUID]*report.Report)}
}

// Save stores r, replacing any report with the same ID.
func (s *ReportStore) Save(ctx context.Context, r *report.Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports[r.ID] = r
	return nil
}

// GetByID returns the report with id.
func (s *ReportStore) GetByID(ctx context.Context, id uuid.UUID) (*report.Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reports[id]
	if !ok {
		return nil, shared.ErrReportNotFound
	}
	return r, nil
}

// GetLatestByFingerprint returns the newest report with fingerprint.
func (s *ReportStore) GetLatestByFingerprint(ctx context.Context, fingerprint string) (*report.Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *report.Report
	for _, r := range s.reports {
		if r.Fingerprint != fingerprint {
			continue
		}
		if latest == nil || r.CreatedAt.After(latest.CreatedAt) {
			latest = r
		}
	}
	if latest == nil {
		return nil, shared.ErrReportNotFound
	}
	return latest, nil
}

// DeleteOlderThan removes reports created before cutoff.
func (s *ReportStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int
	for id, r := range s.reports {
		if r.ExpiredAt(cutoff) {
			delete(s.reports, id)
			n++
		}
	}
	return n, nil
}

// Len returns the number of stored reports.
func (s *ReportStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.reports)
}

var _ report.Repository = (*ReportStore)(nil)
