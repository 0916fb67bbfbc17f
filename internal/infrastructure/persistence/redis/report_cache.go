package redis

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/alem-hub/roster-insights/internal/domain/report"
)

const (
	// PrefixReport namespaces report bodies by id.
	PrefixReport = "report:id:"

	// PrefixFingerprint maps a roster fingerprint to the latest report id.
	PrefixFingerprint = "report:fp:"
)

// ReportKey returns the key holding the report with id.
func ReportKey(id uuid.UUID) string {
	return PrefixReport + id.String()
}

// FingerprintKey returns the key holding the report id for fingerprint.
func FingerprintKey(fp string) string {
	return PrefixFingerprint + fp
}

// ReportCache implements report.Cache. A miss is (nil, nil).
type ReportCache struct {
	cache *Cache
}

// NewReportCache creates a report cache over c.
func NewReportCache(c *Cache) *ReportCache {
	return &ReportCache{cache: c}
}

// Get returns the cached report with id.
func (rc *ReportCache) Get(ctx context.Context, id uuid.UUID) (*report.Report, error) {
	var r report.Report
	if err := rc.cache.Get(ctx, ReportKey(id), &r); err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, nil
		}
		return nil, err
	}
	return &r, nil
}

// GetByFingerprint follows the fingerprint pointer to a cached report.
func (rc *ReportCache) GetByFingerprint(ctx context.Context, fp string) (*report.Report, error) {
	var id uuid.UUID
	if err := rc.cache.Get(ctx, FingerprintKey(fp), &id); err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, nil
		}
		return nil, err
	}
	return rc.Get(ctx, id)
}

// Set stores r and points its fingerprint at it.
func (rc *ReportCache) Set(ctx context.Context, r *report.Report, ttl time.Duration) error {
	if r.Fingerprint == "" {
		return rc.cache.Set(ctx, ReportKey(r.ID), r, ttl)
	}
	return rc.cache.SetPair(ctx, ReportKey(r.ID), r, FingerprintKey(r.Fingerprint), r.ID, ttl)
}

// Invalidate drops the cached report and its fingerprint pointer.
func (rc *ReportCache) Invalidate(ctx context.Context, r *report.Report) error {
	return rc.cache.Delete(ctx, ReportKey(r.ID), FingerprintKey(r.Fingerprint))
}

var _ report.Cache = (*ReportCache)(nil)
