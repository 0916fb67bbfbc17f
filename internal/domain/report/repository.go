package report

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPORT REPOSITORY INTERFACE
// ══════════════════════════════════════════════════════════════════════════════

// Repository определяет контракт хранения отчётов.
// Реализации: PostgreSQL (infrastructure/persistence/postgres) и in-memory.
type Repository interface {
	// Save сохраняет отчёт. Повторное сохранение того же ID перезаписывает его.
	Save(ctx context.Context, r *Report) error

	// GetByID возвращает отчёт по ID или shared.ErrReportNotFound.
	GetByID(ctx context.Context, id uuid.UUID) (*Report, error)

	// GetLatestByFingerprint возвращает самый свежий отчёт с таким отпечатком
	// или shared.ErrReportNotFound.
	GetLatestByFingerprint(ctx context.Context, fingerprint string) (*Report, error)

	// DeleteOlderThan удаляет отчёты, созданные раньше cutoff.
	// Возвращает количество удалённых отчётов.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}

// ══════════════════════════════════════════════════════════════════════════════
// REPORT CACHE INTERFACE
// ══════════════════════════════════════════════════════════════════════════════

// Cache определяет контракт кеширования отчётов (Redis).
// Промах кеша возвращает (nil, nil).
type Cache interface {
	// Get возвращает отчёт по ID.
	Get(ctx context.Context, id uuid.UUID) (*Report, error)

	// GetByFingerprint возвращает отчёт по отпечатку входной таблицы.
	GetByFingerprint(ctx context.Context, fingerprint string) (*Report, error)

	// Set кеширует отчёт под его ID и отпечатком.
	Set(ctx context.Context, r *Report, ttl time.Duration) error
}
