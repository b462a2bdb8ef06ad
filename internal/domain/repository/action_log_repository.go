package repository

import (
	"context"

	"medication-service/internal/domain/entity"
)

// ActionLogRepository defines the interface for the append-only action log.
// Writes are keyed by the deterministic store key, so repeating a write for
// the same (user, medicine, time, day) slot overwrites rather than duplicates.
type ActionLogRepository interface {
	// Upsert writes a log entry, replacing any previous entry for the slot
	Upsert(ctx context.Context, log *entity.ActionLog) error

	// GetTodayByUser returns today's statuses keyed by slot key
	// ("<medicineID>_<normalized time>")
	GetTodayByUser(ctx context.Context, userID string, date string) (map[string]entity.EntryStatus, error)

	// GetAllByUser retrieves the complete log history for a user
	GetAllByUser(ctx context.Context, userID string) ([]*entity.ActionLog, error)
}
