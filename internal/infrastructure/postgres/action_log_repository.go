package postgres

import (
	"context"
	"fmt"

	"medication-service/internal/domain/entity"
	"medication-service/internal/domain/repository"

	"github.com/jackc/pgx/v5/pgxpool"
)

type actionLogRepository struct {
	pool *pgxpool.Pool
}

// NewActionLogRepository creates a new PostgreSQL action log repository
func NewActionLogRepository(pool *pgxpool.Pool) repository.ActionLogRepository {
	return &actionLogRepository{pool: pool}
}

// Upsert writes a log entry under its deterministic slot ID. A repeated
// write for the same (user, medicine, time, day) slot replaces the previous
// status: last write wins.
func (r *actionLogRepository) Upsert(ctx context.Context, log *entity.ActionLog) error {
	query := `
		INSERT INTO medication_logs (
			id, user_id, medicine_id, name, dosage,
			scheduled_time, status, log_date, logged_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9
		)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			logged_at = EXCLUDED.logged_at
	`

	_, err := r.pool.Exec(ctx, query,
		log.ID, log.UserID, log.MedicineID, log.Name, log.Dosage,
		log.ScheduledTime, log.Status, log.Date, log.LoggedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to write action log: %w", err)
	}

	return nil
}

func (r *actionLogRepository) GetTodayByUser(ctx context.Context, userID string, date string) (map[string]entity.EntryStatus, error) {
	query := `
		SELECT medicine_id, scheduled_time, status
		FROM medication_logs
		WHERE user_id = $1 AND log_date = $2
	`

	rows, err := r.pool.Query(ctx, query, userID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to get today's logs: %w", err)
	}
	defer rows.Close()

	logs := make(map[string]entity.EntryStatus)
	for rows.Next() {
		var log entity.ActionLog
		if err := rows.Scan(&log.MedicineID, &log.ScheduledTime, &log.Status); err != nil {
			return nil, fmt.Errorf("failed to scan log: %w", err)
		}
		logs[entity.SlotKey(log.MedicineID, log.ScheduledTime)] = log.Status
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate logs: %w", err)
	}

	return logs, nil
}

func (r *actionLogRepository) GetAllByUser(ctx context.Context, userID string) ([]*entity.ActionLog, error) {
	query := `
		SELECT
			id, user_id, medicine_id, name, dosage,
			scheduled_time, status, log_date, logged_at
		FROM medication_logs
		WHERE user_id = $1
		ORDER BY logged_at
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get logs: %w", err)
	}
	defer rows.Close()

	var logs []*entity.ActionLog
	for rows.Next() {
		log := &entity.ActionLog{}
		err := rows.Scan(
			&log.ID, &log.UserID, &log.MedicineID, &log.Name, &log.Dosage,
			&log.ScheduledTime, &log.Status, &log.Date, &log.LoggedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan log: %w", err)
		}
		logs = append(logs, log)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate logs: %w", err)
	}

	return logs, nil
}
