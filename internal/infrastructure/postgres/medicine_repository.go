package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"medication-service/internal/domain/entity"
	"medication-service/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type medicineRepository struct {
	pool *pgxpool.Pool
}

// NewMedicineRepository creates a new PostgreSQL medicine repository
func NewMedicineRepository(pool *pgxpool.Pool) repository.MedicineRepository {
	return &medicineRepository{pool: pool}
}

func (r *medicineRepository) Create(ctx context.Context, medicine *entity.Medicine) error {
	scheduledTimes, err := json.Marshal(medicine.ScheduledTimes)
	if err != nil {
		return fmt.Errorf("failed to marshal scheduled times: %w", err)
	}

	query := `
		INSERT INTO medicines (
			id, user_id, name, dosage,
			timing, scheduled_times,
			is_active, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4,
			$5, $6,
			$7, $8, $9
		)
	`

	_, err = r.pool.Exec(ctx, query,
		medicine.ID, medicine.UserID, medicine.Name, medicine.Dosage,
		timingStrings(medicine.Timing), scheduledTimes,
		medicine.IsActive, medicine.CreatedAt, medicine.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create medicine: %w", err)
	}

	return nil
}

func (r *medicineRepository) GetByID(ctx context.Context, medicineID uuid.UUID) (*entity.Medicine, error) {
	query := `
		SELECT
			id, user_id, name, dosage,
			timing, scheduled_times,
			is_active, created_at, updated_at
		FROM medicines
		WHERE id = $1
	`

	medicine, err := scanMedicine(r.pool.QueryRow(ctx, query, medicineID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("medicine not found")
		}
		return nil, fmt.Errorf("failed to get medicine: %w", err)
	}

	return medicine, nil
}

func (r *medicineRepository) GetByUserID(ctx context.Context, userID string, activeOnly bool) ([]*entity.Medicine, error) {
	query := `
		SELECT
			id, user_id, name, dosage,
			timing, scheduled_times,
			is_active, created_at, updated_at
		FROM medicines
		WHERE user_id = $1
	`
	if activeOnly {
		query += ` AND is_active = true`
	}
	query += ` ORDER BY created_at`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list medicines: %w", err)
	}
	defer rows.Close()

	var medicines []*entity.Medicine
	for rows.Next() {
		medicine, err := scanMedicine(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan medicine: %w", err)
		}
		medicines = append(medicines, medicine)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate medicines: %w", err)
	}

	return medicines, nil
}

func (r *medicineRepository) Update(ctx context.Context, medicine *entity.Medicine) error {
	scheduledTimes, err := json.Marshal(medicine.ScheduledTimes)
	if err != nil {
		return fmt.Errorf("failed to marshal scheduled times: %w", err)
	}

	query := `
		UPDATE medicines SET
			name = $2, dosage = $3,
			timing = $4, scheduled_times = $5,
			is_active = $6, updated_at = $7
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query,
		medicine.ID, medicine.Name, medicine.Dosage,
		timingStrings(medicine.Timing), scheduledTimes,
		medicine.IsActive, medicine.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to update medicine: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("medicine not found")
	}

	return nil
}

func (r *medicineRepository) Deactivate(ctx context.Context, medicineID uuid.UUID) error {
	query := `UPDATE medicines SET is_active = false, updated_at = NOW() WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, medicineID)
	if err != nil {
		return fmt.Errorf("failed to deactivate medicine: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("medicine not found")
	}

	return nil
}

// rowScanner is satisfied by both pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanMedicine(row rowScanner) (*entity.Medicine, error) {
	medicine := &entity.Medicine{}
	var timing []string
	var scheduledTimes []byte

	err := row.Scan(
		&medicine.ID, &medicine.UserID, &medicine.Name, &medicine.Dosage,
		&timing, &scheduledTimes,
		&medicine.IsActive, &medicine.CreatedAt, &medicine.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	for _, label := range timing {
		medicine.Timing = append(medicine.Timing, entity.TimingLabel(label))
	}
	if len(scheduledTimes) > 0 {
		if err := json.Unmarshal(scheduledTimes, &medicine.ScheduledTimes); err != nil {
			return nil, fmt.Errorf("failed to unmarshal scheduled times: %w", err)
		}
	}

	return medicine, nil
}

func timingStrings(timing []entity.TimingLabel) []string {
	labels := make([]string, 0, len(timing))
	for _, label := range timing {
		labels = append(labels, string(label))
	}
	return labels
}
