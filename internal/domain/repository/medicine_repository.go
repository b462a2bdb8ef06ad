package repository

import (
	"context"

	"medication-service/internal/domain/entity"

	"github.com/google/uuid"
)

// MedicineRepository defines the interface for medicine persistence
type MedicineRepository interface {
	// Create creates a new medicine record
	Create(ctx context.Context, medicine *entity.Medicine) error

	// GetByID retrieves a medicine by ID
	GetByID(ctx context.Context, medicineID uuid.UUID) (*entity.Medicine, error)

	// GetByUserID retrieves all medicines for a user
	GetByUserID(ctx context.Context, userID string, activeOnly bool) ([]*entity.Medicine, error)

	// Update updates a medicine record
	Update(ctx context.Context, medicine *entity.Medicine) error

	// Deactivate soft deletes a medicine (sets is_active = false)
	Deactivate(ctx context.Context, medicineID uuid.UUID) error
}
