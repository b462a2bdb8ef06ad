package service

import (
	"context"

	"medication-service/internal/domain/entity"

	"github.com/google/uuid"
)

// MedicineService defines the interface for medicine record management
type MedicineService interface {
	// CreateMedicine creates a new medicine record for a user
	CreateMedicine(ctx context.Context, userID, name, dosage string,
		timing []entity.TimingLabel, scheduledTimes map[entity.TimingLabel]string) (*entity.Medicine, error)

	// GetMedicine retrieves a medicine by ID
	GetMedicine(ctx context.Context, medicineID uuid.UUID) (*entity.Medicine, error)

	// ListMedicines retrieves all medicines for a user
	ListMedicines(ctx context.Context, userID string, activeOnly bool) ([]*entity.Medicine, error)

	// UpdateMedicine updates name, dosage and schedule spec of a medicine
	UpdateMedicine(ctx context.Context, medicineID uuid.UUID, name, dosage *string,
		timing []entity.TimingLabel, scheduledTimes map[entity.TimingLabel]string) (*entity.Medicine, error)

	// DeactivateMedicine soft deletes a medicine
	DeactivateMedicine(ctx context.Context, medicineID uuid.UUID) error

	// ImportExtracted stores medicine records produced by the prescription
	// extraction service, tolerating missing fields
	ImportExtracted(ctx context.Context, userID string, extracted []*entity.Medicine) ([]*entity.Medicine, error)
}
