package service

import (
	"context"
	"fmt"
	"time"

	"medication-service/internal/domain/entity"
	"medication-service/internal/domain/repository"
	domainservice "medication-service/internal/domain/service"
	"medication-service/pkg/validation"

	"github.com/google/uuid"
)

type medicineService struct {
	medicineRepo repository.MedicineRepository
}

// NewMedicineService creates a new medicine service
func NewMedicineService(medicineRepo repository.MedicineRepository) domainservice.MedicineService {
	return &medicineService{medicineRepo: medicineRepo}
}

func (s *medicineService) CreateMedicine(ctx context.Context, userID, name, dosage string,
	timing []entity.TimingLabel, scheduledTimes map[entity.TimingLabel]string) (*entity.Medicine, error) {

	if err := validation.ValidateMedicineName(name); err != nil {
		return nil, err
	}
	if err := validation.ValidateDosage(dosage); err != nil {
		return nil, err
	}
	if err := validation.ValidateTiming(timing); err != nil {
		return nil, err
	}
	if err := validation.ValidateScheduledTimes(scheduledTimes); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	medicine := &entity.Medicine{
		ID:             uuid.New(),
		UserID:         userID,
		Name:           name,
		Dosage:         dosage,
		Timing:         timing,
		ScheduledTimes: scheduledTimes,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.medicineRepo.Create(ctx, medicine); err != nil {
		return nil, fmt.Errorf("failed to create medicine: %w", err)
	}

	return medicine, nil
}

func (s *medicineService) GetMedicine(ctx context.Context, medicineID uuid.UUID) (*entity.Medicine, error) {
	return s.medicineRepo.GetByID(ctx, medicineID)
}

func (s *medicineService) ListMedicines(ctx context.Context, userID string, activeOnly bool) ([]*entity.Medicine, error) {
	return s.medicineRepo.GetByUserID(ctx, userID, activeOnly)
}

func (s *medicineService) UpdateMedicine(ctx context.Context, medicineID uuid.UUID, name, dosage *string,
	timing []entity.TimingLabel, scheduledTimes map[entity.TimingLabel]string) (*entity.Medicine, error) {

	medicine, err := s.medicineRepo.GetByID(ctx, medicineID)
	if err != nil {
		return nil, err
	}

	if name != nil {
		if err := validation.ValidateMedicineName(*name); err != nil {
			return nil, err
		}
		medicine.Name = *name
	}
	if dosage != nil {
		if err := validation.ValidateDosage(*dosage); err != nil {
			return nil, err
		}
		medicine.Dosage = *dosage
	}
	if timing != nil {
		if err := validation.ValidateTiming(timing); err != nil {
			return nil, err
		}
		medicine.Timing = timing
	}
	if scheduledTimes != nil {
		if err := validation.ValidateScheduledTimes(scheduledTimes); err != nil {
			return nil, err
		}
		medicine.ScheduledTimes = scheduledTimes
	}

	medicine.UpdatedAt = time.Now().UTC()
	if err := s.medicineRepo.Update(ctx, medicine); err != nil {
		return nil, fmt.Errorf("failed to update medicine: %w", err)
	}

	return medicine, nil
}

func (s *medicineService) DeactivateMedicine(ctx context.Context, medicineID uuid.UUID) error {
	return s.medicineRepo.Deactivate(ctx, medicineID)
}

// ImportExtracted stores records produced by the prescription extraction
// service. Extraction is best-effort: records with a usable name are kept,
// missing dosages stay empty and unknown timing labels are dropped rather
// than rejecting the whole batch.
func (s *medicineService) ImportExtracted(ctx context.Context, userID string, extracted []*entity.Medicine) ([]*entity.Medicine, error) {
	var imported []*entity.Medicine

	for _, raw := range extracted {
		if validation.ValidateMedicineName(raw.Name) != nil {
			continue
		}

		timing := make([]entity.TimingLabel, 0, len(raw.Timing))
		for _, label := range raw.Timing {
			if label.IsValid() {
				timing = append(timing, label)
			}
		}

		scheduledTimes := make(map[entity.TimingLabel]string)
		for label, clock := range raw.ScheduledTimes {
			if label.IsValid() && validation.ValidateScheduledTimes(map[entity.TimingLabel]string{label: clock}) == nil {
				scheduledTimes[label] = clock
			}
		}

		medicine, err := s.CreateMedicine(ctx, userID, raw.Name, raw.Dosage, timing, scheduledTimes)
		if err != nil {
			return imported, fmt.Errorf("failed to import extracted medicine %q: %w", raw.Name, err)
		}
		imported = append(imported, medicine)
	}

	return imported, nil
}
