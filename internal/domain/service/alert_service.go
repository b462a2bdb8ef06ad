package service

import (
	"context"

	"medication-service/internal/domain/entity"
)

// AlertService reacts to medication events from the stream, escalating
// missed doses to the configured caregiver contact.
type AlertService interface {
	// HandleMedicationEvent processes one event from the stream
	HandleMedicationEvent(ctx context.Context, event *entity.MedicationEvent) error
}
