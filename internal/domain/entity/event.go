package entity

import (
	"time"

	"github.com/google/uuid"
)

// EventType identifies the kind of medication event published to the stream.
type EventType string

const (
	EventMedicationTaken   EventType = "medication.taken"
	EventMedicationSkipped EventType = "medication.skipped"
	EventMedicationMissed  EventType = "medication.missed"
)

// MedicationEvent is the payload published to Kafka whenever a schedule entry
// changes status. Consumers drive the caregiver alert pipeline from it.
type MedicationEvent struct {
	EventID       string      `json:"event_id"`
	Type          EventType   `json:"type"`
	UserID        string      `json:"user_id"`
	MedicineID    uuid.UUID   `json:"medicine_id"`
	Name          string      `json:"name"`
	Dosage        string      `json:"dosage"`
	ScheduledTime string      `json:"scheduled_time"`
	Status        EntryStatus `json:"status"`
	OccurredAt    time.Time   `json:"occurred_at"`
}

// EventTypeForStatus maps a terminal entry status to its event type.
func EventTypeForStatus(status EntryStatus) EventType {
	switch status {
	case StatusTaken:
		return EventMedicationTaken
	case StatusSkipped:
		return EventMedicationSkipped
	default:
		return EventMedicationMissed
	}
}
