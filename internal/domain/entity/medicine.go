package entity

import (
	"time"

	"github.com/google/uuid"
)

// TimingLabel denotes a dosing slot within the day.
type TimingLabel string

const (
	TimingMorning   TimingLabel = "morning"
	TimingAfternoon TimingLabel = "afternoon"
	TimingEvening   TimingLabel = "evening"
)

// DefaultSlotTimes maps each timing label to the clock time used when a
// medicine carries no explicit time for that label.
var DefaultSlotTimes = map[TimingLabel]string{
	TimingMorning:   "08:00 AM",
	TimingAfternoon: "02:00 PM",
	TimingEvening:   "09:00 PM",
}

// IsValid reports whether the label belongs to the fixed vocabulary.
func (l TimingLabel) IsValid() bool {
	_, ok := DefaultSlotTimes[l]
	return ok
}

// Medicine represents a user's medicine record as stored by the document
// store: the prescription extraction service fills these best-effort, so any
// field other than identity may be empty.
type Medicine struct {
	ID     uuid.UUID
	UserID string

	Name   string
	Dosage string

	// Timing lists the dosing slots; ScheduledTimes optionally overrides the
	// default clock time per slot with a 24-hour "HH:MM" value.
	Timing         []TimingLabel
	ScheduledTimes map[TimingLabel]string

	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
