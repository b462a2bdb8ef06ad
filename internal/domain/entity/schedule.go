package entity

import (
	"github.com/google/uuid"
)

// EntryStatus represents the state of a schedule entry for the current day.
type EntryStatus string

const (
	StatusPending EntryStatus = "pending"
	StatusTaken   EntryStatus = "taken"
	StatusSkipped EntryStatus = "skipped"
	StatusMissed  EntryStatus = "missed"
)

// Terminal reports whether the status is absorbing for the rest of the day.
func (s EntryStatus) Terminal() bool {
	return s != StatusPending
}

// ScheduleEntry is one concrete (medicine, time-of-day) dosing obligation for
// the current calendar day. Entries are derived fresh on every schedule load
// and mutated in place by the state machine; Seq is stable only within a
// session.
type ScheduleEntry struct {
	Seq        int
	MedicineID uuid.UUID
	Name       string
	Dosage     string

	// ScheduledTime is a 12-hour clock string with AM/PM suffix.
	ScheduledTime string
	Status        EntryStatus
}
