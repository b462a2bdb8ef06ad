package entity

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ActionLog is one append-only record of a medication action. At most one log
// entry governs the current status for a given (user, medicine, scheduled
// time, day) tuple; repeated writes for the same slot overwrite.
type ActionLog struct {
	ID         string
	UserID     string
	MedicineID uuid.UUID
	Name       string
	Dosage     string

	ScheduledTime string
	Status        EntryStatus
	Date          string // calendar day, "2006-01-02"
	LoggedAt      time.Time
}

// NormalizeClock strips whitespace and colons from a clock string, producing
// the time component used in slot and store keys ("08:00 AM" -> "0800AM").
func NormalizeClock(clock string) string {
	r := strings.NewReplacer(" ", "", ":", "")
	return r.Replace(clock)
}

// SlotKey identifies a (medicine, scheduled time) slot within one day. It is
// the key under which today's statuses are restored at schedule build time.
func SlotKey(medicineID uuid.UUID, scheduledTime string) string {
	return fmt.Sprintf("%s_%s", medicineID, NormalizeClock(scheduledTime))
}

// StoreKey is the deterministic document ID for a log write, making repeated
// writes for the same slot last-write-wins rather than duplicates.
func StoreKey(userID string, medicineID uuid.UUID, scheduledTime, date string) string {
	return fmt.Sprintf("%s_%s_%s_%s", userID, medicineID, NormalizeClock(scheduledTime), date)
}
