package service

import (
	"errors"
	"fmt"
)

// ErrEntryNotFound indicates a schedule operation referenced an unknown entry
// or a user without a loaded schedule session.
var ErrEntryNotFound = errors.New("schedule entry not found")

// OutsideWindowError is the refusal returned when a "taken" confirmation
// arrives outside the permitted dosing window. It is a normal outcome of the
// Take contract, not a failure: the entry's status is left unchanged and the
// caller surfaces the message as a warning.
type OutsideWindowError struct {
	Name          string
	Dosage        string
	ScheduledTime string
	CurrentTime   string
	WindowMinutes int
}

func (e *OutsideWindowError) Error() string {
	return fmt.Sprintf("%s %s is scheduled at %s, current time is %s: take it within %d minutes of the scheduled time",
		e.Name, e.Dosage, e.ScheduledTime, e.CurrentTime, e.WindowMinutes)
}
