package service

import (
	"context"

	"medication-service/internal/domain/entity"
)

// ScheduleMetrics are the derived read-only counters for a day's schedule.
type ScheduleMetrics struct {
	Done            int
	Missed          int
	Total           int
	PercentComplete float64
}

// ScheduleService owns the per-user daily schedule and its status state
// machine. Entries move pending -> taken | skipped | missed; every terminal
// status is absorbing for the rest of the day.
//
// Returned entries are snapshots. The live schedule is only mutated inside
// the service, so callers can hold and read what they were given without
// synchronizing against the miss sweep; transitions address entries by Seq.
type ScheduleService interface {
	// LoadSchedule builds (or rebuilds) today's schedule for a user from the
	// active medicine records, restoring statuses already logged today
	LoadSchedule(ctx context.Context, userID string) ([]*entity.ScheduleEntry, error)

	// Schedule returns the current in-memory schedule without rebuilding
	Schedule(userID string) ([]*entity.ScheduleEntry, bool)

	// Take marks an entry taken. Refused with an OutsideWindowError when the
	// current time is not within the confirmation window of the entry's
	// scheduled time; already-taken entries are a no-op
	Take(ctx context.Context, userID string, seq int) (*entity.ScheduleEntry, error)

	// ForceTake marks an entry taken without the dosing-window check. This
	// is the voice-confirmation path; whether voice confirmations bypass the
	// window is a configuration decision made by the caller
	ForceTake(ctx context.Context, userID string, seq int) (*entity.ScheduleEntry, error)

	// Skip marks an entry skipped, with no time-window check
	Skip(ctx context.Context, userID string, seq int) (*entity.ScheduleEntry, error)

	// NextUpNext returns the first pending entry whose scheduled time is no
	// more than the upcoming slack in the past, or nil
	NextUpNext(userID string) *entity.ScheduleEntry

	// Metrics returns done/missed/total counts and percent complete
	Metrics(userID string) ScheduleMetrics

	// SweepMissed transitions every pending entry past its grace period to
	// missed, across all loaded sessions
	SweepMissed(ctx context.Context)

	// Adherence returns the historical adherence percentage, e.g. "67%"
	Adherence(ctx context.Context, userID string) (string, error)

	// Unload discards a user's in-memory schedule session
	Unload(userID string)
}
