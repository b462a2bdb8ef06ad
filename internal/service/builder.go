package service

import (
	"sort"

	"medication-service/internal/domain/entity"
	"medication-service/internal/timeutil"
)

// BuildSchedule expands a user's active medicine records into today's
// time-ordered schedule, merging in statuses already logged today.
//
// One entry is emitted per (medicine, timing label) pair: the explicit
// per-label 24-hour time wins when present and parseable, otherwise the
// label's default applies. A medicine with no timing labels produces no
// entries. This is a pure transform of its two inputs.
func BuildSchedule(medicines []*entity.Medicine, todayLogs map[string]entity.EntryStatus) []*entity.ScheduleEntry {
	var entries []*entity.ScheduleEntry

	seq := 1
	for _, med := range medicines {
		for _, label := range med.Timing {
			entries = append(entries, &entity.ScheduleEntry{
				Seq:           seq,
				MedicineID:    med.ID,
				Name:          med.Name,
				Dosage:        med.Dosage,
				ScheduledTime: resolveSlotTime(med, label),
				Status:        entity.StatusPending,
			})
			seq++
		}
	}

	// Ascending by time of day; unparseable times sort last. The order is
	// fixed at build time and never re-applied after mutation.
	sort.SliceStable(entries, func(i, j int) bool {
		return slotMinutes(entries[i]) < slotMinutes(entries[j])
	})

	for _, entry := range entries {
		key := entity.SlotKey(entry.MedicineID, entry.ScheduledTime)
		if status, ok := todayLogs[key]; ok {
			entry.Status = status
		}
	}

	return entries
}

// resolveSlotTime resolves the display clock time for one dosing slot.
func resolveSlotTime(med *entity.Medicine, label entity.TimingLabel) string {
	if explicit, ok := med.ScheduledTimes[label]; ok && explicit != "" {
		if clock, err := timeutil.To12Hour(explicit); err == nil {
			return clock
		}
	}
	if clock, ok := entity.DefaultSlotTimes[label]; ok {
		return clock
	}
	return entity.DefaultSlotTimes[entity.TimingMorning]
}

func slotMinutes(entry *entity.ScheduleEntry) int {
	minutes, err := timeutil.ToMinutes(entry.ScheduledTime)
	if err != nil {
		return 24 * 60
	}
	return minutes
}
