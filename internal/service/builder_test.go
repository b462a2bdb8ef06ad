package service

import (
	"testing"

	"medication-service/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSchedule_ExpandsPerTimingLabel(t *testing.T) {
	med := &entity.Medicine{
		ID:     uuid.New(),
		Name:   "Metformin 500mg",
		Dosage: "1 tablet",
		Timing: []entity.TimingLabel{entity.TimingMorning, entity.TimingEvening},
	}

	entries := BuildSchedule([]*entity.Medicine{med}, nil)
	require.Len(t, entries, 2)

	assert.Equal(t, "08:00 AM", entries[0].ScheduledTime)
	assert.Equal(t, "09:00 PM", entries[1].ScheduledTime)
	for _, entry := range entries {
		assert.Equal(t, med.ID, entry.MedicineID)
		assert.Equal(t, "Metformin 500mg", entry.Name)
		assert.Equal(t, entity.StatusPending, entry.Status)
	}
}

func TestBuildSchedule_ExplicitTimeOverridesDefault(t *testing.T) {
	med := &entity.Medicine{
		ID:     uuid.New(),
		Name:   "Amlodipine",
		Timing: []entity.TimingLabel{entity.TimingMorning},
		ScheduledTimes: map[entity.TimingLabel]string{
			entity.TimingMorning: "06:30",
		},
	}

	entries := BuildSchedule([]*entity.Medicine{med}, nil)
	require.Len(t, entries, 1)
	assert.Equal(t, "06:30 AM", entries[0].ScheduledTime)
}

func TestBuildSchedule_MalformedExplicitTimeFallsBack(t *testing.T) {
	med := &entity.Medicine{
		ID:     uuid.New(),
		Name:   "Amlodipine",
		Timing: []entity.TimingLabel{entity.TimingAfternoon},
		ScheduledTimes: map[entity.TimingLabel]string{
			entity.TimingAfternoon: "25:99",
		},
	}

	entries := BuildSchedule([]*entity.Medicine{med}, nil)
	require.Len(t, entries, 1)
	assert.Equal(t, "02:00 PM", entries[0].ScheduledTime)
}

func TestBuildSchedule_SortedByTimeOfDay(t *testing.T) {
	evening := &entity.Medicine{
		ID:     uuid.New(),
		Name:   "Evening med",
		Timing: []entity.TimingLabel{entity.TimingEvening},
	}
	morning := &entity.Medicine{
		ID:     uuid.New(),
		Name:   "Morning med",
		Timing: []entity.TimingLabel{entity.TimingMorning},
	}
	afternoon := &entity.Medicine{
		ID:     uuid.New(),
		Name:   "Afternoon med",
		Timing: []entity.TimingLabel{entity.TimingAfternoon},
	}

	entries := BuildSchedule([]*entity.Medicine{evening, morning, afternoon}, nil)
	require.Len(t, entries, 3)
	assert.Equal(t, "Morning med", entries[0].Name)
	assert.Equal(t, "Afternoon med", entries[1].Name)
	assert.Equal(t, "Evening med", entries[2].Name)
}

func TestBuildSchedule_NoTimingLabelsNoEntries(t *testing.T) {
	med := &entity.Medicine{ID: uuid.New(), Name: "Unscheduled"}
	entries := BuildSchedule([]*entity.Medicine{med}, nil)
	assert.Empty(t, entries)
}

func TestBuildSchedule_RestoresTodayStatuses(t *testing.T) {
	med := &entity.Medicine{
		ID:     uuid.New(),
		Name:   "Metformin",
		Timing: []entity.TimingLabel{entity.TimingMorning, entity.TimingEvening},
	}

	todayLogs := map[string]entity.EntryStatus{
		entity.SlotKey(med.ID, "08:00 AM"): entity.StatusTaken,
	}

	entries := BuildSchedule([]*entity.Medicine{med}, todayLogs)
	require.Len(t, entries, 2)
	assert.Equal(t, entity.StatusTaken, entries[0].Status)
	assert.Equal(t, entity.StatusPending, entries[1].Status)
}

func TestBuildSchedule_DuplicateSlotsShareRestoredStatus(t *testing.T) {
	// Two labels resolving to the same clock time share a slot key, so a
	// restored status applies to both.
	med := &entity.Medicine{
		ID:     uuid.New(),
		Name:   "Metformin",
		Timing: []entity.TimingLabel{entity.TimingMorning, entity.TimingAfternoon},
		ScheduledTimes: map[entity.TimingLabel]string{
			entity.TimingMorning:   "08:00",
			entity.TimingAfternoon: "08:00",
		},
	}

	todayLogs := map[string]entity.EntryStatus{
		entity.SlotKey(med.ID, "08:00 AM"): entity.StatusSkipped,
	}

	entries := BuildSchedule([]*entity.Medicine{med}, todayLogs)
	require.Len(t, entries, 2)
	assert.Equal(t, entity.StatusSkipped, entries[0].Status)
	assert.Equal(t, entity.StatusSkipped, entries[1].Status)
}
