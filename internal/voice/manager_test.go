package voice

import (
	"testing"

	"medication-service/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestManager(schedule *fakeSchedule) *Manager {
	return NewManager(
		schedule,
		func(userID string) Synthesizer { return &fakeSynth{} },
		func(userID string) Recognizer { return newScriptedRecognizer() },
		DefaultPolicy(),
		zap.NewNop(),
	)
}

func TestManager_SessionLifecycle(t *testing.T) {
	schedule := &fakeSchedule{entries: []*entity.ScheduleEntry{pendingEntry(1, "08:00 AM")}}
	m := newTestManager(schedule)
	defer m.Shutdown()

	_, ok := m.Active("user-1")
	assert.False(t, ok)

	c := m.Session("user-1")
	require.NotNil(t, c)

	// Same session on repeat calls.
	assert.Same(t, c, m.Session("user-1"))

	active, ok := m.Active("user-1")
	require.True(t, ok)
	assert.Same(t, c, active)

	m.End("user-1")
	_, ok = m.Active("user-1")
	assert.False(t, ok)
}

func TestManager_ShutdownStopsAll(t *testing.T) {
	schedule := &fakeSchedule{entries: []*entity.ScheduleEntry{pendingEntry(1, "08:00 AM")}}
	m := newTestManager(schedule)

	m.Session("user-1")
	m.Session("user-2")

	m.Shutdown()

	_, ok := m.Active("user-1")
	assert.False(t, ok)
	_, ok = m.Active("user-2")
	assert.False(t, ok)
}
