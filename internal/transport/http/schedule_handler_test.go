package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"medication-service/internal/domain/entity"
	domainservice "medication-service/internal/domain/service"
	"medication-service/internal/service"
	"medication-service/internal/voice"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// stubSchedule returns canned results for handler tests.
type stubSchedule struct {
	entries []*entity.ScheduleEntry
	takeErr error
}

func (s *stubSchedule) LoadSchedule(ctx context.Context, userID string) ([]*entity.ScheduleEntry, error) {
	return s.entries, nil
}

func (s *stubSchedule) Schedule(userID string) ([]*entity.ScheduleEntry, bool) {
	return s.entries, true
}

func (s *stubSchedule) Take(ctx context.Context, userID string, seq int) (*entity.ScheduleEntry, error) {
	if len(s.entries) == 0 {
		return nil, service.ErrEntryNotFound
	}
	entry := s.entries[0]
	if s.takeErr != nil {
		return entry, s.takeErr
	}
	entry.Status = entity.StatusTaken
	return entry, nil
}

func (s *stubSchedule) ForceTake(ctx context.Context, userID string, seq int) (*entity.ScheduleEntry, error) {
	return s.Take(ctx, userID, seq)
}

func (s *stubSchedule) Skip(ctx context.Context, userID string, seq int) (*entity.ScheduleEntry, error) {
	if len(s.entries) == 0 {
		return nil, service.ErrEntryNotFound
	}
	entry := s.entries[0]
	entry.Status = entity.StatusSkipped
	return entry, nil
}

func (s *stubSchedule) NextUpNext(userID string) *entity.ScheduleEntry {
	if len(s.entries) == 0 {
		return nil
	}
	return s.entries[0]
}

func (s *stubSchedule) Metrics(userID string) domainservice.ScheduleMetrics {
	return domainservice.ScheduleMetrics{Total: len(s.entries)}
}

func (s *stubSchedule) SweepMissed(ctx context.Context) {}

func (s *stubSchedule) Adherence(ctx context.Context, userID string) (string, error) {
	return "67%", nil
}

func (s *stubSchedule) Unload(userID string) {}

func testReminderManager(schedule domainservice.ScheduleService) *voice.Manager {
	return voice.NewManager(
		schedule,
		func(userID string) voice.Synthesizer {
			return &voice.LogSynthesizer{UserID: userID, Logger: zap.NewNop()}
		},
		func(userID string) voice.Recognizer { return voice.NewPassiveRecognizer() },
		voice.DefaultPolicy(),
		zap.NewNop(),
	)
}

func testEntry() *entity.ScheduleEntry {
	return &entity.ScheduleEntry{
		Seq:           1,
		MedicineID:    uuid.New(),
		Name:          "Metformin",
		Dosage:        "500mg",
		ScheduledTime: "08:00 AM",
		Status:        entity.StatusPending,
	}
}

func TestGetSchedule(t *testing.T) {
	schedule := &stubSchedule{entries: []*entity.ScheduleEntry{testEntry()}}
	reminders := testReminderManager(schedule)
	defer reminders.Shutdown()
	h := NewScheduleHandler(schedule, reminders)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/schedule?user_id=user-1", nil)
	rec := httptest.NewRecorder()
	h.GetSchedule(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Schedule []scheduleEntryView `json:"schedule"`
		Metrics  struct {
			Total int `json:"total"`
		} `json:"metrics"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Schedule, 1)
	assert.Equal(t, "08:00 AM", body.Schedule[0].ScheduledTime)
	assert.Equal(t, 1, body.Metrics.Total)

	// Loading the schedule opened a reminder session.
	_, ok := reminders.Active("user-1")
	assert.True(t, ok)
}

func TestGetSchedule_RequiresUserID(t *testing.T) {
	schedule := &stubSchedule{}
	reminders := testReminderManager(schedule)
	defer reminders.Shutdown()
	h := NewScheduleHandler(schedule, reminders)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/schedule", nil)
	rec := httptest.NewRecorder()
	h.GetSchedule(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTake_OutsideWindowIsConflict(t *testing.T) {
	schedule := &stubSchedule{
		entries: []*entity.ScheduleEntry{testEntry()},
		takeErr: &service.OutsideWindowError{
			Name:          "Metformin",
			Dosage:        "500mg",
			ScheduledTime: "08:00 AM",
			CurrentTime:   "09:00 AM",
			WindowMinutes: 30,
		},
	}
	reminders := testReminderManager(schedule)
	defer reminders.Shutdown()
	h := NewScheduleHandler(schedule, reminders)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/schedule/take",
		strings.NewReader(`{"user_id": "user-1", "seq": 1}`))
	rec := httptest.NewRecorder()
	h.Take(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)

	var body struct {
		Warning       string            `json:"warning"`
		ScheduledTime string            `json:"scheduled_time"`
		CurrentTime   string            `json:"current_time"`
		Entry         scheduleEntryView `json:"entry"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body.Warning, "within 30 minutes")
	assert.Equal(t, "08:00 AM", body.ScheduledTime)
	assert.Equal(t, "09:00 AM", body.CurrentTime)
	assert.Equal(t, "pending", body.Entry.Status)
}

func TestTake_UnknownEntryIsNotFound(t *testing.T) {
	schedule := &stubSchedule{}
	reminders := testReminderManager(schedule)
	defer reminders.Shutdown()
	h := NewScheduleHandler(schedule, reminders)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/schedule/take",
		strings.NewReader(`{"user_id": "user-1", "seq": 99}`))
	rec := httptest.NewRecorder()
	h.Take(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTake_Succeeds(t *testing.T) {
	schedule := &stubSchedule{entries: []*entity.ScheduleEntry{testEntry()}}
	reminders := testReminderManager(schedule)
	defer reminders.Shutdown()
	h := NewScheduleHandler(schedule, reminders)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/schedule/take",
		strings.NewReader(`{"user_id": "user-1", "seq": 1}`))
	rec := httptest.NewRecorder()
	h.Take(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Entry scheduleEntryView `json:"entry"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "taken", body.Entry.Status)
}

func TestAdherence(t *testing.T) {
	schedule := &stubSchedule{}
	reminders := testReminderManager(schedule)
	defer reminders.Shutdown()
	h := NewScheduleHandler(schedule, reminders)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/schedule/adherence?user_id=user-1", nil)
	rec := httptest.NewRecorder()
	h.Adherence(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"adherence": "67%"}`, rec.Body.String())
}
