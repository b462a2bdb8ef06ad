package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"medication-service/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeMedicineRepo struct {
	medicines []*entity.Medicine
}

func (r *fakeMedicineRepo) Create(ctx context.Context, medicine *entity.Medicine) error {
	r.medicines = append(r.medicines, medicine)
	return nil
}

func (r *fakeMedicineRepo) GetByID(ctx context.Context, medicineID uuid.UUID) (*entity.Medicine, error) {
	for _, m := range r.medicines {
		if m.ID == medicineID {
			return m, nil
		}
	}
	return nil, errors.New("medicine not found")
}

func (r *fakeMedicineRepo) GetByUserID(ctx context.Context, userID string, activeOnly bool) ([]*entity.Medicine, error) {
	var out []*entity.Medicine
	for _, m := range r.medicines {
		if m.UserID != userID {
			continue
		}
		if activeOnly && !m.IsActive {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func (r *fakeMedicineRepo) Update(ctx context.Context, medicine *entity.Medicine) error {
	for i, m := range r.medicines {
		if m.ID == medicine.ID {
			r.medicines[i] = medicine
			return nil
		}
	}
	return errors.New("medicine not found")
}

func (r *fakeMedicineRepo) Deactivate(ctx context.Context, medicineID uuid.UUID) error {
	for _, m := range r.medicines {
		if m.ID == medicineID {
			m.IsActive = false
			return nil
		}
	}
	return errors.New("medicine not found")
}

type fakeLogRepo struct {
	mu        sync.Mutex
	byID      map[string]*entity.ActionLog
	writes    int
	today     map[string]entity.EntryStatus
	history   []*entity.ActionLog
	upsertErr error
}

func newFakeLogRepo() *fakeLogRepo {
	return &fakeLogRepo{byID: make(map[string]*entity.ActionLog)}
}

func (r *fakeLogRepo) Upsert(ctx context.Context, log *entity.ActionLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.upsertErr != nil {
		return r.upsertErr
	}
	r.byID[log.ID] = log
	r.writes++
	return nil
}

func (r *fakeLogRepo) GetTodayByUser(ctx context.Context, userID string, date string) (map[string]entity.EntryStatus, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.today, nil
}

func (r *fakeLogRepo) GetAllByUser(ctx context.Context, userID string) ([]*entity.ActionLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.history, nil
}

func (r *fakeLogRepo) writeCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.writes
}

func (r *fakeLogRepo) stored() []*entity.ActionLog {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*entity.ActionLog, 0, len(r.byID))
	for _, log := range r.byID {
		out = append(out, log)
	}
	return out
}

type fakePublisher struct {
	mu     sync.Mutex
	events []*entity.MedicationEvent
}

func (p *fakePublisher) PublishMedicationEvent(ctx context.Context, event *entity.MedicationEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *fakePublisher) published() []*entity.MedicationEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*entity.MedicationEvent(nil), p.events...)
}

func twoSlotMedicine(userID string) *entity.Medicine {
	return &entity.Medicine{
		ID:       uuid.New(),
		UserID:   userID,
		Name:     "Metformin 500mg",
		Dosage:   "1 tablet",
		Timing:   []entity.TimingLabel{entity.TimingMorning, entity.TimingEvening},
		IsActive: true,
	}
}

// newTestService wires a schedule service against in-memory fakes with the
// clock pinned at the given time of day.
func newTestService(t *testing.T, medRepo *fakeMedicineRepo, logRepo *fakeLogRepo, publisher *fakePublisher, at time.Time) *scheduleService {
	t.Helper()

	var pub EventPublisher
	if publisher != nil {
		pub = publisher
	}
	svc := NewScheduleService(medRepo, logRepo, pub, nil, DefaultSchedulePolicy(), zap.NewNop()).(*scheduleService)
	svc.now = func() time.Time { return at }
	return svc
}

func at(hour, minute int) time.Time {
	return time.Date(2025, 3, 10, hour, minute, 0, 0, time.UTC)
}

func TestLoadSchedule_RestoresLoggedStatuses(t *testing.T) {
	med := twoSlotMedicine("user-1")
	medRepo := &fakeMedicineRepo{medicines: []*entity.Medicine{med}}
	logRepo := newFakeLogRepo()
	logRepo.today = map[string]entity.EntryStatus{
		entity.SlotKey(med.ID, "08:00 AM"): entity.StatusTaken,
	}

	svc := newTestService(t, medRepo, logRepo, nil, at(9, 0))

	entries, err := svc.LoadSchedule(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, entity.StatusTaken, entries[0].Status)
	assert.Equal(t, entity.StatusPending, entries[1].Status)
}

func TestTake_WithinWindow(t *testing.T) {
	med := twoSlotMedicine("user-1")
	medRepo := &fakeMedicineRepo{medicines: []*entity.Medicine{med}}
	logRepo := newFakeLogRepo()
	publisher := &fakePublisher{}

	svc := newTestService(t, medRepo, logRepo, publisher, at(8, 20))
	entries, err := svc.LoadSchedule(context.Background(), "user-1")
	require.NoError(t, err)

	entry, err := svc.Take(context.Background(), "user-1", entries[0].Seq)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusTaken, entry.Status)

	svc.inflight.Wait()
	require.Equal(t, 1, logRepo.writeCount())

	stored := logRepo.stored()
	require.Len(t, stored, 1)
	assert.Equal(t, entity.StoreKey("user-1", med.ID, "08:00 AM", "2025-03-10"), stored[0].ID)
	assert.Equal(t, entity.StatusTaken, stored[0].Status)

	events := publisher.published()
	require.Len(t, events, 1)
	assert.Equal(t, entity.EventMedicationTaken, events[0].Type)
}

func TestTake_OutsideWindowRefused(t *testing.T) {
	med := twoSlotMedicine("user-1")
	medRepo := &fakeMedicineRepo{medicines: []*entity.Medicine{med}}
	logRepo := newFakeLogRepo()

	// 09:00 is 60 minutes past the 08:00 slot, beyond the 30 minute window.
	svc := newTestService(t, medRepo, logRepo, nil, at(9, 0))
	entries, err := svc.LoadSchedule(context.Background(), "user-1")
	require.NoError(t, err)

	entry, err := svc.Take(context.Background(), "user-1", entries[0].Seq)

	var refusal *OutsideWindowError
	require.ErrorAs(t, err, &refusal)
	assert.Equal(t, "08:00 AM", refusal.ScheduledTime)
	assert.Equal(t, "09:00 AM", refusal.CurrentTime)

	// The entry stays pending and nothing is written.
	assert.Equal(t, entity.StatusPending, entry.Status)
	svc.inflight.Wait()
	assert.Equal(t, 0, logRepo.writeCount())
}

func TestTake_Idempotent(t *testing.T) {
	med := twoSlotMedicine("user-1")
	medRepo := &fakeMedicineRepo{medicines: []*entity.Medicine{med}}
	logRepo := newFakeLogRepo()

	svc := newTestService(t, medRepo, logRepo, nil, at(8, 10))
	entries, err := svc.LoadSchedule(context.Background(), "user-1")
	require.NoError(t, err)

	_, err = svc.Take(context.Background(), "user-1", entries[0].Seq)
	require.NoError(t, err)

	entry, err := svc.Take(context.Background(), "user-1", entries[0].Seq)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusTaken, entry.Status)

	svc.inflight.Wait()
	assert.Equal(t, 1, logRepo.writeCount(), "second confirmation must not write again")
}

func TestForceTake_IgnoresWindow(t *testing.T) {
	med := twoSlotMedicine("user-1")
	medRepo := &fakeMedicineRepo{medicines: []*entity.Medicine{med}}
	logRepo := newFakeLogRepo()

	svc := newTestService(t, medRepo, logRepo, nil, at(11, 0))
	entries, err := svc.LoadSchedule(context.Background(), "user-1")
	require.NoError(t, err)

	entry, err := svc.ForceTake(context.Background(), "user-1", entries[0].Seq)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusTaken, entry.Status)
}

func TestSkip_Unconditional(t *testing.T) {
	med := twoSlotMedicine("user-1")
	medRepo := &fakeMedicineRepo{medicines: []*entity.Medicine{med}}
	logRepo := newFakeLogRepo()
	publisher := &fakePublisher{}

	// Far outside the morning window; a skip is still accepted.
	svc := newTestService(t, medRepo, logRepo, publisher, at(11, 0))
	entries, err := svc.LoadSchedule(context.Background(), "user-1")
	require.NoError(t, err)

	entry, err := svc.Skip(context.Background(), "user-1", entries[0].Seq)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusSkipped, entry.Status)

	svc.inflight.Wait()
	events := publisher.published()
	require.Len(t, events, 1)
	assert.Equal(t, entity.EventMedicationSkipped, events[0].Type)
}

func TestSkip_TakenIsAbsorbing(t *testing.T) {
	med := twoSlotMedicine("user-1")
	medRepo := &fakeMedicineRepo{medicines: []*entity.Medicine{med}}
	logRepo := newFakeLogRepo()

	svc := newTestService(t, medRepo, logRepo, nil, at(8, 10))
	entries, err := svc.LoadSchedule(context.Background(), "user-1")
	require.NoError(t, err)

	_, err = svc.Take(context.Background(), "user-1", entries[0].Seq)
	require.NoError(t, err)

	entry, err := svc.Skip(context.Background(), "user-1", entries[0].Seq)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusTaken, entry.Status)

	svc.inflight.Wait()
	assert.Equal(t, 1, logRepo.writeCount())
}

func TestTake_UnknownEntry(t *testing.T) {
	svc := newTestService(t, &fakeMedicineRepo{}, newFakeLogRepo(), nil, at(8, 0))

	_, err := svc.Take(context.Background(), "user-1", 1)
	require.ErrorIs(t, err, ErrEntryNotFound)

	_, err = svc.Skip(context.Background(), "nobody", 1)
	require.ErrorIs(t, err, ErrEntryNotFound)
}

func TestSweepMissed_GracePeriod(t *testing.T) {
	med := twoSlotMedicine("user-1")
	medRepo := &fakeMedicineRepo{medicines: []*entity.Medicine{med}}
	logRepo := newFakeLogRepo()
	publisher := &fakePublisher{}

	svc := newTestService(t, medRepo, logRepo, publisher, at(8, 4))
	_, err := svc.LoadSchedule(context.Background(), "user-1")
	require.NoError(t, err)

	// 08:04 is within the 5 minute grace of the 08:00 slot.
	svc.SweepMissed(context.Background())
	entries, _ := svc.Schedule("user-1")
	assert.Equal(t, entity.StatusPending, entries[0].Status)

	// 08:06 is past it.
	svc.now = func() time.Time { return at(8, 6) }
	svc.SweepMissed(context.Background())
	entries, _ = svc.Schedule("user-1")
	assert.Equal(t, entity.StatusMissed, entries[0].Status)

	// The evening slot is untouched.
	assert.Equal(t, entity.StatusPending, entries[1].Status)

	svc.inflight.Wait()
	events := publisher.published()
	require.Len(t, events, 1)
	assert.Equal(t, entity.EventMedicationMissed, events[0].Type)

	// A second sweep finds nothing pending past grace and writes nothing.
	svc.SweepMissed(context.Background())
	svc.inflight.Wait()
	assert.Equal(t, 1, logRepo.writeCount())
}

func TestSchedule_ReturnsDetachedSnapshots(t *testing.T) {
	med := twoSlotMedicine("user-1")
	medRepo := &fakeMedicineRepo{medicines: []*entity.Medicine{med}}

	svc := newTestService(t, medRepo, newFakeLogRepo(), nil, at(8, 6))
	entries, err := svc.LoadSchedule(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusPending, entries[0].Status)

	// The sweep mutates the session, not the snapshot the caller holds.
	svc.SweepMissed(context.Background())
	assert.Equal(t, entity.StatusPending, entries[0].Status)

	current, ok := svc.Schedule("user-1")
	require.True(t, ok)
	assert.Equal(t, entity.StatusMissed, current[0].Status)

	// Writing through a snapshot does not reach the session either.
	current[0].Status = entity.StatusTaken
	again, _ := svc.Schedule("user-1")
	assert.Equal(t, entity.StatusMissed, again[0].Status)

	svc.inflight.Wait()
}

func TestSweepMissed_ConcurrentWithScheduleReads(t *testing.T) {
	med := twoSlotMedicine("user-1")
	medRepo := &fakeMedicineRepo{medicines: []*entity.Medicine{med}}

	svc := newTestService(t, medRepo, newFakeLogRepo(), nil, at(8, 6))
	entries, err := svc.LoadSchedule(context.Background(), "user-1")
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			svc.SweepMissed(context.Background())
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			_ = entries[0].Status
			if current, ok := svc.Schedule("user-1"); ok {
				_ = current[0].Status
			}
			if next := svc.NextUpNext("user-1"); next != nil {
				_ = next.Status
			}
		}
	}()
	wg.Wait()
	svc.inflight.Wait()

	current, _ := svc.Schedule("user-1")
	assert.Equal(t, entity.StatusMissed, current[0].Status)
}

func TestNextUpNext(t *testing.T) {
	med := twoSlotMedicine("user-1")
	medRepo := &fakeMedicineRepo{medicines: []*entity.Medicine{med}}
	logRepo := newFakeLogRepo()

	// 08:01 is within the 2 minute slack of the morning slot.
	svc := newTestService(t, medRepo, logRepo, nil, at(8, 1))
	entries, err := svc.LoadSchedule(context.Background(), "user-1")
	require.NoError(t, err)

	next := svc.NextUpNext("user-1")
	require.NotNil(t, next)
	assert.Equal(t, entries[0].Seq, next.Seq)

	// Past the slack, the morning slot no longer qualifies.
	svc.now = func() time.Time { return at(8, 3) }
	next = svc.NextUpNext("user-1")
	require.NotNil(t, next)
	assert.Equal(t, "09:00 PM", next.ScheduledTime)

	// A taken entry is never up next.
	svc.now = func() time.Time { return at(21, 0) }
	_, err = svc.Take(context.Background(), "user-1", next.Seq)
	require.NoError(t, err)
	assert.Nil(t, svc.NextUpNext("user-1"))
}

func TestMetrics(t *testing.T) {
	svc := newTestService(t, &fakeMedicineRepo{}, newFakeLogRepo(), nil, at(8, 0))

	// No session: all zero, no division by zero.
	m := svc.Metrics("user-1")
	assert.Zero(t, m.Total)
	assert.Zero(t, m.PercentComplete)

	med := twoSlotMedicine("user-1")
	svc.medicineRepo = &fakeMedicineRepo{medicines: []*entity.Medicine{med}}
	entries, err := svc.LoadSchedule(context.Background(), "user-1")
	require.NoError(t, err)

	_, err = svc.Take(context.Background(), "user-1", entries[0].Seq)
	require.NoError(t, err)

	m = svc.Metrics("user-1")
	assert.Equal(t, 1, m.Done)
	assert.Equal(t, 0, m.Missed)
	assert.Equal(t, 2, m.Total)
	assert.InDelta(t, 50.0, m.PercentComplete, 0.001)
}

func TestAdherence_UsesFullHistory(t *testing.T) {
	logRepo := newFakeLogRepo()
	logRepo.history = []*entity.ActionLog{
		{Status: entity.StatusTaken},
		{Status: entity.StatusTaken},
		{Status: entity.StatusMissed},
	}

	svc := newTestService(t, &fakeMedicineRepo{}, logRepo, nil, at(8, 0))

	value, err := svc.Adherence(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, "67%", value)
}

func TestPersist_FailedWriteDoesNotRevertStatus(t *testing.T) {
	med := twoSlotMedicine("user-1")
	medRepo := &fakeMedicineRepo{medicines: []*entity.Medicine{med}}
	logRepo := newFakeLogRepo()
	logRepo.upsertErr = errors.New("store unavailable")

	svc := newTestService(t, medRepo, logRepo, nil, at(8, 10))
	entries, err := svc.LoadSchedule(context.Background(), "user-1")
	require.NoError(t, err)

	entry, err := svc.Take(context.Background(), "user-1", entries[0].Seq)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusTaken, entry.Status)

	svc.inflight.Wait()
	current, _ := svc.Schedule("user-1")
	assert.Equal(t, entity.StatusTaken, current[0].Status)
}

func TestUnload_DiscardsSession(t *testing.T) {
	med := twoSlotMedicine("user-1")
	medRepo := &fakeMedicineRepo{medicines: []*entity.Medicine{med}}

	svc := newTestService(t, medRepo, newFakeLogRepo(), nil, at(8, 0))
	_, err := svc.LoadSchedule(context.Background(), "user-1")
	require.NoError(t, err)

	svc.Unload("user-1")
	_, ok := svc.Schedule("user-1")
	assert.False(t, ok)
}
