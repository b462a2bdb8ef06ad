package service

import (
	"context"
	"sync"
	"time"

	"medication-service/internal/adherence"
	"medication-service/internal/domain/entity"
	"medication-service/internal/domain/repository"
	domainservice "medication-service/internal/domain/service"
	"medication-service/internal/timeutil"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EventPublisher publishes medication events to the event stream.
type EventPublisher interface {
	PublishMedicationEvent(ctx context.Context, event *entity.MedicationEvent) error
}

// LogCache is a read-through cache in front of the action-log store.
type LogCache interface {
	GetTodayLogs(ctx context.Context, userID, date string) (map[string]entity.EntryStatus, bool)
	SetTodayLogs(ctx context.Context, userID, date string, logs map[string]entity.EntryStatus)
	GetAdherence(ctx context.Context, userID string) (string, bool)
	SetAdherence(ctx context.Context, userID, value string)
	Invalidate(ctx context.Context, userID string)
}

// SchedulePolicy carries the dosing-window policy constants. The three
// tolerances are independent knobs, not derived from one another.
type SchedulePolicy struct {
	// ConfirmWindowMinutes is the +/- tolerance within which a manual
	// "taken" confirmation is accepted.
	ConfirmWindowMinutes int

	// MissGraceMinutes is how long past the scheduled time a pending entry
	// survives before the sweep marks it missed.
	MissGraceMinutes int

	// UpcomingSlackMinutes is how far past its scheduled time an entry still
	// counts as "up next".
	UpcomingSlackMinutes int
}

// DefaultSchedulePolicy mirrors the reference behavior: 30 minute
// confirmation window, 5 minute miss grace, 2 minute upcoming slack.
func DefaultSchedulePolicy() SchedulePolicy {
	return SchedulePolicy{
		ConfirmWindowMinutes: 30,
		MissGraceMinutes:     5,
		UpcomingSlackMinutes: 2,
	}
}

// session holds one user's in-memory daily schedule. It is rebuilt on every
// load and mutated in place by the transition operations.
type session struct {
	userID  string
	date    string
	entries []*entity.ScheduleEntry
}

type scheduleService struct {
	medicineRepo repository.MedicineRepository
	logRepo      repository.ActionLogRepository
	publisher    EventPublisher
	cache        LogCache
	policy       SchedulePolicy
	logger       *zap.Logger

	mu       sync.Mutex
	sessions map[string]*session

	// inflight tracks detached best-effort writes so shutdown (and tests)
	// can drain them.
	inflight sync.WaitGroup

	now func() time.Time
}

// NewScheduleService creates a new schedule service. publisher and cache may
// be nil, in which case events and caching are skipped.
func NewScheduleService(
	medicineRepo repository.MedicineRepository,
	logRepo repository.ActionLogRepository,
	publisher EventPublisher,
	cache LogCache,
	policy SchedulePolicy,
	logger *zap.Logger,
) domainservice.ScheduleService {
	return &scheduleService{
		medicineRepo: medicineRepo,
		logRepo:      logRepo,
		publisher:    publisher,
		cache:        cache,
		policy:       policy,
		logger:       logger,
		sessions:     make(map[string]*session),
		now:          time.Now,
	}
}

func (s *scheduleService) LoadSchedule(ctx context.Context, userID string) ([]*entity.ScheduleEntry, error) {
	medicines, err := s.medicineRepo.GetByUserID(ctx, userID, true)
	if err != nil {
		return nil, err
	}

	date := s.today()
	todayLogs := s.todayLogs(ctx, userID, date)
	entries := BuildSchedule(medicines, todayLogs)

	s.mu.Lock()
	s.sessions[userID] = &session{userID: userID, date: date, entries: entries}
	out := cloneEntries(entries)
	s.mu.Unlock()

	return out, nil
}

func (s *scheduleService) Schedule(userID string) ([]*entity.ScheduleEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[userID]
	if !ok {
		return nil, false
	}
	return cloneEntries(sess.entries), true
}

func (s *scheduleService) Take(ctx context.Context, userID string, seq int) (*entity.ScheduleEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, err := s.entry(userID, seq)
	if err != nil {
		return nil, err
	}

	// Taken is absorbing: a second confirmation is a no-op with no write.
	if entry.Status == entity.StatusTaken {
		return cloneEntry(entry), nil
	}

	now := s.now()
	scheduled, parseErr := timeutil.ToMinutes(entry.ScheduledTime)
	withinWindow := parseErr == nil &&
		timeutil.WithinWindow(scheduled, timeutil.MinutesOfDay(now), s.policy.ConfirmWindowMinutes)
	if !withinWindow {
		return cloneEntry(entry), &OutsideWindowError{
			Name:          entry.Name,
			Dosage:        entry.Dosage,
			ScheduledTime: entry.ScheduledTime,
			CurrentTime:   timeutil.FormatClock(now),
			WindowMinutes: s.policy.ConfirmWindowMinutes,
		}
	}

	entry.Status = entity.StatusTaken
	s.persist(userID, entry)
	return cloneEntry(entry), nil
}

func (s *scheduleService) ForceTake(ctx context.Context, userID string, seq int) (*entity.ScheduleEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, err := s.entry(userID, seq)
	if err != nil {
		return nil, err
	}

	if entry.Status == entity.StatusTaken {
		return cloneEntry(entry), nil
	}

	entry.Status = entity.StatusTaken
	s.persist(userID, entry)
	return cloneEntry(entry), nil
}

func (s *scheduleService) Skip(ctx context.Context, userID string, seq int) (*entity.ScheduleEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, err := s.entry(userID, seq)
	if err != nil {
		return nil, err
	}

	if entry.Status == entity.StatusTaken {
		return cloneEntry(entry), nil
	}

	// No time-window check: a skip is always accepted.
	entry.Status = entity.StatusSkipped
	s.persist(userID, entry)
	return cloneEntry(entry), nil
}

func (s *scheduleService) NextUpNext(userID string) *entity.ScheduleEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[userID]
	if !ok {
		return nil
	}

	nowMin := timeutil.MinutesOfDay(s.now())
	for _, entry := range sess.entries {
		if entry.Status != entity.StatusPending {
			continue
		}
		scheduled, err := timeutil.ToMinutes(entry.ScheduledTime)
		if err != nil {
			continue
		}
		if nowMin <= scheduled+s.policy.UpcomingSlackMinutes {
			return cloneEntry(entry)
		}
	}
	return nil
}

func (s *scheduleService) Metrics(userID string) domainservice.ScheduleMetrics {
	s.mu.Lock()
	defer s.mu.Unlock()

	var m domainservice.ScheduleMetrics
	sess, ok := s.sessions[userID]
	if !ok {
		return m
	}

	m.Total = len(sess.entries)
	for _, entry := range sess.entries {
		switch entry.Status {
		case entity.StatusTaken:
			m.Done++
		case entity.StatusMissed:
			m.Missed++
		}
	}
	if m.Total > 0 {
		m.PercentComplete = float64(m.Done) / float64(m.Total) * 100
	}
	return m
}

func (s *scheduleService) SweepMissed(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	nowMin := timeutil.MinutesOfDay(s.now())
	for _, sess := range s.sessions {
		changed := 0
		for _, entry := range sess.entries {
			if entry.Status != entity.StatusPending {
				continue
			}
			scheduled, err := timeutil.ToMinutes(entry.ScheduledTime)
			if err != nil {
				continue
			}
			if timeutil.Exceeded(scheduled, nowMin, s.policy.MissGraceMinutes) {
				entry.Status = entity.StatusMissed
				s.persist(sess.userID, entry)
				changed++
			}
		}
		if changed > 0 {
			s.logger.Info("auto-miss sweep expired entries",
				zap.String("user_id", sess.userID),
				zap.Int("missed", changed))
		}
	}
}

func (s *scheduleService) Adherence(ctx context.Context, userID string) (string, error) {
	if s.cache != nil {
		if value, ok := s.cache.GetAdherence(ctx, userID); ok {
			return value, nil
		}
	}

	logs, err := s.logRepo.GetAllByUser(ctx, userID)
	if err != nil {
		return "", err
	}

	value := adherence.Calculate(logs)
	if s.cache != nil {
		s.cache.SetAdherence(ctx, userID, value)
	}
	return value, nil
}

func (s *scheduleService) Unload(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
}

// cloneEntry returns a value copy of a session entry. The live entries stay
// private to the service so the sweep can mutate them under s.mu while callers
// keep reading the snapshots they were handed.
func cloneEntry(entry *entity.ScheduleEntry) *entity.ScheduleEntry {
	c := *entry
	return &c
}

func cloneEntries(entries []*entity.ScheduleEntry) []*entity.ScheduleEntry {
	out := make([]*entity.ScheduleEntry, len(entries))
	for i, entry := range entries {
		out[i] = cloneEntry(entry)
	}
	return out
}

// entry looks up a session entry by sequence number. Caller holds s.mu.
func (s *scheduleService) entry(userID string, seq int) (*entity.ScheduleEntry, error) {
	sess, ok := s.sessions[userID]
	if !ok {
		return nil, ErrEntryNotFound
	}
	for _, entry := range sess.entries {
		if entry.Seq == seq {
			return entry, nil
		}
	}
	return nil, ErrEntryNotFound
}

// persist issues the best-effort side effects of a status change: the
// idempotent log write, the medication event, and cache invalidation. The
// in-memory change is already committed; a slow or failing store must never
// block or revert it, so everything here runs detached and failures are only
// logged.
func (s *scheduleService) persist(userID string, entry *entity.ScheduleEntry) {
	log := &entity.ActionLog{
		ID:            entity.StoreKey(userID, entry.MedicineID, entry.ScheduledTime, s.today()),
		UserID:        userID,
		MedicineID:    entry.MedicineID,
		Name:          entry.Name,
		Dosage:        entry.Dosage,
		ScheduledTime: entry.ScheduledTime,
		Status:        entry.Status,
		Date:          s.today(),
		LoggedAt:      s.now(),
	}

	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := s.logRepo.Upsert(ctx, log); err != nil {
			s.logger.Warn("failed to write action log",
				zap.String("user_id", userID),
				zap.String("medicine", log.Name),
				zap.String("status", string(log.Status)),
				zap.Error(err))
		} else if s.cache != nil {
			s.cache.Invalidate(ctx, userID)
		}

		if s.publisher == nil {
			return
		}
		event := &entity.MedicationEvent{
			EventID:       uuid.NewString(),
			Type:          entity.EventTypeForStatus(log.Status),
			UserID:        userID,
			MedicineID:    log.MedicineID,
			Name:          log.Name,
			Dosage:        log.Dosage,
			ScheduledTime: log.ScheduledTime,
			Status:        log.Status,
			OccurredAt:    log.LoggedAt,
		}
		if err := s.publisher.PublishMedicationEvent(ctx, event); err != nil {
			s.logger.Warn("failed to publish medication event",
				zap.String("user_id", userID),
				zap.String("type", string(event.Type)),
				zap.Error(err))
		}
	}()
}

// todayLogs reads today's statuses through the cache.
func (s *scheduleService) todayLogs(ctx context.Context, userID, date string) map[string]entity.EntryStatus {
	if s.cache != nil {
		if logs, ok := s.cache.GetTodayLogs(ctx, userID, date); ok {
			return logs
		}
	}

	logs, err := s.logRepo.GetTodayByUser(ctx, userID, date)
	if err != nil {
		// Restore is best-effort: without the log map every entry simply
		// starts pending again.
		s.logger.Warn("failed to restore today's logs",
			zap.String("user_id", userID),
			zap.Error(err))
		return nil
	}

	if s.cache != nil {
		s.cache.SetTodayLogs(ctx, userID, date, logs)
	}
	return logs
}

func (s *scheduleService) today() string {
	return s.now().Format("2006-01-02")
}
