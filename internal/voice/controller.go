package voice

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"medication-service/internal/domain/entity"
	domainservice "medication-service/internal/domain/service"
	"medication-service/internal/timeutil"

	"go.uber.org/zap"
)

// Phase is the state of a reminder session.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseSpeaking  Phase = "speaking"
	PhaseListening Phase = "listening"
	PhaseResult    Phase = "result"
)

// ResultKind categorizes the outcome shown after a response.
type ResultKind string

const (
	ResultSuccess ResultKind = "success"
	ResultSkip    ResultKind = "skip"
	ResultDelay   ResultKind = "delay"
	ResultError   ResultKind = "error"
)

// ErrSpeaking is returned when a manual action arrives while the reminder is
// still being spoken.
var ErrSpeaking = errors.New("reminder is speaking")

// ErrNoActiveReminder is returned when a response arrives with no reminder
// in progress.
var ErrNoActiveReminder = errors.New("no active reminder")

// Policy carries the voice controller's tunables. The trigger band is
// independent from the state machine's confirmation window and miss grace.
type Policy struct {
	// TriggerBandMinutes is the +/- tolerance around the scheduled time
	// within which a pending entry triggers a reminder.
	TriggerBandMinutes int

	// CheckInterval is how often due detection scans the schedule.
	CheckInterval time.Duration

	// SnoozeDuration is how long a "later" response suppresses the entry.
	SnoozeDuration time.Duration

	// EnforceWindow applies the dosing window to voice confirmations too.
	// Off by default: a spoken confirmation is accepted at any time.
	EnforceWindow bool

	// Auto-dismiss delays after each kind of confirmation.
	TakenDismissDelay  time.Duration
	SkipDismissDelay   time.Duration
	SnoozeDismissDelay time.Duration
}

// DefaultPolicy mirrors the reference behavior.
func DefaultPolicy() Policy {
	return Policy{
		TriggerBandMinutes: 2,
		CheckInterval:      30 * time.Second,
		SnoozeDuration:     5 * time.Minute,
		EnforceWindow:      false,
		TakenDismissDelay:  2 * time.Second,
		SkipDismissDelay:   1500 * time.Millisecond,
		SnoozeDismissDelay: 2 * time.Second,
	}
}

// Snapshot is a read-only view of the session for the transport layer.
type Snapshot struct {
	Phase      Phase
	Active     *entity.ScheduleEntry
	Transcript string
	ResultText string
	ResultKind ResultKind
}

// Controller runs one user's reminder session: periodic due detection, the
// speaking/listening loop, and the confirmation actions. All session state
// (active entry, dismissed set, snoozes, timers) is owned by the controller
// and torn down by Stop.
type Controller struct {
	userID     string
	schedule   domainservice.ScheduleService
	synth      Synthesizer
	recognizer Recognizer
	policy     Policy
	snoozes    *SnoozeRegistry
	logger     *zap.Logger

	mu           sync.Mutex
	phase        Phase
	active       *entity.ScheduleEntry
	transcript   string
	resultText   string
	resultKind   ResultKind
	dismissed    map[int]struct{}
	dismissTimer *time.Timer

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	now func() time.Time
}

// NewController creates a reminder controller for one user session.
func NewController(
	userID string,
	schedule domainservice.ScheduleService,
	synth Synthesizer,
	recognizer Recognizer,
	policy Policy,
	logger *zap.Logger,
) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		userID:     userID,
		schedule:   schedule,
		synth:      synth,
		recognizer: recognizer,
		policy:     policy,
		snoozes:    NewSnoozeRegistry(),
		logger:     logger,
		phase:      PhaseIdle,
		dismissed:  make(map[int]struct{}),
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
		now:        time.Now,
	}
}

// Start begins periodic due detection. The first check runs immediately.
func (c *Controller) Start() {
	go func() {
		defer close(c.done)

		ticker := time.NewTicker(c.policy.CheckInterval)
		defer ticker.Stop()

		c.CheckDue()
		for {
			select {
			case <-c.ctx.Done():
				return
			case <-ticker.C:
				c.CheckDue()
			}
		}
	}()
}

// Stop tears the session down: the detection loop exits and any in-flight
// synthesis or recognition is cancelled.
func (c *Controller) Stop() {
	c.cancel()
	c.synth.Cancel()
	c.recognizer.Abort()

	c.mu.Lock()
	if c.dismissTimer != nil {
		c.dismissTimer.Stop()
	}
	c.mu.Unlock()

	<-c.done
}

// CheckDue scans pending entries in schedule order and activates the first
// one within the trigger band. Suppressed while a reminder is in progress.
func (c *Controller) CheckDue() {
	entries, ok := c.schedule.Schedule(c.userID)
	if !ok {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active != nil {
		return
	}

	now := c.now()
	nowMin := timeutil.MinutesOfDay(now)

	for _, entry := range entries {
		if entry.Status != entity.StatusPending {
			continue
		}
		if _, handled := c.dismissed[entry.Seq]; handled {
			continue
		}
		if c.snoozes.Active(entry.Seq, now) {
			continue
		}

		scheduled, err := timeutil.ToMinutes(entry.ScheduledTime)
		if err != nil {
			continue
		}
		if !timeutil.WithinWindow(scheduled, nowMin, c.policy.TriggerBandMinutes) {
			continue
		}

		c.active = entry
		c.phase = PhaseSpeaking
		go c.announce(entry)
		return
	}
}

// announce speaks the reminder, then hands over to listening. A playback
// error is treated the same as completion.
func (c *Controller) announce(entry *entity.ScheduleEntry) {
	msg := fmt.Sprintf("It is %s. Time to take %s %s.",
		timeutil.FormatClock(c.now()), entry.Name, entry.Dosage)
	if err := c.synth.Speak(c.ctx, msg); err != nil {
		c.logger.Debug("reminder playback failed", zap.Error(err))
	}
	c.StartListening()
}

// StartListening activates speech recognition for a single utterance. Also
// invoked by the transport when the user taps the mic again.
func (c *Controller) StartListening() {
	c.mu.Lock()
	if c.active == nil {
		c.mu.Unlock()
		return
	}
	c.phase = PhaseListening
	c.transcript = ""
	c.resultText = ""
	c.resultKind = ""
	c.mu.Unlock()

	go func() {
		rec := c.recognizer.Listen(c.ctx)

		c.mu.Lock()
		if c.phase != PhaseListening {
			// Dismissed or superseded while listening.
			c.mu.Unlock()
			return
		}

		switch {
		case rec.Transcript != "":
			c.transcript = rec.Transcript
			c.mu.Unlock()
			c.Respond(rec.Transcript)
		case errors.Is(rec.Err, ErrNoSpeech):
			c.phase = PhaseResult
			c.resultText = "No speech detected. Use the buttons instead."
			c.resultKind = ResultError
			c.mu.Unlock()
		default:
			// Session ended silently: back to idle with the entry
			// unresolved, so the next sweep may pick it up again.
			c.active = nil
			c.phase = PhaseIdle
			c.mu.Unlock()
		}
	}()
}

// Respond classifies a transcript and applies the matching confirmation.
// An unrecognized response leaves the entry pending.
func (c *Controller) Respond(transcript string) error {
	c.mu.Lock()
	if c.active == nil {
		c.mu.Unlock()
		return ErrNoActiveReminder
	}
	if c.phase == PhaseSpeaking {
		c.mu.Unlock()
		return ErrSpeaking
	}
	c.transcript = transcript
	c.mu.Unlock()

	switch ClassifyIntent(transcript) {
	case IntentTaken:
		return c.ConfirmTaken(context.Background())
	case IntentSkipped:
		return c.ConfirmSkipped(context.Background())
	case IntentSnooze:
		return c.ConfirmSnooze()
	default:
		c.mu.Lock()
		c.phase = PhaseResult
		c.resultText = "Couldn't understand. Try again or use the buttons."
		c.resultKind = ResultError
		c.mu.Unlock()
		return nil
	}
}

// ConfirmTaken marks the active entry taken and winds the session down.
func (c *Controller) ConfirmTaken(ctx context.Context) error {
	c.mu.Lock()
	entry := c.active
	if entry == nil {
		c.mu.Unlock()
		return ErrNoActiveReminder
	}
	if c.phase == PhaseSpeaking {
		c.mu.Unlock()
		return ErrSpeaking
	}
	c.mu.Unlock()

	var err error
	if c.policy.EnforceWindow {
		_, err = c.schedule.Take(ctx, c.userID, entry.Seq)
	} else {
		_, err = c.schedule.ForceTake(ctx, c.userID, entry.Seq)
	}
	if err != nil {
		c.mu.Lock()
		c.phase = PhaseResult
		c.resultText = err.Error()
		c.resultKind = ResultError
		c.mu.Unlock()
		return err
	}

	c.mu.Lock()
	c.dismissed[entry.Seq] = struct{}{}
	c.phase = PhaseResult
	c.resultText = "Marked as taken!"
	c.resultKind = ResultSuccess
	c.scheduleDismiss(c.policy.TakenDismissDelay, true)
	c.mu.Unlock()

	go c.speakAside("Great! Marked as taken.")
	return nil
}

// ConfirmSkipped marks the active entry skipped and winds the session down.
func (c *Controller) ConfirmSkipped(ctx context.Context) error {
	c.mu.Lock()
	entry := c.active
	if entry == nil {
		c.mu.Unlock()
		return ErrNoActiveReminder
	}
	if c.phase == PhaseSpeaking {
		c.mu.Unlock()
		return ErrSpeaking
	}
	c.mu.Unlock()

	if _, err := c.schedule.Skip(ctx, c.userID, entry.Seq); err != nil {
		return err
	}

	c.mu.Lock()
	c.dismissed[entry.Seq] = struct{}{}
	c.phase = PhaseResult
	c.resultText = "Marked as skipped"
	c.resultKind = ResultSkip
	c.scheduleDismiss(c.policy.SkipDismissDelay, true)
	c.mu.Unlock()
	return nil
}

// ConfirmSnooze suppresses the active entry for the snooze duration. The
// entry is not added to the dismissed set: it must trigger again once the
// snooze expires.
func (c *Controller) ConfirmSnooze() error {
	c.mu.Lock()
	entry := c.active
	if entry == nil {
		c.mu.Unlock()
		return ErrNoActiveReminder
	}
	if c.phase == PhaseSpeaking {
		c.mu.Unlock()
		return ErrSpeaking
	}

	c.snoozes.Snooze(entry.Seq, c.now().Add(c.policy.SnoozeDuration))
	c.phase = PhaseResult
	c.resultText = fmt.Sprintf("Snoozed for %d minutes", int(c.policy.SnoozeDuration.Minutes()))
	c.resultKind = ResultDelay
	c.scheduleDismiss(c.policy.SnoozeDismissDelay, false)
	c.mu.Unlock()

	go c.speakAside(fmt.Sprintf("Okay, I'll remind you in %d minutes.", int(c.policy.SnoozeDuration.Minutes())))
	return nil
}

// Dismiss closes the reminder manually. The entry joins the dismissed set so
// a closed reminder does not immediately re-trigger.
func (c *Controller) Dismiss() {
	c.finish(true)
}

// Snapshot returns the current session state for display.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{
		Phase:      c.phase,
		Transcript: c.transcript,
		ResultText: c.resultText,
		ResultKind: c.resultKind,
	}
	if c.active != nil {
		copy := *c.active
		snap.Active = &copy
	}
	return snap
}

// scheduleDismiss arms the auto-dismiss timer. Caller holds c.mu.
func (c *Controller) scheduleDismiss(delay time.Duration, addDismissed bool) {
	if c.dismissTimer != nil {
		c.dismissTimer.Stop()
	}
	c.dismissTimer = time.AfterFunc(delay, func() {
		c.finish(addDismissed)
	})
}

// finish clears all session display state and cancels in-flight speech.
func (c *Controller) finish(addDismissed bool) {
	c.synth.Cancel()
	c.recognizer.Abort()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active != nil && addDismissed {
		c.dismissed[c.active.Seq] = struct{}{}
	}
	if c.dismissTimer != nil {
		c.dismissTimer.Stop()
		c.dismissTimer = nil
	}
	c.active = nil
	c.phase = PhaseIdle
	c.transcript = ""
	c.resultText = ""
	c.resultKind = ""
}

// speakAside plays a short confirmation without touching the phase.
func (c *Controller) speakAside(text string) {
	if err := c.synth.Speak(c.ctx, text); err != nil {
		c.logger.Debug("confirmation playback failed", zap.Error(err))
	}
}
