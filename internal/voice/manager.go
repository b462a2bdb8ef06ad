package voice

import (
	"sync"

	domainservice "medication-service/internal/domain/service"

	"go.uber.org/zap"
)

// Manager owns one reminder controller per active user session. Controllers
// are created lazily when a user's schedule session starts and torn down when
// the user leaves or the service shuts down.
type Manager struct {
	schedule      domainservice.ScheduleService
	newSynth      func(userID string) Synthesizer
	newRecognizer func(userID string) Recognizer
	policy        Policy
	logger        *zap.Logger

	mu          sync.Mutex
	controllers map[string]*Controller
}

// NewManager creates a reminder session manager.
func NewManager(
	schedule domainservice.ScheduleService,
	newSynth func(userID string) Synthesizer,
	newRecognizer func(userID string) Recognizer,
	policy Policy,
	logger *zap.Logger,
) *Manager {
	return &Manager{
		schedule:      schedule,
		newSynth:      newSynth,
		newRecognizer: newRecognizer,
		policy:        policy,
		logger:        logger,
		controllers:   make(map[string]*Controller),
	}
}

// Session returns the user's controller, starting one if needed.
func (m *Manager) Session(userID string) *Controller {
	m.mu.Lock()
	defer m.mu.Unlock()

	if c, ok := m.controllers[userID]; ok {
		return c
	}

	c := NewController(userID, m.schedule, m.newSynth(userID), m.newRecognizer(userID), m.policy, m.logger)
	c.Start()
	m.controllers[userID] = c
	return c
}

// Active returns the user's controller without creating one.
func (m *Manager) Active(userID string) (*Controller, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.controllers[userID]
	return c, ok
}

// End stops and removes the user's controller.
func (m *Manager) End(userID string) {
	m.mu.Lock()
	c, ok := m.controllers[userID]
	delete(m.controllers, userID)
	m.mu.Unlock()

	if ok {
		c.Stop()
	}
}

// Shutdown stops every controller.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	controllers := make([]*Controller, 0, len(m.controllers))
	for _, c := range m.controllers {
		controllers = append(controllers, c)
	}
	m.controllers = make(map[string]*Controller)
	m.mu.Unlock()

	for _, c := range controllers {
		c.Stop()
	}
}
