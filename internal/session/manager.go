package session

import (
	"sync"

	"github.com/google/uuid"

	"github.com/matea/trainer/internal/challenge"
	"github.com/matea/trainer/internal/errors"
	"github.com/matea/trainer/internal/logger"
)

// Manager owns the live session controllers, keyed by session id.
type Manager struct {
	mu       sync.Mutex
	cfg      Config
	clock    Clock
	sessions map[string]*Controller
	log      *logger.Logger
}

func NewManager(cfg Config, clock Clock) *Manager {
	if clock == nil {
		clock = RealClock()
	}
	return &Manager{
		cfg:      cfg,
		clock:    clock,
		sessions: map[string]*Controller{},
		log:      logger.Default().WithPrefix("session-manager"),
	}
}

// Start creates a controller over a challenge document and begins its
// first memorize phase immediately. The completion callback fires once,
// after the last item is scored.
func (m *Manager) Start(doc *challenge.Doc, onComplete func(Result)) *Controller {
	id := uuid.NewString()

	// Drop the registry entry once the session finishes.
	wrapped := func(res Result) {
		if onComplete != nil {
			onComplete(res)
		}
		m.remove(id)
	}

	c := newController(id, doc, m.cfg, m.clock, wrapped)

	m.mu.Lock()
	m.sessions[id] = c
	m.mu.Unlock()
	m.log.Info("session %s started: type=%s, items=%d", id, doc.Type, len(doc.Items))
	return c
}

// Get returns the live controller for id.
func (m *Manager) Get(id string) (*Controller, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.sessions[id]
	if !ok {
		return nil, errors.NewNotFoundError("session", id)
	}
	return c, nil
}

// Exit abandons a live session and removes it from the registry. With
// report set, the partial score still reaches the completion callback.
func (m *Manager) Exit(id string, report bool) error {
	c, err := m.Get(id)
	if err != nil {
		return err
	}
	if report {
		c.ExitReporting()
	} else {
		c.Exit()
	}
	m.remove(id)
	return nil
}

func (m *Manager) remove(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

// Shutdown abandons every live session.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	controllers := make([]*Controller, 0, len(m.sessions))
	for _, c := range m.sessions {
		controllers = append(controllers, c)
	}
	m.sessions = map[string]*Controller{}
	m.mu.Unlock()

	for _, c := range controllers {
		c.Exit()
	}
	m.log.Info("all sessions stopped")
}
