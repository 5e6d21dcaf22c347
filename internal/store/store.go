// Package store owns the persisted training-progress document: loading
// with fallback, the daily rollover, session recording and change
// notification for any view holding a live handle.
package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/matea/trainer/internal/logger"
	"github.com/matea/trainer/internal/models"
	"github.com/matea/trainer/internal/repository"
	"github.com/matea/trainer/internal/repository/sqlite"
	"github.com/matea/trainer/internal/training"
)

// StateKey is the versioned document key. Bump the suffix on breaking
// layout changes so stale documents fall back to defaults.
const StateKey = "matea.training.v1"

// Listener observes committed state changes. Called synchronously after
// every persisted mutation, outside the store lock.
type Listener func(models.TrainingData)

// Snapshot bundles the document with its derived dashboard stats.
type Snapshot struct {
	Data                models.TrainingData `json:"data"`
	Level               models.LevelInfo    `json:"level"`
	CompletedCountToday int                 `json:"completedCountToday"`
	DailyXPToday        int                 `json:"dailyXPToday"`
	DailyGoalXP         int                 `json:"dailyGoalXP"`
	FocusMinutesToday   int                 `json:"focusMinutesToday"`
	WeeklyActiveDays    int                 `json:"weeklyActiveDays"`
}

// TrainingStore is the single writer of the progress document. All reads
// apply the daily rollover first, so callers never observe yesterday's
// completion flags.
type TrainingStore struct {
	mu        sync.Mutex
	states    repository.StateRepository
	sessions  repository.SessionRepository
	now       func() time.Time
	newID     func() string
	data      models.TrainingData
	listeners map[int]Listener
	nextID    int
	log       *logger.Logger
}

// Option configures a TrainingStore.
type Option func(*TrainingStore)

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *TrainingStore) { s.now = now }
}

// WithIDGenerator overrides session id generation, for tests.
func WithIDGenerator(gen func() string) Option {
	return func(s *TrainingStore) { s.newID = gen }
}

// New loads the stored document and returns a ready store. A missing or
// malformed document falls back to fresh defaults; any other load error
// is returned.
func New(ctx context.Context, states repository.StateRepository, sessions repository.SessionRepository, opts ...Option) (*TrainingStore, error) {
	s := &TrainingStore{
		states:    states,
		sessions:  sessions,
		now:       time.Now,
		newID:     uuid.NewString,
		listeners: map[int]Listener{},
		log:       logger.Default().WithPrefix("store"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.load(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *TrainingStore) load(ctx context.Context) error {
	data, err := s.states.Load(ctx, StateKey)
	switch {
	case errors.Is(err, sqlite.ErrMalformedState):
		s.log.Warn("stored state is malformed, starting fresh")
		d := models.DefaultTrainingData()
		data = &d
	case err != nil:
		return err
	case data == nil:
		s.log.Info("no stored state, starting fresh")
		d := models.DefaultTrainingData()
		data = &d
	}
	s.data = training.EnsureDaily(*data, s.now())
	s.log.Info("state loaded: xp=%d, streak=%d, sessions=%d", s.data.XP, s.data.Streak, len(s.data.Sessions))
	return nil
}

// Reload re-reads the persisted document, replacing in-memory state.
// Lets a process pick up writes made by another process sharing the
// database, the way a second browser tab re-reads on a storage event.
func (s *TrainingStore) Reload(ctx context.Context) error {
	s.mu.Lock()
	if err := s.load(ctx); err != nil {
		s.mu.Unlock()
		return err
	}
	data := cloneData(s.data)
	listeners := s.currentListeners()
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(data)
	}
	return nil
}

// Subscribe registers a change listener and returns its remover.
func (s *TrainingStore) Subscribe(fn Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

func (s *TrainingStore) currentListeners() []Listener {
	out := make([]Listener, 0, len(s.listeners))
	for _, fn := range s.listeners {
		out = append(out, fn)
	}
	return out
}

// Data returns the rolled-over document.
func (s *TrainingStore) Data() models.TrainingData {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = training.EnsureDaily(s.data, s.now())
	return cloneData(s.data)
}

// Snapshot returns the rolled-over document plus its derived stats.
func (s *TrainingStore) Snapshot() Snapshot {
	data := s.Data()
	now := s.now()
	return Snapshot{
		Data:                data,
		Level:               training.CalcLevel(data.XP),
		CompletedCountToday: training.CompletedCountToday(data),
		DailyXPToday:        training.DailyXPToday(data.Sessions, now),
		DailyGoalXP:         training.DailyGoalXP,
		FocusMinutesToday:   training.FocusMinutesToday(data.Sessions, now),
		WeeklyActiveDays:    training.WeeklyActiveDays(data.Sessions, now),
	}
}

// AddSession records a finished session: progression update, synchronous
// persist of the document, session-log mirror insert, then listener
// notification. The document write is authoritative; a session-log
// insert failure is logged but does not fail the call.
func (s *TrainingStore) AddSession(ctx context.Context, payload models.SessionPayload) (models.Session, int, error) {
	s.mu.Lock()
	next, session, gained := training.ApplySession(s.data, payload, s.newID(), s.now())

	if err := s.states.Save(ctx, StateKey, next); err != nil {
		s.mu.Unlock()
		s.log.Error("failed to persist state: %v", err)
		return models.Session{}, 0, err
	}
	s.data = next
	data := cloneData(s.data)
	listeners := s.currentListeners()
	s.mu.Unlock()

	if err := s.sessions.Insert(ctx, session); err != nil {
		s.log.Error("failed to mirror session %s: %v", session.ID, err)
	}

	s.log.Info("session recorded: id=%s, challenge=%s, score=%d, gained_xp=%d, streak=%d",
		session.ID, session.ChallengeID, session.Score, gained, data.Streak)
	for _, fn := range listeners {
		fn(data)
	}
	return session, gained, nil
}

// History queries the mirrored session log.
func (s *TrainingStore) History(ctx context.Context, filter models.SessionFilter) ([]models.Session, error) {
	return s.sessions.List(ctx, filter)
}

func cloneData(d models.TrainingData) models.TrainingData {
	out := d
	out.CompletedToday = make(map[models.ChallengeID]bool, len(d.CompletedToday))
	for k, v := range d.CompletedToday {
		out.CompletedToday[k] = v
	}
	out.Sessions = append([]models.Session(nil), d.Sessions...)
	return out
}
