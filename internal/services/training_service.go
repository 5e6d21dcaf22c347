package services

import (
	"context"

	apperrors "github.com/matea/trainer/internal/errors"
	"github.com/matea/trainer/internal/logger"
	"github.com/matea/trainer/internal/models"
	"github.com/matea/trainer/internal/repository"
	"github.com/matea/trainer/internal/store"
)

// TrainingService exposes the progress document and session history.
type TrainingService struct {
	store    *store.TrainingStore
	sessions repository.SessionRepository
	log      *logger.Logger
}

func NewTrainingService(st *store.TrainingStore, sessions repository.SessionRepository) *TrainingService {
	return &TrainingService{
		store:    st,
		sessions: sessions,
		log:      logger.Default().WithPrefix("training_service"),
	}
}

// Overview returns the rolled-over document with derived stats.
func (s *TrainingService) Overview(ctx context.Context) store.Snapshot {
	return s.store.Snapshot()
}

// History lists mirrored sessions with the filter applied, plus the
// unpaginated total for the same filter.
func (s *TrainingService) History(ctx context.Context, filter models.SessionFilter) ([]models.Session, int, error) {
	log := logger.FromContext(ctx).WithPrefix("training_service")

	sessions, err := s.sessions.List(ctx, filter)
	if err != nil {
		return nil, 0, apperrors.NewInternalError(err)
	}
	total, err := s.sessions.Count(ctx, filter)
	if err != nil {
		return nil, 0, apperrors.NewInternalError(err)
	}
	log.Debug("history: %d of %d sessions", len(sessions), total)
	return sessions, total, nil
}

// RecordSession validates and records an externally reported session.
func (s *TrainingService) RecordSession(ctx context.Context, payload models.SessionPayload) (models.Session, int, error) {
	log := logger.FromContext(ctx).WithPrefix("training_service")

	if !payload.ChallengeID.Valid() {
		return models.Session{}, 0, apperrors.NewValidationError("challengeId", "must be one of memory, spatial, numerical")
	}
	if payload.Score < 0 {
		return models.Session{}, 0, apperrors.NewValidationError("score", "must not be negative")
	}
	if payload.BonusMultiplier <= 0 {
		payload.BonusMultiplier = 1.0
	}

	session, gained, err := s.store.AddSession(ctx, payload)
	if err != nil {
		log.Error("failed to record session: %v", err)
		return models.Session{}, 0, apperrors.NewInternalError(err)
	}
	return session, gained, nil
}

// Subscribe relays store change notifications.
func (s *TrainingService) Subscribe(fn store.Listener) func() {
	return s.store.Subscribe(fn)
}
