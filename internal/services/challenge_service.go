package services

import (
	"context"
	"math"

	"github.com/matea/trainer/internal/challenge"
	apperrors "github.com/matea/trainer/internal/errors"
	"github.com/matea/trainer/internal/generator"
	"github.com/matea/trainer/internal/logger"
	"github.com/matea/trainer/internal/models"
	"github.com/matea/trainer/internal/session"
	"github.com/matea/trainer/internal/store"
	"github.com/matea/trainer/internal/worker"
)

const defaultDifficulty = "medium"

// ChallengeService starts and drives challenge sessions. Documents come
// from the prefetch cache when possible, falling back to a live
// generator call; finished sessions are recorded on the training store
// automatically.
type ChallengeService struct {
	client   *generator.Client
	cache    *generator.Cache
	pool     *worker.Pool
	sessions *session.Manager
	store    *store.TrainingStore
	log      *logger.Logger
}

func NewChallengeService(client *generator.Client, cache *generator.Cache, pool *worker.Pool, sessions *session.Manager, st *store.TrainingStore) *ChallengeService {
	return &ChallengeService{
		client:   client,
		cache:    cache,
		pool:     pool,
		sessions: sessions,
		store:    st,
		log:      logger.Default().WithPrefix("challenge_service"),
	}
}

// StartSession fetches a challenge document for the track and starts its
// phase machine. Generator failure is terminal: no retries, the caller
// gets an upstream error.
func (s *ChallengeService) StartSession(ctx context.Context, typ models.ChallengeID, difficulty string) (session.State, error) {
	log := logger.FromContext(ctx).WithPrefix("challenge_service")

	if !typ.Valid() {
		return session.State{}, apperrors.NewValidationError("type", "must be one of memory, spatial, numerical")
	}
	if difficulty == "" {
		difficulty = defaultDifficulty
	}

	doc, ok := s.cache.Take(typ)
	if ok {
		log.Debug("using prefetched document for %s", typ)
	} else {
		var err error
		doc, err = s.client.Create(ctx, typ, difficulty, true, nil)
		if err != nil {
			log.Error("generator call failed: %v", err)
			return session.State{}, apperrors.NewUpstreamError(err)
		}
	}

	c := s.sessions.Start(doc, func(res session.Result) {
		s.recordResult(doc.Type, res)
	})

	// Refill the cache for the next run of this track.
	s.pool.TrySubmit(&worker.PrefetchChallengeJob{
		Type:       typ,
		Difficulty: difficulty,
		Source:     s.client,
		Sink:       s.cache,
	})

	return c.State(), nil
}

// recordResult books a completed session on the training store. Runs on
// whatever goroutine finished the session, so it carries its own context.
func (s *ChallengeService) recordResult(typ models.ChallengeID, res session.Result) {
	duration := int(math.Round(res.CompletedAt.Sub(res.StartedAt).Minutes()))
	if duration < 1 {
		duration = 1
	}
	_, gained, err := s.store.AddSession(context.Background(), models.SessionPayload{
		ChallengeID:     typ,
		Score:           res.Score,
		DurationMin:     duration,
		BonusMultiplier: 1.0,
		Adaptive:        true,
	})
	if err != nil {
		s.log.Error("failed to record completed session %s: %v", res.SessionID, err)
		return
	}
	s.log.Info("recorded session %s: score=%d, gained_xp=%d", res.SessionID, res.Score, gained)
}

// SessionState returns the current snapshot of a live session.
func (s *ChallengeService) SessionState(id string) (session.State, error) {
	c, err := s.sessions.Get(id)
	if err != nil {
		return session.State{}, err
	}
	return c.State(), nil
}

// SubmitAnswer scores an answer for the session's current item.
func (s *ChallengeService) SubmitAnswer(id string, ans challenge.Answer) (session.State, error) {
	c, err := s.sessions.Get(id)
	if err != nil {
		return session.State{}, err
	}
	if err := c.Submit(ans); err != nil {
		return session.State{}, err
	}
	return c.State(), nil
}

// SkipItem advances the session's current item without scoring.
func (s *ChallengeService) SkipItem(id string) (session.State, error) {
	c, err := s.sessions.Get(id)
	if err != nil {
		return session.State{}, err
	}
	if err := c.Skip(); err != nil {
		return session.State{}, err
	}
	return c.State(), nil
}

// ExitSession abandons a live session, optionally booking the partial
// score like a completed one.
func (s *ChallengeService) ExitSession(id string, report bool) error {
	return s.sessions.Exit(id, report)
}

// Warmup prefetches one document per track at startup.
func (s *ChallengeService) Warmup() {
	for _, typ := range models.ChallengeIDs {
		s.pool.TrySubmit(&worker.PrefetchChallengeJob{
			Type:       typ,
			Difficulty: defaultDifficulty,
			Source:     s.client,
			Sink:       s.cache,
		})
	}
}
