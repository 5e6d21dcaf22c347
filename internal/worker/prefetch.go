package worker

import (
	"context"
	"fmt"

	"github.com/matea/trainer/internal/challenge"
	"github.com/matea/trainer/internal/logger"
	"github.com/matea/trainer/internal/models"
)

// DocSource produces a fresh challenge document for a track.
type DocSource interface {
	Create(ctx context.Context, typ models.ChallengeID, difficulty string, adaptive bool, seed *int64) (*challenge.Doc, error)
}

// DocSink receives prefetched documents.
type DocSink interface {
	Put(typ models.ChallengeID, doc *challenge.Doc)
	Has(typ models.ChallengeID) bool
}

// PrefetchChallengeJob fetches one challenge document ahead of demand so
// the next session of that track starts instantly.
type PrefetchChallengeJob struct {
	Type       models.ChallengeID
	Difficulty string
	Source     DocSource
	Sink       DocSink
}

func (j *PrefetchChallengeJob) Name() string {
	return fmt.Sprintf("prefetch_challenge[%s]", j.Type)
}

func (j *PrefetchChallengeJob) Run(ctx context.Context) error {
	log := logger.FromContext(ctx)
	if j.Sink.Has(j.Type) {
		log.Debug("document already cached for %s, skipping", j.Type)
		return nil
	}
	doc, err := j.Source.Create(ctx, j.Type, j.Difficulty, true, nil)
	if err != nil {
		return err
	}
	j.Sink.Put(j.Type, doc)
	log.Debug("prefetched challenge %s for %s", doc.ChallengeID, j.Type)
	return nil
}
