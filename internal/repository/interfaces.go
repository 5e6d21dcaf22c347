package repository

import (
	"context"

	"github.com/matea/trainer/internal/models"
)

// StateRepository stores the versioned training-progress document.
type StateRepository interface {
	// Load returns the document stored under key, or (nil, nil) when no
	// document exists yet.
	Load(ctx context.Context, key string) (*models.TrainingData, error)
	// Save upserts the document under key.
	Save(ctx context.Context, key string, data models.TrainingData) error
}

// SessionRepository mirrors the session log for history queries.
type SessionRepository interface {
	Insert(ctx context.Context, session models.Session) error
	List(ctx context.Context, filter models.SessionFilter) ([]models.Session, error)
	Count(ctx context.Context, filter models.SessionFilter) (int, error)
}
