package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/matea/trainer/internal/logger"
	"github.com/matea/trainer/internal/models"
	"github.com/matea/trainer/internal/repository"
)

// ErrMalformedState marks a stored document that no longer parses.
// Callers fall back to a fresh document instead of failing.
var ErrMalformedState = errors.New("malformed persisted state")

type stateRepository struct {
	db *sql.DB
}

// NewStateRepository creates a new StateRepository implementation
func NewStateRepository(db *sql.DB) repository.StateRepository {
	return &stateRepository{db: db}
}

func (r *stateRepository) Load(ctx context.Context, key string) (*models.TrainingData, error) {
	log := logger.FromContext(ctx).WithPrefix("state_repo")
	log.Debug("loading state: key=%s", key)

	var raw string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM app_state WHERE key = ?`, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		log.Debug("no state stored yet: key=%s", key)
		return nil, nil
	}
	if err != nil {
		log.Error("failed to load state: %v", err)
		return nil, err
	}

	var data models.TrainingData
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		log.Error("stored state does not parse: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrMalformedState, err)
	}
	log.Debug("state loaded: xp=%d, streak=%d, sessions=%d", data.XP, data.Streak, len(data.Sessions))
	return &data, nil
}

func (r *stateRepository) Save(ctx context.Context, key string, data models.TrainingData) error {
	log := logger.FromContext(ctx).WithPrefix("state_repo")
	log.Debug("saving state: key=%s, xp=%d, streak=%d", key, data.XP, data.Streak)

	raw, err := json.Marshal(data)
	if err != nil {
		log.Error("failed to marshal state: %v", err)
		return err
	}
	_, err = r.db.ExecContext(ctx, `
INSERT INTO app_state (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
`, key, string(raw))
	if err != nil {
		log.Error("failed to save state: %v", err)
	}
	return err
}
