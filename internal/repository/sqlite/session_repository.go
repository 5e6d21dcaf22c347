package sqlite

import (
	"context"
	"database/sql"

	"github.com/Masterminds/squirrel"
	"github.com/matea/trainer/internal/logger"
	"github.com/matea/trainer/internal/models"
	"github.com/matea/trainer/internal/repository"
)

var sqlBuilder = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)

type sessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new SessionRepository implementation
func NewSessionRepository(db *sql.DB) repository.SessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) Insert(ctx context.Context, s models.Session) error {
	log := logger.FromContext(ctx).WithPrefix("session_repo")
	log.Debug("inserting session: id=%s, challenge=%s, score=%d", s.ID, s.ChallengeID, s.Score)

	_, err := r.db.ExecContext(ctx, `
INSERT INTO sessions (id, date_iso, challenge_id, score, duration_min, bonus_multiplier, adaptive)
VALUES (?, ?, ?, ?, ?, ?, ?)
`, s.ID, s.DateISO, string(s.ChallengeID), s.Score, s.DurationMin, s.BonusMultiplier, s.Adaptive)
	if err != nil {
		log.Error("failed to insert session: %v", err)
	}
	return err
}

func (r *sessionRepository) List(ctx context.Context, filter models.SessionFilter) ([]models.Session, error) {
	log := logger.FromContext(ctx).WithPrefix("session_repo")
	log.Debug("listing sessions with filter: challenge=%s, limit=%d, offset=%d",
		filter.ChallengeID, filter.Limit, filter.Offset)

	query := sqlBuilder.Select(
		"id", "date_iso", "challenge_id", "score", "duration_min", "bonus_multiplier", "adaptive",
	).From("sessions")
	query = applySessionFilter(query, filter)

	// Safe ORDER BY with validation
	orderDir := "DESC"
	if filter.OrderDir == "ASC" {
		orderDir = "ASC"
	}
	query = query.OrderBy("date_iso " + orderDir)

	limit := filter.Limit
	if limit <= 0 {
		limit = 200
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	query = query.Limit(uint64(limit)).Offset(uint64(offset))

	sqlStr, args, err := query.ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		log.Error("failed to list sessions: %v", err)
		return nil, err
	}
	defer rows.Close()
	var sessions []models.Session
	for rows.Next() {
		var s models.Session
		var challenge string
		if err := rows.Scan(&s.ID, &s.DateISO, &challenge, &s.Score, &s.DurationMin, &s.BonusMultiplier, &s.Adaptive); err != nil {
			log.Error("failed to scan session row: %v", err)
			return nil, err
		}
		s.ChallengeID = models.ChallengeID(challenge)
		sessions = append(sessions, s)
	}
	log.Debug("found %d sessions", len(sessions))
	return sessions, rows.Err()
}

func (r *sessionRepository) Count(ctx context.Context, filter models.SessionFilter) (int, error) {
	log := logger.FromContext(ctx).WithPrefix("session_repo")

	query := sqlBuilder.Select("COUNT(*)").From("sessions")
	query = applySessionFilter(query, filter)

	sqlStr, args, err := query.ToSql()
	if err != nil {
		log.Error("failed to build count query: %v", err)
		return 0, err
	}
	var n int
	if err := r.db.QueryRowContext(ctx, sqlStr, args...).Scan(&n); err != nil {
		log.Error("failed to count sessions: %v", err)
		return 0, err
	}
	return n, nil
}

func applySessionFilter(query squirrel.SelectBuilder, filter models.SessionFilter) squirrel.SelectBuilder {
	if filter.ChallengeID != "" {
		query = query.Where(squirrel.Eq{"challenge_id": string(filter.ChallengeID)})
	}
	if filter.Since != nil {
		query = query.Where(squirrel.GtOrEq{"date_iso": *filter.Since})
	}
	return query
}
