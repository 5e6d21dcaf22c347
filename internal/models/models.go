package models

import "time"

// ChallengeID identifies one of the three fixed daily challenge tracks.
type ChallengeID string

const (
	ChallengeMemory    ChallengeID = "memory"
	ChallengeSpatial   ChallengeID = "spatial"
	ChallengeNumerical ChallengeID = "numerical"
)

// ChallengeIDs lists the fixed tracks in display order.
var ChallengeIDs = []ChallengeID{ChallengeMemory, ChallengeSpatial, ChallengeNumerical}

// Valid reports whether id is one of the fixed challenge tracks.
func (c ChallengeID) Valid() bool {
	switch c {
	case ChallengeMemory, ChallengeSpatial, ChallengeNumerical:
		return true
	}
	return false
}

// Session is one completed (or abandoned-with-result) training run.
// Immutable once created; sessions form an append-only log.
type Session struct {
	ID              string      `json:"id"`
	DateISO         time.Time   `json:"dateISO"`
	ChallengeID     ChallengeID `json:"challengeId"`
	Score           int         `json:"score"`
	DurationMin     int         `json:"durationMin"`
	BonusMultiplier float64     `json:"bonusMultiplier"`
	Adaptive        bool        `json:"adaptive"`
}

// TrainingData is the persisted progression state, one document per install.
type TrainingData struct {
	XP             int                  `json:"xp"`
	Streak         int                  `json:"streak"`
	LastActiveDate string               `json:"lastActiveDate"` // YYYY-MM-DD, empty when fresh
	CompletedToday map[ChallengeID]bool `json:"completedToday"`
	Sessions       []Session            `json:"sessions"`
}

// DefaultTrainingData returns a fresh zero-progress document.
func DefaultTrainingData() TrainingData {
	return TrainingData{
		CompletedToday: map[ChallengeID]bool{
			ChallengeMemory:    false,
			ChallengeSpatial:   false,
			ChallengeNumerical: false,
		},
		Sessions: []Session{},
	}
}

// SessionPayload is the addSession input: everything but the generated
// id and timestamp.
type SessionPayload struct {
	ChallengeID     ChallengeID `json:"challengeId"`
	Score           int         `json:"score"`
	DurationMin     int         `json:"durationMin"`
	BonusMultiplier float64     `json:"bonusMultiplier"`
	Adaptive        bool        `json:"adaptive"`
}

// SessionFilter narrows session-history queries.
type SessionFilter struct {
	ChallengeID ChallengeID
	Since       *time.Time
	Limit       int
	Offset      int
	OrderDir    string
}

// LevelInfo is the pure projection of XP onto levels.
type LevelInfo struct {
	Level     int `json:"level"`
	XPInLevel int `json:"xpInLevel"`
	ToNext    int `json:"toNext"`
	Progress  int `json:"progress"`
}
