// Package training holds the pure progression rules: XP and levels,
// daily rollover, streaks and the derived dashboard stats. Everything
// here is a pure function of the data and a clock reading, which keeps
// the rules trivially testable.
package training

import (
	"math"
	"time"

	"github.com/matea/trainer/internal/models"
)

const (
	// LevelSize is the XP span of one level.
	LevelSize = 100
	// DailyGoalXP is the daily XP goal shown on the dashboard.
	DailyGoalXP = 50
	// MinSessionXP is the floor every finished session awards.
	MinSessionXP = 5
)

// DateString formats a timestamp as a UTC calendar date (YYYY-MM-DD).
// All rollover comparisons happen on these strings.
func DateString(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// DaysBetween returns the whole calendar days from date a to date b.
// Negative when b precedes a; 0 on unparseable input.
func DaysBetween(a, b string) int {
	ta, errA := time.Parse("2006-01-02", a)
	tb, errB := time.Parse("2006-01-02", b)
	if errA != nil || errB != nil {
		return 0
	}
	return int(tb.Sub(ta).Hours() / 24)
}

// GainedXP converts a session result to awarded XP, floored at
// MinSessionXP so even a zero-score run counts for something.
func GainedXP(score int, bonusMultiplier float64) int {
	v := int(math.Round(float64(score) * bonusMultiplier))
	if v < MinSessionXP {
		return MinSessionXP
	}
	return v
}

// CalcLevel projects cumulative XP onto a level, the XP inside it, the
// XP remaining to the next level and a 0..100 progress percentage.
func CalcLevel(xp int) models.LevelInfo {
	inLevel := xp % LevelSize
	return models.LevelInfo{
		Level:     xp/LevelSize + 1,
		XPInLevel: inLevel,
		ToNext:    LevelSize - inLevel,
		Progress:  int(math.Round(float64(inLevel) / LevelSize * 100)),
	}
}

func resetFlags() map[models.ChallengeID]bool {
	return map[models.ChallengeID]bool{
		models.ChallengeMemory:    false,
		models.ChallengeSpatial:   false,
		models.ChallengeNumerical: false,
	}
}

// EnsureDaily applies the daily rollover to a loaded document. Same day
// is a no-op. Exactly one day later only the completion flags reset; the
// streak survives until the first session of the new day decides it. Any
// larger gap, or a date regression, zeroes the streak as well.
func EnsureDaily(d models.TrainingData, now time.Time) models.TrainingData {
	today := DateString(now)
	if d.LastActiveDate == "" {
		d.LastActiveDate = today
		d.CompletedToday = resetFlags()
		return d
	}
	switch gap := DaysBetween(d.LastActiveDate, today); {
	case gap == 0:
		return d
	case gap == 1:
		d.CompletedToday = resetFlags()
		d.LastActiveDate = today
		return d
	default:
		d.Streak = 0
		d.CompletedToday = resetFlags()
		d.LastActiveDate = today
		return d
	}
}

// ApplySession records a finished session and returns the updated
// document, the created record and the XP awarded.
//
// The streak only moves on the first session of a day: it increments
// when the previous active date was exactly yesterday, otherwise it
// restarts at 1. Further sessions the same day leave it alone.
func ApplySession(d models.TrainingData, p models.SessionPayload, id string, now time.Time) (models.TrainingData, models.Session, int) {
	today := DateString(now)
	hadSessionToday := false
	for _, s := range d.Sessions {
		if DateString(s.DateISO) == today {
			hadSessionToday = true
			break
		}
	}
	prevStreak := d.Streak
	prevActive := d.LastActiveDate

	d = EnsureDaily(d, now)

	session := models.Session{
		ID:              id,
		DateISO:         now.UTC(),
		ChallengeID:     p.ChallengeID,
		Score:           p.Score,
		DurationMin:     p.DurationMin,
		BonusMultiplier: p.BonusMultiplier,
		Adaptive:        p.Adaptive,
	}
	gained := GainedXP(p.Score, p.BonusMultiplier)

	d.Sessions = append(d.Sessions, session)
	d.XP += gained
	if d.CompletedToday == nil {
		d.CompletedToday = resetFlags()
	}
	d.CompletedToday[p.ChallengeID] = true

	if !hadSessionToday {
		if prevActive != "" && DaysBetween(prevActive, today) == 1 {
			d.Streak = prevStreak + 1
			if d.Streak < 1 {
				d.Streak = 1
			}
		} else {
			d.Streak = 1
		}
	}
	d.LastActiveDate = today

	return d, session, gained
}

// CompletedCountToday counts the tracks finished today.
func CompletedCountToday(d models.TrainingData) int {
	n := 0
	for _, done := range d.CompletedToday {
		if done {
			n++
		}
	}
	return n
}

// DailyXPToday recomputes the XP earned by today's sessions. Recomputed
// from the log rather than stored, so it always agrees with GainedXP.
func DailyXPToday(sessions []models.Session, now time.Time) int {
	today := DateString(now)
	sum := 0
	for _, s := range sessions {
		if DateString(s.DateISO) == today {
			sum += GainedXP(s.Score, s.BonusMultiplier)
		}
	}
	return sum
}

// FocusMinutesToday sums the minutes spent in today's sessions.
func FocusMinutesToday(sessions []models.Session, now time.Time) int {
	today := DateString(now)
	sum := 0
	for _, s := range sessions {
		if DateString(s.DateISO) == today {
			sum += s.DurationMin
		}
	}
	return sum
}

// WeeklyActiveDays counts the distinct calendar dates with at least one
// session inside the trailing seven-day window ending now.
func WeeklyActiveDays(sessions []models.Session, now time.Time) int {
	days := map[string]struct{}{}
	for _, s := range sessions {
		if age := now.Sub(s.DateISO); age >= 0 && age <= 6*24*time.Hour {
			days[DateString(s.DateISO)] = struct{}{}
		}
	}
	return len(days)
}
