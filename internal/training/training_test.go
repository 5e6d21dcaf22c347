package training

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matea/trainer/internal/models"
)

func mustTime(t *testing.T, v string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, v)
	require.NoError(t, err)
	return ts
}

func TestCalcLevel(t *testing.T) {
	tests := []struct {
		xp        int
		level     int
		xpInLevel int
		toNext    int
		progress  int
	}{
		{0, 1, 0, 100, 0},
		{50, 1, 50, 50, 50},
		{99, 1, 99, 1, 99},
		{100, 2, 0, 100, 0},
		{250, 3, 50, 50, 50},
		{1234, 13, 34, 66, 34},
	}

	for _, tt := range tests {
		info := CalcLevel(tt.xp)
		assert.Equal(t, tt.level, info.Level, "xp=%d", tt.xp)
		assert.Equal(t, tt.xpInLevel, info.XPInLevel, "xp=%d", tt.xp)
		assert.Equal(t, tt.toNext, info.ToNext, "xp=%d", tt.xp)
		assert.Equal(t, tt.progress, info.Progress, "xp=%d", tt.xp)
		assert.GreaterOrEqual(t, info.Progress, 0)
		assert.LessOrEqual(t, info.Progress, 100)
	}
}

func TestGainedXP(t *testing.T) {
	assert.Equal(t, 5, GainedXP(0, 1.0), "floor applies to zero score")
	assert.Equal(t, 5, GainedXP(3, 1.0))
	assert.Equal(t, 5000, GainedXP(5000, 1.0))
	assert.Equal(t, 6000, GainedXP(5000, 1.2))
	assert.Equal(t, 13, GainedXP(25, 0.5), "12.5 rounds half away from zero")
}

func TestDaysBetween(t *testing.T) {
	assert.Equal(t, 0, DaysBetween("2026-08-31", "2026-08-31"))
	assert.Equal(t, 1, DaysBetween("2026-08-30", "2026-08-31"))
	assert.Equal(t, 3, DaysBetween("2026-08-28", "2026-08-31"))
	assert.Equal(t, -1, DaysBetween("2026-09-01", "2026-08-31"), "regression is negative")
	assert.Equal(t, 1, DaysBetween("2026-08-31", "2026-09-01"), "month boundary")
}

func TestEnsureDaily(t *testing.T) {
	now := mustTime(t, "2026-08-31T09:00:00Z")

	t.Run("fresh document gets today", func(t *testing.T) {
		d := EnsureDaily(models.TrainingData{}, now)
		assert.Equal(t, "2026-08-31", d.LastActiveDate)
		assert.Equal(t, 0, d.Streak)
		assert.False(t, d.CompletedToday[models.ChallengeMemory])
	})

	t.Run("same day is idempotent", func(t *testing.T) {
		d := models.TrainingData{
			Streak:         4,
			LastActiveDate: "2026-08-31",
			CompletedToday: map[models.ChallengeID]bool{models.ChallengeMemory: true},
		}
		got := EnsureDaily(d, now)
		assert.Equal(t, 4, got.Streak)
		assert.True(t, got.CompletedToday[models.ChallengeMemory], "flags untouched within the day")
	})

	t.Run("next day resets flags but keeps streak", func(t *testing.T) {
		d := models.TrainingData{
			Streak:         4,
			LastActiveDate: "2026-08-30",
			CompletedToday: map[models.ChallengeID]bool{models.ChallengeMemory: true},
		}
		got := EnsureDaily(d, now)
		assert.Equal(t, 4, got.Streak, "streak decided by the first session, not the rollover")
		assert.False(t, got.CompletedToday[models.ChallengeMemory])
		assert.Equal(t, "2026-08-31", got.LastActiveDate)
	})

	t.Run("gap of two days zeroes the streak", func(t *testing.T) {
		d := models.TrainingData{Streak: 9, LastActiveDate: "2026-08-29"}
		got := EnsureDaily(d, now)
		assert.Equal(t, 0, got.Streak)
		assert.Equal(t, "2026-08-31", got.LastActiveDate)
	})

	t.Run("date regression zeroes the streak", func(t *testing.T) {
		d := models.TrainingData{Streak: 9, LastActiveDate: "2026-09-15"}
		got := EnsureDaily(d, now)
		assert.Equal(t, 0, got.Streak)
	})
}

func TestApplySession(t *testing.T) {
	now := mustTime(t, "2026-08-31T09:00:00Z")
	payload := models.SessionPayload{
		ChallengeID:     models.ChallengeNumerical,
		Score:           3000,
		DurationMin:     3,
		BonusMultiplier: 1.0,
	}

	t.Run("first session ever starts streak at 1", func(t *testing.T) {
		d, sess, gained := ApplySession(models.DefaultTrainingData(), payload, "s-1", now)
		assert.Equal(t, 1, d.Streak)
		assert.Equal(t, 3000, d.XP)
		assert.Equal(t, 3000, gained)
		assert.True(t, d.CompletedToday[models.ChallengeNumerical])
		assert.Equal(t, "2026-08-31", d.LastActiveDate)
		require.Len(t, d.Sessions, 1)
		assert.Equal(t, "s-1", sess.ID)
		assert.Equal(t, now.UTC(), sess.DateISO)
	})

	t.Run("first session after consecutive day increments streak", func(t *testing.T) {
		d := models.TrainingData{
			XP:             500,
			Streak:         4,
			LastActiveDate: "2026-08-30",
			CompletedToday: map[models.ChallengeID]bool{},
		}
		got, _, _ := ApplySession(d, payload, "s-2", now)
		assert.Equal(t, 5, got.Streak)
	})

	t.Run("first session after a gap restarts streak at 1", func(t *testing.T) {
		d := models.TrainingData{
			Streak:         7,
			LastActiveDate: "2026-08-25",
			CompletedToday: map[models.ChallengeID]bool{},
		}
		got, _, _ := ApplySession(d, payload, "s-3", now)
		assert.Equal(t, 1, got.Streak)
	})

	t.Run("second session today leaves streak alone", func(t *testing.T) {
		d := models.DefaultTrainingData()
		d, _, _ = ApplySession(d, payload, "s-4", now)
		require.Equal(t, 1, d.Streak)
		later := now.Add(2 * time.Hour)
		got, _, _ := ApplySession(d, payload, "s-5", later)
		assert.Equal(t, 1, got.Streak)
		assert.Len(t, got.Sessions, 2)
	})

	t.Run("xp floor for a failed run", func(t *testing.T) {
		zero := models.SessionPayload{ChallengeID: models.ChallengeMemory, Score: 0, BonusMultiplier: 1.0}
		d, _, gained := ApplySession(models.DefaultTrainingData(), zero, "s-6", now)
		assert.Equal(t, 5, gained)
		assert.Equal(t, 5, d.XP)
	})
}

func TestDerivedProjections(t *testing.T) {
	now := mustTime(t, "2026-08-31T20:00:00Z")
	sessions := []models.Session{
		{DateISO: mustTime(t, "2026-08-31T08:00:00Z"), ChallengeID: models.ChallengeMemory, Score: 2000, DurationMin: 3, BonusMultiplier: 1.0},
		{DateISO: mustTime(t, "2026-08-31T10:00:00Z"), ChallengeID: models.ChallengeSpatial, Score: 0, DurationMin: 2, BonusMultiplier: 1.0},
		{DateISO: mustTime(t, "2026-08-29T10:00:00Z"), ChallengeID: models.ChallengeMemory, Score: 1000, DurationMin: 4, BonusMultiplier: 1.0},
		{DateISO: mustTime(t, "2026-08-20T10:00:00Z"), ChallengeID: models.ChallengeMemory, Score: 1000, DurationMin: 4, BonusMultiplier: 1.0},
	}

	assert.Equal(t, 2005, DailyXPToday(sessions, now), "2000 plus the floor of 5")
	assert.Equal(t, 5, FocusMinutesToday(sessions, now))
	assert.Equal(t, 2, WeeklyActiveDays(sessions, now), "old session outside the window")

	d := models.TrainingData{CompletedToday: map[models.ChallengeID]bool{
		models.ChallengeMemory:  true,
		models.ChallengeSpatial: true,
	}}
	assert.Equal(t, 2, CompletedCountToday(d))
}
