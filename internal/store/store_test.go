package store_test

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matea/trainer/internal/models"
	"github.com/matea/trainer/internal/repository/sqlite"
	"github.com/matea/trainer/internal/store"
	"github.com/matea/trainer/internal/testutil"
)

type fixture struct {
	db    *sql.DB
	store *store.TrainingStore
	now   *time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewTestDB(t)
	t.Cleanup(func() { testutil.MustClose(t, db) })

	now := time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC)
	f := &fixture{db: db, now: &now}

	n := 0
	st, err := store.New(context.Background(),
		sqlite.NewStateRepository(db),
		sqlite.NewSessionRepository(db),
		store.WithClock(func() time.Time { return *f.now }),
		store.WithIDGenerator(func() string { n++; return fmt.Sprintf("s-%d", n) }),
	)
	require.NoError(t, err)
	f.store = st
	return f
}

func payload(challenge models.ChallengeID, score int) models.SessionPayload {
	return models.SessionPayload{
		ChallengeID:     challenge,
		Score:           score,
		DurationMin:     3,
		BonusMultiplier: 1.0,
		Adaptive:        true,
	}
}

func TestStoreStartsFresh(t *testing.T) {
	f := newFixture(t)
	data := f.store.Data()
	assert.Equal(t, 0, data.XP)
	assert.Equal(t, "2026-08-31", data.LastActiveDate)
	assert.Empty(t, data.Sessions)
}

func TestAddSessionPersistsAndNotifies(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var notified []models.TrainingData
	unsubscribe := f.store.Subscribe(func(d models.TrainingData) {
		notified = append(notified, d)
	})

	sess, gained, err := f.store.AddSession(ctx, payload(models.ChallengeNumerical, 3000))
	require.NoError(t, err)
	assert.Equal(t, "s-1", sess.ID)
	assert.Equal(t, 3000, gained)

	require.Len(t, notified, 1)
	assert.Equal(t, 3000, notified[0].XP)
	assert.Equal(t, 1, notified[0].Streak)

	// A second store over the same database sees the committed state.
	other, err := store.New(ctx,
		sqlite.NewStateRepository(f.db),
		sqlite.NewSessionRepository(f.db),
		store.WithClock(func() time.Time { return *f.now }),
	)
	require.NoError(t, err)
	assert.Equal(t, 3000, other.Data().XP)

	unsubscribe()
	_, _, err = f.store.AddSession(ctx, payload(models.ChallengeMemory, 1000))
	require.NoError(t, err)
	assert.Len(t, notified, 1, "unsubscribed listener stays silent")
}

func TestAddSessionMirrorsHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, _, err := f.store.AddSession(ctx, payload(models.ChallengeMemory, 2000))
	require.NoError(t, err)
	_, _, err = f.store.AddSession(ctx, payload(models.ChallengeSpatial, 1000))
	require.NoError(t, err)

	history, err := f.store.History(ctx, models.SessionFilter{})
	require.NoError(t, err)
	assert.Len(t, history, 2)

	memory, err := f.store.History(ctx, models.SessionFilter{ChallengeID: models.ChallengeMemory})
	require.NoError(t, err)
	require.Len(t, memory, 1)
	assert.Equal(t, "s-1", memory[0].ID)
}

func TestDailyRolloverOnRead(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, _, err := f.store.AddSession(ctx, payload(models.ChallengeMemory, 1000))
	require.NoError(t, err)
	require.True(t, f.store.Data().CompletedToday[models.ChallengeMemory])

	*f.now = f.now.Add(24 * time.Hour)
	data := f.store.Data()
	assert.False(t, data.CompletedToday[models.ChallengeMemory], "flags reset on the next day")
	assert.Equal(t, 1, data.Streak, "streak survives a one-day boundary until the next session")

	*f.now = f.now.Add(72 * time.Hour)
	data = f.store.Data()
	assert.Equal(t, 0, data.Streak, "multi-day gap zeroes the streak")
}

func TestStreakAcrossDays(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, _, err := f.store.AddSession(ctx, payload(models.ChallengeMemory, 1000))
	require.NoError(t, err)
	assert.Equal(t, 1, f.store.Data().Streak)

	*f.now = f.now.Add(24 * time.Hour)
	_, _, err = f.store.AddSession(ctx, payload(models.ChallengeMemory, 1000))
	require.NoError(t, err)
	assert.Equal(t, 2, f.store.Data().Streak)

	// Another session the same day leaves the streak alone.
	_, _, err = f.store.AddSession(ctx, payload(models.ChallengeSpatial, 500))
	require.NoError(t, err)
	assert.Equal(t, 2, f.store.Data().Streak)
}

func TestSnapshotDerivedStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, _, err := f.store.AddSession(ctx, payload(models.ChallengeMemory, 2000))
	require.NoError(t, err)
	_, _, err = f.store.AddSession(ctx, payload(models.ChallengeSpatial, 0))
	require.NoError(t, err)

	snap := f.store.Snapshot()
	assert.Equal(t, 2005, snap.Data.XP)
	assert.Equal(t, 21, snap.Level.Level)
	assert.Equal(t, 2, snap.CompletedCountToday)
	assert.Equal(t, 2005, snap.DailyXPToday)
	assert.Equal(t, 6, snap.FocusMinutesToday)
	assert.Equal(t, 1, snap.WeeklyActiveDays)
	assert.Equal(t, 50, snap.DailyGoalXP)
}

func TestMalformedStateFallsBackToDefaults(t *testing.T) {
	db := testutil.NewTestDB(t)
	t.Cleanup(func() { testutil.MustClose(t, db) })

	_, err := db.Exec(`INSERT INTO app_state (key, value) VALUES (?, ?)`, store.StateKey, "{broken")
	require.NoError(t, err)

	st, err := store.New(context.Background(),
		sqlite.NewStateRepository(db),
		sqlite.NewSessionRepository(db),
	)
	require.NoError(t, err)
	assert.Equal(t, 0, st.Data().XP)
}

func TestReloadPicksUpExternalWrites(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	other, err := store.New(ctx,
		sqlite.NewStateRepository(f.db),
		sqlite.NewSessionRepository(f.db),
		store.WithClock(func() time.Time { return *f.now }),
		store.WithIDGenerator(func() string { return "other-1" }),
	)
	require.NoError(t, err)
	_, _, err = other.AddSession(ctx, payload(models.ChallengeNumerical, 4000))
	require.NoError(t, err)

	require.Equal(t, 0, f.store.Data().XP, "first store has not reloaded yet")

	var seen int
	f.store.Subscribe(func(d models.TrainingData) { seen = d.XP })
	require.NoError(t, f.store.Reload(ctx))
	assert.Equal(t, 4000, f.store.Data().XP)
	assert.Equal(t, 4000, seen, "reload notifies listeners")
}
