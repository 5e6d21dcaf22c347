package session

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matea/trainer/internal/challenge"
	"github.com/matea/trainer/internal/models"
)

// fakeClock drives AfterFunc callbacks manually.
type fakeClock struct {
	mu      sync.Mutex
	now     time.Time
	nextID  int
	pending map[int]*fakeTimer
}

type fakeTimer struct {
	clock *fakeClock
	id    int
	at    time.Time
	fn    func()
}

func newFakeClock() *fakeClock {
	return &fakeClock{
		now:     time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC),
		pending: map[int]*fakeTimer{},
	}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, fn func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	t := &fakeTimer{clock: c, id: c.nextID, at: c.now.Add(d), fn: fn}
	c.pending[t.id] = t
	return t
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	_, ok := t.clock.pending[t.id]
	delete(t.clock.pending, t.id)
	return ok
}

// Advance moves the clock and fires due timers one at a time, so a
// callback that schedules a new timer is handled like the real thing.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
	for {
		var due *fakeTimer
		c.mu.Lock()
		for _, t := range c.pending {
			if !t.at.After(c.now) {
				due = t
				break
			}
		}
		if due != nil {
			delete(c.pending, due.id)
		}
		c.mu.Unlock()
		if due == nil {
			return
		}
		due.fn()
	}
}

func binaryItem(t *testing.T, id, bits string) challenge.Item {
	t.Helper()
	return challenge.Item{
		ItemID:  id,
		Variant: challenge.VariantBaseConvert,
		Prompt:  "Ubah " + bits + "₂ ke desimal",
	}
}

func testDoc(t *testing.T) *challenge.Doc {
	t.Helper()
	return &challenge.Doc{
		ChallengeID: "doc-1",
		Type:        models.ChallengeNumerical,
		Items: []challenge.Item{
			binaryItem(t, "it-1", "101"), // 5
			binaryItem(t, "it-2", "110"), // 6
		},
	}
}

func answerValue(v float64) challenge.Answer {
	return challenge.Answer{Value: &v}
}

func testConfig() Config {
	return Config{MemorizeSec: 20, AnswerSec: 10, ItemPoints: 1000}
}

func startSession(t *testing.T, clock Clock, onComplete func(Result)) *Controller {
	t.Helper()
	m := NewManager(testConfig(), clock)
	return m.Start(testDoc(t), onComplete)
}

func TestPhaseTransitions(t *testing.T) {
	clock := newFakeClock()
	c := startSession(t, clock, nil)

	st := c.State()
	assert.Equal(t, PhaseMemorize, st.Phase)
	assert.Equal(t, 0, st.Index)
	assert.Equal(t, 2, st.Total)
	assert.Equal(t, clock.Now().Add(20*time.Second), st.PhaseEnds)

	clock.Advance(20 * time.Second)
	st = c.State()
	assert.Equal(t, PhaseAnswer, st.Phase)
	assert.Equal(t, clock.Now().Add(10*time.Second), st.PhaseEnds)
}

func TestSubmitDuringMemorizeRejected(t *testing.T) {
	clock := newFakeClock()
	c := startSession(t, clock, nil)

	err := c.Submit(answerValue(5))
	require.Error(t, err)
	assert.Equal(t, PhaseMemorize, c.State().Phase, "state unchanged")

	err = c.Skip()
	require.Error(t, err, "skipping during memorize is not allowed")
}

func TestSubmitScoresAndAdvances(t *testing.T) {
	clock := newFakeClock()
	c := startSession(t, clock, nil)

	clock.Advance(20 * time.Second)
	require.NoError(t, c.Submit(answerValue(5)))

	st := c.State()
	assert.Equal(t, 1000, st.Score)
	assert.Equal(t, 1, st.Index)
	assert.Equal(t, PhaseMemorize, st.Phase, "next item starts in memorize")
}

func TestIncorrectSubmitScoresZero(t *testing.T) {
	clock := newFakeClock()
	c := startSession(t, clock, nil)

	clock.Advance(20 * time.Second)
	require.NoError(t, c.Submit(answerValue(7)))
	assert.Equal(t, 0, c.State().Score)
	assert.Equal(t, 1, c.State().Index)
}

func TestAnswerTimeoutAutoSubmits(t *testing.T) {
	clock := newFakeClock()
	c := startSession(t, clock, nil)

	clock.Advance(20 * time.Second)
	clock.Advance(10 * time.Second)

	st := c.State()
	assert.Equal(t, 1, st.Index, "timeout advanced to the next item")
	assert.Equal(t, 0, st.Score, "empty auto-submission is incorrect")
}

func TestSkipAdvancesWithoutScoring(t *testing.T) {
	clock := newFakeClock()
	c := startSession(t, clock, nil)

	clock.Advance(20 * time.Second)
	require.NoError(t, c.Skip())
	st := c.State()
	assert.Equal(t, 1, st.Index)
	assert.Equal(t, 0, st.Score)
}

func TestCompletionCallback(t *testing.T) {
	clock := newFakeClock()
	var result *Result
	c := startSession(t, clock, func(r Result) { result = &r })

	clock.Advance(20 * time.Second)
	require.NoError(t, c.Submit(answerValue(5)))
	clock.Advance(20 * time.Second)
	require.NoError(t, c.Submit(answerValue(6)))

	require.NotNil(t, result)
	assert.Equal(t, 2000, result.Score)
	assert.Equal(t, 2, result.CorrectN)
	assert.Equal(t, 2, result.ItemCount)
	assert.True(t, c.Done())
}

func TestStaleTimerCannotFireIntoLaterItem(t *testing.T) {
	clock := newFakeClock()
	c := startSession(t, clock, nil)

	clock.Advance(20 * time.Second)
	require.NoError(t, c.Submit(answerValue(5)))
	require.Equal(t, 1, c.State().Index)

	// Walk past where the first item's answer deadline would have been.
	// The second item must still be in its own memorize phase.
	clock.Advance(10 * time.Second)
	st := c.State()
	assert.Equal(t, 1, st.Index)
	assert.Equal(t, PhaseMemorize, st.Phase)
	assert.Equal(t, 0, st.Score)
}

func TestExitAbandonsWithoutCallback(t *testing.T) {
	clock := newFakeClock()
	called := false
	c := startSession(t, clock, func(Result) { called = true })

	clock.Advance(20 * time.Second)
	c.Exit()
	assert.True(t, c.Done())

	clock.Advance(time.Hour)
	assert.False(t, called, "abandoned session never completes")
}

func TestManagerRegistry(t *testing.T) {
	clock := newFakeClock()
	m := NewManager(testConfig(), clock)
	c := m.Start(testDoc(t), nil)

	got, err := m.Get(c.State().SessionID)
	require.NoError(t, err)
	assert.Same(t, c, got)

	_, err = m.Get("missing")
	require.Error(t, err)

	require.NoError(t, m.Exit(c.State().SessionID, false))
	_, err = m.Get(c.State().SessionID)
	assert.Error(t, err, "exited session is removed")
}

func TestExitReportingDeliversPartialScore(t *testing.T) {
	clock := newFakeClock()
	m := NewManager(testConfig(), clock)
	var result *Result
	c := m.Start(testDoc(t), func(r Result) { result = &r })
	id := c.State().SessionID

	clock.Advance(20 * time.Second)
	require.NoError(t, c.Submit(answerValue(5)))

	require.NoError(t, m.Exit(id, true))
	require.NotNil(t, result)
	assert.Equal(t, 1000, result.Score)
	assert.Equal(t, 1, result.CorrectN)
	assert.Equal(t, 2, result.ItemCount)

	_, err := m.Get(id)
	assert.Error(t, err)
}

func TestManagerRemovesCompletedSession(t *testing.T) {
	clock := newFakeClock()
	m := NewManager(testConfig(), clock)
	c := m.Start(testDoc(t), nil)
	id := c.State().SessionID

	clock.Advance(20 * time.Second)
	require.NoError(t, c.Skip())
	clock.Advance(20 * time.Second)
	require.NoError(t, c.Skip())

	_, err := m.Get(id)
	assert.Error(t, err)
}

func TestStateSanitizesItem(t *testing.T) {
	clock := newFakeClock()
	doc := testDoc(t)
	doc.Items[0].AnswerHash = "secret"
	doc.Items[0].AnswerSpec = json.RawMessage(`{"answer":5}`)
	doc.Items[0].Options = json.RawMessage(`["5","6"]`)

	m := NewManager(testConfig(), clock)
	c := m.Start(doc, nil)

	st := c.State()
	assert.Empty(t, st.Item.AnswerHash)
	assert.Nil(t, st.Item.AnswerSpec)
	assert.Nil(t, st.Item.Options, "options hidden while memorizing")

	clock.Advance(20 * time.Second)
	st = c.State()
	assert.NotNil(t, st.Item.Options, "options visible during answer phase")
	assert.Empty(t, st.Item.AnswerHash)
}
