// Package session runs challenge sessions: the per-item memorize/answer
// phase machine, its countdown timers and scoring.
package session

import (
	"sync"
	"time"

	"github.com/matea/trainer/internal/challenge"
	"github.com/matea/trainer/internal/errors"
	"github.com/matea/trainer/internal/logger"
)

// Phase of the current item.
type Phase string

const (
	PhaseMemorize Phase = "memorize"
	PhaseAnswer   Phase = "answer"
	PhaseDone     Phase = "done"
)

// Config carries the phase durations and scoring constants.
type Config struct {
	MemorizeSec int
	AnswerSec   int
	ItemPoints  int
}

// Result is handed to the completion callback when the last item is
// scored.
type Result struct {
	SessionID   string
	Score       int
	ItemCount   int
	CorrectN    int
	StartedAt   time.Time
	CompletedAt time.Time
}

// Controller drives one session through its items. Every item runs
// memorize then answer; the answer countdown auto-submits whatever
// answer is pending (none means incorrect). All timers are cancelled on
// every transition so a stale countdown can never fire into a later
// item.
type Controller struct {
	mu         sync.Mutex
	id         string
	doc        *challenge.Doc
	cfg        Config
	clock      Clock
	onComplete func(Result)

	ix        int
	phase     Phase
	score     int
	correctN  int
	startedAt time.Time
	phaseEnds time.Time
	timer     Timer
	gen       int // invalidates outstanding timer callbacks

	log *logger.Logger
}

// State is a read-only snapshot for transport.
type State struct {
	SessionID  string         `json:"sessionId"`
	Type       string         `json:"type"`
	Index      int            `json:"index"`
	Total      int            `json:"total"`
	Phase      Phase          `json:"phase"`
	Score      int            `json:"score"`
	PhaseEnds  time.Time      `json:"phaseEndsAt"`
	Item       challenge.Item `json:"item"`
	ItemPoints int            `json:"itemPoints"`
}

func newController(id string, doc *challenge.Doc, cfg Config, clock Clock, onComplete func(Result)) *Controller {
	c := &Controller{
		id:         id,
		doc:        doc,
		cfg:        cfg,
		clock:      clock,
		onComplete: onComplete,
		phase:      PhaseMemorize,
		startedAt:  clock.Now(),
		log:        logger.Default().WithPrefix("session").WithField("session_id", id),
	}
	c.mu.Lock()
	c.startMemorize()
	c.mu.Unlock()
	return c
}

// startMemorize arms the memorize countdown for the current item.
// Caller holds the lock.
func (c *Controller) startMemorize() {
	c.cancelTimer()
	c.phase = PhaseMemorize
	c.phaseEnds = c.clock.Now().Add(time.Duration(c.cfg.MemorizeSec) * time.Second)
	gen := c.gen
	c.timer = c.clock.AfterFunc(time.Duration(c.cfg.MemorizeSec)*time.Second, func() {
		c.memorizeExpired(gen)
	})
	c.log.Debug("item %d memorize phase started", c.ix)
}

// startAnswer arms the answer countdown. Caller holds the lock.
func (c *Controller) startAnswer() {
	c.cancelTimer()
	c.phase = PhaseAnswer
	c.phaseEnds = c.clock.Now().Add(time.Duration(c.cfg.AnswerSec) * time.Second)
	gen := c.gen
	c.timer = c.clock.AfterFunc(time.Duration(c.cfg.AnswerSec)*time.Second, func() {
		c.answerExpired(gen)
	})
	c.log.Debug("item %d answer phase started", c.ix)
}

// cancelTimer stops the outstanding countdown and bumps the generation
// so an already-fired callback becomes a no-op. Caller holds the lock.
func (c *Controller) cancelTimer() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.gen++
}

func (c *Controller) memorizeExpired(gen int) {
	c.mu.Lock()
	if gen != c.gen || c.phase != PhaseMemorize {
		c.mu.Unlock()
		return
	}
	c.startAnswer()
	c.mu.Unlock()
}

func (c *Controller) answerExpired(gen int) {
	c.mu.Lock()
	if gen != c.gen || c.phase != PhaseAnswer {
		c.mu.Unlock()
		return
	}
	c.log.Info("item %d timed out, auto-submitting", c.ix)
	c.scoreAndAdvance(challenge.Answer{})
}

// Submit scores an explicit answer. Only legal in the answer phase.
func (c *Controller) Submit(ans challenge.Answer) error {
	c.mu.Lock()
	if c.phase != PhaseAnswer {
		phase := c.phase
		c.mu.Unlock()
		return errors.NewValidationError("phase", "answers are only accepted during the answer phase, current: "+string(phase))
	}
	return c.scoreAndAdvance(ans)
}

// Skip advances without scoring. Only legal in the answer phase.
func (c *Controller) Skip() error {
	c.mu.Lock()
	if c.phase != PhaseAnswer {
		phase := c.phase
		c.mu.Unlock()
		return errors.NewValidationError("phase", "skipping is only allowed during the answer phase, current: "+string(phase))
	}
	c.log.Debug("item %d skipped", c.ix)
	c.advance()
	return nil
}

// scoreAndAdvance checks the answer, awards points and moves on.
// Caller holds the lock; the lock is released before any completion
// callback runs.
func (c *Controller) scoreAndAdvance(ans challenge.Answer) error {
	item := c.doc.Items[c.ix]
	if challenge.Check(item, ans) {
		c.score += c.cfg.ItemPoints
		c.correctN++
		c.log.Info("item %d correct, score=%d", c.ix, c.score)
	} else {
		c.log.Info("item %d incorrect, score=%d", c.ix, c.score)
	}
	c.advance()
	return nil
}

// advance resets per-item state and starts the next item, or finishes
// the session. Caller holds the lock; the lock is released here.
func (c *Controller) advance() {
	if c.ix+1 < len(c.doc.Items) {
		c.ix++
		c.startMemorize()
		c.mu.Unlock()
		return
	}

	c.cancelTimer()
	c.phase = PhaseDone
	result := Result{
		SessionID:   c.id,
		Score:       c.score,
		ItemCount:   len(c.doc.Items),
		CorrectN:    c.correctN,
		StartedAt:   c.startedAt,
		CompletedAt: c.clock.Now(),
	}
	onComplete := c.onComplete
	c.onComplete = nil
	c.mu.Unlock()

	c.log.Info("session complete: score=%d, correct=%d/%d", result.Score, result.CorrectN, result.ItemCount)
	if onComplete != nil {
		onComplete(result)
	}
}

// Exit abandons the session: timers stop, no completion callback fires.
func (c *Controller) Exit() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase == PhaseDone {
		return
	}
	c.cancelTimer()
	c.phase = PhaseDone
	c.onComplete = nil
	c.log.Info("session abandoned at item %d, score=%d", c.ix, c.score)
}

// ExitReporting abandons the session but still hands the score
// accumulated so far to the completion callback.
func (c *Controller) ExitReporting() {
	c.mu.Lock()
	if c.phase == PhaseDone {
		c.mu.Unlock()
		return
	}
	c.cancelTimer()
	c.phase = PhaseDone
	result := Result{
		SessionID:   c.id,
		Score:       c.score,
		ItemCount:   len(c.doc.Items),
		CorrectN:    c.correctN,
		StartedAt:   c.startedAt,
		CompletedAt: c.clock.Now(),
	}
	ix := c.ix
	onComplete := c.onComplete
	c.onComplete = nil
	c.mu.Unlock()

	c.log.Info("session abandoned at item %d, reporting score=%d", ix, result.Score)
	if onComplete != nil {
		onComplete(result)
	}
}

// State snapshots the controller for transport.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := State{
		SessionID:  c.id,
		Type:       string(c.doc.Type),
		Index:      c.ix,
		Total:      len(c.doc.Items),
		Phase:      c.phase,
		Score:      c.score,
		PhaseEnds:  c.phaseEnds,
		ItemPoints: c.cfg.ItemPoints,
	}
	if c.phase != PhaseDone {
		st.Item = sanitizeItem(c.doc.Items[c.ix], c.phase)
	}
	return st
}

// Done reports whether the session has finished or been abandoned.
func (c *Controller) Done() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase == PhaseDone
}

// sanitizeItem strips the grading fields and, during memorize, the
// option set, so clients only ever see what the original surfaces showed
// in that phase.
func sanitizeItem(item challenge.Item, phase Phase) challenge.Item {
	item.AnswerSpec = nil
	item.AnswerHash = ""
	if phase == PhaseMemorize {
		item.Options = nil
	}
	return item
}
