package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/cyberdrill/pkg/persona"
	"github.com/jwebster45206/cyberdrill/pkg/scenario"
	"github.com/jwebster45206/cyberdrill/pkg/session"
	"github.com/jwebster45206/cyberdrill/pkg/timeline"
)

// Store is the slice of session persistence the engine needs. Writes that
// fail are logged and ignored; the engine keeps an in-memory copy and the
// drill continues without durability for that session.
type Store interface {
	SaveResolutions(ctx context.Context, sessionID uuid.UUID, resolutions map[string]session.Resolution) error
	LoadResolutions(ctx context.Context, sessionID uuid.UUID) (map[string]session.Resolution, error)
	SaveChosenPaths(ctx context.Context, sessionID uuid.UUID, paths []string) error
	LoadChosenPaths(ctx context.Context, sessionID uuid.UUID) ([]string, error)
}

// Publisher notifies other open views of the session that a decision was
// recorded. Delivery is best-effort.
type Publisher interface {
	PublishDecisionResolved(ctx context.Context, sessionID uuid.UUID, eventID string, res session.Resolution) error
}

// Options tune sequencing behavior.
type Options struct {
	// PacingDelay is the pause between revealing consecutive non-blocking
	// events. Zero reveals synchronously (tests, validators).
	PacingDelay time.Duration

	// AutoResolveBystanders picks a random option on behalf of roles other
	// than the current player so a solo drill keeps moving. Deprecated
	// policy; default off, decision points for other roles are revealed
	// and left unresolved.
	AutoResolveBystanders bool
}

// Engine walks one player's view of a drill timeline: it reveals events in
// scheduled order, pauses on decision points addressed to the current
// player, records resolutions, and splices in branch events for chosen
// decision paths.
//
// All mutation happens under mu; timer callbacks re-enter through the same
// lock, so the sequencer behaves as a single-threaded event loop.
type Engine struct {
	mu sync.Mutex

	doc     *scenario.Scenario
	sess    *session.Session
	player  session.Player
	store   Store
	pub     Publisher
	opts    Options
	logger  *slog.Logger
	baseCtx context.Context

	events      []timeline.Event
	displayed   []timeline.Event
	index       int
	waitingID   string
	resolutions map[string]session.Resolution
	chosenPaths map[string]bool

	delayTimer *time.Timer
	started    bool
	stopped    bool
}

// New builds an engine for one (session, player) pair. Call Start to load
// persisted state and begin the walk.
func New(doc *scenario.Scenario, sess *session.Session, player session.Player, store Store, pub Publisher, logger *slog.Logger, opts Options) *Engine {
	return &Engine{
		doc:         doc,
		sess:        sess,
		player:      player,
		store:       store,
		pub:         pub,
		opts:        opts,
		logger:      logger,
		baseCtx:     context.Background(),
		events:      timeline.FromScenario(doc),
		resolutions: make(map[string]session.Resolution),
		chosenPaths: make(map[string]bool),
	}
}

// Start initializes the cursor exactly once, restores any persisted
// resolutions and chosen paths for the session, and begins advancing.
// Restored chosen paths are re-expanded so a reload resumes the same
// extended event list without duplicating branch events.
func (e *Engine) Start(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.started {
		return
	}
	e.started = true
	e.baseCtx = context.WithoutCancel(ctx)

	if res, err := e.store.LoadResolutions(ctx, e.sess.ID); err != nil {
		e.logger.Warn("Failed to load resolutions, starting empty",
			"session_id", e.sess.ID, "error", err)
	} else {
		for id, r := range res {
			e.resolutions[id] = r
		}
	}

	if paths, err := e.store.LoadChosenPaths(ctx, e.sess.ID); err != nil {
		e.logger.Warn("Failed to load chosen paths, starting empty",
			"session_id", e.sess.ID, "error", err)
	} else {
		for _, p := range paths {
			e.expandPathLocked(p)
		}
	}

	e.displayed = e.displayed[:0]
	e.index = 0
	e.waitingID = ""
	e.advanceLocked()
}

// Stop tears down any pending countdown. The engine stays readable but no
// longer advances.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopped = true
	e.cancelDelayLocked()
}

// advanceLocked walks the event list from the cursor. It returns when the
// list is exhausted, a decision point for the current player blocks the
// walk, or a pacing delay has been scheduled.
func (e *Engine) advanceLocked() {
	for !e.stopped && e.waitingID == "" && e.delayTimer == nil && e.index < len(e.events) {
		ev := e.events[e.index]
		e.revealLocked(ev)

		if ev.Type != timeline.EventDecision {
			e.index++
			e.scheduleDelayLocked()
			continue
		}

		if _, done := e.resolutions[ev.ID]; done {
			// Already resolved (reload or remote merge); keep walking.
			e.index++
			e.scheduleDelayLocked()
			continue
		}

		if persona.IsRecipient(ev.RecipientRole, e.player.Persona) {
			e.waitingID = ev.ID
			e.logger.Debug("Waiting for decision",
				"session_id", e.sess.ID, "event_id", ev.ID, "persona", e.player.Persona)
			return
		}

		if e.opts.AutoResolveBystanders && len(ev.Options) > 0 {
			e.autoResolveLocked(ev)
		}
		// Not this player's call: the event stays visible and the walk
		// keeps its reveal cadence.
		e.index++
		e.scheduleDelayLocked()
	}
}

// revealLocked appends the event to the visible timeline. Appends are
// id-deduplicated and the list only ever grows.
func (e *Engine) revealLocked(ev timeline.Event) {
	for i := range e.displayed {
		if e.displayed[i].ID == ev.ID {
			return
		}
	}
	ev.IsTriggered = true
	if res, ok := e.resolutions[ev.ID]; ok {
		r := res
		ev.Resolution = &r
	}
	e.displayed = append(e.displayed, ev)
}

// scheduleDelayLocked starts the inter-event pacing countdown. The cursor
// has already moved; the delay paces visual revelation only.
func (e *Engine) scheduleDelayLocked() {
	if e.opts.PacingDelay <= 0 || e.index >= len(e.events) {
		return
	}
	e.delayTimer = time.AfterFunc(e.opts.PacingDelay, func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		e.delayTimer = nil
		e.advanceLocked()
	})
}

func (e *Engine) cancelDelayLocked() {
	if e.delayTimer != nil {
		e.delayTimer.Stop()
		e.delayTimer = nil
	}
}

// SkipDelay zeroes a pending countdown and reveals the next event
// immediately.
func (e *Engine) SkipDelay() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.delayTimer == nil {
		return
	}
	e.cancelDelayLocked()
	e.advanceLocked()
}
