package engine

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/jwebster45206/cyberdrill/pkg/persona"
	"github.com/jwebster45206/cyberdrill/pkg/session"
	"github.com/jwebster45206/cyberdrill/pkg/timeline"
)

// SubmitDecision records the current player's choice for a decision point.
// The player must be a recipient of the event; a decision point gated to
// another role cannot be resolved from this view. The first resolution for
// an event id wins; resubmissions and races with a remote broadcast are
// no-ops. Choosing an option that declares a path expands that path's
// events onto the end of the timeline, once per path key for the session.
func (e *Engine) SubmitDecision(eventID, optionID, reasoning string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	ev := e.findEventLocked(eventID)
	if ev == nil {
		return fmt.Errorf("unknown event id %q", eventID)
	}
	if ev.Type != timeline.EventDecision {
		return fmt.Errorf("event %q is not a decision point", eventID)
	}
	if !persona.IsRecipient(ev.RecipientRole, e.player.Persona) {
		return fmt.Errorf("persona %s is not a recipient of event %q", e.player.Persona, eventID)
	}

	if _, done := e.resolutions[eventID]; done {
		return nil
	}

	res := session.Resolution{
		Decision:  optionID,
		Reasoning: reasoning,
		Manual:    true,
		DecidedAt: time.Now().UTC(),
	}
	var path string
	if opt, ok := ev.Option(optionID); ok {
		res.DecisionLabel = opt.Label
		path = opt.Path
	}

	e.recordLocked(eventID, res, path, true, true)
	return nil
}

// ApplyRemote merges a resolution broadcast from another view of the same
// session. First write still wins locally. The remote player's chosen path
// is expanded here too so both views keep walking the same event list.
func (e *Engine) ApplyRemote(eventID string, res session.Resolution) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, done := e.resolutions[eventID]; done {
		return
	}
	ev := e.findEventLocked(eventID)
	if ev == nil {
		// Resolution for an event this view has not built (a branch it
		// has not expanded yet). Keep it; the overlay applies on reveal.
		e.resolutions[eventID] = res
		return
	}

	var path string
	if opt, ok := ev.Option(res.Decision); ok {
		path = opt.Path
	}
	// Not re-broadcast: the originating view already published it.
	e.recordLocked(eventID, res, path, false, true)
}

// autoResolveLocked picks a uniform random option for a decision point
// addressed to another role. Deprecated solo-drill pacing behavior, kept
// behind Options.AutoResolveBystanders. Called from inside the advance
// loop, so it must not resume the walk itself.
func (e *Engine) autoResolveLocked(ev timeline.Event) {
	opt := ev.Options[rand.IntN(len(ev.Options))]
	e.recordLocked(ev.ID, session.Resolution{
		Decision:      opt.ID,
		DecisionLabel: opt.Label,
		Reasoning:     "Auto-resolved by system (not your role)",
		Manual:        false,
		DecidedAt:     time.Now().UTC(),
	}, opt.Path, false, false)
}

// recordLocked is the single write path for resolutions: store the
// resolution, overlay it on the visible timeline, persist, broadcast when
// this view originated the decision, expand the chosen path, and unblock
// the sequencer if it was waiting on this event.
func (e *Engine) recordLocked(eventID string, res session.Resolution, path string, broadcast, resume bool) {
	e.resolutions[eventID] = res
	for i := range e.displayed {
		if e.displayed[i].ID == eventID {
			r := res
			e.displayed[i].Resolution = &r
		}
	}

	e.persistResolutionsLocked()
	if e.pub != nil && broadcast {
		if err := e.pub.PublishDecisionResolved(e.baseCtx, e.sess.ID, eventID, res); err != nil {
			e.logger.Warn("Failed to broadcast resolution",
				"session_id", e.sess.ID, "event_id", eventID, "error", err)
		}
	}

	if path != "" && !e.chosenPaths[path] {
		if e.expandPathLocked(path) {
			e.persistChosenPathsLocked()
		}
	}

	if e.waitingID == eventID {
		e.waitingID = ""
		e.index++
		e.scheduleDelayLocked()
	}
	if resume {
		e.advanceLocked()
	}
}

// expandPathLocked appends a decision path's events after the current
// event list. Reports whether the path produced events. Expanding an
// already-chosen or undefined path is a no-op.
func (e *Engine) expandPathLocked(path string) bool {
	if e.chosenPaths[path] {
		return false
	}
	branch := timeline.ExpandPath(e.doc, path)
	if len(branch) == 0 {
		e.logger.Warn("Decision path has no events", "session_id", e.sess.ID, "path", path)
		return false
	}
	e.chosenPaths[path] = true
	e.events = append(e.events, branch...)
	e.logger.Debug("Expanded decision path",
		"session_id", e.sess.ID, "path", path, "events", len(branch))
	return true
}

func (e *Engine) persistResolutionsLocked() {
	snapshot := make(map[string]session.Resolution, len(e.resolutions))
	for id, r := range e.resolutions {
		snapshot[id] = r
	}
	if err := e.store.SaveResolutions(e.baseCtx, e.sess.ID, snapshot); err != nil {
		e.logger.Warn("Failed to persist resolutions, continuing in memory",
			"session_id", e.sess.ID, "error", err)
	}
}

func (e *Engine) persistChosenPathsLocked() {
	paths := make([]string, 0, len(e.chosenPaths))
	for p := range e.chosenPaths {
		paths = append(paths, p)
	}
	if err := e.store.SaveChosenPaths(e.baseCtx, e.sess.ID, paths); err != nil {
		e.logger.Warn("Failed to persist chosen paths, continuing in memory",
			"session_id", e.sess.ID, "error", err)
	}
}

func (e *Engine) findEventLocked(eventID string) *timeline.Event {
	for i := range e.events {
		if e.events[i].ID == eventID {
			return &e.events[i]
		}
	}
	return nil
}
