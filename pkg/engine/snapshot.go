package engine

import "github.com/jwebster45206/cyberdrill/pkg/timeline"

// Snapshot is a read-only view of the sequencer cursor for handlers and
// clients.
type Snapshot struct {
	SessionName    string `json:"session_name"`
	PlayerName     string `json:"player_name"`
	Persona        string `json:"persona"`
	Displayed      int    `json:"displayed"`
	TotalEvents    int    `json:"total_events"`
	WaitingEventID string `json:"waiting_event_id,omitempty"`
	Delaying       bool   `json:"delaying"`
	Done           bool   `json:"done"`
}

// VisibleTimeline returns a copy of the events revealed so far, each
// overlaid with its resolution when one has been recorded.
func (e *Engine) VisibleTimeline() []timeline.Event {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]timeline.Event, len(e.displayed))
	copy(out, e.displayed)
	for i := range out {
		if res, ok := e.resolutions[out[i].ID]; ok {
			r := res
			out[i].Resolution = &r
		}
	}
	return out
}

// Waiting returns the id of the decision point blocking the sequencer, or
// empty when it is not blocked.
func (e *Engine) Waiting() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.waitingID
}

// Snapshot reports the cursor state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Snapshot{
		SessionName:    e.sess.Name,
		PlayerName:     e.player.Name,
		Persona:        e.player.Persona,
		Displayed:      len(e.displayed),
		TotalEvents:    len(e.events),
		WaitingEventID: e.waitingID,
		Delaying:       e.delayTimer != nil,
		Done:           e.waitingID == "" && e.delayTimer == nil && e.index >= len(e.events),
	}
}

// Resolutions returns a copy of the recorded resolutions, keyed by event
// id. Used by the debrief view.
func (e *Engine) Resolutions() map[string]timeline.Event {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make(map[string]timeline.Event, len(e.resolutions))
	for id, res := range e.resolutions {
		if ev := e.findEventLocked(id); ev != nil {
			cp := *ev
			r := res
			cp.Resolution = &r
			out[id] = cp
		}
	}
	return out
}
