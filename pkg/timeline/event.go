package timeline

import (
	"github.com/jwebster45206/cyberdrill/pkg/scenario"
	"github.com/jwebster45206/cyberdrill/pkg/session"
)

// EventType classifies a normalized timeline event.
type EventType string

const (
	EventAlert    EventType = "alert"
	EventDecision EventType = "decision_point"
	EventEnding   EventType = "ending"
)

// Event is a normalized, displayable occurrence in the drill timeline.
// IDs are namespaced by their source (initial load, alert list, or
// decision path) so they stay unique across every path expansion in
// a session.
type Event struct {
	ID            string                    `json:"id"`
	Title         string                    `json:"title"`
	Description   string                    `json:"description,omitempty"`
	Type          EventType                 `json:"event_type"`
	Severity      string                    `json:"severity"`
	ScheduledTime int                       `json:"scheduled_time"`
	IsTriggered   bool                      `json:"is_triggered"`
	Options       []scenario.DecisionOption `json:"options,omitempty"`
	RecipientRole []string                  `json:"recipient_role,omitempty"`
	EndingType    string                    `json:"ending_type,omitempty"`

	// Resolution overlays the recorded outcome when the event has been
	// decided. Populated by the engine, never authored.
	Resolution *session.Resolution `json:"resolution,omitempty"`
}

// Option returns the decision option with the given id, if present.
func (e *Event) Option(id string) (scenario.DecisionOption, bool) {
	for _, o := range e.Options {
		if o.ID == id {
			return o, true
		}
	}
	return scenario.DecisionOption{}, false
}

const defaultSeverity = "medium"
