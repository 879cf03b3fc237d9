package scenario

import (
	"encoding/json"
	"fmt"
	"os"
)

// Scenario is the authored content for a tabletop incident-response drill.
// It is loaded once at session start and never mutated.
type Scenario struct {
	Name            string                    `json:"scenario_name"`
	InitialTimeline []RawEvent                `json:"initial_timeline"`
	Alerts          []RawEvent                `json:"alerts"`
	DecisionPaths   map[string]PathDefinition `json:"decision_paths,omitempty"`
}

// RawEvent is a single authored timeline entry or alert. Authors use
// either event/description or title/message for the same fields, so both
// are accepted and merged through Title()/Body().
type RawEvent struct {
	Time             string         `json:"time,omitempty"`
	Event            string         `json:"event,omitempty"`
	TitleField       string         `json:"title,omitempty"`
	Description      string         `json:"description,omitempty"`
	Message          string         `json:"message,omitempty"`
	Severity         string         `json:"severity,omitempty"`
	RecipientRole    RoleList       `json:"recipient_role,omitempty"`
	DecisionRequired *DecisionBlock `json:"decision_required,omitempty"`
	Automatic        bool           `json:"automatic,omitempty"`
}

// Title returns the display title, preferring the timeline-style "event"
// field over the alert-style "title" field.
func (e *RawEvent) Title() string {
	if e.Event != "" {
		return e.Event
	}
	return e.TitleField
}

// Body returns the display description, accepting either authoring key.
func (e *RawEvent) Body() string {
	if e.Description != "" {
		return e.Description
	}
	return e.Message
}

// IsDecision reports whether the event carries a decision block. Presence
// of the block is what makes an event a decision point, even with no options.
func (e *RawEvent) IsDecision() bool {
	return e.DecisionRequired != nil
}

// DecisionBlock holds the options attached to a decision point.
type DecisionBlock struct {
	Options []DecisionOption `json:"options,omitempty"`
}

// DecisionOption is one selectable response to a decision point. Path, when
// set, names an entry in the scenario's decision_paths to branch into.
type DecisionOption struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
	Path        string `json:"path,omitempty"`
}

// RoleList accepts a recipient_role authored as either a single string or
// a list of strings. Empty means any role may act.
type RoleList []string

func (r *RoleList) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		if single == "" {
			*r = nil
		} else {
			*r = RoleList{single}
		}
		return nil
	}

	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("recipient_role must be a string or list of strings: %w", err)
	}
	*r = RoleList(many)
	return nil
}

func (r RoleList) MarshalJSON() ([]byte, error) {
	if len(r) == 1 {
		return json.Marshal(r[0])
	}
	return json.Marshal([]string(r))
}

// LoadFile reads and decodes a scenario document from disk.
func LoadFile(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var s Scenario
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse scenario file %s: %w", path, err)
	}
	return &s, nil
}
