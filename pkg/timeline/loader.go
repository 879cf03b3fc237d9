package timeline

import (
	"fmt"
	"sort"

	"github.com/jwebster45206/cyberdrill/pkg/scenario"
)

// FromScenario flattens a scenario's initial timeline and alert list into
// one normalized event list sorted by scheduled time. Events sharing an
// offset keep their authored relative order. The transform is pure; run
// it once per scenario load.
func FromScenario(doc *scenario.Scenario) []Event {
	if doc == nil {
		return nil
	}

	events := make([]Event, 0, len(doc.InitialTimeline)+len(doc.Alerts))
	for i := range doc.InitialTimeline {
		events = append(events, normalize(&doc.InitialTimeline[i], fmt.Sprintf("init_%d", i)))
	}
	for i := range doc.Alerts {
		events = append(events, normalize(&doc.Alerts[i], fmt.Sprintf("alert_%d", i)))
	}

	sort.SliceStable(events, func(a, b int) bool {
		return events[a].ScheduledTime < events[b].ScheduledTime
	})
	return events
}

// normalize converts one authored entry to a runtime event. An entry is a
// decision point iff it carries a decision_required block.
func normalize(raw *scenario.RawEvent, id string) Event {
	ev := Event{
		ID:            id,
		Title:         raw.Title(),
		Description:   raw.Body(),
		Type:          EventAlert,
		Severity:      raw.Severity,
		ScheduledTime: scenario.ParseOffset(raw.Time),
		IsTriggered:   raw.Automatic,
		RecipientRole: raw.RecipientRole,
	}
	if ev.Title == "" {
		ev.Title = id
	}
	if ev.Severity == "" {
		ev.Severity = defaultSeverity
	}
	if raw.IsDecision() {
		ev.Type = EventDecision
		ev.Options = raw.DecisionRequired.Options
	}
	return ev
}
