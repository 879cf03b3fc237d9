package timeline

import (
	"fmt"
	"sort"

	"github.com/jwebster45206/cyberdrill/pkg/scenario"
)

// ExpandPath converts one decision path into events: the path's alerts,
// then its sub-decisions, then its ending. An unknown path key expands to
// nothing; authored content is assumed consistent but tolerated when not.
//
// Expansion itself is pure and repeatable. Callers must expand each path
// key at most once per session so branch events are not duplicated in the
// visible timeline.
func ExpandPath(doc *scenario.Scenario, pathKey string) []Event {
	if doc == nil || doc.DecisionPaths == nil {
		return nil
	}
	def, ok := doc.DecisionPaths[pathKey]
	if !ok {
		return nil
	}

	var events []Event
	for i := range def.Alerts {
		events = append(events, normalize(&def.Alerts[i], fmt.Sprintf("path_%s_alert_%d", pathKey, i)))
	}

	// Map iteration order is random; sort sub-decision keys so expansion
	// is deterministic.
	subKeys := make([]string, 0, len(def.SubDecisions))
	for k := range def.SubDecisions {
		subKeys = append(subKeys, k)
	}
	sort.Strings(subKeys)

	for _, k := range subKeys {
		sub := def.SubDecisions[k]
		ev := Event{
			ID:            fmt.Sprintf("path_%s_sub_%s", pathKey, k),
			Title:         sub.Title,
			Description:   sub.Description,
			Type:          EventDecision,
			Severity:      sub.Severity,
			ScheduledTime: scenario.ParseOffset(sub.Time),
			IsTriggered:   true,
			Options:       sub.Options,
			RecipientRole: sub.RecipientRole,
		}
		if ev.Title == "" {
			ev.Title = k
		}
		if ev.Description == "" {
			ev.Description = "Follow-up decision required."
		}
		if ev.Severity == "" {
			ev.Severity = "high"
		}
		events = append(events, ev)
	}

	if def.Ending != nil {
		end := def.Ending
		ev := Event{
			ID:            fmt.Sprintf("path_%s_ending", pathKey),
			Title:         end.Title,
			Description:   end.Description,
			Type:          EventEnding,
			Severity:      endingSeverity(end.Type),
			ScheduledTime: scenario.ParseOffset(end.Time),
			IsTriggered:   true,
			EndingType:    end.Type,
		}
		if ev.Title == "" {
			ev.Title = "Scenario Ending"
		}
		if ev.EndingType == "" {
			ev.EndingType = scenario.EndingUnknown
		}
		events = append(events, ev)
	}

	return events
}

func endingSeverity(endingType string) string {
	switch endingType {
	case scenario.EndingGood:
		return "medium"
	case scenario.EndingBad:
		return "critical"
	default:
		return "high"
	}
}
