package timeline

import (
	"testing"

	"github.com/jwebster45206/cyberdrill/pkg/scenario"
)

func pathScenario() *scenario.Scenario {
	return &scenario.Scenario{
		Name: "Branching Drill",
		DecisionPaths: map[string]scenario.PathDefinition{
			"isolate_path": {
				Alerts: []scenario.RawEvent{
					{Time: "T+08:00", TitleField: "Segment Isolated", Message: "Encryption stopped.", Severity: "high"},
				},
				SubDecisions: map[string]scenario.SubDecision{
					"comms_decision": {
						Time:          "T+10:00",
						Title:         "External Communications",
						RecipientRole: scenario.RoleList{"PR_HEAD"},
						Options: []scenario.DecisionOption{
							{ID: "holding_statement", Label: "Issue a holding statement"},
							{ID: "no_comment", Label: "Decline to comment"},
						},
					},
					"backup_decision": {
						Time:  "T+09:00",
						Title: "Backup Restore Order",
						Options: []scenario.DecisionOption{
							{ID: "finance_first", Label: "Finance shares first"},
						},
					},
				},
				Ending: &scenario.Ending{
					Title: "Contained Outbreak",
					Type:  scenario.EndingGood,
					Time:  "T+15:00",
				},
			},
			"bare_path": {
				Ending: &scenario.Ending{Description: "It ends."},
			},
		},
	}
}

func TestExpandPath(t *testing.T) {
	events := ExpandPath(pathScenario(), "isolate_path")

	if len(events) != 4 {
		t.Fatalf("Expected 4 events (1 alert, 2 subs, 1 ending), got %d", len(events))
	}

	// Alerts first, then sub-decisions in sorted key order, then the ending.
	expectedIDs := []string{
		"path_isolate_path_alert_0",
		"path_isolate_path_sub_backup_decision",
		"path_isolate_path_sub_comms_decision",
		"path_isolate_path_ending",
	}
	for i, id := range expectedIDs {
		if events[i].ID != id {
			t.Errorf("Position %d: expected id %q, got %q", i, id, events[i].ID)
		}
	}

	sub := events[2]
	if sub.Type != EventDecision {
		t.Errorf("Sub-decision should be a decision point, got %q", sub.Type)
	}
	if !sub.IsTriggered {
		t.Error("Path events should arrive pre-triggered")
	}
	if sub.Severity != "high" {
		t.Errorf("Sub-decision severity should default to high, got %q", sub.Severity)
	}
	if sub.Description != "Follow-up decision required." {
		t.Errorf("Missing sub-decision description should get the default, got %q", sub.Description)
	}
	if len(sub.RecipientRole) != 1 || sub.RecipientRole[0] != "PR_HEAD" {
		t.Errorf("Sub-decision should keep its recipient role, got %v", sub.RecipientRole)
	}

	ending := events[3]
	if ending.Type != EventEnding {
		t.Errorf("Expected ending event type, got %q", ending.Type)
	}
	if ending.EndingType != scenario.EndingGood {
		t.Errorf("Expected good_ending, got %q", ending.EndingType)
	}
	if ending.Severity != "medium" {
		t.Errorf("Good endings render at medium severity, got %q", ending.Severity)
	}
}

func TestExpandPath_EndingDefaults(t *testing.T) {
	events := ExpandPath(pathScenario(), "bare_path")
	if len(events) != 1 {
		t.Fatalf("Expected 1 event, got %d", len(events))
	}
	if events[0].Title != "Scenario Ending" {
		t.Errorf("Untitled ending should get the default title, got %q", events[0].Title)
	}
	if events[0].EndingType != scenario.EndingUnknown {
		t.Errorf("Untyped ending should be tagged unknown, got %q", events[0].EndingType)
	}
	if events[0].Severity != "high" {
		t.Errorf("Unknown ending types render at high severity, got %q", events[0].Severity)
	}
}

func TestExpandPath_UnknownKey(t *testing.T) {
	if events := ExpandPath(pathScenario(), "no_such_path"); events != nil {
		t.Errorf("Unknown path key should expand to nothing, got %d events", len(events))
	}
	if events := ExpandPath(nil, "isolate_path"); events != nil {
		t.Errorf("Nil scenario should expand to nothing, got %d events", len(events))
	}
}

func TestExpandPath_Repeatable(t *testing.T) {
	doc := pathScenario()
	first := ExpandPath(doc, "isolate_path")
	second := ExpandPath(doc, "isolate_path")

	if len(first) != len(second) {
		t.Fatalf("Expansion is not repeatable: %d vs %d events", len(first), len(second))
	}
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Errorf("Position %d: ids differ between expansions (%q vs %q)", i, first[i].ID, second[i].ID)
		}
	}
}

func TestExpandPath_BadEndingSeverity(t *testing.T) {
	doc := &scenario.Scenario{
		DecisionPaths: map[string]scenario.PathDefinition{
			"p": {Ending: &scenario.Ending{Title: "Costly Recovery", Type: scenario.EndingBad}},
		},
	}
	events := ExpandPath(doc, "p")
	if events[0].Severity != "critical" {
		t.Errorf("Bad endings render at critical severity, got %q", events[0].Severity)
	}
}
