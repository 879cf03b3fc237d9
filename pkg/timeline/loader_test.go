package timeline

import (
	"testing"

	"github.com/jwebster45206/cyberdrill/pkg/scenario"
)

func testScenario() *scenario.Scenario {
	return &scenario.Scenario{
		Name: "Test Drill",
		InitialTimeline: []scenario.RawEvent{
			{Time: "T+00:00", Event: "Simulation Start", Description: "Normal ops.", Severity: "low", Automatic: true},
			{Time: "T+02:00", Event: "EDR Anomaly", Description: "Unsigned binary.", Severity: "medium"},
		},
		Alerts: []scenario.RawEvent{
			{
				Time:          "T+01:00",
				TitleField:    "Early Alert",
				Message:       "Fires between the initial entries.",
				RecipientRole: scenario.RoleList{"SOC_ANALYST"},
			},
			{
				Time:       "T+03:00",
				TitleField: "Containment Call",
				Message:    "Choose a response.",
				Severity:   "critical",
				DecisionRequired: &scenario.DecisionBlock{
					Options: []scenario.DecisionOption{
						{ID: "isolate", Label: "Isolate", Path: "isolate_path"},
						{ID: "monitor", Label: "Monitor"},
					},
				},
			},
		},
	}
}

func TestFromScenario(t *testing.T) {
	events := FromScenario(testScenario())

	if len(events) != 4 {
		t.Fatalf("Expected 4 events, got %d", len(events))
	}

	// Sorted by offset: init_0 (0s), alert_0 (60s), init_1 (120s), alert_1 (180s).
	expectedOrder := []string{"init_0", "alert_0", "init_1", "alert_1"}
	for i, id := range expectedOrder {
		if events[i].ID != id {
			t.Errorf("Position %d: expected %q, got %q", i, id, events[i].ID)
		}
	}

	if events[0].Severity != "low" {
		t.Errorf("Expected authored severity to be kept, got %q", events[0].Severity)
	}
	if !events[0].IsTriggered {
		t.Error("Automatic entries should load pre-triggered")
	}
	if events[1].Severity != "medium" {
		t.Errorf("Missing severity should default to medium, got %q", events[1].Severity)
	}
	if events[1].Type != EventAlert {
		t.Errorf("Alert without decision block should be type alert, got %q", events[1].Type)
	}
	if events[3].Type != EventDecision {
		t.Errorf("Alert with decision block should be a decision point, got %q", events[3].Type)
	}
	if len(events[3].Options) != 2 {
		t.Errorf("Expected 2 options on the decision point, got %d", len(events[3].Options))
	}
}

func TestFromScenario_StableSortOnTies(t *testing.T) {
	doc := &scenario.Scenario{
		InitialTimeline: []scenario.RawEvent{
			{Time: "T+01:00", Event: "First"},
			{Time: "T+01:00", Event: "Second"},
		},
		Alerts: []scenario.RawEvent{
			{Time: "T+01:00", TitleField: "Third"},
		},
	}

	events := FromScenario(doc)
	titles := []string{"First", "Second", "Third"}
	for i, title := range titles {
		if events[i].Title != title {
			t.Errorf("Position %d: expected %q, got %q (ties must keep authored order)", i, title, events[i].Title)
		}
	}
}

func TestFromScenario_TitleFallback(t *testing.T) {
	doc := &scenario.Scenario{
		Alerts: []scenario.RawEvent{{Time: "T+01:00"}},
	}
	events := FromScenario(doc)
	if events[0].Title != "alert_0" {
		t.Errorf("Untitled event should fall back to its id, got %q", events[0].Title)
	}
}

func TestFromScenario_Nil(t *testing.T) {
	if events := FromScenario(nil); events != nil {
		t.Errorf("Nil scenario should produce no events, got %d", len(events))
	}
}

func TestEvent_Option(t *testing.T) {
	ev := Event{Options: []scenario.DecisionOption{
		{ID: "a", Label: "A"},
		{ID: "b", Label: "B"},
	}}

	opt, ok := ev.Option("b")
	if !ok || opt.Label != "B" {
		t.Errorf("Expected option b with label B, got %+v ok=%v", opt, ok)
	}
	if _, ok := ev.Option("missing"); ok {
		t.Error("Unknown option id should not be found")
	}
}
