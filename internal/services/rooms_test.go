package services

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"

	"github.com/jwebster45206/cyberdrill/internal/storage"
	"github.com/jwebster45206/cyberdrill/pkg/engine"
	"github.com/jwebster45206/cyberdrill/pkg/persona"
	"github.com/jwebster45206/cyberdrill/pkg/scenario"
	"github.com/jwebster45206/cyberdrill/pkg/session"
)

func testRoomManager(t *testing.T) (*RoomManager, *session.Session) {
	t.Helper()

	store := storage.NewMockStorage()
	store.AddScenario("drill.json", &scenario.Scenario{
		Name: "Drill",
		InitialTimeline: []scenario.RawEvent{
			{Time: "T+00:00", Event: "Start", Automatic: true},
		},
	})
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	rm := NewRoomManager(store, nil, nil, logger, engine.Options{})
	return rm, session.NewSession("Drill", "drill.json")
}

func TestRoomManager_JoinIsIdempotent(t *testing.T) {
	rm, sess := testRoomManager(t)
	defer rm.Shutdown()

	player := session.Player{Name: "Sam", Persona: persona.SOCLead, Assigned: true}
	eng1, err := rm.Join(context.Background(), sess, player)
	if err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	eng2, err := rm.Join(context.Background(), sess, player)
	if err != nil {
		t.Fatalf("Second join failed: %v", err)
	}
	if eng1 != eng2 {
		t.Error("Rejoining must return the same engine instance")
	}

	// Role lookup normalizes, so variants resolve to the same room.
	if got := rm.Get(sess.ID, "soc lead"); got != eng1 {
		t.Error("Get with a normalized role variant should find the engine")
	}
}

func TestRoomManager_SeparateViewsPerPersona(t *testing.T) {
	rm, sess := testRoomManager(t)
	defer rm.Shutdown()

	socEng, err := rm.Join(context.Background(), sess, session.Player{Name: "Sam", Persona: persona.SOCLead, Assigned: true})
	if err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	cisoEng, err := rm.Join(context.Background(), sess, session.Player{Name: "Jordan", Persona: persona.CISO, Assigned: true})
	if err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	if socEng == cisoEng {
		t.Error("Each persona gets its own engine view")
	}
}

func TestRoomManager_JoinUnknownScenario(t *testing.T) {
	rm, _ := testRoomManager(t)
	defer rm.Shutdown()

	bad := session.NewSession("Broken", "missing.json")
	if _, err := rm.Join(context.Background(), bad, session.Player{Name: "Sam", Persona: persona.CISO}); err == nil {
		t.Error("Join with an unknown scenario file should fail")
	}
}

func TestRoomManager_LeaveAndShutdown(t *testing.T) {
	rm, sess := testRoomManager(t)

	player := session.Player{Name: "Sam", Persona: persona.SOCLead, Assigned: true}
	if _, err := rm.Join(context.Background(), sess, player); err != nil {
		t.Fatalf("Join failed: %v", err)
	}

	rm.Leave(sess.ID, persona.SOCLead)
	if rm.Get(sess.ID, persona.SOCLead) != nil {
		t.Error("Engine should be gone after Leave")
	}

	if _, err := rm.Join(context.Background(), sess, player); err != nil {
		t.Fatalf("Rejoin after leave failed: %v", err)
	}
	rm.Shutdown()
	if rm.Get(sess.ID, persona.SOCLead) != nil {
		t.Error("Engine should be gone after Shutdown")
	}

	// Leaving a room that does not exist is a no-op.
	rm.Leave(uuid.New(), persona.CEO)
}
