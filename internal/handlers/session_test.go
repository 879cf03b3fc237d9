package handlers

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/jwebster45206/cyberdrill/internal/services"
	"github.com/jwebster45206/cyberdrill/internal/storage"
	"github.com/jwebster45206/cyberdrill/pkg/engine"
	"github.com/jwebster45206/cyberdrill/pkg/persona"
	"github.com/jwebster45206/cyberdrill/pkg/scenario"
	"github.com/jwebster45206/cyberdrill/pkg/session"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func drillDoc() *scenario.Scenario {
	return &scenario.Scenario{
		Name: "Ransomware Drill",
		InitialTimeline: []scenario.RawEvent{
			{Time: "T+00:00", Event: "Simulation Start", Severity: "low", Automatic: true},
		},
		Alerts: []scenario.RawEvent{
			{
				Time:          "T+02:00",
				TitleField:    "Containment Call",
				Severity:      "critical",
				RecipientRole: scenario.RoleList{persona.SOCLead},
				DecisionRequired: &scenario.DecisionBlock{
					Options: []scenario.DecisionOption{
						{ID: "isolate", Label: "Isolate", Path: "isolate_path"},
						{ID: "monitor", Label: "Monitor"},
					},
				},
			},
		},
		DecisionPaths: map[string]scenario.PathDefinition{
			"isolate_path": {
				Ending: &scenario.Ending{Title: "Contained", Type: scenario.EndingGood, Time: "T+05:00"},
			},
		},
	}
}

func newTestHandler() (*SessionHandler, *storage.MockStorage) {
	logger := testLogger()
	store := storage.NewMockStorage()
	store.AddScenario("ransomware_drill.json", drillDoc())
	rooms := services.NewRoomManager(store, nil, nil, logger, engine.Options{})
	return NewSessionHandler(logger, store, rooms, nil), store
}

func doRequest(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("Failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func createTestSession(t *testing.T, h *SessionHandler) session.Session {
	t.Helper()
	w := doRequest(t, h, http.MethodPost, "/v1/sessions", CreateSessionRequest{
		ScenarioFile: "ransomware_drill.json",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("Failed to create session: status %d body %s", w.Code, w.Body.String())
	}
	var sess session.Session
	if err := json.Unmarshal(w.Body.Bytes(), &sess); err != nil {
		t.Fatalf("Failed to decode session: %v", err)
	}
	return sess
}

func TestSessionHandler_Create(t *testing.T) {
	tests := []struct {
		name           string
		method         string
		body           any
		expectedStatus int
		expectedError  string
	}{
		{
			name:           "successful create",
			method:         http.MethodPost,
			body:           CreateSessionRequest{ScenarioFile: "ransomware_drill.json"},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "missing scenario file",
			method:         http.MethodPost,
			body:           CreateSessionRequest{},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "scenario_file is required",
		},
		{
			name:           "unknown scenario file",
			method:         http.MethodPost,
			body:           CreateSessionRequest{ScenarioFile: "missing.json"},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Unknown scenario file",
		},
		{
			name:   "unknown persona in roster",
			method: http.MethodPost,
			body: CreateSessionRequest{
				ScenarioFile: "ransomware_drill.json",
				Players:      []session.Player{{Name: "Pat", Persona: "INTERN"}},
			},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Unknown persona: INTERN",
		},
		{
			name:           "invalid JSON body",
			method:         http.MethodPost,
			body:           "not json",
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Invalid request body",
		},
		{
			name:           "method not allowed",
			method:         http.MethodGet,
			body:           nil,
			expectedStatus: http.StatusMethodNotAllowed,
			expectedError:  "Method not allowed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newTestHandler()
			w := doRequest(t, h, tt.method, "/v1/sessions", tt.body)
			assert.Equal(t, tt.expectedStatus, w.Code)

			if tt.expectedError != "" {
				var errResp ErrorResponse
				assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &errResp))
				assert.Equal(t, tt.expectedError, errResp.Error)
				return
			}

			var sess session.Session
			assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &sess))
			assert.NotEqual(t, uuid.Nil, sess.ID)
			assert.Equal(t, session.PhaseSetup, sess.Phase)
			// Name falls back to the scenario's display name.
			assert.Equal(t, "Ransomware Drill", sess.Name)
		})
	}
}

func TestSessionHandler_Get(t *testing.T) {
	h, _ := newTestHandler()
	sess := createTestSession(t, h)

	w := doRequest(t, h, http.MethodGet, "/v1/sessions/"+sess.ID.String(), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var loaded session.Session
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &loaded))
	assert.Equal(t, sess.ID, loaded.ID)

	w = doRequest(t, h, http.MethodGet, "/v1/sessions/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(t, h, http.MethodGet, "/v1/sessions/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSessionHandler_Join(t *testing.T) {
	h, _ := newTestHandler()
	sess := createTestSession(t, h)
	joinPath := "/v1/sessions/" + sess.ID.String() + "/join"

	w := doRequest(t, h, http.MethodPost, joinPath, JoinRequest{Name: "Sam", Persona: "soc lead"})
	assert.Equal(t, http.StatusOK, w.Code)

	var snap engine.Snapshot
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.Equal(t, persona.SOCLead, snap.Persona)
	assert.Equal(t, "alert_0", snap.WaitingEventID)

	// Rejoining the same persona with the same name is idempotent.
	w = doRequest(t, h, http.MethodPost, joinPath, JoinRequest{Name: "Sam", Persona: persona.SOCLead})
	assert.Equal(t, http.StatusOK, w.Code)

	// A different player cannot claim the slot.
	w = doRequest(t, h, http.MethodPost, joinPath, JoinRequest{Name: "Alex", Persona: persona.SOCLead})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doRequest(t, h, http.MethodPost, joinPath, JoinRequest{Name: "Alex", Persona: "INTERN"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(t, h, http.MethodPost, "/v1/sessions/"+uuid.NewString()+"/join", JoinRequest{Name: "Sam", Persona: persona.CISO})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSessionHandler_TimelineAndDecision(t *testing.T) {
	h, store := newTestHandler()
	sess := createTestSession(t, h)
	base := "/v1/sessions/" + sess.ID.String()

	// Timeline before joining: no engine for the persona yet.
	w := doRequest(t, h, http.MethodGet, base+"/timeline?persona=SOC_LEAD", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doRequest(t, h, http.MethodPost, base+"/join", JoinRequest{Name: "Sam", Persona: persona.SOCLead})
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, h, http.MethodGet, base+"/timeline?persona=SOC_LEAD", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var tl TimelineResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &tl))
	assert.Len(t, tl.Events, 2)
	assert.Equal(t, "alert_0", tl.Snapshot.WaitingEventID)

	// Reasoning is mandatory for a manual decision.
	w = doRequest(t, h, http.MethodPost, base+"/decision", DecisionRequest{
		Persona: persona.SOCLead, EventID: "alert_0", OptionID: "isolate",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(t, h, http.MethodPost, base+"/decision", DecisionRequest{
		Persona: persona.SOCLead, EventID: "alert_0", OptionID: "isolate", Reasoning: "Contain it.",
	})
	assert.Equal(t, http.StatusOK, w.Code)
	var snap engine.Snapshot
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.True(t, snap.Done)
	assert.Empty(t, snap.WaitingEventID)

	// The chosen branch shows up in the timeline with the resolution overlay.
	w = doRequest(t, h, http.MethodGet, base+"/timeline?persona=SOC_LEAD", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &tl))
	assert.Len(t, tl.Events, 3)
	assert.NotNil(t, tl.Events[1].Resolution)
	assert.Equal(t, "isolate", tl.Events[1].Resolution.Decision)

	// Unknown event id surfaces as a client error.
	w = doRequest(t, h, http.MethodPost, base+"/decision", DecisionRequest{
		Persona: persona.SOCLead, EventID: "nope", OptionID: "isolate", Reasoning: "r",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// A persona outside the event's recipient list cannot decide it.
	w = doRequest(t, h, http.MethodPost, base+"/join", JoinRequest{Name: "Morgan", Persona: persona.CEO})
	assert.Equal(t, http.StatusOK, w.Code)
	w = doRequest(t, h, http.MethodPost, base+"/decision", DecisionRequest{
		Persona: persona.CEO, EventID: "alert_0", OptionID: "monitor", Reasoning: "Overruled.",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	paths, err := store.LoadChosenPaths(t.Context(), sess.ID)
	assert.NoError(t, err)
	assert.Equal(t, []string{"isolate_path"}, paths)
}

func TestSessionHandler_Skip(t *testing.T) {
	h, _ := newTestHandler()
	sess := createTestSession(t, h)
	base := "/v1/sessions/" + sess.ID.String()

	w := doRequest(t, h, http.MethodPost, base+"/skip", SkipRequest{Persona: persona.SOCLead})
	assert.Equal(t, http.StatusConflict, w.Code)

	doRequest(t, h, http.MethodPost, base+"/join", JoinRequest{Name: "Sam", Persona: persona.SOCLead})

	// With no pacing delay configured the skip is a harmless no-op.
	w = doRequest(t, h, http.MethodPost, base+"/skip", SkipRequest{Persona: persona.SOCLead})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSessionHandler_Phase(t *testing.T) {
	h, _ := newTestHandler()
	sess := createTestSession(t, h)
	base := "/v1/sessions/" + sess.ID.String()

	w := doRequest(t, h, http.MethodPost, base+"/phase", PhaseRequest{Phase: session.PhaseSimulation})
	assert.Equal(t, http.StatusOK, w.Code)
	var updated session.Session
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, session.PhaseSimulation, updated.Phase)

	w = doRequest(t, h, http.MethodPost, base+"/phase", PhaseRequest{Phase: "intermission"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSessionHandler_Debrief(t *testing.T) {
	h, _ := newTestHandler()
	sess := createTestSession(t, h)
	base := "/v1/sessions/" + sess.ID.String()

	doRequest(t, h, http.MethodPost, base+"/join", JoinRequest{Name: "Sam", Persona: persona.SOCLead})
	w := doRequest(t, h, http.MethodPost, base+"/decision", DecisionRequest{
		Persona: persona.SOCLead, EventID: "alert_0", OptionID: "isolate", Reasoning: "Contain it.",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, h, http.MethodGet, base+"/debrief", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var debrief DebriefResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &debrief))
	assert.Equal(t, "Ransomware Drill", debrief.SessionName)
	assert.Len(t, debrief.Entries, 1)
	assert.Equal(t, "alert_0", debrief.Entries[0].Event.ID)
	assert.Equal(t, "isolate", debrief.Entries[0].Resolution.Decision)
	assert.Equal(t, "Contain it.", debrief.Entries[0].Resolution.Reasoning)

	w = doRequest(t, h, http.MethodGet, "/v1/sessions/"+uuid.NewString()+"/debrief", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSessionHandler_Chat(t *testing.T) {
	h, _ := newTestHandler()
	sess := createTestSession(t, h)
	base := "/v1/sessions/" + sess.ID.String()

	w := doRequest(t, h, http.MethodPost, base+"/chat", ChatRequest{
		PlayerName: "Sam", Persona: "soc lead", Message: "FS-02 is encrypting.",
	})
	assert.Equal(t, http.StatusCreated, w.Code)
	var posted session.ChatMessage
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &posted))
	assert.Equal(t, defaultChatRoom, posted.Room)
	assert.Equal(t, persona.SOCLead, posted.Persona)

	w = doRequest(t, h, http.MethodPost, base+"/chat", ChatRequest{PlayerName: "Sam"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(t, h, http.MethodGet, base+"/chat", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var messages []session.ChatMessage
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &messages))
	assert.Len(t, messages, 1)
	assert.Equal(t, "FS-02 is encrypting.", messages[0].Message)

	w = doRequest(t, h, http.MethodGet, base+"/chat?room=leadership", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &messages))
	assert.Empty(t, messages)
}
