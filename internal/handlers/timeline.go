package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/jwebster45206/cyberdrill/pkg/engine"
	"github.com/jwebster45206/cyberdrill/pkg/persona"
	"github.com/jwebster45206/cyberdrill/pkg/timeline"
)

type TimelineResponse struct {
	Events   []timeline.Event `json:"events"`
	Snapshot engine.Snapshot  `json:"snapshot"`
}

type DecisionRequest struct {
	Persona   string `json:"persona"`
	EventID   string `json:"event_id"`
	OptionID  string `json:"option_id"`
	Reasoning string `json:"reasoning"`
}

type SkipRequest struct {
	Persona string `json:"persona"`
}

// engineFor resolves the running engine for a player's view, replying
// with the blocking restart-setup condition when there is none.
func (h *SessionHandler) engineFor(w http.ResponseWriter, r *http.Request, id uuid.UUID, role string) *engine.Engine {
	if !persona.Valid(role) {
		writeError(w, h.log, http.StatusBadRequest, "a valid persona is required")
		return nil
	}
	eng := h.rooms.Get(id, role)
	if eng == nil {
		writeError(w, h.log, http.StatusConflict, "No player joined for this persona. Please join the session first.")
		return nil
	}
	return eng
}

func (h *SessionHandler) handleTimeline(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	if r.Method != http.MethodGet {
		writeError(w, h.log, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	eng := h.engineFor(w, r, id, r.URL.Query().Get("persona"))
	if eng == nil {
		return
	}

	writeJSON(w, h.log, http.StatusOK, TimelineResponse{
		Events:   eng.VisibleTimeline(),
		Snapshot: eng.Snapshot(),
	})
}

func (h *SessionHandler) handleDecision(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	var req DecisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.log, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.EventID == "" || req.OptionID == "" {
		writeError(w, h.log, http.StatusBadRequest, "event_id and option_id are required")
		return
	}
	if req.Reasoning == "" {
		writeError(w, h.log, http.StatusBadRequest, "reasoning is required for a manual decision")
		return
	}

	eng := h.engineFor(w, r, id, req.Persona)
	if eng == nil {
		return
	}

	if err := eng.SubmitDecision(req.EventID, req.OptionID, req.Reasoning); err != nil {
		writeError(w, h.log, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, h.log, http.StatusOK, eng.Snapshot())
}

func (h *SessionHandler) handleSkip(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	var req SkipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.log, http.StatusBadRequest, "Invalid request body")
		return
	}

	eng := h.engineFor(w, r, id, req.Persona)
	if eng == nil {
		return
	}

	eng.SkipDelay()
	writeJSON(w, h.log, http.StatusOK, eng.Snapshot())
}
