package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/jwebster45206/cyberdrill/internal/services"
	"github.com/jwebster45206/cyberdrill/internal/storage"
	"github.com/jwebster45206/cyberdrill/pkg/persona"
	"github.com/jwebster45206/cyberdrill/pkg/session"
)

// SessionHandler serves the drill session surface:
//
//	POST /v1/sessions                     create a session (bootstrap record)
//	GET  /v1/sessions/{id}                fetch the bootstrap record
//	POST /v1/sessions/{id}/join           join as a persona, start that view's engine
//	POST /v1/sessions/{id}/phase          advance the session phase
//	GET  /v1/sessions/{id}/timeline       visible timeline with resolution overlay
//	POST /v1/sessions/{id}/decision       submit a decision
//	POST /v1/sessions/{id}/skip           skip the current pacing delay
//	GET  /v1/sessions/{id}/debrief        resolved decisions joined with their events
//	GET  /v1/sessions/{id}/chat?room=     room chat history
//	POST /v1/sessions/{id}/chat           post a chat message
type SessionHandler struct {
	log     *slog.Logger
	storage storage.Storage
	rooms   *services.RoomManager
	pub     ChatPublisher
}

// ChatPublisher is the slice of the event broadcaster the chat surface
// needs. Nil disables chat fan-out; messages still persist.
type ChatPublisher interface {
	PublishChatMessage(ctx context.Context, sessionID uuid.UUID, msg session.ChatMessage) error
}

func NewSessionHandler(log *slog.Logger, storage storage.Storage, rooms *services.RoomManager, pub ChatPublisher) *SessionHandler {
	return &SessionHandler{
		log:     log,
		storage: storage,
		rooms:   rooms,
		pub:     pub,
	}
}

type CreateSessionRequest struct {
	Name         string           `json:"name"`
	ScenarioFile string           `json:"scenario_file"`
	Players      []session.Player `json:"players,omitempty"`
}

type JoinRequest struct {
	Name    string `json:"name"`
	Persona string `json:"persona"`
}

type PhaseRequest struct {
	Phase session.Phase `json:"phase"`
}

func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	// parts[0] == "v1", parts[1] == "sessions"
	if len(parts) < 2 {
		writeError(w, h.log, http.StatusNotFound, "Not found")
		return
	}

	if len(parts) == 2 {
		if r.Method != http.MethodPost {
			writeError(w, h.log, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		h.handleCreate(w, r)
		return
	}

	sessionID, err := uuid.Parse(parts[2])
	if err != nil {
		writeError(w, h.log, http.StatusBadRequest, "Invalid session ID format")
		return
	}

	if len(parts) == 3 {
		if r.Method != http.MethodGet {
			writeError(w, h.log, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		h.handleGet(w, r, sessionID)
		return
	}

	switch parts[3] {
	case "join":
		h.requirePost(w, r, sessionID, h.handleJoin)
	case "phase":
		h.requirePost(w, r, sessionID, h.handlePhase)
	case "timeline":
		h.handleTimeline(w, r, sessionID)
	case "decision":
		h.requirePost(w, r, sessionID, h.handleDecision)
	case "skip":
		h.requirePost(w, r, sessionID, h.handleSkip)
	case "debrief":
		h.handleDebrief(w, r, sessionID)
	case "chat":
		h.handleChat(w, r, sessionID)
	default:
		writeError(w, h.log, http.StatusNotFound, "Not found")
	}
}

func (h *SessionHandler) requirePost(w http.ResponseWriter, r *http.Request, id uuid.UUID, fn func(http.ResponseWriter, *http.Request, uuid.UUID)) {
	if r.Method != http.MethodPost {
		writeError(w, h.log, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	fn(w, r, id)
}

func (h *SessionHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.log, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ScenarioFile == "" {
		writeError(w, h.log, http.StatusBadRequest, "scenario_file is required")
		return
	}

	doc, err := h.storage.GetScenario(r.Context(), req.ScenarioFile)
	if err != nil {
		writeError(w, h.log, http.StatusBadRequest, "Unknown scenario file")
		return
	}

	for _, p := range req.Players {
		if !persona.Valid(p.Persona) {
			writeError(w, h.log, http.StatusBadRequest, "Unknown persona: "+p.Persona)
			return
		}
	}

	sess := session.NewSession(req.Name, req.ScenarioFile)
	if sess.Name == "" {
		sess.Name = doc.Name
	}
	sess.Players = req.Players

	if err := h.storage.SaveSession(r.Context(), sess); err != nil {
		h.log.Error("Failed to save session", "error", err)
		writeError(w, h.log, http.StatusInternalServerError, "Failed to create session")
		return
	}

	h.log.Info("Session created", "session_id", sess.ID, "scenario", sess.ScenarioFile)
	writeJSON(w, h.log, http.StatusCreated, sess)
}

func (h *SessionHandler) handleGet(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	sess, err := h.storage.LoadSession(r.Context(), id)
	if err != nil {
		h.log.Error("Failed to load session", "session_id", id, "error", err)
		writeError(w, h.log, http.StatusInternalServerError, "Failed to load session")
		return
	}
	if sess == nil {
		writeError(w, h.log, http.StatusNotFound, "No active simulation found. Please start a session from the admin setup.")
		return
	}
	writeJSON(w, h.log, http.StatusOK, sess)
}

func (h *SessionHandler) handleJoin(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	var req JoinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.log, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Name == "" || !persona.Valid(req.Persona) {
		writeError(w, h.log, http.StatusBadRequest, "name and a valid persona are required")
		return
	}

	sess, err := h.storage.LoadSession(r.Context(), id)
	if err != nil {
		h.log.Error("Failed to load session", "session_id", id, "error", err)
		writeError(w, h.log, http.StatusInternalServerError, "Failed to load session")
		return
	}
	if sess == nil {
		writeError(w, h.log, http.StatusNotFound, "No active simulation found. Please start a session from the admin setup.")
		return
	}

	player := session.Player{
		Name:     req.Name,
		Persona:  persona.Canonical(req.Persona),
		Assigned: true,
	}

	// Current-player record is written once at join time; the persona
	// slot is immutable for the session's lifetime.
	if existing, err := h.storage.LoadCurrentPlayer(r.Context(), id, player.Persona); err == nil && existing != nil && existing.Name != player.Name {
		writeError(w, h.log, http.StatusConflict, "Persona already taken by "+existing.Name)
		return
	}

	if err := h.storage.SaveCurrentPlayer(r.Context(), id, player); err != nil {
		h.log.Warn("Failed to persist player record", "session_id", id, "error", err)
	}

	// Reflect the assignment in the roster.
	found := false
	for i := range sess.Players {
		if persona.Canonical(sess.Players[i].Persona) == player.Persona {
			sess.Players[i] = player
			found = true
			break
		}
	}
	if !found {
		sess.Players = append(sess.Players, player)
	}
	if err := h.storage.SaveSession(r.Context(), sess); err != nil {
		h.log.Warn("Failed to update session roster", "session_id", id, "error", err)
	}

	eng, err := h.rooms.Join(r.Context(), sess, player)
	if err != nil {
		h.log.Error("Failed to start game room", "session_id", id, "error", err)
		writeError(w, h.log, http.StatusInternalServerError, "Failed to start game room")
		return
	}

	writeJSON(w, h.log, http.StatusOK, eng.Snapshot())
}

func (h *SessionHandler) handlePhase(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	var req PhaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.log, http.StatusBadRequest, "Invalid request body")
		return
	}
	switch req.Phase {
	case session.PhaseSetup, session.PhaseSimulation, session.PhaseDebrief, session.PhaseCompleted:
	default:
		writeError(w, h.log, http.StatusBadRequest, "Unknown phase")
		return
	}

	sess, err := h.storage.LoadSession(r.Context(), id)
	if err != nil || sess == nil {
		writeError(w, h.log, http.StatusNotFound, "No active simulation found. Please start a session from the admin setup.")
		return
	}

	sess.Phase = req.Phase
	if err := h.storage.SaveSession(r.Context(), sess); err != nil {
		h.log.Error("Failed to save session phase", "session_id", id, "error", err)
		writeError(w, h.log, http.StatusInternalServerError, "Failed to update phase")
		return
	}

	writeJSON(w, h.log, http.StatusOK, sess)
}
