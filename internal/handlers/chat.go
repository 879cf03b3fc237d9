package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/cyberdrill/pkg/persona"
	"github.com/jwebster45206/cyberdrill/pkg/session"
)

const defaultChatRoom = "main"

type ChatRequest struct {
	Room       string `json:"room,omitempty"`
	PlayerName string `json:"player_name"`
	Persona    string `json:"persona,omitempty"`
	Message    string `json:"message"`
}

func (h *SessionHandler) handleChat(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	switch r.Method {
	case http.MethodGet:
		h.handleChatList(w, r, id)
	case http.MethodPost:
		h.handleChatPost(w, r, id)
	default:
		writeError(w, h.log, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (h *SessionHandler) handleChatList(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	room := r.URL.Query().Get("room")
	if room == "" {
		room = defaultChatRoom
	}

	messages, err := h.storage.ListChatMessages(r.Context(), id, room)
	if err != nil {
		h.log.Error("Failed to list chat messages", "session_id", id, "room", room, "error", err)
		writeError(w, h.log, http.StatusInternalServerError, "Failed to load chat history")
		return
	}
	writeJSON(w, h.log, http.StatusOK, messages)
}

func (h *SessionHandler) handleChatPost(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.log, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.PlayerName == "" || req.Message == "" {
		writeError(w, h.log, http.StatusBadRequest, "player_name and message are required")
		return
	}
	if req.Room == "" {
		req.Room = defaultChatRoom
	}

	msg := session.ChatMessage{
		Room:       req.Room,
		PlayerName: req.PlayerName,
		Persona:    persona.Canonical(req.Persona),
		Message:    req.Message,
		SentAt:     time.Now().UTC(),
	}

	if err := h.storage.AppendChatMessage(r.Context(), id, msg); err != nil {
		h.log.Error("Failed to append chat message", "session_id", id, "error", err)
		writeError(w, h.log, http.StatusInternalServerError, "Failed to send message")
		return
	}

	if h.pub != nil {
		if err := h.pub.PublishChatMessage(r.Context(), id, msg); err != nil {
			h.log.Warn("Failed to broadcast chat message", "session_id", id, "error", err)
		}
	}

	writeJSON(w, h.log, http.StatusCreated, msg)
}
