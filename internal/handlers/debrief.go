package handlers

import (
	"net/http"
	"sort"

	"github.com/google/uuid"

	"github.com/jwebster45206/cyberdrill/pkg/session"
	"github.com/jwebster45206/cyberdrill/pkg/timeline"
)

// DebriefEntry joins one resolved decision point with its recorded
// outcome.
type DebriefEntry struct {
	Event      timeline.Event     `json:"event"`
	Resolution session.Resolution `json:"resolution"`
}

type DebriefResponse struct {
	SessionName string         `json:"session_name"`
	Phase       session.Phase  `json:"phase"`
	Entries     []DebriefEntry `json:"entries"`
}

// handleDebrief rebuilds the session's full event list (initial load plus
// every chosen path) from storage and joins it with the persisted
// resolutions, in timeline order. It works without a running engine, so
// the debrief survives reloads.
func (h *SessionHandler) handleDebrief(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	if r.Method != http.MethodGet {
		writeError(w, h.log, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	ctx := r.Context()
	sess, err := h.storage.LoadSession(ctx, id)
	if err != nil || sess == nil {
		writeError(w, h.log, http.StatusNotFound, "No active simulation found. Please start a session from the admin setup.")
		return
	}

	doc, err := h.storage.GetScenario(ctx, sess.ScenarioFile)
	if err != nil {
		h.log.Error("Failed to load scenario for debrief", "session_id", id, "error", err)
		writeError(w, h.log, http.StatusInternalServerError, "Failed to load scenario")
		return
	}

	resolutions, err := h.storage.LoadResolutions(ctx, id)
	if err != nil {
		h.log.Error("Failed to load resolutions for debrief", "session_id", id, "error", err)
		writeError(w, h.log, http.StatusInternalServerError, "Failed to load resolutions")
		return
	}

	events := timeline.FromScenario(doc)
	paths, err := h.storage.LoadChosenPaths(ctx, id)
	if err != nil {
		h.log.Warn("Failed to load chosen paths for debrief", "session_id", id, "error", err)
	}
	sort.Strings(paths)
	for _, p := range paths {
		events = append(events, timeline.ExpandPath(doc, p)...)
	}

	entries := make([]DebriefEntry, 0, len(resolutions))
	for _, ev := range events {
		if res, ok := resolutions[ev.ID]; ok {
			entries = append(entries, DebriefEntry{Event: ev, Resolution: res})
		}
	}

	writeJSON(w, h.log, http.StatusOK, DebriefResponse{
		SessionName: sess.Name,
		Phase:       sess.Phase,
		Entries:     entries,
	})
}
