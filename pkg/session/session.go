package session

import (
	"time"

	"github.com/google/uuid"
)

// Phase tracks where a drill session is in its lifecycle.
type Phase string

const (
	PhaseSetup      Phase = "setup"
	PhaseSimulation Phase = "simulation"
	PhaseDebrief    Phase = "debrief"
	PhaseCompleted  Phase = "completed"
)

// Player is a participant slot in a session. Assigned marks slots the
// facilitator has filled; only assigned players appear in the game room.
type Player struct {
	Name     string `json:"name"`
	Persona  string `json:"persona"`
	Assigned bool   `json:"assigned,omitempty"`
}

// Session is the bootstrap record for one drill: written by the setup
// flow, read once by the engine at start.
type Session struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Phase        Phase     `json:"phase"`
	Players      []Player  `json:"players,omitempty"`
	ScenarioFile string    `json:"scenario_file"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at,omitempty"`
}

// NewSession creates a session in the setup phase.
func NewSession(name, scenarioFile string) *Session {
	return &Session{
		ID:           uuid.New(),
		Name:         name,
		Phase:        PhaseSetup,
		ScenarioFile: scenarioFile,
		CreatedAt:    time.Now().UTC(),
	}
}

// AssignedPlayers returns the players the facilitator has assigned.
func (s *Session) AssignedPlayers() []Player {
	out := make([]Player, 0, len(s.Players))
	for _, p := range s.Players {
		if p.Assigned {
			out = append(out, p)
		}
	}
	return out
}

// Resolution is the recorded outcome of a decision point. Resolutions are
// written once per event id and never mutated afterward.
type Resolution struct {
	Decision      string    `json:"decision"`
	DecisionLabel string    `json:"decision_label,omitempty"`
	Reasoning     string    `json:"reasoning,omitempty"`
	Manual        bool      `json:"manual"`
	DecidedAt     time.Time `json:"decided_at,omitempty"`
}

// ChatMessage is one line of room chat during a drill.
type ChatMessage struct {
	Room       string    `json:"room"`
	PlayerName string    `json:"player_name"`
	Persona    string    `json:"persona,omitempty"`
	Message    string    `json:"message"`
	SentAt     time.Time `json:"sent_at"`
}
