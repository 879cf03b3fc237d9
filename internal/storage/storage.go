package storage

import (
	"context"

	"github.com/google/uuid"

	"github.com/jwebster45206/cyberdrill/pkg/scenario"
	"github.com/jwebster45206/cyberdrill/pkg/session"
)

// Storage is the durable per-session store: session bootstrap records,
// current-player records, decision resolutions, chosen decision paths, and
// room chat in Redis, plus authored scenario files from the filesystem.
type Storage interface {
	// Ping tests the backing connection
	Ping(ctx context.Context) error

	// Close closes the backing connection
	Close() error

	// SaveSession writes a session bootstrap record
	SaveSession(ctx context.Context, s *session.Session) error

	// LoadSession retrieves a session by ID. Returns nil if not found.
	LoadSession(ctx context.Context, id uuid.UUID) (*session.Session, error)

	// DeleteSession removes a session and its per-session records
	DeleteSession(ctx context.Context, id uuid.UUID) error

	// SaveCurrentPlayer writes the joined player record for a persona slot
	SaveCurrentPlayer(ctx context.Context, sessionID uuid.UUID, p session.Player) error

	// LoadCurrentPlayer retrieves the joined player for a persona slot.
	// Returns nil if no player has joined as that persona.
	LoadCurrentPlayer(ctx context.Context, sessionID uuid.UUID, personaKey string) (*session.Player, error)

	// SaveResolutions writes the full resolution map for a session
	SaveResolutions(ctx context.Context, sessionID uuid.UUID, resolutions map[string]session.Resolution) error

	// LoadResolutions retrieves the resolution map. Empty map if none.
	LoadResolutions(ctx context.Context, sessionID uuid.UUID) (map[string]session.Resolution, error)

	// SaveChosenPaths writes the expanded decision-path keys for a session
	SaveChosenPaths(ctx context.Context, sessionID uuid.UUID, paths []string) error

	// LoadChosenPaths retrieves the expanded path keys. Empty if none.
	LoadChosenPaths(ctx context.Context, sessionID uuid.UUID) ([]string, error)

	// AppendChatMessage appends a message to a session chat room
	AppendChatMessage(ctx context.Context, sessionID uuid.UUID, msg session.ChatMessage) error

	// ListChatMessages returns the messages for a room, oldest first
	ListChatMessages(ctx context.Context, sessionID uuid.UUID, room string) ([]session.ChatMessage, error)

	// ListScenarios maps scenario names to their file names
	ListScenarios(ctx context.Context) (map[string]string, error)

	// GetScenario loads a scenario document by file name
	GetScenario(ctx context.Context, filename string) (*scenario.Scenario, error)
}
