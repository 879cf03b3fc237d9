package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/jwebster45206/cyberdrill/pkg/persona"
	"github.com/jwebster45206/cyberdrill/pkg/scenario"
	"github.com/jwebster45206/cyberdrill/pkg/session"
)

// MockStorage is an in-memory Storage for tests.
type MockStorage struct {
	mu          sync.RWMutex
	sessions    map[uuid.UUID]*session.Session
	players     map[string]session.Player
	resolutions map[uuid.UUID]map[string]session.Resolution
	chosenPaths map[uuid.UUID][]string
	chat        map[string][]session.ChatMessage
	scenarios   map[string]*scenario.Scenario
	pingError   error
	writeError  error
}

// Ensure MockStorage implements Storage interface
var _ Storage = (*MockStorage)(nil)

// NewMockStorage creates a new mock storage
func NewMockStorage() *MockStorage {
	return &MockStorage{
		sessions:    make(map[uuid.UUID]*session.Session),
		players:     make(map[string]session.Player),
		resolutions: make(map[uuid.UUID]map[string]session.Resolution),
		chosenPaths: make(map[uuid.UUID][]string),
		chat:        make(map[string][]session.ChatMessage),
		scenarios:   make(map[string]*scenario.Scenario),
	}
}

// SetPingError configures the mock to fail pings with the given error.
// Pass nil to restore healthy pings.
func (m *MockStorage) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = err
}

// SetWriteError configures every write to fail, for exercising the
// engine's log-and-continue persistence policy.
func (m *MockStorage) SetWriteError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeError = err
}

// AddScenario registers a scenario under the given file name.
func (m *MockStorage) AddScenario(filename string, s *scenario.Scenario) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scenarios[filename] = s
}

func (m *MockStorage) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pingError
}

func (m *MockStorage) Close() error {
	return nil
}

func (m *MockStorage) SaveSession(ctx context.Context, s *session.Session) error {
	if s == nil {
		return errors.New("session cannot be nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeError != nil {
		return m.writeError
	}
	cp := *s
	m.sessions[s.ID] = &cp
	return nil
}

func (m *MockStorage) LoadSession(ctx context.Context, id uuid.UUID) (*session.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (m *MockStorage) DeleteSession(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	delete(m.resolutions, id)
	delete(m.chosenPaths, id)
	return nil
}

func (m *MockStorage) SaveCurrentPlayer(ctx context.Context, sessionID uuid.UUID, p session.Player) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeError != nil {
		return m.writeError
	}
	m.players[mockPlayerKey(sessionID, p.Persona)] = p
	return nil
}

func (m *MockStorage) LoadCurrentPlayer(ctx context.Context, sessionID uuid.UUID, personaKey string) (*session.Player, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.players[mockPlayerKey(sessionID, personaKey)]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *MockStorage) SaveResolutions(ctx context.Context, sessionID uuid.UUID, resolutions map[string]session.Resolution) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeError != nil {
		return m.writeError
	}
	cp := make(map[string]session.Resolution, len(resolutions))
	for k, v := range resolutions {
		cp[k] = v
	}
	m.resolutions[sessionID] = cp
	return nil
}

func (m *MockStorage) LoadResolutions(ctx context.Context, sessionID uuid.UUID) (map[string]session.Resolution, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cp := make(map[string]session.Resolution, len(m.resolutions[sessionID]))
	for k, v := range m.resolutions[sessionID] {
		cp[k] = v
	}
	return cp, nil
}

func (m *MockStorage) SaveChosenPaths(ctx context.Context, sessionID uuid.UUID, paths []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeError != nil {
		return m.writeError
	}
	m.chosenPaths[sessionID] = append([]string(nil), paths...)
	return nil
}

func (m *MockStorage) LoadChosenPaths(ctx context.Context, sessionID uuid.UUID) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.chosenPaths[sessionID]...), nil
}

func (m *MockStorage) AppendChatMessage(ctx context.Context, sessionID uuid.UUID, msg session.ChatMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeError != nil {
		return m.writeError
	}
	key := mockChatKey(sessionID, msg.Room)
	m.chat[key] = append(m.chat[key], msg)
	return nil
}

func (m *MockStorage) ListChatMessages(ctx context.Context, sessionID uuid.UUID, room string) ([]session.ChatMessage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]session.ChatMessage(nil), m.chat[mockChatKey(sessionID, room)]...), nil
}

func (m *MockStorage) ListScenarios(ctx context.Context) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]string, len(m.scenarios))
	for filename, s := range m.scenarios {
		out[s.Name] = filename
	}
	return out, nil
}

func (m *MockStorage) GetScenario(ctx context.Context, filename string) (*scenario.Scenario, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.scenarios[filename]
	if !ok {
		return nil, fmt.Errorf("scenario not found: %s", filename)
	}
	return s, nil
}

func mockPlayerKey(sessionID uuid.UUID, role string) string {
	return sessionID.String() + ":" + persona.Canonical(role)
}

func mockChatKey(sessionID uuid.UUID, room string) string {
	return sessionID.String() + ":" + room
}
