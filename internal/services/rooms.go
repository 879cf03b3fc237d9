package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/jwebster45206/cyberdrill/internal/services/events"
	"github.com/jwebster45206/cyberdrill/internal/storage"
	"github.com/jwebster45206/cyberdrill/pkg/engine"
	"github.com/jwebster45206/cyberdrill/pkg/persona"
	"github.com/jwebster45206/cyberdrill/pkg/session"
)

// RoomManager owns the running engine instances, one per (session,
// persona) pair, so each player walks their own view of the drill.
// Remote resolutions arrive over the broadcast subscription and merge
// into every other engine for the session.
type RoomManager struct {
	mu      sync.Mutex
	engines map[string]*engine.Engine
	cancels map[string]context.CancelFunc

	store      storage.Storage
	pub        engine.Publisher
	sub        *events.Subscriber
	logger     *slog.Logger
	engineOpts engine.Options
}

// NewRoomManager creates a room manager. sub may be nil when no broadcast
// transport is configured; engines then run without cross-view sync.
func NewRoomManager(store storage.Storage, pub engine.Publisher, sub *events.Subscriber, logger *slog.Logger, opts engine.Options) *RoomManager {
	return &RoomManager{
		engines:    make(map[string]*engine.Engine),
		cancels:    make(map[string]context.CancelFunc),
		store:      store,
		pub:        pub,
		sub:        sub,
		logger:     logger,
		engineOpts: opts,
	}
}

func roomKey(sessionID uuid.UUID, role string) string {
	return sessionID.String() + ":" + persona.Canonical(role)
}

// Join starts (or returns) the engine for a player's view of a session.
func (rm *RoomManager) Join(ctx context.Context, sess *session.Session, player session.Player) (*engine.Engine, error) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	key := roomKey(sess.ID, player.Persona)
	if eng, ok := rm.engines[key]; ok {
		return eng, nil
	}

	doc, err := rm.store.GetScenario(ctx, sess.ScenarioFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load scenario for session: %w", err)
	}

	eng := engine.New(doc, sess, player, rm.store, rm.pub, rm.logger, rm.engineOpts)
	eng.Start(ctx)
	rm.engines[key] = eng

	if rm.sub != nil {
		subCtx, cancel := context.WithCancel(context.Background())
		rm.cancels[key] = cancel
		go func() {
			err := rm.sub.Subscribe(subCtx, sess.ID, func(ev events.Event) {
				if ev.Type == events.EventTypeDecisionResolved && ev.Resolution != nil {
					eng.ApplyRemote(ev.EventID, *ev.Resolution)
				}
			})
			if err != nil && subCtx.Err() == nil {
				rm.logger.Warn("Broadcast subscription ended",
					"session_id", sess.ID, "persona", player.Persona, "error", err)
			}
		}()
	}

	rm.logger.Info("Player joined game room",
		"session_id", sess.ID, "player", player.Name, "persona", player.Persona)
	return eng, nil
}

// Get returns the engine for a player's view, or nil if they have not
// joined on this instance.
func (rm *RoomManager) Get(sessionID uuid.UUID, role string) *engine.Engine {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	return rm.engines[roomKey(sessionID, role)]
}

// Leave tears down a player's engine and subscription.
func (rm *RoomManager) Leave(sessionID uuid.UUID, role string) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	key := roomKey(sessionID, role)
	if cancel, ok := rm.cancels[key]; ok {
		cancel()
		delete(rm.cancels, key)
	}
	if eng, ok := rm.engines[key]; ok {
		eng.Stop()
		delete(rm.engines, key)
	}
}

// Shutdown stops every engine and subscription.
func (rm *RoomManager) Shutdown() {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	for key, cancel := range rm.cancels {
		cancel()
		delete(rm.cancels, key)
	}
	for key, eng := range rm.engines {
		eng.Stop()
		delete(rm.engines, key)
	}
}
