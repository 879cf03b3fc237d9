package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/cyberdrill/pkg/session"
)

// EventType represents the type of event being broadcast
type EventType string

const (
	EventTypeDecisionResolved EventType = "decision.resolved"
	EventTypeChatMessage      EventType = "chat.message"
	EventTypeSessionPhase     EventType = "session.phase"
)

// Event is the envelope published on a session's broadcast channel.
// Delivery is best-effort; receivers merge with first-write-wins per
// event id, so duplicates and reordering are harmless.
type Event struct {
	Type       EventType            `json:"type"`
	SessionID  string               `json:"session_id"`
	EventID    string               `json:"event_id,omitempty"`
	Resolution *session.Resolution  `json:"resolution,omitempty"`
	Chat       *session.ChatMessage `json:"chat,omitempty"`
	Phase      string               `json:"phase,omitempty"`
}

// ChannelFor returns the pub/sub channel name for a session.
func ChannelFor(sessionID uuid.UUID) string {
	return fmt.Sprintf("drill-events:%s", sessionID.String())
}

// Broadcaster publishes session events to Redis Pub/Sub so other open
// views of the same drill observe them.
type Broadcaster struct {
	redisClient *redis.Client
	logger      *slog.Logger
}

// NewBroadcaster creates a new event broadcaster
func NewBroadcaster(redisClient *redis.Client, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		redisClient: redisClient,
		logger:      logger,
	}
}

// PublishDecisionResolved publishes a decision.resolved event
func (b *Broadcaster) PublishDecisionResolved(ctx context.Context, sessionID uuid.UUID, eventID string, res session.Resolution) error {
	return b.publish(ctx, sessionID, Event{
		Type:       EventTypeDecisionResolved,
		SessionID:  sessionID.String(),
		EventID:    eventID,
		Resolution: &res,
	})
}

// PublishChatMessage publishes a chat.message event
func (b *Broadcaster) PublishChatMessage(ctx context.Context, sessionID uuid.UUID, msg session.ChatMessage) error {
	return b.publish(ctx, sessionID, Event{
		Type:      EventTypeChatMessage,
		SessionID: sessionID.String(),
		Chat:      &msg,
	})
}

// PublishSessionPhase publishes a session.phase event
func (b *Broadcaster) PublishSessionPhase(ctx context.Context, sessionID uuid.UUID, phase session.Phase) error {
	return b.publish(ctx, sessionID, Event{
		Type:      EventTypeSessionPhase,
		SessionID: sessionID.String(),
		Phase:     string(phase),
	})
}

func (b *Broadcaster) publish(ctx context.Context, sessionID uuid.UUID, event Event) error {
	channel := ChannelFor(sessionID)

	data, err := json.Marshal(event)
	if err != nil {
		b.logger.Error("Failed to marshal event", "error", err, "event_type", event.Type)
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := b.redisClient.Publish(ctx, channel, data).Err(); err != nil {
		b.logger.Error("Failed to publish event", "error", err, "channel", channel)
		return fmt.Errorf("failed to publish event: %w", err)
	}

	b.logger.Debug("Event published",
		"channel", channel,
		"event_type", event.Type,
		"event_id", event.EventID,
	)
	return nil
}
