package events

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Subscriber receives a session's broadcast events and dispatches them to
// a handler. It is the receive side of the observer abstraction; the
// transport is Redis pub/sub.
type Subscriber struct {
	redisClient *redis.Client
	logger      *slog.Logger
}

// NewSubscriber creates a new event subscriber
func NewSubscriber(redisClient *redis.Client, logger *slog.Logger) *Subscriber {
	return &Subscriber{
		redisClient: redisClient,
		logger:      logger,
	}
}

// Subscribe listens on the session's channel until ctx is cancelled,
// invoking handle for each decoded event. Malformed payloads are dropped
// with a warning; delivery is best-effort by contract.
func (s *Subscriber) Subscribe(ctx context.Context, sessionID uuid.UUID, handle func(Event)) error {
	pubsub := s.redisClient.Subscribe(ctx, ChannelFor(sessionID))
	defer func() {
		if err := pubsub.Close(); err != nil {
			s.logger.Error("Failed to close pubsub", "error", err)
		}
	}()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				s.logger.Warn("Dropping malformed broadcast event",
					"session_id", sessionID, "error", err)
				continue
			}
			handle(event)
		}
	}
}
