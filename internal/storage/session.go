package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/cyberdrill/pkg/persona"
	"github.com/jwebster45206/cyberdrill/pkg/session"
)

// Session bootstrap records (Redis-backed)

func (r *RedisStorage) SaveSession(ctx context.Context, s *session.Session) error {
	s.UpdatedAt = time.Now().UTC()

	data, err := json.Marshal(s)
	if err != nil {
		r.logger.Error("Failed to marshal session", "session_id", s.ID, "error", err)
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := r.client.Set(ctx, sessionKey(s.ID), string(data), sessionTTL).Err(); err != nil {
		r.logger.Error("Failed to save session", "session_id", s.ID, "error", err)
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (r *RedisStorage) LoadSession(ctx context.Context, id uuid.UUID) (*session.Session, error) {
	cmd := r.client.Get(ctx, sessionKey(id))
	if err := cmd.Err(); err != nil {
		if err == redis.Nil {
			r.logger.Warn("Session not found", "session_id", id)
			return nil, nil
		}
		r.logger.Error("Failed to load session", "session_id", id, "error", err)
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var s session.Session
	if err := json.Unmarshal([]byte(cmd.Val()), &s); err != nil {
		r.logger.Error("Failed to unmarshal session", "session_id", id, "error", err)
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &s, nil
}

func (r *RedisStorage) DeleteSession(ctx context.Context, id uuid.UUID) error {
	keys := []string{sessionKey(id), resolutionsKey(id), chosenPathsKey(id)}
	for _, p := range persona.All() {
		keys = append(keys, playerKey(id, p))
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		r.logger.Error("Failed to delete session", "session_id", id, "error", err)
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Current-player records

func (r *RedisStorage) SaveCurrentPlayer(ctx context.Context, sessionID uuid.UUID, p session.Player) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal player: %w", err)
	}

	key := playerKey(sessionID, persona.Canonical(p.Persona))
	if err := r.client.Set(ctx, key, string(data), sessionTTL).Err(); err != nil {
		r.logger.Error("Failed to save player", "session_id", sessionID, "persona", p.Persona, "error", err)
		return fmt.Errorf("failed to save player: %w", err)
	}
	return nil
}

func (r *RedisStorage) LoadCurrentPlayer(ctx context.Context, sessionID uuid.UUID, personaKey string) (*session.Player, error) {
	cmd := r.client.Get(ctx, playerKey(sessionID, persona.Canonical(personaKey)))
	if err := cmd.Err(); err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load player: %w", err)
	}

	var p session.Player
	if err := json.Unmarshal([]byte(cmd.Val()), &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal player: %w", err)
	}
	return &p, nil
}

// Decision resolutions. The full map is written on every resolve so the
// persisted blob is last-write-wins, matching the broadcast semantics.

func (r *RedisStorage) SaveResolutions(ctx context.Context, sessionID uuid.UUID, resolutions map[string]session.Resolution) error {
	data, err := json.Marshal(resolutions)
	if err != nil {
		return fmt.Errorf("failed to marshal resolutions: %w", err)
	}

	if err := r.client.Set(ctx, resolutionsKey(sessionID), string(data), sessionTTL).Err(); err != nil {
		r.logger.Error("Failed to save resolutions", "session_id", sessionID, "error", err)
		return fmt.Errorf("failed to save resolutions: %w", err)
	}
	return nil
}

func (r *RedisStorage) LoadResolutions(ctx context.Context, sessionID uuid.UUID) (map[string]session.Resolution, error) {
	cmd := r.client.Get(ctx, resolutionsKey(sessionID))
	if err := cmd.Err(); err != nil {
		if err == redis.Nil {
			return map[string]session.Resolution{}, nil
		}
		return nil, fmt.Errorf("failed to load resolutions: %w", err)
	}

	resolutions := make(map[string]session.Resolution)
	if err := json.Unmarshal([]byte(cmd.Val()), &resolutions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal resolutions: %w", err)
	}
	return resolutions, nil
}

// Chosen decision paths, for the expand-once rule across reloads.

func (r *RedisStorage) SaveChosenPaths(ctx context.Context, sessionID uuid.UUID, paths []string) error {
	data, err := json.Marshal(paths)
	if err != nil {
		return fmt.Errorf("failed to marshal chosen paths: %w", err)
	}

	if err := r.client.Set(ctx, chosenPathsKey(sessionID), string(data), sessionTTL).Err(); err != nil {
		r.logger.Error("Failed to save chosen paths", "session_id", sessionID, "error", err)
		return fmt.Errorf("failed to save chosen paths: %w", err)
	}
	return nil
}

func (r *RedisStorage) LoadChosenPaths(ctx context.Context, sessionID uuid.UUID) ([]string, error) {
	cmd := r.client.Get(ctx, chosenPathsKey(sessionID))
	if err := cmd.Err(); err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load chosen paths: %w", err)
	}

	var paths []string
	if err := json.Unmarshal([]byte(cmd.Val()), &paths); err != nil {
		return nil, fmt.Errorf("failed to unmarshal chosen paths: %w", err)
	}
	return paths, nil
}

// Room chat (Redis list per room)

func (r *RedisStorage) AppendChatMessage(ctx context.Context, sessionID uuid.UUID, msg session.ChatMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal chat message: %w", err)
	}

	key := chatKey(sessionID, msg.Room)
	if err := r.client.RPush(ctx, key, string(data)).Err(); err != nil {
		r.logger.Error("Failed to append chat message", "session_id", sessionID, "room", msg.Room, "error", err)
		return fmt.Errorf("failed to append chat message: %w", err)
	}
	if err := r.client.Expire(ctx, key, sessionTTL).Err(); err != nil {
		r.logger.Warn("Failed to refresh chat TTL", "session_id", sessionID, "room", msg.Room, "error", err)
	}
	return nil
}

func (r *RedisStorage) ListChatMessages(ctx context.Context, sessionID uuid.UUID, room string) ([]session.ChatMessage, error) {
	raw, err := r.client.LRange(ctx, chatKey(sessionID, room), 0, -1).Result()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("failed to list chat messages: %w", err)
	}

	messages := make([]session.ChatMessage, 0, len(raw))
	for _, item := range raw {
		var msg session.ChatMessage
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			r.logger.Warn("Skipping malformed chat message", "session_id", sessionID, "room", room, "error", err)
			continue
		}
		messages = append(messages, msg)
	}
	return messages, nil
}
