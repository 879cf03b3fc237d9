package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Session records expire with the drill; nothing persists beyond the
// session's useful life.
const sessionTTL = 4 * time.Hour

// RedisStorage implements Storage using Redis for per-session state and
// the filesystem for authored scenario documents.
type RedisStorage struct {
	client  *redis.Client
	logger  *slog.Logger
	dataDir string
}

// Ensure RedisStorage implements Storage interface
var _ Storage = (*RedisStorage)(nil)

// NewRedisStorage creates a new Redis storage instance
func NewRedisStorage(redisURL string, dataDir string, logger *slog.Logger) *RedisStorage {
	rdb := redis.NewClient(&redis.Options{
		Addr: redisURL,
	})

	if dataDir == "" {
		dataDir = "./data"
	}

	return &RedisStorage{
		client:  rdb,
		logger:  logger,
		dataDir: dataDir,
	}
}

func (r *RedisStorage) Ping(ctx context.Context) error {
	cmd := r.client.Ping(ctx)
	if err := cmd.Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (r *RedisStorage) Close() error {
	if err := r.client.Close(); err != nil {
		r.logger.Error("Failed to close Redis connection", "error", err)
		return err
	}
	r.logger.Info("Redis connection closed")
	return nil
}

// WaitForConnection waits for Redis to become available (used during startup)
func (r *RedisStorage) WaitForConnection(ctx context.Context) error {
	maxRetries := 30
	retryDelay := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		if err := r.Ping(ctx); err != nil {
			r.logger.Debug("Redis not ready yet", "error", err, "attempt", i+1)

			select {
			case <-ctx.Done():
				return fmt.Errorf("context cancelled while waiting for redis: %w", ctx.Err())
			case <-time.After(retryDelay):
				continue
			}
		}

		r.logger.Info("Redis connection established")
		return nil
	}

	return fmt.Errorf("redis did not become available after %d attempts", maxRetries)
}

// Client exposes the underlying connection for pub/sub consumers.
func (r *RedisStorage) Client() *redis.Client {
	return r.client
}

// Key layout: everything for a drill hangs off its session id.

func sessionKey(id uuid.UUID) string {
	return "session:" + id.String()
}

func playerKey(id uuid.UUID, personaKey string) string {
	return fmt.Sprintf("session:%s:player:%s", id.String(), personaKey)
}

func resolutionsKey(id uuid.UUID) string {
	return fmt.Sprintf("session:%s:resolved", id.String())
}

func chosenPathsKey(id uuid.UUID) string {
	return fmt.Sprintf("session:%s:paths", id.String())
}

func chatKey(id uuid.UUID, room string) string {
	return fmt.Sprintf("session:%s:chat:%s", id.String(), room)
}
