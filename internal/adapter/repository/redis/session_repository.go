package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/V4T54L/logmon/internal/domain"
)

const (
	sessionsKeySuffix = ":sessions"
	eventsKeySuffix   = ":session-events"
)

// SessionRepository implements domain.SessionStore using a Redis hash keyed
// by sessionId. Every saved session is also published on a channel so other
// dashboard processes can follow status changes live.
type SessionRepository struct {
	client      *redis.Client
	logger      *slog.Logger
	hashKey     string
	channelName string
}

// NewSessionRepository creates a new Redis-backed SessionRepository. All keys
// are namespaced under prefix.
func NewSessionRepository(client *redis.Client, logger *slog.Logger, prefix string) *SessionRepository {
	return &SessionRepository{
		client:      client,
		logger:      logger.With("component", "redis_session_repository"),
		hashKey:     prefix + sessionsKeySuffix,
		channelName: prefix + eventsKeySuffix,
	}
}

// Channel returns the pub/sub channel session updates are published on.
func (r *SessionRepository) Channel() string {
	return r.channelName
}

// SaveSessions upserts sessions into the hash and publishes each one.
func (r *SessionRepository) SaveSessions(ctx context.Context, sessions []domain.Session) error {
	if len(sessions) == 0 {
		return nil
	}

	pipe := r.client.Pipeline()
	for _, s := range sessions {
		payload, err := json.Marshal(s)
		if err != nil {
			r.logger.Error("Failed to marshal session", "session_id", s.SessionID, "error", err)
			continue
		}
		pipe.HSet(ctx, r.hashKey, s.SessionID, payload)
		pipe.Publish(ctx, r.channelName, payload)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to execute session pipeline: %w", err)
	}
	return nil
}

// LoadSessions returns every mirrored session. Entries that fail to decode
// are skipped.
func (r *SessionRepository) LoadSessions(ctx context.Context) ([]domain.Session, error) {
	values, err := r.client.HGetAll(ctx, r.hashKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to HGETALL sessions: %w", err)
	}

	sessions := make([]domain.Session, 0, len(values))
	for id, payload := range values {
		var s domain.Session
		if err := json.Unmarshal([]byte(payload), &s); err != nil {
			r.logger.Warn("Failed to unmarshal mirrored session, skipping", "session_id", id, "error", err)
			continue
		}
		sessions = append(sessions, s)
	}
	return sessions, nil
}

// DeleteSessions removes the given sessions from the hash.
func (r *SessionRepository) DeleteSessions(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := r.client.HDel(ctx, r.hashKey, ids...).Err(); err != nil {
		return fmt.Errorf("failed to HDEL sessions: %w", err)
	}
	return nil
}

// ClearSessions deletes the session hash.
func (r *SessionRepository) ClearSessions(ctx context.Context) error {
	if err := r.client.Del(ctx, r.hashKey).Err(); err != nil {
		return fmt.Errorf("failed to DEL sessions: %w", err)
	}
	return nil
}

// Ping checks that Redis is reachable.
func (r *SessionRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
