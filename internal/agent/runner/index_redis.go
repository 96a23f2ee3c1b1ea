package runner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisKeyPrefix namespaces session keys.
const DefaultRedisKeyPrefix = "agentdesk:session"

// RedisIndex stores SessionInfo as JSON strings with a TTL refreshed on
// every Put.
//
// Redis data structure:
//   - Key: "<prefix>:<session_id>"
//   - Type: String (JSON SessionInfo)
type RedisIndex struct {
	client    redis.UniversalClient
	ttl       time.Duration
	keyPrefix string
}

// NewRedisIndex connects to redisURL, e.g. "redis://localhost:6379/0".
func NewRedisIndex(redisURL string, ttl time.Duration, keyPrefix string) (*RedisIndex, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid Redis URL: %w", err)
	}
	return NewRedisIndexWithClient(redis.NewClient(opts), ttl, keyPrefix), nil
}

// NewRedisIndexWithClient uses an existing client.
func NewRedisIndexWithClient(client redis.UniversalClient, ttl time.Duration, keyPrefix string) *RedisIndex {
	if keyPrefix == "" {
		keyPrefix = DefaultRedisKeyPrefix
	}
	return &RedisIndex{client: client, ttl: ttl, keyPrefix: keyPrefix}
}

func (r *RedisIndex) key(id string) string {
	return r.keyPrefix + ":" + id
}

// Get implements SessionIndex.
func (r *RedisIndex) Get(ctx context.Context, id string) (SessionInfo, error) {
	data, err := r.client.Get(ctx, r.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return SessionInfo{}, ErrSessionNotFound
	}
	if err != nil {
		return SessionInfo{}, fmt.Errorf("failed to read session %s: %w", id, err)
	}

	var info SessionInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return SessionInfo{}, fmt.Errorf("failed to decode session %s: %w", id, err)
	}
	return info, nil
}

// Put implements SessionIndex.
func (r *RedisIndex) Put(ctx context.Context, info SessionInfo) error {
	data, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := r.client.Set(ctx, r.key(info.SessionID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session %s: %w", info.SessionID, err)
	}
	return nil
}

// Name implements lifecycle.Component.
func (r *RedisIndex) Name() string {
	return "redis-session-index"
}

// Start verifies the connection.
func (r *RedisIndex) Start(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// Stop closes the client.
func (r *RedisIndex) Stop(context.Context) error {
	return r.client.Close()
}
