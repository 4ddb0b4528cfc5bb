package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/AnshRaj112/leadcrm-backend/internal/models"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
)

const (
	// SessionKeyPrefix is the Redis key prefix for a cached token -> user document
	SessionKeyPrefix = "session:"
	// UserSessionKeyPrefix is the Redis key prefix for the set of cached tokens of a user
	UserSessionKeyPrefix = "user_sessions:"
)

// SessionCache holds users already resolved from a token so authenticated
// requests can skip the store lookup. EvictUser must run after every write to
// a user document.
type SessionCache interface {
	Get(ctx context.Context, token string) (*models.User, bool, error)
	Set(ctx context.Context, token string, user *models.User) error
	EvictUser(ctx context.Context, userID string) error
}

// evictSessions drops the cached sessions of userID. The store is the source
// of truth, so a cache failure is logged and never fails the write.
func evictSessions(ctx context.Context, cache SessionCache, userID string) {
	if err := cache.EvictUser(ctx, userID); err != nil {
		slog.WarnContext(ctx, "session cache eviction failed", "user_id", userID, "error", err)
	}
}

// NoopSessionCache is used when Redis is not configured.
type NoopSessionCache struct{}

func (NoopSessionCache) Get(context.Context, string) (*models.User, bool, error) {
	return nil, false, nil
}

func (NoopSessionCache) Set(context.Context, string, *models.User) error { return nil }

func (NoopSessionCache) EvictUser(context.Context, string) error { return nil }

// RedisSessionCache stores the full user document (bson encoded, tokens and
// password hash included) under session:<token>, and tracks every cached
// token of a user under user_sessions:<id> so a write can evict them all.
type RedisSessionCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisSessionCache(client *redis.Client, ttl time.Duration) *RedisSessionCache {
	return &RedisSessionCache{client: client, ttl: ttl}
}

func (c *RedisSessionCache) Get(ctx context.Context, token string) (*models.User, bool, error) {
	data, err := c.client.Get(ctx, SessionKeyPrefix+token).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var user models.User
	if err := bson.Unmarshal(data, &user); err != nil {
		return nil, false, err
	}
	return &user, true, nil
}

func (c *RedisSessionCache) Set(ctx context.Context, token string, user *models.User) error {
	data, err := bson.Marshal(user)
	if err != nil {
		return err
	}

	userSessionKey := UserSessionKeyPrefix + user.ID.Hex()
	_, err = c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, SessionKeyPrefix+token, data, c.ttl)
		pipe.SAdd(ctx, userSessionKey, token)
		pipe.Expire(ctx, userSessionKey, c.ttl)
		return nil
	})
	return err
}

func (c *RedisSessionCache) EvictUser(ctx context.Context, userID string) error {
	userSessionKey := UserSessionKeyPrefix + userID

	tokens, err := c.client.SMembers(ctx, userSessionKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}

	keys := make([]string, 0, len(tokens)+1)
	for _, t := range tokens {
		keys = append(keys, SessionKeyPrefix+t)
	}
	keys = append(keys, userSessionKey)
	return c.client.Del(ctx, keys...).Err()
}
