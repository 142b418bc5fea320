package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"attendtrack/internal/models"
	"attendtrack/internal/security"
)

type redisRecord struct {
	UserID    int64 `json:"user_id"`
	ExpiresAt int64 `json:"expires_at"`
}

// RedisStore keeps sessions as expiring Redis keys. Users are still loaded
// from the relational store.
type RedisStore struct {
	client   *redis.Client
	users    UserLookup
	duration time.Duration
	now      func() time.Time
}

// NewRedisStore creates a Redis-backed session store
func NewRedisStore(client *redis.Client, users UserLookup, duration time.Duration) *RedisStore {
	if duration <= 0 {
		duration = DefaultDuration
	}
	return &RedisStore{client: client, users: users, duration: duration, now: time.Now}
}

func sessionKey(token string) string {
	return fmt.Sprintf("session:%s", token)
}

// Create stores a new session for userID and returns its token
func (s *RedisStore) Create(ctx context.Context, userID int64) (string, error) {
	token := security.GenerateSessionID()
	data, err := json.Marshal(redisRecord{
		UserID:    userID,
		ExpiresAt: s.now().Add(s.duration).UnixMilli(),
	})
	if err != nil {
		return "", err
	}
	ok, err := s.client.SetNX(ctx, sessionKey(token), data, s.duration).Result()
	if err != nil {
		return "", unavailable("create", err)
	}
	if !ok {
		return "", unavailable("create", errors.New("token collision"))
	}
	return token, nil
}

// Resolve returns the user owning a live session
func (s *RedisStore) Resolve(ctx context.Context, token string) (*models.User, error) {
	value, err := s.client.Get(ctx, sessionKey(token)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, unavailable("resolve", err)
	}

	var record redisRecord
	if err := json.Unmarshal([]byte(value), &record); err != nil {
		return nil, unavailable("decode", err)
	}
	if record.ExpiresAt <= s.now().UnixMilli() {
		return nil, nil
	}

	user, err := s.users.GetUserByID(record.UserID)
	if err != nil {
		return nil, unavailable("resolve user", err)
	}
	return user, nil
}

// Revoke deletes a session. Unknown tokens are ignored.
func (s *RedisStore) Revoke(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, sessionKey(token)).Err(); err != nil {
		return unavailable("revoke", err)
	}
	return nil
}
