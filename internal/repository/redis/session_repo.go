package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrTokenNotFound    = errors.New("token not found")
	ErrRedisUnavailable = errors.New("redis unavailable")
)

const (
	SessionTokenPrefix = "login:account:token"
	SessionTTL         = 30 * time.Minute
)

// SessionRepository 每个账号只保留一个有效 access token
type SessionRepository struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewSessionRepository(client *redis.Client, ttl time.Duration) *SessionRepository {
	if ttl <= 0 {
		ttl = SessionTTL
	}
	return &SessionRepository{Client: client, TTL: ttl}
}

func sessionKey(accountID uint64) string {
	return fmt.Sprintf("%s:%d", SessionTokenPrefix, accountID)
}

func (r *SessionRepository) Save(ctx context.Context, accountID uint64, token string) error {
	if err := r.Client.Set(ctx, sessionKey(accountID), token, r.TTL).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

func (r *SessionRepository) Get(ctx context.Context, accountID uint64) (string, error) {
	token, err := r.Client.Get(ctx, sessionKey(accountID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrTokenNotFound
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return token, nil
}

// Extend 续期，每次鉴权通过后调用
func (r *SessionRepository) Extend(ctx context.Context, accountID uint64) error {
	if err := r.Client.Expire(ctx, sessionKey(accountID), r.TTL).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

func (r *SessionRepository) Delete(ctx context.Context, accountID uint64) error {
	if err := r.Client.Del(ctx, sessionKey(accountID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

func (r *SessionRepository) Ping(ctx context.Context) error {
	return r.Client.Ping(ctx).Err()
}
