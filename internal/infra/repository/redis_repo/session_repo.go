package redis_repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// SessionRepo 每個 session 一個 hash, 欄位由上層決定 (例如 cart)
// 每次寫入都會延長 TTL
type SessionRepo struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSessionRepo(client *redis.Client, ttl time.Duration) *SessionRepo {
	return &SessionRepo{client: client, ttl: ttl}
}

func generateSessionKey(sessionID string) string {
	return fmt.Sprintf("session:%s", sessionID)
}

// Get 欄位不存在時回傳 ok=false
func (r *SessionRepo) Get(ctx context.Context, sessionID, field string) ([]byte, bool, error) {
	b, err := r.client.HGet(ctx, generateSessionKey(sessionID), field).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get session %s field %s: %w", sessionID, field, err)
	}
	return b, true, nil
}

func (r *SessionRepo) Set(ctx context.Context, sessionID, field string, value []byte) error {
	key := generateSessionKey(sessionID)
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, field, value)
		if r.ttl > 0 {
			pipe.Expire(ctx, key, r.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to set session %s field %s: %w", sessionID, field, err)
	}
	return nil
}

func (r *SessionRepo) Delete(ctx context.Context, sessionID, field string) error {
	err := r.client.HDel(ctx, generateSessionKey(sessionID), field).Err()
	if err != nil {
		return fmt.Errorf("failed to delete session %s field %s: %w", sessionID, field, err)
	}
	return nil
}

// Destroy 整個 session 失效
func (r *SessionRepo) Destroy(ctx context.Context, sessionID string) error {
	return r.client.Del(ctx, generateSessionKey(sessionID)).Err()
}
