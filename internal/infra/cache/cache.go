package cache

import (
	"context"
	"errors"
	"time"
)

var ErrCacheMiss = errors.New("cache miss")

// Cache 以 namespace 隔離的 key-value 快取
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Clear 只清除本 namespace 的 key
	Clear(ctx context.Context) error
}
