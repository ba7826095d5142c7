package limiter

import (
	"context"
	"time"
)

// Limiter 以 key 區分的限流器, key 通常是 client ip
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

type LimiterConfig struct {
	Prefix     string
	Capacity   int
	RatePS     int           // tokens/秒
	RefillRate time.Duration // fixed window 的窗口長度
}

func (l *LimiterConfig) SetCapacity(capacity int) {
	l.Capacity = capacity
}

func (l *LimiterConfig) SetRatePS(rate int) {
	l.RatePS = rate
}

func (l *LimiterConfig) SetRefillRate(refillRate time.Duration) {
	l.RefillRate = refillRate
}

func GetDefaultLimiterConfig() LimiterConfig {
	return LimiterConfig{
		Prefix:     "rate_limit",
		Capacity:   100,
		RatePS:     10,
		RefillRate: time.Second,
	}
}

func withDefaults(config *LimiterConfig) LimiterConfig {
	def := GetDefaultLimiterConfig()
	if config == nil {
		return def
	}
	c := *config
	if c.Prefix == "" {
		c.Prefix = def.Prefix
	}
	if c.Capacity <= 0 {
		c.Capacity = def.Capacity
	}
	if c.RatePS <= 0 {
		c.RatePS = def.RatePS
	}
	if c.RefillRate <= 0 {
		c.RefillRate = def.RefillRate
	}
	return c
}
