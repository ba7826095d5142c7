package limiter

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

/*
會有突刺問題, 只在沒有 redis 的單機環境使用
*/
type window struct {
	count     atomic.Int32
	startedAt time.Time
	mu        sync.RWMutex
}

type FixedWindow struct {
	LimiterConfig
	mu      sync.Mutex
	windows map[string]*window
	now     func() time.Time
}

func NewFixWindow(config *LimiterConfig) *FixedWindow {
	return &FixedWindow{
		LimiterConfig: withDefaults(config),
		windows:       make(map[string]*window),
		now:           time.Now,
	}
}

func (f *FixedWindow) window(key string, current time.Time) *window {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.windows[key]
	if !ok {
		w = &window{startedAt: current}
		f.windows[key] = w
	}
	return w
}

func (f *FixedWindow) Allow(_ context.Context, key string) (bool, error) {
	current := f.now()
	w := f.window(key, current)

	w.mu.RLock()
	needReset := current.Sub(w.startedAt) >= f.RefillRate
	w.mu.RUnlock()

	if needReset {
		w.mu.Lock()
		if current.Sub(w.startedAt) >= f.RefillRate {
			w.count.Store(0)
			w.startedAt = current
		}
		w.mu.Unlock()
	}

	for {
		n := w.count.Load()
		if n+1 > int32(f.Capacity) {
			return false, nil
		}
		if w.count.CompareAndSwap(n, n+1) {
			return true, nil
		}
	}
}

// Sweep 清除已過期的窗口
func (f *FixedWindow) Sweep() {
	current := f.now()
	f.mu.Lock()
	defer f.mu.Unlock()
	for key, w := range f.windows {
		w.mu.RLock()
		expired := current.Sub(w.startedAt) >= f.RefillRate
		w.mu.RUnlock()
		if expired {
			delete(f.windows, key)
		}
	}
}

var _ Limiter = (*FixedWindow)(nil)
