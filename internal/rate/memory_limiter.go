package rate

import (
	"context"
	"sync"
	"time"
)

// MemoryLimiter: fixed window in-process, para dev o single-instance.
// Para multi-instancia usar RedisLimiter (la ventana tiene que ser compartida).
type MemoryLimiter struct {
	Max    int64
	Window time.Duration

	mu   sync.Mutex
	wins map[string]*window
}

type window struct {
	start time.Time
	hits  int64
}

func NewMemoryLimiter(max int, windowDur time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		Max:    int64(max),
		Window: windowDur,
		wins:   make(map[string]*window),
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (Result, error) {
	now := time.Now()
	winStart := now.Truncate(l.Window)

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.wins[key]
	if !ok || w.start.Before(winStart) {
		w = &window{start: winStart}
		l.wins[key] = w
	}
	w.hits++

	allowed := w.hits <= l.Max
	remaining := l.Max - w.hits
	if remaining < 0 {
		remaining = 0
	}

	res := Result{Allowed: allowed, Remaining: remaining, CurrentHits: w.hits}
	if !allowed {
		res.RetryAfter = winStart.Add(l.Window).Sub(now)
	}
	return res, nil
}
