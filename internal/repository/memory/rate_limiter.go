// Package memory содержит реализации для запуска одного инстанса без Redis.
package memory

import (
	"context"
	"sync"
	"time"
)

// RateLimiter — ограничитель частоты в памяти процесса: не более одного запроса на ключ за interval.
type RateLimiter struct {
	mu       sync.Mutex
	last     map[string]time.Time
	interval time.Duration
	now      func() time.Time
}

func NewRateLimiter(interval time.Duration) *RateLimiter {
	return &RateLimiter{
		last:     make(map[string]time.Time),
		interval: interval,
		now:      time.Now,
	}
}

func (l *RateLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if prev, ok := l.last[key]; ok && now.Sub(prev) < l.interval {
		return false, nil
	}
	l.last[key] = now

	// вычищаем устаревшие ключи, чтобы карта не росла бесконечно
	if len(l.last) > 10_000 {
		for k, t := range l.last {
			if now.Sub(t) >= l.interval {
				delete(l.last, k)
			}
		}
	}

	return true, nil
}
