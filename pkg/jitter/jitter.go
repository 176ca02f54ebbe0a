// Package jitter добавляет случайность в интервалы повторов,
// чтобы воркеры не ломились в брокер или базу одновременно.
package jitter

import (
	"math/rand/v2"
	"time"
)

// DefaultFactor — стандартный коэффициент джиттера (50%)
const DefaultFactor = 0.5

// Duration возвращает d, увеличенную на случайную долю в пределах factor.
// Результат находится в диапазоне [d, d*(1+factor)).
func Duration(d time.Duration, factor float64) time.Duration {
	if d <= 0 || factor <= 0 {
		return d
	}
	return d + time.Duration(rand.Float64()*factor*float64(d))
}

// Backoff — экспоненциальная задержка между повторами с джиттером.
type Backoff struct {
	Base   time.Duration
	Max    time.Duration
	Factor float64
}

// Delay возвращает задержку перед попыткой attempt (нумерация с нуля).
// Без джиттера задержка не превышает Max.
func (b Backoff) Delay(attempt int) time.Duration {
	delay := b.Base
	for i := 0; i < attempt && delay < b.Max; i++ {
		delay *= 2
	}
	if delay > b.Max {
		delay = b.Max
	}
	return Duration(delay, b.Factor)
}

// Sleep ждёт Delay(attempt) или отмены контекста. Возвращает false, если ожидание прервано.
func (b Backoff) Sleep(done <-chan struct{}, attempt int) bool {
	t := time.NewTimer(b.Delay(attempt))
	defer t.Stop()

	select {
	case <-t.C:
		return true
	case <-done:
		return false
	}
}
