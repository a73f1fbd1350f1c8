// Package jitter добавляет случайность к интервалам опроса и отступления (backoff),
// чтобы клиенты не обращались к сервису синхронно.
package jitter

import (
	"math/rand"
	"sync"
	"time"
)

// DefaultJitter — стандартный коэффициент джиттера (50%)
const DefaultJitter = 0.5

// Backoff вычисляет интервалы ожидания между попытками.
// Нулевое значение не используется: создавайте через NewBackoff.
type Backoff struct {
	base   time.Duration
	max    time.Duration
	factor float64

	mu  sync.Mutex
	rng *rand.Rand
}

// NewBackoff создаёт генератор интервалов. seed == 0 означает случайный seed.
func NewBackoff(base, max time.Duration, factor float64, seed int64) *Backoff {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if max < base {
		max = base
	}

	return &Backoff{
		base:   base,
		max:    max,
		factor: factor,
		rng:    rand.New(rand.NewSource(seed)),
	}
}

// Jitter возвращает d с применённым джиттером, результат в диапазоне [d, d*(1+factor)].
func (b *Backoff) Jitter(d time.Duration) time.Duration {
	if b.factor <= 0 || d <= 0 {
		return d
	}

	b.mu.Lock()
	extra := b.rng.Float64() * b.factor * float64(d)
	b.mu.Unlock()

	return d + time.Duration(extra)
}

// Next возвращает интервал для попытки attempt (с нуля): base*2^attempt, не больше max, плюс джиттер.
func (b *Backoff) Next(attempt int) time.Duration {
	d := b.base
	for i := 0; i < attempt; i++ {
		d *= 2
		if d >= b.max {
			d = b.max
			break
		}
	}

	return b.Jitter(d)
}
