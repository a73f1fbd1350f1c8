// Package clock абстрагирует время, чтобы отложенные действия можно было детерминированно проверять в тестах.
package clock

import (
	"sort"
	"sync"
	"time"
)

// Timer — отменяемое отложенное действие.
type Timer interface {
	// Stop отменяет таймер. Возвращает false, если таймер уже сработал или был остановлен.
	Stop() bool
}

// Clock — источник времени и таймеров.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// Real — реализация поверх пакета time.
type Real struct{}

// NewReal возвращает системные часы.
func NewReal() Real {
	return Real{}
}

func (Real) Now() time.Time {
	return time.Now()
}

func (Real) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Fake — управляемые вручную часы. Таймеры срабатывают только внутри Advance,
// синхронно и в порядке наступления срока.
type Fake struct {
	mu     sync.Mutex
	now    time.Time
	seq    uint64
	timers map[uint64]*fakeTimer
}

type fakeTimer struct {
	clock *Fake
	id    uint64
	when  time.Time
	f     func()
}

// NewFake создаёт часы, остановленные на момент start.
func NewFake(start time.Time) *Fake {
	return &Fake{
		now:    start,
		timers: make(map[uint64]*fakeTimer),
	}
}

func (c *Fake) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Fake) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.seq++
	t := &fakeTimer{
		clock: c,
		id:    c.seq,
		when:  c.now.Add(d),
		f:     f,
	}
	c.timers[t.id] = t

	return t
}

// Advance сдвигает время на d и выполняет все таймеры, чей срок наступил.
// Колбэки вызываются без удержания внутренней блокировки, поэтому могут заводить новые таймеры:
// если их срок укладывается в тот же интервал, они тоже сработают.
// Допускается параллельный вызов Advance из другой горутины, пока колбэк блокирован; время не идёт назад.
func (c *Fake) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	c.mu.Unlock()

	for {
		c.mu.Lock()
		next := c.nextDueLocked(target)
		if next == nil {
			if target.After(c.now) {
				c.now = target
			}
			c.mu.Unlock()
			return
		}
		delete(c.timers, next.id)
		if next.when.After(c.now) {
			c.now = next.when
		}
		c.mu.Unlock()

		next.f()
	}
}

// Pending возвращает количество заведённых и ещё не сработавших таймеров.
func (c *Fake) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.timers)
}

func (c *Fake) nextDueLocked(target time.Time) *fakeTimer {
	due := make([]*fakeTimer, 0, len(c.timers))
	for _, t := range c.timers {
		if !t.when.After(target) {
			due = append(due, t)
		}
	}
	if len(due) == 0 {
		return nil
	}

	sort.Slice(due, func(i, j int) bool {
		if due[i].when.Equal(due[j].when) {
			return due[i].id < due[j].id
		}
		return due[i].when.Before(due[j].when)
	})

	return due[0]
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()

	if _, ok := t.clock.timers[t.id]; !ok {
		return false
	}
	delete(t.clock.timers, t.id)

	return true
}
