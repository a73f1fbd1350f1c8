// Package debounce реализует реестр отложенных действий по ключу:
// повторный Arm для того же ключа отменяет предыдущее действие, поэтому срабатывает только последнее.
package debounce

import (
	"sort"
	"sync"
	"time"

	"github.com/DRSN-tech/cart-sync/pkg/clock"
)

// Scheduler хранит не более одного активного действия на ключ.
type Scheduler struct {
	clock clock.Clock
	mu    sync.Mutex
	seq   uint64
	tasks map[string]*task
}

type task struct {
	id    uint64
	timer clock.Timer
}

func NewScheduler(c clock.Clock) *Scheduler {
	return &Scheduler{
		clock: c,
		tasks: make(map[string]*task),
	}
}

// Arm заводит action через delay для ключа key. Ранее заведённое действие для key отменяется.
// Возвращает true, если предыдущее действие было отменено.
func (s *Scheduler) Arm(key string, delay time.Duration, action func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	replaced := false
	if prev, ok := s.tasks[key]; ok {
		prev.timer.Stop()
		replaced = true
	}

	s.seq++
	id := s.seq
	t := &task{id: id}
	s.tasks[key] = t
	t.timer = s.clock.AfterFunc(delay, func() {
		s.fire(key, id, action)
	})

	return replaced
}

// Cancel отменяет действие для key. Возвращает false, если активного действия не было.
func (s *Scheduler) Cancel(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[key]
	if !ok {
		return false
	}
	t.timer.Stop()
	delete(s.tasks, key)

	return true
}

// CancelAll отменяет все действия и возвращает количество отменённых.
func (s *Scheduler) CancelAll() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.tasks)
	for key, t := range s.tasks {
		t.timer.Stop()
		delete(s.tasks, key)
	}

	return n
}

// Active сообщает, есть ли у key заведённое и ещё не сработавшее действие.
func (s *Scheduler) Active(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.tasks[key]
	return ok
}

// Keys возвращает отсортированный список ключей с активными действиями.
func (s *Scheduler) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]string, 0, len(s.tasks))
	for key := range s.tasks {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	return keys
}

func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// fire выполняет action, только если задача id всё ещё актуальна для key.
// Запись удаляется до вызова action, чтобы action мог заново заводить тот же ключ.
func (s *Scheduler) fire(key string, id uint64, action func()) {
	s.mu.Lock()
	t, ok := s.tasks[key]
	if !ok || t.id != id {
		s.mu.Unlock()
		return
	}
	delete(s.tasks, key)
	s.mu.Unlock()

	action()
}
