package poller

import (
	"context"
	"sync"
	"time"

	"github.com/DRSN-tech/cart-sync/internal/cfg"
	"github.com/DRSN-tech/cart-sync/pkg/clock"
	"github.com/DRSN-tech/cart-sync/pkg/jitter"
	"github.com/DRSN-tech/cart-sync/pkg/logger"
)

// Syncer — то, что поллер периодически вызывает. Реализуется движком корзины.
type Syncer interface {
	SyncCart(ctx context.Context) error
}

// Poller периодически запускает тихую сверку корзины с сервером.
// После ошибок интервал растёт экспоненциально, после успеха возвращается к базовому.
type Poller struct {
	syncer   Syncer
	clock    clock.Clock
	backoff  *jitter.Backoff
	interval time.Duration
	logger   logger.Logger

	mu       sync.Mutex
	ctx      context.Context
	timer    clock.Timer
	failures int
	running  bool
	wg       sync.WaitGroup
}

func NewPoller(syncer Syncer, cfg *cfg.SyncCfg, clk clock.Clock, logger logger.Logger) *Poller {
	return &Poller{
		syncer:   syncer,
		clock:    clk,
		backoff:  jitter.NewBackoff(cfg.PollInterval, cfg.PollMaxBackoff, cfg.PollJitter, 0),
		interval: cfg.PollInterval,
		logger:   logger,
	}
}

// Start планирует первую сверку через один интервал. Повторный вызов ничего не делает.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return
	}

	p.ctx = ctx
	p.running = true
	p.failures = 0
	p.scheduleLocked(p.backoff.Jitter(p.interval))

	p.logger.Infof("cart poller started, interval %s", p.interval)
}

// Stop отменяет запланированную сверку и ждёт завершения текущей.
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	if p.timer != nil {
		// Таймер не успел сработать: колбэк не вызовет Done.
		if p.timer.Stop() {
			p.wg.Done()
		}
		p.timer = nil
	}
	p.mu.Unlock()

	p.wg.Wait()
	p.logger.Infof("cart poller stopped")
}

// Failures возвращает число ошибок подряд.
func (p *Poller) Failures() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.failures
}

func (p *Poller) scheduleLocked(d time.Duration) {
	p.wg.Add(1)
	p.timer = p.clock.AfterFunc(d, func() {
		defer p.wg.Done()
		p.tick()
	})
}

func (p *Poller) tick() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	ctx := p.ctx
	p.mu.Unlock()

	if ctx.Err() != nil {
		p.mu.Lock()
		p.running = false
		p.mu.Unlock()
		return
	}

	err := p.syncer.SyncCart(ctx)

	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}

	var next time.Duration
	if err != nil {
		p.failures++
		next = p.backoff.Next(p.failures)
		p.logger.Warnf("cart poll failed (%d in a row), next attempt in %s: %v", p.failures, next, err)
	} else {
		p.failures = 0
		next = p.backoff.Jitter(p.interval)
	}

	p.scheduleLocked(next)
}
