package poller

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/DRSN-tech/cart-sync/internal/cfg"
	"github.com/DRSN-tech/cart-sync/pkg/clock"
	"github.com/DRSN-tech/cart-sync/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSyncer struct {
	mu    sync.Mutex
	calls int
	errs  []error
}

func (c *countingSyncer) SyncCart(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.calls++
	if len(c.errs) > 0 {
		err := c.errs[0]
		c.errs = c.errs[1:]
		return err
	}
	return nil
}

func (c *countingSyncer) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func newTestPoller(syncer Syncer) (*Poller, *clock.Fake) {
	clk := clock.NewFake(time.Unix(0, 0))
	p := NewPoller(syncer, &cfg.SyncCfg{
		PollInterval:   10 * time.Second,
		PollMaxBackoff: 40 * time.Second,
		PollJitter:     0,
	}, clk, logger.NewNopLogger())

	return p, clk
}

func TestPollerRunsEveryInterval(t *testing.T) {
	syncer := &countingSyncer{}
	p, clk := newTestPoller(syncer)

	p.Start(context.Background())
	defer p.Stop()

	clk.Advance(9 * time.Second)
	assert.Equal(t, 0, syncer.count())

	clk.Advance(time.Second)
	assert.Equal(t, 1, syncer.count())

	clk.Advance(20 * time.Second)
	assert.Equal(t, 3, syncer.count())
}

func TestPollerBacksOffAfterFailures(t *testing.T) {
	boom := errors.New("unavailable")
	syncer := &countingSyncer{errs: []error{boom, boom, boom}}
	p, clk := newTestPoller(syncer)

	p.Start(context.Background())
	defer p.Stop()

	clk.Advance(10 * time.Second) // 1-я попытка, ошибка, следующая через 20s
	require.Equal(t, 1, syncer.count())
	assert.Equal(t, 1, p.Failures())

	clk.Advance(19 * time.Second)
	assert.Equal(t, 1, syncer.count())
	clk.Advance(time.Second) // 2-я попытка, ошибка, следующая через 40s (потолок)
	assert.Equal(t, 2, syncer.count())

	clk.Advance(40 * time.Second) // 3-я попытка, ошибка, снова 40s
	assert.Equal(t, 3, syncer.count())
	assert.Equal(t, 3, p.Failures())

	clk.Advance(40 * time.Second) // успех, сброс на базовый интервал
	assert.Equal(t, 4, syncer.count())
	assert.Equal(t, 0, p.Failures())

	clk.Advance(10 * time.Second)
	assert.Equal(t, 5, syncer.count())
}

func TestPollerStop(t *testing.T) {
	syncer := &countingSyncer{}
	p, clk := newTestPoller(syncer)

	p.Start(context.Background())
	p.Start(context.Background())
	assert.Equal(t, 1, clk.Pending())

	p.Stop()
	p.Stop()
	assert.Equal(t, 0, clk.Pending())

	clk.Advance(time.Minute)
	assert.Equal(t, 0, syncer.count())
}

func TestPollerStopsOnCancelledContext(t *testing.T) {
	syncer := &countingSyncer{}
	p, clk := newTestPoller(syncer)

	ctx, cancel := context.WithCancel(context.Background())
	p.Start(ctx)
	cancel()

	clk.Advance(time.Minute)
	assert.Equal(t, 0, syncer.count())
	assert.Equal(t, 0, clk.Pending())

	p.Stop()
}
