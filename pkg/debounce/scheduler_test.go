package debounce

import (
	"testing"
	"time"

	"github.com/DRSN-tech/cart-sync/pkg/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const window = 600 * time.Millisecond

func newTestScheduler() (*Scheduler, *clock.Fake) {
	c := clock.NewFake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	return NewScheduler(c), c
}

func TestArmFiresAfterDelay(t *testing.T) {
	s, c := newTestScheduler()

	fired := 0
	s.Arm("p1", window, func() { fired++ })

	c.Advance(window - time.Millisecond)
	assert.Equal(t, 0, fired)
	assert.True(t, s.Active("p1"))

	c.Advance(time.Millisecond)
	assert.Equal(t, 1, fired)
	assert.False(t, s.Active("p1"))
	assert.Equal(t, 0, s.Len())
}

func TestRearmKeepsOnlyLastAction(t *testing.T) {
	s, c := newTestScheduler()

	var got []int
	assert.False(t, s.Arm("p1", window, func() { got = append(got, 5) }))

	c.Advance(400 * time.Millisecond)
	assert.True(t, s.Arm("p1", window, func() { got = append(got, 3) }))

	// первый срок прошёл бы здесь, но задача была заменена
	c.Advance(400 * time.Millisecond)
	assert.Empty(t, got)

	c.Advance(200 * time.Millisecond)
	assert.Equal(t, []int{3}, got)
	assert.Equal(t, 0, c.Pending())
}

func TestKeysAreIndependent(t *testing.T) {
	s, c := newTestScheduler()

	var fired []string
	s.Arm("p2", window, func() { fired = append(fired, "p2") })
	s.Arm("p1", 2*window, func() { fired = append(fired, "p1") })

	assert.Equal(t, []string{"p1", "p2"}, s.Keys())

	c.Advance(window)
	assert.Equal(t, []string{"p2"}, fired)
	assert.Equal(t, []string{"p1"}, s.Keys())

	c.Advance(window)
	assert.Equal(t, []string{"p2", "p1"}, fired)
}

func TestCancel(t *testing.T) {
	s, c := newTestScheduler()

	fired := false
	s.Arm("p1", window, func() { fired = true })

	require.True(t, s.Cancel("p1"))
	assert.False(t, s.Cancel("p1"))

	c.Advance(window * 2)
	assert.False(t, fired)
}

func TestCancelAll(t *testing.T) {
	s, c := newTestScheduler()

	fired := 0
	for _, key := range []string{"a", "b", "c"} {
		s.Arm(key, window, func() { fired++ })
	}

	assert.Equal(t, 3, s.CancelAll())
	c.Advance(window)

	assert.Equal(t, 0, fired)
	assert.Empty(t, s.Keys())
}

func TestActionMayRearmSameKey(t *testing.T) {
	s, c := newTestScheduler()

	runs := 0
	var action func()
	action = func() {
		runs++
		if runs < 3 {
			s.Arm("p1", window, action)
		}
	}
	s.Arm("p1", window, action)

	c.Advance(5 * window)
	assert.Equal(t, 3, runs)
	assert.False(t, s.Active("p1"))
}

func TestRealClockFires(t *testing.T) {
	s := NewScheduler(clock.NewReal())

	done := make(chan struct{})
	s.Arm("p1", 10*time.Millisecond, func() { close(done) })

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("action did not fire")
	}
}
