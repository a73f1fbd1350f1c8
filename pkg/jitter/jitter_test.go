package jitter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestJitterStaysInRange(t *testing.T) {
	b := NewBackoff(time.Second, time.Minute, DefaultJitter, 42)

	for i := 0; i < 100; i++ {
		d := b.Jitter(10 * time.Second)
		assert.GreaterOrEqual(t, d, 10*time.Second)
		assert.LessOrEqual(t, d, 15*time.Second)
	}
}

func TestNextDoublesAndCaps(t *testing.T) {
	b := NewBackoff(time.Second, 5*time.Second, 0, 1)

	assert.Equal(t, time.Second, b.Next(0))
	assert.Equal(t, 2*time.Second, b.Next(1))
	assert.Equal(t, 4*time.Second, b.Next(2))
	assert.Equal(t, 5*time.Second, b.Next(3))
	assert.Equal(t, 5*time.Second, b.Next(30))
}

func TestZeroFactorIsDeterministic(t *testing.T) {
	b := NewBackoff(time.Second, time.Second, 0, 7)
	assert.Equal(t, 3*time.Second, b.Jitter(3*time.Second))
}
