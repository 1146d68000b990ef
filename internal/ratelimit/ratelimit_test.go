package ratelimit_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/tailored-ai/eve/internal/ratelimit"
)

func TestAllowWithinBurst(t *testing.T) {
	l := ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: 60, Burst: 3, TTL: time.Minute})
	defer l.Close()

	assert.True(t, l.Allow("u1"))
	assert.True(t, l.Allow("u1"))
	assert.True(t, l.Allow("u1"))
	assert.False(t, l.Allow("u1"))
}

func TestKeysAreIndependent(t *testing.T) {
	l := ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: 60, Burst: 1, TTL: time.Minute})
	defer l.Close()

	assert.True(t, l.Allow("u1"))
	assert.False(t, l.Allow("u1"))
	assert.True(t, l.Allow("u2"))
}

func TestIdleKeysEvicted(t *testing.T) {
	l := ratelimit.NewLimiter(ratelimit.Config{
		RequestsPerMinute: 60,
		Burst:             1,
		TTL:               20 * time.Millisecond,
		SweepInterval:     10 * time.Millisecond,
	})
	defer l.Close()

	l.Allow("u1")
	assert.Equal(t, 1, l.Keys())

	assert.Eventually(t, func() bool { return l.Keys() == 0 }, time.Second, 10*time.Millisecond)
}

func TestDefaults(t *testing.T) {
	l := ratelimit.NewLimiter(ratelimit.Config{})
	defer l.Close()

	// The default burst admits at least one request.
	assert.True(t, l.Allow("u1"))
}
