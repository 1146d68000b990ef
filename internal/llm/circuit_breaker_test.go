package llm_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tailored-ai/eve/internal/llm"
)

func TestCircuitBreakerPassesThroughWhenClosed(t *testing.T) {
	cb := llm.NewCircuitBreaker()

	result, err := cb.Execute(context.Background(), func() (interface{}, error) {
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, "closed", cb.State())
}

func TestCircuitBreakerOpensAfterMaxFailures(t *testing.T) {
	cb := llm.NewCircuitBreakerWithConfig(llm.CircuitBreakerConfig{
		MaxFailures:          2,
		Timeout:              time.Minute,
		HalfOpenMaxSuccesses: 1,
	})

	failing := func() (interface{}, error) { return nil, errors.New("backend down") }

	for i := 0; i < 2; i++ {
		_, err := cb.Execute(context.Background(), failing)
		require.Error(t, err)
	}

	assert.Equal(t, "open", cb.State())

	called := false
	_, err := cb.Execute(context.Background(), func() (interface{}, error) {
		called = true
		return "ok", nil
	})
	assert.ErrorIs(t, err, llm.ErrCircuitOpen)
	assert.False(t, called, "open circuit must not invoke the function")
}

func TestCircuitBreakerCancelledContext(t *testing.T) {
	cb := llm.NewCircuitBreaker()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := cb.Execute(ctx, func() (interface{}, error) {
		t.Fatal("function must not run with cancelled context")
		return nil, nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCircuitBreakerMetrics(t *testing.T) {
	cb := llm.NewCircuitBreaker()

	_, _ = cb.Execute(context.Background(), func() (interface{}, error) { return "ok", nil })
	_, _ = cb.Execute(context.Background(), func() (interface{}, error) { return nil, errors.New("fail") })

	m := cb.Metrics()
	assert.Equal(t, uint64(2), m.TotalRequests)
	assert.Equal(t, uint64(1), m.TotalSuccesses)
	assert.Equal(t, uint64(1), m.TotalFailures)
}
