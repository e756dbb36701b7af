package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestTokenLimiter(t *testing.T) {
	l := NewTokenLimiterWithPeriod(3, time.Hour)
	ctx := context.Background()

	require.NoError(t, l.Wait(ctx, 2))
	assert.Equal(t, 1, l.GetRemaining())
	require.NoError(t, l.Wait(ctx, 1))
	assert.Equal(t, 0, l.GetRemaining())

	// budget exhausted for the hour: Wait gives up with the context
	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, l.Wait(ctx, 1), context.DeadlineExceeded)
}

func TestTokenLimiterRefill(t *testing.T) {
	l := NewTokenLimiterWithPeriod(1, 50*time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	require.NoError(t, l.Wait(ctx, 1))
	require.NoError(t, l.Wait(ctx, 1))
}

func TestTokenLimiterClampsRequest(t *testing.T) {
	l := NewTokenLimiterWithPeriod(2, time.Hour)
	// asking for more than capacity takes the whole budget instead of blocking forever
	require.NoError(t, l.Wait(context.Background(), 10))
	assert.Equal(t, 0, l.GetRemaining())
}

func TestLimiterStore(t *testing.T) {
	s := NewLimiterStore(rate.Limit(1), 1)

	a := s.GetLimiter("a")
	assert.Same(t, a, s.GetLimiter("a"))
	s.GetLimiter("b")
	assert.Equal(t, 2, s.Len())

	assert.Equal(t, 0, s.Evict(time.Hour))
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, 2, s.Evict(time.Millisecond))
	assert.Equal(t, 0, s.Len())
}
