package throttle

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(interval time.Duration) (*Limiter, *[]time.Duration) {
	l := NewLimiter(interval)
	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	slept := make([]time.Duration, 0)

	l.now = func() time.Time { return clock }
	l.sleep = func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)
		clock = clock.Add(d)
		return nil
	}
	return l, &slept
}

func TestWait_FirstRequestImmediate(t *testing.T) {
	l, slept := newTestLimiter(2 * time.Second)

	require.NoError(t, l.Wait(context.Background(), "example.com"))
	assert.Empty(t, *slept)
}

func TestWait_SecondRequestDelayed(t *testing.T) {
	l, slept := newTestLimiter(2 * time.Second)

	require.NoError(t, l.Wait(context.Background(), "example.com"))
	require.NoError(t, l.Wait(context.Background(), "example.com"))

	require.Len(t, *slept, 1)
	assert.Equal(t, 2*time.Second, (*slept)[0])
}

func TestWait_HostsAreIndependent(t *testing.T) {
	l, slept := newTestLimiter(2 * time.Second)

	require.NoError(t, l.Wait(context.Background(), "a.example.com"))
	require.NoError(t, l.Wait(context.Background(), "b.example.com"))

	assert.Empty(t, *slept)
}

func TestWait_ZeroIntervalNeverBlocks(t *testing.T) {
	l := NewLimiter(0)
	for i := 0; i < 10; i++ {
		require.NoError(t, l.Wait(context.Background(), "example.com"))
	}
}

func TestWait_CancelledContext(t *testing.T) {
	l := NewLimiter(time.Minute)
	require.NoError(t, l.Wait(context.Background(), "example.com"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, l.Wait(ctx, "example.com"))
}
