package external

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateGate_FirstCallPassesImmediately(t *testing.T) {
	g := NewRateGate(1500 * time.Millisecond)

	var slept []time.Duration
	g.sleepFn = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}

	require.NoError(t, g.Wait(context.Background()))
	assert.Empty(t, slept)
}

func TestRateGate_SecondCallWaitsRemainder(t *testing.T) {
	g := NewRateGate(1500 * time.Millisecond)

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	g.nowFn = func() time.Time { return now }

	var slept []time.Duration
	g.sleepFn = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		now = now.Add(d)
		return nil
	}

	require.NoError(t, g.Wait(context.Background()))

	// 400ms elapse before the next call; the gate owes the other 1100ms.
	now = now.Add(400 * time.Millisecond)
	require.NoError(t, g.Wait(context.Background()))

	require.Len(t, slept, 1)
	assert.Equal(t, 1100*time.Millisecond, slept[0])
}

func TestRateGate_NoWaitWhenIntervalElapsed(t *testing.T) {
	g := NewRateGate(1500 * time.Millisecond)

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	g.nowFn = func() time.Time { return now }

	var slept []time.Duration
	g.sleepFn = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}

	require.NoError(t, g.Wait(context.Background()))
	now = now.Add(2 * time.Second)
	require.NoError(t, g.Wait(context.Background()))

	assert.Empty(t, slept)
}

func TestRateGate_CancelledContext(t *testing.T) {
	g := NewRateGate(time.Hour)

	require.NoError(t, g.Wait(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := g.Wait(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRateGate_DisabledInterval(t *testing.T) {
	g := NewRateGate(0)

	for i := 0; i < 3; i++ {
		require.NoError(t, g.Wait(context.Background()))
	}
}
