package external

import (
	"context"
	"sync"
	"time"
)

// RateGate enforces a minimum spacing between calls to a provider. One gate
// instance is shared by every client of that provider, so concurrent request
// handlers and the background scheduler all queue through the same spacing.
//
// Wait holds the gate's lock for the duration of the sleep, which serializes
// waiters: each caller observes the full interval since the previous caller
// was released, regardless of arrival order.
type RateGate struct {
	mu       sync.Mutex
	interval time.Duration
	last     time.Time

	nowFn   func() time.Time
	sleepFn func(ctx context.Context, d time.Duration) error
}

// NewRateGate creates a gate with the given minimum interval between calls.
// A non-positive interval disables the gate.
func NewRateGate(interval time.Duration) *RateGate {
	return &RateGate{
		interval: interval,
		nowFn:    time.Now,
		sleepFn:  sleepContext,
	}
}

// Wait blocks until at least the gate's interval has elapsed since the
// previous caller was released. It returns early with the context's error if
// ctx is cancelled while waiting.
func (g *RateGate) Wait(ctx context.Context) error {
	if g == nil || g.interval <= 0 {
		return ctx.Err()
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.last.IsZero() {
		if wait := g.interval - g.nowFn().Sub(g.last); wait > 0 {
			if err := g.sleepFn(ctx, wait); err != nil {
				return err
			}
		}
	}
	g.last = g.nowFn()
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
