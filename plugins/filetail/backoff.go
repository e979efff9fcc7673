package filetail

import (
	"context"
	"math/rand"
	"time"
)

// backoff doubles the delay between watch attempts up to ceiling.
type backoff struct {
	floor   time.Duration
	ceiling time.Duration
	delay   time.Duration
}

func newBackoff(floor, ceiling time.Duration) *backoff {
	return &backoff{floor: floor, ceiling: max(floor, ceiling), delay: floor}
}

// jittered spreads d by up to 20% either way.
func jittered(d time.Duration) time.Duration {
	spread := float64(d) / 5
	return d + time.Duration(spread*(2*rand.Float64()-1))
}

// wait sleeps for the current delay and grows it for the next attempt.
// It returns ctx.Err() if ctx ends first.
func (b *backoff) wait(ctx context.Context) error {
	timer := time.NewTimer(jittered(b.delay))
	defer timer.Stop()

	b.delay = min(2*b.delay, b.ceiling)

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *backoff) reset() { b.delay = b.floor }
