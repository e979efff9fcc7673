package app

import (
	"context"
	"time"

	"github.com/bft-labs/cwship/internal/domain"
	"github.com/bft-labs/cwship/internal/ports"
)

// FinalFlushTimeout bounds the cycle run when the scheduler shuts down.
const FinalFlushTimeout = 20 * time.Second

// Trigger reasons passed to the cycle function.
const (
	ReasonTimer     = "timer"
	ReasonThreshold = "threshold"
	ReasonExplicit  = "explicit"
	ReasonShutdown  = "shutdown"
)

// CycleFunc runs one flush cycle and returns its delivery error.
type CycleFunc func(ctx context.Context, reason string) error

// Scheduler decides when flush cycles run. All cycles execute on the
// goroutine that calls Run, so at most one is in flight at any time.
// Threshold triggers that arrive while a cycle runs collapse into a single
// follow-up cycle.
type Scheduler struct {
	interval     time.Duration
	finalTimeout time.Duration
	cycle        CycleFunc
	logger       ports.Logger

	trigger  chan struct{}
	requests chan chan error
	stopped  chan struct{}
}

// NewScheduler creates a scheduler that runs cycle every interval.
func NewScheduler(interval time.Duration, cycle CycleFunc, logger ports.Logger) *Scheduler {
	return &Scheduler{
		interval:     interval,
		finalTimeout: FinalFlushTimeout,
		cycle:        cycle,
		logger:       logger,
		trigger:      make(chan struct{}, 1),
		requests:     make(chan chan error),
		stopped:      make(chan struct{}),
	}
}

// Trigger asks for a cycle as soon as possible. It never blocks.
func (s *Scheduler) Trigger() {
	select {
	case s.trigger <- struct{}{}:
	default:
		// A cycle is already pending.
	}
}

// Flush runs a cycle on the loop, waits for it and returns the cycle's
// error. Requests made before Run starts wait for the loop.
func (s *Scheduler) Flush(ctx context.Context) error {
	done := make(chan error, 1)

	select {
	case s.requests <- done:
	case <-s.stopped:
		return domain.ErrNotRunning
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done is closed after Run returns.
func (s *Scheduler) Done() <-chan struct{} {
	return s.stopped
}

// Run executes the flush loop until ctx is cancelled, then runs one final
// cycle bounded by FinalFlushTimeout.
func (s *Scheduler) Run(ctx context.Context) {
	defer close(s.stopped)

	timer := time.NewTimer(s.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.final()
			return

		case <-timer.C:
			s.logger.Debug("flush timer expired")
			_ = s.cycle(ctx, ReasonTimer)

		case <-s.trigger:
			timer.Stop()
			_ = s.cycle(ctx, ReasonThreshold)

		case done := <-s.requests:
			timer.Stop()
			done <- s.cycle(ctx, ReasonExplicit)
		}

		// Re-arm regardless of how the cycle went.
		timer.Reset(s.interval)
	}
}

func (s *Scheduler) final() {
	ctx, cancel := context.WithTimeout(context.Background(), s.finalTimeout)
	defer cancel()
	_ = s.cycle(ctx, ReasonShutdown)
}
