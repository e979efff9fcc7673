package app

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/bft-labs/cwship/internal/domain"
	"github.com/bft-labs/cwship/internal/ports"
)

// ShutdownTimeout is the maximum time Stop waits for workers, including
// the final flush cycle.
const ShutdownTimeout = 30 * time.Second

// State is a shipper lifecycle state.
type State int

const (
	StateStopped State = iota
	StateStarting
	StateRunning
	StateStopping
	StateCrashed
)

var stateNames = [...]string{
	StateStopped:  "Stopped",
	StateStarting: "Starting",
	StateRunning:  "Running",
	StateStopping: "Stopping",
	StateCrashed:  "Crashed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "Unknown"
	}
	return stateNames[s]
}

// active reports whether the shipper owns goroutines in this state.
func (s State) active() bool {
	return s == StateStarting || s == StateRunning || s == StateStopping
}

// transitions lists the states reachable from each state.
var transitions = map[State][]State{
	StateStopped:  {StateStarting},
	StateStarting: {StateRunning, StateStopping, StateCrashed},
	StateRunning:  {StateStopping, StateCrashed},
	StateStopping: {StateStopped, StateCrashed},
	StateCrashed:  {StateStarting},
}

// EventEmitter is told about every state change.
type EventEmitter interface {
	OnStateChange(previous, current State, reason string)
}

// Lifecycle is the Start/Stop state machine of a shipper plus the set of
// worker goroutines Stop waits for.
type Lifecycle struct {
	mu      sync.RWMutex
	state   State
	workers sync.WaitGroup
	busy    atomic.Int32
	logger  ports.Logger
	emitter EventEmitter
}

// NewLifecycle creates a lifecycle in StateStopped. emitter may be nil.
func NewLifecycle(logger ports.Logger, emitter EventEmitter) *Lifecycle {
	return &Lifecycle{
		state:   StateStopped,
		logger:  logger,
		emitter: emitter,
	}
}

// State returns the current state.
func (l *Lifecycle) State() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// TransitionTo moves to next. A move the state machine does not allow
// fails with ErrAlreadyRunning from an active state and ErrNotRunning
// otherwise. Starting is refused with ErrAlreadyRunning while workers of
// an earlier run are still alive.
func (l *Lifecycle) TransitionTo(next State, reason string) error {
	l.mu.Lock()
	prev := l.state
	if next == StateStarting && l.busy.Load() > 0 {
		l.mu.Unlock()
		return domain.ErrAlreadyRunning
	}
	if !allowed(prev, next) {
		l.mu.Unlock()
		if prev.active() {
			return domain.ErrAlreadyRunning
		}
		return domain.ErrNotRunning
	}
	l.state = next
	l.mu.Unlock()

	if l.emitter != nil {
		l.emitter.OnStateChange(prev, next, reason)
	}
	l.logger.Info("state transition",
		ports.String("from", prev.String()),
		ports.String("to", next.String()),
		ports.String("reason", reason),
	)
	return nil
}

func allowed(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// CanStart reports whether Start may be called.
func (l *Lifecycle) CanStart() bool {
	return l.busy.Load() == 0 && allowed(l.State(), StateStarting)
}

// CanStop reports whether Stop may be called.
func (l *Lifecycle) CanStop() bool {
	return allowed(l.State(), StateStopping)
}

// Go runs fn on a worker goroutine that Wait waits for.
func (l *Lifecycle) Go(fn func()) {
	l.workers.Add(1)
	l.busy.Add(1)
	go func() {
		defer l.workers.Done()
		defer l.busy.Add(-1)
		fn()
	}()
}

// Wait blocks until every worker has returned, or fails with
// ErrShutdownTimeout after timeout.
func (l *Lifecycle) Wait(timeout time.Duration) error {
	done := make(chan struct{})
	go func() {
		l.workers.Wait()
		close(done)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-done:
		return nil
	case <-timer.C:
		l.logger.Warn("shutdown timeout, forcing exit", ports.Duration("timeout", timeout))
		return domain.ErrShutdownTimeout
	}
}
