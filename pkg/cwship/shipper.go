package cwship

import (
	"context"
	"fmt"
	"sync"

	"github.com/bft-labs/cwship/internal/app"
	"github.com/bft-labs/cwship/internal/domain"
	"github.com/bft-labs/cwship/internal/ports"
)

// Shipper buffers log records per stream and delivers them to a remote log
// store in batches. Use New() to create one, Start() to run the flush loop,
// Log() to queue records and Stop() to flush and shut down.
type Shipper struct {
	config    Config
	opts      options
	lifecycle *app.Lifecycle
	engine    *app.Shipper
	logger    ports.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
}

// New creates a Shipper in StateStopped. Configuration problems are never
// an error: cfg is sanitized. New fails only when no LogsClient is given.
func New(cfg Config, opts ...Option) (*Shipper, error) {
	cfg = cfg.Sanitize()

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	o.applyAWS()
	if o.client == nil {
		return nil, domain.ErrNoClient
	}

	emitter := &eventEmitter{handler: o.eventHandler}

	engine := app.NewShipper(cfg.engineConfig(), app.ShipperDeps{
		Client:   o.client,
		Resolver: o.resolver,
		Status:   o.statusRepository(cfg),
		Observer: emitter,
		Logger:   o.logger,
	})

	return &Shipper{
		config:    cfg,
		opts:      o,
		lifecycle: app.NewLifecycle(o.logger, emitter),
		engine:    engine,
		logger:    o.logger,
	}, nil
}

// Config returns the sanitized configuration in effect.
func (s *Shipper) Config() Config {
	return s.config
}

// Log formats msg and queues it on stream. It never fails and never waits
// for network I/O; crossing the flush threshold schedules a flush.
// Records logged while stopped are kept until the next Start.
func (s *Shipper) Log(stream string, msg any) {
	s.engine.Append(stream, msg)
}

// Start initializes plugins and runs the flush loop in the background.
// It returns ErrAlreadyRunning if the shipper is not stopped.
func (s *Shipper) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.lifecycle.CanStart() {
		return domain.ErrAlreadyRunning
	}
	if err := s.lifecycle.TransitionTo(app.StateStarting, "Start() called"); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	pluginCfg := PluginConfig{
		LogGroup: s.config.LogGroup,
		Logger:   s.logger,
		Sink:     s,
	}
	for i, p := range s.opts.plugins {
		if err := initializePlugin(runCtx, p, pluginCfg); err != nil {
			s.logger.Error("plugin initialization failed",
				ports.String("plugin", p.Name()),
				ports.Err(err))
			s.shutdownPlugins(s.opts.plugins[:i])
			cancel()
			_ = s.lifecycle.TransitionTo(app.StateCrashed, "plugin init failed: "+p.Name())
			return err
		}
		s.logger.Info("plugin initialized", ports.String("plugin", p.Name()))
	}

	// Claimed before Start returns so an immediate Flush reaches the loop.
	sched, err := s.engine.Prepare()
	if err != nil {
		s.logger.Error("flush loop still running", ports.Err(err))
		s.shutdownPlugins(s.opts.plugins)
		cancel()
		_ = s.lifecycle.TransitionTo(app.StateCrashed, "flush loop still running")
		return err
	}

	if err := s.lifecycle.TransitionTo(app.StateRunning, "flush loop starting"); err != nil {
		cancel()
		return err
	}

	s.lifecycle.Go(func() {
		s.engine.Serve(runCtx, sched)
	})

	s.logger.Info("shipper started",
		ports.LogGroup(s.config.LogGroup),
		ports.Int("flush_interval_seconds", s.config.FlushIntervalSeconds),
		ports.Int("max_batch_bytes", s.config.MaxBatchBytes),
		ports.String("format", s.config.Format),
		ports.String("failure_policy", s.config.FailurePolicy),
	)
	return nil
}

// Flush delivers everything queued so far and waits for the cycle to
// finish. Delivery failures come back joined, one per stream, and are also
// reported through OnDeliveryError. Under the isolate policy the failed
// records are queued again. Flush returns ErrNotRunning when the flush
// loop is not active.
func (s *Shipper) Flush(ctx context.Context) error {
	return s.engine.Flush(ctx)
}

// Stop shuts plugins down, runs a final flush and waits up to 30 seconds
// for it. It returns nil on graceful shutdown, ErrShutdownTimeout if forced.
func (s *Shipper) Stop() error {
	s.mu.Lock()

	if !s.lifecycle.CanStop() {
		s.mu.Unlock()
		return domain.ErrNotRunning
	}
	if err := s.lifecycle.TransitionTo(app.StateStopping, "Stop() called"); err != nil {
		s.mu.Unlock()
		return err
	}

	// Plugins go first so whatever they produced is part of the final flush.
	s.shutdownPlugins(s.opts.plugins)

	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()

	err := s.lifecycle.Wait(app.ShutdownTimeout)
	if err != nil {
		_ = s.lifecycle.TransitionTo(app.StateCrashed, "shutdown timeout")
		return err
	}
	_ = s.lifecycle.TransitionTo(app.StateStopped, "graceful shutdown")
	return nil
}

// Status returns the current lifecycle state.
func (s *Shipper) Status() State {
	return convertState(s.lifecycle.State())
}

// Delivery returns a snapshot of the per-stream delivery counters.
func (s *Shipper) Delivery() DeliveryStatus {
	return s.engine.Status()
}

// Pending returns the number of records waiting for delivery.
func (s *Shipper) Pending() int {
	return s.engine.Pending()
}

// Streams returns every stream logged to so far, in first-seen order.
func (s *Shipper) Streams() []string {
	return s.engine.Streams()
}

// InstanceID returns the identifier used in annotations, "unknown" until
// resolved.
func (s *Shipper) InstanceID() string {
	return s.engine.InstanceID()
}

func (s *Shipper) shutdownPlugins(plugins []Plugin) {
	ctx := context.Background()
	for i := len(plugins) - 1; i >= 0; i-- {
		p := plugins[i]
		if err := shutdownPlugin(ctx, p); err != nil {
			s.logger.Error("plugin shutdown failed",
				ports.String("plugin", p.Name()),
				ports.Err(err))
			continue
		}
		s.logger.Info("plugin shutdown complete", ports.String("plugin", p.Name()))
	}
}

// eventEmitter adapts EventHandler to the internal observer interfaces.
type eventEmitter struct {
	handler EventHandler
}

func (e *eventEmitter) OnStateChange(previous, current app.State, reason string) {
	if e.handler == nil {
		return
	}
	e.handler.OnStateChange(StateChangeEvent{
		Previous: convertState(previous),
		Current:  convertState(current),
		Reason:   reason,
	})
}

func (e *eventEmitter) OnCycle(report app.CycleReport) {
	if e.handler == nil {
		return
	}
	for _, sr := range report.Streams {
		if sr.Err == nil && !sr.Skipped {
			continue
		}
		err := sr.Err
		if err == nil {
			err = fmt.Errorf("stream %q: %w", sr.Stream, domain.ErrCycleAborted)
		}
		e.handler.OnDeliveryError(DeliveryErrorEvent{
			Stream:    sr.Stream,
			Error:     err,
			Records:   sr.Records,
			Delivered: sr.Delivered,
			Restored:  sr.Restored,
			Dropped:   sr.Dropped,
			Skipped:   sr.Skipped,
		})
	}
	e.handler.OnFlush(FlushEvent{
		Reason:    report.Reason,
		Streams:   len(report.Streams),
		Delivered: report.Delivered(),
		Dropped:   report.Dropped(),
		Failed:    report.Failed(),
		Duration:  report.Duration(),
	})
}

func convertState(s app.State) State {
	switch s {
	case app.StateStopped:
		return StateStopped
	case app.StateStarting:
		return StateStarting
	case app.StateRunning:
		return StateRunning
	case app.StateStopping:
		return StateStopping
	case app.StateCrashed:
		return StateCrashed
	default:
		return StateStopped
	}
}
