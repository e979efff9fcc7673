package app

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bft-labs/cwship/internal/domain"
	"github.com/bft-labs/cwship/internal/ports"
)

// ShipperConfig holds the sanitized settings the engine runs with.
type ShipperConfig struct {
	// LogGroup is the remote group every stream belongs to
	LogGroup string

	// FlushInterval is the timer period between cycles
	FlushInterval time.Duration

	// MaxBatchBytes is the size limit the flush threshold is derived from
	MaxBatchBytes int

	// Formatter configures record bodies
	Formatter FormatterConfig

	// Policy decides how delivery failures are handled
	Policy FailurePolicy

	// MaxRestoreRecords caps a stream buffer after restoring a failed batch
	MaxRestoreRecords int

	// Debug enables per-append and per-step debug events
	Debug bool
}

// CycleObserver is notified after every flush cycle that had work.
type CycleObserver interface {
	OnCycle(report CycleReport)
}

// ShipperDeps are the collaborators of a Shipper. Only Client is required.
type ShipperDeps struct {
	Client   ports.LogsClient
	Resolver ports.IdentityResolver
	Status   ports.StatusRepository
	Observer CycleObserver
	Logger   ports.Logger
}

// Shipper ties buffering, formatting, scheduling and delivery together.
type Shipper struct {
	cfg ShipperConfig

	buffers   *BufferSet
	registry  *Registry
	identity  *Identity
	formatter *Formatter
	engine    *DeliveryEngine
	scheduler atomic.Pointer[Scheduler]

	resolver   ports.IdentityResolver
	statusRepo ports.StatusRepository
	observer   CycleObserver
	logger     ports.Logger

	statusMu sync.Mutex
	status   domain.Status
}

// NewShipper wires a shipper. cfg must already be sanitized.
func NewShipper(cfg ShipperConfig, deps ShipperDeps) *Shipper {
	if cfg.MaxRestoreRecords <= 0 {
		cfg.MaxRestoreRecords = domain.MaxPutRecords
	}

	s := &Shipper{
		cfg:        cfg,
		buffers:    NewBufferSet(cfg.MaxBatchBytes),
		registry:   NewRegistry(),
		identity:   NewIdentity(),
		resolver:   deps.Resolver,
		statusRepo: deps.Status,
		observer:   deps.Observer,
		logger:     deps.Logger,
	}
	s.formatter = NewFormatter(cfg.Formatter, s.identity)
	s.engine = NewDeliveryEngine(deps.Client, s.registry, cfg.LogGroup, cfg.Policy, deps.Logger)
	return s
}

// Append formats msg and queues it on stream. It never blocks on I/O.
// Crossing the flush threshold schedules a cycle on the flush loop.
func (s *Shipper) Append(stream string, msg any) {
	if s.registry.Touch(stream) && s.cfg.Debug {
		s.logger.Debug("adding new local log stream", ports.Stream(stream))
	}

	res := s.buffers.AppendWith(stream, func() domain.Record {
		return s.formatter.Format(msg)
	})

	if s.cfg.Debug {
		s.logger.Debug("queued log record",
			ports.Stream(stream),
			ports.Int("pending", res.Pending),
			ports.Int("queued_bytes", res.QueuedBytes),
		)
	}

	if res.Flush {
		if s.cfg.Debug {
			s.logger.Debug("stream queue over threshold",
				ports.Stream(stream),
				ports.Int("queued_bytes", res.QueuedBytes),
				ports.Int("max_batch_bytes", s.cfg.MaxBatchBytes),
			)
		}
		// Without a running loop the records wait for the next Run.
		if sched := s.scheduler.Load(); sched != nil {
			sched.Trigger()
		}
	}
}

// Prepare claims the flush loop and returns its scheduler. Flush and
// threshold triggers reach the scheduler from this point on, even before
// Serve starts it. Prepare fails with domain.ErrAlreadyRunning while an
// earlier loop has not returned, including one stuck in its final cycle.
func (s *Shipper) Prepare() (*Scheduler, error) {
	sched := NewScheduler(s.cfg.FlushInterval, s.runCycle, s.logger)
	if !s.scheduler.CompareAndSwap(nil, sched) {
		return nil, domain.ErrAlreadyRunning
	}
	return sched, nil
}

// Serve loads the previous status, starts identity resolution when
// requested and runs sched until ctx is cancelled. A final cycle runs
// before Serve returns, after which Prepare may be called again;
// buffered records and stream state carry over.
func (s *Shipper) Serve(ctx context.Context, sched *Scheduler) {
	defer s.scheduler.CompareAndSwap(sched, nil)

	s.loadStatus(ctx)

	if s.cfg.Formatter.AddInstanceID && s.resolver != nil {
		s.identity.Resolve(ctx, s.resolver, s.logger)
	}

	// Records queued while stopped may already be over the threshold.
	if s.overThreshold() {
		sched.Trigger()
	}
	sched.Run(ctx)
}

// Run is Prepare followed by Serve.
func (s *Shipper) Run(ctx context.Context) error {
	sched, err := s.Prepare()
	if err != nil {
		return err
	}
	s.Serve(ctx, sched)
	return nil
}

// Flush runs a cycle now and waits for it. The error joins every stream
// delivery failure of that cycle; it is domain.ErrNotRunning when no flush
// loop is active.
func (s *Shipper) Flush(ctx context.Context) error {
	sched := s.scheduler.Load()
	if sched == nil {
		return domain.ErrNotRunning
	}
	return sched.Flush(ctx)
}

// Running reports whether a flush loop is active.
func (s *Shipper) Running() bool {
	return s.scheduler.Load() != nil
}

func (s *Shipper) overThreshold() bool {
	return s.buffers.AnyOverThreshold()
}

// Pending returns the number of records waiting for delivery.
func (s *Shipper) Pending() int {
	return s.buffers.Pending()
}

// Streams returns every stream referenced so far, in first-seen order.
func (s *Shipper) Streams() []string {
	return s.registry.Names()
}

// InstanceID returns the identity used in annotations.
func (s *Shipper) InstanceID() string {
	return s.identity.Get()
}

// Status returns a copy of the delivery status.
func (s *Shipper) Status() domain.Status {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	return cloneStatus(s.status)
}

func cloneStatus(st domain.Status) domain.Status {
	out := st
	out.Streams = make(map[string]domain.StreamStatus, len(st.Streams))
	for k, v := range st.Streams {
		out.Streams[k] = v
	}
	return out
}

// runCycle is the body of one flush cycle: drain, deliver, apply the
// failure policy, then record the outcome.
func (s *Shipper) runCycle(ctx context.Context, reason string) error {
	if s.cfg.Debug {
		s.logger.Debug("put logs called", ports.String("reason", reason))
	}

	batches := s.buffers.Drain()
	if len(batches) == 0 {
		return nil
	}

	report := s.engine.Deliver(ctx, batches)
	report.Reason = reason
	s.settle(&report)
	s.record(ctx, report)

	if s.observer != nil {
		s.observer.OnCycle(report)
	}

	fields := []ports.Field{
		ports.String("reason", reason),
		ports.Int("streams", len(report.Streams)),
		ports.Int("delivered", report.Delivered()),
		ports.Duration("duration", report.Duration()),
	}
	if report.Failed() {
		fields = append(fields, ports.Int("dropped", report.Dropped()), ports.Bool("aborted", report.Aborted))
		s.logger.Warn("flush cycle finished with errors", fields...)
		return report.Err()
	}
	s.logger.Info("flush cycle finished", fields...)
	return nil
}

// settle restores or drops undelivered records according to the policy.
func (s *Shipper) settle(report *CycleReport) {
	for i := range report.Streams {
		sr := &report.Streams[i]
		if sr.Undelivered.Empty() {
			continue
		}

		if s.engine.Policy() == PolicyIsolate && s.buffers.Restore(sr.Undelivered, s.cfg.MaxRestoreRecords) {
			sr.Restored = sr.Undelivered.Size()
			continue
		}

		sr.Dropped = sr.Undelivered.Size()
		s.logger.Error("dropped undelivered records",
			ports.Stream(sr.Stream),
			ports.Int("records", sr.Dropped),
		)
	}
}

// record folds report into the status and persists it.
func (s *Shipper) record(ctx context.Context, report CycleReport) {
	s.statusMu.Lock()
	s.status.Cycles++
	s.status.LastCycleAt = report.Finished
	if !report.Failed() {
		s.status.LastSuccessAt = report.Finished
	}
	for _, sr := range report.Streams {
		st := s.status.Stream(sr.Stream)
		st.RecordsSent += uint64(sr.Delivered)
		st.RecordsDropped += uint64(sr.Dropped)
		st.RequestsSent += uint64(sr.Requests)
		st.TokenRetries += uint64(sr.Retries)
		if sr.Delivered > 0 {
			st.LastSentAt = report.Finished
		}
		if sr.Err != nil {
			st.LastError = sr.Err.Error()
			st.LastErrorAt = report.Finished
		}
		s.status.SetStream(sr.Stream, st)
	}
	snapshot := cloneStatus(s.status)
	s.statusMu.Unlock()

	if s.statusRepo == nil {
		return
	}
	if err := s.statusRepo.Save(ctx, snapshot); err != nil {
		s.logger.Warn("failed to save status", ports.Err(err))
	}
}

func (s *Shipper) loadStatus(ctx context.Context) {
	if s.statusRepo == nil {
		return
	}
	s.statusMu.Lock()
	fresh := s.status.IsEmpty()
	s.statusMu.Unlock()
	if !fresh {
		return
	}

	st, err := s.statusRepo.Load(ctx)
	if err != nil {
		s.logger.Warn("failed to load status, starting fresh", ports.Err(err))
		return
	}

	s.statusMu.Lock()
	s.status = st
	s.statusMu.Unlock()

	if !st.IsEmpty() {
		s.logger.Info("loaded status",
			ports.Uint64("cycles", st.Cycles),
			ports.Int("streams", len(st.Streams)),
		)
	}
}
