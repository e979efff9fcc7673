package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bft-labs/cwship/internal/domain"
	"github.com/bft-labs/cwship/internal/ports"
)

// FailurePolicy decides what a delivery failure on one stream does to the
// rest of the cycle.
type FailurePolicy string

const (
	// PolicyIsolate keeps going with the remaining streams and restores the
	// failed stream's undelivered records to its buffer.
	PolicyIsolate FailurePolicy = "isolate"

	// PolicyAbort ends the cycle at the first failure and drops the failed
	// and not yet attempted batches.
	PolicyAbort FailurePolicy = "abort"
)

// ParseFailurePolicy returns the policy named s, or PolicyIsolate when s is
// not a known policy.
func ParseFailurePolicy(s string) FailurePolicy {
	switch FailurePolicy(strings.ToLower(strings.TrimSpace(s))) {
	case PolicyAbort:
		return PolicyAbort
	default:
		return PolicyIsolate
	}
}

// StreamReport is the delivery outcome for one stream in a cycle.
type StreamReport struct {
	// Stream is the stream name
	Stream string

	// Records is the number of records drained for the stream
	Records int

	// Delivered is the number of records the service accepted
	Delivered int

	// Requests is the number of append requests sent
	Requests int

	// Retries is the number of stale-token retries
	Retries int

	// Created is true when the stream was created during this cycle
	Created bool

	// Skipped is true when the stream was never attempted because an
	// earlier stream aborted the cycle
	Skipped bool

	// Err is the first error met, nil on success
	Err error

	// Undelivered holds the records that were not accepted
	Undelivered domain.Batch

	// Restored is the number of undelivered records put back in the buffer
	Restored int

	// Dropped is the number of undelivered records discarded
	Dropped int
}

// CycleReport aggregates the stream reports of one flush cycle.
type CycleReport struct {
	Reason   string
	Streams  []StreamReport
	Aborted  bool
	Started  time.Time
	Finished time.Time
}

// Failed returns true if any stream failed or was skipped.
func (r CycleReport) Failed() bool {
	for _, s := range r.Streams {
		if s.Err != nil || s.Skipped {
			return true
		}
	}
	return false
}

// Err joins the errors of every failed or skipped stream. It is nil when
// the cycle fully succeeded.
func (r CycleReport) Err() error {
	var errs []error
	for _, s := range r.Streams {
		switch {
		case s.Err != nil:
			errs = append(errs, s.Err)
		case s.Skipped:
			errs = append(errs, fmt.Errorf("stream %q: %w", s.Stream, domain.ErrCycleAborted))
		}
	}
	return errors.Join(errs...)
}

// Delivered returns the number of records accepted across all streams.
func (r CycleReport) Delivered() int {
	total := 0
	for _, s := range r.Streams {
		total += s.Delivered
	}
	return total
}

// Dropped returns the number of records discarded across all streams.
func (r CycleReport) Dropped() int {
	total := 0
	for _, s := range r.Streams {
		total += s.Dropped
	}
	return total
}

// Duration returns how long the cycle took.
func (r CycleReport) Duration() time.Duration {
	return r.Finished.Sub(r.Started)
}

// DeliveryEngine sends drained batches to the remote store, one stream at
// a time, keeping the registry's existence flags and tokens current.
type DeliveryEngine struct {
	client   ports.LogsClient
	registry *Registry
	logGroup string
	policy   FailurePolicy
	logger   ports.Logger
	now      func() time.Time
}

// NewDeliveryEngine creates a delivery engine for logGroup.
func NewDeliveryEngine(client ports.LogsClient, registry *Registry, logGroup string, policy FailurePolicy, logger ports.Logger) *DeliveryEngine {
	return &DeliveryEngine{
		client:   client,
		registry: registry,
		logGroup: logGroup,
		policy:   policy,
		logger:   logger,
		now:      time.Now,
	}
}

// Policy returns the failure policy in effect.
func (e *DeliveryEngine) Policy() FailurePolicy {
	return e.policy
}

// Deliver sends batches in order. Empty batches are skipped.
func (e *DeliveryEngine) Deliver(ctx context.Context, batches []domain.Batch) CycleReport {
	report := CycleReport{Started: e.now()}

	for _, b := range batches {
		if b.Empty() {
			continue
		}

		if report.Aborted {
			report.Streams = append(report.Streams, StreamReport{
				Stream:      b.Stream,
				Records:     b.Size(),
				Skipped:     true,
				Undelivered: b,
			})
			continue
		}

		sr := e.deliverStream(ctx, b)
		report.Streams = append(report.Streams, sr)

		if sr.Err != nil && e.policy == PolicyAbort {
			report.Aborted = true
		}
	}

	report.Finished = e.now()
	return report
}

func (e *DeliveryEngine) deliverStream(ctx context.Context, b domain.Batch) StreamReport {
	sr := StreamReport{Stream: b.Stream, Records: b.Size()}

	if !e.registry.Get(b.Stream).Known {
		created, err := e.ensureStream(ctx, b.Stream)
		if err != nil {
			sr.Err = fmt.Errorf("stream %q: ensure exists: %w", b.Stream, err)
			sr.Undelivered = b
			e.logger.Error("stream existence check failed",
				ports.Stream(b.Stream),
				ports.Err(err),
			)
			return sr
		}
		sr.Created = created
	}
	e.logger.Debug("log stream exists", ports.Stream(b.Stream))

	for _, chunk := range b.Chunks(domain.MaxPutRecords, domain.MaxPutBytes) {
		requests, retried, err := e.put(ctx, chunk)
		sr.Requests += requests
		if retried {
			sr.Retries++
		}
		if err != nil {
			sr.Err = fmt.Errorf("stream %q: put records: %w", b.Stream, err)
			sr.Undelivered = b.Tail(sr.Delivered)
			e.logger.Error("put records failed",
				ports.Stream(b.Stream),
				ports.Int("records", chunk.Size()),
				ports.Err(err),
			)
			return sr
		}
		sr.Delivered += chunk.Size()
	}

	e.logger.Debug("put records succeeded",
		ports.Stream(b.Stream),
		ports.Int("records", sr.Delivered),
		ports.Int("requests", sr.Requests),
	)
	return sr
}

// ensureStream makes sure the stream exists remotely and marks it known.
// It reports whether this call created it.
func (e *DeliveryEngine) ensureStream(ctx context.Context, stream string) (bool, error) {
	info, err := e.client.FindStream(ctx, e.logGroup, stream)
	if err != nil {
		return false, fmt.Errorf("find stream: %w", err)
	}
	if info != nil {
		e.registry.MarkKnown(stream)
		e.registry.SetToken(stream, info.UploadSequenceToken)
		return false, nil
	}

	err = e.client.CreateStream(ctx, e.logGroup, stream)
	switch {
	case err == nil:
		e.logger.Info("created log stream",
			ports.LogGroup(e.logGroup),
			ports.Stream(stream),
		)
		e.registry.MarkKnown(stream)
		return true, nil
	case errors.Is(err, domain.ErrStreamAlreadyExists):
		// Lost a race with another writer.
		e.registry.MarkKnown(stream)
		return false, nil
	default:
		return false, fmt.Errorf("create stream: %w", err)
	}
}

// putOutcome classifies the answer to one append request.
type putOutcome int

const (
	putOK putOutcome = iota
	putStaleToken
	putAlreadyAccepted
	putFailed
)

// classify maps err onto an outcome and, for token errors, the token the
// service expects next.
func classify(err error) (putOutcome, *string, bool) {
	if err == nil {
		return putOK, nil, false
	}
	var tokErr *domain.SequenceTokenError
	if !errors.As(err, &tokErr) {
		return putFailed, nil, false
	}
	token, ok := tokErr.CorrectedToken()
	if tokErr.AlreadyAccepted {
		return putAlreadyAccepted, token, ok
	}
	return putStaleToken, token, ok
}

// put appends one chunk, retrying exactly once with the corrected token
// when the stored token was stale. It returns the number of requests sent
// and whether a retry happened.
func (e *DeliveryEngine) put(ctx context.Context, chunk domain.Batch) (int, bool, error) {
	stream := chunk.Stream
	token := e.registry.Get(stream).SequenceToken

	next, err := e.client.PutBatch(ctx, e.logGroup, stream, chunk.Records, token)
	outcome, expected, haveExpected := classify(err)

	switch outcome {
	case putOK:
		e.registry.SetToken(stream, next)
		return 1, false, nil

	case putAlreadyAccepted:
		if haveExpected {
			e.registry.SetToken(stream, expected)
		}
		e.logger.Warn("batch already accepted",
			ports.Stream(stream),
			ports.Err(err),
		)
		return 1, false, nil

	case putStaleToken:
		if !haveExpected {
			return 1, false, err
		}
		e.logger.Debug("stale sequence token, retrying",
			ports.Stream(stream),
			ports.Err(err),
		)
		next, retryErr := e.client.PutBatch(ctx, e.logGroup, stream, chunk.Records, expected)
		retryOutcome, retryExpected, retryHave := classify(retryErr)
		switch retryOutcome {
		case putOK:
			e.registry.SetToken(stream, next)
			return 2, true, nil
		case putAlreadyAccepted:
			if retryHave {
				e.registry.SetToken(stream, retryExpected)
			}
			return 2, true, nil
		case putStaleToken:
			// Remember the latest expectation so the next cycle starts from it.
			if retryHave {
				e.registry.SetToken(stream, retryExpected)
			}
		}
		return 2, true, retryErr

	default:
		return 1, false, err
	}
}
