package app

import (
	"sync"

	"github.com/bft-labs/cwship/internal/domain"
)

// AppendResult describes a buffer after an append.
type AppendResult struct {
	// Added is the size estimate charged for the append
	Added int

	// QueuedBytes is the stream's estimate after the append
	QueuedBytes int

	// Pending is the stream's record count after the append
	Pending int

	// Flush is true when the stream crossed the flush threshold
	Flush bool
}

// BufferSet owns the pending records of every stream.
// All access goes through one mutex; Drain is the atomic read-and-clear
// the flush cycle relies on.
type BufferSet struct {
	mu            sync.Mutex
	buffers       map[string]*domain.StreamBuffer
	order         []string
	maxBatchBytes int
}

// NewBufferSet creates an empty set with the given batch size limit.
func NewBufferSet(maxBatchBytes int) *BufferSet {
	return &BufferSet{
		buffers:       make(map[string]*domain.StreamBuffer),
		maxBatchBytes: maxBatchBytes,
	}
}

// Append queues rec on stream, creating the buffer if needed.
func (s *BufferSet) Append(stream string, rec domain.Record) AppendResult {
	return s.AppendWith(stream, func() domain.Record { return rec })
}

// AppendWith queues the record built by build. build runs under the set's
// lock, so records stamped with the current time are queued in timestamp
// order.
func (s *BufferSet) AppendWith(stream string, build func() domain.Record) AppendResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := build()
	n := encodedLen(rec)

	buf := s.buffer(stream)
	added := buf.Append(rec, n)
	return AppendResult{
		Added:       added,
		QueuedBytes: buf.QueuedBytes(),
		Pending:     buf.Len(),
		Flush:       buf.OverThreshold(s.maxBatchBytes),
	}
}

// Drain empties every buffer and returns the non-empty batches in the
// order streams were first seen.
func (s *BufferSet) Drain() []domain.Batch {
	s.mu.Lock()
	defer s.mu.Unlock()

	var batches []domain.Batch
	for _, name := range s.order {
		buf := s.buffers[name]
		if buf.Len() == 0 {
			continue
		}
		batches = append(batches, buf.Drain())
	}
	return batches
}

// Restore puts b back at the front of its stream's buffer unless the
// buffer would then hold more than maxRecords. It reports whether the
// batch was kept.
func (s *BufferSet) Restore(b domain.Batch, maxRecords int) bool {
	if b.Empty() {
		return true
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	buf := s.buffer(b.Stream)
	if buf.Len()+b.Size() > maxRecords {
		return false
	}
	buf.Restore(b)
	return true
}

// Pending returns the number of records waiting across all streams.
func (s *BufferSet) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := 0
	for _, buf := range s.buffers {
		total += buf.Len()
	}
	return total
}

// AnyOverThreshold reports whether some stream is due for a flush.
func (s *BufferSet) AnyOverThreshold() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, buf := range s.buffers {
		if buf.OverThreshold(s.maxBatchBytes) {
			return true
		}
	}
	return false
}

// QueuedBytes returns the current estimate for stream.
func (s *BufferSet) QueuedBytes(stream string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if buf, ok := s.buffers[stream]; ok {
		return buf.QueuedBytes()
	}
	return 0
}

func (s *BufferSet) buffer(stream string) *domain.StreamBuffer {
	buf, ok := s.buffers[stream]
	if !ok {
		buf = domain.NewStreamBuffer(stream)
		s.buffers[stream] = buf
		s.order = append(s.order, stream)
	}
	return buf
}
