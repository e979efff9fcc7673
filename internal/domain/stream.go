package domain

// StreamBuffer is the ordered queue of pending records for one stream plus
// the running size estimate used for the flush threshold.
//
// QueuedBytes is a deliberately conservative heuristic, not a byte count.
// Every append charges RecordOverhead plus twice the serialized length of
// the whole pending sequence. It is reset to zero exactly when the records
// are drained.
type StreamBuffer struct {
	name         string
	records      []Record
	encodedSizes []int
	encodedSum   int
	queuedBytes  int
}

// NewStreamBuffer creates an empty buffer for the named stream.
func NewStreamBuffer(name string) *StreamBuffer {
	return &StreamBuffer{name: name}
}

// Name returns the stream name.
func (s *StreamBuffer) Name() string {
	return s.name
}

// Len returns the number of pending records.
func (s *StreamBuffer) Len() int {
	return len(s.records)
}

// QueuedBytes returns the size estimate accumulated since the last drain.
func (s *StreamBuffer) QueuedBytes() int {
	return s.queuedBytes
}

// Append queues rec, whose standalone JSON encoding is encodedLen bytes long,
// and returns the amount added to QueuedBytes.
func (s *StreamBuffer) Append(rec Record, encodedLen int) int {
	s.records = append(s.records, rec)
	s.encodedSizes = append(s.encodedSizes, encodedLen)
	s.encodedSum += encodedLen

	added := RecordOverhead + 2*s.serializedLen()
	s.queuedBytes += added
	return added
}

// serializedLen is the length of the pending records encoded as one JSON
// array: brackets, each element, and a comma between elements.
func (s *StreamBuffer) serializedLen() int {
	n := len(s.records)
	if n == 0 {
		return 2
	}
	return 2 + s.encodedSum + n - 1
}

// OverThreshold reports whether the buffer must be flushed for a batch
// size limit of maxBatchBytes.
func (s *StreamBuffer) OverThreshold(maxBatchBytes int) bool {
	return s.queuedBytes >= maxBatchBytes-ThresholdMargin || len(s.records) > ThresholdRecords
}

// Drain swaps the pending records out for an empty queue, zeroes the size
// estimate, and returns what was pending.
func (s *StreamBuffer) Drain() Batch {
	b := Batch{
		Stream:       s.name,
		Records:      s.records,
		EncodedSizes: s.encodedSizes,
	}
	s.records = nil
	s.encodedSizes = nil
	s.encodedSum = 0
	s.queuedBytes = 0
	return b
}

// Restore puts an undelivered batch back in front of the records queued
// since it was drained. QueuedBytes is left untouched so a restore alone
// never re-triggers the byte threshold.
func (s *StreamBuffer) Restore(b Batch) {
	if b.Empty() {
		return
	}
	sizes := b.EncodedSizes
	if len(sizes) != len(b.Records) {
		sizes = make([]int, len(b.Records))
		for i, r := range b.Records {
			sizes[i] = len(r.Message) + RecordOverhead
		}
	}

	records := make([]Record, 0, len(b.Records)+len(s.records))
	records = append(records, b.Records...)
	records = append(records, s.records...)

	encoded := make([]int, 0, len(sizes)+len(s.encodedSizes))
	encoded = append(encoded, sizes...)
	encoded = append(encoded, s.encodedSizes...)

	for _, n := range sizes {
		s.encodedSum += n
	}
	s.records = records
	s.encodedSizes = encoded
}
