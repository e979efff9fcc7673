package domain

import "time"

// Status is the operational snapshot written after each flush cycle.
type Status struct {
	// Cycles is the number of completed flush cycles
	Cycles uint64 `json:"cycles"`

	// LastCycleAt is when the most recent cycle finished
	LastCycleAt time.Time `json:"last_cycle_at"`

	// LastSuccessAt is when a cycle last finished without errors
	LastSuccessAt time.Time `json:"last_success_at"`

	// Streams holds per-stream counters keyed by stream name
	Streams map[string]StreamStatus `json:"streams"`
}

// StreamStatus holds delivery counters for one stream.
type StreamStatus struct {
	RecordsSent    uint64    `json:"records_sent"`
	RecordsDropped uint64    `json:"records_dropped"`
	RequestsSent   uint64    `json:"requests_sent"`
	TokenRetries   uint64    `json:"token_retries"`
	LastSentAt     time.Time `json:"last_sent_at,omitempty"`
	LastError      string    `json:"last_error,omitempty"`
	LastErrorAt    time.Time `json:"last_error_at,omitempty"`
}

// IsEmpty returns true if no cycle has been recorded.
func (s Status) IsEmpty() bool {
	return s.Cycles == 0
}

// Stream returns the counters for name, creating the map if needed.
func (s *Status) Stream(name string) StreamStatus {
	if s.Streams == nil {
		s.Streams = make(map[string]StreamStatus)
	}
	return s.Streams[name]
}

// SetStream stores the counters for name.
func (s *Status) SetStream(name string, st StreamStatus) {
	if s.Streams == nil {
		s.Streams = make(map[string]StreamStatus)
	}
	s.Streams[name] = st
}

// Totals sums the record and request counters over all streams.
func (s Status) Totals() StreamStatus {
	var t StreamStatus
	for _, st := range s.Streams {
		t.RecordsSent += st.RecordsSent
		t.RecordsDropped += st.RecordsDropped
		t.RequestsSent += st.RequestsSent
		t.TokenRetries += st.TokenRetries
	}
	return t
}
