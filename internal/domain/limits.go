package domain

// Provider limits for a single append request, and the margins the buffer
// keeps below them so the size heuristic never overshoots.
const (
	// MaxPutBytes is the hard per-request payload cap of the log service.
	MaxPutBytes = 1048576

	// MaxPutRecords is the hard per-request event count cap.
	MaxPutRecords = 10000

	// RecordOverhead is the framing cost charged per event.
	RecordOverhead = 26

	// ThresholdMargin is subtracted from the configured batch size to get
	// the flush threshold.
	ThresholdMargin = 1000

	// ThresholdRecords triggers a flush once a buffer holds more records.
	ThresholdRecords = 9000
)
