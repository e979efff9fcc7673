package domain

import "time"

// Record is a single log event queued for a stream.
// Message already carries any timestamp or identity annotation.
type Record struct {
	// Timestamp is the wall-clock time in unix milliseconds
	Timestamp int64 `json:"timestamp"`

	// Message is the formatted event body
	Message string `json:"message"`
}

// NewRecord creates a record stamped with the given time.
func NewRecord(at time.Time, message string) Record {
	return Record{Timestamp: at.UnixMilli(), Message: message}
}

// Time returns the record timestamp as a time.Time.
func (r Record) Time() time.Time {
	return time.UnixMilli(r.Timestamp)
}
