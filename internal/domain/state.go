package domain

// StreamState is the per-stream registry entry kept for the process lifetime.
type StreamState struct {
	// Name is the stream name
	Name string

	// Known is true once existence on the remote service has been confirmed
	Known bool

	// SequenceToken is the token for the next append; nil is valid for a
	// stream that has never been written
	SequenceToken *string
}

// Token returns the sequence token or "" when absent.
func (s StreamState) Token() string {
	if s.SequenceToken == nil {
		return ""
	}
	return *s.SequenceToken
}
