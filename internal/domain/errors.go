package domain

import "errors"

// Domain errors represent error conditions in the cwship domain.
// These errors are returned by the public API and can be checked with errors.Is.
var (
	// ErrAlreadyRunning is returned when Start() is called on a running instance.
	ErrAlreadyRunning = errors.New("cwship: already running")

	// ErrNotRunning is returned when Stop() is called on a stopped instance.
	ErrNotRunning = errors.New("cwship: not running")

	// ErrShutdownTimeout is returned when graceful shutdown times out.
	ErrShutdownTimeout = errors.New("cwship: shutdown timeout")

	// ErrNoClient is returned when a shipper is built without a logs client.
	ErrNoClient = errors.New("cwship: no logs client configured")

	// ErrCycleAborted marks streams skipped because an earlier stream
	// aborted the flush cycle.
	ErrCycleAborted = errors.New("cwship: cycle aborted")

	// ErrStaleSequenceToken is matched by SequenceTokenError values.
	ErrStaleSequenceToken = errors.New("cwship: stale sequence token")

	// ErrDataAlreadyAccepted is matched by errors reporting a batch the
	// service had already stored.
	ErrDataAlreadyAccepted = errors.New("cwship: data already accepted")

	// ErrStreamNotFound is returned by clients when a put targets a stream
	// that does not exist.
	ErrStreamNotFound = errors.New("cwship: stream not found")

	// ErrStreamAlreadyExists is returned by clients when creating a stream
	// that already exists.
	ErrStreamAlreadyExists = errors.New("cwship: stream already exists")
)
