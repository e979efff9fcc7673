package cwship

import (
	"github.com/bft-labs/cwship/internal/domain"
	"github.com/bft-labs/cwship/internal/ports"
	"github.com/bft-labs/cwship/pkg/log"
)

// Re-exported types so custom adapters can be written outside this module.
type (
	// Logger is the structured logging interface from pkg/log.
	Logger = log.Logger

	// LogField is a structured log field.
	LogField = log.Field

	// LogsClient is the remote log store.
	LogsClient = ports.LogsClient

	// StreamInfo describes a remote stream found by LogsClient.FindStream.
	StreamInfo = ports.StreamInfo

	// IdentityResolver looks up the host instance identifier.
	IdentityResolver = ports.IdentityResolver

	// StatusRepository persists the delivery status snapshot.
	StatusRepository = ports.StatusRepository

	// Record is a single formatted log event.
	Record = domain.Record

	// DeliveryStatus is the per-stream delivery snapshot.
	DeliveryStatus = domain.Status

	// StreamStatus holds delivery counters for one stream.
	StreamStatus = domain.StreamStatus

	// SequenceTokenError is returned by a LogsClient when the supplied
	// sequence token is stale or the batch was already accepted.
	SequenceTokenError = domain.SequenceTokenError
)

// Errors returned by Shipper methods and expected from LogsClient
// implementations.
var (
	ErrAlreadyRunning      = domain.ErrAlreadyRunning
	ErrNotRunning          = domain.ErrNotRunning
	ErrShutdownTimeout     = domain.ErrShutdownTimeout
	ErrCycleAborted        = domain.ErrCycleAborted
	ErrNoClient            = domain.ErrNoClient
	ErrStaleSequenceToken  = domain.ErrStaleSequenceToken
	ErrDataAlreadyAccepted = domain.ErrDataAlreadyAccepted
	ErrStreamNotFound      = domain.ErrStreamNotFound
	ErrStreamAlreadyExists = domain.ErrStreamAlreadyExists
)
