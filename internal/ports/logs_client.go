package ports

import (
	"context"

	"github.com/bft-labs/cwship/internal/domain"
)

// StreamInfo describes a stream found on the remote service.
type StreamInfo struct {
	// Name is the exact stream name
	Name string

	// UploadSequenceToken is the token the service reported, if any
	UploadSequenceToken *string
}

// LogsClient is the remote append-only log store.
// Implementations translate provider errors into domain errors:
// a stale token becomes *domain.SequenceTokenError, a duplicate create
// matches domain.ErrStreamAlreadyExists.
type LogsClient interface {
	// FindStream returns the stream whose name equals streamName exactly,
	// or nil when no such stream exists.
	FindStream(ctx context.Context, logGroup, streamName string) (*StreamInfo, error)

	// CreateStream creates streamName in logGroup.
	CreateStream(ctx context.Context, logGroup, streamName string) error

	// PutBatch appends records in order using token (nil for a stream that
	// has never been written) and returns the token for the next append.
	PutBatch(ctx context.Context, logGroup, streamName string, records []domain.Record, token *string) (*string, error)
}
