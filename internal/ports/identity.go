package ports

import "context"

// IdentityResolver looks up the identifier of the host the process runs on.
type IdentityResolver interface {
	// ResolveInstanceID returns the host identifier or an error.
	ResolveInstanceID(ctx context.Context) (string, error)
}
