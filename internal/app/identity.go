package app

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bft-labs/cwship/internal/ports"
)

// UnknownIdentity is reported until the instance identity resolves.
const UnknownIdentity = "unknown"

// identityTimeout bounds the one-shot resolution call.
const identityTimeout = 10 * time.Second

// Identity is a read-mostly cell holding the resolved instance identity.
type Identity struct {
	value atomic.Pointer[string]
	once  sync.Once
}

// NewIdentity creates a cell holding UnknownIdentity.
func NewIdentity() *Identity {
	id := &Identity{}
	v := UnknownIdentity
	id.value.Store(&v)
	return id
}

// Get returns the current identity.
func (i *Identity) Get() string {
	return *i.value.Load()
}

// Resolve starts a single background lookup through resolver. Later calls
// are no-ops. The returned channel is closed when the lookup finishes.
// A failed lookup leaves the identity at UnknownIdentity for good.
func (i *Identity) Resolve(ctx context.Context, resolver ports.IdentityResolver, logger ports.Logger) <-chan struct{} {
	done := make(chan struct{})
	started := false
	i.once.Do(func() {
		started = true
		go func() {
			defer close(done)

			rctx, cancel := context.WithTimeout(ctx, identityTimeout)
			defer cancel()

			id, err := resolver.ResolveInstanceID(rctx)
			if err != nil {
				logger.Debug("instance identity lookup failed", ports.Err(err))
				return
			}
			if id == "" {
				logger.Debug("instance identity lookup returned nothing")
				return
			}
			i.value.Store(&id)
			logger.Debug("instance identity resolved", ports.String("instance_id", id))
		}()
	})
	if !started {
		close(done)
	}
	return done
}
