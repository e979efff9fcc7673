package app

import (
	"sync"

	"github.com/bft-labs/cwship/internal/domain"
)

// Registry tracks, for every stream referenced during the process
// lifetime, whether it is known to exist remotely and its sequence token.
// Entries are never removed.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*domain.StreamState
	order   []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*domain.StreamState)}
}

// Touch creates the entry for name if absent. It reports whether the
// entry was created.
func (r *Registry) Touch(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, created := r.entry(name)
	return created
}

// Get returns a copy of the entry for name, creating it if absent.
func (r *Registry) Get(name string) domain.StreamState {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, _ := r.entry(name)
	out := *e
	if e.SequenceToken != nil {
		tok := *e.SequenceToken
		out.SequenceToken = &tok
	}
	return out
}

// MarkKnown records that the stream exists remotely.
func (r *Registry) MarkKnown(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, _ := r.entry(name)
	e.Known = true
}

// SetToken stores the token for the next append. A nil token clears it.
func (r *Registry) SetToken(name string, token *string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, _ := r.entry(name)
	if token == nil {
		e.SequenceToken = nil
		return
	}
	tok := *token
	e.SequenceToken = &tok
}

// Names returns stream names in the order they were first referenced.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.order...)
}

// Len returns the number of entries.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.order)
}

func (r *Registry) entry(name string) (*domain.StreamState, bool) {
	if e, ok := r.entries[name]; ok {
		return e, false
	}
	e := &domain.StreamState{Name: name}
	r.entries[name] = e
	r.order = append(r.order, name)
	return e, true
}
