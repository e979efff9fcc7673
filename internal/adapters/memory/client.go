// Package memory provides an in-process ports.LogsClient that follows the
// CloudWatch Logs sequence-token rules. It backs dry runs and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/bft-labs/cwship/internal/domain"
	"github.com/bft-labs/cwship/internal/ports"
)

type stream struct {
	token  *string
	events []domain.Record
}

// Client is a concurrency-safe in-memory log store.
type Client struct {
	mu      sync.Mutex
	groups  map[string]map[string]*stream
	seq     uint64
	onPut   func(group, stream string, records []domain.Record)
	autoGrp bool
}

// Option configures a Client.
type Option func(*Client)

// WithPutHook registers fn to observe every accepted batch.
func WithPutHook(fn func(group, stream string, records []domain.Record)) Option {
	return func(c *Client) {
		c.onPut = fn
	}
}

// WithAutoCreateGroups makes unknown log groups spring into existence.
func WithAutoCreateGroups() Option {
	return func(c *Client) {
		c.autoGrp = true
	}
}

// NewClient creates an empty store.
func NewClient(opts ...Option) *Client {
	c := &Client{groups: make(map[string]map[string]*stream)}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CreateGroup adds an empty log group.
func (c *Client) CreateGroup(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.groups[name]; !ok {
		c.groups[name] = make(map[string]*stream)
	}
}

func (c *Client) group(name string) (map[string]*stream, error) {
	g, ok := c.groups[name]
	if ok {
		return g, nil
	}
	if !c.autoGrp {
		return nil, fmt.Errorf("%w: log group %q", domain.ErrStreamNotFound, name)
	}
	g = make(map[string]*stream)
	c.groups[name] = g
	return g, nil
}

// FindStream returns the stream named exactly streamName, or nil.
func (c *Client) FindStream(_ context.Context, logGroup, streamName string) (*ports.StreamInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	g, err := c.group(logGroup)
	if err != nil {
		return nil, err
	}
	s, ok := g[streamName]
	if !ok {
		return nil, nil
	}
	return &ports.StreamInfo{Name: streamName, UploadSequenceToken: copyToken(s.token)}, nil
}

// CreateStream adds streamName to logGroup.
func (c *Client) CreateStream(_ context.Context, logGroup, streamName string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	g, err := c.group(logGroup)
	if err != nil {
		return err
	}
	if _, ok := g[streamName]; ok {
		return fmt.Errorf("%w: %s", domain.ErrStreamAlreadyExists, streamName)
	}
	g[streamName] = &stream{}
	return nil
}

// PutBatch appends records when token matches the stream's expected token.
func (c *Client) PutBatch(_ context.Context, logGroup, streamName string, records []domain.Record, token *string) (*string, error) {
	c.mu.Lock()

	g, err := c.group(logGroup)
	if err != nil {
		c.mu.Unlock()
		return nil, err
	}
	s, ok := g[streamName]
	if !ok {
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", domain.ErrStreamNotFound, streamName)
	}
	if !sameToken(s.token, token) {
		expected := "null"
		if s.token != nil {
			expected = *s.token
		}
		c.mu.Unlock()
		return nil, &domain.SequenceTokenError{
			Detail: "The given sequenceToken is invalid. The next expected sequenceToken is: " + expected,
		}
	}

	s.events = append(s.events, records...)
	c.seq++
	next := fmt.Sprintf("%056d", c.seq)
	s.token = &next
	hook := c.onPut
	c.mu.Unlock()

	if hook != nil {
		hook(logGroup, streamName, records)
	}
	return copyToken(&next), nil
}

// Events returns a copy of the records stored for a stream.
func (c *Client) Events(logGroup, streamName string) []domain.Record {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.groups[logGroup][streamName]
	if !ok {
		return nil
	}
	return append([]domain.Record(nil), s.events...)
}

// Streams returns the stream names of logGroup, sorted.
func (c *Client) Streams(logGroup string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	names := make([]string, 0, len(c.groups[logGroup]))
	for n := range c.groups[logGroup] {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Summary renders one "stream: N events" line per stream of logGroup.
func (c *Client) Summary(logGroup string) string {
	var sb strings.Builder
	for _, n := range c.Streams(logGroup) {
		fmt.Fprintf(&sb, "%s: %d events\n", n, len(c.Events(logGroup, n)))
	}
	return sb.String()
}

func sameToken(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func copyToken(t *string) *string {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
