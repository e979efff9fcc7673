package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/bft-labs/cwship/internal/domain"
	"github.com/bft-labs/cwship/internal/ports"
)

type putCall struct {
	stream  string
	records []domain.Record
	token   *string
}

// fakeLogsClient is an in-memory ports.LogsClient with scripted failures.
type fakeLogsClient struct {
	mu sync.Mutex

	streams map[string]*string
	seq     int

	finds   []string
	creates []string
	puts    []putCall

	findErr   map[string]error
	createErr map[string]error
	putErrs   map[string][]error

	// gate, when set, holds every PutBatch until closed, ignoring ctx.
	gate     chan struct{}
	inFlight int
	peak     int
}

func newFakeLogsClient() *fakeLogsClient {
	return &fakeLogsClient{
		streams:   make(map[string]*string),
		findErr:   make(map[string]error),
		createErr: make(map[string]error),
		putErrs:   make(map[string][]error),
	}
}

func (f *fakeLogsClient) withStream(name string, token *string) *fakeLogsClient {
	f.streams[name] = token
	return f
}

func (f *fakeLogsClient) failPut(stream string, errs ...error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.putErrs[stream] = append(f.putErrs[stream], errs...)
}

func (f *fakeLogsClient) FindStream(_ context.Context, _, name string) (*ports.StreamInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.finds = append(f.finds, name)
	if err := f.findErr[name]; err != nil {
		return nil, err
	}
	tok, ok := f.streams[name]
	if !ok {
		return nil, nil
	}
	return &ports.StreamInfo{Name: name, UploadSequenceToken: tok}, nil
}

func (f *fakeLogsClient) CreateStream(_ context.Context, _, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.creates = append(f.creates, name)
	if err := f.createErr[name]; err != nil {
		return err
	}
	f.streams[name] = nil
	return nil
}

// blockPuts makes PutBatch wait until the returned channel is closed.
func (f *fakeLogsClient) blockPuts() chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gate = make(chan struct{})
	return f.gate
}

func (f *fakeLogsClient) putsInFlight() (now, peak int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.inFlight, f.peak
}

func (f *fakeLogsClient) PutBatch(_ context.Context, _, name string, records []domain.Record, token *string) (*string, error) {
	f.mu.Lock()
	gate := f.gate
	f.inFlight++
	f.peak = max(f.peak, f.inFlight)
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.inFlight--

	var tok *string
	if token != nil {
		t := *token
		tok = &t
	}
	f.puts = append(f.puts, putCall{stream: name, records: append([]domain.Record(nil), records...), token: tok})

	if errs := f.putErrs[name]; len(errs) > 0 {
		f.putErrs[name] = errs[1:]
		return nil, errs[0]
	}

	f.seq++
	next := fmt.Sprintf("tok-%d", f.seq)
	f.streams[name] = &next
	return &next, nil
}

func (f *fakeLogsClient) putCalls() []putCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]putCall(nil), f.puts...)
}

func (f *fakeLogsClient) delivered(stream string) []string {
	var out []string
	for _, c := range f.putCalls() {
		if c.stream != stream {
			continue
		}
		for _, r := range c.records {
			out = append(out, r.Message)
		}
	}
	return out
}

// staleToken builds the error the service returns for a stale token.
func staleToken(expected string) error {
	return &domain.SequenceTokenError{
		Detail: "The given sequenceToken is invalid. The next expected sequenceToken is: " + expected,
	}
}

// fakeResolver returns a fixed identity or error.
type fakeResolver struct {
	id    string
	err   error
	calls int
	mu    sync.Mutex
}

func (r *fakeResolver) ResolveInstanceID(context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	return r.id, r.err
}

// memStatus is an in-memory ports.StatusRepository.
type memStatus struct {
	mu    sync.Mutex
	saved []domain.Status
	load  domain.Status
}

func (m *memStatus) Load(context.Context) (domain.Status, error) {
	return m.load, nil
}

func (m *memStatus) Save(_ context.Context, st domain.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = append(m.saved, st)
	return nil
}

func (m *memStatus) last() (domain.Status, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.saved) == 0 {
		return domain.Status{}, false
	}
	return m.saved[len(m.saved)-1], true
}

func strPtr(s string) *string { return &s }
