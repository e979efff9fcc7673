package app

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/cwship/internal/domain"
)

func batchOf(stream string, msgs ...string) domain.Batch {
	b := domain.Batch{Stream: stream}
	for _, m := range msgs {
		b.Records = append(b.Records, rec(m))
	}
	return b
}

func newTestEngine(client *fakeLogsClient, policy FailurePolicy) (*DeliveryEngine, *Registry) {
	reg := NewRegistry()
	return NewDeliveryEngine(client, reg, "group", policy, mockLogger{}), reg
}

func TestParseFailurePolicy(t *testing.T) {
	assert.Equal(t, PolicyAbort, ParseFailurePolicy("abort"))
	assert.Equal(t, PolicyIsolate, ParseFailurePolicy("isolate"))
	assert.Equal(t, PolicyIsolate, ParseFailurePolicy("whatever"))
}

func TestDeliver_CreatesMissingStream(t *testing.T) {
	client := newFakeLogsClient()
	engine, reg := newTestEngine(client, PolicyIsolate)

	report := engine.Deliver(context.Background(), []domain.Batch{batchOf("new", "a", "b")})

	require.Len(t, report.Streams, 1)
	sr := report.Streams[0]
	require.NoError(t, sr.Err)
	assert.True(t, sr.Created)
	assert.Equal(t, 2, sr.Delivered)
	assert.Equal(t, []string{"new"}, client.creates)

	calls := client.putCalls()
	require.Len(t, calls, 1)
	assert.Nil(t, calls[0].token, "first append on a new stream carries no token")

	st := reg.Get("new")
	assert.True(t, st.Known)
	assert.Equal(t, "tok-1", st.Token())
}

func TestDeliver_ExistingStreamUsesReportedToken(t *testing.T) {
	client := newFakeLogsClient().withStream("app", strPtr("remote-7"))
	engine, _ := newTestEngine(client, PolicyIsolate)

	report := engine.Deliver(context.Background(), []domain.Batch{batchOf("app", "x")})
	require.False(t, report.Failed())
	assert.Empty(t, client.creates)
	assert.Equal(t, "remote-7", *client.putCalls()[0].token)
}

func TestDeliver_KnownStreamSkipsExistenceCheck(t *testing.T) {
	client := newFakeLogsClient()
	engine, reg := newTestEngine(client, PolicyIsolate)
	reg.MarkKnown("app")
	reg.SetToken("app", strPtr("t0"))

	engine.Deliver(context.Background(), []domain.Batch{batchOf("app", "x")})
	assert.Empty(t, client.finds)
	assert.Equal(t, "t0", *client.putCalls()[0].token)
}

func TestDeliver_AlreadyExistsCountsAsCreated(t *testing.T) {
	client := newFakeLogsClient()
	client.createErr["app"] = domain.ErrStreamAlreadyExists
	engine, reg := newTestEngine(client, PolicyIsolate)

	report := engine.Deliver(context.Background(), []domain.Batch{batchOf("app", "x")})
	require.NoError(t, report.Streams[0].Err)
	assert.False(t, report.Streams[0].Created)
	assert.True(t, reg.Get("app").Known)
}

func TestDeliver_SkipsEmptyBatches(t *testing.T) {
	client := newFakeLogsClient()
	engine, _ := newTestEngine(client, PolicyIsolate)

	report := engine.Deliver(context.Background(), []domain.Batch{{Stream: "empty"}})
	assert.Empty(t, report.Streams)
	assert.Empty(t, client.finds)
}

func TestDeliver_StaleTokenRetriedOnce(t *testing.T) {
	client := newFakeLogsClient().withStream("app", nil)
	client.failPut("app", staleToken("expected-42"))
	engine, reg := newTestEngine(client, PolicyIsolate)

	report := engine.Deliver(context.Background(), []domain.Batch{batchOf("app", "x")})
	sr := report.Streams[0]
	require.NoError(t, sr.Err)
	assert.Equal(t, 2, sr.Requests)
	assert.Equal(t, 1, sr.Retries)

	calls := client.putCalls()
	require.Len(t, calls, 2)
	assert.Equal(t, "expected-42", *calls[1].token)
	assert.Equal(t, "tok-1", reg.Get("app").Token())
}

func TestDeliver_StaleTokenTwiceFails(t *testing.T) {
	client := newFakeLogsClient().withStream("app", nil)
	client.failPut("app", staleToken("e1"), staleToken("e2"))
	engine, reg := newTestEngine(client, PolicyIsolate)

	report := engine.Deliver(context.Background(), []domain.Batch{batchOf("app", "x", "y")})
	sr := report.Streams[0]
	require.Error(t, sr.Err)
	assert.ErrorIs(t, sr.Err, domain.ErrStaleSequenceToken)
	assert.Len(t, client.putCalls(), 2)
	assert.Equal(t, 2, sr.Undelivered.Size())
	assert.Equal(t, "e2", reg.Get("app").Token())
}

func TestDeliver_NullExpectedToken(t *testing.T) {
	client := newFakeLogsClient().withStream("app", strPtr("stale"))
	client.failPut("app", staleToken("null"))
	engine, _ := newTestEngine(client, PolicyIsolate)

	report := engine.Deliver(context.Background(), []domain.Batch{batchOf("app", "x")})
	require.NoError(t, report.Streams[0].Err)
	assert.Nil(t, client.putCalls()[1].token)
}

func TestDeliver_DataAlreadyAccepted(t *testing.T) {
	client := newFakeLogsClient().withStream("app", nil)
	client.failPut("app", &domain.SequenceTokenError{
		Detail:          "The given batch of log events has already been accepted. The next batch can be sent with sequenceToken: next-9",
		AlreadyAccepted: true,
	})
	engine, reg := newTestEngine(client, PolicyIsolate)

	report := engine.Deliver(context.Background(), []domain.Batch{batchOf("app", "x")})
	sr := report.Streams[0]
	require.NoError(t, sr.Err)
	assert.Equal(t, 1, sr.Delivered)
	assert.Equal(t, "next-9", reg.Get("app").Token())
}

func TestDeliver_OtherErrorNotRetried(t *testing.T) {
	client := newFakeLogsClient().withStream("app", nil)
	client.failPut("app", errors.New("throttled"))
	engine, _ := newTestEngine(client, PolicyIsolate)

	report := engine.Deliver(context.Background(), []domain.Batch{batchOf("app", "x")})
	require.Error(t, report.Streams[0].Err)
	assert.Len(t, client.putCalls(), 1)
}

func TestDeliver_IsolateContinuesWithOtherStreams(t *testing.T) {
	client := newFakeLogsClient()
	client.findErr["a"] = errors.New("describe failed")
	engine, _ := newTestEngine(client, PolicyIsolate)

	report := engine.Deliver(context.Background(), []domain.Batch{
		batchOf("a", "a1"),
		batchOf("b", "b1"),
	})

	require.Len(t, report.Streams, 2)
	assert.False(t, report.Aborted)
	assert.Error(t, report.Streams[0].Err)
	assert.Equal(t, 1, report.Streams[0].Undelivered.Size())
	assert.NoError(t, report.Streams[1].Err)
	assert.Equal(t, []string{"b1"}, client.delivered("b"))
}

func TestDeliver_AbortSkipsRemainingStreams(t *testing.T) {
	client := newFakeLogsClient()
	client.findErr["a"] = errors.New("describe failed")
	engine, _ := newTestEngine(client, PolicyAbort)

	report := engine.Deliver(context.Background(), []domain.Batch{
		batchOf("a", "a1"),
		batchOf("b", "b1"),
	})

	require.Len(t, report.Streams, 2)
	assert.True(t, report.Aborted)
	assert.True(t, report.Streams[1].Skipped)
	assert.Equal(t, 1, report.Streams[1].Undelivered.Size())
	assert.Empty(t, client.delivered("b"))
	assert.True(t, report.Failed())
}

func TestDeliver_ChunksLargeBatches(t *testing.T) {
	client := newFakeLogsClient().withStream("app", nil)
	engine, _ := newTestEngine(client, PolicyIsolate)

	msgs := make([]string, domain.MaxPutRecords+5)
	for i := range msgs {
		msgs[i] = "m"
	}

	report := engine.Deliver(context.Background(), []domain.Batch{batchOf("app", msgs...)})
	sr := report.Streams[0]
	require.NoError(t, sr.Err)
	assert.Equal(t, 2, sr.Requests)
	assert.Equal(t, len(msgs), sr.Delivered)

	calls := client.putCalls()
	require.Len(t, calls, 2)
	assert.Len(t, calls[0].records, domain.MaxPutRecords)
	assert.Equal(t, "tok-1", *calls[1].token, "second chunk uses the token from the first")
}

func TestDeliver_PartialChunkFailureKeepsTail(t *testing.T) {
	client := newFakeLogsClient().withStream("app", nil)
	engine, _ := newTestEngine(client, PolicyIsolate)

	msgs := make([]string, domain.MaxPutRecords+3)
	for i := range msgs {
		msgs[i] = "m"
	}
	// First chunk succeeds, second fails.
	wrapped := &failSecond{fakeLogsClient: client}
	engine.client = wrapped

	report := engine.Deliver(context.Background(), []domain.Batch{batchOf("app", msgs...)})
	sr := report.Streams[0]
	require.Error(t, sr.Err)
	assert.Equal(t, domain.MaxPutRecords, sr.Delivered)
	assert.Equal(t, 3, sr.Undelivered.Size())
}

// failSecond fails every append after the first.
type failSecond struct {
	*fakeLogsClient
	n int
}

func (f *failSecond) PutBatch(ctx context.Context, group, name string, records []domain.Record, token *string) (*string, error) {
	f.n++
	if f.n > 1 {
		return nil, errors.New("service unavailable")
	}
	return f.fakeLogsClient.PutBatch(ctx, group, name, records, token)
}
