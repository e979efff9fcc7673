package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatus_StreamAndTotals(t *testing.T) {
	var s Status
	assert.True(t, s.IsEmpty())
	assert.Equal(t, StreamStatus{}, s.Stream("web"))

	s.SetStream("web", StreamStatus{RecordsSent: 3, RequestsSent: 1})
	s.SetStream("db", StreamStatus{RecordsSent: 2, RecordsDropped: 4, RequestsSent: 2, TokenRetries: 1})

	assert.Equal(t, StreamStatus{
		RecordsSent:    5,
		RecordsDropped: 4,
		RequestsSent:   3,
		TokenRetries:   1,
	}, s.Totals())
}
