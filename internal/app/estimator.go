package app

import (
	"strconv"

	"github.com/bft-labs/cwship/internal/domain"
)

// encodedLen returns the length of rec encoded as a JSON object
// {"timestamp":<millis>,"message":<string>}, the element the size estimate
// sums over.
func encodedLen(rec domain.Record) int {
	b, err := marshal(rec, "")
	if err != nil {
		// Unreachable for a string field; keep a safe overestimate.
		return len(`{"timestamp":,"message":""}`) + len(strconv.FormatInt(rec.Timestamp, 10)) + 2*len(rec.Message)
	}
	return len(b)
}
