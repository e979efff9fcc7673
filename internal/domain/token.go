package domain

import (
	"fmt"
	"strings"
)

// nullToken is what the service reports as the expected token of a stream
// that has never been written.
const nullToken = "null"

// SequenceTokenError reports an append rejected because the supplied
// sequence token was stale. Detail is the provider message, which embeds
// the corrected token after the first ": ".
type SequenceTokenError struct {
	// Detail is the provider error message
	Detail string

	// Expected is the token reported in a structured field, if any
	Expected *string

	// AlreadyAccepted is set when the service had already stored the batch
	AlreadyAccepted bool
}

// Error implements error.
func (e *SequenceTokenError) Error() string {
	if e.AlreadyAccepted {
		return fmt.Sprintf("data already accepted: %s", e.Detail)
	}
	return fmt.Sprintf("invalid sequence token: %s", e.Detail)
}

// Is matches ErrStaleSequenceToken, or ErrDataAlreadyAccepted when
// AlreadyAccepted is set.
func (e *SequenceTokenError) Is(target error) bool {
	if e.AlreadyAccepted {
		return target == ErrDataAlreadyAccepted
	}
	return target == ErrStaleSequenceToken
}

// CorrectedToken extracts the token the service expects next.
// The detail text wins; the structured field is the fallback.
// ok is false when neither source yields a token. A nil token with ok
// true means the stream expects no token.
func (e *SequenceTokenError) CorrectedToken() (token *string, ok bool) {
	if t, ok := ParseExpectedToken(e.Detail); ok {
		return t, true
	}
	if e.Expected != nil {
		if *e.Expected == nullToken {
			return nil, true
		}
		t := *e.Expected
		return &t, true
	}
	return nil, false
}

// ParseExpectedToken extracts the token that follows the first ": " in a
// provider message such as
// "The given sequenceToken is invalid. The next expected sequenceToken is: 4959...".
func ParseExpectedToken(detail string) (*string, bool) {
	i := strings.Index(detail, ":")
	if i < 0 {
		return nil, false
	}
	tok := strings.TrimSpace(detail[i+1:])
	if tok == "" {
		return nil, false
	}
	if tok == nullToken {
		return nil, true
	}
	return &tok, true
}
