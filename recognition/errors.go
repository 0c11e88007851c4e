// recognition/errors.go
package recognition

import (
	"errors"
	"fmt"
)

// TransportError reports a failed HTTP exchange with the recognition
// endpoint. StatusCode is the non-200 status reported by the server, or 0
// when the exchange failed before any status arrived (connection refused,
// DNS failure, a connection dropped mid-read). Body carries the response
// body or the underlying error text.
type TransportError struct {
	StatusCode int
	Body       string
}

func (e *TransportError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("recognition request failed: %s", e.Body)
	}
	return fmt.Sprintf("recognition request failed with status %d: %s", e.StatusCode, e.Body)
}

// MalformedError reports model output that could not be interpreted as a
// food list. Raw carries the offending text for diagnostics.
type MalformedError struct {
	Raw string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed recognition response: %q", e.Raw)
}

var (
	// ErrSessionClosed is returned when a review session is used after
	// Commit or Cancel. Hitting it indicates a bug in the calling flow.
	ErrSessionClosed = errors.New("review session already closed")

	// ErrIndexOutOfRange is returned for an item index outside the session.
	ErrIndexOutOfRange = errors.New("food index out of range")
)
