package api

import (
	"context"
	"errors"
	"fmt"
	"net/url"
)

// Sentinel errors distinguishing transport failures. A timeout (deadline
// exceeded) and a network failure (no response reached the server) must
// produce different user-legible messages than a server rejection.
var (
	ErrTimeout = errors.New("request timed out")
	ErrNetwork = errors.New("no response from server")
)

// ValidationError is a bad local input, reported before any network call.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

// StatusError is a non-2xx server response. Detail carries the
// server-supplied message when one was present in the body; it is preferred
// over the generic status text.
type StatusError struct {
	Status int
	Detail string
}

func (e *StatusError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("server returned status %d", e.Status)
}

// wrapTransport classifies an error from the HTTP round trip.
func wrapTransport(err error) error {
	var uerr *url.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &uerr) && uerr.Timeout()) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrNetwork, err)
}
