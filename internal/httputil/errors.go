// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"errors"
	"fmt"
	"net"
	"net/http"
)

// ErrNotFound marks a resource the upstream service reports as absent
// (HTTP 404/410). Fatal for the record, never retried.
var ErrNotFound = errors.New("resource not found")

// ErrExhaustedRetries marks a request whose transient failures outlasted
// the retry budget.
var ErrExhaustedRetries = errors.New("exhausted retries")

// TransientError wraps a failure worth retrying: a timeout, a connection
// error, or an HTTP 5xx/429 response.
type TransientError struct {
	Status int // zero for transport errors
	Err    error
}

func (e *TransientError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("transient HTTP %d", e.Status)
	}
	return fmt.Sprintf("transient network error: %v", e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// IsTransient reports whether err is (or wraps) a TransientError.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// classify maps an HTTP outcome onto the error taxonomy. A nil return
// means the response should be handed to the caller as-is.
func classify(resp *http.Response, err error) error {
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return &TransientError{Err: err}
		}
		// Connection-level failures (refused, reset, DNS) are transient.
		return &TransientError{Err: err}
	}

	switch {
	case resp.StatusCode == http.StatusNotFound, resp.StatusCode == http.StatusGone:
		return fmt.Errorf("HTTP %d: %w", resp.StatusCode, ErrNotFound)
	case resp.StatusCode == http.StatusTooManyRequests, resp.StatusCode >= 500:
		return &TransientError{Status: resp.StatusCode}
	default:
		return nil
	}
}
