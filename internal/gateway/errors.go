package gateway

import (
	"errors"
	"fmt"
)

// Sentinel errors for client input problems. These are raised before any
// network call is made.
var (
	// ErrMissingCredentials indicates an update without endpoint or API key.
	ErrMissingCredentials = errors.New("api_base and api_key are required")

	// ErrNotConfigured indicates the store holds no API key yet.
	ErrNotConfigured = errors.New("api key is not configured")

	// ErrEmptyMessage indicates a chat request without message content.
	ErrEmptyMessage = errors.New("message content cannot be empty")

	// ErrMalformedResponse indicates the upstream returned HTTP 200 but the
	// body carried no usable choice. Retrying cannot fix this, so it is
	// never retried.
	ErrMalformedResponse = errors.New("no usable content in upstream response")
)

// UpstreamError is an HTTP-level rejection from the upstream API. The status
// code and body are preserved verbatim so the caller can forward them.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream request failed: %d - %s", e.StatusCode, e.Body)
}

// TransportError is a network-level failure (connection refused, timeout)
// that survived the full retry budget.
type TransportError struct {
	Attempts int
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("upstream unreachable after %d attempts: %v", e.Attempts, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
