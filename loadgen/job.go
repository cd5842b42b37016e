package loadgen

import (
	"context"
	"errors"
)

// JobProducer sends a single query and returns response body.
//
// Job must return once ctx is done, in-flight request is abandoned then.
type JobProducer interface {
	Job(ctx context.Context, i int, query string) (string, error)
}

// TransportError marks failure of a network call itself.
type TransportError struct {
	Err error
}

// Error implements error.
func (e TransportError) Error() string {
	return "transport failure: " + e.Err.Error()
}

// Unwrap returns underlying error.
func (e TransportError) Unwrap() error {
	return e.Err
}

// IsTransport checks if err was caused by transport failure.
func IsTransport(err error) bool {
	var te TransportError

	return errors.As(err, &te)
}
