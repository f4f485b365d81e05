package remote

import (
	"errors"
	"fmt"
)

// ErrRejected is returned when the service answers success=false.
var ErrRejected = errors.New("request rejected by simulation service")

// TransportError reports a network failure or a non-2xx response.
type TransportError struct {
	Op     string
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: service returned HTTP %d", e.Op, e.Status)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// InvalidResponseError reports a body that is malformed or lacks
// expected fields.
type InvalidResponseError struct {
	Op     string
	Reason string
	Err    error
}

func (e *InvalidResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: invalid response: %s: %v", e.Op, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: invalid response: %s", e.Op, e.Reason)
}

func (e *InvalidResponseError) Unwrap() error { return e.Err }
