package gateway

import "fmt"

// TransportError covers network failures, timeouts and non-success
// responses from the remote API. Retryable: the caller leaves the affected
// sale in the pending partition for the next drain pass.
type TransportError struct {
	Op         string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: remote returned status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// DuplicateError means the remote already holds a record for this
// correlation id. It is success-equivalent: a duplicate response is
// evidence of a prior, now-confirmed delivery, so the caller relocates the
// sale to the synced partition instead of retrying.
type DuplicateError struct {
	OfflineID string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("sale %s already recorded by remote", e.OfflineID)
}
