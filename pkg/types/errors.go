package types

import (
	"errors"
	"fmt"
)

// ErrUnknownTimeWindow is returned for window names outside weekly, monthly, quarterly and yearly.
var ErrUnknownTimeWindow = errors.New("unknown time window")

// UpstreamError reports a failed call to an external market data source.
type UpstreamError struct {
	Source     string // "esi" or "mokaam"
	StatusCode int    // HTTP status, 0 when the request never completed
	Message    string
	Err        error // transport error, nil for an unexpected status
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s request failed: unexpected status code %d: %s", e.Source, e.StatusCode, e.Message)
	}

	return fmt.Sprintf("%s request failed: %s", e.Source, e.Message)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
