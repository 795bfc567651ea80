package dispatch

import (
	"errors"
	"fmt"
)

// Stage identifies where event handling failed
type Stage string

const (
	StageStoreLookup Stage = "store_lookup"
	StageTrigger     Stage = "pipeline_trigger"
)

// Error is a failed event handling attempt. Both stages represent transient
// infrastructure failures, so callers surface them as retryable to the
// delivery platform.
type Error struct {
	Stage Stage
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("event handling failed at %s: %v", e.Stage, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether err should be surfaced as a retryable failure
// to the delivery platform
func IsRetryable(err error) bool {
	var dispatchErr *Error
	return errors.As(err, &dispatchErr)
}

// StageOf returns the failing stage, or an empty Stage for errors that did
// not come from event handling
func StageOf(err error) Stage {
	var dispatchErr *Error
	if errors.As(err, &dispatchErr) {
		return dispatchErr.Stage
	}
	return ""
}
