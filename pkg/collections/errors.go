package collections

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

const (
	// CodeTimeout marks a poll that gave up waiting for a terminal status.
	CodeTimeout = "TIMEOUT"
	// DefaultErrorMessage is used when a failed response carries nothing readable.
	DefaultErrorMessage = "Request failed"
)

var (
	ErrWorkspaceRequired = errors.New("workspace id is required")
	ErrRunIDRequired     = errors.New("collection run id is required")
	// ErrProgressAborted wraps an error returned by a progress callback.
	ErrProgressAborted = errors.New("progress callback aborted polling")
	// ErrTimeout matches any APIError produced by a poll timeout.
	ErrTimeout = errors.New("collection polling timed out")
	// ErrNoRunID is returned when neither the trigger nor the latest run yields an id to poll.
	ErrNoRunID = errors.New("no collection run id available")
	// ErrRequestNotSent marks failures that happen before a request leaves
	// the client, such as an unresolvable auth token. These are never retried.
	ErrRequestNotSent = errors.New("request not sent")
)

// APIError is the single error shape for failed collection calls.
type APIError struct {
	Status  int
	Message string
	Code    string
	// Elapsed is set on poll timeouts.
	Elapsed time.Duration
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s (status %d)", e.Code, e.Message, e.Status)
	}
	return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
}

func (e *APIError) Is(target error) bool {
	return target == ErrTimeout && e.Code == CodeTimeout
}

func newTimeoutError(timeout, elapsed time.Duration) *APIError {
	return &APIError{
		Status:  http.StatusRequestTimeout,
		Message: fmt.Sprintf("Collection timed out after %s seconds", strconv.FormatFloat(timeout.Seconds(), 'f', -1, 64)),
		Code:    CodeTimeout,
		Elapsed: elapsed,
	}
}

// AsAPIError unwraps err into an APIError.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsStatus reports whether err is an APIError with the given HTTP status.
func IsStatus(err error, status int) bool {
	apiErr, ok := AsAPIError(err)
	return ok && apiErr.Status == status
}

func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}
