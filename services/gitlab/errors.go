package gitlab

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// maxErrorBody caps how much of an error response body is kept
const maxErrorBody = 512

// TriggerError represents a failed trigger call, either a transport error
// (Err set, StatusCode zero) or a non-2xx API response (StatusCode set).
type TriggerError struct {
	URL        string
	StatusCode int
	Message    string
	Err        error
}

// Error implements the error interface
func (e *TriggerError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("gitlab trigger failed with status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("gitlab trigger failed: %v", e.Err)
}

// Unwrap returns the underlying error
func (e *TriggerError) Unwrap() error {
	return e.Err
}

// IsTriggerError checks if an error is a TriggerError
func IsTriggerError(err error) bool {
	var triggerErr *TriggerError
	return errors.As(err, &triggerErr)
}

// newTriggerError builds a TriggerError from a non-2xx response body. GitLab
// reports either {"message": "..."} or a nested message object; anything
// unparseable keeps the raw body snippet.
func newTriggerError(endpoint string, status int, body []byte) *TriggerError {
	msg := strings.TrimSpace(string(body))

	var apiErr apiErrorResponse
	if err := json.Unmarshal(body, &apiErr); err == nil && len(apiErr.Message) > 0 {
		msg = strings.TrimSpace(string(apiErr.Message))
	}
	if len(msg) > maxErrorBody {
		msg = msg[:maxErrorBody]
	}

	return &TriggerError{
		URL:        endpoint,
		StatusCode: status,
		Message:    msg,
	}
}

type apiErrorResponse struct {
	Message json.RawMessage `json:"message"`
}
