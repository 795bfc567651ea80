package secrets

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
)

// LookupError represents a failed secret metadata read
type LookupError struct {
	Name string
	Code codes.Code
	Err  error
}

// Error implements the error interface
func (e *LookupError) Error() string {
	return fmt.Sprintf("secret lookup failed for %s: %v", e.Name, e.Err)
}

// Unwrap returns the underlying error
func (e *LookupError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether the error is a lookup of a missing secret
func IsNotFound(err error) bool {
	var lookupErr *LookupError
	return errors.As(err, &lookupErr) && lookupErr.Code == codes.NotFound
}
