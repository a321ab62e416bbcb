// Package v1 provides the request-scoped error type handlers use to
// attach an HTTP status code to an otherwise ordinary error.
package v1

import "errors"

// RequestError wraps a handler error with the HTTP status it should
// produce. Handlers construct one when they encounter an expected
// failure (malformed input, an invariant violation) that should not be
// logged as unexpected.
type RequestError struct {
	Err    error
	Status int
}

// NewRequestError wraps err with status. Handlers use this for any error
// condition they can already classify as malformed input (400) or an
// invariant violation (409).
func NewRequestError(err error, status int) error {
	return &RequestError{Err: err, Status: status}
}

// Error implements the error interface with the wrapped error's message,
// the text that ends up in the service's logs.
func (re *RequestError) Error() string {
	return re.Err.Error()
}

// IsRequestError reports whether err (or something it wraps) is a
// RequestError.
func IsRequestError(err error) bool {
	var re *RequestError
	return errors.As(err, &re)
}

// GetRequestError unwraps err into its RequestError, or nil if err isn't
// one.
func GetRequestError(err error) *RequestError {
	var re *RequestError
	if !errors.As(err, &re) {
		return nil
	}
	return re
}
