package domain

import (
	"errors"
	"fmt"
)

// RequestError means the caller's input violates a required contract.
// It is the only error kind that crosses the gateway boundary; model and
// cache failures are recovered internally by falling back.
type RequestError struct {
	Detail string
}

func (e *RequestError) Error() string {
	return e.Detail
}

// NewRequestError builds a RequestError with a formatted detail message
func NewRequestError(format string, args ...any) *RequestError {
	return &RequestError{Detail: fmt.Sprintf(format, args...)}
}

// IsRequestError reports whether err is (or wraps) a RequestError
func IsRequestError(err error) bool {
	var re *RequestError
	return errors.As(err, &re)
}
