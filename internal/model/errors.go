package model

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidURL        = errors.New("invalid url")
	ErrDomainMismatch    = errors.New("url does not belong to project domain")
	ErrInvalidToken      = errors.New("invalid project token")
	ErrBrowserLaunch     = errors.New("browser launch failed")
	ErrNavigationTimeout = errors.New("navigation timed out")
	ErrNavigation        = errors.New("navigation failed")
	ErrCheckExecution    = errors.New("check execution failed")
	ErrPersistence       = errors.New("persistence failed")
	ErrInvalidContent    = errors.New("invalid content bundle")
	ErrNotFound          = errors.New("not found")
)

// CheckError wraps a failure raised by a single check.
type CheckError struct {
	Check CheckName
	Err   error
}

func (e *CheckError) Error() string {
	return fmt.Sprintf("check %s failed: %v", e.Check, e.Err)
}

func (e *CheckError) Unwrap() []error {
	return []error{ErrCheckExecution, e.Err}
}

func NewCheckError(name CheckName, err error) *CheckError {
	return &CheckError{Check: name, Err: err}
}
