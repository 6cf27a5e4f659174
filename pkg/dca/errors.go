package dca

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is returned before any data is read when the request itself is unusable.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotRun is returned when results are requested before Run.
	ErrNotRun = errors.New("analysis has not been run")

	ErrDataAccess  = errors.New("data access failed")
	ErrStatistical = errors.New("statistical computation failed")
)

// DataAccessError wraps a repository failure. It matches both ErrDataAccess and the cause.
type DataAccessError struct {
	Op  string
	Err error
}

func (e *DataAccessError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *DataAccessError) Unwrap() error { return e.Err }

func (e *DataAccessError) Is(target error) bool { return target == ErrDataAccess }

// StatisticalError reports inputs the statistical engines cannot produce a valid answer for.
type StatisticalError struct {
	Reason string
}

func (e *StatisticalError) Error() string {
	return "statistical error: " + e.Reason
}

func (e *StatisticalError) Is(target error) bool { return target == ErrStatistical }

func statErrorf(format string, args ...interface{}) error {
	return &StatisticalError{Reason: fmt.Sprintf(format, args...)}
}
