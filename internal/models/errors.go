package models

import (
	"context"
	"errors"
	"fmt"
)

// TransportError reports a failed fetch: network error, non-2xx status or a
// body that is not JSON. Status is 0 when no response was received.
type TransportError struct {
	URL    string
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: status %d: %v", e.URL, e.Status, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// MalformedInputError reports a required geographic field that is missing or
// not numeric. Field names the offending field, e.g. "profile[3][2]".
type MalformedInputError struct {
	Field string
	Err   error
}

func (e *MalformedInputError) Error() string {
	return fmt.Sprintf("malformed input at %s: %v", e.Field, e.Err)
}

func (e *MalformedInputError) Unwrap() error { return e.Err }

// Malformed is shorthand for a MalformedInputError with a formatted cause.
func Malformed(field, format string, args ...any) *MalformedInputError {
	return &MalformedInputError{Field: field, Err: fmt.Errorf(format, args...)}
}

// DataIntegrityError reports an altitude grid that disagrees with the declared
// resolution. Row is the first ragged row, or -1 when the row count is wrong.
type DataIntegrityError struct {
	Expected Resolution
	Rows     int
	Cols     int
	Row      int
}

func (e *DataIntegrityError) Error() string {
	if e.Row >= 0 {
		return fmt.Sprintf("altitude grid row %d has %d columns, resolution declares %dx%d",
			e.Row, e.Cols, e.Expected.X, e.Expected.Y)
	}
	return fmt.Sprintf("altitude grid is %dx%d, resolution declares %dx%d",
		e.Cols, e.Rows, e.Expected.X, e.Expected.Y)
}

// ErrorKind classifies err for logs and metric labels.
func ErrorKind(err error) string {
	var (
		transport *TransportError
		malformed *MalformedInputError
		integrity *DataIntegrityError
	)
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	case errors.As(err, &integrity):
		return "integrity"
	case errors.As(err, &malformed):
		return "malformed"
	case errors.As(err, &transport):
		return "transport"
	default:
		return "other"
	}
}
