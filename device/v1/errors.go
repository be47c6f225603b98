package v1

import (
	"errors"
	"fmt"
)

// Session errors. ErrSessionExhausted is a transient device-side condition:
// the terminal stops issuing cookies for a while when it has seen too many
// distinct sessions.
var (
	ErrSessionExhausted = errors.New("device is not issuing new sessions, wait and retry")
	ErrSessionInvalid   = errors.New("device rejected the session, it will be re-acquired on the next attempt")
)

// Transport errors.
var (
	ErrTimeout          = errors.New("connection timed out")
	ErrTooManyRedirects = errors.New("too many redirects")
	ErrConnectionFailed = errors.New("connection failed")
)

// Parse errors. ErrNoDataToday is a normal outcome: the report table was
// present and well formed but contained only the header row.
var (
	ErrUnexpectedPage = errors.New("response does not match the expected page structure")
	ErrNoDataToday    = errors.New("no attendance data for today")
)

// StatusError reports a non-success HTTP status from the device.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("device returned http status %d", e.Code)
}
