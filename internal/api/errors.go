package api

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind separates requests that never got an answer from ones the
// server rejected.
type ErrorKind int

const (
	// KindNoResponse means the request never reached the server or the
	// response never arrived (dial failure, DNS, timeout).
	KindNoResponse ErrorKind = iota + 1
	// KindStatus means the server answered with a non-2xx status.
	KindStatus
	// KindDecode means a 2xx body could not be decoded.
	KindDecode
)

func (k ErrorKind) String() string {
	switch k {
	case KindNoResponse:
		return "no response"
	case KindStatus:
		return "status"
	case KindDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// Error is returned by every Client call that fails.
type Error struct {
	Kind   ErrorKind
	Method string
	URL    string
	Status int
	Body   []byte
	Err    error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindStatus:
		if len(e.Body) > 0 {
			return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.URL, e.Status, truncate(e.Body, 200))
		}
		return fmt.Sprintf("%s %s: status %d", e.Method, e.URL, e.Status)
	case KindDecode:
		return fmt.Sprintf("%s %s: decoding response: %v", e.Method, e.URL, e.Err)
	default:
		return fmt.Sprintf("%s %s: no response: %v", e.Method, e.URL, e.Err)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// ErrUnexpectedShape marks a response body that decoded but was not the
// expected JSON shape.
var ErrUnexpectedShape = errors.New("unexpected response shape")

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// IsUnauthorized reports whether err is a 401 from the backend.
func IsUnauthorized(err error) bool {
	return StatusCode(err) == http.StatusUnauthorized
}

// IsNoResponse reports whether err means the backend was unreachable.
func IsNoResponse(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Kind == KindNoResponse
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
