package apiclient

import (
	"errors"
	"fmt"
)

// Kind classifies a failed client operation. Callers switch on the kind of a
// returned *Error instead of inspecting transport internals.
type Kind int

const (
	// KindNetworkUnavailable means no response was received at all
	// (DNS failure, refused connection, timeout).
	KindNetworkUnavailable Kind = iota + 1

	// KindUnauthorized is an HTTP 401 that survived the single
	// re-authentication attempt. The session has been invalidated; the
	// caller decides where to send the user next.
	KindUnauthorized

	// KindForbidden is an HTTP 403.
	KindForbidden

	// KindNotFound is an HTTP 404.
	KindNotFound

	// KindServerError is any HTTP 5xx response.
	KindServerError

	// KindRequestFailed is any other non-2xx response, carrying the original
	// status code and the server-supplied message when present.
	KindRequestFailed

	// KindNoSession means an operation that requires stored credentials was
	// called without any. No network call was made.
	KindNoSession
)

func (k Kind) String() string {
	switch k {
	case KindNetworkUnavailable:
		return "network_unavailable"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindServerError:
		return "server_error"
	case KindRequestFailed:
		return "request_failed"
	case KindNoSession:
		return "no_session"
	default:
		return "unknown"
	}
}

// Fixed user-facing messages for failures where the server body is either
// absent or not worth surfacing.
const (
	msgNetworkUnavailable = "unable to reach the server"
	msgNotFound           = "the requested resource was not found"
	msgServerError        = "an unexpected error occurred, try again later"
)

// Error is the single error value produced by the client and the session
// store. Status is zero when no HTTP response was received. Err holds the
// underlying transport or decode error for logging and is never required to
// interpret the failure.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s (%d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of err if it is (or wraps) a client *Error, and
// zero otherwise.
func KindOf(err error) Kind {
	var clientErr *Error
	if errors.As(err, &clientErr) {
		return clientErr.Kind
	}
	return 0
}
