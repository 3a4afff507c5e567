package api

import (
	"errors"
	"fmt"
)

// Kind classifies request failures so callers can choose distinct handling.
type Kind int

const (
	KindUnknown Kind = iota
	KindNetwork
	KindParse
	KindHTTP
	KindAuthRequired
	KindSessionExpired
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network_failure"
	case KindParse:
		return "parse_failure"
	case KindHTTP:
		return "http_error"
	case KindAuthRequired:
		return "authentication_required"
	case KindSessionExpired:
		return "session_expired"
	default:
		return "unknown"
	}
}

var (
	// ErrNetwork indicates a transport-level failure (no connectivity, DNS, reset).
	ErrNetwork = errors.New("network failure")
	// ErrParse indicates a response body that did not match the expected shape.
	ErrParse = errors.New("parse failure")
	// ErrHTTP indicates the server rejected the request.
	ErrHTTP = errors.New("http error")
	// ErrAuthRequired indicates no token was available for an authenticated call.
	ErrAuthRequired = errors.New("authentication required")
	// ErrSessionExpired indicates the server answered 401 to an authenticated call.
	ErrSessionExpired = errors.New("session expired")
	// ErrEmptyPath is returned when a request is issued without a path.
	ErrEmptyPath = errors.New("empty request path")
)

func (k Kind) sentinel() error {
	switch k {
	case KindNetwork:
		return ErrNetwork
	case KindParse:
		return ErrParse
	case KindHTTP:
		return ErrHTTP
	case KindAuthRequired:
		return ErrAuthRequired
	case KindSessionExpired:
		return ErrSessionExpired
	default:
		return nil
	}
}

// Error is the failure type surfaced by Client.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Kind == KindHTTP && e.Status != 0 {
		if e.Err != nil {
			return fmt.Sprintf("HTTP error %d: %v", e.Status, e.Err)
		}
		return fmt.Sprintf("HTTP error %d", e.Status)
	}
	if msg == "" {
		msg = e.Kind.String()
		if s := e.Kind.sentinel(); s != nil {
			msg = s.Error()
		}
	}
	switch {
	case e.Status != 0 && e.Err != nil:
		return fmt.Sprintf("%s (status %d): %v", msg, e.Status, e.Err)
	case e.Status != 0:
		return fmt.Sprintf("%s (status %d)", msg, e.Status)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", msg, e.Err)
	default:
		return msg
	}
}

// Unwrap exposes both the kind sentinel and the underlying cause to errors.Is.
func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if s := e.Kind.sentinel(); s != nil {
		errs = append(errs, s)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// KindOf reports the failure kind carried by err, or KindUnknown.
func KindOf(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindUnknown
}

// StatusOf reports the HTTP or envelope status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}
