package fetch

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies a fetch failure so callers can tell them apart without
// inspecting transport types.
type Kind int

const (
	KindUnknown      Kind = iota
	KindConnectivity      // no response received
	KindServerStatus      // non-2xx response; Code holds the status
	KindDecode            // 2xx response whose body did not parse
)

func (k Kind) String() string {
	switch k {
	case KindConnectivity:
		return "connectivity"
	case KindServerStatus:
		return "server status"
	case KindDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// Error is the failure returned by every Client operation.
type Error struct {
	Kind Kind
	Code int    // HTTP status, set for KindServerStatus
	URL  string // request URL, if one was built
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	var s string
	switch e.Kind {
	case KindServerStatus:
		s = fmt.Sprintf("fetch: server returned HTTP %d", e.Code)
	case KindConnectivity:
		s = "fetch: connection failed"
	case KindDecode:
		s = "fetch: malformed response"
	default:
		s = "fetch: request failed"
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the Kind of err, or KindUnknown if err is not an *Error.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindUnknown
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var fe *Error
	if errors.As(err, &fe) && fe.Kind == KindServerStatus {
		return fe.Code
	}
	return 0
}

// transportError classifies a failed client.Do. A deadline counts as
// connectivity; an explicit cancel is reported as unknown so callers can
// still match context.Canceled through Unwrap.
func transportError(url string, err error) *Error {
	kind := KindConnectivity
	if errors.Is(err, context.Canceled) {
		kind = KindUnknown
	}
	return &Error{Kind: kind, URL: url, Err: err}
}
