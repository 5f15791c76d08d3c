package audit

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrJobNotFound is returned by a JobStore when the requested ID does not exist.
var ErrJobNotFound = errors.New("job not found")

// Kind is the stable category of a domain failure.
type Kind string

// Domain failure categories surfaced by Service.
const (
	KindInvalidURL  Kind = "invalid_url"
	KindFetchFailed Kind = "fetch_failed"
	KindNotFound    Kind = "not_found"
)

// Error is a domain failure with a stable Kind and a human-readable Detail.
type Error struct {
	Kind   Kind
	Detail string
	Err    error
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf reports the domain Kind carried by err, if any.
func KindOf(err error) (Kind, bool) {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Kind, true
	}
	return "", false
}

// FetchError describes a failed retrieval: a non-success status, a transport
// error or a timeout.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Err != nil:
		return fmt.Sprintf("fetch %s: status %d %s: %v", e.URL, e.StatusCode, http.StatusText(e.StatusCode), e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("fetch %s: status %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
	case e.Err != nil:
		return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
	default:
		return fmt.Sprintf("fetch %s failed", e.URL)
	}
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
