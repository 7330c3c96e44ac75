package catalog

import (
	"errors"
	"fmt"
)

var (
	// ErrNotAbsoluteURL reports a URL without scheme or host.
	ErrNotAbsoluteURL = errors.New("url is not absolute")
	// ErrUnexpectedStatus reports a non-2xx response from the catalog.
	ErrUnexpectedStatus = errors.New("unexpected http status")
)

// MalformedURLError is returned when a URL cannot be parsed as an absolute URL.
type MalformedURLError struct {
	URL string
	Err error
}

func (e *MalformedURLError) Error() string {
	return fmt.Sprintf("malformed url %q: %v", e.URL, e.Err)
}

func (e *MalformedURLError) Unwrap() error { return e.Err }

// FetchError describes a failed GET against the catalog. Err is the original
// cause: the transport error, an ErrUnexpectedStatus-wrapped status, or the
// JSON decode error.
type FetchError struct {
	Op         string
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: status %d: %v", e.Op, e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }
