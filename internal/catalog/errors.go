package catalog

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUpstreamUnavailable matches every UpstreamUnavailableError.
	ErrUpstreamUnavailable = errors.New("catalog upstream unavailable")
	// ErrUpstreamData matches every UpstreamDataError.
	ErrUpstreamData = errors.New("catalog upstream data error")
	// ErrNotFound is returned when a product id is unknown upstream.
	ErrNotFound = errors.New("product not found")
)

// UpstreamUnavailableError reports a transport failure or a non-2xx status.
type UpstreamUnavailableError struct {
	Op         string
	StatusCode int // zero when no response was received
	Err        error
}

func (e *UpstreamUnavailableError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("catalog %s: upstream returned status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("catalog %s: %v", e.Op, e.Err)
}

func (e *UpstreamUnavailableError) Unwrap() error { return e.Err }

func (e *UpstreamUnavailableError) Is(target error) bool { return target == ErrUpstreamUnavailable }

// UpstreamDataError reports GraphQL errors or an undecodable payload.
type UpstreamDataError struct {
	Op       string
	Messages []string
	Err      error
}

func (e *UpstreamDataError) Error() string {
	if len(e.Messages) > 0 {
		return fmt.Sprintf("catalog %s: graphql errors: %s", e.Op, strings.Join(e.Messages, "; "))
	}
	return fmt.Sprintf("catalog %s: malformed response: %v", e.Op, e.Err)
}

func (e *UpstreamDataError) Unwrap() error { return e.Err }

func (e *UpstreamDataError) Is(target error) bool { return target == ErrUpstreamData }
