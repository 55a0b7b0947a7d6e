package collector

import (
	"errors"
	"fmt"

	"github.com/ppiankov/polemica/internal/fetch"
)

var (
	// ErrRateLimited marks a response body that says the mirror is throttling us
	ErrRateLimited = errors.New("rate limited")

	// ErrNoResults marks a successful exchange that produced no usable items.
	// Collectors treat it like a failure when deciding whether to fall back.
	ErrNoResults = errors.New("no results")
)

// NetworkError is a transport failure, timeout or non-2xx status
type NetworkError struct {
	URL        string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("network error: %s: status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("network error: %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ParseError is malformed markup, feed or JSON
type ParseError struct {
	URL string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error: %s: %v", e.URL, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// IsNetwork reports whether err is a NetworkError
func IsNetwork(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

// IsParse reports whether err is a ParseError
func IsParse(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// IsRateLimited reports whether err is, or wraps, ErrRateLimited
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}

// Error classes reported in source availability and logs
const (
	ClassRateLimited = "rate_limited"
	ClassNetwork     = "network"
	ClassParse       = "parse"
	ClassNoResults   = "no_results"
	ClassOther       = "other"
)

// Classify names the taxonomy class of err, or "" for nil. Joined errors
// are classified by their last (most recent) member.
func Classify(err error) string {
	if err == nil {
		return ""
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		if errs := joined.Unwrap(); len(errs) > 0 {
			return Classify(errs[len(errs)-1])
		}
	}
	switch {
	case IsRateLimited(err):
		return ClassRateLimited
	case IsNetwork(err):
		return ClassNetwork
	case IsParse(err):
		return ClassParse
	case errors.Is(err, ErrNoResults):
		return ClassNoResults
	default:
		return ClassOther
	}
}

// networkError wraps a fetch failure, keeping the status code when there was one
func networkError(url string, err error) error {
	if err == nil {
		return nil
	}
	ne := &NetworkError{URL: url, Err: err}
	var se *fetch.StatusError
	if errors.As(err, &se) {
		ne.StatusCode = se.StatusCode
	}
	return ne
}

func parseError(url string, err error) error {
	return &ParseError{URL: url, Err: err}
}
