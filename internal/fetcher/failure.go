package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// FailureKind classifies a fetch failure. The caller decides whether to
// retry, fall through to a lower-priority strategy, or fail the source.
type FailureKind string

const (
	FailTimeout     FailureKind = "timeout"
	FailDenied      FailureKind = "denied"
	FailRateLimited FailureKind = "rate_limited"
	FailHTTP        FailureKind = "http_error"
	FailNetwork     FailureKind = "network_error"
)

// Failure is a typed fetch failure. It always wraps the underlying cause
// when one exists.
type Failure struct {
	Kind       FailureKind
	StatusCode int
	URL        string
	Err        error
}

func (f *Failure) Error() string {
	msg := fmt.Sprintf("fetch %s: %s", f.URL, f.Kind)
	if f.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, f.StatusCode)
	}
	if f.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, f.Err)
	}
	return msg
}

func (f *Failure) Unwrap() error { return f.Err }

// AsFailure extracts a *Failure from an error chain.
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	ok := errors.As(err, &f)
	return f, ok
}

// classifyTransport maps a transport-level error onto a failure kind.
func classifyTransport(url string, err error) *Failure {
	kind := FailNetwork
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		kind = FailTimeout
	}
	if errors.Is(err, context.DeadlineExceeded) {
		kind = FailTimeout
	}
	return &Failure{Kind: kind, URL: url, Err: err}
}

// classifyStatus maps a non-success HTTP status onto a failure kind.
func classifyStatus(url string, status int) *Failure {
	switch status {
	case 403:
		return &Failure{Kind: FailDenied, StatusCode: status, URL: url}
	case 429:
		return &Failure{Kind: FailRateLimited, StatusCode: status, URL: url}
	default:
		return &Failure{Kind: FailHTTP, StatusCode: status, URL: url}
	}
}
