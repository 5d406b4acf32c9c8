package scraper

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Error kind labels used in failure records and metrics.
const (
	KindTimeout  = "timeout"
	KindNetwork  = "network"
	KindParse    = "parse"
	KindCanceled = "canceled"
	KindOther    = "other"
)

// ErrTimeout indicates the request exceeded its deadline.
type ErrTimeout struct {
	Err error
}

func (e ErrTimeout) Error() string {
	return fmt.Errorf("timeout: %w", e.Err).Error()
}

func (e ErrTimeout) Unwrap() error {
	return e.Err
}

// ErrConnection indicates a network connectivity failure (DNS, refused, reset).
type ErrConnection struct {
	Err error
}

func (e ErrConnection) Error() string {
	return fmt.Errorf("connection: %w", e.Err).Error()
}

func (e ErrConnection) Unwrap() error {
	return e.Err
}

// ErrHTTPStatus indicates a non-2xx response.
type ErrHTTPStatus struct {
	StatusCode int
	Err        error
}

func (e ErrHTTPStatus) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("http status %d", e.StatusCode)
	}
	return fmt.Errorf("http status %d: %w", e.StatusCode, e.Err).Error()
}

func (e ErrHTTPStatus) Unwrap() error {
	return e.Err
}

// Reason returns a finer label for statuses worth telling apart.
func (e ErrHTTPStatus) Reason() string {
	switch e.StatusCode {
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusTooManyRequests:
		return "rate_limited"
	default:
		return "status"
	}
}

// ErrParse indicates the response body could not be turned into a document.
type ErrParse struct {
	Err error
}

func (e ErrParse) Error() string {
	return fmt.Errorf("parse: %w", e.Err).Error()
}

func (e ErrParse) Unwrap() error {
	return e.Err
}

// ErrorKind maps err to one of the Kind labels.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	var timeout ErrTimeout
	if errors.As(err, &timeout) {
		return KindTimeout
	}
	var conn ErrConnection
	if errors.As(err, &conn) {
		return KindNetwork
	}
	var status ErrHTTPStatus
	if errors.As(err, &status) {
		return KindNetwork
	}
	var parse ErrParse
	if errors.As(err, &parse) {
		return KindParse
	}
	if errors.Is(err, context.Canceled) {
		return KindCanceled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	return KindOther
}

// errorLabel refines ErrorKind with the HTTP status reason for metrics.
func errorLabel(err error) string {
	var status ErrHTTPStatus
	if errors.As(err, &status) {
		return status.Reason()
	}
	return ErrorKind(err)
}

func classifyError(err error, statusCode int) error {
	if err == nil && statusCode == 0 {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout{Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrTimeout{Err: err}
	}

	if statusCode != 0 && (statusCode < 200 || statusCode > 299) {
		return ErrHTTPStatus{StatusCode: statusCode, Err: err}
	}

	if errors.Is(err, context.Canceled) {
		return err
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return ErrConnection{Err: err}
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return ErrConnection{Err: err}
	}
	if err == nil {
		return nil
	}
	// Anything else raised by the transport is a fetch-layer failure.
	return ErrConnection{Err: err}
}
