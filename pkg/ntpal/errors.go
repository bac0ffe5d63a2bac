package ntpal

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"
)

// Failure kinds. Every error returned by Query is a *QueryError matching exactly one of these.
var (
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrTimeout           = errors.New("timeout")
	ErrNetwork           = errors.New("network error")
	ErrMalformedResponse = errors.New("malformed response")
)

// QueryError is returned for every failed query. Kind is one of the Err sentinels.
type QueryError struct {
	Kind    error
	Server  string
	Port    int
	Timeout time.Duration
	Err     error
}

func (e *QueryError) Error() string {
	target := net.JoinHostPort(e.Server, strconv.Itoa(e.Port))
	switch {
	case e.Kind == ErrTimeout:
		return fmt.Sprintf("ntp query %s: %v after %v", target, e.Kind, e.Timeout)
	case e.Err != nil:
		return fmt.Sprintf("ntp query %s: %v: %v", target, e.Kind, e.Err)
	default:
		return fmt.Sprintf("ntp query %s: %v", target, e.Kind)
	}
}

func (e *QueryError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func (request QueryRequest) fail(kind error, err error) *QueryError {
	return &QueryError{
		Kind:    kind,
		Server:  request.Server,
		Port:    request.Port,
		Timeout: request.Timeout,
		Err:     err,
	}
}
