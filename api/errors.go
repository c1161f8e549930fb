package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

var (
	ErrNotFound = errors.New("resource not found")
	ErrConflict = errors.New("resource already exists")
	ErrTimeout  = errors.New("request timed out")
)

// Error is returned for every failed call to the service: a non-2xx
// response or a request that never produced one.
type Error struct {
	Op         string
	Method     string
	URL        string
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	switch {
	case e.StatusCode != 0 && e.Message != "":
		return fmt.Sprintf("api.%s %s %s: status %d: %s", e.Op, e.Method, e.URL, e.StatusCode, e.Message)
	case e.StatusCode != 0:
		return fmt.Sprintf("api.%s %s %s: status %d", e.Op, e.Method, e.URL, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("api.%s %s %s: %v", e.Op, e.Method, e.URL, e.Err)
	default:
		return fmt.Sprintf("api.%s %s %s: %s", e.Op, e.Method, e.URL, e.Message)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether the error matches one of the package sentinels.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrConflict:
		return e.StatusCode == http.StatusConflict
	case ErrTimeout:
		return isTimeout(e.Err)
	}
	return false
}

func isTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
