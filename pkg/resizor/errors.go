package resizor

import (
	"errors"
	"fmt"

	"github.com/tendant/resizor-go/pkg/resizor/transport"
)

// Error types
var (
	// ErrNotConfigured indicates the repository was built without a usable Config
	ErrNotConfigured = errors.New("not configured: set host, api version, access key and secret key first")

	// ErrInvalidParam indicates a request argument is unusable: a non-scalar parameter or a missing upload file
	ErrInvalidParam = errors.New("invalid request parameter")

	// ErrParse indicates a response body was not the JSON the service promises
	ErrParse = errors.New("malformed response body")

	// ErrTransport indicates the request never produced a response
	ErrTransport = transport.ErrTransport

	// ErrTimeout indicates the request deadline passed before a response arrived
	ErrTimeout = transport.ErrTimeout
)

// RequestError represents a failed repository operation
type RequestError struct {
	Op         string
	URL        string
	StatusCode int // zero when no response was received
	Err        error
}

func (e *RequestError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("image operation %s failed for %s (status %d): %v", e.Op, e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("image operation %s failed for %s: %v", e.Op, e.URL, e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// IsTimeout reports whether err came from a request deadline
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

// IsTransportError reports whether err is a network-level failure other than a timeout
func IsTransportError(err error) bool {
	return errors.Is(err, ErrTransport)
}

// IsParseError reports whether err came from an undecodable response body
func IsParseError(err error) bool {
	return errors.Is(err, ErrParse)
}
