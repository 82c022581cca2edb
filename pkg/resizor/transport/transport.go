package transport

import (
	"context"
	"errors"
	"io"

	"github.com/tendant/resizor-go/pkg/resizor/signature"
)

// Transport errors
var (
	// ErrTransport indicates the request never produced an HTTP response
	ErrTransport = errors.New("transport failure")

	// ErrTimeout indicates the request was abandoned because a deadline passed
	ErrTimeout = errors.New("transport timeout")

	// ErrNoFile indicates PostMultipart was called without a file reader
	ErrNoFile = errors.New("no file to upload")
)

// Transport issues a single request against the remote service and returns the raw response.
// Implementations must be safe for concurrent use when shared across repositories.
type Transport interface {
	Get(ctx context.Context, url string, params signature.Params) (*Response, error)
	Delete(ctx context.Context, url string, params signature.Params) (*Response, error)
	PostMultipart(ctx context.Context, url string, params signature.Params, file File) (*Response, error)
}

// Response is the status code and fully read body of an HTTP response
type Response struct {
	StatusCode int
	Body       []byte
}

// File is the binary payload attached to a multipart upload
type File struct {
	FieldName   string // defaults to "file"
	FileName    string
	ContentType string // defaults to "application/octet-stream"
	Reader      io.Reader
}

// DefaultFileField is the multipart field name used when File.FieldName is empty
const DefaultFileField = "file"
