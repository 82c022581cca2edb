package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/textproto"
	"net/url"
	"sort"
	"time"

	"github.com/samber/lo"
	"github.com/tendant/resizor-go/pkg/resizor/signature"
)

// HTTPTransport implements Transport on top of net/http
type HTTPTransport struct {
	httpClient   *http.Client
	timeout      time.Duration
	userAgent    string
	progressFunc ProgressFunc
}

// ProgressFunc is called during upload to report progress
// It receives the number of bytes uploaded so far
type ProgressFunc func(bytesUploaded int64)

// HTTPOption is a functional option for configuring an HTTPTransport
type HTTPOption func(*HTTPTransport)

// NewHTTP creates a new HTTP transport
func NewHTTP(opts ...HTTPOption) *HTTPTransport {
	t := &HTTPTransport{
		httpClient: &http.Client{},
		userAgent:  "resizor-go",
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(t *HTTPTransport) {
		t.httpClient = client
	}
}

// WithTimeout bounds every request. Zero means no transport-level timeout.
func WithTimeout(timeout time.Duration) HTTPOption {
	return func(t *HTTPTransport) {
		t.timeout = timeout
	}
}

// WithUserAgent sets the User-Agent header
func WithUserAgent(userAgent string) HTTPOption {
	return func(t *HTTPTransport) {
		t.userAgent = userAgent
	}
}

// WithProgress sets a progress callback for multipart uploads
func WithProgress(fn ProgressFunc) HTTPOption {
	return func(t *HTTPTransport) {
		t.progressFunc = fn
	}
}

// Get issues a GET request with params encoded in the query string
func (t *HTTPTransport) Get(ctx context.Context, rawURL string, params signature.Params) (*Response, error) {
	return t.doQuery(ctx, http.MethodGet, rawURL, params)
}

// Delete issues a DELETE request with params encoded in the query string
func (t *HTTPTransport) Delete(ctx context.Context, rawURL string, params signature.Params) (*Response, error) {
	return t.doQuery(ctx, http.MethodDelete, rawURL, params)
}

// PostMultipart issues a multipart/form-data POST carrying params as form fields and file as a file part
func (t *HTTPTransport) PostMultipart(ctx context.Context, rawURL string, params signature.Params, file File) (*Response, error) {
	if file.Reader == nil {
		return nil, ErrNoFile
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	for _, k := range sortedKeys(params) {
		if err := writer.WriteField(k, params[k]); err != nil {
			return nil, fmt.Errorf("failed to write form field %s: %w", k, err)
		}
	}

	part, err := writer.CreatePart(filePartHeader(file))
	if err != nil {
		return nil, fmt.Errorf("failed to create file part: %w", err)
	}
	if _, err := io.Copy(part, file.Reader); err != nil {
		return nil, fmt.Errorf("failed to read upload file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	// Wrap reader with progress tracking if enabled
	var reader io.Reader = body
	if t.progressFunc != nil {
		reader = &progressReader{
			reader:   body,
			callback: t.progressFunc,
		}
	}

	ctx, cancel := t.withTimeout(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, reader)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", ErrTransport, err)
	}
	req.ContentLength = int64(body.Len())
	req.Header.Set("Content-Type", writer.FormDataContentType())

	return t.do(req)
}

func (t *HTTPTransport) doQuery(ctx context.Context, method, rawURL string, params signature.Params) (*Response, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid url %q: %v", ErrTransport, rawURL, err)
	}

	query := u.Query()
	for k, v := range params {
		query.Set(k, v)
	}
	u.RawQuery = query.Encode()

	ctx, cancel := t.withTimeout(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", ErrTransport, err)
	}

	return t.do(req)
}

func (t *HTTPTransport) do(req *http.Request) (*Response, error) {
	req.Header.Set("Accept", "application/json")
	if t.userAgent != "" {
		req.Header.Set("User-Agent", t.userAgent)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, classify(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classify(err)
	}

	return &Response{StatusCode: resp.StatusCode, Body: data}, nil
}

func (t *HTTPTransport) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if t.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, t.timeout)
}

// classify maps a client error onto ErrTimeout or ErrTransport, keeping the cause in the chain
func classify(err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %w", ErrTransport, err)
}

func filePartHeader(file File) textproto.MIMEHeader {
	field := lo.CoalesceOrEmpty(file.FieldName, DefaultFileField)
	name := lo.CoalesceOrEmpty(file.FileName, field)
	contentType := lo.CoalesceOrEmpty(file.ContentType, "application/octet-stream")

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		escapeQuotes(field), escapeQuotes(name)))
	h.Set("Content-Type", contentType)
	return h
}

func escapeQuotes(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r == '"' || r == '\\' {
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return string(out)
}

func sortedKeys(params signature.Params) []string {
	keys := lo.Keys(params)
	sort.Strings(keys)
	return keys
}

// progressReader wraps an io.Reader to track upload progress
type progressReader struct {
	reader    io.Reader
	bytesRead int64
	callback  ProgressFunc
}

func (pr *progressReader) Read(p []byte) (int, error) {
	n, err := pr.reader.Read(p)
	pr.bytesRead += int64(n)
	if pr.callback != nil && n > 0 {
		pr.callback(pr.bytesRead)
	}
	return n, err
}
