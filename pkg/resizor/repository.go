package resizor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/tendant/resizor-go/pkg/resizor/signature"
	"github.com/tendant/resizor-go/pkg/resizor/transport"
)

// Request parameter names
const (
	ParamTimestamp = "timestamp"
	ParamSignature = "signature"
	ParamID        = "id"
)

// Operation names reported to hooks and errors
const (
	OpAll    = "all"
	OpFind   = "find"
	OpDelete = "delete"
	OpStore  = "store"
)

// ImageRepository performs signed image operations for a single account.
// It holds no mutable state and is safe for concurrent use when its transport is.
type ImageRepository struct {
	config    Config
	transport transport.Transport
	signer    *signature.Signer
	hooks     Hooks
	logger    *slog.Logger
	now       func() time.Time
}

// New creates an ImageRepository for cfg using t to reach the service
func New(cfg Config, t transport.Transport, opts ...Option) (*ImageRepository, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotConfigured, err)
	}
	if t == nil {
		return nil, fmt.Errorf("%w: transport is required", ErrNotConfigured)
	}

	r := &ImageRepository{
		config:    cfg,
		transport: t,
		signer: signature.New(
			signature.WithSecretKey(cfg.SecretKey),
			signature.WithAlgorithm(cfg.SignatureAlgorithm),
		),
		logger: discardLogger(),
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r, nil
}

// APIVersion returns the configured API version
func (r *ImageRepository) APIVersion() string { return r.config.APIVersion }

// AccessKey returns the configured access key
func (r *ImageRepository) AccessKey() string { return r.config.AccessKey }

// SecretKey returns the configured secret key
func (r *ImageRepository) SecretKey() string { return r.config.SecretKey }

// Host returns the configured host
func (r *ImageRepository) Host() string { return r.config.Host }

// All lists images. extra is sent alongside the timestamp and is covered by the signature.
// A non-200 response yields a nil collection and nil error.
func (r *ImageRepository) All(ctx context.Context, extra map[string]any) (*ImageCollection, error) {
	params, err := toParams(extra)
	if err != nil {
		return nil, r.fail(ctx, OpAll, "", 0, err)
	}
	params[ParamTimestamp] = r.timestamp()

	sig, err := r.signer.Sign(params)
	if err != nil {
		return nil, r.fail(ctx, OpAll, "", 0, err)
	}
	params[ParamSignature] = sig

	req := RequestInfo{Op: OpAll, Method: http.MethodGet, URL: r.url("images.json"), Params: params}
	resp, err := r.send(ctx, req, func() (*transport.Response, error) {
		return r.transport.Get(ctx, req.URL, params)
	})
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, nil
	}

	var images []Image
	if err := json.Unmarshal(resp.Body, &images); err != nil {
		return nil, r.fail(ctx, OpAll, req.URL, resp.StatusCode, fmt.Errorf("%w: %v", ErrParse, err))
	}
	return NewImageCollection(images), nil
}

// Find fetches one image. The id is signed but only travels in the path.
// A non-200 response yields a nil image and nil error.
func (r *ImageRepository) Find(ctx context.Context, id string) (*Image, error) {
	params := signature.Params{ParamTimestamp: r.timestamp()}
	sig, err := r.signer.Sign(params.With(ParamID, id))
	if err != nil {
		return nil, r.fail(ctx, OpFind, "", 0, err)
	}
	params[ParamSignature] = sig

	req := RequestInfo{Op: OpFind, Method: http.MethodGet, URL: r.url(imagePath(id)), Params: params}
	resp, err := r.send(ctx, req, func() (*transport.Response, error) {
		return r.transport.Get(ctx, req.URL, params)
	})
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, nil
	}

	img, err := decodeImage(resp.Body)
	if err != nil {
		return nil, r.fail(ctx, OpFind, req.URL, resp.StatusCode, err)
	}
	return img, nil
}

// Delete removes one image. 204 yields a SuccessResponse; any other status an ErrorResponse.
func (r *ImageRepository) Delete(ctx context.Context, id string) (Response, error) {
	params := signature.Params{ParamTimestamp: r.timestamp()}
	sig, err := r.signer.Sign(params.With(ParamID, id))
	if err != nil {
		return nil, r.fail(ctx, OpDelete, "", 0, err)
	}
	params[ParamSignature] = sig

	req := RequestInfo{Op: OpDelete, Method: http.MethodDelete, URL: r.url(imagePath(id)), Params: params}
	resp, err := r.send(ctx, req, func() (*transport.Response, error) {
		return r.transport.Delete(ctx, req.URL, params)
	})
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusNoContent {
		return &SuccessResponse{}, nil
	}

	errResp, err := decodeErrors(resp)
	if err != nil {
		return nil, r.fail(ctx, OpDelete, req.URL, resp.StatusCode, err)
	}
	return errResp, nil
}

// Store uploads file. The file contents are never part of the signature.
// 201 yields an ImageResponse; any other status an ErrorResponse.
func (r *ImageRepository) Store(ctx context.Context, file transport.File, opts ...StoreOption) (Response, error) {
	o := storeOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if file.Reader == nil {
		return nil, r.fail(ctx, OpStore, "", 0, fmt.Errorf("%w: file reader is required", ErrInvalidParam))
	}

	params := signature.Params{ParamTimestamp: r.timestamp()}
	if o.id != "" {
		params[ParamID] = o.id
	}
	sig, err := r.signer.Sign(params)
	if err != nil {
		return nil, r.fail(ctx, OpStore, "", 0, err)
	}
	params[ParamSignature] = sig

	req := RequestInfo{Op: OpStore, Method: http.MethodPost, URL: r.url("images.json"), Params: params}
	resp, err := r.send(ctx, req, func() (*transport.Response, error) {
		return r.transport.PostMultipart(ctx, req.URL, params, file)
	})
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusCreated {
		img, err := decodeImage(resp.Body)
		if err != nil {
			return nil, r.fail(ctx, OpStore, req.URL, resp.StatusCode, err)
		}
		return &ImageResponse{Image: *img}, nil
	}

	errResp, err := decodeErrors(resp)
	if err != nil {
		return nil, r.fail(ctx, OpStore, req.URL, resp.StatusCode, err)
	}
	return errResp, nil
}

// send runs hooks around a transport call and wraps transport failures
func (r *ImageRepository) send(ctx context.Context, req RequestInfo, call func() (*transport.Response, error)) (*transport.Response, error) {
	if err := r.hooks.executeBeforeRequest(ctx, req); err != nil {
		return nil, r.fail(ctx, req.Op, req.URL, 0, err)
	}

	resp, err := call()
	if err != nil {
		return nil, r.fail(ctx, req.Op, req.URL, 0, err)
	}

	r.logger.DebugContext(ctx, "resizor request", "op", req.Op, "method", req.Method, "url", req.URL, "status", resp.StatusCode)
	r.hooks.executeAfterResponse(ctx, req, resp.StatusCode)
	return resp, nil
}

func (r *ImageRepository) fail(ctx context.Context, op, target string, status int, err error) error {
	reqErr := &RequestError{Op: op, URL: target, StatusCode: status, Err: err}
	r.logger.DebugContext(ctx, "resizor request failed", "op", op, "url", target, "status", status, "err", err)
	r.hooks.executeOnError(ctx, op, reqErr)
	return reqErr
}

func (r *ImageRepository) url(endpoint string) string {
	return BuildURL(r.config.Host, r.config.APIVersion, r.config.AccessKey, endpoint)
}

func (r *ImageRepository) timestamp() string {
	return strconv.FormatInt(r.now().UTC().Unix(), 10)
}

// imagePath escapes id so it stays a single path segment
func imagePath(id string) string {
	return "images/" + url.PathEscape(id) + ".json"
}

func decodeImage(body []byte) (*Image, error) {
	var envelope struct {
		Image *Image `json:"image"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if envelope.Image == nil {
		return nil, fmt.Errorf("%w: missing \"image\" key", ErrParse)
	}
	return envelope.Image, nil
}

func decodeErrors(resp *transport.Response) (*ErrorResponse, error) {
	var envelope struct {
		Errors []any `json:"errors"`
	}
	if err := json.Unmarshal(resp.Body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return &ErrorResponse{StatusCode: resp.StatusCode, Errors: envelope.Errors}, nil
}
