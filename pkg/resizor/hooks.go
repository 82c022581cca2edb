package resizor

import (
	"context"

	"github.com/tendant/resizor-go/pkg/resizor/signature"
)

// Hook system lets callers observe requests without changing the repository's return contract.
// AfterResponse sees the raw status code, which is the only way to tell "not found"
// from a server error when Find or All return nothing.

// Hooks defines all available request hooks
type Hooks struct {
	BeforeRequest []BeforeRequestHook
	AfterResponse []AfterResponseHook
	OnError       []ErrorHook
}

// RequestInfo describes an outgoing request
type RequestInfo struct {
	Op     string
	Method string
	URL    string
	Params signature.Params
}

// BeforeRequestHook is called before a request is handed to the transport.
// Returning an error aborts the call.
type BeforeRequestHook func(ctx context.Context, req RequestInfo) error

// AfterResponseHook is called once the transport returns a response
type AfterResponseHook func(ctx context.Context, req RequestInfo, statusCode int)

// ErrorHook is called when an operation fails
type ErrorHook func(ctx context.Context, op string, err error)

func (h *Hooks) executeBeforeRequest(ctx context.Context, req RequestInfo) error {
	for _, hook := range h.BeforeRequest {
		if err := hook(ctx, req); err != nil {
			return err
		}
	}
	return nil
}

func (h *Hooks) executeAfterResponse(ctx context.Context, req RequestInfo, statusCode int) {
	for _, hook := range h.AfterResponse {
		hook(ctx, req, statusCode)
	}
}

func (h *Hooks) executeOnError(ctx context.Context, op string, err error) {
	for _, hook := range h.OnError {
		hook(ctx, op, err)
	}
}
