package resizor

import (
	"io"
	"log/slog"
	"time"

	"github.com/tendant/resizor-go/pkg/resizor/signature"
)

// Option configures an ImageRepository
type Option func(*ImageRepository)

// WithLogger sets the logger used for per-request debug output
func WithLogger(logger *slog.Logger) Option {
	return func(r *ImageRepository) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithClock overrides the time source used for request timestamps
func WithClock(now func() time.Time) Option {
	return func(r *ImageRepository) {
		if now != nil {
			r.now = now
		}
	}
}

// WithHooks installs request hooks
func WithHooks(hooks Hooks) Option {
	return func(r *ImageRepository) {
		r.hooks = hooks
	}
}

// WithSigner replaces the signer derived from Config
func WithSigner(signer *signature.Signer) Option {
	return func(r *ImageRepository) {
		if signer != nil {
			r.signer = signer
		}
	}
}

// StoreOption configures a single Store call
type StoreOption func(*storeOptions)

type storeOptions struct {
	id string
}

// WithImageID stores the upload under an explicit image id
func WithImageID(id string) StoreOption {
	return func(o *storeOptions) {
		o.id = id
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
