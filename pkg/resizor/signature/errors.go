package signature

import "errors"

// Signature errors
var (
	// ErrNoSecretKey is returned when signing or verifying without a configured secret key
	ErrNoSecretKey = errors.New("signature: no secret key configured")

	// ErrMissingSignature is returned when a request carries no signature parameter
	ErrMissingSignature = errors.New("signature: missing signature parameter")

	// ErrInvalidSignature is returned when the signature does not match the parameters
	ErrInvalidSignature = errors.New("signature: invalid signature")
)

// IsAuthError returns true if the error is a signature validation error
func IsAuthError(err error) bool {
	return errors.Is(err, ErrMissingSignature) ||
		errors.Is(err, ErrInvalidSignature)
}
