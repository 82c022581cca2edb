package signature

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"sort"
	"strings"

	"github.com/samber/lo"
)

// Params holds the string-keyed request parameters that are signed and sent with a request.
type Params map[string]string

// Clone returns a shallow copy of p.
func (p Params) Clone() Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// With returns a copy of p with key set to value.
func (p Params) With(key, value string) Params {
	out := p.Clone()
	out[key] = value
	return out
}

// Algorithm names the HMAC digest used to sign requests.
type Algorithm string

const (
	SHA256 Algorithm = "sha256"
	SHA1   Algorithm = "sha1"
)

// DefaultAlgorithm is used when no algorithm is configured
const DefaultAlgorithm = SHA256

// Signer generates and validates HMAC signatures over canonicalized request parameters
type Signer struct {
	secretKey []byte
	algorithm Algorithm
}

// New creates a new Signer with the given options
func New(opts ...Option) *Signer {
	s := &Signer{
		algorithm: DefaultAlgorithm,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Generate signs params with secret using the default algorithm.
//
// Example:
//
//	sig := signature.Generate("secret", signature.Params{"timestamp": "1700000000", "id": "42"})
func Generate(secret string, params Params) string {
	return generate(DefaultAlgorithm, []byte(secret), params)
}

// Sign returns the lowercase hex signature for params
func (s *Signer) Sign(params Params) (string, error) {
	if len(s.secretKey) == 0 {
		return "", ErrNoSecretKey
	}
	return generate(s.algorithm, s.secretKey, params), nil
}

// Verify checks sig against the signature computed for params
func (s *Signer) Verify(params Params, sig string) error {
	if len(s.secretKey) == 0 {
		return ErrNoSecretKey
	}
	if sig == "" {
		return ErrMissingSignature
	}

	expected := generate(s.algorithm, s.secretKey, params)

	// Compare signatures using constant-time comparison to prevent timing attacks
	if !hmac.Equal([]byte(sig), []byte(expected)) {
		return ErrInvalidSignature
	}
	return nil
}

// Algorithm returns the digest algorithm used by the signer
func (s *Signer) Algorithm() Algorithm {
	return s.algorithm
}

// Canonicalize renders params as key=value pairs sorted by key and joined with "&".
// Values are not percent-encoded.
func Canonicalize(params Params) string {
	keys := lo.Keys(params)
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(params[k])
	}
	return b.String()
}

func generate(algorithm Algorithm, secret []byte, params Params) string {
	h := hmac.New(hashFunc(algorithm), secret)
	h.Write([]byte(Canonicalize(params)))
	return hex.EncodeToString(h.Sum(nil))
}

func hashFunc(algorithm Algorithm) func() hash.Hash {
	if algorithm == SHA1 {
		return sha1.New
	}
	return sha256.New
}
