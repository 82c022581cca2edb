package signature

// Option is a functional option for configuring a Signer
type Option func(*Signer)

// WithSecretKey sets the secret key used for HMAC signing
func WithSecretKey(key string) Option {
	return func(s *Signer) {
		s.secretKey = []byte(key)
	}
}

// WithAlgorithm selects the HMAC digest. Unknown values fall back to SHA256.
func WithAlgorithm(algorithm Algorithm) Option {
	return func(s *Signer) {
		if ValidAlgorithm(algorithm) {
			s.algorithm = algorithm
		}
	}
}

// ValidAlgorithm reports whether algorithm is supported
func ValidAlgorithm(algorithm Algorithm) bool {
	return algorithm == SHA256 || algorithm == SHA1
}
