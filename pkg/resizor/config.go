package resizor

import (
	"errors"
	"fmt"

	"github.com/tendant/resizor-go/pkg/resizor/signature"
)

// Config identifies the account and service a repository talks to.
// It is copied into the repository and never modified afterwards.
type Config struct {
	APIVersion string
	AccessKey  string
	SecretKey  string
	Host       string

	// SignatureAlgorithm selects the HMAC digest; empty means signature.DefaultAlgorithm.
	SignatureAlgorithm signature.Algorithm
}

// Validate validates the account configuration
func (c Config) Validate() error {
	var errs []error
	if c.Host == "" {
		errs = append(errs, errors.New("host is required"))
	}
	if c.APIVersion == "" {
		errs = append(errs, errors.New("api_version is required"))
	}
	if c.AccessKey == "" {
		errs = append(errs, errors.New("access_key is required"))
	}
	if c.SecretKey == "" {
		errs = append(errs, errors.New("secret_key is required"))
	}
	if c.SignatureAlgorithm != "" && !signature.ValidAlgorithm(c.SignatureAlgorithm) {
		errs = append(errs, fmt.Errorf("signature_algorithm %q is not supported", c.SignatureAlgorithm))
	}
	return errors.Join(errs...)
}
