package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// WithEnv overrides fields from RESIZOR_* environment variables.
//
//	RESIZOR_HOST                 - Service base URL, e.g. "https://resizor.example.com"
//	RESIZOR_API_VERSION          - API version path segment (default: "v1")
//	RESIZOR_ACCESS_KEY           - Account access key
//	RESIZOR_SECRET_KEY           - Account secret key
//	RESIZOR_SIGNATURE_ALGORITHM  - "sha256" (default) or "sha1"
//	RESIZOR_TIMEOUT              - Per-request timeout, e.g. "30s"
//	RESIZOR_USER_AGENT           - User-Agent header
func WithEnv() Option {
	return func(c *ClientConfig) error {
		if err := cleanenv.ReadEnv(c); err != nil {
			return fmt.Errorf("failed to read environment: %w", err)
		}
		return nil
	}
}

// WithFile reads a YAML, JSON, TOML or .env file, then the RESIZOR_* environment.
// Environment variables override values from the file.
func WithFile(path string) Option {
	return func(c *ClientConfig) error {
		if path == "" {
			return errors.New("config file path is empty")
		}
		if err := cleanenv.ReadConfig(path, c); err != nil {
			return fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		return nil
	}
}

// WithHost sets the service base URL
func WithHost(host string) Option {
	return func(c *ClientConfig) error {
		c.Host = host
		return nil
	}
}

// WithAPIVersion sets the API version path segment
func WithAPIVersion(version string) Option {
	return func(c *ClientConfig) error {
		c.APIVersion = version
		return nil
	}
}

// WithCredentials sets the account access and secret keys
func WithCredentials(accessKey, secretKey string) Option {
	return func(c *ClientConfig) error {
		c.AccessKey = accessKey
		c.SecretKey = secretKey
		return nil
	}
}

// WithSignatureAlgorithm selects "sha256" or "sha1"
func WithSignatureAlgorithm(algorithm string) Option {
	return func(c *ClientConfig) error {
		c.SignatureAlgorithm = algorithm
		return nil
	}
}

// WithTimeout sets the per-request timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *ClientConfig) error {
		if timeout < 0 {
			return errors.New("timeout must not be negative")
		}
		c.Timeout = timeout
		return nil
	}
}
