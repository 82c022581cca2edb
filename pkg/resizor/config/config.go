package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/tendant/resizor-go/pkg/resizor"
	"github.com/tendant/resizor-go/pkg/resizor/signature"
	"github.com/tendant/resizor-go/pkg/resizor/transport"
)

// Option applies configuration to a ClientConfig instance.
type Option func(*ClientConfig) error

// Load constructs a ClientConfig by applying the supplied options on top of library defaults.
func Load(opts ...Option) (*ClientConfig, error) {
	cfg := defaults()

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func defaults() ClientConfig {
	return ClientConfig{
		APIVersion:         "v1",
		SignatureAlgorithm: string(signature.DefaultAlgorithm),
		Timeout:            30 * time.Second,
		UserAgent:          "resizor-go",
	}
}

// ClientConfig holds everything needed to build an ImageRepository
type ClientConfig struct {
	Host       string `yaml:"host" json:"host" toml:"host" env:"RESIZOR_HOST"`
	APIVersion string `yaml:"api_version" json:"api_version" toml:"api_version" env:"RESIZOR_API_VERSION"`
	AccessKey  string `yaml:"access_key" json:"access_key" toml:"access_key" env:"RESIZOR_ACCESS_KEY"`
	SecretKey  string `yaml:"secret_key" json:"secret_key" toml:"secret_key" env:"RESIZOR_SECRET_KEY"`

	SignatureAlgorithm string        `yaml:"signature_algorithm" json:"signature_algorithm" toml:"signature_algorithm" env:"RESIZOR_SIGNATURE_ALGORITHM"`
	Timeout            time.Duration `yaml:"timeout" json:"timeout" toml:"timeout" env:"RESIZOR_TIMEOUT"`
	UserAgent          string        `yaml:"user_agent" json:"user_agent" toml:"user_agent" env:"RESIZOR_USER_AGENT"`
}

// Validate validates the client configuration
func (c *ClientConfig) Validate() error {
	if err := c.Account().Validate(); err != nil {
		return err
	}
	if c.Timeout < 0 {
		return errors.New("timeout must not be negative")
	}
	return nil
}

// Account returns the account identity portion of the configuration
func (c *ClientConfig) Account() resizor.Config {
	return resizor.Config{
		Host:               c.Host,
		APIVersion:         c.APIVersion,
		AccessKey:          c.AccessKey,
		SecretKey:          c.SecretKey,
		SignatureAlgorithm: signature.Algorithm(c.SignatureAlgorithm),
	}
}

// BuildTransport creates the HTTP transport described by the configuration
func (c *ClientConfig) BuildTransport(opts ...transport.HTTPOption) *transport.HTTPTransport {
	base := []transport.HTTPOption{
		transport.WithTimeout(c.Timeout),
		transport.WithUserAgent(c.UserAgent),
	}
	return transport.NewHTTP(append(base, opts...)...)
}

// BuildRepository creates an ImageRepository from the configuration
func (c *ClientConfig) BuildRepository(opts ...resizor.Option) (*resizor.ImageRepository, error) {
	repo, err := resizor.New(c.Account(), c.BuildTransport(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build repository: %w", err)
	}
	return repo, nil
}
