// Package pms provides a client for the property-management system's rate API.
package pms

import (
	"errors"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds the configuration for PMS API access.
type Config struct {
	// BaseURL is the PMS API base URL.
	BaseURL string `envconfig:"PMS_BASE_URL" default:"https://api.cloudbeds.com/api/v1.3"`

	// Timeout for individual API requests.
	Timeout time.Duration `envconfig:"PMS_TIMEOUT" default:"30s"`
}

// LoadConfig reads the client configuration from the environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Credential errors surfaced before any network call is made.
var (
	ErrMissingProperty = errors.New("property ID is required")
	ErrMissingToken    = errors.New("bearer token is required")
)

// Credentials identify one property session against the PMS API.
// The token is an opaque bearer string supplied by the user and passed
// through verbatim on every request.
type Credentials struct {
	PropertyID string
	Token      string
}

// Validate checks that both credential fields are present.
func (c Credentials) Validate() error {
	if c.PropertyID == "" {
		return ErrMissingProperty
	}
	if c.Token == "" {
		return ErrMissingToken
	}
	return nil
}
