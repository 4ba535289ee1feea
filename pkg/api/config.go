package api

import (
	"net"
	"os"
	"strconv"
	"time"
)

// EnvAPISecret overrides APIConfig.Secret when set.
const EnvAPISecret = "SESSIOND_API_SECRET"

// APIConfig configures the admin HTTP API.
type APIConfig struct {
	// Enabled controls whether the API server is started.
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Address is the interface the API binds to.
	// Default: 127.0.0.1
	Address string `mapstructure:"address" validate:"omitempty,ip" yaml:"address"`

	// Port is the HTTP port for the API endpoints.
	// Default: 8090
	Port int `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port"`

	ReadTimeout  time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout"`

	// Secret is the HMAC key for bearer tokens. When empty the API is
	// served without authentication.
	Secret string `mapstructure:"secret" validate:"omitempty,min=32" yaml:"secret,omitempty"`

	// TokenDuration is the lifetime of tokens issued by `sessiond token`.
	// Default: 1h
	TokenDuration time.Duration `mapstructure:"token_duration" yaml:"token_duration"`
}

// ApplyDefaults fills in zero values.
func (c *APIConfig) ApplyDefaults() {
	if c.Address == "" {
		c.Address = "127.0.0.1"
	}
	if c.Port == 0 {
		c.Port = 8090
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 10 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 10 * time.Second
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 60 * time.Second
	}
	if c.TokenDuration == 0 {
		c.TokenDuration = time.Hour
	}
}

// GetSecret returns the token secret, preferring the environment.
func (c *APIConfig) GetSecret() string {
	if s := os.Getenv(EnvAPISecret); s != "" {
		return s
	}
	return c.Secret
}

// ListenAddress returns host:port.
func (c *APIConfig) ListenAddress() string {
	return net.JoinHostPort(c.Address, strconv.Itoa(c.Port))
}
