package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/marmos91/sessiond/internal/bytesize"
	"github.com/marmos91/sessiond/pkg/api"
)

// Config represents the sessiond configuration.
//
// Configuration sources (in order of precedence):
//  1. Environment variables (SESSIOND_*)
//  2. Configuration file (YAML)
//  3. Default values
type Config struct {
	Logging   LoggingConfig   `mapstructure:"logging" yaml:"logging"`
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`

	// Server configures the TCP listener.
	Server ServerConfig `mapstructure:"server" yaml:"server"`

	// Session configures the reference session served to each connection.
	Session SessionConfig `mapstructure:"session" yaml:"session"`

	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`

	// API configures the admin HTTP API.
	API api.APIConfig `mapstructure:"api" yaml:"api"`

	Journal JournalConfig `mapstructure:"journal" yaml:"journal"`

	// ShutdownTimeout bounds the graceful shutdown of the HTTP side servers.
	// Stopping the TCP server itself waits for every session.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required,gt=0" yaml:"shutdown_timeout"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is one of DEBUG, INFO, WARN, ERROR (case-insensitive)
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`

	// Format is text or json
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`

	// Output is stdout, stderr, or a file path
	Output string `mapstructure:"output" validate:"required" yaml:"output"`

	// Watch reloads the log level when the config file changes.
	Watch bool `mapstructure:"watch" yaml:"watch"`
}

// TelemetryConfig controls OpenTelemetry tracing.
type TelemetryConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Endpoint is the OTLP gRPC collector (host:port)
	Endpoint string `mapstructure:"endpoint" validate:"required_if=Enabled true" yaml:"endpoint"`

	Insecure bool `mapstructure:"insecure" yaml:"insecure"`

	// SampleRate is the fraction of sessions traced (0.0 to 1.0)
	SampleRate float64 `mapstructure:"sample_rate" validate:"omitempty,gte=0,lte=1" yaml:"sample_rate"`

	Profiling ProfilingConfig `mapstructure:"profiling" yaml:"profiling"`
}

// ProfilingConfig controls Pyroscope continuous profiling.
type ProfilingConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Endpoint is the Pyroscope server URL
	Endpoint string `mapstructure:"endpoint" validate:"omitempty,url" yaml:"endpoint"`

	ProfileTypes []string `mapstructure:"profile_types" yaml:"profile_types"`
}

// ServerConfig configures the TCP server.
type ServerConfig struct {
	// Name identifies the server in logs, metrics and traces.
	Name string `mapstructure:"name" validate:"required" yaml:"name"`

	// Protocol selects the wildcard address when Address is empty: ipv4 or ipv6.
	Protocol string `mapstructure:"protocol" validate:"required,oneof=ipv4 ipv6" yaml:"protocol"`

	// Address binds a specific interface instead of the wildcard.
	Address string `mapstructure:"address" validate:"omitempty,ip" yaml:"address,omitempty"`

	// Port is the TCP port; 0 picks an ephemeral port.
	Port int `mapstructure:"port" validate:"min=0,max=65535" yaml:"port"`

	ReuseAddress bool `mapstructure:"reuse_address" yaml:"reuse_address"`
	ReusePort    bool `mapstructure:"reuse_port" yaml:"reuse_port"`
	NoDelay      bool `mapstructure:"no_delay" yaml:"no_delay"`
}

// SessionConfig configures accepted sessions.
type SessionConfig struct {
	// Mode is echo or discard.
	Mode string `mapstructure:"mode" validate:"required,oneof=echo discard" yaml:"mode"`

	// ReadBufferSize accepts human-readable sizes like "8KiB".
	ReadBufferSize bytesize.ByteSize `mapstructure:"read_buffer_size" validate:"gt=0" yaml:"read_buffer_size"`

	// IdleTimeout disconnects sessions that receive nothing for this long.
	// Zero disables it.
	IdleTimeout time.Duration `mapstructure:"idle_timeout" validate:"gte=0" yaml:"idle_timeout"`

	// WriteTimeout bounds each Send. Zero disables it.
	WriteTimeout time.Duration `mapstructure:"write_timeout" validate:"gte=0" yaml:"write_timeout"`
}

// MetricsConfig configures the Prometheus metrics HTTP server.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	Address string `mapstructure:"address" validate:"omitempty,ip" yaml:"address,omitempty"`

	// Port is the HTTP port for /metrics
	// Default: 9090
	Port int `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port"`
}

// JournalConfig configures the session journal.
type JournalConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Type is memory or badger.
	Type string `mapstructure:"type" validate:"required,oneof=memory badger" yaml:"type"`

	// Path is the badger directory. Empty keeps badger in memory.
	Path string `mapstructure:"path" yaml:"path,omitempty"`

	// Capacity is the number of events retained.
	Capacity int `mapstructure:"capacity" validate:"gte=0" yaml:"capacity"`
}

// Load loads configuration from file, environment, and defaults.
// A missing config file yields the defaults.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	configFileFound, err := readConfigFile(v)
	if err != nil {
		return nil, err
	}

	if !configFileFound {
		return GetDefaultConfig(), nil
	}

	cfg, err := unmarshal(v)
	if err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(configDecodeHooks())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	ApplyDefaults(&cfg)
	return &cfg, nil
}

// MustLoad loads configuration and explains how to create it when missing.
func MustLoad(configPath string) (*Config, error) {
	if configPath == "" {
		if !DefaultConfigExists() {
			return nil, fmt.Errorf("no configuration file found at default location: %s\n\n"+
				"Please initialize a configuration file first:\n"+
				"  sessiond config init\n\n"+
				"Or specify a custom config file:\n"+
				"  sessiond <command> --config /path/to/config.yaml",
				GetDefaultConfigPath())
		}
		configPath = GetDefaultConfigPath()
	} else if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s\n\n"+
			"Please create the configuration file:\n"+
			"  sessiond config init --config %s",
			configPath, configPath)
	}

	cfg, err := Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// SaveConfig writes cfg as YAML. The file may hold the API secret, so it
// is created owner-only.
func SaveConfig(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// setupViper configures environment overrides and the config file location.
// Example: SESSIOND_SERVER_PORT=7000
func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix("SESSIOND")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		return
	}
	v.AddConfigPath(getConfigDir())
	v.SetConfigName("config")
	v.SetConfigType("yaml")
}

// readConfigFile reports whether a config file was found.
func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read config file: %w", err)
	}
	return true, nil
}

func configDecodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		byteSizeDecodeHook(),
		durationDecodeHook(),
		mapstructure.StringToSliceHookFunc(","),
	)
}

// byteSizeDecodeHook converts strings and numbers to bytesize.ByteSize.
func byteSizeDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(bytesize.ByteSize(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			return bytesize.ParseByteSize(v)
		case int:
			return bytesize.ByteSize(v), nil
		case int64:
			return bytesize.ByteSize(v), nil
		case uint64:
			return bytesize.ByteSize(v), nil
		case float64:
			// YAML numbers may decode as float64
			return bytesize.ByteSize(v), nil
		default:
			return data, nil
		}
	}
}

// durationDecodeHook converts strings like "30s" to time.Duration.
func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			return time.ParseDuration(v)
		case int:
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		case float64:
			return time.Duration(v), nil
		default:
			return data, nil
		}
	}
}

// getConfigDir returns $XDG_CONFIG_HOME/sessiond, ~/.config/sessiond, or ".".
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "sessiond")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "sessiond")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// DefaultConfigExists checks if a config file exists at the default location.
func DefaultConfigExists() bool {
	_, err := os.Stat(GetDefaultConfigPath())
	return err == nil
}

// GetConfigDir returns the configuration directory path.
func GetConfigDir() string {
	return getConfigDir()
}
