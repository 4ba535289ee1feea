package config

import (
	"strings"
	"time"

	"github.com/marmos91/sessiond/internal/bytesize"
	"github.com/marmos91/sessiond/pkg/api"
	"github.com/marmos91/sessiond/pkg/journal"
	"github.com/marmos91/sessiond/pkg/session"
)

// ApplyDefaults fills zero values with defaults. Explicit values are kept.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyTelemetryDefaults(&cfg.Telemetry)
	applyServerDefaults(&cfg.Server)
	applySessionDefaults(&cfg.Session)
	applyMetricsDefaults(&cfg.Metrics)
	cfg.API.ApplyDefaults()
	applyJournalDefaults(&cfg.Journal)

	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
}

func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

func applyTelemetryDefaults(cfg *TelemetryConfig) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "localhost:4317"
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 1.0
	}

	if cfg.Profiling.Endpoint == "" {
		cfg.Profiling.Endpoint = "http://localhost:4040"
	}
	if len(cfg.Profiling.ProfileTypes) == 0 {
		cfg.Profiling.ProfileTypes = []string{"cpu", "alloc_objects", "inuse_space", "goroutines"}
	}
}

func applyServerDefaults(cfg *ServerConfig) {
	if cfg.Name == "" {
		cfg.Name = "sessiond"
	}
	if cfg.Protocol == "" {
		cfg.Protocol = "ipv4"
	}
	cfg.Protocol = strings.ToLower(cfg.Protocol)
}

func applySessionDefaults(cfg *SessionConfig) {
	if cfg.Mode == "" {
		cfg.Mode = session.ModeEcho
	}
	cfg.Mode = strings.ToLower(cfg.Mode)

	if cfg.ReadBufferSize == 0 {
		cfg.ReadBufferSize = bytesize.ByteSize(session.DefaultReadBufferSize)
	}
}

func applyMetricsDefaults(cfg *MetricsConfig) {
	if cfg.Enabled && cfg.Port == 0 {
		cfg.Port = 9090
	}
}

func applyJournalDefaults(cfg *JournalConfig) {
	if cfg.Type == "" {
		cfg.Type = journal.TypeMemory
	}
	cfg.Type = strings.ToLower(cfg.Type)

	if cfg.Capacity == 0 {
		cfg.Capacity = journal.DefaultCapacity
	}
}

// GetDefaultConfig returns a Config with every default applied. The TCP
// port defaults to 7000.
func GetDefaultConfig() *Config {
	cfg := &Config{
		Server: ServerConfig{
			Port:         7000,
			ReuseAddress: true,
			NoDelay:      true,
		},
		Session: SessionConfig{
			IdleTimeout:  5 * time.Minute,
			WriteTimeout: 10 * time.Second,
		},
		API:     api.APIConfig{Enabled: true},
		Journal: JournalConfig{Enabled: true},
	}
	ApplyDefaults(cfg)
	return cfg
}
