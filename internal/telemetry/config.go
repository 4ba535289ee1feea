package telemetry

const (
	// DefaultServiceName is reported as service.name when none is given.
	DefaultServiceName = "sessiond"

	// DefaultEndpoint is the local OTLP collector.
	DefaultEndpoint = "localhost:4317"
)

// Config selects where session spans are exported and how many are kept.
type Config struct {
	Enabled        bool
	ServiceName    string
	ServiceVersion string

	// Endpoint is the collector's host:port; the exporter speaks OTLP/gRPC.
	Endpoint string
	Insecure bool

	// SampleRate is the fraction of accepted sessions traced. Values at or
	// above 1 trace every session, at or below 0 none.
	SampleRate float64
}

// DefaultConfig returns tracing disabled with a plaintext local collector.
func DefaultConfig() Config {
	return Config{
		ServiceName:    DefaultServiceName,
		ServiceVersion: "dev",
		Endpoint:       DefaultEndpoint,
		Insecure:       true,
		SampleRate:     1.0,
	}
}

// withDefaults fills the identity and endpoint fields a partial config
// leaves empty.
func (c Config) withDefaults() Config {
	if c.ServiceName == "" {
		c.ServiceName = DefaultServiceName
	}
	if c.ServiceVersion == "" {
		c.ServiceVersion = "dev"
	}
	if c.Endpoint == "" {
		c.Endpoint = DefaultEndpoint
	}
	return c
}
