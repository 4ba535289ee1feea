package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/marmos91/sessiond/internal/logger"
	"github.com/marmos91/sessiond/internal/telemetry"
	"github.com/marmos91/sessiond/pkg/config"
	sessiondRuntime "github.com/marmos91/sessiond/pkg/runtime"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the sessiond server",
	Long: `Start the sessiond server in the foreground.

The server runs until SIGINT or SIGTERM. On shutdown every live session is
disconnected before the process exits.

Examples:
  # Start with default config location
  sessiond start

  # Start with custom config file
  sessiond start --config /etc/sessiond/config.yaml

  # Override settings from the environment
  SESSIOND_LOGGING_LEVEL=DEBUG SESSIOND_SERVER_PORT=7001 sessiond start`,
	RunE: runStart,
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if err := InitLogger(cfg); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	telemetryShutdown, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "sessiond",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRate:     cfg.Telemetry.SampleRate,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		if err := telemetryShutdown(context.Background()); err != nil {
			logger.Error("Telemetry shutdown error", logger.Err(err))
		}
	}()

	profilingShutdown, err := telemetry.InitProfiling(telemetry.ProfilingConfig{
		Enabled:        cfg.Telemetry.Profiling.Enabled,
		ServiceName:    "sessiond",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Profiling.Endpoint,
		ProfileTypes:   cfg.Telemetry.Profiling.ProfileTypes,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize profiling: %w", err)
	}
	defer func() {
		if err := profilingShutdown(); err != nil {
			logger.Error("Profiling shutdown error", logger.Err(err))
		}
	}()

	logger.Info("Log level", "level", cfg.Logging.Level, "format", cfg.Logging.Format)
	logger.Info("Configuration loaded", "source", getConfigSource(GetConfigFile()))
	if telemetry.IsEnabled() {
		logger.Info("Telemetry enabled", "endpoint", cfg.Telemetry.Endpoint, "sample_rate", cfg.Telemetry.SampleRate)
	}
	if telemetry.IsProfilingEnabled() {
		logger.Info("Profiling enabled", "endpoint", cfg.Telemetry.Profiling.Endpoint)
	}

	if cfg.Logging.Watch {
		err := config.WatchLogLevel(GetConfigFile(), logger.SetLevel)
		switch {
		case errors.Is(err, config.ErrNoConfigFile):
			logger.Debug("Log level watch skipped: running on defaults")
		case err != nil:
			logger.Warn("Failed to watch configuration", logger.Err(err))
		}
	}

	rt, err := sessiondRuntime.New(cfg)
	if err != nil {
		return err
	}

	logger.Info("Server is running. Press Ctrl+C to stop.",
		logger.KeyAddress, rt.Server().Addr().String())

	if err := rt.Serve(ctx); err != nil {
		logger.Error("Server error", logger.Err(err))
		return err
	}
	logger.Info("Server stopped gracefully")
	return nil
}

// loadConfig loads the config file when one exists and falls back to
// defaults otherwise.
func loadConfig() (*config.Config, error) {
	path := GetConfigFile()
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return config.MustLoad(path)
		}
	}
	return config.Load(path)
}

// getConfigSource returns a description of where the config was loaded from.
func getConfigSource(configFile string) string {
	if configFile != "" {
		return configFile
	}
	if config.DefaultConfigExists() {
		return config.GetDefaultConfigPath()
	}
	return "defaults"
}
