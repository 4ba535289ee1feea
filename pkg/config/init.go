package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const configHeader = `# sessiond Configuration File
#
# Every key can be overridden with an environment variable:
#   SESSIOND_<SECTION>_<KEY>, e.g. SESSIOND_SERVER_PORT=7001
#
# Sizes accept human-readable values ("8KiB", "64k"); durations accept
# Go duration strings ("30s", "5m").

`

// InitConfig writes a default config file to the default location and
// returns its path.
func InitConfig(force bool) (string, error) {
	path := GetDefaultConfigPath()
	return path, InitConfigToPath(path, force)
}

// InitConfigToPath writes a default config file to path. An existing file
// is only replaced when force is set.
func InitConfigToPath(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", path)
	}

	cfg := GetDefaultConfig()
	secret, err := generateSecret()
	if err != nil {
		return err
	}
	cfg.API.Secret = secret

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, append([]byte(configHeader), data...), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// generateSecret returns 32 random bytes, hex encoded.
func generateSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate API secret: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
