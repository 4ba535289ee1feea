package config

import (
	"errors"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/marmos91/sessiond/internal/logger"
)

// ErrNoConfigFile is returned by WatchLogLevel when there is no file to watch.
var ErrNoConfigFile = errors.New("no configuration file to watch")

// WatchLogLevel calls apply with the new logging.level each time the config
// file is rewritten with a valid configuration. Invalid edits are logged
// and ignored. The watch lasts for the life of the process.
func WatchLogLevel(configPath string, apply func(level string)) error {
	v := viper.New()
	setupViper(v, configPath)

	found, err := readConfigFile(v)
	if err != nil {
		return err
	}
	if !found {
		return ErrNoConfigFile
	}

	current := ""
	if cfg, err := unmarshal(v); err == nil {
		current = cfg.Logging.Level
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cfg, err := unmarshal(v)
		if err == nil {
			err = Validate(cfg)
		}
		if err != nil {
			logger.Warn("Ignoring invalid configuration change", "file", e.Name, logger.Err(err))
			return
		}
		if cfg.Logging.Level == current {
			return
		}
		logger.Info("Log level changed", "from", current, "to", cfg.Logging.Level)
		current = cfg.Logging.Level
		apply(current)
	})
	v.WatchConfig()
	return nil
}
