package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks cfg against its struct tags and cross-field rules.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return formatValidationErrors(verrs)
		}
		return err
	}

	if cfg.Metrics.Enabled && cfg.API.Enabled && cfg.Metrics.Port == cfg.API.Port {
		return fmt.Errorf("metrics.port and api.port must differ (both %d)", cfg.API.Port)
	}
	if cfg.Server.Port != 0 && cfg.API.Enabled && cfg.Server.Port == cfg.API.Port {
		return fmt.Errorf("server.port and api.port must differ (both %d)", cfg.API.Port)
	}
	return nil
}

func formatValidationErrors(verrs validator.ValidationErrors) error {
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.TrimPrefix(fe.Namespace(), "Config.")
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s: failed '%s=%s' (value %v)", field, fe.Tag(), fe.Param(), fe.Value()))
			continue
		}
		msgs = append(msgs, fmt.Sprintf("%s: failed '%s' (value %v)", field, fe.Tag(), fe.Value()))
	}
	return errors.New(strings.Join(msgs, "; "))
}
