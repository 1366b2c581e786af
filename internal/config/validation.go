package config

import (
	"fmt"
	"strings"

	"git.home.luguber.info/inful/pingtriage/internal/foundation"
)

// Validate checks structural problems that would make the config unusable.
// It does not require a Linear team: Settings.IsValid answers that question
// separately because a fresh install is allowed to run without one.
func Validate(cfg *Config) error {
	result := foundation.Required("version", cfg.Version)

	if major := strings.SplitN(cfg.Version, ".", 2)[0]; cfg.Version != "" && major != "3" {
		result = result.Combine(foundation.Invalid(foundation.NewValidationError(
			"version", "unsupported", fmt.Sprintf("unsupported configuration version: %s (expected 3.x)", cfg.Version))))
	}

	for name := range cfg.Platforms {
		if strings.TrimSpace(name) == "" {
			result = result.Combine(foundation.Invalid(foundation.NewValidationError(
				"platforms", "blank_name", "platform names must not be blank")))
			break
		}
	}

	if cfg.State.MaxLookbackDays > 3650 {
		result = result.Combine(foundation.Invalid(foundation.NewValidationError(
			"state.max_lookback_days", "range", "max_lookback_days must be at most 3650")))
	}

	if cfg.Metrics.Enabled {
		result = result.Combine(foundation.Required("metrics.addr", cfg.Metrics.Addr))
	}

	return result.ToError()
}
