package config

// Defaults applied by applyDefaults.
const (
	DefaultMaxLookbackDays = 30
	DefaultMetricsAddr     = ":9108"
	DefaultSessionDir      = "."
)

func applyDefaults(cfg *Config) {
	if cfg.Version == "" {
		cfg.Version = CurrentVersion
	}
	cfg.Settings.Backfill()

	if cfg.State.BaseDir == "" {
		cfg.State.BaseDir = "."
	}
	if cfg.State.MaxLookbackDays <= 0 {
		cfg.State.MaxLookbackDays = DefaultMaxLookbackDays
	}
	if cfg.State.SessionDir == "" {
		cfg.State.SessionDir = DefaultSessionDir
	}

	cfg.Logging.Level = NormalizeLogLevel(string(cfg.Logging.Level))
	cfg.Logging.Format = NormalizeLogFormat(string(cfg.Logging.Format))

	if cfg.Metrics.Addr == "" {
		cfg.Metrics.Addr = DefaultMetricsAddr
	}
}
