package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/pingtriage/internal/foundation/errors"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("PT_TEST_TEAM", "team-42")

	configContent := "version: \"3.2.1\"\n" +
		"linear:\n" +
		"  team_id: ${PT_TEST_TEAM}\n" +
		"  user_id: u-1\n" +
		"platforms:\n" +
		"  slack:\n" +
		"    enabled: true\n" +
		"  figma:\n" +
		"    enabled: true\n" +
		"user:\n" +
		"  name: Ada\n" +
		"  role: Staff Engineer\n" +
		"state:\n" +
		"  base_dir: /tmp/pings\n" +
		"  max_lookback_days: 14\n" +
		"  lock: true\n" +
		"logging:\n" +
		"  level: DEBUG\n" +
		"  format: json\n"

	path := filepath.Join(t.TempDir(), "pingtriage.yaml")
	require.NoError(t, os.WriteFile(path, []byte(configContent), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "team-42", cfg.Linear.TeamID)
	assert.Equal(t, "u-1", cfg.Linear.UserID)
	assert.Equal(t, DefaultStatusNew, cfg.Linear.StatusNew, "blank status backfilled")
	assert.Equal(t, DefaultStatusDone, cfg.Linear.StatusDone)
	assert.Equal(t, []string{"figma", "slack"}, cfg.EnabledPlatforms())
	assert.Equal(t, "Staff Engineer", cfg.User.Role)
	assert.Equal(t, "/tmp/pings", cfg.State.BaseDir)
	assert.Equal(t, 14, cfg.State.MaxLookbackDays)
	assert.True(t, cfg.State.Lock)
	assert.Equal(t, LogLevelDebug, cfg.Logging.Level)
	assert.Equal(t, LogFormatJSON, cfg.Logging.Format)
	assert.Equal(t, DefaultMetricsAddr, cfg.Metrics.Addr)
	assert.True(t, cfg.IsValid())
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := Parse([]byte("version: \"3.0\"\n"))
	require.NoError(t, err)

	assert.Equal(t, ".", cfg.State.BaseDir)
	assert.Equal(t, DefaultMaxLookbackDays, cfg.State.MaxLookbackDays)
	assert.Equal(t, LogLevelInfo, cfg.Logging.Level)
	assert.Equal(t, LogFormatText, cfg.Logging.Format)
	assert.Equal(t, []string{"p2", "slack"}, cfg.EnabledPlatforms())
	assert.False(t, cfg.IsValid(), "no team configured")
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
}

func TestLoadConfigRejectsUnsupportedVersion(t *testing.T) {
	_, err := Parse([]byte("version: \"2.0\"\n"))
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryValidation))
	assert.Contains(t, err.Error(), "unsupported configuration version")
}

func TestLoadConfigRejectsBadYAML(t *testing.T) {
	_, err := Parse([]byte("version: [unterminated\n"))
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
}

func TestLoadOrDefault(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, CurrentVersion, cfg.Version)

	cfg, err = LoadOrDefault("")
	require.NoError(t, err)
	assert.Equal(t, DefaultMaxLookbackDays, cfg.State.MaxLookbackDays)
}

func TestLoadEnvFiles(t *testing.T) {
	const key = "PT_TEST_ENV_ONLY"
	t.Cleanup(func() { _ = os.Unsetenv(key) })
	t.Setenv("PT_TEST_PRESET", "from-process")

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
		[]byte(key+"=from-env\nPT_TEST_PRESET=from-file\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env.local"),
		[]byte(key+"=from-local\n"), 0o600))

	loaded, err := loadEnvFiles(dir)
	require.NoError(t, err)
	assert.Len(t, loaded, 2)
	assert.Equal(t, "from-env", os.Getenv(key), ".env wins over .env.local")
	assert.Equal(t, "from-process", os.Getenv("PT_TEST_PRESET"), "process env is never overridden")
}

func TestInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "pingtriage.yaml")
	require.NoError(t, Init(path, false))

	err := Init(path, false)
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryAlreadyExists))

	require.NoError(t, Init(path, true))

	t.Setenv("LINEAR_TEAM_ID", "T-1")
	t.Setenv("LINEAR_USER_ID", "U-1")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "T-1", cfg.Linear.TeamID)
	assert.Equal(t, "Engineer", cfg.User.Role)
	assert.True(t, cfg.IsValid())
}
