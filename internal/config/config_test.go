package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		App:     AppConfig{Environment: "development"},
		Logger:  LoggerConfig{Level: "info"},
		Data:    DataConfig{Path: "/some/path"},
		Backend: BackendConfig{PollInterval: 5 * time.Second},
		Queue:   QueueConfig{MaxDrainAttempts: 5},
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidate_AllEnvironments(t *testing.T) {
	tests := []struct {
		env   string
		valid bool
	}{
		{"development", true},
		{"staging", true},
		{"production", true},
		{"test", false},
		{"", false},
		{"DEVELOPMENT", false}, // case sensitive
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			cfg := validConfig()
			cfg.App.Environment = tt.env
			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidate_AllLogLevels(t *testing.T) {
	tests := []struct {
		level string
		valid bool
	}{
		{"debug", true},
		{"info", true},
		{"warn", true},
		{"error", true},
		{"WARN", true}, // levels are case insensitive
		{"verbose", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			cfg := validConfig()
			cfg.Logger.Level = tt.level
			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidate_MaxDrainAttempts(t *testing.T) {
	cfg := validConfig()
	cfg.Queue.MaxDrainAttempts = 0
	assert.Error(t, cfg.Validate())

	cfg.Queue.MaxDrainAttempts = -1
	assert.Error(t, cfg.Validate())
}

func TestExpandPath_Default(t *testing.T) {
	got, err := expandPath("", "/default/path")
	require.NoError(t, err)
	assert.Equal(t, "/default/path", got)
}

func TestExpandPath_Tilde(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	got, err := expandPath("~/leaflog", "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "leaflog"), got)
}

func TestExpandPath_Relative(t *testing.T) {
	got, err := expandPath("data", "")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(got))
}

func TestGetConfigValue_Precedence(t *testing.T) {
	t.Setenv("LEAFLOG_TEST_KEY", "from-env")

	// Flag wins over env.
	assert.Equal(t, "from-flag", getConfigValue("from-flag", "LEAFLOG_TEST_KEY", "default"))
	// Env wins over default.
	assert.Equal(t, "from-env", getConfigValue("", "LEAFLOG_TEST_KEY", "default"))
	// Default when nothing else is set.
	assert.Equal(t, "default", getConfigValue("", "LEAFLOG_UNSET_KEY", "default"))
}

func TestGetIntConfigValue(t *testing.T) {
	t.Setenv("LEAFLOG_TEST_INT", "7")
	assert.Equal(t, 7, getIntConfigValue("", "LEAFLOG_TEST_INT", 5))

	t.Setenv("LEAFLOG_TEST_INT", "not a number")
	assert.Equal(t, 5, getIntConfigValue("", "LEAFLOG_TEST_INT", 5))

	assert.Equal(t, 5, getIntConfigValue("", "LEAFLOG_UNSET_INT", 5))
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "# comment\nLEAFLOG_FILE_KEY=file-value\nLEAFLOG_QUOTED=\"quoted\"\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("LEAFLOG_FILE_KEY", "")
	os.Unsetenv("LEAFLOG_FILE_KEY")
	t.Setenv("LEAFLOG_PRESET", "already-set")

	require.NoError(t, loadEnvFile(path))
	assert.Equal(t, "file-value", os.Getenv("LEAFLOG_FILE_KEY"))
	assert.Equal(t, "quoted", os.Getenv("LEAFLOG_QUOTED"))
	// Real env vars win over .env entries.
	assert.Equal(t, "already-set", os.Getenv("LEAFLOG_PRESET"))

	t.Cleanup(func() {
		os.Unsetenv("LEAFLOG_FILE_KEY")
		os.Unsetenv("LEAFLOG_QUOTED")
	})
}
