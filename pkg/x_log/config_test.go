package x_log

import (
	"testing"

	"github.com/mitchellh/mapstructure"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsCopy(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Level = "trace"
	cfg.MaxSize = 1

	assert.Equal(t, "info", DefaultConfig().Level)
	assert.Equal(t, 10, DefaultConfig().MaxSize)
}

func TestApplyDefaults(t *testing.T) {
	tests := []struct {
		name string
		in   Config
		want func(t *testing.T, c Config)
	}{
		{"empty", Config{}, func(t *testing.T, c Config) {
			assert.Equal(t, "info", c.Level)
			assert.Equal(t, "logs/app.log", c.LogFile)
			assert.Equal(t, "dark", c.Style)
			assert.Equal(t, 10, c.MaxSize)
			assert.Equal(t, 5, c.MaxBackups)
			assert.Equal(t, 7, c.MaxAge)
		}},
		{"keeps values", Config{Level: "debug", Style: "light", MaxSize: 20}, func(t *testing.T, c Config) {
			assert.Equal(t, "debug", c.Level)
			assert.Equal(t, "light", c.Style)
			assert.Equal(t, 20, c.MaxSize)
		}},
		{"negative limits", Config{MaxBackups: -1, MaxAge: -3}, func(t *testing.T, c Config) {
			assert.Equal(t, 5, c.MaxBackups)
			assert.Equal(t, 7, c.MaxAge)
		}},
		{"flags untouched", Config{ToFile: true, JSON: true}, func(t *testing.T, c Config) {
			assert.True(t, c.ToFile)
			assert.True(t, c.JSON)
			assert.False(t, c.ToConsole)
			assert.False(t, c.Compress)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := tt.in
			ApplyDefaults(&c)
			tt.want(t, c)
		})
	}
}

// The app config file carries the log section under snake_case keys.
func TestConfigDecodeSection(t *testing.T) {
	raw := map[string]any{
		"level":       "warn",
		"log_file":    "/var/log/jsbridge.log",
		"to_file":     true,
		"json":        true,
		"max_backups": 2,
	}

	cfg := DefaultConfig()
	require.NoError(t, mapstructure.Decode(raw, &cfg))

	assert.Equal(t, "warn", cfg.Level)
	assert.Equal(t, "/var/log/jsbridge.log", cfg.LogFile)
	assert.True(t, cfg.ToFile)
	assert.True(t, cfg.JSON)
	assert.Equal(t, 2, cfg.MaxBackups)
	assert.True(t, cfg.ToConsole)
	assert.Equal(t, 10, cfg.MaxSize)
}
