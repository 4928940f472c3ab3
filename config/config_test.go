package config_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rskv-p/jsbridge/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "jsbridge.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := config.Default()
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, "file", cfg.Snapshot.Type)
	assert.Equal(t, 5*time.Second, cfg.NATS.Timeout)
}

func TestLoad(t *testing.T) {
	t.Setenv("TEST_JSB_DSN", "/tmp/images.db")
	path := writeConfig(t, `{
		"name": "edge",
		"max_message_size": 1024,
		"log": {"level": "debug", "style": "light"},
		"snapshot": {"type": "sqlite", "dsn": "${TEST_JSB_DSN}"},
		"nats": {"embedded": true, "port": -1, "timeout": "250ms"}
	}`)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "edge", cfg.Name)
	assert.Equal(t, 1024, cfg.MaxMessageSize)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "light", cfg.Log.Style)
	assert.Equal(t, "/tmp/images.db", cfg.Snapshot.DSN)
	assert.True(t, cfg.NATS.Embedded)
	assert.Equal(t, -1, cfg.NATS.Port)
	assert.Equal(t, 250*time.Millisecond, cfg.NATS.Timeout)

	// untouched sections keep their defaults
	assert.Equal(t, config.Default().HTTP.Addr, cfg.HTTP.Addr)
	assert.Equal(t, config.Default().NATS.InSubject, cfg.NATS.InSubject)
	assert.NoError(t, cfg.Validate())
}

func TestLoadErrors(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = config.Load(writeConfig(t, `{"name":`))
	assert.Error(t, err)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("JSBT_NAME", "from-env")
	t.Setenv("JSBT_SNAPSHOT_STORE", "postgres")
	t.Setenv("JSBT_SNAPSHOT_DSN", "postgres://localhost/db")
	t.Setenv("JSBT_NATS_TIMEOUT", "2s")
	t.Setenv("JSBT_LOG_JSON", "true")

	cfg := config.LoadFromEnv("JSBT_")
	assert.Equal(t, "from-env", cfg.Name)
	assert.Equal(t, "postgres", cfg.Snapshot.Type)
	assert.Equal(t, 2*time.Second, cfg.NATS.Timeout)
	assert.True(t, cfg.Log.JSON)
	assert.NoError(t, cfg.Validate())
}

func TestLoadWithFallback(t *testing.T) {
	t.Setenv("JSB_CONFIG", "")
	t.Setenv("JSB_HTTP_ADDR", ":9999")

	cfg, err := config.LoadWithFallback(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.HTTP.Addr)

	cfg, err = config.LoadWithFallback(writeConfig(t, `{"name":"file"}`))
	require.NoError(t, err)
	assert.Equal(t, "file", cfg.Name)
	assert.Equal(t, ":9999", cfg.HTTP.Addr)
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*config.Config){
		"name":          func(c *config.Config) { c.Name = "" },
		"snapshot.type": func(c *config.Config) { c.Snapshot.Type = "s3" },
		"snapshot.dsn":  func(c *config.Config) { c.Snapshot.Type = "sqlite" },
		"nats.timeout":  func(c *config.Config) { c.NATS.Timeout = 0 },
		"nats.port": func(c *config.Config) {
			c.NATS.Embedded = true
			c.NATS.Port = 70000
		},
	}
	for want, mutate := range cases {
		t.Run(want, func(t *testing.T) {
			cfg := config.Default()
			mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), want)
		})
	}
}

func TestDump(t *testing.T) {
	var buf bytes.Buffer
	cfg := config.Default()
	cfg.Dump(&buf)
	assert.Contains(t, buf.String(), `"snapshot"`)
	assert.Equal(t, cfg.String()+"\n", buf.String())
}

func TestContext(t *testing.T) {
	assert.Equal(t, config.Default(), config.FromContext(context.Background()))

	cfg := config.Default()
	cfg.Name = "ctx"
	ctx := config.WithContext(context.Background(), cfg)
	assert.Same(t, cfg, config.FromContext(ctx))
}
